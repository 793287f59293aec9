package cli

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

var (
	apiMethod string
	apiData   string
)

var apiCmd = &cobra.Command{
	Use:   "api <path>",
	Short: "Call an authenticated backend endpoint",
	Long: `Call an authenticated backend endpoint and print the raw response body.

The stored credential is attached automatically. When the backend rejects it
with 401, the session is refreshed once and the call retried once.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}

		var payload []byte
		if apiData != "" {
			payload = []byte(apiData)
		}

		resp, err := application.Manager().Do(cmd.Context(), strings.ToUpper(apiMethod), path, nil, payload)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(body)))
		return nil
	},
}

func init() {
	apiCmd.Flags().StringVarP(&apiMethod, "method", "X", http.MethodGet, "HTTP method")
	apiCmd.Flags().StringVarP(&apiData, "data", "d", "", "JSON request body")
	rootCmd.AddCommand(apiCmd)
}
