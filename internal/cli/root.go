// Package cli implements the medrec command tree. Every command builds the
// application once, talks to the backend through the session manager and
// prints either human-readable text or JSON.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclinic/medrec/internal/app"
	"github.com/openclinic/medrec/pkg/slogx"
)

var jsonOutput bool

// application is built once per invocation in the root PersistentPreRunE and
// torn down in PersistentPostRunE.
var application *app.Application

var rootCmd = &cobra.Command{
	Use:   "medrec",
	Short: "Client for the medical records backend",
	Long: `medrec is a command-line client for the medical records backend.

It signs in with credentials or SSO, keeps the session in a local encrypted
database, and attaches it to authenticated API calls.

Environment Variables:
  MEDREC_API_URLS         Comma-separated backend base URLs, tried in order
  MEDREC_ATTEMPT_TIMEOUT  Per-endpoint attempt timeout (default: 10s)
  MEDREC_DATABASE_FILE    Session database file (default: medrec.db)
  MEDREC_SEAL_KEY         Secret sealing the stored credential`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(app.LoadConfig())
		if err != nil {
			return err
		}
		application = a

		// Carry the configured logger on the command context so every
		// outbound request logs through it.
		cmd.SetContext(slogx.WithContext(cmd.Context(), a.Logger()))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if application == nil {
			return nil
		}
		return application.Close()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// printJSON renders v with stable two-space indentation on the command's
// stdout.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
