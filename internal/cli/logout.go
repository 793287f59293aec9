package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	Long: `End the current session.

The server is notified on a best-effort basis; the local session is cleared
regardless of whether the notification succeeds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application.Manager().Logout(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
