package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session and backend sign-up availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m := application.Manager()
		out := cmd.OutOrStdout()

		if user := m.CurrentUser(ctx); user != nil {
			fmt.Fprintf(out, "Session:       signed in as %s (%s)\n", user.Username, user.AuthMethod)
		} else if m.Token(ctx) != "" {
			fmt.Fprintln(out, "Session:       expired (sign in again)")
		} else {
			fmt.Fprintln(out, "Session:       not signed in")
		}

		status, err := application.Client().RegistrationStatus(ctx)
		if err != nil {
			fmt.Fprintf(out, "Registration:  unknown (%v)\n", err)
			return nil
		}

		if status.RegistrationEnabled {
			fmt.Fprintln(out, "Registration:  open")
		} else {
			fmt.Fprintln(out, "Registration:  disabled")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
