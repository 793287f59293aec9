package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		user := application.Manager().CurrentUser(cmd.Context())
		if user == nil {
			return errors.New("not signed in (or the stored session has expired)")
		}

		if jsonOutput {
			return printJSON(cmd, user)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Username:    %s\n", user.Username)
		fmt.Fprintf(out, "Role:        %s\n", user.Role)
		if user.FullName != "" {
			fmt.Fprintf(out, "Full name:   %s\n", user.FullName)
		}
		if user.Email != "" {
			fmt.Fprintf(out, "Email:       %s\n", user.Email)
		}
		fmt.Fprintf(out, "Auth method: %s\n", user.AuthMethod)
		if user.IsAdmin {
			fmt.Fprintln(out, "Admin:       yes")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
