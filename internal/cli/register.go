package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclinic/medrec/pkg/authsdk"
)

var registerReq authsdk.RegisterRequest

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		res := application.Manager().Register(cmd.Context(), registerReq)
		if res.Err != nil {
			var disabled *authsdk.RegistrationDisabledError
			if errors.As(res.Err, &disabled) {
				// Surface the server's wording unchanged so operators can
				// match it against their configuration.
				return errors.New(disabled.Detail)
			}
			return res.Err
		}

		if jsonOutput {
			return printJSON(cmd, res.Data)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Account %s created with role %s. Sign in with: medrec login -u %s\n",
			res.Data.Username, res.Data.Role, res.Data.Username)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVarP(&registerReq.Username, "username", "u", "", "Account username")
	registerCmd.Flags().StringVarP(&registerReq.Password, "password", "p", "", "Account password")
	registerCmd.Flags().StringVar(&registerReq.FullName, "full-name", "", "Display name")
	registerCmd.Flags().StringVar(&registerReq.Email, "email", "", "Contact email")
	registerCmd.Flags().StringVar(&registerReq.Role, "role", "", "Requested role (default: user)")
	_ = registerCmd.MarkFlagRequired("username")
	_ = registerCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(registerCmd)
}
