package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclinic/medrec/pkg/authsdk"
)

var ssoCmd = &cobra.Command{
	Use:   "sso",
	Short: "Sign in through the configured identity provider",
}

var ssoConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show provider availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := application.Manager().GetSSOConfig(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd, cfg)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Enabled:  %v\n", cfg.Enabled)
		if cfg.ProviderType != "" {
			fmt.Fprintf(out, "Provider: %s\n", cfg.ProviderType)
		}
		if cfg.RegistrationEnabled != nil {
			fmt.Fprintf(out, "New accounts via SSO: %v\n", *cfg.RegistrationEnabled)
		}
		return nil
	},
}

var ssoReturnURL string

var ssoLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start the provider sign-in flow",
	Long: `Start the provider sign-in flow.

Prints the provider authorization URL. Open it in a browser, authenticate,
then feed the returned code and state to "medrec sso complete".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		init, err := application.Manager().InitiateSSOLogin(cmd.Context(), ssoReturnURL)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd, init)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to sign in with %s:\n\n  %s\n", init.Provider, init.AuthURL)
		return nil
	},
}

var (
	ssoCode  string
	ssoState string
)

var ssoCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Finish the provider sign-in flow",
	RunE: func(cmd *cobra.Command, args []string) error {
		res := application.Manager().CompleteSSOAuth(cmd.Context(), ssoCode, ssoState)
		if res.Err != nil {
			return res.Err
		}

		if res.Conflict {
			return reportConflict(cmd, res.Ticket)
		}

		return reportSignIn(cmd, res)
	},
}

var (
	ssoTicket     string
	ssoAction     string
	ssoPreference string
)

var ssoResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve an account conflict",
	Long: `Resolve an account conflict reported by "medrec sso complete".

The conflict ticket is single-use: once accepted or rejected by the server
it cannot be redeemed again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var preference map[string]any
		if ssoPreference != "" {
			if err := json.Unmarshal([]byte(ssoPreference), &preference); err != nil {
				return fmt.Errorf("--preference must be a JSON object: %w", err)
			}
		}

		res := application.Manager().ResolveSSOConflict(cmd.Context(), ssoTicket, ssoAction, preference)
		if res.Err != nil {
			return res.Err
		}

		return reportSignIn(cmd, res)
	},
}

func reportSignIn(cmd *cobra.Command, res authsdk.SSOResult) error {
	if jsonOutput {
		return printJSON(cmd, res)
	}

	verb := "Signed in"
	if res.IsNewUser {
		verb = "Account created and signed in"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s as %s (role %s)\n", verb, res.User.Username, res.User.Role)
	return nil
}

func reportConflict(cmd *cobra.Command, ticket *authsdk.ConflictTicket) error {
	if jsonOutput {
		return printJSON(cmd, ticket)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "An account with matching details already exists.")
	fmt.Fprintf(out, "Resolve with one of:\n\n")
	fmt.Fprintf(out, "  medrec sso resolve --ticket %s --action %s\n", ticket.TempToken, authsdk.ConflictActionMerge)
	fmt.Fprintf(out, "  medrec sso resolve --ticket %s --action %s\n", ticket.TempToken, authsdk.ConflictActionKeepSeparate)
	return nil
}

func init() {
	ssoLoginCmd.Flags().StringVar(&ssoReturnURL, "return-url", "", "Where the browser should land after sign-in")

	ssoCompleteCmd.Flags().StringVar(&ssoCode, "code", "", "Authorization code from the provider redirect")
	ssoCompleteCmd.Flags().StringVar(&ssoState, "state", "", "State value from the provider redirect")
	_ = ssoCompleteCmd.MarkFlagRequired("code")
	_ = ssoCompleteCmd.MarkFlagRequired("state")

	ssoResolveCmd.Flags().StringVar(&ssoTicket, "ticket", "", "Conflict ticket from \"sso complete\"")
	ssoResolveCmd.Flags().StringVar(&ssoAction, "action", authsdk.ConflictActionMerge, "merge or keep_separate")
	ssoResolveCmd.Flags().StringVar(&ssoPreference, "preference", "", "Optional JSON object with resolution preferences")
	_ = ssoResolveCmd.MarkFlagRequired("ticket")

	ssoCmd.AddCommand(ssoConfigCmd, ssoLoginCmd, ssoCompleteCmd, ssoResolveCmd)
	rootCmd.AddCommand(ssoCmd)
}
