package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dyike/xagent/internal/display"
	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/panels"
)

func (a *app) newLoginCmd() *cobra.Command {
	var creds models.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Long: `Sign in with your email and password. Missing values are asked for
interactively. The session is kept until you log out or it expires.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := PromptForCredentials(&creds); err != nil {
				return err
			}
			auth := panels.NewAuthPanel(a.client.Auth(), a.store())
			auth.SetField(panels.FieldEmail, strings.TrimSpace(creds.Email))
			auth.SetField(panels.FieldPassword, creds.Password)
			if err := auth.Submit(cmd.Context()); err != nil {
				return fmt.Errorf("login failed: %s", auth.Error())
			}
			return a.showUser(cmd.OutOrStdout(), "Signed in")
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Account password")
	return cmd
}

func (a *app) newRegisterCmd() *cobra.Command {
	var reg models.Registration
	var confirm string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := PromptForRegistration(&reg, &confirm); err != nil {
				return err
			}
			auth := panels.NewAuthPanel(a.client.Auth(), a.store())
			auth.ToggleMode()
			auth.SetField(panels.FieldEmail, strings.TrimSpace(reg.Email))
			auth.SetField(panels.FieldUsername, strings.TrimSpace(reg.Username))
			auth.SetField(panels.FieldPassword, reg.Password)
			auth.SetField(panels.FieldConfirm, confirm)
			if err := auth.Submit(cmd.Context()); err != nil {
				return fmt.Errorf("registration failed: %s", auth.Error())
			}
			return a.showUser(cmd.OutOrStdout(), "Account created")
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&reg.Email, "email", "", "Account email")
	flags.StringVar(&reg.Username, "username", "", "Username")
	flags.StringVar(&reg.Password, "password", "", "Password")
	flags.StringVar(&confirm, "confirm", "", "Password again")
	return cmd
}

func (a *app) newLogoutCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.creds.IsPresent() {
				display.Info(cmd.OutOrStdout(), "Not signed in.")
				return nil
			}
			if !yes {
				ok, err := PromptForConfirmation("Sign out of xagent?")
				if err != nil || !ok {
					return err
				}
			}
			auth := panels.NewAuthPanel(a.client.Auth(), a.store())
			if err := auth.Logout(); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			display.Success(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func (a *app) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.signedIn(cmd.Context()); err != nil {
				return err
			}
			return a.showUser(cmd.OutOrStdout(), "")
		},
	}
}

func (a *app) newConnectCmd() *cobra.Command {
	var acct models.PlatformAccount
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Link your X account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := PromptForPlatformAccount(&acct); err != nil {
				return err
			}
			acct.Handle = strings.TrimPrefix(strings.TrimSpace(acct.Handle), "@")
			account := panels.NewAccountPanel(a.client.Auth(), a.client.Payment(), a.store())
			if _, err := account.ConnectX(cmd.Context(), acct); err != nil {
				return fmt.Errorf("failed to connect X account: %w", err)
			}
			return a.showUser(cmd.OutOrStdout(), "Connected @"+acct.Handle)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&acct.Handle, "handle", "", "X username")
	flags.StringVar(&acct.AccessToken, "token", "", "X access token")
	flags.StringVar(&acct.AccessTokenSecret, "secret", "", "X access token secret")
	return cmd
}

func (a *app) newSubscriptionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "subscription free|pro",
		Short:     "Change the subscription tier",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.TierFree), string(models.TierPro)},
		RunE: func(cmd *cobra.Command, args []string) error {
			tier := models.SubscriptionTier(strings.ToLower(args[0]))
			account := panels.NewAccountPanel(a.client.Auth(), a.client.Payment(), a.store())
			if _, err := account.UpdateTier(cmd.Context(), tier); err != nil {
				return fmt.Errorf("failed to change subscription: %w", err)
			}
			return a.showUser(cmd.OutOrStdout(), "Subscription is now "+string(tier))
		},
	}
}

// showUser prints the account held by the store, after an optional
// success line.
func (a *app) showUser(out io.Writer, headline string) error {
	snap := a.st.Snapshot()
	if snap.User == nil {
		return fmt.Errorf("no account loaded")
	}
	return a.write(out, snap.User, func(w io.Writer) {
		if headline != "" {
			display.Success(w, headline)
		}
		fmt.Fprint(w, display.User(*snap.User))
	})
}
