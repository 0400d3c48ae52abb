package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forrev/forrev-cli/internal/remote"
)

func (a *app) newLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the forrev service",
		Long: `Log in with a username and password. Missing values are prompted for.
The session is kept in the data directory until you log out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if username == "" {
				if username, err = a.prompt("Username", ""); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = a.promptSecret("Password"); err != nil {
					return err
				}
			}

			st, err := a.gate.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			return WriteSession(a.out, newSessionResult(st, a.client.BaseURL()), a.outputFormat())
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func (a *app) newRegisterCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if username == "" {
				if username, err = a.prompt("Username", ""); err != nil {
					return err
				}
			}
			if email == "" {
				if email, err = a.prompt("Email", ""); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = a.promptSecret("Password"); err != nil {
					return err
				}
			}

			st, err := a.gate.Register(cmd.Context(), username, email, password)
			if err != nil {
				return err
			}
			return WriteSession(a.out, newSessionResult(st, a.client.BaseURL()), a.outputFormat())
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func (a *app) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.gate.Logout(cmd.Context())
			a.client.ClearCookies()
			a.forgetSession = true

			if a.outputFormat() == FormatJSON {
				return writeJSON(a.out, newSessionResult(a.gate.State(), a.client.BaseURL()))
			}
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}

func (a *app) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who the stored session belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.gate.Resolve(cmd.Context())
			if err := WriteSession(a.out, newSessionResult(st, a.client.BaseURL()), a.outputFormat()); err != nil {
				return err
			}
			if st.Username == "" {
				return &reportedError{err: &remote.AuthError{Status: 401, Message: "not logged in"}}
			}
			return nil
		},
	}
}
