package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	loginPassword    string
	registerPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in to the review service",
	Long: `Log in to the review service and start a browsing session.

The password is read from --password or prompted on stdin. The session
persists until 'crview logout'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getController()
		if err != nil {
			return err
		}

		password := loginPassword
		if password == "" {
			password, err = promptPassword()
			if err != nil {
				return err
			}
		}

		sess, err := c.Login(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}
		ui.Success("Logged in as %s", sess.Username)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create an account and log in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getController()
		if err != nil {
			return err
		}

		password := registerPassword
		if password == "" {
			password, err = promptPassword()
			if err != nil {
				return err
			}
		}

		sess, err := c.Register(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}
		ui.Success("Registered and logged in as %s", sess.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and discard all local state",
	Long: `End the browsing session.

The shown result, staged files, fetched history, and any pending error
are all discarded. Responses to requests still in flight are dropped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getController()
		if err != nil {
			return err
		}
		if err := c.Logout(cmd.Context()); err != nil {
			return err
		}
		ui.Success("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getController()
		if err != nil {
			return err
		}
		st, err := c.State(cmd.Context())
		if err != nil {
			return err
		}
		if !st.Session.Authenticated() {
			ui.Info("Not logged in")
			return nil
		}
		fmt.Fprintf(ui.Out, "%s (id %s)\n", st.Session.Username, st.Session.UserID)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted if omitted)")
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "Password (prompted if omitted)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
