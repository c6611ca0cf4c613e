package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finintel/internal/auth"
	"finintel/internal/store"
)

var authUsername string

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a terminal operator",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify operator credentials and remember the username",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the remembered operator",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	registerCmd.Flags().StringVarP(&authUsername, "username", "u", "", "Operator username")
	loginCmd.Flags().StringVarP(&authUsername, "username", "u", "", "Operator username (default: last login)")
}

// openRegistry opens only the credential store; auth commands never need the model.
func openRegistry() (*auth.Registry, func(), error) {
	kv, err := store.NewSQLiteKV(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	return auth.NewRegistry(kv), func() { _ = kv.Close() }, nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	reg, closeFn, err := openRegistry()
	if err != nil {
		return err
	}
	defer closeFn()

	username := authUsername
	if username == "" {
		if username, err = promptLine("Username: "); err != nil {
			return err
		}
	}
	password, err := promptPassword("Security password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if err := reg.Register(username, password, confirm); err != nil {
		return err
	}
	okColor.Fprintf(cmd.OutOrStdout(), "Operator %s registered.\n", username)
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	reg, closeFn, err := openRegistry()
	if err != nil {
		return err
	}
	defer closeFn()

	username := authUsername
	if username == "" {
		username = reg.LastUsername()
	}
	if username == "" {
		if username, err = promptLine("Username: "); err != nil {
			return err
		}
	}
	password, err := promptPassword("Security password: ")
	if err != nil {
		return err
	}

	svc := auth.NewService(reg, auth.NewSessions(cfg.GetSessionTTL()))
	sess, err := svc.Login(username, password)
	if err != nil {
		return err
	}
	logger.Info("operator authenticated", zap.String("user", sess.Username), zap.String("access", sess.AccessLevel))
	okColor.Fprintf(cmd.OutOrStdout(), "Access granted: %s [%s]\n", sess.Username, sess.AccessLevel)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	reg, closeFn, err := openRegistry()
	if err != nil {
		return err
	}
	defer closeFn()

	name := reg.LastUsername()
	if err := reg.ForgetLastUsername(); err != nil {
		return err
	}
	if name == "" {
		mutedColor.Fprintln(cmd.OutOrStdout(), "No operator remembered.")
		return nil
	}
	okColor.Fprintf(cmd.OutOrStdout(), "Operator %s logged out.\n", name)
	return nil
}
