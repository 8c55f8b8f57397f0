package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/service"
)

var (
	adminEmail     string
	adminName      string
	adminPassword  string
	adminSuperuser bool
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a staff account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if !a.pg.Enabled() {
			a.logger.Warn("no database configured; the account only lives for this process")
		}
		authService := service.NewAuthService(a.cfg.Auth, service.AuthDependencies{
			UserRepo:  a.stores.users,
			Blacklist: a.stores.blacklist,
			Logger:    a.logger,
		})
		user, err := authService.CreateAdmin(cmd.Context(), adminEmail, adminName, adminPassword, adminSuperuser)
		if err != nil {
			return err
		}
		a.logger.Info("admin account ready", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
		fmt.Fprintf(cmd.OutOrStdout(), "created administrator %s (id %d)\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "account email")
	adminCreateCmd.Flags().StringVar(&adminName, "name", "", "display name")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "account password")
	adminCreateCmd.Flags().BoolVar(&adminSuperuser, "superuser", false, "grant superuser")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("name")
	_ = adminCreateCmd.MarkFlagRequired("password")
	adminCmd.AddCommand(adminCreateCmd)
}
