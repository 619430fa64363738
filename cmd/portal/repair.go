package main

import (
	"fmt"
	"time"

	"github.com/RigelNana/vitalicio/auth"
	"github.com/RigelNana/vitalicio/config"
	"github.com/RigelNana/vitalicio/database"
	"github.com/RigelNana/vitalicio/models"
	"github.com/RigelNana/vitalicio/repository"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cmdRepairSQL = &cobra.Command{
	Use:   "repair-sql",
	Short: "Print the SQL that repairs table ids, permissions and the covers bucket policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprint(cmd.OutOrStdout(), database.RepairSQL)
		return err
	},
}

var grantAdminRevoke bool

// Moves an account onto the admin role so the email fallback can be retired.
var cmdGrantAdmin = &cobra.Command{
	Use:   "grant-admin <email>",
	Short: "Give an account the admin role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Auth.RequireSigning(); err != nil {
			return err
		}
		logger := newLogger(cfg.Log.Level)

		db, err := database.InitDB(&cfg.Database)
		if err != nil {
			return err
		}
		provider, err := auth.NewLocalProvider(repository.NewAccountRepository(db), auth.LocalProviderArgs{
			Secret: []byte(cfg.Auth.JWTSecret),
			Expiry: time.Duration(cfg.Auth.JWTExpireMins) * time.Minute,
		}, logger)
		if err != nil {
			return err
		}

		role := models.RoleAdmin
		if grantAdminRevoke {
			role = models.RoleMember
		}
		if err := provider.GrantRole(cmd.Context(), args[0], role); err != nil {
			return fmt.Errorf("grant role: %w", err)
		}
		logger.WithFields(logrus.Fields{"email": args[0], "role": role}).Info("role updated")
		return nil
	},
}

func init() {
	cmdGrantAdmin.Flags().BoolVar(&grantAdminRevoke, "revoke", false, "set the account back to member")
}
