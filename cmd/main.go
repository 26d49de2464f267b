package main

import (
	"fmt"
	"os"
	"time"

	"github.com/OKpoorav/DietKaro-sub002/config"
	"github.com/OKpoorav/DietKaro-sub002/logger"
	"github.com/OKpoorav/DietKaro-sub002/models"
	"github.com/OKpoorav/DietKaro-sub002/utils"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "dietkaro",
	Short:        "Diet validation and compliance backend",
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.Env)
		if err != nil {
			return err
		}
		defer logger.Sync(log)

		db, err := config.OpenDB(cfg, log)
		if err != nil {
			return err
		}
		if err := config.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("database migrated")
		return nil
	},
}

var (
	tokenUser uint
	tokenOrg  uint
	tokenRole string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a development JWT",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		switch role := models.Role(tokenRole); role {
		case models.RoleOwner, models.RoleAdmin, models.RoleDietitian, models.RoleClient:
		default:
			return fmt.Errorf("unknown role %q", tokenRole)
		}
		tok, err := utils.GenerateJWT(tokenUser, tokenOrg, models.Role(tokenRole), []byte(cfg.JWTSecret), tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().UintVar(&tokenUser, "user", 1, "user id")
	tokenCmd.Flags().UintVar(&tokenOrg, "org", 1, "organization id")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(models.RoleDietitian), "owner, admin, dietitian or client")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 72*time.Hour, "token lifetime")

	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
