package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/beybot/beybot/internal/auth"
	"github.com/beybot/beybot/internal/config"
	"github.com/beybot/beybot/internal/db"
	"github.com/beybot/beybot/internal/logger"
	"github.com/beybot/beybot/internal/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "beybot",
		Short:         "Messenger and Instagram AI sales assistant",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newTokenCommand(),
		newVersionCommand(),
	)
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook and API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runServe()
			return nil
		},
	}
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	direction := func(d db.MigrateDirection) *cobra.Command {
		return &cobra.Command{
			Use:   string(d),
			Short: fmt.Sprintf("Run all %s migrations", d),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				return db.Migrate(logger.L, cfg.Postgres.DSN(), d)
			},
		}
	}
	cmd.AddCommand(direction(db.MigrateUp), direction(db.MigrateDown), &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			v, dirty, err := db.MigrationVersion(logger.L, cfg.Postgres.DSN())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", v, dirty)
			return nil
		},
	})
	return cmd
}

func newTokenCommand() *cobra.Command {
	var userID string
	var expiresIn time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
				return fmt.Errorf("jwt secret is required")
			}
			if _, err := db.ParseUUID(userID); err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			if expiresIn == 0 {
				if expiresIn, err = time.ParseDuration(cfg.Auth.JWTExpiresIn); err != nil {
					return fmt.Errorf("invalid jwt expires in: %w", err)
				}
			}
			token, expiresAt, err := auth.GenerateToken(userID, cfg.Auth.JWTSecret, expiresIn)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "account id (uuid)")
	cmd.Flags().DurationVar(&expiresIn, "expires", 0, "token lifetime (defaults to auth.jwt_expires_in)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetInfo())
		},
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}
