package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"teamup/config"
	"teamup/database"
	"teamup/events"
	applog "teamup/logger"
	"teamup/services"
	"teamup/storage"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "teamctl",
		Short:         "Operational tooling for the teamup server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newSeedCommand())
	return cmd
}

func loadConfig() (*config.Config, *zap.Logger) {
	cfg, _ := config.Load()
	return cfg, applog.New(cfg.Env, cfg.LogLevel)
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the PostgreSQL schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := loadConfig()
			defer func() { _ = log.Sync() }()

			db, err := database.Connect(cfg.Database, log)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			if err := database.RunMigrations(db, log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newSeedCommand() *cobra.Command {
	var driver string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo profiles and one forming team",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, log := loadConfig()
			defer func() { _ = log.Sync() }()
			if driver != "" {
				cfg.StoreDriver = driver
			}

			st, closeStore, err := storage.Open(cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()
			if st == nil {
				return fmt.Errorf("seed needs a store; STORE_DRIVER is %q", cfg.StoreDriver)
			}

			broker := events.NewLocal()
			defer func() { _ = broker.Close() }()
			svc := services.New(services.Deps{Store: st, Broker: broker, Log: log},
				services.AuthConfig{Secret: cfg.JWTSecret, TTL: cfg.JWTTTL})
			return seed(ctx, svc, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "Store driver to seed (overrides STORE_DRIVER)")
	return cmd
}
