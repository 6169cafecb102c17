package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orbitalops/launchdash/internal/config"
	"github.com/orbitalops/launchdash/internal/logger"
	"github.com/orbitalops/launchdash/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create the database schema if it does not exist yet.

All schema statements are idempotent, so running migrate against an
already-provisioned database is a no-op.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := migrateCmd.MarkFlagRequired("config"); err != nil {
		logger.Fatalf("Failed to mark config flag as required: %v", err)
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to read config flag: %w", err)
	}
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := store.NewDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := store.CreateSchema(ctx, db); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("Schema is up to date")
	return nil
}
