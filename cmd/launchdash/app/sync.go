package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orbitalops/launchdash/internal/config"
	"github.com/orbitalops/launchdash/internal/logger"
	"github.com/orbitalops/launchdash/internal/spacex"
	"github.com/orbitalops/launchdash/internal/stats"
	"github.com/orbitalops/launchdash/internal/store"
	"github.com/orbitalops/launchdash/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a single synchronization pass and exit",
	Long: `Run a single synchronization pass against the external launch API and exit.

Useful for cron-style scheduling or for priming the database before the
server is started.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := syncCmd.MarkFlagRequired("config"); err != nil {
		logger.Fatalf("Failed to mark config flag as required: %v", err)
	}
}

func runSync(cmd *cobra.Command, _ []string) error {
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

	timeout, err := cfg.SpaceX.GetTimeout()
	if err != nil {
		return err
	}
	source := spacex.NewClient(cfg.SpaceX.GetBaseURL(), spacex.WithTimeout(timeout))

	entityStore := store.New(db)
	syncer := sync.NewSyncer(entityStore, source, stats.NewCache(),
		sync.WithWorkers(cfg.Sync.GetWorkers()))

	count, err := syncer.Synchronize(ctx)
	if err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}

	logger.Infof("Synchronization complete: %d launches processed", count)
	return nil
}
