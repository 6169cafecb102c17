package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/orbitalops/launchdash/internal/api"
	v1 "github.com/orbitalops/launchdash/internal/api/v1"
	"github.com/orbitalops/launchdash/internal/auth"
	"github.com/orbitalops/launchdash/internal/config"
	"github.com/orbitalops/launchdash/internal/logger"
	"github.com/orbitalops/launchdash/internal/spacex"
	"github.com/orbitalops/launchdash/internal/stats"
	"github.com/orbitalops/launchdash/internal/store"
	"github.com/orbitalops/launchdash/internal/sync"
	"github.com/orbitalops/launchdash/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the launch dashboard server",
	Long: `Start the launch dashboard server.

The server requires a configuration file (--config) that specifies:
- Database connection settings
- External launch API endpoint and timeout
- JWT signing secret and seeded user accounts

On startup the server ensures the schema exists, seeds configured users,
runs one synchronization pass against the external API and then serves
the dashboard endpoints.

See examples/ directory for sample configurations.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second // Kubernetes-friendly shutdown time
	serverRequestTimeout   = 30 * time.Second // Resync holds the request open for a full pass
	serverReadTimeout      = 10 * time.Second // Enough for headers and small requests
	serverWriteTimeout     = 35 * time.Second // Must be > serverRequestTimeout to let middleware handle timeout
	serverIdleTimeout      = 60 * time.Second // Keep connections alive for reuse
)

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides config)")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	serveCmd.Flags().Bool("skip-initial-sync", false, "Skip the synchronization pass at startup")

	err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address"))
	if err != nil {
		logger.Fatalf("Failed to bind address flag: %v", err)
	}
	err = viper.BindPFlag("config", serveCmd.Flags().Lookup("config"))
	if err != nil {
		logger.Fatalf("Failed to bind config flag: %v", err)
	}
	err = viper.BindPFlag("skip-initial-sync", serveCmd.Flags().Lookup("skip-initial-sync"))
	if err != nil {
		logger.Fatalf("Failed to bind skip-initial-sync flag: %v", err)
	}

	// Mark config as required
	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		logger.Fatalf("Failed to mark config flag as required: %v", err)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Load and validate configuration (now required)
	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	address := viper.GetString("address")
	if address == "" {
		address = cfg.Server.GetAddress()
	}
	logger.Infof("Loaded configuration from %s (api: %s, database: %s)",
		configPath, cfg.SpaceX.GetBaseURL(), cfg.Database.Database)

	db, err := store.NewDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := store.CreateSchema(ctx, db); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	entityStore := store.New(db)

	// Seed configured user accounts before accepting logins
	users := auth.NewUsers(entityStore)
	if err := users.Seed(ctx, cfg.Users); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	timeout, err := cfg.SpaceX.GetTimeout()
	if err != nil {
		return err
	}
	source := spacex.NewClient(cfg.SpaceX.GetBaseURL(), spacex.WithTimeout(timeout))

	cache := stats.NewCache()
	engine := stats.NewEngine(entityStore, cache)
	syncer := sync.NewSyncer(entityStore, source, cache,
		sync.WithWorkers(cfg.Sync.GetWorkers()))

	// Initial synchronization pass. A failure here is logged but does not
	// prevent startup; the dashboard serves whatever is already persisted
	// and an admin can trigger a resync later.
	if !viper.GetBool("skip-initial-sync") {
		logger.Info("Running initial synchronization pass")
		if count, err := syncer.Synchronize(ctx); err != nil {
			logger.Errorf("Initial synchronization failed: %v", err)
		} else {
			logger.Infof("Initial synchronization processed %d launches", count)
		}
	}

	secret, err := cfg.JWT.GetSecret()
	if err != nil {
		return err
	}
	expiry, err := cfg.JWT.GetExpiry()
	if err != nil {
		return err
	}
	tokens := auth.NewTokenService(secret, expiry)

	routes := v1.NewRoutes(entityStore, engine, syncer, users, tokens)

	// Create the dashboard server with middleware
	router := api.NewServer(routes, tokens,
		api.WithMiddlewares(
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(serverRequestTimeout),
			telemetry.Middleware,
			api.LoggingMiddleware,
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Server listening on %s", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	logger.Info("Server shutdown complete")
	return nil
}
