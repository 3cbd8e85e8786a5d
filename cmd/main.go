package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/castctl/castctl/internal/api"
	"github.com/castctl/castctl/internal/catalog"
	"github.com/castctl/castctl/internal/repositories"
	"github.com/castctl/castctl/internal/session"
	"github.com/castctl/castctl/internal/shared"
	"github.com/castctl/castctl/internal/uploads"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	// .env is optional; environment variables win over config.toml.
	_ = godotenv.Load()

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}
	if baseURL := os.Getenv("CASTCTL_BASE_URL"); baseURL != "" {
		config.Server.BaseURL = baseURL
	}
	if dbPath := os.Getenv("CASTCTL_DB_PATH"); dbPath != "" {
		config.Database.Path = dbPath
	}

	runner := NewRunner(buildRunnerOpts(config, logger))

	app := &cli.Command{
		Name:     "castctl",
		Usage:    "Administer an audio content catalog: albums, episodes, uploads, playback",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(errors.Unwrap(err), shared.ErrNotAuthenticated) {
			logger.Error("not authenticated, run 'castctl auth login'")
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// buildRunnerOpts wires the dependency graph: HTTP client, session manager
// with a sqlite-backed store when the local database opens, catalog client,
// and the upload pipeline. Every failure here degrades instead of aborting so
// that setup commands still run on a fresh machine.
func buildRunnerOpts(config *shared.Config, logger *log.Logger) RunnerOpts {
	opts := RunnerOpts{Config: config, Logger: logger}

	timeout := time.Duration(config.Server.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts.API = api.NewClient(api.Opts{
		BaseURL:    config.Server.BaseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		RateLimit:  config.Server.RateLimit,
	})

	var store session.Store = session.NewMemoryStore()
	if db, err := shared.NewDatabase(config.Database.Path); err == nil {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			logger.Warn("migrations failed, sessions will not persist", "error", err)
			db.Close()
		} else {
			opts.DB = db
			opts.Cache = repositories.NewEpisodeCacheRepository(db)
			store = repositories.NewSessionRepository(db)
		}
	} else {
		logger.Debug("local database unavailable, sessions will not persist", "error", err)
	}

	manager, err := session.NewManager(session.Opts{
		API:               opts.API,
		Store:             store,
		Logger:            logger,
		HeartbeatInterval: time.Duration(config.Auth.HeartbeatInterval) * time.Second,
		OnEvicted: func() {
			logger.Warn("session expired, run 'castctl auth login' to continue")
		},
	})
	if err != nil {
		logger.Warn("session manager unavailable", "error", err)
	}
	opts.Session = manager

	opts.Catalog = catalog.NewClient(opts.API)
	opts.Pipeline = uploads.NewPipeline(uploads.Opts{
		Catalog:      opts.Catalog,
		Logger:       logger,
		MaxFileSize:  config.Upload.MaxFileSize,
		AllowedTypes: config.Upload.AllowedTypes,
	})

	return opts
}
