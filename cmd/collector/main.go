// cmd/collector/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"commit-harvester/internal/blobstore"
	"commit-harvester/internal/collector"
	"commit-harvester/internal/config"
	"commit-harvester/internal/database"
	"commit-harvester/internal/gitsource"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Collector run failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dbpool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbpool.Close()
	logger.Info("Database connection established")

	if err := runMigrations(cfg.DBURL); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	logger.Info("Database migrations applied successfully")

	blobs, err := blobstore.New(ctx, blobstore.Options{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		Prefix:    cfg.S3Prefix,
		UseSSL:    cfg.S3UseSSL,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize object store: %w", err)
	}

	store := database.New(dbpool)
	repos, err := store.ListRepositories(ctx)
	if err != nil {
		return fmt.Errorf("failed to read repository catalog: %w", err)
	}
	if len(repos) == 0 {
		return fmt.Errorf("repository catalog is empty; run the catalog job first")
	}

	cloner := &gitsource.Cloner{
		Token:        cfg.GithubToken,
		MaxBlobBytes: cfg.MaxBlobBytes,
		Logger:       logger,
	}

	coll := collector.New(cloner, blobs, store, collector.Options{
		WindowStart:  cfg.WindowStart(time.Now().UTC()),
		MaxCommits:   cfg.MaxCommitsPerRepo,
		MaxBlobBytes: cfg.MaxBlobBytes,
	}, logger)

	summary := collector.NewScheduler(coll, cfg.Workers, logger).RunAll(ctx, repos)

	for _, o := range summary.Outcomes {
		if o.Err != nil {
			logger.Warn("Repository outcome", "repo", o.Repository, "error", o.Err)
		} else {
			logger.Info("Repository outcome", "repo", o.Repository, "commits", o.Processed, "newest", o.NewestHash)
		}
	}
	if summary.AllFailed() {
		return fmt.Errorf("all %d repositories failed", len(summary.Outcomes))
	}

	logger.Info("Run complete", "commits", summary.TotalProcessed(), "failed", len(summary.Failed()))
	return nil
}

func runMigrations(dbURL string) error {
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
