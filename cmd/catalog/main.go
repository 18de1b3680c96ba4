// cmd/catalog/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"commit-harvester/internal/config"
	"commit-harvester/internal/database"
	"commit-harvester/internal/github"
)

// The catalog job discovers repositories worth tracking: for every topic in
// the topics file it searches GitHub for popular matches and inserts unseen
// ones into the catalog, refreshing stars and merging topics for known ones.
func main() {
	if err := run(); err != nil {
		slog.Error("Catalog run failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	logLevel := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.GithubToken == "" {
		return fmt.Errorf("GITHUB_TOKEN is required for catalog discovery")
	}

	topics, err := config.LoadTopics(cfg.TopicsFile)
	if err != nil {
		return err
	}
	if len(topics.Topics) == 0 {
		logger.Warn("Topics list is empty, nothing to do")
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dbpool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbpool.Close()

	if err := runMigrations(cfg.DBURL); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	store := database.New(dbpool)
	gh := github.NewClient(cfg.GithubToken, logger)

	totalAdded := 0
	for _, topic := range topics.Topics {
		found, err := gh.SearchByTopic(ctx, topic, topics.StarThreshold, topics.NewLimitPerTopic)
		if err != nil {
			return err
		}

		added := 0
		for _, repo := range found {
			isNew, err := store.UpsertRepository(ctx, repo)
			if err != nil {
				return err
			}
			if isNew {
				added++
				totalAdded++
			}
		}
		logger.Info("Topic processed", "topic", topic, "new_repositories", added)
	}

	logger.Info("Catalog run complete", "new_repositories", totalAdded)
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
