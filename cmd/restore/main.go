// cmd/restore/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"commit-harvester/internal/blobstore"
	"commit-harvester/internal/config"
	"commit-harvester/internal/model"
)

// The restore job materializes one side of a commit snapshot into a local
// directory by enumerating the object-store prefix the collector wrote.
func main() {
	if err := run(); err != nil {
		slog.Error("Restore failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		repo = flag.String("repo", "", "repository full name, e.g. owner/name")
		sha  = flag.String("sha", "", "commit hash to restore")
		side = flag.String("side", model.SideAfter, "snapshot side: before or after")
		out  = flag.String("out", "./restored", "output directory")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *repo == "" || *sha == "" {
		return fmt.Errorf("both -repo and -sha are required")
	}
	if *side != model.SideBefore && *side != model.SideAfter {
		return fmt.Errorf("-side must be %q or %q", model.SideBefore, model.SideAfter)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx := context.Background()
	store, err := blobstore.New(ctx, blobstore.Options{
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

	prefix := blobstore.SnapshotPrefix(cfg.S3Prefix, *repo, *sha, *side)
	keys, err := store.ListPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		logger.Info("No objects found", "prefix", prefix)
		return nil
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, key := range keys {
		data, err := store.Get(ctx, key)
		if err != nil {
			return err
		}
		target := filepath.Join(*out, path.Base(key))
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}
		logger.Info("Restored file", "key", key, "target", target)
	}

	logger.Info("Restore complete", "files", len(keys), "out", *out)
	return nil
}
