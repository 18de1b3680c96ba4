// internal/collector/collector.go
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"commit-harvester/internal/blobstore"
	xerrors "commit-harvester/internal/errors"
	"commit-harvester/internal/gitsource"
	"commit-harvester/internal/model"
)

// Source produces read-only repository handles for collection.
type Source interface {
	Clone(ctx context.Context, fullName string) (*gitsource.Repository, error)
}

// BlobStore uploads file content and reports the configured key prefix.
type BlobStore interface {
	Prefix() string
	Put(ctx context.Context, content []byte, key string) (string, error)
}

// MetaStore is the slice of the metadata store the collector needs.
type MetaStore interface {
	GetWatermark(ctx context.Context, repo string) (*model.Watermark, error)
	CommitBatch(ctx context.Context, commits []model.Commit, files []model.FileChange, wm model.Watermark) error
}

// Options bounds a single collection run.
type Options struct {
	WindowStart  time.Time // lower edge of the lookback window
	MaxCommits   int       // per-repository commit cap per run
	MaxBlobBytes int64     // per-side blob ceiling
}

// Collector harvests one repository at a time: new commits since the
// watermark, per-file diffs, blob uploads, and a single transactional
// metadata write that also advances the watermark.
type Collector struct {
	src    Source
	blobs  BlobStore
	meta   MetaStore
	opts   Options
	logger *slog.Logger
}

// New creates a Collector. All adapters are constructed by the caller and
// shared across workers; none hold per-run state.
func New(src Source, blobs BlobStore, meta MetaStore, opts Options, logger *slog.Logger) *Collector {
	return &Collector{src: src, blobs: blobs, meta: meta, opts: opts, logger: logger}
}

// Collect runs one repository end to end and returns its outcome. Errors are
// captured in the outcome, never propagated across repository boundaries. On
// failure nothing is persisted: the watermark stays where the previous run
// left it and the next run retries the same window.
func (c *Collector) Collect(ctx context.Context, repo model.TrackedRepo) (outcome model.RunOutcome) {
	outcome.Repository = repo.FullName
	defer func() {
		if r := recover(); r != nil {
			outcome.Err = &xerrors.RepoError{Repository: repo.FullName, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	logger := c.logger.With("repo", repo.FullName)

	wm, err := c.meta.GetWatermark(ctx, repo.FullName)
	if err != nil {
		outcome.Err = &xerrors.RepoError{Repository: repo.FullName, Err: err}
		return outcome
	}

	logger.Info("Cloning repository")
	hist, err := c.src.Clone(ctx, repo.FullName)
	if err != nil {
		outcome.Err = &xerrors.RepoError{Repository: repo.FullName, Err: err}
		return outcome
	}
	defer hist.Close()

	boundary := gitsource.Boundary{
		Since:    c.opts.WindowStart,
		MaxCount: c.opts.MaxCommits,
	}
	if wm != nil {
		boundary.SinceHash = wm.LastCommitHash
	}

	commits, files, newest, err := c.harvest(ctx, hist, repo.FullName, boundary, logger)
	if err != nil {
		outcome.Err = &xerrors.RepoError{Repository: repo.FullName, Err: err}
		return outcome
	}

	if len(commits) == 0 {
		logger.Info("No new commits")
		return outcome
	}

	err = c.meta.CommitBatch(ctx, commits, files, model.Watermark{
		Repository:      repo.FullName,
		LastCommitHash:  newest,
		LastCollectedAt: time.Now().UTC(),
	})
	if err != nil {
		outcome.Err = &xerrors.RepoError{Repository: repo.FullName, Err: err}
		return outcome
	}

	outcome.Processed = len(commits)
	outcome.NewestHash = newest
	logger.Info("Repository collected", "commits", len(commits), "files", len(files))
	return outcome
}

// harvest walks the bounded commit stream and accumulates the batch. The
// newest (first-yielded) commit hash becomes the watermark candidate.
func (c *Collector) harvest(ctx context.Context, hist *gitsource.Repository, repo string, boundary gitsource.Boundary, logger *slog.Logger) ([]model.Commit, []model.FileChange, string, error) {
	iter, err := hist.NewCommits(boundary)
	if err != nil {
		return nil, nil, "", err
	}

	var (
		commits []model.Commit
		files   []model.FileChange
		newest  string
	)

	for {
		entry, err := iter.Next()
		if err != nil {
			return nil, nil, "", err
		}
		if entry == nil {
			break
		}

		// The candidate is the first-yielded (newest) commit, whether or not
		// its diff works out. Anchoring it below a skipped commit would make
		// every later run re-observe and re-skip that commit.
		if newest == "" {
			newest = entry.Hash
		}

		diff, err := entry.Diff(ctx)
		if err != nil {
			// One undiffable commit must not block the rest of the run.
			logger.Warn("Diff failed, skipping commit", "commit", entry.Hash, "error", err)
			continue
		}

		for _, fd := range diff.Files {
			fc, err := c.fileChange(ctx, repo, entry.Hash, fd, logger)
			if err != nil {
				return nil, nil, "", err
			}
			files = append(files, fc)
		}

		commits = append(commits, model.Commit{
			Hash:         entry.Hash,
			Repository:   repo,
			Author:       entry.Author,
			AuthorEmail:  entry.AuthorEmail,
			Message:      strings.TrimSpace(entry.Message),
			CommittedAt:  entry.AuthoredAt.UTC(),
			FilesChanged: diff.FilesChanged,
			LinesAdded:   diff.LinesAdded,
			LinesRemoved: diff.LinesRemoved,
			CollectedAt:  time.Now().UTC(),
		})
	}

	if reason := iter.StopReason(); reason != gitsource.CutNone {
		logger.Debug("Walk stopped", "reason", reason.String(), "commits", len(commits))
	}
	return commits, files, newest, nil
}

// fileChange uploads both sides of one changed file and builds its row.
// Missing, oversized, or unreadable sides leave the locator empty; only a
// store upload failure aborts the repository.
func (c *Collector) fileChange(ctx context.Context, repo, sha string, fd gitsource.FileDiff, logger *slog.Logger) (model.FileChange, error) {
	beforePath := fd.Path
	if fd.FromPath != "" {
		beforePath = fd.FromPath
	}

	beforeURI, err := c.uploadSide(ctx, repo, sha, beforePath, model.SideBefore, fd.Before, logger)
	if err != nil {
		return model.FileChange{}, err
	}
	afterURI, err := c.uploadSide(ctx, repo, sha, fd.Path, model.SideAfter, fd.After, logger)
	if err != nil {
		return model.FileChange{}, err
	}

	return model.FileChange{
		CommitHash:   sha,
		Path:         fd.Path,
		Extension:    strings.ToLower(strings.TrimPrefix(filepath.Ext(fd.Path), ".")),
		ChangeType:   fd.ChangeType,
		LinesAdded:   fd.LinesAdded,
		LinesRemoved: fd.LinesRemoved,
		BeforeURI:    beforeURI,
		AfterURI:     afterURI,
	}, nil
}

func (c *Collector) uploadSide(ctx context.Context, repo, sha, path, side string, read func(int64) ([]byte, error), logger *slog.Logger) (string, error) {
	content, err := read(c.opts.MaxBlobBytes)
	if errors.Is(err, xerrors.ErrBlobTooLarge) {
		logger.Warn("Blob exceeds ceiling, skipping side", "commit", sha, "path", path, "side", side)
		return "", nil
	}
	if err != nil {
		logger.Warn("Blob unreadable, skipping side", "commit", sha, "path", path, "side", side, "error", err)
		return "", nil
	}

	key := blobstore.MakeKey(c.blobs.Prefix(), repo, sha, side, path)
	uri, err := c.blobs.Put(ctx, content, key)
	if err != nil {
		return "", err
	}
	return uri, nil
}
