// internal/database/store.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"commit-harvester/internal/model"
)

// Store is the pgx-backed metadata store: repository catalog, commit and
// file rows, and per-repository watermarks.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store over an existing connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ListRepositories returns the catalog ordered by stars, most popular first.
func (s *Store) ListRepositories(ctx context.Context) ([]model.TrackedRepo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT full_name, COALESCE(topic, ''), COALESCE(stars, 0)
		FROM repositories
		ORDER BY stars DESC NULLS LAST, full_name`)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	defer rows.Close()

	var repos []model.TrackedRepo
	for rows.Next() {
		var r model.TrackedRepo
		if err := rows.Scan(&r.FullName, &r.Topic, &r.Stars); err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}

// RepositoryExists reports whether a repository is in the catalog.
func (s *Store) RepositoryExists(ctx context.Context, repo string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM repositories WHERE full_name = $1)`, repo).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup repository %s: %w", repo, err)
	}
	return exists, nil
}

// GetWatermark returns the watermark for a repository, or nil when the
// repository has never been collected.
func (s *Store) GetWatermark(ctx context.Context, repo string) (*model.Watermark, error) {
	var w model.Watermark
	err := s.pool.QueryRow(ctx, `
		SELECT repository, last_commit_hash, last_collected_at
		FROM watermarks
		WHERE repository = $1`, repo).
		Scan(&w.Repository, &w.LastCommitHash, &w.LastCollectedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get watermark for %s: %w", repo, err)
	}
	return &w, nil
}

// CommitBatch persists one repository's accumulated run in a single
// transaction: commit rows, file rows, and the advanced watermark. Commit and
// file inserts are conflict-tolerant so a retried run that re-observes the
// same commits is a no-op; the watermark upsert replaces unconditionally --
// the collector only calls this with a forward-advancing value.
func (s *Store) CommitBatch(ctx context.Context, commits []model.Commit, files []model.FileChange, wm model.Watermark) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback(ctx) // no-op once committed

	batch := &pgx.Batch{}
	for _, c := range commits {
		batch.Queue(`
			INSERT INTO commits
			  (commit_hash, repository, author, author_email, commit_message,
			   commit_timestamp, files_changed, lines_added, lines_removed, collected_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (commit_hash) DO NOTHING`,
			c.Hash, c.Repository, c.Author, c.AuthorEmail, c.Message,
			c.CommittedAt, c.FilesChanged, c.LinesAdded, c.LinesRemoved, c.CollectedAt)
	}
	for _, f := range files {
		batch.Queue(`
			INSERT INTO commit_files
			  (commit_hash, file_path, file_extension, change_type,
			   lines_added, lines_removed, before_uri, after_uri)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (commit_hash, file_path) DO NOTHING`,
			f.CommitHash, f.Path, f.Extension, f.ChangeType,
			f.LinesAdded, f.LinesRemoved, f.BeforeURI, f.AfterURI)
	}
	batch.Queue(`
		INSERT INTO watermarks (repository, last_commit_hash, last_collected_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (repository) DO UPDATE SET
		  last_commit_hash = excluded.last_commit_hash,
		  last_collected_at = excluded.last_collected_at`,
		wm.Repository, wm.LastCommitHash, wm.LastCollectedAt)

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("batch statement %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	return tx.Commit(ctx)
}

// UpsertRepository inserts a newly discovered repository or refreshes the
// stars/topic/updated_at of a known one. Returns true when the row is new.
func (s *Store) UpsertRepository(ctx context.Context, repo model.TrackedRepo) (bool, error) {
	var topic string
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(topic, '') FROM repositories WHERE full_name = $1`,
		repo.FullName).Scan(&topic)
	now := time.Now().UTC()

	if errors.Is(err, pgx.ErrNoRows) {
		_, err = s.pool.Exec(ctx, `
			INSERT INTO repositories (full_name, topic, stars, inserted_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)`,
			repo.FullName, repo.Topic, repo.Stars, now)
		if err != nil {
			return false, fmt.Errorf("insert repository %s: %w", repo.FullName, err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup repository %s: %w", repo.FullName, err)
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE repositories
		SET topic = $2, stars = $3, updated_at = $4
		WHERE full_name = $1`,
		repo.FullName, mergeTopics(topic, repo.Topic), repo.Stars, now)
	if err != nil {
		return false, fmt.Errorf("update repository %s: %w", repo.FullName, err)
	}
	return false, nil
}

// GetCommitsByRepository returns the most recent collected commits for a
// repository.
func (s *Store) GetCommitsByRepository(ctx context.Context, repo string, limit int) ([]model.Commit, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT commit_hash, repository, author, author_email, commit_message,
		       commit_timestamp, files_changed, lines_added, lines_removed, collected_at
		FROM commits
		WHERE repository = $1
		ORDER BY commit_timestamp DESC
		LIMIT $2`, repo, limit)
	if err != nil {
		return nil, fmt.Errorf("commits for %s: %w", repo, err)
	}
	defer rows.Close()

	var commits []model.Commit
	for rows.Next() {
		var c model.Commit
		if err := rows.Scan(&c.Hash, &c.Repository, &c.Author, &c.AuthorEmail, &c.Message,
			&c.CommittedAt, &c.FilesChanged, &c.LinesAdded, &c.LinesRemoved, &c.CollectedAt); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		commits = append(commits, c)
	}
	return commits, rows.Err()
}

// GetFilesByCommit returns the file changes recorded for one commit.
func (s *Store) GetFilesByCommit(ctx context.Context, hash string) ([]model.FileChange, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT commit_hash, file_path, file_extension, change_type,
		       lines_added, lines_removed, before_uri, after_uri
		FROM commit_files
		WHERE commit_hash = $1
		ORDER BY file_path`, hash)
	if err != nil {
		return nil, fmt.Errorf("files for %s: %w", hash, err)
	}
	defer rows.Close()

	var files []model.FileChange
	for rows.Next() {
		var f model.FileChange
		if err := rows.Scan(&f.CommitHash, &f.Path, &f.Extension, &f.ChangeType,
			&f.LinesAdded, &f.LinesRemoved, &f.BeforeURI, &f.AfterURI); err != nil {
			return nil, fmt.Errorf("scan file change: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}
