//go:build integration

// internal/database/store_integration_test.go
package database

import (
	"context"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"commit-harvester/internal/model"
)

func setupTestDatabase(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(context.Background()))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New("file://../../migrations", connStr)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	dbpool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(dbpool.Close)

	return dbpool
}

func seedRepository(ctx context.Context, t *testing.T, store *Store, name string, stars int) {
	t.Helper()
	_, err := store.UpsertRepository(ctx, model.TrackedRepo{FullName: name, Topic: "etl", Stars: stars})
	require.NoError(t, err)
}

func sampleBatch(repo string) ([]model.Commit, []model.FileChange, model.Watermark) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	commits := []model.Commit{
		{
			Hash: "c2c2c2", Repository: repo, Author: "tester", AuthorEmail: "t@t.com",
			Message: "second", CommittedAt: now, FilesChanged: 1, LinesAdded: 2, CollectedAt: now,
		},
		{
			Hash: "c1c1c1", Repository: repo, Author: "tester", AuthorEmail: "t@t.com",
			Message: "first", CommittedAt: now.Add(-time.Hour), FilesChanged: 1, LinesAdded: 1, CollectedAt: now,
		},
	}
	files := []model.FileChange{
		{CommitHash: "c2c2c2", Path: "a.go", Extension: "go", ChangeType: model.ChangeModified,
			LinesAdded: 2, BeforeURI: "s3://b/1", AfterURI: "s3://b/2"},
		{CommitHash: "c1c1c1", Path: "a.go", Extension: "go", ChangeType: model.ChangeAdded,
			LinesAdded: 1, AfterURI: "s3://b/0"},
	}
	wm := model.Watermark{Repository: repo, LastCommitHash: "c2c2c2", LastCollectedAt: now}
	return commits, files, wm
}

func TestStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbpool := setupTestDatabase(ctx, t)
	store := New(dbpool)

	t.Run("watermark absent before first collection", func(t *testing.T) {
		wm, err := store.GetWatermark(ctx, "octo/none")
		require.NoError(t, err)
		assert.Nil(t, wm)
	})

	t.Run("commit batch persists atomically and re-runs are idempotent", func(t *testing.T) {
		seedRepository(ctx, t, store, "octo/sample", 100)
		commits, files, wm := sampleBatch("octo/sample")

		require.NoError(t, store.CommitBatch(ctx, commits, files, wm))

		got, err := store.GetWatermark(ctx, "octo/sample")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "c2c2c2", got.LastCommitHash)

		stored, err := store.GetCommitsByRepository(ctx, "octo/sample", 10)
		require.NoError(t, err)
		assert.Len(t, stored, 2)

		// A retried run re-observes the same commits; nothing duplicates.
		later := wm
		later.LastCollectedAt = wm.LastCollectedAt.Add(time.Minute)
		require.NoError(t, store.CommitBatch(ctx, commits, files, later))

		stored, err = store.GetCommitsByRepository(ctx, "octo/sample", 10)
		require.NoError(t, err)
		assert.Len(t, stored, 2)

		got, err = store.GetWatermark(ctx, "octo/sample")
		require.NoError(t, err)
		assert.Equal(t, later.LastCollectedAt, got.LastCollectedAt)
	})

	t.Run("file rows retrievable per commit", func(t *testing.T) {
		files, err := store.GetFilesByCommit(ctx, "c1c1c1")
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, model.ChangeAdded, files[0].ChangeType)
		assert.Empty(t, files[0].BeforeURI)
		assert.Equal(t, "s3://b/0", files[0].AfterURI)
	})

	t.Run("batch referencing unknown repository rolls back completely", func(t *testing.T) {
		commits, files, wm := sampleBatch("octo/unregistered")
		commits[0].Hash, commits[1].Hash = "d1", "d2"
		files[0].CommitHash, files[1].CommitHash = "d1", "d2"
		wm.LastCommitHash = "d1"

		err := store.CommitBatch(ctx, commits, files, wm)
		require.Error(t, err, "foreign key violation must fail the batch")

		got, err := store.GetWatermark(ctx, "octo/unregistered")
		require.NoError(t, err)
		assert.Nil(t, got, "failed batch must not advance the watermark")
	})

	t.Run("repository existence", func(t *testing.T) {
		exists, err := store.RepositoryExists(ctx, "octo/sample")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = store.RepositoryExists(ctx, "octo/nowhere")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("catalog upsert and star ordering", func(t *testing.T) {
		seedRepository(ctx, t, store, "octo/small", 10)
		seedRepository(ctx, t, store, "octo/big", 9000)

		isNew, err := store.UpsertRepository(ctx, model.TrackedRepo{FullName: "octo/small", Topic: "dbt", Stars: 15})
		require.NoError(t, err)
		assert.False(t, isNew)

		repos, err := store.ListRepositories(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, repos)
		assert.Equal(t, "octo/big", repos[0].FullName)

		for _, r := range repos {
			if r.FullName == "octo/small" {
				assert.Equal(t, "dbt,etl", r.Topic)
				assert.Equal(t, 15, r.Stars)
			}
		}
	})
}
