// internal/github/client_test.go
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestClient creates a httptest server and a client pointing at it.
func setupTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client := NewClient("", logger)
	require.NoError(t, client.OverrideBaseURL(server.URL))

	return client, server
}

func TestSearchByTopic(t *testing.T) {
	t.Run("returns matches most-starred first", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Query().Get("q"), "stars:>=1000")
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{"total_count": 2, "items": [
				{"full_name": "octo/popular", "stargazers_count": 9000},
				{"full_name": "octo/niche", "stargazers_count": 1500}
			]}`)
		})
		client, _ := setupTestClient(t, handler)

		repos, err := client.SearchByTopic(context.Background(), "airflow", 1000, 50)
		require.NoError(t, err)
		require.Len(t, repos, 2)
		assert.Equal(t, "octo/popular", repos[0].FullName)
		assert.Equal(t, 9000, repos[0].Stars)
		assert.Equal(t, "airflow", repos[0].Topic)
	})

	t.Run("stops at the per-topic limit", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{"total_count": 3, "items": [
				{"full_name": "octo/a", "stargazers_count": 3000},
				{"full_name": "octo/b", "stargazers_count": 2000},
				{"full_name": "octo/c", "stargazers_count": 1000}
			]}`)
		})
		client, _ := setupTestClient(t, handler)

		repos, err := client.SearchByTopic(context.Background(), "etl", 1000, 2)
		require.NoError(t, err)
		assert.Len(t, repos, 2)
	})

	t.Run("propagates API errors", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message": "rate limited"}`)
		})
		client, _ := setupTestClient(t, handler)

		_, err := client.SearchByTopic(context.Background(), "etl", 1000, 10)
		assert.Error(t, err)
	})
}
