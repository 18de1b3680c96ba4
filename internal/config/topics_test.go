// internal/config/topics_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTopicsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topics.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTopics(t *testing.T) {
	t.Run("full file", func(t *testing.T) {
		path := writeTopicsFile(t, `
topics:
  - airflow
  - "  data-engineering  "
  - ""
star_threshold: 500
new_limit_per_topic: 10
`)
		topics, err := LoadTopics(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"airflow", "data-engineering"}, topics.Topics)
		assert.Equal(t, 500, topics.StarThreshold)
		assert.Equal(t, 10, topics.NewLimitPerTopic)
	})

	t.Run("defaults fill absent fields", func(t *testing.T) {
		path := writeTopicsFile(t, "topics:\n  - etl\n")
		topics, err := LoadTopics(path)
		require.NoError(t, err)
		assert.Equal(t, defaultStarThreshold, topics.StarThreshold)
		assert.Equal(t, defaultNewLimit, topics.NewLimitPerTopic)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTopics(filepath.Join(t.TempDir(), "absent.yml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeTopicsFile(t, "topics: [unclosed")
		_, err := LoadTopics(path)
		assert.Error(t, err)
	})
}
