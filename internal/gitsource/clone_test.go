// internal/gitsource/clone_test.go
package gitsource

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	xerrors "commit-harvester/internal/errors"
)

func TestCloner_CloneURL(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		c := &Cloner{}
		assert.Equal(t, "https://github.com/octo/sample.git", c.cloneURL("octo/sample"))
	})

	t.Run("token is embedded", func(t *testing.T) {
		c := &Cloner{Token: "ghp_secret"}
		assert.Equal(t, "https://ghp_secret@github.com/octo/sample.git", c.cloneURL("octo/sample"))
	})

	t.Run("custom base url", func(t *testing.T) {
		c := &Cloner{BaseURL: "https://git.internal.example"}
		assert.Equal(t, "https://git.internal.example/octo/sample.git", c.cloneURL("octo/sample"))

		c.Token = "tok"
		assert.Equal(t, "https://tok@git.internal.example/octo/sample.git", c.cloneURL("octo/sample"))
	})
}

func TestClone_RejectsMalformedNames(t *testing.T) {
	c := &Cloner{}
	for _, name := range []string{"", "noslash", "/name", "owner/", "a/b/c"} {
		_, err := c.Clone(context.Background(), name)

		var invalid *xerrors.ErrInvalidRepoName
		assert.ErrorAs(t, err, &invalid, "name %q", name)
	}
}

func TestCloner_RetryNotifyLogsAttempt(t *testing.T) {
	var buf bytes.Buffer
	c := &Cloner{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	c.retryNotify("octo/sample")(errors.New("connection reset"), 2*time.Second)

	out := buf.String()
	assert.Contains(t, out, "Clone attempt failed")
	assert.Contains(t, out, "octo/sample")
	assert.Contains(t, out, "connection reset")
}

func TestTrimScheme(t *testing.T) {
	assert.Equal(t, "github.com", trimScheme("https://github.com"))
	assert.Equal(t, "example.org", trimScheme("http://example.org"))
	assert.Equal(t, "bare-host", trimScheme("bare-host"))
}
