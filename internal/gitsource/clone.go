// internal/gitsource/clone.go
package gitsource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	git "github.com/go-git/go-git/v5"

	xerrors "commit-harvester/internal/errors"
)

// Cloner produces read-only, space-bounded repository handles. The transfer
// itself goes through the git binary so that a partial-clone blob filter can
// cap download size; everything after the clone is read with go-git.
type Cloner struct {
	Token        string // optional; injected into the clone URL, never logged
	MaxBlobBytes int64
	BaseURL      string // defaults to https://github.com
	Logger       *slog.Logger
}

// Clone fetches a bare copy of fullName ("owner/name") into a temp directory
// and opens it. Transient clone failures are retried with backoff. The caller
// must Close the returned Repository to release the temp directory.
func (c *Cloner) Clone(ctx context.Context, fullName string) (*Repository, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return nil, &xerrors.ErrInvalidRepoName{Name: fullName}
	}

	dir, err := os.MkdirTemp("", "bare_")
	if err != nil {
		return nil, fmt.Errorf("create clone dir: %w", err)
	}

	target := filepath.Join(dir, "repo.git")
	op := func() error {
		// A failed attempt may leave a partial target behind.
		if err := os.RemoveAll(target); err != nil {
			return backoff.Permanent(err)
		}
		cmd := exec.CommandContext(ctx, "git", "clone",
			"--bare", "--quiet",
			fmt.Sprintf("--filter=blob:limit=%d", c.MaxBlobBytes),
			c.cloneURL(fullName), target)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("git clone: %v: %s", err, out)
		}
		return nil
	}
	if err := backoff.RetryNotify(op, cloneBackoff(ctx), c.retryNotify(fullName)); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("clone %s: %w", fullName, err)
	}

	repo, err := git.PlainOpen(target)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("open clone of %s: %w", fullName, err)
	}

	return &Repository{
		gogit:   repo,
		tempDir: dir,
	}, nil
}

// retryNotify logs failed clone attempts before the next backoff wait.
func (c *Cloner) retryNotify(fullName string) backoff.Notify {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(err error, wait time.Duration) {
		logger.Warn("Clone attempt failed, retrying", "repo", fullName, "wait", wait, "error", err)
	}
}

func (c *Cloner) cloneURL(fullName string) string {
	base := c.BaseURL
	if base == "" {
		base = "https://github.com"
	}
	if c.Token != "" {
		return fmt.Sprintf("https://%s@%s/%s.git", c.Token, trimScheme(base), fullName)
	}
	return fmt.Sprintf("%s/%s.git", base, fullName)
}

func trimScheme(base string) string {
	for _, p := range []string{"https://", "http://"} {
		if len(base) > len(p) && base[:len(p)] == p {
			return base[len(p):]
		}
	}
	return base
}

func cloneBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxElapsedTime = 2 * time.Minute
	return backoff.WithContext(backoff.WithMaxRetries(b, 2), ctx)
}
