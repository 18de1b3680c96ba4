// internal/gitsource/repo.go
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	xerrors "commit-harvester/internal/errors"
	"commit-harvester/internal/model"
)

// Repository is a read-only handle on a cloned (or locally opened) git
// repository.
type Repository struct {
	gogit   *git.Repository
	tempDir string // removed on Close; empty for opened repos
}

// Open opens an existing repository on disk. Used by tests and local runs;
// Close does not remove anything for opened repositories.
func Open(path string) (*Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Repository{gogit: repo}, nil
}

// Close releases the clone's temp directory, if any.
func (r *Repository) Close() error {
	if r.tempDir == "" {
		return nil
	}
	return os.RemoveAll(r.tempDir)
}

// NewCommits walks history newest-first from HEAD until the boundary cuts it
// off. Commit content (diffs, blobs) is only touched when the caller asks
// for it.
func (r *Repository) NewCommits(b Boundary) (*CommitIter, error) {
	head, err := r.gogit.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// Empty repository: nothing to walk.
		return &CommitIter{done: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	iter, err := r.gogit.Log(&git.LogOptions{
		From:  head.Hash(),
		Order: git.LogOrderCommitterTime,
	})
	if err != nil {
		return nil, fmt.Errorf("walk history: %w", err)
	}

	return &CommitIter{repo: r, iter: iter, boundary: b}, nil
}

// CommitIter yields commits newest-first, applying the boundary after each
// item. Root commits are skipped (no parent means no diff) and do not count
// against the cap.
type CommitIter struct {
	repo     *Repository
	iter     object.CommitIter
	boundary Boundary
	yielded  int
	done     bool
	stopped  CutReason
}

// Next returns the next commit entry, or (nil, nil) when the walk is over.
func (it *CommitIter) Next() (*CommitEntry, error) {
	if it.done {
		return nil, nil
	}
	for {
		c, err := it.iter.Next()
		if errors.Is(err, io.EOF) {
			it.finish(CutNone)
			return nil, nil
		}
		if err != nil {
			it.finish(CutNone)
			return nil, fmt.Errorf("advance history walk: %w", err)
		}

		if reason := it.boundary.Cut(c.Hash.String(), c.Author.When, it.yielded); reason != CutNone {
			it.finish(reason)
			return nil, nil
		}
		if c.NumParents() == 0 {
			continue
		}

		it.yielded++
		return newCommitEntry(it.repo, c), nil
	}
}

// StopReason reports why the walk ended; CutNone until exhausted.
func (it *CommitIter) StopReason() CutReason { return it.stopped }

func (it *CommitIter) finish(reason CutReason) {
	it.done = true
	it.stopped = reason
	if it.iter != nil {
		it.iter.Close()
	}
}

// CommitEntry is one commit of the walk with lazy access to its first-parent
// diff.
type CommitEntry struct {
	Hash         string
	ParentHashes []string
	Author       string
	AuthorEmail  string
	Message      string
	AuthoredAt   time.Time

	repo   *Repository
	commit *object.Commit
}

func newCommitEntry(r *Repository, c *object.Commit) *CommitEntry {
	parents := make([]string, 0, c.NumParents())
	for _, h := range c.ParentHashes {
		parents = append(parents, h.String())
	}
	return &CommitEntry{
		Hash:         c.Hash.String(),
		ParentHashes: parents,
		Author:       c.Author.Name,
		AuthorEmail:  c.Author.Email,
		Message:      c.Message,
		AuthoredAt:   c.Author.When,
		repo:         r,
		commit:       c,
	}
}

// CommitDiff is the first-parent diff of a commit: per-file changes plus the
// aggregate line counts.
type CommitDiff struct {
	FilesChanged int
	LinesAdded   int
	LinesRemoved int
	Files        []FileDiff
}

// FileDiff is one changed file. Path is the destination path (source path
// for removals); blob content on either side is fetched on demand.
type FileDiff struct {
	Path         string
	FromPath     string
	ChangeType   string
	LinesAdded   int
	LinesRemoved int

	beforeHash plumbing.Hash
	afterHash  plumbing.Hash
	repo       *Repository
}

// Diff computes the commit's diff against its first parent. An error here
// means the whole commit cannot be diffed; the caller decides whether to
// skip it.
func (e *CommitEntry) Diff(ctx context.Context) (*CommitDiff, error) {
	parent, err := e.commit.Parent(0)
	if err != nil {
		return nil, fmt.Errorf("first parent of %s: %w", shortHash(e.Hash), err)
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, fmt.Errorf("parent tree of %s: %w", shortHash(e.Hash), err)
	}
	tree, err := e.commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree of %s: %w", shortHash(e.Hash), err)
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, tree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("diff %s: %w", shortHash(e.Hash), err)
	}

	stats, err := e.commit.StatsContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats of %s: %w", shortHash(e.Hash), err)
	}
	statByPath := make(map[string]object.FileStat, len(stats))
	for _, fs := range stats {
		statByPath[fs.Name] = fs
	}

	diff := &CommitDiff{FilesChanged: len(changes)}
	for _, fs := range stats {
		diff.LinesAdded += fs.Addition
		diff.LinesRemoved += fs.Deletion
	}

	for _, ch := range changes {
		fd, err := newFileDiff(e.repo, ch, statByPath)
		if err != nil {
			return nil, fmt.Errorf("diff %s: %w", shortHash(e.Hash), err)
		}
		diff.Files = append(diff.Files, fd)
	}
	return diff, nil
}

func newFileDiff(r *Repository, ch *object.Change, statByPath map[string]object.FileStat) (FileDiff, error) {
	action, err := ch.Action()
	if err != nil {
		return FileDiff{}, err
	}

	fd := FileDiff{repo: r}
	switch action {
	case merkletrie.Insert:
		fd.Path = ch.To.Name
		fd.ChangeType = model.ChangeAdded
		fd.afterHash = ch.To.TreeEntry.Hash
	case merkletrie.Delete:
		fd.Path = ch.From.Name
		fd.ChangeType = model.ChangeRemoved
		fd.beforeHash = ch.From.TreeEntry.Hash
	default:
		fd.Path = ch.To.Name
		fd.ChangeType = model.ChangeModified
		if ch.From.Name != ch.To.Name {
			fd.ChangeType = model.ChangeRenamed
			fd.FromPath = ch.From.Name
		}
		fd.beforeHash = ch.From.TreeEntry.Hash
		fd.afterHash = ch.To.TreeEntry.Hash
	}

	// Stats are keyed by the destination path; renames fall back from the
	// source name to the destination name.
	st, ok := statByPath[fd.Path]
	if !ok && fd.FromPath != "" {
		st, ok = statByPath[fd.FromPath]
	}
	if ok {
		fd.LinesAdded = st.Addition
		fd.LinesRemoved = st.Deletion
	}
	return fd, nil
}

// Before returns the pre-image content, nil when the side does not exist,
// or ErrBlobTooLarge when it exceeds maxBytes.
func (f *FileDiff) Before(maxBytes int64) ([]byte, error) {
	return f.repo.readBlob(f.beforeHash, maxBytes)
}

// After returns the post-image content under the same rules as Before.
func (f *FileDiff) After(maxBytes int64) ([]byte, error) {
	return f.repo.readBlob(f.afterHash, maxBytes)
}

func (r *Repository) readBlob(hash plumbing.Hash, maxBytes int64) ([]byte, error) {
	if hash.IsZero() {
		return nil, nil
	}
	blob, err := r.gogit.BlobObject(hash)
	if err != nil {
		return nil, fmt.Errorf("blob %s: %w", hash, err)
	}
	if maxBytes > 0 && blob.Size > maxBytes {
		return nil, xerrors.ErrBlobTooLarge
	}
	rd, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("blob %s: %w", hash, err)
	}
	defer rd.Close()
	return io.ReadAll(rd)
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}
