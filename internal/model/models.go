// internal/model/models.go
package model

import "time"

// Change kinds recorded for a file touched by a commit.
const (
	ChangeAdded    = "added"
	ChangeModified = "modified"
	ChangeRemoved  = "removed"
	ChangeRenamed  = "renamed"
)

// Blob sides relative to a commit's first-parent diff.
const (
	SideBefore = "before"
	SideAfter  = "after"
)

// TrackedRepo is one row of the repository catalog. The catalog is owned by
// the discovery job; the collector only reads it.
type TrackedRepo struct {
	FullName   string // e.g. "apache/airflow"
	Topic      string
	Stars      int
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Commit is the per-commit metadata row.
type Commit struct {
	Hash         string
	Repository   string
	Author       string
	AuthorEmail  string
	Message      string
	CommittedAt  time.Time
	FilesChanged int
	LinesAdded   int
	LinesRemoved int
	CollectedAt  time.Time
}

// FileChange is one file touched by a commit, keyed by (commit hash, path).
// BeforeURI/AfterURI are object-store locators; either may be empty when the
// corresponding blob side does not exist or was skipped as oversized.
type FileChange struct {
	CommitHash   string
	Path         string
	Extension    string
	ChangeType   string
	LinesAdded   int
	LinesRemoved int
	BeforeURI    string
	AfterURI     string
}

// Watermark records the newest commit already collected for a repository.
type Watermark struct {
	Repository      string
	LastCommitHash  string
	LastCollectedAt time.Time
}

// RunOutcome is the result of collecting a single repository.
type RunOutcome struct {
	Repository string
	Processed  int
	NewestHash string
	Err        error
}

// RunSummary aggregates per-repository outcomes for one collector invocation.
type RunSummary struct {
	Outcomes []RunOutcome
}

// Failed returns the outcomes that ended in error.
func (s RunSummary) Failed() []RunOutcome {
	var failed []RunOutcome
	for _, o := range s.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// AllFailed reports whether every repository in the run failed. An empty
// summary is not a failure.
func (s RunSummary) AllFailed() bool {
	return len(s.Outcomes) > 0 && len(s.Failed()) == len(s.Outcomes)
}

// TotalProcessed returns the number of commits collected across all
// repositories in the run.
func (s RunSummary) TotalProcessed() int {
	total := 0
	for _, o := range s.Outcomes {
		total += o.Processed
	}
	return total
}
