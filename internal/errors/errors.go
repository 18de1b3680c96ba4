// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrBlobTooLarge marks a blob side skipped because its size exceeded the
// configured ceiling. The surrounding file change is still recorded.
var ErrBlobTooLarge = errors.New("blob exceeds size ceiling")

// ErrInvalidRepoName is returned when a catalog entry is not in 'owner/name' form.
type ErrInvalidRepoName struct {
	Name string
}

func (e *ErrInvalidRepoName) Error() string {
	return fmt.Sprintf("invalid repository name: %q, expected 'owner/name'", e.Name)
}

// RepoError wraps a repository-level collection failure so the scheduler can
// attribute it in the run summary without unwrapping ad hoc strings.
type RepoError struct {
	Repository string
	Err        error
}

func (e *RepoError) Error() string {
	return fmt.Sprintf("collect %s: %v", e.Repository, e.Err)
}

func (e *RepoError) Unwrap() error { return e.Err }
