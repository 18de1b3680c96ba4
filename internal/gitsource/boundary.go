// internal/gitsource/boundary.go
package gitsource

import "time"

// Boundary bounds a newest-first walk over commit history. The walk ends at
// the already-collected watermark (exclusive), at the edge of the lookback
// window, or at the per-run commit cap, whichever comes first.
type Boundary struct {
	SinceHash string    // watermark; empty on a repository's first run
	Since     time.Time // lookback window start
	MaxCount  int
}

// CutReason says why a walk stopped.
type CutReason int

const (
	CutNone CutReason = iota
	CutCount
	CutWatermark
	CutWindow
)

func (r CutReason) String() string {
	switch r {
	case CutCount:
		return "commit cap"
	case CutWatermark:
		return "watermark"
	case CutWindow:
		return "lookback window"
	default:
		return "none"
	}
}

// Cut decides whether the walk must stop before yielding the commit
// identified by hash/authoredAt, given how many entries were already
// yielded. Pure; no I/O.
func (b Boundary) Cut(hash string, authoredAt time.Time, yielded int) CutReason {
	if b.MaxCount > 0 && yielded >= b.MaxCount {
		return CutCount
	}
	if b.SinceHash != "" && hash == b.SinceHash {
		return CutWatermark
	}
	if authoredAt.Before(b.Since) {
		return CutWindow
	}
	return CutNone
}
