// internal/collector/scheduler.go
package collector

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	xerrors "commit-harvester/internal/errors"
	"commit-harvester/internal/model"
)

// Scheduler fans the collector out across the catalog under a fixed worker
// cap. Each repository is handled by exactly one worker per run, so
// concurrent watermark writes for the same repository cannot happen here.
type Scheduler struct {
	collector *Collector
	workers   int
	logger    *slog.Logger
}

// NewScheduler creates a Scheduler running at most workers repositories in
// parallel.
func NewScheduler(c *Collector, workers int, logger *slog.Logger) *Scheduler {
	return &Scheduler{collector: c, workers: workers, logger: logger}
}

// RunAll collects every repository and waits for all workers before
// returning. A failing repository is recorded in the summary and never
// cancels or affects its siblings. Cancelling ctx stops dispatching new
// repositories; already-running ones finish or abort on their own blocking
// calls.
func (s *Scheduler) RunAll(ctx context.Context, repos []model.TrackedRepo) model.RunSummary {
	s.logger.Info("Starting collection run", "repositories", len(repos), "workers", s.workers)

	outcomes := make([]model.RunOutcome, len(repos))

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i, repo := range repos {
		if ctx.Err() != nil {
			outcomes[i] = model.RunOutcome{
				Repository: repo.FullName,
				Err:        &xerrors.RepoError{Repository: repo.FullName, Err: ctx.Err()},
			}
			continue
		}
		i, repo := i, repo
		g.Go(func() error {
			outcomes[i] = s.collector.Collect(ctx, repo)
			if err := outcomes[i].Err; err != nil {
				s.logger.Warn("Repository failed", "repo", repo.FullName, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := model.RunSummary{Outcomes: outcomes}
	s.logger.Info("Collection run finished",
		"repositories", len(repos),
		"failed", len(summary.Failed()),
		"commits", summary.TotalProcessed())
	return summary
}
