// Package crawler provides the core crawl engine: fetching pages, extracting
// their links, deduplicating against the visited store and feeding new
// external links back into the frontier.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/masahif/pwascout/internal/config"
)

// Crawler pops URLs from the frontier and runs each one through the page
// processor under a hard wall-clock budget.
type Crawler struct {
	processor     *PageProcessor
	frontier      Frontier
	workerTimeout time.Duration
	pacer         *Pacer
	logger        *slog.Logger
	metrics       *Metrics
}

// NewCrawler creates a crawler bound to the given processor and frontier
func NewCrawler(cfg *config.Config, processor *PageProcessor, frontier Frontier, logger *slog.Logger, metrics *Metrics) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Crawler{
		processor:     processor,
		frontier:      frontier,
		workerTimeout: cfg.WorkerTimeout,
		pacer:         NewPacer(cfg.DrainDelay),
		logger:        logger,
		metrics:       metrics,
	}
}

// Seed processes exactly one URL and returns the frontier length afterwards.
// The frontier itself is not drained.
func (c *Crawler) Seed(ctx context.Context, rawURL string) (int64, error) {
	visit, err := c.processor.Process(ctx, rawURL)
	if err != nil {
		c.metrics.observeOutcome(OutcomeFailed)
		return 0, fmt.Errorf("failed to process seed %s: %w", rawURL, err)
	}
	c.metrics.observeOutcome(visit.Outcome)
	c.logger.Info("Seed processed", "url", rawURL, "outcome", visit.Outcome.String())

	pending, err := c.frontier.Len(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read frontier length: %w", err)
	}
	return pending, nil
}

// Drain pops and processes URLs one at a time until the frontier is empty.
// Only frontier failures and cancellation of ctx end the loop early.
func (c *Crawler) Drain(ctx context.Context) (stats DrainStats, err error) {
	stats.StartTime = time.Now()
	logger := c.logger.With("run_id", uuid.NewString())

	logger.Info("Drain started")
	defer func() { stats.Duration = time.Since(stats.StartTime) }()

	for {
		if err := ctx.Err(); err != nil {
			logger.Info("Drain cancelled", "popped", stats.Popped)
			return stats, err
		}

		if err := c.pacer.Wait(ctx); err != nil {
			return stats, err
		}

		rawURL, ok, err := c.frontier.Pop(ctx)
		if err != nil {
			return stats, fmt.Errorf("failed to pop from frontier: %w", err)
		}
		if !ok {
			logger.Info("Frontier is empty, drain finished",
				"popped", stats.Popped,
				"processed", stats.Processed,
				"timed_out", stats.TimedOut,
				"duration", time.Since(stats.StartTime))
			return stats, nil
		}

		stats.Popped++
		outcome := c.runBounded(ctx, logger, rawURL)
		stats.record(outcome)
		c.metrics.observeOutcome(outcome)
	}
}

type evaluation struct {
	visit *Visit
	err   error
}

// runBounded evaluates rawURL in its own goroutine and commits the result
// only if evaluation finished within the worker budget. An evaluation that
// overruns is abandoned: its context is cancelled and anything it produces
// afterwards is dropped, so no partial record or enqueue survives. The commit
// shares what is left of the same budget.
func (c *Crawler) runBounded(ctx context.Context, logger *slog.Logger, rawURL string) Outcome {
	workerCtx, cancel := context.WithTimeout(ctx, c.workerTimeout)
	defer cancel()

	done := make(chan evaluation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- evaluation{err: fmt.Errorf("panic while evaluating: %v", r)}
			}
		}()
		visit, err := c.processor.Evaluate(workerCtx, rawURL)
		done <- evaluation{visit: visit, err: err}
	}()

	var result evaluation
	select {
	case result = <-done:
	case <-workerCtx.Done():
	}

	// A result that raced the deadline is discarded as well.
	if workerCtx.Err() != nil {
		if ctx.Err() == nil && errors.Is(workerCtx.Err(), context.DeadlineExceeded) {
			logger.Warn("Worker exceeded deadline, result discarded", "url", rawURL, "timeout", c.workerTimeout)
			return OutcomeTimedOut
		}
		return OutcomeFailed
	}

	if result.err != nil {
		logger.Error("Failed to evaluate URL", "url", rawURL, "error", result.err)
		return OutcomeFailed
	}

	if err := c.processor.Commit(workerCtx, result.visit); err != nil {
		if ctx.Err() == nil && errors.Is(workerCtx.Err(), context.DeadlineExceeded) {
			logger.Warn("Commit exceeded deadline", "url", rawURL, "timeout", c.workerTimeout, "error", err)
			return OutcomeTimedOut
		}
		logger.Error("Failed to commit URL", "url", rawURL, "error", err)
		return OutcomeFailed
	}

	logger.Debug("Processed URL", "url", rawURL, "outcome", result.visit.Outcome.String())
	return result.visit.Outcome
}
