// Package engine implements the abstract stage-worker loop (C5): poll for
// jobs waiting at a trigger status, process a bounded number of them
// concurrently, advance each on success, and sleep before the next tick.
// Every concrete stage worker (native-parse, dhscanner-parse, codegen,
// kbgen, queryengine, results) is one instantiation of this engine.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
)

// Coordinator is the subset of the status coordinator an Engine needs:
// list jobs at a status, and advance a job past it.
type Coordinator interface {
	ListWaitingFor(ctx context.Context, status domain.JobStatus) []string
	Advance(ctx context.Context, jobID string, from domain.JobStatus) (domain.JobStatus, bool)
}

// EventPublisher is satisfied by the observability fan-out; it is optional
// and its absence (nil) never changes pipeline behavior.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.PipelineEvent)
}

// Handler processes a single job that is waiting at the engine's trigger
// status. A non-nil error means the job is left in place for a later tick
// to retry — at-least-once, idempotent processing is the handler's
// responsibility.
type Handler func(ctx context.Context, jobID string) error

// Engine runs one stage worker's poll loop.
type Engine struct {
	Stage       string
	Trigger     domain.JobStatus
	Coordinator Coordinator
	Handler     Handler
	Events      EventPublisher

	// PollInterval is the sleep between ticks. Defaults to 1 second.
	PollInterval time.Duration
	// Concurrency bounds how many jobs from one tick are processed at
	// once. Defaults to 8.
	Concurrency int
	// JobTimeout bounds a single job's processing time. Defaults to 10
	// minutes; each stage delegates to an external service that should
	// fail long before this.
	JobTimeout time.Duration
}

func (e *Engine) pollInterval() time.Duration {
	if e.PollInterval > 0 {
		return e.PollInterval
	}
	return time.Second
}

func (e *Engine) concurrency() int {
	if e.Concurrency > 0 {
		return e.Concurrency
	}
	return 8
}

func (e *Engine) jobTimeout() time.Duration {
	if e.JobTimeout > 0 {
		return e.JobTimeout
	}
	return 10 * time.Minute
}

// Run blocks, ticking until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	logger := slog.With("stage", e.Stage)
	logger.Info("stage worker starting")

	ticker := time.NewTicker(e.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stage worker shutting down")
			return
		case <-ticker.C:
			e.tick(ctx, logger)
		}
	}
}

func (e *Engine) tick(ctx context.Context, logger *slog.Logger) {
	jobIDs := e.Coordinator.ListWaitingFor(ctx, e.Trigger)
	if len(jobIDs) == 0 {
		return
	}

	sem := make(chan struct{}, e.concurrency())
	var wg sync.WaitGroup

	for _, jobID := range jobIDs {
		jobID := jobID
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			e.processOne(ctx, logger, jobID)
		}()
	}
	wg.Wait()
}

// processOne runs the handler for a single job on its own context, derived
// from context.Background and bounded by the job timeout. Cancellation of
// the worker's ctx (shutdown) is forwarded to it, so an in-flight job is
// aborted and left at its status for a later tick.
func (e *Engine) processOne(ctx context.Context, logger *slog.Logger, jobID string) {
	jobLogger := logger.With("job_id", jobID)

	jobCtx, cancel := context.WithTimeout(context.Background(), e.jobTimeout())
	defer cancel()
	// Still honor the parent ctx's cancellation for shutdown responsiveness.
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-jobCtx.Done():
		}
	}()

	if err := e.Handler(jobCtx, jobID); err != nil {
		jobLogger.Warn("stage processing failed, will retry next tick", "error", err)
		return
	}

	next, ok := e.Coordinator.Advance(jobCtx, jobID, e.Trigger)
	if !ok {
		jobLogger.Warn("advance skipped: job was not at the expected status")
		return
	}

	jobLogger.Info("stage processing succeeded", "next_status", next)

	if e.Events != nil {
		e.Events.Publish(jobCtx, domain.PipelineEvent{
			JobID:      jobID,
			FromStatus: e.Trigger,
			ToStatus:   next,
			Stage:      e.Stage,
			At:         time.Now(),
		})
	}
}
