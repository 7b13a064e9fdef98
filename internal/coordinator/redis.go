// Package coordinator implements the status coordinator (C4): the single
// source of truth for each job's current pipeline status.
package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
)

// statusDoc is the exact on-the-wire shape a status key's value takes:
// a one-field JSON object, matching the coordinator this is grounded on.
type statusDoc struct {
	Status domain.JobStatus `json:"status"`
}

// Coordinator reads and advances job status in Redis. Every status
// transition is a last-writer-wins Set; there is no compare-and-swap,
// matching the pipeline's at-least-once, idempotent-advance design.
type Coordinator struct {
	client *redis.Client
}

// New wraps an already-connected Redis client.
func New(client *redis.Client) *Coordinator {
	return &Coordinator{client: client}
}

func statusKey(jobID string) string {
	return "job_status:" + jobID
}

// SetStatus writes a job's status, creating the key if it is the job's
// first status write.
func (c *Coordinator) SetStatus(ctx context.Context, jobID string, status domain.JobStatus) error {
	body, err := json.Marshal(statusDoc{Status: status})
	if err != nil {
		return fmt.Errorf("coordinator: marshal status: %w", err)
	}
	if err := c.client.Set(ctx, statusKey(jobID), body, 0).Err(); err != nil {
		return fmt.Errorf("coordinator: set status: %w", err)
	}
	return nil
}

// GetStatus reads a job's current status. found is false if the job is
// unknown to the coordinator.
func (c *Coordinator) GetStatus(ctx context.Context, jobID string) (status domain.JobStatus, found bool) {
	raw, err := c.client.Get(ctx, statusKey(jobID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("coordinator not responding", "job_id", jobID, "error", err)
		}
		return "", false
	}

	var doc statusDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		slog.Warn("coordinator status document malformed", "job_id", jobID, "error", err)
		return "", false
	}
	return doc.Status, true
}

// ListWaitingFor returns every job id currently sitting at the given
// status. It scans the key space rather than using KEYS, so it never
// blocks the Redis event loop even with a large number of in-flight jobs.
func (c *Coordinator) ListWaitingFor(ctx context.Context, status domain.JobStatus) []string {
	var jobIDs []string

	iter := c.client.Scan(ctx, 0, "job_status:*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		jobID := key[len("job_status:"):]

		current, found := c.GetStatus(ctx, jobID)
		if found && current == status {
			jobIDs = append(jobIDs, jobID)
		}
	}
	if err := iter.Err(); err != nil {
		slog.Warn("coordinator not responding", "error", err)
		return nil
	}

	return jobIDs
}

// Advance moves jobID from its current status to the next status in
// PipelineOrder. It is a no-op (returns false) if the job is not currently
// at the expected "from" status — stage workers call this after
// successfully processing a job, so a mismatch means another worker tick
// already advanced it.
func (c *Coordinator) Advance(ctx context.Context, jobID string, from domain.JobStatus) (domain.JobStatus, bool) {
	current, found := c.GetStatus(ctx, jobID)
	if !found || current != from {
		return "", false
	}

	next, ok := domain.NextStatus(from)
	if !ok {
		return "", false
	}

	if err := c.SetStatus(ctx, jobID, next); err != nil {
		slog.Warn("coordinator not responding", "job_id", jobID, "error", err)
		return "", false
	}
	return next, true
}
