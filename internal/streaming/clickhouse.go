package streaming

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
)

// ClickHouseSink is a durable, queryable PipelineEvent store that
// complements the ephemeral NATS bus: NATS feeds the live WebSocket push,
// this table lets an operator query a job's full status-advance history
// after the fact. Grounded on the teacher's ClickHouseClient (same
// ParseDSN/Open/Ping construction), reduced to the one insert this domain
// needs.
type ClickHouseSink struct {
	conn   driver.Conn
	logger *slog.Logger
}

// NewClickHouseSink opens a ClickHouse connection from a v2 DSN, e.g.
// "clickhouse://localhost:9000/dhscanner".
func NewClickHouseSink(ctx context.Context, dsn string) (*ClickHouseSink, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: parse dsn: %w", err)
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: open: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse: ping: %w", err)
	}

	return &ClickHouseSink{conn: conn, logger: slog.Default().With("component", "clickhouse")}, nil
}

// EnsureTable provisions the pipeline_events table if absent.
func (s *ClickHouseSink) EnsureTable(ctx context.Context) error {
	err := s.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pipeline_events (
			job_id      String,
			from_status String,
			to_status   String,
			stage       String,
			at          DateTime64(3)
		) ENGINE = MergeTree()
		ORDER BY (job_id, at)
	`)
	if err != nil {
		return fmt.Errorf("clickhouse: ensure pipeline_events table: %w", err)
	}
	return nil
}

// Publish inserts a row recording the status advance. Same fire-and-forget
// posture as NATSBus.Publish: a failure here never blocks or fails the
// advance it is reporting on, it is logged and swallowed.
func (s *ClickHouseSink) Publish(ctx context.Context, event domain.PipelineEvent) {
	err := s.conn.Exec(ctx, `
		INSERT INTO pipeline_events (job_id, from_status, to_status, stage, at)
		VALUES (@jobID, @fromStatus, @toStatus, @stage, @at)
	`,
		clickhouse.Named("jobID", event.JobID),
		clickhouse.Named("fromStatus", string(event.FromStatus)),
		clickhouse.Named("toStatus", string(event.ToStatus)),
		clickhouse.Named("stage", event.Stage),
		clickhouse.Named("at", event.At),
	)
	if err != nil {
		s.logger.Warn("insert pipeline event failed", "job_id", event.JobID, "error", err)
	}
}

// Close releases the underlying connection pool.
func (s *ClickHouseSink) Close() error {
	return s.conn.Close()
}
