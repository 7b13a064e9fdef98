// Package streaming publishes PipelineEvents to NATS JetStream and bridges
// them to WebSocket clients watching a single job.
package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
)

const streamName = "PIPELINE_EVENTS"

// NATSBus is the EventBus backed by a NATS JetStream connection. Every
// status advance is published to subject "dhscanner.jobs.<job_id>.events";
// it is pure observability, never read by the pipeline itself.
type NATSBus struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

// NewNATSBus connects to a NATS server and enables JetStream.
func NewNATSBus(url string) (*NATSBus, error) {
	logger := slog.Default().With("component", "nats")

	opts := []nats.Option{
		nats.Name("dhscanner-orchestrator"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	return &NATSBus{conn: nc, js: js, logger: logger}, nil
}

// Close drains pending messages and disconnects.
func (b *NATSBus) Close() {
	if b.conn != nil {
		_ = b.conn.Drain()
	}
}

// EnsureStream provisions the single PIPELINE_EVENTS stream if absent.
func (b *NATSBus) EnsureStream(ctx context.Context) error {
	cfg := jetstream.StreamConfig{
		Name:        streamName,
		Description: "dhscanner pipeline lifecycle events (status advances)",
		Subjects:    []string{"dhscanner.jobs.*.events"},
		Retention:   jetstream.InterestPolicy,
		MaxAge:      1 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Discard:     jetstream.DiscardOld,
		MaxBytes:    512 * 1024 * 1024,
	}

	if _, err := b.js.CreateOrUpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
	}
	b.logger.Info("JetStream stream ready", "stream", cfg.Name)
	return nil
}

func subjectForJob(jobID string) string {
	return fmt.Sprintf("dhscanner.jobs.%s.events", jobID)
}

// Publish is fire-and-forget per the contract that observability never
// blocks or fails a status advance: failures are logged and swallowed.
func (b *NATSBus) Publish(ctx context.Context, event domain.PipelineEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Warn("marshal pipeline event failed", "job_id", event.JobID, "error", err)
		return
	}

	if _, err := b.js.Publish(ctx, subjectForJob(event.JobID), data); err != nil {
		b.logger.Warn("publish pipeline event failed", "job_id", event.JobID, "error", err)
	}
}

// Subscribe consumes events for a single job on an ephemeral consumer —
// live status push has no durability requirement, a missed event is
// immediately superseded by a later one or by polling /status.
func (b *NATSBus) Subscribe(ctx context.Context, jobID string, handler func(domain.PipelineEvent)) error {
	subject := subjectForJob(jobID)

	cons, err := b.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		FilterSubject:     subject,
		AckPolicy:         jetstream.AckNonePolicy,
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		InactiveThreshold: 5 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("create ephemeral consumer for %s: %w", subject, err)
	}

	_, err = cons.Consume(func(msg jetstream.Msg) {
		var event domain.PipelineEvent
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			b.logger.Error("unmarshal pipeline event", "error", err, "subject", subject)
			return
		}
		handler(event)
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", subject, err)
	}
	return nil
}

// Ping verifies the NATS connection is alive and JetStream is available.
func (b *NATSBus) Ping() error {
	if !b.conn.IsConnected() {
		return fmt.Errorf("nats: not connected")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := b.js.AccountInfo(ctx)
	if err != nil {
		return fmt.Errorf("nats jetstream ping: %w", err)
	}
	return nil
}
