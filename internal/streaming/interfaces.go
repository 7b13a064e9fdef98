package streaming

import (
	"context"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
)

// EventBus is the observability fan-out every worker engine publishes
// PipelineEvents to (satisfying engine.EventPublisher) and the ingress
// WebSocket endpoint subscribes from, one job at a time. Publish has no
// error return so that EventBus satisfies engine.EventPublisher directly:
// a failed publish is logged and swallowed, never surfaced to the caller.
type EventBus interface {
	EnsureStream(ctx context.Context) error
	Publish(ctx context.Context, event domain.PipelineEvent)
	Subscribe(ctx context.Context, jobID string, handler func(domain.PipelineEvent)) error
	Ping() error
	Close()
}

// Publisher is the minimal one-method shape engine.EventPublisher expects;
// both EventBus and ClickHouseSink satisfy it on their own.
type Publisher interface {
	Publish(ctx context.Context, event domain.PipelineEvent)
}

// FanOutPublisher publishes every event to each of its Publishers, letting
// the live NATS/WebSocket bridge and a durable ClickHouse history coexist
// behind the single engine.EventPublisher slot. A nil entry is skipped, so
// either leg can be absent without special-casing callers.
type FanOutPublisher []Publisher

func (f FanOutPublisher) Publish(ctx context.Context, event domain.PipelineEvent) {
	for _, p := range f {
		if p != nil {
			p.Publish(ctx, event)
		}
	}
}
