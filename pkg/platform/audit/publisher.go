package audit

import (
	"context"
	"log/slog"
	"time"
)

// Store persists audit events. The worker drains the publisher's inbox into
// one of these.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher fans audit events out to a buffered inbox. Operational events are
// fire-and-forget; a full inbox drops them rather than blocking the hot path.
// Compliance events use EmitSync and fail closed.
type Publisher struct {
	inbox  chan Event
	store  Store
	logger *slog.Logger
}

// NewPublisher builds a publisher with the given inbox capacity. The store is
// used only by EmitSync; async events flow through the worker.
func NewPublisher(store Store, capacity int, logger *slog.Logger) *Publisher {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Publisher{
		inbox:  make(chan Event, capacity),
		store:  store,
		logger: logger,
	}
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan Event { return p.inbox }

// Emit queues an operational event. Never blocks; drops on overflow with a
// warning so ingest latency stays flat under audit-store pressure.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = CategoryOf(event.Action)
	}
	select {
	case p.inbox <- event:
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit inbox full, event dropped",
				"action", event.Action,
			)
		}
	}
}

// EmitSync writes a compliance event synchronously. Returns error if
// persistence fails - the caller MUST fail its operation. If the audit trail
// for a consent change or purge cannot be written, the change must not
// proceed.
func (p *Publisher) EmitSync(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = CategoryOf(event.Action)
	}
	if err := p.store.Append(ctx, event); err != nil {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "CRITICAL: compliance audit failed",
				"action", event.Action,
				"error", err,
			)
		}
		return err
	}
	return nil
}
