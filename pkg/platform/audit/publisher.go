package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Publisher fills in event defaults and appends to the configured store,
// optionally fanning out to a secondary sink (e.g. Kafka). Sink failures are
// not fatal: the local append is the source of truth.
type Publisher struct {
	store Store
	sink  Emitter
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithSink attaches a secondary sink receiving every event after the local
// append succeeds.
func WithSink(sink Emitter) PublisherOption {
	return func(p *Publisher) {
		p.sink = sink
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = CategoryFor(event.Action)
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.sink != nil {
		// Best effort: the sink carries its own retry semantics.
		_ = p.sink.Emit(ctx, event)
	}
	return nil
}

// ListRecent returns the most recent events, newest first.
func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return p.store.ListRecent(ctx, limit)
}
