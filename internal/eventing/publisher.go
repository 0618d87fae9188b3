package eventing

import (
	"context"
	"errors"
)

// OutboxWriter records published envelopes and their delivery outcome.
type OutboxWriter interface {
	Insert(ctx context.Context, env Envelope) (string, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// Publisher records events in the outbox and delivers them in-process.
// Delivery is synchronous: when Publish returns nil every subscriber has run.
type Publisher struct {
	bus    EventBus
	outbox OutboxWriter
}

// NewPublisher constructs a publisher. outbox may be nil.
func NewPublisher(bus EventBus, outbox OutboxWriter) (*Publisher, error) {
	if bus == nil {
		return nil, errors.New("publisher: nil bus")
	}
	return &Publisher{bus: bus, outbox: outbox}, nil
}

// Publish writes the event to outbox and delivers it.
func (p *Publisher) Publish(ctx context.Context, event any) error {
	if p == nil || p.bus == nil {
		return errors.New("publisher: nil bus")
	}
	env, err := BuildEnvelope(event, MetaFromContext(ctx))
	if err != nil {
		return err
	}

	var outboxID string
	if p.outbox != nil {
		outboxID, err = p.outbox.Insert(ctx, env)
		if err != nil {
			return err
		}
	}

	deliverErr := p.bus.Publish(WithEnvelope(ctx, env), event)
	if p.outbox != nil {
		if deliverErr != nil {
			_ = p.outbox.MarkFailed(ctx, outboxID)
		} else {
			_ = p.outbox.MarkSent(ctx, outboxID)
		}
	}
	return deliverErr
}
