package eventing

import (
	"context"
	"errors"
	"testing"
	"time"
)

type lotEvent struct {
	TenantID   string
	LotID      string
	OccurredAt time.Time
}

func (e lotEvent) EventScope() Scope {
	return Scope{TenantID: e.TenantID, LotID: e.LotID, OccurredAt: e.OccurredAt}
}

type otherEvent struct{}

func TestInMemoryBus_DeliversByType(t *testing.T) {
	bus := NewInMemoryBus()
	var got []string
	bus.Subscribe(EventTypeOf[lotEvent](), func(ctx context.Context, event any) error {
		got = append(got, event.(lotEvent).LotID)
		return nil
	})
	bus.Subscribe(EventTypeOf[otherEvent](), func(ctx context.Context, event any) error {
		t.Fatalf("unexpected delivery of %T", event)
		return nil
	})

	if err := bus.Publish(context.Background(), lotEvent{LotID: "lot-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 1 || got[0] != "lot-1" {
		t.Fatalf("deliveries = %v", got)
	}
	if EventType(&lotEvent{}) != EventTypeOf[lotEvent]() {
		t.Fatalf("pointer and value event types differ")
	}
}

func TestInMemoryBus_RunsAllHandlersAndJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus()
	boom := errors.New("boom")
	calls := 0
	bus.Subscribe(EventTypeOf[lotEvent](), func(context.Context, any) error {
		calls++
		return boom
	})
	bus.Subscribe(EventTypeOf[lotEvent](), func(context.Context, any) error {
		calls++
		return nil
	})

	err := bus.Publish(context.Background(), lotEvent{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected both handlers to run, got %d", calls)
	}
}
