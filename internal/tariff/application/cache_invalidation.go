package application

import (
	"context"
	"fmt"

	"parking-cloud/internal/eventing"
	"parking-cloud/internal/tariff/application/events"
)

// SnapshotInvalidator drops cached plan snapshots of a lot.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, tenantID, lotID string) error
}

// Subscriber registers event handlers.
type Subscriber interface {
	Subscribe(eventType string, handler eventing.EventHandler)
}

// SubscribeSnapshotInvalidation evicts a lot's cached snapshot whenever its
// active plan or the rules of its active plan change.
func SubscribeSnapshotInvalidation(bus Subscriber, cache SnapshotInvalidator) {
	if bus == nil || cache == nil {
		return
	}
	bus.Subscribe(eventing.EventTypeOf[events.PlanActivated](), func(ctx context.Context, event any) error {
		e, ok := event.(events.PlanActivated)
		if !ok {
			return fmt.Errorf("snapshot invalidation: unexpected event %T", event)
		}
		return cache.Invalidate(ctx, e.TenantID, e.LotID)
	})
	bus.Subscribe(eventing.EventTypeOf[events.RulesReplaced](), func(ctx context.Context, event any) error {
		e, ok := event.(events.RulesReplaced)
		if !ok {
			return fmt.Errorf("snapshot invalidation: unexpected event %T", event)
		}
		if !e.PlanActive {
			return nil
		}
		return cache.Invalidate(ctx, e.TenantID, e.LotID)
	})
}
