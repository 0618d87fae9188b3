package application

import (
	"context"
	"time"

	calendar "parking-cloud/internal/calendar/domain"
	masterdata "parking-cloud/internal/masterdata/domain"
)

// LotReader loads lot masterdata.
type LotReader interface {
	Get(ctx context.Context, id string) (*masterdata.Lot, error)
}

// HolidayLoader loads the holidays touching a stay.
type HolidayLoader interface {
	Load(ctx context.Context, loc *time.Location, countryCode string, from, to time.Time) (*calendar.HolidaySet, error)
}

// EventPublisher publishes tariff events. Publish returns once subscribers ran.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

func loadLot(ctx context.Context, lots LotReader, tenantID, lotID string) (*masterdata.Lot, error) {
	lot, err := lots.Get(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil || lot.TenantID != tenantID {
		return nil, masterdata.ErrLotNotFound
	}
	return lot, nil
}
