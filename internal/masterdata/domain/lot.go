package masterdata

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrLotNotFound is returned when a lot does not exist.
	ErrLotNotFound = errors.New("lot: not found")
	// ErrInvalidTimezone is returned when the lot timezone cannot be loaded.
	ErrInvalidTimezone = errors.New("lot: invalid timezone")
)

// Lot represents a parking lot in masterdata.
type Lot struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Timezone    string    `json:"timezone"`
	CountryCode string    `json:"country_code"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks lot invariants.
func (l Lot) Validate() error {
	if l.ID == "" {
		return errors.New("lot: empty id")
	}
	if l.TenantID == "" {
		return errors.New("lot: empty tenant id")
	}
	if l.Name == "" {
		return errors.New("lot: empty name")
	}
	if l.Timezone == "" {
		return errors.New("lot: empty timezone")
	}
	if _, err := l.Location(); err != nil {
		return err
	}
	if len(l.CountryCode) != 2 {
		return errors.New("lot: country code must be ISO 3166-1 alpha-2")
	}
	return nil
}

// Location loads the lot's IANA timezone.
func (l Lot) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return nil, errors.Join(ErrInvalidTimezone, err)
	}
	return loc, nil
}

// LotRepository manages lot persistence.
type LotRepository interface {
	Get(ctx context.Context, id string) (*Lot, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Lot, error)
	Save(ctx context.Context, lot *Lot) error
}
