package auth

import (
	"context"
	"database/sql"

	masterdata "parking-cloud/internal/masterdata/domain"
	masterdatarepo "parking-cloud/internal/masterdata/infrastructure/postgres"
)

// LotTenantChecker validates lot tenant ownership.
type LotTenantChecker interface {
	EnsureLotTenant(ctx context.Context, tenantID, lotID string) error
}

type lotGetter interface {
	Get(ctx context.Context, id string) (*masterdata.Lot, error)
}

// LotChecker checks lot ownership using masterdata.
type LotChecker struct {
	repo lotGetter
}

// NewLotChecker constructs a LotChecker backed by the lots table.
func NewLotChecker(db *sql.DB) *LotChecker {
	if db == nil {
		return nil
	}
	return &LotChecker{repo: masterdatarepo.NewLotRepository(db)}
}

// NewLotCheckerWithRepository constructs a LotChecker over any lot source.
func NewLotCheckerWithRepository(repo masterdata.LotRepository) *LotChecker {
	if repo == nil {
		return nil
	}
	return &LotChecker{repo: repo}
}

// EnsureLotTenant verifies lot belongs to tenant.
func (c *LotChecker) EnsureLotTenant(ctx context.Context, tenantID, lotID string) error {
	if c == nil || c.repo == nil {
		return nil
	}
	if tenantID == "" || lotID == "" {
		return nil
	}
	lot, err := c.repo.Get(ctx, lotID)
	if err != nil {
		return err
	}
	if lot == nil {
		return ErrNotFound
	}
	if lot.TenantID != tenantID {
		return ErrTenantMismatch
	}
	return nil
}
