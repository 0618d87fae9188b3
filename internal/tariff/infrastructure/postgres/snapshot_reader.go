package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	tariff "parking-cloud/internal/tariff/domain"
)

// SnapshotReader loads the active plan of a lot and its active rules in a
// single repeatable-read transaction, so a concurrent activation or rule
// replacement is never observed half-applied.
type SnapshotReader struct {
	db          *sql.DB
	plans       string
	rules       string
	activePlans string
}

// NewSnapshotReader constructs a reader over the same tables as PlanRepository.
func NewSnapshotReader(db *sql.DB, opts ...PlanOption) *SnapshotReader {
	repo := NewPlanRepository(db, opts...)
	return &SnapshotReader{
		db:          db,
		plans:       repo.plans,
		rules:       repo.rules,
		activePlans: repo.activePlans,
	}
}

// LoadActiveSnapshot returns (nil, nil) when the lot has no active plan.
func (r *SnapshotReader) LoadActiveSnapshot(ctx context.Context, tenantID, lotID string) (*tariff.PlanSnapshot, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("snapshot reader: nil db")
	}
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`
SELECT p.id, p.tenant_id, p.lot_id, p.name, p.timezone, p.active, p.created_at, p.updated_at
FROM %s a
JOIN %s p ON p.id = a.plan_id
WHERE a.tenant_id = $1 AND a.lot_id = $2
LIMIT 1`, r.activePlans, r.plans)

	plan, err := scanPlan(tx.QueryRowContext(ctx, query, tenantID, lotID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rules, err := listRules(ctx, tx, r.rules, plan.ID, true)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &tariff.PlanSnapshot{
		Plan:     *plan,
		Rules:    rules,
		LoadedAt: time.Now().UTC(),
	}, nil
}
