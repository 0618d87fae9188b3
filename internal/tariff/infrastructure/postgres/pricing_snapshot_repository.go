package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	tariff "parking-cloud/internal/tariff/domain"
)

const defaultPricingSnapshotTable = "pricing_snapshots"

// PricingSnapshotRepository stores the quote a session was charged with.
type PricingSnapshotRepository struct {
	db    DBTX
	table string
}

// PricingSnapshotOption configures the repository.
type PricingSnapshotOption func(*PricingSnapshotRepository)

// WithPricingSnapshotTable overrides the default table name.
func WithPricingSnapshotTable(table string) PricingSnapshotOption {
	return func(repo *PricingSnapshotRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewPricingSnapshotRepository constructs a repository.
func NewPricingSnapshotRepository(db DBTX, opts ...PricingSnapshotOption) *PricingSnapshotRepository {
	repo := &PricingSnapshotRepository{db: db, table: defaultPricingSnapshotTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Save inserts the snapshot unless the session already has one. It returns the
// stored row and whether this call created it.
func (r *PricingSnapshotRepository) Save(ctx context.Context, snapshot *tariff.PricingSnapshot) (*tariff.PricingSnapshot, bool, error) {
	if r == nil || r.db == nil {
		return nil, false, errors.New("pricing snapshot repo: nil db")
	}
	if snapshot == nil {
		return nil, false, errors.New("pricing snapshot repo: nil snapshot")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, tenant_id, lot_id, session_id, plan_id, total, quote, digest, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (tenant_id, lot_id, session_id) DO NOTHING`, r.table)

	res, err := r.db.ExecContext(ctx, query,
		snapshot.ID,
		snapshot.TenantID,
		snapshot.LotID,
		snapshot.SessionID,
		snapshot.PlanID,
		snapshot.Total,
		[]byte(snapshot.Quote),
		snapshot.Digest,
		snapshot.CreatedAt,
	)
	if err != nil {
		return nil, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if affected == 1 {
		return snapshot, true, nil
	}
	existing, err := r.GetBySession(ctx, snapshot.TenantID, snapshot.LotID, snapshot.SessionID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("pricing snapshot repo: session %s conflicted but not found", snapshot.SessionID)
	}
	return existing, false, nil
}

// GetBySession returns (nil, nil) when the session has no snapshot.
func (r *PricingSnapshotRepository) GetBySession(ctx context.Context, tenantID, lotID, sessionID string) (*tariff.PricingSnapshot, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("pricing snapshot repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, tenant_id, lot_id, session_id, plan_id, total, quote, digest, created_at
FROM %s
WHERE tenant_id = $1 AND lot_id = $2 AND session_id = $3
LIMIT 1`, r.table)

	var (
		snapshot tariff.PricingSnapshot
		quote    []byte
	)
	err := r.db.QueryRowContext(ctx, query, tenantID, lotID, sessionID).Scan(
		&snapshot.ID,
		&snapshot.TenantID,
		&snapshot.LotID,
		&snapshot.SessionID,
		&snapshot.PlanID,
		&snapshot.Total,
		&quote,
		&snapshot.Digest,
		&snapshot.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	snapshot.Quote = quote
	snapshot.CreatedAt = snapshot.CreatedAt.UTC()
	return &snapshot, nil
}
