package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	masterdata "parking-cloud/internal/masterdata/domain"
)

const defaultLotsTable = "lots"

// LotRepository is a Postgres implementation for lots.
type LotRepository struct {
	db    DBTX
	table string
}

// NewLotRepository constructs a repository.
func NewLotRepository(db DBTX, opts ...LotOption) *LotRepository {
	repo := &LotRepository{db: db, table: defaultLotsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// LotOption configures the repository.
type LotOption func(*LotRepository)

// WithLotTable overrides the default table name.
func WithLotTable(table string) LotOption {
	return func(repo *LotRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a lot by id. A missing lot yields (nil, nil).
func (r *LotRepository) Get(ctx context.Context, id string) (*masterdata.Lot, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("lot repo: nil db")
	}
	if id == "" {
		return nil, errors.New("lot repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, tenant_id, name, timezone, country_code, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	lot, err := scanLot(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return lot, nil
}

// ListByTenant returns the tenant's lots ordered by id.
func (r *LotRepository) ListByTenant(ctx context.Context, tenantID string) ([]masterdata.Lot, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("lot repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, tenant_id, name, timezone, country_code, created_at, updated_at
FROM %s
WHERE tenant_id = $1
ORDER BY id`, r.table)

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []masterdata.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, *lot)
	}
	return lots, rows.Err()
}

// Save upserts a lot.
func (r *LotRepository) Save(ctx context.Context, lot *masterdata.Lot) error {
	if r == nil || r.db == nil {
		return errors.New("lot repo: nil db")
	}
	if lot == nil {
		return errors.New("lot repo: nil lot")
	}
	lot.CountryCode = strings.ToUpper(lot.CountryCode)
	if err := lot.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	tenant_id,
	name,
	timezone,
	country_code
) VALUES (
	$1, $2, $3, $4, $5
)
ON CONFLICT (id)
DO UPDATE SET
	tenant_id = EXCLUDED.tenant_id,
	name = EXCLUDED.name,
	timezone = EXCLUDED.timezone,
	country_code = EXCLUDED.country_code,
	updated_at = NOW()`, r.table)

	_, err := r.db.ExecContext(ctx, query, lot.ID, lot.TenantID, lot.Name, lot.Timezone, lot.CountryCode)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if lot.CreatedAt.IsZero() {
		lot.CreatedAt = now
	}
	lot.UpdatedAt = now
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLot(row rowScanner) (*masterdata.Lot, error) {
	var lot masterdata.Lot
	if err := row.Scan(
		&lot.ID,
		&lot.TenantID,
		&lot.Name,
		&lot.Timezone,
		&lot.CountryCode,
		&lot.CreatedAt,
		&lot.UpdatedAt,
	); err != nil {
		return nil, err
	}
	lot.CreatedAt = lot.CreatedAt.UTC()
	lot.UpdatedAt = lot.UpdatedAt.UTC()
	return &lot, nil
}
