package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	tariff "parking-cloud/internal/tariff/domain"
)

const defaultConfigTable = "pricing_configs"

// ConfigRepository persists per-lot pricing configuration.
type ConfigRepository struct {
	db    DBTX
	table string
}

// ConfigOption configures the repository.
type ConfigOption func(*ConfigRepository)

// WithConfigTable overrides the default table name.
func WithConfigTable(table string) ConfigOption {
	return func(repo *ConfigRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewConfigRepository constructs a repository.
func NewConfigRepository(db DBTX, opts ...ConfigOption) *ConfigRepository {
	repo := &ConfigRepository{db: db, table: defaultConfigTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Get returns (nil, nil) when the lot has no configuration.
func (r *ConfigRepository) Get(ctx context.Context, tenantID, lotID string) (*tariff.PricingConfig, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("config repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT tenant_id, lot_id, grace_minutes, daily_max, lost_ticket_fee, dynamic_pricing_enabled, updated_at
FROM %s
WHERE tenant_id = $1 AND lot_id = $2
LIMIT 1`, r.table)

	var (
		cfg           tariff.PricingConfig
		dailyMax, fee sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, tenantID, lotID).Scan(
		&cfg.TenantID,
		&cfg.LotID,
		&cfg.GraceMinutes,
		&dailyMax,
		&fee,
		&cfg.DynamicPricingEnabled,
		&cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if dailyMax.Valid {
		cfg.DailyMax = &dailyMax.Int64
	}
	if fee.Valid {
		cfg.LostTicketFee = &fee.Int64
	}
	cfg.UpdatedAt = cfg.UpdatedAt.UTC()
	return &cfg, nil
}

// Upsert writes the configuration and stamps UpdatedAt.
func (r *ConfigRepository) Upsert(ctx context.Context, cfg *tariff.PricingConfig) error {
	if r == nil || r.db == nil {
		return errors.New("config repo: nil db")
	}
	if cfg == nil {
		return errors.New("config repo: nil config")
	}
	now := time.Now().UTC()
	query := fmt.Sprintf(`
INSERT INTO %s (tenant_id, lot_id, grace_minutes, daily_max, lost_ticket_fee, dynamic_pricing_enabled, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (lot_id)
DO UPDATE SET
	tenant_id = EXCLUDED.tenant_id,
	grace_minutes = EXCLUDED.grace_minutes,
	daily_max = EXCLUDED.daily_max,
	lost_ticket_fee = EXCLUDED.lost_ticket_fee,
	dynamic_pricing_enabled = EXCLUDED.dynamic_pricing_enabled,
	updated_at = EXCLUDED.updated_at`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		cfg.TenantID,
		cfg.LotID,
		cfg.GraceMinutes,
		nullInt64(cfg.DailyMax),
		nullInt64(cfg.LostTicketFee),
		cfg.DynamicPricingEnabled,
		now,
	)
	if err != nil {
		return err
	}
	cfg.UpdatedAt = now
	return nil
}
