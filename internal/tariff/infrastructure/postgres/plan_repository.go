package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	tariff "parking-cloud/internal/tariff/domain"
)

const (
	defaultPlansTable       = "tariff_plans"
	defaultRulesTable       = "tariff_rules"
	defaultActivePlansTable = "tariff_active_plans"
)

// PlanRepository persists tariff plans, their rules and the active plan pointer.
type PlanRepository struct {
	db          *sql.DB
	plans       string
	rules       string
	activePlans string
}

// PlanOption configures the repository.
type PlanOption func(*PlanRepository)

// WithPlanTables overrides the default table names.
func WithPlanTables(plans, rules, activePlans string) PlanOption {
	return func(repo *PlanRepository) {
		if plans != "" {
			repo.plans = plans
		}
		if rules != "" {
			repo.rules = rules
		}
		if activePlans != "" {
			repo.activePlans = activePlans
		}
	}
}

// NewPlanRepository constructs a repository.
func NewPlanRepository(db *sql.DB, opts ...PlanOption) *PlanRepository {
	repo := &PlanRepository{
		db:          db,
		plans:       defaultPlansTable,
		rules:       defaultRulesTable,
		activePlans: defaultActivePlansTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Create inserts a plan and its rules in one transaction. New plans start inactive.
func (r *PlanRepository) Create(ctx context.Context, plan *tariff.TariffPlan, rules []tariff.TariffRule) error {
	if r == nil || r.db == nil {
		return errors.New("plan repo: nil db")
	}
	if plan == nil {
		return errors.New("plan repo: nil plan")
	}
	now := time.Now().UTC()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`
INSERT INTO %s (id, tenant_id, lot_id, name, timezone, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, FALSE, $6, $6)`, r.plans)
	if _, err := tx.ExecContext(ctx, query, plan.ID, plan.TenantID, plan.LotID, plan.Name, plan.Timezone, now); err != nil {
		return err
	}
	if err := r.insertRules(ctx, tx, plan.ID, rules); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	plan.Active = false
	plan.CreatedAt = now
	plan.UpdatedAt = now
	return nil
}

// Get loads a plan of the tenant. A missing plan yields (nil, nil).
func (r *PlanRepository) Get(ctx context.Context, tenantID, planID string) (*tariff.TariffPlan, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("plan repo: nil db")
	}
	return getPlan(ctx, r.db, r.plans, tenantID, planID)
}

// ListByLot returns the lot's plans, newest first.
func (r *PlanRepository) ListByLot(ctx context.Context, tenantID, lotID string) ([]tariff.TariffPlan, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("plan repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, tenant_id, lot_id, name, timezone, active, created_at, updated_at
FROM %s
WHERE tenant_id = $1 AND lot_id = $2
ORDER BY created_at DESC, id`, r.plans)

	rows, err := r.db.QueryContext(ctx, query, tenantID, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []tariff.TariffPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	return plans, rows.Err()
}

// ListRules returns every rule of a plan in authoring order.
func (r *PlanRepository) ListRules(ctx context.Context, planID string) ([]tariff.TariffRule, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("plan repo: nil db")
	}
	return listRules(ctx, r.db, r.rules, planID, false)
}

// ReplaceRules deletes and re-inserts the plan's rules in one transaction.
func (r *PlanRepository) ReplaceRules(ctx context.Context, planID string, rules []tariff.TariffRule) error {
	if r == nil || r.db == nil {
		return errors.New("plan repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE plan_id = $1`, r.rules), planID); err != nil {
		return err
	}
	if err := r.insertRules(ctx, tx, planID, rules); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET updated_at = NOW() WHERE id = $1`, r.plans), planID); err != nil {
		return err
	}
	return tx.Commit()
}

// Activate swaps the lot's active plan pointer and mirrors the active flag on
// the plans in the same transaction. The previous plan is cleared first so the
// one-active-plan index never sees two active rows.
func (r *PlanRepository) Activate(ctx context.Context, tenantID, lotID, planID string) error {
	if r == nil || r.db == nil {
		return errors.New("plan repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	plan, err := getPlan(ctx, tx, r.plans, tenantID, planID)
	if err != nil {
		return err
	}
	if plan == nil || plan.LotID != lotID {
		return tariff.ErrPlanNotFound
	}

	pointer := fmt.Sprintf(`
INSERT INTO %s (lot_id, tenant_id, plan_id, activated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (lot_id)
DO UPDATE SET plan_id = EXCLUDED.plan_id, tenant_id = EXCLUDED.tenant_id, activated_at = EXCLUDED.activated_at`, r.activePlans)
	if _, err := tx.ExecContext(ctx, pointer, lotID, tenantID, planID); err != nil {
		return err
	}

	deactivate := fmt.Sprintf(`
UPDATE %s
SET active = FALSE, updated_at = NOW()
WHERE tenant_id = $1 AND lot_id = $2 AND active AND id <> $3`, r.plans)
	if _, err := tx.ExecContext(ctx, deactivate, tenantID, lotID, planID); err != nil {
		return err
	}
	activate := fmt.Sprintf(`UPDATE %s SET active = TRUE, updated_at = NOW() WHERE id = $1`, r.plans)
	if _, err := tx.ExecContext(ctx, activate, planID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PlanRepository) insertRules(ctx context.Context, db DBTX, planID string, rules []tariff.TariffRule) error {
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	plan_id,
	position,
	vehicle_type,
	day_type,
	period,
	start_time,
	end_time,
	billing_unit,
	unit_price,
	minimum_charge,
	daily_max,
	grace_minutes,
	rounding,
	active
) VALUES (
	$1, $2, $3, $4, $5, $6, $7::time, $8::time, $9, $10, $11, $12, $13, $14, $15
)`, r.rules)

	for i, rule := range rules {
		_, err := db.ExecContext(ctx, query,
			rule.ID,
			planID,
			i,
			string(rule.VehicleType),
			string(rule.DayType),
			string(rule.Period),
			rule.StartTime.String(),
			rule.EndTime.String(),
			string(rule.BillingUnit),
			rule.UnitPrice,
			nullInt64(rule.MinimumCharge),
			nullInt64(rule.DailyMax),
			nullInt(rule.GraceMinutes),
			string(rule.Rounding),
			rule.Active,
		)
		if err != nil {
			return fmt.Errorf("plan repo: insert rule %d: %w", i, err)
		}
	}
	return nil
}

func getPlan(ctx context.Context, db DBTX, table, tenantID, planID string) (*tariff.TariffPlan, error) {
	query := fmt.Sprintf(`
SELECT id, tenant_id, lot_id, name, timezone, active, created_at, updated_at
FROM %s
WHERE tenant_id = $1 AND id = $2
LIMIT 1`, table)
	plan, err := scanPlan(db.QueryRowContext(ctx, query, tenantID, planID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return plan, nil
}

func listRules(ctx context.Context, db DBTX, table, planID string, activeOnly bool) ([]tariff.TariffRule, error) {
	query := fmt.Sprintf(`
SELECT id, plan_id, vehicle_type, day_type, period,
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	billing_unit, unit_price, minimum_charge, daily_max, grace_minutes, rounding, active
FROM %s
WHERE plan_id = $1 AND (active OR NOT $2)
ORDER BY position, id`, table)

	rows, err := db.QueryContext(ctx, query, planID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []tariff.TariffRule
	for rows.Next() {
		var (
			rule                 tariff.TariffRule
			vehicle, day, period string
			start, end           string
			unit, rounding       string
			minimum, dailyMax    sql.NullInt64
			grace                sql.NullInt32
		)
		if err := rows.Scan(
			&rule.ID,
			&rule.PlanID,
			&vehicle,
			&day,
			&period,
			&start,
			&end,
			&unit,
			&rule.UnitPrice,
			&minimum,
			&dailyMax,
			&grace,
			&rounding,
			&rule.Active,
		); err != nil {
			return nil, err
		}
		rule.VehicleType = tariff.VehicleType(vehicle)
		rule.DayType = tariff.DayType(day)
		rule.Period = tariff.Period(period)
		rule.BillingUnit = tariff.BillingUnit(unit)
		rule.Rounding = tariff.RoundingMode(rounding)
		if rule.StartTime, err = tariff.ParseTimeOfDay(start); err != nil {
			return nil, err
		}
		if rule.EndTime, err = tariff.ParseTimeOfDay(end); err != nil {
			return nil, err
		}
		if minimum.Valid {
			rule.MinimumCharge = &minimum.Int64
		}
		if dailyMax.Valid {
			rule.DailyMax = &dailyMax.Int64
		}
		if grace.Valid {
			minutes := int(grace.Int32)
			rule.GraceMinutes = &minutes
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*tariff.TariffPlan, error) {
	var plan tariff.TariffPlan
	if err := row.Scan(
		&plan.ID,
		&plan.TenantID,
		&plan.LotID,
		&plan.Name,
		&plan.Timezone,
		&plan.Active,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	); err != nil {
		return nil, err
	}
	plan.CreatedAt = plan.CreatedAt.UTC()
	plan.UpdatedAt = plan.UpdatedAt.UTC()
	return &plan, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}
