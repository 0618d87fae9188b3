package tariff

import "context"

// PlanRepository manages tariff plans and their rules.
type PlanRepository interface {
	Create(ctx context.Context, plan *TariffPlan, rules []TariffRule) error
	Get(ctx context.Context, tenantID, planID string) (*TariffPlan, error)
	ListByLot(ctx context.Context, tenantID, lotID string) ([]TariffPlan, error)
	ListRules(ctx context.Context, planID string) ([]TariffRule, error)
	ReplaceRules(ctx context.Context, planID string, rules []TariffRule) error
	// Activate makes planID the only active plan of its lot in one transaction.
	Activate(ctx context.Context, tenantID, lotID, planID string) error
}

// SnapshotReader loads the active plan of a lot together with its rules.
type SnapshotReader interface {
	LoadActiveSnapshot(ctx context.Context, tenantID, lotID string) (*PlanSnapshot, error)
}

// ConfigRepository manages per-lot pricing configuration.
type ConfigRepository interface {
	Get(ctx context.Context, tenantID, lotID string) (*PricingConfig, error)
	Upsert(ctx context.Context, cfg *PricingConfig) error
}
