package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"parking-cloud/internal/observability/metrics"
	"parking-cloud/internal/tariff/application/events"
	tariff "parking-cloud/internal/tariff/domain"
)

// CreatePlanInput describes a new plan and its rules.
type CreatePlanInput struct {
	TenantID string
	LotID    string
	Name     string
	Timezone string
	Rules    []tariff.TariffRule
	Activate bool
}

// PlanDetail is a plan with its rules.
type PlanDetail struct {
	Plan  tariff.TariffPlan   `json:"plan"`
	Rules []tariff.TariffRule `json:"rules"`
}

// PlanService authors and activates tariff plans.
type PlanService struct {
	plans     tariff.PlanRepository
	lots      LotReader
	publisher EventPublisher
	clock     Clock
	logger    *zap.Logger
}

// PlanOption configures the plan service.
type PlanOption func(*PlanService)

// WithPlanLogger sets the logger.
func WithPlanLogger(logger *zap.Logger) PlanOption {
	return func(s *PlanService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPlanClock overrides the clock used for event timestamps.
func WithPlanClock(clock Clock) PlanOption {
	return func(s *PlanService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewPlanService constructs the service. publisher may be nil when nothing
// caches plan snapshots.
func NewPlanService(plans tariff.PlanRepository, lots LotReader, publisher EventPublisher, opts ...PlanOption) (*PlanService, error) {
	if plans == nil {
		return nil, errors.New("plan service: nil repository")
	}
	if lots == nil {
		return nil, errors.New("plan service: nil lot reader")
	}
	s := &PlanService{
		plans:     plans,
		lots:      lots,
		publisher: publisher,
		clock:     SystemClock{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreatePlan validates and stores a plan with its rules, optionally activating it.
// When activation fails the plan stays stored: the returned detail describes it
// as persisted alongside the activation error, so callers can retry activation
// by id.
func (s *PlanService) CreatePlan(ctx context.Context, in CreatePlanInput) (*PlanDetail, error) {
	if _, err := loadLot(ctx, s.lots, in.TenantID, in.LotID); err != nil {
		return nil, err
	}
	plan := tariff.TariffPlan{
		ID:       uuid.NewString(),
		TenantID: in.TenantID,
		LotID:    in.LotID,
		Name:     strings.TrimSpace(in.Name),
		Timezone: in.Timezone,
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	rules, err := s.prepareRules(plan.ID, in.Rules)
	if err != nil {
		return nil, err
	}
	if err := s.plans.Create(ctx, &plan, rules); err != nil {
		return nil, err
	}
	s.logger.Info("tariff plan created",
		zap.String("tenant_id", plan.TenantID),
		zap.String("lot_id", plan.LotID),
		zap.String("plan_id", plan.ID),
		zap.Int("rules", len(rules)),
	)

	if in.Activate {
		activated, err := s.ActivatePlan(ctx, in.TenantID, plan.ID)
		if err != nil {
			if stored, getErr := s.getPlan(ctx, in.TenantID, plan.ID); getErr == nil {
				plan = *stored
			}
			return &PlanDetail{Plan: plan, Rules: rules}, fmt.Errorf("plan %s created but not activated: %w", plan.ID, err)
		}
		plan = *activated
	}
	return &PlanDetail{Plan: plan, Rules: rules}, nil
}

// ReplaceRules swaps the whole rule set of a plan.
func (s *PlanService) ReplaceRules(ctx context.Context, tenantID, planID string, rules []tariff.TariffRule) (*PlanDetail, error) {
	plan, err := s.getPlan(ctx, tenantID, planID)
	if err != nil {
		return nil, err
	}
	prepared, err := s.prepareRules(plan.ID, rules)
	if err != nil {
		return nil, err
	}
	if err := s.plans.ReplaceRules(ctx, plan.ID, prepared); err != nil {
		return nil, err
	}
	if err := s.publish(ctx, events.RulesReplaced{
		TenantID:   plan.TenantID,
		LotID:      plan.LotID,
		PlanID:     plan.ID,
		RuleCount:  len(prepared),
		PlanActive: plan.Active,
		OccurredAt: s.clock.Now(),
	}); err != nil {
		return nil, err
	}
	return &PlanDetail{Plan: *plan, Rules: prepared}, nil
}

// ActivatePlan makes planID the active plan of its lot. When it returns, quotes
// already see the new plan.
func (s *PlanService) ActivatePlan(ctx context.Context, tenantID, planID string) (*tariff.TariffPlan, error) {
	plan, err := s.getPlan(ctx, tenantID, planID)
	if err != nil {
		metrics.IncPlanActivation(metrics.ResultError)
		return nil, err
	}
	rules, err := s.plans.ListRules(ctx, plan.ID)
	if err != nil {
		metrics.IncPlanActivation(metrics.ResultError)
		return nil, err
	}
	if err := validateActivatable(rules); err != nil {
		metrics.IncPlanActivation(metrics.ResultError)
		return nil, err
	}
	if err := s.plans.Activate(ctx, plan.TenantID, plan.LotID, plan.ID); err != nil {
		metrics.IncPlanActivation(metrics.ResultError)
		return nil, err
	}
	metrics.IncPlanActivation(metrics.ResultSuccess)
	plan.Active = true

	if err := s.publish(ctx, events.PlanActivated{
		TenantID:   plan.TenantID,
		LotID:      plan.LotID,
		PlanID:     plan.ID,
		OccurredAt: s.clock.Now(),
	}); err != nil {
		return nil, err
	}
	s.logger.Info("tariff plan activated",
		zap.String("tenant_id", plan.TenantID),
		zap.String("lot_id", plan.LotID),
		zap.String("plan_id", plan.ID),
	)
	return plan, nil
}

// ListPlans returns all plans of a lot.
func (s *PlanService) ListPlans(ctx context.Context, tenantID, lotID string) ([]tariff.TariffPlan, error) {
	if _, err := loadLot(ctx, s.lots, tenantID, lotID); err != nil {
		return nil, err
	}
	plans, err := s.plans.ListByLot(ctx, tenantID, lotID)
	if err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []tariff.TariffPlan{}
	}
	return plans, nil
}

// GetPlan returns a plan and its rules.
func (s *PlanService) GetPlan(ctx context.Context, tenantID, planID string) (*PlanDetail, error) {
	plan, err := s.getPlan(ctx, tenantID, planID)
	if err != nil {
		return nil, err
	}
	rules, err := s.plans.ListRules(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		rules = []tariff.TariffRule{}
	}
	return &PlanDetail{Plan: *plan, Rules: rules}, nil
}

func (s *PlanService) getPlan(ctx context.Context, tenantID, planID string) (*tariff.TariffPlan, error) {
	if tenantID == "" {
		return nil, tariff.ErrEmptyTenantID
	}
	plan, err := s.plans.Get(ctx, tenantID, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, tariff.ErrPlanNotFound
	}
	return plan, nil
}

// prepareRules assigns ids and validates the set as a whole.
func (s *PlanService) prepareRules(planID string, rules []tariff.TariffRule) ([]tariff.TariffRule, error) {
	prepared := make([]tariff.TariffRule, len(rules))
	for i, rule := range rules {
		rule.PlanID = planID
		if rule.ID == "" {
			rule.ID = uuid.NewString()
		}
		prepared[i] = rule
	}
	if err := tariff.ValidateRuleSet(prepared); err != nil {
		metrics.IncRuleValidation(metrics.ResultError)
		return nil, err
	}
	metrics.IncRuleValidation(metrics.ResultSuccess)
	return prepared, nil
}

func validateActivatable(rules []tariff.TariffRule) error {
	if err := tariff.ValidateRuleSet(rules); err != nil {
		return err
	}
	for _, rule := range rules {
		if rule.Active {
			return nil
		}
	}
	return &tariff.RuleSetError{Issues: []string{"plan has no active rules"}}
}

func (s *PlanService) publish(ctx context.Context, event any) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.Publish(ctx, event)
}
