package application

import (
	"context"
	"sort"
	"time"

	calendar "parking-cloud/internal/calendar/domain"
	masterdata "parking-cloud/internal/masterdata/domain"
	tariff "parking-cloud/internal/tariff/domain"
)

type stubLots map[string]*masterdata.Lot

func (s stubLots) Get(_ context.Context, id string) (*masterdata.Lot, error) {
	return s[id], nil
}

type stubConfigs struct {
	configs map[string]*tariff.PricingConfig
}

func (s *stubConfigs) Get(_ context.Context, _ string, lotID string) (*tariff.PricingConfig, error) {
	return s.configs[lotID], nil
}

func (s *stubConfigs) Upsert(_ context.Context, cfg *tariff.PricingConfig) error {
	if s.configs == nil {
		s.configs = map[string]*tariff.PricingConfig{}
	}
	copied := *cfg
	s.configs[cfg.LotID] = &copied
	return nil
}

type stubHolidays struct {
	holidays []calendar.Holiday
	calls    int
}

func (s *stubHolidays) Load(_ context.Context, _ *time.Location, _ string, _, _ time.Time) (*calendar.HolidaySet, error) {
	s.calls++
	return calendar.NewHolidaySet(s.holidays), nil
}

// memoryPlans is an in-memory plan repository that also serves snapshots.
type memoryPlans struct {
	plans       map[string]*tariff.TariffPlan
	rules       map[string][]tariff.TariffRule
	active      map[string]string
	loads       int
	activateErr error
}

func newMemoryPlans() *memoryPlans {
	return &memoryPlans{
		plans:  map[string]*tariff.TariffPlan{},
		rules:  map[string][]tariff.TariffRule{},
		active: map[string]string{},
	}
}

func (m *memoryPlans) Create(_ context.Context, plan *tariff.TariffPlan, rules []tariff.TariffRule) error {
	copied := *plan
	m.plans[plan.ID] = &copied
	m.rules[plan.ID] = append([]tariff.TariffRule(nil), rules...)
	return nil
}

func (m *memoryPlans) Get(_ context.Context, tenantID, planID string) (*tariff.TariffPlan, error) {
	plan, ok := m.plans[planID]
	if !ok || plan.TenantID != tenantID {
		return nil, nil
	}
	copied := *plan
	return &copied, nil
}

func (m *memoryPlans) ListByLot(_ context.Context, tenantID, lotID string) ([]tariff.TariffPlan, error) {
	var out []tariff.TariffPlan
	for _, plan := range m.plans {
		if plan.TenantID == tenantID && plan.LotID == lotID {
			out = append(out, *plan)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryPlans) ListRules(_ context.Context, planID string) ([]tariff.TariffRule, error) {
	return append([]tariff.TariffRule(nil), m.rules[planID]...), nil
}

func (m *memoryPlans) ReplaceRules(_ context.Context, planID string, rules []tariff.TariffRule) error {
	m.rules[planID] = append([]tariff.TariffRule(nil), rules...)
	return nil
}

func (m *memoryPlans) Activate(_ context.Context, tenantID, lotID, planID string) error {
	if m.activateErr != nil {
		return m.activateErr
	}
	for _, plan := range m.plans {
		if plan.TenantID == tenantID && plan.LotID == lotID {
			plan.Active = plan.ID == planID
		}
	}
	m.active[lotID] = planID
	return nil
}

func (m *memoryPlans) LoadActiveSnapshot(_ context.Context, tenantID, lotID string) (*tariff.PlanSnapshot, error) {
	m.loads++
	planID, ok := m.active[lotID]
	if !ok {
		return nil, nil
	}
	plan := m.plans[planID]
	if plan.TenantID != tenantID {
		return nil, nil
	}
	var rules []tariff.TariffRule
	for _, rule := range m.rules[planID] {
		if rule.Active {
			rules = append(rules, rule)
		}
	}
	return &tariff.PlanSnapshot{Plan: *plan, Rules: rules}, nil
}

type recordingInvalidator struct {
	calls []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, tenantID, lotID string) error {
	r.calls = append(r.calls, tenantID+"/"+lotID)
	return nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func i64(v int64) *int64 { return &v }

func carRules() []tariff.TariffRule {
	mk := func(dayType tariff.DayType, period tariff.Period, start, end string, price int64) tariff.TariffRule {
		return tariff.TariffRule{
			VehicleType: tariff.VehicleCar,
			DayType:     dayType,
			Period:      period,
			StartTime:   tariff.MustTimeOfDay(start),
			EndTime:     tariff.MustTimeOfDay(end),
			BillingUnit: tariff.UnitHour,
			UnitPrice:   price,
			Rounding:    tariff.RoundCeil,
			Active:      true,
		}
	}
	var rules []tariff.TariffRule
	for _, dayType := range tariff.DayTypes {
		price := int64(3000)
		if dayType == tariff.DayHoliday {
			price = 4000
		}
		rules = append(rules,
			mk(dayType, tariff.PeriodDay, "06:00", "19:00", price),
			mk(dayType, tariff.PeriodNight, "19:00", "06:00", 2000),
		)
	}
	return rules
}

func testLots() stubLots {
	return stubLots{
		"lot-1": {ID: "lot-1", TenantID: "tenant-a", Name: "Centro", Timezone: "America/Bogota", CountryCode: "CO"},
	}
}
