package yamlplan

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"
	"time"
	_ "time/tzdata"

	calendar "parking-cloud/internal/calendar/domain"
	masterdata "parking-cloud/internal/masterdata/domain"
	"parking-cloud/internal/tariff/application"
	tariff "parking-cloud/internal/tariff/domain"
)

const sampleDoc = `
holidays:
  - {country_code: co, date: "2026-01-01", name: New Year}
lots:
  - id: lot-1
    tenant_id: tenant-a
    name: Main
    timezone: America/Bogota
    country_code: co
    config:
      grace_minutes: 10
      daily_max: 20000
    plans:
      - name: flat
        active: true
        rules:
          - {vehicle_type: car, day_type: WEEKDAY, period: DAY, start: "00:00", end: "00:00", billing_unit: HOUR, unit_price: 1000}
          - {vehicle_type: CAR, day_type: WEEKEND, period: DAY, start: "00:00", end: "00:00", billing_unit: HOUR, unit_price: 1500}
          - {vehicle_type: CAR, day_type: HOLIDAY, period: DAY, start: "00:00", end: "00:00", billing_unit: HOUR, unit_price: 2000, rounding: FLOOR}
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(f.Lots) != 1 || len(f.Holidays) != 1 {
		t.Fatalf("unexpected document: %+v", f)
	}
	lot, err := f.Lots[0].Lot()
	if err != nil {
		t.Fatalf("lot: %v", err)
	}
	if lot.CountryCode != "CO" {
		t.Fatalf("country code not normalized: %s", lot.CountryCode)
	}
	rules, err := f.Lots[0].Plans[0].TariffRules()
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if rules[0].VehicleType != tariff.VehicleCar || rules[0].Rounding != tariff.RoundCeil || !rules[0].Active {
		t.Fatalf("defaults not applied: %+v", rules[0])
	}
	if rules[2].Rounding != tariff.RoundFloor {
		t.Fatalf("explicit rounding lost: %+v", rules[2])
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("lots:\n  - id: x\n    surcharge: 5\n"))
	if err == nil {
		t.Fatalf("expected unknown key to fail")
	}
}

func TestParse_RejectsBadRule(t *testing.T) {
	doc := `
lots:
  - {id: lot-1, tenant_id: t, name: n, timezone: UTC, country_code: CO,
     plans: [{name: p, rules: [{vehicle_type: TANK, day_type: WEEKDAY, period: DAY, start: "00:00", end: "00:00", billing_unit: HOUR, unit_price: 1}]}]}
`
	f, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := f.Lots[0].Plans[0].TariffRules(); !errors.Is(err, tariff.ErrInvalidVehicleType) {
		t.Fatalf("expected invalid vehicle type, got %v", err)
	}
}

func TestQuoteEnv_PricesOffline(t *testing.T) {
	f, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	in, env, err := f.QuoteEnv("")
	if err != nil {
		t.Fatalf("env: %v", err)
	}
	loc, _ := time.LoadLocation("America/Bogota")
	in.VehicleType = tariff.VehicleCar
	// New Year 2026 is a Thursday and a holiday.
	in.EntryAt = time.Date(2026, 1, 1, 10, 0, 0, 0, loc)
	in.ExitAt = time.Date(2026, 1, 1, 12, 40, 0, 0, loc)

	quote, err := tariff.ComputeQuote(in, env)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// 160 minutes, 10 grace, 150 billable at HOUR FLOOR -> 2 units x 2000.
	if quote.Total != 4000 {
		t.Fatalf("expected 4000, got %d (%+v)", quote.Total, quote.Segments)
	}
	if quote.Segments[0].DayType != tariff.DayHoliday {
		t.Fatalf("expected holiday segment, got %s", quote.Segments[0].DayType)
	}
}

func TestQuoteEnv_LotWithoutConfig(t *testing.T) {
	doc := `
lots:
  - id: lot-2
    tenant_id: tenant-a
    name: Annex
    timezone: UTC
    country_code: CO
    plans:
      - name: flat
        rules:
          - {vehicle_type: CAR, day_type: WEEKDAY, period: DAY, start: "00:00", end: "00:00", billing_unit: HOUR, unit_price: 3000}
`
	f, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg := f.Lots[0].PricingConfig(); cfg != nil {
		t.Fatalf("expected no config, got %+v", cfg)
	}
	if _, _, err := f.QuoteEnv("lot-2"); !errors.Is(err, tariff.ErrConfigurationMissing) {
		t.Fatalf("expected configuration missing, got %v", err)
	}

	configs := &memoryConfigs{}
	importer, err := NewImporter(&memoryLots{}, configs, &memoryHolidays{}, &memoryPlans{}, nil)
	if err != nil {
		t.Fatalf("importer: %v", err)
	}
	res, err := importer.Import(context.Background(), f)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Configs != 0 || len(configs.saved) != 0 {
		t.Fatalf("expected no config stored, got %+v", configs.saved)
	}
}

func TestQuoteEnv_SeedFile(t *testing.T) {
	_, file, _, _ := runtime.Caller(0)
	path := filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "configs", "tariff_seed.yml")
	f, err := Load(path)
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	if _, _, err := f.QuoteEnv("lot-centro"); err != nil {
		t.Fatalf("seed plan invalid: %v", err)
	}
	if _, _, err := f.QuoteEnv("missing"); !errors.Is(err, masterdata.ErrLotNotFound) {
		t.Fatalf("expected lot not found, got %v", err)
	}
}

type memoryLots struct{ saved []masterdata.Lot }

func (m *memoryLots) Save(_ context.Context, lot *masterdata.Lot) error {
	m.saved = append(m.saved, *lot)
	return nil
}

type memoryConfigs struct{ saved []tariff.PricingConfig }

func (m *memoryConfigs) Upsert(_ context.Context, cfg tariff.PricingConfig) (*tariff.PricingConfig, error) {
	m.saved = append(m.saved, cfg)
	return &cfg, nil
}

type memoryHolidays struct{ saved []calendar.Holiday }

func (m *memoryHolidays) Upsert(_ context.Context, holidays []calendar.Holiday) error {
	m.saved = append(m.saved, holidays...)
	return nil
}

type memoryPlans struct {
	plans   []tariff.TariffPlan
	created []application.CreatePlanInput
}

func (m *memoryPlans) ListPlans(_ context.Context, tenantID, lotID string) ([]tariff.TariffPlan, error) {
	var out []tariff.TariffPlan
	for _, p := range m.plans {
		if p.TenantID == tenantID && p.LotID == lotID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryPlans) CreatePlan(_ context.Context, in application.CreatePlanInput) (*application.PlanDetail, error) {
	m.created = append(m.created, in)
	plan := tariff.TariffPlan{ID: in.Name, TenantID: in.TenantID, LotID: in.LotID, Name: in.Name, Active: in.Activate}
	m.plans = append(m.plans, plan)
	return &application.PlanDetail{Plan: plan, Rules: in.Rules}, nil
}

func TestImporter_IsIdempotentForPlans(t *testing.T) {
	f, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	lots := &memoryLots{}
	configs := &memoryConfigs{}
	holidays := &memoryHolidays{}
	plans := &memoryPlans{}
	im, err := NewImporter(lots, configs, holidays, plans, nil)
	if err != nil {
		t.Fatalf("importer: %v", err)
	}

	res, err := im.Import(context.Background(), f)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Lots != 1 || res.Configs != 1 || res.Holidays != 1 || res.PlansCreated != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !plans.created[0].Activate || len(plans.created[0].Rules) != 3 {
		t.Fatalf("plan input wrong: %+v", plans.created[0])
	}
	if configs.saved[0].GraceMinutes != 10 || configs.saved[0].DailyMax == nil || *configs.saved[0].DailyMax != 20000 {
		t.Fatalf("config wrong: %+v", configs.saved[0])
	}

	res, err = im.Import(context.Background(), f)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if res.PlansCreated != 0 || res.PlansSkipped != 1 || len(plans.created) != 1 {
		t.Fatalf("expected existing plan to be skipped: %+v", res)
	}
}

func TestNewImporter_RequiresDependencies(t *testing.T) {
	if _, err := NewImporter(nil, &memoryConfigs{}, &memoryHolidays{}, &memoryPlans{}, nil); err == nil {
		t.Fatalf("expected error")
	}
}
