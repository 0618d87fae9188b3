package yamlplan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	calendar "parking-cloud/internal/calendar/domain"
	masterdata "parking-cloud/internal/masterdata/domain"
	"parking-cloud/internal/tariff/application"
	tariff "parking-cloud/internal/tariff/domain"
)

// LotWriter stores lots.
type LotWriter interface {
	Save(ctx context.Context, lot *masterdata.Lot) error
}

// ConfigWriter stores pricing configuration.
type ConfigWriter interface {
	Upsert(ctx context.Context, cfg tariff.PricingConfig) (*tariff.PricingConfig, error)
}

// HolidayWriter stores holidays.
type HolidayWriter interface {
	Upsert(ctx context.Context, holidays []calendar.Holiday) error
}

// PlanWriter authors plans through the same validation as the HTTP API.
type PlanWriter interface {
	ListPlans(ctx context.Context, tenantID, lotID string) ([]tariff.TariffPlan, error)
	CreatePlan(ctx context.Context, in application.CreatePlanInput) (*application.PlanDetail, error)
}

// Importer loads a seed file into the stores.
type Importer struct {
	lots     LotWriter
	configs  ConfigWriter
	holidays HolidayWriter
	plans    PlanWriter
	logger   *zap.Logger
}

// ImportResult counts what an import wrote.
type ImportResult struct {
	Lots         int
	Configs      int
	Holidays     int
	PlansCreated int
	PlansSkipped int
}

// NewImporter constructs an importer.
func NewImporter(lots LotWriter, configs ConfigWriter, holidays HolidayWriter, plans PlanWriter, logger *zap.Logger) (*Importer, error) {
	if lots == nil || configs == nil || holidays == nil || plans == nil {
		return nil, errors.New("yamlplan importer: nil dependency")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{lots: lots, configs: configs, holidays: holidays, plans: plans, logger: logger}, nil
}

// Import upserts lots, configs and holidays. Plans are matched by name within a
// lot; an existing plan is left untouched so restarts do not duplicate plans.
func (im *Importer) Import(ctx context.Context, f *File) (ImportResult, error) {
	var res ImportResult
	if f == nil {
		return res, errors.New("yamlplan importer: nil file")
	}
	if len(f.Holidays) > 0 {
		if err := im.holidays.Upsert(ctx, f.Holidays); err != nil {
			return res, fmt.Errorf("yamlplan importer: holidays: %w", err)
		}
		res.Holidays = len(f.Holidays)
	}

	for _, doc := range f.Lots {
		lot, err := doc.Lot()
		if err != nil {
			return res, fmt.Errorf("yamlplan importer: lot %s: %w", doc.ID, err)
		}
		if err := im.lots.Save(ctx, &lot); err != nil {
			return res, fmt.Errorf("yamlplan importer: lot %s: %w", doc.ID, err)
		}
		res.Lots++

		if cfg := doc.PricingConfig(); cfg != nil {
			if _, err := im.configs.Upsert(ctx, *cfg); err != nil {
				return res, fmt.Errorf("yamlplan importer: config %s: %w", doc.ID, err)
			}
			res.Configs++
		}

		existing, err := im.plans.ListPlans(ctx, doc.TenantID, doc.ID)
		if err != nil {
			return res, fmt.Errorf("yamlplan importer: list plans %s: %w", doc.ID, err)
		}
		names := make(map[string]struct{}, len(existing))
		for _, plan := range existing {
			names[plan.Name] = struct{}{}
		}

		for _, planDoc := range doc.Plans {
			if _, ok := names[planDoc.Name]; ok {
				res.PlansSkipped++
				continue
			}
			rules, err := planDoc.TariffRules()
			if err != nil {
				return res, err
			}
			detail, err := im.plans.CreatePlan(ctx, application.CreatePlanInput{
				TenantID: doc.TenantID,
				LotID:    doc.ID,
				Name:     planDoc.Name,
				Timezone: planDoc.Timezone,
				Rules:    rules,
				Activate: planDoc.Active,
			})
			if err != nil {
				return res, fmt.Errorf("yamlplan importer: plan %q of lot %s: %w", planDoc.Name, doc.ID, err)
			}
			res.PlansCreated++
			im.logger.Info("seed plan imported",
				zap.String("lot_id", doc.ID),
				zap.String("plan_id", detail.Plan.ID),
				zap.Bool("active", detail.Plan.Active),
			)
		}
	}
	return res, nil
}

// QuoteEnv builds an in-memory pricing environment for one lot of the file,
// used to price stays without a database.
func (f *File) QuoteEnv(lotID string) (tariff.QuoteInput, tariff.QuoteEnv, error) {
	doc, err := f.FindLot(lotID)
	if err != nil {
		return tariff.QuoteInput{}, tariff.QuoteEnv{}, err
	}
	lot, err := doc.Lot()
	if err != nil {
		return tariff.QuoteInput{}, tariff.QuoteEnv{}, err
	}
	planDoc, err := doc.ActivePlan()
	if err != nil {
		return tariff.QuoteInput{}, tariff.QuoteEnv{}, err
	}
	rules, err := planDoc.TariffRules()
	if err != nil {
		return tariff.QuoteInput{}, tariff.QuoteEnv{}, err
	}

	planID := "file:" + planDoc.Name
	for i := range rules {
		rules[i].ID = fmt.Sprintf("%s#%d", planID, i+1)
		rules[i].PlanID = planID
	}
	if err := tariff.ValidateRuleSet(rules); err != nil {
		return tariff.QuoteInput{}, tariff.QuoteEnv{}, err
	}

	plan := tariff.TariffPlan{
		ID:       planID,
		TenantID: doc.TenantID,
		LotID:    doc.ID,
		Name:     planDoc.Name,
		Timezone: planDoc.Timezone,
		Active:   true,
	}
	if err := plan.Validate(); err != nil {
		return tariff.QuoteInput{}, tariff.QuoteEnv{}, err
	}
	tz := lot.Timezone
	if plan.Timezone != "" {
		tz = plan.Timezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return tariff.QuoteInput{}, tariff.QuoteEnv{}, err
	}

	holidays := make([]calendar.Holiday, 0, len(f.Holidays))
	for _, h := range f.Holidays {
		if err := h.Validate(); err != nil {
			return tariff.QuoteInput{}, tariff.QuoteEnv{}, err
		}
		holidays = append(holidays, h)
	}
	cfg := doc.PricingConfig()
	if cfg == nil {
		return tariff.QuoteInput{}, tariff.QuoteEnv{}, fmt.Errorf("lot %s: %w", doc.ID, tariff.ErrConfigurationMissing)
	}

	in := tariff.QuoteInput{TenantID: doc.TenantID, LotID: doc.ID}
	env := tariff.QuoteEnv{
		Snapshot:    &tariff.PlanSnapshot{Plan: plan, Rules: rules},
		Config:      cfg,
		Location:    loc,
		CountryCode: lot.CountryCode,
		Holidays:    calendar.NewHolidaySet(holidays),
	}
	return in, env, nil
}
