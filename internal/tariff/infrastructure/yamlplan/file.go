// Package yamlplan reads tariff seed files: lots with their pricing
// configuration, plans and rules, plus the holiday calendar.
package yamlplan

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	calendar "parking-cloud/internal/calendar/domain"
	masterdata "parking-cloud/internal/masterdata/domain"
	tariff "parking-cloud/internal/tariff/domain"
)

// File is the root of a seed document.
type File struct {
	Holidays []calendar.Holiday `yaml:"holidays"`
	Lots     []LotDoc           `yaml:"lots"`
}

// LotDoc describes a lot and everything priced under it.
type LotDoc struct {
	ID          string     `yaml:"id"`
	TenantID    string     `yaml:"tenant_id"`
	Name        string     `yaml:"name"`
	Timezone    string     `yaml:"timezone"`
	CountryCode string     `yaml:"country_code"`
	Config      *ConfigDoc `yaml:"config"`
	Plans       []PlanDoc  `yaml:"plans"`
}

// ConfigDoc is the lot-level pricing configuration.
type ConfigDoc struct {
	GraceMinutes          int    `yaml:"grace_minutes"`
	DailyMax              *int64 `yaml:"daily_max"`
	LostTicketFee         *int64 `yaml:"lost_ticket_fee"`
	DynamicPricingEnabled bool   `yaml:"dynamic_pricing_enabled"`
}

// PlanDoc is one tariff plan.
type PlanDoc struct {
	Name     string    `yaml:"name"`
	Timezone string    `yaml:"timezone"`
	Active   bool      `yaml:"active"`
	Rules    []RuleDoc `yaml:"rules"`
}

// RuleDoc is one tariff rule. Times are HH:MM in the lot's local time.
type RuleDoc struct {
	VehicleType   string `yaml:"vehicle_type"`
	DayType       string `yaml:"day_type"`
	Period        string `yaml:"period"`
	Start         string `yaml:"start"`
	End           string `yaml:"end"`
	BillingUnit   string `yaml:"billing_unit"`
	UnitPrice     int64  `yaml:"unit_price"`
	MinimumCharge *int64 `yaml:"minimum_charge"`
	DailyMax      *int64 `yaml:"daily_max"`
	GraceMinutes  *int   `yaml:"grace_minutes"`
	Rounding      string `yaml:"rounding"`
	Active        *bool  `yaml:"active"`
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a seed document, rejecting unknown keys.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("yamlplan: decode: %w", err)
	}
	for i, lot := range f.Lots {
		if _, err := lot.Lot(); err != nil {
			return nil, fmt.Errorf("yamlplan: lot %d: %w", i, err)
		}
	}
	return &f, nil
}

// Lot converts the document into a masterdata lot.
func (d LotDoc) Lot() (masterdata.Lot, error) {
	lot := masterdata.Lot{
		ID:          d.ID,
		TenantID:    d.TenantID,
		Name:        d.Name,
		Timezone:    d.Timezone,
		CountryCode: strings.ToUpper(d.CountryCode),
	}
	return lot, lot.Validate()
}

// PricingConfig converts the lot's configuration. It returns nil when the
// lot has no config section; such a lot cannot be priced.
func (d LotDoc) PricingConfig() *tariff.PricingConfig {
	if d.Config == nil {
		return nil
	}
	return &tariff.PricingConfig{
		TenantID:              d.TenantID,
		LotID:                 d.ID,
		GraceMinutes:          d.Config.GraceMinutes,
		DailyMax:              d.Config.DailyMax,
		LostTicketFee:         d.Config.LostTicketFee,
		DynamicPricingEnabled: d.Config.DynamicPricingEnabled,
	}
}

// ActivePlan returns the plan flagged active, or the only plan when the lot
// has exactly one.
func (d LotDoc) ActivePlan() (*PlanDoc, error) {
	var active *PlanDoc
	for i := range d.Plans {
		if !d.Plans[i].Active {
			continue
		}
		if active != nil {
			return nil, fmt.Errorf("yamlplan: lot %s has more than one active plan", d.ID)
		}
		active = &d.Plans[i]
	}
	if active == nil && len(d.Plans) == 1 {
		active = &d.Plans[0]
	}
	if active == nil {
		return nil, tariff.ErrNoActivePlan
	}
	return active, nil
}

// TariffRules converts the plan's rules. Rules default to active and CEIL rounding.
func (p PlanDoc) TariffRules() ([]tariff.TariffRule, error) {
	rules := make([]tariff.TariffRule, 0, len(p.Rules))
	for i, doc := range p.Rules {
		rule, err := doc.rule()
		if err != nil {
			return nil, fmt.Errorf("yamlplan: plan %q rule %d: %w", p.Name, i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (d RuleDoc) rule() (tariff.TariffRule, error) {
	var (
		rule tariff.TariffRule
		err  error
	)
	if rule.VehicleType, err = tariff.ParseVehicleType(d.VehicleType); err != nil {
		return rule, err
	}
	if rule.DayType, err = tariff.ParseDayType(d.DayType); err != nil {
		return rule, err
	}
	if rule.Period, err = tariff.ParsePeriod(d.Period); err != nil {
		return rule, err
	}
	if rule.StartTime, err = tariff.ParseTimeOfDay(d.Start); err != nil {
		return rule, err
	}
	if rule.EndTime, err = tariff.ParseTimeOfDay(d.End); err != nil {
		return rule, err
	}
	if rule.BillingUnit, err = tariff.ParseBillingUnit(d.BillingUnit); err != nil {
		return rule, err
	}
	rounding := d.Rounding
	if rounding == "" {
		rounding = string(tariff.RoundCeil)
	}
	if rule.Rounding, err = tariff.ParseRoundingMode(rounding); err != nil {
		return rule, err
	}
	rule.UnitPrice = d.UnitPrice
	rule.MinimumCharge = d.MinimumCharge
	rule.DailyMax = d.DailyMax
	rule.GraceMinutes = d.GraceMinutes
	rule.Active = d.Active == nil || *d.Active
	return rule, rule.Validate()
}

// FindLot returns the lot with id, or the only lot when id is empty.
func (f *File) FindLot(id string) (*LotDoc, error) {
	if f == nil {
		return nil, errors.New("yamlplan: nil file")
	}
	if id == "" {
		if len(f.Lots) == 1 {
			return &f.Lots[0], nil
		}
		return nil, errors.New("yamlplan: lot id required when the file has several lots")
	}
	for i := range f.Lots {
		if f.Lots[i].ID == id {
			return &f.Lots[i], nil
		}
	}
	return nil, masterdata.ErrLotNotFound
}
