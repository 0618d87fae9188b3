package tariff

import (
	"errors"
	"time"
)

// TariffPlan is one versioned pricing scheme for a lot.
type TariffPlan struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	LotID     string    `json:"lot_id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks plan invariants.
func (p TariffPlan) Validate() error {
	if p.TenantID == "" {
		return ErrEmptyTenantID
	}
	if p.LotID == "" {
		return ErrEmptyLotID
	}
	if p.Name == "" {
		return ErrEmptyPlanName
	}
	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return ErrInvalidTimezone
		}
	}
	return nil
}

// TariffRule prices one (vehicle type, day type, period) window.
type TariffRule struct {
	ID            string       `json:"id"`
	PlanID        string       `json:"plan_id"`
	VehicleType   VehicleType  `json:"vehicle_type"`
	DayType       DayType      `json:"day_type"`
	Period        Period       `json:"period"`
	StartTime     TimeOfDay    `json:"start_time"`
	EndTime       TimeOfDay    `json:"end_time"`
	BillingUnit   BillingUnit  `json:"billing_unit"`
	UnitPrice     int64        `json:"unit_price"`
	MinimumCharge *int64       `json:"minimum_charge,omitempty"`
	DailyMax      *int64       `json:"daily_max,omitempty"`
	GraceMinutes  *int         `json:"grace_minutes,omitempty"`
	Rounding      RoundingMode `json:"rounding"`
	Active        bool         `json:"active"`
}

// Window returns the rule's wall-clock range.
func (r TariffRule) Window() Window {
	return Window{Start: r.StartTime, End: r.EndTime}
}

// Validate checks single-rule invariants. Partition checks live in ValidateRuleSet.
func (r TariffRule) Validate() error {
	if _, err := ParseVehicleType(string(r.VehicleType)); err != nil {
		return err
	}
	if _, err := ParseDayType(string(r.DayType)); err != nil {
		return err
	}
	if _, err := ParsePeriod(string(r.Period)); err != nil {
		return err
	}
	if _, err := ParseBillingUnit(string(r.BillingUnit)); err != nil {
		return err
	}
	if _, err := ParseRoundingMode(string(r.Rounding)); err != nil {
		return err
	}
	if !r.StartTime.Valid() || !r.EndTime.Valid() {
		return ErrInvalidTimeOfDay
	}
	if r.UnitPrice < 0 {
		return ErrNegativeValue
	}
	if r.MinimumCharge != nil && *r.MinimumCharge < 0 {
		return ErrNegativeValue
	}
	if r.DailyMax != nil && *r.DailyMax < 0 {
		return ErrNegativeValue
	}
	if r.GraceMinutes != nil && *r.GraceMinutes < 0 {
		return ErrNegativeValue
	}
	return nil
}

// PlanSnapshot is the active plan and its rules as read in one consistent view.
type PlanSnapshot struct {
	Plan     TariffPlan   `json:"plan"`
	Rules    []TariffRule `json:"rules"`
	LoadedAt time.Time    `json:"loaded_at"`
}

// Validate checks that the snapshot is usable for quoting.
func (s *PlanSnapshot) Validate() error {
	if s == nil {
		return ErrNoActivePlan
	}
	if s.Plan.ID == "" || !s.Plan.Active {
		return ErrNoActivePlan
	}
	return nil
}

// PricingConfig holds per-lot defaults used when a rule omits a value.
type PricingConfig struct {
	TenantID              string    `json:"tenant_id"`
	LotID                 string    `json:"lot_id"`
	GraceMinutes          int       `json:"grace_minutes"`
	DailyMax              *int64    `json:"daily_max,omitempty"`
	LostTicketFee         *int64    `json:"lost_ticket_fee,omitempty"`
	DynamicPricingEnabled bool      `json:"dynamic_pricing_enabled"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Validate checks configuration invariants.
func (c PricingConfig) Validate() error {
	if c.LotID == "" {
		return ErrEmptyLotID
	}
	if c.GraceMinutes < 0 {
		return errors.Join(ErrNegativeValue, errors.New("grace_minutes"))
	}
	if c.DailyMax != nil && *c.DailyMax < 0 {
		return errors.Join(ErrNegativeValue, errors.New("daily_max"))
	}
	if c.LostTicketFee != nil && *c.LostTicketFee < 0 {
		return errors.Join(ErrNegativeValue, errors.New("lost_ticket_fee"))
	}
	return nil
}
