package tariff

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidInterval is returned when exit is not strictly after entry.
	ErrInvalidInterval = errors.New("tariff: exit must be after entry")
	// ErrInvalidTimestamp is returned when an entry or exit instant cannot be parsed.
	ErrInvalidTimestamp = errors.New("tariff: invalid timestamp")
	// ErrConfigurationMissing is returned when a lot has no pricing configuration.
	ErrConfigurationMissing = errors.New("tariff: pricing configuration missing")
	// ErrNoApplicableRule is returned when no active rule prices a segment.
	ErrNoApplicableRule = errors.New("tariff: no applicable rule")
	// ErrAmbiguousRule is returned when more than one active rule prices a segment.
	ErrAmbiguousRule = errors.New("tariff: ambiguous rule")
	// ErrNoActivePlan is returned when a lot has no active tariff plan.
	ErrNoActivePlan = errors.New("tariff: no active plan")

	// ErrInvalidVehicleType is returned for unknown vehicle types.
	ErrInvalidVehicleType = errors.New("tariff: invalid vehicle type")
	// ErrInvalidDayType is returned for unknown day types.
	ErrInvalidDayType = errors.New("tariff: invalid day type")
	// ErrInvalidPeriod is returned for unknown periods.
	ErrInvalidPeriod = errors.New("tariff: invalid period")
	// ErrInvalidBillingUnit is returned for unknown billing units.
	ErrInvalidBillingUnit = errors.New("tariff: invalid billing unit")
	// ErrInvalidRounding is returned for unknown rounding modes.
	ErrInvalidRounding = errors.New("tariff: invalid rounding mode")
	// ErrInvalidTimeOfDay is returned when a wall-clock time cannot be parsed.
	ErrInvalidTimeOfDay = errors.New("tariff: invalid time of day")
	// ErrInvalidRuleSet is returned when authored rules do not partition the day.
	ErrInvalidRuleSet = errors.New("tariff: invalid rule set")
	// ErrNegativeValue is returned when a monetary or minute value is negative.
	ErrNegativeValue = errors.New("tariff: negative value")

	// ErrEmptyTenantID is returned when tenant id is empty.
	ErrEmptyTenantID = errors.New("tariff: empty tenant id")
	// ErrEmptyLotID is returned when lot id is empty.
	ErrEmptyLotID = errors.New("tariff: empty lot id")
	// ErrEmptyPlanName is returned when a plan has no name.
	ErrEmptyPlanName = errors.New("tariff: empty plan name")
	// ErrPlanNotFound is returned when a plan does not exist for the tenant.
	ErrPlanNotFound = errors.New("tariff: plan not found")
	// ErrInvalidTimezone is returned when a timezone cannot be loaded.
	ErrInvalidTimezone = errors.New("tariff: invalid timezone")
)

// RuleLookupError describes a failed rule resolution for one segment.
type RuleLookupError struct {
	Err         error
	PlanID      string
	VehicleType VehicleType
	DayType     DayType
	Period      Period
	From        time.Time
	To          time.Time
	Matches     int
}

func (e *RuleLookupError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	fmt.Fprintf(&b, ": plan=%s vehicle=%s day_type=%s", e.PlanID, e.VehicleType, e.DayType)
	if e.Period != "" {
		fmt.Fprintf(&b, " period=%s", e.Period)
	}
	fmt.Fprintf(&b, " segment=[%s, %s)", e.From.Format(time.RFC3339), e.To.Format(time.RFC3339))
	if e.Matches > 1 {
		fmt.Fprintf(&b, " matches=%d", e.Matches)
	}
	return b.String()
}

func (e *RuleLookupError) Unwrap() error { return e.Err }

// RuleSetError lists every partition problem found in an authored rule set.
type RuleSetError struct {
	Issues []string
}

func (e *RuleSetError) Error() string {
	return ErrInvalidRuleSet.Error() + ": " + strings.Join(e.Issues, "; ")
}

func (e *RuleSetError) Unwrap() error { return ErrInvalidRuleSet }
