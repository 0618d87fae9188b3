package tariff

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateRuleSet_AcceptsPartition(t *testing.T) {
	if err := ValidateRuleSet(standardRules()); err != nil {
		t.Fatalf("validate: %v", err)
	}
	fullDay := []TariffRule{rule(VehicleTruckBus, DayWeekday, PeriodDay, "00:00", "00:00", 9000)}
	if err := ValidateRuleSet(fullDay); err != nil {
		t.Fatalf("full-day window: %v", err)
	}
}

func TestValidateRuleSet_ReportsIssues(t *testing.T) {
	tests := []struct {
		name  string
		rules []TariffRule
		issue string
	}{
		{
			name: "gap",
			rules: []TariffRule{
				rule(VehicleCar, DayWeekday, PeriodDay, "06:00", "18:00", 3000),
				rule(VehicleCar, DayWeekday, PeriodNight, "19:00", "06:00", 2000),
			},
			issue: "gap 18:00-19:00",
		},
		{
			name: "overlap",
			rules: []TariffRule{
				rule(VehicleCar, DayWeekday, PeriodDay, "06:00", "20:00", 3000),
				rule(VehicleCar, DayWeekday, PeriodNight, "19:00", "06:00", 2000),
			},
			issue: "overlap 19:00-20:00",
		},
		{
			name: "duplicate period",
			rules: []TariffRule{
				rule(VehicleCar, DayWeekday, PeriodDay, "06:00", "12:00", 3000),
				rule(VehicleCar, DayWeekday, PeriodDay, "12:00", "19:00", 3000),
				rule(VehicleCar, DayWeekday, PeriodNight, "19:00", "06:00", 2000),
			},
			issue: "2 active DAY rules",
		},
		{
			name:  "negative price",
			rules: []TariffRule{rule(VehicleCar, DayWeekday, PeriodDay, "00:00", "00:00", -1)},
			issue: ErrNegativeValue.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRuleSet(tt.rules)
			if !errors.Is(err, ErrInvalidRuleSet) {
				t.Fatalf("expected ErrInvalidRuleSet, got %v", err)
			}
			var setErr *RuleSetError
			if !errors.As(err, &setErr) {
				t.Fatalf("expected RuleSetError, got %T", err)
			}
			if !strings.Contains(strings.Join(setErr.Issues, "; "), tt.issue) {
				t.Fatalf("issues %q do not mention %q", setErr.Issues, tt.issue)
			}
		})
	}
}

func TestValidateRuleSet_IgnoresInactiveRules(t *testing.T) {
	rules := standardRules()
	extra := rule(VehicleCar, DayWeekday, PeriodDay, "06:00", "19:00", 9999)
	extra.Active = false
	if err := ValidateRuleSet(append(rules, extra)); err != nil {
		t.Fatalf("inactive duplicate should be ignored: %v", err)
	}
}
