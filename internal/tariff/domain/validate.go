package tariff

import (
	"fmt"
	"sort"
)

type ruleGroupKey struct {
	vehicle VehicleType
	dayType DayType
}

// ValidateRuleSet checks authored rules. For every (vehicle type, day type)
// pair that has active rules, the windows must cover all 1440 minutes exactly
// once and each period may appear at most once.
func ValidateRuleSet(rules []TariffRule) error {
	var issues []string
	groups := make(map[ruleGroupKey][]TariffRule)
	for i, rule := range rules {
		if err := rule.Validate(); err != nil {
			issues = append(issues, fmt.Sprintf("rule %d (%s/%s/%s): %v", i, rule.VehicleType, rule.DayType, rule.Period, err))
			continue
		}
		if !rule.Active {
			continue
		}
		key := ruleGroupKey{vehicle: rule.VehicleType, dayType: rule.DayType}
		groups[key] = append(groups[key], rule)
	}

	keys := make([]ruleGroupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].vehicle != keys[j].vehicle {
			return keys[i].vehicle < keys[j].vehicle
		}
		return keys[i].dayType < keys[j].dayType
	})

	for _, key := range keys {
		issues = append(issues, validateGroup(key, groups[key])...)
	}
	if len(issues) > 0 {
		return &RuleSetError{Issues: issues}
	}
	return nil
}

func validateGroup(key ruleGroupKey, rules []TariffRule) []string {
	var issues []string
	seen := make(map[Period]int)
	var coverage [MinutesPerDay]int
	for _, rule := range rules {
		seen[rule.Period]++
		w := rule.Window()
		for m := 0; m < MinutesPerDay; m++ {
			if w.Contains(TimeOfDay(m)) {
				coverage[m]++
			}
		}
	}
	for _, period := range []Period{PeriodDay, PeriodNight} {
		if seen[period] > 1 {
			issues = append(issues, fmt.Sprintf("%s/%s: %d active %s rules", key.vehicle, key.dayType, seen[period], period))
		}
	}
	for _, r := range collectRuns(coverage[:], func(n int) bool { return n == 0 }) {
		issues = append(issues, fmt.Sprintf("%s/%s: gap %s", key.vehicle, key.dayType, r))
	}
	for _, r := range collectRuns(coverage[:], func(n int) bool { return n > 1 }) {
		issues = append(issues, fmt.Sprintf("%s/%s: overlap %s", key.vehicle, key.dayType, r))
	}
	return issues
}

// collectRuns returns the maximal minute ranges whose coverage matches pred.
func collectRuns(coverage []int, pred func(int) bool) []Window {
	var runs []Window
	start := -1
	for m := 0; m <= len(coverage); m++ {
		inRun := m < len(coverage) && pred(coverage[m])
		switch {
		case inRun && start < 0:
			start = m
		case !inRun && start >= 0:
			runs = append(runs, Window{Start: TimeOfDay(start), End: TimeOfDay(m % MinutesPerDay)})
			start = -1
		}
	}
	return runs
}
