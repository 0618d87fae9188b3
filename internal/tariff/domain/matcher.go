package tariff

// Matcher resolves the priced rule for a segment against one plan snapshot.
type Matcher struct {
	snapshot *PlanSnapshot
}

// NewMatcher binds a matcher to a snapshot so all lookups of a quote see the same plan.
func NewMatcher(snapshot *PlanSnapshot) Matcher {
	return Matcher{snapshot: snapshot}
}

// Match returns the unique active rule for the tuple.
func (m Matcher) Match(planID string, vehicleType VehicleType, dayType DayType, period Period) (TariffRule, error) {
	var (
		found   TariffRule
		matches int
	)
	if m.snapshot != nil {
		for _, rule := range m.snapshot.Rules {
			if !rule.Active || rule.PlanID != planID {
				continue
			}
			if rule.VehicleType != vehicleType || rule.DayType != dayType || rule.Period != period {
				continue
			}
			if matches == 0 {
				found = rule
			}
			matches++
		}
	}
	switch matches {
	case 1:
		return found, nil
	case 0:
		return TariffRule{}, &RuleLookupError{
			Err:         ErrNoApplicableRule,
			PlanID:      planID,
			VehicleType: vehicleType,
			DayType:     dayType,
			Period:      period,
		}
	default:
		return TariffRule{}, &RuleLookupError{
			Err:         ErrAmbiguousRule,
			PlanID:      planID,
			VehicleType: vehicleType,
			DayType:     dayType,
			Period:      period,
			Matches:     matches,
		}
	}
}

// MatchSpan is Match for a segment, attaching the segment bounds to failures.
func (m Matcher) MatchSpan(planID string, vehicleType VehicleType, span Span) (TariffRule, error) {
	rule, err := m.Match(planID, vehicleType, span.DayType, span.Period)
	if err != nil {
		if lookupErr, ok := err.(*RuleLookupError); ok {
			lookupErr.From = span.From
			lookupErr.To = span.To
		}
		return TariffRule{}, err
	}
	return rule, nil
}
