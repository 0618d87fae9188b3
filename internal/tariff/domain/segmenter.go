package tariff

import (
	"time"
)

// HolidayCalendar classifies local calendar dates as holidays.
type HolidayCalendar interface {
	IsHoliday(loc *time.Location, countryCode string, at time.Time) bool
}

// Span is one classified sub-interval of a stay.
type Span struct {
	DayType         DayType
	Period          Period
	From            time.Time
	To              time.Time
	DurationMinutes int64
}

// Segmenter splits a stay into spans of constant day type and period.
// Period windows come from the vehicle type's rules in the snapshot.
type Segmenter struct {
	Location    *time.Location
	CountryCode string
	Holidays    HolidayCalendar
	Snapshot    *PlanSnapshot
	VehicleType VehicleType
}

// DayTypeAt classifies the local date of at. Holidays win over weekends.
func (s Segmenter) DayTypeAt(at time.Time) DayType {
	if s.Holidays != nil && s.Holidays.IsHoliday(s.Location, s.CountryCode, at) {
		return DayHoliday
	}
	switch at.In(s.Location).Weekday() {
	case time.Saturday, time.Sunday:
		return DayWeekend
	default:
		return DayWeekday
	}
}

// PeriodAt finds the period whose window contains at for the given day type.
func (s Segmenter) PeriodAt(dayType DayType, at time.Time) (Period, Window, error) {
	tod := TimeOfDayOf(at, s.Location)
	var (
		found   []TariffRule
		planID  string
		periods = make(map[Period]struct{})
	)
	if s.Snapshot != nil {
		planID = s.Snapshot.Plan.ID
		for _, rule := range s.Snapshot.Rules {
			if !rule.Active || rule.VehicleType != s.VehicleType || rule.DayType != dayType {
				continue
			}
			if rule.Window().Contains(tod) {
				found = append(found, rule)
				periods[rule.Period] = struct{}{}
			}
		}
	}
	switch {
	case len(found) == 0:
		return "", Window{}, &RuleLookupError{
			Err:         ErrNoApplicableRule,
			PlanID:      planID,
			VehicleType: s.VehicleType,
			DayType:     dayType,
			From:        at,
			To:          at,
		}
	case len(periods) > 1:
		return "", Window{}, &RuleLookupError{
			Err:         ErrAmbiguousRule,
			PlanID:      planID,
			VehicleType: s.VehicleType,
			DayType:     dayType,
			From:        at,
			To:          at,
			Matches:     len(found),
		}
	}
	// Several rules of the same period are reported by the matcher.
	return found[0].Period, found[0].Window(), nil
}

// Split segments [from, to). Midnight only splits when the day type changes;
// period windows split at their configured end. Minutes are assigned by
// cumulative ceiling so the spans always sum to the ceiling of the whole stay.
func (s Segmenter) Split(from, to time.Time) ([]Span, error) {
	if !to.After(from) {
		return nil, ErrInvalidInterval
	}
	if s.Location == nil {
		s.Location = time.UTC
	}

	var spans []Span
	var consumed int64
	cursor := from
	for cursor.Before(to) {
		dayType := s.DayTypeAt(cursor)
		period, window, err := s.PeriodAt(dayType, cursor)
		if err != nil {
			if lookupErr, ok := err.(*RuleLookupError); ok {
				lookupErr.To = to
			}
			return nil, err
		}

		boundary := to
		if end := window.End.NextAfter(cursor, s.Location); end.Before(boundary) {
			boundary = end
		}
		if change := s.nextDayTypeChange(cursor, dayType, boundary); !change.IsZero() {
			boundary = change
		}

		offset := ceilMinutes(boundary.Sub(from))
		spans = append(spans, Span{
			DayType:         dayType,
			Period:          period,
			From:            cursor,
			To:              boundary,
			DurationMinutes: offset - consumed,
		})
		consumed = offset
		cursor = boundary
	}
	return spans, nil
}

// nextDayTypeChange returns the first local midnight before limit at which the
// day type differs from current, or the zero time.
func (s Segmenter) nextDayTypeChange(cursor time.Time, current DayType, limit time.Time) time.Time {
	for m := nextMidnight(cursor, s.Location); m.Before(limit); m = nextMidnight(m, s.Location) {
		if s.DayTypeAt(m) != current {
			return m
		}
	}
	return time.Time{}
}
