package tariff

import (
	"fmt"
	"time"
)

// MinutesPerDay is the length of the wall-clock cycle.
const MinutesPerDay = 24 * 60

const clockLayout = "15:04"

// TimeOfDay is a wall-clock time expressed as minutes after local midnight.
type TimeOfDay int

// ParseTimeOfDay parses an HH:MM wall-clock value.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	parsed, err := time.Parse(clockLayout, value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	return TimeOfDay(parsed.Hour()*60 + parsed.Minute()), nil
}

// MustTimeOfDay is ParseTimeOfDay for literals known to be valid.
func MustTimeOfDay(value string) TimeOfDay {
	t, err := ParseTimeOfDay(value)
	if err != nil {
		panic(err)
	}
	return t
}

// TimeOfDayOf returns the wall-clock minute of at in loc. Seconds are dropped.
func TimeOfDayOf(at time.Time, loc *time.Location) TimeOfDay {
	local := at.In(loc)
	return TimeOfDay(local.Hour()*60 + local.Minute())
}

// Valid reports whether t lies within one day.
func (t TimeOfDay) Valid() bool { return t >= 0 && t < MinutesPerDay }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalText encodes t as HH:MM.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes an HH:MM value.
func (t *TimeOfDay) UnmarshalText(data []byte) error {
	parsed, err := ParseTimeOfDay(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// NextAfter returns the first instant strictly after at whose wall clock in loc reads t.
func (t TimeOfDay) NextAfter(at time.Time, loc *time.Location) time.Time {
	local := at.In(loc)
	y, m, d := local.Date()
	candidate := time.Date(y, m, d, int(t)/60, int(t)%60, 0, 0, loc)
	if !candidate.After(at) {
		candidate = time.Date(y, m, d+1, int(t)/60, int(t)%60, 0, 0, loc)
	}
	return candidate
}

// Window is a half-open wall-clock range [Start, End). A window whose end is
// at or before its start wraps past midnight; Start == End covers the whole day.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Contains reports whether the wall-clock minute t falls inside the window.
func (w Window) Contains(t TimeOfDay) bool {
	switch {
	case w.Start == w.End:
		return true
	case w.Start < w.End:
		return t >= w.Start && t < w.End
	default:
		return t >= w.Start || t < w.End
	}
}

// Wraps reports whether the window crosses local midnight.
func (w Window) Wraps() bool { return w.Start >= w.End }

// Length returns the window length in minutes.
func (w Window) Length() int {
	if w.Start < w.End {
		return int(w.End - w.Start)
	}
	return MinutesPerDay - int(w.Start) + int(w.End)
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// nextMidnight returns local midnight of the calendar day after at.
func nextMidnight(at time.Time, loc *time.Location) time.Time {
	local := at.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

// LocalDate formats the calendar date of at in loc.
func LocalDate(at time.Time, loc *time.Location) string {
	return at.In(loc).Format("2006-01-02")
}

// ceilMinutes converts a non-negative duration to whole minutes, counting any
// started minute.
func ceilMinutes(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Minute - 1) / time.Minute)
}
