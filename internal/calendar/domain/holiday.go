package calendar

import (
	"context"
	"errors"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of holiday dates.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidCountry is returned for country codes that are not ISO alpha-2.
	ErrInvalidCountry = errors.New("calendar: invalid country code")
	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("calendar: invalid date")
	// ErrInvalidRange is returned when a range ends before it starts.
	ErrInvalidRange = errors.New("calendar: invalid date range")
)

// Holiday is a public holiday of one country on one local calendar date.
type Holiday struct {
	CountryCode string `json:"country_code" yaml:"country_code"`
	Date        string `json:"date" yaml:"date"`
	Name        string `json:"name" yaml:"name"`
}

// Validate checks holiday invariants and normalizes the country code.
func (h *Holiday) Validate() error {
	h.CountryCode = strings.ToUpper(strings.TrimSpace(h.CountryCode))
	if len(h.CountryCode) != 2 {
		return ErrInvalidCountry
	}
	if _, err := time.Parse(DateLayout, h.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// Repository persists holidays.
type Repository interface {
	ListBetween(ctx context.Context, countryCode, from, to string) ([]Holiday, error)
	Upsert(ctx context.Context, holidays []Holiday) error
}

// HolidaySet is an in-memory view of holidays used while pricing one stay.
type HolidaySet struct {
	dates map[string]string
}

// NewHolidaySet indexes holidays by country and date.
func NewHolidaySet(holidays []Holiday) *HolidaySet {
	set := &HolidaySet{dates: make(map[string]string, len(holidays))}
	for _, h := range holidays {
		set.dates[key(h.CountryCode, h.Date)] = h.Name
	}
	return set
}

// IsHoliday reports whether the local date of at in loc is a holiday in countryCode.
func (s *HolidaySet) IsHoliday(loc *time.Location, countryCode string, at time.Time) bool {
	if s == nil {
		return false
	}
	if loc == nil {
		loc = time.UTC
	}
	_, ok := s.dates[key(countryCode, at.In(loc).Format(DateLayout))]
	return ok
}

// Name returns the holiday name for a country and date.
func (s *HolidaySet) Name(countryCode, date string) string {
	if s == nil {
		return ""
	}
	return s.dates[key(countryCode, date)]
}

// Len returns the number of indexed holidays.
func (s *HolidaySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.dates)
}

func key(countryCode, date string) string {
	return strings.ToUpper(countryCode) + "/" + date
}
