package calendar

import (
	"errors"
	"testing"
	"time"
)

func TestHolidaySet_IsHolidayUsesLocalDate(t *testing.T) {
	set := NewHolidaySet([]Holiday{{CountryCode: "CO", Date: "2026-03-23", Name: "San José"}})
	bogota := time.FixedZone("COT", -5*60*60)

	// 02:00 UTC on the 24th is still the 23rd in Bogota.
	at := time.Date(2026, 3, 24, 2, 0, 0, 0, time.UTC)
	if !set.IsHoliday(bogota, "CO", at) {
		t.Fatalf("expected local date to be a holiday")
	}
	if set.IsHoliday(time.UTC, "CO", at) {
		t.Fatalf("UTC date is the 24th and must not match")
	}
	if set.IsHoliday(bogota, "PE", at) {
		t.Fatalf("holiday must be scoped to its country")
	}
	if !set.IsHoliday(bogota, "co", at) {
		t.Fatalf("country codes are case insensitive")
	}
	if set.Name("CO", "2026-03-23") != "San José" || set.Len() != 1 {
		t.Fatalf("unexpected set contents")
	}
}

func TestHolidayValidate(t *testing.T) {
	h := Holiday{CountryCode: " co ", Date: "2026-12-25", Name: "Navidad"}
	if err := h.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if h.CountryCode != "CO" {
		t.Fatalf("country code not normalized: %q", h.CountryCode)
	}
	bad := Holiday{CountryCode: "CO", Date: "25/12/2026"}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	bad = Holiday{CountryCode: "COL", Date: "2026-12-25"}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidCountry) {
		t.Fatalf("expected ErrInvalidCountry, got %v", err)
	}
}

func TestNilHolidaySet(t *testing.T) {
	var set *HolidaySet
	if set.IsHoliday(time.UTC, "CO", time.Now()) || set.Len() != 0 {
		t.Fatalf("nil set must be empty")
	}
}
