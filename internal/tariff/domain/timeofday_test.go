package tariff

import (
	"errors"
	"testing"
)

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("19:30")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != 19*60+30 || got.String() != "19:30" {
		t.Fatalf("parsed %d (%s)", got, got)
	}
	if _, err := ParseTimeOfDay("25:00"); !errors.Is(err, ErrInvalidTimeOfDay) {
		t.Fatalf("expected ErrInvalidTimeOfDay, got %v", err)
	}
}

func TestWindowContains(t *testing.T) {
	night := Window{Start: MustTimeOfDay("19:00"), End: MustTimeOfDay("06:00")}
	for _, clock := range []string{"19:00", "23:59", "00:00", "05:59"} {
		if !night.Contains(MustTimeOfDay(clock)) {
			t.Fatalf("night window should contain %s", clock)
		}
	}
	for _, clock := range []string{"06:00", "12:00", "18:59"} {
		if night.Contains(MustTimeOfDay(clock)) {
			t.Fatalf("night window should not contain %s", clock)
		}
	}
	if night.Length() != 11*60 || !night.Wraps() {
		t.Fatalf("night length=%d wraps=%v", night.Length(), night.Wraps())
	}
	full := Window{}
	if !full.Contains(MustTimeOfDay("13:37")) || full.Length() != MinutesPerDay {
		t.Fatalf("full-day window misbehaves")
	}
}

func TestNextAfter(t *testing.T) {
	six := MustTimeOfDay("06:00")
	if got := six.NextAfter(at("2026-03-13", "22:00:00"), bogota); !got.Equal(at("2026-03-14", "06:00:00")) {
		t.Fatalf("next 06:00 after Friday 22:00 = %s", got)
	}
	if got := six.NextAfter(at("2026-03-13", "06:00:00"), bogota); !got.Equal(at("2026-03-14", "06:00:00")) {
		t.Fatalf("NextAfter must be strictly later, got %s", got)
	}
}
