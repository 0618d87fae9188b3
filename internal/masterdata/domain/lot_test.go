package masterdata

import (
	"errors"
	"testing"
)

func TestLotValidate(t *testing.T) {
	valid := Lot{ID: "lot-1", TenantID: "tenant-a", Name: "Centro", Timezone: "UTC", CountryCode: "CO"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid lot: %v", err)
	}

	tests := []struct {
		name string
		edit func(*Lot)
	}{
		{"missing id", func(l *Lot) { l.ID = "" }},
		{"missing tenant", func(l *Lot) { l.TenantID = "" }},
		{"missing name", func(l *Lot) { l.Name = "" }},
		{"missing timezone", func(l *Lot) { l.Timezone = "" }},
		{"bad country", func(l *Lot) { l.CountryCode = "COL" }},
	}
	for _, tt := range tests {
		lot := valid
		tt.edit(&lot)
		if err := lot.Validate(); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}

	bad := valid
	bad.Timezone = "Mars/Olympus_Mons"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("expected ErrInvalidTimezone, got %v", err)
	}
}
