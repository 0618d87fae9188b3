package application

import (
	"context"
	"errors"
	"testing"

	tariff "parking-cloud/internal/tariff/domain"
)

func TestConfigService(t *testing.T) {
	configs := &stubConfigs{}
	svc, err := NewConfigService(configs, testLots())
	if err != nil {
		t.Fatalf("new config service: %v", err)
	}
	ctx := context.Background()

	if _, err := svc.Get(ctx, "tenant-a", "lot-1"); !errors.Is(err, tariff.ErrConfigurationMissing) {
		t.Fatalf("expected ErrConfigurationMissing, got %v", err)
	}
	if _, err := svc.Upsert(ctx, tariff.PricingConfig{TenantID: "tenant-a", LotID: "lot-1", GraceMinutes: -1}); !errors.Is(err, tariff.ErrNegativeValue) {
		t.Fatalf("expected ErrNegativeValue, got %v", err)
	}
	saved, err := svc.Upsert(ctx, tariff.PricingConfig{TenantID: "tenant-a", LotID: "lot-1", GraceMinutes: 15, DailyMax: i64(50000)})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := svc.Get(ctx, "tenant-a", "lot-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.GraceMinutes != saved.GraceMinutes || *got.DailyMax != 50000 {
		t.Fatalf("config = %+v", got)
	}
}
