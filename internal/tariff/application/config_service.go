package application

import (
	"context"
	"errors"

	tariff "parking-cloud/internal/tariff/domain"
)

// ConfigService reads and maintains per-lot pricing configuration.
type ConfigService struct {
	configs tariff.ConfigRepository
	lots    LotReader
}

// NewConfigService constructs the service.
func NewConfigService(configs tariff.ConfigRepository, lots LotReader) (*ConfigService, error) {
	if configs == nil {
		return nil, errors.New("config service: nil repository")
	}
	if lots == nil {
		return nil, errors.New("config service: nil lot reader")
	}
	return &ConfigService{configs: configs, lots: lots}, nil
}

// Get returns the lot configuration or ErrConfigurationMissing.
func (s *ConfigService) Get(ctx context.Context, tenantID, lotID string) (*tariff.PricingConfig, error) {
	if _, err := loadLot(ctx, s.lots, tenantID, lotID); err != nil {
		return nil, err
	}
	cfg, err := s.configs.Get(ctx, tenantID, lotID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, tariff.ErrConfigurationMissing
	}
	return cfg, nil
}

// Upsert validates and stores the lot configuration.
func (s *ConfigService) Upsert(ctx context.Context, cfg tariff.PricingConfig) (*tariff.PricingConfig, error) {
	if _, err := loadLot(ctx, s.lots, cfg.TenantID, cfg.LotID); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.configs.Upsert(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
