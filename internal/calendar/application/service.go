package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	calendar "parking-cloud/internal/calendar/domain"
)

// Service reads and maintains the holiday calendar.
type Service struct {
	repo   calendar.Repository
	logger *zap.Logger
}

// NewService constructs a calendar service.
func NewService(repo calendar.Repository, logger *zap.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("calendar service: nil repository")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}, nil
}

// Load returns the holidays of countryCode covering every local date touched by
// [from, to] in loc.
func (s *Service) Load(ctx context.Context, loc *time.Location, countryCode string, from, to time.Time) (*calendar.HolidaySet, error) {
	if countryCode == "" {
		return calendar.NewHolidaySet(nil), nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if to.Before(from) {
		return nil, calendar.ErrInvalidRange
	}
	holidays, err := s.repo.ListBetween(ctx, countryCode, from.In(loc).Format(calendar.DateLayout), to.In(loc).Format(calendar.DateLayout))
	if err != nil {
		return nil, err
	}
	return calendar.NewHolidaySet(holidays), nil
}

// List returns holidays of a country between two YYYY-MM-DD dates, inclusive.
func (s *Service) List(ctx context.Context, countryCode, from, to string) ([]calendar.Holiday, error) {
	probe := calendar.Holiday{CountryCode: countryCode, Date: from}
	if err := probe.Validate(); err != nil {
		return nil, err
	}
	end := calendar.Holiday{CountryCode: countryCode, Date: to}
	if err := end.Validate(); err != nil {
		return nil, err
	}
	if to < from {
		return nil, calendar.ErrInvalidRange
	}
	return s.repo.ListBetween(ctx, probe.CountryCode, from, to)
}

// Upsert validates and stores holidays.
func (s *Service) Upsert(ctx context.Context, holidays []calendar.Holiday) error {
	for i := range holidays {
		if err := holidays[i].Validate(); err != nil {
			return err
		}
	}
	if len(holidays) == 0 {
		return nil
	}
	if err := s.repo.Upsert(ctx, holidays); err != nil {
		return err
	}
	s.logger.Info("holidays upserted", zap.Int("count", len(holidays)))
	return nil
}
