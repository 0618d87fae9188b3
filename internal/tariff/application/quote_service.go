package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	masterdata "parking-cloud/internal/masterdata/domain"
	"parking-cloud/internal/observability/metrics"
	tariff "parking-cloud/internal/tariff/domain"
)

// QuoteRequest is a stay to price for one lot.
type QuoteRequest struct {
	TenantID    string
	LotID       string
	VehicleType string
	EntryAt     time.Time
	ExitAt      time.Time
	LostTicket  bool
}

// QuoteService loads everything a quote needs and runs the pricing engine.
type QuoteService struct {
	lots      LotReader
	configs   tariff.ConfigRepository
	snapshots tariff.SnapshotReader
	holidays  HolidayLoader
	currency  string
	logger    *zap.Logger
}

// QuoteOption configures the quote service.
type QuoteOption func(*QuoteService)

// WithCurrency sets the ISO 4217 code reported on quotes.
func WithCurrency(currency string) QuoteOption {
	return func(s *QuoteService) {
		s.currency = currency
	}
}

// WithQuoteLogger sets the logger.
func WithQuoteLogger(logger *zap.Logger) QuoteOption {
	return func(s *QuoteService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewQuoteService constructs the service.
func NewQuoteService(
	lots LotReader,
	configs tariff.ConfigRepository,
	snapshots tariff.SnapshotReader,
	holidays HolidayLoader,
	opts ...QuoteOption,
) (*QuoteService, error) {
	if lots == nil {
		return nil, errors.New("quote service: nil lot reader")
	}
	if configs == nil {
		return nil, errors.New("quote service: nil config repository")
	}
	if snapshots == nil {
		return nil, errors.New("quote service: nil snapshot reader")
	}
	if holidays == nil {
		return nil, errors.New("quote service: nil holiday loader")
	}
	s := &QuoteService{
		lots:      lots,
		configs:   configs,
		snapshots: snapshots,
		holidays:  holidays,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Quote prices a stay against the lot's currently active plan.
func (s *QuoteService) Quote(ctx context.Context, req QuoteRequest) (tariff.Quote, error) {
	start := time.Now()
	quote, err := s.quote(ctx, req)
	if err != nil {
		metrics.ObserveQuote(metrics.ResultError, time.Since(start))
		metrics.IncQuoteError(ErrorKind(err))
		s.logFailure(req, err)
		return tariff.Quote{}, err
	}
	metrics.ObserveQuote(metrics.ResultSuccess, time.Since(start))
	metrics.ObserveQuoteAmount(string(quote.VehicleType), quote.Total)
	s.logger.Debug("quote computed",
		zap.String("tenant_id", req.TenantID),
		zap.String("lot_id", req.LotID),
		zap.String("plan_id", quote.PlanID),
		zap.Int64("billable_minutes", quote.BillableMinutes),
		zap.Int64("total", quote.Total),
	)
	return quote, nil
}

func (s *QuoteService) quote(ctx context.Context, req QuoteRequest) (tariff.Quote, error) {
	vehicleType, err := tariff.ParseVehicleType(req.VehicleType)
	if err != nil {
		return tariff.Quote{}, err
	}
	if !req.ExitAt.After(req.EntryAt) {
		return tariff.Quote{}, tariff.ErrInvalidInterval
	}

	lot, err := loadLot(ctx, s.lots, req.TenantID, req.LotID)
	if err != nil {
		return tariff.Quote{}, err
	}
	cfg, err := s.configs.Get(ctx, req.TenantID, req.LotID)
	if err != nil {
		return tariff.Quote{}, err
	}
	if cfg == nil {
		return tariff.Quote{}, tariff.ErrConfigurationMissing
	}
	snapshot, err := s.snapshots.LoadActiveSnapshot(ctx, req.TenantID, req.LotID)
	if err != nil {
		return tariff.Quote{}, err
	}
	if snapshot == nil {
		return tariff.Quote{}, tariff.ErrNoActivePlan
	}

	loc, err := quoteLocation(lot, snapshot)
	if err != nil {
		return tariff.Quote{}, err
	}
	holidays, err := s.holidays.Load(ctx, loc, lot.CountryCode, req.EntryAt, req.ExitAt)
	if err != nil {
		return tariff.Quote{}, err
	}

	quote, err := tariff.ComputeQuote(tariff.QuoteInput{
		TenantID:    req.TenantID,
		LotID:       req.LotID,
		VehicleType: vehicleType,
		EntryAt:     req.EntryAt,
		ExitAt:      req.ExitAt,
		LostTicket:  req.LostTicket,
	}, tariff.QuoteEnv{
		Snapshot:    snapshot,
		Config:      cfg,
		Location:    loc,
		CountryCode: lot.CountryCode,
		Holidays:    holidays,
	})
	if err != nil {
		return tariff.Quote{}, err
	}
	quote.Currency = s.currency
	return quote, nil
}

// quoteLocation prefers the plan timezone over the lot timezone.
func quoteLocation(lot *masterdata.Lot, snapshot *tariff.PlanSnapshot) (*time.Location, error) {
	if snapshot.Plan.Timezone != "" {
		loc, err := time.LoadLocation(snapshot.Plan.Timezone)
		if err != nil {
			return nil, tariff.ErrInvalidTimezone
		}
		return loc, nil
	}
	return lot.Location()
}

func (s *QuoteService) logFailure(req QuoteRequest, err error) {
	fields := []zap.Field{
		zap.String("tenant_id", req.TenantID),
		zap.String("lot_id", req.LotID),
		zap.String("vehicle_type", req.VehicleType),
		zap.Time("entry_at", req.EntryAt),
		zap.Time("exit_at", req.ExitAt),
		zap.Error(err),
	}
	var lookupErr *tariff.RuleLookupError
	if errors.As(err, &lookupErr) {
		fields = append(fields,
			zap.String("plan_id", lookupErr.PlanID),
			zap.String("day_type", string(lookupErr.DayType)),
			zap.String("period", string(lookupErr.Period)),
		)
	}
	switch {
	case errors.Is(err, tariff.ErrAmbiguousRule):
		s.logger.Error("ambiguous tariff configuration", fields...)
	case errors.Is(err, tariff.ErrNoApplicableRule), errors.Is(err, tariff.ErrNoActivePlan), errors.Is(err, tariff.ErrConfigurationMissing):
		s.logger.Warn("lot cannot be priced", fields...)
	default:
		s.logger.Debug("quote rejected", fields...)
	}
}

// ErrorKind maps quote errors to a stable label.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, tariff.ErrInvalidInterval):
		return "invalid_interval"
	case errors.Is(err, tariff.ErrInvalidTimestamp):
		return "invalid_timestamp"
	case errors.Is(err, tariff.ErrInvalidVehicleType):
		return "invalid_vehicle_type"
	case errors.Is(err, tariff.ErrConfigurationMissing):
		return "configuration_missing"
	case errors.Is(err, tariff.ErrNoActivePlan):
		return "no_active_plan"
	case errors.Is(err, tariff.ErrNoApplicableRule):
		return "no_applicable_rule"
	case errors.Is(err, tariff.ErrAmbiguousRule):
		return "ambiguous_rule"
	case errors.Is(err, masterdata.ErrLotNotFound):
		return "lot_not_found"
	case errors.Is(err, tariff.ErrInvalidTimezone), errors.Is(err, masterdata.ErrInvalidTimezone):
		return "invalid_timezone"
	default:
		return "internal"
	}
}
