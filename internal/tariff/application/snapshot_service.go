package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"parking-cloud/internal/observability/metrics"
	tariff "parking-cloud/internal/tariff/domain"
)

// Quoter prices a stay.
type Quoter interface {
	Quote(ctx context.Context, req QuoteRequest) (tariff.Quote, error)
}

// SnapshotService freezes the quote charged for a parking session.
type SnapshotService struct {
	quoter Quoter
	repo   tariff.PricingSnapshotRepository
	clock  Clock
	logger *zap.Logger
}

// NewSnapshotService constructs the service.
func NewSnapshotService(quoter Quoter, repo tariff.PricingSnapshotRepository, clock Clock, logger *zap.Logger) (*SnapshotService, error) {
	if quoter == nil {
		return nil, errors.New("snapshot service: nil quoter")
	}
	if repo == nil {
		return nil, errors.New("snapshot service: nil repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{quoter: quoter, repo: repo, clock: clock, logger: logger}, nil
}

// Record prices the session's stay and stores the result. A session keeps its
// first snapshot; later calls return it with created=false.
func (s *SnapshotService) Record(ctx context.Context, sessionID string, req QuoteRequest) (*tariff.PricingSnapshot, bool, error) {
	if sessionID == "" {
		return nil, false, tariff.ErrEmptySessionID
	}
	existing, err := s.repo.GetBySession(ctx, req.TenantID, req.LotID, sessionID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	quote, err := s.quoter.Quote(ctx, req)
	if err != nil {
		return nil, false, err
	}
	payload, err := json.Marshal(quote)
	if err != nil {
		return nil, false, err
	}
	sum := sha256.Sum256(payload)
	snapshot := &tariff.PricingSnapshot{
		ID:        uuid.NewString(),
		TenantID:  req.TenantID,
		LotID:     req.LotID,
		SessionID: sessionID,
		PlanID:    quote.PlanID,
		Total:     quote.Total,
		Quote:     payload,
		Digest:    hex.EncodeToString(sum[:]),
		CreatedAt: s.clock.Now(),
	}
	stored, created, err := s.repo.Save(ctx, snapshot)
	if err != nil {
		metrics.IncPricingSnapshot(metrics.ResultError)
		return nil, false, err
	}
	metrics.IncPricingSnapshot(metrics.ResultSuccess)
	if created {
		s.logger.Info("pricing snapshot recorded",
			zap.String("tenant_id", stored.TenantID),
			zap.String("lot_id", stored.LotID),
			zap.String("session_id", sessionID),
			zap.String("plan_id", stored.PlanID),
			zap.Int64("total", stored.Total),
		)
	}
	return stored, created, nil
}

// Get returns the snapshot of a session, or nil.
func (s *SnapshotService) Get(ctx context.Context, tenantID, lotID, sessionID string) (*tariff.PricingSnapshot, error) {
	if sessionID == "" {
		return nil, tariff.ErrEmptySessionID
	}
	return s.repo.GetBySession(ctx, tenantID, lotID, sessionID)
}
