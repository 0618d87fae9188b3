package tariff

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrEmptySessionID is returned when a pricing snapshot has no session.
var ErrEmptySessionID = errors.New("tariff: empty session id")

// PricingSnapshot freezes the quote a parking session was charged with.
type PricingSnapshot struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	LotID     string          `json:"lot_id"`
	SessionID string          `json:"session_id"`
	PlanID    string          `json:"plan_id"`
	Total     int64           `json:"total"`
	Quote     json.RawMessage `json:"quote"`
	Digest    string          `json:"digest"`
	CreatedAt time.Time       `json:"created_at"`
}

// PricingSnapshotRepository stores one snapshot per session.
type PricingSnapshotRepository interface {
	// Save inserts snapshot unless the session already has one. It returns the
	// stored snapshot and whether this call created it.
	Save(ctx context.Context, snapshot *PricingSnapshot) (*PricingSnapshot, bool, error)
	GetBySession(ctx context.Context, tenantID, lotID, sessionID string) (*PricingSnapshot, error)
}
