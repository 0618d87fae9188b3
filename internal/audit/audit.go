package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry records one change made through the pricing API.
type Entry struct {
	ID            string
	TenantID      string
	Actor         string
	Role          string
	Action        string
	ResourceType  string
	ResourceID    string
	LotID         string
	Metadata      json.RawMessage
	PayloadDigest string
	RequestID     string
	IP            string
	UserAgent     string
	CreatedAt     time.Time
}

// Logger writes audit entries. Handlers treat a nil Logger as disabled.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// Audit actions recorded by the pricing API.
const (
	ActionPlanCreate        = "tariff_plan.create"
	ActionPlanActivate      = "tariff_plan.activate"
	ActionRulesReplace      = "tariff_plan.replace_rules"
	ActionConfigUpsert      = "pricing_config.upsert"
	ActionHolidayUpsert     = "holiday.upsert"
	ActionPricingSnapshot   = "pricing_snapshot.record"
	ResourceTariffPlan      = "tariff_plan"
	ResourcePricingConfig   = "pricing_config"
	ResourceHoliday         = "holiday"
	ResourcePricingSnapshot = "pricing_snapshot"
)

// NewID generates a random audit id.
func NewID() string {
	return "audit-" + uuid.NewString()
}

// DigestJSON computes a SHA256 hex digest for metadata payloads.
func DigestJSON(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
