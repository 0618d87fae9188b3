package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"parking-cloud/internal/audit"
	"parking-cloud/internal/auth"
	masterdata "parking-cloud/internal/masterdata/domain"
	"parking-cloud/internal/tariff/application"
	tariff "parking-cloud/internal/tariff/domain"
)

// Quoter prices stays.
type Quoter interface {
	Quote(ctx context.Context, req application.QuoteRequest) (tariff.Quote, error)
}

// PlanAuthor manages tariff plans.
type PlanAuthor interface {
	CreatePlan(ctx context.Context, in application.CreatePlanInput) (*application.PlanDetail, error)
	ReplaceRules(ctx context.Context, tenantID, planID string, rules []tariff.TariffRule) (*application.PlanDetail, error)
	ActivatePlan(ctx context.Context, tenantID, planID string) (*tariff.TariffPlan, error)
	ListPlans(ctx context.Context, tenantID, lotID string) ([]tariff.TariffPlan, error)
	GetPlan(ctx context.Context, tenantID, planID string) (*application.PlanDetail, error)
}

// ConfigStore reads and writes lot pricing configuration.
type ConfigStore interface {
	Get(ctx context.Context, tenantID, lotID string) (*tariff.PricingConfig, error)
	Upsert(ctx context.Context, cfg tariff.PricingConfig) (*tariff.PricingConfig, error)
}

// SnapshotRecorder freezes session quotes.
type SnapshotRecorder interface {
	Record(ctx context.Context, sessionID string, req application.QuoteRequest) (*tariff.PricingSnapshot, bool, error)
	Get(ctx context.Context, tenantID, lotID, sessionID string) (*tariff.PricingSnapshot, error)
}

// Handler serves the lot-scoped tariff API.
type Handler struct {
	quotes      Quoter
	plans       PlanAuthor
	configs     ConfigStore
	snapshots   SnapshotRecorder
	lotChecker  auth.LotTenantChecker
	auditLogger audit.Logger
	logger      *zap.Logger
	money       MoneyFormat
}

// Option configures the handler.
type Option func(*Handler)

// WithLotChecker enforces that the lot in the path belongs to the caller's tenant.
func WithLotChecker(checker auth.LotTenantChecker) Option {
	return func(h *Handler) {
		h.lotChecker = checker
	}
}

// WithAuditLogger records mutations.
func WithAuditLogger(logger audit.Logger) Option {
	return func(h *Handler) {
		h.auditLogger = logger
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMoneyFormat sets how rate cards render amounts.
func WithMoneyFormat(format MoneyFormat) Option {
	return func(h *Handler) {
		h.money = format
	}
}

// NewHandler constructs a Handler.
func NewHandler(quotes Quoter, plans PlanAuthor, configs ConfigStore, snapshots SnapshotRecorder, opts ...Option) (*Handler, error) {
	if quotes == nil {
		return nil, errors.New("tariff handler: nil quote service")
	}
	if plans == nil {
		return nil, errors.New("tariff handler: nil plan service")
	}
	if configs == nil {
		return nil, errors.New("tariff handler: nil config service")
	}
	if snapshots == nil {
		return nil, errors.New("tariff handler: nil snapshot service")
	}
	h := &Handler{
		quotes:    quotes,
		plans:     plans,
		configs:   configs,
		snapshots: snapshots,
		logger:    zap.NewNop(),
		money:     DefaultMoneyFormat,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Routes mounts the tariff endpoints under /lots/{lotID}.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/lots/{lotID}", func(r chi.Router) {
		r.Use(h.requireLotTenant)

		r.Post("/quotes", h.Quote)
		r.Post("/sessions/{sessionID}/pricing-snapshot", h.RecordPricingSnapshot)
		r.Get("/sessions/{sessionID}/pricing-snapshot", h.GetPricingSnapshot)

		r.Get("/pricing-config", h.GetConfig)
		r.Put("/pricing-config", h.PutConfig)

		r.Get("/plans", h.ListPlans)
		r.Post("/plans", h.CreatePlan)
		r.Route("/plans/{planID}", func(r chi.Router) {
			r.Get("/", h.GetPlan)
			r.Put("/rules", h.ReplaceRules)
			r.Post("/activate", h.ActivatePlan)
			r.Get("/ratecard.xlsx", h.ExportRateCardXLSX)
			r.Get("/ratecard.pdf", h.ExportRateCardPDF)
		})
	})
}

func (h *Handler) requireLotTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := auth.TenantIDFromContext(r.Context())
		if tenantID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if h.lotChecker != nil {
			if err := h.lotChecker.EnsureLotTenant(r.Context(), tenantID, chi.URLParam(r, "lotID")); err != nil {
				respondTenantError(w, err)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// loadPlan returns the plan only when it belongs to the lot in the path.
func (h *Handler) loadPlan(r *http.Request) (*application.PlanDetail, error) {
	detail, err := h.plans.GetPlan(r.Context(), auth.TenantIDFromContext(r.Context()), chi.URLParam(r, "planID"))
	if err != nil {
		return nil, err
	}
	if detail.Plan.LotID != chi.URLParam(r, "lotID") {
		return nil, tariff.ErrPlanNotFound
	}
	return detail, nil
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("tariff request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		http.Error(w, "internal error", status)
		return
	}
	if status == http.StatusUnprocessableEntity {
		writeJSON(w, status, map[string]string{
			"error": err.Error(),
			"kind":  application.ErrorKind(err),
		})
		return
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrTenantMismatch):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrNotFound),
		errors.Is(err, masterdata.ErrLotNotFound),
		errors.Is(err, tariff.ErrPlanNotFound):
		return http.StatusNotFound
	case errors.Is(err, tariff.ErrNoActivePlan),
		errors.Is(err, tariff.ErrConfigurationMissing),
		errors.Is(err, tariff.ErrNoApplicableRule),
		errors.Is(err, tariff.ErrAmbiguousRule):
		return http.StatusUnprocessableEntity
	case errors.Is(err, tariff.ErrInvalidInterval),
		errors.Is(err, tariff.ErrInvalidTimestamp),
		errors.Is(err, tariff.ErrInvalidVehicleType),
		errors.Is(err, tariff.ErrInvalidDayType),
		errors.Is(err, tariff.ErrInvalidPeriod),
		errors.Is(err, tariff.ErrInvalidBillingUnit),
		errors.Is(err, tariff.ErrInvalidRounding),
		errors.Is(err, tariff.ErrInvalidTimeOfDay),
		errors.Is(err, tariff.ErrInvalidRuleSet),
		errors.Is(err, tariff.ErrNegativeValue),
		errors.Is(err, tariff.ErrEmptyTenantID),
		errors.Is(err, tariff.ErrEmptyLotID),
		errors.Is(err, tariff.ErrEmptyPlanName),
		errors.Is(err, tariff.ErrEmptySessionID),
		errors.Is(err, tariff.ErrInvalidTimezone),
		errors.Is(err, masterdata.ErrInvalidTimezone):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondTenantError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, auth.ErrTenantMismatch) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if errors.Is(err, auth.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, "tenant check failed", http.StatusInternalServerError)
}

func (h *Handler) logAudit(r *http.Request, action, resourceType, resourceID string, metadata any) {
	if h.auditLogger == nil {
		return
	}
	entry := audit.FromRequest(r, action, resourceType, resourceID, chi.URLParam(r, "lotID"), metadata)
	if entry.TenantID == "" {
		return
	}
	if err := h.auditLogger.Log(r.Context(), entry); err != nil {
		h.logger.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
