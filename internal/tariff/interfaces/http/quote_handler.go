package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"parking-cloud/internal/audit"
	"parking-cloud/internal/auth"
	"parking-cloud/internal/observability/metrics"
	"parking-cloud/internal/tariff/application"
	tariff "parking-cloud/internal/tariff/domain"
)

type quoteRequest struct {
	VehicleType string `json:"vehicle_type"`
	EntryAt     string `json:"entry_at"`
	ExitAt      string `json:"exit_at"`
	LostTicket  bool   `json:"lost_ticket"`
}

func (q quoteRequest) toApplication(r *http.Request) (application.QuoteRequest, error) {
	entryAt, err := parseInstant("entry_at", q.EntryAt)
	if err != nil {
		return application.QuoteRequest{}, err
	}
	exitAt, err := parseInstant("exit_at", q.ExitAt)
	if err != nil {
		return application.QuoteRequest{}, err
	}
	return application.QuoteRequest{
		TenantID:    auth.TenantIDFromContext(r.Context()),
		LotID:       chi.URLParam(r, "lotID"),
		VehicleType: q.VehicleType,
		EntryAt:     entryAt,
		ExitAt:      exitAt,
		LostTicket:  q.LostTicket,
	}, nil
}

// parseInstant accepts RFC 3339 with an explicit offset; wall-clock times
// without a zone are ambiguous and rejected.
func parseInstant(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC 3339 with an offset", tariff.ErrInvalidTimestamp, field)
	}
	return t, nil
}

// Quote handles POST /lots/{lotID}/quotes.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	in, err := req.toApplication(r)
	if err != nil {
		metrics.IncQuoteError(application.ErrorKind(err))
		h.respondError(w, r, err)
		return
	}
	quote, err := h.quotes.Quote(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// RecordPricingSnapshot handles POST /lots/{lotID}/sessions/{sessionID}/pricing-snapshot.
// The first call for a session stores the quote and answers 201; repeats return
// the stored snapshot with 200.
func (h *Handler) RecordPricingSnapshot(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	in, err := req.toApplication(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	snapshot, created, err := h.snapshots.Record(r.Context(), sessionID, in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.logAudit(r, audit.ActionPricingSnapshot, audit.ResourcePricingSnapshot, snapshot.ID, map[string]any{
			"session_id": sessionID,
			"plan_id":    snapshot.PlanID,
			"total":      snapshot.Total,
			"digest":     snapshot.Digest,
		})
	}
	writeJSON(w, status, snapshot)
}

// GetPricingSnapshot handles GET /lots/{lotID}/sessions/{sessionID}/pricing-snapshot.
func (h *Handler) GetPricingSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.snapshots.Get(r.Context(),
		auth.TenantIDFromContext(r.Context()),
		chi.URLParam(r, "lotID"),
		chi.URLParam(r, "sessionID"),
	)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if snapshot == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}
