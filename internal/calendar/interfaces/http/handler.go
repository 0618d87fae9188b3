package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"parking-cloud/internal/audit"
	calendarapp "parking-cloud/internal/calendar/application"
	calendar "parking-cloud/internal/calendar/domain"
)

// Handler serves holiday calendar endpoints.
type Handler struct {
	service     *calendarapp.Service
	auditLogger audit.Logger
	logger      *zap.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *calendarapp.Service, auditLogger audit.Logger, logger *zap.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("calendar handler: nil service")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, auditLogger: auditLogger, logger: logger}, nil
}

// List handles GET /holidays?country=CO&from=2026-01-01&to=2026-12-31.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	country := strings.TrimSpace(query.Get("country"))
	from := query.Get("from")
	to := query.Get("to")
	if country == "" || from == "" || to == "" {
		http.Error(w, "country, from and to are required", http.StatusBadRequest)
		return
	}
	holidays, err := h.service.List(r.Context(), country, from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if holidays == nil {
		holidays = []calendar.Holiday{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"holidays": holidays})
}

// Upsert handles PUT /holidays.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Holidays []calendar.Holiday `json:"holidays"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.service.Upsert(r.Context(), req.Holidays); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, req.Holidays)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calendar.ErrInvalidCountry),
		errors.Is(err, calendar.ErrInvalidDate),
		errors.Is(err, calendar.ErrInvalidRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("holiday request failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) logAudit(r *http.Request, holidays []calendar.Holiday) {
	if h.auditLogger == nil || len(holidays) == 0 {
		return
	}
	entry := audit.FromRequest(r, audit.ActionHolidayUpsert, audit.ResourceHoliday, holidays[0].CountryCode, "", map[string]any{
		"count":   len(holidays),
		"country": holidays[0].CountryCode,
	})
	if entry.TenantID == "" {
		return
	}
	if err := h.auditLogger.Log(r.Context(), entry); err != nil {
		h.logger.Warn("audit log failed", zap.String("action", entry.Action), zap.Error(err))
	}
}
