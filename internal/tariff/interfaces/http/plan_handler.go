package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"parking-cloud/internal/audit"
	"parking-cloud/internal/auth"
	"parking-cloud/internal/tariff/application"
	tariff "parking-cloud/internal/tariff/domain"
)

type ruleRequest struct {
	VehicleType   string `json:"vehicle_type"`
	DayType       string `json:"day_type"`
	Period        string `json:"period"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	BillingUnit   string `json:"billing_unit"`
	UnitPrice     int64  `json:"unit_price"`
	MinimumCharge *int64 `json:"minimum_charge,omitempty"`
	DailyMax      *int64 `json:"daily_max,omitempty"`
	GraceMinutes  *int   `json:"grace_minutes,omitempty"`
	Rounding      string `json:"rounding"`
	Active        *bool  `json:"active,omitempty"`
}

func (req ruleRequest) rule() (tariff.TariffRule, error) {
	var (
		rule tariff.TariffRule
		err  error
	)
	if rule.VehicleType, err = tariff.ParseVehicleType(req.VehicleType); err != nil {
		return rule, err
	}
	if rule.DayType, err = tariff.ParseDayType(req.DayType); err != nil {
		return rule, err
	}
	if rule.Period, err = tariff.ParsePeriod(req.Period); err != nil {
		return rule, err
	}
	if rule.StartTime, err = tariff.ParseTimeOfDay(req.StartTime); err != nil {
		return rule, err
	}
	if rule.EndTime, err = tariff.ParseTimeOfDay(req.EndTime); err != nil {
		return rule, err
	}
	if rule.BillingUnit, err = tariff.ParseBillingUnit(req.BillingUnit); err != nil {
		return rule, err
	}
	rounding := req.Rounding
	if strings.TrimSpace(rounding) == "" {
		rounding = string(tariff.RoundCeil)
	}
	if rule.Rounding, err = tariff.ParseRoundingMode(rounding); err != nil {
		return rule, err
	}
	rule.UnitPrice = req.UnitPrice
	rule.MinimumCharge = req.MinimumCharge
	rule.DailyMax = req.DailyMax
	rule.GraceMinutes = req.GraceMinutes
	rule.Active = req.Active == nil || *req.Active
	return rule, nil
}

func toRules(reqs []ruleRequest) ([]tariff.TariffRule, error) {
	rules := make([]tariff.TariffRule, 0, len(reqs))
	for _, req := range reqs {
		rule, err := req.rule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// ListPlans handles GET /lots/{lotID}/plans.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.ListPlans(r.Context(), auth.TenantIDFromContext(r.Context()), chi.URLParam(r, "lotID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": plans})
}

// CreatePlan handles POST /lots/{lotID}/plans.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string        `json:"name"`
		Timezone string        `json:"timezone"`
		Rules    []ruleRequest `json:"rules"`
		Activate bool          `json:"activate"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	rules, err := toRules(req.Rules)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	detail, err := h.plans.CreatePlan(r.Context(), application.CreatePlanInput{
		TenantID: auth.TenantIDFromContext(r.Context()),
		LotID:    chi.URLParam(r, "lotID"),
		Name:     req.Name,
		Timezone: req.Timezone,
		Rules:    rules,
		Activate: req.Activate,
	})
	if err != nil {
		if detail != nil {
			h.logAudit(r, audit.ActionPlanCreate, audit.ResourceTariffPlan, detail.Plan.ID, map[string]any{
				"name":     detail.Plan.Name,
				"rules":    len(detail.Rules),
				"activate": false,
			})
		}
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
	h.logAudit(r, audit.ActionPlanCreate, audit.ResourceTariffPlan, detail.Plan.ID, map[string]any{
		"name":     detail.Plan.Name,
		"rules":    len(detail.Rules),
		"activate": req.Activate,
	})
	if req.Activate {
		h.logAudit(r, audit.ActionPlanActivate, audit.ResourceTariffPlan, detail.Plan.ID, nil)
	}
}

// GetPlan handles GET /lots/{lotID}/plans/{planID}.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	detail, err := h.loadPlan(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ReplaceRules handles PUT /lots/{lotID}/plans/{planID}/rules.
func (h *Handler) ReplaceRules(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rules []ruleRequest `json:"rules"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if _, err := h.loadPlan(r); err != nil {
		h.respondError(w, r, err)
		return
	}
	rules, err := toRules(req.Rules)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	detail, err := h.plans.ReplaceRules(r.Context(), auth.TenantIDFromContext(r.Context()), chi.URLParam(r, "planID"), rules)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
	h.logAudit(r, audit.ActionRulesReplace, audit.ResourceTariffPlan, detail.Plan.ID, map[string]any{
		"rules":  len(detail.Rules),
		"active": detail.Plan.Active,
	})
}

// ActivatePlan handles POST /lots/{lotID}/plans/{planID}/activate.
func (h *Handler) ActivatePlan(w http.ResponseWriter, r *http.Request) {
	if _, err := h.loadPlan(r); err != nil {
		h.respondError(w, r, err)
		return
	}
	plan, err := h.plans.ActivatePlan(r.Context(), auth.TenantIDFromContext(r.Context()), chi.URLParam(r, "planID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
	h.logAudit(r, audit.ActionPlanActivate, audit.ResourceTariffPlan, plan.ID, nil)
}

// GetConfig handles GET /lots/{lotID}/pricing-config.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configs.Get(r.Context(), auth.TenantIDFromContext(r.Context()), chi.URLParam(r, "lotID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// PutConfig handles PUT /lots/{lotID}/pricing-config.
func (h *Handler) PutConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GraceMinutes          int    `json:"grace_minutes"`
		DailyMax              *int64 `json:"daily_max"`
		LostTicketFee         *int64 `json:"lost_ticket_fee"`
		DynamicPricingEnabled bool   `json:"dynamic_pricing_enabled"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	cfg, err := h.configs.Upsert(r.Context(), tariff.PricingConfig{
		TenantID:              auth.TenantIDFromContext(r.Context()),
		LotID:                 chi.URLParam(r, "lotID"),
		GraceMinutes:          req.GraceMinutes,
		DailyMax:              req.DailyMax,
		LostTicketFee:         req.LostTicketFee,
		DynamicPricingEnabled: req.DynamicPricingEnabled,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
	h.logAudit(r, audit.ActionConfigUpsert, audit.ResourcePricingConfig, cfg.LotID, req)
}
