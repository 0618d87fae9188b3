package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"parking-cloud/internal/audit"
	"parking-cloud/internal/auth"
	masterdata "parking-cloud/internal/masterdata/domain"
	"parking-cloud/internal/tariff/application"
	tariff "parking-cloud/internal/tariff/domain"
)

type stubQuoter struct {
	last  application.QuoteRequest
	quote tariff.Quote
	err   error
}

func (s *stubQuoter) Quote(_ context.Context, req application.QuoteRequest) (tariff.Quote, error) {
	s.last = req
	return s.quote, s.err
}

type stubPlans struct {
	detail      *application.PlanDetail
	created     *application.CreatePlanInput
	replaced    []tariff.TariffRule
	activated   string
	err         error
	activateErr error
}

func (s *stubPlans) CreatePlan(_ context.Context, in application.CreatePlanInput) (*application.PlanDetail, error) {
	s.created = &in
	if s.err != nil {
		return nil, s.err
	}
	detail := &application.PlanDetail{
		Plan:  tariff.TariffPlan{ID: "plan-new", TenantID: in.TenantID, LotID: in.LotID, Name: in.Name, Active: in.Activate},
		Rules: in.Rules,
	}
	if in.Activate && s.activateErr != nil {
		detail.Plan.Active = false
		return detail, s.activateErr
	}
	return detail, nil
}

func (s *stubPlans) ReplaceRules(_ context.Context, _ string, _ string, rules []tariff.TariffRule) (*application.PlanDetail, error) {
	s.replaced = rules
	if s.err != nil {
		return nil, s.err
	}
	return &application.PlanDetail{Plan: s.detail.Plan, Rules: rules}, nil
}

func (s *stubPlans) ActivatePlan(_ context.Context, _ string, planID string) (*tariff.TariffPlan, error) {
	s.activated = planID
	if s.err != nil {
		return nil, s.err
	}
	plan := s.detail.Plan
	plan.Active = true
	return &plan, nil
}

func (s *stubPlans) ListPlans(_ context.Context, _, _ string) ([]tariff.TariffPlan, error) {
	return []tariff.TariffPlan{s.detail.Plan}, nil
}

func (s *stubPlans) GetPlan(_ context.Context, _ string, planID string) (*application.PlanDetail, error) {
	if s.detail == nil || s.detail.Plan.ID != planID {
		return nil, tariff.ErrPlanNotFound
	}
	return s.detail, nil
}

type stubConfigs struct {
	cfg *tariff.PricingConfig
}

func (s *stubConfigs) Get(_ context.Context, _, _ string) (*tariff.PricingConfig, error) {
	if s.cfg == nil {
		return nil, tariff.ErrConfigurationMissing
	}
	return s.cfg, nil
}

func (s *stubConfigs) Upsert(_ context.Context, cfg tariff.PricingConfig) (*tariff.PricingConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s.cfg = &cfg
	return &cfg, nil
}

type stubSnapshots struct {
	stored map[string]*tariff.PricingSnapshot
}

func (s *stubSnapshots) Record(_ context.Context, sessionID string, req application.QuoteRequest) (*tariff.PricingSnapshot, bool, error) {
	if sessionID == "" {
		return nil, false, tariff.ErrEmptySessionID
	}
	if existing, ok := s.stored[sessionID]; ok {
		return existing, false, nil
	}
	snapshot := &tariff.PricingSnapshot{ID: "snap-" + sessionID, TenantID: req.TenantID, LotID: req.LotID, SessionID: sessionID, PlanID: "plan-1", Total: 4200}
	s.stored[sessionID] = snapshot
	return snapshot, true, nil
}

func (s *stubSnapshots) Get(_ context.Context, _, _, sessionID string) (*tariff.PricingSnapshot, error) {
	return s.stored[sessionID], nil
}

type stubLotChecker struct{}

func (stubLotChecker) EnsureLotTenant(_ context.Context, tenantID, lotID string) error {
	switch {
	case lotID == "missing":
		return auth.ErrNotFound
	case tenantID != "tenant-a":
		return auth.ErrTenantMismatch
	}
	return nil
}

type recordingAudit struct {
	entries []audit.Entry
}

func (r *recordingAudit) Log(_ context.Context, entry audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

type fixture struct {
	router    http.Handler
	quoter    *stubQuoter
	plans     *stubPlans
	configs   *stubConfigs
	snapshots *stubSnapshots
	audit     *recordingAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		quoter: &stubQuoter{quote: tariff.Quote{PlanID: "plan-1", Total: 4200}},
		plans: &stubPlans{detail: &application.PlanDetail{
			Plan:  tariff.TariffPlan{ID: "plan-1", TenantID: "tenant-a", LotID: "lot-1", Name: "standard"},
			Rules: []tariff.TariffRule{sampleRule()},
		}},
		configs:   &stubConfigs{},
		snapshots: &stubSnapshots{stored: map[string]*tariff.PricingSnapshot{}},
		audit:     &recordingAudit{},
	}
	h, err := NewHandler(f.quoter, f.plans, f.configs, f.snapshots,
		WithLotChecker(stubLotChecker{}),
		WithAuditLogger(f.audit),
		WithMoneyFormat(MoneyFormat{Currency: "COP", Exponent: 0}),
	)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	r := chi.NewRouter()
	h.Routes(r)
	f.router = r
	return f
}

func sampleRule() tariff.TariffRule {
	minimum := int64(1500)
	return tariff.TariffRule{
		ID:            "r1",
		PlanID:        "plan-1",
		VehicleType:   tariff.VehicleCar,
		DayType:       tariff.DayWeekday,
		Period:        tariff.PeriodDay,
		StartTime:     tariff.MustTimeOfDay("06:00"),
		EndTime:       tariff.MustTimeOfDay("19:00"),
		BillingUnit:   tariff.UnitHour,
		UnitPrice:     3000,
		MinimumCharge: &minimum,
		Rounding:      tariff.RoundCeil,
		Active:        true,
	}
}

func (f *fixture) do(t *testing.T, tenantID, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if tenantID != "" {
		req = req.WithContext(auth.WithIdentity(req.Context(), tenantID, auth.RoleAdmin, "user-1"))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestQuote(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "tenant-a", http.MethodPost, "/lots/lot-1/quotes",
		`{"vehicle_type":"CAR","entry_at":"2026-03-02T08:00:00-05:00","exit_at":"2026-03-02T10:30:00-05:00"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var quote tariff.Quote
	if err := json.Unmarshal(rec.Body.Bytes(), &quote); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if quote.Total != 4200 {
		t.Fatalf("unexpected total %d", quote.Total)
	}
	if f.quoter.last.TenantID != "tenant-a" || f.quoter.last.LotID != "lot-1" {
		t.Fatalf("tenant/lot not taken from context and path: %+v", f.quoter.last)
	}
	want := time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC)
	if !f.quoter.last.EntryAt.Equal(want) {
		t.Fatalf("entry parsed as %s", f.quoter.last.EntryAt)
	}
}

func TestQuote_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid interval", tariff.ErrInvalidInterval, http.StatusBadRequest},
		{"invalid timestamp", tariff.ErrInvalidTimestamp, http.StatusBadRequest},
		{"no plan", tariff.ErrNoActivePlan, http.StatusUnprocessableEntity},
		{"config missing", tariff.ErrConfigurationMissing, http.StatusUnprocessableEntity},
		{"no rule", &tariff.RuleLookupError{Err: tariff.ErrNoApplicableRule}, http.StatusUnprocessableEntity},
		{"ambiguous", &tariff.RuleLookupError{Err: tariff.ErrAmbiguousRule, Matches: 2}, http.StatusUnprocessableEntity},
		{"lot missing", masterdata.ErrLotNotFound, http.StatusNotFound},
		{"storage", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.quoter.err = tc.err
			rec := f.do(t, "tenant-a", http.MethodPost, "/lots/lot-1/quotes",
				`{"vehicle_type":"CAR","entry_at":"2026-03-02T08:00:00Z","exit_at":"2026-03-02T10:00:00Z"}`)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, rec.Code, rec.Body.String())
			}
			if tc.code == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "connection reset") {
				t.Fatalf("internal error leaked: %s", rec.Body.String())
			}
		})
	}
}

func TestQuote_RejectsInstantWithoutOffset(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "tenant-a", http.MethodPost, "/lots/lot-1/quotes",
		`{"vehicle_type":"CAR","entry_at":"2026-03-02T08:00:00","exit_at":"2026-03-02T10:00:00Z"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid timestamp") || !strings.Contains(rec.Body.String(), "entry_at") {
		t.Fatalf("expected timestamp error naming entry_at, got %q", rec.Body.String())
	}
	if f.quoter.last.LotID != "" {
		t.Fatalf("malformed request reached the quoter: %+v", f.quoter.last)
	}

	rec = f.do(t, "tenant-a", http.MethodPost, "/lots/lot-1/quotes",
		`{"vehicle_type":"CAR","entry_at":"2026-03-02T08:00:00Z","exit_at":"tomorrow"}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "exit_at") {
		t.Fatalf("expected 400 naming exit_at, got %d %q", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), tariff.ErrInvalidInterval.Error()) {
		t.Fatalf("timestamp error reported as interval error: %q", rec.Body.String())
	}
}

func TestLotTenantEnforced(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(t, "tenant-b", http.MethodPost, "/lots/lot-1/quotes", `{}`); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if rec := f.do(t, "tenant-a", http.MethodGet, "/lots/missing/plans", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := f.do(t, "", http.MethodGet, "/lots/lot-1/plans", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestPricingSnapshot_RecordOnce(t *testing.T) {
	f := newFixture(t)
	body := `{"vehicle_type":"CAR","entry_at":"2026-03-02T08:00:00Z","exit_at":"2026-03-02T10:00:00Z"}`
	first := f.do(t, "tenant-a", http.MethodPost, "/lots/lot-1/sessions/s-1/pricing-snapshot", body)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", first.Code, first.Body.String())
	}
	second := f.do(t, "tenant-a", http.MethodPost, "/lots/lot-1/sessions/s-1/pricing-snapshot", body)
	if second.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeat, got %d", second.Code)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != audit.ActionPricingSnapshot {
		t.Fatalf("expected one audit entry, got %+v", f.audit.entries)
	}
	get := f.do(t, "tenant-a", http.MethodGet, "/lots/lot-1/sessions/s-1/pricing-snapshot", "")
	if get.Code != http.StatusOK {
		t.Fatalf("expected 200 on get, got %d", get.Code)
	}
	if missing := f.do(t, "tenant-a", http.MethodGet, "/lots/lot-1/sessions/s-9/pricing-snapshot", ""); missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.Code)
	}
}

func TestCreatePlan(t *testing.T) {
	f := newFixture(t)
	body := `{"name":"summer","activate":true,"rules":[
		{"vehicle_type":"car","day_type":"WEEKDAY","period":"DAY","start_time":"06:00","end_time":"19:00","billing_unit":"HOUR","unit_price":3000},
		{"vehicle_type":"CAR","day_type":"WEEKDAY","period":"NIGHT","start_time":"19:00","end_time":"06:00","billing_unit":"HOUR","unit_price":2000,"rounding":"FLOOR","active":false}
	]}`
	rec := f.do(t, "tenant-a", http.MethodPost, "/lots/lot-1/plans", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	in := f.plans.created
	if in == nil || in.LotID != "lot-1" || !in.Activate || len(in.Rules) != 2 {
		t.Fatalf("unexpected create input: %+v", in)
	}
	if in.Rules[0].Rounding != tariff.RoundCeil || !in.Rules[0].Active {
		t.Fatalf("rule defaults not applied: %+v", in.Rules[0])
	}
	if in.Rules[1].Active {
		t.Fatalf("explicit inactive rule lost")
	}
	if len(f.audit.entries) != 2 {
		t.Fatalf("expected create and activate audit entries, got %d", len(f.audit.entries))
	}
}

func TestCreatePlan_ActivationFailureAuditsStoredPlan(t *testing.T) {
	f := newFixture(t)
	f.plans.activateErr = fmt.Errorf("plan plan-new created but not activated: %w", tariff.ErrInvalidRuleSet)
	rec := f.do(t, "tenant-a", http.MethodPost, "/lots/lot-1/plans", `{"name":"empty","activate":true,"rules":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "plan-new") {
		t.Fatalf("response should name the stored plan: %s", rec.Body.String())
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != audit.ActionPlanCreate || f.audit.entries[0].ResourceID != "plan-new" {
		t.Fatalf("expected a single create audit entry, got %+v", f.audit.entries)
	}
}

func TestCreatePlan_InvalidRule(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "tenant-a", http.MethodPost, "/lots/lot-1/plans",
		`{"name":"x","rules":[{"vehicle_type":"TANK","day_type":"WEEKDAY","period":"DAY","start_time":"06:00","end_time":"19:00","billing_unit":"HOUR","unit_price":1}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	f.plans.err = &tariff.RuleSetError{Issues: []string{"CAR/WEEKDAY: gap 19:00-06:00"}}
	rec = f.do(t, "tenant-a", http.MethodPost, "/lots/lot-1/plans",
		`{"name":"x","rules":[{"vehicle_type":"CAR","day_type":"WEEKDAY","period":"DAY","start_time":"06:00","end_time":"19:00","billing_unit":"HOUR","unit_price":1}]}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "gap") {
		t.Fatalf("expected 400 with rule set issues, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPlanRoutes(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(t, "tenant-a", http.MethodGet, "/lots/lot-1/plans/plan-1", ""); rec.Code != http.StatusOK {
		t.Fatalf("get plan: %d", rec.Code)
	}
	if rec := f.do(t, "tenant-a", http.MethodGet, "/lots/lot-2/plans/plan-1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("plan of another lot should be 404, got %d", rec.Code)
	}
	rec := f.do(t, "tenant-a", http.MethodPut, "/lots/lot-1/plans/plan-1/rules",
		`{"rules":[{"vehicle_type":"CAR","day_type":"WEEKDAY","period":"DAY","start_time":"00:00","end_time":"00:00","billing_unit":"DAY","unit_price":20000}]}`)
	if rec.Code != http.StatusOK || len(f.plans.replaced) != 1 {
		t.Fatalf("replace rules: %d %s", rec.Code, rec.Body.String())
	}
	rec = f.do(t, "tenant-a", http.MethodPost, "/lots/lot-1/plans/plan-1/activate", "")
	if rec.Code != http.StatusOK || f.plans.activated != "plan-1" {
		t.Fatalf("activate: %d", rec.Code)
	}
	if rec := f.do(t, "tenant-a", http.MethodGet, "/lots/lot-1/plans", ""); rec.Code != http.StatusOK {
		t.Fatalf("list plans: %d", rec.Code)
	}
}

func TestPricingConfig(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(t, "tenant-a", http.MethodGet, "/lots/lot-1/pricing-config", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing config, got %d", rec.Code)
	}
	rec := f.do(t, "tenant-a", http.MethodPut, "/lots/lot-1/pricing-config", `{"grace_minutes":15,"daily_max":50000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put config: %d %s", rec.Code, rec.Body.String())
	}
	if f.configs.cfg.GraceMinutes != 15 || f.configs.cfg.LotID != "lot-1" {
		t.Fatalf("unexpected config: %+v", f.configs.cfg)
	}
	if rec := f.do(t, "tenant-a", http.MethodPut, "/lots/lot-1/pricing-config", `{"grace_minutes":-1}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative grace, got %d", rec.Code)
	}
}

func TestRateCardExports(t *testing.T) {
	f := newFixture(t)
	xlsx := f.do(t, "tenant-a", http.MethodGet, "/lots/lot-1/plans/plan-1/ratecard.xlsx", "")
	if xlsx.Code != http.StatusOK || xlsx.Body.Len() == 0 {
		t.Fatalf("xlsx export: %d", xlsx.Code)
	}
	if !bytes.HasPrefix(xlsx.Body.Bytes(), []byte("PK")) {
		t.Fatalf("xlsx is not a zip container")
	}
	pdf := f.do(t, "tenant-a", http.MethodGet, "/lots/lot-1/plans/plan-1/ratecard.pdf", "")
	if pdf.Code != http.StatusOK || !bytes.HasPrefix(pdf.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("pdf export: %d", pdf.Code)
	}
	if got := pdf.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("content type %s", got)
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := []struct {
		format MoneyFormat
		amount int64
		want   string
	}{
		{MoneyFormat{Exponent: 2}, 350000, "3500.00"},
		{MoneyFormat{Currency: "USD", Exponent: 2}, 5, "0.05 USD"},
		{MoneyFormat{Currency: "COP", Exponent: 0}, 3000, "3000 COP"},
	}
	for _, tc := range cases {
		if got := tc.format.Format(tc.amount); got != tc.want {
			t.Fatalf("Format(%d) = %q, want %q", tc.amount, got, tc.want)
		}
	}
	row := rateCardRow(sampleRule(), MoneyFormat{Currency: "COP"})
	if row[3] != "06:00-19:00" || row[6] != "1500 COP" || row[7] != "-" || row[8] != "lot default" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestNewHandler_RequiresServices(t *testing.T) {
	if _, err := NewHandler(nil, &stubPlans{}, &stubConfigs{}, &stubSnapshots{}); err == nil {
		t.Fatalf("expected error for nil quoter")
	}
}
