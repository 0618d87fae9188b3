package apihttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parking-cloud/internal/auth"
	"parking-cloud/internal/tariff/application"
	tariff "parking-cloud/internal/tariff/domain"
	tariffhttp "parking-cloud/internal/tariff/interfaces/http"
)

type nopQuoter struct{}

func (nopQuoter) Quote(context.Context, application.QuoteRequest) (tariff.Quote, error) {
	return tariff.Quote{Total: 100}, nil
}

type nopPlans struct{}

func (nopPlans) CreatePlan(context.Context, application.CreatePlanInput) (*application.PlanDetail, error) {
	return nil, errors.New("not implemented")
}

func (nopPlans) ReplaceRules(context.Context, string, string, []tariff.TariffRule) (*application.PlanDetail, error) {
	return nil, errors.New("not implemented")
}

func (nopPlans) ActivatePlan(context.Context, string, string) (*tariff.TariffPlan, error) {
	return nil, errors.New("not implemented")
}

func (nopPlans) ListPlans(context.Context, string, string) ([]tariff.TariffPlan, error) {
	return []tariff.TariffPlan{}, nil
}

func (nopPlans) GetPlan(context.Context, string, string) (*application.PlanDetail, error) {
	return nil, tariff.ErrPlanNotFound
}

type nopConfigs struct{}

func (nopConfigs) Get(context.Context, string, string) (*tariff.PricingConfig, error) {
	return nil, tariff.ErrConfigurationMissing
}

func (nopConfigs) Upsert(_ context.Context, cfg tariff.PricingConfig) (*tariff.PricingConfig, error) {
	return &cfg, nil
}

type nopSnapshots struct{}

func (nopSnapshots) Record(context.Context, string, application.QuoteRequest) (*tariff.PricingSnapshot, bool, error) {
	return nil, false, errors.New("not implemented")
}

func (nopSnapshots) Get(context.Context, string, string, string) (*tariff.PricingSnapshot, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, ready func(context.Context) error) http.Handler {
	t.Helper()
	h, err := tariffhttp.NewHandler(nopQuoter{}, nopPlans{}, nopConfigs{}, nopSnapshots{})
	if err != nil {
		t.Fatalf("tariff handler: %v", err)
	}
	mw := auth.NewMiddleware([]byte("secret"), auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil), nil)
	return NewRouter(RouterConfig{Auth: mw, Tariff: h, Ready: ready})
}

func TestRouter_HealthAndMetricsAreOpen(t *testing.T) {
	router := newTestRouter(t, nil)
	for _, path := range []string{"/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouter_HealthReportsNotReady(t *testing.T) {
	router := newTestRouter(t, func(context.Context) error { return errors.New("db down") })
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRouter_APIRequiresToken(t *testing.T) {
	router := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/lots/lot-1/plans", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	token, err := auth.IssueJWT([]byte("secret"), "tenant-a", "viewer", "user-1", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/lots/lot-1/plans", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/lots/lot-1/plans", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("viewer creating a plan: expected 403, got %d", rec.Code)
	}
}
