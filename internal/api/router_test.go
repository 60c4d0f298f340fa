package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/cargoflow/pricing-api/internal/core/domain"
	"github.com/cargoflow/pricing-api/internal/core/service"
	"github.com/cargoflow/pricing-api/pkg/password"
	"github.com/cargoflow/pricing-api/pkg/token"
)

// ---------------------------------------------------------------------------
// In-memory repositories backing a fully wired router
// ---------------------------------------------------------------------------

type memUserRepo struct {
	users  map[string]*domain.User
	nextID int
}

func (r *memUserRepo) Insert(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrDuplicateEmail
	}
	clone := *user
	r.nextID++
	clone.ID = "user_" + strconv.Itoa(r.nextID)
	stored := clone
	r.users[clone.Email] = &stored
	return &clone, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

type memPricingRepo struct {
	rules  map[domain.CargoType]*domain.PricingRule
	nextID int
}

func (r *memPricingRepo) Insert(_ context.Context, rule *domain.PricingRule) (*domain.PricingRule, error) {
	if _, exists := r.rules[rule.CargoType]; exists {
		return nil, domain.ErrDuplicateRule
	}
	clone := *rule
	r.nextID++
	clone.ID = "rule_" + strconv.Itoa(r.nextID)
	stored := clone
	r.rules[clone.CargoType] = &stored
	return &clone, nil
}

func (r *memPricingRepo) FindByCargoType(_ context.Context, ct domain.CargoType) (*domain.PricingRule, error) {
	rule, ok := r.rules[ct]
	if !ok {
		return nil, domain.ErrRuleNotFound
	}
	clone := *rule
	return &clone, nil
}

func (r *memPricingRepo) Upsert(_ context.Context, rule *domain.PricingRule) (*domain.PricingRule, error) {
	clone := *rule
	if existing, ok := r.rules[rule.CargoType]; ok {
		clone.ID = existing.ID
	} else {
		r.nextID++
		clone.ID = "rule_" + strconv.Itoa(r.nextID)
	}
	stored := clone
	r.rules[clone.CargoType] = &stored
	return &clone, nil
}

func (r *memPricingRepo) Delete(_ context.Context, id string) error {
	for ct, rule := range r.rules {
		if rule.ID == id {
			delete(r.rules, ct)
			return nil
		}
	}
	return domain.ErrRuleNotFound
}

func (r *memPricingRepo) List(_ context.Context, offset, limit int) ([]domain.PricingRule, int64, error) {
	all := make([]domain.PricingRule, 0, len(r.rules))
	for _, rule := range r.rules {
		all = append(all, *rule)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

type nopAudit struct{}

func (nopAudit) Record(domain.AuditEntry) {}

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()

	issuer, err := token.NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	authSvc, err := service.NewAuthService(
		&memUserRepo{users: make(map[string]*domain.User)},
		password.NewHasher(4),
		issuer,
		nopAudit{},
		zerolog.Nop(),
	)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}

	pricingSvc := service.NewPricingService(
		&memPricingRepo{rules: make(map[domain.CargoType]*domain.PricingRule)},
		nil,
		nopAudit{},
		zerolog.Nop(),
	)

	return NewRouter(Deps{
		Auth:     authSvc,
		Pricing:  pricingSvc,
		Tokens:   issuer,
		Logger:   zerolog.Nop(),
		Registry: prometheus.NewRegistry(),
	})
}

func doJSON(e *echo.Echo, method, path, body, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func loginToken(t *testing.T, e *echo.Echo, email, pass string) string {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/auth/login", `{"email":"`+email+`","password":"`+pass+`"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("empty token in login response")
	}
	return resp.Token
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestRouter_RegisterLoginAndAdminAccess(t *testing.T) {
	e := newTestRouter(t)

	rec := doJSON(e, http.MethodPost, "/auth/register", `{"email":"a@x.com","password":"secret1","role":"admin"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("register response leaks password material: %s", rec.Body.String())
	}

	admin := loginToken(t, e, "a@x.com", "secret1")

	// Admin-only route with the token succeeds.
	rec = doJSON(e, http.MethodPost, "/v1/pricing", `{"cargo_type":"general","base_price":10,"weight_multiplier":1,"distance_multiplier":1}`, admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create rule: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Same route with no token is rejected outright.
	rec = doJSON(e, http.MethodPost, "/v1/pricing", `{"cargo_type":"fragile","base_price":10}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rec.Code)
	}
}

func TestRouter_RoleEnforcement(t *testing.T) {
	e := newTestRouter(t)

	for _, body := range []string{
		`{"email":"admin@x.com","password":"secret1","role":"admin"}`,
		`{"email":"ship@x.com","password":"secret1","role":"shipper"}`,
		`{"email":"carry@x.com","password":"secret1","role":"carrier"}`,
	} {
		if rec := doJSON(e, http.MethodPost, "/auth/register", body, ""); rec.Code != http.StatusCreated {
			t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	admin := loginToken(t, e, "admin@x.com", "secret1")
	shipper := loginToken(t, e, "ship@x.com", "secret1")
	carrier := loginToken(t, e, "carry@x.com", "secret1")

	rec := doJSON(e, http.MethodPost, "/v1/pricing", `{"cargo_type":"general","base_price":50,"weight_multiplier":2,"distance_multiplier":1}`, admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Shipper may not manage rules but may request quotes.
	rec = doJSON(e, http.MethodPost, "/v1/pricing", `{"cargo_type":"fragile","base_price":10}`, shipper)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("shipper create: expected 403, got %d", rec.Code)
	}
	rec = doJSON(e, http.MethodPost, "/v1/pricing/calculate", `{"cargo_type":"general","weight":5,"distance":10}`, shipper)
	if rec.Code != http.StatusOK {
		t.Fatalf("shipper quote: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var quote struct {
		Cost float64 `json:"cost"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &quote); err != nil {
		t.Fatalf("invalid quote response: %v", err)
	}
	if want := 50 + 5*2 + 10*1.0; quote.Cost != want {
		t.Fatalf("cost = %v, want %v", quote.Cost, want)
	}

	// Carrier may list but not quote.
	rec = doJSON(e, http.MethodPost, "/v1/pricing/calculate", `{"cargo_type":"general","weight":5,"distance":10}`, carrier)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("carrier quote: expected 403, got %d", rec.Code)
	}
	rec = doJSON(e, http.MethodGet, "/v1/pricing", "", carrier)
	if rec.Code != http.StatusOK {
		t.Fatalf("carrier list: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_DuplicateRegistration(t *testing.T) {
	e := newTestRouter(t)

	if rec := doJSON(e, http.MethodPost, "/auth/register", `{"email":"dup@x.com","password":"secret1","role":"shipper"}`, ""); rec.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", rec.Code)
	}
	// A different password and role change nothing.
	rec := doJSON(e, http.MethodPost, "/auth/register", `{"email":"dup@x.com","password":"other66","role":"carrier"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("second register: expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_LoginFailuresAreIndistinguishable(t *testing.T) {
	e := newTestRouter(t)

	if rec := doJSON(e, http.MethodPost, "/auth/register", `{"email":"real@x.com","password":"secret1","role":"shipper"}`, ""); rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}

	wrongPass := doJSON(e, http.MethodPost, "/auth/login", `{"email":"real@x.com","password":"nope123"}`, "")
	noUser := doJSON(e, http.MethodPost, "/auth/login", `{"email":"ghost@x.com","password":"nope123"}`, "")

	if wrongPass.Code != http.StatusUnauthorized || noUser.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPass.Code, noUser.Code)
	}
	// Identical bodies: the response must not reveal which emails exist.
	if wrongPass.Body.String() != noUser.Body.String() {
		t.Fatalf("login failure bodies differ: %q vs %q", wrongPass.Body.String(), noUser.Body.String())
	}
}

func TestRouter_InvalidRoleRejected(t *testing.T) {
	e := newTestRouter(t)

	rec := doJSON(e, http.MethodPost, "/auth/register", `{"email":"x@x.com","password":"secret1","role":"root"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid role, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_HealthAndMetricsArePublic(t *testing.T) {
	e := newTestRouter(t)

	if rec := doJSON(e, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}
	if rec := doJSON(e, http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
}
