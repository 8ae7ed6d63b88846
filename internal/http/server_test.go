package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"financas/internal/auth"
	"financas/internal/services"
	"financas/internal/storage/memory"
)

type testServer struct {
	t     *testing.T
	srv   *Server
	store *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	deps := Deps{
		Auth:       auth.NewService(store, auth.Config{BcryptCost: bcrypt.MinCost, SessionTTL: time.Hour}, nil),
		Budgets:    services.NewBudgetService(store, nil, nil),
		FixedCosts: services.NewFixedCostService(store, nil),
		Goals:      services.NewGoalService(store, nil),
		Ledger:     services.NewLedgerService(store, nil),
	}
	srv := NewServer(":0", deps, Options{RateLimitPerMinute: 1000}, nil)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{t: t, srv: srv, store: store}
}

// do sends a request and decodes the JSON response into out when non-nil.
func (ts *testServer) do(method, path, token string, body any, out any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			ts.t.Fatal(err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			ts.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec
}

func (ts *testServer) register(email string) string {
	ts.t.Helper()
	var sess sessionResponse
	rec := ts.do(http.MethodPost, "/auth/register", "", map[string]string{"email": email, "password": "segredo123"}, &sess)
	if rec.Code != http.StatusCreated {
		ts.t.Fatalf("register status = %d body = %s", rec.Code, rec.Body.String())
	}
	return sess.Token
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t)

	if rec := ts.do(http.MethodGet, "/healthz", "", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
	if rec := ts.do(http.MethodGet, "/readyz", "", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("readyz = %d", rec.Code)
	}

	ts.srv.deps.Ready = pingerFunc(func(context.Context) error { return errors.New("db down") })
	if rec := ts.do(http.MethodGet, "/readyz", "", nil, nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with failing store = %d", rec.Code)
	}
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestSecurityHeaders(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/healthz", "", nil, nil)
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("missing nosniff header")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/nada", "", nil, nil)
	if rec.Code != http.StatusNotFound || errorMessage(t, rec) != "not found" {
		t.Errorf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	routes := []struct{ method, path string }{
		{http.MethodGet, "/auth/me"},
		{http.MethodPost, "/cadastro/orcamento"},
		{http.MethodGet, "/listar/orcamento"},
		{http.MethodGet, "/orcamento/grafico"},
		{http.MethodGet, "/orcamento/grafico/gastosFixos"},
		{http.MethodPut, "/orcamento/abc"},
		{http.MethodDelete, "/orcamento/abc"},
		{http.MethodGet, "/listar/gastoFixo"},
		{http.MethodGet, "/listar/meta"},
		{http.MethodGet, "/listar/despesa"},
		{http.MethodGet, "/listar/receita"},
		{http.MethodGet, "/listar/categoria"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := ts.do(rt.method, rt.path, "", nil, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("no token: status = %d", rec.Code)
			}
			rec = ts.do(rt.method, rt.path, "bogus", nil, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("bad token: status = %d", rec.Code)
			}
		})
	}
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register("ana@example.com")

	var me identityResponse
	if rec := ts.do(http.MethodGet, "/auth/me", token, nil, &me); rec.Code != http.StatusOK || me.Email != "ana@example.com" {
		t.Fatalf("me = %d %+v", rec.Code, me)
	}

	rec := ts.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "ANA@example.com", "password": "segredo123"}, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register = %d", rec.Code)
	}

	rec = ts.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@example.com", "password": "errada123"}, nil)
	if rec.Code != http.StatusUnauthorized || errorMessage(t, rec) != "invalid email or password" {
		t.Errorf("wrong password = %d %s", rec.Code, rec.Body.String())
	}

	var sess sessionResponse
	rec = ts.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@example.com", "password": "segredo123"}, &sess)
	if rec.Code != http.StatusOK || sess.Token == "" {
		t.Fatalf("login = %d", rec.Code)
	}

	if rec := ts.do(http.MethodPost, "/auth/logout", sess.Token, nil, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("logout = %d", rec.Code)
	}
	if rec := ts.do(http.MethodGet, "/auth/me", sess.Token, nil, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("me after logout = %d", rec.Code)
	}
}

func TestDecodeJSONRejectsBadBodies(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register("ana@example.com")

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "request body is empty"},
		{"malformed", "{", "malformed JSON body"},
		{"unknown field", `{"totalAmount": 1, "fixedCostIds": ["a"], "extra": 1}`, `unknown field "extra"`},
		{"wrong type", `{"totalAmount": 1, "fixedCostIds": "a"}`, `invalid value for field "fixedCostIds"`},
		{"two objects", `{"totalAmount": 1, "fixedCostIds": ["a"]}{}`, "single JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/cadastro/orcamento", strings.NewReader(tt.body))
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			ts.srv.Handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
			}
			if msg := errorMessage(t, rec); !strings.Contains(msg, tt.want) {
				t.Errorf("error = %q, want %q", msg, tt.want)
			}
		})
	}
}

func TestRateLimitReturnsJSON429(t *testing.T) {
	store := memory.New()
	deps := Deps{Auth: auth.NewService(store, auth.Config{BcryptCost: bcrypt.MinCost}, nil)}
	srv := NewServer(":0", deps, Options{RateLimitPerMinute: 1}, nil)
	defer srv.Shutdown(context.Background())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.co","password":"x"}`))
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		return rec
	}
	if rec := send(); rec.Code != http.StatusUnauthorized {
		t.Fatalf("first = %d", rec.Code)
	}
	rec := send()
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Errorf("second = %d retry-after %q", rec.Code, rec.Header().Get("Retry-After"))
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	if err := ts.srv.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := ts.srv.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
}
