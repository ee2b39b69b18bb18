package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"academy/internal/auth"
	"academy/internal/config"
	"academy/internal/invoice"
	"academy/internal/user"
)

// emptyStore satisfies user.Store and records whether it was touched.
type emptyStore struct {
	touched bool
}

func (s *emptyStore) ListActive(context.Context, user.Role) ([]user.User, error) {
	s.touched = true
	return nil, nil
}
func (s *emptyStore) ListTrashed(context.Context) ([]user.User, error) {
	s.touched = true
	return nil, nil
}
func (s *emptyStore) Get(context.Context, string) (user.User, error) {
	s.touched = true
	return user.User{}, user.ErrNotFound
}
func (s *emptyStore) GetByEmail(context.Context, string) (user.User, error) {
	s.touched = true
	return user.User{}, user.ErrNotFound
}
func (s *emptyStore) Create(_ context.Context, u user.User) (user.User, error) {
	s.touched = true
	return u, nil
}
func (s *emptyStore) Update(context.Context, user.User) error {
	s.touched = true
	return nil
}
func (s *emptyStore) SoftDelete(context.Context, string) error {
	s.touched = true
	return nil
}
func (s *emptyStore) Restore(context.Context, string) error {
	s.touched = true
	return nil
}
func (s *emptyStore) HardDelete(context.Context, string) error {
	s.touched = true
	return nil
}

func testConfig(demoLogin bool) config.App {
	return config.App{
		JWTIssuer:     "academy-test",
		JWTSigningKey: "test-signing-key",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		DemoLogin:     demoLogin,
		ContactInbox:  "office@example.com",
		MailTimeout:   time.Second,
	}
}

func testRouter(t *testing.T, store user.Store, demoLogin bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig(demoLogin)
	h := New(cfg, user.NewService(store, nil, demoLogin), nil, nil, nil, nil, nil, nil, nil, nil)

	r := gin.New()
	h.Routes(r)
	return r
}

func TestContactAcceptsValidSubmission(t *testing.T) {
	store := &emptyStore{}
	r := testRouter(t, store, false)

	body := `{"name":"Asha","email":"asha@example.com","message":"Do you teach veena?"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Fatal("success = false, want true")
	}
	if store.touched {
		t.Fatal("contact form must not write to any table")
	}
}

func TestContactRejectsIncompleteSubmission(t *testing.T) {
	r := testRouter(t, &emptyStore{}, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/contact", strings.NewReader(`{"name":"Asha"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDemoAdminLoginIssuesTokens(t *testing.T) {
	store := &emptyStore{}
	r := testRouter(t, store, true)

	body := `{"email":"admin@academy.test","password":"whatever"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var resp struct {
		User struct {
			Role string `json:"role"`
		} `json:"user"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.User.Role != "admin" {
		t.Fatalf("role = %q, want admin", resp.User.Role)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if store.touched {
		t.Fatal("demo admin login must not query the user table")
	}
}

func TestLoginUnknownUserIsUnauthorized(t *testing.T) {
	r := testRouter(t, &emptyStore{}, false)

	body := `{"email":"nobody@example.com","password":"pw"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// fakeInvoices satisfies InvoiceReader from a fixed map.
type fakeInvoices struct {
	byID map[string]invoice.Invoice
}

func (f *fakeInvoices) ListByStudent(_ context.Context, studentID string) ([]invoice.Invoice, error) {
	var out []invoice.Invoice
	for _, inv := range f.byID {
		if inv.StudentID == studentID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvoices) Get(_ context.Context, id string) (invoice.Invoice, error) {
	inv, ok := f.byID[id]
	if !ok {
		return invoice.Invoice{}, invoice.ErrNotFound
	}
	return inv, nil
}

func TestInvoiceDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(false)

	invoices := &fakeInvoices{byID: map[string]invoice.Invoice{
		"inv-1": {ID: "inv-1", StudentID: "stu-1", AmountMinor: 180000, Currency: "INR", Status: invoice.StatusPending},
	}}
	h := New(cfg, user.NewService(&emptyStore{}, nil, false), nil, nil, nil, nil, nil, invoices, nil, nil)
	r := gin.New()
	h.Routes(r)

	tokens, err := auth.Issue("admin-1", "admin", cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
		r.ServeHTTP(w, req)
		return w
	}

	w := get("/v1/admin/invoices/inv-1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var inv invoice.Invoice
	if err := json.Unmarshal(w.Body.Bytes(), &inv); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if inv.ID != "inv-1" || inv.AmountMinor != 180000 {
		t.Errorf("invoice = %+v", inv)
	}

	if w := get("/v1/admin/invoices/inv-404"); w.Code != http.StatusNotFound {
		t.Errorf("missing invoice status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestNotificationsRequireAuth(t *testing.T) {
	r := testRouter(t, &emptyStore{}, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/notifications", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
