package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

const (
	testSessionSecret = "test-session-secret-0123456789ab"
	testWebhookSecret = "test-webhook-secret"
)

type testServer struct {
	handler  http.Handler
	verifier *auth.Verifier
	webhook  *auth.WebhookVerifier
	repo     *storage.Repository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := log.New(log.DefaultConfig())
	summaryCache := cache.NewLRUCache[core.Summary](64, time.Minute)
	verifier := auth.NewVerifier(testSessionSecret, "fintrack")
	webhook := auth.NewWebhookVerifier(testWebhookSecret)

	srv := NewServer(Config{
		Addr:               ":0",
		Records:            services.NewRecordService(repo, summaryCache, logger),
		Provisioning:       services.NewProvisioningService(repo, nil, logger),
		Verifier:           verifier,
		Webhook:            webhook,
		RateLimitPerMinute: 10000,
	})
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	return &testServer{
		handler:  srv.Handler(),
		verifier: verifier,
		webhook:  webhook,
		repo:     repo,
	}
}

func (ts *testServer) token(t *testing.T, owner string) string {
	t.Helper()
	token, err := ts.verifier.SignToken(owner, time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func (ts *testServer) do(t *testing.T, owner, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if owner != "" {
		r.Header.Set("Authorization", "Bearer "+ts.token(t, owner))
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, r)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	if !env.Success {
		t.Fatalf("error envelope: %s", env.Error)
	}
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
	return out
}

func TestAuthenticationRequired(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/api/dashboard", "/api/expenses", "/api/income"} {
		rec := ts.do(t, "", http.MethodGet, path, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s without token: %d", path, rec.Code)
		}
	}
}

func TestTaxonomyIsPublic(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "", http.MethodGet, "/api/categories", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("taxonomy: %d", rec.Code)
	}
	data := decodeData[struct {
		Categories    []core.Category `json:"categories"`
		IncomeSources []string        `json:"incomeSources"`
	}](t, rec)
	if len(data.Categories) == 0 || len(data.IncomeSources) == 0 {
		t.Fatalf("empty taxonomy: %+v", data)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)
	if rec := ts.do(t, "", http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	if rec := ts.do(t, "", http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("readyz: %d", rec.Code)
	}
}

func TestExpenseCreateListRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "u1", http.MethodPost, "/api/expenses",
		`{"category":"Food","subcategory":"Groceries","amount":12.34,"date":"2024-01-15"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	created := decodeData[expenseResponse](t, rec)
	if created.ID == 0 || created.Amount != 12.34 {
		t.Fatalf("created: %+v", created)
	}

	// String amount and fallback date format normalize the same way
	rec = ts.do(t, "u1", http.MethodPost, "/api/expenses",
		`{"category":"Transport","subcategory":"Fuel","amount":"45,60","date":"20/01/2024"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create string amount: %d %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, "u1", http.MethodGet, "/api/expenses", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d", rec.Code)
	}
	list := decodeData[[]expenseResponse](t, rec)
	if len(list) != 2 {
		t.Fatalf("list length: %d", len(list))
	}
	// Oldest first, dates canonical
	if list[0].Date.String() != "2024-01-15" || list[1].Date.String() != "2024-01-20" {
		t.Fatalf("dates: %s, %s", list[0].Date, list[1].Date)
	}
	if list[1].Amount != 45.60 {
		t.Fatalf("amount: %v", list[1].Amount)
	}
}

func TestExpenseValidationFailures(t *testing.T) {
	ts := newTestServer(t)
	cases := []struct {
		name string
		body string
	}{
		{"non-numeric amount", `{"category":"Food","subcategory":"Groceries","amount":"abc","date":"2024-01-15"}`},
		{"zero amount", `{"category":"Food","subcategory":"Groceries","amount":0,"date":"2024-01-15"}`},
		{"missing category", `{"subcategory":"Groceries","amount":10,"date":"2024-01-15"}`},
		{"missing subcategory", `{"category":"Food","amount":10,"date":"2024-01-15"}`},
		{"bad date", `{"category":"Food","subcategory":"Groceries","amount":10,"date":"January 15"}`},
		{"missing date", `{"category":"Food","subcategory":"Groceries","amount":10}`},
		{"malformed JSON", `{"category":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, "u1", http.MethodPost, "/api/expenses", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}

	// Nothing was persisted
	rec := ts.do(t, "u1", http.MethodGet, "/api/expenses", "")
	if list := decodeData[[]expenseResponse](t, rec); len(list) != 0 {
		t.Fatalf("invalid records persisted: %+v", list)
	}
}

func TestExpenseUpdateIsFullReplacement(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "u1", http.MethodPost, "/api/expenses",
		`{"category":"Food","subcategory":"Groceries","amount":10,"date":"2024-01-15"}`)
	created := decodeData[expenseResponse](t, rec)

	rec = ts.do(t, "u1", http.MethodPut, fmt.Sprintf("/api/expenses/%d", created.ID),
		`{"category":"Utilities","subcategory":"Internet","amount":55.5,"date":"2024-02-02"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, "u1", http.MethodGet, "/api/expenses", "")
	list := decodeData[[]expenseResponse](t, rec)
	if len(list) != 1 {
		t.Fatalf("list: %+v", list)
	}
	got := list[0]
	if got.Category != "Utilities" || got.Subcategory != "Internet" || got.Amount != 55.5 || got.Date.String() != "2024-02-02" {
		t.Fatalf("update not fully applied: %+v", got)
	}
}

func TestOwnershipConflation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "u1", http.MethodPost, "/api/expenses",
		`{"category":"Food","subcategory":"Groceries","amount":10,"date":"2024-01-15"}`)
	created := decodeData[expenseResponse](t, rec)

	body := `{"category":"Food","subcategory":"Groceries","amount":99,"date":"2024-01-15"}`

	// Foreign and missing records are indistinguishable
	rec = ts.do(t, "u2", http.MethodPut, fmt.Sprintf("/api/expenses/%d", created.ID), body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign update: %d", rec.Code)
	}
	rec = ts.do(t, "u2", http.MethodDelete, fmt.Sprintf("/api/expenses/%d", created.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign delete: %d", rec.Code)
	}
	rec = ts.do(t, "u1", http.MethodPut, "/api/expenses/999999", body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing update: %d", rec.Code)
	}

	// The record survived untouched
	rec = ts.do(t, "u1", http.MethodGet, "/api/expenses", "")
	list := decodeData[[]expenseResponse](t, rec)
	if len(list) != 1 || list[0].Amount != 10 {
		t.Fatalf("record affected by foreign mutation: %+v", list)
	}
}

func TestDeleteIdempotence(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "u1", http.MethodPost, "/api/income",
		`{"source":"Job","amount":1000,"date":"2024-01-01"}`)
	created := decodeData[incomeResponse](t, rec)

	rec = ts.do(t, "u1", http.MethodDelete, fmt.Sprintf("/api/income/%d", created.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("first delete: %d", rec.Code)
	}
	rec = ts.do(t, "u1", http.MethodDelete, fmt.Sprintf("/api/income/%d", created.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", rec.Code)
	}
}

func TestIncomeListOrder(t *testing.T) {
	ts := newTestServer(t)

	for _, date := range []string{"2024-01-05", "2024-01-20", "2024-01-10"} {
		rec := ts.do(t, "u1", http.MethodPost, "/api/income",
			fmt.Sprintf(`{"source":"Job","amount":100,"date":"%s"}`, date))
		if rec.Code != http.StatusCreated {
			t.Fatalf("create: %d", rec.Code)
		}
	}

	rec := ts.do(t, "u1", http.MethodGet, "/api/income", "")
	list := decodeData[[]incomeResponse](t, rec)
	if len(list) != 3 {
		t.Fatalf("list: %d", len(list))
	}
	if list[0].Date.String() != "2024-01-20" || list[2].Date.String() != "2024-01-05" {
		t.Fatalf("income order: %s, %s, %s", list[0].Date, list[1].Date, list[2].Date)
	}
}

func TestDashboardScenario(t *testing.T) {
	ts := newTestServer(t)

	seed := []struct{ path, body string }{
		{"/api/income", `{"source":"Job","amount":2000,"date":"2024-01-01"}`},
		{"/api/expenses", `{"category":"Food","subcategory":"Groceries","amount":50.25,"date":"2024-01-05"}`},
		{"/api/expenses", `{"category":"Transport","subcategory":"Fuel","amount":30,"date":"2024-01-31"}`},
		{"/api/expenses", `{"category":"Food","subcategory":"Restaurants","amount":99.99,"date":"2024-02-01"}`},
	}
	for _, s := range seed {
		if rec := ts.do(t, "u1", http.MethodPost, s.path, s.body); rec.Code != http.StatusCreated {
			t.Fatalf("seed %s: %d %s", s.path, rec.Code, rec.Body.String())
		}
	}
	// Another tenant's data must never show up
	if rec := ts.do(t, "u2", http.MethodPost, "/api/expenses",
		`{"category":"Food","subcategory":"Groceries","amount":77777,"date":"2024-01-10"}`); rec.Code != http.StatusCreated {
		t.Fatalf("seed u2: %d", rec.Code)
	}

	rec := ts.do(t, "u1", http.MethodGet, "/api/dashboard?month=1&year=2024", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: %d %s", rec.Code, rec.Body.String())
	}
	s := decodeData[core.Summary](t, rec)
	if s.TotalIncome != 2000 || s.TotalExpenses != 80.25 || s.TotalRemaining != 1919.75 {
		t.Fatalf("january totals: %+v", s)
	}
	if s.ExpensesByCategory["Food"] != 50.25 || s.ExpensesByCategory["Transport"] != 30 {
		t.Fatalf("categories: %+v", s.ExpensesByCategory)
	}
	if _, ok := s.ExpensesBySubcategory["Restaurants"]; ok {
		t.Fatal("february record leaked into january")
	}
	if s.Month == nil || *s.Month != 1 || s.Year == nil || *s.Year != 2024 {
		t.Fatalf("window echo: %+v", s)
	}

	// Unfiltered view spans everything the owner has
	rec = ts.do(t, "u1", http.MethodGet, "/api/dashboard", "")
	all := decodeData[core.Summary](t, rec)
	if all.TotalExpenses != 180.24 {
		t.Fatalf("overall expenses: %v", all.TotalExpenses)
	}
	if all.Month != nil || all.Year != nil {
		t.Fatalf("unfiltered echo: %+v", all)
	}
}

func TestDashboardFilterValidation(t *testing.T) {
	ts := newTestServer(t)
	for _, q := range []string{"?month=1", "?year=2024", "?month=13&year=2024", "?month=abc&year=2024"} {
		rec := ts.do(t, "u1", http.MethodGet, "/api/dashboard"+q, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func webhookRequest(t *testing.T, ts *testServer, body string, sign bool) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/webhooks/identity", bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	if sign {
		r.Header.Set(auth.SignatureHeader, ts.webhook.Sign([]byte(body)))
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, r)
	return rec
}

func TestIdentityWebhook(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	t.Run("unsigned request rejected", func(t *testing.T) {
		rec := webhookRequest(t, ts, `{"type":"user.created"}`, false)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("unsigned: %d", rec.Code)
		}
	})

	t.Run("malformed payload is a client error", func(t *testing.T) {
		rec := webhookRequest(t, ts, `{"type":`, true)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("malformed: %d", rec.Code)
		}
	})

	t.Run("missing id is a client error", func(t *testing.T) {
		rec := webhookRequest(t, ts, `{"type":"user.created","data":{"email_addresses":[{"email_address":"a@b.c"}]}}`, true)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("missing id: %d", rec.Code)
		}
	})

	t.Run("user created", func(t *testing.T) {
		body := `{"type":"user.created","data":{"id":"user_w1","first_name":"Ada","last_name":"Lovelace","email_addresses":[{"email_address":"ada@example.com"}]}}`
		rec := webhookRequest(t, ts, body, true)
		if rec.Code != http.StatusOK {
			t.Fatalf("created: %d %s", rec.Code, rec.Body.String())
		}
		u, err := ts.repo.GetUserByExternalID(ctx, "user_w1")
		if err != nil {
			t.Fatalf("get user: %v", err)
		}
		if u.Name != "Ada Lovelace" {
			t.Fatalf("user: %+v", u)
		}
	})

	t.Run("user deleted purges records", func(t *testing.T) {
		if rec := ts.do(t, "user_w1", http.MethodPost, "/api/expenses",
			`{"category":"Food","subcategory":"Groceries","amount":10,"date":"2024-01-01"}`); rec.Code != http.StatusCreated {
			t.Fatalf("seed: %d", rec.Code)
		}
		rec := webhookRequest(t, ts, `{"type":"user.deleted","data":{"id":"user_w1"}}`, true)
		if rec.Code != http.StatusOK {
			t.Fatalf("deleted: %d %s", rec.Code, rec.Body.String())
		}
		list := ts.do(t, "user_w1", http.MethodGet, "/api/expenses", "")
		if got := decodeData[[]expenseResponse](t, list); len(got) != 0 {
			t.Fatalf("records survived deprovisioning: %+v", got)
		}
	})

	t.Run("unknown event acknowledged", func(t *testing.T) {
		rec := webhookRequest(t, ts, `{"type":"session.created","data":{"id":"x"}}`, true)
		if rec.Code != http.StatusOK {
			t.Fatalf("unknown event: %d", rec.Code)
		}
	})
}
