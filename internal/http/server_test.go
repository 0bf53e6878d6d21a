package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pixelwallet/internal/auth"
	"pixelwallet/internal/core"
	"pixelwallet/internal/services"
	"pixelwallet/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "pixelwallet_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	authSvc := services.NewAuthService(repo, tokens, auth.DefaultBcryptCost)
	ledger := services.NewLedgerService(repo, nil)

	srv := NewServer(Config{Addr: ":0", AuthRequestsPerMinute: 1000}, authSvc, ledger, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	// Object bodies decode into the returned map; array bodies (the
	// transaction list) pass through as nil and are decoded by the caller.
	var decoded map[string]any
	if resp.Header.Get("Content-Type") == "application/json" {
		var raw any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
		decoded, _ = raw.(map[string]any)
	}
	return resp, decoded
}

func registerAndLogin(t *testing.T, ts *httptest.Server, username, email string) string {
	t.Helper()

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/auth/register", "", map[string]string{
		"username": username, "email": email, "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email": email, "password": "hunter22",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, ok := body["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/auth/register", "", map[string]string{
		"username": "alice", "email": "alice@example.com",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, body, "message")
}

func TestRegisterConflict(t *testing.T) {
	ts := newTestServer(t)
	registerAndLogin(t, ts, "alice", "alice@example.com")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/auth/register", "", map[string]string{
		"username": "alice2", "email": "alice@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginBadCredentials(t *testing.T) {
	ts := newTestServer(t)
	registerAndLogin(t, ts, "alice", "alice@example.com")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid credentials", body["message"])

	// Unknown account is indistinguishable from a wrong password.
	resp, body = doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "wrong",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid credentials", body["message"])
}

func TestTransactionsRequireToken(t *testing.T) {
	ts := newTestServer(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/transactions"},
		{http.MethodPost, "/transactions"},
		{http.MethodDelete, "/transactions/1"},
		{http.MethodGet, "/transactions/categories"},
		{http.MethodGet, "/transactions/summary"},
		{http.MethodGet, "/transactions/analytics"},
	} {
		resp, _ := doJSON(t, tc.method, ts.URL+tc.path, "", nil)
		require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
	}

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/transactions", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTransactionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "alice", "alice@example.com")

	// Categories are globally seeded.
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/transactions/categories", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var categories []core.Category
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&categories))
	require.Len(t, categories, 7)

	// Record a salary and a groceries expense.
	addResp, addBody := doJSON(t, http.MethodPost, ts.URL+"/transactions", token, map[string]any{
		"amount": 5000.0, "description": "Salary", "category_id": 1, "date": "2024-01-05",
	})
	require.Equal(t, http.StatusCreated, addResp.StatusCode)
	require.Equal(t, "Transaction added successfully", addBody["message"])

	addResp, _ = doJSON(t, http.MethodPost, ts.URL+"/transactions", token, map[string]any{
		"amount": 1200.0, "description": "Food", "category_id": 4, "date": "2024-01-10",
	})
	require.Equal(t, http.StatusCreated, addResp.StatusCode)

	// Newest first.
	req, err = http.NewRequest(http.MethodGet, ts.URL+"/transactions", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var records []core.TransactionRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 2)
	require.Equal(t, "Food", records[0].Description)
	require.Equal(t, "Groceries", records[0].Category)
	require.Equal(t, core.Expense, records[0].Kind)
	require.Equal(t, "Salary", records[1].Description)

	// Aggregates.
	sumResp, sumBody := doJSON(t, http.MethodGet, ts.URL+"/transactions/summary", token, nil)
	require.Equal(t, http.StatusOK, sumResp.StatusCode)
	require.InDelta(t, 5000.0, sumBody["income"], 0.001)
	require.InDelta(t, 1200.0, sumBody["expense"], 0.001)
	require.InDelta(t, 3800.0, sumBody["balance"], 0.001)

	anResp, anBody := doJSON(t, http.MethodGet, ts.URL+"/transactions/analytics", token, nil)
	require.Equal(t, http.StatusOK, anResp.StatusCode)
	pie, ok := anBody["pieChart"].([]any)
	require.True(t, ok)
	require.Len(t, pie, 1)
	slice := pie[0].(map[string]any)
	require.Equal(t, "Groceries", slice["name"])
	require.InDelta(t, 1200.0, slice["total"], 0.001)
	bar, ok := anBody["barChart"].([]any)
	require.True(t, ok)
	require.Len(t, bar, 1)
	month := bar[0].(map[string]any)
	require.Equal(t, "2024-01", month["month"])
	require.InDelta(t, 5000.0, month["income"], 0.001)
	require.InDelta(t, 1200.0, month["expense"], 0.001)

	// Delete the salary and watch the summary move.
	delResp, delBody := doJSON(t, http.MethodDelete, ts.URL+"/transactions/"+jsonID(t, records[1].ID), token, nil)
	require.Equal(t, http.StatusOK, delResp.StatusCode)
	require.Equal(t, "Transaction deleted", delBody["message"])

	delResp, _ = doJSON(t, http.MethodDelete, ts.URL+"/transactions/"+jsonID(t, records[1].ID), token, nil)
	require.Equal(t, http.StatusNotFound, delResp.StatusCode)

	_, sumBody = doJSON(t, http.MethodGet, ts.URL+"/transactions/summary", token, nil)
	require.InDelta(t, 0.0, sumBody["income"], 0.001)
	require.InDelta(t, -1200.0, sumBody["balance"], 0.001)
}

func TestDeleteTransactionBadID(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "alice", "alice@example.com")

	// A non-numeric id behaves like any other missing transaction.
	resp, _ := doJSON(t, http.MethodDelete, ts.URL+"/transactions/abc", token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddTransactionValidation(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "alice", "alice@example.com")

	for name, body := range map[string]map[string]any{
		"zero amount":      {"amount": 0.0, "category_id": 1, "date": "2024-01-05"},
		"negative amount":  {"amount": -5.0, "category_id": 1, "date": "2024-01-05"},
		"missing category": {"amount": 10.0, "date": "2024-01-05"},
		"missing date":     {"amount": 10.0, "category_id": 1},
		"malformed date":   {"amount": 10.0, "category_id": 1, "date": "05/01/2024"},
		"unknown category": {"amount": 10.0, "category_id": 999, "date": "2024-01-05"},
	} {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/transactions", token, body)
		require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "case %q", name)
	}

	// Nothing persisted.
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/transactions", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var records []core.TransactionRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Empty(t, records)
}

func TestOwnershipIsolation(t *testing.T) {
	ts := newTestServer(t)
	aliceToken := registerAndLogin(t, ts, "alice", "alice@example.com")
	bobToken := registerAndLogin(t, ts, "bob", "bob@example.com")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/transactions", aliceToken, map[string]any{
		"amount": 42.0, "category_id": 4, "date": "2024-03-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/transactions", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+aliceToken)
	listResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer listResp.Body.Close()
	var aliceRecords []core.TransactionRecord
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&aliceRecords))
	require.Len(t, aliceRecords, 1)

	// Bob sees nothing and cannot delete Alice's transaction.
	bobResp, _ := doJSON(t, http.MethodGet, ts.URL+"/transactions", bobToken, nil)
	require.Equal(t, http.StatusOK, bobResp.StatusCode)

	delResp, _ := doJSON(t, http.MethodDelete, ts.URL+"/transactions/"+jsonID(t, aliceRecords[0].ID), bobToken, nil)
	require.Equal(t, http.StatusNotFound, delResp.StatusCode)
}

func TestAuthRateLimit(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "pixelwallet_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	authSvc := services.NewAuthService(repo, tokens, auth.DefaultBcryptCost)
	ledger := services.NewLedgerService(repo, nil)

	srv := NewServer(Config{Addr: ":0", AuthRequestsPerMinute: 2}, authSvc, ledger, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	var last int
	for i := 0; i < 3; i++ {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
			"email": "nobody@example.com", "password": "x",
		})
		last = resp.StatusCode
	}
	require.Equal(t, http.StatusTooManyRequests, last)
}

func TestStatusEndpoint(t *testing.T) {
	ts := newTestServer(t)

	// Warm the counters with one real request first.
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()

	statusResp, body := doJSON(t, http.MethodGet, ts.URL+"/status", "", nil)
	require.Equal(t, http.StatusOK, statusResp.StatusCode)
	require.Equal(t, "ok", body["status"])

	checks, ok := body["checks"].(map[string]any)
	require.True(t, ok)
	requests, ok := checks["requests"].(map[string]any)
	require.True(t, ok)
	require.GreaterOrEqual(t, requests["total"].(float64), 1.0)
	limiter, ok := checks["rate_limiter"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "ok", limiter["status"])
}

func TestSecurityHeaders(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func jsonID(t *testing.T, id int64) string {
	t.Helper()
	return strconv.FormatInt(id, 10)
}
