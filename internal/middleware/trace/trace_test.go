package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	m := NewMiddleware()

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	if seen == "" {
		t.Fatal("request id missing from handler context")
	}

	first := seen
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	if seen == first {
		t.Fatal("request ids must differ between requests")
	}
}

func TestMiddlewareCountsRequests(t *testing.T) {
	m := NewMiddleware()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	}

	metrics := m.GetMetrics()
	if metrics.TotalRequests != 3 {
		t.Fatalf("TotalRequests = %d, want 3", metrics.TotalRequests)
	}
}

func TestGetRequestIDWithoutMiddleware(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Fatalf("GetRequestID on bare context = %q, want empty", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		realIP     string
		remoteAddr string
		want       string
	}{
		{"remote addr fallback", "", "", "10.0.0.1:1234", "10.0.0.1:1234"},
		{"x-real-ip", "", "203.0.113.9", "10.0.0.1:1234", "203.0.113.9"},
		{"x-forwarded-for single", "198.51.100.7", "", "10.0.0.1:1234", "198.51.100.7"},
		{"x-forwarded-for chain", "198.51.100.7, 10.0.0.2", "", "10.0.0.1:1234", "198.51.100.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/x", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
