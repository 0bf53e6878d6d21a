package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"pixelwallet/internal/auth"
	"pixelwallet/internal/core"
	applog "pixelwallet/internal/log"
	"pixelwallet/internal/middleware/ratelimit"
	"pixelwallet/internal/middleware/security"
	"pixelwallet/internal/middleware/trace"
)

// AuthService is the account surface the server exposes.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) error
	Login(ctx context.Context, email, password string) (string, core.PublicUser, error)
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

// Ledger is the transaction surface the server exposes.
type Ledger interface {
	AddTransaction(ctx context.Context, userID int64, t core.Transaction) (int64, error)
	ListTransactions(ctx context.Context, userID int64) ([]core.TransactionRecord, error)
	DeleteTransaction(ctx context.Context, userID, transactionID int64) error
	Categories(ctx context.Context) ([]core.Category, error)
	Summary(ctx context.Context, userID int64) (core.Summary, error)
	Analytics(ctx context.Context, userID int64) (core.Analytics, error)
}

// Config holds server wiring options.
type Config struct {
	Addr string
	// AuthRequestsPerMinute caps register/login attempts per client IP.
	AuthRequestsPerMinute int
}

// Server is the JSON API server.
type Server struct {
	http.Server

	authSvc AuthService
	ledger  Ledger
	logger  *applog.Logger

	authLimiter  *ratelimit.Limiter
	tracer       *trace.Middleware
	shutdownOnce sync.Once
}

func NewServer(cfg Config, authSvc AuthService, ledger Ledger, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		authSvc: authSvc,
		ledger:  ledger,
		logger:  logger.WithComponent(applog.ComponentHTTP),
		authLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.AuthRequestsPerMinute,
		}),
		tracer: trace.NewMiddleware(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", s.withAuthLimit(s.handleRegister))
	mux.HandleFunc("POST /auth/login", s.withAuthLimit(s.handleLogin))
	mux.HandleFunc("GET /transactions", s.requireAuth(s.handleListTransactions))
	mux.HandleFunc("POST /transactions", s.requireAuth(s.handleAddTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.requireAuth(s.handleDeleteTransaction))
	mux.HandleFunc("GET /transactions/categories", s.requireAuth(s.handleCategories))
	mux.HandleFunc("GET /transactions/summary", s.requireAuth(s.handleSummary))
	mux.HandleFunc("GET /transactions/analytics", s.requireAuth(s.handleAnalytics))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /status", s.handleStatus)

	handler := security.HeadersMiddleware(security.DefaultHeadersConfig())(mux)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.Server.Handler
}

// withAuthLimit rate limits the unauthenticated credential endpoints.
func (s *Server) withAuthLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := trace.ClientIP(r)
		if !s.authLimiter.Allow(ip) {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded",
				applog.FieldClientIP, ip,
				applog.FieldPath, r.URL.Path)
			writeMessage(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next(w, r)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.authLimiter != nil {
			s.authLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
