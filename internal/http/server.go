// Package http exposes the JSON API: record CRUD, the dashboard
// summary, the taxonomy feed and the identity webhook.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

type Server struct {
	http.Server

	records      *services.RecordService
	provisioning *services.ProvisioningService
	verifier     *auth.Verifier
	webhook      *auth.WebhookVerifier

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// Config carries the server's wiring.
type Config struct {
	Addr               string
	Records            *services.RecordService
	Provisioning       *services.ProvisioningService
	Verifier           *auth.Verifier
	Webhook            *auth.WebhookVerifier
	RateLimitPerMinute int
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(cfg Config) *Server {
	mux := http.NewServeMux()

	s := &Server{
		records:      cfg.Records,
		provisioning: cfg.Provisioning,
		verifier:     cfg.Verifier,
		webhook:      cfg.Webhook,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
		}),
	}

	requireSession := s.verifier.Middleware(func(w http.ResponseWriter, r *http.Request) {
		respondErrorMessage(w, http.StatusUnauthorized, "not authenticated")
	})

	// Protected record and dashboard routes
	mux.Handle("GET /api/dashboard", requireSession(http.HandlerFunc(s.handleDashboard)))

	mux.Handle("GET /api/expenses", requireSession(http.HandlerFunc(s.handleListExpenses)))
	mux.Handle("POST /api/expenses", requireSession(http.HandlerFunc(s.handleCreateExpense)))
	mux.Handle("PUT /api/expenses/{id}", requireSession(http.HandlerFunc(s.handleUpdateExpense)))
	mux.Handle("DELETE /api/expenses/{id}", requireSession(http.HandlerFunc(s.handleDeleteExpense)))

	mux.Handle("GET /api/income", requireSession(http.HandlerFunc(s.handleListIncome)))
	mux.Handle("POST /api/income", requireSession(http.HandlerFunc(s.handleCreateIncome)))
	mux.Handle("PUT /api/income/{id}", requireSession(http.HandlerFunc(s.handleUpdateIncome)))
	mux.Handle("DELETE /api/income/{id}", requireSession(http.HandlerFunc(s.handleDeleteIncome)))

	// Public presentation config
	mux.HandleFunc("GET /api/categories", s.handleTaxonomy)

	// Identity provider lifecycle webhook, authenticated by signature
	mux.HandleFunc("POST /webhooks/identity", s.handleIdentityWebhook)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	traceMW := trace.NewMiddleware(extractClientIP)
	securityMW := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limitMW := s.limiter.Middleware(extractClientIP, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		respondErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
	})

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           traceMW.Middleware(securityMW.Middleware(limitMW(mux))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Shutdown stops the HTTP server and background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Handler exposes the composed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.Server.Handler
}

func extractClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
