// Package http exposes the JSON API: authentication, accounts, transactions,
// recurring rules, the cached overview and the advisor endpoints. Handlers
// validate input at the boundary and delegate every mutation to the caller's
// session, which serializes access to the underlying book.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"tesoro/internal/advisor"
	"tesoro/internal/auth"
	"tesoro/internal/cache"
	"tesoro/internal/core"
	"tesoro/internal/middleware/ratelimit"
	"tesoro/internal/middleware/security"
	"tesoro/internal/middleware/trace"
	"tesoro/internal/session"
)

const defaultOverviewTTL = 30 * time.Second

// overviewCacheSize bounds the per-user overview cache; entries are tiny, so
// this comfortably covers every active user between janitor sweeps.
const overviewCacheSize = 1024

// Config carries the collaborators and tunables the server needs.
type Config struct {
	Addr               string
	Auth               *auth.Service
	Sessions           *session.Manager
	Advisor            *advisor.Client
	RateLimitPerMinute int
	OverviewCacheTTL   time.Duration
}

// Server wires the middleware chain and routes around the session manager.
type Server struct {
	http.Server

	auth     *auth.Service
	sessions *session.Manager
	advisor  *advisor.Client

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	overviewCache *cache.Cache[core.Overview]

	stopJanitor  context.CancelFunc
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config) *Server {
	if cfg.OverviewCacheTTL <= 0 {
		cfg.OverviewCacheTTL = defaultOverviewTTL
	}

	limiterCfg := ratelimit.DefaultConfig()
	if cfg.RateLimitPerMinute > 0 {
		limiterCfg.RequestsPerMinute = cfg.RateLimitPerMinute
	}

	janitorCtx, stopJanitor := context.WithCancel(context.Background())

	mux := http.NewServeMux()
	s := &Server{
		auth:          cfg.Auth,
		sessions:      cfg.Sessions,
		advisor:       cfg.Advisor,
		detector:      security.NewDetector(),
		limiter:       ratelimit.NewLimiter(limiterCfg),
		overviewCache: cache.New[core.Overview](overviewCacheSize, cfg.OverviewCacheTTL),
		stopJanitor:   stopJanitor,
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)
	s.overviewCache.StartJanitor(janitorCtx, cfg.OverviewCacheTTL)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/v1/login", s.handleLogin)
	mux.HandleFunc("/api/v1/session", s.handleSession)
	mux.HandleFunc("/api/v1/logout", s.requireUser(s.handleLogout))

	mux.HandleFunc("/api/v1/overview", s.requireUser(s.handleOverview))
	mux.HandleFunc("/api/v1/accounts", s.requireUser(s.handleAccounts))
	mux.HandleFunc("/api/v1/accounts/checkin", s.requireUser(s.handleAccountCheckIn))
	mux.HandleFunc("/api/v1/accounts/holdings", s.requireUser(s.handleAccountHoldings))
	mux.HandleFunc("/api/v1/transactions", s.requireUser(s.handleTransactions))
	mux.HandleFunc("/api/v1/transactions/receive", s.requireUser(s.handleTransactionReceive))
	mux.HandleFunc("/api/v1/recurring", s.requireUser(s.handleRecurring))
	mux.HandleFunc("/api/v1/recurring/materialize", s.requireUser(s.handleMaterialize))
	mux.HandleFunc("/api/v1/settings/base-currency", s.requireUser(s.handleBaseCurrency))
	mux.HandleFunc("/api/v1/advice", s.requireUser(s.handleAdvice))
	mux.HandleFunc("/api/v1/chat", s.requireUser(s.handleChat))

	// Security headers outermost, then request tracing, probe detection and
	// rate limiting; authentication stays per-route.
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, nil)(handler)
	handler = s.detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = headers.Middleware(handler)

	s.Server = http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}
	return s
}

// Shutdown stops the background cache janitor and rate limiter cleanup, then
// shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopJanitor != nil {
			s.stopJanitor()
		}
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
