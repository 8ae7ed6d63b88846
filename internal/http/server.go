// Package http exposes the finance services as a JSON REST API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"financas/internal/auth"
	"financas/internal/cache"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/middleware/ratelimit"
	"financas/internal/middleware/security"
	"financas/internal/middleware/trace"
	"financas/internal/services"
)

const requestTimeout = 15 * time.Second

// Pinger is implemented by stores that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Auth       *auth.Service
	Budgets    *services.BudgetService
	FixedCosts *services.FixedCostService
	Goals      *services.GoalService
	Ledger     *services.LedgerService
	// Ready is optional; without it /readyz always reports ready.
	Ready Pinger
}

type Options struct {
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	deps     Deps
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	caches   *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. Shutdown stops the background goroutines it starts.
func NewServer(addr string, deps Deps, opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		deps:     deps,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(logger),
		caches:   cache.NewManager(logger),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	if deps.Auth != nil {
		s.caches.Register(deps.Auth.Cache())
	}
	s.caches.StartCleanup(10 * time.Minute)

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.tracer.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(middleware.Timeout(requestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited))
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/me", s.handleMe)

			r.Post("/cadastro/orcamento", s.handleCreateBudget)
			r.Get("/listar/orcamento", s.handleListBudgets)
			r.Get("/orcamento/grafico", s.handleIncomeVsExpense)
			r.Get("/orcamento/grafico/gastosFixos", s.handleFixedCostBreakdown)
			r.Get("/orcamento/{id}", s.handleGetBudget)
			r.Put("/orcamento/{id}", s.handleUpdateBudget)
			r.Delete("/orcamento/{id}", s.handleDeleteBudget)

			r.Post("/cadastro/gastoFixo", s.handleCreateFixedCost)
			r.Get("/listar/gastoFixo", s.handleListFixedCosts)
			r.Get("/gastoFixo/{id}", s.handleGetFixedCost)
			r.Put("/gastoFixo/{id}", s.handleUpdateFixedCost)
			r.Delete("/gastoFixo/{id}", s.handleDeleteFixedCost)

			r.Post("/cadastro/meta", s.handleCreateGoal)
			r.Get("/listar/meta", s.handleListGoals)
			r.Get("/meta/{id}", s.handleGetGoal)
			r.Put("/meta/{id}", s.handleUpdateGoal)
			r.Delete("/meta/{id}", s.handleDeleteGoal)

			s.mountEntries(r, "despesa", core.KindExpense)
			s.mountEntries(r, "receita", core.KindIncome)

			r.Post("/cadastro/categoria", s.handleCreateCategory)
			r.Get("/listar/categoria", s.handleListCategories)
			r.Delete("/categoria/{id}", s.handleDeleteCategory)
		})
	})
	return r
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded, try again later"})
}

// Shutdown gracefully shuts down the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ready.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
