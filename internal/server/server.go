// Package server provides the HTTP server and routing for folio.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/folioworks/folio/internal/auth"
	"github.com/folioworks/folio/internal/config"
	"github.com/folioworks/folio/internal/database"
	"github.com/folioworks/folio/internal/di"
	allocationhandlers "github.com/folioworks/folio/internal/modules/allocation/handlers"
	dividendhandlers "github.com/folioworks/folio/internal/modules/dividends/handlers"
	performancehandlers "github.com/folioworks/folio/internal/modules/performance/handlers"
	portfoliohandlers "github.com/folioworks/folio/internal/modules/portfolio/handlers"
	rebalancinghandlers "github.com/folioworks/folio/internal/modules/rebalancing/handlers"
	riskhandlers "github.com/folioworks/folio/internal/modules/risk/handlers"
	"github.com/folioworks/folio/internal/scheduler"
)

// Version is reported by the health endpoint
var Version = "dev"

// protectedPrefixes are guarded by bearer tokens when a JWT secret is set.
// Stateless /api/analytics and /health stay open.
var protectedPrefixes = []string{
	"/api/portfolios",
	"/api/events",
	"/api/ws",
	"/api/system",
}

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	db             *database.DB
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		db:        cfg.Container.DB,
		cfg:       cfg.Config,
		container: cfg.Container,
		systemHandlers: NewSystemHandlers(
			cfg.Container.DB,
			cfg.Container.EventManager,
			cfg.Container.BackupService,
			cfg.Log,
		),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// SetJobs registers job instances for manual triggering via API
func (s *Server) SetJobs(runner *scheduler.Scheduler, jobs map[string]scheduler.Job) {
	s.systemHandlers.SetJobs(runner, jobs)
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if s.cfg.JWTSecret != "" {
		s.router.Use(requireAuthUnder(protectedPrefixes, auth.Middleware([]byte(s.cfg.JWTSecret), s.log)))
	} else {
		s.log.Warn().Msg("FOLIO_JWT_SECRET not set, portfolio, event and system endpoints are unauthenticated")
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Long-lived streams stay outside the request timeout and compression
		r.Get("/events/stream", NewEventsStreamHandler(s.container.EventManager, s.log).ServeHTTP)
		r.Get("/ws", NewEventsSocketHandler(s.container.EventManager, s.cfg.AllowedOrigins, s.log).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			if !s.cfg.DevMode {
				r.Use(middleware.Compress(5))
			}

			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.systemHandlers.HandleSystemStatus)
				r.Get("/jobs", s.systemHandlers.HandleListJobs)
				r.Post("/jobs/{name}", s.systemHandlers.HandleTriggerJob)
				r.Get("/backups", s.systemHandlers.HandleListBackups)
			})

			s.registerModuleRoutes(r)
		})
	})
}

// registerModuleRoutes mounts the analytics and portfolio handlers. Stored
// portfolios are read through the portfolio service, so ownership checks
// apply to every /portfolios/{id}/... route.
func (s *Server) registerModuleRoutes(r chi.Router) {
	c := s.container
	analytics := s.cfg.Analytics
	source := c.PortfolioService

	portfoliohandlers.NewHandler(source, s.log).RegisterRoutes(r)

	riskhandlers.NewHandler(c.RiskEngine, source, analytics.RiskFreeRate, s.log).RegisterRoutes(r)
	performancehandlers.NewHandler(c.PerformanceAnalyzer, source, s.log).RegisterRoutes(r)

	rebalancingHandler := rebalancinghandlers.NewHandler(c.Rebalancer, source, analytics.DefaultStrategy, s.log)
	rebalancingHandler.SetDefaultFrequency(analytics.RebalanceFrequency)
	rebalancingHandler.RegisterRoutes(r)

	dividendhandlers.NewHandler(c.IncomeProjector, source, analytics.DividendYield, s.log).RegisterRoutes(r)
	allocationhandlers.NewHandler(c.ConcentrationChecker, source, analytics.SectorGroups, s.log).RegisterRoutes(r)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// requireAuthUnder applies authMiddleware to requests below any of prefixes
func requireAuthUnder(prefixes []string, authMiddleware func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		guarded := authMiddleware(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range prefixes {
				if r.URL.Path == prefix || strings.HasPrefix(r.URL.Path, prefix+"/") {
					guarded.ServeHTTP(w, r)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
