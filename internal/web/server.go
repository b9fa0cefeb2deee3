// Package web serves the JSON API over chi.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/seduc-am/planoacao/internal/config"
	"github.com/seduc-am/planoacao/internal/core"
	"github.com/seduc-am/planoacao/internal/metrics"
	"github.com/seduc-am/planoacao/internal/web/middleware"
)

// Server is the HTTP server of the action-plan API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server with its middleware and routes.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Metrics)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders)
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins:   s.cfg.Security.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	if s.cfg.Rate.Enabled {
		s.router.Use(newRateLimit("api", s.cfg.Rate.RequestsPerMinute, time.Minute))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	uploadLimit := func(next http.Handler) http.Handler { return next }
	if s.cfg.Rate.Enabled {
		uploadLimit = newRateLimit("upload", s.cfg.Rate.UploadLimit, time.Minute)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(s.service))

			r.Post("/logout", s.handleLogout)
			r.Get("/info", s.handleInfo)

			// Administration
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Post("/logout/{user}", s.handleLogoutUser)

				r.Get("/users", s.handleListUsers)
				r.Post("/users", s.handleCreateUser)
				r.Get("/users/{id}", s.handleGetUser)
				r.Put("/users/{id}", s.handleUpdateUser)
				r.Delete("/users/{id}", s.handleDeleteUser)

				r.With(uploadLimit).Post("/import-planosacao", s.handleImportPlans)
				r.Get("/import-jobs/{id}", s.handleImportJob)
				r.With(uploadLimit).Post("/update-dados", s.handleUpdatePlans)
				r.With(uploadLimit).Post("/update-dados/preview", s.handlePreviewUpdate)
				r.Get("/export", s.handleExportTemplate)
				r.Get("/export-dados", s.handleExportData)

				r.With(uploadLimit).Post("/import-coord", s.handleImportCoordinators)
				r.Get("/export-coord", s.handleExportCoordinators)
				r.Put("/coord/{user}", s.handleAssignCoordinator)
				r.Put("/assessor/{user}", s.handleAssignAdvisor)
				r.Delete("/coord/{id}", s.handleDeleteCoordinator)

				r.With(uploadLimit).Post("/import-escolas", s.handleImportSchools)
			})

			// Secretariat views
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdminOrSecretariat)

				r.Get("/escolas/view-registros/cde-cdre", s.handleSchoolsWithPlans)
				r.Get("/export-dados/escola/{sigeam}", s.handleExportSchoolData)
			})

			// Any role
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermissions)

				r.Get("/view-registros", s.handleListPlans)
				r.Get("/view-registros/ano/{ano}", s.handleListPlansByYear)
				r.Put("/view-registros/{id}", s.handleUpdatePlan)
				r.Delete("/view-registros/{id}", s.handleDeletePlan)
				r.Post("/create-plano-acao", s.handleCreatePlan)

				r.Get("/view-registros/user/{user}", s.handleSchoolsForUser)
				r.Get("/view-registros/escola/{sigeam}", s.handleSchoolWithPlans)
				r.Get("/view-escola", s.handleListSchools)
				r.Get("/view-escola/acao/{tipo}/sigeam/{sigeam}", s.handleSchoolPlans)
				r.Get("/export-dados/user/{user}", s.handleExportUserData)

				r.Get("/coord", s.handleListCoordinators)
				r.Get("/coord/user/{user}", s.handleCoordinatorsByUser)
				r.Get("/assessor/{user}", s.handleCoordinatorsByAdvisor)
			})
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
