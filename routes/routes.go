package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/upb/shopping-assistant/app"
	"github.com/upb/shopping-assistant/handlers"
	"github.com/upb/shopping-assistant/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog(deps.Logger))
	r.Use(chimiddleware.Recoverer)

	// CORS middleware: the storefront widget is the only browser caller
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{deps.Config.CORS.AllowedOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var db handlers.DatabaseChecker
	if deps.DB != nil {
		db = deps.DB
	}
	var svc handlers.Assistant
	if deps.Assistant != nil {
		svc = deps.Assistant
	}

	health := handlers.NewHealthHandler(db, svc, deps.Logger)
	if deps.Audit != nil {
		health.WithAudit(deps.Audit)
	}
	generate := handlers.NewGenerateHandler(svc, deps.Logger)

	r.Get("/", handlers.HandleBanner)

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	r.Route("/generate", func(r chi.Router) {
		r.Post("/", generate.HandleGenerate)
		r.MethodNotAllowed(generate.HandleMethodNotAllowed)
	})

	if deps.Config.Observability.MetricsEnabled && deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// 404 handler
	r.NotFound(handlers.HandleNotFound)

	return r
}
