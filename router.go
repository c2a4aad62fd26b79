package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gitea.com/go-chi/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/blogem/diesel-log/config"
	"github.com/blogem/diesel-log/controllers"
	"github.com/blogem/diesel-log/database"
	"github.com/blogem/diesel-log/metrics"
	appmiddleware "github.com/blogem/diesel-log/middleware"
	"github.com/blogem/diesel-log/repositories"
)

// setupRouter configures all routes
func setupRouter(ctrl *controllers.Controllers, auditRepo repositories.AuditRepository, db *database.DB, m *metrics.Metrics, cfg *config.Config, logger logrus.FieldLogger) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appmiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if m != nil {
		r.Use(m.Middleware)
	}

	if cfg.Auth.Enabled {
		sessionHandler, err := session.Sessioner(session.Options{
			Provider:       "memory",
			ProviderConfig: "",
			CookieName:     "diesel_log_session",
			Secure:         cfg.Server.UseHTTPS,
			Gclifetime:     cfg.Auth.SessionLifetime,
			Maxlifetime:    cfg.Auth.SessionLifetime,
		})
		if err != nil {
			return nil, err
		}
		r.Use(sessionHandler)
	}

	// PUBLIC ROUTES (no authentication required)
	r.Get("/health", healthHandler(db))
	if cfg.Server.EnableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.Auth.Enabled {
		r.Get("/login", ctrl.Auth.Login)
		r.Get("/callback", ctrl.Auth.Callback)
		r.Get("/logout", ctrl.Auth.Logout)
	}

	// APPLICATION ROUTES (authentication required when enabled)
	r.Group(func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(appmiddleware.RequireAuth)
		}
		r.Use(appmiddleware.AuditLogger(auditRepo, logger.WithField("component", "audit")))

		// Long-lived event stream, no timeout or compression
		r.Get("/entries/stream", ctrl.Feed.Stream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
			r.Use(middleware.Compress(5))

			r.Get("/", ctrl.Entry.Index)
			r.Post("/entries", ctrl.Entry.Create)
			r.Get("/kmpl", ctrl.Entry.KMPL)
			r.Get("/entries/recent", ctrl.Feed.Recent)
			r.Get("/api/entries", ctrl.Feed.API)
			r.Get("/export.csv", ctrl.Export.CSV)
			r.Get("/export.xlsx", ctrl.Export.XLSX)
		})
	})

	return r, nil
}

// healthHandler reports whether the record store answers
func healthHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "healthy", http.StatusOK

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status":  status,
			"service": "diesel-log",
			"storage": db.Driver,
		})
	}
}
