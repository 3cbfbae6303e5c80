package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/maynagashev/slidedeck/server/internal/metrics"
	"github.com/maynagashev/slidedeck/server/internal/middleware"
)

// RouterConfig - зависимости маршрутизатора.
type RouterConfig struct {
	Auth          *AuthHandler
	Presentations *PresentationHandler
	Admin         *AdminHandler
	Tokens        middleware.TokenParser
	Metrics       *metrics.Metrics
	MaxBodyBytes  int64
	Logger        *zap.Logger
}

// NewRouter настраивает и возвращает роутер chi.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics(cfg.Metrics))
	if cfg.MaxBodyBytes > 0 {
		r.Use(chimw.RequestSize(cfg.MaxBodyBytes))
	}

	// --- Маршруты --- //
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})
	r.Handle("/metrics", cfg.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// Публичные маршруты (регистрация, вход)
		r.Post("/register", cfg.Auth.Register)
		r.Post("/login", cfg.Auth.Login)

		// Приватные маршруты (требуют аутентификации)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticator(cfg.Tokens, cfg.Logger))

			r.Route("/presentations", func(r chi.Router) {
				r.Get("/", cfg.Presentations.List)
				r.Post("/", cfg.Presentations.Create)
				r.Get("/{id}", cfg.Presentations.Get)
				r.Put("/{id}", cfg.Presentations.Update)
				r.Get("/{id}/versions", cfg.Presentations.Versions)
				r.Get("/{id}/versions/{version}/download", cfg.Presentations.Download)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/dashboard", cfg.Admin.Dashboard)
				r.Get("/presentations", cfg.Admin.Presentations)
				r.Post("/presentations/{id}/review", cfg.Admin.Review)
				r.Post("/presentations/{id}/reset", cfg.Admin.Reset)
				r.Post("/presentations/{id}/rollback/{version}", cfg.Admin.Rollback)
				r.Delete("/presentations/{id}", cfg.Admin.Delete)
				r.Get("/users", cfg.Admin.Users)
				r.Post("/users/{id}/toggle-status", cfg.Admin.ToggleUserStatus)
			})
		})
	})
	return r
}

// requestLogger пишет в zap по строке на каждый завершенный запрос.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.Named("HTTP")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("Запрос обработан",
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()))
		})
	}
}
