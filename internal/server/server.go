// Package server assembles the HTTP router and listener.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/picshelf/service/internal/auth"
	"github.com/picshelf/service/internal/config"
	"github.com/picshelf/service/internal/image"
	appMiddleware "github.com/picshelf/service/internal/middleware"
	"github.com/picshelf/service/internal/response"
	"github.com/picshelf/service/internal/user"
)

// Deps are the wired services the router dispatches to.
type Deps struct {
	Config  *config.Config
	Logger  *slog.Logger
	Users   *user.Service
	Auth    *auth.Service
	Images  *image.Service
	Metrics http.Handler
	// Ping reports database health; nil means always healthy.
	Ping func(ctx context.Context) error
}

type healthData struct {
	Status string `json:"status"`
}

// NewRouter builds the chi router with every route mounted.
func NewRouter(d Deps) http.Handler {
	userHandler := user.NewHandler(d.Users)
	authHandler := auth.NewHandler(d.Auth)
	imageHandler := image.NewHandler(d.Images, d.Users)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(d.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.Config.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Location"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if d.Ping != nil {
			if err := d.Ping(r.Context()); err != nil {
				slog.ErrorContext(r.Context(), "health check", "error", err)
				response.JSON(w, http.StatusServiceUnavailable, healthData{Status: "unavailable"})
				return
			}
		}
		response.OK(w, healthData{Status: "ok"})
	})

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(d.Config.JWTSecret))

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", userHandler.GetMe)
				r.Put("/storage", userHandler.UpdateStorage)
				r.Delete("/storage", userHandler.ClearStorage)
			})

			r.Route("/images", func(r chi.Router) {
				r.Post("/", imageHandler.RequestUpload)
				r.Get("/", imageHandler.ListImages)
				r.Get("/{id}", imageHandler.GetImage)
			})
		})
	})

	return r
}

// New returns an http.Server listening on the configured port.
func New(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
}
