package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/benx421/rapidpay/internal/api"
	"github.com/benx421/rapidpay/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries the cross-cutting dependencies of the HTTP router.
type RouterConfig struct {
	Idempotency  middleware.IdempotencyStore
	Gatherer     prometheus.Gatherer
	SigningKey   []byte
	AuthDisabled bool
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
//
// /health, /metrics and the docs are public. Everything under /api/v1 passes
// bearer authentication and OpenAPI request validation. Card issuance and
// payment additionally honour Idempotency-Key; authorization never does, so
// every attempt reaches the engine and is recorded.
func NewRouter(handler *Handler, cfg RouterConfig, logger *slog.Logger) (http.Handler, error) {
	doc, err := api.LoadSwagger()
	if err != nil {
		return nil, err
	}
	validate, err := middleware.RequestValidator(doc, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build request validator: %w", err)
	}

	docs, err := api.NewDocs()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	docs.Register(r)
	r.Get("/health", handler.GetHealth)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.AuthDisabled {
			logger.Warn("bearer authentication disabled")
		} else {
			r.Use(middleware.RequireAuth(cfg.SigningKey, logger))
		}
		r.Use(validate)
		once := middleware.Idempotency(cfg.Idempotency, logger)

		r.With(once).Post("/cards", handler.CreateCard)
		r.Put("/cards/{cardNumber}", handler.UpdateCard)
		r.Post("/cards/{cardNumber}/authorize", handler.AuthorizeCard)
		r.With(once).Post("/cards/{cardNumber}/pay", handler.PayWithCard)
		r.Get("/cards/{cardNumber}/balance", handler.GetCardBalance)
		r.Get("/cards/{cardNumber}/history", handler.GetCardHistory)
		r.Get("/fees", handler.GetCurrentFee)
	})

	return r, nil
}
