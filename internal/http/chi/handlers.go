package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-relay/webhook"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds every route except POST /webhook/ip
const DefaultTimeout = 30 * time.Second

// Handlers sets up the webhook API routes
// metricsHandler is mounted at /metrics when not nil. triggerTimeout bounds POST /webhook/ip,
// which waits for a whole delivery wave
func Handlers(ctx context.Context, webhookService webhook.UseCase, logger zerolog.Logger, metricsHandler http.Handler, triggerTimeout time.Duration) *chi.Mux {
	if triggerTimeout <= 0 {
		triggerTimeout = DefaultTimeout
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(DefaultTimeout))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"health": "healthy"})
		})
		if metricsHandler != nil {
			r.Method(http.MethodGet, "/metrics", metricsHandler)
		}
	})

	r.Route("/webhook", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(DefaultTimeout))
			r.Method(http.MethodPost, "/create", createWebhookType(webhookService))
			r.Method(http.MethodGet, "/types", listWebhookTypes(webhookService))
			r.Method(http.MethodPost, "/register", registerWebhook(webhookService))
			r.Method(http.MethodGet, "/list", listRegistrations(webhookService))
			r.Method(http.MethodPatch, "/update", updateRegistration(webhookService))
			r.Method(http.MethodGet, "/notifications/{id}", getNotification(webhookService))
		})
		r.With(middleware.Timeout(triggerTimeout)).
			Method(http.MethodPost, "/ip", triggerDelivery(webhookService, triggerTimeout))
	})

	return r
}
