package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/slotwise/booking-engine/internal/booking"
	"github.com/slotwise/booking-engine/internal/catalog"
	redisclient "github.com/slotwise/booking-engine/internal/redis"
	"github.com/slotwise/booking-engine/internal/schedule"
)

type RouterConfig struct {
	Booking  *booking.Service
	Admin    *schedule.Admin
	Catalog  catalog.Catalog
	Cooldown redisclient.CooldownStore
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Logger   zerolog.Logger
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Everything below acts on behalf of a principal.
	r.Group(func(r chi.Router) {
		r.Use(PrincipalMiddleware)

		r.Get("/workers/{workerID}/slots", freeSlotsHandler(cfg.Booking))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Booking))
		r.Get("/appointments/{id}/history", historyHandler(cfg.Booking))

		// Mutations additionally sit behind the booking cooldown.
		r.Group(func(r chi.Router) {
			r.Use(CooldownMiddleware(cfg.Cooldown, cfg.Logger))

			r.Post("/appointments", bookAppointmentHandler(cfg.Booking))
			r.Post("/appointments/{id}/reschedule", rescheduleAppointmentHandler(cfg.Booking))
			r.Post("/appointments/{id}/cancel", transitionHandler(func(req *http.Request, id uuid.UUID) error {
				actor, _ := GetPrincipal(req.Context())
				return cfg.Booking.Cancel(req.Context(), actor, id)
			}))
			r.Post("/appointments/{id}/complete", transitionHandler(func(req *http.Request, id uuid.UUID) error {
				actor, _ := GetPrincipal(req.Context())
				return cfg.Booking.Complete(req.Context(), actor, id)
			}))
			r.Post("/appointments/{id}/no-show", transitionHandler(func(req *http.Request, id uuid.UUID) error {
				actor, _ := GetPrincipal(req.Context())
				return cfg.Booking.MarkNoShow(req.Context(), actor, id)
			}))
		})

		// Schedule administration
		r.Put("/workers/{workerID}/template", setTemplateHandler(cfg.Admin, cfg.Catalog))
		r.Put("/workers/{workerID}/overrides", setOverrideHandler(cfg.Admin, cfg.Catalog))
		r.Delete("/workers/{workerID}/overrides/{date}", deleteOverrideHandler(cfg.Admin, cfg.Catalog))
		r.Post("/workers/{workerID}/breaks", addBreakHandler(cfg.Admin, cfg.Catalog))
		r.Delete("/workers/{workerID}/breaks/{id}", deleteBreakHandler(cfg.Admin, cfg.Catalog))
	})

	return r
}
