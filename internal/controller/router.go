package controller

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/seatsurge/ticketing/internal/config"
	customMW "github.com/seatsurge/ticketing/internal/middleware"
	"github.com/seatsurge/ticketing/internal/observability"
)

type RouterDeps struct {
	Pool                *pgxpool.Pool
	RedisClient         *redis.Client
	PurchaseService     Purchaser
	AvailabilityService AvailabilityReader
	TicketService       TicketReader
	IdempotencyStore    customMW.IdempotencyStore
	IdempotencyTTL      time.Duration
	Metrics             *observability.Metrics
	CORSConfig          config.CORSConfig
	Logger              zerolog.Logger
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-User-ID", "X-User-Name"},
		ExposedHeaders:   []string{"Link", "X-Idempotency-Replayed"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Pool, deps.RedisClient)
	ticketH := NewTicketController(deps.PurchaseService, deps.AvailabilityService, deps.TicketService, deps.Metrics, deps.Logger)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/tickets", func(r chi.Router) {
		idempotencyMW := customMW.Idempotency(deps.IdempotencyStore, deps.IdempotencyTTL)

		r.With(idempotencyMW).Post("/purchase", ticketH.Purchase)
		r.Get("/availability/{eventID}", ticketH.Availability)

		r.Get("/", ticketH.List)
		r.Get("/my", ticketH.My)
		r.Get("/user/{userID}", ticketH.ByUser)
		r.Get("/number/{ticketNumber}", ticketH.ByNumber)
		r.Get("/{id}", ticketH.Get)
		r.Post("/{id}/cancel", ticketH.Cancel)
	})

	return r
}
