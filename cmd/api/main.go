package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/seatsurge/ticketing/internal/bootstrap"
	"github.com/seatsurge/ticketing/internal/catalog"
	"github.com/seatsurge/ticketing/internal/controller"
	"github.com/seatsurge/ticketing/internal/gateway"
	"github.com/seatsurge/ticketing/internal/notifier"
	"github.com/seatsurge/ticketing/internal/repository/postgres"
	"github.com/seatsurge/ticketing/internal/service"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "ticketing-api", "ticketing")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	ticketRepo := postgres.NewTicketRepository(app.Pool)
	paymentRepo := postgres.NewPaymentRepository(app.Pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	// --- Collaborators ---
	catalogClient := catalog.NewClient(catalog.Options{
		BaseURL:     app.Config.Catalog.BaseURL,
		Timeout:     app.Config.Catalog.Timeout,
		MaxAttempts: app.Config.Catalog.MaxAttempts,
		RetryDelay:  app.Config.Catalog.RetryDelay,
		Logger:      app.Logger,
	})
	provider := gateway.NewMockProvider(
		app.Config.Gateway.Provider,
		gateway.WithLatency(app.Config.Gateway.Latency),
		gateway.WithFailureRate(app.Config.Gateway.FailureRate),
	)
	dispatcher := notifier.NewStreamDispatcher(app.Redis, app.Config.Notifications.DispatchTimeout, app.Logger)

	// --- Services ---
	recorder := service.NewPaymentRecorder(paymentRepo, provider)
	purchaseService := service.NewPurchaseService(ticketRepo, txManager, catalogClient, recorder, dispatcher, app.Logger)
	availabilityService := service.NewAvailabilityService(ticketRepo, catalogClient, app.Logger)
	ticketService := service.NewTicketService(ticketRepo, paymentRepo, txManager, app.Logger)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:                app.Pool,
		RedisClient:         app.Redis,
		PurchaseService:     purchaseService,
		AvailabilityService: availabilityService,
		TicketService:       ticketService,
		IdempotencyStore:    idempotencyRepo,
		IdempotencyTTL:      app.Config.Server.IdempotencyTTL,
		Metrics:             app.Metrics,
		CORSConfig:          app.Config.Server.CORS,
		Logger:              app.Logger,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
