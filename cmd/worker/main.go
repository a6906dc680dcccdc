package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/trimtime/booking-api/internal/config"
	"github.com/trimtime/booking-api/internal/payment/stripe"
	"github.com/trimtime/booking-api/internal/repository/postgres"
	bookingService "github.com/trimtime/booking-api/internal/service/booking"
	eventService "github.com/trimtime/booking-api/internal/service/event"
	bookingWorker "github.com/trimtime/booking-api/internal/worker"
	"github.com/trimtime/booking-api/pkg/logger"
	redisBroker "github.com/trimtime/booking-api/pkg/messaging/redis"
	"github.com/trimtime/booking-api/pkg/metrics"
	"github.com/trimtime/booking-api/pkg/worker"
)

// The worker runs the asynchronous halves of the booking core: the
// outbox processor that fans slot events out to subscribers and the
// sweeper that releases expired payment holds.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	appLogger := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Pretty:     cfg.Logging.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redisBroker.NewRedisBroker(redisBroker.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, &appLogger.ZL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	ledgerRepo := postgres.NewLedgerRepository(db)
	directoryRepo := postgres.NewDirectoryRepository(db)
	intentRepo := postgres.NewPaymentIntentRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	appMetrics := metrics.NewMetrics("booking", "worker")
	stripeClient := stripe.NewClient(stripe.Config{
		APIKey:         cfg.Stripe.APIKey,
		RequestTimeout: cfg.Stripe.RequestTimeout,
	})

	// No notifier here: the sweeper only releases holds, it never
	// confirms bookings.
	bookingSvc := bookingService.NewService(
		ledgerRepo,
		directoryRepo,
		intentRepo,
		stripeClient,
		eventService.NewService(outboxRepo),
		nil,
		bookingService.Config{
			HoldTTL:       cfg.Booking.HoldTTL,
			IntentTimeout: cfg.Booking.IntentTimeout,
		},
		appLogger,
		appMetrics,
	)

	outboxProcessor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:       cfg.Outbox.BatchSize,
		PollInterval:    cfg.Outbox.PollInterval,
		MaxRetries:      cfg.Outbox.MaxRetries,
		RetryDelay:      cfg.Outbox.RetryDelay,
		RetainProcessed: cfg.Outbox.RetainProcessed,
		CleanupEvery:    cfg.Outbox.CleanupEvery,
	}, appLogger, appMetrics)

	sweeper := bookingWorker.NewHoldSweeper(
		ledgerRepo,
		bookingSvc,
		cfg.Booking.SweepInterval,
		cfg.Booking.SweepBatchSize,
		appLogger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go outboxProcessor.Start(ctx)
	go sweeper.Start(ctx)

	// Minimal health surface so orchestration can probe the worker.
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port+1),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start health server")
		}
	}()

	appLogger.Info("worker started",
		"sweep_interval", cfg.Booking.SweepInterval.String(),
		"outbox_poll", cfg.Outbox.PollInterval.String(),
	)

	<-ctx.Done()
	appLogger.Info("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "health server shutdown failed")
	}
}
