package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/trimtime/booking-api/internal/config"
	"github.com/trimtime/booking-api/internal/email"
	"github.com/trimtime/booking-api/internal/handler"
	bookingHandler "github.com/trimtime/booking-api/internal/handler/booking"
	slotsHandler "github.com/trimtime/booking-api/internal/handler/slots"
	streamHandler "github.com/trimtime/booking-api/internal/handler/stream"
	webhookHandler "github.com/trimtime/booking-api/internal/handler/webhook"
	"github.com/trimtime/booking-api/internal/middleware"
	"github.com/trimtime/booking-api/internal/payment/stripe"
	"github.com/trimtime/booking-api/internal/repository/postgres"
	"github.com/trimtime/booking-api/internal/router"
	bookingService "github.com/trimtime/booking-api/internal/service/booking"
	eventService "github.com/trimtime/booking-api/internal/service/event"
	slotsService "github.com/trimtime/booking-api/internal/service/slots"
	"github.com/trimtime/booking-api/pkg/logger"
	redisBroker "github.com/trimtime/booking-api/pkg/messaging/redis"
	"github.com/trimtime/booking-api/pkg/metrics"
	"github.com/trimtime/booking-api/pkg/validator"
)

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

	// Repositories
	ledgerRepo := postgres.NewLedgerRepository(db)
	directoryRepo := postgres.NewDirectoryRepository(db)
	intentRepo := postgres.NewPaymentIntentRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	appMetrics := metrics.NewMetrics("booking", "core")
	eventSvc := eventService.NewService(outboxRepo)
	stripeClient := stripe.NewClient(stripe.Config{
		APIKey:           cfg.Stripe.APIKey,
		WebhookSecret:    cfg.Stripe.WebhookSecret,
		WebhookTolerance: time.Duration(cfg.Stripe.WebhookToleranceSeconds) * time.Second,
		RequestTimeout:   cfg.Stripe.RequestTimeout,
	})
	emailSvc := email.NewService(email.Config{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		Enabled:  cfg.Email.Enabled,
	}, directoryRepo, appLogger)

	bookingSvc := bookingService.NewService(
		ledgerRepo,
		directoryRepo,
		intentRepo,
		stripeClient,
		eventSvc,
		emailSvc,
		bookingService.Config{
			HoldTTL:       cfg.Booking.HoldTTL,
			IntentTimeout: cfg.Booking.IntentTimeout,
		},
		appLogger,
		appMetrics,
	)
	slotsSvc := slotsService.NewService(directoryRepo, ledgerRepo, appLogger)

	// Handlers
	v := validator.New()
	h := handler.NewHandler(db, broker)
	bookingH := bookingHandler.NewHandler(bookingSvc, v)
	slotsH := slotsHandler.NewHandler(slotsSvc)
	webhookH := webhookHandler.NewHandler(stripeClient, bookingSvc, appLogger)
	streamH := streamHandler.NewHandler(broker, appLogger)

	identity := middleware.NewIdentityMiddleware(cfg.JWT.Secret)

	r := router.NewRouter(identity, bookingH, slotsH, webhookH, streamH, h, router.Config{
		RateLimit:  rate.Limit(cfg.Server.RateLimitRPS),
		RateBurst:  cfg.Server.RateLimitBurst,
		CORSConfig: middleware.DefaultCORSConfig(),
		Timeout:    time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		appLogger.Info("starting api server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
}
