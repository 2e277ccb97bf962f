package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookingd/internal/config"
	"bookingd/internal/domain"
	"bookingd/internal/events"
	"bookingd/internal/export"
	"bookingd/internal/inventory"
	"bookingd/internal/logging"
	"bookingd/internal/metrics"
	"bookingd/internal/models"
	"bookingd/internal/notify"
	"bookingd/internal/payment"
	"bookingd/internal/service"
	"bookingd/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, logger)

	redisClient := initRedis(cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	ledger := inventory.NewLedger(cfg.Items, logging.Component(logger, "inventory"))
	items := service.NewItemService(ledger, logging.Component(logger, "items"))

	gateway, err := initPayments(cfg, logger)
	if err != nil {
		return err
	}

	bus := events.NewEventBus()
	bus.Subscribe(events.EventBookingConfirmed, func(e *events.Event) error {
		logger.Debug().Str("event", e.Type).RawJSON("payload", e.Payload).Msg("event published")
		return nil
	})

	notifier, err := buildNotifier(cfg, bus, redisClient, logger)
	if err != nil {
		return err
	}

	var async *worker.NotificationWorker
	if cfg.Notifications.Async {
		async = worker.NewNotificationWorker(notifier, redisClient, worker.Options{
			QueueSize:     cfg.Notifications.QueueSize,
			Retry:         worker.PolicyFromConfig(cfg.Notifications.Retry),
			DeadLetterKey: cfg.Notifications.RedisKey + ":deadletter",
			SendTimeout:   cfg.Booking.CallTimeout,
		}, logging.Component(logger, "notification-worker"))
		go async.Start(ctx)
		notifier = async
	}

	bookings := service.NewBookingService(ledger, gateway, notifier, service.Options{
		CallTimeout:             cfg.Booking.CallTimeout,
		CompensateFailedReserve: cfg.Booking.Compensate(),
	}, logging.Component(logger, "bookings"))

	logger.Info().
		Int("items", len(items.GetActiveItems(ctx))).
		Str("payment_provider", cfg.Payment.Provider).
		Strs("sinks", cfg.Notifications.Sinks).
		Bool("async_notifications", cfg.Notifications.Async).
		Msg("booking service started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if async != nil {
		async.Drain(shutdownCtx)
	}

	if cfg.Exports.Path != "" {
		if _, err := exportBookings(cfg.Exports.Path, bookings.AllBookings(), items.GetItems(shutdownCtx), time.Now(), logger); err != nil {
			logger.Error().Err(err).Msg("export bookings")
		}
	}

	logger.Info().Msg("booking service stopped")
	return nil
}

// exportBookings writes the shutdown report. It returns "" without creating a
// file when there is nothing to report.
func exportBookings(dir string, bookings []models.Booking, items []models.Item, now time.Time, logger *zerolog.Logger) (string, error) {
	if len(bookings) == 0 {
		logger.Info().Str("dir", dir).Msg("no bookings recorded, skipping export")
		return "", nil
	}

	path, err := export.WriteBookingsXLSX(dir, bookings, items, now)
	if err != nil {
		return "", err
	}
	logger.Info().Str("file_path", path).Int("bookings", len(bookings)).Msg("Excel file created")
	return path, nil
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logging.Component(baseLogger, "main"), closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := notify.NewRedisClient(cfg.Redis)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initPayments(cfg *config.Config, logger *zerolog.Logger) (domain.PaymentGateway, error) {
	paymentLogger := logging.Component(logger, "payments")

	var gateway domain.PaymentGateway
	switch cfg.Payment.Provider {
	case config.PaymentProviderSimulated:
		gateway = payment.NewSimulated(cfg.Payment.SimulatedLatency, paymentLogger)
	case config.PaymentProviderStripe:
		gateway = payment.NewStripe(payment.StripeOptions{
			SecretKey: cfg.Payment.Stripe.SecretKey,
			Currency:  cfg.Payment.Currency,
			BaseURL:   cfg.Payment.Stripe.BaseURL,
		}, paymentLogger)
	default:
		return nil, fmt.Errorf("unknown payment provider: %s", cfg.Payment.Provider)
	}

	return payment.NewInstrumented(gateway), nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
