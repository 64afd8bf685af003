package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/padel-booking/cmd/mainconfig"
	"github.com/wolfman30/padel-booking/internal/app/bootstrap"
	"github.com/wolfman30/padel-booking/internal/config"
	"github.com/wolfman30/padel-booking/internal/events"
	"github.com/wolfman30/padel-booking/internal/notify"
	"github.com/wolfman30/padel-booking/internal/observability/metrics"
	notificationworker "github.com/wolfman30/padel-booking/internal/worker/notifications"
	"github.com/wolfman30/padel-booking/pkg/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("notification worker failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	if cfg.UseMemoryQueue || cfg.BookingEventsQueueURL == "" {
		return errors.New("notification worker requires USE_MEMORY_QUEUE=false and BOOKING_EVENTS_QUEUE_URL")
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return err
	}
	queue, _, err := bootstrap.BuildEventQueue(cfg, mainconfig.NewSQSClient(awsCfg, cfg))
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(reg)

	email, err := bootstrap.BuildEmailSender(cfg, mainconfig.NewSESClient(awsCfg, cfg), logger)
	if err != nil {
		return err
	}
	sms, err := bootstrap.BuildSMSSender(cfg, logger)
	if err != nil {
		return err
	}
	notifier := notify.NewService(email, sms, notify.Config{
		OperatorEmail:   cfg.OperatorEmail,
		SendCustomerSMS: cfg.SendCustomerSMS,
	}, bookingMetrics, logger)

	opts := []notificationworker.Option{
		notificationworker.WithWorkerCount(cfg.WorkerCount),
		notificationworker.WithReceiveWaitSeconds(20),
		notificationworker.WithReceiveBatchSize(10),
	}
	if redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true); redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		opts = append(opts, notificationworker.WithProcessedStore(events.NewRedisProcessedStore(redisClient, 0)))
	}

	worker := notificationworker.New(queue, notifier, logger, opts...)
	worker.Start(ctx)

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()
	logger.Info("notification worker started", "queue_url", cfg.BookingEventsQueueURL, "workers", cfg.WorkerCount)

	<-ctx.Done()
	logger.Info("notification worker shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	worker.Wait()
	return nil
}
