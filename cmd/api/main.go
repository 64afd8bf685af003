package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/padel-booking/cmd/mainconfig"
	"github.com/wolfman30/padel-booking/internal/api/router"
	"github.com/wolfman30/padel-booking/internal/app/bootstrap"
	"github.com/wolfman30/padel-booking/internal/bookings"
	appconfig "github.com/wolfman30/padel-booking/internal/config"
	"github.com/wolfman30/padel-booking/internal/events"
	"github.com/wolfman30/padel-booking/internal/notify"
	"github.com/wolfman30/padel-booking/internal/observability/metrics"
	"github.com/wolfman30/padel-booking/internal/schedule"
	"github.com/wolfman30/padel-booking/internal/stats"
	notificationworker "github.com/wolfman30/padel-booking/internal/worker/notifications"
	"github.com/wolfman30/padel-booking/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting padel booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"booking_store", cfg.BookingStore,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, err := buildAPI(ctx, cfg, logger, prometheus.NewRegistry())
	if err != nil {
		logger.Error("failed to initialise API", "error", err)
		os.Exit(1)
	}
	defer api.Close()

	// Drain in-process booking events when no external queue is configured
	if api.worker != nil {
		api.worker.Start(ctx)
		logger.Info("inline notification worker started")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if api.worker != nil {
		api.worker.Wait()
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// apiServer is the assembled HTTP surface plus the resources it owns.
type apiServer struct {
	handler http.Handler
	worker  *notificationworker.Worker
	store   *bootstrap.BookingStore
	redis   *redis.Client
}

func (a *apiServer) Close() {
	a.store.Close()
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// setupMetrics registers the booking metrics and the Go runtime collectors
// on reg and returns the scrape handler.
func setupMetrics(reg *prometheus.Registry) (http.Handler, *metrics.BookingMetrics) {
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewBookingMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

func buildAPI(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, reg *prometheus.Registry) (*apiServer, error) {
	metricsHandler, bookingMetrics := setupMetrics(reg)

	store, err := bootstrap.BuildBookingStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	api := &apiServer{store: store}

	api.redis = bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	var cache schedule.Cache
	if api.redis != nil {
		cache = schedule.NewRedisCache(api.redis, cfg.ScheduleCacheTTL)
		logger.Info("schedule cache enabled", "ttl", cfg.ScheduleCacheTTL)
	}

	gen := schedule.Generator{
		Days:     cfg.ScheduleDays,
		Times:    cfg.ScheduleTimes,
		Location: cfg.ScheduleLocation(),
	}
	scheduleService := schedule.NewService(gen, store.Repo, cache, bookingMetrics, logger)

	var sqsClient *sqs.Client
	var sesClient *sesv2.Client
	if !cfg.UseMemoryQueue || cfg.EmailProvider == "ses" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			api.Close()
			return nil, err
		}
		sqsClient = mainconfig.NewSQSClient(awsCfg, cfg)
		sesClient = mainconfig.NewSESClient(awsCfg, cfg)
	}

	queue, memQueue, err := bootstrap.BuildEventQueue(cfg, sqsClient)
	if err != nil {
		api.Close()
		return nil, err
	}
	publisher, err := events.NewPublisher(queue, logger)
	if err != nil {
		api.Close()
		return nil, err
	}

	if memQueue != nil {
		notifier, err := buildNotifier(cfg, sesClient, bookingMetrics, logger)
		if err != nil {
			api.Close()
			return nil, err
		}
		opts := []notificationworker.Option{
			notificationworker.WithWorkerCount(cfg.WorkerCount),
			notificationworker.WithReceiveWaitSeconds(0),
		}
		if api.redis != nil {
			opts = append(opts, notificationworker.WithProcessedStore(events.NewRedisProcessedStore(api.redis, 0)))
		}
		api.worker = notificationworker.New(memQueue, notifier, logger, opts...)
	}

	bookingService := bookings.NewService(store.Repo, logger,
		bookings.WithSlotChecker(scheduleService),
		bookings.WithPublisher(publisher),
		bookings.WithMetrics(bookingMetrics),
	)

	api.handler = router.New(&router.Config{
		Logger:          logger,
		ScheduleHandler: schedule.NewHandler(scheduleService, logger),
		BookingsHandler: bookings.NewHandler(bookingService, logger),
		StatsHandler: stats.NewHandler(stats.Figures{
			Players:       cfg.StatsPlayers,
			GamesPerMonth: cfg.StatsGamesPerMonth,
			Rating:        cfg.StatsRating,
		}, store.Counter, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
	})
	return api, nil
}

func buildNotifier(cfg *appconfig.Config, ses *sesv2.Client, m *metrics.BookingMetrics, logger *logging.Logger) (*notify.Service, error) {
	email, err := bootstrap.BuildEmailSender(cfg, ses, logger)
	if err != nil {
		return nil, err
	}
	sms, err := bootstrap.BuildSMSSender(cfg, logger)
	if err != nil {
		return nil, err
	}
	return notify.NewService(email, sms, notify.Config{
		OperatorEmail:   cfg.OperatorEmail,
		SendCustomerSMS: cfg.SendCustomerSMS,
	}, m, logger), nil
}
