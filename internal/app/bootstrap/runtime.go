package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wolfman30/padel-booking/internal/bookings"
	appconfig "github.com/wolfman30/padel-booking/internal/config"
	"github.com/wolfman30/padel-booking/internal/events"
	"github.com/wolfman30/padel-booking/internal/notify"
	"github.com/wolfman30/padel-booking/internal/stats"
	"github.com/wolfman30/padel-booking/pkg/logging"
)

// Supported BOOKING_STORE values.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BookingStore bundles the reservation repository with the counter the
// stats endpoints read from.
type BookingStore struct {
	Kind    string
	Repo    bookings.Repository
	Counter stats.Counter
	closers []func()
}

// Close releases every connection the store opened.
func (s *BookingStore) Close() {
	if s == nil {
		return
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// BuildBookingStore opens the store selected by BOOKING_STORE.
func BuildBookingStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*BookingStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	kind := strings.ToLower(strings.TrimSpace(cfg.BookingStore))
	if kind == "" {
		kind = StoreMemory
	}

	switch kind {
	case StoreMemory:
		repo := bookings.NewInMemoryRepository()
		logger.Info("using in-memory booking store")
		return &BookingStore{Kind: kind, Repo: repo, Counter: stats.NewListCounter(repo)}, nil

	case StorePostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, fmt.Errorf("bootstrap: DATABASE_URL is required for the postgres store")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
		}
		sqlDB, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("bootstrap: open stats db: %w", err)
		}
		sqlDB.SetMaxOpenConns(4)
		logger.Info("using postgres booking store")
		return &BookingStore{
			Kind:    kind,
			Repo:    bookings.NewPostgresRepository(pool),
			Counter: stats.NewSQLCounter(sqlDB),
			closers: []func(){pool.Close, func() { _ = sqlDB.Close() }},
		}, nil

	case StoreMongo:
		if strings.TrimSpace(cfg.MongoURL) == "" {
			return nil, fmt.Errorf("bootstrap: MONGO_URL is required for the mongo store")
		}
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURL))
		if err != nil {
			return nil, fmt.Errorf("bootstrap: connect mongo: %w", err)
		}
		disconnect := func() { _ = client.Disconnect(context.Background()) }
		repo := bookings.NewMongoRepository(client.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			disconnect()
			return nil, fmt.Errorf("bootstrap: mongo indexes: %w", err)
		}
		logger.Info("using mongo booking store", "database", cfg.MongoDatabase)
		return &BookingStore{
			Kind:    kind,
			Repo:    repo,
			Counter: stats.NewListCounter(repo),
			closers: []func(){disconnect},
		}, nil
	}
	return nil, fmt.Errorf("bootstrap: unknown booking store %q", cfg.BookingStore)
}

// BuildEmailSender picks the operator email transport from EMAIL_PROVIDER.
// ses may be nil unless the provider is "ses".
func BuildEmailSender(cfg *appconfig.Config, ses *sesv2.Client, logger *logging.Logger) (notify.EmailSender, error) {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.EmailProvider {
	case "sendgrid":
		sender, err := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: sendgrid: %w", err)
		}
		return sender, nil
	case "ses":
		sender, err := notify.NewSESSender(ses, notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: ses: %w", err)
		}
		return sender, nil
	case "", "stub":
		return notify.NewStubEmailSender(logger), nil
	}
	return nil, fmt.Errorf("bootstrap: unknown email provider %q", cfg.EmailProvider)
}

// BuildSMSSender returns a Twilio sender when credentials are configured and
// a logging stub otherwise.
func BuildSMSSender(cfg *appconfig.Config, logger *logging.Logger) (notify.SMSSender, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" {
		if cfg.SendCustomerSMS {
			logger.Warn("customer sms enabled without twilio credentials; using stub sender")
		}
		return notify.NewStubSMSSender(logger), nil
	}
	sender, err := notify.NewTwilioSMSSender(notify.TwilioConfig{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		FromNumber: cfg.TwilioFromNumber,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: twilio: %w", err)
	}
	return sender, nil
}

// BuildEventQueue returns the booking events queue. With USE_MEMORY_QUEUE the
// second return value is the in-process queue the API drains itself.
func BuildEventQueue(cfg *appconfig.Config, client *sqs.Client) (events.Queue, *events.MemoryQueue, error) {
	if cfg.UseMemoryQueue {
		q := events.NewMemoryQueue(256,
			events.WithVisibilityTimeout(cfg.MemoryQueueVisibility),
			events.WithMaxReceives(cfg.MemoryQueueMaxReceive),
		)
		return q, q, nil
	}
	if client == nil {
		return nil, nil, fmt.Errorf("bootstrap: sqs client is required")
	}
	q, err := events.NewSQSQueue(client, cfg.BookingEventsQueueURL)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: %w", err)
	}
	return q, nil, nil
}
