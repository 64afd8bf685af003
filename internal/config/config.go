package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Booking storage: memory, postgres or mongo.
	BookingStore  string
	DatabaseURL   string
	MongoURL      string
	MongoDatabase string

	RedisAddr        string
	RedisPassword    string
	RedisTLS         bool
	ScheduleCacheTTL time.Duration

	ScheduleDays     int
	ScheduleTimes    []string
	ScheduleTimezone string

	CORSOrigins        []string
	RateLimitPerSecond int

	UseMemoryQueue        bool
	BookingEventsQueueURL string
	WorkerCount           int
	MemoryQueueVisibility time.Duration
	MemoryQueueMaxReceive int

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Operator notifications
	EmailProvider     string
	OperatorEmail     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	SESFromName       string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	SendCustomerSMS  bool

	// Display figures for the landing page stats block
	StatsPlayers       int
	StatsGamesPerMonth int
	StatsRating        float64

	// Base URL used by the terminal booking client
	APIBaseURL string
}

// DefaultScheduleTimes are the hourly court slots offered every day.
var DefaultScheduleTimes = []string{
	"09:00", "10:00", "11:00", "12:00", "13:00", "14:00",
	"15:00", "16:00", "17:00", "18:00", "19:00", "20:00", "21:00",
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real environment
// variables win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BookingStore:  strings.ToLower(strings.TrimSpace(getEnv("BOOKING_STORE", "memory"))),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		MongoURL:      getEnv("MONGO_URL", ""),
		MongoDatabase: getEnv("DB_NAME", "padel"),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),
		ScheduleCacheTTL: getEnvAsDuration("SCHEDULE_CACHE_TTL", 30*time.Second),

		ScheduleDays:     getEnvAsInt("SCHEDULE_DAYS", 14),
		ScheduleTimes:    getEnvAsList("SCHEDULE_TIMES", DefaultScheduleTimes),
		ScheduleTimezone: getEnv("SCHEDULE_TIMEZONE", "UTC"),

		CORSOrigins:        getEnvAsList("CORS_ORIGINS", []string{"*"}),
		RateLimitPerSecond: getEnvAsInt("RATE_LIMIT_PER_SECOND", 20),

		UseMemoryQueue:        getEnvAsBool("USE_MEMORY_QUEUE", true),
		BookingEventsQueueURL: getEnv("BOOKING_EVENTS_QUEUE_URL", ""),
		WorkerCount:           getEnvAsInt("WORKER_COUNT", 1),
		MemoryQueueVisibility: getEnvAsDuration("MEMORY_QUEUE_VISIBILITY_TIMEOUT", 30*time.Second),
		MemoryQueueMaxReceive: getEnvAsInt("MEMORY_QUEUE_MAX_RECEIVES", 5),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		OperatorEmail:     getEnv("OPERATOR_EMAIL", ""),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Padel Center"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "Padel Center"),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		SendCustomerSMS:  getEnvAsBool("SEND_CUSTOMER_SMS", false),

		StatsPlayers:       getEnvAsInt("STATS_PLAYERS", 1247),
		StatsGamesPerMonth: getEnvAsInt("STATS_GAMES_PER_MONTH", 234),
		StatsRating:        getEnvAsFloat("STATS_RATING", 4.9),

		APIBaseURL: getEnv("PADEL_API_URL", "http://localhost:8080/api"),
	}
}

// ScheduleLocation resolves ScheduleTimezone, falling back to UTC.
func (c *Config) ScheduleLocation() *time.Location {
	loc, err := time.LoadLocation(c.ScheduleTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
