package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration resolved from the environment.
type Config struct {
	Environment string
	HTTPAddr    string
	DatabaseDSN string
	JWTSecret   string

	// OverdueSweepSchedule is a cron expression for the daily fee sweep.
	OverdueSweepSchedule string
	SweepBatchSize       int

	PaymentRateLimit  int
	PaymentRateWindow time.Duration

	TracingEnabled     bool
	TracingEndpoint    string
	TracingProtocol    string
	TracingSampleRatio float64

	Bootstrap Bootstrap
}

// Bootstrap controls first-run seeding.
type Bootstrap struct {
	EnsureDefaultAdmin bool
	AdminEmail         string
	AdminPassword      string
	SeedSampleRooms    bool
}

// Load reads configuration from the environment, consulting a local .env
// file in non-production environments.
func Load() (Config, error) {
	env := strings.TrimSpace(os.Getenv("HMS_ENV"))
	if env == "" {
		env = "development"
	}
	if env != "production" {
		_ = godotenv.Load()
	}

	cfg := Config{
		Environment:          env,
		HTTPAddr:             getEnv("HMS_HTTP_ADDR", ":8080"),
		DatabaseDSN:          getEnv("HMS_DATABASE_DSN", "host=localhost user=hms password=hms dbname=hms port=5432 sslmode=disable"),
		JWTSecret:            getEnv("HMS_JWT_SECRET", ""),
		OverdueSweepSchedule: getEnv("HMS_OVERDUE_SWEEP_SCHEDULE", "30 0 * * *"),
		SweepBatchSize:       getEnvInt("HMS_SWEEP_BATCH_SIZE", 200),
		PaymentRateLimit:     getEnvInt("HMS_PAYMENT_RATE_LIMIT", 30),
		PaymentRateWindow:    getEnvDuration("HMS_PAYMENT_RATE_WINDOW", time.Minute),
		TracingEnabled:       getEnvBool("HMS_TRACING_ENABLED", false),
		TracingEndpoint:      getEnv("HMS_TRACING_ENDPOINT", ""),
		TracingProtocol:      getEnv("HMS_TRACING_PROTOCOL", "grpc"),
		TracingSampleRatio:   getEnvFloat("HMS_TRACING_SAMPLE_RATIO", 0.1),
		Bootstrap: Bootstrap{
			EnsureDefaultAdmin: getEnvBool("HMS_BOOTSTRAP_ADMIN", true),
			AdminEmail:         getEnv("HMS_ADMIN_EMAIL", "admin@hostel.local"),
			AdminPassword:      getEnv("HMS_ADMIN_PASSWORD", ""),
			SeedSampleRooms:    getEnvBool("HMS_SEED_SAMPLE_ROOMS", false),
		},
	}
	return cfg, nil
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool { return c.Environment == "production" }

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
