package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/pkg/database"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the kitchen service configuration
type Config struct {
	ServiceName string
	Environment string
	LogLevel    string
	HTTPPort    string
	GRPCPort    string

	StoreDriver string
	Database    database.Config

	RedisAddr     string
	RedisPassword string
	KafkaBrokers  []string
	KafkaTopic    string
	TriggerTopic  string
	ConsumerGroup string

	JWTSecret      string
	JaegerEndpoint string
	TraceSampling  float64

	PlanningHour    int
	RateLimit       int
	RateLimitWindow time.Duration

	Policy domain.Policy
}

// IsDevelopment reports whether console logging should be used
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Asia/Bangkok"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "kitchen-service"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		GRPCPort:    getEnv("GRPC_PORT", "9090"),
		StoreDriver: getEnv("STORE_DRIVER", DriverPostgres),
		Database: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "kitchendb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: "UTC",
		},
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:   splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "kitchen.events"),
		TriggerTopic:   getEnv("KAFKA_TRIGGER_TOPIC", "kitchen.planning-trigger"),
		ConsumerGroup:  getEnv("KAFKA_CONSUMER_GROUP", "kitchen-planner"),
		JWTSecret:      getEnv("JWT_SECRET", "change-me-in-production"),
		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		Policy:         domain.DefaultPolicy(loc),
	}

	if cfg.StoreDriver != DriverPostgres && cfg.StoreDriver != DriverMemory {
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"PLANNING_HOUR", 19, &cfg.PlanningHour},
		{"RATE_LIMIT", 100, &cfg.RateLimit},
		{"CUTOFF_HOUR", cfg.Policy.CutoffHour, &cfg.Policy.CutoffHour},
		{"DEFAULT_SHELF_LIFE_DAYS", cfg.Policy.DefaultShelfLifeDays, &cfg.Policy.DefaultShelfLifeDays},
	}
	for _, v := range ints {
		if *v.dst, err = getInt(v.key, v.def); err != nil {
			return nil, err
		}
	}
	if cfg.PlanningHour < 0 || cfg.PlanningHour > 23 || cfg.Policy.CutoffHour < 0 || cfg.Policy.CutoffHour > 24 {
		return nil, fmt.Errorf("hour settings out of range")
	}

	decimals := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"BUFFER_RATE", &cfg.Policy.BufferRate},
		{"RAW_BATCH_CAP", &cfg.Policy.RawBatchCap},
		{"COOKED_BATCH_CAP", &cfg.Policy.CookedBatchCap},
		{"DEFAULT_WEIGHT_PER_UNIT", &cfg.Policy.DefaultWeightPerUnit},
		{"CREDIT_RATE", &cfg.Policy.CreditRate},
	}
	for _, v := range decimals {
		if *v.dst, err = getDecimal(v.key, *v.dst); err != nil {
			return nil, err
		}
	}
	if !cfg.Policy.RawBatchCap.IsPositive() || !cfg.Policy.CookedBatchCap.IsPositive() {
		return nil, fmt.Errorf("batch caps must be positive")
	}

	if cfg.Policy.FilingWindow, err = getDuration("DISPUTE_FILING_WINDOW", cfg.Policy.FilingWindow); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = getDuration("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.TraceSampling, err = strconv.ParseFloat(getEnv("TRACE_SAMPLE_RATIO", "1"), 64); err != nil {
		return nil, fmt.Errorf("invalid TRACE_SAMPLE_RATIO: %w", err)
	}
	cfg.Policy.CountRejectedDisputes = getEnv("COUNT_REJECTED_DISPUTES", "false") == "true"

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
