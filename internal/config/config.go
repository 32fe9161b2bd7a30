package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	HTTPAddr     string

	DBDSN     string
	MongoURI  string
	MongoDB   string
	RedisAddr string
	AMQPURL   string

	JWTSecret         string
	JWTAccessTokenTTL time.Duration

	HoldTTL         time.Duration
	AvailabilityTTL time.Duration

	GatewaySecret      string
	GatewayProductCode string
	GatewayBaseURL     string
	PaymentSuccessURL  string
	PaymentFailureURL  string
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// Mongo holds the payment audit log; required so a confirmed payment
	// always has somewhere to land.
	cfg.MongoURI = os.Getenv("MONGO_URI")
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required")
	}
	cfg.MongoDB = getEnv("MONGO_DB", "venuepass")

	// Redis (availability cache) and AMQP (event publishing) are optional;
	// the server degrades to no caching / no events when unset.
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.AMQPURL = getEnv("AMQP_URL", "")

	// JWT secret is required for validating tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// JWT access token TTL, parse as time.Duration (e.g. "15m", "1h").
	cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	// Slot hold TTL (default: 10m)
	cfg.HoldTTL, err = getEnvAsDuration("HOLD_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	// Availability cache TTL (default: 15s; clients poll roughly every 30s)
	cfg.AvailabilityTTL, err = getEnvAsDuration("AVAILABILITY_CACHE_TTL", 15*time.Second)
	if err != nil {
		return nil, err
	}

	// Payment gateway settings. The signing secret is deliberately NOT
	// required at startup: initiate/verify report a clean error when it is
	// missing and the rest of the API keeps working.
	cfg.GatewaySecret = getEnv("GATEWAY_SECRET", "")
	cfg.GatewayProductCode = getEnv("GATEWAY_PRODUCT_CODE", "EPAYTEST")
	cfg.GatewayBaseURL = getEnv("GATEWAY_BASE_URL", "")
	cfg.PaymentSuccessURL = getEnv("PAYMENT_SUCCESS_URL", "")
	cfg.PaymentFailureURL = getEnv("PAYMENT_FAILURE_URL", "")

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a time.Duration.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid duration.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}

	return val, nil
}
