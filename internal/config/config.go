package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	Database DatabaseConfig

	// PaymentGateway is "stripe" or "mock"; mock is for local runs only.
	PaymentGateway      string
	StripeAPIKey        string
	StripeWebhookSecret string
	FrontendURL         string
	Currency            string

	JWTSecret string

	RabbitURL      string
	RabbitExchange string

	CheckoutRateRPS   float64
	CheckoutRateBurst int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Schema   string
}

// DSN returns the postgres connection string for the pgx stdlib driver.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		d.Username, d.Password, d.Host, d.Port, d.Database, d.Schema,
	)
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func Load() Config {
	return Config{
		Port:            parseInt("PORT", 7000),
		ShutdownTimeout: parseDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		CORSOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		Database: DatabaseConfig{
			Host:     getEnv("BLUEPRINT_DB_HOST", "localhost"),
			Port:     getEnv("BLUEPRINT_DB_PORT", "5432"),
			Username: getEnv("BLUEPRINT_DB_USERNAME", "postgres"),
			Password: getEnv("BLUEPRINT_DB_PASSWORD", "postgres"),
			Database: getEnv("BLUEPRINT_DB_DATABASE", "restaurant_checkout"),
			Schema:   getEnv("BLUEPRINT_DB_SCHEMA", "public"),
		},
		PaymentGateway:      orDefault(strings.ToLower(getEnv("PAYMENT_GATEWAY", "")), GatewayStripe),
		StripeAPIKey:        getEnv("STRIPE_API_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		FrontendURL:         strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		Currency:            getEnv("CHECKOUT_CURRENCY", "cad"),
		JWTSecret:           getEnv("AUTH_JWT_SECRET", ""),
		RabbitURL:           getEnv("RABBITMQ_URL", ""),
		RabbitExchange:      getEnv("RABBITMQ_EXCHANGE", "order_status_fanout"),
		CheckoutRateRPS:     parseFloat("CHECKOUT_RATE_RPS", 1),
		CheckoutRateBurst:   parseInt("CHECKOUT_RATE_BURST", 5),
	}
}

const (
	GatewayStripe = "stripe"
	GatewayMock   = "mock"
)

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	var errs []error
	switch c.PaymentGateway {
	case GatewayStripe:
		if c.StripeAPIKey == "" {
			errs = append(errs, errors.New("STRIPE_API_KEY is required unless PAYMENT_GATEWAY=mock"))
		}
	case GatewayMock:
	default:
		errs = append(errs, fmt.Errorf("unknown PAYMENT_GATEWAY %q", c.PaymentGateway))
	}
	if c.StripeWebhookSecret == "" {
		errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	}
	if c.Port <= 0 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	return errors.Join(errs...)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseDuration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return def
}

func parseInt(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	return def
}

func parseFloat(key string, def float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
