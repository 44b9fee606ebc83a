package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	PostgresURL string

	KafkaBrokers []string
	OrderTopic   string

	RedisURL  string
	JWTSecret string
	TokenTTL  time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	AdminEmail   string

	LowStockReportAt  string
	LowStockThreshold int

	ServiceVersion string
	OTLPEndpoint   string
	MigrationsPath string
}

// Load reads configuration from the environment, after merging a .env file when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. Split from Load so tests can supply a map.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:             valueOr(getenv("PORT"), "8080"),
		PostgresURL:      getenv("POSTGRES_URL"),
		OrderTopic:       valueOr(getenv("ORDER_TOPIC"), "order.placed"),
		RedisURL:         getenv("REDIS_URL"),
		JWTSecret:        getenv("JWT_SECRET"),
		SMTPHost:         getenv("SMTP_HOST"),
		SMTPUsername:     getenv("SMTP_USERNAME"),
		SMTPPassword:     getenv("SMTP_PASSWORD"),
		MailFrom:         valueOr(getenv("MAIL_FROM"), "Beverage Shop <no-reply@beverageshop.com>"),
		AdminEmail:       getenv("ADMIN_EMAIL"),
		LowStockReportAt: valueOr(getenv("LOW_STOCK_REPORT_AT"), "08:00"),
		ServiceVersion:   valueOr(getenv("SERVICE_VERSION"), "0.1.0"),
		OTLPEndpoint:     valueOr(getenv("OTEL_EXPORTER_OTLP_ENDPOINT"), "localhost:4317"),
		MigrationsPath:   valueOr(getenv("MIGRATIONS_PATH"), "file://migrations"),
	}

	if brokers := getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.TokenTTL, err = time.ParseDuration(valueOr(getenv("TOKEN_TTL"), "24h")); err != nil {
		return nil, fmt.Errorf("parse TOKEN_TTL: %w", err)
	}
	if cfg.SMTPPort, err = strconv.Atoi(valueOr(getenv("SMTP_PORT"), "587")); err != nil {
		return nil, fmt.Errorf("parse SMTP_PORT: %w", err)
	}
	if cfg.LowStockThreshold, err = strconv.Atoi(valueOr(getenv("LOW_STOCK_THRESHOLD"), "10")); err != nil {
		return nil, fmt.Errorf("parse LOW_STOCK_THRESHOLD: %w", err)
	}
	if _, _, err := cfg.ReportTime(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RequireAPI checks the settings the API process cannot start without.
func (c *Config) RequireAPI() error {
	if c.PostgresURL == "" {
		return errors.New("POSTGRES_URL environment variable is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	return nil
}

// RequireNotifier checks the settings the notifier process cannot start without.
func (c *Config) RequireNotifier() error {
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS environment variable is required")
	}
	return nil
}

// MailEnabled reports whether outgoing email can be sent.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// ReportTime parses LowStockReportAt as HH:MM.
func (c *Config) ReportTime() (hour, minute uint, err error) {
	t, err := time.Parse("15:04", c.LowStockReportAt)
	if err != nil {
		return 0, 0, fmt.Errorf("parse LOW_STOCK_REPORT_AT: %w", err)
	}
	return uint(t.Hour()), uint(t.Minute()), nil
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
