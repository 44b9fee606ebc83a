package config

import (
	"testing"
	"time"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnv(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		cfg, err := FromEnv(env(nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != "8080" {
			t.Errorf("expected port 8080, got %s", cfg.Port)
		}
		if cfg.OrderTopic != "order.placed" {
			t.Errorf("expected topic order.placed, got %s", cfg.OrderTopic)
		}
		if cfg.TokenTTL != 24*time.Hour {
			t.Errorf("expected 24h token ttl, got %s", cfg.TokenTTL)
		}
		if cfg.LowStockThreshold != 10 {
			t.Errorf("expected threshold 10, got %d", cfg.LowStockThreshold)
		}
		if len(cfg.KafkaBrokers) != 0 {
			t.Errorf("expected no brokers, got %v", cfg.KafkaBrokers)
		}
		if cfg.MailEnabled() {
			t.Error("expected mail disabled without SMTP_HOST")
		}
	})

	t.Run("splits kafka brokers", func(t *testing.T) {
		cfg, err := FromEnv(env(map[string]string{"KAFKA_BROKERS": "a:9092, b:9092,,"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b:9092" {
			t.Errorf("unexpected brokers: %v", cfg.KafkaBrokers)
		}
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		cases := map[string]string{
			"TOKEN_TTL":           "forever",
			"SMTP_PORT":           "smtp",
			"LOW_STOCK_THRESHOLD": "ten",
			"LOW_STOCK_REPORT_AT": "8am",
		}
		for key, value := range cases {
			if _, err := FromEnv(env(map[string]string{key: value})); err == nil {
				t.Errorf("expected error for %s=%s", key, value)
			}
		}
	})

	t.Run("api requires database and secret", func(t *testing.T) {
		cfg, _ := FromEnv(env(map[string]string{"POSTGRES_URL": "postgres://x"}))
		if err := cfg.RequireAPI(); err == nil {
			t.Error("expected error without JWT_SECRET")
		}
		cfg.JWTSecret = "s"
		if err := cfg.RequireAPI(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestReportTime(t *testing.T) {
	cfg := &Config{LowStockReportAt: "07:30"}
	h, m, err := cfg.ReportTime()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != 7 || m != 30 {
		t.Errorf("expected 07:30, got %02d:%02d", h, m)
	}
}
