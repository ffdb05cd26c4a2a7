package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogLevel        string

	// Store
	StoreBackend  string
	StoreFile     string
	DatabaseDSN   string
	RunMigrations bool

	// Events; an empty URL logs events instead of publishing them
	RabbitMQURL   string
	EventProducer string

	// Checkout
	CouponsFile string

	// CORS
	CORSAllowOrigins []string
}

func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout: parseDuration(getenv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
		LogLevel:        strings.ToLower(getenv("LOG_LEVEL", "info")),

		StoreBackend:  strings.ToLower(getenv("STORE_BACKEND", BackendFile)),
		StoreFile:     getenv("STORE_FILE", "threadly-store.json"),
		DatabaseDSN:   getenv("DATABASE_DSN", ""),
		RunMigrations: envBool("RUN_MIGRATIONS", true),

		RabbitMQURL:   getenv("RABBITMQ_URL", ""),
		EventProducer: getenv("EVENT_PRODUCER", "threadly-storefront"),

		CouponsFile: getenv("COUPONS_FILE", ""),

		CORSAllowOrigins: splitCSV(getenv("CORS_ALLOW_ORIGINS", "*")),
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendFile:
	case BackendPostgres:
		if cfg.DatabaseDSN == "" {
			return Config{}, fmt.Errorf("STORE_BACKEND=postgres requires DATABASE_DSN")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORE_BACKEND %q (want memory, file or postgres)", cfg.StoreBackend)
	}

	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
