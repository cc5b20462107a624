// Package config builds process configuration from the environment so main
// stays lean. Every sub-config has working defaults for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates all runtime configuration for the trust gateway.
type Config struct {
	Server   Server
	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// RedisConfig configures the optional Redis-backed trust store.
// An empty URL means Redis is not configured and memory stores are used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the optional Postgres persistence layer.
// An empty DSN means Postgres is not configured.
type PostgresConfig struct {
	DSN string
}

// KafkaConfig configures the optional Kafka audit publisher.
// No brokers means audit events stay in the in-process store only.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// AuthConfig configures admin authentication for management endpoints.
type AuthConfig struct {
	JWTSigningKey string
	// AdminKeyHash is a bcrypt hash of the admin API key. Empty disables
	// API-key auth, leaving JWT as the only admin credential.
	AdminKeyHash string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envOr("TRUSTGATE_ADDR", ":8080"),
			ShutdownTimeout: envDurationOr("TRUSTGATE_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("POSTGRES_DSN"),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_AUDIT_TOPIC", "trustgate.audit"),
		},
		Auth: AuthConfig{
			// Default for development only; override in production.
			JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			AdminKeyHash:  os.Getenv("ADMIN_KEY_HASH"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitNonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
