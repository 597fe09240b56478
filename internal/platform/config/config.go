package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	MetricsAddr   string
	JWTSigningKey string
}

// Postgres captures database connection configuration.
type Postgres struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Redis captures the session revocation cache configuration. An empty URL
// disables Redis and falls back to the in-memory revocation list.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Config is the root configuration for the service.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envOr("CHEER_ADDR", ":8080"),
			MetricsAddr:   envOr("CHEER_METRICS_ADDR", ":9090"),
			JWTSigningKey: envOr("CHEER_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		},
		Postgres: Postgres{
			URL:             os.Getenv("CHEER_POSTGRES_URL"),
			MaxOpenConns:    envIntOr("CHEER_POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envIntOr("CHEER_POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDurationOr("CHEER_POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: Redis{
			URL:          os.Getenv("CHEER_REDIS_URL"),
			PoolSize:     envIntOr("CHEER_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("CHEER_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("CHEER_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("CHEER_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("CHEER_REDIS_WRITE_TIMEOUT", 3*time.Second),
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
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
