// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Encryption    EncryptionConfig
	Scheduler     SchedulerConfig
	Profiling     ProfilingConfig
	Observability ObservabilityConfig
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerSecond int
	RateLimitBurst     int
}

// DatabaseConfig configures the PostgreSQL connection
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds a PostgreSQL connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// AuthConfig configures API authentication
type AuthConfig struct {
	JWTSecret string
}

// EncryptionConfig supplies the field-encryption key. Either KeyHex holds a
// hex-encoded 32-byte key, or Passphrase+Salt derive one via PBKDF2.
type EncryptionConfig struct {
	KeyHex     string
	Passphrase string
	Salt       string
}

// SchedulerConfig configures the alert evaluation loop
type SchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
}

// ProfilingConfig configures the pprof server
type ProfilingConfig struct {
	Enabled bool
	Port    int
}

// ObservabilityConfig configures metrics exposure
type ObservabilityConfig struct {
	MetricsEnabled bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:               envString("SERVER_HOST", "0.0.0.0"),
			Port:               envInt("SERVER_PORT", 8080),
			RateLimitPerSecond: envInt("RATE_LIMIT_PER_SECOND", 20),
			RateLimitBurst:     envInt("RATE_LIMIT_BURST", 40),
		},
		Database: DatabaseConfig{
			Host:     envString("DB_HOST", "localhost"),
			Port:     envInt("DB_PORT", 5432),
			User:     envString("DB_USER", "pennyvault"),
			Password: envString("DB_PASSWORD", ""),
			Name:     envString("DB_NAME", "pennyvault"),
			SSLMode:  envString("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret: envString("JWT_SECRET", ""),
		},
		Encryption: EncryptionConfig{
			KeyHex:     envString("ENCRYPTION_KEY", ""),
			Passphrase: envString("ENCRYPTION_PASSPHRASE", ""),
			Salt:       envString("ENCRYPTION_SALT", ""),
		},
		Scheduler: SchedulerConfig{
			Enabled:  envBool("SCHEDULER_ENABLED", true),
			Interval: envDuration("SCHEDULER_INTERVAL", time.Minute),
		},
		Profiling: ProfilingConfig{
			Enabled: envBool("PPROF_ENABLED", false),
			Port:    envInt("PPROF_PORT", 6060),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: envBool("METRICS_ENABLED", true),
		},
	}

	if cfg.Encryption.KeyHex == "" && cfg.Encryption.Passphrase == "" {
		return nil, fmt.Errorf("either ENCRYPTION_KEY or ENCRYPTION_PASSPHRASE is required")
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
