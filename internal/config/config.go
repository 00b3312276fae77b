package config

import (
	"os"
	"time"
)

// Config carries everything read from the environment at startup.
// main loads .env via godotenv before calling Load.
type Config struct {
	DatabaseURL string
	RedisURL    string
	HTTPPort    string
	DomainURL   string
	LogLevel    string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration
	SweepInterval   time.Duration
}

func Load() Config {
	return Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        getenv("REDIS_URL", "redis://localhost:6379"),
		HTTPPort:        getenv("HTTP_PORT", "8080"),
		DomainURL:       getenv("DOMAIN_URL", "localhost:3001"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		AccessTokenTTL:  duration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: duration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		ResetTokenTTL:   duration("PASSWD_RESET_TOKEN_EXPIRY", time.Hour),
		SweepInterval:   duration("SWEEP_INTERVAL", time.Hour),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
