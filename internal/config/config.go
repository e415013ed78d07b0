package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	MongoURI string
	DBName   string

	JWTSecret     string
	JWTExpire     time.Duration
	SessionMaxAge time.Duration

	RateLimitMax    int
	RateLimitWindow time.Duration

	AdminEmail    string
	AdminPassword string
	AdminName     string

	AllowedOrigins []string

	OTELEndpoint string
}

func Load() Config {
	// a local .env never overrides variables already exported
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 5000),

		MongoURI: getEnv("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		DBName:   getEnv("DB_NAME", "bookstore"),

		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTExpire:     getEnvDuration("JWT_EXPIRE", 24*time.Hour),
		SessionMaxAge: getEnvDuration("SESSION_MAX_AGE", 4*time.Hour),

		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 1000),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", 24*time.Hour),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "מנהל"),

		AllowedOrigins: getEnvList("ALLOWED_ORIGINS"),

		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return d
	}
	return fallback
}

func getEnvList(key string) []string {
	v := os.Getenv(key)

	if v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
