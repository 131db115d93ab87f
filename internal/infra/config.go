package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	ServiceDatabaseURL string
	JWTSecret          string

	NanoBananaAPIBase string
	NanoBananaAPIKey  string
	NanoBananaModel   string
	PollMaxAttempts   int
	PollInterval      time.Duration

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2Bucket          string
	R2PublicHost      string

	GeoIPDBPath      string
	DefaultLocale    string
	AllowedOrigins   []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		ServiceDatabaseURL: os.Getenv("SERVICE_DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		NanoBananaAPIBase:  os.Getenv("NANO_BANANA_API_BASE"),
		NanoBananaAPIKey:   os.Getenv("NANO_BANANA_API_KEY"),
		NanoBananaModel:    getEnv("NANO_BANANA_MODEL", "nano-banana-fast"),
		PollMaxAttempts:    getEnvInt("GEN_POLL_MAX_ATTEMPTS", 2000),
		PollInterval:       time.Millisecond * time.Duration(getEnvInt("GEN_POLL_INTERVAL_MS", 1500)),
		R2AccountID:        os.Getenv("CF_R2_ACCOUNT_ID"),
		R2AccessKeyID:      os.Getenv("CF_R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:  os.Getenv("CF_R2_SECRET_ACCESS_KEY"),
		R2Bucket:           getEnv("CF_R2_BUCKET_NAME", "banana"),
		R2PublicHost:       os.Getenv("CF_R2_PUBLIC_HOST"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "en"),
		AllowedOrigins:     getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		// Generation requests stay open for the whole poll loop, so the
		// write timeout is disabled unless explicitly configured.
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.NanoBananaAPIBase == "" {
		return nil, fmt.Errorf("NANO_BANANA_API_BASE is required")
	}

	if cfg.PollMaxAttempts <= 0 {
		cfg.PollMaxAttempts = 2000
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 1500 * time.Millisecond
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
