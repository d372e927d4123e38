package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	JWTSecret string
	LogLevel  string

	// Dashboard
	RedisURL          string
	DashboardCacheTTL time.Duration
	ChaseAfter        time.Duration
	FeedLimit         int

	// Scraper
	SecretsFile          string
	ScrapePollInterval   time.Duration
	ScrapeAttemptsPerURL int
	WorkerEnabled        bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getenv("DATABASE_URL", ""),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",
		JWTSecret:            getenv("JWT_SECRET", ""),
		LogLevel:             getenv("LOG_LEVEL", "info"),
		RedisURL:             getenv("REDIS_URL", ""),
		SecretsFile:          getenv("SECRETS_FILE", "secrets.yaml"),
		WorkerEnabled:        getenv("WORKER_ENABLED", "true") == "true",
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	var err error
	if cfg.DashboardCacheTTL, err = getduration("DASHBOARD_CACHE_TTL", 30*time.Second); err != nil {
		return cfg, err
	}
	if cfg.ChaseAfter, err = getduration("CHASE_AFTER", 14*24*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.ScrapePollInterval, err = getduration("SCRAPE_POLL_INTERVAL", 10*time.Second); err != nil {
		return cfg, err
	}
	if cfg.FeedLimit, err = getint("FEED_LIMIT", 20); err != nil {
		return cfg, err
	}
	if cfg.ScrapeAttemptsPerURL, err = getint("SCRAPE_ATTEMPTS_PER_URL", 12); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.FeedLimit < 1 {
		return fmt.Errorf("feed limit must be positive: %d", c.FeedLimit)
	}
	if c.ScrapeAttemptsPerURL < 1 {
		return fmt.Errorf("scrape attempts per url must be positive: %d", c.ScrapeAttemptsPerURL)
	}
	if c.ScrapePollInterval <= 0 {
		return fmt.Errorf("scrape poll interval must be positive: %v", c.ScrapePollInterval)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getduration(key string, def time.Duration) (time.Duration, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getint(key string, def int) (int, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
