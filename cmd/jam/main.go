package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jam/internal/auth"
	"jam/internal/cache"
	"jam/internal/config"
	"jam/internal/db"
	httpx "jam/internal/http"
	"jam/internal/logger"
	"jam/internal/scraper"
	"jam/internal/tasks"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	gdb, err := db.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	var c *cache.Cache
	if cfg.RedisURL != "" {
		c, err = cache.New(cfg.RedisURL, log)
		if err != nil {
			log.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
			c = nil
		} else {
			defer func() { _ = c.Close() }()
		}
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	r := httpx.NewRouter(cfg, gdb, jwtSvc, log, c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// worker
	if cfg.WorkerEnabled {
		worker := &tasks.Worker{
			ID:       "worker-" + uuid.NewString(),
			Repo:     &tasks.Repo{DB: gdb},
			DB:       gdb,
			Log:      log.Named("worker"),
			Scrapers: scrapers(cfg, log),
		}
		go worker.Run(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
}

// scrapers builds one client per site that has credentials. Without a
// secrets file the worker still runs and fails scrape tasks.
func scrapers(cfg config.Config, log *zap.Logger) map[string]tasks.Scraper {
	out := map[string]tasks.Scraper{}
	sec, err := scraper.LoadSecrets(cfg.SecretsFile)
	if err != nil {
		log.Warn("scraping disabled", zap.Error(err))
		return out
	}
	for _, site := range []scraper.Site{scraper.LinkedIn, scraper.Indeed} {
		client, err := scraper.New(site, sec, log.Named("scraper"), scraper.Options{
			PollInterval:   cfg.ScrapePollInterval,
			AttemptsPerURL: cfg.ScrapeAttemptsPerURL,
		})
		if err != nil {
			log.Warn("scraper not configured", zap.Stringer("site", site), zap.Error(err))
			continue
		}
		out[site.Platform()] = client
	}
	return out
}
