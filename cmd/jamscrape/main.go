// Command jamscrape runs one BrightData scrape and prints the mapped postings
// as JSON. It does not touch the database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"jam/internal/config"
	"jam/internal/logger"
	"jam/internal/scraper"

	"go.uber.org/zap"
)

func main() {
	platform := flag.String("platform", "linkedin", "linkedin or indeed")
	ids := flag.String("ids", "", "comma separated posting ids")
	raw := flag.Bool("raw", false, "print dataset records untouched")
	flag.Parse()

	cfg, err := config.Load()
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

	var list []string
	for _, id := range strings.Split(*ids, ",") {
		if id = strings.TrimSpace(id); id != "" {
			list = append(list, id)
		}
	}
	if len(list) == 0 {
		log.Fatal("no ids given")
	}

	site, err := scraper.ParseSite(*platform)
	if err != nil {
		log.Fatal("platform", zap.Error(err))
	}
	sec, err := scraper.LoadSecrets(cfg.SecretsFile)
	if err != nil {
		log.Fatal("secrets", zap.Error(err))
	}
	client, err := scraper.New(site, sec, log, scraper.Options{
		PollInterval:   cfg.ScrapePollInterval,
		AttemptsPerURL: cfg.ScrapeAttemptsPerURL,
	})
	if err != nil {
		log.Fatal("client", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	records, err := client.Scrape(ctx, list)
	if err != nil {
		log.Fatal("scrape", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if *raw {
		_ = enc.Encode(records)
		return
	}
	jobs, err := scraper.ToScrapedJobs(site, records)
	if err != nil {
		log.Fatal("map records", zap.Error(err))
	}
	_ = enc.Encode(jobs)
}
