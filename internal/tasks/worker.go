package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"jam/internal/models"
	"jam/internal/scraper"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Scraper fetches dataset records for a batch of posting ids on one site.
type Scraper interface {
	Site() scraper.Site
	Scrape(ctx context.Context, ids []string) ([]json.RawMessage, error)
}

type Worker struct {
	ID       string
	Repo     *Repo
	DB       *gorm.DB
	Log      *zap.Logger
	Scrapers map[string]Scraper // by platform
	Interval time.Duration
}

func (w *Worker) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = 800 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.Log.Error("worker claim", zap.Error(err))
			}
		}
	}
}

// RunOnce claims and handles at most one task. It reports whether a task ran.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	task, err := w.Repo.Claim(ctx, w.ID)
	if err != nil {
		return false, err
	}
	if task == nil {
		return false, nil
	}
	w.handle(ctx, task)
	return true, nil
}

func (w *Worker) handle(ctx context.Context, task *Task) {
	log := w.Log.With(zap.Uint64("task", task.ID), zap.Uint64("owner", task.OwnerID), zap.String("type", task.Type))
	switch task.Type {
	case TypeScrape:
		w.handleScrape(ctx, log, task)
	default:
		log.Warn("unknown task type")
		w.markFailed(ctx, log, task, "unknown task type")
	}
}

type scrapeDetails struct {
	Platform  string `json:"platform"`
	Requested int    `json:"requested"`
	Scraped   int    `json:"scraped"`
	Failed    int    `json:"failed"`
}

func (w *Worker) handleScrape(ctx context.Context, log *zap.Logger, task *Task) {
	var p scrapePayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		w.markFailed(ctx, log, task, "bad payload")
		return
	}
	sc, ok := w.Scrapers[p.Platform]
	if !ok {
		w.markFailed(ctx, log, task, fmt.Sprintf("no scraper for platform %q", p.Platform))
		return
	}

	var pending []models.ScrapedJob
	if err := w.DB.WithContext(ctx).
		Where("owner_id = ? AND platform = ? AND is_scraped = ? AND is_failed = ?", task.OwnerID, p.Platform, false, false).
		Order("id asc").
		Find(&pending).Error; err != nil {
		w.retry(ctx, log, task, "db read error")
		return
	}
	if len(pending) == 0 {
		w.markDone(ctx, log, task)
		return
	}

	run := models.ServiceLog{
		Name:      "scraper." + p.Platform,
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	run.OwnerID = task.OwnerID
	if err := w.DB.WithContext(ctx).Create(&run).Error; err != nil {
		log.Error("create service log", zap.Error(err))
	}

	ids := make([]string, 0, len(pending))
	for _, sj := range pending {
		ids = append(ids, sj.ExternalJobID)
	}

	details := scrapeDetails{Platform: p.Platform, Requested: len(ids)}
	records, err := sc.Scrape(ctx, ids)
	if err == nil {
		details.Scraped, details.Failed, err = w.apply(ctx, sc.Site(), pending, records)
	}
	w.finishRun(ctx, log, &run, details, err)

	if err != nil {
		log.Warn("scrape failed", zap.String("run", run.RunID), zap.Error(err))
		w.retry(ctx, log, task, err.Error())
		return
	}
	log.Info("scrape finished",
		zap.String("run", run.RunID),
		zap.Int("scraped", details.Scraped),
		zap.Int("failed", details.Failed))
	w.markDone(ctx, log, task)
}

// apply writes scraped fields onto the pending rows. Rows the dataset did not
// return are marked failed.
func (w *Worker) apply(ctx context.Context, site scraper.Site, pending []models.ScrapedJob, records []json.RawMessage) (scraped, failed int, err error) {
	results, err := scraper.ToScrapedJobs(site, records)
	if err != nil {
		return 0, 0, err
	}
	byID := make(map[string]models.ScrapedJob, len(results))
	for _, r := range results {
		byID[r.ExternalJobID] = r
	}

	err = w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, sj := range pending {
			r, ok := byID[sj.ExternalJobID]
			var updates map[string]any
			if ok {
				updates = map[string]any{
					"title":       r.Title,
					"company":     r.Company,
					"location":    r.Location,
					"description": r.Description,
					"salary":      r.Salary,
					"raw":         r.Raw,
					"is_scraped":  true,
				}
				if r.URL != "" {
					updates["url"] = r.URL
				}
				scraped++
			} else {
				updates = map[string]any{"is_failed": true}
				failed++
			}
			if err := tx.Model(&models.ScrapedJob{}).Where("id = ?", sj.ID).Updates(updates).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return scraped, failed, err
}

func (w *Worker) finishRun(ctx context.Context, log *zap.Logger, run *models.ServiceLog, details scrapeDetails, runErr error) {
	if run.ID == 0 {
		return
	}
	raw, _ := json.Marshal(details)
	now := time.Now()
	updates := map[string]any{
		"finished_at": now,
		"succeeded":   runErr == nil,
		"details":     datatypes.JSON(raw),
	}
	if runErr != nil {
		updates["error"] = runErr.Error()
	}
	if err := w.DB.WithContext(ctx).Model(run).Updates(updates).Error; err != nil {
		log.Error("finish service log", zap.Error(err))
	}
}

func (w *Worker) markDone(ctx context.Context, log *zap.Logger, task *Task) {
	if err := w.Repo.MarkDone(ctx, task.ID); err != nil {
		log.Error("mark task done", zap.Error(err))
	}
}

func (w *Worker) markFailed(ctx context.Context, log *zap.Logger, task *Task, errMsg string) {
	if err := w.Repo.MarkFailed(ctx, task.ID, errMsg); err != nil {
		log.Error("mark task failed", zap.Error(err))
	}
}

func (w *Worker) retry(ctx context.Context, log *zap.Logger, task *Task, errMsg string) {
	attempts := task.Attempts + 1
	if attempts >= task.MaxAttempts {
		w.markFailed(ctx, log, task, errMsg)
		return
	}

	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	next := time.Now().Add(time.Duration(sec) * time.Second)

	if err := w.Repo.RetryLater(ctx, task.ID, attempts, next, errMsg); err != nil {
		log.Error("reschedule task", zap.Error(err))
	}
}
