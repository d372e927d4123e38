package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	DB *gorm.DB
}

// EnqueueScrape queues a scrape of the owner's pending postings on one platform.
func (r *Repo) EnqueueScrape(ctx context.Context, ownerID uint64, platform string) (*Task, error) {
	payload, err := json.Marshal(scrapePayload{Platform: platform})
	if err != nil {
		return nil, err
	}
	t := Task{
		OwnerID:     ownerID,
		Type:        TypeScrape,
		Payload:     payload,
		RunAt:       time.Now(),
		Status:      StatusPending,
		MaxAttempts: 5,
	}
	if err := r.DB.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// Claim one due task atomically. Postgres uses SKIP LOCKED; other dialects
// fall back to a conditional update.
func (r *Repo) Claim(ctx context.Context, workerID string) (*Task, error) {
	if r.DB.Dialector.Name() == "postgres" {
		return r.claimSkipLocked(ctx, workerID)
	}

	var task Task
	now := time.Now()
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("status = ? AND run_at <= ?", StatusPending, now).
			Order("run_at asc").
			First(&task).Error; err != nil {
			return err
		}
		res := tx.Model(&Task{}).
			Where("id = ? AND status = ?", task.ID, StatusPending).
			Updates(map[string]any{"status": StatusRunning, "locked_by": workerID, "locked_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		task.Status = StatusRunning
		task.LockedBy = &workerID
		task.LockedAt = &now
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *Repo) claimSkipLocked(ctx context.Context, workerID string) (*Task, error) {
	var task Task
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// requeue tasks whose worker died mid-run
		if err := tx.Exec(`
update tasks
set status='PENDING', locked_by=null, locked_at=null, updated_at=now()
where status='RUNNING' and locked_at is not null and locked_at < now() - interval '5 minutes'
`).Error; err != nil {
			return err
		}

		return tx.Raw(`
with cte as (
  select id
  from tasks
  where status='PENDING' and run_at <= now()
  order by run_at asc
  for update skip locked
  limit 1
)
update tasks
set status='RUNNING', locked_by=?, locked_at=now(), updated_at=now()
where id in (select id from cte)
returning *;
`, workerID).Scan(&task).Error
	})
	if err != nil {
		return nil, err
	}
	if task.ID == 0 {
		return nil, nil
	}
	return &task, nil
}

func (r *Repo) MarkDone(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&Task{}).Where("id = ?", id).
		Updates(map[string]any{"status": StatusDone, "locked_by": nil, "locked_at": nil}).Error
}

func (r *Repo) MarkFailed(ctx context.Context, id uint64, errMsg string) error {
	return r.DB.WithContext(ctx).Model(&Task{}).Where("id = ?", id).
		Updates(map[string]any{"status": StatusFailed, "last_error": errMsg, "locked_by": nil, "locked_at": nil}).Error
}

func (r *Repo) RetryLater(ctx context.Context, id uint64, attempts int, runAt time.Time, errMsg string) error {
	return r.DB.WithContext(ctx).Model(&Task{}).Where("id = ?", id).
		Updates(map[string]any{
			"status":     StatusPending,
			"attempts":   attempts,
			"run_at":     runAt,
			"locked_by":  nil,
			"locked_at":  nil,
			"last_error": errMsg,
		}).Error
}
