package alerts

import (
	"context"
	"errors"
	"fmt"

	"jam/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("alert email not found")

type Service struct {
	DB  *gorm.DB
	Log *zap.Logger
}

// Result counts what an ingest created and what it skipped as already known.
type Result struct {
	Created  []models.ScrapedJob `json:"created"`
	Skipped  int                 `json:"skipped"`
	Postings int                 `json:"postings"`
}

// Ingest parses a stored alert e-mail and queues its postings for scraping.
// Postings the owner already has on the same platform are skipped.
func (s *Service) Ingest(ctx context.Context, ownerID, emailID uint64) (*Result, error) {
	var email models.JobAlertEmail
	err := s.DB.WithContext(ctx).Where("id = ? AND owner_id = ?", emailID, ownerID).First(&email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load alert email: %w", err)
	}

	postings, err := Parse(email.Platform, email.Body)
	if err != nil {
		return nil, err
	}

	res := &Result{Created: []models.ScrapedJob{}, Postings: len(postings)}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range postings {
			var n int64
			if err := tx.Model(&models.ScrapedJob{}).
				Where("owner_id = ? AND platform = ? AND external_job_id = ?", ownerID, email.Platform, p.ExternalID).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				res.Skipped++
				continue
			}
			sj := models.ScrapedJob{
				ExternalJobID: p.ExternalID,
				Platform:      email.Platform,
				Title:         p.Title,
				Company:       p.Company,
				Location:      p.Location,
				URL:           p.URL,
				AlertEmailID:  &email.ID,
			}
			sj.OwnerID = ownerID
			if err := tx.Create(&sj).Error; err != nil {
				return err
			}
			res.Created = append(res.Created, sj)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store scraped jobs: %w", err)
	}

	s.Log.Info("alert email ingested",
		zap.Uint64("owner", ownerID),
		zap.Uint64("email", emailID),
		zap.Int("postings", res.Postings),
		zap.Int("created", len(res.Created)),
		zap.Int("skipped", res.Skipped))
	return res, nil
}
