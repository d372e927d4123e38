package models

import (
	"time"

	"gorm.io/datatypes"
)

// JobAlertEmail is a job-alert message saved for parsing.
type JobAlertEmail struct {
	Base
	ExternalEmailID string    `gorm:"index" json:"external_email_id"`
	Subject         string    `json:"subject"`
	Sender          string    `json:"sender"`
	Body            string    `gorm:"type:text" json:"body"`
	Platform        string    `gorm:"not null" json:"platform"`
	DateReceived    time.Time `json:"date_received"`
}

// ScrapedJob is a posting discovered by an alert e-mail and later filled in by the scraper.
type ScrapedJob struct {
	Base
	ExternalJobID string         `gorm:"not null" json:"external_job_id"`
	Platform      string         `gorm:"not null" json:"platform"`
	Title         string         `json:"title"`
	Company       string         `json:"company"`
	Location      string         `json:"location"`
	URL           string         `json:"url"`
	Description   string         `gorm:"type:text" json:"description"`
	Salary        string         `json:"salary"`
	Raw           datatypes.JSON `json:"raw,omitempty"`
	IsScraped     bool           `gorm:"not null;default:false" json:"is_scraped"`
	IsFailed      bool           `gorm:"not null;default:false" json:"is_failed"`
	AlertEmailID  *uint64        `gorm:"index" json:"alert_email_id"`
}

// ServiceLog records one run of a background service.
type ServiceLog struct {
	Base
	Name       string         `gorm:"index;not null" json:"name"`
	RunID      string         `gorm:"index;not null" json:"run_id"`
	StartedAt  time.Time      `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at"`
	Succeeded  bool           `gorm:"not null;default:false" json:"succeeded"`
	Error      string         `gorm:"type:text" json:"error"`
	Details    datatypes.JSON `json:"details,omitempty"`
}
