package tasks

import (
	"time"

	"jam/internal/models"

	"gorm.io/datatypes"
)

const (
	TypeScrape = "SCRAPE"

	StatusPending = "PENDING"
	StatusRunning = "RUNNING"
	StatusDone    = "DONE"
	StatusFailed  = "FAILED"
)

type Task struct {
	ID      uint64       `gorm:"primaryKey" json:"id"`
	OwnerID uint64       `gorm:"index;not null" json:"owner_id"`
	Owner   *models.User `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`

	Type    string         `gorm:"type:text;not null" json:"type"` // SCRAPE
	Payload datatypes.JSON `gorm:"not null" json:"payload"`

	RunAt  time.Time `gorm:"index;not null" json:"run_at"`
	Status string    `gorm:"index;not null;default:'PENDING'" json:"status"` // PENDING/RUNNING/DONE/FAILED

	Attempts    int `gorm:"not null;default:0" json:"attempts"`
	MaxAttempts int `gorm:"not null;default:5" json:"max_attempts"`

	LockedBy *string    `gorm:"type:text" json:"-"`
	LockedAt *time.Time `json:"-"`

	LastError *string `gorm:"type:text" json:"last_error"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null" json:"updated_at"`
}

type scrapePayload struct {
	Platform string `json:"platform"`
}
