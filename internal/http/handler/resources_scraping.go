package handler

import (
	"time"

	"jam/internal/crud"
	"jam/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type alertEmailIn struct {
	ExternalEmailID string    `json:"external_email_id" validate:"max=255"`
	Subject         string    `json:"subject"`
	Sender          string    `json:"sender"`
	Body            string    `json:"body" validate:"required"`
	Platform        string    `json:"platform" validate:"required,oneof=linkedin indeed"`
	DateReceived    time.Time `json:"date_received"`
}

type alertEmailPatch struct {
	Subject  *string `json:"subject"`
	Sender   *string `json:"sender"`
	Body     *string `json:"body" validate:"omitempty,min=1"`
	Platform *string `json:"platform" validate:"omitempty,oneof=linkedin indeed"`
}

var JobAlertEmails = crud.Resource[models.JobAlertEmail, alertEmailIn, alertEmailPatch, *models.JobAlertEmail]{
	Segment:  "job_alert_emails",
	NotFound: "Job alert email not found",
	New: func(_ *gorm.DB, _ uint64, in alertEmailIn) (models.JobAlertEmail, error) {
		received := in.DateReceived
		if received.IsZero() {
			received = time.Now().UTC()
		}
		return models.JobAlertEmail{
			ExternalEmailID: in.ExternalEmailID,
			Subject:         in.Subject,
			Sender:          in.Sender,
			Body:            in.Body,
			Platform:        in.Platform,
			DateReceived:    received,
		}, nil
	},
	Patch: func(_ *gorm.DB, _ uint64, m *models.JobAlertEmail, in alertEmailPatch) error {
		crud.Set(&m.Subject, in.Subject)
		crud.Set(&m.Sender, in.Sender)
		crud.Set(&m.Body, in.Body)
		crud.Set(&m.Platform, in.Platform)
		return nil
	},
	Out: crud.Identity[models.JobAlertEmail],
}

type scrapedJobIn struct {
	ExternalJobID string `json:"external_job_id" validate:"required,max=64"`
	Platform      string `json:"platform" validate:"required,oneof=linkedin indeed"`
	Title         string `json:"title"`
	Company       string `json:"company"`
	Location      string `json:"location"`
	URL           string `json:"url" validate:"omitempty,url"`
	Description   string `json:"description"`
	Salary        string `json:"salary"`
}

type scrapedJobPatch struct {
	Title       *string `json:"title"`
	Company     *string `json:"company"`
	Location    *string `json:"location"`
	URL         *string `json:"url" validate:"omitempty,url"`
	Description *string `json:"description"`
	Salary      *string `json:"salary"`
	IsScraped   *bool   `json:"is_scraped"`
	IsFailed    *bool   `json:"is_failed"`
}

var ScrapedJobs = crud.Resource[models.ScrapedJob, scrapedJobIn, scrapedJobPatch, *models.ScrapedJob]{
	Segment:  "scraped_jobs",
	NotFound: "Scraped job not found",
	New: func(tx *gorm.DB, owner uint64, in scrapedJobIn) (models.ScrapedJob, error) {
		var n int64
		err := tx.Model(&models.ScrapedJob{}).
			Where("owner_id = ? AND platform = ? AND external_job_id = ?", owner, in.Platform, in.ExternalJobID).
			Count(&n).Error
		if err != nil {
			return models.ScrapedJob{}, err
		}
		if n > 0 {
			return models.ScrapedJob{}, crud.Invalidf("%s job %s already recorded", in.Platform, in.ExternalJobID)
		}
		return models.ScrapedJob{
			ExternalJobID: in.ExternalJobID,
			Platform:      in.Platform,
			Title:         in.Title,
			Company:       in.Company,
			Location:      in.Location,
			URL:           in.URL,
			Description:   in.Description,
			Salary:        in.Salary,
		}, nil
	},
	Patch: func(_ *gorm.DB, _ uint64, m *models.ScrapedJob, in scrapedJobPatch) error {
		crud.Set(&m.Title, in.Title)
		crud.Set(&m.Company, in.Company)
		crud.Set(&m.Location, in.Location)
		crud.Set(&m.URL, in.URL)
		crud.Set(&m.Description, in.Description)
		crud.Set(&m.Salary, in.Salary)
		crud.Set(&m.IsScraped, in.IsScraped)
		crud.Set(&m.IsFailed, in.IsFailed)
		return nil
	},
	Out: crud.Identity[models.ScrapedJob],
}

type serviceLogIn struct {
	Name      string         `json:"name" validate:"required,max=100"`
	RunID     string         `json:"run_id" validate:"required,max=64"`
	StartedAt time.Time      `json:"started_at" validate:"required"`
	Details   datatypes.JSON `json:"details"`
}

type serviceLogPatch struct {
	FinishedAt *time.Time `json:"finished_at"`
	Succeeded  *bool      `json:"succeeded"`
	Error      *string    `json:"error"`
}

// ServiceLogs is administrative: rows from every user are visible.
var ServiceLogs = crud.Resource[models.ServiceLog, serviceLogIn, serviceLogPatch, *models.ServiceLog]{
	Segment:   "service_logs",
	NotFound:  "Service log not found",
	AdminOnly: true,
	New: func(_ *gorm.DB, _ uint64, in serviceLogIn) (models.ServiceLog, error) {
		return models.ServiceLog{Name: in.Name, RunID: in.RunID, StartedAt: in.StartedAt, Details: in.Details}, nil
	},
	Patch: func(_ *gorm.DB, _ uint64, m *models.ServiceLog, in serviceLogPatch) error {
		if in.FinishedAt != nil {
			m.FinishedAt = in.FinishedAt
		}
		crud.Set(&m.Succeeded, in.Succeeded)
		crud.Set(&m.Error, in.Error)
		return nil
	},
	Out: crud.Identity[models.ServiceLog],
}
