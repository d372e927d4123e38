// Package export flattens a user's job graph into CSV.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"jam/internal/models"

	"gorm.io/gorm"
)

// Header is emitted first, even when there are no jobs.
var Header = []string{
	"title", "description", "salary_min", "salary_max", "personal_rating", "url",
	"deadline", "note", "attendance_type", "application_date", "application_url",
	"application_status", "application_note", "applied_via", "created_at", "modified_at",
	"Company", "Location", "Source Aggregator", "Application Aggregator",
	"Keywords", "Contacts", "Interviews", "Updates",
}

type Service struct {
	DB *gorm.DB
}

// WriteCSV writes one row per job owned by ownerID.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, ownerID uint64) error {
	var jobs []models.Job
	err := s.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Preload("Company").
		Preload("Location").
		Preload("Source").
		Preload("Keywords").
		Preload("Contacts").
		Preload("Application.Aggregator").
		Preload("Application.Updates").
		Preload("Application.Interviews").
		Order("id asc").
		Find(&jobs).Error
	if err != nil {
		return fmt.Errorf("load export jobs: %w", err)
	}
	return Write(w, jobs)
}

// Write renders jobs with the fixed header. Missing relations become empty cells.
func Write(w io.Writer, jobs []models.Job) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for i := range jobs {
		if err := cw.Write(Row(&jobs[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func Row(j *models.Job) []string {
	var (
		appDate, appURL, appStatus, appNote, appliedVia string
		appAggregator, interviews, updates              string
	)
	if a := j.Application; a != nil {
		appDate = formatTime(&a.Date)
		appURL = a.URL
		appStatus = a.Status
		appNote = a.Note
		appliedVia = a.AppliedVia
		if a.Aggregator != nil {
			appAggregator = a.Aggregator.Name
		}
		interviews = joinInterviews(a.Interviews)
		updates = latestUpdate(a.Updates)
	}

	var company, source string
	if j.Company != nil {
		company = j.Company.Name
	}
	if j.Source != nil {
		source = j.Source.Name
	}

	keywords := make([]string, 0, len(j.Keywords))
	for _, k := range j.Keywords {
		keywords = append(keywords, k.Name)
	}
	contacts := make([]string, 0, len(j.Contacts))
	for _, p := range j.Contacts {
		contacts = append(contacts, p.Name)
	}

	return []string{
		j.Title,
		j.Description,
		formatFloat(j.SalaryMin),
		formatFloat(j.SalaryMax),
		formatInt(j.PersonalRating),
		j.URL,
		formatTime(j.Deadline),
		j.Note,
		j.AttendanceType,
		appDate,
		appURL,
		appStatus,
		appNote,
		appliedVia,
		formatTime(&j.CreatedAt),
		formatTime(&j.ModifiedAt),
		company,
		j.Location.Label(),
		source,
		appAggregator,
		strings.Join(keywords, ", "),
		strings.Join(contacts, ", "),
		interviews,
		updates,
	}
}

func joinInterviews(ivs []models.Interview) string {
	sorted := append([]models.Interview(nil), ivs...)
	sort.SliceStable(sorted, func(i, k int) bool { return sorted[i].Date.Before(sorted[k].Date) })

	parts := make([]string, 0, len(sorted))
	for _, iv := range sorted {
		p := iv.Date.UTC().Format("2006-01-02 15:04")
		if iv.Type != "" {
			p += " (" + iv.Type + ")"
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "; ")
}

func latestUpdate(us []models.JobApplicationUpdate) string {
	if len(us) == 0 {
		return ""
	}
	latest := us[0]
	for _, u := range us[1:] {
		if u.Date.After(latest.Date) {
			latest = u
		}
	}
	return latest.Date.UTC().Format("2006-01-02") + ": " + latest.Type
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
