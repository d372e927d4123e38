// Package dashboard computes the per-user overview of open items.
package dashboard

import (
	"fmt"
	"sort"
	"time"

	"jam/internal/models"
)

type Statistics struct {
	Jobs                  int `json:"jobs"`
	JobApplications       int `json:"job_applications"`
	JobApplicationPending int `json:"job_application_pending"`
	Interviews            int `json:"interviews"`
}

// ChaseItem is a pending application with no activity for longer than the threshold.
type ChaseItem struct {
	JobApplicationID uint64    `json:"job_application_id"`
	JobID            uint64    `json:"job_id"`
	Title            string    `json:"title"`
	Company          string    `json:"company"`
	Status           string    `json:"status"`
	LastActivity     time.Time `json:"last_activity"`
	DaysSince        int       `json:"days_since"`
}

const (
	KindJobCreated        = "job_created"
	KindJobModified       = "job_modified"
	KindApplicationUpdate = "application_update"
	KindInterview         = "interview"
)

// Update is one entry of the activity feed.
type Update struct {
	Kind   string    `json:"kind"`
	Date   time.Time `json:"date"`
	JobID  uint64    `json:"job_id"`
	Title  string    `json:"title"`
	Detail string    `json:"detail"`
}

type UpcomingInterview struct {
	InterviewID uint64    `json:"interview_id"`
	JobID       uint64    `json:"job_id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	Location    string    `json:"location"`
}

type Deadline struct {
	JobID    uint64    `json:"job_id"`
	Title    string    `json:"title"`
	Company  string    `json:"company"`
	Deadline time.Time `json:"deadline"`
}

type Snapshot struct {
	Statistics         Statistics          `json:"statistics"`
	NeedsChase         []ChaseItem         `json:"needs_chase"`
	AllUpdates         []Update            `json:"all_updates"`
	UpcomingInterviews []UpcomingInterview `json:"upcoming_interviews"`
	UpcomingDeadlines  []Deadline          `json:"upcoming_deadlines"`
}

type Options struct {
	ChaseAfter time.Duration
	FeedLimit  int
}

// Build derives a snapshot from the owner's jobs. Each job must carry its
// Company and Application, and the application its Updates and Interviews.
func Build(jobs []models.Job, now time.Time, opts Options) Snapshot {
	s := Snapshot{
		NeedsChase:         []ChaseItem{},
		AllUpdates:         []Update{},
		UpcomingInterviews: []UpcomingInterview{},
		UpcomingDeadlines:  []Deadline{},
	}

	for i := range jobs {
		job := &jobs[i]
		company := companyName(job)
		s.Statistics.Jobs++

		s.AllUpdates = append(s.AllUpdates, Update{
			Kind:  KindJobCreated,
			Date:  job.CreatedAt,
			JobID: job.ID,
			Title: job.Title,
		})
		if job.ModifiedAt.Sub(job.CreatedAt) > time.Second {
			s.AllUpdates = append(s.AllUpdates, Update{
				Kind:  KindJobModified,
				Date:  job.ModifiedAt,
				JobID: job.ID,
				Title: job.Title,
			})
		}

		app := job.Application
		if app == nil {
			if job.Deadline != nil && !job.Deadline.Before(now) {
				s.UpcomingDeadlines = append(s.UpcomingDeadlines, Deadline{
					JobID:    job.ID,
					Title:    job.Title,
					Company:  company,
					Deadline: *job.Deadline,
				})
			}
			continue
		}

		s.Statistics.JobApplications++
		last := app.Date
		for _, u := range app.Updates {
			if u.Date.After(last) {
				last = u.Date
			}
			s.AllUpdates = append(s.AllUpdates, Update{
				Kind:   KindApplicationUpdate,
				Date:   u.Date,
				JobID:  job.ID,
				Title:  job.Title,
				Detail: u.Type,
			})
		}

		if models.IsPending(app.Status) {
			s.Statistics.JobApplicationPending++
			if idle := now.Sub(last); idle > opts.ChaseAfter {
				s.NeedsChase = append(s.NeedsChase, ChaseItem{
					JobApplicationID: app.ID,
					JobID:            job.ID,
					Title:            job.Title,
					Company:          company,
					Status:           app.Status,
					LastActivity:     last,
					DaysSince:        int(idle / (24 * time.Hour)),
				})
			}
		}

		for _, iv := range app.Interviews {
			s.Statistics.Interviews++
			s.AllUpdates = append(s.AllUpdates, Update{
				Kind:   KindInterview,
				Date:   iv.CreatedAt,
				JobID:  job.ID,
				Title:  job.Title,
				Detail: fmt.Sprintf("%s interview on %s", orDefault(iv.Type, "an"), iv.Date.Format("2006-01-02 15:04")),
			})
			if !iv.Date.Before(now) {
				s.UpcomingInterviews = append(s.UpcomingInterviews, UpcomingInterview{
					InterviewID: iv.ID,
					JobID:       job.ID,
					Title:       job.Title,
					Company:     company,
					Date:        iv.Date,
					Type:        iv.Type,
					Location:    iv.Location.Label(),
				})
			}
		}
	}

	sort.SliceStable(s.NeedsChase, func(i, j int) bool {
		return s.NeedsChase[i].LastActivity.Before(s.NeedsChase[j].LastActivity)
	})
	sort.SliceStable(s.AllUpdates, func(i, j int) bool {
		return s.AllUpdates[i].Date.After(s.AllUpdates[j].Date)
	})
	if opts.FeedLimit > 0 && len(s.AllUpdates) > opts.FeedLimit {
		s.AllUpdates = s.AllUpdates[:opts.FeedLimit]
	}
	sort.SliceStable(s.UpcomingInterviews, func(i, j int) bool {
		return s.UpcomingInterviews[i].Date.Before(s.UpcomingInterviews[j].Date)
	})
	sort.SliceStable(s.UpcomingDeadlines, func(i, j int) bool {
		return s.UpcomingDeadlines[i].Deadline.Before(s.UpcomingDeadlines[j].Deadline)
	})

	return s
}

func companyName(j *models.Job) string {
	if j.Company == nil {
		return ""
	}
	return j.Company.Name
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
