package dashboard

import (
	"testing"
	"time"

	"jam/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func job(id uint64, title string, created time.Time) models.Job {
	j := models.Job{Title: title}
	j.ID = id
	j.CreatedAt = created
	j.ModifiedAt = created
	return j
}

func TestBuildEmpty(t *testing.T) {
	s := Build(nil, now, Options{ChaseAfter: days(14), FeedLimit: 10})

	assert.Equal(t, Statistics{}, s.Statistics)
	assert.NotNil(t, s.NeedsChase)
	assert.Empty(t, s.NeedsChase)
	assert.NotNil(t, s.AllUpdates)
	assert.Empty(t, s.UpcomingInterviews)
	assert.Empty(t, s.UpcomingDeadlines)
}

func TestBuild(t *testing.T) {
	deadlineSoon := now.Add(days(3))
	deadlineLater := now.Add(days(10))
	deadlinePast := now.Add(-days(1))

	// no application, two future deadlines and one past
	j1 := job(1, "Later deadline", now.Add(-days(30)))
	j1.Deadline = &deadlineLater
	j2 := job(2, "Soon deadline", now.Add(-days(29)))
	j2.Deadline = &deadlineSoon
	j2.Company = &models.Company{Name: "Acme"}
	j3 := job(3, "Missed", now.Add(-days(28)))
	j3.Deadline = &deadlinePast

	// stale pending application, last touched 40 days ago
	j4 := job(4, "Stale", now.Add(-days(60)))
	j4.Application = &models.JobApplication{Date: now.Add(-days(50)), Status: models.StatusApplied}
	j4.Application.ID = 40
	j4.Application.Updates = []models.JobApplicationUpdate{{Date: now.Add(-days(40)), Type: "chased"}}

	// staler pending application, no updates
	j5 := job(5, "Staler", now.Add(-days(90)))
	j5.Application = &models.JobApplication{Date: now.Add(-days(80)), Status: models.StatusInterview}
	j5.Application.ID = 50
	past := models.Interview{Date: now.Add(-days(70)), Type: "phone"}
	past.CreatedAt = now.Add(-days(75))
	future := models.Interview{Date: now.Add(days(2)), Type: "onsite", Location: &models.Location{City: "Leeds", Country: "UK"}}
	future.ID = 9
	future.CreatedAt = now.Add(-days(1))
	j5.Application.Interviews = []models.Interview{past, future}

	// fresh pending application
	j6 := job(6, "Fresh", now.Add(-days(5)))
	j6.Application = &models.JobApplication{Date: now.Add(-days(2)), Status: models.StatusApplied}

	// rejected application, stale but closed
	j7 := job(7, "Closed", now.Add(-days(100)))
	j7.Application = &models.JobApplication{Date: now.Add(-days(99)), Status: models.StatusRejected}

	s := Build([]models.Job{j1, j2, j3, j4, j5, j6, j7}, now, Options{ChaseAfter: days(14), FeedLimit: 5})

	assert.Equal(t, Statistics{Jobs: 7, JobApplications: 4, JobApplicationPending: 3, Interviews: 2}, s.Statistics)
	assert.LessOrEqual(t, s.Statistics.JobApplicationPending, s.Statistics.JobApplications)
	assert.LessOrEqual(t, s.Statistics.JobApplications, s.Statistics.Jobs)

	require.Len(t, s.NeedsChase, 2)
	assert.Equal(t, uint64(50), s.NeedsChase[0].JobApplicationID)
	assert.Equal(t, 80, s.NeedsChase[0].DaysSince)
	assert.Equal(t, uint64(40), s.NeedsChase[1].JobApplicationID)
	assert.Equal(t, now.Add(-days(40)), s.NeedsChase[1].LastActivity)

	require.Len(t, s.UpcomingDeadlines, 2)
	assert.Equal(t, uint64(2), s.UpcomingDeadlines[0].JobID)
	assert.Equal(t, "Acme", s.UpcomingDeadlines[0].Company)
	assert.Equal(t, uint64(1), s.UpcomingDeadlines[1].JobID)

	require.Len(t, s.UpcomingInterviews, 1)
	assert.Equal(t, uint64(9), s.UpcomingInterviews[0].InterviewID)
	assert.Equal(t, "Leeds, UK", s.UpcomingInterviews[0].Location)

	require.Len(t, s.AllUpdates, 5)
	for i := 1; i < len(s.AllUpdates); i++ {
		assert.False(t, s.AllUpdates[i].Date.After(s.AllUpdates[i-1].Date))
	}
	assert.Equal(t, KindInterview, s.AllUpdates[0].Kind)
	assert.Equal(t, uint64(6), s.AllUpdates[1].JobID)
}

func TestBuildJobModifiedEvent(t *testing.T) {
	j := job(1, "Edited", now.Add(-days(3)))
	j.ModifiedAt = now.Add(-days(1))

	s := Build([]models.Job{j}, now, Options{FeedLimit: 10})
	require.Len(t, s.AllUpdates, 2)
	assert.Equal(t, KindJobModified, s.AllUpdates[0].Kind)
	assert.Equal(t, KindJobCreated, s.AllUpdates[1].Kind)
}
