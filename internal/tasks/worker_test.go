package tasks_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"jam/internal/models"
	"jam/internal/scraper"
	"jam/internal/tasks"
	"jam/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeScraper struct {
	records []json.RawMessage
	err     error
	got     []string
}

func (f *fakeScraper) Site() scraper.Site { return scraper.LinkedIn }

func (f *fakeScraper) Scrape(_ context.Context, ids []string) ([]json.RawMessage, error) {
	f.got = append(f.got, ids...)
	return f.records, f.err
}

func pending(t *testing.T, gdb *gorm.DB, owner uint64, ext string) models.ScrapedJob {
	t.Helper()
	sj := models.ScrapedJob{ExternalJobID: ext, Platform: models.PlatformLinkedIn}
	sj.OwnerID = owner
	require.NoError(t, gdb.Create(&sj).Error)
	return sj
}

func newWorker(t *testing.T, gdb *gorm.DB, sc tasks.Scraper) *tasks.Worker {
	return &tasks.Worker{
		ID:       "test-worker",
		Repo:     &tasks.Repo{DB: gdb},
		DB:       gdb,
		Log:      testutil.Logger(t),
		Scrapers: map[string]tasks.Scraper{models.PlatformLinkedIn: sc},
	}
}

func TestClaimEmptyQueue(t *testing.T) {
	gdb := testutil.NewDB(t)
	repo := &tasks.Repo{DB: gdb}

	task, err := repo.Claim(context.Background(), "w1")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestClaimOnce(t *testing.T) {
	gdb := testutil.NewDB(t)
	owner := testutil.NewUser(t, gdb, "a@test", false)
	repo := &tasks.Repo{DB: gdb}
	ctx := context.Background()

	queued, err := repo.EnqueueScrape(ctx, owner, models.PlatformLinkedIn)
	require.NoError(t, err)

	claimed, err := repo.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, queued.ID, claimed.ID)
	assert.Equal(t, tasks.StatusRunning, claimed.Status)

	again, err := repo.Claim(ctx, "w2")
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestScrapeTaskUpdatesRows(t *testing.T) {
	gdb := testutil.NewDB(t)
	owner := testutil.NewUser(t, gdb, "a@test", false)
	other := testutil.NewUser(t, gdb, "b@test", false)
	ctx := context.Background()

	hit := pending(t, gdb, owner, "100")
	miss := pending(t, gdb, owner, "200")
	foreign := pending(t, gdb, other, "300")

	sc := &fakeScraper{records: []json.RawMessage{
		json.RawMessage(`{"job_posting_id":"100","job_title":"Go Dev","company_name":"Acme","url":"https://www.linkedin.com/jobs/view/100"}`),
	}}
	w := newWorker(t, gdb, sc)

	task, err := w.Repo.EnqueueScrape(ctx, owner, models.PlatformLinkedIn)
	require.NoError(t, err)

	ran, err := w.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, ran)
	assert.Equal(t, []string{"100", "200"}, sc.got)

	var got models.ScrapedJob
	require.NoError(t, gdb.First(&got, hit.ID).Error)
	assert.True(t, got.IsScraped)
	assert.False(t, got.IsFailed)
	assert.Equal(t, "Go Dev", got.Title)
	assert.Equal(t, "Acme", got.Company)

	require.NoError(t, gdb.First(&got, miss.ID).Error)
	assert.False(t, got.IsScraped)
	assert.True(t, got.IsFailed)

	require.NoError(t, gdb.First(&got, foreign.ID).Error)
	assert.False(t, got.IsScraped)
	assert.False(t, got.IsFailed)

	var logs []models.ServiceLog
	require.NoError(t, gdb.Where("owner_id = ?", owner).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "scraper.linkedin", logs[0].Name)
	assert.True(t, logs[0].Succeeded)
	assert.NotNil(t, logs[0].FinishedAt)
	assert.JSONEq(t, `{"platform":"linkedin","requested":2,"scraped":1,"failed":1}`, string(logs[0].Details))

	var done tasks.Task
	require.NoError(t, gdb.First(&done, task.ID).Error)
	assert.Equal(t, tasks.StatusDone, done.Status)
}

func TestScrapeTaskRetriesOnError(t *testing.T) {
	gdb := testutil.NewDB(t)
	owner := testutil.NewUser(t, gdb, "a@test", false)
	ctx := context.Background()
	pending(t, gdb, owner, "100")

	w := newWorker(t, gdb, &fakeScraper{err: errors.New("snapshot failed")})
	task, err := w.Repo.EnqueueScrape(ctx, owner, models.PlatformLinkedIn)
	require.NoError(t, err)

	before := time.Now()
	ran, err := w.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, ran)

	var again tasks.Task
	require.NoError(t, gdb.First(&again, task.ID).Error)
	assert.Equal(t, tasks.StatusPending, again.Status)
	assert.Equal(t, 1, again.Attempts)
	assert.True(t, again.RunAt.After(before))
	require.NotNil(t, again.LastError)
	assert.Equal(t, "snapshot failed", *again.LastError)

	var run models.ServiceLog
	require.NoError(t, gdb.Where("owner_id = ?", owner).First(&run).Error)
	assert.False(t, run.Succeeded)
	assert.Equal(t, "snapshot failed", run.Error)

	// backoff keeps it out of reach for now
	ran, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, ran)
}

func TestScrapeTaskWithNothingPending(t *testing.T) {
	gdb := testutil.NewDB(t)
	owner := testutil.NewUser(t, gdb, "a@test", false)
	ctx := context.Background()

	sc := &fakeScraper{}
	w := newWorker(t, gdb, sc)
	task, err := w.Repo.EnqueueScrape(ctx, owner, models.PlatformLinkedIn)
	require.NoError(t, err)

	_, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, sc.got)

	var done tasks.Task
	require.NoError(t, gdb.First(&done, task.ID).Error)
	assert.Equal(t, tasks.StatusDone, done.Status)
}

func TestUnknownPlatformFails(t *testing.T) {
	gdb := testutil.NewDB(t)
	owner := testutil.NewUser(t, gdb, "a@test", false)
	ctx := context.Background()

	w := newWorker(t, gdb, &fakeScraper{})
	task, err := w.Repo.EnqueueScrape(ctx, owner, "monster")
	require.NoError(t, err)

	_, err = w.RunOnce(ctx)
	require.NoError(t, err)

	var failed tasks.Task
	require.NoError(t, gdb.First(&failed, task.ID).Error)
	assert.Equal(t, tasks.StatusFailed, failed.Status)
}
