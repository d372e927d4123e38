package scraper_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"jam/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeAPI struct {
	t        *testing.T
	mu       sync.Mutex
	statuses []string
	polls    int
	triggers [][]map[string]string
	records  string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	assert.Equal(f.t, "Bearer key-123", r.Header.Get("Authorization"))
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/datasets/v3/trigger":
		assert.Equal(f.t, "gd_linkedin", r.URL.Query().Get("dataset_id"))
		assert.Equal(f.t, "true", r.URL.Query().Get("include_errors"))
		var in []map[string]string
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&in))
		f.triggers = append(f.triggers, in)
		_, _ = w.Write([]byte(`{"snapshot_id":"s_1"}`))
	case r.Method == http.MethodGet && r.URL.Path == "/datasets/v3/progress/s_1":
		status := f.statuses[len(f.statuses)-1]
		if f.polls < len(f.statuses) {
			status = f.statuses[f.polls]
		}
		f.polls++
		_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
	case r.Method == http.MethodGet && r.URL.Path == "/datasets/v3/snapshot/s_1":
		assert.Equal(f.t, "json", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte(f.records))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func secrets(t *testing.T) *scraper.Secrets {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.yaml")
	body := "brightdata:\n  api_key: key-123\n  datasets:\n    linkedin: gd_linkedin\n    indeed: gd_indeed\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	sec, err := scraper.LoadSecrets(path)
	require.NoError(t, err)
	return sec
}

func newClient(t *testing.T, api http.Handler, perURL int) *scraper.Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	c, err := scraper.New(scraper.LinkedIn, secrets(t), zaptest.NewLogger(t), scraper.Options{
		BaseURL:        srv.URL,
		PollInterval:   time.Millisecond,
		AttemptsPerURL: perURL,
	})
	require.NoError(t, err)
	return c
}

func TestWaitForDataReadyAfterThreePolls(t *testing.T) {
	api := &fakeAPI{t: t, statuses: []string{"running", "running", "ready"}}
	c := newClient(t, api, 5)

	require.NoError(t, c.WaitForData(context.Background(), "s_1", 1))
	assert.Equal(t, 3, api.pollCount())
}

func TestWaitForDataTimeout(t *testing.T) {
	api := &fakeAPI{t: t, statuses: []string{"running"}}
	c := newClient(t, api, 3)

	err := c.WaitForData(context.Background(), "s_1", 2)
	assert.ErrorIs(t, err, scraper.ErrTimeout)
	assert.Equal(t, 6, api.pollCount())
}

func TestWaitForDataFailedStopsImmediately(t *testing.T) {
	api := &fakeAPI{t: t, statuses: []string{"running", "failed", "ready"}}
	c := newClient(t, api, 10)

	err := c.WaitForData(context.Background(), "s_1", 1)
	assert.ErrorIs(t, err, scraper.ErrFailed)
	assert.Equal(t, 2, api.pollCount())
}

func TestScrape(t *testing.T) {
	api := &fakeAPI{
		t:        t,
		statuses: []string{"ready"},
		records: `[
			{"job_posting_id":"4001","job_title":"Go Developer","company_name":"Acme","job_location":"Leeds","job_summary":"Write Go","url":"https://www.linkedin.com/jobs/view/4001"},
			{"error":"dead page","input":{"url":"https://www.linkedin.com/jobs/view/4002"}}
		]`,
	}
	c := newClient(t, api, 2)

	records, err := c.Scrape(context.Background(), []string{"4001", "4002"})
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Len(t, api.triggers, 1)
	assert.Equal(t, []map[string]string{
		{"url": "https://www.linkedin.com/jobs/view/4001"},
		{"url": "https://www.linkedin.com/jobs/view/4002"},
	}, api.triggers[0])

	jobs, err := scraper.ToScrapedJobs(scraper.LinkedIn, records)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "4001", jobs[0].ExternalJobID)
	assert.Equal(t, "linkedin", jobs[0].Platform)
	assert.Equal(t, "Go Developer", jobs[0].Title)
	assert.Equal(t, "Acme", jobs[0].Company)
	assert.True(t, jobs[0].IsScraped)
	assert.NotEmpty(t, jobs[0].Raw)
}

func TestAPIErrorNotRetried(t *testing.T) {
	calls := 0
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad dataset", http.StatusBadRequest)
	})
	c := newClient(t, api, 3)

	_, err := c.GetSnapshot(context.Background(), []string{"1"})
	var apiErr *scraper.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "trigger", apiErr.Op)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "bad dataset", apiErr.Body)
	assert.Equal(t, 1, calls)
}

func TestGetSnapshotMissingID(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	c := newClient(t, api, 3)

	_, err := c.GetSnapshot(context.Background(), []string{"1"})
	assert.ErrorIs(t, err, scraper.ErrNoSnapshot)
}

func TestSites(t *testing.T) {
	s, err := scraper.ParseSite("indeed")
	require.NoError(t, err)
	assert.Equal(t, scraper.Indeed, s)
	assert.Equal(t, "https://www.indeed.com/viewjob?jk=abc", s.JobURL("abc"))

	_, err = scraper.ParseSite("monster")
	assert.Error(t, err)

	_, err = secrets(t).DatasetID(scraper.Indeed)
	assert.NoError(t, err)
}

func TestLoadSecretsRequiresKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("brightdata:\n  datasets: {}\n"), 0o600))
	_, err := scraper.LoadSecrets(path)
	assert.Error(t, err)
}
