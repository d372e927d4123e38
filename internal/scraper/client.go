// Package scraper drives the BrightData dataset API: trigger a snapshot,
// poll until it is ready, then download the records.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://api.brightdata.com"

var (
	ErrTimeout    = errors.New("snapshot not ready before attempts ran out")
	ErrFailed     = errors.New("snapshot failed")
	ErrNoSnapshot = errors.New("trigger response has no snapshot_id")
)

// APIError is returned for any non-2xx response. Calls are never retried.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("brightdata %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

type Options struct {
	BaseURL        string
	PollInterval   time.Duration
	AttemptsPerURL int
	HTTPClient     *http.Client
}

type Client struct {
	site      Site
	datasetID string
	apiKey    string
	baseURL   string
	interval  time.Duration
	perURL    int
	http      *http.Client
	log       *zap.Logger
}

func New(site Site, sec *Secrets, log *zap.Logger, opts Options) (*Client, error) {
	datasetID, err := sec.DatasetID(site)
	if err != nil {
		return nil, err
	}
	c := &Client{
		site:      site,
		datasetID: datasetID,
		apiKey:    sec.BrightData.APIKey,
		baseURL:   opts.BaseURL,
		interval:  opts.PollInterval,
		perURL:    opts.AttemptsPerURL,
		http:      opts.HTTPClient,
		log:       log.With(zap.String("site", site.String())),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.interval <= 0 {
		c.interval = 10 * time.Second
	}
	if c.perURL <= 0 {
		c.perURL = 12
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	return c, nil
}

func (c *Client) Site() Site { return c.site }

type triggerInput struct {
	URL string `json:"url"`
}

// GetSnapshot submits the postings for ids and returns the snapshot id.
func (c *Client) GetSnapshot(ctx context.Context, ids []string) (string, error) {
	inputs := make([]triggerInput, 0, len(ids))
	for _, id := range ids {
		inputs = append(inputs, triggerInput{URL: c.site.JobURL(id)})
	}
	body, err := json.Marshal(inputs)
	if err != nil {
		return "", err
	}

	q := url.Values{"dataset_id": {c.datasetID}, "include_errors": {"true"}}
	var out struct {
		SnapshotID string `json:"snapshot_id"`
	}
	if err := c.do(ctx, "trigger", http.MethodPost, "/datasets/v3/trigger?"+q.Encode(), body, &out); err != nil {
		return "", err
	}
	if out.SnapshotID == "" {
		return "", ErrNoSnapshot
	}
	c.log.Info("snapshot triggered", zap.String("snapshot", out.SnapshotID), zap.Int("urls", len(ids)))
	return out.SnapshotID, nil
}

// WaitForData polls progress at a fixed interval until the snapshot is ready.
// The attempt budget scales with urlCount.
func (c *Client) WaitForData(ctx context.Context, snapshot string, urlCount int) error {
	if urlCount < 1 {
		urlCount = 1
	}
	attempts := c.perURL * urlCount
	limiter := rate.NewLimiter(rate.Every(c.interval), 1)

	for i := 1; i <= attempts; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		var out struct {
			Status string `json:"status"`
		}
		if err := c.do(ctx, "progress", http.MethodGet, "/datasets/v3/progress/"+url.PathEscape(snapshot), nil, &out); err != nil {
			return err
		}
		c.log.Debug("snapshot progress", zap.String("snapshot", snapshot), zap.String("status", out.Status), zap.Int("attempt", i))
		switch out.Status {
		case "ready":
			return nil
		case "failed":
			return fmt.Errorf("%w: %s", ErrFailed, snapshot)
		}
	}
	return fmt.Errorf("%w: %s after %d polls", ErrTimeout, snapshot, attempts)
}

// RetrieveData downloads the snapshot records untouched.
func (c *Client) RetrieveData(ctx context.Context, snapshot string) ([]json.RawMessage, error) {
	var out []json.RawMessage
	path := "/datasets/v3/snapshot/" + url.PathEscape(snapshot) + "?format=json"
	if err := c.do(ctx, "snapshot", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Scrape runs trigger, wait and retrieve for one batch of posting ids.
func (c *Client) Scrape(ctx context.Context, ids []string) ([]json.RawMessage, error) {
	snapshot, err := c.GetSnapshot(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := c.WaitForData(ctx, snapshot, len(ids)); err != nil {
		return nil, err
	}
	return c.RetrieveData(ctx, snapshot)
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte, out any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("brightdata %s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("brightdata %s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("brightdata %s: read body: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("brightdata %s: decode response: %w", op, err)
	}
	return nil
}
