package scraper

import (
	"fmt"
	"net/url"

	"jam/internal/models"
)

// Site selects which BrightData dataset a client talks to.
type Site int

const (
	LinkedIn Site = iota + 1
	Indeed
)

// Fields names the dataset keys that fill a ScrapedJob.
type Fields struct {
	ID          string
	Title       string
	Company     string
	Location    string
	Description string
	Salary      string
	URL         string
}

type siteInfo struct {
	platform string
	jobURL   func(id string) string
	fields   Fields
}

var sites = map[Site]siteInfo{
	LinkedIn: {
		platform: models.PlatformLinkedIn,
		jobURL: func(id string) string {
			return "https://www.linkedin.com/jobs/view/" + url.PathEscape(id)
		},
		fields: Fields{
			ID:          "job_posting_id",
			Title:       "job_title",
			Company:     "company_name",
			Location:    "job_location",
			Description: "job_summary",
			Salary:      "job_base_pay_range",
			URL:         "url",
		},
	},
	Indeed: {
		platform: models.PlatformIndeed,
		jobURL: func(id string) string {
			return "https://www.indeed.com/viewjob?jk=" + url.QueryEscape(id)
		},
		fields: Fields{
			ID:          "jobid",
			Title:       "job_title",
			Company:     "company_name",
			Location:    "location",
			Description: "description_text",
			Salary:      "salary_formatted",
			URL:         "url",
		},
	},
}

// ParseSite maps a stored platform name back to a Site.
func ParseSite(platform string) (Site, error) {
	for s, info := range sites {
		if info.platform == platform {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown platform %q", platform)
}

// Platform is the value stored in ScrapedJob.Platform and the secrets dataset key.
func (s Site) Platform() string { return sites[s].platform }

func (s Site) String() string { return s.Platform() }

// JobURL builds the public posting URL submitted to the dataset.
func (s Site) JobURL(id string) string { return sites[s].jobURL(id) }

func (s Site) Fields() Fields { return sites[s].fields }
