// Package alerts turns stored job-alert e-mails into ScrapedJob rows.
package alerts

import (
	"fmt"
	"regexp"
	"strings"

	"jam/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// Posting is one job advertised in an alert e-mail.
type Posting struct {
	ExternalID string
	Title      string
	Company    string
	Location   string
	URL        string
}

var idPatterns = map[string]*regexp.Regexp{
	models.PlatformLinkedIn: regexp.MustCompile(`linkedin\.com/(?:comm/)?jobs/view/(\d+)`),
	models.PlatformIndeed:   regexp.MustCompile(`indeed\.[a-z.]+/(?:rc/clk|viewjob|pagead/clk)\?(?:[^"#]*&)?jk=([0-9a-f]+)`),
}

var spaces = regexp.MustCompile(`\s+`)

// Parse extracts the postings of a LinkedIn or Indeed alert body, in
// order of first appearance, one per posting id.
func Parse(platform, html string) ([]Posting, error) {
	re, ok := idPatterns[platform]
	if !ok {
		return nil, fmt.Errorf("unsupported platform %q", platform)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse alert html: %w", err)
	}

	var out []Posting
	index := map[string]int{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := re.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id := m[1]
		i, seen := index[id]
		if !seen {
			i = len(out)
			index[id] = i
			out = append(out, Posting{ExternalID: id, URL: href})
		}
		p := &out[i]
		if p.Title == "" {
			p.Title = clean(a.Text())
			if p.Title != "" {
				p.Company, p.Location = details(a, p.Title)
			}
		}
	})
	return out, nil
}

// details reads the company and location lines that follow the title inside
// the posting's card. LinkedIn joins both with a middle dot.
func details(a *goquery.Selection, title string) (company, location string) {
	card := a.Parent().Closest("td, li, div")
	if card.Length() == 0 {
		return "", ""
	}
	var lines []string
	card.Children().Each(func(_ int, s *goquery.Selection) {
		t := clean(s.Text())
		if t == "" || t == title || s.Find("a[href]").Length() > 0 || s.Is("a") {
			return
		}
		lines = append(lines, t)
	})
	if len(lines) == 0 {
		return "", ""
	}
	if c, l, ok := strings.Cut(lines[0], " · "); ok {
		return strings.TrimSpace(c), strings.TrimSpace(l)
	}
	company = lines[0]
	if len(lines) > 1 {
		location = lines[1]
	}
	return company, location
}

func clean(s string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}
