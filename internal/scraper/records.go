package scraper

import (
	"encoding/json"
	"fmt"
	"strconv"

	"jam/internal/models"

	"gorm.io/datatypes"
)

// ToScrapedJobs maps dataset records onto ScrapedJob rows marked as scraped.
// Error records and records without a posting id are skipped.
func ToScrapedJobs(site Site, records []json.RawMessage) ([]models.ScrapedJob, error) {
	f := site.Fields()
	out := make([]models.ScrapedJob, 0, len(records))
	for i, rec := range records {
		var m map[string]any
		if err := json.Unmarshal(rec, &m); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if _, failed := m["error"]; failed {
			continue
		}
		id := text(m[f.ID])
		if id == "" {
			continue
		}
		out = append(out, models.ScrapedJob{
			ExternalJobID: id,
			Platform:      site.Platform(),
			Title:         text(m[f.Title]),
			Company:       text(m[f.Company]),
			Location:      text(m[f.Location]),
			Description:   text(m[f.Description]),
			Salary:        text(m[f.Salary]),
			URL:           text(m[f.URL]),
			Raw:           datatypes.JSON(rec),
			IsScraped:     true,
		})
	}
	return out, nil
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		raw, _ := json.Marshal(t)
		return string(raw)
	}
}
