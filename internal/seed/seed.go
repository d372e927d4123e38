// Package seed loads a fixed demo data set for one user.
package seed

import (
	"context"
	"fmt"
	"time"

	"jam/internal/models"

	"gorm.io/gorm"
)

// Counts reports how many rows of each kind Seed created.
type Counts struct {
	Companies    int
	Locations    int
	Aggregators  int
	Keywords     int
	People       int
	Jobs         int
	Applications int
	Updates      int
	Interviews   int
}

// Seed creates the demo graph for ownerID relative to now. It runs in one
// transaction; on any error nothing is written.
func Seed(ctx context.Context, gdb *gorm.DB, ownerID uint64, now time.Time) (Counts, error) {
	var c Counts
	err := gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		create := func(what string, v any) error {
			if err := tx.Create(v).Error; err != nil {
				return fmt.Errorf("seed %s: %w", what, err)
			}
			return nil
		}
		base := models.Base{OwnerID: ownerID}
		day := 24 * time.Hour

		companies := []models.Company{
			{Base: base, Name: "Acme Corp", URL: "https://acme.example"},
			{Base: base, Name: "Globex", URL: "https://globex.example"},
			{Base: base, Name: "Initech", URL: "https://initech.example"},
		}
		if err := create("companies", &companies); err != nil {
			return err
		}
		locations := []models.Location{
			{Base: base, City: "Leeds", Country: "UK"},
			{Base: base, City: "Manchester", Country: "UK", Remote: true},
			{Base: base, Remote: true},
		}
		if err := create("locations", &locations); err != nil {
			return err
		}
		aggregators := []models.Aggregator{
			{Base: base, Name: "LinkedIn", URL: "https://www.linkedin.com"},
			{Base: base, Name: "Indeed", URL: "https://www.indeed.com"},
		}
		if err := create("aggregators", &aggregators); err != nil {
			return err
		}
		keywords := []models.Keyword{
			{Base: base, Name: "Go"},
			{Base: base, Name: "PostgreSQL"},
			{Base: base, Name: "Kubernetes"},
		}
		if err := create("keywords", &keywords); err != nil {
			return err
		}
		people := []models.Person{
			{Base: base, Name: "Sam Recruiter", Email: "sam@acme.example", Role: "Recruiter", CompanyID: &companies[0].ID},
			{Base: base, Name: "Alex Lead", Role: "Engineering Lead", CompanyID: &companies[1].ID},
		}
		if err := create("people", &people); err != nil {
			return err
		}

		salary := func(v float64) *float64 { return &v }
		rating := func(v int) *int { return &v }
		deadline := now.Add(10 * day)
		jobs := []models.Job{
			{
				Base: base, Title: "Backend Engineer", SalaryMin: salary(55000), SalaryMax: salary(70000),
				PersonalRating: rating(4), AttendanceType: "hybrid",
				CompanyID: &companies[0].ID, LocationID: &locations[0].ID, SourceID: &aggregators[0].ID,
				Keywords: []models.Keyword{keywords[0], keywords[1]}, Contacts: []models.Person{people[0]},
			},
			{
				Base: base, Title: "Platform Engineer", PersonalRating: rating(5), AttendanceType: "remote",
				CompanyID: &companies[1].ID, LocationID: &locations[2].ID, SourceID: &aggregators[1].ID,
				Keywords: []models.Keyword{keywords[0], keywords[2]}, Contacts: []models.Person{people[1]},
			},
			{
				Base: base, Title: "Go Developer", SalaryMin: salary(50000), Deadline: &deadline,
				CompanyID: &companies[2].ID, LocationID: &locations[1].ID,
				Keywords: []models.Keyword{keywords[0]},
			},
		}
		if err := create("jobs", &jobs); err != nil {
			return err
		}

		apps := []models.JobApplication{
			{Base: base, JobID: jobs[0].ID, Date: now.Add(-20 * day), Status: models.StatusApplied, AppliedVia: "aggregator", AggregatorID: &aggregators[0].ID},
			{Base: base, JobID: jobs[1].ID, Date: now.Add(-10 * day), Status: models.StatusInterview, AppliedVia: "email"},
		}
		if err := create("applications", &apps); err != nil {
			return err
		}
		updates := []models.JobApplicationUpdate{
			{Base: base, JobApplicationID: apps[0].ID, Date: now.Add(-18 * day), Type: "acknowledged"},
			{Base: base, JobApplicationID: apps[1].ID, Date: now.Add(-5 * day), Type: "interview invite"},
		}
		if err := create("updates", &updates); err != nil {
			return err
		}
		interviews := []models.Interview{
			{
				Base: base, JobApplicationID: apps[1].ID, Date: now.Add(3 * day), Type: "technical",
				AttendanceType: "remote", LocationID: &locations[2].ID, Interviewers: []models.Person{people[1]},
			},
		}
		if err := create("interviews", &interviews); err != nil {
			return err
		}

		c = Counts{
			Companies:    len(companies),
			Locations:    len(locations),
			Aggregators:  len(aggregators),
			Keywords:     len(keywords),
			People:       len(people),
			Jobs:         len(jobs),
			Applications: len(apps),
			Updates:      len(updates),
			Interviews:   len(interviews),
		}
		return nil
	})
	if err != nil {
		return Counts{}, err
	}
	return c, nil
}
