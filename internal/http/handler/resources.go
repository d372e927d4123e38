package handler

import (
	"errors"
	"time"

	"jam/internal/crud"
	"jam/internal/models"

	"gorm.io/gorm"
)

type companyIn struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	URL         string `json:"url" validate:"omitempty,url"`
}

type companyPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	URL         *string `json:"url" validate:"omitempty,url"`
}

var Companies = crud.Resource[models.Company, companyIn, companyPatch, *models.Company]{
	Segment:  "companies",
	NotFound: "Company not found",
	New: func(_ *gorm.DB, _ uint64, in companyIn) (models.Company, error) {
		return models.Company{Name: in.Name, Description: in.Description, URL: in.URL}, nil
	},
	Patch: func(_ *gorm.DB, _ uint64, m *models.Company, in companyPatch) error {
		crud.Set(&m.Name, in.Name)
		crud.Set(&m.Description, in.Description)
		crud.Set(&m.URL, in.URL)
		return nil
	},
	Out: crud.Identity[models.Company],
}

type locationIn struct {
	Postcode string `json:"postcode" validate:"max=32"`
	City     string `json:"city" validate:"max=255"`
	Country  string `json:"country" validate:"max=255"`
	Remote   bool   `json:"remote"`
}

type locationPatch struct {
	Postcode *string `json:"postcode" validate:"omitempty,max=32"`
	City     *string `json:"city" validate:"omitempty,max=255"`
	Country  *string `json:"country" validate:"omitempty,max=255"`
	Remote   *bool   `json:"remote"`
}

var Locations = crud.Resource[models.Location, locationIn, locationPatch, *models.Location]{
	Segment:  "locations",
	NotFound: "Location not found",
	New: func(_ *gorm.DB, _ uint64, in locationIn) (models.Location, error) {
		if in.City == "" && in.Country == "" && !in.Remote {
			return models.Location{}, crud.Invalidf("a location needs a city, a country or the remote flag")
		}
		return models.Location{Postcode: in.Postcode, City: in.City, Country: in.Country, Remote: in.Remote}, nil
	},
	Patch: func(_ *gorm.DB, _ uint64, m *models.Location, in locationPatch) error {
		crud.Set(&m.Postcode, in.Postcode)
		crud.Set(&m.City, in.City)
		crud.Set(&m.Country, in.Country)
		crud.Set(&m.Remote, in.Remote)
		return nil
	},
	Out: crud.Identity[models.Location],
}

type aggregatorIn struct {
	Name string `json:"name" validate:"required,max=255"`
	URL  string `json:"url" validate:"omitempty,url"`
}

type aggregatorPatch struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=255"`
	URL  *string `json:"url" validate:"omitempty,url"`
}

var Aggregators = crud.Resource[models.Aggregator, aggregatorIn, aggregatorPatch, *models.Aggregator]{
	Segment:  "aggregators",
	NotFound: "Aggregator not found",
	New: func(_ *gorm.DB, _ uint64, in aggregatorIn) (models.Aggregator, error) {
		return models.Aggregator{Name: in.Name, URL: in.URL}, nil
	},
	Patch: func(_ *gorm.DB, _ uint64, m *models.Aggregator, in aggregatorPatch) error {
		crud.Set(&m.Name, in.Name)
		crud.Set(&m.URL, in.URL)
		return nil
	},
	Out: crud.Identity[models.Aggregator],
}

type keywordIn struct {
	Name string `json:"name" validate:"required,max=100"`
}

type keywordPatch struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
}

var Keywords = crud.Resource[models.Keyword, keywordIn, keywordPatch, *models.Keyword]{
	Segment:  "keywords",
	NotFound: "Keyword not found",
	New: func(_ *gorm.DB, _ uint64, in keywordIn) (models.Keyword, error) {
		return models.Keyword{Name: in.Name}, nil
	},
	Patch: func(_ *gorm.DB, _ uint64, m *models.Keyword, in keywordPatch) error {
		crud.Set(&m.Name, in.Name)
		return nil
	},
	Out: crud.Identity[models.Keyword],
}

type personIn struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Email       string  `json:"email" validate:"omitempty,email"`
	Phone       string  `json:"phone" validate:"max=64"`
	LinkedinURL string  `json:"linkedin_url" validate:"omitempty,url"`
	Role        string  `json:"role" validate:"max=255"`
	CompanyID   *uint64 `json:"company_id"`
}

type personPatch struct {
	Name        *string               `json:"name" validate:"omitempty,min=1,max=255"`
	Email       *string               `json:"email" validate:"omitempty,email"`
	Phone       *string               `json:"phone" validate:"omitempty,max=64"`
	LinkedinURL *string               `json:"linkedin_url" validate:"omitempty,url"`
	Role        *string               `json:"role" validate:"omitempty,max=255"`
	CompanyID   crud.Nullable[uint64] `json:"company_id"`
}

var People = crud.Resource[models.Person, personIn, personPatch, *models.Person]{
	Segment:  "persons",
	NotFound: "Person not found",
	Preload:  []string{"Company"},
	New: func(tx *gorm.DB, owner uint64, in personIn) (models.Person, error) {
		if err := crud.RequireOwned(tx, owner, &models.Company{}, in.CompanyID, "company_id"); err != nil {
			return models.Person{}, err
		}
		return models.Person{
			Name:        in.Name,
			Email:       in.Email,
			Phone:       in.Phone,
			LinkedinURL: in.LinkedinURL,
			Role:        in.Role,
			CompanyID:   in.CompanyID,
		}, nil
	},
	Patch: func(tx *gorm.DB, owner uint64, m *models.Person, in personPatch) error {
		if err := crud.RequireOwned(tx, owner, &models.Company{}, in.CompanyID.Value, "company_id"); err != nil {
			return err
		}
		crud.Set(&m.Name, in.Name)
		crud.Set(&m.Email, in.Email)
		crud.Set(&m.Phone, in.Phone)
		crud.Set(&m.LinkedinURL, in.LinkedinURL)
		crud.Set(&m.Role, in.Role)
		in.CompanyID.Apply(&m.CompanyID)
		return nil
	},
	Out: crud.Identity[models.Person],
}

// Content travels as base64 in JSON.
type fileIn struct {
	Filename string `json:"filename" validate:"required,max=255"`
	MimeType string `json:"mime_type" validate:"required,max=255"`
	Content  []byte `json:"content" validate:"required"`
}

type filePatch struct {
	Filename *string `json:"filename" validate:"omitempty,min=1,max=255"`
	MimeType *string `json:"mime_type" validate:"omitempty,min=1,max=255"`
	Content  []byte  `json:"content"`
}

var Files = crud.Resource[models.File, fileIn, filePatch, *models.File]{
	Segment:  "files",
	NotFound: "File not found",
	New: func(_ *gorm.DB, _ uint64, in fileIn) (models.File, error) {
		return models.File{
			Filename: in.Filename,
			MimeType: in.MimeType,
			Content:  in.Content,
			Size:     int64(len(in.Content)),
		}, nil
	},
	Patch: func(_ *gorm.DB, _ uint64, m *models.File, in filePatch) error {
		crud.Set(&m.Filename, in.Filename)
		crud.Set(&m.MimeType, in.MimeType)
		if in.Content != nil {
			m.Content = in.Content
			m.Size = int64(len(in.Content))
		}
		return nil
	},
	Out: crud.Identity[models.File],
}

type jobIn struct {
	Title          string     `json:"title" validate:"required,max=255"`
	Description    string     `json:"description"`
	SalaryMin      *float64   `json:"salary_min" validate:"omitempty,gte=0"`
	SalaryMax      *float64   `json:"salary_max" validate:"omitempty,gte=0"`
	PersonalRating *int       `json:"personal_rating" validate:"omitempty,min=0,max=5"`
	URL            string     `json:"url" validate:"omitempty,url"`
	Deadline       *time.Time `json:"deadline"`
	Note           string     `json:"note"`
	AttendanceType string     `json:"attendance_type" validate:"omitempty,oneof=on-site remote hybrid"`
	CompanyID      *uint64    `json:"company_id"`
	LocationID     *uint64    `json:"location_id"`
	SourceID       *uint64    `json:"source_id"`
	DuplicateID    *uint64    `json:"duplicate_id"`
	KeywordIDs     []uint64   `json:"keyword_ids"`
	ContactIDs     []uint64   `json:"contact_ids"`
}

type jobPatch struct {
	Title          *string                  `json:"title" validate:"omitempty,min=1,max=255"`
	Description    *string                  `json:"description"`
	SalaryMin      crud.Nullable[float64]   `json:"salary_min"`
	SalaryMax      crud.Nullable[float64]   `json:"salary_max"`
	PersonalRating crud.Nullable[int]       `json:"personal_rating"`
	URL            *string                  `json:"url" validate:"omitempty,url"`
	Deadline       crud.Nullable[time.Time] `json:"deadline"`
	Note           *string                  `json:"note"`
	AttendanceType *string                  `json:"attendance_type" validate:"omitempty,oneof=on-site remote hybrid"`
	CompanyID      crud.Nullable[uint64]    `json:"company_id"`
	LocationID     crud.Nullable[uint64]    `json:"location_id"`
	SourceID       crud.Nullable[uint64]    `json:"source_id"`
	DuplicateID    crud.Nullable[uint64]    `json:"duplicate_id"`
	KeywordIDs     *[]uint64                `json:"keyword_ids"`
	ContactIDs     *[]uint64                `json:"contact_ids"`
}

func checkJobRefs(tx *gorm.DB, owner uint64, company, location, source *uint64) error {
	if err := crud.RequireOwned(tx, owner, &models.Company{}, company, "company_id"); err != nil {
		return err
	}
	if err := crud.RequireOwned(tx, owner, &models.Location{}, location, "location_id"); err != nil {
		return err
	}
	return crud.RequireOwned(tx, owner, &models.Aggregator{}, source, "source_id")
}

func checkSalary(min, max *float64) error {
	if (min != nil && *min < 0) || (max != nil && *max < 0) {
		return crud.Invalidf("salary must not be negative")
	}
	if min != nil && max != nil && *min > *max {
		return crud.Invalidf("salary_min must not exceed salary_max")
	}
	return nil
}

func checkDuplicate(tx *gorm.DB, owner, jobID uint64, dup *uint64) error {
	if dup == nil {
		return nil
	}
	err := models.CheckDuplicate(tx, owner, jobID, *dup)
	switch {
	case errors.Is(err, models.ErrDuplicateSelf),
		errors.Is(err, models.ErrDuplicateUnknown),
		errors.Is(err, models.ErrDuplicateCycle):
		return crud.Invalidf("duplicate_id: %v", err)
	}
	return err
}

var Jobs = crud.Resource[models.Job, jobIn, jobPatch, *models.Job]{
	Segment:  "jobs",
	NotFound: "Job not found",
	Preload:  []string{"Company", "Location", "Source", "Keywords", "Contacts", "Application"},
	New: func(tx *gorm.DB, owner uint64, in jobIn) (models.Job, error) {
		if err := checkSalary(in.SalaryMin, in.SalaryMax); err != nil {
			return models.Job{}, err
		}
		if err := checkJobRefs(tx, owner, in.CompanyID, in.LocationID, in.SourceID); err != nil {
			return models.Job{}, err
		}
		if err := checkDuplicate(tx, owner, 0, in.DuplicateID); err != nil {
			return models.Job{}, err
		}
		keywords, err := crud.LoadOwned[models.Keyword](tx, owner, in.KeywordIDs, "keyword_ids")
		if err != nil {
			return models.Job{}, err
		}
		contacts, err := crud.LoadOwned[models.Person](tx, owner, in.ContactIDs, "contact_ids")
		if err != nil {
			return models.Job{}, err
		}

		return models.Job{
			Title:          in.Title,
			Description:    in.Description,
			SalaryMin:      in.SalaryMin,
			SalaryMax:      in.SalaryMax,
			PersonalRating: in.PersonalRating,
			URL:            in.URL,
			Deadline:       in.Deadline,
			Note:           in.Note,
			AttendanceType: in.AttendanceType,
			CompanyID:      in.CompanyID,
			LocationID:     in.LocationID,
			SourceID:       in.SourceID,
			DuplicateID:    in.DuplicateID,
			Keywords:       keywords,
			Contacts:       contacts,
		}, nil
	},
	Patch: func(tx *gorm.DB, owner uint64, m *models.Job, in jobPatch) error {
		if err := checkJobRefs(tx, owner, in.CompanyID.Value, in.LocationID.Value, in.SourceID.Value); err != nil {
			return err
		}
		if in.DuplicateID.Set {
			if err := checkDuplicate(tx, owner, m.ID, in.DuplicateID.Value); err != nil {
				return err
			}
		}

		crud.Set(&m.Title, in.Title)
		crud.Set(&m.Description, in.Description)
		in.SalaryMin.Apply(&m.SalaryMin)
		in.SalaryMax.Apply(&m.SalaryMax)
		if err := checkSalary(m.SalaryMin, m.SalaryMax); err != nil {
			return err
		}
		if in.PersonalRating.Value != nil && (*in.PersonalRating.Value < 0 || *in.PersonalRating.Value > 5) {
			return crud.Invalidf("personal_rating must be between 0 and 5")
		}
		in.PersonalRating.Apply(&m.PersonalRating)
		crud.Set(&m.URL, in.URL)
		in.Deadline.Apply(&m.Deadline)
		crud.Set(&m.Note, in.Note)
		crud.Set(&m.AttendanceType, in.AttendanceType)
		in.CompanyID.Apply(&m.CompanyID)
		in.LocationID.Apply(&m.LocationID)
		in.SourceID.Apply(&m.SourceID)
		in.DuplicateID.Apply(&m.DuplicateID)

		if in.KeywordIDs != nil {
			keywords, err := crud.LoadOwned[models.Keyword](tx, owner, *in.KeywordIDs, "keyword_ids")
			if err != nil {
				return err
			}
			if err := tx.Model(m).Association("Keywords").Replace(keywords); err != nil {
				return err
			}
		}
		if in.ContactIDs != nil {
			contacts, err := crud.LoadOwned[models.Person](tx, owner, *in.ContactIDs, "contact_ids")
			if err != nil {
				return err
			}
			if err := tx.Model(m).Association("Contacts").Replace(contacts); err != nil {
				return err
			}
		}
		return nil
	},
	Out: crud.Identity[models.Job],
}

type applicationIn struct {
	Date          time.Time `json:"date" validate:"required"`
	URL           string    `json:"url" validate:"omitempty,url"`
	Status        string    `json:"status" validate:"required,oneof=applied interview offer rejected withdrawn"`
	Note          string    `json:"note"`
	AppliedVia    string    `json:"applied_via" validate:"max=64"`
	JobID         uint64    `json:"job_id" validate:"required"`
	AggregatorID  *uint64   `json:"aggregator_id"`
	CVID          *uint64   `json:"cv_id"`
	CoverLetterID *uint64   `json:"cover_letter_id"`
}

type applicationPatch struct {
	Date          *time.Time            `json:"date"`
	URL           *string               `json:"url" validate:"omitempty,url"`
	Status        *string               `json:"status" validate:"omitempty,oneof=applied interview offer rejected withdrawn"`
	Note          *string               `json:"note"`
	AppliedVia    *string               `json:"applied_via" validate:"omitempty,max=64"`
	AggregatorID  crud.Nullable[uint64] `json:"aggregator_id"`
	CVID          crud.Nullable[uint64] `json:"cv_id"`
	CoverLetterID crud.Nullable[uint64] `json:"cover_letter_id"`
}

func checkApplicationRefs(tx *gorm.DB, owner uint64, aggregator, cv, cover *uint64) error {
	if err := crud.RequireOwned(tx, owner, &models.Aggregator{}, aggregator, "aggregator_id"); err != nil {
		return err
	}
	if err := crud.RequireOwned(tx, owner, &models.File{}, cv, "cv_id"); err != nil {
		return err
	}
	return crud.RequireOwned(tx, owner, &models.File{}, cover, "cover_letter_id")
}

var JobApplications = crud.Resource[models.JobApplication, applicationIn, applicationPatch, *models.JobApplication]{
	Segment:  "job_applications",
	NotFound: "Job application not found",
	Preload:  []string{"Aggregator", "Updates", "Interviews"},
	New: func(tx *gorm.DB, owner uint64, in applicationIn) (models.JobApplication, error) {
		jobID := in.JobID
		if err := crud.RequireOwned(tx, owner, &models.Job{}, &jobID, "job_id"); err != nil {
			return models.JobApplication{}, err
		}
		if err := checkApplicationRefs(tx, owner, in.AggregatorID, in.CVID, in.CoverLetterID); err != nil {
			return models.JobApplication{}, err
		}
		var existing int64
		if err := tx.Model(&models.JobApplication{}).Where("job_id = ?", in.JobID).Count(&existing).Error; err != nil {
			return models.JobApplication{}, err
		}
		if existing > 0 {
			return models.JobApplication{}, crud.Invalidf("job %d already has an application", in.JobID)
		}
		return models.JobApplication{
			Date:          in.Date,
			URL:           in.URL,
			Status:        in.Status,
			Note:          in.Note,
			AppliedVia:    in.AppliedVia,
			JobID:         in.JobID,
			AggregatorID:  in.AggregatorID,
			CVID:          in.CVID,
			CoverLetterID: in.CoverLetterID,
		}, nil
	},
	Patch: func(tx *gorm.DB, owner uint64, m *models.JobApplication, in applicationPatch) error {
		if err := checkApplicationRefs(tx, owner, in.AggregatorID.Value, in.CVID.Value, in.CoverLetterID.Value); err != nil {
			return err
		}

		// status changes are also recorded as updates
		if in.Status != nil && *in.Status != m.Status {
			u := models.JobApplicationUpdate{
				Date:             time.Now().UTC(),
				Type:             *in.Status,
				JobApplicationID: m.ID,
			}
			u.OwnerID = owner
			if err := tx.Create(&u).Error; err != nil {
				return err
			}
		}

		crud.Set(&m.Date, in.Date)
		crud.Set(&m.URL, in.URL)
		crud.Set(&m.Status, in.Status)
		crud.Set(&m.Note, in.Note)
		crud.Set(&m.AppliedVia, in.AppliedVia)
		in.AggregatorID.Apply(&m.AggregatorID)
		in.CVID.Apply(&m.CVID)
		in.CoverLetterID.Apply(&m.CoverLetterID)
		return nil
	},
	Out: crud.Identity[models.JobApplication],
}

type updateIn struct {
	Date             time.Time `json:"date" validate:"required"`
	Type             string    `json:"type" validate:"required,max=64"`
	Note             string    `json:"note"`
	JobApplicationID uint64    `json:"job_application_id" validate:"required"`
}

type updatePatch struct {
	Date *time.Time `json:"date"`
	Type *string    `json:"type" validate:"omitempty,min=1,max=64"`
	Note *string    `json:"note"`
}

var JobApplicationUpdates = crud.Resource[models.JobApplicationUpdate, updateIn, updatePatch, *models.JobApplicationUpdate]{
	Segment:  "job_application_updates",
	NotFound: "Job application update not found",
	New: func(tx *gorm.DB, owner uint64, in updateIn) (models.JobApplicationUpdate, error) {
		appID := in.JobApplicationID
		if err := crud.RequireOwned(tx, owner, &models.JobApplication{}, &appID, "job_application_id"); err != nil {
			return models.JobApplicationUpdate{}, err
		}
		return models.JobApplicationUpdate{Date: in.Date, Type: in.Type, Note: in.Note, JobApplicationID: in.JobApplicationID}, nil
	},
	Patch: func(_ *gorm.DB, _ uint64, m *models.JobApplicationUpdate, in updatePatch) error {
		crud.Set(&m.Date, in.Date)
		crud.Set(&m.Type, in.Type)
		crud.Set(&m.Note, in.Note)
		return nil
	},
	Out: crud.Identity[models.JobApplicationUpdate],
}

type interviewIn struct {
	Date             time.Time `json:"date" validate:"required"`
	Type             string    `json:"type" validate:"max=64"`
	AttendanceType   string    `json:"attendance_type" validate:"omitempty,oneof=on-site remote"`
	Note             string    `json:"note"`
	LocationID       *uint64   `json:"location_id"`
	JobApplicationID uint64    `json:"job_application_id" validate:"required"`
	InterviewerIDs   []uint64  `json:"interviewer_ids"`
}

type interviewPatch struct {
	Date           *time.Time            `json:"date"`
	Type           *string               `json:"type" validate:"omitempty,max=64"`
	AttendanceType *string               `json:"attendance_type" validate:"omitempty,oneof=on-site remote"`
	Note           *string               `json:"note"`
	LocationID     crud.Nullable[uint64] `json:"location_id"`
	InterviewerIDs *[]uint64             `json:"interviewer_ids"`
}

var Interviews = crud.Resource[models.Interview, interviewIn, interviewPatch, *models.Interview]{
	Segment:  "interviews",
	NotFound: "Interview not found",
	Preload:  []string{"Location", "Interviewers"},
	New: func(tx *gorm.DB, owner uint64, in interviewIn) (models.Interview, error) {
		appID := in.JobApplicationID
		if err := crud.RequireOwned(tx, owner, &models.JobApplication{}, &appID, "job_application_id"); err != nil {
			return models.Interview{}, err
		}
		if err := crud.RequireOwned(tx, owner, &models.Location{}, in.LocationID, "location_id"); err != nil {
			return models.Interview{}, err
		}
		people, err := crud.LoadOwned[models.Person](tx, owner, in.InterviewerIDs, "interviewer_ids")
		if err != nil {
			return models.Interview{}, err
		}
		return models.Interview{
			Date:             in.Date,
			Type:             in.Type,
			AttendanceType:   in.AttendanceType,
			Note:             in.Note,
			LocationID:       in.LocationID,
			JobApplicationID: in.JobApplicationID,
			Interviewers:     people,
		}, nil
	},
	Patch: func(tx *gorm.DB, owner uint64, m *models.Interview, in interviewPatch) error {
		if err := crud.RequireOwned(tx, owner, &models.Location{}, in.LocationID.Value, "location_id"); err != nil {
			return err
		}
		crud.Set(&m.Date, in.Date)
		crud.Set(&m.Type, in.Type)
		crud.Set(&m.AttendanceType, in.AttendanceType)
		crud.Set(&m.Note, in.Note)
		in.LocationID.Apply(&m.LocationID)

		if in.InterviewerIDs != nil {
			people, err := crud.LoadOwned[models.Person](tx, owner, *in.InterviewerIDs, "interviewer_ids")
			if err != nil {
				return err
			}
			return tx.Model(m).Association("Interviewers").Replace(people)
		}
		return nil
	},
	Out: crud.Identity[models.Interview],
}
