package models

import "time"

type Company struct {
	Base
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	URL         string `json:"url"`
}

type Location struct {
	Base
	Postcode string `json:"postcode"`
	City     string `json:"city"`
	Country  string `json:"country"`
	Remote   bool   `gorm:"not null;default:false" json:"remote"`
}

// Label renders a location the way exports and the feed show it.
func (l *Location) Label() string {
	if l == nil {
		return ""
	}
	if l.Remote && l.City == "" && l.Country == "" {
		return "Remote"
	}
	out := l.City
	if l.Country != "" {
		if out != "" {
			out += ", "
		}
		out += l.Country
	}
	if l.Remote {
		out += " (remote)"
	}
	return out
}

type Aggregator struct {
	Base
	Name string `gorm:"not null" json:"name"`
	URL  string `json:"url"`
}

type Keyword struct {
	Base
	Name string `gorm:"not null" json:"name"`
}

type Person struct {
	Base
	Name        string   `gorm:"not null" json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	LinkedinURL string   `json:"linkedin_url"`
	Role        string   `json:"role"`
	CompanyID   *uint64  `gorm:"index" json:"company_id"`
	Company     *Company `gorm:"constraint:OnDelete:SET NULL" json:"company,omitempty"`
}

// File stores uploaded documents inline. Content is served by the download route only.
type File struct {
	Base
	Filename string `gorm:"not null" json:"filename"`
	MimeType string `gorm:"not null" json:"mime_type"`
	Content  []byte `json:"-"`
	Size     int64  `gorm:"not null;default:0" json:"size"`
}

type Job struct {
	Base
	Title          string     `gorm:"not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	SalaryMin      *float64   `json:"salary_min"`
	SalaryMax      *float64   `json:"salary_max"`
	PersonalRating *int       `json:"personal_rating"`
	URL            string     `json:"url"`
	Deadline       *time.Time `json:"deadline"`
	Note           string     `gorm:"type:text" json:"note"`
	AttendanceType string     `json:"attendance_type"`

	CompanyID   *uint64     `gorm:"index" json:"company_id"`
	Company     *Company    `gorm:"constraint:OnDelete:SET NULL" json:"company,omitempty"`
	LocationID  *uint64     `gorm:"index" json:"location_id"`
	Location    *Location   `gorm:"constraint:OnDelete:SET NULL" json:"location,omitempty"`
	SourceID    *uint64     `gorm:"index" json:"source_id"`
	Source      *Aggregator `gorm:"foreignKey:SourceID;constraint:OnDelete:SET NULL" json:"source,omitempty"`
	DuplicateID *uint64     `gorm:"index" json:"duplicate_id"`

	Keywords []Keyword `gorm:"many2many:job_keywords;constraint:OnDelete:CASCADE" json:"keywords"`
	Contacts []Person  `gorm:"many2many:job_contacts;constraint:OnDelete:CASCADE" json:"contacts"`

	Application *JobApplication `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"application,omitempty"`
}

type JobApplication struct {
	Base
	Date       time.Time `gorm:"not null" json:"date"`
	URL        string    `json:"url"`
	Status     string    `gorm:"index;not null" json:"status"`
	Note       string    `gorm:"type:text" json:"note"`
	AppliedVia string    `json:"applied_via"`

	JobID         uint64      `gorm:"uniqueIndex;not null" json:"job_id"`
	AggregatorID  *uint64     `gorm:"index" json:"aggregator_id"`
	Aggregator    *Aggregator `gorm:"constraint:OnDelete:SET NULL" json:"aggregator,omitempty"`
	CVID          *uint64     `gorm:"column:cv_id" json:"cv_id"`
	CV            *File       `gorm:"foreignKey:CVID;constraint:OnDelete:SET NULL" json:"-"`
	CoverLetterID *uint64     `json:"cover_letter_id"`
	CoverLetter   *File       `gorm:"foreignKey:CoverLetterID;constraint:OnDelete:SET NULL" json:"-"`

	Updates    []JobApplicationUpdate `gorm:"constraint:OnDelete:CASCADE" json:"updates,omitempty"`
	Interviews []Interview            `gorm:"constraint:OnDelete:CASCADE" json:"interviews,omitempty"`
}

// JobApplicationUpdate is one status change or follow-up on an application.
type JobApplicationUpdate struct {
	Base
	Date             time.Time `gorm:"not null" json:"date"`
	Type             string    `gorm:"not null" json:"type"`
	Note             string    `gorm:"type:text" json:"note"`
	JobApplicationID uint64    `gorm:"index;not null" json:"job_application_id"`
}

type Interview struct {
	Base
	Date             time.Time `gorm:"not null" json:"date"`
	Type             string    `json:"type"`
	AttendanceType   string    `json:"attendance_type"`
	Note             string    `gorm:"type:text" json:"note"`
	LocationID       *uint64   `gorm:"index" json:"location_id"`
	Location         *Location `gorm:"constraint:OnDelete:SET NULL" json:"location,omitempty"`
	JobApplicationID uint64    `gorm:"index;not null" json:"job_application_id"`
	Interviewers     []Person  `gorm:"many2many:interview_interviewers;constraint:OnDelete:CASCADE" json:"interviewers"`
}
