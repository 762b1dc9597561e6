package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JobStatus string

const (
	JobNew       JobStatus = "new"
	JobReviewing JobStatus = "reviewing"
	JobApproved  JobStatus = "approved"
	JobRejected  JobStatus = "rejected"
	JobApplied   JobStatus = "applied"
	JobArchived  JobStatus = "archived"
)

var JobStatuses = []JobStatus{JobNew, JobReviewing, JobApproved, JobRejected, JobApplied, JobArchived}

func (s JobStatus) Valid() bool {
	for _, v := range JobStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type ApplicationStatus string

const (
	AppPending   ApplicationStatus = "pending"
	AppSubmitted ApplicationStatus = "submitted"
	AppViewed    ApplicationStatus = "viewed"
	AppRejected  ApplicationStatus = "rejected"
	AppInterview ApplicationStatus = "interview"
	AppOffer     ApplicationStatus = "offer"
	AppWithdrawn ApplicationStatus = "withdrawn"
	AppClosed    ApplicationStatus = "closed"
)

var ApplicationStatuses = []ApplicationStatus{
	AppPending, AppSubmitted, AppViewed, AppRejected,
	AppInterview, AppOffer, AppWithdrawn, AppClosed,
}

func (s ApplicationStatus) Valid() bool {
	for _, v := range ApplicationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type ThreadStatus string

const (
	ThreadActive           ThreadStatus = "active"
	ThreadAwaitingResponse ThreadStatus = "awaiting_response"
	ThreadResponded        ThreadStatus = "responded"
	ThreadClosed           ThreadStatus = "closed"
)

type Job struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	// external_id is nullable so the composite unique index only binds when it is present.
	ExternalID *string `gorm:"uniqueIndex:idx_jobs_source_external;index" json:"external_id,omitempty"`
	Source     string  `gorm:"uniqueIndex:idx_jobs_source_external;index;not null" json:"source"`

	Company      string         `gorm:"index;not null" json:"company"`
	Title        string         `gorm:"not null" json:"title"`
	Location     *string        `json:"location,omitempty"`
	SalaryMin    *int           `json:"salary_min,omitempty"`
	SalaryMax    *int           `json:"salary_max,omitempty"`
	Description  *string        `gorm:"type:text" json:"description,omitempty"`
	Requirements datatypes.JSON `json:"requirements,omitempty"`
	TechStack    datatypes.JSON `json:"tech_stack,omitempty"`
	URL          string         `json:"url"`
	PostedAt     *time.Time     `json:"posted_at,omitempty"`
	DiscoveredAt time.Time      `gorm:"index;not null" json:"discovered_at"`
	Status       JobStatus      `gorm:"index;not null;default:'new'" json:"status"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type Application struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	JobID string `gorm:"index;not null;type:varchar(36)" json:"job_id"`
	// Association: loaded with Preload("Job")
	Job *Job `gorm:"foreignKey:JobID" json:"job,omitempty"`

	Status         ApplicationStatus `gorm:"index;not null;default:'pending'" json:"status"`
	AppliedAt      *time.Time        `gorm:"index" json:"applied_at,omitempty"`
	ResumeID       *string           `gorm:"type:varchar(36)" json:"resume_id,omitempty"`
	CoverLetter    *string           `gorm:"type:text" json:"cover_letter,omitempty"`
	Answers        datatypes.JSON    `json:"answers,omitempty"`
	Notes          *string           `gorm:"type:text" json:"notes,omitempty"`
	LastActivityAt time.Time         `json:"last_activity_at"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Answer is one question/answer pair submitted with an application.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type ApplicationHistory struct {
	ID            string             `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ApplicationID string             `gorm:"index;uniqueIndex:idx_application_history_seq,priority:1;not null;type:varchar(36)" json:"application_id"`
	Sequence      int                `gorm:"uniqueIndex:idx_application_history_seq,priority:2;not null" json:"sequence"` // 1-based write order per application
	OldStatus     *ApplicationStatus `json:"old_status,omitempty"`
	NewStatus     ApplicationStatus  `gorm:"not null" json:"new_status"`
	ChangedAt     time.Time          `gorm:"not null" json:"changed_at"`
	Notes         *string            `gorm:"type:text" json:"notes,omitempty"`
}

func (ApplicationHistory) TableName() string { return "application_history" }

type EmailThread struct {
	ID               string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ApplicationID    string       `gorm:"index;not null;type:varchar(36)" json:"application_id"`
	ExternalThreadID *string      `gorm:"index" json:"external_thread_id,omitempty"`
	Subject          string       `json:"subject"`
	FromEmail        string       `json:"from_email"`
	LastMessageAt    time.Time    `json:"last_message_at"`
	Status           ThreadStatus `gorm:"not null;default:'active'" json:"status"`
	MessageCount     int          `gorm:"not null;default:0" json:"message_count"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

type Resume struct {
	ID         string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name       string         `gorm:"not null" json:"name"`
	FilePath   string         `gorm:"not null" json:"file_path"`
	FileType   string         `gorm:"not null" json:"file_type"`
	ParsedData datatypes.JSON `json:"parsed_data,omitempty"`
	IsDefault  bool           `gorm:"not null;default:false" json:"is_default"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// ParsedResume is the structured data extracted from a resume file.
type ParsedResume struct {
	Contact    ContactInfo `json:"contact"`
	Skills     []string    `json:"skills"`
	Experience []string    `json:"experience"`
	Education  []string    `json:"education"`
}

type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Preference is a scratch key/value row.
type Preference struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProcessedEmail struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
}

func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (j *Job) BeforeCreate(*gorm.DB) error                { newID(&j.ID); return nil }
func (a *Application) BeforeCreate(*gorm.DB) error        { newID(&a.ID); return nil }
func (h *ApplicationHistory) BeforeCreate(*gorm.DB) error { newID(&h.ID); return nil }
func (t *EmailThread) BeforeCreate(*gorm.DB) error        { newID(&t.ID); return nil }
func (r *Resume) BeforeCreate(*gorm.DB) error             { newID(&r.ID); return nil }
