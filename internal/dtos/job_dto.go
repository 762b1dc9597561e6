package dtos

import "time"

type JobExtractionRequest struct {
	RawHTML string `json:"raw_html" binding:"required"`
	URL     string `json:"url"`
}

type JobCreationRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	Title       string `json:"role_title" binding:"required"`
	JobLink     string `json:"job_link"`
	Description string `json:"description"`

	// Optional Fields
	ExternalID string         `json:"external_id"`
	Source     string         `json:"source"` // Defaults to "manual" if empty
	Location   string         `json:"location"`
	SalaryMin  *int           `json:"salary_min"`
	SalaryMax  *int           `json:"salary_max"`
	TechStack  []string       `json:"tech_stack"`
	PostedAt   *time.Time     `json:"posted_at"`
	Metadata   map[string]any `json:"metadata"`
}

type JobStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ApproveJobRequest struct {
	ResumeID    string          `json:"resume_id"`
	CoverLetter string          `json:"cover_letter"`
	Answers     []AnswerPayload `json:"answers"`
	Notes       string          `json:"notes"`
}

type AnswerPayload struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer"`
}
