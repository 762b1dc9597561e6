package models

import "time"

// RawJobListing is what a job-source adapter hands to the scanner.
type RawJobListing struct {
	ExternalID  string     `json:"externalId"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	SalaryMin   *int       `json:"salaryMin,omitempty"`
	SalaryMax   *int       `json:"salaryMax,omitempty"`
	Description string     `json:"description,omitempty"`
	TechStack   []string   `json:"techStack,omitempty"`
	URL         string     `json:"url"`
	PostedAt    *time.Time `json:"postedAt,omitempty"`
}

// InboundEmail is a single received message handed to the email engine.
type InboundEmail struct {
	From       string    `json:"from" binding:"required"`
	Subject    string    `json:"subject" binding:"required"`
	Body       string    `json:"body"`
	ThreadID   string    `json:"threadId,omitempty"`
	MessageID  string    `json:"messageId,omitempty"`
	ReceivedAt time.Time `json:"receivedAt,omitempty"`
}
