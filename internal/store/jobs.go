package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/justsurfingit/jobhunt-tracker/internal/models"
)

type NewJob struct {
	ExternalID   string `validate:"omitempty,max=255"`
	Source       string `validate:"required,max=64"`
	Company      string `validate:"required"`
	Title        string `validate:"required"`
	Location     string
	SalaryMin    *int `validate:"omitempty,gte=0"`
	SalaryMax    *int `validate:"omitempty,gte=0"`
	Description  string
	Requirements any
	TechStack    []string
	URL          string `validate:"omitempty,url"`
	PostedAt     *time.Time
	DiscoveredAt time.Time
	Metadata     map[string]any
}

type JobFilter struct {
	Status  models.JobStatus
	Source  string
	Company string
	Limit   int
	Offset  int
}

func (s *Store) CreateJob(ctx context.Context, in NewJob) (*models.Job, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	if in.SalaryMin != nil && in.SalaryMax != nil && *in.SalaryMin > *in.SalaryMax {
		return nil, invalid("SalaryMin", "greater than SalaryMax")
	}

	job := &models.Job{
		Source:      in.Source,
		Company:     in.Company,
		Title:       in.Title,
		Location:    optional(in.Location),
		SalaryMin:   in.SalaryMin,
		SalaryMax:   in.SalaryMax,
		Description: optional(in.Description),
		URL:         in.URL,
		PostedAt:    in.PostedAt,
		Status:      models.JobNew,
	}
	if in.ExternalID != "" {
		job.ExternalID = &in.ExternalID
	}
	job.DiscoveredAt = in.DiscoveredAt.UTC()
	if in.DiscoveredAt.IsZero() {
		job.DiscoveredAt = s.Now()
	}

	var err error
	if job.Requirements, err = blob(in.Requirements); err != nil {
		return nil, &ValidationError{Field: "Requirements", Err: err}
	}
	if len(in.TechStack) > 0 {
		if job.TechStack, err = blob(in.TechStack); err != nil {
			return nil, &ValidationError{Field: "TechStack", Err: err}
		}
	}
	if len(in.Metadata) > 0 {
		if job.Metadata, err = blob(in.Metadata); err != nil {
			return nil, &ValidationError{Field: "Metadata", Err: err}
		}
	}

	err = s.write(ctx, "create job", func(tx *gorm.DB) error {
		return tx.Create(job).Error
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob returns nil when no job has that id.
func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	ok, err := first(s.read(ctx).Where("id = ?", id), &job)
	if err != nil {
		return nil, &StorageError{Op: "get job", Err: err}
	}
	if !ok {
		return nil, nil
	}
	return &job, nil
}

// GetJobByExternalID looks a job up by its natural key. Used to dedupe scans.
func (s *Store) GetJobByExternalID(ctx context.Context, source, externalID string) (*models.Job, error) {
	if externalID == "" {
		return nil, nil
	}
	var job models.Job
	ok, err := first(s.read(ctx).Where("source = ? AND external_id = ?", source, externalID), &job)
	if err != nil {
		return nil, &StorageError{Op: "get job by external id", Err: err}
	}
	if !ok {
		return nil, nil
	}
	return &job, nil
}

// ListJobs orders by discovery time, newest first. Empty filter fields are ignored.
func (s *Store) ListJobs(ctx context.Context, f JobFilter) ([]models.Job, error) {
	q := s.read(ctx).Model(&models.Job{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Source != "" {
		q = q.Where("source = ?", f.Source)
	}
	if c := strings.TrimSpace(f.Company); c != "" {
		q = q.Where("LOWER(company) LIKE ?", "%"+strings.ToLower(c)+"%")
	}

	var jobs []models.Job
	if err := page(q.Order("discovered_at desc"), f.Limit, f.Offset).Find(&jobs).Error; err != nil {
		return nil, &StorageError{Op: "list jobs", Err: err}
	}
	return jobs, nil
}

// UpdateJobStatus is a no-op for unknown ids.
func (s *Store) UpdateJobStatus(ctx context.Context, id string, status models.JobStatus) error {
	if !status.Valid() {
		return invalid("status", "unknown job status "+string(status))
	}
	return s.write(ctx, "update job status", func(tx *gorm.DB) error {
		return tx.Model(&models.Job{}).Where("id = ?", id).Updates(map[string]any{
			"status":     status,
			"updated_at": s.Now(),
		}).Error
	})
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// blob serializes a structured value without interpreting it.
func blob(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
