package services

import (
	"context"
	"errors"

	"github.com/justsurfingit/jobhunt-tracker/internal/dtos"
	"github.com/justsurfingit/jobhunt-tracker/internal/models"
	"github.com/justsurfingit/jobhunt-tracker/internal/store"
)

var ErrNotFound = errors.New("not found")

const ManualSource = "manual"

type JobService struct {
	Store *store.Store
}

func NewJobService(st *store.Store) *JobService {
	return &JobService{Store: st}
}

// CreateJob stores a manually entered job. A repeated (source, external_id)
// returns the existing job and created=false.
func (s *JobService) CreateJob(ctx context.Context, req *dtos.JobCreationRequest) (job *models.Job, created bool, err error) {
	source := req.Source
	if source == "" {
		source = ManualSource
	}
	existing, err := s.Store.GetJobByExternalID(ctx, source, req.ExternalID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	job, err = s.Store.CreateJob(ctx, store.NewJob{
		ExternalID:  req.ExternalID,
		Source:      source,
		Company:     req.CompanyName,
		Title:       req.Title,
		Location:    req.Location,
		SalaryMin:   req.SalaryMin,
		SalaryMax:   req.SalaryMax,
		Description: req.Description,
		TechStack:   req.TechStack,
		URL:         req.JobLink,
		PostedAt:    req.PostedAt,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, false, err
	}
	return job, true, nil
}

// ApproveJob marks a job approved and opens its application. A job that already
// has an application keeps it; created reports whether a new one was made.
func (s *JobService) ApproveJob(ctx context.Context, jobID string, req dtos.ApproveJobRequest) (app *models.Application, created bool, err error) {
	job, err := s.Store.GetJob(ctx, jobID)
	if err != nil {
		return nil, false, err
	}
	if job == nil {
		return nil, false, ErrNotFound
	}

	existing, err := s.Store.GetApplicationByJobID(ctx, jobID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	resumeID := req.ResumeID
	if resumeID == "" {
		def, err := s.Store.GetDefaultResume(ctx)
		if err != nil {
			return nil, false, err
		}
		if def != nil {
			resumeID = def.ID
		}
	}

	answers := make([]models.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, models.Answer{Question: a.Question, Answer: a.Answer})
	}

	if job.Status == models.JobNew || job.Status == models.JobReviewing {
		if err := s.Store.UpdateJobStatus(ctx, jobID, models.JobApproved); err != nil {
			return nil, false, err
		}
	}
	app, err = s.Store.CreateApplication(ctx, store.NewApplication{
		JobID:       jobID,
		ResumeID:    resumeID,
		CoverLetter: req.CoverLetter,
		Answers:     answers,
		Notes:       req.Notes,
	})
	if err != nil {
		return nil, false, err
	}
	return app, true, nil
}

// SubmitApplication records that the application was sent and marks the job applied.
func (s *JobService) SubmitApplication(ctx context.Context, applicationID, notes string) (*models.Application, error) {
	app, err := s.Store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrNotFound
	}
	if err := s.Store.UpdateApplicationStatus(ctx, applicationID, models.AppSubmitted, notes); err != nil {
		return nil, err
	}
	if err := s.Store.UpdateJobStatus(ctx, app.JobID, models.JobApplied); err != nil {
		return nil, err
	}
	return s.Store.GetApplication(ctx, applicationID)
}
