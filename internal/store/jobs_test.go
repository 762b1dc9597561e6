package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/jobhunt-tracker/internal/models"
)

func TestCreateJobDefaults(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	job, err := s.CreateJob(ctx, NewJob{
		ExternalID: "lnk-1",
		Source:     "linkedin",
		Company:    "Acme Corp",
		Title:      "Backend Engineer",
		TechStack:  []string{"go", "postgres"},
		URL:        "https://jobs.example.com/1",
		Metadata:   map[string]any{"remote": true},
	})
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)
	require.Equal(t, models.JobNew, job.Status)
	require.False(t, job.DiscoveredAt.IsZero())

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, models.JobNew, got.Status)

	var stack []string
	require.NoError(t, json.Unmarshal(got.TechStack, &stack))
	require.Equal(t, []string{"go", "postgres"}, stack)
}

func TestCreateJobValidation(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.CreateJob(context.Background(), NewJob{Source: "linkedin", Title: "no company"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	lo, hi := 200, 100
	_, err = s.CreateJob(context.Background(), NewJob{Source: "x", Company: "c", Title: "t", SalaryMin: &lo, SalaryMax: &hi})
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "SalaryMin", verr.Field)
}

func TestGetJobNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	job, err := s.GetJob(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, job)

	job, err = s.GetJobByExternalID(ctx, "linkedin", "missing")
	require.NoError(t, err)
	require.Nil(t, job)
}

func TestGetJobByExternalID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateJob(ctx, NewJob{ExternalID: "42", Source: "indeed", Company: "Globex", Title: "SRE"})
	require.NoError(t, err)

	got, err := s.GetJobByExternalID(ctx, "indeed", "42")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, created.ID, got.ID)

	// Same external id from another source is a different posting.
	got, err = s.GetJobByExternalID(ctx, "linkedin", "42")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestCreateJobDuplicateNaturalKey(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateJob(ctx, NewJob{ExternalID: "42", Source: "indeed", Company: "Globex", Title: "SRE"})
	require.NoError(t, err)
	_, err = s.CreateJob(ctx, NewJob{ExternalID: "42", Source: "indeed", Company: "Globex", Title: "SRE"})
	var serr *StorageError
	require.True(t, errors.As(err, &serr))

	// Jobs without an external id never collide.
	_, err = s.CreateJob(ctx, NewJob{Source: "manual", Company: "Initech", Title: "Dev"})
	require.NoError(t, err)
	_, err = s.CreateJob(ctx, NewJob{Source: "manual", Company: "Initech", Title: "Dev"})
	require.NoError(t, err)
}

func TestListJobsFiltersAndOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateJob(ctx, NewJob{Source: "linkedin", Company: "Acme Corp", Title: "A"})
	require.NoError(t, err)
	second, err := s.CreateJob(ctx, NewJob{Source: "indeed", Company: "Globex", Title: "B"})
	require.NoError(t, err)
	third, err := s.CreateJob(ctx, NewJob{Source: "linkedin", Company: "Acme Labs", Title: "C"})
	require.NoError(t, err)
	require.NoError(t, s.UpdateJobStatus(ctx, second.ID, models.JobReviewing))

	all, err := s.ListJobs(ctx, JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	linkedin, err := s.ListJobs(ctx, JobFilter{Source: "linkedin"})
	require.NoError(t, err)
	require.Len(t, linkedin, 2)

	acme, err := s.ListJobs(ctx, JobFilter{Company: "acme"})
	require.NoError(t, err)
	require.Len(t, acme, 2)

	reviewing, err := s.ListJobs(ctx, JobFilter{Status: models.JobReviewing})
	require.NoError(t, err)
	require.Len(t, reviewing, 1)
	require.Equal(t, second.ID, reviewing[0].ID)

	paged, err := s.ListJobs(ctx, JobFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, second.ID, paged[0].ID)
}

func TestUpdateJobStatus(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	job, err := s.CreateJob(ctx, NewJob{Source: "manual", Company: "Acme", Title: "Dev"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobArchived))
	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, models.JobArchived, got.Status)

	require.NoError(t, s.UpdateJobStatus(ctx, "unknown", models.JobArchived))

	var verr *ValidationError
	require.True(t, errors.As(s.UpdateJobStatus(ctx, job.ID, "bogus"), &verr))
}
