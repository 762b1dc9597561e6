package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/justsurfingit/jobhunt-tracker/internal/models"
)

type NewApplication struct {
	JobID       string `validate:"required"`
	ResumeID    string
	CoverLetter string
	Answers     []models.Answer `validate:"dive"`
	Notes       string
}

type ApplicationFilter struct {
	Status   models.ApplicationStatus
	Statuses []models.ApplicationStatus
	JobID    string
	Limit    int
	Offset   int
}

// CreateApplication stores a pending application and its first history record.
// Callers check GetApplicationByJobID first; the store does not enforce one per job.
func (s *Store) CreateApplication(ctx context.Context, in NewApplication) (*models.Application, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}

	now := s.Now()
	app := &models.Application{
		JobID:          in.JobID,
		Status:         models.AppPending,
		CoverLetter:    optional(in.CoverLetter),
		Notes:          optional(in.Notes),
		ResumeID:       optional(in.ResumeID),
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if len(in.Answers) > 0 {
		answers, err := blob(in.Answers)
		if err != nil {
			return nil, &ValidationError{Field: "Answers", Err: err}
		}
		app.Answers = answers
	}

	err := s.write(ctx, "create application", func(tx *gorm.DB) error {
		if err := tx.Create(app).Error; err != nil {
			return err
		}
		return tx.Create(&models.ApplicationHistory{
			ApplicationID: app.ID,
			Sequence:      1,
			NewStatus:     models.AppPending,
			ChangedAt:     now,
			Notes:         optional("Application created"),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// GetApplication returns nil when no application has that id.
func (s *Store) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	var app models.Application
	ok, err := first(s.read(ctx).Preload("Job").Where("id = ?", id), &app)
	if err != nil {
		return nil, &StorageError{Op: "get application", Err: err}
	}
	if !ok {
		return nil, nil
	}
	return &app, nil
}

func (s *Store) GetApplicationByJobID(ctx context.Context, jobID string) (*models.Application, error) {
	var app models.Application
	ok, err := first(s.read(ctx).Where("job_id = ?", jobID).Order("created_at asc"), &app)
	if err != nil {
		return nil, &StorageError{Op: "get application by job", Err: err}
	}
	if !ok {
		return nil, nil
	}
	return &app, nil
}

// ListApplications orders by creation time, newest first, with the Job preloaded.
func (s *Store) ListApplications(ctx context.Context, f ApplicationFilter) ([]models.Application, error) {
	q := s.read(ctx).Model(&models.Application{}).Preload("Job")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.JobID != "" {
		q = q.Where("job_id = ?", f.JobID)
	}

	var apps []models.Application
	if err := page(q.Order("created_at desc").Order("id"), f.Limit, f.Offset).Find(&apps).Error; err != nil {
		return nil, &StorageError{Op: "list applications", Err: err}
	}
	return apps, nil
}

// UpdateApplicationStatus moves an application to status and appends one history
// record. applied_at is stamped only on the first move into submitted. Unknown
// ids and unchanged statuses are no-ops.
func (s *Store) UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus, notes string) error {
	if !status.Valid() {
		return invalid("status", "unknown application status "+string(status))
	}

	return s.write(ctx, "update application status", func(tx *gorm.DB) error {
		var app models.Application
		ok, err := first(tx.Where("id = ?", id), &app)
		if err != nil || !ok || app.Status == status {
			return err
		}
		return s.setStatus(tx, &app, status, notes)
	})
}

// Transition is the outcome of TransitionApplication.
type Transition struct {
	From    models.ApplicationStatus
	To      models.ApplicationStatus
	Changed bool
}

// TransitionApplication reads the current status under the write lock and asks
// decide for the next one, so no other writer can interleave between the read
// and the update. When decide declines, only last_activity_at is refreshed.
// It returns nil for an unknown id.
func (s *Store) TransitionApplication(ctx context.Context, id, notes string, decide func(current models.ApplicationStatus) (models.ApplicationStatus, bool)) (*Transition, error) {
	var tr *Transition
	err := s.write(ctx, "transition application", func(tx *gorm.DB) error {
		var app models.Application
		ok, err := first(tx.Where("id = ?", id), &app)
		if err != nil || !ok {
			return err
		}

		tr = &Transition{From: app.Status, To: app.Status}
		next, ok := decide(app.Status)
		if !ok || next == app.Status {
			return tx.Model(&models.Application{}).Where("id = ?", id).Update("last_activity_at", s.Now()).Error
		}
		if !next.Valid() {
			return invalid("status", "unknown application status "+string(next))
		}
		tr.To, tr.Changed = next, true
		return s.setStatus(tx, &app, next, notes)
	})
	if err != nil {
		return nil, err
	}
	return tr, nil
}

func (s *Store) setStatus(tx *gorm.DB, app *models.Application, status models.ApplicationStatus, notes string) error {
	now := s.Now()
	updates := map[string]any{
		"status":           status,
		"last_activity_at": now,
		"updated_at":       now,
	}
	if status == models.AppSubmitted {
		updates["applied_at"] = gorm.Expr("COALESCE(applied_at, ?)", now)
	}
	if err := tx.Model(&models.Application{}).Where("id = ?", app.ID).Updates(updates).Error; err != nil {
		return err
	}

	seq, err := nextSequence(tx, app.ID)
	if err != nil {
		return err
	}
	old := app.Status
	return tx.Create(&models.ApplicationHistory{
		ApplicationID: app.ID,
		Sequence:      seq,
		OldStatus:     &old,
		NewStatus:     status,
		ChangedAt:     now,
		Notes:         optional(notes),
	}).Error
}

func nextSequence(tx *gorm.DB, applicationID string) (int, error) {
	var last int
	err := tx.Model(&models.ApplicationHistory{}).
		Where("application_id = ?", applicationID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&last).Error
	return last + 1, err
}

// TouchApplication refreshes last_activity_at without changing status.
func (s *Store) TouchApplication(ctx context.Context, id string) error {
	return s.write(ctx, "touch application", func(tx *gorm.DB) error {
		return tx.Model(&models.Application{}).Where("id = ?", id).Update("last_activity_at", s.Now()).Error
	})
}

// ApplicationHistory lists transitions in write order.
func (s *Store) ApplicationHistory(ctx context.Context, applicationID string) ([]models.ApplicationHistory, error) {
	var rows []models.ApplicationHistory
	err := s.read(ctx).
		Where("application_id = ?", applicationID).
		Order("sequence asc").
		Find(&rows).Error
	if err != nil {
		return nil, &StorageError{Op: "list application history", Err: err}
	}
	return rows, nil
}
