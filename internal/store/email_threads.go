package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/justsurfingit/jobhunt-tracker/internal/models"
)

type NewEmailThread struct {
	ApplicationID    string `validate:"required"`
	ExternalThreadID string
	Subject          string
	FromEmail        string `validate:"required"`
	LastMessageAt    time.Time
}

// CreateEmailThread opens a thread with its first message counted.
func (s *Store) CreateEmailThread(ctx context.Context, in NewEmailThread) (*models.EmailThread, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	thread := &models.EmailThread{
		ApplicationID:    in.ApplicationID,
		ExternalThreadID: optional(in.ExternalThreadID),
		Subject:          in.Subject,
		FromEmail:        in.FromEmail,
		LastMessageAt:    in.LastMessageAt.UTC(),
		Status:           models.ThreadActive,
		MessageCount:     1,
	}
	if in.LastMessageAt.IsZero() {
		thread.LastMessageAt = s.Now()
	}
	thread.CreatedAt = s.Now()
	thread.UpdatedAt = thread.CreatedAt

	err := s.write(ctx, "create email thread", func(tx *gorm.DB) error {
		return tx.Create(thread).Error
	})
	if err != nil {
		return nil, err
	}
	return thread, nil
}

// GetEmailThreadByExternalID returns nil when the provider thread is unknown.
func (s *Store) GetEmailThreadByExternalID(ctx context.Context, externalThreadID string) (*models.EmailThread, error) {
	if externalThreadID == "" {
		return nil, nil
	}
	var thread models.EmailThread
	ok, err := first(s.read(ctx).Where("external_thread_id = ?", externalThreadID), &thread)
	if err != nil {
		return nil, &StorageError{Op: "get email thread", Err: err}
	}
	if !ok {
		return nil, nil
	}
	return &thread, nil
}

// RecordThreadMessage counts one more message on an existing thread.
func (s *Store) RecordThreadMessage(ctx context.Context, id string, status models.ThreadStatus, at time.Time) error {
	if at.IsZero() {
		at = s.Now()
	}
	return s.write(ctx, "record thread message", func(tx *gorm.DB) error {
		return tx.Model(&models.EmailThread{}).Where("id = ?", id).Updates(map[string]any{
			"message_count":   gorm.Expr("message_count + 1"),
			"last_message_at": at.UTC(),
			"status":          status,
			"updated_at":      s.Now(),
		}).Error
	})
}

func (s *Store) ListEmailThreads(ctx context.Context, applicationID string) ([]models.EmailThread, error) {
	var threads []models.EmailThread
	err := s.read(ctx).
		Where("application_id = ?", applicationID).
		Order("last_message_at desc").
		Find(&threads).Error
	if err != nil {
		return nil, &StorageError{Op: "list email threads", Err: err}
	}
	return threads, nil
}

// MarkEmailProcessed records a provider message id. It reports false when the
// id was already recorded.
func (s *Store) MarkEmailProcessed(ctx context.Context, messageID string) (bool, error) {
	inserted := false
	err := s.write(ctx, "mark email processed", func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ProcessedEmail{}).Where("id = ?", messageID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		inserted = true
		return tx.Create(&models.ProcessedEmail{ID: messageID, CreatedAt: s.Now()}).Error
	})
	return inserted, err
}

func (s *Store) IsEmailProcessed(ctx context.Context, messageID string) (bool, error) {
	var count int64
	if err := s.read(ctx).Model(&models.ProcessedEmail{}).Where("id = ?", messageID).Count(&count).Error; err != nil {
		return false, &StorageError{Op: "check processed email", Err: err}
	}
	return count > 0, nil
}
