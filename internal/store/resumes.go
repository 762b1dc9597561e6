package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/justsurfingit/jobhunt-tracker/internal/models"
)

type NewResume struct {
	Name       string `validate:"required"`
	FilePath   string `validate:"required"`
	FileType   string `validate:"required,oneof=pdf docx txt"`
	ParsedData *models.ParsedResume
	IsDefault  bool
}

func (s *Store) CreateResume(ctx context.Context, in NewResume) (*models.Resume, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	path, err := s.resumePath(in.FilePath)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	resume := &models.Resume{
		Name:      in.Name,
		FilePath:  path,
		FileType:  in.FileType,
		IsDefault: in.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.ParsedData != nil {
		data, err := blob(in.ParsedData)
		if err != nil {
			return nil, &ValidationError{Field: "ParsedData", Err: err}
		}
		resume.ParsedData = data
	}

	err = s.write(ctx, "create resume", func(tx *gorm.DB) error {
		if in.IsDefault {
			if err := clearDefaults(tx); err != nil {
				return err
			}
		}
		return tx.Create(resume).Error
	})
	if err != nil {
		return nil, err
	}
	return resume, nil
}

func (s *Store) GetResume(ctx context.Context, id string) (*models.Resume, error) {
	var resume models.Resume
	ok, err := first(s.read(ctx).Where("id = ?", id), &resume)
	if err != nil {
		return nil, &StorageError{Op: "get resume", Err: err}
	}
	if !ok {
		return nil, nil
	}
	return &resume, nil
}

// GetDefaultResume returns nil when no resume is marked default.
func (s *Store) GetDefaultResume(ctx context.Context) (*models.Resume, error) {
	var resume models.Resume
	ok, err := first(s.read(ctx).Where("is_default = ?", true), &resume)
	if err != nil {
		return nil, &StorageError{Op: "get default resume", Err: err}
	}
	if !ok {
		return nil, nil
	}
	return &resume, nil
}

func (s *Store) ListResumes(ctx context.Context, limit, offset int) ([]models.Resume, error) {
	var resumes []models.Resume
	if err := page(s.read(ctx).Order("created_at desc"), limit, offset).Find(&resumes).Error; err != nil {
		return nil, &StorageError{Op: "list resumes", Err: err}
	}
	return resumes, nil
}

// SetDefaultResume clears every default and marks id, in one transaction. It
// reports false when id does not exist, in which case nothing changes.
func (s *Store) SetDefaultResume(ctx context.Context, id string) (bool, error) {
	found := false
	err := s.write(ctx, "set default resume", func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Resume{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		found = true
		if err := clearDefaults(tx); err != nil {
			return err
		}
		return tx.Model(&models.Resume{}).Where("id = ?", id).Updates(map[string]any{
			"is_default": true,
			"updated_at": s.Now(),
		}).Error
	})
	return found, err
}

// UpdateResumeParsedData replaces the opaque parsed data blob.
func (s *Store) UpdateResumeParsedData(ctx context.Context, id string, data models.ParsedResume) error {
	b, err := blob(data)
	if err != nil {
		return &ValidationError{Field: "ParsedData", Err: err}
	}
	return s.write(ctx, "update resume parsed data", func(tx *gorm.DB) error {
		return tx.Model(&models.Resume{}).Where("id = ?", id).Updates(map[string]any{
			"parsed_data": b,
			"updated_at":  s.Now(),
		}).Error
	})
}

// DeleteResume removes the record, then the file. A failed file removal is only
// logged. No other resume is promoted when the default is deleted.
func (s *Store) DeleteResume(ctx context.Context, id string) (bool, error) {
	var resume models.Resume
	deleted := false
	err := s.write(ctx, "delete resume", func(tx *gorm.DB) error {
		ok, err := first(tx.Where("id = ?", id), &resume)
		if err != nil || !ok {
			return err
		}
		deleted = true
		return tx.Delete(&models.Resume{}, "id = ?", id).Error
	})
	if err != nil || !deleted {
		return deleted, err
	}
	log := s.log.WithField("resume_id", id)
	if !s.removable(resume.FilePath) {
		log.WithField("path", resume.FilePath).Warn("resume file outside the resume directory, left on disk")
		return true, nil
	}
	if err := os.Remove(resume.FilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).Warn("resume file not removed")
	}
	return true, nil
}

// resumePath resolves p against the resume directory. The result must stay
// inside it.
func (s *Store) resumePath(p string) (string, error) {
	if s.resumeDir == "" {
		return p, nil
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.resumeDir, p)
	}
	p = filepath.Clean(p)
	if !within(s.resumeDir, p) {
		return "", invalid("FilePath", "outside the resume directory")
	}
	return p, nil
}

// removable re-checks a stored path, following symlinks, before deletion.
func (s *Store) removable(p string) bool {
	if s.resumeDir == "" || !within(s.resumeDir, filepath.Clean(p)) {
		return false
	}
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		// Missing files are harmless to remove.
		return errors.Is(err, fs.ErrNotExist)
	}
	dir, err := filepath.EvalSymlinks(s.resumeDir)
	if err != nil {
		dir = s.resumeDir
	}
	return within(dir, resolved)
}

func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil || rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func clearDefaults(tx *gorm.DB) error {
	return tx.Model(&models.Resume{}).Where("is_default = ?", true).Update("is_default", false).Error
}
