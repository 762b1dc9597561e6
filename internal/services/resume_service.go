package services

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/justsurfingit/jobhunt-tracker/internal/dtos"
	"github.com/justsurfingit/jobhunt-tracker/internal/models"
	"github.com/justsurfingit/jobhunt-tracker/internal/store"
)

type ResumeService struct {
	Store *store.Store
}

func NewResumeService(st *store.Store) *ResumeService {
	return &ResumeService{Store: st}
}

func (s *ResumeService) Upload(ctx context.Context, req *dtos.ResumeCreationRequest) (*models.Resume, error) {
	parsed := ParseResume(req.FilePath, req.FileType)
	return s.Store.CreateResume(ctx, store.NewResume{
		Name:       req.Name,
		FilePath:   req.FilePath,
		FileType:   req.FileType,
		ParsedData: &parsed,
		IsDefault:  req.IsDefault,
	})
}

// Reparse runs the parser again over a stored resume and saves the result.
func (s *ResumeService) Reparse(ctx context.Context, id string) (*models.Resume, error) {
	resume, err := s.Store.GetResume(ctx, id)
	if err != nil {
		return nil, err
	}
	if resume == nil {
		return nil, ErrNotFound
	}
	if err := s.Store.UpdateResumeParsedData(ctx, id, ParseResume(resume.FilePath, resume.FileType)); err != nil {
		return nil, err
	}
	return s.Store.GetResume(ctx, id)
}

// ParseResume returns placeholder data; text extraction is not implemented.
func ParseResume(path, fileType string) models.ParsedResume {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return models.ParsedResume{
		Contact:    models.ContactInfo{Name: name},
		Skills:     []string{},
		Experience: []string{},
		Education:  []string{},
	}
}
