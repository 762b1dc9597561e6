package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/jobhunt-tracker/internal/dtos"
	"github.com/justsurfingit/jobhunt-tracker/internal/models"
)

func TestResumeUploadAndReparse(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()
	svc := NewResumeService(st)

	resume, err := svc.Upload(ctx, &dtos.ResumeCreationRequest{Name: "Main", FilePath: "/cv/jane-doe.pdf", FileType: "pdf"})
	require.NoError(t, err)

	// Drop the parsed data so the re-parse has something to restore.
	require.NoError(t, st.UpdateResumeParsedData(ctx, resume.ID, models.ParsedResume{}))

	got, err := svc.Reparse(ctx, resume.ID)
	require.NoError(t, err)
	var parsed models.ParsedResume
	require.NoError(t, json.Unmarshal(got.ParsedData, &parsed))
	require.Equal(t, "jane-doe", parsed.Contact.Name)

	_, err = svc.Reparse(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
