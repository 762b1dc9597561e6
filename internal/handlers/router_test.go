package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/jobhunt-tracker/internal/config"
	"github.com/justsurfingit/jobhunt-tracker/internal/models"
	"github.com/justsurfingit/jobhunt-tracker/internal/services"
	"github.com/justsurfingit/jobhunt-tracker/internal/store"
)

func newTestRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, _ := test.NewNullLogger()

	dir := t.TempDir()
	st, err := store.Open(config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(dir, "api.sqlite")},
		store.WithResumeDir(filepath.Join(dir, "resumes")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	jobs := services.NewJobService(st)
	emails := services.NewEmailService(st, services.NewMatcherService(st), services.KeywordClassifier{}, nil, config.NotifyConfig{}, log)
	scan := services.NewScanService(st, nil, config.SearchPreferences{}, log)

	r := NewRouter(Handlers{
		Jobs:         NewJobHandler(nil, jobs),
		Applications: NewApplicationHandler(st, jobs),
		Resumes:      NewResumeHandler(services.NewResumeService(st)),
		Stats:        NewStatsHandler(services.NewStatsService(st)),
		Emails:       NewEmailHandler(emails),
		Scan:         NewScanHandler(scan),
	}, log)
	return r, st
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestJobLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/jobs", gin.H{"company_name": "Acme Corp", "role_title": "Go Engineer", "external_id": "a1"})
	require.Equal(t, http.StatusCreated, w.Code)
	job := decode[models.Job](t, w)

	w = do(t, r, http.MethodPost, "/api/v1/jobs", gin.H{"company_name": "Acme Corp", "role_title": "Go Engineer", "external_id": "a1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, job.ID, decode[models.Job](t, w).ID)

	w = do(t, r, http.MethodGet, "/api/v1/jobs?company=acme", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[[]models.Job](t, w), 1)

	w = do(t, r, http.MethodPatch, "/api/v1/jobs/"+job.ID+"/status", gin.H{"status": "reviewing"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.JobReviewing, decode[models.Job](t, w).Status)

	w = do(t, r, http.MethodPatch, "/api/v1/jobs/"+job.ID+"/status", gin.H{"status": "bogus"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/jobs/"+job.ID+"/approve", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	app := decode[models.Application](t, w)
	require.Equal(t, models.AppPending, app.Status)

	w = do(t, r, http.MethodPost, "/api/v1/applications/"+app.ID+"/submit", gin.H{"notes": "sent"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.AppSubmitted, decode[models.Application](t, w).Status)

	w = do(t, r, http.MethodPost, "/api/v1/emails", gin.H{"from": "hr@acmecorp.com", "subject": "Next steps for your application"})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[services.EmailResult](t, w)
	require.True(t, res.Matched)
	require.Equal(t, models.AppInterview, res.NewStatus)

	w = do(t, r, http.MethodGet, "/api/v1/applications/"+app.ID+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[[]models.ApplicationHistory](t, w), 3)

	w = do(t, r, http.MethodGet, "/api/v1/applications/"+app.ID+"/threads", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[[]models.EmailThread](t, w), 1)

	w = do(t, r, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[services.Snapshot](t, w)
	require.EqualValues(t, 1, snap.Applications.Submitted)
}

func TestNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/jobs/missing"},
		{http.MethodPost, "/api/v1/jobs/missing/approve"},
		{http.MethodGet, "/api/v1/applications/missing"},
		{http.MethodGet, "/api/v1/applications/missing/history"},
		{http.MethodPost, "/api/v1/applications/missing/submit"},
		{http.MethodPut, "/api/v1/resumes/missing/default"},
		{http.MethodDelete, "/api/v1/resumes/missing"},
	} {
		w := do(t, r, tc.method, tc.path, nil)
		require.Equal(t, http.StatusNotFound, w.Code, tc.path)
	}
}

func TestBadRequests(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/jobs", gin.H{"company_name": "Acme Corp"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/emails", gin.H{"subject": "no sender"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/jobs?limit=abc", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/resumes", gin.H{"name": "cv", "file_path": "/tmp/cv.odt", "file_type": "odt"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractWithoutLLM(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodPost, "/api/v1/jobs/extract", gin.H{"raw_html": "<p>job</p>"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestResumes(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/resumes", gin.H{"name": "Main", "file_path": "cv.pdf", "file_type": "pdf"})
	require.Equal(t, http.StatusCreated, w.Code)
	resume := decode[models.Resume](t, w)
	require.False(t, resume.IsDefault)
	require.NoError(t, os.WriteFile(resume.FilePath, []byte("%PDF"), 0o600))

	w = do(t, r, http.MethodPost, "/api/v1/resumes/"+resume.ID+"/parse", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodPost, "/api/v1/resumes/missing/parse", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPut, "/api/v1/resumes/"+resume.ID+"/default", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, decode[models.Resume](t, w).IsDefault)

	w = do(t, r, http.MethodGet, "/api/v1/resumes", nil)
	require.Len(t, decode[[]models.Resume](t, w), 1)

	w = do(t, r, http.MethodDelete, "/api/v1/resumes/"+resume.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.NoFileExists(t, resume.FilePath)
}

func TestResumePathOutsideResumeDirRejected(t *testing.T) {
	r, _ := newTestRouter(t)
	victim := filepath.Join(t.TempDir(), "important.txt")
	require.NoError(t, os.WriteFile(victim, []byte("keep me"), 0o600))

	for _, p := range []string{victim, "../api.sqlite", "../../" + filepath.Base(victim)} {
		w := do(t, r, http.MethodPost, "/api/v1/resumes", gin.H{"name": "x", "file_path": p, "file_type": "txt"})
		require.Equal(t, http.StatusBadRequest, w.Code, p)
	}

	w := do(t, r, http.MethodGet, "/api/v1/resumes", nil)
	require.Empty(t, decode[[]models.Resume](t, w))
	require.FileExists(t, victim)
}

func TestTimelineAndScan(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/stats/timeline?days=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, decode[[]services.TimelineEntry](t, w))

	w = do(t, r, http.MethodPost, "/api/v1/scan", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
