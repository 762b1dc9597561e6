package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/jobhunt-tracker/internal/config"
	"github.com/justsurfingit/jobhunt-tracker/internal/models"
	"github.com/justsurfingit/jobhunt-tracker/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// Now advances one second per call so created_at ordering is stable.
func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func quietLogger() *logrus.Logger {
	l, _ := test.NewNullLogger()
	return l
}

func newTestStore(t *testing.T) (*store.Store, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	dsn := filepath.Join(t.TempDir(), "tracker.sqlite")
	st, err := store.Open(config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, store.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st, clock
}

// submittedApplication creates a job for company and an application in the
// given status, passing through submitted first.
func submittedApplication(t *testing.T, st *store.Store, company string, status models.ApplicationStatus) (*models.Job, *models.Application) {
	t.Helper()
	ctx := context.Background()

	job, err := st.CreateJob(ctx, store.NewJob{Source: "manual", Company: company, Title: "Backend Engineer"})
	require.NoError(t, err)
	app, err := st.CreateApplication(ctx, store.NewApplication{JobID: job.ID})
	require.NoError(t, err)
	require.NoError(t, st.UpdateApplicationStatus(ctx, app.ID, models.AppSubmitted, ""))
	if status != models.AppSubmitted {
		require.NoError(t, st.UpdateApplicationStatus(ctx, app.ID, status, ""))
	}
	app, err = st.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	return job, app
}
