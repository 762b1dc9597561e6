package store

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/jobhunt-tracker/internal/config"
)

// tickingClock advances one second per call so ordering by timestamp is stable.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestStore(t *testing.T) (*Store, *tickingClock) {
	t.Helper()

	clock := &tickingClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	dir := t.TempDir()
	s, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(dir, "tracker.sqlite")},
		WithClock(clock.Now), WithResumeDir(filepath.Join(dir, "resumes")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, clock
}
