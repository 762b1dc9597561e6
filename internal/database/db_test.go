package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/jobhunt-tracker/internal/config"
)

func TestMigrateIsIdempotent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "tracker.sqlite")
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	for _, table := range []string{"jobs", "applications", "email_threads", "resumes", "preferences", "application_history", "processed_emails"} {
		require.True(t, db.Migrator().HasTable(table), table)
	}
	require.True(t, db.Migrator().HasIndex("jobs", "idx_jobs_source_external"))
	require.True(t, db.Migrator().HasIndex("applications", "idx_applications_job_id"))
	require.True(t, db.Migrator().HasIndex("email_threads", "idx_email_threads_external_thread_id"))
	require.True(t, db.Migrator().HasIndex("application_history", "idx_application_history_application_id"))
	require.True(t, db.Migrator().HasIndex("application_history", "idx_application_history_seq"))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle", DSN: "x"})
	require.ErrorContains(t, err, "unsupported database driver")
}
