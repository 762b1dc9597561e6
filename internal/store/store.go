// Package store is the single source of truth for jobs, applications, email
// threads and resumes. Every mutation runs inside one transaction while holding
// the store's write lock, so multi-step updates are atomic and writes are applied
// in arrival order.
package store

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/justsurfingit/jobhunt-tracker/internal/config"
	"github.com/justsurfingit/jobhunt-tracker/internal/database"
)

const DefaultLimit = 100

type Store struct {
	db       *gorm.DB
	mu       sync.Mutex
	validate *validator.Validate
	now      func() time.Time
	log      logrus.FieldLogger

	resumeDir string
}

type Option func(*Store)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.log = l.WithField("component", "store") }
}

// WithResumeDir confines resume files to dir. Relative file paths are placed
// under it and paths outside it are rejected. Without a directory resume files
// are never removed from disk.
func WithResumeDir(dir string) Option {
	return func(s *Store) {
		if dir == "" {
			return
		}
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		s.resumeDir = filepath.Clean(dir)
	}
}

// WithClock overrides the time source used for server timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New wraps an already opened and migrated database.
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:       db,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	s.log = discard
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects, migrates and returns an owned store handle. Callers must Close it.
func Open(cfg config.DatabaseConfig, opts ...Option) (*Store, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, &StorageError{Op: "migrate", Err: err}
	}
	s := New(db, opts...)
	if s.resumeDir != "" {
		if err := os.MkdirAll(s.resumeDir, 0o755); err != nil {
			_ = database.Close(db)
			return nil, &StorageError{Op: "create resume dir", Err: err}
		}
	}
	return s, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return database.Close(s.db)
}

// DB exposes the underlying handle for read-only aggregation.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Now() time.Time { return s.now().UTC() }

// write serializes fn against every other mutation and runs it in a transaction.
func (s *Store) write(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.WithContext(ctx).Transaction(fn)
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return err
	}
	var serr *StorageError
	if errors.As(err, &serr) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func (s *Store) read(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *Store) check(input any) error {
	if err := s.validate.Struct(input); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// first returns (false, nil) when the query matched nothing.
func first(q *gorm.DB, dest any) (bool, error) {
	err := q.Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// page applies limit/offset. A zero limit means DefaultLimit, a negative one no limit.
func page(q *gorm.DB, limit, offset int) *gorm.DB {
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	return q
}
