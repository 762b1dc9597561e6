package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/justsurfingit/jobhunt-tracker/internal/models"
)

// GetPreference returns ok=false when the key was never set.
func (s *Store) GetPreference(ctx context.Context, key string) (value string, ok bool, err error) {
	var pref models.Preference
	ok, err = first(s.read(ctx).Where(map[string]any{"key": key}), &pref)
	if err != nil {
		return "", false, &StorageError{Op: "get preference", Err: err}
	}
	return pref.Value, ok, nil
}

func (s *Store) SetPreference(ctx context.Context, key, value string) error {
	if key == "" {
		return invalid("key", "required")
	}
	return s.write(ctx, "set preference", func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&models.Preference{Key: key, Value: value, UpdatedAt: s.Now()}).Error
	})
}
