package services

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/justsurfingit/jobhunt-tracker/internal/models"
	"github.com/justsurfingit/jobhunt-tracker/internal/store"
)

const DefaultTimelineDays = 30

type StatsService struct {
	Store *store.Store
}

func NewStatsService(st *store.Store) *StatsService {
	return &StatsService{Store: st}
}

type JobStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	BySource map[string]int64 `json:"by_source"`
}

type ApplicationStats struct {
	Total        int64            `json:"total"`
	ByStatus     map[string]int64 `json:"by_status"`
	Submitted    int64            `json:"submitted"`
	ResponseRate float64          `json:"response_rate"`
}

type Snapshot struct {
	Jobs         JobStats         `json:"jobs"`
	Applications ApplicationStats `json:"applications"`
	EmailThreads int64            `json:"email_threads"`
	Resumes      int64            `json:"resumes"`
}

type TimelineEntry struct {
	Date                  string `json:"date"`
	JobsDiscovered        int    `json:"jobsDiscovered"`
	ApplicationsSubmitted int    `json:"applicationsSubmitted"`
	ResponsesReceived     int    `json:"responsesReceived"`
}

type groupCount struct {
	Grp   string
	Count int64
}

func countBy(db *gorm.DB, model any, column string) (map[string]int64, int64, error) {
	var rows []groupCount
	err := db.Model(model).
		Select(column + " AS grp, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	out := make(map[string]int64, len(rows))
	var total int64
	for _, r := range rows {
		out[r.Grp] = r.Count
		total += r.Count
	}
	return out, total, nil
}

// Snapshot counts everything in the store.
func (s *StatsService) Snapshot(ctx context.Context) (*Snapshot, error) {
	db := s.Store.DB().WithContext(ctx)
	snap := &Snapshot{}

	var err error
	if snap.Jobs.ByStatus, snap.Jobs.Total, err = countBy(db, &models.Job{}, "status"); err != nil {
		return nil, &store.StorageError{Op: "count jobs by status", Err: err}
	}
	if snap.Jobs.BySource, _, err = countBy(db, &models.Job{}, "source"); err != nil {
		return nil, &store.StorageError{Op: "count jobs by source", Err: err}
	}
	if snap.Applications.ByStatus, snap.Applications.Total, err = countBy(db, &models.Application{}, "status"); err != nil {
		return nil, &store.StorageError{Op: "count applications by status", Err: err}
	}
	if err := db.Model(&models.Application{}).Where("applied_at IS NOT NULL").Count(&snap.Applications.Submitted).Error; err != nil {
		return nil, &store.StorageError{Op: "count submitted applications", Err: err}
	}
	if err := db.Model(&models.EmailThread{}).Count(&snap.EmailThreads).Error; err != nil {
		return nil, &store.StorageError{Op: "count email threads", Err: err}
	}
	if err := db.Model(&models.Resume{}).Count(&snap.Resumes).Error; err != nil {
		return nil, &store.StorageError{Op: "count resumes", Err: err}
	}

	by := snap.Applications.ByStatus
	snap.Applications.ResponseRate = ResponseRate(
		by[string(models.AppInterview)]+by[string(models.AppOffer)]+by[string(models.AppRejected)],
		snap.Applications.Submitted,
	)
	return snap, nil
}

// ResponseRate is responses/submitted, or 0 when nothing was submitted.
func ResponseRate(responses, submitted int64) float64 {
	if submitted == 0 {
		return 0
	}
	return float64(responses) / float64(submitted)
}

// Timeline buckets activity of the last days (UTC calendar dates), oldest first.
func (s *StatsService) Timeline(ctx context.Context, days int) ([]TimelineEntry, error) {
	if days <= 0 {
		days = DefaultTimelineDays
	}
	cutoff := s.Store.Now().Add(-time.Duration(days) * 24 * time.Hour)
	db := s.Store.DB().WithContext(ctx)

	var discovered, submitted, responded []time.Time
	if err := db.Model(&models.Job{}).Where("discovered_at >= ?", cutoff).Pluck("discovered_at", &discovered).Error; err != nil {
		return nil, &store.StorageError{Op: "timeline jobs", Err: err}
	}
	if err := db.Model(&models.Application{}).Where("applied_at IS NOT NULL AND applied_at >= ?", cutoff).Pluck("applied_at", &submitted).Error; err != nil {
		return nil, &store.StorageError{Op: "timeline applications", Err: err}
	}
	if err := db.Model(&models.EmailThread{}).Where("created_at >= ?", cutoff).Pluck("created_at", &responded).Error; err != nil {
		return nil, &store.StorageError{Op: "timeline responses", Err: err}
	}

	return mergeTimeline(bucketByDay(discovered), bucketByDay(submitted), bucketByDay(responded)), nil
}

func bucketByDay(ts []time.Time) map[string]int {
	out := make(map[string]int)
	for _, t := range ts {
		out[t.UTC().Format(time.DateOnly)]++
	}
	return out
}

func mergeTimeline(jobs, apps, responses map[string]int) []TimelineEntry {
	byDate := make(map[string]*TimelineEntry)
	entry := func(date string) *TimelineEntry {
		e, ok := byDate[date]
		if !ok {
			e = &TimelineEntry{Date: date}
			byDate[date] = e
		}
		return e
	}
	for d, n := range jobs {
		entry(d).JobsDiscovered = n
	}
	for d, n := range apps {
		entry(d).ApplicationsSubmitted = n
	}
	for d, n := range responses {
		entry(d).ResponsesReceived = n
	}

	out := make([]TimelineEntry, 0, len(byDate))
	for _, e := range byDate {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
