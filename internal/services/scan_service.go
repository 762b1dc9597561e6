package services

//go:generate mockgen -source=scan_service.go -destination=mocks/mock_job_source.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/justsurfingit/jobhunt-tracker/internal/config"
	"github.com/justsurfingit/jobhunt-tracker/internal/models"
	"github.com/justsurfingit/jobhunt-tracker/internal/store"
)

// JobSource is a job-board adapter.
type JobSource interface {
	Name() string
	Fetch(ctx context.Context) ([]models.RawJobListing, error)
}

type ScanService struct {
	Store       *store.Store
	Sources     []JobSource
	Preferences config.SearchPreferences
	Log         logrus.FieldLogger

	mu sync.Mutex
}

func NewScanService(st *store.Store, sources []JobSource, prefs config.SearchPreferences, log logrus.FieldLogger) *ScanService {
	return &ScanService{
		Store:       st,
		Sources:     sources,
		Preferences: prefs,
		Log:         log.WithField("component", "scan"),
	}
}

// ScanReport summarizes one pass over one source.
type ScanReport struct {
	Source     string `json:"source"`
	Fetched    int    `json:"fetched"`
	Filtered   int    `json:"filtered"`
	Duplicates int    `json:"duplicates"`
	Created    int    `json:"created"`
	Failed     int    `json:"failed"`
	Error      string `json:"error,omitempty"`
}

// Run scans immediately and then every interval until ctx is cancelled.
func (s *ScanService) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.ScanAll(ctx)
	for {
		select {
		case <-ctx.Done():
			s.Log.Info("scan scheduler stopped")
			return nil
		case <-ticker.C:
			s.ScanAll(ctx)
		}
	}
}

// ScanAll runs every source. One failing source does not stop the others.
func (s *ScanService) ScanAll(ctx context.Context) []ScanReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports := make([]ScanReport, 0, len(s.Sources))
	for _, src := range s.Sources {
		if ctx.Err() != nil {
			break
		}
		reports = append(reports, s.scanSource(ctx, src))
	}
	return reports
}

func (s *ScanService) scanSource(ctx context.Context, src JobSource) ScanReport {
	report := ScanReport{Source: src.Name()}
	log := s.Log.WithField("source", src.Name())

	listings, err := src.Fetch(ctx)
	if err != nil {
		log.WithError(err).Error("❌ fetch failed")
		report.Error = err.Error()
		return report
	}
	report.Fetched = len(listings)

	for _, listing := range listings {
		if !MatchesPreferences(s.Preferences, listing) {
			report.Filtered++
			continue
		}
		created, err := s.insert(ctx, src.Name(), listing)
		if err != nil {
			log.WithError(err).WithField("external_id", listing.ExternalID).Warn("listing not stored")
			report.Failed++
			continue
		}
		if created {
			report.Created++
		} else {
			report.Duplicates++
		}
	}

	log.WithFields(logrus.Fields{
		"fetched": report.Fetched, "created": report.Created,
		"duplicates": report.Duplicates, "filtered": report.Filtered, "failed": report.Failed,
	}).Info("✅ scan finished")
	return report
}

func (s *ScanService) insert(ctx context.Context, source string, l models.RawJobListing) (bool, error) {
	existing, err := s.Store.GetJobByExternalID(ctx, source, l.ExternalID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	_, err = s.Store.CreateJob(ctx, store.NewJob{
		ExternalID:  l.ExternalID,
		Source:      source,
		Company:     l.Company,
		Title:       l.Title,
		Location:    l.Location,
		SalaryMin:   l.SalaryMin,
		SalaryMax:   l.SalaryMax,
		Description: l.Description,
		TechStack:   l.TechStack,
		URL:         l.URL,
		PostedAt:    l.PostedAt,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// MatchesPreferences reports whether a listing passes the search filters.
// Empty filters accept everything; unknown salary or location is not rejected.
func MatchesPreferences(p config.SearchPreferences, l models.RawJobListing) bool {
	text := strings.ToLower(l.Title + " " + l.Description + " " + strings.Join(l.TechStack, " "))

	if len(p.Keywords) > 0 && !containsAny(text, p.Keywords) {
		return false
	}
	if containsAny(strings.ToLower(l.Title+" "+l.Description), p.ExcludeKeywords) {
		return false
	}
	if len(p.Locations) > 0 && l.Location != "" && !containsAny(strings.ToLower(l.Location), p.Locations) {
		return false
	}
	if p.MinSalary > 0 {
		top := l.SalaryMax
		if top == nil {
			top = l.SalaryMin
		}
		if top != nil && *top < p.MinSalary {
			return false
		}
	}
	return true
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" && strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// FileSource reads listings from a JSON array on disk, for manual feeds.
type FileSource struct {
	SourceName string
	Path       string
}

func (f FileSource) Name() string { return f.SourceName }

func (f FileSource) Fetch(ctx context.Context) ([]models.RawJobListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	var listings []models.RawJobListing
	if err := json.Unmarshal(b, &listings); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return listings, nil
}

// SourcesFromConfig builds the configured file sources.
func SourcesFromConfig(cfgs []config.SourceConfig) []JobSource {
	sources := make([]JobSource, 0, len(cfgs))
	for _, c := range cfgs {
		sources = append(sources, FileSource{SourceName: c.Name, Path: c.File})
	}
	return sources
}
