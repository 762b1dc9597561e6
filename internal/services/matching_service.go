package services

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/justsurfingit/jobhunt-tracker/internal/models"
	"github.com/justsurfingit/jobhunt-tracker/internal/store"
)

// OpenStatuses are the application states still eligible for email matching.
var OpenStatuses = []models.ApplicationStatus{models.AppSubmitted, models.AppInterview}

type MatcherService struct {
	Store *store.Store
}

func NewMatcherService(st *store.Store) *MatcherService {
	return &MatcherService{Store: st}
}

// Match is the application an email was attributed to. Candidates counts every
// open application whose company matched; only the first one is used.
type Match struct {
	Application models.Application
	Job         models.Job
	Candidates  int
}

func (m *Match) Ambiguous() bool { return m.Candidates > 1 }

// FindApplication returns the first open application whose company matches the
// sender or subject, or nil when nothing matches.
func (s *MatcherService) FindApplication(ctx context.Context, from, subject string) (*Match, error) {
	apps, err := s.Store.ListApplications(ctx, store.ApplicationFilter{Statuses: OpenStatuses, Limit: -1})
	if err != nil {
		return nil, err
	}

	sender := parseSender(from)
	subjectLower := strings.ToLower(subject)

	var match *Match
	for _, app := range apps {
		if app.Job == nil {
			continue
		}
		if !companyMatches(app.Job.Company, sender, subjectLower) {
			continue
		}
		if match == nil {
			match = &Match{Application: app, Job: *app.Job}
		}
		match.Candidates++
	}
	return match, nil
}

type senderInfo struct {
	address  string // "jobs@stripe.com"
	fragment string // "stripe"
}

func parseSender(raw string) senderInfo {
	// "Stripe Recruiting <jobs@stripe.com>" -> "jobs@stripe.com"
	addr := strings.ToLower(strings.TrimSpace(raw))
	if parsed, err := mail.ParseAddress(raw); err == nil {
		addr = strings.ToLower(parsed.Address)
	}

	info := senderInfo{address: addr}
	if at := strings.LastIndex(addr, "@"); at >= 0 {
		domain := addr[at+1:]
		if dot := strings.Index(domain, "."); dot >= 0 {
			domain = domain[:dot]
		}
		info.fragment = domain
	}
	return info
}

// companyMatches reports whether any word of company longer than three
// characters appears in the sender domain fragment, the sender address or the
// subject. Short words like "Inc" or "AI" are skipped to avoid false positives.
func companyMatches(company string, sender senderInfo, subjectLower string) bool {
	for _, word := range strings.Fields(strings.ToLower(company)) {
		if utf8.RuneCountInString(word) <= 3 {
			continue
		}
		if sender.fragment != "" && strings.Contains(sender.fragment, word) {
			return true
		}
		if strings.Contains(sender.address, word) {
			return true
		}
		if strings.Contains(subjectLower, word) {
			return true
		}
	}
	return false
}
