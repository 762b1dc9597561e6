package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/justsurfingit/jobhunt-tracker/internal/config"
	"github.com/justsurfingit/jobhunt-tracker/internal/models"
	"github.com/justsurfingit/jobhunt-tracker/internal/store"
)

// EmailService correlates inbound replies to applications and moves their
// status. Emails are processed one at a time in arrival order.
type EmailService struct {
	Store      *store.Store
	Matcher    *MatcherService
	Classifier Classifier
	Notifier   Notifier
	Alerts     config.NotifyConfig
	Log        logrus.FieldLogger

	mu       sync.Mutex
	inflight sync.WaitGroup
}

func NewEmailService(st *store.Store, matcher *MatcherService, classifier Classifier, notifier Notifier, alerts config.NotifyConfig, log logrus.FieldLogger) *EmailService {
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	return &EmailService{
		Store:      st,
		Matcher:    matcher,
		Classifier: classifier,
		Notifier:   notifier,
		Alerts:     alerts,
		Log:        log.WithField("component", "email"),
	}
}

// EmailResult describes what processing one email did.
type EmailResult struct {
	Skipped        bool                     `json:"skipped"`
	Duplicate      bool                     `json:"duplicate"`
	Matched        bool                     `json:"matched"`
	Ambiguous      bool                     `json:"ambiguous"`
	Candidates     int                      `json:"candidates"`
	ApplicationID  string                   `json:"application_id,omitempty"`
	Classification Classification           `json:"classification,omitempty"`
	OldStatus      models.ApplicationStatus `json:"old_status,omitempty"`
	NewStatus      models.ApplicationStatus `json:"new_status,omitempty"`
	Transitioned   bool                     `json:"transitioned"`
	ThreadID       string                   `json:"thread_id,omitempty"`
}

// HandleEmails processes a batch. A failing email is logged and does not stop
// the rest. It returns how many emails matched an application and how many failed.
func (s *EmailService) HandleEmails(ctx context.Context, emails []models.InboundEmail) (matched, failed int) {
	for _, email := range emails {
		res, err := s.ProcessEmail(ctx, email)
		if err != nil {
			s.Log.WithError(err).WithField("subject", shorten(email.Subject, 40)).Error("❌ email processing failed")
			failed++
			continue
		}
		if res.Matched {
			matched++
		}
	}
	return matched, failed
}

// ProcessEmail matches, classifies and applies one inbound email.
func (s *EmailService) ProcessEmail(ctx context.Context, email models.InboundEmail) (*EmailResult, error) {
	if email.From == "" || email.Subject == "" {
		return &EmailResult{Skipped: true}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.Log.WithFields(logrus.Fields{"from": email.From, "subject": shorten(email.Subject, 40)})

	if email.MessageID != "" {
		seen, err := s.Store.IsEmailProcessed(ctx, email.MessageID)
		if err != nil {
			return nil, err
		}
		if seen {
			return &EmailResult{Skipped: true, Duplicate: true}, nil
		}
	}

	res, job, err := s.apply(ctx, log, email)
	if err != nil {
		return nil, err
	}

	if email.MessageID != "" {
		if _, err := s.Store.MarkEmailProcessed(ctx, email.MessageID); err != nil {
			return nil, err
		}
	}
	if res.Matched {
		s.notify(ctx, res.Classification, job, email)
	}
	return res, nil
}

func (s *EmailService) apply(ctx context.Context, log logrus.FieldLogger, email models.InboundEmail) (*EmailResult, models.Job, error) {
	res := &EmailResult{}

	match, err := s.Matcher.FindApplication(ctx, email.From, email.Subject)
	if err != nil {
		return nil, models.Job{}, fmt.Errorf("match email: %w", err)
	}
	if match == nil {
		log.Info("⏹️  no open application matched")
		return res, models.Job{}, nil
	}

	app := match.Application
	res.Matched = true
	res.ApplicationID = app.ID
	res.Candidates = match.Candidates
	res.Ambiguous = match.Ambiguous()

	log = log.WithFields(logrus.Fields{"application_id": app.ID, "company": match.Job.Company})
	if res.Ambiguous {
		log.WithField("candidates", match.Candidates).Warn("⚠️ several open applications matched, using the first")
	}

	class, err := s.Classifier.Classify(ctx, email.Subject, email.Body)
	if err != nil {
		log.WithError(err).Warn("classifier failed, treating email as generic")
		class = ClassGeneric
	}
	res.Classification = class

	notes := fmt.Sprintf("Email response classified as: %s", class)
	tr, err := s.Store.TransitionApplication(ctx, app.ID, notes, func(current models.ApplicationStatus) (models.ApplicationStatus, bool) {
		// Another writer may have concluded the application since it was matched.
		if !slices.Contains(OpenStatuses, current) {
			return current, false
		}
		return NextStatus(current, class)
	})
	if err != nil {
		return nil, models.Job{}, err
	}
	if tr == nil {
		log.Warn("matched application disappeared before update")
		return &EmailResult{}, models.Job{}, nil
	}
	res.OldStatus, res.NewStatus, res.Transitioned = tr.From, tr.To, tr.Changed
	if tr.Changed {
		log.WithField("status", tr.To).Infof("⚡ %s -> %s", tr.From, tr.To)
	}

	threadID, err := s.upsertThread(ctx, app.ID, class, email)
	if err != nil {
		return nil, models.Job{}, err
	}
	res.ThreadID = threadID
	return res, match.Job, nil
}

func (s *EmailService) upsertThread(ctx context.Context, applicationID string, class Classification, email models.InboundEmail) (string, error) {
	thread, err := s.Store.GetEmailThreadByExternalID(ctx, email.ThreadID)
	if err != nil {
		return "", err
	}
	if thread != nil {
		status := models.ThreadActive
		if class == ClassInterview {
			status = models.ThreadAwaitingResponse
		}
		if err := s.Store.RecordThreadMessage(ctx, thread.ID, status, email.ReceivedAt); err != nil {
			return "", err
		}
		return thread.ID, nil
	}

	created, err := s.Store.CreateEmailThread(ctx, store.NewEmailThread{
		ApplicationID:    applicationID,
		ExternalThreadID: email.ThreadID,
		Subject:          email.Subject,
		FromEmail:        email.From,
		LastMessageAt:    email.ReceivedAt,
	})
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// notify hands the alert off without waiting for delivery.
func (s *EmailService) notify(ctx context.Context, class Classification, job models.Job, email models.InboundEmail) {
	if !s.Alerts.ResponseAlerts || s.Alerts.Channel == "" || s.Notifier == nil {
		return
	}
	text := responseMessage(class, job, email)
	ctx = context.WithoutCancel(ctx)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := s.Notifier.Send(ctx, s.Alerts.Channel, text); err != nil {
			s.Log.WithError(err).WithField("channel", s.Alerts.Channel).Warn("notification not delivered")
		}
	}()
}

// Wait blocks until in-flight notifications finish.
func (s *EmailService) Wait() {
	s.inflight.Wait()
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return truncate(s, n) + "..."
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
