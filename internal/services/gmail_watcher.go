package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/justsurfingit/jobhunt-tracker/internal/models"
	"github.com/justsurfingit/jobhunt-tracker/internal/store"
)

const historyIDKey = "gmail.last_history_id"

// GmailWatcher polls a Gmail inbox and feeds new messages to the email engine.
type GmailWatcher struct {
	Client     *gmail.Service
	Store      *store.Store
	Emails     *EmailService
	Query      string
	MaxResults int64
	Log        logrus.FieldLogger

	limiter *rate.Limiter
}

func NewGmailWatcher(client *gmail.Service, st *store.Store, emails *EmailService, query string, maxResults int64, log logrus.FieldLogger) *GmailWatcher {
	return &GmailWatcher{
		Client:     client,
		Store:      st,
		Emails:     emails,
		Query:      query,
		MaxResults: maxResults,
		Log:        log.WithField("component", "gmail"),
		// Gmail allows 250 quota units/s per user; messages.get costs 5.
		limiter: rate.NewLimiter(rate.Limit(20), 5),
	}
}

// Run syncs immediately and then every interval until ctx is cancelled.
func (w *GmailWatcher) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := w.Sync(ctx); err != nil && ctx.Err() == nil {
			w.Log.WithError(err).Error("❌ sync failed")
		}
		select {
		case <-ctx.Done():
			w.Log.Info("gmail watcher stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Sync fetches messages added since the stored history id, or everything the
// query matches when there is no bookmark, and hands them to the email engine.
func (w *GmailWatcher) Sync(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	last, err := w.lastHistoryID(ctx)
	if err != nil {
		return err
	}

	var messages []*gmail.Message
	var newHistoryID uint64
	var failed int
	if last == 0 {
		w.Log.Info("🆕 no bookmark, running full sync")
		messages, newHistoryID, failed, err = w.fullSync(ctx)
	} else {
		messages, newHistoryID, failed, err = w.incrementalSync(ctx, last)
		if err != nil && isHistoryExpiredError(err) {
			w.Log.Warn("⚠️ history id expired, falling back to full sync")
			messages, newHistoryID, failed, err = w.fullSync(ctx)
		}
	}
	if err != nil {
		return err
	}

	emails := make([]models.InboundEmail, 0, len(messages))
	for _, msg := range messages {
		emails = append(emails, toInboundEmail(msg))
	}
	if len(emails) > 0 {
		matched, handleFailed := w.Emails.HandleEmails(ctx, emails)
		failed += handleFailed
		w.Log.WithFields(logrus.Fields{"messages": len(emails), "matched": matched, "failed": failed}).Info("📥 processed messages")
	}

	next, ok := nextBookmark(last, newHistoryID, failed)
	if !ok {
		if failed > 0 {
			w.Log.WithField("failed", failed).Warn("keeping history bookmark so failed messages are fetched again")
		}
		return nil
	}
	return w.Store.SetPreference(ctx, historyIDKey, strconv.FormatUint(next, 10))
}

// nextBookmark reports whether the stored history id should move to latest.
// It stays put while any message of the batch failed; messages that did
// succeed are skipped on the retry by their processed message id.
func nextBookmark(last, latest uint64, failed int) (uint64, bool) {
	if failed > 0 || latest <= last {
		return last, false
	}
	return latest, true
}

func (w *GmailWatcher) lastHistoryID(ctx context.Context) (uint64, error) {
	v, ok, err := w.Store.GetPreference(ctx, historyIDKey)
	if err != nil || !ok {
		return 0, err
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		w.Log.WithField("value", v).Warn("bad stored history id, ignoring")
		return 0, nil
	}
	return id, nil
}

func (w *GmailWatcher) fullSync(ctx context.Context) ([]*gmail.Message, uint64, int, error) {
	var resp *gmail.ListMessagesResponse
	err := retry(ctx, 3, time.Second, func() error {
		var e error
		resp, e = w.Client.Users.Messages.List("me").Q(w.Query).MaxResults(w.MaxResults).Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, 0, 0, err
	}

	profile, err := w.Client.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, 0, 0, err
	}
	full, failed := w.expandMessages(ctx, resp.Messages)
	return full, profile.HistoryId, failed, nil
}

func (w *GmailWatcher) incrementalSync(ctx context.Context, startID uint64) ([]*gmail.Message, uint64, int, error) {
	var resp *gmail.ListHistoryResponse
	err := retry(ctx, 3, time.Second, func() error {
		var e error
		resp, e = w.Client.Users.History.List("me").StartHistoryId(startID).HistoryTypes("messageAdded").Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, 0, 0, err
	}

	var headers []*gmail.Message
	for _, h := range resp.History {
		for _, added := range h.MessagesAdded {
			if added.Message != nil {
				headers = append(headers, added.Message)
			}
		}
	}
	full, failed := w.expandMessages(ctx, headers)
	return full, resp.HistoryId, failed, nil
}

// expandMessages fetches full messages; failed counts the ones not fetched.
func (w *GmailWatcher) expandMessages(ctx context.Context, headers []*gmail.Message) (full []*gmail.Message, failed int) {
	full = make([]*gmail.Message, 0, len(headers))
	for i, h := range headers {
		if err := w.limiter.Wait(ctx); err != nil {
			failed += len(headers) - i
			break
		}
		var msg *gmail.Message
		err := retry(ctx, 2, 500*time.Millisecond, func() error {
			var e error
			msg, e = w.Client.Users.Messages.Get("me", h.Id).Context(ctx).Do()
			return e
		})
		if err != nil {
			w.Log.WithError(err).WithField("message_id", h.Id).Warn("message fetch failed")
			failed++
			continue
		}
		full = append(full, msg)
	}
	return full, failed
}

// retry runs f with exponential backoff. An expired history id fails fast so
// the caller can switch to a full sync.
func retry(ctx context.Context, attempts int, sleep time.Duration, f func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil || isHistoryExpiredError(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		sleep *= 2
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}

func isHistoryExpiredError(err error) bool {
	var gErr *googleapi.Error
	return errors.As(err, &gErr) && gErr.Code == 404
}

func toInboundEmail(msg *gmail.Message) models.InboundEmail {
	email := models.InboundEmail{
		MessageID: msg.Id,
		ThreadID:  msg.ThreadId,
	}
	if msg.InternalDate > 0 {
		email.ReceivedAt = time.UnixMilli(msg.InternalDate).UTC()
	}
	if msg.Payload == nil {
		return email
	}
	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "From":
			email.From = h.Value
		case "Subject":
			email.Subject = h.Value
		}
	}
	email.Body = getEmailBody(msg.Payload)
	return email
}

// getEmailBody prefers text/plain over text/html, searching nested parts.
func getEmailBody(part *gmail.MessagePart) string {
	if part.Body != nil && part.Body.Data != "" && len(part.Parts) == 0 {
		return decodeBody(part.Body.Data)
	}
	for _, mime := range []string{"text/plain", "text/html"} {
		if body := findPart(part.Parts, mime); body != "" {
			return body
		}
	}
	return ""
}

func findPart(parts []*gmail.MessagePart, mime string) string {
	for _, p := range parts {
		if p.MimeType == mime && p.Body != nil && p.Body.Data != "" {
			return decodeBody(p.Body.Data)
		}
		if body := findPart(p.Parts, mime); body != "" {
			return body
		}
	}
	return ""
}

func decodeBody(data string) string {
	d, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		// Gmail sometimes omits padding.
		d, _ = base64.RawURLEncoding.DecodeString(data)
	}
	return string(d)
}
