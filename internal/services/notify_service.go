package services

//go:generate mockgen -source=notify_service.go -destination=mocks/mock_notifier.go -package=mocks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/justsurfingit/jobhunt-tracker/internal/models"
)

// Notifier delivers a text message to a channel.
type Notifier interface {
	Send(ctx context.Context, channel, text string) error
}

// WebhookNotifier posts {"channel", "text"} as JSON to a chat webhook.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (n *WebhookNotifier) Send(ctx context.Context, channel, text string) error {
	payload, err := json.Marshal(map[string]string{"channel": channel, "text": text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook HTTP %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier writes notifications to the log. Used when no webhook is set.
type LogNotifier struct {
	Log logrus.FieldLogger
}

func (n LogNotifier) Send(_ context.Context, channel, text string) error {
	n.Log.WithField("channel", channel).Info(text)
	return nil
}

// responseMessage formats the alert for a classified reply.
func responseMessage(c Classification, job models.Job, email models.InboundEmail) string {
	switch c {
	case ClassOffer:
		return fmt.Sprintf("🎉 Offer from %s for %s! Subject: %q", job.Company, job.Title, email.Subject)
	case ClassInterview:
		return fmt.Sprintf("📅 Interview request from %s for %s. Subject: %q", job.Company, job.Title, email.Subject)
	case ClassRejection:
		return fmt.Sprintf("📭 %s passed on your application for %s.", job.Company, job.Title)
	default:
		return fmt.Sprintf("📧 New reply from %s about %s: %q", job.Company, job.Title, email.Subject)
	}
}
