package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

func encode(s string) string { return base64.URLEncoding.EncodeToString([]byte(s)) }

func TestToInboundEmail(t *testing.T) {
	msg := &gmail.Message{
		Id:           "m-1",
		ThreadId:     "t-1",
		InternalDate: time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC).UnixMilli(),
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "Acme Recruiting <hr@acmecorp.com>"},
				{Name: "Subject", Value: "Next steps"},
			},
			Parts: []*gmail.MessagePart{
				{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: encode("<p>html</p>")}},
				{MimeType: "multipart/related", Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("plain text")}},
				}},
			},
		},
	}

	email := toInboundEmail(msg)
	require.Equal(t, "m-1", email.MessageID)
	require.Equal(t, "t-1", email.ThreadID)
	require.Equal(t, "Acme Recruiting <hr@acmecorp.com>", email.From)
	require.Equal(t, "Next steps", email.Subject)
	require.Equal(t, "plain text", email.Body)
	require.Equal(t, time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC), email.ReceivedAt)
}

func TestToInboundEmailSinglePart(t *testing.T) {
	msg := &gmail.Message{
		Id: "m-2",
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Body:     &gmail.MessagePartBody{Data: base64.RawURLEncoding.EncodeToString([]byte("no padding!"))},
		},
	}
	email := toInboundEmail(msg)
	require.Equal(t, "no padding!", email.Body)
	require.True(t, email.ReceivedAt.IsZero())
}

func TestIsHistoryExpiredError(t *testing.T) {
	require.True(t, isHistoryExpiredError(fmt.Errorf("list: %w", &googleapi.Error{Code: 404})))
	require.False(t, isHistoryExpiredError(&googleapi.Error{Code: 500}))
	require.False(t, isHistoryExpiredError(errors.New("boom")))
}

func TestNextBookmark(t *testing.T) {
	tests := []struct {
		name         string
		last, latest uint64
		failed       int
		want         uint64
		ok           bool
	}{
		{"advances", 100, 150, 0, 150, true},
		{"first sync", 0, 150, 0, 150, true},
		{"held back on failure", 100, 150, 1, 100, false},
		{"never moves backwards", 150, 100, 0, 150, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := nextBookmark(tt.last, tt.latest, tt.failed)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestExpandMessagesCountsFetchFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/messages/broken") {
			http.Error(w, "backend error", http.StatusInternalServerError)
			return
		}
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "threadId": "t-" + id})
	}))
	defer srv.Close()

	ctx := context.Background()
	client, err := gmail.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	w := NewGmailWatcher(client, nil, nil, "", 10, log)

	full, failed := w.expandMessages(ctx, []*gmail.Message{{Id: "m-1"}, {Id: "broken"}, {Id: "m-2"}})
	require.Equal(t, 1, failed)
	require.Len(t, full, 2)
	require.Equal(t, "m-1", full[0].Id)
	require.Equal(t, "m-2", full[1].Id)

	_, ok := nextBookmark(100, 120, failed)
	require.False(t, ok)
}
