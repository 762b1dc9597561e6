package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/jobhunt-tracker/internal/models"
)

func TestKeywordClassifier(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		want    Classification
	}{
		{"interview subject", "Next steps for your application", "", ClassInterview},
		{"offer wins over interview", "Interview follow-up", "We are pleased to offer you the role", ClassOffer},
		{"interview wins over rejection", "Unfortunately we need to reschedule", "Can we move your interview?", ClassInterview},
		{"rejection", "Your application", "Unfortunately we will not be moving forward.", ClassRejection},
		{"case insensitive", "JOB OFFER", "", ClassOffer},
		{"generic", "Thanks for applying", "We received your application.", ClassGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KeywordClassifier{}.Classify(context.Background(), tt.subject, tt.body)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNextStatus(t *testing.T) {
	tests := []struct {
		current models.ApplicationStatus
		class   Classification
		want    models.ApplicationStatus
		ok      bool
	}{
		{models.AppSubmitted, ClassOffer, models.AppOffer, true},
		{models.AppInterview, ClassOffer, models.AppOffer, true},
		{models.AppOffer, ClassOffer, models.AppOffer, false},
		{models.AppSubmitted, ClassInterview, models.AppInterview, true},
		{models.AppInterview, ClassInterview, models.AppInterview, false},
		{models.AppOffer, ClassInterview, models.AppOffer, false},
		{models.AppSubmitted, ClassRejection, models.AppRejected, true},
		{models.AppInterview, ClassRejection, models.AppRejected, true},
		{models.AppSubmitted, ClassGeneric, models.AppViewed, true},
		{models.AppInterview, ClassGeneric, models.AppInterview, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.current)+"/"+string(tt.class), func(t *testing.T) {
			got, ok := NextStatus(tt.current, tt.class)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}
