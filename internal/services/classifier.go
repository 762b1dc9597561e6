package services

import (
	"context"
	"strings"

	"github.com/justsurfingit/jobhunt-tracker/internal/models"
)

type Classification string

const (
	ClassOffer     Classification = "offer"
	ClassInterview Classification = "interview"
	ClassRejection Classification = "rejection"
	ClassGeneric   Classification = "generic"
)

// Classifier infers the intent of an inbound email.
type Classifier interface {
	Classify(ctx context.Context, subject, body string) (Classification, error)
}

// Keyword sets are checked in this order; the first set with a hit wins.
var keywordSets = []struct {
	class    Classification
	keywords []string
}{
	{ClassOffer, []string{
		"offer letter", "pleased to offer", "job offer", "extend an offer",
		"offer of employment", "compensation package", "welcome aboard",
	}},
	{ClassInterview, []string{
		"interview", "next steps", "schedule a call", "phone screen",
		"availability", "technical assessment", "coding challenge", "meet the team",
	}},
	{ClassRejection, []string{
		"unfortunately", "not moving forward", "not be moving forward", "other candidates",
		"regret to inform", "decided to pursue", "position has been filled", "not selected",
	}},
}

// KeywordClassifier does case-insensitive substring matching against fixed
// keyword sets with priority offer, interview, rejection.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, subject, body string) (Classification, error) {
	return classifyText(subject + " " + body), nil
}

func classifyText(text string) Classification {
	text = strings.ToLower(text)
	for _, set := range keywordSets {
		for _, kw := range set.keywords {
			if strings.Contains(text, kw) {
				return set.class
			}
		}
	}
	return ClassGeneric
}

// NextStatus applies the transition policy for a classified email. ok is false
// when the application should stay where it is.
func NextStatus(current models.ApplicationStatus, c Classification) (next models.ApplicationStatus, ok bool) {
	switch c {
	case ClassOffer:
		next = models.AppOffer
	case ClassInterview:
		// Never regress from interview or offer.
		if current == models.AppInterview || current == models.AppOffer {
			return current, false
		}
		next = models.AppInterview
	case ClassRejection:
		next = models.AppRejected
	default:
		if current != models.AppSubmitted {
			return current, false
		}
		next = models.AppViewed
	}
	return next, next != current
}
