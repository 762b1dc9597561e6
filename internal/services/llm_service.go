package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

type LLMService struct {
	Client llms.Model
}

// NewLLMService builds the Gemini client. An empty key is an error so callers
// can fall back to the keyword classifier.
func NewLLMService(ctx context.Context, apiKey, model string) (*LLMService, error) {
	if apiKey == "" {
		return nil, errors.New("llm api key is empty")
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &LLMService{Client: llm}, nil
}

func (s *LLMService) Generate(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s.Client, prompt)
}

const jobExtractionPrompt = `
You are an expert Job Data Extraction Agent. Your task is to analyze the provided raw HTML/Text from a job posting and extract structured data.

### INSTRUCTIONS:
1. **Analyze** the text to identify the core job details.
2. **Ignore** navigation menus, footers, "similar jobs" lists, and site advertisements.
3. **Format** the output as valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "company": "Name of the company",
    "title": "Job title",
    "location": "Job location or 'Remote'",
    "description": "A clean summary of the job. Remove HTML tags.",
    "tech_stack": ["Array", "of", "technologies"],
    "salary_min": null,
    "salary_max": null
}

### CONSTRAINT:
If a piece of information is missing, set the value to null. Do not hallucinate or guess.

### RAW CONTENT:
%s
`

// ExtractJobDetails turns raw posting HTML into a JSON string.
func (s *LLMService) ExtractJobDetails(ctx context.Context, rawHTML string) (string, error) {
	rawHTML = truncate(rawHTML, 20000)
	resp, err := s.Generate(ctx, fmt.Sprintf(jobExtractionPrompt, rawHTML))
	if err != nil {
		return "", err
	}
	return stripCodeFence(resp), nil
}

const classificationPrompt = `
You triage replies to job applications. Read the email and answer with exactly one word:
OFFER if it extends a job offer, INTERVIEW if it asks to schedule or continue interviews,
REJECTION if it declines the candidate, GENERIC otherwise.

Subject: %s

Body:
%s
`

type textGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LLMClassifier asks the model for the intent and uses Fallback whenever the
// call fails or the answer is not one of the four labels.
type LLMClassifier struct {
	Gen      textGenerator
	Fallback Classifier
	Log      logrus.FieldLogger
}

func NewLLMClassifier(gen textGenerator, log logrus.FieldLogger) *LLMClassifier {
	return &LLMClassifier{Gen: gen, Fallback: KeywordClassifier{}, Log: log.WithField("component", "llm_classifier")}
}

func (c *LLMClassifier) Classify(ctx context.Context, subject, body string) (Classification, error) {
	body = truncate(body, 8000)
	resp, err := c.Gen.Generate(ctx, fmt.Sprintf(classificationPrompt, subject, body))
	if err != nil {
		c.Log.WithError(err).Warn("llm classification failed, using keywords")
		return c.Fallback.Classify(ctx, subject, body)
	}

	switch strings.ToUpper(strings.Trim(strings.TrimSpace(resp), ".\"`")) {
	case "OFFER":
		return ClassOffer, nil
	case "INTERVIEW":
		return ClassInterview, nil
	case "REJECTION":
		return ClassRejection, nil
	case "GENERIC":
		return ClassGeneric, nil
	}
	c.Log.WithField("response", shorten(resp, 60)).Warn("unrecognized llm label, using keywords")
	return c.Fallback.Classify(ctx, subject, body)
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
