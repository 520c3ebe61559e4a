// Package comprehend wraps the text-analytics engine. Small texts are
// analyzed through the synchronous calls; large texts go through the
// job-based API against a staged store object.
package comprehend

import (
	"context"

	"media-insights-backend/internal/pipeline"
)

// SentimentScore carries the per-class confidence of a sentiment call.
type SentimentScore struct {
	Positive float64 `json:"Positive"`
	Negative float64 `json:"Negative"`
	Neutral  float64 `json:"Neutral"`
	Mixed    float64 `json:"Mixed"`
}

// SentimentResult is the synchronous sentiment payload.
type SentimentResult struct {
	Sentiment      string         `json:"Sentiment"`
	SentimentScore SentimentScore `json:"SentimentScore"`
}

// Entity is one detected entity.
type Entity struct {
	Text        string  `json:"Text"`
	Type        string  `json:"Type"`
	Score       float64 `json:"Score"`
	BeginOffset int     `json:"BeginOffset"`
	EndOffset   int     `json:"EndOffset"`
}

// KeyPhrase is one detected key phrase.
type KeyPhrase struct {
	Text        string  `json:"Text"`
	Score       float64 `json:"Score"`
	BeginOffset int     `json:"BeginOffset"`
	EndOffset   int     `json:"EndOffset"`
}

// StartJobInput carries everything needed to start one async analytics job.
type StartJobInput struct {
	JobName           string
	InputURI          string
	OutputURI         string
	DataAccessRoleARN string
	LanguageCode      string
}

// JobProperties is the engine's description of an async job. OutputURI is the
// prefix the engine writes raw output under; the file names beneath it are
// engine-chosen and unpredictable.
type JobProperties struct {
	JobID     string
	JobName   string
	Status    string
	OutputURI string
}

// Client is the text-analytics engine collaborator.
type Client interface {
	DetectSentiment(ctx context.Context, text, languageCode string) (SentimentResult, error)
	DetectEntities(ctx context.Context, text, languageCode string) ([]Entity, error)
	DetectKeyPhrases(ctx context.Context, text, languageCode string) ([]KeyPhrase, error)

	StartJob(ctx context.Context, facet pipeline.Facet, in StartJobInput) (jobID string, err error)
	DescribeJob(ctx context.Context, facet pipeline.Facet, jobID string) (JobProperties, error)
}
