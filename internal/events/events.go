// Package events decodes the inbound bus payloads that trigger the pipeline
// handlers. Delivery is at-least-once; decoding is side-effect free so a
// malformed event can be rejected before any work happens.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	awsevents "github.com/aws/aws-lambda-go/events"

	"media-insights-backend/internal/pipeline"
)

// StatusCompleted is the terminal success status shared by the transcription
// and analytics engines' lifecycle events.
const StatusCompleted = "COMPLETED"

var (
	// ErrMissingField indicates a structurally valid event missing a
	// mandatory detail field.
	ErrMissingField = errors.New("missing event field")
)

// ObjectCreated describes a store object whose creation triggered a handler.
type ObjectCreated struct {
	Bucket string
	Key    string
}

type objectCreatedDetail struct {
	Bucket struct {
		Name string `json:"name"`
	} `json:"bucket"`
	Object struct {
		Key string `json:"key"`
	} `json:"object"`
}

// ParseObjectCreated decodes a store object-created event. The key is
// form-decoded: the bus percent-encodes keys and renders spaces as '+'.
func ParseObjectCreated(e awsevents.CloudWatchEvent) (ObjectCreated, error) {
	var detail objectCreatedDetail
	if err := json.Unmarshal(e.Detail, &detail); err != nil {
		return ObjectCreated{}, fmt.Errorf("decode object-created detail: %w", err)
	}
	if detail.Bucket.Name == "" || detail.Object.Key == "" {
		return ObjectCreated{}, fmt.Errorf("object-created event: %w: bucket name or object key", ErrMissingField)
	}

	key, err := url.QueryUnescape(detail.Object.Key)
	if err != nil {
		return ObjectCreated{}, fmt.Errorf("decode object key %q: %w", detail.Object.Key, err)
	}
	return ObjectCreated{Bucket: detail.Bucket.Name, Key: key}, nil
}

// TranscriptionJobState describes a transcription job lifecycle change.
type TranscriptionJobState struct {
	JobName string
	Status  string
}

type transcriptionDetail struct {
	TranscriptionJobName   string `json:"TranscriptionJobName"`
	TranscriptionJobStatus string `json:"TranscriptionJobStatus"`
}

// ParseTranscriptionJobState decodes a transcription job state-change event.
func ParseTranscriptionJobState(e awsevents.CloudWatchEvent) (TranscriptionJobState, error) {
	var detail transcriptionDetail
	if err := json.Unmarshal(e.Detail, &detail); err != nil {
		return TranscriptionJobState{}, fmt.Errorf("decode transcription detail: %w", err)
	}
	if detail.TranscriptionJobName == "" {
		return TranscriptionJobState{}, fmt.Errorf("transcription event: %w: TranscriptionJobName", ErrMissingField)
	}
	return TranscriptionJobState{
		JobName: detail.TranscriptionJobName,
		Status:  detail.TranscriptionJobStatus,
	}, nil
}

// AnalyticsJobState describes an analytics job lifecycle change. The facet is
// carried by the event's detail-type, not the detail payload.
type AnalyticsJobState struct {
	JobID  string
	Status string
	Facet  pipeline.Facet
}

type analyticsDetail struct {
	JobID     string `json:"JobId"`
	JobStatus string `json:"JobStatus"`
}

// ParseAnalyticsJobState decodes an analytics job state-change event.
func ParseAnalyticsJobState(e awsevents.CloudWatchEvent) (AnalyticsJobState, error) {
	var detail analyticsDetail
	if err := json.Unmarshal(e.Detail, &detail); err != nil {
		return AnalyticsJobState{}, fmt.Errorf("decode analytics detail: %w", err)
	}
	if detail.JobID == "" {
		return AnalyticsJobState{}, fmt.Errorf("analytics event: %w: JobId", ErrMissingField)
	}

	facet, err := facetFromDetailType(e.DetailType)
	if err != nil {
		return AnalyticsJobState{}, err
	}
	return AnalyticsJobState{JobID: detail.JobID, Status: detail.JobStatus, Facet: facet}, nil
}

func facetFromDetailType(detailType string) (pipeline.Facet, error) {
	switch {
	case strings.Contains(detailType, "Sentiment"):
		return pipeline.FacetSentiment, nil
	case strings.Contains(detailType, "Entities"):
		return pipeline.FacetEntities, nil
	case strings.Contains(detailType, "Key Phrases"):
		return pipeline.FacetKeyPhrases, nil
	default:
		return "", fmt.Errorf("unknown job type %q", detailType)
	}
}
