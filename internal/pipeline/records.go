package pipeline

import (
	"encoding/json"
	"time"
)

const (
	// AnalysisTypeSync marks aggregates produced by the inline path.
	AnalysisTypeSync = "synchronous"
	// AnalysisTypeAsync marks aggregates produced by the job path.
	AnalysisTypeAsync = "asynchronous"

	// StatusInProgress is the metadata status written at job-start time. The
	// record is never updated afterwards; completion is inferred from the
	// marker objects.
	StatusInProgress = "IN_PROGRESS"
)

// Metadata is the per-unit record written when the async jobs are started
// and read back at aggregation time. Immutable after creation.
type Metadata struct {
	AnalysisID        string            `json:"analysisId"`
	TranscriptionFile string            `json:"transcriptionFile"`
	Timestamp         string            `json:"timestamp"`
	AnalysisType      string            `json:"analysisType"`
	TextLength        int               `json:"textLength"`
	TextBytes         int               `json:"textBytes"`
	InputLocation     string            `json:"inputLocation"`
	OutputLocation    string            `json:"outputLocation"`
	JobIDs            map[string]string `json:"jobIds"`
	Status            string            `json:"status"`
}

// Aggregate is the terminal artifact of a unit: the union of the three facet
// results plus unit metadata. The facet payloads are raw JSON because the
// inline and job paths produce differently shaped results.
type Aggregate struct {
	AnalysisID        AnalysisID      `json:"analysisId"`
	TranscriptionFile string          `json:"transcriptionFile"`
	Timestamp         string          `json:"timestamp"`
	AnalysisType      string          `json:"analysisType"`
	TextLength        int             `json:"textLength"`
	TextBytes         int             `json:"textBytes"`
	Sentiment         json.RawMessage `json:"sentiment"`
	Entities          json.RawMessage `json:"entities"`
	KeyPhrases        json.RawMessage `json:"keyPhrases"`
	Metadata          json.RawMessage `json:"metadata,omitempty"`
}

// ISOTimestamp renders t the way record timestamps are stored.
func ISOTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05") + "Z"
}
