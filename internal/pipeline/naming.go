package pipeline

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// AnalysisID correlates every store object belonging to one unit of work.
// It is derived from the seeding object's base name plus a UTC timestamp with
// seconds resolution; two units seeded from the same base name within the
// same second collide. Known edge case, not defended against.
type AnalysisID string

func (id AnalysisID) String() string { return string(id) }

// Facet is one of the three analytical result types.
type Facet string

const (
	FacetSentiment  Facet = "sentiment"
	FacetEntities   Facet = "entities"
	FacetKeyPhrases Facet = "keyPhrases"
)

// Facets returns all facets in a fixed order.
func Facets() [3]Facet {
	return [3]Facet{FacetSentiment, FacetEntities, FacetKeyPhrases}
}

// JobNamePrefix is the facet-specific prefix embedded in async job names.
func (f Facet) JobNamePrefix() string {
	switch f {
	case FacetKeyPhrases:
		return "key-phrases-"
	default:
		return string(f) + "-"
	}
}

// markerSlug is the facet spelling used in result-marker keys. It differs
// from the job-name prefix for key phrases; both spellings are inherited
// from the store layout and frozen.
func (f Facet) markerSlug() string {
	switch f {
	case FacetKeyPhrases:
		return "keyphrases"
	default:
		return string(f)
	}
}

// JobName encodes the facet and analysis id into an async job name.
func JobName(f Facet, id AnalysisID) string {
	return f.JobNamePrefix() + string(id)
}

// ParseJobName recovers the facet and analysis id from an async job name.
func ParseJobName(name string) (Facet, AnalysisID, error) {
	for _, f := range Facets() {
		if rest, ok := strings.CutPrefix(name, f.JobNamePrefix()); ok && rest != "" {
			return f, AnalysisID(rest), nil
		}
	}
	return "", "", fmt.Errorf("job name %q does not encode a facet", name)
}

// Timestamp renders t in the naming convention used across job and analysis
// identifiers.
func Timestamp(t time.Time) string {
	return t.UTC().Format("20060102-150405")
}

// BaseName strips the directory and extension from an object key.
func BaseName(key string) string {
	base := path.Base(key)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// DeriveAnalysisID builds the analysis id for a unit seeded by the given
// object key at the given time.
func DeriveAnalysisID(key string, now time.Time) AnalysisID {
	return AnalysisID(BaseName(key) + "-" + Timestamp(now))
}

// TranscriptionJobName builds the transcription job name for an uploaded
// audio object.
func TranscriptionJobName(prefix, key string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, BaseName(key), Timestamp(now))
}

// TranscriptKey is where the relay republishes a finished transcript, and
// what the transcription engine is told to write its own output to.
func TranscriptKey(jobName string) string {
	return "transcriptions/" + jobName + ".json"
}

// TranscriptionOutputKey is the output name handed to the transcription
// engine at job start, derived from the audio base name and timestamp.
func TranscriptionOutputKey(key string, now time.Time) string {
	return fmt.Sprintf("transcriptions/%s-%s.json", BaseName(key), Timestamp(now))
}

// MarkerKey is the per-facet result marker. Its existence drives the join.
func MarkerKey(prefix string, id AnalysisID, f Facet) string {
	return fmt.Sprintf("%s%s-%s-result.json", prefix, id, f.markerSlug())
}

// MetadataKey is the async metadata record for a unit.
func MetadataKey(prefix string, id AnalysisID) string {
	return fmt.Sprintf("%s%s-metadata.json", prefix, id)
}

// AggregateKey is the terminal aggregate artifact for a unit.
func AggregateKey(prefix string, id AnalysisID) string {
	return fmt.Sprintf("%s%s-analysis.json", prefix, id)
}

// InputKey is the staged text object consumed by async analytics jobs.
func InputKey(id AnalysisID) string {
	return fmt.Sprintf("comprehend-input/%s.txt", id)
}

// OutputPrefix is the engine-owned prefix async job output lands under.
func OutputPrefix(id AnalysisID) string {
	return fmt.Sprintf("comprehend-output/%s/", id)
}
