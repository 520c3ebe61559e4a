package pipeline

import (
	"testing"
	"time"
)

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestJobNameRoundTrip(t *testing.T) {
	t.Parallel()

	id := AnalysisID("episode1-20240101-120000")
	for _, f := range Facets() {
		name := JobName(f, id)
		gotFacet, gotID, err := ParseJobName(name)
		if err != nil {
			t.Fatalf("ParseJobName(%q): %v", name, err)
		}
		if gotFacet != f || gotID != id {
			t.Fatalf("ParseJobName(%q) = %v, %v; want %v, %v", name, gotFacet, gotID, f, id)
		}
	}
}

func TestJobNamePrefixes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		facet Facet
		want  string
	}{
		{facet: FacetSentiment, want: "sentiment-ep1"},
		{facet: FacetEntities, want: "entities-ep1"},
		{facet: FacetKeyPhrases, want: "key-phrases-ep1"},
	}
	for _, tt := range tests {
		if got := JobName(tt.facet, "ep1"); got != tt.want {
			t.Fatalf("JobName(%v) = %q, want %q", tt.facet, got, tt.want)
		}
	}
}

func TestParseJobNameRejectsUnknown(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "topics-ep1", "sentiment-", "ep1"} {
		if _, _, err := ParseJobName(name); err == nil {
			t.Fatalf("ParseJobName(%q) expected error", name)
		}
	}
}

func TestMarkerKeyUsesFlatKeyPhrasesSlug(t *testing.T) {
	t.Parallel()

	id := AnalysisID("ep1-20240101-120000")
	tests := []struct {
		facet Facet
		want  string
	}{
		{facet: FacetSentiment, want: "sentiment/ep1-20240101-120000-sentiment-result.json"},
		{facet: FacetEntities, want: "sentiment/ep1-20240101-120000-entities-result.json"},
		{facet: FacetKeyPhrases, want: "sentiment/ep1-20240101-120000-keyphrases-result.json"},
	}
	for _, tt := range tests {
		if got := MarkerKey("sentiment/", id, tt.facet); got != tt.want {
			t.Fatalf("MarkerKey(%v) = %q, want %q", tt.facet, got, tt.want)
		}
	}
}

func TestKeyLayout(t *testing.T) {
	t.Parallel()

	id := AnalysisID("ep1-20240101-120000")
	if got, want := MetadataKey("sentiment/", id), "sentiment/ep1-20240101-120000-metadata.json"; got != want {
		t.Fatalf("MetadataKey = %q, want %q", got, want)
	}
	if got, want := AggregateKey("sentiment/", id), "sentiment/ep1-20240101-120000-analysis.json"; got != want {
		t.Fatalf("AggregateKey = %q, want %q", got, want)
	}
	if got, want := InputKey(id), "comprehend-input/ep1-20240101-120000.txt"; got != want {
		t.Fatalf("InputKey = %q, want %q", got, want)
	}
	if got, want := OutputPrefix(id), "comprehend-output/ep1-20240101-120000/"; got != want {
		t.Fatalf("OutputPrefix = %q, want %q", got, want)
	}
	if got, want := TranscriptKey("yerttle-episode1-20240101-120000"), "transcriptions/yerttle-episode1-20240101-120000.json"; got != want {
		t.Fatalf("TranscriptKey = %q, want %q", got, want)
	}
}

func TestDeriveAnalysisID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		want AnalysisID
	}{
		{name: "nested key", key: "transcriptions/episode1.json", want: "episode1-20240101-120000"},
		{name: "flat key", key: "episode1.json", want: "episode1-20240101-120000"},
		{name: "no extension", key: "episode1", want: "episode1-20240101-120000"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DeriveAnalysisID(tt.key, testNow); got != tt.want {
				t.Fatalf("DeriveAnalysisID(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestTranscriptionJobName(t *testing.T) {
	t.Parallel()

	got := TranscriptionJobName("yerttle", "uploads/episode1.m4a", testNow)
	if want := "yerttle-episode1-20240101-120000"; got != want {
		t.Fatalf("TranscriptionJobName = %q, want %q", got, want)
	}
}

func TestTranscriptionOutputKey(t *testing.T) {
	t.Parallel()

	got := TranscriptionOutputKey("uploads/episode1.m4a", testNow)
	if want := "transcriptions/episode1-20240101-120000.json"; got != want {
		t.Fatalf("TranscriptionOutputKey = %q, want %q", got, want)
	}
}
