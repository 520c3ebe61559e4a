package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	awsevents "github.com/aws/aws-lambda-go/events"

	"media-insights-backend/internal/comprehend"
	"media-insights-backend/internal/pipeline"
	"media-insights-backend/internal/shared/config"
	"media-insights-backend/internal/shared/storage/object"
	"media-insights-backend/internal/shared/storage/object/memory"
)

type fakeAnalytics struct {
	detectErr  error
	startErrOn pipeline.Facet
	started    []comprehend.StartJobInput
	jobCounter int
}

func (f *fakeAnalytics) DetectSentiment(ctx context.Context, text, lang string) (comprehend.SentimentResult, error) {
	if f.detectErr != nil {
		return comprehend.SentimentResult{}, f.detectErr
	}
	return comprehend.SentimentResult{
		Sentiment:      "POSITIVE",
		SentimentScore: comprehend.SentimentScore{Positive: 0.93, Neutral: 0.05, Negative: 0.01, Mixed: 0.01},
	}, nil
}

func (f *fakeAnalytics) DetectEntities(ctx context.Context, text, lang string) ([]comprehend.Entity, error) {
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	return []comprehend.Entity{
		{Text: "Seattle", Type: "LOCATION", Score: 0.99},
		{Text: "Monday", Type: "DATE", Score: 0.97},
	}, nil
}

func (f *fakeAnalytics) DetectKeyPhrases(ctx context.Context, text, lang string) ([]comprehend.KeyPhrase, error) {
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	return []comprehend.KeyPhrase{{Text: "a walking tour", Score: 0.98}}, nil
}

func (f *fakeAnalytics) StartJob(ctx context.Context, facet pipeline.Facet, in comprehend.StartJobInput) (string, error) {
	if facet == f.startErrOn {
		return "", errors.New("quota exceeded")
	}
	f.started = append(f.started, in)
	f.jobCounter++
	return "job-" + strconv.Itoa(f.jobCounter), nil
}

func (f *fakeAnalytics) DescribeJob(ctx context.Context, facet pipeline.Facet, jobID string) (comprehend.JobProperties, error) {
	return comprehend.JobProperties{}, errors.New("not implemented")
}

func testConfig() config.Config {
	return config.Config{
		Bucket:            "yerttle-tours",
		LanguageCode:      "en-US",
		SentimentPrefix:   "sentiment/",
		SyncLimitBytes:    100,
		ComprehendRoleARN: "arn:aws:iam::123456789012:role/comprehend-access",
	}
}

func fixedNow() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func newHandler(t *testing.T, ca *fakeAnalytics) (*Handler, *memory.Store) {
	t.Helper()
	store := memory.New()
	return &Handler{Store: store, Analytics: ca, Config: testConfig(), Now: fixedNow}, store
}

func seedTranscript(t *testing.T, store *memory.Store, key, text string) {
	t.Helper()
	doc := map[string]any{
		"jobName": "yerttle-episode1-20240101-113000",
		"status":  "COMPLETED",
		"results": map[string]any{
			"transcripts": []map[string]string{{"transcript": text}},
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal transcript: %v", err)
	}
	if err := store.Put(context.Background(), "yerttle-tours", key, "application/json", strings.NewReader(string(data)), nil); err != nil {
		t.Fatalf("seed store: %v", err)
	}
}

func objectCreated(bucket, key string) awsevents.CloudWatchEvent {
	detail := `{"bucket":{"name":"` + bucket + `"},"object":{"key":"` + key + `"}}`
	return awsevents.CloudWatchEvent{DetailType: "Object Created", Detail: json.RawMessage(detail)}
}

const transcriptKey = "transcriptions/episode1-20240101-113000.json"

func TestInlinePathWritesAggregate(t *testing.T) {
	t.Parallel()

	ca := &fakeAnalytics{}
	h, store := newHandler(t, ca)
	seedTranscript(t, store, transcriptKey, "A short tour recap.")

	resp := h.Handle(context.Background(), objectCreated("yerttle-tours", transcriptKey))
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, resp.Body)
	}
	if len(ca.started) != 0 {
		t.Fatalf("started %d async jobs, want 0", len(ca.started))
	}

	id := pipeline.DeriveAnalysisID(transcriptKey, fixedNow())
	data, err := object.ReadAll(context.Background(), store, "yerttle-tours", pipeline.AggregateKey("sentiment/", id))
	if err != nil {
		t.Fatalf("read aggregate: %v", err)
	}

	var agg pipeline.Aggregate
	if err := json.Unmarshal(data, &agg); err != nil {
		t.Fatalf("decode aggregate: %v", err)
	}
	if agg.AnalysisType != "synchronous" {
		t.Fatalf("analysis type = %q", agg.AnalysisType)
	}
	if agg.TextBytes != len("A short tour recap.") {
		t.Fatalf("text bytes = %d", agg.TextBytes)
	}
	if agg.TranscriptionFile != "s3://yerttle-tours/"+transcriptKey {
		t.Fatalf("transcription file = %q", agg.TranscriptionFile)
	}

	var sentiment comprehend.SentimentResult
	if err := json.Unmarshal(agg.Sentiment, &sentiment); err != nil {
		t.Fatalf("decode sentiment: %v", err)
	}
	if sentiment.Sentiment != "POSITIVE" {
		t.Fatalf("sentiment = %q", sentiment.Sentiment)
	}

	meta, ok := store.Metadata("yerttle-tours", pipeline.AggregateKey("sentiment/", id))
	if !ok {
		t.Fatal("aggregate has no object metadata")
	}
	if meta["analysis-type"] != "synchronous" || meta["sentiment"] != "POSITIVE" {
		t.Fatalf("object metadata = %v", meta)
	}
	if meta["entity-count"] != "2" || meta["key-phrase-count"] != "1" {
		t.Fatalf("object metadata = %v", meta)
	}

	// The inline path must not leave any job-path artifacts behind.
	if ok, _ := store.Exists(context.Background(), "yerttle-tours", pipeline.InputKey(id)); ok {
		t.Fatal("staged text written on inline path")
	}
	if ok, _ := store.Exists(context.Background(), "yerttle-tours", pipeline.MetadataKey("sentiment/", id)); ok {
		t.Fatal("metadata record written on inline path")
	}
}

func TestInlinePathAtExactThreshold(t *testing.T) {
	t.Parallel()

	ca := &fakeAnalytics{}
	h, store := newHandler(t, ca)
	seedTranscript(t, store, transcriptKey, strings.Repeat("a", 100))

	resp := h.Handle(context.Background(), objectCreated("yerttle-tours", transcriptKey))
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, resp.Body)
	}
	if len(ca.started) != 0 {
		t.Fatalf("started %d async jobs, want 0", len(ca.started))
	}
}

func TestJobPathStartsThreeJobs(t *testing.T) {
	t.Parallel()

	ca := &fakeAnalytics{}
	h, store := newHandler(t, ca)
	seedTranscript(t, store, transcriptKey, strings.Repeat("a", 101))

	resp := h.Handle(context.Background(), objectCreated("yerttle-tours", transcriptKey))
	if resp.StatusCode != 202 {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, resp.Body)
	}
	if len(ca.started) != 3 {
		t.Fatalf("started %d jobs, want 3", len(ca.started))
	}

	id := pipeline.DeriveAnalysisID(transcriptKey, fixedNow())
	wantNames := []string{
		"sentiment-" + string(id),
		"entities-" + string(id),
		"key-phrases-" + string(id),
	}
	for i, in := range ca.started {
		if in.JobName != wantNames[i] {
			t.Fatalf("job %d name = %q, want %q", i, in.JobName, wantNames[i])
		}
		if in.InputURI != "s3://yerttle-tours/"+pipeline.InputKey(id) {
			t.Fatalf("job %d input = %q", i, in.InputURI)
		}
		if in.OutputURI != "s3://yerttle-tours/"+pipeline.OutputPrefix(id) {
			t.Fatalf("job %d output = %q", i, in.OutputURI)
		}
		if in.LanguageCode != "en" {
			t.Fatalf("job %d language = %q, want base code", i, in.LanguageCode)
		}
	}

	staged, err := object.ReadAll(context.Background(), store, "yerttle-tours", pipeline.InputKey(id))
	if err != nil {
		t.Fatalf("read staged text: %v", err)
	}
	if string(staged) != strings.Repeat("a", 101) {
		t.Fatalf("staged text length = %d", len(staged))
	}

	data, err := object.ReadAll(context.Background(), store, "yerttle-tours", pipeline.MetadataKey("sentiment/", id))
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	var md pipeline.Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if md.Status != "IN_PROGRESS" || md.AnalysisType != "asynchronous" {
		t.Fatalf("metadata = %+v", md)
	}
	if len(md.JobIDs) != 3 {
		t.Fatalf("job ids = %v", md.JobIDs)
	}
	for _, facet := range []string{"sentiment", "entities", "keyPhrases"} {
		if md.JobIDs[facet] == "" {
			t.Fatalf("missing job id for %s: %v", facet, md.JobIDs)
		}
	}
}

func TestJobPathOmitsFailedFacet(t *testing.T) {
	t.Parallel()

	ca := &fakeAnalytics{startErrOn: pipeline.FacetEntities}
	h, store := newHandler(t, ca)
	seedTranscript(t, store, transcriptKey, strings.Repeat("a", 101))

	resp := h.Handle(context.Background(), objectCreated("yerttle-tours", transcriptKey))
	if resp.StatusCode != 202 {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, resp.Body)
	}
	if len(ca.started) != 2 {
		t.Fatalf("started %d jobs, want 2", len(ca.started))
	}

	id := pipeline.DeriveAnalysisID(transcriptKey, fixedNow())
	data, err := object.ReadAll(context.Background(), store, "yerttle-tours", pipeline.MetadataKey("sentiment/", id))
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	var md pipeline.Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if _, ok := md.JobIDs["entities"]; ok {
		t.Fatalf("failed facet present in job ids: %v", md.JobIDs)
	}
	if md.JobIDs["sentiment"] == "" || md.JobIDs["keyPhrases"] == "" {
		t.Fatalf("job ids = %v", md.JobIDs)
	}
}

func TestEmptyTranscriptRejected(t *testing.T) {
	t.Parallel()

	ca := &fakeAnalytics{}
	h, store := newHandler(t, ca)
	seedTranscript(t, store, transcriptKey, "")

	resp := h.Handle(context.Background(), objectCreated("yerttle-tours", transcriptKey))
	if resp.StatusCode != 400 {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, resp.Body)
	}
	if len(ca.started) != 0 {
		t.Fatalf("started %d jobs, want 0", len(ca.started))
	}

	keys, err := store.List(context.Background(), "yerttle-tours", "sentiment/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("wrote %v on rejected input", keys)
	}
}

func TestMissingTranscriptObject(t *testing.T) {
	t.Parallel()

	ca := &fakeAnalytics{}
	h, _ := newHandler(t, ca)

	resp := h.Handle(context.Background(), objectCreated("yerttle-tours", transcriptKey))
	if resp.StatusCode != 404 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestSyncDetectFailureWritesNothing(t *testing.T) {
	t.Parallel()

	ca := &fakeAnalytics{detectErr: errors.New("throttled")}
	h, store := newHandler(t, ca)
	seedTranscript(t, store, transcriptKey, "A short tour recap.")

	resp := h.Handle(context.Background(), objectCreated("yerttle-tours", transcriptKey))
	if resp.StatusCode != 500 {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, resp.Body)
	}

	keys, err := store.List(context.Background(), "yerttle-tours", "sentiment/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("wrote %v on failed analysis", keys)
	}
}
