// Package join is the synchronization core of the pipeline: a storage-backed
// barrier over the three per-facet result markers, re-derived from store
// state on every invocation. There is no shared in-memory state and no lock;
// two concurrent completions may both observe a full barrier and both write
// the aggregate. The write is idempotent in content, so the duplicate is
// harmless and deliberately not suppressed.
package join

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	awsevents "github.com/aws/aws-lambda-go/events"

	"media-insights-backend/internal/comprehend"
	"media-insights-backend/internal/events"
	"media-insights-backend/internal/pipeline"
	"media-insights-backend/internal/shared/config"
	"media-insights-backend/internal/shared/storage/object"
	"media-insights-backend/internal/shared/telemetry"
)

// Handler processes analytics job completion events.
type Handler struct {
	Store     object.Store
	Analytics comprehend.Client
	Config    config.Config
	Now       func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

var facetLabels = map[pipeline.Facet]string{
	pipeline.FacetSentiment:  "Sentiment",
	pipeline.FacetEntities:   "Entities",
	pipeline.FacetKeyPhrases: "Key phrases",
}

// Handle persists the completed job's normalized result, then re-evaluates
// the barrier for its analysis unit.
func (h *Handler) Handle(ctx context.Context, e awsevents.CloudWatchEvent) pipeline.Response {
	job, err := events.ParseAnalyticsJobState(e)
	if err != nil {
		telemetry.Error("join.invalid_event", map[string]any{"error": err.Error()})
		return pipeline.Errorf(http.StatusBadRequest, "invalid event structure")
	}

	telemetry.Info("join.received", map[string]any{
		"job_id": job.JobID,
		"status": job.Status,
		"facet":  string(job.Facet),
	})

	if job.Status != events.StatusCompleted {
		telemetry.Warn("join.skipped", map[string]any{"job_id": job.JobID, "status": job.Status})
		return pipeline.JSON(http.StatusOK, map[string]any{
			"message": "Job status is " + job.Status + ", no action taken",
			"jobId":   job.JobID,
		})
	}

	props, err := h.Analytics.DescribeJob(ctx, job.Facet, job.JobID)
	if err != nil {
		telemetry.Error("join.describe_failed", map[string]any{"job_id": job.JobID, "error": err.Error()})
		return pipeline.Errorf(http.StatusInternalServerError, "failed to describe job: %s", err)
	}

	facet, id, err := pipeline.ParseJobName(props.JobName)
	if err != nil {
		telemetry.Error("join.unknown_job_name", map[string]any{"job_name": props.JobName, "error": err.Error()})
		return pipeline.Errorf(http.StatusBadRequest, "unrecognized job name: %s", props.JobName)
	}

	result := readJobOutput(ctx, h.Store, props.OutputURI)

	markerKey := pipeline.MarkerKey(h.Config.SentimentPrefix, id, facet)
	if err := h.Store.Put(ctx, h.Config.Bucket, markerKey, "application/json", bytes.NewReader(result), nil); err != nil {
		telemetry.Error("join.marker_write_failed", map[string]any{"key": markerKey, "error": err.Error()})
		return pipeline.Errorf(http.StatusInternalServerError, "failed to persist result: %s", err)
	}
	markerURI := object.Ref{Bucket: h.Config.Bucket, Key: markerKey}.URI()
	telemetry.Info("join.marker_written", map[string]any{"analysis_id": string(id), "facet": string(facet), "key": markerKey})

	aggregated, err := h.aggregateIfComplete(ctx, id)
	if err != nil {
		telemetry.Warn("join.aggregation_failed", map[string]any{"analysis_id": string(id), "error": err.Error()})
		aggregated = false
	}

	return pipeline.JSON(http.StatusOK, map[string]any{
		"message":        facetLabels[facet] + " job processed successfully",
		"jobId":          job.JobID,
		"jobName":        props.JobName,
		"analysisId":     string(id),
		"outputLocation": markerURI,
		"aggregated":     aggregated,
	})
}

// aggregateIfComplete probes all three marker keys and, when every one
// exists, unions their contents with the metadata record into the terminal
// aggregate. The probe runs after every completion regardless of arrival
// order. Returns false with nil error when the barrier is not yet full.
func (h *Handler) aggregateIfComplete(ctx context.Context, id pipeline.AnalysisID) (bool, error) {
	present := map[pipeline.Facet]bool{}
	for _, facet := range pipeline.Facets() {
		ok, err := h.Store.Exists(ctx, h.Config.Bucket, pipeline.MarkerKey(h.Config.SentimentPrefix, id, facet))
		if err != nil {
			return false, err
		}
		present[facet] = ok
	}

	telemetry.Info("join.barrier_state", map[string]any{
		"analysis_id": string(id),
		"sentiment":   present[pipeline.FacetSentiment],
		"entities":    present[pipeline.FacetEntities],
		"key_phrases": present[pipeline.FacetKeyPhrases],
	})
	for _, facet := range pipeline.Facets() {
		if !present[facet] {
			return false, nil
		}
	}

	facetData := map[pipeline.Facet]json.RawMessage{}
	for _, facet := range pipeline.Facets() {
		data, err := object.ReadAll(ctx, h.Store, h.Config.Bucket, pipeline.MarkerKey(h.Config.SentimentPrefix, id, facet))
		if err != nil {
			return false, err
		}
		facetData[facet] = data
	}

	var md pipeline.Metadata
	var mdRaw json.RawMessage
	metadataKey := pipeline.MetadataKey(h.Config.SentimentPrefix, id)
	if ok, err := h.Store.Exists(ctx, h.Config.Bucket, metadataKey); err != nil {
		return false, err
	} else if ok {
		data, err := object.ReadAll(ctx, h.Store, h.Config.Bucket, metadataKey)
		if err != nil {
			return false, err
		}
		if err := json.Unmarshal(data, &md); err != nil {
			return false, err
		}
		mdRaw = data
	}

	aggregate := pipeline.Aggregate{
		AnalysisID:        id,
		TranscriptionFile: md.TranscriptionFile,
		Timestamp:         pipeline.ISOTimestamp(h.now()),
		AnalysisType:      pipeline.AnalysisTypeAsync,
		TextLength:        md.TextLength,
		TextBytes:         md.TextBytes,
		Sentiment:         facetData[pipeline.FacetSentiment],
		Entities:          facetData[pipeline.FacetEntities],
		KeyPhrases:        facetData[pipeline.FacetKeyPhrases],
		Metadata:          mdRaw,
	}
	payload, err := json.MarshalIndent(aggregate, "", "  ")
	if err != nil {
		return false, err
	}

	outputKey := pipeline.AggregateKey(h.Config.SentimentPrefix, id)
	meta := map[string]string{
		"analysis-id":   string(id),
		"analysis-type": pipeline.AnalysisTypeAsync,
		"status":        "COMPLETED",
	}
	if err := h.Store.Put(ctx, h.Config.Bucket, outputKey, "application/json", bytes.NewReader(payload), meta); err != nil {
		return false, err
	}

	telemetry.Info("join.aggregated", map[string]any{
		"analysis_id": string(id),
		"output":      object.Ref{Bucket: h.Config.Bucket, Key: outputKey}.URI(),
	})
	return true, nil
}
