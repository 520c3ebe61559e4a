// Package analysis routes a transcript to the inline or job-based analytics
// path based on the text's byte length. The inline path completes a unit in
// one invocation; the job path hands off to three independent async jobs
// whose completions are joined later.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	awsevents "github.com/aws/aws-lambda-go/events"

	"media-insights-backend/internal/comprehend"
	"media-insights-backend/internal/events"
	"media-insights-backend/internal/pipeline"
	"media-insights-backend/internal/shared/config"
	"media-insights-backend/internal/shared/storage/object"
	"media-insights-backend/internal/shared/telemetry"
	"media-insights-backend/internal/transcript"
)

// Handler analyzes transcripts republished into the pipeline namespace.
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

// Handle processes one transcript object-created event.
func (h *Handler) Handle(ctx context.Context, e awsevents.CloudWatchEvent) pipeline.Response {
	obj, err := events.ParseObjectCreated(e)
	if err != nil {
		telemetry.Error("analysis.invalid_event", map[string]any{"error": err.Error()})
		return pipeline.Errorf(http.StatusBadRequest, "invalid event structure")
	}

	telemetry.Info("analysis.received", map[string]any{"bucket": obj.Bucket, "key": obj.Key})

	rc, err := h.Store.Get(ctx, obj.Bucket, obj.Key)
	if err != nil {
		telemetry.Error("analysis.read_failed", map[string]any{"key": obj.Key, "error": err.Error()})
		return pipeline.Errorf(http.StatusNotFound, "failed to read transcription: %s", err)
	}
	doc, err := transcript.Decode(rc)
	rc.Close()
	if err != nil {
		telemetry.Error("analysis.decode_failed", map[string]any{"key": obj.Key, "error": err.Error()})
		return pipeline.Errorf(http.StatusNotFound, "failed to read transcription: %s", err)
	}

	text := doc.Text()
	if text == "" {
		telemetry.Warn("analysis.empty_transcript", map[string]any{"key": obj.Key})
		return pipeline.Errorf(http.StatusBadRequest, "no transcript text found")
	}

	textBytes := len(text)
	id := pipeline.DeriveAnalysisID(obj.Key, h.now())
	sourceURI := object.Ref{Bucket: obj.Bucket, Key: obj.Key}.URI()

	telemetry.Info("analysis.routing", map[string]any{
		"analysis_id": string(id),
		"text_bytes":  textBytes,
		"text_chars":  len([]rune(text)),
		"threshold":   h.Config.SyncLimitBytes,
	})

	if textBytes <= h.Config.SyncLimitBytes {
		return h.analyzeInline(ctx, text, id, sourceURI)
	}
	return h.startJobs(ctx, text, id, sourceURI)
}

// analyzeInline runs all three facets synchronously and writes the aggregate
// directly; completion is total at write time, so no join is needed. Any
// facet failure aborts the unit with nothing persisted.
func (h *Handler) analyzeInline(ctx context.Context, text string, id pipeline.AnalysisID, sourceURI string) pipeline.Response {
	lang := h.Config.LanguageCode

	sentiment, err := h.Analytics.DetectSentiment(ctx, text, lang)
	if err != nil {
		telemetry.Error("analysis.sync_failed", map[string]any{"analysis_id": string(id), "facet": "sentiment", "error": err.Error()})
		return pipeline.Errorf(http.StatusInternalServerError, "synchronous analysis failed: %s", err)
	}
	entities, err := h.Analytics.DetectEntities(ctx, text, lang)
	if err != nil {
		telemetry.Error("analysis.sync_failed", map[string]any{"analysis_id": string(id), "facet": "entities", "error": err.Error()})
		return pipeline.Errorf(http.StatusInternalServerError, "synchronous analysis failed: %s", err)
	}
	phrases, err := h.Analytics.DetectKeyPhrases(ctx, text, lang)
	if err != nil {
		telemetry.Error("analysis.sync_failed", map[string]any{"analysis_id": string(id), "facet": "keyPhrases", "error": err.Error()})
		return pipeline.Errorf(http.StatusInternalServerError, "synchronous analysis failed: %s", err)
	}

	now := h.now()
	aggregate := pipeline.Aggregate{
		AnalysisID:        id,
		TranscriptionFile: sourceURI,
		Timestamp:         pipeline.ISOTimestamp(now),
		AnalysisType:      pipeline.AnalysisTypeSync,
		TextLength:        len([]rune(text)),
		TextBytes:         len(text),
		Sentiment:         mustJSON(sentiment),
		Entities:          mustJSON(map[string]any{"Entities": entities, "Count": len(entities)}),
		KeyPhrases:        mustJSON(map[string]any{"KeyPhrases": phrases, "Count": len(phrases)}),
		Metadata: mustJSON(map[string]string{
			"languageCode":        lang,
			"processingTimestamp": pipeline.ISOTimestamp(now),
		}),
	}

	payload, err := json.MarshalIndent(aggregate, "", "  ")
	if err != nil {
		return pipeline.Errorf(http.StatusInternalServerError, "synchronous analysis failed: %s", err)
	}

	outputKey := pipeline.AggregateKey(h.Config.SentimentPrefix, id)
	meta := map[string]string{
		"analysis-id":      string(id),
		"sentiment":        sentiment.Sentiment,
		"entity-count":     strconv.Itoa(len(entities)),
		"key-phrase-count": strconv.Itoa(len(phrases)),
		"analysis-type":    pipeline.AnalysisTypeSync,
	}
	if err := h.Store.Put(ctx, h.Config.Bucket, outputKey, "application/json", bytes.NewReader(payload), meta); err != nil {
		telemetry.Error("analysis.aggregate_write_failed", map[string]any{"analysis_id": string(id), "error": err.Error()})
		return pipeline.Errorf(http.StatusInternalServerError, "synchronous analysis failed: %s", err)
	}

	outputURI := object.Ref{Bucket: h.Config.Bucket, Key: outputKey}.URI()
	telemetry.Info("analysis.sync_completed", map[string]any{
		"analysis_id":      string(id),
		"output":           outputURI,
		"sentiment":        sentiment.Sentiment,
		"entity_count":     len(entities),
		"key_phrase_count": len(phrases),
	})

	return pipeline.JSON(http.StatusOK, map[string]any{
		"message":        "Synchronous analysis completed successfully",
		"analysisId":     string(id),
		"outputLocation": outputURI,
		"sentiment":      sentiment.Sentiment,
		"entityCount":    len(entities),
		"keyPhraseCount": len(phrases),
	})
}

// startJobs stages the text as an object and starts one async job per facet.
// A facet whose job fails to start is logged and omitted from the metadata;
// the join will then never observe three markers and the unit stalls
// permanently. Accepted terminal failure mode.
func (h *Handler) startJobs(ctx context.Context, text string, id pipeline.AnalysisID, sourceURI string) pipeline.Response {
	inputKey := pipeline.InputKey(id)
	if err := h.Store.Put(ctx, h.Config.Bucket, inputKey, "text/plain", strings.NewReader(text), nil); err != nil {
		telemetry.Error("analysis.stage_text_failed", map[string]any{"analysis_id": string(id), "error": err.Error()})
		return pipeline.Errorf(http.StatusInternalServerError, "asynchronous analysis failed: %s", err)
	}

	inputURI := object.Ref{Bucket: h.Config.Bucket, Key: inputKey}.URI()
	outputURI := object.Ref{Bucket: h.Config.Bucket, Key: pipeline.OutputPrefix(id)}.URI()
	telemetry.Info("analysis.staged_text", map[string]any{"analysis_id": string(id), "input": inputURI})

	jobIDs := map[string]string{}
	for _, facet := range pipeline.Facets() {
		jobName := pipeline.JobName(facet, id)
		jobID, err := h.Analytics.StartJob(ctx, facet, comprehend.StartJobInput{
			JobName:           jobName,
			InputURI:          inputURI,
			OutputURI:         outputURI,
			DataAccessRoleARN: h.Config.ComprehendRoleARN,
			LanguageCode:      h.Config.BaseLanguage(),
		})
		if err != nil {
			telemetry.Error("analysis.start_job_failed", map[string]any{
				"analysis_id": string(id),
				"facet":       string(facet),
				"job_name":    jobName,
				"error":       err.Error(),
			})
			continue
		}
		jobIDs[string(facet)] = jobID
		telemetry.Info("analysis.job_started", map[string]any{
			"analysis_id": string(id),
			"facet":       string(facet),
			"job_name":    jobName,
			"job_id":      jobID,
		})
	}

	metadata := pipeline.Metadata{
		AnalysisID:        string(id),
		TranscriptionFile: sourceURI,
		Timestamp:         pipeline.ISOTimestamp(h.now()),
		AnalysisType:      pipeline.AnalysisTypeAsync,
		TextLength:        len([]rune(text)),
		TextBytes:         len(text),
		InputLocation:     inputURI,
		OutputLocation:    outputURI,
		JobIDs:            jobIDs,
		Status:            pipeline.StatusInProgress,
	}
	payload, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return pipeline.Errorf(http.StatusInternalServerError, "asynchronous analysis failed: %s", err)
	}

	metadataKey := pipeline.MetadataKey(h.Config.SentimentPrefix, id)
	if err := h.Store.Put(ctx, h.Config.Bucket, metadataKey, "application/json", bytes.NewReader(payload), nil); err != nil {
		telemetry.Error("analysis.metadata_write_failed", map[string]any{"analysis_id": string(id), "error": err.Error()})
		return pipeline.Errorf(http.StatusInternalServerError, "asynchronous analysis failed: %s", err)
	}

	metadataURI := object.Ref{Bucket: h.Config.Bucket, Key: metadataKey}.URI()
	telemetry.Info("analysis.async_accepted", map[string]any{
		"analysis_id": string(id),
		"job_count":   len(jobIDs),
		"metadata":    metadataURI,
	})

	return pipeline.JSON(http.StatusAccepted, map[string]any{
		"message":          "Asynchronous analysis jobs started successfully",
		"analysisId":       string(id),
		"jobIds":           jobIDs,
		"metadataLocation": metadataURI,
		"status":           pipeline.StatusInProgress,
	})
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(fmt.Sprintf("%q", err.Error()))
	}
	return data
}
