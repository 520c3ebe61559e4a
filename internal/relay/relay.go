// Package relay republishes finished transcripts into the pipeline's own
// namespace. The republished object is the trigger for analysis, decoupling
// "transcription finished" from "analysis should start": the analysis stage
// only ever reacts to objects this pipeline controls.
package relay

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	awsevents "github.com/aws/aws-lambda-go/events"

	"media-insights-backend/internal/events"
	"media-insights-backend/internal/pipeline"
	"media-insights-backend/internal/shared/config"
	"media-insights-backend/internal/shared/storage/object"
	"media-insights-backend/internal/shared/telemetry"
	"media-insights-backend/internal/transcribe"
	"media-insights-backend/internal/transcript"
)

// Handler copies a completed job's transcript document into the pipeline
// bucket.
type Handler struct {
	Store      object.Store
	Transcribe transcribe.Client
	Config     config.Config
}

// Handle processes one transcription job state-change event.
func (h *Handler) Handle(ctx context.Context, e awsevents.CloudWatchEvent) pipeline.Response {
	state, err := events.ParseTranscriptionJobState(e)
	if err != nil {
		telemetry.Error("relay.invalid_event", map[string]any{"error": err.Error()})
		return pipeline.Errorf(http.StatusBadRequest, "invalid event structure")
	}

	telemetry.Info("relay.received", map[string]any{"job_name": state.JobName, "status": state.Status})

	// Anything but a successful completion is a deliberate no-op.
	if state.Status != events.StatusCompleted {
		telemetry.Warn("relay.skipping", map[string]any{"job_name": state.JobName, "status": state.Status})
		return pipeline.JSON(http.StatusOK, map[string]any{
			"message": fmt.Sprintf("Job status is %s, no action taken", state.Status),
			"jobName": state.JobName,
		})
	}

	// The event payload may omit the transcript location; ask the engine.
	job, err := h.Transcribe.GetJob(ctx, state.JobName)
	if err != nil {
		telemetry.Error("relay.get_job_failed", map[string]any{"job_name": state.JobName, "error": err.Error()})
		return pipeline.Errorf(http.StatusInternalServerError, "internal error: %s", err)
	}
	if job.TranscriptURI == "" {
		telemetry.Error("relay.no_transcript_uri", map[string]any{"job_name": state.JobName})
		return pipeline.Errorf(http.StatusNotFound, "transcript file URI not found")
	}

	ref, err := object.ParseURI(job.TranscriptURI)
	if err != nil {
		telemetry.Error("relay.bad_transcript_uri", map[string]any{"uri": job.TranscriptURI, "error": err.Error()})
		return pipeline.Errorf(http.StatusInternalServerError, "internal error: %s", err)
	}

	size, err := h.Store.Head(ctx, ref.Bucket, ref.Key)
	if err != nil {
		telemetry.Error("relay.transcript_missing", map[string]any{"uri": ref.URI(), "error": err.Error()})
		return pipeline.Errorf(http.StatusNotFound, "transcript file not found: %s", err)
	}
	telemetry.Info("relay.transcript_located", map[string]any{"uri": ref.URI(), "size_bytes": size})

	raw, err := object.ReadAll(ctx, h.Store, ref.Bucket, ref.Key)
	if err != nil {
		// The transcription itself completed; report success with the
		// read failure surfaced.
		telemetry.Error("relay.read_failed", map[string]any{"uri": ref.URI(), "error": err.Error()})
		return pipeline.JSON(http.StatusOK, map[string]any{
			"message":            "Transcription completed but content read failed",
			"jobName":            state.JobName,
			"transcriptLocation": ref.URI(),
			"error":              err.Error(),
		})
	}

	wordCount := 0
	if doc, decodeErr := transcript.Decode(bytes.NewReader(raw)); decodeErr != nil {
		telemetry.Warn("relay.decode_failed", map[string]any{"uri": ref.URI(), "error": decodeErr.Error()})
	} else {
		wordCount = doc.WordCount()
		telemetry.Info("relay.transcript_summary", map[string]any{
			"job_name":   state.JobName,
			"media_uri":  job.MediaURI,
			"word_count": wordCount,
			"preview":    doc.Preview(200),
		})
	}

	// Republish verbatim into our namespace; this copy triggers analysis.
	destKey := pipeline.TranscriptKey(state.JobName)
	copied := object.Ref{Bucket: h.Config.Bucket, Key: destKey}
	body := map[string]any{
		"message":            "Transcription processed successfully",
		"jobName":            state.JobName,
		"transcriptLocation": ref.URI(),
		"mediaUri":           job.MediaURI,
		"wordCount":          wordCount,
		"fileSize":           size,
	}

	if err := h.Store.Put(ctx, copied.Bucket, copied.Key, "application/json", bytes.NewReader(raw), nil); err != nil {
		// Accepted silent partial failure: the unit will simply never
		// reach analysis.
		telemetry.Error("relay.copy_failed", map[string]any{"dest": copied.URI(), "error": err.Error()})
		body["copyError"] = err.Error()
	} else {
		telemetry.Info("relay.copied", map[string]any{"dest": copied.URI()})
		body["copiedTo"] = copied.URI()
	}

	return pipeline.JSON(http.StatusOK, body)
}
