// Package ingest reacts to audio uploads and starts transcription jobs.
package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	awsevents "github.com/aws/aws-lambda-go/events"

	"media-insights-backend/internal/events"
	"media-insights-backend/internal/pipeline"
	"media-insights-backend/internal/shared/config"
	"media-insights-backend/internal/shared/storage/object"
	"media-insights-backend/internal/shared/telemetry"
	"media-insights-backend/internal/transcribe"
)

const mediaFormat = "m4a"

// Handler starts one transcription job per valid audio upload. It performs
// no retries; redelivery by the event bus covers transient failures.
type Handler struct {
	Store      object.Store
	Transcribe transcribe.Client
	Config     config.Config
	Now        func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Handle processes one object-created event.
func (h *Handler) Handle(ctx context.Context, e awsevents.CloudWatchEvent) pipeline.Response {
	obj, err := events.ParseObjectCreated(e)
	if err != nil {
		telemetry.Error("ingest.invalid_event", map[string]any{"error": err.Error()})
		return pipeline.Errorf(http.StatusBadRequest, "invalid event structure")
	}

	telemetry.Info("ingest.received", map[string]any{"bucket": obj.Bucket, "key": obj.Key})

	if !strings.HasSuffix(strings.ToLower(obj.Key), "."+mediaFormat) {
		telemetry.Warn("ingest.unsupported_format", map[string]any{"key": obj.Key})
		return pipeline.Errorf(http.StatusBadRequest, "file must be .%s format", mediaFormat)
	}

	// The event may race the store's consistency window; re-check before
	// starting a job.
	exists, err := h.Store.Exists(ctx, obj.Bucket, obj.Key)
	if err != nil {
		telemetry.Error("ingest.exists_check_failed", map[string]any{"key": obj.Key, "error": err.Error()})
		return pipeline.Errorf(http.StatusInternalServerError, "internal error: %s", err)
	}
	if !exists {
		telemetry.Error("ingest.object_missing", map[string]any{"bucket": obj.Bucket, "key": obj.Key})
		return pipeline.Errorf(http.StatusNotFound, "file not found: %s", obj.Key)
	}

	now := h.now()
	jobName := pipeline.TranscriptionJobName(h.Config.TranscribeJobPrefix, obj.Key, now)
	mediaURI := object.Ref{Bucket: obj.Bucket, Key: obj.Key}.URI()
	outputKey := pipeline.TranscriptionOutputKey(obj.Key, now)

	telemetry.Info("ingest.starting_job", map[string]any{"job_name": jobName, "media_uri": mediaURI})

	err = h.Transcribe.StartJob(ctx, transcribe.StartJobInput{
		JobName:      jobName,
		MediaURI:     mediaURI,
		MediaFormat:  mediaFormat,
		LanguageCode: h.Config.LanguageCode,
		OutputBucket: obj.Bucket,
		OutputKey:    outputKey,
	})
	if err != nil {
		telemetry.Error("ingest.start_job_failed", map[string]any{"job_name": jobName, "error": err.Error()})
		switch {
		case transcribe.IsConflict(err):
			return pipeline.Errorf(http.StatusConflict, "job already exists: %s", err)
		case transcribe.IsBadRequest(err):
			return pipeline.Errorf(http.StatusBadRequest, "bad request: %s", err)
		default:
			return pipeline.Errorf(http.StatusInternalServerError, "internal error: %s", err)
		}
	}

	telemetry.Info("ingest.job_started", map[string]any{"job_name": jobName})

	return pipeline.JSON(http.StatusOK, map[string]any{
		"message":        "Transcription job started successfully",
		"jobName":        jobName,
		"mediaUri":       mediaURI,
		"outputLocation": fmt.Sprintf("s3://%s/%s", obj.Bucket, outputKey),
	})
}
