// Package transcribe wraps the speech-to-text engine behind the narrow
// interface the pipeline needs: start a job, describe a job.
package transcribe

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/smithy-go"
)

// StartJobInput carries everything needed to start one transcription job.
type StartJobInput struct {
	JobName      string
	MediaURI     string
	MediaFormat  string
	LanguageCode string
	OutputBucket string
	OutputKey    string
}

// Job is the engine's view of a transcription job.
type Job struct {
	Name          string
	Status        string
	MediaURI      string
	TranscriptURI string
}

// Client is the transcription engine collaborator.
type Client interface {
	StartJob(ctx context.Context, in StartJobInput) error
	GetJob(ctx context.Context, jobName string) (Job, error)
}

// IsConflict reports whether the engine rejected a job start because the
// job name already exists.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConflictException" {
		return true
	}
	return false
}

// IsBadRequest reports whether the engine rejected the request as malformed.
func IsBadRequest(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "BadRequestException" {
		return true
	}
	return strings.Contains(err.Error(), "BadRequestException")
}
