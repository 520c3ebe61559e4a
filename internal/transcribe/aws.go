package transcribe

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awstranscribe "github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
)

// AWSClient implements Client on AWS Transcribe.
type AWSClient struct {
	client *awstranscribe.Client
}

// NewAWSClient wraps an AWS Transcribe client.
func NewAWSClient(cfg aws.Config) *AWSClient {
	return &AWSClient{client: awstranscribe.NewFromConfig(cfg)}
}

// StartJob starts a transcription job using the provided store object.
func (c *AWSClient) StartJob(ctx context.Context, in StartJobInput) error {
	input := &awstranscribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(in.JobName),
		LanguageCode:         types.LanguageCode(in.LanguageCode),
		MediaFormat:          types.MediaFormat(in.MediaFormat),
		Media: &types.Media{
			MediaFileUri: aws.String(in.MediaURI),
		},
		OutputBucketName: aws.String(in.OutputBucket),
	}
	if in.OutputKey != "" {
		input.OutputKey = aws.String(in.OutputKey)
	}

	if _, err := c.client.StartTranscriptionJob(ctx, input); err != nil {
		return fmt.Errorf("start transcription job %q: %w", in.JobName, err)
	}
	return nil
}

// GetJob fetches the current job description. The transcript location is
// only trustworthy here, never from an event payload.
func (c *AWSClient) GetJob(ctx context.Context, jobName string) (Job, error) {
	out, err := c.client.GetTranscriptionJob(ctx, &awstranscribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
	})
	if err != nil {
		return Job{}, fmt.Errorf("get transcription job %q: %w", jobName, err)
	}

	job := Job{
		Name:   jobName,
		Status: string(out.TranscriptionJob.TranscriptionJobStatus),
	}
	if media := out.TranscriptionJob.Media; media != nil && media.MediaFileUri != nil {
		job.MediaURI = *media.MediaFileUri
	}
	if tr := out.TranscriptionJob.Transcript; tr != nil && tr.TranscriptFileUri != nil {
		job.TranscriptURI = *tr.TranscriptFileUri
	}
	return job, nil
}

var _ Client = (*AWSClient)(nil)
