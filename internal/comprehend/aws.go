package comprehend

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscomprehend "github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/comprehend/types"

	"media-insights-backend/internal/pipeline"
)

// AWSClient implements Client on AWS Comprehend.
type AWSClient struct {
	client *awscomprehend.Client
}

// NewAWSClient wraps an AWS Comprehend client.
func NewAWSClient(cfg aws.Config) *AWSClient {
	return &AWSClient{client: awscomprehend.NewFromConfig(cfg)}
}

// DetectSentiment runs the synchronous sentiment call.
func (c *AWSClient) DetectSentiment(ctx context.Context, text, languageCode string) (SentimentResult, error) {
	out, err := c.client.DetectSentiment(ctx, &awscomprehend.DetectSentimentInput{
		Text:         aws.String(text),
		LanguageCode: types.LanguageCode(languageCode),
	})
	if err != nil {
		return SentimentResult{}, fmt.Errorf("detect sentiment: %w", err)
	}

	result := SentimentResult{Sentiment: string(out.Sentiment)}
	if score := out.SentimentScore; score != nil {
		result.SentimentScore = SentimentScore{
			Positive: float64(deref32(score.Positive)),
			Negative: float64(deref32(score.Negative)),
			Neutral:  float64(deref32(score.Neutral)),
			Mixed:    float64(deref32(score.Mixed)),
		}
	}
	return result, nil
}

// DetectEntities runs the synchronous entity call.
func (c *AWSClient) DetectEntities(ctx context.Context, text, languageCode string) ([]Entity, error) {
	out, err := c.client.DetectEntities(ctx, &awscomprehend.DetectEntitiesInput{
		Text:         aws.String(text),
		LanguageCode: types.LanguageCode(languageCode),
	})
	if err != nil {
		return nil, fmt.Errorf("detect entities: %w", err)
	}

	entities := make([]Entity, 0, len(out.Entities))
	for _, e := range out.Entities {
		entities = append(entities, Entity{
			Text:        aws.ToString(e.Text),
			Type:        string(e.Type),
			Score:       float64(deref32(e.Score)),
			BeginOffset: int(aws.ToInt32(e.BeginOffset)),
			EndOffset:   int(aws.ToInt32(e.EndOffset)),
		})
	}
	return entities, nil
}

// DetectKeyPhrases runs the synchronous key-phrase call.
func (c *AWSClient) DetectKeyPhrases(ctx context.Context, text, languageCode string) ([]KeyPhrase, error) {
	out, err := c.client.DetectKeyPhrases(ctx, &awscomprehend.DetectKeyPhrasesInput{
		Text:         aws.String(text),
		LanguageCode: types.LanguageCode(languageCode),
	})
	if err != nil {
		return nil, fmt.Errorf("detect key phrases: %w", err)
	}

	phrases := make([]KeyPhrase, 0, len(out.KeyPhrases))
	for _, p := range out.KeyPhrases {
		phrases = append(phrases, KeyPhrase{
			Text:        aws.ToString(p.Text),
			Score:       float64(deref32(p.Score)),
			BeginOffset: int(aws.ToInt32(p.BeginOffset)),
			EndOffset:   int(aws.ToInt32(p.EndOffset)),
		})
	}
	return phrases, nil
}

// StartJob starts one async detection job for the facet.
func (c *AWSClient) StartJob(ctx context.Context, facet pipeline.Facet, in StartJobInput) (string, error) {
	inputConfig := &types.InputDataConfig{
		S3Uri:       aws.String(in.InputURI),
		InputFormat: types.InputFormatOneDocPerFile,
	}
	outputConfig := &types.OutputDataConfig{S3Uri: aws.String(in.OutputURI)}
	role := aws.String(in.DataAccessRoleARN)
	jobName := aws.String(in.JobName)
	lang := types.LanguageCode(in.LanguageCode)

	switch facet {
	case pipeline.FacetSentiment:
		out, err := c.client.StartSentimentDetectionJob(ctx, &awscomprehend.StartSentimentDetectionJobInput{
			InputDataConfig:   inputConfig,
			OutputDataConfig:  outputConfig,
			DataAccessRoleArn: role,
			JobName:           jobName,
			LanguageCode:      lang,
		})
		if err != nil {
			return "", fmt.Errorf("start sentiment job %q: %w", in.JobName, err)
		}
		return aws.ToString(out.JobId), nil
	case pipeline.FacetEntities:
		out, err := c.client.StartEntitiesDetectionJob(ctx, &awscomprehend.StartEntitiesDetectionJobInput{
			InputDataConfig:   inputConfig,
			OutputDataConfig:  outputConfig,
			DataAccessRoleArn: role,
			JobName:           jobName,
			LanguageCode:      lang,
		})
		if err != nil {
			return "", fmt.Errorf("start entities job %q: %w", in.JobName, err)
		}
		return aws.ToString(out.JobId), nil
	case pipeline.FacetKeyPhrases:
		out, err := c.client.StartKeyPhrasesDetectionJob(ctx, &awscomprehend.StartKeyPhrasesDetectionJobInput{
			InputDataConfig:   inputConfig,
			OutputDataConfig:  outputConfig,
			DataAccessRoleArn: role,
			JobName:           jobName,
			LanguageCode:      lang,
		})
		if err != nil {
			return "", fmt.Errorf("start key phrases job %q: %w", in.JobName, err)
		}
		return aws.ToString(out.JobId), nil
	default:
		return "", fmt.Errorf("unknown facet %q", facet)
	}
}

// DescribeJob fetches an async job's description. The raw output location is
// only trustworthy here, never from an event payload.
func (c *AWSClient) DescribeJob(ctx context.Context, facet pipeline.Facet, jobID string) (JobProperties, error) {
	switch facet {
	case pipeline.FacetSentiment:
		out, err := c.client.DescribeSentimentDetectionJob(ctx, &awscomprehend.DescribeSentimentDetectionJobInput{
			JobId: aws.String(jobID),
		})
		if err != nil {
			return JobProperties{}, fmt.Errorf("describe sentiment job %q: %w", jobID, err)
		}
		p := out.SentimentDetectionJobProperties
		return JobProperties{
			JobID:     aws.ToString(p.JobId),
			JobName:   aws.ToString(p.JobName),
			Status:    string(p.JobStatus),
			OutputURI: outputURI(p.OutputDataConfig),
		}, nil
	case pipeline.FacetEntities:
		out, err := c.client.DescribeEntitiesDetectionJob(ctx, &awscomprehend.DescribeEntitiesDetectionJobInput{
			JobId: aws.String(jobID),
		})
		if err != nil {
			return JobProperties{}, fmt.Errorf("describe entities job %q: %w", jobID, err)
		}
		p := out.EntitiesDetectionJobProperties
		return JobProperties{
			JobID:     aws.ToString(p.JobId),
			JobName:   aws.ToString(p.JobName),
			Status:    string(p.JobStatus),
			OutputURI: outputURI(p.OutputDataConfig),
		}, nil
	case pipeline.FacetKeyPhrases:
		out, err := c.client.DescribeKeyPhrasesDetectionJob(ctx, &awscomprehend.DescribeKeyPhrasesDetectionJobInput{
			JobId: aws.String(jobID),
		})
		if err != nil {
			return JobProperties{}, fmt.Errorf("describe key phrases job %q: %w", jobID, err)
		}
		p := out.KeyPhrasesDetectionJobProperties
		return JobProperties{
			JobID:     aws.ToString(p.JobId),
			JobName:   aws.ToString(p.JobName),
			Status:    string(p.JobStatus),
			OutputURI: outputURI(p.OutputDataConfig),
		}, nil
	default:
		return JobProperties{}, fmt.Errorf("unknown facet %q", facet)
	}
}

func outputURI(cfg *types.OutputDataConfig) string {
	if cfg == nil {
		return ""
	}
	return aws.ToString(cfg.S3Uri)
}

func deref32(f *float32) float32 {
	if f == nil {
		return 0
	}
	return *f
}

var _ Client = (*AWSClient)(nil)
