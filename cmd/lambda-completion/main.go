package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-completion

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"media-insights-backend/internal/bootstrap"
	"media-insights-backend/internal/pipeline"
	"media-insights-backend/internal/shared/config"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp(ctx context.Context) {
	cfg := config.Load()
	built, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		initErr = err
		return
	}
	app = built
}

func handler(ctx context.Context, event events.CloudWatchEvent) (pipeline.Response, error) {
	initOnce.Do(func() { initApp(ctx) })
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		return pipeline.Errorf(500, "bootstrap failed"), initErr
	}

	resp := app.Join.Handle(ctx, event)
	// A server-side failure is returned as an error so the bus redelivers.
	if resp.StatusCode >= 500 {
		return resp, errors.New(resp.Body)
	}
	return resp, nil
}

func main() {
	lambda.Start(handler)
}
