// Package bootstrap wires shared dependencies for the lambda mains, the ops
// API server, and the CLI.
package bootstrap

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"

	"media-insights-backend/internal/analysis"
	"media-insights-backend/internal/comprehend"
	"media-insights-backend/internal/ingest"
	"media-insights-backend/internal/join"
	"media-insights-backend/internal/relay"
	"media-insights-backend/internal/shared/config"
	"media-insights-backend/internal/shared/server"
	"media-insights-backend/internal/shared/storage/object"
	"media-insights-backend/internal/shared/storage/object/memory"
	s3store "media-insights-backend/internal/shared/storage/object/s3"
	"media-insights-backend/internal/transcribe"
)

// App holds shared dependencies. Router is built lazily by APIRouter since
// the lambda mains never serve HTTP.
type App struct {
	Config     config.Config
	Store      object.Store
	Transcribe transcribe.Client
	Analytics  comprehend.Client

	Ingest   *ingest.Handler
	Relay    *relay.Handler
	Analysis *analysis.Handler
	Join     *join.Handler
}

// Build prepares shared dependencies and the four pipeline handlers.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}

	switch cfg.ObjectStoreType {
	case "memory":
		app.Store = memory.New()
		app.Transcribe = nil
		app.Analytics = nil
	default:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		app.Store = s3store.NewFromClient(s3.NewFromConfig(awsCfg))
		app.Transcribe = transcribe.NewAWSClient(awsCfg)
		app.Analytics = comprehend.NewAWSClient(awsCfg)
	}

	app.Ingest = &ingest.Handler{Store: app.Store, Transcribe: app.Transcribe, Config: cfg}
	app.Relay = &relay.Handler{Store: app.Store, Transcribe: app.Transcribe, Config: cfg}
	app.Analysis = &analysis.Handler{Store: app.Store, Analytics: app.Analytics, Config: cfg}
	app.Join = &join.Handler{Store: app.Store, Analytics: app.Analytics, Config: cfg}

	return app, nil
}

// APIRouter builds the ops API router over the app's store.
func (a *App) APIRouter() *gin.Engine {
	return server.NewRouter(a.Config, a.Store)
}
