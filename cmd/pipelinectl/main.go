// Command pipelinectl is the operator CLI for the media analysis pipeline:
// upload an audio file to kick a unit off, or watch for its aggregate to
// appear.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"

	"media-insights-backend/internal/bootstrap"
	"media-insights-backend/internal/pipeline"
	"media-insights-backend/internal/shared/config"
	"media-insights-backend/internal/shared/storage/object"
)

func main() {
	uploadPath := flag.String("upload", "", "Path to an .m4a audio file to upload")
	watchID := flag.String("watch", "", "Analysis id to watch for the final aggregate")
	timeout := flag.Duration("timeout", 15*time.Minute, "Maximum time to wait when watching")
	flag.Parse()

	if (*uploadPath == "") == (*watchID == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -upload or -watch is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}

	switch {
	case *uploadPath != "":
		err = upload(ctx, app, *uploadPath)
	default:
		err = watch(ctx, app, pipeline.AnalysisID(*watchID), *timeout)
	}
	if err != nil {
		log.Fatalf("pipelinectl: %v", err)
	}
}

func upload(ctx context.Context, app *bootstrap.App, path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".m4a") {
		return fmt.Errorf("input file must be an m4a file: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	key := filepath.Base(path)
	if err := app.Store.Put(ctx, app.Config.Bucket, key, "audio/mp4", f, nil); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	fmt.Printf("uploaded %s\n", object.Ref{Bucket: app.Config.Bucket, Key: key}.URI())
	fmt.Println("the ingest handler will pick it up from the object-created event")
	return nil
}

var errNotReady = errors.New("aggregate not present yet")

// watch polls for the unit's aggregate with exponential backoff until it
// appears or the timeout elapses.
func watch(ctx context.Context, app *bootstrap.App, id pipeline.AnalysisID, timeout time.Duration) error {
	key := pipeline.AggregateKey(app.Config.SentimentPrefix, id)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = timeout

	operation := func() error {
		ok, err := app.Store.Exists(ctx, app.Config.Bucket, key)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errNotReady
		}
		return nil
	}
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("waiting for %s: %w", key, err)
	}

	data, err := object.ReadAll(ctx, app.Store, app.Config.Bucket, key)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
