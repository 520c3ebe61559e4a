package join

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"media-insights-backend/internal/shared/storage/object"
	"media-insights-backend/internal/shared/telemetry"
)

// emptyResult stands in for a facet whose raw output could not be located or
// parsed. The unit still joins; the facet contributes nothing.
var emptyResult = json.RawMessage(`{}`)

// readJobOutput locates and normalizes an analytics job's raw output. The
// engine writes one or more files with unpredictable names under the given
// prefix; the first one with a recognized suffix is consumed. Every failure
// mode degrades to an empty result rather than failing the join.
func readJobOutput(ctx context.Context, store object.Store, outputURI string) json.RawMessage {
	ref, err := object.ParseURI(outputURI)
	if err != nil {
		telemetry.Error("join.output_uri_invalid", map[string]any{"uri": outputURI, "error": err.Error()})
		return emptyResult
	}

	keys, err := store.List(ctx, ref.Bucket, ref.Key)
	if err != nil {
		telemetry.Error("join.output_list_failed", map[string]any{"uri": outputURI, "error": err.Error()})
		return emptyResult
	}

	var outputKey string
	for _, key := range keys {
		if strings.HasSuffix(key, ".out") || strings.HasSuffix(key, ".gz") {
			outputKey = key
			break
		}
	}
	if outputKey == "" {
		telemetry.Error("join.output_missing", map[string]any{"uri": outputURI})
		return emptyResult
	}

	data, err := object.ReadAll(ctx, store, ref.Bucket, outputKey)
	if err != nil {
		telemetry.Error("join.output_read_failed", map[string]any{"key": outputKey, "error": err.Error()})
		return emptyResult
	}

	result, err := normalize(data)
	if err != nil {
		telemetry.Error("join.output_parse_failed", map[string]any{"key": outputKey, "error": err.Error()})
		return emptyResult
	}
	return result
}

// normalize turns raw engine output into the marker payload: decompress if
// compressed, parse as one JSON record per line, unwrap a single record to a
// plain object.
func normalize(data []byte) (json.RawMessage, error) {
	data = maybeGunzip(data)

	var records []json.RawMessage
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !json.Valid([]byte(line)) {
			return nil, fmt.Errorf("invalid JSON record: %.60q", line)
		}
		records = append(records, json.RawMessage(line))
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no JSON records in output")
	}
	if len(records) == 1 {
		return records[0], nil
	}
	return json.Marshal(records)
}

// maybeGunzip decompresses data if it is gzip-compressed. Decompression
// failure means the content was never compressed.
func maybeGunzip(data []byte) []byte {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return data
	}
	defer zr.Close()

	plain, err := io.ReadAll(zr)
	if err != nil {
		return data
	}
	return plain
}
