// Package status exposes a read-only HTTP view over the pipeline's store
// state: finished aggregates and the per-facet progress of units still
// waiting on their analytics jobs.
package status

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"media-insights-backend/internal/pipeline"
	"media-insights-backend/internal/shared/config"
	"media-insights-backend/internal/shared/server/respond"
	"media-insights-backend/internal/shared/storage/object"
)

const aggregateSuffix = "-analysis.json"

// Handler serves analysis listings and per-unit status.
type Handler struct {
	Store  object.Store
	Config config.Config
}

// RegisterRoutes registers the status endpoints on the API group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/analyses", h.list)
	rg.GET("/analyses/:id", h.get)
}

// Summary is one finished analysis in a listing.
type Summary struct {
	AnalysisID string `json:"analysisId"`
	Location   string `json:"location"`
}

func (h *Handler) list(c *gin.Context) {
	keys, err := h.Store.List(c.Request.Context(), h.Config.Bucket, h.Config.SentimentPrefix)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "store_error", "Failed to list analyses", nil)
		return
	}

	summaries := []Summary{}
	for _, key := range keys {
		if !strings.HasSuffix(key, aggregateSuffix) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(key, h.Config.SentimentPrefix), aggregateSuffix)
		summaries = append(summaries, Summary{
			AnalysisID: id,
			Location:   object.Ref{Bucket: h.Config.Bucket, Key: key}.URI(),
		})
	}

	respond.OK(c, gin.H{"analyses": summaries, "count": len(summaries)})
}

func (h *Handler) get(c *gin.Context) {
	ctx := c.Request.Context()
	id := pipeline.AnalysisID(c.Param("id"))

	aggregateKey := pipeline.AggregateKey(h.Config.SentimentPrefix, id)
	data, err := object.ReadAll(ctx, h.Store, h.Config.Bucket, aggregateKey)
	switch {
	case err == nil:
		var aggregate json.RawMessage = data
		respond.OK(c, gin.H{"analysisId": string(id), "status": "COMPLETED", "result": aggregate})
		return
	case !errors.Is(err, object.ErrNotFound):
		respond.Error(c, http.StatusInternalServerError, "store_error", "Failed to read analysis", nil)
		return
	}

	// No aggregate yet. Report per-facet progress from the marker objects,
	// the same probes the join itself runs.
	facets := gin.H{}
	seen := false
	for _, facet := range pipeline.Facets() {
		ok, err := h.Store.Exists(ctx, h.Config.Bucket, pipeline.MarkerKey(h.Config.SentimentPrefix, id, facet))
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "store_error", "Failed to probe analysis state", nil)
			return
		}
		facets[string(facet)] = ok
		seen = seen || ok
	}

	metadataExists, err := h.Store.Exists(ctx, h.Config.Bucket, pipeline.MetadataKey(h.Config.SentimentPrefix, id))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "store_error", "Failed to probe analysis state", nil)
		return
	}
	if !seen && !metadataExists {
		respond.Error(c, http.StatusNotFound, "not_found", "No analysis found for this id", nil)
		return
	}

	respond.OK(c, gin.H{
		"analysisId": string(id),
		"status":     pipeline.StatusInProgress,
		"facets":     facets,
	})
}
