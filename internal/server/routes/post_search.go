package routes

import (
	"net/http"
	"strings"

	"github.com/reglens/backend/internal/server/middleware"
	"github.com/reglens/backend/pkg/common"
	"github.com/reglens/backend/pkg/logger"
	"github.com/reglens/backend/pkg/rag"

	"github.com/labstack/echo/v4"
)

// SearchHandler runs a similarity search over the indexed segments without
// answer generation.
func SearchHandler(c echo.Context) error {
	type searchRequest struct {
		Query         string   `json:"query" validate:"required"`
		TopK          int      `json:"top_k"`
		MinSimilarity float64  `json:"min_similarity"`
		Keywords      []string `json:"keywords"`
	}

	type searchResponse struct {
		Message string                 `json:"message"`
		Query   string                 `json:"query,omitempty"`
		Results []common.ScoredSegment `json:"results,omitempty"`
	}

	data := new(searchRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{
			Message: "Invalid request body",
		})
	}
	if data.TopK <= 0 {
		data.TopK = rag.DefaultTopK
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	// Over-fetch when keywords are set so filtering still has a chance to
	// fill top_k results.
	fetch := data.TopK
	if len(data.Keywords) > 0 {
		fetch = data.TopK * 2
	}

	results, err := app.Index.Search(ctx, data.Query, fetch, data.MinSimilarity)
	if err != nil {
		logger.Error("Search failed", "err", err)
		return c.JSON(http.StatusInternalServerError, searchResponse{
			Message: "Internal server error",
		})
	}
	if len(data.Keywords) > 0 {
		results = filterByKeywords(results, data.Keywords)
		if len(results) > data.TopK {
			results = results[:data.TopK]
		}
	}

	return c.JSON(http.StatusOK, searchResponse{
		Message: "OK",
		Query:   data.Query,
		Results: results,
	})
}

// filterByKeywords keeps only results whose content mentions at least one of
// the given keywords, case insensitive.
func filterByKeywords(results []common.ScoredSegment, keywords []string) []common.ScoredSegment {
	filtered := make([]common.ScoredSegment, 0, len(results))
	for _, r := range results {
		content := strings.ToLower(r.Segment.Content)
		for _, kw := range keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(content, strings.ToLower(kw)) {
				filtered = append(filtered, r)
				break
			}
		}
	}
	return filtered
}
