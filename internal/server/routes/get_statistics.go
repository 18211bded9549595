package routes

import (
	"net/http"

	"github.com/reglens/backend/internal/server/middleware"
	"github.com/reglens/backend/pkg/common"
	"github.com/reglens/backend/pkg/logger"
	"github.com/reglens/backend/pkg/vector"

	"github.com/labstack/echo/v4"
)

// StatisticsHandler reports index and graph statistics in one response.
func StatisticsHandler(c echo.Context) error {
	type statisticsResponse struct {
		Message string                  `json:"message"`
		Index   *vector.Statistics      `json:"vector_index,omitempty"`
		Graph   *common.GraphStatistics `json:"knowledge_graph,omitempty"`
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	indexStats, err := app.Index.Statistics(ctx)
	if err != nil {
		logger.Error("Failed to load index statistics", "err", err)
		return c.JSON(http.StatusInternalServerError, statisticsResponse{
			Message: "Internal server error",
		})
	}

	graphStats, err := app.Graph.Statistics(ctx)
	if err != nil {
		logger.Error("Failed to load graph statistics", "err", err)
		return c.JSON(http.StatusInternalServerError, statisticsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, statisticsResponse{
		Message: "OK",
		Index:   &indexStats,
		Graph:   &graphStats,
	})
}
