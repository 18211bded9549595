package routes

import (
	"encoding/json"
	"net/http"

	"github.com/reglens/backend/internal/queue"
	"github.com/reglens/backend/internal/server/middleware"
	"github.com/reglens/backend/pkg/common"
	"github.com/reglens/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RebuildGraphHandler queues a knowledge graph rebuild. An empty document
// list rebuilds over every stored document.
func RebuildGraphHandler(c echo.Context) error {
	type rebuildRequest struct {
		DocumentIDs []string `json:"document_ids"`
	}

	type rebuildResponse struct {
		Message string `json:"message"`
	}

	data := new(rebuildRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, rebuildResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App

	queueData := queue.GraphJobMsg{
		Message:     "Graph rebuild requested",
		DocumentIDs: data.DocumentIDs,
	}
	msgBytes, _ := json.Marshal(queueData)
	if err := queue.PublishFIFO(app.Queue, queue.QueueGraph, msgBytes); err != nil {
		logger.Error("Failed to publish to graph_queue", "err", err)
		return c.JSON(http.StatusInternalServerError, rebuildResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, rebuildResponse{
		Message: "Graph rebuild queued",
	})
}

// QueryGraphHandler returns the subgraph around entities whose label matches
// the query, optionally filtered to one relation type.
func QueryGraphHandler(c echo.Context) error {
	type graphResponse struct {
		Message  string           `json:"message"`
		Subgraph *common.Subgraph `json:"subgraph,omitempty"`
	}

	entity := c.QueryParam("entity")
	if entity == "" {
		return c.JSON(http.StatusBadRequest, graphResponse{
			Message: "Missing entity query parameter",
		})
	}
	relation := common.RelationType(c.QueryParam("relation"))

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	sub, err := app.Graph.Query(ctx, entity, relation)
	if err != nil {
		logger.Error("Graph query failed", "err", err)
		return c.JSON(http.StatusInternalServerError, graphResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, graphResponse{
		Message:  "OK",
		Subgraph: &sub,
	})
}
