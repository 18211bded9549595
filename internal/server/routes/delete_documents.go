package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/reglens/backend/internal/queue"
	"github.com/reglens/backend/internal/server/middleware"
	"github.com/reglens/backend/pkg/common"
	"github.com/reglens/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DeleteDocumentHandler queues removal of a document. The worker tears down
// the segments, the vector entry, and the stored raw text.
func DeleteDocumentHandler(c echo.Context) error {
	type deleteResponse struct {
		Message    string `json:"message"`
		DocumentID string `json:"document_id,omitempty"`
	}

	documentID := c.Param("id")
	if documentID == "" {
		return c.JSON(http.StatusBadRequest, deleteResponse{
			Message: "Invalid document id",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	doc, err := app.Store.GetDocument(ctx, documentID)
	if errors.Is(err, common.ErrNotFound) {
		return c.JSON(http.StatusNotFound, deleteResponse{
			Message: "Document not found",
		})
	}
	if err != nil {
		logger.Error("Failed to load document", "err", err)
		return c.JSON(http.StatusInternalServerError, deleteResponse{
			Message: "Internal server error",
		})
	}

	queueData := queue.DeleteJobMsg{
		Message:    "Document deletion requested",
		DocumentID: doc.ID,
		StorageKey: doc.StorageKey,
	}
	msgBytes, _ := json.Marshal(queueData)
	if err := queue.PublishFIFO(app.Queue, queue.QueueDelete, msgBytes); err != nil {
		logger.Error("Failed to publish to delete_queue", "err", err)
		return c.JSON(http.StatusInternalServerError, deleteResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, deleteResponse{
		Message:    "Document deletion queued",
		DocumentID: doc.ID,
	})
}
