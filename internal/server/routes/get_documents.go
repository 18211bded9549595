package routes

import (
	"errors"
	"net/http"

	"github.com/reglens/backend/internal/server/middleware"
	"github.com/reglens/backend/pkg/common"
	"github.com/reglens/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

func GetDocumentsHandler(c echo.Context) error {
	type listResponse struct {
		Message   string            `json:"message"`
		Documents []common.Document `json:"documents"`
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	docs, err := app.Store.ListDocuments(ctx)
	if err != nil {
		logger.Error("Failed to list documents", "err", err)
		return c.JSON(http.StatusInternalServerError, listResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, listResponse{
		Message:   "OK",
		Documents: docs,
	})
}

func GetDocumentHandler(c echo.Context) error {
	type documentResponse struct {
		Message  string           `json:"message"`
		Document *common.Document `json:"document,omitempty"`
		Segments []common.Segment `json:"segments,omitempty"`
	}

	documentID := c.Param("id")
	if documentID == "" {
		return c.JSON(http.StatusBadRequest, documentResponse{
			Message: "Invalid document id",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	doc, err := app.Store.GetDocument(ctx, documentID)
	if errors.Is(err, common.ErrNotFound) {
		return c.JSON(http.StatusNotFound, documentResponse{
			Message: "Document not found",
		})
	}
	if err != nil {
		logger.Error("Failed to load document", "err", err)
		return c.JSON(http.StatusInternalServerError, documentResponse{
			Message: "Internal server error",
		})
	}

	segments, err := app.Store.GetSegments(ctx, documentID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		logger.Error("Failed to load segments", "err", err)
		return c.JSON(http.StatusInternalServerError, documentResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, documentResponse{
		Message:  "OK",
		Document: &doc,
		Segments: segments,
	})
}
