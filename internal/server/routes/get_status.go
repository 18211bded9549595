package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/reglens/backend/internal/server/middleware"
	"github.com/reglens/backend/pkg/ai"
	"github.com/reglens/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StatusHandler reports whether the AI provider and the store are reachable.
// Generation and embedding are probed separately because the offline adapter
// only serves embeddings. Both probes run with a tight timeout so a hung
// provider cannot stall the endpoint.
func StatusHandler(c echo.Context) error {
	type statusResponse struct {
		Message    string `json:"message"`
		AIAdapter  string `json:"ai_adapter"`
		Generation string `json:"generation_status"`
		Embedding  string `json:"embedding_status"`
		Storage    string `json:"storage_status"`
		Documents  int    `json:"document_count"`
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	generationStatus := "available"
	if _, err := app.AIClient.GenerateCompletion(probeCtx, "ping", ai.WithMaxTokens(8)); err != nil {
		logger.Warn("Generation status probe failed", "err", err)
		generationStatus = "unavailable"
	}

	embeddingStatus := "available"
	if _, err := app.AIClient.GenerateEmbeddings(probeCtx, []string{"status probe"}); err != nil {
		logger.Warn("Embedding status probe failed", "err", err)
		embeddingStatus = "unavailable"
	}

	storageStatus := "available"
	documentCount := 0
	docs, err := app.Store.ListDocuments(ctx)
	if err != nil {
		logger.Warn("Storage status probe failed", "err", err)
		storageStatus = "unavailable"
	} else {
		documentCount = len(docs)
	}

	return c.JSON(http.StatusOK, statusResponse{
		Message:    "OK",
		AIAdapter:  app.AIAdapter,
		Generation: generationStatus,
		Embedding:  embeddingStatus,
		Storage:    storageStatus,
		Documents:  documentCount,
	})
}
