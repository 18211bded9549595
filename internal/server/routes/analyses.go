package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/reglens/backend/internal/server/middleware"
	"github.com/reglens/backend/pkg/common"
	"github.com/reglens/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CreateAnalysisHandler runs a compliance analysis of the described business
// activity against the indexed regulations. The activity can be described
// either as a structured business_data object or as a bare query string.
func CreateAnalysisHandler(c echo.Context) error {
	type analysisRequest struct {
		BusinessData map[string]any `json:"business_data"`
		Query        string         `json:"query"`
	}

	type analysisResponse struct {
		Message  string                     `json:"message"`
		Analysis *common.ComplianceAnalysis `json:"analysis,omitempty"`
	}

	data := new(analysisRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, analysisResponse{
			Message: "Invalid request body",
		})
	}
	if len(data.BusinessData) == 0 && data.Query != "" {
		data.BusinessData = map[string]any{"description": data.Query}
	}
	if len(data.BusinessData) == 0 {
		return c.JSON(http.StatusBadRequest, analysisResponse{
			Message: "No business data provided",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	analysis, err := app.Analyzer.Analyze(ctx, data.BusinessData)
	if err != nil {
		logger.Error("Compliance analysis failed", "err", err)
		return c.JSON(http.StatusInternalServerError, analysisResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, analysisResponse{
		Message:  "OK",
		Analysis: &analysis,
	})
}

// GetAnalysesHandler lists past analyses, most recent first.
func GetAnalysesHandler(c echo.Context) error {
	type historyResponse struct {
		Message  string                   `json:"message"`
		Analyses []common.AnalysisSummary `json:"analyses"`
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return c.JSON(http.StatusBadRequest, historyResponse{
				Message: "Invalid limit",
			})
		}
		limit = parsed
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	summaries, err := app.Analyzer.History(ctx, limit)
	if err != nil {
		logger.Error("Failed to load analysis history", "err", err)
		return c.JSON(http.StatusInternalServerError, historyResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, historyResponse{
		Message:  "OK",
		Analyses: summaries,
	})
}

func GetAnalysisHandler(c echo.Context) error {
	type analysisResponse struct {
		Message  string                     `json:"message"`
		Analysis *common.ComplianceAnalysis `json:"analysis,omitempty"`
	}

	analysisID := c.Param("id")
	if analysisID == "" {
		return c.JSON(http.StatusBadRequest, analysisResponse{
			Message: "Invalid analysis id",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	analysis, err := app.Store.GetAnalysis(ctx, analysisID)
	if errors.Is(err, common.ErrNotFound) {
		return c.JSON(http.StatusNotFound, analysisResponse{
			Message: "Analysis not found",
		})
	}
	if err != nil {
		logger.Error("Failed to load analysis", "err", err)
		return c.JSON(http.StatusInternalServerError, analysisResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, analysisResponse{
		Message:  "OK",
		Analysis: &analysis,
	})
}
