package routes

import (
	"net/http"

	"github.com/reglens/backend/internal/server/middleware"
	"github.com/reglens/backend/pkg/ai"
	"github.com/reglens/backend/pkg/common"
	"github.com/reglens/backend/pkg/rag"

	"github.com/labstack/echo/v4"
)

// AskHandler answers a question over the indexed regulations, optionally
// enriched with knowledge graph context.
func AskHandler(c echo.Context) error {
	type askRequest struct {
		Question string `json:"question" validate:"required"`
		TopK     int    `json:"top_k"`
		UseGraph bool   `json:"use_graph"`
	}

	type askResponse struct {
		Message string           `json:"message"`
		Answer  *common.Answer   `json:"answer,omitempty"`
		Metrics *ai.ModelMetrics `json:"metrics,omitempty"`
	}

	data := new(askRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, askResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, askResponse{
			Message: "Invalid request body",
		})
	}
	if data.TopK <= 0 {
		data.TopK = rag.DefaultTopK
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	answer := app.RAG.Ask(ctx, data.Question, data.TopK, data.UseGraph)
	metrics := app.AIClient.GetMetrics()

	return c.JSON(http.StatusOK, askResponse{
		Message: "OK",
		Answer:  &answer,
		Metrics: &metrics,
	})
}

// SuggestQuestionsHandler proposes follow-up questions grounded in the
// indexed regulations.
func SuggestQuestionsHandler(c echo.Context) error {
	type suggestRequest struct {
		Question string `json:"question" validate:"required"`
		Count    int    `json:"count"`
	}

	type suggestResponse struct {
		Message   string   `json:"message"`
		Questions []string `json:"questions"`
	}

	data := new(suggestRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, suggestResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, suggestResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	questions := app.RAG.SuggestQuestions(ctx, data.Question, data.Count)

	return c.JSON(http.StatusOK, suggestResponse{
		Message:   "OK",
		Questions: questions,
	})
}
