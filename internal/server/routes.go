package server

import (
	"github.com/reglens/backend/internal/server/middleware"
	"github.com/reglens/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Document routes
	apiRoutes.GET("/documents", routes.GetDocumentsHandler)
	apiRoutes.POST("/documents", routes.UploadDocumentHandler, middleware.RequirePermission("document.create"))
	apiRoutes.GET("/documents/:id", routes.GetDocumentHandler)
	apiRoutes.DELETE("/documents/:id", routes.DeleteDocumentHandler, middleware.RequirePermission("document.delete"))

	// Retrieval and question answering routes
	apiRoutes.POST("/search", routes.SearchHandler)
	apiRoutes.POST("/ask", routes.AskHandler)
	apiRoutes.POST("/questions/suggest", routes.SuggestQuestionsHandler)

	// Knowledge graph routes
	apiRoutes.POST("/graph/rebuild", routes.RebuildGraphHandler, middleware.RequirePermission("graph.rebuild"))
	apiRoutes.GET("/graph", routes.QueryGraphHandler)

	// Compliance analysis routes
	apiRoutes.POST("/analyses", routes.CreateAnalysisHandler, middleware.RequirePermission("analysis.create"))
	apiRoutes.GET("/analyses", routes.GetAnalysesHandler)
	apiRoutes.GET("/analyses/:id", routes.GetAnalysisHandler)

	// System routes
	apiRoutes.GET("/statistics", routes.StatisticsHandler)
	apiRoutes.GET("/status", routes.StatusHandler)
}
