package middleware

import (
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/reglens/backend/pkg/ai"
	"github.com/reglens/backend/pkg/compliance"
	"github.com/reglens/backend/pkg/graph"
	"github.com/reglens/backend/pkg/rag"
	"github.com/reglens/backend/pkg/store"
	"github.com/reglens/backend/pkg/vector"
)

type AppUser struct {
	UserID      string
	Role        string
	Permissions []string
}

// App bundles the shared components every handler reaches through the
// request context. Everything here is built once at startup.
type App struct {
	Store    store.Store
	Queue    *amqp091.Channel
	S3       *s3.Client
	AIClient ai.Client
	Index    *vector.Index
	Graph    *graph.Builder
	RAG      *rag.Orchestrator
	Analyzer *compliance.Analyzer

	MasterAPIKey string
	JWTSecret    []byte
	AIAdapter    string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
