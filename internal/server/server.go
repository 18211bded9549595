package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reglens/backend/internal/queue"
	mid "github.com/reglens/backend/internal/server/middleware"
	"github.com/reglens/backend/internal/storage"
	"github.com/reglens/backend/internal/util"
	"github.com/reglens/backend/pkg/ai"
	"github.com/reglens/backend/pkg/ai/offline"
	oai "github.com/reglens/backend/pkg/ai/ollama"
	gai "github.com/reglens/backend/pkg/ai/openai"
	"github.com/reglens/backend/pkg/compliance"
	"github.com/reglens/backend/pkg/graph"
	"github.com/reglens/backend/pkg/logger"
	"github.com/reglens/backend/pkg/rag"
	"github.com/reglens/backend/pkg/store"
	"github.com/reglens/backend/pkg/store/jsonfile"
	pgxstore "github.com/reglens/backend/pkg/store/pgx"
	"github.com/reglens/backend/pkg/vector"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewAIClient builds the provider client selected by AI_ADAPTER. The offline
// adapter serves deterministic placeholder embeddings and fails generation,
// which keeps retrieval working in provider-less deployments.
func NewAIClient(adapter string) ai.Client {
	switch adapter {
	case "ollama":
		client, err := oai.NewClient(oai.NewClientParams{
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
			CompletionModel: util.GetEnv("AI_CHAT_MODEL"),
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),

			EmbeddingDim: int(util.GetEnvNumeric("AI_EMBED_DIM", 1024)),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 4)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	case "offline":
		return offline.NewClient(int(util.GetEnvNumeric("AI_EMBED_DIM", 1024)))
	default:
		return gai.NewClient(gai.NewClientParams{
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
			CompletionModel: util.GetEnv("AI_CHAT_MODEL"),
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),

			EmbeddingDim: int(util.GetEnvNumeric("AI_EMBED_DIM", 1536)),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
	}
}

// NewStore opens the persistence backend selected by STORE_BACKEND. The
// returned pool is nil for the jsonfile backend.
func NewStore(ctx context.Context) (store.Store, *pgxpool.Pool) {
	backend := util.GetEnvString("STORE_BACKEND", "postgres")
	switch backend {
	case "jsonfile":
		st, err := jsonfile.NewStore(util.GetEnvString("DATA_DIR", "./data"))
		if err != nil {
			logger.Fatal("Failed to open jsonfile store", "err", err)
		}
		return st, nil
	default:
		databaseURL := util.GetEnv("DATABASE_URL")
		if err := pgxstore.Migrate(databaseURL); err != nil {
			logger.Fatal("Failed to migrate database", "err", err)
		}
		pool, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", "err", err)
		}
		pool.Config().AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			return pgxvec.RegisterTypes(ctx, conn)
		}
		return pgxstore.NewStoreWithConnection(pool), pool
	}
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, pool := NewStore(ctx)
	defer st.Close()
	if pool != nil {
		defer pool.Close()
	}

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	if err := queue.SetupQueues(ch, queue.Queues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	s3 := storage.NewS3Client(ctx)

	adapter := util.GetEnv("AI_ADAPTER")
	aiClient := NewAIClient(adapter)

	index := vector.NewIndex(aiClient, st)
	builder := graph.NewBuilder(graph.NewExtractor(aiClient), st)
	orchestrator := rag.NewOrchestrator(index, builder, aiClient)
	analyzer := compliance.NewAnalyzer(orchestrator, aiClient, st)

	app := &mid.App{
		Store:    st,
		Queue:    ch,
		S3:       s3,
		AIClient: aiClient,
		Index:    index,
		Graph:    builder,
		RAG:      orchestrator,
		Analyzer: analyzer,

		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
		JWTSecret:    []byte(util.GetEnv("JWT_SECRET")),
		AIAdapter:    adapter,
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("100M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
