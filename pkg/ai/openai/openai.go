package openai

import (
	"sync"

	"github.com/reglens/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// Client talks to an OpenAI-compatible API for the two provider ports:
// embeddings and text generation. Separate underlying clients allow the
// embedding and chat endpoints to live on different hosts.
//
// Create one with NewClient.
type Client struct {
	embeddingModel  string
	completionModel string
	extractionModel string

	embeddingDim int
	timeoutMin   int

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewClientParams defines the configuration for creating a Client.
//
// EmbeddingModel specifies the model used for embeddings and EmbeddingDim
// the vector dimension it produces. CompletionModel serves free-text
// generation, ExtractionModel structured output. The URL/key pairs configure
// the embedding and chat endpoints independently.
type NewClientParams struct {
	EmbeddingModel  string
	CompletionModel string
	ExtractionModel string

	EmbeddingDim int
	TimeoutMin   int

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string

	MaxConcurrentRequests int64
}

// NewClient creates a Client configured with the provided parameters.
//
// Example:
//
//	client := openai.NewClient(openai.NewClientParams{
//		EmbeddingModel:  "text-embedding-3-small",
//		CompletionModel: "gpt-4o-mini",
//		ExtractionModel: "gpt-4o-mini",
//		EmbeddingDim:    1536,
//		EmbeddingKey:    os.Getenv("OPENAI_API_KEY"),
//		ChatKey:         os.Getenv("OPENAI_API_KEY"),
//	})
func NewClient(params NewClientParams) *Client {
	if params.EmbeddingDim <= 0 {
		params.EmbeddingDim = defaultDimensions
	}
	if params.TimeoutMin <= 0 {
		params.TimeoutMin = 5
	}
	if params.MaxConcurrentRequests <= 0 {
		params.MaxConcurrentRequests = 15
	}

	return &Client{
		embeddingModel:  params.EmbeddingModel,
		completionModel: params.CompletionModel,
		extractionModel: params.ExtractionModel,

		embeddingDim: params.EmbeddingDim,
		timeoutMin:   params.TimeoutMin,

		reqLock: semaphore.NewWeighted(params.MaxConcurrentRequests),

		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey),
		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
	}
}

func newOpenaiClient(baseURL string, apiKey string) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

func (c *Client) modifyMetrics(delta ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += delta.InputTokens
	c.metrics.OutputTokens += delta.OutputTokens
	c.metrics.TotalTokens += delta.TotalTokens
	c.metrics.DurationMs += delta.DurationMs
	if c.metrics.DurationMs > 0 {
		c.metrics.TokenPerSecond = float32(c.metrics.OutputTokens) / (float32(c.metrics.DurationMs) / 1000.0)
	}
}

// ResetMetrics clears the accumulated request metrics.
func (c *Client) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}

// GetMetrics returns a snapshot of the accumulated request metrics.
func (c *Client) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}
