package ollama

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/reglens/backend/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// Client implements the provider ports against a locally-hosted Ollama
// server: embeddings plus free-text and schema-constrained generation.
type Client struct {
	embeddingModel  string
	completionModel string
	extractionModel string

	embeddingDim int
	timeoutMin   int

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	Client *api.Client
}

// NewClientParams contains configuration options for creating a new Client.
type NewClientParams struct {
	EmbeddingModel  string
	CompletionModel string
	ExtractionModel string

	EmbeddingDim int
	TimeoutMin   int

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewClient connects to the Ollama server at BaseURL (or the default when
// empty) and uses the configured models for embeddings and generation.
func NewClient(params NewClientParams) (*Client, error) {
	if params.EmbeddingDim <= 0 {
		params.EmbeddingDim = defaultDimensions
	}
	if params.TimeoutMin <= 0 {
		params.TimeoutMin = 5
	}
	if params.MaxConcurrentRequests <= 0 {
		params.MaxConcurrentRequests = 4
	}

	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base url %q: %w", baseURL, err)
	}

	httpClient := http.DefaultClient
	if params.ApiKey != "" {
		httpClient = &http.Client{
			Transport: &headerTransport{
				headers: map[string]string{
					"Authorization": "Bearer " + params.ApiKey,
				},
				rt: http.DefaultTransport,
			},
		}
	}

	return &Client{
		embeddingModel:  params.EmbeddingModel,
		completionModel: params.CompletionModel,
		extractionModel: params.ExtractionModel,

		embeddingDim: params.EmbeddingDim,
		timeoutMin:   params.TimeoutMin,

		reqLock: semaphore.NewWeighted(params.MaxConcurrentRequests),

		Client: api.NewClient(parsed, httpClient),
	}, nil
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
