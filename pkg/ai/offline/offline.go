// Package offline provides a deterministic, model-free provider client.
// Embeddings are derived from a hash of the input text so that identical
// text always maps to the same vector, which keeps indexing and retrieval
// functional when no embedding service is reachable. Generation is not
// available offline and always reports the provider as unavailable.
package offline

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sync"

	"github.com/reglens/backend/pkg/ai"
	"github.com/reglens/backend/pkg/common"
)

const defaultDimensions = 1024

// Client implements the provider ports without any external service.
type Client struct {
	embeddingDim int

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics
}

// NewClient returns an offline client producing vectors of dim dimensions,
// or the default when dim is not positive.
func NewClient(dim int) *Client {
	if dim <= 0 {
		dim = defaultDimensions
	}
	return &Client{embeddingDim: dim}
}

// GenerateEmbeddings returns one placeholder vector per input text. Blank
// inputs map to the zero vector; all other inputs map to a unit-length
// vector seeded from an FNV-1a hash of the text.
func (c *Client) GenerateEmbeddings(
	ctx context.Context,
	texts []string,
) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = placeholderVector(text, c.embeddingDim)
	}

	c.metricsLock.Lock()
	c.metrics.InputTokens += len(texts)
	c.metrics.TotalTokens += len(texts)
	c.metricsLock.Unlock()

	return out, nil
}

// GenerateCompletion always fails: there is no generation model offline.
func (c *Client) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	return "", fmt.Errorf("offline client: %w", common.ErrProviderUnavailable)
}

// GenerateCompletionWithFormat always fails: there is no generation model
// offline.
func (c *Client) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	return fmt.Errorf("offline client: %w", common.ErrProviderUnavailable)
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

// placeholderVector maps text to a deterministic unit-length vector. The
// text seeds an FNV-1a hash which drives an xorshift generator, so equal
// text always yields an equal vector and similar documents stay stable
// across restarts.
func placeholderVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	if text == "" {
		return vec
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	state := h.Sum64()
	if state == 0 {
		state = 0x9e3779b97f4a7c15
	}

	var norm float64
	for i := range vec {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		// map to [-1, 1]
		v := float64(int64(state)) / float64(math.MaxInt64)
		vec[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
