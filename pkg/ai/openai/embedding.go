package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/reglens/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
)

const defaultDimensions = 1536

// GenerateEmbeddings creates vector embeddings for the given texts in a
// single request, preserving input order. Empty or whitespace-only inputs
// produce zero vectors without hitting the provider.
func (c *Client) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.EmbeddingClient == nil {
		return nil, fmt.Errorf("embedding client not configured")
	}

	idxMap, inputs, out := normalizeEmbeddingInputs(texts, c.embeddingDim)
	if len(inputs) == 0 {
		return out, nil
	}

	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	body := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
		Model: c.embeddingModel,
	}

	start := time.Now()
	response, err := c.EmbeddingClient.Embeddings.New(rCtx, body)
	if err != nil {
		return nil, err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens: int(response.Usage.PromptTokens),
		TotalTokens: int(response.Usage.TotalTokens),
		DurationMs:  time.Since(start).Milliseconds(),
	})

	if len(response.Data) != len(inputs) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d want %d", len(response.Data), len(inputs))
	}

	for _, embedding := range response.Data {
		dataIdx := int(embedding.Index)
		if dataIdx < 0 || dataIdx >= len(inputs) {
			return nil, fmt.Errorf("embedding index out of range: %d", embedding.Index)
		}
		vec := make([]float32, 0, len(embedding.Embedding))
		for _, v := range embedding.Embedding {
			vec = append(vec, float32(v))
		}
		out[idxMap[dataIdx]] = vec
	}
	for i := range out {
		if out[i] == nil {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
	}
	return out, nil
}

func normalizeEmbeddingInputs(texts []string, dim int) (idxMap []int, inputs []string, out [][]float32) {
	idxMap = make([]int, 0, len(texts))
	inputs = make([]string, 0, len(texts))
	out = make([][]float32, len(texts))
	for i, in := range texts {
		if strings.TrimSpace(in) == "" {
			out[i] = make([]float32, dim)
			continue
		}
		idxMap = append(idxMap, i)
		inputs = append(inputs, in)
	}
	return idxMap, inputs, out
}
