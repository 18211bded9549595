package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/reglens/backend/pkg/ai"

	"github.com/ollama/ollama/api"
)

const defaultDimensions = 1024

// GenerateEmbeddings creates vector embeddings for the given texts using the
// configured embedding model on Ollama. Output order matches input order, and
// blank inputs produce zero vectors without a model round trip.
func (c *Client) GenerateEmbeddings(
	ctx context.Context,
	texts []string,
) ([][]float32, error) {
	out := make([][]float32, len(texts))

	inputs := make([]string, 0, len(texts))
	idxMap := make([]int, 0, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			out[i] = make([]float32, c.embeddingDim)
			continue
		}
		inputs = append(inputs, text)
		idxMap = append(idxMap, i)
	}
	if len(inputs) == 0 {
		return out, nil
	}

	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	req := &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: inputs,
	}

	res, err := c.Client.Embed(rCtx, req)
	if err != nil {
		return nil, err
	}
	if len(res.Embeddings) != len(inputs) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(inputs), len(res.Embeddings))
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens: res.PromptEvalCount,
		TotalTokens: res.PromptEvalCount,
		DurationMs:  res.TotalDuration.Milliseconds(),
	})

	for j, emb := range res.Embeddings {
		vec := make([]float32, 0, c.embeddingDim)
		for _, v := range emb {
			if len(vec) >= c.embeddingDim {
				break
			}
			vec = append(vec, float32(v))
		}
		for len(vec) < c.embeddingDim {
			vec = append(vec, 0)
		}
		out[idxMap[j]] = vec
	}
	return out, nil
}
