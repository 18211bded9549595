package offline

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/reglens/backend/pkg/common"
)

func TestGenerateEmbeddingsDeterministic(t *testing.T) {
	c := NewClient(64)

	a, err := c.GenerateEmbeddings(context.Background(), []string{"第十条 禁止虚假宣传"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, err := c.GenerateEmbeddings(context.Background(), []string{"第十条 禁止虚假宣传"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	if len(a[0]) != 64 {
		t.Fatalf("expected 64 dimensions, got %d", len(a[0]))
	}
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("vectors differ at index %d", i)
		}
	}
}

func TestGenerateEmbeddingsUnitLength(t *testing.T) {
	c := NewClient(128)

	vecs, err := c.GenerateEmbeddings(context.Background(), []string{"food safety law"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	var norm float64
	for _, v := range vecs[0] {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-4 {
		t.Fatalf("expected unit vector, norm %f", math.Sqrt(norm))
	}
}

func TestGenerateEmbeddingsBlankInput(t *testing.T) {
	c := NewClient(32)

	vecs, err := c.GenerateEmbeddings(context.Background(), []string{""})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	for i, v := range vecs[0] {
		if v != 0 {
			t.Fatalf("expected zero vector, index %d is %f", i, v)
		}
	}
}

func TestGenerateEmbeddingsDistinctTexts(t *testing.T) {
	c := NewClient(32)

	vecs, err := c.GenerateEmbeddings(context.Background(), []string{"penalty clause", "license requirement"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	same := true
	for i := range vecs[0] {
		if vecs[0][i] != vecs[1][i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected different vectors for different texts")
	}
}

func TestGenerationUnavailable(t *testing.T) {
	c := NewClient(0)

	if _, err := c.GenerateCompletion(context.Background(), "prompt"); !errors.Is(err, common.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}

	var out struct{ X string }
	if err := c.GenerateCompletionWithFormat(context.Background(), "n", "d", "prompt", &out); !errors.Is(err, common.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}
