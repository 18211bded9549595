package vector

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/reglens/backend/pkg/common"
	"github.com/reglens/backend/pkg/store/memory"
)

// stubEmbedder maps known texts to fixed vectors so similarity ordering is
// predictable. Unknown texts map to the zero vector.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := s.vectors[t]; ok {
			out[i] = v
			continue
		}
		out[i] = make([]float32, 3)
	}
	return out, nil
}

func seg(id, content string, index int) common.Segment {
	return common.Segment{
		ID:        id,
		Content:   content,
		Index:     index,
		Length:    len(content),
		CreatedAt: time.Now().UTC(),
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0.0},
		{"empty", nil, []float32{1}, 0.0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Fatalf("CosineSimilarity() = %f, want %f", got, tt.want)
			}
			// symmetry
			if rev := CosineSimilarity(tt.b, tt.a); math.Abs(rev-got) > 1e-9 {
				t.Fatalf("similarity not symmetric: %f vs %f", got, rev)
			}
		})
	}
}

func TestIndexAndSearch(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"食品添加剂限量":  {1, 0, 0},
		"广告宣传规范":   {0, 1, 0},
		"添加剂":      {0.9, 0.1, 0},
	}}
	ix := NewIndex(emb, memory.NewStore())
	ctx := context.Background()

	if _, err := ix.Index(ctx, "doc-1", []common.Segment{seg("s1", "食品添加剂限量", 0)}); err != nil {
		t.Fatalf("index: %v", err)
	}
	if _, err := ix.Index(ctx, "doc-2", []common.Segment{seg("s2", "广告宣传规范", 0)}); err != nil {
		t.Fatalf("index: %v", err)
	}

	results, err := ix.Search(ctx, "添加剂", 10, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "s1" {
		t.Fatalf("expected s1 first, got %s", results[0].ID)
	}
	if results[0].SimilarityScore <= results[1].SimilarityScore {
		t.Fatal("results not sorted descending")
	}
	if results[0].DocumentID != "doc-1" {
		t.Fatalf("document id: %s", results[0].DocumentID)
	}
}

func TestSearchMinSimilarity(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
		"q": {1, 0, 0},
	}}
	ix := NewIndex(emb, memory.NewStore())
	ctx := context.Background()

	if _, err := ix.Index(ctx, "doc", []common.Segment{seg("s1", "a", 0), seg("s2", "b", 1)}); err != nil {
		t.Fatalf("index: %v", err)
	}

	results, err := ix.Search(ctx, "q", 10, 0.5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "s1" {
		t.Fatalf("expected only s1, got %v", results)
	}
}

func TestSearchTieStability(t *testing.T) {
	// all segments identical to the query, so order must follow insertion
	emb := &stubEmbedder{vectors: map[string][]float32{
		"same": {1, 1, 0},
	}}
	ix := NewIndex(emb, memory.NewStore())
	ctx := context.Background()

	if _, err := ix.Index(ctx, "doc-1", []common.Segment{seg("s1", "same", 0), seg("s2", "same", 1)}); err != nil {
		t.Fatalf("index: %v", err)
	}
	if _, err := ix.Index(ctx, "doc-2", []common.Segment{seg("s3", "same", 0)}); err != nil {
		t.Fatalf("index: %v", err)
	}

	results, err := ix.Search(ctx, "same", 3, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	want := []string{"s1", "s2", "s3"}
	for i, id := range want {
		if results[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, results[i].ID)
		}
	}
}

func TestIndexReplacesEntry(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"old": {1, 0, 0},
		"new": {0, 1, 0},
	}}
	st := memory.NewStore()
	ix := NewIndex(emb, st)
	ctx := context.Background()

	if _, err := ix.Index(ctx, "doc", []common.Segment{seg("s1", "old", 0)}); err != nil {
		t.Fatalf("index: %v", err)
	}
	if _, err := ix.Index(ctx, "doc", []common.Segment{seg("s2", "new", 0)}); err != nil {
		t.Fatalf("reindex: %v", err)
	}

	results, err := ix.Search(ctx, "new", 10, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "s2" {
		t.Fatalf("expected only the replacement segment, got %v", results)
	}

	persisted, err := st.GetVectors(ctx)
	if err != nil {
		t.Fatalf("get vectors: %v", err)
	}
	if len(persisted["doc"].Segments) != 1 || persisted["doc"].Segments[0].ID != "s2" {
		t.Fatal("persisted entry not replaced wholesale")
	}
}

func TestEmbeddingUnavailable(t *testing.T) {
	emb := &stubEmbedder{err: errors.New("connection refused")}
	ix := NewIndex(emb, memory.NewStore())
	ctx := context.Background()

	if _, err := ix.Index(ctx, "doc", []common.Segment{seg("s1", "text", 0)}); !errors.Is(err, common.ErrEmbeddingUnavailable) {
		t.Fatalf("index: expected ErrEmbeddingUnavailable, got %v", err)
	}
	if _, err := ix.Search(ctx, "query", 5, 0); !errors.Is(err, common.ErrEmbeddingUnavailable) {
		t.Fatalf("search: expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestStatistics(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
	}}
	ix := NewIndex(emb, memory.NewStore())
	ctx := context.Background()

	if _, err := ix.Index(ctx, "doc-1", []common.Segment{seg("s1", "a", 0), seg("s2", "b", 1)}); err != nil {
		t.Fatalf("index: %v", err)
	}

	stats, err := ix.Statistics(ctx)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.TotalDocuments != 1 || stats.TotalSegments != 2 || stats.VectorCount != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.AverageVectorDim != 3 {
		t.Fatalf("average dim: %f", stats.AverageVectorDim)
	}
}

func TestIndexPersistenceAcrossInstances(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"clause": {1, 0, 0},
	}}
	st := memory.NewStore()
	ctx := context.Background()

	if _, err := NewIndex(emb, st).Index(ctx, "doc", []common.Segment{seg("s1", "clause", 0)}); err != nil {
		t.Fatalf("index: %v", err)
	}

	reopened := NewIndex(emb, st)
	results, err := reopened.Search(ctx, "clause", 5, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "s1" {
		t.Fatalf("expected stored entry after reload, got %v", results)
	}
}
