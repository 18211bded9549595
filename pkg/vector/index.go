// Package vector maintains the embedded segment index and answers top-K
// cosine similarity queries over it. The index is a full linear scan: at the
// corpus sizes this system targets, correctness and simplicity win over
// sublinear structures.
package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/reglens/backend/pkg/ai"
	"github.com/reglens/backend/pkg/common"
	"github.com/reglens/backend/pkg/logger"
	"github.com/reglens/backend/pkg/store"
)

// Index stores one entry per document and serves similarity search across
// all of them. Entries are replaced wholesale per document; readers never
// observe a half-written entry.
type Index struct {
	embedder ai.Embedder
	store    store.Store

	mu      sync.RWMutex
	entries map[string]common.IndexEntry
	// docOrder preserves insertion order for stable tie breaking
	docOrder []string

	loaded bool
}

// Statistics summarizes the index contents.
type Statistics struct {
	TotalDocuments   int     `json:"total_documents"`
	TotalSegments    int     `json:"total_segments"`
	AverageVectorDim float64 `json:"average_vector_dimension"`
	VectorCount      int     `json:"vector_count"`
}

// NewIndex creates an index backed by the given embedder and store. Stored
// entries are loaded lazily on first use.
func NewIndex(embedder ai.Embedder, st store.Store) *Index {
	return &Index{
		embedder: embedder,
		store:    st,
		entries:  make(map[string]common.IndexEntry),
	}
}

func (ix *Index) ensureLoaded(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.loaded {
		return nil
	}

	entries, err := ix.store.GetVectors(ctx)
	if err != nil {
		return fmt.Errorf("load vectors: %w", err)
	}
	if entries == nil {
		entries = make(map[string]common.IndexEntry)
	}

	ix.entries = entries
	ix.docOrder = ix.docOrder[:0]
	for id := range entries {
		ix.docOrder = append(ix.docOrder, id)
	}
	// stored maps carry no order, so normalize by creation time then id
	sort.SliceStable(ix.docOrder, func(i, j int) bool {
		a, b := entries[ix.docOrder[i]], entries[ix.docOrder[j]]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return ix.docOrder[i] < ix.docOrder[j]
	})

	ix.loaded = true
	return nil
}

// Index embeds the given segments and replaces any prior entry for the
// document atomically. Embedding failure leaves the prior entry untouched
// and reports ErrEmbeddingUnavailable.
func (ix *Index) Index(ctx context.Context, documentID string, segments []common.Segment) (common.IndexEntry, error) {
	if err := ix.ensureLoaded(ctx); err != nil {
		return common.IndexEntry{}, err
	}

	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Content
	}

	vectors, err := ix.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return common.IndexEntry{}, fmt.Errorf("%w: %v", common.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(segments) {
		return common.IndexEntry{}, fmt.Errorf("%w: expected %d vectors, got %d",
			common.ErrEmbeddingUnavailable, len(segments), len(vectors))
	}

	embedded := make([]common.Segment, len(segments))
	for i, s := range segments {
		s.Vector = vectors[i]
		embedded[i] = s
	}

	entry := common.IndexEntry{
		DocumentID: documentID,
		Segments:   embedded,
		CreatedAt:  time.Now().UTC(),
	}

	ix.mu.Lock()
	if _, exists := ix.entries[documentID]; !exists {
		ix.docOrder = append(ix.docOrder, documentID)
	}
	ix.entries[documentID] = entry
	snapshot := ix.snapshotLocked()
	ix.mu.Unlock()

	if err := ix.store.SaveVectors(ctx, snapshot); err != nil {
		return common.IndexEntry{}, fmt.Errorf("persist vectors: %w", err)
	}

	logger.Debug("indexed document", "document_id", documentID, "segments", len(embedded))
	return entry, nil
}

// Remove drops the entry for a document, if present, and persists the change.
func (ix *Index) Remove(ctx context.Context, documentID string) error {
	if err := ix.ensureLoaded(ctx); err != nil {
		return err
	}

	ix.mu.Lock()
	if _, ok := ix.entries[documentID]; !ok {
		ix.mu.Unlock()
		return nil
	}
	delete(ix.entries, documentID)
	for i, id := range ix.docOrder {
		if id == documentID {
			ix.docOrder = append(ix.docOrder[:i], ix.docOrder[i+1:]...)
			break
		}
	}
	snapshot := ix.snapshotLocked()
	ix.mu.Unlock()

	return ix.store.SaveVectors(ctx, snapshot)
}

// Search embeds the query once and scans every stored vector, returning the
// topK highest-similarity segments with similarity at or above minSimilarity.
// Equal similarities preserve insertion order (document, then segment index).
func (ix *Index) Search(ctx context.Context, query string, topK int, minSimilarity float64) ([]common.ScoredSegment, error) {
	if err := ix.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []common.ScoredSegment{}, nil
	}

	vectors, err := ix.embedder.GenerateEmbeddings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query vector, got %d", common.ErrEmbeddingUnavailable, len(vectors))
	}
	queryVec := vectors[0]

	ix.mu.RLock()
	scored := make([]common.ScoredSegment, 0)
	for _, docID := range ix.docOrder {
		entry := ix.entries[docID]
		for _, seg := range entry.Segments {
			if len(seg.Vector) == 0 {
				continue
			}
			scored = append(scored, common.ScoredSegment{
				Segment:         seg,
				DocumentID:      docID,
				SimilarityScore: CosineSimilarity(queryVec, seg.Vector),
			})
		}
	}
	ix.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].SimilarityScore > scored[j].SimilarityScore
	})

	results := make([]common.ScoredSegment, 0, topK)
	for _, s := range scored {
		if s.SimilarityScore < minSimilarity {
			continue
		}
		results = append(results, s)
		if len(results) >= topK {
			break
		}
	}
	return results, nil
}

// Statistics reports document, segment, and vector dimension counts.
func (ix *Index) Statistics(ctx context.Context) (Statistics, error) {
	if err := ix.ensureLoaded(ctx); err != nil {
		return Statistics{}, err
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	stats := Statistics{TotalDocuments: len(ix.entries)}
	dimSum := 0
	for _, entry := range ix.entries {
		stats.TotalSegments += len(entry.Segments)
		for _, seg := range entry.Segments {
			if len(seg.Vector) > 0 {
				stats.VectorCount++
				dimSum += len(seg.Vector)
			}
		}
	}
	if stats.VectorCount > 0 {
		stats.AverageVectorDim = float64(dimSum) / float64(stats.VectorCount)
	}
	return stats, nil
}

func (ix *Index) snapshotLocked() map[string]common.IndexEntry {
	out := make(map[string]common.IndexEntry, len(ix.entries))
	for k, v := range ix.entries {
		out[k] = v
	}
	return out
}

// CosineSimilarity returns the cosine of the angle between a and b. A zero
// vector, an empty vector, or mismatched lengths score 0.0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
