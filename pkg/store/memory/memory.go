// Package memory provides an in-memory Store. It backs tests and
// short-lived tooling; nothing survives process exit.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/reglens/backend/pkg/common"
)

// Store keeps all state in process memory behind a single mutex.
type Store struct {
	mu        sync.Mutex
	documents map[string]common.Document
	segments  map[string][]common.Segment
	vectors   map[string]common.IndexEntry
	graph     common.KnowledgeGraph
	analyses  map[string]common.ComplianceAnalysis
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		documents: make(map[string]common.Document),
		segments:  make(map[string][]common.Segment),
		vectors:   make(map[string]common.IndexEntry),
		analyses:  make(map[string]common.ComplianceAnalysis),
	}
}

func (s *Store) SaveDocument(ctx context.Context, doc common.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc
	return nil
}

func (s *Store) GetDocument(ctx context.Context, documentID string) (common.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return common.Document{}, fmt.Errorf("document %s: %w", documentID, common.ErrNotFound)
	}
	return doc, nil
}

func (s *Store) ListDocuments(ctx context.Context) ([]common.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]common.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		out = append(out, doc)
	}
	return out, nil
}

func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, documentID)
	return nil
}

func (s *Store) SaveSegments(ctx context.Context, documentID string, segments []common.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments[documentID] = append([]common.Segment(nil), segments...)
	return nil
}

func (s *Store) GetSegments(ctx context.Context, documentID string) ([]common.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	segs, ok := s.segments[documentID]
	if !ok {
		return nil, fmt.Errorf("segments for %s: %w", documentID, common.ErrNotFound)
	}
	return append([]common.Segment(nil), segs...), nil
}

func (s *Store) DeleteSegments(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.segments, documentID)
	return nil
}

func (s *Store) SaveVectors(ctx context.Context, entries map[string]common.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = make(map[string]common.IndexEntry, len(entries))
	for k, v := range entries {
		s.vectors[k] = v
	}
	return nil
}

func (s *Store) GetVectors(ctx context.Context) (map[string]common.IndexEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]common.IndexEntry, len(s.vectors))
	for k, v := range s.vectors {
		out[k] = v
	}
	return out, nil
}

func (s *Store) SaveGraph(ctx context.Context, graph common.KnowledgeGraph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = graph
	return nil
}

func (s *Store) GetGraph(ctx context.Context) (common.KnowledgeGraph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph, nil
}

func (s *Store) SaveAnalysis(ctx context.Context, analysis common.ComplianceAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[analysis.ID] = analysis
	return nil
}

func (s *Store) GetAnalysis(ctx context.Context, analysisID string) (common.ComplianceAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.analyses[analysisID]
	if !ok {
		return common.ComplianceAnalysis{}, fmt.Errorf("analysis %s: %w", analysisID, common.ErrNotFound)
	}
	return a, nil
}

func (s *Store) ListAnalyses(ctx context.Context) ([]common.ComplianceAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]common.ComplianceAnalysis, 0, len(s.analyses))
	for _, a := range s.analyses {
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) Close() error { return nil }
