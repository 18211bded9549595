// Package jsonfile implements the store on a flat directory of JSON files,
// one object per file. Writes go through a temp file and rename, so a
// concurrent reader sees either the old object or the new one.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/reglens/backend/pkg/common"
)

// Store persists every object as <kind>_<id>.json under a single directory.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore opens (and creates if needed) the data directory.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = "./data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// writeObject marshals v and atomically replaces the target file.
func (s *Store) writeObject(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func (s *Store) readObject(name string, v any) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return common.ErrNotFound
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (s *Store) SaveDocument(ctx context.Context, doc common.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeObject("document_"+doc.ID+".json", doc)
}

func (s *Store) GetDocument(ctx context.Context, documentID string) (common.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var doc common.Document
	if err := s.readObject("document_"+documentID+".json", &doc); err != nil {
		if err == common.ErrNotFound {
			return common.Document{}, fmt.Errorf("document %s: %w", documentID, common.ErrNotFound)
		}
		return common.Document{}, err
	}
	return doc, nil
}

func (s *Store) ListDocuments(ctx context.Context) ([]common.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	docs := make([]common.Document, 0)
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "document_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		var doc common.Document
		if err := s.readObject(name, &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path("document_" + documentID + ".json")); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	return nil
}

func (s *Store) SaveSegments(ctx context.Context, documentID string, segments []common.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeObject("segments_"+documentID+".json", segments)
}

func (s *Store) GetSegments(ctx context.Context, documentID string) ([]common.Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var segments []common.Segment
	if err := s.readObject("segments_"+documentID+".json", &segments); err != nil {
		if err == common.ErrNotFound {
			return nil, fmt.Errorf("segments for %s: %w", documentID, common.ErrNotFound)
		}
		return nil, err
	}
	return segments, nil
}

func (s *Store) DeleteSegments(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path("segments_" + documentID + ".json")); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete segments %s: %w", documentID, err)
	}
	return nil
}

func (s *Store) SaveVectors(ctx context.Context, entries map[string]common.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeObject("vectors.json", entries)
}

func (s *Store) GetVectors(ctx context.Context) (map[string]common.IndexEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make(map[string]common.IndexEntry)
	if err := s.readObject("vectors.json", &entries); err != nil {
		if err == common.ErrNotFound {
			return map[string]common.IndexEntry{}, nil
		}
		return nil, err
	}
	return entries, nil
}

func (s *Store) SaveGraph(ctx context.Context, graph common.KnowledgeGraph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeObject("knowledge_graph.json", graph)
}

func (s *Store) GetGraph(ctx context.Context) (common.KnowledgeGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var graph common.KnowledgeGraph
	if err := s.readObject("knowledge_graph.json", &graph); err != nil {
		if err == common.ErrNotFound {
			return common.KnowledgeGraph{}, nil
		}
		return common.KnowledgeGraph{}, err
	}
	return graph, nil
}

func (s *Store) SaveAnalysis(ctx context.Context, analysis common.ComplianceAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeObject("compliance_analysis_"+analysis.ID+".json", analysis)
}

func (s *Store) GetAnalysis(ctx context.Context, analysisID string) (common.ComplianceAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var analysis common.ComplianceAnalysis
	if err := s.readObject("compliance_analysis_"+analysisID+".json", &analysis); err != nil {
		if err == common.ErrNotFound {
			return common.ComplianceAnalysis{}, fmt.Errorf("analysis %s: %w", analysisID, common.ErrNotFound)
		}
		return common.ComplianceAnalysis{}, err
	}
	return analysis, nil
}

func (s *Store) ListAnalyses(ctx context.Context) ([]common.ComplianceAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	analyses := make([]common.ComplianceAnalysis, 0)
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "compliance_analysis_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		var analysis common.ComplianceAnalysis
		if err := s.readObject(name, &analysis); err != nil {
			continue
		}
		analyses = append(analyses, analysis)
	}
	return analyses, nil
}

func (s *Store) Close() error { return nil }
