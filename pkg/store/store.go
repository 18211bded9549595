// Package store defines the persistence interface for documents, segment
// vectors, the knowledge graph, and compliance analyses. Objects are read
// and written wholesale; there are no partial updates.
package store

import (
	"context"

	"github.com/reglens/backend/pkg/common"
)

// Store persists the corpus state. Implementations must make every write
// atomic at the object level: a reader sees either the previous object or
// the new one, never a partial write.
type Store interface {
	// Documents.
	SaveDocument(ctx context.Context, doc common.Document) error
	GetDocument(ctx context.Context, documentID string) (common.Document, error)
	ListDocuments(ctx context.Context) ([]common.Document, error)
	DeleteDocument(ctx context.Context, documentID string) error

	// Segments keyed by document. Saving replaces the document's segment
	// set wholesale.
	SaveSegments(ctx context.Context, documentID string, segments []common.Segment) error
	GetSegments(ctx context.Context, documentID string) ([]common.Segment, error)
	DeleteSegments(ctx context.Context, documentID string) error

	// Vector index entries, one per document.
	SaveVectors(ctx context.Context, entries map[string]common.IndexEntry) error
	GetVectors(ctx context.Context) (map[string]common.IndexEntry, error)

	// The knowledge graph is replaced wholesale on rebuild.
	SaveGraph(ctx context.Context, graph common.KnowledgeGraph) error
	GetGraph(ctx context.Context) (common.KnowledgeGraph, error)

	// Compliance analyses, keyed by analysis id.
	SaveAnalysis(ctx context.Context, analysis common.ComplianceAnalysis) error
	GetAnalysis(ctx context.Context, analysisID string) (common.ComplianceAnalysis, error)
	ListAnalyses(ctx context.Context) ([]common.ComplianceAnalysis, error)

	Close() error
}
