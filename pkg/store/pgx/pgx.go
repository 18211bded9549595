// Package pgx implements the store interface on PostgreSQL. Segment vectors
// are stored as pgvector columns; the knowledge graph and compliance analyses
// are stored as JSONB and replaced wholesale, matching the object-level
// atomicity the store contract requires.
package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/reglens/backend/pkg/common"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// DBStore persists the corpus in PostgreSQL. The connection is owned by the
// caller; Close does not tear it down. Writes that span multiple rows run in
// a transaction and are serialized with a mutex.
type DBStore struct {
	conn   pgxIConn
	dbLock sync.Mutex
}

// NewStoreWithConnection creates a DBStore using an existing database
// connection or pool. Run Migrate first to bring the schema up to date.
func NewStoreWithConnection(conn pgxIConn) *DBStore {
	return &DBStore{conn: conn}
}

func (s *DBStore) SaveDocument(ctx context.Context, doc common.Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode document metadata: %w", err)
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	_, err = s.conn.Exec(ctx, `
		INSERT INTO documents (id, filename, upload_time, status, storage_key, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			upload_time = EXCLUDED.upload_time,
			status = EXCLUDED.status,
			storage_key = EXCLUDED.storage_key,
			metadata = EXCLUDED.metadata
	`, doc.ID, doc.Filename, doc.UploadTime, doc.Status, doc.StorageKey, metadata)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (s *DBStore) GetDocument(ctx context.Context, documentID string) (common.Document, error) {
	var doc common.Document
	var metadata []byte
	err := s.conn.QueryRow(ctx, `
		SELECT id, filename, upload_time, status, storage_key, metadata
		FROM documents
		WHERE id = $1
	`, documentID).Scan(&doc.ID, &doc.Filename, &doc.UploadTime, &doc.Status, &doc.StorageKey, &metadata)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return common.Document{}, fmt.Errorf("document %s: %w", documentID, common.ErrNotFound)
	}
	if err != nil {
		return common.Document{}, fmt.Errorf("failed to load document: %w", err)
	}
	if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
		return common.Document{}, fmt.Errorf("failed to decode document metadata: %w", err)
	}
	return doc, nil
}

func (s *DBStore) ListDocuments(ctx context.Context) ([]common.Document, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, filename, upload_time, status, storage_key, metadata
		FROM documents
		ORDER BY upload_time, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]common.Document, 0)
	for rows.Next() {
		var doc common.Document
		var metadata []byte
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.UploadTime, &doc.Status, &doc.StorageKey, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode document metadata: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *DBStore) DeleteDocument(ctx context.Context, documentID string) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	// Segments go with the document via ON DELETE CASCADE.
	_, err := s.conn.Exec(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (s *DBStore) SaveSegments(ctx context.Context, documentID string, segments []common.Segment) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM segments WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("failed to clear segments: %w", err)
	}
	for _, seg := range segments {
		_, err := tx.Exec(ctx, `
			INSERT INTO segments (id, document_id, content, segment_index, length, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, seg.ID, documentID, seg.Content, seg.Index, seg.Length, seg.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert segment: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *DBStore) GetSegments(ctx context.Context, documentID string) ([]common.Segment, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, content, segment_index, length, created_at
		FROM segments
		WHERE document_id = $1
		ORDER BY segment_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load segments: %w", err)
	}
	defer rows.Close()

	segments := make([]common.Segment, 0)
	for rows.Next() {
		var seg common.Segment
		if err := rows.Scan(&seg.ID, &seg.Content, &seg.Index, &seg.Length, &seg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan segment row: %w", err)
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("segments for document %s: %w", documentID, common.ErrNotFound)
	}
	return segments, nil
}

func (s *DBStore) DeleteSegments(ctx context.Context, documentID string) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	_, err := s.conn.Exec(ctx, `DELETE FROM segments WHERE document_id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete segments: %w", err)
	}
	return nil
}

func (s *DBStore) SaveVectors(ctx context.Context, entries map[string]common.IndexEntry) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM vector_entries`); err != nil {
		return fmt.Errorf("failed to clear vector entries: %w", err)
	}
	for _, entry := range entries {
		_, err := tx.Exec(ctx, `
			INSERT INTO vector_entries (document_id, created_at)
			VALUES ($1, $2)
		`, entry.DocumentID, entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert vector entry: %w", err)
		}
		for _, seg := range entry.Segments {
			_, err := tx.Exec(ctx, `
				INSERT INTO vector_segments (id, document_id, content, segment_index, length, embedding, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, seg.ID, entry.DocumentID, seg.Content, seg.Index, seg.Length, pgvector.NewVector(seg.Vector), seg.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert vector segment: %w", err)
			}
		}
	}
	return tx.Commit(ctx)
}

func (s *DBStore) GetVectors(ctx context.Context) (map[string]common.IndexEntry, error) {
	entries := make(map[string]common.IndexEntry)

	rows, err := s.conn.Query(ctx, `SELECT document_id, created_at FROM vector_entries`)
	if err != nil {
		return nil, fmt.Errorf("failed to load vector entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var entry common.IndexEntry
		if err := rows.Scan(&entry.DocumentID, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vector entry row: %w", err)
		}
		entries[entry.DocumentID] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	segRows, err := s.conn.Query(ctx, `
		SELECT document_id, id, content, segment_index, length, embedding, created_at
		FROM vector_segments
		ORDER BY document_id, segment_index
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load vector segments: %w", err)
	}
	defer segRows.Close()
	for segRows.Next() {
		var documentID string
		var seg common.Segment
		var embedding pgvector.Vector
		if err := segRows.Scan(&documentID, &seg.ID, &seg.Content, &seg.Index, &seg.Length, &embedding, &seg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vector segment row: %w", err)
		}
		seg.Vector = embedding.Slice()
		entry, ok := entries[documentID]
		if !ok {
			continue
		}
		entry.Segments = append(entry.Segments, seg)
		entries[documentID] = entry
	}
	return entries, segRows.Err()
}

func (s *DBStore) SaveGraph(ctx context.Context, graph common.KnowledgeGraph) error {
	payload, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	_, err = s.conn.Exec(ctx, `
		INSERT INTO knowledge_graph (id, graph, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET graph = EXCLUDED.graph, updated_at = now()
	`, payload)
	if err != nil {
		return fmt.Errorf("failed to save graph: %w", err)
	}
	return nil
}

func (s *DBStore) GetGraph(ctx context.Context) (common.KnowledgeGraph, error) {
	var payload []byte
	err := s.conn.QueryRow(ctx, `SELECT graph FROM knowledge_graph WHERE id = 1`).Scan(&payload)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return common.KnowledgeGraph{}, nil
	}
	if err != nil {
		return common.KnowledgeGraph{}, fmt.Errorf("failed to load graph: %w", err)
	}

	var graph common.KnowledgeGraph
	if err := json.Unmarshal(payload, &graph); err != nil {
		return common.KnowledgeGraph{}, fmt.Errorf("failed to decode graph: %w", err)
	}
	return graph, nil
}

func (s *DBStore) SaveAnalysis(ctx context.Context, analysis common.ComplianceAnalysis) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	_, err = s.conn.Exec(ctx, `
		INSERT INTO compliance_analyses (id, analysis, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET analysis = EXCLUDED.analysis
	`, analysis.ID, payload, analysis.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

func (s *DBStore) GetAnalysis(ctx context.Context, analysisID string) (common.ComplianceAnalysis, error) {
	var payload []byte
	err := s.conn.QueryRow(ctx, `SELECT analysis FROM compliance_analyses WHERE id = $1`, analysisID).Scan(&payload)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return common.ComplianceAnalysis{}, fmt.Errorf("analysis %s: %w", analysisID, common.ErrNotFound)
	}
	if err != nil {
		return common.ComplianceAnalysis{}, fmt.Errorf("failed to load analysis: %w", err)
	}

	var analysis common.ComplianceAnalysis
	if err := json.Unmarshal(payload, &analysis); err != nil {
		return common.ComplianceAnalysis{}, fmt.Errorf("failed to decode analysis: %w", err)
	}
	return analysis, nil
}

func (s *DBStore) ListAnalyses(ctx context.Context) ([]common.ComplianceAnalysis, error) {
	rows, err := s.conn.Query(ctx, `SELECT analysis FROM compliance_analyses ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	analyses := make([]common.ComplianceAnalysis, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		var analysis common.ComplianceAnalysis
		if err := json.Unmarshal(payload, &analysis); err != nil {
			return nil, fmt.Errorf("failed to decode analysis: %w", err)
		}
		analyses = append(analyses, analysis)
	}
	return analyses, rows.Err()
}

// Close is a no-op. The underlying connection pool belongs to the caller.
func (s *DBStore) Close() error {
	return nil
}
