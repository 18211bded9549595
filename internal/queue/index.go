package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/reglens/backend/internal/storage"
	"github.com/reglens/backend/pkg/logger"
	"github.com/reglens/backend/pkg/segment"
	"github.com/reglens/backend/pkg/store"
	"github.com/reglens/backend/pkg/vector"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ProcessIndexMessage segments a previously uploaded document and writes its
// embeddings into the vector index. The document status tracks the outcome;
// on error it stays at "processing" so a retry delivery picks it up again.
func ProcessIndexMessage(
	ctx context.Context,
	s3Client *s3.Client,
	st store.Store,
	index *vector.Index,
	body string,
) error {
	var msg IndexJobMsg
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return fmt.Errorf("failed to parse index job: %w", err)
	}
	if msg.DocumentID == "" {
		return fmt.Errorf("index job without document id")
	}

	doc, err := st.GetDocument(ctx, msg.DocumentID)
	if err != nil {
		return err
	}

	if s3Client == nil || doc.StorageKey == "" {
		return fmt.Errorf("no stored text for document %s", doc.ID)
	}
	text, err := storage.GetDocumentText(ctx, s3Client, doc.StorageKey)
	if err != nil {
		return err
	}

	segments := segment.Split(string(text), segment.DefaultMaxLength)
	if err := st.SaveSegments(ctx, doc.ID, segments); err != nil {
		return err
	}

	if _, err := index.Index(ctx, doc.ID, segments); err != nil {
		return err
	}

	doc.Status = "completed"
	if err := st.SaveDocument(ctx, doc); err != nil {
		return err
	}

	logger.Info("[Queue] Document indexed", "document_id", doc.ID, "segments", len(segments))
	return nil
}
