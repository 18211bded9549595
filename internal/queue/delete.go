package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/reglens/backend/internal/storage"
	"github.com/reglens/backend/pkg/common"
	"github.com/reglens/backend/pkg/logger"
	"github.com/reglens/backend/pkg/store"
	"github.com/reglens/backend/pkg/vector"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rabbitmq/amqp091-go"
)

// ProcessDeleteMessage removes a document together with its segments, its
// vector index entry, and its raw text blob, then queues a graph rebuild so
// the knowledge graph stops referencing the removed document. Already-removed
// pieces are skipped so a retried delivery converges instead of failing.
func ProcessDeleteMessage(
	ctx context.Context,
	ch *amqp091.Channel,
	s3Client *s3.Client,
	st store.Store,
	index *vector.Index,
	body string,
) error {
	var msg DeleteJobMsg
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return fmt.Errorf("failed to parse delete job: %w", err)
	}
	if msg.DocumentID == "" {
		return fmt.Errorf("delete job without document id")
	}

	if err := index.Remove(ctx, msg.DocumentID); err != nil {
		return err
	}
	if err := st.DeleteSegments(ctx, msg.DocumentID); err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	if err := st.DeleteDocument(ctx, msg.DocumentID); err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}

	if s3Client != nil && msg.StorageKey != "" {
		if err := storage.DeleteDocumentText(ctx, s3Client, msg.StorageKey); err != nil {
			logger.Warn("[Queue] Failed to delete stored text", "document_id", msg.DocumentID, "err", err)
		}
	}

	if ch != nil {
		rebuild, err := json.Marshal(GraphJobMsg{
			Message: "Graph rebuild after document delete",
		})
		if err == nil {
			err = PublishFIFO(ch, QueueGraph, rebuild)
		}
		if err != nil {
			logger.Warn("[Queue] Failed to queue graph rebuild after delete", "document_id", msg.DocumentID, "err", err)
		}
	}

	logger.Info("[Queue] Document deleted", "document_id", msg.DocumentID)
	return nil
}
