package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/reglens/backend/pkg/graph"
	"github.com/reglens/backend/pkg/leaselock"
	"github.com/reglens/backend/pkg/logger"
)

const graphLockKey = "graph_rebuild"

// ProcessGraphMessage rebuilds the knowledge graph. With a lock client the
// rebuild runs under a lease so overlapping rebuild jobs serialize; a busy
// lease fails the delivery and the retry queue redelivers it later.
func ProcessGraphMessage(
	ctx context.Context,
	builder *graph.Builder,
	locks *leaselock.Client,
	body string,
) error {
	var msg GraphJobMsg
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return fmt.Errorf("failed to parse graph job: %w", err)
	}

	rebuild := func(ctx context.Context) error {
		g, err := builder.Build(ctx, msg.DocumentIDs)
		if err != nil {
			return err
		}
		logger.Info("[Queue] Knowledge graph rebuilt",
			"nodes", g.Metadata.TotalNodes,
			"edges", g.Metadata.TotalEdges,
			"documents", g.Metadata.DocumentCount,
		)
		return nil
	}

	if locks == nil {
		return rebuild(ctx)
	}
	return locks.WithLease(ctx, graphLockKey, leaselock.Options{TTL: 10 * time.Minute}, rebuild)
}
