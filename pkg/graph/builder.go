// Package graph builds and queries the regulation knowledge graph. Entities
// are extracted per segment, related by a fixed category-pair table when they
// co-occur, and merged by label similarity. The graph is rebuilt wholesale;
// there is no incremental update.
package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reglens/backend/internal/util"
	"github.com/reglens/backend/pkg/common"
	"github.com/reglens/backend/pkg/logger"
	"github.com/reglens/backend/pkg/store"
)

// relationConfidence is assigned to every inferred edge.
const relationConfidence = 0.7

// mergeThreshold is the positional character-match ratio above which two
// same-type labels merge.
const mergeThreshold = 0.8

// categoryPair is an ordered pair of entity categories.
type categoryPair struct {
	source, target common.Category
}

// relationTable maps ordered category pairs to their edge type. Pairs absent
// from the table produce no edge.
var relationTable = map[categoryPair]common.RelationType{
	{common.CategoryLegalArticles, common.CategoryViolations}:      common.RelationRegulates,
	{common.CategoryViolations, common.CategoryPenalties}:          common.RelationLeadsTo,
	{common.CategoryLegalArticles, common.CategoryPenalties}:       common.RelationSpecifiesPenalty,
	{common.CategoryResponsibleParties, common.CategoryViolations}: common.RelationCommits,
	{common.CategoryRelatedConcepts, common.CategoryLegalArticles}: common.RelationInvolves,
	{common.CategoryRelatedConcepts, common.CategoryViolations}:    common.RelationDefines,
}

// Builder assembles the knowledge graph from stored document segments.
type Builder struct {
	extractor *Extractor
	store     store.Store
}

// NewBuilder creates a builder using the given extractor and store.
func NewBuilder(extractor *Extractor, st store.Store) *Builder {
	return &Builder{extractor: extractor, store: st}
}

// ExtractDocumentEntities runs the extractor over every segment of the
// document and accumulates the results per category.
func (b *Builder) ExtractDocumentEntities(ctx context.Context, documentID string) (map[common.Category][]common.Entity, error) {
	segments, err := b.store.GetSegments(ctx, documentID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return map[common.Category][]common.Entity{}, nil
		}
		return nil, fmt.Errorf("load segments for %s: %w", documentID, err)
	}

	byCategory := make(map[common.Category][]common.Entity, len(common.Categories))
	for _, seg := range segments {
		for _, entity := range b.extractor.ExtractSegment(ctx, documentID, seg) {
			byCategory[entity.Category] = append(byCategory[entity.Category], entity)
		}
	}
	return byCategory, nil
}

// InferRelationships creates an edge for every pair of entities from
// different categories that share a segment and whose ordered category pair
// appears in the relation table.
func InferRelationships(entities map[common.Category][]common.Entity) []common.Relationship {
	relationships := make([]common.Relationship, 0)

	for _, sourceCat := range common.Categories {
		for _, source := range entities[sourceCat] {
			for _, targetCat := range common.Categories {
				if sourceCat == targetCat {
					continue
				}
				relation, ok := relationTable[categoryPair{sourceCat, targetCat}]
				if !ok {
					continue
				}
				for _, target := range entities[targetCat] {
					if source.SegmentID != target.SegmentID {
						continue
					}
					relationships = append(relationships, common.Relationship{
						ID:         util.NewID(),
						Source:     source.ID,
						Target:     target.ID,
						Relation:   relation,
						Confidence: relationConfidence,
						Evidence:   source.Source,
					})
				}
			}
		}
	}
	return relationships
}

// Build extracts entities from the given documents, infers relationships,
// merges similar nodes, and persists the resulting graph wholesale. With no
// document ids given it builds from every stored document.
func (b *Builder) Build(ctx context.Context, documentIDs []string) (common.KnowledgeGraph, error) {
	if len(documentIDs) == 0 {
		docs, err := b.store.ListDocuments(ctx)
		if err != nil {
			return common.KnowledgeGraph{}, fmt.Errorf("list documents: %w", err)
		}
		for _, doc := range docs {
			documentIDs = append(documentIDs, doc.ID)
		}
	}

	nodes := make([]common.GraphNode, 0)
	edges := make([]common.Relationship, 0)

	for _, documentID := range documentIDs {
		entities, err := b.ExtractDocumentEntities(ctx, documentID)
		if err != nil {
			return common.KnowledgeGraph{}, err
		}

		for _, category := range common.Categories {
			for _, entity := range entities[category] {
				nodes = append(nodes, common.GraphNode{
					ID:         entity.ID,
					Label:      entity.Text,
					Type:       entity.Type,
					DocumentID: entity.DocumentID,
					Confidence: entity.Confidence,
					Source:     entity.Source,
				})
			}
		}
		edges = append(edges, InferRelationships(entities)...)
	}

	nodes = mergeSimilarNodes(nodes, edges)

	graph := common.KnowledgeGraph{
		Nodes: nodes,
		Edges: edges,
		Metadata: common.GraphMetadata{
			TotalNodes:    len(nodes),
			TotalEdges:    len(edges),
			DocumentCount: len(documentIDs),
			CreatedAt:     time.Now().UTC(),
		},
	}

	if err := b.store.SaveGraph(ctx, graph); err != nil {
		return common.KnowledgeGraph{}, fmt.Errorf("persist graph: %w", err)
	}

	logger.Info("knowledge graph rebuilt",
		"documents", len(documentIDs), "nodes", len(nodes), "edges", len(edges))
	return graph, nil
}

// mergeSimilarNodes groups nodes of identical type with similar labels and
// collapses each group onto its first member. Grouping is first-match-wins
// against nodes not yet claimed by an earlier group, not a transitive
// closure. Edges referencing a merged-away node are rewritten to the
// representative; duplicate edges produced this way are kept.
func mergeSimilarNodes(nodes []common.GraphNode, edges []common.Relationship) []common.GraphNode {
	claimed := make(map[string]struct{}, len(nodes))
	removed := make(map[string]struct{})

	for i := range nodes {
		if _, ok := claimed[nodes[i].ID]; ok {
			continue
		}
		claimed[nodes[i].ID] = struct{}{}

		for j := i + 1; j < len(nodes); j++ {
			if _, ok := claimed[nodes[j].ID]; ok {
				continue
			}
			if nodes[i].Type != nodes[j].Type || !similarLabels(nodes[i].Label, nodes[j].Label) {
				continue
			}
			claimed[nodes[j].ID] = struct{}{}
			removed[nodes[j].ID] = struct{}{}

			for k := range edges {
				if edges[k].Source == nodes[j].ID {
					edges[k].Source = nodes[i].ID
				}
				if edges[k].Target == nodes[j].ID {
					edges[k].Target = nodes[i].ID
				}
			}
		}
	}

	if len(removed) == 0 {
		return nodes
	}
	kept := make([]common.GraphNode, 0, len(nodes)-len(removed))
	for _, node := range nodes {
		if _, ok := removed[node.ID]; !ok {
			kept = append(kept, node)
		}
	}
	return kept
}

// similarLabels reports whether two labels are close enough to merge: exact
// match always, otherwise a positional character-match ratio of at least
// mergeThreshold for labels of three or more characters.
func similarLabels(a, b string) bool {
	if a == b {
		return true
	}

	ra, rb := []rune(a), []rune(b)
	if len(ra) < 3 || len(rb) < 3 {
		return false
	}

	n := len(ra)
	if len(rb) < n {
		n = len(rb)
	}
	matching := 0
	for i := 0; i < n; i++ {
		if ra[i] == rb[i] {
			matching++
		}
	}

	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	return float64(matching)/float64(maxLen) >= mergeThreshold
}

// Query returns all nodes whose label contains the query substring
// case-insensitively, the edges touching them (filtered by relation type if
// given), and the nodes at the far end of those edges.
func (b *Builder) Query(ctx context.Context, entityName string, relationType common.RelationType) (common.Subgraph, error) {
	graph, err := b.store.GetGraph(ctx)
	if err != nil {
		return common.Subgraph{}, fmt.Errorf("load graph: %w", err)
	}

	needle := strings.ToLower(entityName)
	matched := make(map[string]struct{})
	found := 0
	for _, node := range graph.Nodes {
		if strings.Contains(strings.ToLower(node.Label), needle) {
			matched[node.ID] = struct{}{}
			found++
		}
	}

	edges := make([]common.Relationship, 0)
	reachable := make(map[string]struct{}, len(matched))
	for id := range matched {
		reachable[id] = struct{}{}
	}
	for _, edge := range graph.Edges {
		_, srcHit := matched[edge.Source]
		_, tgtHit := matched[edge.Target]
		if !srcHit && !tgtHit {
			continue
		}
		if relationType != "" && edge.Relation != relationType {
			continue
		}
		edges = append(edges, edge)
		reachable[edge.Source] = struct{}{}
		reachable[edge.Target] = struct{}{}
	}

	nodes := make([]common.GraphNode, 0, len(reachable))
	for _, node := range graph.Nodes {
		if _, ok := reachable[node.ID]; ok {
			nodes = append(nodes, node)
		}
	}

	return common.Subgraph{
		Nodes: nodes,
		Edges: edges,
		QueryInfo: common.SubgraphQuery{
			EntityName:   entityName,
			RelationType: relationType,
			FoundMatches: found,
		},
	}, nil
}

// Statistics summarizes the persisted graph.
func (b *Builder) Statistics(ctx context.Context) (common.GraphStatistics, error) {
	graph, err := b.store.GetGraph(ctx)
	if err != nil {
		return common.GraphStatistics{}, fmt.Errorf("load graph: %w", err)
	}

	stats := common.GraphStatistics{
		TotalNodes:    len(graph.Nodes),
		TotalEdges:    len(graph.Edges),
		NodeTypes:     make(map[common.EntityType]int),
		RelationTypes: make(map[common.RelationType]int),
		Metadata:      graph.Metadata,
	}
	for _, node := range graph.Nodes {
		stats.NodeTypes[node.Type]++
	}
	for _, edge := range graph.Edges {
		stats.RelationTypes[edge.Relation]++
	}
	return stats, nil
}
