// Package rag runs the retrieval-augmented answering pipeline: retrieve
// similar segments, optionally enrich them with knowledge graph context,
// build a bounded prompt context, and generate an answer with a confidence
// estimate.
package rag

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/reglens/backend/internal/util"
	"github.com/reglens/backend/pkg/ai"
	"github.com/reglens/backend/pkg/common"
	"github.com/reglens/backend/pkg/graph"
	"github.com/reglens/backend/pkg/logger"
	"github.com/reglens/backend/pkg/vector"
)

const (
	// DefaultTopK is the retrieval depth when the caller does not choose one.
	DefaultTopK = 5
	// DefaultSimilarityThreshold filters weak matches out of retrieval.
	DefaultSimilarityThreshold = 0.3

	defaultContextChars = 3000
	answerMaxTokens     = 1500
	suggestMaxTokens    = 500

	// graphContextScore ranks the synthetic graph summary above every
	// retrieved segment.
	graphContextScore = 0.9

	noResultsAnswer = "Sorry, no relevant regulatory documents found to answer your question."
)

// Orchestrator wires the vector index, graph builder, and generation client
// into the answering pipeline.
type Orchestrator struct {
	index     *vector.Index
	graph     *graph.Builder
	generator ai.Generator
}

// NewOrchestrator creates the pipeline over the given collaborators.
func NewOrchestrator(index *vector.Index, builder *graph.Builder, generator ai.Generator) *Orchestrator {
	return &Orchestrator{index: index, graph: builder, generator: generator}
}

// Retrieve over-fetches twice the requested depth, drops segments below the
// similarity threshold, and returns at most topK results.
func (o *Orchestrator) Retrieve(ctx context.Context, query string, topK int, threshold float64) ([]common.ScoredSegment, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	segments, err := o.index.Search(ctx, query, topK*2, 0)
	if err != nil {
		return nil, err
	}

	results := make([]common.ScoredSegment, 0, topK)
	for _, seg := range segments {
		if seg.SimilarityScore < threshold {
			continue
		}
		results = append(results, seg)
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

// ContextItems converts retrieved segments into prompt context items.
func ContextItems(segments []common.ScoredSegment) []common.ContextItem {
	items := make([]common.ContextItem, len(segments))
	for i, seg := range segments {
		items[i] = common.ContextItem{
			ID:              seg.ID,
			Content:         seg.Content,
			SimilarityScore: seg.SimilarityScore,
			DocumentID:      seg.DocumentID,
		}
	}
	return items
}

// EnrichWithGraph queries the knowledge graph for the question and, when
// nodes match, prepends one synthetic high-priority context item summarizing
// them. Graph failures degrade silently to the unenriched items.
func (o *Orchestrator) EnrichWithGraph(ctx context.Context, query string, items []common.ContextItem) []common.ContextItem {
	sub, err := o.graph.Query(ctx, query, "")
	if err != nil {
		logger.Warn("graph enrichment failed", "error", err)
		return items
	}
	if len(sub.Nodes) == 0 {
		return items
	}

	enriched := make([]common.ContextItem, 0, len(items)+1)
	enriched = append(enriched, common.ContextItem{
		ID:              "kg_context",
		Content:         formatGraphContext(sub),
		SimilarityScore: graphContextScore,
		Synthetic:       true,
	})
	return append(enriched, items...)
}

// formatGraphContext renders up to 5 node labels and up to 3 relationship
// sentences from the subgraph.
func formatGraphContext(sub common.Subgraph) string {
	labels := make(map[string]string, len(sub.Nodes))
	for _, node := range sub.Nodes {
		labels[node.ID] = node.Label
	}

	var b strings.Builder
	b.WriteString("Related legal entities and relationships:\n")
	for i, node := range sub.Nodes {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "\n- %s (%s)", node.Label, node.Type)
	}

	if len(sub.Edges) > 0 {
		b.WriteString("\n\nRelated legal relationships:")
		written := 0
		for _, edge := range sub.Edges {
			if written == 3 {
				break
			}
			source, okS := labels[edge.Source]
			target, okT := labels[edge.Target]
			if !okS || !okT {
				continue
			}
			fmt.Fprintf(&b, "\n- %s %s %s", source, edge.Relation, target)
			written++
		}
	}
	return b.String()
}

// BuildContext concatenates items as "[Document i] content" until maxChars
// is reached. An overflowing item is truncated in place with an ellipsis
// when more than 100 characters of budget remain, otherwise dropped.
func BuildContext(items []common.ContextItem, maxChars int) string {
	if maxChars <= 0 {
		maxChars = defaultContextChars
	}

	parts := make([]string, 0, len(items))
	used := 0
	for i, item := range items {
		text := fmt.Sprintf("[Document %d] %s", i+1, item.Content)
		length := utf8.RuneCountInString(text)

		if used+length > maxChars {
			remaining := maxChars - used
			if remaining > 100 {
				parts = append(parts, util.TruncateRunes(text, remaining)+"...")
			}
			break
		}
		parts = append(parts, text)
		used += length
	}
	return strings.Join(parts, "\n\n")
}

// Confidence estimates answer reliability from average similarity, context
// volume, and query specificity, rounded to two decimals.
func Confidence(items []common.ContextItem, query string) float64 {
	if len(items) == 0 {
		return 0.0
	}

	var sum float64
	for _, item := range items {
		sum += item.SimilarityScore
	}
	avgSimilarity := sum / float64(len(items))

	volume := math.Min(float64(len(items))/5.0, 1.0)

	coverage := 0.5
	if utf8.RuneCountInString(query) > 10 {
		coverage = 0.8
	}

	confidence := avgSimilarity*0.5 + volume*0.3 + coverage*0.2
	return math.Round(confidence*100) / 100
}

// Answer builds the bounded context, requests an answer from the generation
// model, and attaches confidence and source citations. Generation failures
// are embedded in the answer text, never returned as an error.
func (o *Orchestrator) Answer(ctx context.Context, query string, items []common.ContextItem) common.Answer {
	contextText := BuildContext(items, defaultContextChars)
	prompt := fmt.Sprintf(ai.AnswerPrompt, contextText, query)

	text, err := o.generator.GenerateCompletion(ctx, prompt, ai.WithMaxTokens(answerMaxTokens))
	if err != nil {
		logger.Warn("answer generation failed", "error", err)
		return common.Answer{
			Answer:     fmt.Sprintf("Sorry, an error occurred while generating the answer: %v", err),
			Confidence: 0.0,
			Sources:    []common.AnswerSource{},
		}
	}

	sources := make([]common.AnswerSource, 0, 3)
	for i, item := range items {
		if i == 3 {
			break
		}
		if item.Synthetic {
			continue
		}
		sources = append(sources, common.AnswerSource{
			Content:         util.Excerpt(item.Content, 200),
			SimilarityScore: item.SimilarityScore,
			DocumentID:      item.DocumentID,
		})
	}

	return common.Answer{
		Answer:      text,
		Confidence:  Confidence(items, query),
		Sources:     sources,
		ContextUsed: len(items),
	}
}

// Ask runs the full pipeline for one question. Retrieval or graph failures
// never surface as errors; the answer text carries them instead.
func (o *Orchestrator) Ask(ctx context.Context, question string, topK int, useGraph bool) common.Answer {
	retrieved, err := o.Retrieve(ctx, question, topK, DefaultSimilarityThreshold)
	if err != nil {
		logger.Warn("retrieval failed", "error", err)
		return common.Answer{
			Answer:     fmt.Sprintf("System error: %v", err),
			Confidence: 0.0,
			Sources:    []common.AnswerSource{},
			Query:      question,
		}
	}
	if len(retrieved) == 0 {
		return common.Answer{
			Answer:     noResultsAnswer,
			Confidence: 0.0,
			Sources:    []common.AnswerSource{},
			Query:      question,
		}
	}

	items := ContextItems(retrieved)
	if useGraph {
		items = o.EnrichWithGraph(ctx, question, items)
	}

	answer := o.Answer(ctx, question, items)
	answer.Query = question
	answer.RetrievalCount = len(retrieved)
	return answer
}

// SuggestQuestions proposes up to n follow-up questions grounded in the
// regulations most similar to the original one. Failures yield an empty
// list.
func (o *Orchestrator) SuggestQuestions(ctx context.Context, question string, n int) []string {
	if n <= 0 {
		n = 3
	}

	retrieved, err := o.Retrieve(ctx, question, DefaultTopK, DefaultSimilarityThreshold)
	if err != nil || len(retrieved) == 0 {
		return []string{}
	}

	contextText := BuildContext(ContextItems(retrieved), 1000)
	prompt := fmt.Sprintf(ai.SuggestQuestionsPrompt, n, contextText, question, n)

	reply, err := o.generator.GenerateCompletion(ctx, prompt, ai.WithMaxTokens(suggestMaxTokens))
	if err != nil {
		logger.Warn("question suggestion failed", "error", err)
		return []string{}
	}

	suggestions := make([]string, 0, n)
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "?") && !strings.Contains(line, "？") {
			continue
		}
		line = strings.TrimLeft(line, "123456789. -")
		suggestions = append(suggestions, line)
		if len(suggestions) == n {
			break
		}
	}
	return suggestions
}
