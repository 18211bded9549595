package rag

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/reglens/backend/pkg/ai"
	"github.com/reglens/backend/pkg/common"
	"github.com/reglens/backend/pkg/graph"
	"github.com/reglens/backend/pkg/store/memory"
	"github.com/reglens/backend/pkg/vector"
)

// stubClient provides fixed embeddings and a canned generation reply.
type stubClient struct {
	vectors map[string][]float32
	reply   string
	genErr  error
}

func (s *stubClient) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := s.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = make([]float32, 3)
		}
	}
	return out, nil
}

func (s *stubClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	if s.genErr != nil {
		return "", s.genErr
	}
	return s.reply, nil
}

func (s *stubClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	return errors.New("not used")
}

func newPipeline(t *testing.T, client *stubClient) (*Orchestrator, *memory.Store) {
	t.Helper()
	st := memory.NewStore()
	index := vector.NewIndex(client, st)
	builder := graph.NewBuilder(graph.NewExtractor(client), st)
	return NewOrchestrator(index, builder, client), st
}

func TestBuildContextFormat(t *testing.T) {
	items := []common.ContextItem{
		{Content: "first clause"},
		{Content: "second clause"},
	}

	got := BuildContext(items, 3000)
	want := "[Document 1] first clause\n\n[Document 2] second clause"
	if got != want {
		t.Fatalf("context = %q, want %q", got, want)
	}
}

func TestBuildContextTruncatesLastItem(t *testing.T) {
	items := []common.ContextItem{
		{Content: strings.Repeat("a", 200)},
		{Content: strings.Repeat("b", 500)},
	}

	// first item uses 213 chars, leaving 187 of budget: enough to truncate
	got := BuildContext(items, 400)
	parts := strings.Split(got, "\n\n")
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if !strings.HasSuffix(parts[1], "...") {
		t.Fatalf("second part not truncated: %q", parts[1][:40])
	}
	if len(parts[1]) != 187+3 {
		t.Fatalf("truncated length: %d", len(parts[1]))
	}
}

func TestBuildContextDropsWhenBudgetTooSmall(t *testing.T) {
	items := []common.ContextItem{
		{Content: strings.Repeat("a", 300)},
		{Content: strings.Repeat("b", 500)},
	}

	// first item uses 313 chars, leaving 87: below the truncation minimum
	got := BuildContext(items, 400)
	if strings.Contains(got, "Document 2") {
		t.Fatal("overflowing item should have been dropped")
	}
}

func TestConfidenceFormula(t *testing.T) {
	tests := []struct {
		name  string
		items []common.ContextItem
		query string
		want  float64
	}{
		{
			"empty items",
			nil,
			"any question at all",
			0.0,
		},
		{
			"long query full volume",
			[]common.ContextItem{
				{SimilarityScore: 0.8}, {SimilarityScore: 0.8}, {SimilarityScore: 0.8},
				{SimilarityScore: 0.8}, {SimilarityScore: 0.8},
			},
			"what penalties apply to price fixing?",
			// 0.5*0.8 + 0.3*1.0 + 0.2*0.8
			0.86,
		},
		{
			"short query partial volume",
			[]common.ContextItem{{SimilarityScore: 0.6}},
			"fines?",
			// 0.5*0.6 + 0.3*0.2 + 0.2*0.5
			0.46,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(tt.items, tt.query)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Confidence() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestAnswerSourcesSkipSynthetic(t *testing.T) {
	client := &stubClient{reply: "Per Article 5, this is prohibited."}
	o, _ := newPipeline(t, client)

	items := []common.ContextItem{
		{ID: "kg_context", Content: "graph summary", SimilarityScore: 0.9, Synthetic: true},
		{ID: "s1", Content: "clause one", SimilarityScore: 0.8, DocumentID: "doc-1"},
		{ID: "s2", Content: "clause two", SimilarityScore: 0.7, DocumentID: "doc-1"},
		{ID: "s3", Content: "clause three", SimilarityScore: 0.6, DocumentID: "doc-2"},
	}

	answer := o.Answer(context.Background(), "what is prohibited under article 5?", items)
	if answer.Answer != "Per Article 5, this is prohibited." {
		t.Fatalf("answer: %q", answer.Answer)
	}
	// only the first 3 items are considered, and the synthetic one is skipped
	if len(answer.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(answer.Sources))
	}
	if answer.Sources[0].DocumentID != "doc-1" || !strings.HasSuffix(answer.Sources[0].Content, "...") {
		t.Fatalf("source: %+v", answer.Sources[0])
	}
	if answer.ContextUsed != 4 {
		t.Fatalf("context used: %d", answer.ContextUsed)
	}
}

func TestAnswerEmbedsGenerationError(t *testing.T) {
	client := &stubClient{genErr: errors.New("model timeout")}
	o, _ := newPipeline(t, client)

	answer := o.Answer(context.Background(), "question", []common.ContextItem{{Content: "c", SimilarityScore: 0.5}})
	if !strings.Contains(answer.Answer, "model timeout") {
		t.Fatalf("error not embedded: %q", answer.Answer)
	}
	if answer.Confidence != 0.0 || len(answer.Sources) != 0 {
		t.Fatalf("degraded answer not empty: %+v", answer)
	}
}

func TestAskNoResults(t *testing.T) {
	client := &stubClient{reply: "unused"}
	o, _ := newPipeline(t, client)

	answer := o.Ask(context.Background(), "completely unrelated", 5, true)
	if answer.Answer != noResultsAnswer {
		t.Fatalf("answer: %q", answer.Answer)
	}
	if answer.Confidence != 0.0 || answer.RetrievalCount != 0 {
		t.Fatalf("unexpected degraded answer: %+v", answer)
	}
}

func TestAskFullPipeline(t *testing.T) {
	client := &stubClient{
		vectors: map[string][]float32{
			"Article 5 prohibits price fixing by suppliers.": {1, 0, 0},
			"what does article 5 prohibit?":                  {1, 0, 0},
		},
		reply: "Article 5 prohibits price fixing.",
	}
	o, st := newPipeline(t, client)
	ctx := context.Background()

	index := vector.NewIndex(client, st)
	if _, err := index.Index(ctx, "doc-1", []common.Segment{
		{ID: "s1", Content: "Article 5 prohibits price fixing by suppliers."},
	}); err != nil {
		t.Fatalf("index: %v", err)
	}

	answer := o.Ask(ctx, "what does article 5 prohibit?", 5, false)
	if answer.Answer != "Article 5 prohibits price fixing." {
		t.Fatalf("answer: %q", answer.Answer)
	}
	if answer.RetrievalCount != 1 || answer.ContextUsed != 1 {
		t.Fatalf("counts: %+v", answer)
	}
	if answer.Query != "what does article 5 prohibit?" {
		t.Fatalf("query echo: %q", answer.Query)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].DocumentID != "doc-1" {
		t.Fatalf("sources: %+v", answer.Sources)
	}
}

func TestEnrichWithGraphPrependsSyntheticItem(t *testing.T) {
	client := &stubClient{reply: "unused"}
	o, st := newPipeline(t, client)
	ctx := context.Background()

	if err := st.SaveGraph(ctx, common.KnowledgeGraph{
		Nodes: []common.GraphNode{
			{ID: "n1", Label: "price fixing", Type: common.EntityViolation},
			{ID: "n2", Label: "$500 fine", Type: common.EntityPenalty},
		},
		Edges: []common.Relationship{
			{ID: "r1", Source: "n1", Target: "n2", Relation: common.RelationLeadsTo},
		},
	}); err != nil {
		t.Fatalf("save graph: %v", err)
	}

	items := []common.ContextItem{{ID: "s1", Content: "clause", SimilarityScore: 0.5}}
	enriched := o.EnrichWithGraph(ctx, "price fixing", items)

	if len(enriched) != 2 {
		t.Fatalf("expected 2 items, got %d", len(enriched))
	}
	first := enriched[0]
	if !first.Synthetic || first.SimilarityScore != 0.9 {
		t.Fatalf("synthetic item: %+v", first)
	}
	if !strings.Contains(first.Content, "price fixing (VIOLATION)") {
		t.Fatalf("graph summary: %q", first.Content)
	}
	if !strings.Contains(first.Content, "price fixing leads_to $500 fine") {
		t.Fatalf("relationship sentence missing: %q", first.Content)
	}
}

func TestEnrichWithGraphNoMatches(t *testing.T) {
	client := &stubClient{reply: "unused"}
	o, _ := newPipeline(t, client)

	items := []common.ContextItem{{ID: "s1", Content: "clause", SimilarityScore: 0.5}}
	enriched := o.EnrichWithGraph(context.Background(), "nothing matches", items)
	if len(enriched) != 1 {
		t.Fatalf("expected unenriched items, got %d", len(enriched))
	}
}

func TestSuggestQuestions(t *testing.T) {
	client := &stubClient{
		vectors: map[string][]float32{
			"Article 5 prohibits price fixing.": {1, 0, 0},
			"price fixing rules":                {1, 0, 0},
		},
		reply: "1. What penalties apply to price fixing?\nnot a question\n2. Who enforces Article 5?\n3. 何时生效？\n4. How are fines assessed?",
	}
	o, st := newPipeline(t, client)
	ctx := context.Background()

	index := vector.NewIndex(client, st)
	if _, err := index.Index(ctx, "doc-1", []common.Segment{
		{ID: "s1", Content: "Article 5 prohibits price fixing."},
	}); err != nil {
		t.Fatalf("index: %v", err)
	}

	suggestions := o.SuggestQuestions(ctx, "price fixing rules", 3)
	if len(suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %v", suggestions)
	}
	if suggestions[0] != "What penalties apply to price fixing?" {
		t.Fatalf("numbering not stripped: %q", suggestions[0])
	}
	if suggestions[2] != "何时生效？" {
		t.Fatalf("CJK question mark not accepted: %q", suggestions[2])
	}
}

func TestSuggestQuestionsNoRetrieval(t *testing.T) {
	client := &stubClient{reply: "unused"}
	o, _ := newPipeline(t, client)

	if got := o.SuggestQuestions(context.Background(), "anything", 3); len(got) != 0 {
		t.Fatalf("expected no suggestions, got %v", got)
	}
}
