package compliance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/reglens/backend/pkg/ai"
	"github.com/reglens/backend/pkg/common"
	"github.com/reglens/backend/pkg/graph"
	"github.com/reglens/backend/pkg/rag"
	"github.com/reglens/backend/pkg/store/memory"
	"github.com/reglens/backend/pkg/vector"
)

// scriptedClient answers embedding requests from a fixed vector table and
// generation requests by prompt kind.
type scriptedClient struct {
	vectors        map[string][]float32
	judgmentReply  string
	violationReply string
	genErr         error
}

func (s *scriptedClient) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := s.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = []float32{1, 0, 0}
		}
	}
	return out, nil
}

func (s *scriptedClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	if s.genErr != nil {
		return "", s.genErr
	}
	if strings.Contains(prompt, "is_violation") {
		return s.violationReply, nil
	}
	return s.judgmentReply, nil
}

func (s *scriptedClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	return errors.New("not used")
}

func newAnalyzer(t *testing.T, client *scriptedClient) (*Analyzer, *memory.Store) {
	t.Helper()
	st := memory.NewStore()
	index := vector.NewIndex(client, st)
	builder := graph.NewBuilder(graph.NewExtractor(client), st)
	retriever := rag.NewOrchestrator(index, builder, client)
	return NewAnalyzer(retriever, client, st), st
}

func indexRegulation(t *testing.T, client *scriptedClient, st *memory.Store, content string) {
	t.Helper()
	index := vector.NewIndex(client, st)
	if _, err := index.Index(context.Background(), "doc-1", []common.Segment{
		{ID: "s1", Content: content},
	}); err != nil {
		t.Fatalf("index: %v", err)
	}
}

func TestFlattenBusinessData(t *testing.T) {
	data := map[string]any{
		"region":         "east",
		"description":    "we sell beverages",
		"business_type":  "wholesale",
		"price_strategy": "fixed pricing",
	}

	got := FlattenBusinessData(data)
	want := "Business Type: wholesale\n" +
		"Price Strategy: fixed pricing\n" +
		"Detailed Description: we sell beverages\n" +
		"region: east"
	if got != want {
		t.Fatalf("flattened = %q, want %q", got, want)
	}
}

func TestFlattenBusinessDataSkipsNonStrings(t *testing.T) {
	got := FlattenBusinessData(map[string]any{
		"description": "desc",
		"employees":   12,
	})
	if strings.Contains(got, "employees") {
		t.Fatalf("non-string key rendered: %q", got)
	}
}

func TestRiskScore(t *testing.T) {
	tests := []struct {
		name       string
		status     common.ComplianceStatus
		riskLevel  common.RiskLevel
		confidence float64
		want       float64
	}{
		{"violation high full confidence", common.StatusViolation, common.RiskHigh, 0.9, 0.81},
		{"compliant low", common.StatusCompliant, common.RiskLow, 1.0, 0.03},
		{"unknown medium half", common.StatusUnknown, common.RiskMedium, 0.5, 0.15},
		{"risk medium", common.StatusRisk, common.RiskMedium, 0.8, 0.29},
		{"unrecognized status", common.ComplianceStatus("Odd"), common.RiskMedium, 1.0, 0.3},
		{"unrecognized level defaults", common.StatusViolation, common.RiskLevel("Odd"), 1.0, 0.54},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RiskScore(tt.status, tt.riskLevel, tt.confidence)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("RiskScore() = %f, want %f", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Fatalf("score out of range: %f", got)
			}
		})
	}
}

func TestAnalyzeNoRegulations(t *testing.T) {
	client := &scriptedClient{judgmentReply: "unused"}
	analyzer, st := newAnalyzer(t, client)

	analysis, err := analyzer.Analyze(context.Background(), map[string]any{"description": "anything"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.Status != common.StatusUnknown || analysis.RiskLevel != common.RiskMedium {
		t.Fatalf("degraded verdict: %+v", analysis)
	}
	if analysis.RiskScore != 0.5 {
		t.Fatalf("risk score: %f", analysis.RiskScore)
	}
	if analysis.CheckedRegulations != 0 {
		t.Fatalf("checked regulations: %d", analysis.CheckedRegulations)
	}
	if len(analysis.Recommendations) != 3 {
		t.Fatalf("recommendations: %v", analysis.Recommendations)
	}
	if analysis.Recommendations[0] != "Recommend strengthening internal compliance training and establishing regular self-inspection mechanisms" {
		t.Fatalf("medium risk recommendation missing: %v", analysis.Recommendations)
	}

	if _, err := st.GetAnalysis(context.Background(), analysis.ID); err != nil {
		t.Fatalf("analysis not persisted: %v", err)
	}
}

func TestAnalyzeViolationVerdict(t *testing.T) {
	client := &scriptedClient{
		judgmentReply:  `{"compliance_status":"Violation","risk_level":"High","confidence":0.9}`,
		violationReply: `{"is_violation":true,"has_risk":true,"violation_reason":"fixes prices with competitors","risk_points":["collusion"],"severity":"severe"}`,
	}
	analyzer, st := newAnalyzer(t, client)
	indexRegulation(t, client, st, "Article 5 prohibits agreements fixing resale prices between competitors.")

	analysis, err := analyzer.Analyze(context.Background(), map[string]any{
		"description": "we fix prices with competitors",
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if analysis.Status != common.StatusViolation || analysis.RiskLevel != common.RiskHigh {
		t.Fatalf("verdict: %+v", analysis)
	}
	if analysis.RiskScore != 0.81 {
		t.Fatalf("risk score: %f", analysis.RiskScore)
	}
	if len(analysis.Violations) != 1 || len(analysis.Warnings) != 0 {
		t.Fatalf("findings: %d violations, %d warnings", len(analysis.Violations), len(analysis.Warnings))
	}
	finding := analysis.Violations[0]
	if finding.Severity != common.SeveritySevere || !strings.HasSuffix(finding.RegulationExcerpt, "...") {
		t.Fatalf("finding: %+v", finding)
	}

	if analysis.Recommendations[0] != "Immediately stop related business activities and conduct comprehensive compliance remediation" {
		t.Fatalf("first recommendation: %q", analysis.Recommendations[0])
	}
	found := false
	for _, r := range analysis.Recommendations {
		if strings.Contains(r, "Serious violation: fixes prices with competitors") {
			found = true
		}
	}
	if !found {
		t.Fatalf("severe violation line missing: %v", analysis.Recommendations)
	}
}

func TestAnalyzeJudgmentParseFailure(t *testing.T) {
	client := &scriptedClient{
		judgmentReply:  "no json here",
		violationReply: `{"is_violation":false,"has_risk":false}`,
	}
	analyzer, st := newAnalyzer(t, client)
	indexRegulation(t, client, st, "Some regulation text.")

	analysis, err := analyzer.Analyze(context.Background(), map[string]any{"description": "behavior"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.Status != common.StatusUnknown || analysis.RiskLevel != common.RiskMedium {
		t.Fatalf("fallback verdict: %+v", analysis)
	}
	// 0.5 * 0.6 * 0.5
	if analysis.RiskScore != 0.15 {
		t.Fatalf("risk score: %f", analysis.RiskScore)
	}
}

func TestCheckViolationsManualReviewFallback(t *testing.T) {
	client := &scriptedClient{genErr: errors.New("model down")}
	analyzer, _ := newAnalyzer(t, client)

	regulations := []common.ScoredSegment{{
		Segment:         common.Segment{ID: "s1", Content: "Regulation text."},
		DocumentID:      "doc-1",
		SimilarityScore: 0.9,
	}}

	violations, warnings := analyzer.checkViolations(context.Background(), "desc", regulations)
	if len(violations) != 0 || len(warnings) != 1 {
		t.Fatalf("findings: %d violations, %d warnings", len(violations), len(warnings))
	}
	w := warnings[0]
	if w.Reason != "Requires manual review" || w.Severity != common.SeverityModerate {
		t.Fatalf("fallback finding: %+v", w)
	}
}

func TestCheckViolationsSimilarityGate(t *testing.T) {
	client := &scriptedClient{violationReply: `{"is_violation":true,"has_risk":true,"severity":"minor"}`}
	analyzer, _ := newAnalyzer(t, client)

	regulations := []common.ScoredSegment{{
		Segment:         common.Segment{ID: "s1", Content: "Regulation text."},
		SimilarityScore: 0.5,
	}}

	violations, warnings := analyzer.checkViolations(context.Background(), "desc", regulations)
	if len(violations) != 0 || len(warnings) != 0 {
		t.Fatal("low-similarity regulation should not be checked")
	}
}

func TestRecommendationsCapped(t *testing.T) {
	warnings := make([]common.ViolationFinding, 10)
	for i := range warnings {
		warnings[i] = common.ViolationFinding{RiskPoints: []string{fmt.Sprintf("point %d", i)}}
	}

	recs := Recommendations(common.StatusRisk, common.RiskHigh, nil, warnings)
	if len(recs) != maxRecommendations {
		t.Fatalf("expected cap of %d, got %d", maxRecommendations, len(recs))
	}
	if recs[0] != "Recommend conducting compliance review and improving related systems and processes" {
		t.Fatalf("priority order broken: %q", recs[0])
	}
}

func TestRecommendationsCompliantLow(t *testing.T) {
	recs := Recommendations(common.StatusCompliant, common.RiskLow, nil, nil)
	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations, got %v", recs)
	}
	if !strings.Contains(recs[0], "Continue maintaining") {
		t.Fatalf("first: %q", recs[0])
	}
	if recs[1] != generalRecommendations[0] || recs[2] != generalRecommendations[1] {
		t.Fatalf("general tail: %v", recs[1:])
	}
}

func TestHistoryOrderAndLimit(t *testing.T) {
	client := &scriptedClient{}
	analyzer, st := newAnalyzer(t, client)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 4; i++ {
		analysis := common.ComplianceAnalysis{
			ID:        fmt.Sprintf("a%d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Status:    common.StatusRisk,
			RiskLevel: common.RiskMedium,
			Violations: []common.ViolationFinding{
				{IsViolation: true},
			},
		}
		if err := st.SaveAnalysis(ctx, analysis); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	history, err := analyzer.History(ctx, 3)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(history))
	}
	if history[0].ID != "a3" || history[2].ID != "a1" {
		t.Fatalf("order: %v", history)
	}
	if history[0].ViolationCount != 1 {
		t.Fatalf("violation count: %d", history[0].ViolationCount)
	}
}
