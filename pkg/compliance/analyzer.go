// Package compliance scores business behavior against the indexed
// regulation corpus. Retrieval finds the applicable segments, the generation
// model classifies the behavior, and a deterministic scoring function turns
// the classification into a risk score and recommendations.
package compliance

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/reglens/backend/internal/util"
	"github.com/reglens/backend/pkg/ai"
	"github.com/reglens/backend/pkg/common"
	"github.com/reglens/backend/pkg/logger"
	"github.com/reglens/backend/pkg/rag"
	"github.com/reglens/backend/pkg/store"
)

const (
	// regulationFetchDepth is how many segments the classification path
	// retrieves. The threshold is zero: this path classifies, it does not
	// filter.
	regulationFetchDepth = 10

	// judgmentSegmentLimit caps the segments concatenated into the
	// classification prompt and checked per-segment.
	judgmentSegmentLimit = 5

	// violationCheckThreshold gates per-segment violation checks.
	violationCheckThreshold = 0.7

	violationCheckMaxTokens = 800
)

var baseScores = map[common.ComplianceStatus]float64{
	common.StatusCompliant: 0.1,
	common.StatusViolation: 0.9,
	common.StatusRisk:      0.6,
	common.StatusUnknown:   0.5,
}

var riskMultipliers = map[common.RiskLevel]float64{
	common.RiskLow:    0.3,
	common.RiskMedium: 0.6,
	common.RiskHigh:   1.0,
}

// judgment is the structured classification requested from the model.
type judgment struct {
	ComplianceStatus string  `json:"compliance_status"`
	Confidence       float64 `json:"confidence"`
	RiskLevel        string  `json:"risk_level"`
}

// violationCheck is the structured per-segment verdict requested from the
// model.
type violationCheck struct {
	IsViolation bool     `json:"is_violation"`
	HasRisk     bool     `json:"has_risk"`
	Reason      string   `json:"violation_reason"`
	RiskPoints  []string `json:"risk_points"`
	Severity    string   `json:"severity"`
}

// Analyzer runs compliance analyses and keeps their history.
type Analyzer struct {
	retriever *rag.Orchestrator
	generator ai.Generator
	store     store.Store
}

// NewAnalyzer creates an analyzer over the retrieval pipeline, generation
// client, and store.
func NewAnalyzer(retriever *rag.Orchestrator, generator ai.Generator, st store.Store) *Analyzer {
	return &Analyzer{retriever: retriever, generator: generator, store: st}
}

// knownKeys are rendered first, in this order, when flattening business
// data.
var knownKeys = []struct {
	key   string
	label string
}{
	{"business_type", "Business Type"},
	{"price_strategy", "Price Strategy"},
	{"market_behavior", "Market Behavior"},
	{"description", "Detailed Description"},
}

// FlattenBusinessData renders business data as a description string: known
// keys first with fixed labels, then remaining string-valued keys sorted by
// name.
func FlattenBusinessData(businessData map[string]any) string {
	parts := make([]string, 0, len(businessData))

	for _, k := range knownKeys {
		if v, ok := businessData[k.key]; ok {
			parts = append(parts, fmt.Sprintf("%s: %v", k.label, v))
		}
	}

	rest := make([]string, 0, len(businessData))
	for key, value := range businessData {
		known := false
		for _, k := range knownKeys {
			if key == k.key {
				known = true
				break
			}
		}
		if known {
			continue
		}
		if s, ok := value.(string); ok {
			rest = append(rest, fmt.Sprintf("%s: %s", key, s))
		}
	}
	sort.Strings(rest)
	parts = append(parts, rest...)

	if len(parts) == 0 {
		return fmt.Sprintf("%v", businessData)
	}
	return strings.Join(parts, "\n")
}

// Analyze runs the full compliance analysis for the given business data and
// persists the result. Provider failures degrade to fixed fallback verdicts;
// only storage and retrieval infrastructure errors are returned.
func (a *Analyzer) Analyze(ctx context.Context, businessData map[string]any) (common.ComplianceAnalysis, error) {
	analysis := common.ComplianceAnalysis{
		ID:        util.NewID(),
		Timestamp: time.Now().UTC(),
	}

	description := FlattenBusinessData(businessData)
	analysis.BusinessDescription = description

	regulations, err := a.retriever.Retrieve(ctx, description, regulationFetchDepth, 0)
	if err != nil {
		return common.ComplianceAnalysis{}, fmt.Errorf("retrieve regulations: %w", err)
	}
	analysis.CheckedRegulations = len(regulations)

	if len(regulations) == 0 {
		// fixed degraded verdict, not an error
		analysis.Status = common.StatusUnknown
		analysis.RiskLevel = common.RiskMedium
		analysis.RiskScore = 0.5
	} else {
		status, riskLevel, confidence := a.assessRisk(ctx, description, regulations)
		analysis.Status = status
		analysis.RiskLevel = riskLevel
		analysis.RiskScore = RiskScore(status, riskLevel, confidence)
	}

	analysis.Violations, analysis.Warnings = a.checkViolations(ctx, description, regulations)
	analysis.Recommendations = Recommendations(analysis.Status, analysis.RiskLevel, analysis.Violations, analysis.Warnings)

	if err := a.store.SaveAnalysis(ctx, analysis); err != nil {
		return common.ComplianceAnalysis{}, fmt.Errorf("persist analysis: %w", err)
	}

	logger.Info("compliance analysis completed",
		"analysis_id", analysis.ID,
		"status", analysis.Status,
		"risk_score", analysis.RiskScore,
		"violations", len(analysis.Violations))
	return analysis, nil
}

// assessRisk classifies the business description against the retrieved
// regulations. When the model fails or its reply cannot be parsed, it
// degrades to a fixed verdict instead of erroring.
func (a *Analyzer) assessRisk(ctx context.Context, description string, regulations []common.ScoredSegment) (common.ComplianceStatus, common.RiskLevel, float64) {
	limit := judgmentSegmentLimit
	if len(regulations) < limit {
		limit = len(regulations)
	}
	texts := make([]string, limit)
	for i := 0; i < limit; i++ {
		texts[i] = regulations[i].Content
	}

	prompt := fmt.Sprintf(ai.ComplianceJudgmentPrompt, strings.Join(texts, "\n\n"), description)
	reply, err := a.generator.GenerateCompletion(ctx, prompt)
	if err != nil {
		logger.Warn("compliance judgment unavailable", "error", err)
		return common.StatusUnknown, common.RiskMedium, 0.5
	}

	var j judgment
	if err := ai.UnmarshalFirstObject(reply, &j); err != nil {
		logger.Warn("compliance judgment unparseable", "error", err)
		return common.StatusUnknown, common.RiskMedium, 0.5
	}

	status := common.ComplianceStatus(j.ComplianceStatus)
	if status == "" {
		status = common.StatusUnknown
	}
	riskLevel := common.RiskLevel(j.RiskLevel)
	if riskLevel == "" {
		riskLevel = common.RiskMedium
	}
	confidence := j.Confidence
	if confidence == 0 {
		confidence = 0.5
	}
	return status, riskLevel, confidence
}

// RiskScore combines the classified status, risk level, and model confidence
// into a deterministic score, clamped to [0,1] and rounded to two decimals.
// Unrecognized statuses score 0.5 and unrecognized risk levels multiply by
// 0.6.
func RiskScore(status common.ComplianceStatus, riskLevel common.RiskLevel, confidence float64) float64 {
	base, ok := baseScores[status]
	if !ok {
		base = 0.5
	}
	multiplier, ok := riskMultipliers[riskLevel]
	if !ok {
		multiplier = 0.6
	}

	score := base * multiplier * confidence
	score = math.Min(math.Max(score, 0.0), 1.0)
	return math.Round(score*100) / 100
}

// checkViolations asks for a focused verdict on every high-similarity
// regulation among the top segments. Verdicts partition into violations and
// warnings; a failed check substitutes a fixed manual-review finding.
func (a *Analyzer) checkViolations(ctx context.Context, description string, regulations []common.ScoredSegment) (violations, warnings []common.ViolationFinding) {
	violations = make([]common.ViolationFinding, 0)
	warnings = make([]common.ViolationFinding, 0)

	limit := judgmentSegmentLimit
	if len(regulations) < limit {
		limit = len(regulations)
	}
	for i := 0; i < limit; i++ {
		regulation := regulations[i]
		if regulation.SimilarityScore <= violationCheckThreshold {
			continue
		}

		finding := a.checkSegment(ctx, description, regulation)
		if finding.IsViolation {
			violations = append(violations, finding)
		} else if finding.HasRisk {
			warnings = append(warnings, finding)
		}
	}
	return violations, warnings
}

func (a *Analyzer) checkSegment(ctx context.Context, description string, regulation common.ScoredSegment) common.ViolationFinding {
	excerpt := util.Excerpt(regulation.Content, 200)

	prompt := fmt.Sprintf(ai.ViolationCheckPrompt, regulation.Content, description)
	reply, err := a.generator.GenerateCompletion(ctx, prompt, ai.WithMaxTokens(violationCheckMaxTokens))
	if err == nil {
		var check violationCheck
		if err := ai.UnmarshalFirstObject(reply, &check); err == nil {
			return common.ViolationFinding{
				IsViolation:       check.IsViolation,
				HasRisk:           check.HasRisk,
				Reason:            check.Reason,
				RiskPoints:        check.RiskPoints,
				Severity:          common.Severity(check.Severity),
				RegulationExcerpt: excerpt,
				SimilarityScore:   regulation.SimilarityScore,
			}
		}
	}

	return common.ViolationFinding{
		IsViolation:       false,
		HasRisk:           true,
		Reason:            "Requires manual review",
		RiskPoints:        []string{"Automated analysis has uncertainties"},
		Severity:          common.SeverityModerate,
		RegulationExcerpt: excerpt,
		SimilarityScore:   regulation.SimilarityScore,
	}
}

// History lists persisted analyses most recent first, reduced to summaries.
func (a *Analyzer) History(ctx context.Context, limit int) ([]common.AnalysisSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	analyses, err := a.store.ListAnalyses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}

	sort.Slice(analyses, func(i, j int) bool {
		return analyses[i].Timestamp.After(analyses[j].Timestamp)
	})
	if len(analyses) > limit {
		analyses = analyses[:limit]
	}

	summaries := make([]common.AnalysisSummary, len(analyses))
	for i, analysis := range analyses {
		summaries[i] = common.AnalysisSummary{
			ID:             analysis.ID,
			Timestamp:      analysis.Timestamp,
			Status:         analysis.Status,
			RiskLevel:      analysis.RiskLevel,
			ViolationCount: len(analysis.Violations),
		}
	}
	return summaries, nil
}
