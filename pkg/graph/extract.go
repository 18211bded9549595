package graph

import (
	"context"
	"fmt"

	"github.com/reglens/backend/internal/util"
	"github.com/reglens/backend/pkg/ai"
	"github.com/reglens/backend/pkg/common"
	"github.com/reglens/backend/pkg/logger"
)

// CategoryLists holds raw extracted strings per entity category.
type CategoryLists struct {
	LegalArticles      []string `json:"legal_articles" jsonschema_description:"Law, article, section or regulation references"`
	Violations         []string `json:"violations" jsonschema_description:"Described violations or prohibited behaviors"`
	Penalties          []string `json:"penalties" jsonschema_description:"Fines, sanctions and other penalties"`
	ResponsibleParties []string `json:"responsible_parties" jsonschema_description:"Parties subject to the obligations"`
	RelatedConcepts    []string `json:"related_concepts" jsonschema_description:"Regulatory concepts mentioned in the text"`
}

// ByCategory returns the list for the given category.
func (l CategoryLists) ByCategory(c common.Category) []string {
	switch c {
	case common.CategoryLegalArticles:
		return l.LegalArticles
	case common.CategoryViolations:
		return l.Violations
	case common.CategoryPenalties:
		return l.Penalties
	case common.CategoryResponsibleParties:
		return l.ResponsibleParties
	case common.CategoryRelatedConcepts:
		return l.RelatedConcepts
	}
	return nil
}

// Empty reports whether every category list is empty.
func (l CategoryLists) Empty() bool {
	return len(l.LegalArticles) == 0 &&
		len(l.Violations) == 0 &&
		len(l.Penalties) == 0 &&
		len(l.ResponsibleParties) == 0 &&
		len(l.RelatedConcepts) == 0
}

// Extractor turns segment text into typed entities. The model strategy runs
// first; when it fails or yields nothing, the rule-based strategy takes over
// at reduced confidence.
type Extractor struct {
	generator ai.Generator
}

// NewExtractor creates an extractor backed by the given generation client.
func NewExtractor(generator ai.Generator) *Extractor {
	return &Extractor{generator: generator}
}

// ModelExtract asks the generation model for categorized entity lists.
// Schema-constrained output is tried first; providers without structured
// output fall back to a free-text completion with lenient JSON parsing.
func (e *Extractor) ModelExtract(ctx context.Context, text string) (CategoryLists, error) {
	var lists CategoryLists

	prompt := fmt.Sprintf(ai.ExtractEntitiesPrompt, text)
	err := e.generator.GenerateCompletionWithFormat(
		ctx,
		"entity_extraction",
		"Categorized entity lists extracted from a regulation segment",
		prompt,
		&lists,
		ai.WithTemperature(0.1),
	)
	if err == nil {
		return lists, nil
	}
	logger.Debug("structured extraction failed, retrying free-text", "error", err)

	reply, err := util.Retry(2, func() (string, error) {
		return e.generator.GenerateCompletion(ctx, prompt, ai.WithTemperature(0.1))
	})
	if err != nil {
		return CategoryLists{}, err
	}
	if err := ai.UnmarshalFirstObject(reply, &lists); err != nil {
		return CategoryLists{}, err
	}
	return lists, nil
}

// ExtractSegment extracts the entities of one segment. Model extraction is
// tried first; rule extraction fills in when the model is unavailable, fails
// to parse, or returns only empty lists.
func (e *Extractor) ExtractSegment(ctx context.Context, documentID string, seg common.Segment) []common.Entity {
	confidence := 0.8
	lists, err := e.ModelExtract(ctx, seg.Content)
	if err != nil || lists.Empty() {
		if err != nil {
			logger.Debug("model extraction failed, using rules", "segment_id", seg.ID, "error", err)
		}
		lists = RuleExtract(seg.Content)
		confidence = 0.6
	}

	source := util.Excerpt(seg.Content, 200)

	entities := make([]common.Entity, 0)
	for _, category := range common.Categories {
		for _, text := range lists.ByCategory(category) {
			text = util.CollapseWhitespace(text)
			if text == "" {
				continue
			}
			entities = append(entities, common.Entity{
				ID:         util.NewID(),
				Text:       text,
				Type:       category.EntityType(),
				Category:   category,
				DocumentID: documentID,
				SegmentID:  seg.ID,
				Confidence: confidence,
				Source:     source,
			})
		}
	}
	return entities
}
