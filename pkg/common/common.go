package common

import "time"

// EntityType classifies a node in the regulatory knowledge graph.
type EntityType string

const (
	EntityLegalArticle     EntityType = "LEGAL_ARTICLE"
	EntityViolation        EntityType = "VIOLATION"
	EntityPenalty          EntityType = "PENALTY"
	EntityResponsibleParty EntityType = "RESPONSIBLE_PARTY"
	EntityConcept          EntityType = "CONCEPT"
)

// Category is an extraction bucket. Entities are extracted per category and
// the relation table between categories is fixed, so the category survives
// on each entity alongside its EntityType.
type Category string

const (
	CategoryLegalArticles      Category = "legal_articles"
	CategoryViolations         Category = "violations"
	CategoryPenalties          Category = "penalties"
	CategoryResponsibleParties Category = "responsible_parties"
	CategoryRelatedConcepts    Category = "related_concepts"
)

// Categories lists all extraction categories in their canonical order.
var Categories = []Category{
	CategoryLegalArticles,
	CategoryViolations,
	CategoryPenalties,
	CategoryResponsibleParties,
	CategoryRelatedConcepts,
}

// EntityType returns the node type for entities extracted under c.
func (c Category) EntityType() EntityType {
	switch c {
	case CategoryLegalArticles:
		return EntityLegalArticle
	case CategoryViolations:
		return EntityViolation
	case CategoryPenalties:
		return EntityPenalty
	case CategoryResponsibleParties:
		return EntityResponsibleParty
	case CategoryRelatedConcepts:
		return EntityConcept
	}
	return ""
}

// RelationType labels a directed edge between two co-occurring entities.
type RelationType string

const (
	RelationRegulates        RelationType = "regulates"
	RelationLeadsTo          RelationType = "leads_to"
	RelationSpecifiesPenalty RelationType = "specifies_penalty"
	RelationCommits          RelationType = "commits"
	RelationInvolves         RelationType = "involves"
	RelationDefines          RelationType = "defines"
)

// Segment is a contiguous chunk of regulation text, the unit of embedding
// and retrieval. The vector is attached once by the index write path; all
// vectors within one embedding configuration share the same dimension.
type Segment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Index     int       `json:"segment_index"`
	Length    int       `json:"length"`
	Vector    []float32 `json:"vector,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IndexEntry holds the embedded segments of one document. Entries are
// replaced wholesale on re-index; there is no partial update.
type IndexEntry struct {
	DocumentID string    `json:"document_id"`
	Segments   []Segment `json:"segments"`
	CreatedAt  time.Time `json:"created_at"`
}

// ScoredSegment is a search hit: a segment plus its owning document and the
// cosine similarity against the query vector.
type ScoredSegment struct {
	Segment
	DocumentID      string  `json:"document_id"`
	SimilarityScore float64 `json:"similarity_score"`
}

// Entity is a typed span of text extracted from a segment. Entities are
// immutable after creation; merge may remove them but never rewrites them.
type Entity struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Type       EntityType `json:"type"`
	Category   Category   `json:"category"`
	DocumentID string     `json:"document_id"`
	SegmentID  string     `json:"segment_id"`
	Confidence float64    `json:"confidence"`
	Source     string     `json:"source"`
}

// Relationship is a directed edge between two entities that co-occur in the
// same segment. Source and Target reference entity IDs; after a merge they
// always resolve to surviving node IDs.
type Relationship struct {
	ID         string       `json:"id"`
	Source     string       `json:"source"`
	Target     string       `json:"target"`
	Relation   RelationType `json:"relation"`
	Confidence float64      `json:"confidence"`
	Evidence   string       `json:"evidence"`
}

// GraphNode is an entity projected into the knowledge graph.
type GraphNode struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	Type       EntityType `json:"type"`
	DocumentID string     `json:"document_id"`
	Confidence float64    `json:"confidence"`
	Source     string     `json:"source"`
}

// GraphMetadata describes one build of the knowledge graph.
type GraphMetadata struct {
	TotalNodes    int       `json:"total_nodes"`
	TotalEdges    int       `json:"total_edges"`
	DocumentCount int       `json:"document_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// KnowledgeGraph is the graph singleton: rebuilt, not patched, on every
// build run, and persisted wholesale.
type KnowledgeGraph struct {
	Nodes    []GraphNode    `json:"nodes"`
	Edges    []Relationship `json:"edges"`
	Metadata GraphMetadata  `json:"metadata"`
}

// Subgraph is the result of a graph query: nodes whose label matches the
// query, the edges touching them, and the nodes at the far end of those
// edges (single-hop expansion only).
type Subgraph struct {
	Nodes     []GraphNode    `json:"nodes"`
	Edges     []Relationship `json:"edges"`
	QueryInfo SubgraphQuery  `json:"query_info"`
}

// SubgraphQuery echoes the parameters of a graph query.
type SubgraphQuery struct {
	EntityName   string       `json:"entity_name"`
	RelationType RelationType `json:"relation_type,omitempty"`
	FoundMatches int          `json:"found_matches"`
}

// GraphStatistics summarizes the persisted graph.
type GraphStatistics struct {
	TotalNodes    int                  `json:"total_nodes"`
	TotalEdges    int                  `json:"total_edges"`
	NodeTypes     map[EntityType]int   `json:"node_types"`
	RelationTypes map[RelationType]int `json:"relation_types"`
	Metadata      GraphMetadata        `json:"metadata"`
}

// DocumentMetadata is derived from a document's full text at ingestion.
type DocumentMetadata struct {
	Filename         string    `json:"filename"`
	WordCount        int       `json:"word_count"`
	CharacterCount   int       `json:"character_count"`
	ParagraphCount   int       `json:"paragraph_count"`
	DetectedKeywords []string  `json:"detected_keywords"`
	ExtractionTime   time.Time `json:"extraction_time"`
}

// Document records an ingested regulation document. StorageKey points at the
// raw text blob in object storage, when one was kept.
type Document struct {
	ID         string           `json:"id"`
	Filename   string           `json:"filename"`
	UploadTime time.Time        `json:"upload_time"`
	Status     string           `json:"status"`
	StorageKey string           `json:"storage_key,omitempty"`
	Metadata   DocumentMetadata `json:"metadata"`
}

// ComplianceStatus is the classified verdict of a compliance analysis.
type ComplianceStatus string

const (
	StatusCompliant ComplianceStatus = "Compliant"
	StatusViolation ComplianceStatus = "Violation"
	StatusRisk      ComplianceStatus = "Risk"
	StatusUnknown   ComplianceStatus = "Unknown"
)

// RiskLevel grades the overall exposure of an analysis.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Severity grades an individual finding.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// ViolationFinding is the judgment for one business description against one
// retrieved regulation segment.
type ViolationFinding struct {
	IsViolation       bool     `json:"is_violation"`
	HasRisk           bool     `json:"has_risk"`
	Reason            string   `json:"violation_reason"`
	RiskPoints        []string `json:"risk_points"`
	Severity          Severity `json:"severity"`
	RegulationExcerpt string   `json:"regulation_content"`
	SimilarityScore   float64  `json:"similarity_score"`
}

// ComplianceAnalysis is the full result of one analysis call. It is
// immutable once persisted.
type ComplianceAnalysis struct {
	ID                  string             `json:"analysis_id"`
	Timestamp           time.Time          `json:"timestamp"`
	BusinessDescription string             `json:"business_description"`
	Status              ComplianceStatus   `json:"compliance_status"`
	RiskLevel           RiskLevel          `json:"risk_level"`
	RiskScore           float64            `json:"risk_score"`
	Violations          []ViolationFinding `json:"violated_regulations"`
	Warnings            []ViolationFinding `json:"warning_items"`
	Recommendations     []string           `json:"recommendations"`
	CheckedRegulations  int                `json:"regulations_checked"`
}

// AnalysisSummary is the reduced form returned by the history listing.
type AnalysisSummary struct {
	ID             string           `json:"analysis_id"`
	Timestamp      time.Time        `json:"timestamp"`
	Status         ComplianceStatus `json:"compliance_status"`
	RiskLevel      RiskLevel        `json:"risk_level"`
	ViolationCount int              `json:"violations_count"`
}

// ContextItem is a retrieved segment or a synthetic graph summary assembled
// into the prompt sent for answer generation.
type ContextItem struct {
	ID              string  `json:"id"`
	Content         string  `json:"content"`
	SimilarityScore float64 `json:"similarity_score"`
	DocumentID      string  `json:"document_id,omitempty"`
	Synthetic       bool    `json:"synthetic,omitempty"`
}

// AnswerSource cites one non-synthetic context item used for an answer.
type AnswerSource struct {
	Content         string  `json:"content"`
	SimilarityScore float64 `json:"similarity_score"`
	DocumentID      string  `json:"document_id"`
}

// Answer is the result of the full question-answering pipeline.
type Answer struct {
	Answer         string         `json:"answer"`
	Confidence     float64        `json:"confidence"`
	Sources        []AnswerSource `json:"sources"`
	ContextUsed    int            `json:"context_used"`
	Query          string         `json:"query,omitempty"`
	RetrievalCount int            `json:"retrieval_count,omitempty"`
}
