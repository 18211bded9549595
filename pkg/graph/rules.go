package graph

import (
	"regexp"
	"strings"
)

// maxPerCategory caps each category list from rule extraction.
const maxPerCategory = 5

var articlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:Article|Section|Clause|Part|Chapter|Regulation)\s+\d+[a-zA-Z]?\b`),
	regexp.MustCompile(`\b[A-Z][A-Za-z]+\s+(?:Law|Act|Code|Regulation|Rule)\b`),
	regexp.MustCompile(`(?i)\b(?:Title|Subtitle)\s+[IVXLCDM]+\b`),
	regexp.MustCompile(`(?i)\bABC\s+Law\b`),
}

var violationKeywords = []string{
	"violation", "breach", "infringement", "non-compliance", "illegal",
	"prohibited", "unlawful", "monopoly", "discrimination", "fraud",
	"price fixing", "market manipulation", "unfair competition",
}

// violationContextPatterns capture each keyword with up to 20 chars of
// context on either side.
var violationContextPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(violationKeywords))
	for _, keyword := range violationKeywords {
		patterns[keyword] = regexp.MustCompile(`(?i)(?:[\w\s]{0,20}` + regexp.QuoteMeta(keyword) + `[\w\s]{0,20})`)
	}
	return patterns
}()

var penaltyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$[\d,]+(?:\.\d{2})?(?:\s*(?:million|thousand|billion))?`),
	regexp.MustCompile(`(?i)\b\d+\s*(?:years?|months?|days?)\s*(?:in\s*)?(?:prison|jail|imprisonment)`),
	regexp.MustCompile(`(?i)\b(?:fine|penalty|sanction|punishment)\s*(?:of|up\s*to)?\s*[\w\s]+`),
	regexp.MustCompile(`(?i)\b(?:suspension|revocation|termination)\s*of\s*(?:license|permit|authorization)`),
}

var partyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:supplier|wholesaler|retailer|distributor|manufacturer|company|corporation|business|entity)\b`),
	regexp.MustCompile(`(?i)\b(?:licensee|permit\s*holder|operator|owner|manager)\b`),
}

var conceptKeywords = []string{
	"compliance", "regulation", "pricing", "market", "competition",
	"trade", "commerce", "consumer protection", "antitrust",
	"three-tier system", "posted price", "inducement",
}

// RuleExtract matches fixed lexicons and patterns per category. Each list is
// deduplicated case-insensitively preserving first-seen order and capped at
// maxPerCategory entries.
func RuleExtract(text string) CategoryLists {
	lower := strings.ToLower(text)

	var articles []string
	for _, p := range articlePatterns {
		articles = append(articles, p.FindAllString(text, -1)...)
	}

	var violations []string
	for _, keyword := range violationKeywords {
		if !strings.Contains(lower, keyword) {
			continue
		}
		matches := violationContextPatterns[keyword].FindAllString(text, 2)
		for _, m := range matches {
			violations = append(violations, strings.TrimSpace(m))
		}
	}

	var penalties []string
	for _, p := range penaltyPatterns {
		penalties = append(penalties, p.FindAllString(text, -1)...)
	}

	var parties []string
	for _, p := range partyPatterns {
		parties = append(parties, p.FindAllString(text, -1)...)
	}

	var concepts []string
	for _, keyword := range conceptKeywords {
		if strings.Contains(lower, keyword) {
			concepts = append(concepts, keyword)
		}
	}

	return CategoryLists{
		LegalArticles:      dedupeAndCap(articles),
		Violations:         dedupeAndCap(violations),
		Penalties:          dedupeAndCap(penalties),
		ResponsibleParties: dedupeAndCap(parties),
		RelatedConcepts:    dedupeAndCap(concepts),
	}
}

func dedupeAndCap(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
		if len(out) == maxPerCategory {
			break
		}
	}
	return out
}
