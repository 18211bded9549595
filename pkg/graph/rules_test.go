package graph

import (
	"strings"
	"testing"
)

func TestRuleExtractArticles(t *testing.T) {
	lists := RuleExtract("Under Article 5 and Section 12 of the Consumer Law, conduct is restricted.")

	if len(lists.LegalArticles) != 3 {
		t.Fatalf("expected 3 article entities, got %v", lists.LegalArticles)
	}
	found := false
	for _, a := range lists.LegalArticles {
		if a == "Article 5" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Article 5 not extracted: %v", lists.LegalArticles)
	}
}

func TestRuleExtractViolationsWithContext(t *testing.T) {
	lists := RuleExtract("Any supplier engaged in price fixing with competitors is liable.")

	if len(lists.Violations) == 0 {
		t.Fatal("expected a violation entity")
	}
	if !strings.Contains(strings.ToLower(lists.Violations[0]), "price fixing") {
		t.Fatalf("violation lacks keyword: %q", lists.Violations[0])
	}
	// context window keeps the match short
	if len(lists.Violations[0]) > len("price fixing")+40 {
		t.Fatalf("violation context too wide: %q", lists.Violations[0])
	}
}

func TestRuleExtractPenalties(t *testing.T) {
	lists := RuleExtract("Offenders face a fine of $10,000 or 2 years in prison, plus revocation of license.")

	if len(lists.Penalties) < 3 {
		t.Fatalf("expected dollar, prison and revocation penalties, got %v", lists.Penalties)
	}
}

func TestRuleExtractPartiesDeduped(t *testing.T) {
	lists := RuleExtract("The retailer, the Retailer and the wholesaler must register.")

	if len(lists.ResponsibleParties) != 2 {
		t.Fatalf("expected deduplicated parties, got %v", lists.ResponsibleParties)
	}
	if lists.ResponsibleParties[0] != "retailer" {
		t.Fatalf("first-seen order not preserved: %v", lists.ResponsibleParties)
	}
}

func TestRuleExtractConcepts(t *testing.T) {
	lists := RuleExtract("Compliance with antitrust and consumer protection rules is mandatory.")

	want := map[string]bool{"compliance": true, "antitrust": true, "consumer protection": true}
	for _, c := range lists.RelatedConcepts {
		delete(want, c)
	}
	if len(want) != 0 {
		t.Fatalf("missing concepts: %v (got %v)", want, lists.RelatedConcepts)
	}
}

func TestRuleExtractCapsAtFive(t *testing.T) {
	text := "Article 1 Article 2 Article 3 Article 4 Article 5 Article 6 Article 7"

	lists := RuleExtract(text)
	if len(lists.LegalArticles) != maxPerCategory {
		t.Fatalf("expected cap of %d, got %d", maxPerCategory, len(lists.LegalArticles))
	}
}

func TestRuleExtractEmptyText(t *testing.T) {
	if !RuleExtract("").Empty() {
		t.Fatal("expected empty lists for empty text")
	}
}
