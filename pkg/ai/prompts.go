package ai

// Prompt templates for the regulatory pipeline. Placeholders are filled with
// fmt.Sprintf at the call sites.

const ExtractEntitiesPrompt = `
# Task Context
You are a legal analyst extracting structured entities from regulatory text.

# Detailed Task Description & Rules
Extract key legal entities from the provided text, in five categories:
1. Legal articles (e.g. "Article 5", "Section 12", named laws and codes)
2. Types of violations
3. Penalty measures (fines, suspensions, imprisonment terms)
4. Responsible parties (roles the text obligates or sanctions)
5. Related concepts or terms
- Only list entities literally supported by the text; never invent entries.
- Keep each entry short: the entity name or phrase, not a sentence.
- Leave a category empty when the text contains nothing for it.

# Text
%s

# Output Formatting
Return a single JSON object with this structure:
{
  "legal_articles": [string],
  "violations": [string],
  "penalties": [string],
  "responsible_parties": [string],
  "related_concepts": [string]
}
`

const AnswerPrompt = `As a legal expert, answer the question based on the following regulatory documents. Ensure your answer is accurate, complete, and cites specific articles or documents.

Related Regulatory Documents:
%s

Question: %s

Answer in the following structure:
1. Direct answer to the question
2. Specific legal articles or regulations cited
3. Related suggestions or considerations

Answer:`

const SuggestQuestionsPrompt = `Based on the following regulatory content and original question, suggest %d related legal questions.

Regulatory Content:
%s

Original Question: %s

Generate %d related questions, one per line:`

const ComplianceJudgmentPrompt = `
# Task Context
You are a legal compliance expert judging whether a business description
violates the provided regulations.

# Relevant Regulations
%s

# Business Description
%s

# Output Formatting
Return a single JSON object with this structure:
{
  "compliance_status": "Compliant" | "Violation" | "Risk",
  "confidence": number between 0.0 and 1.0,
  "risk_level": "Low" | "Medium" | "High"
}
`

const ViolationCheckPrompt = `
# Task Context
You are a legal compliance expert checking one business behavior against one
specific regulation.

# Regulation
%s

# Business Behavior
%s

# Detailed Task Description & Rules
Determine:
1. Does the behavior constitute a clear violation of this regulation?
2. If not a violation, does it still carry compliance risk?
3. What are the specific violation points or risk points?

# Output Formatting
Return a single JSON object with this structure:
{
  "is_violation": true | false,
  "has_risk": true | false,
  "violation_reason": string,
  "risk_points": [string],
  "severity": "minor" | "moderate" | "severe"
}
`
