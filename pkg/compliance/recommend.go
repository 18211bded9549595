package compliance

import (
	"fmt"
	"strings"

	"github.com/reglens/backend/pkg/common"
)

// maxRecommendations caps the recommendation list.
const maxRecommendations = 8

var generalRecommendations = []string{
	"Establish comprehensive compliance management system",
	"Regularly update regulations and conduct training",
	"Set up compliance inspection and reporting mechanisms",
	"Establish communication channels with regulatory authorities",
}

// Recommendations builds the advice list for an analysis. Most specific
// entries come first: violation or risk directives, then a risk-level
// directive, then two fixed general recommendations. The list is capped at
// maxRecommendations.
func Recommendations(status common.ComplianceStatus, riskLevel common.RiskLevel, violations, warnings []common.ViolationFinding) []string {
	recommendations := make([]string, 0, maxRecommendations)

	switch status {
	case common.StatusViolation:
		recommendations = append(recommendations,
			"Immediately stop related business activities and conduct comprehensive compliance remediation")
		for _, violation := range violations {
			if violation.Severity != common.SeveritySevere {
				continue
			}
			reason := violation.Reason
			if reason == "" {
				reason = "Not specified"
			}
			recommendations = append(recommendations, fmt.Sprintf("Serious violation: %s", reason))
		}
	case common.StatusRisk:
		recommendations = append(recommendations,
			"Recommend conducting compliance review and improving related systems and processes")
		for _, warning := range warnings {
			recommendations = append(recommendations,
				fmt.Sprintf("Risk alert: %s", strings.Join(warning.RiskPoints, ", ")))
		}
	}

	switch riskLevel {
	case common.RiskHigh:
		recommendations = append(recommendations,
			"Recommend consulting professional legal advisors to develop detailed compliance remediation plans")
	case common.RiskMedium:
		recommendations = append(recommendations,
			"Recommend strengthening internal compliance training and establishing regular self-inspection mechanisms")
	default:
		recommendations = append(recommendations,
			"Continue maintaining good compliance practices and regularly update related knowledge")
	}

	recommendations = append(recommendations, generalRecommendations[:2]...)

	if len(recommendations) > maxRecommendations {
		recommendations = recommendations[:maxRecommendations]
	}
	return recommendations
}
