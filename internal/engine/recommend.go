package engine

import (
	"strings"

	"github.com/deployguard/impact-engine/internal/models"
)

// RecommendationInput collects the analysis outputs that drive the
// recommendation list.
type RecommendationInput struct {
	RiskLevel         models.RiskLevel
	CustomersAffected int
	CriticalServices  []string
	DowntimeSeconds   int
}

// GenerateRecommendations maps a risk tier and its context to a prioritized
// list of action items, most urgent first. Unknown tiers yield only the
// universal trailing items.
func GenerateRecommendations(in RecommendationInput) []string {
	recommendations := make([]string, 0, 8)

	switch in.RiskLevel {
	case models.RiskLow:
		recommendations = append(recommendations,
			"Safe to proceed with deployment",
			"Monitor logs for any anomalies",
		)
		if in.DowntimeSeconds > 60 {
			recommendations = append(recommendations, "Consider deploying during low-traffic hours")
		}

	case models.RiskMedium:
		recommendations = append(recommendations,
			"Proceed with caution",
			"Monitor critical metrics during deployment",
			"Have rollback plan ready",
		)
		if in.CustomersAffected > 200 {
			recommendations = append(recommendations, "Consider notifying customer support team")
		}

	case models.RiskHigh:
		recommendations = append(recommendations,
			"Consider maintenance window scheduling",
			"Notify affected customers in advance",
			"Prepare rollback plan",
			"Monitor critical services during deployment",
		)
		if containsService(in.CriticalServices, "payment-processing") {
			recommendations = append(recommendations, "Coordinate with payment operations team")
		}

	case models.RiskCritical:
		recommendations = append(recommendations,
			"DO NOT PROCEED - Schedule maintenance window",
			"Coordinate with all stakeholders",
			"Prepare comprehensive rollback plan",
			"Consider phased deployment approach",
			"Ensure 24/7 support coverage",
		)
		if containsService(in.CriticalServices, "payment-processing") {
			recommendations = append(recommendations, "Alert payment operations and fraud teams")
		}
		if containsService(in.CriticalServices, "user-authentication") {
			recommendations = append(recommendations, "Prepare for potential login issues")
		}
	}

	if len(in.CriticalServices) > 0 {
		recommendations = append(recommendations,
			"Critical services affected: "+strings.Join(in.CriticalServices, ", "))
	}
	if in.DowntimeSeconds > 300 {
		recommendations = append(recommendations, "Extended downtime expected - communicate with stakeholders")
	}

	return recommendations
}
