package engine

import (
	"github.com/deployguard/impact-engine/internal/models"
	"github.com/deployguard/impact-engine/internal/registry"
)

// Analyzer runs the impact-scoring pipeline against a fixed service
// registry. It holds no mutable state and performs no I/O, so a single
// instance may be shared across goroutines.
type Analyzer struct {
	registry *registry.ServiceRegistry
}

// NewAnalyzer constructs an Analyzer. A nil registry falls back to the
// built-in topology.
func NewAnalyzer(reg *registry.ServiceRegistry) *Analyzer {
	if reg == nil {
		reg = registry.Default()
	}
	return &Analyzer{registry: reg}
}

// AnalyzeImpact composes the scoring stages in data-dependency order and
// returns the merged result. A zero-valued Historical block is tolerated:
// every stage applies its own default for unset fields.
func (a *Analyzer) AnalyzeImpact(alert models.AlertContext) models.ImpactResult {
	customersAffected := a.EstimateCustomerImpact(alert.AffectedServices, alert.Historical)
	criticalServices := a.ClassifyCritical(alert.AffectedServices)

	total := alert.Historical.TotalDeployments()
	failureRate := 0.1
	if total > 0 {
		failureRate = float64(alert.Historical.FailedDeployments) / float64(total)
	}

	riskLevel := ScoreRisk(RiskFactors{
		CustomersAffected:     customersAffected,
		CriticalServicesCount: len(criticalServices),
		HistoricalFailureRate: failureRate,
	})

	dependentAlerts := a.ExpandDependentAlerts(alert.AlertName, alert.AffectedServices)
	downtimeSeconds, downtimeLabel := a.EstimateDowntime(alert.AlertType, alert.Historical, alert.AffectedServices)

	confidence := ScoreConfidence(ConfidenceInputs{
		HistoricalDataPoints:  total,
		SuccessfulDeployments: alert.Historical.SuccessfulDeployments,
		FailedDeployments:     alert.Historical.FailedDeployments,
		DataQuality:           qualityFromSampleSize(total),
	})

	recommendations := GenerateRecommendations(RecommendationInput{
		RiskLevel:         riskLevel,
		CustomersAffected: customersAffected,
		CriticalServices:  criticalServices,
		DowntimeSeconds:   downtimeSeconds,
	})

	return models.ImpactResult{
		CustomersAffected: customersAffected,
		RiskLevel:         riskLevel,
		CriticalServices:  criticalServices,
		DependentAlerts:   dependentAlerts,
		EstimatedDowntime: downtimeLabel,
		DowntimeSeconds:   downtimeSeconds,
		ConfidenceScore:   confidence,
		Recommendations:   recommendations,
	}
}

func qualityFromSampleSize(totalDeployments int) string {
	switch {
	case totalDeployments > 20:
		return "high"
	case totalDeployments > 5:
		return "medium"
	default:
		return "low"
	}
}
