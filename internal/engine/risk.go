package engine

import "github.com/deployguard/impact-engine/internal/models"

// RiskFactors are the three independent inputs to risk scoring.
type RiskFactors struct {
	CustomersAffected     int
	CriticalServicesCount int
	HistoricalFailureRate float64
}

// ScoreRisk accumulates a 0-100 point score from three weighted bands and
// thresholds it into a tier. All band comparisons use inclusive lower
// bounds; identical inputs always yield the identical tier.
func ScoreRisk(f RiskFactors) models.RiskLevel {
	score := 0

	// Customer impact band (max 40 points).
	switch {
	case f.CustomersAffected >= 5000:
		score += 40
	case f.CustomersAffected >= 2000:
		score += 30
	case f.CustomersAffected >= 1000:
		score += 20
	case f.CustomersAffected >= 500:
		score += 15
	case f.CustomersAffected >= 100:
		score += 10
	default:
		score += 5
	}

	// Critical services band (max 35 points).
	criticalPoints := f.CriticalServicesCount * 12
	if criticalPoints > 35 {
		criticalPoints = 35
	}
	score += criticalPoints

	// Historical failure rate band (max 25 points).
	switch {
	case f.HistoricalFailureRate >= 0.5:
		score += 25
	case f.HistoricalFailureRate >= 0.3:
		score += 20
	case f.HistoricalFailureRate >= 0.2:
		score += 15
	case f.HistoricalFailureRate >= 0.1:
		score += 10
	default:
		score += 5
	}

	switch {
	case score >= 80:
		return models.RiskCritical
	case score >= 60:
		return models.RiskHigh
	case score >= 35:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
