package engine

import "strings"

// ConfidenceInputs describe the sample size and quality signals behind an
// estimate. HistoricalDataPoints is accepted for completeness but the volume
// bonus is computed from the deployment counters.
type ConfidenceInputs struct {
	HistoricalDataPoints  int
	SuccessfulDeployments int
	FailedDeployments     int
	DataQuality           string
}

// ScoreConfidence rates the reliability of the impact estimate in [0,1].
func ScoreConfidence(in ConfidenceInputs) float64 {
	confidence := 0.5

	total := in.SuccessfulDeployments + in.FailedDeployments
	switch {
	case total >= 50:
		confidence += 0.3
	case total >= 20:
		confidence += 0.2
	case total >= 10:
		confidence += 0.15
	case total >= 5:
		confidence += 0.1
	default:
		confidence += 0.05
	}

	if total > 0 {
		successRate := float64(in.SuccessfulDeployments) / float64(total)
		switch {
		case successRate >= 0.9:
			confidence += 0.2
		case successRate >= 0.8:
			confidence += 0.15
		case successRate >= 0.7:
			confidence += 0.1
		case successRate >= 0.6:
			confidence += 0.05
		}
		// Success rates below 60% earn no bonus and no penalty.
	}

	switch strings.ToLower(in.DataQuality) {
	case "high":
		confidence += 0.2
	case "medium":
		confidence += 0.1
	case "low":
		confidence -= 0.1
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
