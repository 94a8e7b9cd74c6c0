package engine

import (
	"math"

	"github.com/deployguard/impact-engine/internal/models"
)

// EstimateCustomerImpact converts the affected-service list and historical
// baseline into an expected customer count. An empty service list yields
// exactly 0: no impact is claimed without data.
func (a *Analyzer) EstimateCustomerImpact(affectedServices []string, hist models.HistoricalData) int {
	if len(affectedServices) == 0 {
		return 0
	}

	base := hist.AvgCustomersAffected
	if base <= 0 {
		base = 100
	}

	multiplier := 0.0
	for _, service := range affectedServices {
		multiplier += a.registry.Multiplier(service)
	}

	// More affected services amplify the blast radius, capped at 2x.
	countFactor := float64(len(affectedServices))*0.2 + 0.8
	if countFactor > 2.0 {
		countFactor = 2.0
	}

	total := int(math.Round(base * multiplier * countFactor))
	if total < 0 {
		return 0
	}
	return total
}
