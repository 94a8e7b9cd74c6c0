package engine

import (
	"fmt"
	"math"

	"github.com/deployguard/impact-engine/internal/models"
)

// EstimateDowntime projects the expected downtime for a change from the
// historical baseline, the alert type, and the number of critical services
// involved. It returns the numeric estimate in seconds alongside the
// human-readable label derived from it.
func (a *Analyzer) EstimateDowntime(alertType models.AlertType, hist models.HistoricalData, affectedServices []string) (int, string) {
	avg := hist.AvgDowntimeSeconds
	if avg <= 0 {
		avg = 60
	}

	multiplier := 1.0
	switch alertType {
	case models.AlertTypeDatabase:
		multiplier = 2.0
	case models.AlertTypeNetwork:
		multiplier = 1.5
	case models.AlertTypePayment:
		multiplier = 3.0
	}
	multiplier += 0.5 * float64(len(a.ClassifyCritical(affectedServices)))

	seconds := int(math.Round(avg * multiplier))
	return seconds, formatDowntime(seconds)
}

func formatDowntime(seconds int) string {
	minutes := int(math.Round(float64(seconds) / 60))
	switch {
	case seconds < 60:
		return "< 1 minute"
	case seconds < 300:
		return fmt.Sprintf("%d minutes", minutes)
	case seconds < 1800:
		return fmt.Sprintf("%d-%d minutes", minutes, minutes+2)
	default:
		return fmt.Sprintf("%d-%d minutes", minutes, minutes+10)
	}
}
