package repo

import "github.com/deployguard/impact-engine/internal/models"

// BaselineHistory returns the static deployment baseline used when the
// history backend is disabled or unavailable. criticalAffected widens the
// baseline: outages touching critical services historically hit more
// customers, last longer, and fail more often.
func BaselineHistory(alertType models.AlertType, criticalAffected bool) models.HistoricalData {
	hist := models.HistoricalData{
		AvgCustomersAffected:  100,
		AvgDowntimeSeconds:    60,
		SuccessfulDeployments: 10,
		FailedDeployments:     2,
	}

	switch alertType {
	case models.AlertTypeDatabase:
		hist = models.HistoricalData{
			AvgCustomersAffected:  1200,
			AvgDowntimeSeconds:    180,
			SuccessfulDeployments: 15,
			FailedDeployments:     3,
		}
	case models.AlertTypePayment:
		hist = models.HistoricalData{
			AvgCustomersAffected:  5000,
			AvgDowntimeSeconds:    900,
			SuccessfulDeployments: 5,
			FailedDeployments:     8,
		}
	case models.AlertTypeLogging:
		hist = models.HistoricalData{
			AvgCustomersAffected:  50,
			AvgDowntimeSeconds:    30,
			SuccessfulDeployments: 25,
			FailedDeployments:     1,
		}
	}

	if criticalAffected {
		hist.AvgCustomersAffected *= 1.5
		hist.AvgDowntimeSeconds *= 1.3
		hist.FailedDeployments += 2
	}
	return hist
}
