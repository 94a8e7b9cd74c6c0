package trends

import (
	"sort"
	"time"

	"github.com/deployguard/impact-engine/internal/models"
)

// ServiceTrend summarises how often a critical service shows up in stored
// analyses and how risky those analyses were.
type ServiceTrend struct {
	Service              string           `json:"service"`
	Analyses             int              `json:"analyses"`
	HighRiskShare        float64          `json:"highRiskShare"`
	PeakRiskLevel        models.RiskLevel `json:"peakRiskLevel"`
	AvgCustomersAffected float64          `json:"avgCustomersAffected"`
	LastSeen             time.Time        `json:"lastSeen"`
}

var riskOrder = map[models.RiskLevel]int{
	models.RiskLow:      0,
	models.RiskMedium:   1,
	models.RiskHigh:     2,
	models.RiskCritical: 3,
}

// Aggregate folds stored analyses into per-service hotspots, riskiest
// first. Services never flagged critical in any analysis do not appear.
func Aggregate(records []models.AnalysisRecord) []ServiceTrend {
	if len(records) == 0 {
		return nil
	}

	stats := make(map[string]*serviceAggregate)
	for _, record := range records {
		for _, service := range record.Result.CriticalServices {
			agg := ensureAggregate(stats, service)
			agg.count++
			agg.totalCustomers += float64(record.Result.CustomersAffected)
			if riskOrder[record.Result.RiskLevel] >= riskOrder[models.RiskHigh] {
				agg.highRisk++
			}
			if riskOrder[record.Result.RiskLevel] > riskOrder[agg.peak] {
				agg.peak = record.Result.RiskLevel
			}
			if record.CreatedAt.After(agg.lastSeen) {
				agg.lastSeen = record.CreatedAt
			}
		}
	}

	result := make([]ServiceTrend, 0, len(stats))
	for service, agg := range stats {
		result = append(result, ServiceTrend{
			Service:              service,
			Analyses:             agg.count,
			HighRiskShare:        float64(agg.highRisk) / float64(agg.count),
			PeakRiskLevel:        agg.peak,
			AvgCustomersAffected: agg.totalCustomers / float64(agg.count),
			LastSeen:             agg.lastSeen,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].HighRiskShare != result[j].HighRiskShare {
			return result[i].HighRiskShare > result[j].HighRiskShare
		}
		if result[i].Analyses != result[j].Analyses {
			return result[i].Analyses > result[j].Analyses
		}
		return result[i].Service < result[j].Service
	})
	return result
}

type serviceAggregate struct {
	count          int
	highRisk       int
	totalCustomers float64
	peak           models.RiskLevel
	lastSeen       time.Time
}

func ensureAggregate(m map[string]*serviceAggregate, service string) *serviceAggregate {
	agg, ok := m[service]
	if !ok {
		agg = &serviceAggregate{peak: models.RiskLow}
		m[service] = agg
	}
	return agg
}
