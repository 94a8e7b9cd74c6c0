package models

// AlertType categorises an alerting rule by the subsystem it watches.
type AlertType string

const (
	AlertTypeDatabase       AlertType = "database"
	AlertTypePayment        AlertType = "payment"
	AlertTypeAuthentication AlertType = "authentication"
	AlertTypeLogging        AlertType = "logging"
	AlertTypeNetwork        AlertType = "network"
	AlertTypeCritical       AlertType = "critical"
	AlertTypeUnknown        AlertType = "unknown"
)

// RiskLevel is the primary output classification of an impact analysis.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// HistoricalData carries the prerecorded baseline figures for an alert
// type/service combination. The zero value is valid input; every consumer
// applies its own documented default for unset fields.
type HistoricalData struct {
	AvgCustomersAffected  float64 `json:"avgCustomersAffected"`
	AvgDowntimeSeconds    float64 `json:"avgDowntime"`
	SuccessfulDeployments int     `json:"successfulDeployments"`
	FailedDeployments     int     `json:"failedDeployments"`
}

// TotalDeployments returns the recorded deployment sample size.
func (h HistoricalData) TotalDeployments() int {
	return h.SuccessfulDeployments + h.FailedDeployments
}

// AlertContext is the single input record consumed by the impact engine.
type AlertContext struct {
	AlertName        string
	AlertType        AlertType
	AffectedServices []string
	Historical       HistoricalData
}

// ImpactResult is the merged output of one impact analysis.
type ImpactResult struct {
	CustomersAffected int       `json:"customersAffected"`
	RiskLevel         RiskLevel `json:"riskLevel"`
	// CriticalServices preserves the input order of AffectedServices.
	CriticalServices []string `json:"criticalServices"`
	DependentAlerts  []string `json:"dependentAlerts"`
	// EstimatedDowntime is the human-readable range; DowntimeSeconds is the
	// numeric estimate it was derived from.
	EstimatedDowntime string   `json:"estimatedDowntime"`
	DowntimeSeconds   int      `json:"downtimeSeconds"`
	ConfidenceScore   float64  `json:"confidenceScore"`
	Recommendations   []string `json:"recommendations"`
}
