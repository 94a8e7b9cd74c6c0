package models

import "time"

// AnalyzeRequest is the validated body of an impact-analysis call.
type AnalyzeRequest struct {
	AlertName string `json:"alertName"`
	UserID    string `json:"userId"`
	AccountID string `json:"accountId"`
	Timestamp string `json:"timestamp"`
}

// AnalysisRecord is a stored impact analysis, keyed to the requesting
// user/account for later trend queries.
type AnalysisRecord struct {
	ID        string       `json:"id"`
	AlertName string       `json:"alert_name"`
	UserID    string       `json:"user_id"`
	AccountID string       `json:"account_id"`
	Result    ImpactResult `json:"result"`
	CreatedAt time.Time    `json:"created_at"`
}

// AuditEntry captures one audited API action.
type AuditEntry struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	Action     string        `json:"action"`
	Resource   string        `json:"resource"`
	ResourceID string        `json:"resource_id"`
	Method     string        `json:"method"`
	Path       string        `json:"path"`
	StatusCode int           `json:"status_code"`
	Duration   time.Duration `json:"duration"`
	RemoteAddr string        `json:"remote_addr"`
	CreatedAt  time.Time     `json:"created_at"`
}
