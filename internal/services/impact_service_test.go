package services

import (
	"context"
	"testing"

	"github.com/deployguard/impact-engine/internal/models"
	"github.com/deployguard/impact-engine/internal/repo"
)

type historyStub struct {
	enabled     bool
	hist        models.HistoricalData
	histErr     error
	exists      bool
	existsErr   error
	stored      []models.AnalysisRecord
	storeErr    error
	recent      []models.AnalysisRecord
	fetchCalled bool
}

func (h *historyStub) Enabled() bool { return h.enabled }

func (h *historyStub) FetchHistory(_ context.Context, _ models.AlertType, _ []string) (models.HistoricalData, error) {
	h.fetchCalled = true
	return h.hist, h.histErr
}

func (h *historyStub) CheckAlertExists(_ context.Context, _ string) (bool, error) {
	return h.exists, h.existsErr
}

func (h *historyStub) StoreAnalysis(_ context.Context, record models.AnalysisRecord) error {
	h.stored = append(h.stored, record)
	return h.storeErr
}

func (h *historyStub) ListRecentAnalyses(_ context.Context, _ string, _ int) ([]models.AnalysisRecord, error) {
	return h.recent, nil
}

func TestAnalyzeWithBackendHistory(t *testing.T) {
	history := &historyStub{
		enabled: true,
		exists:  true,
		hist: models.HistoricalData{
			AvgCustomersAffected:  5000,
			AvgDowntimeSeconds:    900,
			SuccessfulDeployments: 5,
			FailedDeployments:     8,
		},
	}
	service := NewImpactService(nil, history, nil, nil)

	outcome, err := service.Analyze(context.Background(), models.AnalyzeRequest{
		AlertName: "Payment Gateway Errors",
		UserID:    "user-1",
		AccountID: "acct-1",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !outcome.AlertExists {
		t.Fatal("expected alertExists true")
	}
	if !history.fetchCalled {
		t.Fatal("expected history fetch")
	}

	result := outcome.Record.Result
	if result.RiskLevel != models.RiskCritical {
		t.Fatalf("riskLevel = %s, want CRITICAL", result.RiskLevel)
	}
	if result.CustomersAffected != 73500 {
		t.Fatalf("customersAffected = %d, want 73500", result.CustomersAffected)
	}

	if len(history.stored) != 1 {
		t.Fatalf("expected one stored record, got %d", len(history.stored))
	}
	stored := history.stored[0]
	if stored.ID == "" || stored.CreatedAt.IsZero() {
		t.Fatalf("record missing identity: %+v", stored)
	}
	if stored.UserID != "user-1" || stored.AccountID != "acct-1" {
		t.Fatalf("record attribution wrong: %+v", stored)
	}
}

func TestAnalyzeFallsBackToBaseline(t *testing.T) {
	history := &historyStub{
		enabled: true,
		exists:  true,
		histErr: repo.ErrHistoryUnavailable,
	}
	service := NewImpactService(nil, history, nil, nil)

	outcome, err := service.Analyze(context.Background(), models.AnalyzeRequest{
		AlertName: "Log Volume Spike",
		UserID:    "user-1",
		AccountID: "acct-1",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	// Logging baseline: 50 customers at the 0.1 multiplier.
	if got := outcome.Record.Result.CustomersAffected; got != 5 {
		t.Fatalf("customersAffected = %d, want baseline-derived 5", got)
	}
	if outcome.Record.Result.RiskLevel != models.RiskLow {
		t.Fatalf("riskLevel = %s, want LOW", outcome.Record.Result.RiskLevel)
	}
}

func TestAnalyzeWithoutBackend(t *testing.T) {
	history := &historyStub{enabled: false, exists: true}
	service := NewImpactService(nil, history, nil, nil)

	outcome, err := service.Analyze(context.Background(), models.AnalyzeRequest{
		AlertName: "Database Connection Pool Exhausted",
		UserID:    "user-1",
		AccountID: "acct-1",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if history.fetchCalled {
		t.Fatal("disabled backend must not be queried for history")
	}

	// Database baseline with the critical-service adjustment applied:
	// 1200 * 1.5 customers at multipliers 5.0+4.0+3.5 and count factor 1.4.
	if got := outcome.Record.Result.CustomersAffected; got != 31500 {
		t.Fatalf("customersAffected = %d, want 31500", got)
	}
	if outcome.Record.Result.RiskLevel != models.RiskCritical {
		t.Fatalf("riskLevel = %s, want CRITICAL", outcome.Record.Result.RiskLevel)
	}
}

func TestAnalyzeExistenceCheckFailsOpen(t *testing.T) {
	history := &historyStub{
		enabled:   true,
		existsErr: repo.ErrHistoryUnavailable,
		hist:      models.HistoricalData{AvgCustomersAffected: 100},
	}
	service := NewImpactService(nil, history, nil, nil)

	outcome, err := service.Analyze(context.Background(), models.AnalyzeRequest{
		AlertName: "Disk Pressure Warning",
		UserID:    "user-1",
		AccountID: "acct-1",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !outcome.AlertExists {
		t.Fatal("existence check failure must fail open")
	}
}

func TestAnalyzeReportsUnknownAlerts(t *testing.T) {
	history := &historyStub{enabled: true, exists: false}
	service := NewImpactService(nil, history, nil, nil)

	outcome, err := service.Analyze(context.Background(), models.AnalyzeRequest{
		AlertName: "Never Seen Before",
		UserID:    "user-1",
		AccountID: "acct-1",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if outcome.AlertExists {
		t.Fatal("expected alertExists false for unknown alert")
	}
	// The analysis still runs on fallback rules.
	if len(outcome.Record.Result.Recommendations) == 0 {
		t.Fatal("expected recommendations for unknown alert")
	}
}

func TestRecent(t *testing.T) {
	history := &historyStub{
		enabled: true,
		recent:  []models.AnalysisRecord{{ID: "a-1"}, {ID: "a-2"}},
	}
	service := NewImpactService(nil, history, nil, nil)

	records, err := service.Recent(context.Background(), "acct-1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 || records[0].ID != "a-1" {
		t.Fatalf("unexpected records: %+v", records)
	}
}
