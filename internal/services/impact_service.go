package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/deployguard/impact-engine/internal/classify"
	"github.com/deployguard/impact-engine/internal/engine"
	"github.com/deployguard/impact-engine/internal/metrics"
	"github.com/deployguard/impact-engine/internal/models"
	"github.com/deployguard/impact-engine/internal/repo"
	"github.com/deployguard/impact-engine/internal/utils"
)

// HistoryBackend defines the deployment-history operations the service
// depends on.
type HistoryBackend interface {
	Enabled() bool
	FetchHistory(ctx context.Context, alertType models.AlertType, services []string) (models.HistoricalData, error)
	CheckAlertExists(ctx context.Context, alertName string) (bool, error)
	StoreAnalysis(ctx context.Context, record models.AnalysisRecord) error
	ListRecentAnalyses(ctx context.Context, accountID string, limit int) ([]models.AnalysisRecord, error)
}

// AnalysisOutcome is the service-level result of one analysis call.
type AnalysisOutcome struct {
	AlertExists bool
	Record      models.AnalysisRecord
}

// ImpactService orchestrates classification, history lookup, scoring, and
// persistence for impact-analysis requests.
type ImpactService struct {
	logger     *slog.Logger
	history    HistoryBackend
	classifier *classify.Classifier
	analyzer   *engine.Analyzer
	latencies  *utils.LatencyTracker
	now        func() time.Time
}

// NewImpactService constructs the service facade. classifier and analyzer
// fall back to their built-in defaults when nil.
func NewImpactService(logger *slog.Logger, history HistoryBackend, classifier *classify.Classifier, analyzer *engine.Analyzer) *ImpactService {
	if logger == nil {
		logger = slog.Default()
	}
	if classifier == nil {
		classifier = classify.NewClassifier()
	}
	if analyzer == nil {
		analyzer = engine.NewAnalyzer(nil)
	}
	return &ImpactService{
		logger:     logger,
		history:    history,
		classifier: classifier,
		analyzer:   analyzer,
		latencies:  utils.NewLatencyTracker(1024),
		now:        time.Now,
	}
}

// Analyze runs the full impact-analysis flow for a validated request. The
// analysis itself never fails on history-backend trouble: missing baselines
// fall back to static ones and persistence is best effort.
func (s *ImpactService) Analyze(ctx context.Context, req models.AnalyzeRequest) (AnalysisOutcome, error) {
	start := time.Now()

	alertType, affectedServices := s.classifier.Classify(req.AlertName)
	s.logger.Debug("alert classified",
		slog.String("alert_name", req.AlertName),
		slog.String("alert_type", string(alertType)),
		slog.Int("services", len(affectedServices)),
	)

	alertExists := true
	if s.history != nil {
		exists, err := s.history.CheckAlertExists(ctx, req.AlertName)
		if err != nil {
			// Fail open: an unreachable backend must not block analyses.
			s.logger.Warn("alert existence check failed", slog.Any("error", err))
		} else {
			alertExists = exists
		}
	}

	criticalAffected := len(s.analyzer.ClassifyCritical(affectedServices)) > 0
	hist := repo.BaselineHistory(alertType, criticalAffected)
	if s.history != nil && s.history.Enabled() {
		fetched, err := s.history.FetchHistory(ctx, alertType, affectedServices)
		if err != nil {
			if !errors.Is(err, repo.ErrHistoryUnavailable) {
				metrics.ObserveAnalysis(time.Since(start), metrics.OutcomeError)
				return AnalysisOutcome{}, err
			}
			metrics.CountHistoryFallback()
			s.logger.Warn("history fetch failed, using baseline", slog.Any("error", err))
		} else {
			hist = fetched
		}
	}

	result := s.analyzer.AnalyzeImpact(models.AlertContext{
		AlertName:        req.AlertName,
		AlertType:        alertType,
		AffectedServices: affectedServices,
		Historical:       hist,
	})

	record := models.AnalysisRecord{
		ID:        uuid.NewString(),
		AlertName: req.AlertName,
		UserID:    req.UserID,
		AccountID: req.AccountID,
		Result:    result,
		CreatedAt: s.now().UTC(),
	}
	if s.history != nil {
		if err := s.history.StoreAnalysis(ctx, record); err != nil {
			s.logger.Warn("analysis persistence failed", slog.Any("error", err))
		}
	}

	duration := time.Since(start)
	s.latencies.Observe(duration)
	metrics.ObserveAnalysis(duration, metrics.OutcomeSuccess)
	metrics.CountRiskLevel(string(result.RiskLevel))
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		p95 := s.latencies.Percentile(95)
		s.logger.Info("analysis latency", slog.Duration("p95", p95), slog.Int("samples", count))
	}

	s.logger.Info("impact analysis completed",
		slog.String("alert_name", req.AlertName),
		slog.String("risk_level", string(result.RiskLevel)),
		slog.Int("customers_affected", result.CustomersAffected),
		slog.Float64("confidence", result.ConfidenceScore),
	)

	return AnalysisOutcome{AlertExists: alertExists, Record: record}, nil
}

// Recent returns the most recent stored analyses for an account.
func (s *ImpactService) Recent(ctx context.Context, accountID string, limit int) ([]models.AnalysisRecord, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListRecentAnalyses(ctx, accountID, limit)
}

// LatencyP95 returns the current p95 analysis latency.
func (s *ImpactService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}
