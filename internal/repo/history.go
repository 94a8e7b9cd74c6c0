package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"

	"github.com/deployguard/impact-engine/internal/cache"
	"github.com/deployguard/impact-engine/internal/models"
)

// ErrHistoryUnavailable reports that the deployment-history backend could
// not serve the request. Callers typically fall back to BaselineHistory.
var ErrHistoryUnavailable = errors.New("history backend unavailable")

// HistoryClient wraps the deployment-history backend APIs. All calls go
// through a shared circuit breaker; reads are retried with backoff and
// served from cache when possible.
type HistoryClient struct {
	baseURL      string
	historyPath  string
	existsPath   string
	analysesPath string
	httpClient   *http.Client
	breaker      *gobreaker.CircuitBreaker

	cache      cache.Provider
	historyTTL time.Duration
	existsTTL  time.Duration
	logger     *slog.Logger
}

// NewHistoryClient constructs a client targeting the configured history
// backend. An empty baseURL produces a disabled client: history falls back
// to baselines, existence checks pass, and stores are dropped.
func NewHistoryClient(baseURL, historyPath, existsPath, analysesPath string, timeout time.Duration, cacheProvider cache.Provider, historyTTL, existsTTL time.Duration, logger *slog.Logger) *HistoryClient {
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		historyPath:  historyPath,
		existsPath:   existsPath,
		analysesPath: analysesPath,
		httpClient:   &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "history-backend",
			MaxRequests: 3,
			Interval:    10 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
		cache:      cacheProvider,
		historyTTL: historyTTL,
		existsTTL:  existsTTL,
		logger:     logger,
	}
}

// Enabled reports whether a backend URL is configured.
func (c *HistoryClient) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// FetchHistory retrieves the deployment baseline for an alert type and the
// services it touches. Returns ErrHistoryUnavailable (wrapped) when the
// backend cannot serve the request.
func (c *HistoryClient) FetchHistory(ctx context.Context, alertType models.AlertType, services []string) (models.HistoricalData, error) {
	var hist models.HistoricalData
	if !c.Enabled() {
		return hist, ErrHistoryUnavailable
	}

	key := "history:" + string(alertType) + ":" + strings.Join(services, ",")
	if data, err := c.cache.Get(ctx, key); err == nil {
		if jsonErr := json.Unmarshal(data, &hist); jsonErr == nil {
			return hist, nil
		}
		_ = c.cache.Del(ctx, key)
	}

	payload := map[string]any{
		"alertType": string(alertType),
		"services":  services,
	}
	if err := c.postJSON(ctx, c.resolvePath(c.historyPath), payload, &hist); err != nil {
		return models.HistoricalData{}, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}

	if data, err := json.Marshal(hist); err == nil {
		if cacheErr := c.cache.Set(ctx, key, data, c.historyTTL); cacheErr != nil {
			c.logger.Warn("history cache write failed", slog.Any("error", cacheErr))
		}
	}
	return hist, nil
}

// CheckAlertExists reports whether the alerting backend knows the named
// alert. A disabled client reports true so analyses are never blocked by a
// missing backend.
func (c *HistoryClient) CheckAlertExists(ctx context.Context, alertName string) (bool, error) {
	if !c.Enabled() {
		return true, nil
	}

	key := "exists:" + alertName
	if data, err := c.cache.Get(ctx, key); err == nil {
		return string(data) == "1", nil
	}

	var response struct {
		Exists bool `json:"exists"`
	}
	payload := map[string]any{"alertName": alertName}
	if err := c.postJSON(ctx, c.resolvePath(c.existsPath), payload, &response); err != nil {
		return false, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}

	cached := "0"
	if response.Exists {
		cached = "1"
	}
	if cacheErr := c.cache.Set(ctx, key, []byte(cached), c.existsTTL); cacheErr != nil {
		c.logger.Warn("exists cache write failed", slog.Any("error", cacheErr))
	}
	return response.Exists, nil
}

// StoreAnalysis persists a completed analysis. A disabled client drops the
// record silently; persistence is best effort.
func (c *HistoryClient) StoreAnalysis(ctx context.Context, record models.AnalysisRecord) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.postJSON(ctx, c.resolvePath(c.analysesPath), record, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}
	return nil
}

// ListRecentAnalyses returns the most recent stored analyses for an
// account, newest first.
func (c *HistoryClient) ListRecentAnalyses(ctx context.Context, accountID string, limit int) ([]models.AnalysisRecord, error) {
	if !c.Enabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	endpoint := c.resolvePath(c.analysesPath) + "?accountId=" + url.QueryEscape(accountID) + "&limit=" + strconv.Itoa(limit)
	var response struct {
		Analyses []models.AnalysisRecord `json:"analyses"`
	}
	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}
	return response.Analyses, nil
}

func (c *HistoryClient) resolvePath(p string) string {
	if c.baseURL == "" {
		return ""
	}
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}

func (c *HistoryClient) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, endpoint, body, out)
}

func (c *HistoryClient) getJSON(ctx context.Context, endpoint string, out any) error {
	return c.doJSON(ctx, http.MethodGet, endpoint, nil, out)
}

func (c *HistoryClient) doJSON(ctx context.Context, method, endpoint string, body []byte, out any) error {
	if endpoint == "" {
		return fmt.Errorf("empty endpoint")
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(3),
		)
		return nil, r.Do(func() error {
			return c.doOnce(ctx, method, endpoint, body, out)
		})
	})
	return err
}

func (c *HistoryClient) doOnce(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("history backend returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
