package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/deployguard/impact-engine/internal/models"
)

func jsonResponse(t *testing.T, status int, payload any) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(data)),
		Header:     make(http.Header),
	}
}

func newHistoryTestClient(cacheProvider *stubCache, rt roundTripFunc) *HistoryClient {
	client := NewHistoryClient(
		"https://history.example.com",
		"/api/v1/history",
		"/api/v1/alerts/exists",
		"/api/v1/analyses",
		time.Second,
		cacheProvider,
		time.Minute,
		time.Minute,
		nil,
	)
	client.httpClient = newTestClient(rt)
	return client
}

func TestFetchHistoryCachesResults(t *testing.T) {
	hits := 0
	client := newHistoryTestClient(newStubCache(), func(req *http.Request) (*http.Response, error) {
		hits++
		if req.URL.Path != "/api/v1/history" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		return jsonResponse(t, http.StatusOK, map[string]any{
			"avgCustomersAffected":  1200.0,
			"avgDowntime":           180.0,
			"successfulDeployments": 15,
			"failedDeployments":     3,
		}), nil
	})

	ctx := context.Background()
	services := []string{"payment-processing", "user-authentication"}

	hist, err := client.FetchHistory(ctx, models.AlertTypeDatabase, services)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected one upstream request, got %d", hits)
	}
	if hist.AvgCustomersAffected != 1200 || hist.FailedDeployments != 3 {
		t.Fatalf("unexpected history: %+v", hist)
	}

	cached, err := client.FetchHistory(ctx, models.AlertTypeDatabase, services)
	if err != nil {
		t.Fatalf("unexpected cached error: %v", err)
	}
	if hits != 1 {
		t.Fatalf("cache miss triggered network call; hits=%d", hits)
	}
	if cached.AvgDowntimeSeconds != 180 {
		t.Fatalf("unexpected cached payload: %+v", cached)
	}
}

func TestFetchHistoryBackendFailure(t *testing.T) {
	client := newHistoryTestClient(newStubCache(), func(*http.Request) (*http.Response, error) {
		return jsonResponse(t, http.StatusInternalServerError, map[string]any{}), nil
	})

	_, err := client.FetchHistory(context.Background(), models.AlertTypePayment, []string{"payment-processing"})
	if !errors.Is(err, ErrHistoryUnavailable) {
		t.Fatalf("expected ErrHistoryUnavailable, got %v", err)
	}
}

func TestCheckAlertExistsCached(t *testing.T) {
	hits := 0
	client := newHistoryTestClient(newStubCache(), func(req *http.Request) (*http.Response, error) {
		hits++
		if req.URL.Path != "/api/v1/alerts/exists" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		var body struct {
			AlertName string `json:"alertName"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		return jsonResponse(t, http.StatusOK, map[string]any{
			"exists": body.AlertName == "Known Alert",
		}), nil
	})

	ctx := context.Background()
	exists, err := client.CheckAlertExists(ctx, "Known Alert")
	if err != nil || !exists {
		t.Fatalf("CheckAlertExists = %v, %v", exists, err)
	}
	exists, err = client.CheckAlertExists(ctx, "Unknown Alert")
	if err != nil || exists {
		t.Fatalf("CheckAlertExists(unknown) = %v, %v", exists, err)
	}
	if hits != 2 {
		t.Fatalf("expected two upstream requests, got %d", hits)
	}

	// Both answers now come from cache, including the negative one.
	if exists, _ := client.CheckAlertExists(ctx, "Known Alert"); !exists {
		t.Fatal("cached positive answer lost")
	}
	if exists, _ := client.CheckAlertExists(ctx, "Unknown Alert"); exists {
		t.Fatal("cached negative answer lost")
	}
	if hits != 2 {
		t.Fatalf("cache miss triggered network call; hits=%d", hits)
	}
}

func TestStoreAnalysisPostsRecord(t *testing.T) {
	var got models.AnalysisRecord
	client := newHistoryTestClient(newStubCache(), func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost || req.URL.Path != "/api/v1/analyses" {
			t.Fatalf("unexpected request: %s %s", req.Method, req.URL.Path)
		}
		if err := json.NewDecoder(req.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		return jsonResponse(t, http.StatusCreated, map[string]any{}), nil
	})

	record := models.AnalysisRecord{
		ID:        "a-1",
		AlertName: "Payment Gateway Errors",
		UserID:    "user-1",
		AccountID: "acct-1",
		Result:    models.ImpactResult{RiskLevel: models.RiskCritical},
		CreatedAt: time.Unix(1_700_000_000, 0).UTC(),
	}
	if err := client.StoreAnalysis(context.Background(), record); err != nil {
		t.Fatalf("StoreAnalysis: %v", err)
	}
	if got.ID != "a-1" || got.Result.RiskLevel != models.RiskCritical {
		t.Fatalf("unexpected stored record: %+v", got)
	}
}

func TestListRecentAnalyses(t *testing.T) {
	client := newHistoryTestClient(newStubCache(), func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodGet {
			t.Fatalf("unexpected method: %s", req.Method)
		}
		q := req.URL.Query()
		if q.Get("accountId") != "acct-1" || q.Get("limit") != "5" {
			t.Fatalf("unexpected query: %s", req.URL.RawQuery)
		}
		return jsonResponse(t, http.StatusOK, map[string]any{
			"analyses": []map[string]any{
				{"id": "a-2", "alert_name": "Log Volume Spike"},
			},
		}), nil
	})

	records, err := client.ListRecentAnalyses(context.Background(), "acct-1", 5)
	if err != nil {
		t.Fatalf("ListRecentAnalyses: %v", err)
	}
	if len(records) != 1 || records[0].ID != "a-2" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestDisabledClient(t *testing.T) {
	client := NewHistoryClient("", "/h", "/e", "/a", time.Second, nil, 0, 0, nil)
	ctx := context.Background()

	if _, err := client.FetchHistory(ctx, models.AlertTypeDatabase, nil); !errors.Is(err, ErrHistoryUnavailable) {
		t.Fatalf("expected ErrHistoryUnavailable, got %v", err)
	}
	exists, err := client.CheckAlertExists(ctx, "anything")
	if err != nil || !exists {
		t.Fatalf("disabled client must pass existence checks: %v, %v", exists, err)
	}
	if err := client.StoreAnalysis(ctx, models.AnalysisRecord{}); err != nil {
		t.Fatalf("disabled store must be a no-op: %v", err)
	}
	records, err := client.ListRecentAnalyses(ctx, "acct-1", 5)
	if err != nil || records != nil {
		t.Fatalf("disabled list = %v, %v", records, err)
	}
}

func TestBaselineHistory(t *testing.T) {
	tests := []struct {
		name      string
		alertType models.AlertType
		critical  bool
		want      models.HistoricalData
	}{
		{
			name:      "generic baseline",
			alertType: models.AlertTypeUnknown,
			want:      models.HistoricalData{AvgCustomersAffected: 100, AvgDowntimeSeconds: 60, SuccessfulDeployments: 10, FailedDeployments: 2},
		},
		{
			name:      "database baseline",
			alertType: models.AlertTypeDatabase,
			want:      models.HistoricalData{AvgCustomersAffected: 1200, AvgDowntimeSeconds: 180, SuccessfulDeployments: 15, FailedDeployments: 3},
		},
		{
			name:      "payment baseline with critical adjustment",
			alertType: models.AlertTypePayment,
			critical:  true,
			want:      models.HistoricalData{AvgCustomersAffected: 7500, AvgDowntimeSeconds: 1170, SuccessfulDeployments: 5, FailedDeployments: 10},
		},
		{
			name:      "logging baseline",
			alertType: models.AlertTypeLogging,
			want:      models.HistoricalData{AvgCustomersAffected: 50, AvgDowntimeSeconds: 30, SuccessfulDeployments: 25, FailedDeployments: 1},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := BaselineHistory(tc.alertType, tc.critical); got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}
