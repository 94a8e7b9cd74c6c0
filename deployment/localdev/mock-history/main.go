package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"
)

type historicalData struct {
	AvgCustomersAffected  float64 `json:"avgCustomersAffected"`
	AvgDowntime           float64 `json:"avgDowntime"`
	SuccessfulDeployments int     `json:"successfulDeployments"`
	FailedDeployments     int     `json:"failedDeployments"`
}

type analysisRecord struct {
	ID        string          `json:"id"`
	AlertName string          `json:"alert_name"`
	UserID    string          `json:"user_id"`
	AccountID string          `json:"account_id"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

var baselines = map[string]historicalData{
	"database": {AvgCustomersAffected: 1200, AvgDowntime: 180, SuccessfulDeployments: 15, FailedDeployments: 3},
	"payment":  {AvgCustomersAffected: 5000, AvgDowntime: 900, SuccessfulDeployments: 5, FailedDeployments: 8},
	"logging":  {AvgCustomersAffected: 50, AvgDowntime: 30, SuccessfulDeployments: 25, FailedDeployments: 1},
}

var knownAlerts = map[string]struct{}{
	"Database Connection Pool Exhausted": {},
	"Payment Gateway Errors":             {},
	"Log Volume Spike":                   {},
	"Auth Token Expiry Spike":            {},
}

type analysisStore struct {
	mu      sync.Mutex
	records []analysisRecord
}

func main() {
	store := &analysisStore{}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/v1/history", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}
		var req struct {
			AlertType string `json:"alertType"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		hist, ok := baselines[req.AlertType]
		if !ok {
			hist = historicalData{AvgCustomersAffected: 100, AvgDowntime: 60, SuccessfulDeployments: 10, FailedDeployments: 2}
		}
		writeJSON(w, hist)
	})

	mux.HandleFunc("/api/v1/alerts/exists", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}
		var req struct {
			AlertName string `json:"alertName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, exists := knownAlerts[req.AlertName]
		writeJSON(w, map[string]bool{"exists": exists})
	})

	mux.HandleFunc("/api/v1/analyses", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var record analysisRecord
			if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			store.mu.Lock()
			store.records = append(store.records, record)
			store.mu.Unlock()
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			accountID := r.URL.Query().Get("accountId")
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			if limit <= 0 {
				limit = 20
			}
			store.mu.Lock()
			matched := make([]analysisRecord, 0)
			for _, record := range store.records {
				if accountID == "" || record.AccountID == accountID {
					matched = append(matched, record)
				}
			}
			store.mu.Unlock()
			sort.Slice(matched, func(i, j int) bool {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			})
			if len(matched) > limit {
				matched = matched[:limit]
			}
			writeJSON(w, map[string]any{"analyses": matched})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	logger := log.New(log.Writer(), "history-mock ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":8081",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :8081")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func enforcePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
