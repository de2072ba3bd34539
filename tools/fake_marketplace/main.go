package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	records "marketplace-admin/internal/records/domain"
)

// fakeMarketplace serves generated marketplace records for local runs of the
// admin service.
type fakeMarketplace struct {
	start     time.Time
	latency   time.Duration
	failRate  float64
	badDates  float64
	token     string
	envelope  bool
	resources map[string]records.Resource

	mu         sync.Mutex
	data       map[string][]map[string]any
	byResource map[string]int64
	totalCalls int64
}

func main() {
	addr := getenvDefault("FAKE_MARKETPLACE_ADDR", ":18081")
	latencyMs := getenvIntDefault("FAKE_MARKETPLACE_LATENCY_MS", 0)
	perResource := getenvIntDefault("FAKE_MARKETPLACE_RECORDS", 200)
	days := getenvIntDefault("FAKE_MARKETPLACE_DAYS", 75)

	srv := &fakeMarketplace{
		start:      time.Now().UTC(),
		latency:    time.Duration(latencyMs) * time.Millisecond,
		failRate:   getenvFloatDefault("FAKE_MARKETPLACE_FAIL_RATE", 0),
		badDates:   getenvFloatDefault("FAKE_MARKETPLACE_BAD_DATE_RATE", 0.02),
		token:      getenvDefault("FAKE_MARKETPLACE_TOKEN", ""),
		envelope:   getenvDefault("FAKE_MARKETPLACE_ENVELOPE", "true") == "true",
		resources:  make(map[string]records.Resource),
		data:       make(map[string][]map[string]any),
		byResource: make(map[string]int64),
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for _, res := range records.DefaultResources() {
		srv.resources[res.Path] = res
		srv.data[res.Name] = srv.generate(rng, res, perResource, days)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/metrics", srv.handleMetrics)
	mux.HandleFunc("/", srv.handleList)

	log.Printf("fake marketplace listening on %s (%d records per resource over %d days)", addr, perResource, days)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

func (s *fakeMarketplace) generate(rng *rand.Rand, res records.Resource, n, days int) []map[string]any {
	out := make([]map[string]any, 0, n)
	span := time.Duration(days) * 24 * time.Hour
	for i := 0; i < n; i++ {
		at := s.start.Add(-time.Duration(rng.Int63n(int64(span))))
		record := map[string]any{
			"id":   fmt.Sprintf("%s-%05d", res.Name, i+1),
			"name": fmt.Sprintf("%s %d", strings.TrimSuffix(res.Name, "s"), i+1),
		}
		switch {
		case s.badDates > 0 && rng.Float64() < s.badDates:
			record[res.DateField] = "n/a"
		case i%3 == 0:
			record[res.DateField] = at.UnixMilli()
		default:
			record[res.DateField] = at.Format(time.RFC3339Nano)
		}
		if res.ValueField != "" {
			cents := decimal.NewFromInt(rng.Int63n(50000) + 100)
			record[res.ValueField] = cents.Shift(-2).StringFixed(2)
		}
		out = append(out, record)
	}
	return out
}

func (s *fakeMarketplace) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *fakeMarketplace) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, map[string]any{
		"started_at":  s.start.Format(time.RFC3339),
		"total":       atomic.LoadInt64(&s.totalCalls),
		"by_resource": s.byResource,
	})
}

func (s *fakeMarketplace) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	res, ok := s.resources[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if s.latency > 0 {
		time.Sleep(s.latency)
	}
	s.recordCall(res.Name)
	if s.failRate > 0 && rand.Float64() < s.failRate {
		http.Error(w, "fake marketplace failure", http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	list := s.data[res.Name]
	s.mu.Unlock()
	if s.envelope {
		writeJSON(w, map[string]any{"data": list, "total": len(list)})
		return
	}
	writeJSON(w, list)
}

func (s *fakeMarketplace) recordCall(resource string) {
	atomic.AddInt64(&s.totalCalls, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byResource[resource]++
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
