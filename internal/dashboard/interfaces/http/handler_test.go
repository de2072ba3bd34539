package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"marketplace-admin/internal/audit"
	dashboardapp "marketplace-admin/internal/dashboard/application"
	"marketplace-admin/internal/period"
	records "marketplace-admin/internal/records/domain"
	"marketplace-admin/internal/records/infrastructure/memory"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	catalog, err := records.NewCatalog(records.Resource{Name: "orders", DateField: "createdAt", ValueField: "amount"})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	repo := memory.NewRepository()
	orders, _ := catalog.Get("orders")
	if err := repo.Replace(context.Background(), orders, []records.Record{
		{"id": "o1", "createdAt": "2024-03-10T12:00:00Z", "amount": 40},
		{"id": "o2", "createdAt": "2024-03-15T08:00:00Z", "amount": 60},
		{"id": "o3", "createdAt": "2024-02-02T08:00:00Z", "amount": 50},
		{"id": "o4", "createdAt": ""},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
	svc, err := dashboardapp.NewService(repo, catalog, period.NewResolver(fixedClock(now), time.UTC))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	handler, err := NewHandler(svc)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return handler
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, target, nil))
	return resp
}

func TestHandler_Periods(t *testing.T) {
	resp := get(t, newTestHandler(t), "/api/v1/periods")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var options []dashboardapp.PeriodOption
	if err := json.Unmarshal(resp.Body.Bytes(), &options); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(options) != 6 || options[5].Value != period.Custom || options[5].Label != "Custom Range" {
		t.Fatalf("unexpected options %+v", options)
	}
}

func TestHandler_ViewThisMonth(t *testing.T) {
	resp := get(t, newTestHandler(t), "/api/v1/dashboard/orders?period=this-month")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var view dashboardapp.View
	if err := json.Unmarshal(resp.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Matched != 2 || len(view.Records) != 2 || view.Excluded != 1 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Comparison.Current != 100 || view.Comparison.Previous != 50 || view.Comparison.Percentage != 100 {
		t.Fatalf("unexpected comparison %+v", view.Comparison)
	}
	if view.Current.Display != "Mar 1 - Mar 31, 2024" {
		t.Fatalf("unexpected display %q", view.Current.Display)
	}
}

func TestHandler_ViewWithoutRecords(t *testing.T) {
	resp := get(t, newTestHandler(t), "/api/v1/dashboard/orders?period=today&records=false")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw["records"]) != "null" {
		t.Fatalf("records must be omitted, got %s", raw["records"])
	}
}

func TestHandler_ViewEmptyRecordsIsArray(t *testing.T) {
	resp := get(t, newTestHandler(t), "/api/v1/dashboard/orders?period=yesterday")
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw["records"]) != "[]" {
		t.Fatalf("expected empty array, got %s", raw["records"])
	}
}

func TestHandler_CustomRangeDateOnly(t *testing.T) {
	resp := get(t, newTestHandler(t), "/api/v1/dashboard/orders?period=custom&from=2024-03-01&to=2024-03-10")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var view dashboardapp.View
	if err := json.Unmarshal(resp.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Matched != 1 || view.Records[0].ID() != "o1" {
		t.Fatalf("date-only to must include the whole day, got %+v", view.Records)
	}
	wantTo := time.Date(2024, time.March, 10, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	if !view.Current.Range.To.Equal(wantTo) {
		t.Fatalf("expected to %v, got %v", wantTo, view.Current.Range.To)
	}
}

func TestHandler_CustomRangeRFC3339(t *testing.T) {
	resp := get(t, newTestHandler(t), "/api/v1/dashboard/orders?period=custom&from=2024-02-01T00:00:00Z&to=2024-03-10T11:59:59Z")
	var view dashboardapp.View
	if err := json.Unmarshal(resp.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Matched != 1 || view.Records[0].ID() != "o3" {
		t.Fatalf("unexpected records %+v", view.Records)
	}
}

func TestHandler_CustomRangeOffsetFollowsDashboardZone(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	catalog, err := records.NewCatalog(records.Resource{Name: "orders", DateField: "createdAt"})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	repo := memory.NewRepository()
	orders, _ := catalog.Get("orders")
	if err := repo.Replace(context.Background(), orders, []records.Record{
		{"id": "o1", "createdAt": "2024-01-10"},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	now := time.Date(2024, time.January, 15, 9, 0, 0, 0, loc)
	svc, err := dashboardapp.NewService(repo, catalog, period.NewResolver(fixedClock(now), loc))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	h, err := NewHandler(svc)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	for _, from := range []string{"2024-01-10", "2024-01-10T05:00:00Z", "2024-01-10T00:00:00-05:00"} {
		resp := get(t, h, "/api/v1/dashboard/orders?period=custom&from="+url.QueryEscape(from)+"&to=2024-01-10")
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", from, resp.Code)
		}
		var view dashboardapp.View
		if err := json.Unmarshal(resp.Body.Bytes(), &view); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if view.Matched != 1 || view.Current.Display != "Wednesday, January 10, 2024" {
			t.Fatalf("%s: expected one match on a single day, got matched=%d display=%q", from, view.Matched, view.Current.Display)
		}
	}
}

func TestHandler_BadRequests(t *testing.T) {
	h := newTestHandler(t)
	cases := []string{
		"/api/v1/dashboard/orders?period=custom&from=yesterday",
		"/api/v1/dashboard/orders?period=custom&to=03/10/2024",
		"/api/v1/dashboard/orders?records=maybe",
	}
	for _, target := range cases {
		if resp := get(t, h, target); resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, resp.Code)
		}
	}
}

func TestHandler_NotFound(t *testing.T) {
	h := newTestHandler(t)
	for _, target := range []string{"/api/v1/dashboard/tickets", "/api/v1/dashboard/orders/extra", "/api/v1/other"} {
		if resp := get(t, h, target); resp.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", target, resp.Code)
		}
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	resp := httptest.NewRecorder()
	newTestHandler(t).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/periods", nil))
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}

func TestHandler_Overview(t *testing.T) {
	resp := get(t, newTestHandler(t), "/api/v1/dashboard?period=last-month")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var views []dashboardapp.View
	if err := json.Unmarshal(resp.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 1 || views[0].Matched != 1 || views[0].Records != nil {
		t.Fatalf("unexpected overview %+v", views)
	}
}

type stubSyncer struct {
	counts map[string]int
	err    error
}

func (s stubSyncer) SyncOnce(context.Context) (map[string]int, error) {
	return s.counts, s.err
}

type captureAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (c *captureAudit) Log(_ context.Context, entry audit.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	return nil
}

func TestSyncHandler_Success(t *testing.T) {
	logger := &captureAudit{}
	h := NewSyncHandler(stubSyncer{counts: map[string]int{"orders": 4}}, logger, nil)

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body SyncResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Counts["orders"] != 4 || body.Error != "" {
		t.Fatalf("unexpected body %+v", body)
	}
	if len(logger.entries) != 1 || logger.entries[0].Action != "records.sync" {
		t.Fatalf("expected one audit entry, got %+v", logger.entries)
	}
}

func TestSyncHandler_Failure(t *testing.T) {
	logger := &captureAudit{}
	h := NewSyncHandler(stubSyncer{err: errors.New("sync refunds: boom")}, logger, nil)

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	if len(logger.entries) != 1 {
		t.Fatalf("failed syncs must be audited too")
	}
}

func TestSyncHandler_NotConfigured(t *testing.T) {
	h := NewSyncHandler(nil, nil, nil)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/sync", nil))
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}
