package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWebhookNotifier_PostsTextMessage(t *testing.T) {
	var calls int32
	var mu sync.Mutex
	var content string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var payload webhookPayload
		_ = json.NewDecoder(r.Body).Decode(&payload)
		mu.Lock()
		content = payload.Text.Content
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, time.Hour)
	at := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
	alert := SyncAlert{
		Failed: map[string]string{"refunds": "upstream: status 502"},
		Synced: map[string]int{"orders": 12, "items": 3},
		At:     at,
	}
	if err := n.Notify(context.Background(), alert); err != nil {
		t.Fatalf("notify: %v", err)
	}
	mu.Lock()
	got := content
	mu.Unlock()
	if !strings.Contains(got, "Failed refunds: upstream: status 502") || !strings.Contains(got, "Synced: items=3, orders=12") {
		t.Fatalf("unexpected content %q", got)
	}

	alert.At = at.Add(time.Minute)
	if err := n.Notify(context.Background(), alert); err != nil {
		t.Fatalf("notify repeat: %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("repeat within cooldown must be suppressed, got %d calls", calls)
	}

	alert.At = at.Add(2 * time.Hour)
	if err := n.Notify(context.Background(), alert); err != nil {
		t.Fatalf("notify after cooldown: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected a second call after cooldown, got %d", calls)
	}
}

func TestWebhookNotifier_Errors(t *testing.T) {
	if err := NewWebhookNotifier("", 0).Notify(context.Background(), SyncAlert{}); err == nil {
		t.Fatalf("expected empty url error")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()
	err := NewWebhookNotifier(server.URL, 0).Notify(context.Background(), SyncAlert{Failed: map[string]string{"orders": "boom"}})
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected status error, got %v", err)
	}
}
