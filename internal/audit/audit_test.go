package audit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"marketplace-admin/internal/auth"
)

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	req.RemoteAddr = "10.0.0.9:5123"
	if got := ClientIP(req); got != "10.0.0.9" {
		t.Fatalf("expected remote host, got %q", got)
	}
	req.Header.Set("X-Real-IP", "192.0.2.4")
	if got := ClientIP(req); got != "192.0.2.4" {
		t.Fatalf("expected X-Real-IP, got %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected first forwarded ip, got %q", got)
	}
	if got := ClientIP(nil); got != "" {
		t.Fatalf("expected empty ip for nil request, got %q", got)
	}
}

func TestDigestJSON(t *testing.T) {
	if DigestJSON(nil) != "" {
		t.Fatalf("expected empty digest for empty payload")
	}
	a := DigestJSON([]byte(`{"orders":2}`))
	if len(a) != 64 || a != DigestJSON([]byte(`{"orders":2}`)) {
		t.Fatalf("digest must be a stable sha256 hex, got %q", a)
	}
	if a == DigestJSON([]byte(`{"orders":3}`)) {
		t.Fatalf("different payloads must not share a digest")
	}
}

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	req.RemoteAddr = "10.0.0.9:5123"
	req.Header.Set("User-Agent", "console/1.0")
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.RoleAdmin, "ops@example.com"))

	entry := FromRequest(req, "sync", "records", "orders")
	if entry.Actor != "ops@example.com" || entry.Role != "admin" {
		t.Fatalf("unexpected identity %+v", entry)
	}
	if entry.IP != "10.0.0.9" || entry.UserAgent != "console/1.0" {
		t.Fatalf("unexpected client details %+v", entry)
	}
	if entry.Action != "sync" || entry.ResourceType != "records" || entry.ResourceID != "orders" {
		t.Fatalf("unexpected action %+v", entry)
	}
}

func TestLogWriter_CompletesEntry(t *testing.T) {
	var lines []string
	w := LogWriter{Printf: func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}}
	if err := w.Log(context.Background(), Entry{Action: "sync", Metadata: []byte(`{"orders":2}`)}); err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %v", lines)
	}
	if !strings.Contains(lines[0], "id=audit-") || !strings.Contains(lines[0], "digest="+DigestJSON([]byte(`{"orders":2}`))) {
		t.Fatalf("unexpected audit line %q", lines[0])
	}
}

func TestNewID_Unique(t *testing.T) {
	if NewID() == NewID() {
		t.Fatalf("expected unique ids")
	}
}
