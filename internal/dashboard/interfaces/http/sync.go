package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"marketplace-admin/internal/audit"
	"marketplace-admin/internal/observability/metrics"
)

const syncAction = "records.sync"

// SyncRunner runs one mirror refresh.
type SyncRunner interface {
	SyncOnce(ctx context.Context) (map[string]int, error)
}

// SyncResponse reports the outcome of a manual sync.
type SyncResponse struct {
	Counts map[string]int `json:"counts"`
	Error  string         `json:"error,omitempty"`
}

// SyncHandler serves POST /api/v1/sync.
type SyncHandler struct {
	syncer      SyncRunner
	auditLogger audit.Logger
	logger      *log.Logger
}

// NewSyncHandler constructs a SyncHandler. A nil syncer answers 503.
func NewSyncHandler(syncer SyncRunner, auditLogger audit.Logger, logger *log.Logger) *SyncHandler {
	return &SyncHandler{syncer: syncer, auditLogger: auditLogger, logger: logger}
}

// ServeHTTP handles POST /api/v1/sync.
func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.syncer == nil {
		http.Error(w, "sync not configured", http.StatusServiceUnavailable)
		return
	}

	counts, err := h.syncer.SyncOnce(r.Context())
	resp := SyncResponse{Counts: counts}
	if resp.Counts == nil {
		resp.Counts = map[string]int{}
	}
	status := http.StatusOK
	result := metrics.ResultSuccess
	if err != nil {
		resp.Error = err.Error()
		status = http.StatusBadGateway
		result = metrics.ResultError
	}
	metrics.IncAdminAction(syncAction, result)
	h.logAudit(r, resp)

	writeJSON(w, status, resp)
}

func (h *SyncHandler) logAudit(r *http.Request, resp SyncResponse) {
	if h.auditLogger == nil {
		return
	}
	entry := audit.FromRequest(r, syncAction, "records", "all")
	entry.Metadata, _ = json.Marshal(resp)
	if err := h.auditLogger.Log(r.Context(), entry); err != nil && h.logger != nil {
		h.logger.Printf("audit log failed: %v", err)
	}
}
