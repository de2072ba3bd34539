package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	dashboardapp "marketplace-admin/internal/dashboard/application"
	"marketplace-admin/internal/period"
	records "marketplace-admin/internal/records/domain"
)

const (
	timeLayout = time.RFC3339
	dateLayout = "2006-01-02"

	dashboardPrefix = "/api/v1/dashboard"
)

// Handler serves the dashboard endpoints.
type Handler struct {
	service *dashboardapp.Service
}

// NewHandler constructs a handler.
func NewHandler(service *dashboardapp.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("dashboard handler: nil service")
	}
	return &Handler{service: service}, nil
}

// ServeHTTP handles /api/v1/periods, /api/v1/resources and /api/v1/dashboard.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch {
	case r.URL.Path == "/api/v1/periods":
		writeJSON(w, http.StatusOK, h.service.Periods())
	case r.URL.Path == "/api/v1/resources":
		writeJSON(w, http.StatusOK, h.service.Resources())
	case r.URL.Path == dashboardPrefix:
		h.handleOverview(w, r)
	case strings.HasPrefix(r.URL.Path, dashboardPrefix+"/"):
		name := strings.TrimPrefix(r.URL.Path, dashboardPrefix+"/")
		if name == "" || strings.Contains(name, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.handleView(w, r, name)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	query, err := h.parseQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	views, err := h.service.Overview(r.Context(), query)
	if err != nil {
		respondViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request, name string) {
	query, err := h.parseQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	withRecords := true
	if value := r.URL.Query().Get("records"); value != "" {
		withRecords, err = strconv.ParseBool(value)
		if err != nil {
			http.Error(w, "records must be a boolean", http.StatusBadRequest)
			return
		}
	}

	view, err := h.service.View(r.Context(), name, query)
	if err != nil {
		respondViewError(w, err)
		return
	}
	if !withRecords {
		view.Records = nil
	} else if view.Records == nil {
		view.Records = []records.Record{}
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) parseQuery(r *http.Request) (dashboardapp.Query, error) {
	values := r.URL.Query()
	query := dashboardapp.Query{
		Period:     period.Period(values.Get("period")),
		ValueField: values.Get("value_field"),
	}
	if query.Period != period.Custom {
		return query, nil
	}

	loc := h.service.Location()
	from, err := parseDateQuery(r, "from", loc, false)
	if err != nil {
		return query, err
	}
	to, err := parseDateQuery(r, "to", loc, true)
	if err != nil {
		return query, err
	}
	query.Custom = &period.CustomRange{From: from, To: to}
	return query, nil
}

// parseDateQuery reads an optional RFC3339 or YYYY-MM-DD parameter into loc. A
// date-only value read as an end bound is moved to the last millisecond of that day.
func parseDateQuery(r *http.Request, key string, loc *time.Location, end bool) (*time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(timeLayout, value); err == nil {
		parsed = parsed.In(loc)
		return &parsed, nil
	}
	parsed, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return nil, errors.New(key + " must be RFC3339 or YYYY-MM-DD")
	}
	if end {
		parsed = parsed.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return &parsed, nil
}

func respondViewError(w http.ResponseWriter, err error) {
	if errors.Is(err, records.ErrUnknownResource) {
		http.Error(w, "unknown resource", http.StatusNotFound)
		return
	}
	http.Error(w, "load dashboard error", http.StatusBadGateway)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
