package metrics

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "marketplace_admin_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	dashboardViewTotal   *prometheus.CounterVec
	dashboardViewLatency *prometheus.HistogramVec
	excludedRecords      *prometheus.CounterVec

	syncTotal   *prometheus.CounterVec
	syncLatency *prometheus.HistogramVec

	adminActionTotal *prometheus.CounterVec
)

// Init registers the service metrics. counter, when non-nil, backs the
// mirrored-records gauge.
func Init(counter RecordCounter, logger *log.Logger) {
	registerOnce.Do(func() {
		dashboardViewTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dashboard_view_total",
				Help: "Total dashboard views by resource and result",
			},
			[]string{"resource", "result"},
		)
		dashboardViewLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "dashboard_view_latency_seconds",
				Help:    "Dashboard view latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resource", "result"},
		)
		excludedRecords = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "excluded_records_total",
				Help: "Records skipped by period filtering because their date was missing or invalid",
			},
			[]string{"resource"},
		)

		syncTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sync_total",
				Help: "Total resource sync runs by resource and result",
			},
			[]string{"resource", "result"},
		)
		syncLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "sync_latency_seconds",
				Help:    "Resource sync latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resource", "result"},
		)

		adminActionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "admin_action_total",
				Help: "Total admin actions by action and result",
			},
			[]string{"action", "result"},
		)

		prometheus.MustRegister(
			dashboardViewTotal,
			dashboardViewLatency,
			excludedRecords,
			syncTotal,
			syncLatency,
			adminActionTotal,
		)

		if counter != nil {
			registerRecordGauge(counter, logger)
		}
	})
}

// ObserveDashboardView records view latency and result.
func ObserveDashboardView(resource, result string, duration time.Duration) {
	if resource == "" {
		resource = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if dashboardViewTotal != nil {
		dashboardViewTotal.WithLabelValues(resource, result).Inc()
	}
	if dashboardViewLatency != nil {
		dashboardViewLatency.WithLabelValues(resource, result).Observe(duration.Seconds())
	}
}

// AddExcludedRecords counts records dropped for an unusable date.
func AddExcludedRecords(resource string, count int) {
	if count <= 0 {
		return
	}
	if resource == "" {
		resource = "unknown"
	}
	if excludedRecords != nil {
		excludedRecords.WithLabelValues(resource).Add(float64(count))
	}
}

// ObserveSync records sync latency and result for one resource.
func ObserveSync(resource, result string, duration time.Duration) {
	if resource == "" {
		resource = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if syncTotal != nil {
		syncTotal.WithLabelValues(resource, result).Inc()
	}
	if syncLatency != nil {
		syncLatency.WithLabelValues(resource, result).Observe(duration.Seconds())
	}
}

// IncAdminAction increments the admin action counter.
func IncAdminAction(action, result string) {
	if action == "" {
		action = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if adminActionTotal != nil {
		adminActionTotal.WithLabelValues(action, result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
