package metrics

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const gaugeQueryTimeout = 5 * time.Second

// RecordCounter reports how many records are mirrored.
type RecordCounter interface {
	Count(ctx context.Context) (int64, error)
}

func registerRecordGauge(counter RecordCounter, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "mirrored_records",
			Help: "Records currently held in the local mirror",
		},
		func() float64 {
			return queryCount(counter, logger)
		},
	))
}

func queryCount(counter RecordCounter, logger *log.Logger) float64 {
	if counter == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), gaugeQueryTimeout)
	defer cancel()
	count, err := counter.Count(ctx)
	if err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
