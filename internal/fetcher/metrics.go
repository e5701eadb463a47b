package fetcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	spanAdjustments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_fetch_span_adjustments_total",
			Help: "Number of times the adaptive fetch span was doubled or halved, per chain and direction",
		},
		[]string{"chain", "direction"},
	)

	subRangeLogs = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scanner_fetch_sub_range_logs",
			Help:    "Number of logs returned per adaptive sub-range fetch",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"chain"},
	)
)

func SpanAdjustmentInc(chain, direction string) {
	spanAdjustments.WithLabelValues(chain, direction).Inc()
}

func SubRangeLogsObserve(chain string, n int) {
	subRangeLogs.WithLabelValues(chain).Observe(float64(n))
}
