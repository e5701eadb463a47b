package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database metrics
	dbQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"db", "operation"},
	)

	dbQueryTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scanner_db_query_duration_seconds",
			Help:    "Duration of database queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"db", "operation"},
	)

	dbErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_db_errors_total",
			Help: "Total number of database errors",
		},
		[]string{"db", "error_type"},
	)

	// Per-chain scan metrics
	Watermark = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scanner_watermark_block",
			Help: "The last block number successfully scanned, per chain",
		},
		[]string{"chain"},
	)

	LatestBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scanner_latest_block",
			Help: "The chain head observed on the last tick, per chain",
		},
		[]string{"chain"},
	)

	WindowSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scanner_window_size",
			Help: "Current recent-window entry count, per chain",
		},
		[]string{"chain"},
	)

	LogsFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_logs_found_total",
			Help: "Total number of position-manager logs fetched, per chain",
		},
		[]string{"chain"},
	)

	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_events_dispatched_total",
			Help: "Total number of parsed position events handed to the ledger sink, per chain and kind",
		},
		[]string{"chain", "kind"},
	)

	TickDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scanner_tick_duration_seconds",
			Help:    "Time taken to complete one chain's scan tick",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain"},
	)

	ChunkSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scanner_fetch_chunk_size",
			Help: "Current adaptive fetch span, per chain",
		},
		[]string{"chain"},
	)

	// Reorg metrics
	ReorgsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_reorgs_detected_total",
			Help: "Total number of reorgs detected, per chain",
		},
		[]string{"chain"},
	)

	ReorgMinAffectedBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scanner_reorg_min_affected_block",
			Help: "The lowest block number found to have changed on the last detected reorg, per chain",
		},
		[]string{"chain"},
	)

	ReorgAncestorBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scanner_reorg_ancestor_block",
			Help: "The block the watermark was rolled back to on the last detected reorg, per chain",
		},
		[]string{"chain"},
	)

	// System metrics
	Uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scanner_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)

	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_errors_total",
			Help: "Total number of errors by component and severity",
		},
		[]string{"component", "severity"},
	)

	ComponentHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scanner_component_health",
			Help: "Component health status (1=healthy, 0=unhealthy)",
		},
		[]string{"component"},
	)

	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scanner_goroutines",
			Help: "Number of active goroutines",
		},
	)

	MemoryUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scanner_memory_usage_bytes",
			Help: "Memory usage statistics",
		},
		[]string{"type"},
	)

	startTime = time.Now()
)

func DBQueryInc(db string, operation string) {
	dbQueries.WithLabelValues(db, operation).Inc()
}

func DBQueryDuration(db string, operation string, duration time.Duration) {
	dbQueryTime.WithLabelValues(db, operation).Observe(duration.Seconds())
}

func DBErrorsInc(db string, errorType string) {
	dbErrors.WithLabelValues(db, errorType).Inc()
}

// TickObserved records the per-tick observability surface described for
// the scan loop: watermark, chain head, window size, and logs found.
func TickObserved(chain string, watermark, latest, windowSize uint64, logsFound int, duration time.Duration) {
	Watermark.WithLabelValues(chain).Set(float64(watermark))
	LatestBlock.WithLabelValues(chain).Set(float64(latest))
	WindowSize.WithLabelValues(chain).Set(float64(windowSize))
	LogsFound.WithLabelValues(chain).Add(float64(logsFound))
	TickDuration.WithLabelValues(chain).Observe(duration.Seconds())
}

func EventDispatchedInc(chain string, kind string) {
	EventsDispatched.WithLabelValues(chain, kind).Inc()
}

func ChunkSizeSet(chain string, size uint64) {
	ChunkSize.WithLabelValues(chain).Set(float64(size))
}

// ReorgDetectedLog records a detected reorg: how deep the divergence was
// and which block the watermark rolled back to.
func ReorgDetectedLog(chain string, minAffectedBlock, ancestorBlock uint64) {
	ReorgsDetected.WithLabelValues(chain).Inc()
	ReorgMinAffectedBlock.WithLabelValues(chain).Set(float64(minAffectedBlock))
	ReorgAncestorBlock.WithLabelValues(chain).Set(float64(ancestorBlock))
}

func ComponentHealthSet(component string, healthy bool) {
	boolAsFloat := float64(1)
	if !healthy {
		boolAsFloat = 0
	}

	ComponentHealth.WithLabelValues(component).Set(boolAsFloat)
}

// UpdateSystemMetrics updates runtime system metrics.
// This should be called periodically (e.g., every 15 seconds).
func UpdateSystemMetrics() {
	Uptime.Set(time.Since(startTime).Seconds())
	Goroutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	MemoryUsage.WithLabelValues("alloc").Set(float64(m.Alloc))
	MemoryUsage.WithLabelValues("total_alloc").Set(float64(m.TotalAlloc))
	MemoryUsage.WithLabelValues("sys").Set(float64(m.Sys))
	MemoryUsage.WithLabelValues("heap_inuse").Set(float64(m.HeapInuse))
}
