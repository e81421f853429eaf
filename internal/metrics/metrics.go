// Package metrics holds the Prometheus collectors shared by the server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/plc-assistant/backend/internal/models"
)

var (
	// gatewayRequests counts gateway calls by operation and outcome.
	gatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plc_gateway_requests_total",
		Help: "Gateway read requests by operation and result",
	}, []string{"operation", "result"})

	// gatewayDuration tracks gateway round-trip latency.
	gatewayDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plc_gateway_request_duration_seconds",
		Help:    "Gateway round-trip duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	}, []string{"operation"})

	importsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plc_imports_total",
		Help: "File imports by kind and result",
	}, []string{"kind", "result"})

	importSkippedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plc_import_skipped_rows_total",
		Help: "Rows skipped during import because they were blank or malformed",
	}, []string{"kind"})

	importDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plc_import_duration_seconds",
		Help:    "Import duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"kind"})

	storeEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "plc_store_entries",
		Help: "Entries currently held by the data store",
	}, []string{"collection"})

	// toolCalls counts engine operations invoked through the API.
	toolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plc_tool_calls_total",
		Help: "Engine operations invoked by tool name",
	}, []string{"tool"})
)

// ObserveGateway records one gateway call.
func ObserveGateway(operation string, success bool, elapsed time.Duration) {
	gatewayRequests.WithLabelValues(operation, result(success)).Inc()
	gatewayDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveImport records one finished import.
func ObserveImport(kind models.ImportKind, success bool, skipped int, elapsed time.Duration) {
	importsTotal.WithLabelValues(string(kind), result(success)).Inc()
	if skipped > 0 {
		importSkippedRows.WithLabelValues(string(kind)).Add(float64(skipped))
	}
	importDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// SetStoreStats publishes the current store sizes.
func SetStoreStats(stats models.StoreStats) {
	storeEntries.WithLabelValues("comments").Set(float64(stats.Comments))
	storeEntries.WithLabelValues("programs").Set(float64(stats.Programs))
	storeEntries.WithLabelValues("program_lines").Set(float64(stats.ProgramLines))
	storeEntries.WithLabelValues("function_blocks").Set(float64(stats.FunctionBlocks))
}

// ToolCalled counts one invocation of an engine operation.
func ToolCalled(tool string) {
	toolCalls.WithLabelValues(tool).Inc()
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
