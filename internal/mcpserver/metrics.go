// metrics.go registers all Prometheus metrics for the MCP tool-call server
// and exposes helpers used by handlers.
package mcpserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// serverMetrics holds all Prometheus metrics owned by the MCP server. A
// single instance is created in New and stored on Server. New passes a nil
// Registerer, so the collectors are registered with no registry (never the
// global default) and are not exposed over HTTP.
type serverMetrics struct {
	// messagesTotal counts completed POST /message requests, partitioned by
	// outcome: "accepted", "unknown_session", "session_gone", "error".
	messagesTotal *prometheus.CounterVec

	// toolCallsTotal counts tools/call executions, partitioned by tool name
	// and outcome: "ok" or "tool_error".
	toolCallsTotal *prometheus.CounterVec

	// sseSessionsActive is the number of open SSE streams.
	sseSessionsActive prometheus.Gauge

	// messageDurationSeconds records dispatch latency for POST /message.
	messageDurationSeconds prometheus.Histogram
}

// newServerMetrics registers all server metrics against reg. promauto.With(reg)
// registers into the provided registry rather than the global default, so
// unit tests remain hermetic.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		messagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hsearch",
			Subsystem: "mcp",
			Name:      "messages_total",
			Help:      "Total number of POST /message requests, partitioned by outcome.",
		}, []string{"outcome"}),

		toolCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hsearch",
			Subsystem: "mcp",
			Name:      "tool_calls_total",
			Help:      "Total number of tools/call executions, partitioned by tool and outcome.",
		}, []string{"tool", "outcome"}),

		sseSessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hsearch",
			Subsystem: "mcp",
			Name:      "sse_sessions_active",
			Help:      "Number of SSE sessions currently open.",
		}),

		messageDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hsearch",
			Subsystem: "mcp",
			Name:      "message_duration_seconds",
			Help:      "Latency of POST /message dispatch from receipt to sink enqueue.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
