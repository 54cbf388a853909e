package agent

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("agentwire/pkg/agent")

// Metrics holds the Prometheus collectors for a runtime's turns and tool
// executions. A nil *Metrics is safe to use: every method is then a no-op.
// The zero value Metrics{} has no collectors and must not be used; build
// one with NewMetrics.
type Metrics struct {
	turnsTotal   *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	registered   bool
}

// NewMetrics builds the counter/histogram pair and registers them against
// reg if non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentwire_turns_total",
			Help: "Total number of agent turns, labeled by outcome.",
		}, []string{"stop_reason"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentwire_tool_duration_seconds",
			Help:    "Tool execution duration in seconds, labeled by tool name and outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.turnsTotal, m.toolDuration)
		m.registered = true
	}
	return m
}

func (m *Metrics) recordTurn(stopReason string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(stopReason).Inc()
}

func (m *Metrics) recordToolDuration(tool string, d time.Duration, isError bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if isError {
		outcome = "error"
	}
	m.toolDuration.WithLabelValues(tool, outcome).Observe(d.Seconds())
}

// startTurnSpan starts an "agent.turn" span. Safe to call when no OTel SDK
// is installed — the global tracer is then a no-op, so this never requires
// a guard at call sites.
func startTurnSpan(ctx context.Context, turnIndex int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "agent.turn", trace.WithAttributes(attribute.Int("agent.turn_index", turnIndex)))
}

func startToolSpan(ctx context.Context, toolName, toolCallID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "agent.tool_execution", trace.WithAttributes(
		attribute.String("agent.tool_name", toolName),
		attribute.String("agent.tool_call_id", toolCallID),
	))
}
