package auth

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsSink counts workflow outcomes. It is an ActivitySink so it can be
// combined with other sinks through MultiActivitySink.
type MetricsSink struct {
	Operations *prometheus.CounterVec
}

// NewMetricsSink registers the workflow counters with reg. A nil reg uses
// the default prometheus registerer.
func NewMetricsSink(reg prometheus.Registerer) *MetricsSink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &MetricsSink{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credentials_workflow_operations_total",
			Help: "Total number of register, login and password reset operations by outcome",
		}, []string{"operation", "outcome"}),
	}
}

// Record implements ActivitySink.
func (m *MetricsSink) Record(_ context.Context, event ActivityEvent) error {
	m.Operations.WithLabelValues(operationLabel(event.EventType), event.Outcome.String()).Inc()
	return nil
}

func operationLabel(t ActivityEventType) string {
	s := strings.TrimPrefix(string(t), "auth.")
	switch {
	case strings.HasPrefix(s, "register"):
		return "register"
	case strings.HasPrefix(s, "login"):
		return "login"
	case strings.HasPrefix(s, "password.reset"):
		return "reset_password"
	default:
		return s
	}
}
