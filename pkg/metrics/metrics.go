// Package metrics exposes conversation-level Prometheus metrics on a dedicated registry.
package metrics

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// Turn outcomes used as the outcome label.
const (
	OutcomeSuccess            = "success"
	OutcomeRoutingExhausted   = "routing_exhausted"
	OutcomeServiceUnavailable = "service_unavailable"
	OutcomeInternalError      = "internal_error"
)

// Collector records turn and operation metrics.
type Collector struct {
	registry   *prometheus.Registry
	turns      *prometheus.CounterVec
	operations *prometheus.CounterVec
	probes     *prometheus.CounterVec
	patterns   *prometheus.CounterVec
	rounds     prometheus.Histogram
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		turns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pmcopilot_turns_total",
			Help: "Conversation turns by outcome",
		}, []string{"outcome"}),
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pmcopilot_operations_total",
			Help: "State operations requested by the model, by result",
		}, []string{"operation", "result"}),
		probes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pmcopilot_probes_fired_total",
			Help: "Probes newly recorded as fired",
		}, []string{"probe"}),
		patterns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pmcopilot_patterns_fired_total",
			Help: "Patterns newly recorded as fired",
		}, []string{"pattern"}),
		rounds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pmcopilot_turn_rounds",
			Help:    "LLM rounds used per turn",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
	}
}

// Registry returns the underlying registry so other recorders can register on it.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveTurn records a finished turn.
func (c *Collector) ObserveTurn(outcome string, rounds int) {
	c.turns.WithLabelValues(outcome).Inc()
	if rounds > 0 {
		c.rounds.Observe(float64(rounds))
	}
}

// ObserveOperation records one executed operation.
func (c *Collector) ObserveOperation(name string, isError bool) {
	result := "ok"
	if isError {
		result = "error"
	}
	c.operations.WithLabelValues(name, result).Inc()
}

// ProbeFired counts a newly recorded probe.
func (c *Collector) ProbeFired(id string) {
	c.probes.WithLabelValues(id).Inc()
}

// PatternFired counts a newly recorded pattern.
func (c *Collector) PatternFired(id string) {
	c.patterns.WithLabelValues(id).Inc()
}

// Handler serves the registry in Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// WriteTextfile writes the current values for the node-exporter textfile collector.
// The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp metrics file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after rename

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(tmp, mf); err != nil {
			tmp.Close() //nolint:errcheck,gosec // already failing
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp metrics file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace metrics file: %w", err)
	}
	return nil
}

// Value returns the current value of a counter series, or 0 when absent.
func (c *Collector) Value(name string, labels map[string]string) float64 {
	families, err := c.registry.Gather()
	if err != nil {
		return 0
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue series
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}
