// Package metrics exposes action and layout counters in Prometheus format.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/PROACTIVA-US/VISLZR/pkg/actions"
	"github.com/PROACTIVA-US/VISLZR/pkg/layout"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vislzr"

// Outcome labels for action executions
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var _ actions.Recorder = (*Metrics)(nil)

// Metrics owns a private registry so that tests and multiple servers do not
// collide on the global one.
type Metrics struct {
	registry       *prometheus.Registry
	executions     *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	offered        prometheus.Histogram
	layouts        *prometheus.CounterVec
	layoutDuration prometheus.Histogram
	reloads        *prometheus.CounterVec
}

// New registers all collectors, plus the Go runtime and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_executions_total",
			Help:      "Action executions by action id and outcome.",
		}, []string{"action", "outcome"}),
		actionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_duration_seconds",
			Help:      "Time spent executing actions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		offered: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "actions_offered",
			Help:      "Number of actions offered per resolution.",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		}),
		layouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layouts_total",
			Help:      "Sibling layouts computed by strategy.",
		}, []string{"kind"}),
		layoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Time spent computing a sibling layout, collisions included.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Hot reloads of watched files by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	m.registry.MustRegister(
		m.executions, m.actionDuration, m.offered, m.layouts, m.layoutDuration, m.reloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Record implements actions.Recorder
func (m *Metrics) Record(_ context.Context, exec actions.Execution) {
	m.executions.WithLabelValues(exec.ActionID, outcome(exec.Success)).Inc()
	m.actionDuration.WithLabelValues(exec.ActionID).Observe(exec.Duration.Seconds())
}

// ObserveOffered records how many actions survived rule filtering
func (m *Metrics) ObserveOffered(n int) {
	m.offered.Observe(float64(n))
}

// ObserveLayout records one computed layout
func (m *Metrics) ObserveLayout(kind layout.Kind, d time.Duration) {
	m.layouts.WithLabelValues(string(kind)).Inc()
	m.layoutDuration.Observe(d.Seconds())
}

// ObserveReload records a hot reload of the graph or catalog
func (m *Metrics) ObserveReload(kind string, err error) {
	m.reloads.WithLabelValues(kind, outcome(err == nil)).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func outcome(ok bool) string {
	if ok {
		return OutcomeSuccess
	}
	return OutcomeFailure
}
