// Package metrics exposes catalog counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	imports         *prometheus.CounterVec
	importedRecords prometheus.Counter
	exports         *prometheus.CounterVec
	queries         *prometheus.CounterVec
	mutations       *prometheus.CounterVec
}

// New registers the catalog collectors on a fresh registry. recordCount
// backs the records gauge and is read on every scrape.
func New(recordCount func() int) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "microteca",
			Name:      "csv_imports_total",
			Help:      "CSV import attempts by result.",
		}, []string{"result"}),
		importedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "microteca",
			Name:      "csv_imported_records_total",
			Help:      "Records inserted through CSV import.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "microteca",
			Name:      "csv_exports_total",
			Help:      "CSV exports by format.",
		}, []string{"format"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "microteca",
			Name:      "filter_queries_total",
			Help:      "Listing queries evaluated by scope.",
		}, []string{"scope"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "microteca",
			Name:      "record_mutations_total",
			Help:      "Single-record writes by operation and outcome.",
		}, []string{"op", "outcome"}),
	}

	reg.MustRegister(m.imports, m.importedRecords, m.exports, m.queries, m.mutations)
	if recordCount != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "microteca",
			Name:      "records",
			Help:      "Records currently held by the catalog.",
		}, func() float64 { return float64(recordCount()) }))
	}
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ImportSucceeded(n int) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues("ok").Inc()
	m.importedRecords.Add(float64(n))
}

func (m *Metrics) ImportFailed() {
	if m == nil {
		return
	}
	m.imports.WithLabelValues("error").Inc()
}

func (m *Metrics) Exported(format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format).Inc()
}

func (m *Metrics) Queried(scope string) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(scope).Inc()
}

func (m *Metrics) Mutated(op, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, outcome).Inc()
}
