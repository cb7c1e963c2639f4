// Package metrics exposes Prometheus instrumentation for the scan path.
// These are operational counters only; the stats shown to users come from the
// history log.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so that several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	scans           *prometheus.CounterVec
	layerHits       *prometheus.CounterVec
	duration        prometheus.Histogram
	persistFailures prometheus.Counter
	extractorFaults prometheus.Counter
	blocklistHits   prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aegis",
			Name:      "scans_total",
			Help:      "Completed scans by resulting status.",
		}, []string{"status"}),
		layerHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aegis",
			Name:      "layer_hits_total",
			Help:      "Scans decided by each layer.",
		}, []string{"position", "layer"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aegis",
			Name:      "scan_duration_seconds",
			Help:      "Time spent scoring a URL, excluding persistence.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aegis",
			Name:      "history_write_failures_total",
			Help:      "Scans whose history entry could not be written.",
		}),
		extractorFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aegis",
			Name:      "extractor_faults_total",
			Help:      "Extractors that failed and were treated as no match.",
		}),
		blocklistHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aegis",
			Name:      "blocklist_hits_total",
			Help:      "Scans overridden by the reputation blocklist.",
		}),
	}
	m.registry.MustRegister(
		m.scans, m.layerHits, m.duration, m.persistFailures, m.extractorFaults, m.blocklistHits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and embedding.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveScan(status string, seconds float64) {
	m.scans.WithLabelValues(status).Inc()
	m.duration.Observe(seconds)
}

func (m *Metrics) LayerHit(position int, layer string) {
	m.layerHits.WithLabelValues(strconv.Itoa(position), layer).Inc()
}

func (m *Metrics) PersistFailure()       { m.persistFailures.Inc() }
func (m *Metrics) ExtractorFaults(n int) { m.extractorFaults.Add(float64(n)) }
func (m *Metrics) BlocklistHit()         { m.blocklistHits.Inc() }
