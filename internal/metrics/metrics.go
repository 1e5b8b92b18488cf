// Package metrics exposes Prometheus instrumentation for the analysis layer.
// Every collector lives on an explicit registry so tests and embedded
// servers never collide on the global one. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bendlens"

// Soft failure reasons.
const (
	ReasonUnknownDocument = "unknown_document"
	ReasonStaleBook       = "stale_book"
	ReasonCompile         = "compile"
	ReasonQuery           = "query"
	ReasonCancelled       = "cancelled"
)

// Metrics holds the collectors.
type Metrics struct {
	registry      *prometheus.Registry
	parseDuration *prometheus.HistogramVec
	queryDuration *prometheus.HistogramVec
	documentsOpen prometheus.Gauge
	softFailures  *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		parseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Document parse duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
		}, []string{"grammar", "result"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Structural query run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"query"}),
		documentsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "documents_open",
			Help:      "Number of open documents",
		}),
		softFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "soft_failures_total",
			Help:      "Requests answered with degraded results, by reason",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(m.parseDuration, m.queryDuration, m.documentsOpen, m.softFailures)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveParse records one parse. Its signature matches the session parse
// observer.
func (m *Metrics) ObserveParse(grammar string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.parseDuration.WithLabelValues(grammar, result).Observe(d.Seconds())
}

// ObserveQuery records one query run.
func (m *Metrics) ObserveQuery(name string, d time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(name).Observe(d.Seconds())
}

// SetDocumentsOpen sets the open document gauge.
func (m *Metrics) SetDocumentsOpen(n int) {
	if m == nil {
		return
	}
	m.documentsOpen.Set(float64(n))
}

// SoftFailure counts one degraded response.
func (m *Metrics) SoftFailure(reason string) {
	if m == nil {
		return
	}
	m.softFailures.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
