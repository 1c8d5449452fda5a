package pkgmetrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus records conversion outcomes on its own registry.
type Prometheus struct {
	registry *prometheus.Registry

	conversionsTotal   *prometheus.CounterVec
	rowsTotal          prometheus.Counter
	unresolvedTotal    prometheus.Counter
	unresolvedIDsTotal prometheus.Counter
	conversionDuration prometheus.Histogram
}

// NewPrometheus creates and registers all conversion metrics.
func NewPrometheus() (*Prometheus, error) {
	p := &Prometheus{registry: prometheus.NewRegistry()}

	p.conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orgjoin_conversions_total",
			Help: "Total number of conversions by final status",
		},
		[]string{"status"},
	)

	p.rowsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orgjoin_rows_total",
		Help: "Total number of scan report rows written",
	})

	p.unresolvedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orgjoin_unresolved_rows_total",
		Help: "Total number of scan report rows resolved to Unknown",
	})

	p.unresolvedIDsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orgjoin_unresolved_ids_reported_total",
		Help: "Total number of distinct unresolved org ids reported by the data quality consumer",
	})

	p.conversionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orgjoin_conversion_duration_seconds",
		Help:    "Conversion duration distribution in seconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
	})

	collectors := []prometheus.Collector{
		p.conversionsTotal,
		p.rowsTotal,
		p.unresolvedTotal,
		p.unresolvedIDsTotal,
		p.conversionDuration,
	}

	for _, c := range collectors {
		if err := p.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return p, nil
}

// ObserveConversion records one finished conversion.
func (p *Prometheus) ObserveConversion(status string, rows, unresolved int, took time.Duration) {
	p.conversionsTotal.WithLabelValues(status).Inc()
	p.rowsTotal.Add(float64(rows))
	p.unresolvedTotal.Add(float64(unresolved))
	p.conversionDuration.Observe(took.Seconds())
}

// ObserveUnresolvedReported counts distinct ids handled by the data quality consumer.
func (p *Prometheus) ObserveUnresolvedReported(ids int) {
	p.unresolvedIDsTotal.Add(float64(ids))
}

// Handler serves the registry in the exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry exposes the underlying registry, mostly for tests.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}
