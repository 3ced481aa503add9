package fetch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	modeEager = "eager"
	modeLazy  = "lazy"

	outcomeOK    = "ok"
	outcomeError = "error"
)

// Metrics holds the fetch counters. A nil *Metrics records nothing.
type Metrics struct {
	Requests        *prometheus.CounterVec
	ResponseBytes   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duckdb_http_requests_total",
				Help: "Total number of HTTP GET requests issued by SQL functions",
			},
			[]string{"mode", "outcome"},
		),
		ResponseBytes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duckdb_http_response_bytes_total",
				Help: "Total number of response body bytes delivered to consumers",
			},
			[]string{"mode"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "duckdb_http_request_duration_seconds",
				Help:    "Time until response headers (lazy) or the full body (eager) were received",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"mode"},
		),
	}
}

func (m *Metrics) observe(mode string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	m.Requests.WithLabelValues(mode, outcome).Inc()
	m.RequestDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}

func (m *Metrics) addBytes(mode string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ResponseBytes.WithLabelValues(mode).Add(float64(n))
}
