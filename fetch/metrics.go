package fetch

import (
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes prometheus counters for failed fetch attempts, retries,
// and bytes transferred, per the ambient metrics component.
type Metrics struct {
	retries  *prometheus.CounterVec
	failures *prometheus.CounterVec
	bytes    *prometheus.CounterVec
}

// NewMetrics registers the fetcher's counters against reg. Pass
// prometheus.DefaultRegisterer for the process-wide registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aptprep_fetch_retries_total",
			Help: "Number of retried fetch/download attempts, by host.",
		}, []string{"host"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aptprep_fetch_failures_total",
			Help: "Number of fetch/download attempts that failed, by host.",
		}, []string{"host"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aptprep_fetch_bytes_total",
			Help: "Bytes transferred by the fetcher, by host.",
		}, []string{"host"}),
	}

	reg.MustRegister(m.retries, m.failures, m.bytes)
	return m
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "_"
	}
	return u.Host
}

// ObserveAttempt records whether a single attempt failed.
func (m *Metrics) ObserveAttempt(rawURL string, failed bool) {
	if failed {
		m.failures.WithLabelValues(hostOf(rawURL)).Inc()
	}
}

// ObserveRetry records that an attempt is about to be retried.
func (m *Metrics) ObserveRetry(rawURL string) {
	m.retries.WithLabelValues(hostOf(rawURL)).Inc()
}

// ObserveBytes records bytes transferred for rawURL.
func (m *Metrics) ObserveBytes(rawURL string, n int64) {
	if n > 0 {
		m.bytes.WithLabelValues(hostOf(rawURL)).Add(float64(n))
	}
}
