// Package metrics holds the prometheus collectors of the quote service. A
// *Metrics satisfies querycache.Metrics and twelvedata.RequestObserver.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lfarina18/metafar-challenge/internal/querycache"
)

const namespace = "stocks"

// Metrics is the set of collectors.
type Metrics struct {
	// cache
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
	CacheJoins    *prometheus.CounterVec
	CacheRetries  *prometheus.CounterVec
	CacheEntries  prometheus.Gauge
	FetchTotal    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec

	// upstream API
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec

	// served API
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

var _ querycache.Metrics = (*Metrics)(nil)

// New creates the collectors. Nothing is registered yet.
func New() *Metrics {
	return &Metrics{
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Reads served from fresh cache entries",
		}, []string{"kind"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Reads that started a fetch",
		}, []string{"kind"}),
		CacheJoins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "joins_total",
			Help:      "Reads that joined an in-flight fetch",
		}, []string{"kind"}),
		CacheRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "retries_total",
			Help:      "Fetch retries after a transient failure",
		}, []string{"kind"}),
		CacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Number of cache entries",
		}),
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "fetches_total",
			Help:      "Completed fetches by outcome",
		}, []string{"kind", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "fetch_duration_seconds",
			Help:      "Fetch duration including retries",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Upstream API requests by endpoint and status",
		}, []string{"endpoint", "status"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream API request duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Served HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Served HTTP request duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Register registers every collector with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.CacheHits,
		m.CacheMisses,
		m.CacheJoins,
		m.CacheRetries,
		m.CacheEntries,
		m.FetchTotal,
		m.FetchDuration,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.HTTPRequests,
		m.HTTPDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) Hit(kind querycache.Kind)   { m.CacheHits.WithLabelValues(string(kind)).Inc() }
func (m *Metrics) Miss(kind querycache.Kind)  { m.CacheMisses.WithLabelValues(string(kind)).Inc() }
func (m *Metrics) Join(kind querycache.Kind)  { m.CacheJoins.WithLabelValues(string(kind)).Inc() }
func (m *Metrics) Retry(kind querycache.Kind) { m.CacheRetries.WithLabelValues(string(kind)).Inc() }
func (m *Metrics) Entries(n int)              { m.CacheEntries.Set(float64(n)) }

func (m *Metrics) Fetched(kind querycache.Kind, outcome string, elapsed time.Duration) {
	m.FetchTotal.WithLabelValues(string(kind), outcome).Inc()
	m.FetchDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// ObserveRequest records one upstream request. Status 0 is reported as
// "error".
func (m *Metrics) ObserveRequest(endpoint string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.UpstreamRequests.WithLabelValues(endpoint, label).Inc()
	m.UpstreamDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
