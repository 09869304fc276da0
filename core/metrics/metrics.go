package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pricefeed"

// Connection close reasons.
const (
	ReasonPeerClosed = "peer_closed"
	ReasonWriteError = "write_error"
	ReasonShutdown   = "shutdown"
	ReasonFeedClosed = "feed_closed"
	ReasonPanic      = "panic"
)

// Accept error kinds.
const (
	KindTransient = "transient"
	KindFatal     = "fatal"
)

// Collector groups every metric the feed server exports.
type Collector struct {
	// Server
	ConnectionsAccepted prometheus.Counter
	ConnectionsActive   prometheus.Gauge
	ConnectionsClosed   *prometheus.CounterVec
	PermitsInUse        prometheus.Gauge
	AcceptErrors        *prometheus.CounterVec
	AcceptWaitSeconds   prometheus.Histogram

	// Delivery
	ValuesSent   prometheus.Counter
	LaggedValues prometheus.Counter

	// Producer
	ValuesPublished      prometheus.Counter
	FetchErrors          prometheus.Counter
	ProducerCycleSeconds prometheus.Histogram
}

// New registers the collector's metrics with reg.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)

	return &Collector{
		ConnectionsAccepted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_accepted_total",
			Help:      "Number of consumer connections accepted",
		}),
		ConnectionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of consumer connections currently streaming",
		}),
		ConnectionsClosed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_closed_total",
			Help:      "Number of consumer connections closed by reason",
		}, []string{"reason"}),
		PermitsInUse: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "admission_permits_in_use",
			Help:      "Number of admission permits currently held",
		}),
		AcceptErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accept_errors_total",
			Help:      "Accept failures by kind (transient/fatal)",
		}, []string{"kind"}),
		AcceptWaitSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "admission_wait_seconds",
			Help:      "Time the accept loop waited for a free admission slot",
			Buckets:   []float64{.0001, .001, .01, .1, 1, 10, 60},
		}),
		ValuesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_sent_total",
			Help:      "Number of value lines written to consumers",
		}),
		LaggedValues: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_lagged_total",
			Help:      "Number of values dropped for slow consumers",
		}),
		ValuesPublished: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_published_total",
			Help:      "Number of values published by the producer, error values included",
		}),
		FetchErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Number of failed source fetches",
		}),
		ProducerCycleSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "producer_cycle_seconds",
			Help:      "Duration of one fetch-and-publish cycle",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}),
	}
}

// Noop returns a collector bound to a private registry that nobody scrapes.
func Noop() *Collector {
	return New(prometheus.NewRegistry())
}

// NewRegistry creates a registry preloaded with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler exposes the registry in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
