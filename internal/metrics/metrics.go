// Package metrics exposes Prometheus collectors for the doorbell bridge.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/doorbell-bridge/internal/logic"
	"github.com/sweeney/doorbell-bridge/internal/notify"
)

const namespace = "doorbell"

// Collector holds the bridge metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	presses          *prometheus.CounterVec
	suppressed       prometheus.Counter
	rings            prometheus.Counter
	ringDuration     prometheus.Histogram
	dispatches       *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
	muted            prometheus.Gauge
	buildInfo        *prometheus.GaugeVec
}

// New creates a Collector and registers its metrics plus the Go and
// process collectors.
func New(version string) *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.presses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presses_total",
			Help:      "Qualifying presses by input and whether the chime was muted",
		},
		[]string{"source", "muted"},
	)

	c.suppressed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "presses_suppressed_total",
		Help:      "Edges ignored during cool-down",
	})

	c.rings = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chime_bursts_total",
		Help:      "Chime bursts transmitted",
	})

	c.ringDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "chime_burst_duration_seconds",
		Help:      "Wall time of one chime burst",
		Buckets:   []float64{0.5, 1, 1.25, 1.5, 2, 3},
	})

	c.dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Webhook dispatches by outcome",
		},
		[]string{"outcome"},
	)

	c.dispatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dispatch_duration_seconds",
		Help:      "Webhook dispatch latency",
		Buckets:   prometheus.DefBuckets,
	})

	c.muted = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "muted",
		Help:      "1 while the mute switch is asserted",
	})

	c.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version"},
	)

	c.registry.MustRegister(
		c.presses, c.suppressed, c.rings, c.ringDuration,
		c.dispatches, c.dispatchDuration, c.muted, c.buildInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c.buildInfo.WithLabelValues(version).Set(1)
	for _, o := range notify.Outcomes {
		c.dispatches.WithLabelValues(string(o))
	}

	return c
}

// ObservePress records a qualifying press.
func (c *Collector) ObservePress(ev logic.Event) {
	muted := "false"
	if ev.Muted {
		muted = "true"
	}
	c.presses.WithLabelValues(string(ev.Source), muted).Inc()
}

// ObserveSuppressed records n edges ignored during cool-down.
func (c *Collector) ObserveSuppressed(n int) {
	if n > 0 {
		c.suppressed.Add(float64(n))
	}
}

// ObserveRing records one chime burst.
func (c *Collector) ObserveRing(d time.Duration) {
	c.rings.Inc()
	c.ringDuration.Observe(d.Seconds())
}

// ObserveDispatch records one webhook dispatch.
func (c *Collector) ObserveDispatch(res notify.Result, d time.Duration) {
	c.dispatches.WithLabelValues(string(res.Outcome)).Inc()
	c.dispatchDuration.Observe(d.Seconds())
}

// SetMuted records the mute switch state.
func (c *Collector) SetMuted(muted bool) {
	if muted {
		c.muted.Set(1)
	} else {
		c.muted.Set(0)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
