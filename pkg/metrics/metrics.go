package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector bundles the relay's prometheus instruments. All methods are safe
// on a nil receiver so components can treat metrics as optional.
type Collector struct {
	framesIn       prometheus.Counter
	broadcasts     prometheus.Counter
	pushDelivered  prometheus.Counter
	pushPruned     prometheus.Counter
	pushFailed     prometheus.Counter
	connsEvicted   prometheus.Counter
	connsActive    prometheus.Gauge
	dispatchCycles prometheus.Counter
}

// New registers the relay collectors against the provided registerer.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		framesIn: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pushrelay", Name: "frames_in_total",
			Help: "Inbound frames received from live connections.",
		}),
		broadcasts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pushrelay", Name: "broadcasts_total",
			Help: "Payloads broadcast to the connection set.",
		}),
		pushDelivered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pushrelay", Name: "push_delivered_total",
			Help: "Push deliveries acknowledged by the provider.",
		}),
		pushPruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pushrelay", Name: "push_pruned_total",
			Help: "Registrations removed after a permanent provider failure.",
		}),
		pushFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pushrelay", Name: "push_failed_total",
			Help: "Push deliveries that failed transiently.",
		}),
		connsEvicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pushrelay", Name: "connections_evicted_total",
			Help: "Connections dropped by the liveness monitor.",
		}),
		connsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pushrelay", Name: "connections_active",
			Help: "Currently registered live connections.",
		}),
		dispatchCycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pushrelay", Name: "dispatch_cycles_total",
			Help: "Completed push fan-out cycles.",
		}),
	}
}

func (c *Collector) IncFrameIn() {
	if c != nil {
		c.framesIn.Inc()
	}
}

func (c *Collector) IncBroadcast() {
	if c != nil {
		c.broadcasts.Inc()
	}
}

func (c *Collector) IncPushDelivered() {
	if c != nil {
		c.pushDelivered.Inc()
	}
}

func (c *Collector) IncPushPruned() {
	if c != nil {
		c.pushPruned.Inc()
	}
}

func (c *Collector) IncPushFailed() {
	if c != nil {
		c.pushFailed.Inc()
	}
}

func (c *Collector) IncConnEvicted() {
	if c != nil {
		c.connsEvicted.Inc()
	}
}

func (c *Collector) SetConnsActive(n int) {
	if c != nil {
		c.connsActive.Set(float64(n))
	}
}

func (c *Collector) IncDispatchCycle() {
	if c != nil {
		c.dispatchCycles.Inc()
	}
}
