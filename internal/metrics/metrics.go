// Package metrics exposes Prometheus counters for the messaging gateway.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and records gateway metrics.
type Collector struct {
	registry *prometheus.Registry

	connectionsOpen   prometheus.Gauge
	connectionsTotal  prometheus.Counter
	framesIn          *prometheus.CounterVec
	frameErrors       *prometheus.CounterVec
	messagesDelivered prometheus.Counter
	messagesStored    prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		connectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "viargos_ws_connections_open",
			Help: "Live WebSocket connections currently registered.",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "viargos_ws_connections_total",
			Help: "Total accepted WebSocket sessions.",
		}),
		framesIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "viargos_ws_frames_in_total",
			Help: "Inbound frames by event name.",
		}, []string{"event"}),
		frameErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "viargos_ws_frame_errors_total",
			Help: "Frame handling failures by error kind.",
		}, []string{"kind"}),
		messagesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "viargos_messages_delivered_total",
			Help: "Messages pushed to a live receiver connection.",
		}),
		messagesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "viargos_messages_stored_total",
			Help: "Messages persisted, delivered live or not.",
		}),
	}
	reg.MustRegister(
		c.connectionsOpen,
		c.connectionsTotal,
		c.framesIn,
		c.frameErrors,
		c.messagesDelivered,
		c.messagesStored,
	)
	return c
}

func (c *Collector) ConnOpened() {
	c.connectionsOpen.Inc()
	c.connectionsTotal.Inc()
}

func (c *Collector) ConnClosed() {
	c.connectionsOpen.Dec()
}

func (c *Collector) RecordFrame(event string) {
	c.framesIn.WithLabelValues(event).Inc()
}

func (c *Collector) RecordFrameError(kind string) {
	c.frameErrors.WithLabelValues(kind).Inc()
}

// RecordMessage satisfies the router's DeliveryRecorder hook.
func (c *Collector) RecordMessage(deliveredLive bool) {
	c.messagesStored.Inc()
	if deliveredLive {
		c.messagesDelivered.Inc()
	}
}

// Handler serves the scrape endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
