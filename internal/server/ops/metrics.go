// Package ops serves the operational HTTP endpoint of the server: health
// and Prometheus metrics.
package ops

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server collectors on a private registry so tests can
// build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	rpcTotal      *prometheus.CounterVec
	writesTotal   *prometheus.CounterVec
	subscriptions prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		rpcTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pagewatch",
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "Handled RPCs by method and status code",
		}, []string{"method", "code"}),
		writesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pagewatch",
			Subsystem: "store",
			Name:      "monitor_writes_total",
			Help:      "Applied monitor writes by operation",
		}, []string{"op"}),
		subscriptions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "pagewatch",
			Subsystem: "store",
			Name:      "active_subscriptions",
			Help:      "Open Subscribe streams",
		}),
	}
}

func (m *Metrics) ObserveRPC(method, code string) {
	m.rpcTotal.WithLabelValues(method, code).Inc()
}

func (m *Metrics) ObserveWrite(op string) {
	m.writesTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) SubscriptionOpened() { m.subscriptions.Inc() }
func (m *Metrics) SubscriptionClosed() { m.subscriptions.Dec() }
