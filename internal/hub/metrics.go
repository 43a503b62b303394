package hub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "restopos",
		Name:      "connected_clients",
		Help:      "Number of signed on connections.",
	})
	evictedClients = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "restopos",
		Name:      "evicted_clients_total",
		Help:      "Connections closed because their send buffer was full.",
	})
)
