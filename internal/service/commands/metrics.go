package commands

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "restopos",
		Name:      "commands_total",
		Help:      "Commands processed by event and result.",
	}, []string{"event", "result"})

	commandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "restopos",
		Name:      "command_duration_seconds",
		Help:      "Time spent processing a command, persistence included.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"event"})

	persistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "restopos",
		Name:      "persist_failures_total",
		Help:      "State saves that failed after a mutation.",
	})
)

func (s *Service) observe(cmd models.CommandType, result string, elapsed time.Duration) {
	event := string(cmd)
	if _, ok := s.handlers[cmd]; !ok {
		event = "unknown"
	}
	commandsTotal.WithLabelValues(event, result).Inc()
	commandDuration.WithLabelValues(event).Observe(elapsed.Seconds())
}
