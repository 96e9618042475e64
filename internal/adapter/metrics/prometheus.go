package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stock"

// Prometheus records transfer metrics as Prometheus collectors.
type Prometheus struct {
	commands  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	rollbacks *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them on reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfer_commands_total",
				Help:      "Transfer commands processed, by verb and outcome.",
			},
			[]string{"verb", "outcome"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transfer_command_duration_seconds",
				Help:      "Time spent validating and executing a transfer command.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"verb"},
		),
		rollbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfer_rollbacks_total",
				Help:      "Compensating adds back to the warehouse, by result.",
			},
			[]string{"result"},
		),
	}

	for _, c := range []prometheus.Collector{p.commands, p.durations, p.rollbacks} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) ObserveCommand(verb, outcome string, elapsed time.Duration) {
	if verb == "" {
		verb = "none"
	}
	p.commands.WithLabelValues(verb, outcome).Inc()
	p.durations.WithLabelValues(verb).Observe(elapsed.Seconds())
}

func (p *Prometheus) Rollback(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	p.rollbacks.WithLabelValues(result).Inc()
}
