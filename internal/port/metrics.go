package port

import "time"

type Metrics interface {
	// ObserveCommand counts one command and its latency, labelled by verb and outcome
	ObserveCommand(verb, outcome string, elapsed time.Duration)

	// Rollback counts a compensating add; ok is false when the add itself failed
	Rollback(ok bool)
}

type nopMetrics struct{}

func (nopMetrics) ObserveCommand(string, string, time.Duration) {}
func (nopMetrics) Rollback(bool)                                {}

// NopMetrics discards all observations.
func NopMetrics() Metrics { return nopMetrics{} }
