package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(pollAttemptsTotal, lifecycleState)
}

var (
	pollAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_attempts_total",
			Help: "Polling start attempts, labeled by result.",
		},
		[]string{"result"}, // 'ok', 'conflict', 'error'
	)

	lifecycleState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lifecycle_state",
			Help: "1 for the controller's current state, 0 for the others.",
		},
		[]string{"state"},
	)
)

func IncPollAttempt(result string) {
	pollAttemptsTotal.WithLabelValues(norm(result)).Inc()
}

// SetLifecycleState flips the gauge so only current reads 1.
func SetLifecycleState(current string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		lifecycleState.WithLabelValues(norm(s)).Set(v)
	}
}
