package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	sessionPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "workout_service",
		Subsystem: "persistence",
		Name:      "last_session_recorded_timestamp_seconds",
		Help:      "Unix timestamp of the most recent workout session persisted to Postgres.",
	})
	routineWritesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workout_service",
		Subsystem: "persistence",
		Name:      "routine_writes_total",
		Help:      "Number of committed routine write transactions, labeled by operation.",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(sessionPersistGauge, routineWritesCounter)
}

// RecordSessionPersisted updates the persistence watermark gauge.
func RecordSessionPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	sessionPersistGauge.Set(float64(ts.Unix()))
}

// CountRoutineWrite increments the write counter for the given operation.
func CountRoutineWrite(op string) {
	routineWritesCounter.WithLabelValues(op).Inc()
}
