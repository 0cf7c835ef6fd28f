package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "familytree"

var (
	// relationshipMutations counts relationship edits.
	// Labels: operation (create, update, delete), outcome (ok or an error kind)
	relationshipMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "relationships",
		Name:      "mutations_total",
		Help:      "Relationship create/update/delete attempts by outcome",
	}, []string{"operation", "outcome"})

	// inviteEvents counts invite issue/validate/redeem attempts.
	// Labels: operation (issue, validate, redeem), outcome
	inviteEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "invites",
		Name:      "events_total",
		Help:      "Invite operations by outcome",
	}, []string{"operation", "outcome"})

	// httpRequestDuration measures handler latency.
	// Labels: method, route (the ServeMux pattern), status
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "route", "status"})
)

// kinds maps error kinds to outcome labels; registered at init
var kinds []kind

type kind struct {
	err   error
	label string
}

// RegisterOutcome maps an error kind to an outcome label
func RegisterOutcome(err error, label string) {
	kinds = append(kinds, kind{err: err, label: label})
}

// Outcome returns the outcome label for err: "ok" for nil, the registered
// label of the first matching kind, or "error".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.label
		}
	}
	return "error"
}

// RecordRelationshipMutation records the result of a relationship edit
func RecordRelationshipMutation(operation string, err error) {
	relationshipMutations.WithLabelValues(operation, Outcome(err)).Inc()
}

// RecordInviteEvent records the result of an invite operation
func RecordInviteEvent(operation string, err error) {
	inviteEvents.WithLabelValues(operation, Outcome(err)).Inc()
}

// ObserveHTTPRequest records one served request
func ObserveHTTPRequest(method, route, status string, seconds float64) {
	httpRequestDuration.WithLabelValues(method, route, status).Observe(seconds)
}
