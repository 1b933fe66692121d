package metrics

import "time"

// Submission outcomes used as the "outcome" label.
const (
	OutcomeSent        = "sent"
	OutcomeInvalid     = "invalid"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "unavailable"
	OutcomeConflict    = "conflict"
	OutcomeError       = "error"
)

// ContactSubmitted records the outcome of one submit attempt.
func ContactSubmitted(outcome string) {
	ContactSubmissionsTotal.WithLabelValues(outcome).Inc()
}

// RelayStarted marks a submission as waiting on the relay. The returned
// func records the relay latency and must be called exactly once.
func RelayStarted(provider string) func(outcome string) {
	SubmissionsInFlight.Inc()
	start := time.Now()
	return func(outcome string) {
		SubmissionsInFlight.Dec()
		RelayRequestDuration.WithLabelValues(provider, outcome).Observe(time.Since(start).Seconds())
	}
}

// Thumbnail records how a gallery thumbnail was resolved.
func Thumbnail(result string) {
	ThumbnailsTotal.WithLabelValues(result).Inc()
}
