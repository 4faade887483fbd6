package repository

import "time"

// MetricsRecorder receives observations about price fetches and comparisons.
type MetricsRecorder interface {
	ObserveFetch(provider string, outcome string, elapsed time.Duration)
	ObserveComparison(records int, partial bool)
}
