package tds

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker guards response exchanges against a failing server.
type CircuitBreaker = gobreaker.CircuitBreaker[struct{}]

// NewCircuitBreakerConfig returns a factory creating one circuit breaker
// per server address. A server trips after three or more exchanges with
// a 60% failure ratio inside the interval.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(string) *CircuitBreaker {
	return func(serverAddr string) *CircuitBreaker {
		settings := gobreaker.Settings{
			Name:        serverAddr,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		}
		return gobreaker.NewCircuitBreaker[struct{}](settings)
	}
}
