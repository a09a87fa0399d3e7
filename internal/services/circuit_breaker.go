package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/jstittsworth/courtside/internal/nba"
)

// CircuitBreakerService keeps one breaker per stat source so a flapping
// provider is short-circuited without affecting the others.
type CircuitBreakerService struct {
	breakers map[nba.Source]*gobreaker.CircuitBreaker
	logger   *logrus.Logger
}

func NewCircuitBreakerService(threshold int, timeout time.Duration, logger *logrus.Logger) *CircuitBreakerService {
	newSettings := func(name nba.Source) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        string(name),
			MaxRequests: uint32(threshold),
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.WithFields(logrus.Fields{
					"component": "circuit_breaker",
					"source":    name,
					"from":      from.String(),
					"to":        to.String(),
				}).Info("Circuit breaker state changed")
			},
		}
	}

	breakers := make(map[nba.Source]*gobreaker.CircuitBreaker)
	for _, source := range []nba.Source{nba.SourceNBAStats, nba.SourceESPN, nba.SourceSportsDB, nba.SourceBBallRef} {
		breakers[source] = gobreaker.NewCircuitBreaker(newSettings(source))
	}

	return &CircuitBreakerService{
		breakers: breakers,
		logger:   logger,
	}
}

// Execute wraps a provider call with its source's breaker.
func (cb *CircuitBreakerService) Execute(source nba.Source, fn func() (interface{}, error)) (interface{}, error) {
	breaker, exists := cb.breakers[source]
	if !exists {
		cb.logger.WithFields(logrus.Fields{
			"component": "circuit_breaker",
			"source":    source,
		}).Warn("No circuit breaker found for source, executing without protection")
		return fn()
	}

	return breaker.Execute(fn)
}

// State returns the current breaker state for a source.
func (cb *CircuitBreakerService) State(source nba.Source) gobreaker.State {
	if breaker, exists := cb.breakers[source]; exists {
		return breaker.State()
	}
	return gobreaker.StateClosed
}
