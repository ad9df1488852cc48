package restclient

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

type CircuitBreaker interface {
	Execute(fn func() error) error
}

type noopBreaker struct{}

func (noopBreaker) Execute(fn func() error) error { return fn() }

type gobreakerWrapper struct {
	cb *gobreaker.CircuitBreaker
}

func (g *gobreakerWrapper) Execute(fn func() error) error {
	_, err := g.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}

// NewCircuitBreaker returns a pass-through breaker unless enabled.
func NewCircuitBreaker(name string, enabled bool) CircuitBreaker {
	if !enabled {
		return noopBreaker{}
	}
	return &gobreakerWrapper{
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 3,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 10 && counts.TotalFailures*2 >= counts.Requests
			},
			// 4xx responses say nothing about upstream health.
			IsSuccessful: func(err error) bool {
				var apiErr *APIError
				if errors.As(err, &apiErr) {
					return apiErr.Status < 500 && apiErr.Status != 429
				}
				return err == nil
			},
		}),
	}
}
