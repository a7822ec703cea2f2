package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	clientErrors "github.com/jaxron/httpism/pkg/client/errors"
	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
	"github.com/sony/gobreaker"
)

// errServerFailure marks a 5xx response as a failure for the breaker while still returning it.
var errServerFailure = errors.New("server failure")

// CircuitBreakerMiddleware implements the circuit breaker pattern to prevent cascading failures.
type CircuitBreakerMiddleware struct {
	breaker *gobreaker.CircuitBreaker
	logger  logger.Logger
}

// New creates a new CircuitBreakerMiddleware instance.
func New(maxRequests uint32, interval, timeout time.Duration) *CircuitBreakerMiddleware {
	m := &CircuitBreakerMiddleware{
		breaker: nil,
		logger:  &logger.NoOpLogger{},
	}

	m.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "HTTPCircuitBreaker",
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.logger.WithFields(
				logger.String("name", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			).Warn("Circuit breaker state changed")
		},
		IsSuccessful: nil,
	})

	return m
}

// Process runs the rest of the pipeline under the circuit breaker.
// Errors and 5xx responses count as failures. A 5xx response is still returned to the caller.
func (m *CircuitBreakerMiddleware) Process(ctx context.Context, _ *message.Request, next middleware.NextFunc, _ middleware.Sender) (middleware.Result, error) {
	out, err := m.breaker.Execute(func() (interface{}, error) {
		res, err := next(ctx)
		if err != nil {
			return nil, err
		}
		if resp := res.Response(); resp != nil && resp.StatusCode >= http.StatusInternalServerError {
			return res, errServerFailure
		}
		return res, nil
	})

	switch {
	case err == nil, errors.Is(err, errServerFailure):
	case errors.Is(err, gobreaker.ErrOpenState):
		return middleware.Result{}, fmt.Errorf("%w: %w", clientErrors.ErrCircuitOpen, err)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return middleware.Result{}, fmt.Errorf("%w: %w", clientErrors.ErrCircuitExhausted, err)
	default:
		return middleware.Result{}, err
	}

	res, ok := out.(middleware.Result)
	if !ok {
		return middleware.Result{}, clientErrors.ErrUnreachable
	}

	return res, nil
}

// State returns the current state of the breaker.
func (m *CircuitBreakerMiddleware) State() gobreaker.State {
	return m.breaker.State()
}

// SetLogger sets the logger for the middleware.
func (m *CircuitBreakerMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}
