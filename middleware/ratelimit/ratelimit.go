package ratelimit

import (
	"context"
	"fmt"
	"strings"

	clientErrors "github.com/jaxron/httpism/pkg/client/errors"
	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
	"golang.org/x/time/rate"
)

// RateLimiterMiddleware implements a rate limiting middleware for HTTP requests.
type RateLimiterMiddleware struct {
	limiter *rate.Limiter
	logger  logger.Logger
}

// New creates a new RateLimiterMiddleware instance.
func New(requestsPerSecond float64, burst int) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		logger:  &logger.NoOpLogger{},
	}
}

// Process waits for limiter permission before passing the request to the next middleware.
// Redirect hops re-enter the pipeline and are limited like any other request.
func (m *RateLimiterMiddleware) Process(ctx context.Context, req *message.Request, next middleware.NextFunc, _ middleware.Sender) (middleware.Result, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		m.logger.WithFields(logger.String("url", req.URL), logger.Err(err)).Warn("Rate limit wait failed")

		if strings.Contains(err.Error(), "would exceed context deadline") {
			return middleware.Result{}, fmt.Errorf("%w: %w", clientErrors.ErrRateLimitExceeded, clientErrors.ErrTimeout)
		}
		return middleware.Result{}, fmt.Errorf("%w: %w", clientErrors.ErrRateLimitExceeded, err)
	}

	return next(ctx)
}

// SetLogger sets the logger for the middleware.
func (m *RateLimiterMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}
