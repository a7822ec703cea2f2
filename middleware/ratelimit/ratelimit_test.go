package ratelimit_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jaxron/httpism/middleware/ratelimit"
	"github.com/jaxron/httpism/pkg/client/errors"
	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRequest(ctx context.Context, m *ratelimit.RateLimiterMiddleware) error {
	req := message.NewRequest(http.MethodGet, "http://example.com", message.NoBody(), nil)
	_, err := m.Process(ctx, req, func(context.Context) (middleware.Result, error) {
		return middleware.Ok(&message.Response{StatusCode: http.StatusOK}), nil
	}, nil)
	return err
}

func TestRateLimiterMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("Respect rate limit", func(t *testing.T) {
		t.Parallel()

		requestsPerSecond := 10.0
		m := ratelimit.New(requestsPerSecond, 1)
		m.SetLogger(logger.NewBasicLogger())

		require.NoError(t, makeRequest(context.Background(), m))

		// The next request must wait ~100ms, longer than the deadline allows
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := makeRequest(ctx, m)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrRateLimitExceeded)
		assert.ErrorIs(t, err, errors.ErrTimeout)

		// After waiting, we should be able to make another request
		time.Sleep(time.Second / time.Duration(requestsPerSecond))
		require.NoError(t, makeRequest(context.Background(), m))
	})

	t.Run("Burst allows multiple requests", func(t *testing.T) {
		t.Parallel()

		burst := 3
		m := ratelimit.New(1.0, burst)

		for range burst {
			require.NoError(t, makeRequest(context.Background(), m))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := makeRequest(ctx, m)
		require.ErrorIs(t, err, errors.ErrRateLimitExceeded)
	})
}
