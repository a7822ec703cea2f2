package singleflight_test

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaxron/httpism/middleware/singleflight"
	clientErrors "github.com/jaxron/httpism/pkg/client/errors"
	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slowNext(calls *atomic.Int32, delay time.Duration) middleware.NextFunc {
	return func(context.Context) (middleware.Result, error) {
		calls.Add(1)
		time.Sleep(delay)
		return middleware.Ok(&message.Response{
			StatusCode: http.StatusOK,
			URL:        "http://example.com",
			Header:     http.Header{"X-Test": {"1"}},
			Body:       message.NewStringStream("shared body"),
		}), nil
	}
}

func TestSingleFlightMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("Deduplicate concurrent requests", func(t *testing.T) {
		t.Parallel()

		m := singleflight.New()
		m.SetLogger(logger.NewBasicLogger())

		var calls atomic.Int32
		next := slowNext(&calls, 100*time.Millisecond)

		const n = 5
		bodies := make([]string, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				req := message.NewRequest(http.MethodGet, "http://example.com", message.NoBody(), nil)
				res, err := m.Process(context.Background(), req, next, nil)
				assert.NoError(t, err)
				body, err := message.ReadString(res.Response().Body)
				assert.NoError(t, err)
				bodies[i] = body
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
		for _, body := range bodies {
			assert.Equal(t, "shared body", body)
		}
	})

	t.Run("Different URLs are not shared", func(t *testing.T) {
		t.Parallel()

		m := singleflight.New()
		var calls atomic.Int32
		next := slowNext(&calls, 50*time.Millisecond)

		var wg sync.WaitGroup
		for _, u := range []string{"http://example.com/a", "http://example.com/b"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				req := message.NewRequest(http.MethodGet, u, message.NoBody(), nil)
				_, err := m.Process(context.Background(), req, next, nil)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("Requests with a body bypass deduplication", func(t *testing.T) {
		t.Parallel()

		m := singleflight.New()
		var calls atomic.Int32
		next := slowNext(&calls, 0)

		for range 2 {
			req := message.NewRequest(http.MethodPost, "http://example.com", message.StringBody("x"), nil)
			res, err := m.Process(context.Background(), req, next, nil)
			require.NoError(t, err)
			assert.True(t, res.Response().Body.IsStream())
		}
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("Errors are wrapped", func(t *testing.T) {
		t.Parallel()

		m := singleflight.New()
		req := message.NewRequest(http.MethodGet, "http://example.com", message.NoBody(), nil)
		_, err := m.Process(context.Background(), req, func(context.Context) (middleware.Result, error) {
			return middleware.Result{}, clientErrors.ErrNetwork
		}, nil)

		require.ErrorIs(t, err, clientErrors.ErrSingleFlight)
		assert.ErrorIs(t, err, clientErrors.ErrNetwork)
	})

	t.Run("Redirected tag is preserved", func(t *testing.T) {
		t.Parallel()

		m := singleflight.New()
		req := message.NewRequest(http.MethodGet, "http://example.com", message.NoBody(), nil)
		res, err := m.Process(context.Background(), req, func(context.Context) (middleware.Result, error) {
			return middleware.Redirected(&message.Response{StatusCode: http.StatusOK, Body: message.StringBody("done")}), nil
		}, nil)

		require.NoError(t, err)
		assert.True(t, res.IsRedirected())
		assert.Equal(t, "done", res.Response().Body.Text())
	})
}
