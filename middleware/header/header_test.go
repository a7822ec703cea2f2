package header_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jaxron/httpism/middleware/header"
	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
	"github.com/jaxron/httpism/pkg/client/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) (middleware.Result, error) {
	return middleware.Ok(&message.Response{StatusCode: http.StatusOK}), nil
}

func TestHeaderMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("Apply headers to request", func(t *testing.T) {
		t.Parallel()

		m := header.New(http.Header{
			"User-Agent": []string{"TestAgent/1.0"},
			"X-Custom":   []string{"Value1", "Value2"},
		})
		m.SetLogger(logger.NewBasicLogger())

		req := message.NewRequest(http.MethodGet, "http://example.com", message.NoBody(), nil)
		res, err := m.Process(context.Background(), req, ok, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.Response().StatusCode)

		assert.Equal(t, "TestAgent/1.0", req.Header.Get("User-Agent"))
		assert.Equal(t, []string{"Value1", "Value2"}, req.Header["X-Custom"])
	})

	t.Run("Append to existing headers", func(t *testing.T) {
		t.Parallel()

		m := header.New(http.Header{"X-Existing": []string{"NewValue"}})

		req := message.NewRequest(http.MethodGet, "http://example.com", message.NoBody(),
			&options.Options{Headers: http.Header{"X-Existing": {"OldValue"}}})
		_, err := m.Process(context.Background(), req, ok, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"OldValue", "NewValue"}, req.Header["X-Existing"])
	})

	t.Run("Empty headers", func(t *testing.T) {
		t.Parallel()

		req := message.NewRequest(http.MethodGet, "http://example.com", message.NoBody(), nil)
		_, err := header.New(nil).Process(context.Background(), req, ok, nil)
		require.NoError(t, err)
		assert.Empty(t, req.Header)
	})
}
