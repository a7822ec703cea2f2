package proxy_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/jaxron/httpism/middleware/proxy"
	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
	"github.com/jaxron/httpism/pkg/client/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()

	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

// proxyFor runs one request through the middleware and returns the proxy the transport would use.
func proxyFor(t *testing.T, ctx context.Context, m *proxy.ProxyMiddleware, opts *options.Options) string {
	t.Helper()

	req := message.NewRequest(http.MethodGet, "http://example.com", message.NoBody(), opts)
	var seen string
	_, err := m.Process(ctx, req, func(context.Context) (middleware.Result, error) {
		seen = req.Options.Proxy
		return middleware.Ok(&message.Response{StatusCode: http.StatusOK}), nil
	}, nil)
	require.NoError(t, err)
	return seen
}

func TestProxyMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("Rotates proxies", func(t *testing.T) {
		t.Parallel()

		m := proxy.New([]*url.URL{
			mustParse(t, "http://proxy1.example.com"),
			mustParse(t, "http://proxy2.example.com"),
		})
		m.SetLogger(logger.NewBasicLogger())

		assert.Equal(t, "http://proxy1.example.com", proxyFor(t, context.Background(), m, nil))
		assert.Equal(t, "http://proxy2.example.com", proxyFor(t, context.Background(), m, nil))
		assert.Equal(t, "http://proxy1.example.com", proxyFor(t, context.Background(), m, nil))
	})

	t.Run("Update proxies at runtime", func(t *testing.T) {
		t.Parallel()

		m := proxy.New([]*url.URL{mustParse(t, "http://initial.example.com")})
		assert.Equal(t, "http://initial.example.com", proxyFor(t, context.Background(), m, nil))

		m.UpdateProxies([]*url.URL{mustParse(t, "http://new.example.com"), mustParse(t, "http://other.example.com")})
		assert.Equal(t, 2, m.GetProxyCount())
		assert.Equal(t, "http://new.example.com", proxyFor(t, context.Background(), m, nil))
	})

	t.Run("Explicit proxy option wins", func(t *testing.T) {
		t.Parallel()

		m := proxy.New([]*url.URL{mustParse(t, "http://rotated.example.com")})
		got := proxyFor(t, context.Background(), m, &options.Options{Proxy: "http://explicit.example.com"})
		assert.Equal(t, "http://explicit.example.com", got)
	})

	t.Run("Skip proxy via context", func(t *testing.T) {
		t.Parallel()

		m := proxy.New([]*url.URL{mustParse(t, "http://proxy.example.com")})
		ctx := context.WithValue(context.Background(), proxy.KeySkipProxy, true)
		assert.Empty(t, proxyFor(t, ctx, m, nil))
	})

	t.Run("No proxies", func(t *testing.T) {
		t.Parallel()

		m := proxy.New(nil)
		assert.Empty(t, proxyFor(t, context.Background(), m, nil))
		assert.Zero(t, m.GetProxyCount())
	})
}
