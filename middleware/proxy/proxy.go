package proxy

import (
	"context"
	"net/url"
	"sync/atomic"

	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
)

type contextKey int

const (
	KeySkipProxy contextKey = iota
)

// ProxyMiddleware rotates requests over a list of proxies by setting the per-request proxy option.
type ProxyMiddleware struct {
	proxies atomic.Value
	current atomic.Uint64
	logger  logger.Logger
}

type proxyState struct {
	proxies []*url.URL
}

// New creates a new ProxyMiddleware instance.
func New(proxies []*url.URL) *ProxyMiddleware {
	m := &ProxyMiddleware{
		proxies: atomic.Value{},
		current: atomic.Uint64{},
		logger:  &logger.NoOpLogger{},
	}
	m.proxies.Store(&proxyState{proxies: proxies})
	return m
}

// Process picks the next proxy before passing the request to the next middleware.
// A proxy set explicitly in the request options is left in place.
func (m *ProxyMiddleware) Process(ctx context.Context, req *message.Request, next middleware.NextFunc, _ middleware.Sender) (middleware.Result, error) {
	if skipProxy, ok := ctx.Value(KeySkipProxy).(bool); ok && skipProxy {
		m.logger.Debug("Skipping proxy for this request")
		return next(ctx)
	}

	if req.Options.Proxy != "" {
		return next(ctx)
	}

	state := m.proxies.Load().(*proxyState)
	proxyLen := len(state.proxies)

	if proxyLen > 0 {
		current := m.current.Add(1) - 1
		index := int(current % uint64(proxyLen)) // #nosec G115
		proxy := state.proxies[index]

		m.logger.WithFields(logger.String("proxy", proxy.Host)).Debug("Using Proxy")
		req.Options.Proxy = proxy.String()
	}

	return next(ctx)
}

// UpdateProxies updates the list of proxies at runtime.
func (m *ProxyMiddleware) UpdateProxies(newProxies []*url.URL) {
	m.proxies.Store(&proxyState{proxies: newProxies})
	m.current.Store(0)

	m.logger.WithFields(logger.Int("proxy_count", len(newProxies))).Debug("Proxies updated")
}

// GetProxyCount returns the current number of proxies in the list.
func (m *ProxyMiddleware) GetProxyCount() int {
	state := m.proxies.Load().(*proxyState)
	return len(state.proxies)
}

// SetLogger sets the logger for the middleware.
func (m *ProxyMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}
