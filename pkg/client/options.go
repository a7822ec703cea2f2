package client

import (
	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/middleware"
	"github.com/jaxron/httpism/pkg/client/options"
	"github.com/jaxron/httpism/pkg/client/transport"
)

// settings collects the configuration applied by Options before the Client is built.
type settings struct {
	url         string
	options     *options.Options
	middlewares []middleware.Middleware
	inner       []middleware.Middleware
	transport   transport.Transport
	logger      logger.Logger
}

// Option is a function type that modifies the Client configuration.
type Option func(*settings)

// WithURL sets the base URL every request URL is resolved against.
func WithURL(url string) Option {
	return func(s *settings) {
		s.url = url
	}
}

// WithOptions sets the client-level options. Per-call options take precedence over them.
func WithOptions(opts *options.Options) Option {
	return func(s *settings) {
		if opts == nil {
			opts = &options.Options{}
		}
		s.options = opts
	}
}

// WithMiddleware appends middleware to the chain; earlier middleware run first.
func WithMiddleware(middlewares ...middleware.Middleware) Option {
	return func(s *settings) {
		s.middlewares = append(s.middlewares, middlewares...)
	}
}

// WithTransportMiddleware appends middleware that run after every other middleware,
// directly in front of the transport. They see the request as it goes on the wire and the
// raw response before any content middleware decodes it.
func WithTransportMiddleware(middlewares ...middleware.Middleware) Option {
	return func(s *settings) {
		s.inner = append(s.inner, middlewares...)
	}
}

// WithTransport sets the transport performing the network exchange.
func WithTransport(t transport.Transport) Option {
	return func(s *settings) {
		s.transport = t
	}
}

// WithLogger sets the logger for the Client and its middleware.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}
