// Package client provides an HTTP client whose requests flow through an ordered middleware pipeline.
package client

import (
	"context"
	"net/http"
	"slices"

	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
	"github.com/jaxron/httpism/pkg/client/options"
	"github.com/jaxron/httpism/pkg/client/transport"
)

// Client holds a base URL, client-level options and a middleware chain.
// A Client is never modified after construction; derived clients are new values.
type Client struct {
	url       string
	options   *options.Options
	chain     *middleware.Chain
	transport transport.Transport
	logger    logger.Logger
	handler   middleware.Handler
}

// NewClient creates a new Client instance with default settings.
func NewClient(opts ...Option) *Client {
	settings := &settings{
		url:         "",
		options:     &options.Options{},
		middlewares: nil,
		inner:       nil,
		transport:   nil,
		logger:      &logger.NoOpLogger{},
	}

	for _, opt := range opts {
		opt(settings)
	}

	if settings.transport == nil {
		settings.transport = transport.New(transport.WithLogger(settings.logger))
	}

	return build(
		settings.url,
		settings.options,
		middleware.NewChain(settings.logger, slices.Concat(settings.middlewares, settings.inner)...),
		settings.transport,
		settings.logger,
	)
}

// build composes the pipeline once for the new client.
func build(url string, opts *options.Options, chain *middleware.Chain, t transport.Transport, l logger.Logger) *Client {
	c := &Client{
		url:       url,
		options:   opts,
		chain:     chain,
		transport: t,
		logger:    l,
		handler:   nil,
	}
	c.handler = chain.Handler(c.roundTrip, c)
	return c
}

// BaseURL returns the client's base URL.
func (c *Client) BaseURL() string {
	return c.url
}

// DefaultOptions returns the client-level options. Callers must treat the value as read-only.
func (c *Client) DefaultOptions() *options.Options {
	return c.options
}

// Middlewares returns the client's middleware, outermost first.
func (c *Client) Middlewares() []middleware.Middleware {
	return c.chain.Middlewares()
}

// API derives a sub-resource client. Its URL is resolved against the receiver's, its
// options are merged over the receiver's, and its middleware run before the inherited ones.
func (c *Client) API(url string, opts *options.Options, middlewares ...middleware.Middleware) (*Client, error) {
	resolved := c.url
	if url != "" {
		var err error
		resolved, err = ResolveURL(c.url, url)
		if err != nil {
			return nil, err
		}
	}

	chain := c.chain
	if len(middlewares) > 0 {
		chain = c.chain.Prepend(middlewares...)
	}

	return build(resolved, options.Merge(opts, c.options), chain, c.transport, c.logger), nil
}

// Exchange runs a request through the full pipeline and returns the raw response.
// A followed redirect is unwrapped here and nowhere else.
func (c *Client) Exchange(ctx context.Context, method, url string, body message.Body, opts *options.Options) (*message.Response, error) {
	merged := options.Merge(opts, c.options)

	resolved, err := ResolveURL(c.url, url)
	if err != nil {
		return nil, err
	}

	req := message.NewRequest(method, resolved, body, merged)

	result, err := c.handler(ctx, req)
	if err != nil {
		return nil, err
	}

	if result.IsRedirected() {
		c.logger.WithFields(
			logger.String("method", method),
			logger.String("url", resolved),
			logger.String("final_url", result.Response().URL),
		).Debug("Followed redirect")
	}

	return result.Response(), nil
}

// Send issues a request and wraps the response with the issuing client.
func (c *Client) Send(ctx context.Context, method, url string, body message.Body, opts *options.Options) (*Response, error) {
	resp, err := c.Exchange(ctx, method, url, body, opts)
	if err != nil {
		return nil, err
	}
	return newResponse(c, resp), nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, url string, opts *options.Options) (*Response, error) {
	return c.Send(ctx, http.MethodGet, url, message.NoBody(), opts)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, url string, opts *options.Options) (*Response, error) {
	return c.Send(ctx, http.MethodDelete, url, message.NoBody(), opts)
}

// Head issues a HEAD request.
func (c *Client) Head(ctx context.Context, url string, opts *options.Options) (*Response, error) {
	return c.Send(ctx, http.MethodHead, url, message.NoBody(), opts)
}

// Post issues a POST request with body.
func (c *Client) Post(ctx context.Context, url string, body message.Body, opts *options.Options) (*Response, error) {
	return c.Send(ctx, http.MethodPost, url, body, opts)
}

// Put issues a PUT request with body.
func (c *Client) Put(ctx context.Context, url string, body message.Body, opts *options.Options) (*Response, error) {
	return c.Send(ctx, http.MethodPut, url, body, opts)
}

// Patch issues a PATCH request with body.
func (c *Client) Patch(ctx context.Context, url string, body message.Body, opts *options.Options) (*Response, error) {
	return c.Send(ctx, http.MethodPatch, url, body, opts)
}

// Options issues an OPTIONS request with body.
func (c *Client) Options(ctx context.Context, url string, body message.Body, opts *options.Options) (*Response, error) {
	return c.Send(ctx, http.MethodOptions, url, body, opts)
}

// roundTrip is the terminal stage of the pipeline.
func (c *Client) roundTrip(ctx context.Context, req *message.Request) (middleware.Result, error) {
	resp, err := c.transport.RoundTrip(ctx, req)
	if err != nil {
		return middleware.Result{}, err
	}
	return middleware.Ok(resp), nil
}
