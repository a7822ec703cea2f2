package middleware

import (
	"context"

	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/options"
)

// NextFunc dispatches the current request to the remainder of the chain.
// It may be called zero or more times.
type NextFunc func(ctx context.Context) (Result, error)

// Handler runs a request through a composed pipeline.
type Handler func(ctx context.Context, req *message.Request) (Result, error)

// Sender issues a full top-level request through the client that owns the chain,
// so every middleware applies again to the new request.
type Sender interface {
	Exchange(ctx context.Context, method, url string, body message.Body, opts *options.Options) (*message.Response, error)
}

// Middleware interface for all pipeline stages.
type Middleware interface {
	Process(ctx context.Context, req *message.Request, next NextFunc, s Sender) (Result, error)
	SetLogger(l logger.Logger)
}

// MiddlewareFunc adapts a plain function to the Middleware interface.
type MiddlewareFunc func(ctx context.Context, req *message.Request, next NextFunc, s Sender) (Result, error)

// Process calls f.
func (f MiddlewareFunc) Process(ctx context.Context, req *message.Request, next NextFunc, s Sender) (Result, error) {
	return f(ctx, req, next, s)
}

// SetLogger is a no-op for function middleware.
func (f MiddlewareFunc) SetLogger(_ logger.Logger) {}

// Result is the tagged outcome of a pipeline stage.
type Result struct {
	response   *message.Response
	redirected bool
}

// Ok wraps a response that outer stages may post-process.
func Ok(resp *message.Response) Result {
	return Result{response: resp}
}

// Redirected wraps the response of a followed redirect. Outer stages must pass it
// upward untouched; only the top-level dispatcher unwraps it.
func Redirected(resp *message.Response) Result {
	return Result{response: resp, redirected: true}
}

// Response returns the carried response.
func (r Result) Response() *message.Response {
	return r.response
}

// IsRedirected reports whether the result carries a followed redirect.
func (r Result) IsRedirected() bool {
	return r.redirected
}

// Passthrough reports whether a stage should return the result without post-processing it.
func Passthrough(r Result, err error) bool {
	return err != nil || r.redirected || r.response == nil
}
