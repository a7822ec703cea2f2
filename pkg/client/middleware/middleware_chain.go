package middleware

import (
	"context"
	"reflect"
	"slices"

	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
)

// Chain represents an ordered, immutable chain of middleware.
type Chain struct {
	middlewares []Middleware
	logger      logger.Logger
}

// NewChain creates a new middleware chain and hands the logger to every middleware.
func NewChain(l logger.Logger, middlewares ...Middleware) *Chain {
	if l == nil {
		l = &logger.NoOpLogger{}
	}
	for _, m := range middlewares {
		m.SetLogger(l)
	}

	return &Chain{
		middlewares: slices.Clone(middlewares),
		logger:      l,
	}
}

// Len returns the number of middlewares in the chain.
func (c *Chain) Len() int {
	return len(c.middlewares)
}

// Middlewares returns a copy of the middleware list.
func (c *Chain) Middlewares() []Middleware {
	return slices.Clone(c.middlewares)
}

// Prepend returns a new chain running middlewares before the inherited ones.
// The receiver is left unchanged.
func (c *Chain) Prepend(middlewares ...Middleware) *Chain {
	for _, m := range middlewares {
		m.SetLogger(c.logger)
	}

	return &Chain{
		middlewares: slices.Concat(middlewares, c.middlewares),
		logger:      c.logger,
	}
}

// Handler composes the chain once into a fixed pipeline ending in final.
// The returned Handler is safe to call concurrently as long as the middlewares are.
func (c *Chain) Handler(final Handler, s Sender) Handler {
	c.logMiddlewareChain()

	middlewares := slices.Clone(c.middlewares)
	return func(ctx context.Context, req *message.Request) (Result, error) {
		return dispatch(ctx, req, middlewares, 0, final, s)
	}
}

// logMiddlewareChain logs the available middleware in the chain.
func (c *Chain) logMiddlewareChain() {
	for i, m := range c.middlewares {
		c.logger.WithFields(
			logger.Int("index", i),
			logger.String("type", reflect.TypeOf(m).String()),
		).Debug("Middleware in chain")
	}
}

// dispatch applies the middleware at index, handing it a next that continues at index+1.
func dispatch(ctx context.Context, req *message.Request, middlewares []Middleware, index int, final Handler, s Sender) (Result, error) {
	// If we've reached the end of the middleware chain, perform the exchange
	if index == len(middlewares) {
		return final(ctx, req)
	}

	return middlewares[index].Process(ctx, req, func(ctx context.Context) (Result, error) {
		return dispatch(ctx, req, middlewares, index+1, final, s)
	}, s)
}
