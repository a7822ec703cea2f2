package header

import (
	"context"

	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
)

// HeaderMiddleware adds a fixed set of headers to every request.
type HeaderMiddleware struct {
	headers map[string][]string
	logger  logger.Logger
}

// New creates a new HeaderMiddleware instance. Values are appended to any the request already carries.
func New(headers map[string][]string) *HeaderMiddleware {
	return &HeaderMiddleware{
		headers: headers,
		logger:  &logger.NoOpLogger{},
	}
}

// Process applies headers to the request before passing it to the next middleware.
func (m *HeaderMiddleware) Process(ctx context.Context, req *message.Request, next middleware.NextFunc, _ middleware.Sender) (middleware.Result, error) {
	for key, values := range m.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	m.logger.WithFields(logger.Int("headers", len(m.headers))).Debug("Applied static headers")
	return next(ctx)
}

// SetLogger sets the logger for the middleware.
func (m *HeaderMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}
