package text

import (
	"context"

	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
	"github.com/jaxron/httpism/pkg/client/options"
)

// TextMiddleware streams string request bodies as text/plain and reads text responses into strings.
type TextMiddleware struct {
	logger logger.Logger
}

// New creates a new TextMiddleware instance.
func New() *TextMiddleware {
	return &TextMiddleware{
		logger: &logger.NoOpLogger{},
	}
}

// Process applies text encoding before delegating and text decoding after.
func (m *TextMiddleware) Process(ctx context.Context, req *message.Request, next middleware.NextFunc, _ middleware.Sender) (middleware.Result, error) {
	if req.Body.Kind() == message.BodyString {
		req.SetEncodedBody(req.Body.Text(), "text/plain")
	}

	result, err := next(ctx)
	if middleware.Passthrough(result, err) {
		return result, err
	}

	resp := result.Response()
	if !resp.Body.IsStream() || !message.ShouldParseAs(resp, options.ParseText, req) {
		return result, nil
	}

	body, err := message.ReadString(resp.Body)
	if err != nil {
		return middleware.Result{}, err
	}
	resp.Body = message.StringBody(body)

	m.logger.WithFields(logger.Int("length", len(body))).Debug("Read text body")
	return result, nil
}

// SetLogger sets the logger for the middleware.
func (m *TextMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}
