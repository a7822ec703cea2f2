package json

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jaxron/httpism/pkg/client/errors"
	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
	"github.com/jaxron/httpism/pkg/client/options"
)

const contentType = "application/json"

// JSONMiddleware encodes structured request bodies as JSON and decodes JSON responses.
type JSONMiddleware struct {
	logger logger.Logger
}

// New creates a new JSONMiddleware instance.
func New() *JSONMiddleware {
	return &JSONMiddleware{
		logger: &logger.NoOpLogger{},
	}
}

// Process encodes the outgoing body, delegates, then decodes the response body when it is JSON.
func (m *JSONMiddleware) Process(ctx context.Context, req *message.Request, next middleware.NextFunc, _ middleware.Sender) (middleware.Result, error) {
	if req.Body.Kind() == message.BodyValue {
		encoded, err := sonic.Marshal(req.Body.Value())
		if err != nil {
			return middleware.Result{}, fmt.Errorf("%w: json: %w", errors.ErrEncode, err)
		}
		req.SetEncodedBody(string(encoded), contentType)

		m.logger.WithFields(logger.Int("length", len(encoded))).Debug("Encoded JSON body")
	}
	message.SetHeaderDefault(req.Header, "Accept", contentType)

	result, err := next(ctx)
	if middleware.Passthrough(result, err) {
		return result, err
	}

	resp := result.Response()
	if !resp.Body.IsStream() || !message.ShouldParseAs(resp, options.ParseJSON, req) {
		return result, nil
	}

	data, err := message.ReadAll(resp.Body)
	if err != nil {
		return middleware.Result{}, err
	}

	var value any
	if len(data) > 0 {
		if err := sonic.Unmarshal(data, &value); err != nil {
			return middleware.Result{}, fmt.Errorf("%w: json: %w", errors.ErrDecode, err)
		}
	}
	resp.Body = message.ValueBody(value)

	return result, nil
}

// SetLogger sets the logger for the middleware.
func (m *JSONMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}
