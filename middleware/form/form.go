package form

import (
	"context"
	"fmt"
	"net/url"

	querystring "github.com/google/go-querystring/query"
	"github.com/jaxron/httpism/pkg/client/errors"
	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
	"github.com/jaxron/httpism/pkg/client/options"
	"github.com/jaxron/httpism/pkg/client/query"
)

const contentType = "application/x-www-form-urlencoded"

// FormMiddleware sends structured bodies URL-encoded when the form option is set and
// decodes form responses into a query.Query.
type FormMiddleware struct {
	logger logger.Logger
}

// New creates a new FormMiddleware instance.
func New() *FormMiddleware {
	return &FormMiddleware{
		logger: &logger.NoOpLogger{},
	}
}

// Process applies form encoding before delegating and form decoding after.
func (m *FormMiddleware) Process(ctx context.Context, req *message.Request, next middleware.NextFunc, _ middleware.Sender) (middleware.Result, error) {
	if req.Options.FormEnabled() && req.Body.Kind() == message.BodyValue {
		values, err := Encode(req.Body.Value())
		if err != nil {
			return middleware.Result{}, err
		}
		req.SetEncodedBody(values.Encode(), contentType)

		m.logger.WithFields(logger.Int("fields", len(values))).Debug("Encoded form body")
	}

	result, err := next(ctx)
	if middleware.Passthrough(result, err) {
		return result, err
	}

	resp := result.Response()
	if !resp.Body.IsStream() || !message.ShouldParseAs(resp, options.ParseForm, req) {
		return result, nil
	}

	body, err := message.ReadString(resp.Body)
	if err != nil {
		return middleware.Result{}, err
	}

	values, err := query.Parse(body)
	if err != nil {
		return middleware.Result{}, fmt.Errorf("%w: form: %w", errors.ErrDecode, err)
	}
	resp.Body = message.ValueBody(values)

	return result, nil
}

// SetLogger sets the logger for the middleware.
func (m *FormMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}

// Encode converts a structured value into form fields. Maps of strings, string slices or
// arbitrary values are encoded key by key; structs go through their `url` field tags.
func Encode(v any) (query.Query, error) {
	switch value := v.(type) {
	case query.Query:
		return value, nil
	case url.Values:
		return query.Query(value), nil
	case map[string][]string:
		return query.Query(value), nil
	case map[string]string:
		out := make(query.Query, len(value))
		for k, s := range value {
			out.Set(k, s)
		}
		return out, nil
	case map[string]any:
		out := make(query.Query, len(value))
		for k, item := range value {
			out.Set(k, fmt.Sprint(item))
		}
		return out, nil
	}

	values, err := querystring.Values(v)
	if err != nil {
		return nil, fmt.Errorf("%w: form: %w", errors.ErrEncode, err)
	}
	return query.Query(values), nil
}
