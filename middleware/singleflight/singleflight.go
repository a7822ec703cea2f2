package singleflight

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"

	"github.com/cespare/xxhash"
	clientErrors "github.com/jaxron/httpism/pkg/client/errors"
	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
	"golang.org/x/sync/singleflight"
)

// SingleFlightMiddleware implements the singleflight pattern to deduplicate concurrent identical requests.
// Only bodiless GET and HEAD requests are deduplicated.
type SingleFlightMiddleware struct {
	sfGroup *singleflight.Group
	logger  logger.Logger
}

// sharedResult is the materialized outcome handed to every caller waiting on the same key.
type sharedResult struct {
	result middleware.Result
	body   []byte
	stream bool
}

// New creates a new SingleFlightMiddleware instance.
func New() *SingleFlightMiddleware {
	return &SingleFlightMiddleware{
		sfGroup: &singleflight.Group{},
		logger:  &logger.NoOpLogger{},
	}
}

// Process applies the singleflight pattern before passing the request to the next middleware.
func (m *SingleFlightMiddleware) Process(ctx context.Context, req *message.Request, next middleware.NextFunc, _ middleware.Sender) (middleware.Result, error) {
	if !deduplicable(req) {
		return next(ctx)
	}

	key := generateRequestKey(req)

	out, err, shared := m.sfGroup.Do(key, func() (interface{}, error) {
		res, err := next(ctx)
		if err != nil {
			return nil, err
		}
		return materialize(res)
	})
	if err != nil {
		return middleware.Result{}, fmt.Errorf("%w: %w", clientErrors.ErrSingleFlight, err)
	}

	result, ok := out.(*sharedResult)
	if !ok {
		return middleware.Result{}, clientErrors.ErrUnreachable
	}

	if shared {
		m.logger.WithFields(logger.String("url", req.URL)).Debug("Shared in-flight response")
	}

	return result.copy(), nil
}

// SetLogger sets the logger for the middleware.
func (m *SingleFlightMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}

func deduplicable(req *message.Request) bool {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return false
	}
	return req.Body.Kind() == message.BodyEmpty
}

// materialize reads a streaming body once so each waiting caller can get its own reader.
func materialize(res middleware.Result) (*sharedResult, error) {
	resp := res.Response()
	if resp == nil || !resp.Body.IsStream() {
		return &sharedResult{result: res, body: nil, stream: false}, nil
	}

	body, err := message.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &sharedResult{result: res, body: body, stream: true}, nil
}

func (s *sharedResult) copy() middleware.Result {
	resp := s.result.Response()
	if resp == nil {
		return s.result
	}

	clone := &message.Response{
		StatusCode: resp.StatusCode,
		URL:        resp.URL,
		Header:     resp.Header.Clone(),
		Body:       resp.Body,
	}
	if s.stream {
		clone.Body = message.StreamBody(io.NopCloser(bytes.NewReader(s.body)))
	}

	if s.result.IsRedirected() {
		return middleware.Redirected(clone)
	}
	return middleware.Ok(clone)
}

// generateRequestKey generates a key for the request based on the method, URL and headers.
func generateRequestKey(req *message.Request) string {
	h := xxhash.New()

	_, _ = io.WriteString(h, req.Method)
	_, _ = io.WriteString(h, " ")
	_, _ = io.WriteString(h, req.URL)

	keys := make([]string, 0, len(req.Header))
	for key := range req.Header {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		_, _ = io.WriteString(h, "\n"+key+":")
		for _, value := range req.Header[key] {
			_, _ = io.WriteString(h, value+"\x00")
		}
	}

	return strconv.FormatUint(h.Sum64(), 16)
}
