package rediscache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash"
	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
	"github.com/redis/rueidis"
)

type contextKey int

const (
	KeySkipCache contextKey = iota
)

// Store is the key-value backend used by the cache.
// Get reports a miss with found set to false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
}

// RedisCacheMiddleware implements a caching middleware using Redis.
// Only streaming bodies are stored, so it belongs below the content middleware
// (client.WithTransportMiddleware).
type RedisCacheMiddleware struct {
	store      Store
	logger     logger.Logger
	expiration time.Duration
}

// cachedResponse represents the structure of a cached HTTP response.
type cachedResponse struct {
	StatusCode int         `json:"statusCode"`
	URL        string      `json:"url"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
	Redirected bool        `json:"redirected"`
}

// New creates a new RedisCacheMiddleware instance.
func New(clientOptions rueidis.ClientOption, expiration time.Duration) (*RedisCacheMiddleware, error) {
	client, err := rueidis.NewClient(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis client: %w", err)
	}

	return NewWithStore(&redisStore{client: client}, expiration), nil
}

// NewWithStore creates a new RedisCacheMiddleware backed by the given store.
func NewWithStore(store Store, expiration time.Duration) *RedisCacheMiddleware {
	return &RedisCacheMiddleware{
		store:      store,
		logger:     &logger.NoOpLogger{},
		expiration: expiration,
	}
}

// Process serves bodiless GET requests from the cache and stores successful responses.
func (m *RedisCacheMiddleware) Process(ctx context.Context, req *message.Request, next middleware.NextFunc, _ middleware.Sender) (middleware.Result, error) {
	if !cacheable(ctx, req) {
		return next(ctx)
	}

	key := generateKey(req)

	cached, err := m.getFromCache(ctx, key)
	if err != nil {
		m.logger.WithFields(logger.Err(err)).Warn("Failed to read from cache")
	}
	if cached != nil {
		m.logger.WithFields(logger.String("url", req.URL)).Debug("Cache hit")
		return reconstruct(cached), nil
	}

	m.logger.WithFields(logger.String("url", req.URL)).Debug("Cache miss")
	res, err := next(ctx)
	if err != nil {
		return res, err
	}

	resp := res.Response()
	if resp == nil || resp.StatusCode < 200 || resp.StatusCode >= 300 || !resp.Body.IsStream() {
		return res, nil
	}

	body, err := message.ReadAll(resp.Body)
	if err != nil {
		return middleware.Result{}, err
	}
	resp.Body = message.StreamBody(newReader(body))

	m.cacheResponse(ctx, key, &cachedResponse{
		StatusCode: resp.StatusCode,
		URL:        resp.URL,
		Header:     resp.Header,
		Body:       body,
		Redirected: res.IsRedirected(),
	})

	return res, nil
}

// SetLogger sets the logger for the middleware.
func (m *RedisCacheMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}

func cacheable(ctx context.Context, req *message.Request) bool {
	if skip, ok := ctx.Value(KeySkipCache).(bool); ok && skip {
		return false
	}
	return req.Method == http.MethodGet && req.Body.Kind() == message.BodyEmpty
}

// generateKey creates a cache key based on the request method, URL and headers.
func generateKey(req *message.Request) string {
	h := xxhash.New()
	_, _ = io.WriteString(h, req.Method)
	_, _ = io.WriteString(h, req.URL)

	keys := make([]string, 0, len(req.Header))
	for key := range req.Header {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		_, _ = io.WriteString(h, key)
		for _, value := range req.Header[key] {
			_, _ = io.WriteString(h, value)
		}
	}

	return fmt.Sprintf("cache:%x", h.Sum64())
}

// getFromCache returns nil without an error on a miss.
func (m *RedisCacheMiddleware) getFromCache(ctx context.Context, key string) (*cachedResponse, error) {
	data, found, err := m.store.Get(ctx, key)
	if err != nil || !found {
		return nil, err
	}

	var cached cachedResponse
	if err := sonic.Unmarshal(data, &cached); err != nil {
		return nil, err
	}

	return &cached, nil
}

func (m *RedisCacheMiddleware) cacheResponse(ctx context.Context, key string, cached *cachedResponse) {
	data, err := sonic.Marshal(cached)
	if err != nil {
		m.logger.WithFields(logger.Err(err)).Error("Failed to marshal cached response")
		return
	}

	if err := m.store.Set(ctx, key, data, m.expiration); err != nil {
		m.logger.WithFields(logger.Err(err)).Error("Failed to cache response")
	}
}

func reconstruct(cached *cachedResponse) middleware.Result {
	resp := &message.Response{
		StatusCode: cached.StatusCode,
		URL:        cached.URL,
		Header:     cached.Header,
		Body:       message.StreamBody(newReader(cached.Body)),
	}
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}

	if cached.Redirected {
		return middleware.Redirected(resp)
	}
	return middleware.Ok(resp)
}
