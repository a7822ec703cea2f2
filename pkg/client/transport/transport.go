// Package transport performs the network exchange at the end of the middleware pipeline.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/jaxron/httpism/pkg/client/errors"
	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/options"
)

// Transport sends a fully prepared request and yields the raw response with a streaming body.
type Transport interface {
	RoundTrip(ctx context.Context, req *message.Request) (*message.Response, error)
}

// Option is a function type that modifies the HTTPTransport configuration.
type Option func(*HTTPTransport)

// WithProxy sets the proxy used when a request carries no proxy option of its own.
func WithProxy(proxy string) Option {
	return func(t *HTTPTransport) {
		t.defaultProxy = proxy
	}
}

// WithBaseTransport sets the transport cloned for every proxy and sub-option combination.
func WithBaseTransport(base *http.Transport) Option {
	return func(t *HTTPTransport) {
		t.base = base
	}
}

// WithLogger sets the logger for the transport.
func WithLogger(l logger.Logger) Option {
	return func(t *HTTPTransport) {
		t.logger = l
	}
}

// HTTPTransport is the default Transport built on net/http. It never follows
// redirects itself; that is left to the redirect middleware.
type HTTPTransport struct {
	base         *http.Transport
	defaultProxy string
	logger       logger.Logger
	transports   sync.Map
}

type transportKey struct {
	proxy string
	opts  options.TransportOptions
}

// New creates a new HTTPTransport instance.
func New(opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		base:         nil,
		defaultProxy: "",
		logger:       &logger.NoOpLogger{},
		transports:   sync.Map{},
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.base == nil {
		base, ok := http.DefaultTransport.(*http.Transport)
		if !ok {
			base = &http.Transport{}
		}
		t.base = base
	}

	return t
}

// SetLogger sets the logger for the transport.
func (t *HTTPTransport) SetLogger(l logger.Logger) {
	t.logger = l
}

// RoundTrip performs the exchange. The request body is written if present; the
// response body is returned unread.
func (t *HTTPTransport) RoundTrip(ctx context.Context, req *message.Request) (*message.Response, error) {
	target, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidURL, err)
	}

	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	client, err := t.clientFor(target.Scheme, req.Options)
	if err != nil {
		return nil, err
	}

	t.logger.WithFields(
		logger.String("method", req.Method),
		logger.String("url", req.URL),
		logger.Int("len_headers", len(req.Header)),
	).Debug("Request")

	resp, err := client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", errors.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %w", errors.ErrNetwork, err)
	}

	t.logger.WithFields(
		logger.Int("status", resp.StatusCode),
		logger.Int("len_headers", len(resp.Header)),
	).Debug("Response")

	return &message.Response{
		StatusCode: resp.StatusCode,
		URL:        req.URL,
		Header:     resp.Header,
		Body:       message.StreamBody(resp.Body),
	}, nil
}

// buildRequest converts the pipeline request into a net/http request.
func (t *HTTPTransport) buildRequest(ctx context.Context, req *message.Request) (*http.Request, error) {
	body, err := requestBody(req.Body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrRequestCreation, err)
	}

	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	// net/http reads these from dedicated fields rather than from the header map
	if host := httpReq.Header.Get("Host"); host != "" {
		httpReq.Host = host
		httpReq.Header.Del("Host")
	}
	if length := httpReq.Header.Get("Content-Length"); length != "" {
		n, err := strconv.ParseInt(length, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: content-length %q: %w", errors.ErrRequestCreation, length, err)
		}
		httpReq.ContentLength = n
		httpReq.Header.Del("Content-Length")
	}

	return httpReq, nil
}

// requestBody returns the reader written to the connection. Only streams and raw strings
// reach the wire; a structured value here means no content middleware encoded it.
func requestBody(b message.Body) (io.Reader, error) {
	switch b.Kind() {
	case message.BodyEmpty:
		return nil, nil
	case message.BodyStream:
		return b.Stream(), nil
	case message.BodyString:
		return strings.NewReader(b.Text()), nil
	case message.BodyValue:
		return nil, fmt.Errorf("%w: structured body was not encoded by any middleware", errors.ErrRequestCreation)
	default:
		return nil, errors.ErrUnreachable
	}
}

// clientFor returns an http.Client for the scheme's sub-options and the effective proxy.
// Clients are built once per distinct combination and reused.
func (t *HTTPTransport) clientFor(scheme string, opts *options.Options) (*http.Client, error) {
	key := transportKey{proxy: t.defaultProxy}

	if opts != nil {
		if opts.Proxy != "" {
			key.proxy = opts.Proxy
		}
		sub := opts.HTTP
		if scheme == "https" {
			sub = opts.HTTPS
		}
		if sub != nil {
			key.opts = *sub
		}
	}

	if cached, ok := t.transports.Load(key); ok {
		return cached.(*http.Client), nil
	}

	transport := t.base.Clone()
	if key.proxy != "" {
		proxyURL, err := url.Parse(key.proxy)
		if err != nil {
			return nil, fmt.Errorf("%w: proxy %q: %w", errors.ErrInvalidURL, key.proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		transport.OnProxyConnectResponse = func(_ context.Context, proxyURL *url.URL, _ *http.Request, _ *http.Response) error {
			t.logger.WithFields(logger.String("proxy", proxyURL.Host)).Debug("Proxy connection established")
			return nil
		}
	} else {
		transport.Proxy = nil
	}
	applyTransportOptions(transport, key.opts)

	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
		Jar:     nil,
		Timeout: 0,
	}

	actual, _ := t.transports.LoadOrStore(key, client)
	return actual.(*http.Client), nil
}

func applyTransportOptions(transport *http.Transport, opts options.TransportOptions) {
	if opts.ResponseHeaderTimeout != 0 {
		transport.ResponseHeaderTimeout = opts.ResponseHeaderTimeout
	}
	if opts.IdleConnTimeout != 0 {
		transport.IdleConnTimeout = opts.IdleConnTimeout
	}
	if opts.MaxResponseHeaderSize != 0 {
		transport.MaxResponseHeaderBytes = opts.MaxResponseHeaderSize
	}
	if opts.DisableCompression {
		transport.DisableCompression = true
	}
}
