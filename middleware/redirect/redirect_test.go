package redirect_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/jaxron/httpism/middleware/redirect"
	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
	"github.com/jaxron/httpism/pkg/client/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSender is a mock implementation of the Sender interface.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Exchange(ctx context.Context, method, url string, body message.Body, opts *options.Options) (*message.Response, error) {
	args := m.Called(ctx, method, url, body, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*message.Response), args.Error(1)
}

type countingBody struct {
	io.Reader
	closed bool
}

func (b *countingBody) Close() error {
	b.closed = true
	return nil
}

func redirectResponse(status int, location string, body *countingBody) middleware.NextFunc {
	return func(context.Context) (middleware.Result, error) {
		header := http.Header{}
		if location != "" {
			header.Set("Location", location)
		}
		return middleware.Ok(&message.Response{
			StatusCode: status,
			URL:        "http://example.com/a/b",
			Header:     header,
			Body:       message.StreamBody(body),
		}), nil
	}
}

func TestRedirectMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("Follows redirect with a GET through the sender", func(t *testing.T) {
		t.Parallel()

		final := &message.Response{StatusCode: http.StatusOK, URL: "http://example.com/a/c"}
		sender := &MockSender{}

		req := message.NewRequest(http.MethodPost, "http://example.com/a/b", message.StringBody("payload"), &options.Options{})
		sender.On("Exchange", mock.Anything, http.MethodGet, "http://example.com/a/c", message.NoBody(), req.Options).
			Return(final, nil)

		m := redirect.New()
		m.SetLogger(logger.NewBasicLogger())

		body := &countingBody{Reader: strings.NewReader("moved")}
		res, err := m.Process(context.Background(), req, redirectResponse(http.StatusFound, "c", body), sender)
		require.NoError(t, err)

		assert.True(t, res.IsRedirected())
		assert.Same(t, final, res.Response())
		assert.True(t, body.closed)

		n, _ := body.Read(make([]byte, 1))
		assert.Zero(t, n, "original body must be drained")
		sender.AssertExpectations(t)
	})

	t.Run("Redirect disabled passes response through", func(t *testing.T) {
		t.Parallel()

		sender := &MockSender{}
		req := message.NewRequest(http.MethodGet, "http://example.com/a/b", message.NoBody(),
			&options.Options{Redirect: options.Bool(false)})

		res, err := redirect.New().Process(context.Background(), req,
			redirectResponse(http.StatusFound, "/elsewhere", &countingBody{Reader: strings.NewReader("")}), sender)
		require.NoError(t, err)

		assert.False(t, res.IsRedirected())
		assert.Equal(t, http.StatusFound, res.Response().StatusCode)
		assert.Equal(t, "/elsewhere", res.Response().Header.Get("Location"))
		sender.AssertNotCalled(t, "Exchange")
	})

	t.Run("Redirect status without location passes through", func(t *testing.T) {
		t.Parallel()

		sender := &MockSender{}
		req := message.NewRequest(http.MethodGet, "http://example.com/a/b", message.NoBody(), nil)

		res, err := redirect.New().Process(context.Background(), req,
			redirectResponse(http.StatusMovedPermanently, "", &countingBody{Reader: strings.NewReader("")}), sender)
		require.NoError(t, err)
		assert.Equal(t, http.StatusMovedPermanently, res.Response().StatusCode)
		sender.AssertNotCalled(t, "Exchange")
	})

	t.Run("Non-redirect status passes through", func(t *testing.T) {
		t.Parallel()

		sender := &MockSender{}
		req := message.NewRequest(http.MethodGet, "http://example.com/a/b", message.NoBody(), nil)

		res, err := redirect.New().Process(context.Background(), req,
			redirectResponse(http.StatusPermanentRedirect, "/x", &countingBody{Reader: strings.NewReader("")}), sender)
		require.NoError(t, err)
		assert.Equal(t, http.StatusPermanentRedirect, res.Response().StatusCode)
		sender.AssertNotCalled(t, "Exchange")
	})
}

func TestIsRedirectStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []int{300, 301, 302, 303, 307} {
		assert.True(t, redirect.IsRedirectStatus(status), status)
	}
	for _, status := range []int{200, 304, 308, 404} {
		assert.False(t, redirect.IsRedirectStatus(status), status)
	}
}
