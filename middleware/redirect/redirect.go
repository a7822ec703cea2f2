package redirect

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jaxron/httpism/pkg/client/errors"
	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
)

// RedirectMiddleware follows redirect responses by issuing a new GET through the owning client.
type RedirectMiddleware struct {
	logger logger.Logger
}

// New creates a new RedirectMiddleware instance.
func New() *RedirectMiddleware {
	return &RedirectMiddleware{
		logger: &logger.NoOpLogger{},
	}
}

// Process delegates, then replaces a redirect response with the response of the followed location.
func (m *RedirectMiddleware) Process(ctx context.Context, req *message.Request, next middleware.NextFunc, s middleware.Sender) (middleware.Result, error) {
	result, err := next(ctx)
	if middleware.Passthrough(result, err) {
		return result, err
	}

	resp := result.Response()
	location := resp.Header.Get("Location")
	if !req.Options.RedirectEnabled() || location == "" || !IsRedirectStatus(resp.StatusCode) {
		return result, nil
	}

	// The body is unused but must be consumed to release the connection
	if err := message.Discard(resp.Body); err != nil {
		return middleware.Result{}, err
	}

	target, err := resolve(req.URL, location)
	if err != nil {
		return middleware.Result{}, err
	}

	m.logger.WithFields(
		logger.Int("status", resp.StatusCode),
		logger.String("from", req.URL),
		logger.String("to", target),
	).Debug("Following redirect")

	followed, err := s.Exchange(ctx, http.MethodGet, target, message.NoBody(), req.Options)
	if err != nil {
		return middleware.Result{}, err
	}

	return middleware.Redirected(followed), nil
}

// SetLogger sets the logger for the middleware.
func (m *RedirectMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}

// IsRedirectStatus reports whether status is one this middleware follows.
func IsRedirectStatus(status int) bool {
	switch status {
	case http.StatusMultipleChoices,
		http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect:
		return true
	default:
		return false
	}
}

func resolve(base, location string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrInvalidURL, err)
	}
	locationURL, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("%w: location %q: %w", errors.ErrInvalidURL, location, err)
	}
	return baseURL.ResolveReference(locationURL).String(), nil
}
