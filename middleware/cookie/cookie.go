package cookie

import (
	"context"
	"fmt"

	"github.com/jaxron/httpism/pkg/client/errors"
	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
)

// CookieMiddleware loads cookies from the jar in the cookies option and stores Set-Cookie values back into it.
type CookieMiddleware struct {
	logger logger.Logger
}

// New creates a new CookieMiddleware instance.
func New() *CookieMiddleware {
	return &CookieMiddleware{
		logger: &logger.NoOpLogger{},
	}
}

// Process applies cookie logic around the next middleware.
func (m *CookieMiddleware) Process(ctx context.Context, req *message.Request, next middleware.NextFunc, _ middleware.Sender) (middleware.Result, error) {
	jar := req.Options.Cookies
	if jar == nil {
		return next(ctx)
	}

	cookies, err := jar.LoadForURL(req.URL)
	if err != nil {
		return middleware.Result{}, fmt.Errorf("%w: load %s: %w", errors.ErrCookieJar, req.URL, err)
	}
	if cookies != "" {
		req.Header.Set("Cookie", cookies)
		m.logger.WithFields(logger.String("url", req.URL)).Debug("Using Cookie")
	}

	result, err := next(ctx)
	if middleware.Passthrough(result, err) {
		return result, err
	}

	// Stored against the response URL, which differs from the request URL after a redirect
	resp := result.Response()
	setCookies := resp.Header.Values("Set-Cookie")
	for _, setCookie := range setCookies {
		if err := jar.StoreForURL(resp.URL, setCookie); err != nil {
			return middleware.Result{}, fmt.Errorf("%w: store %s: %w", errors.ErrCookieJar, resp.URL, err)
		}
	}
	if len(setCookies) > 0 {
		m.logger.WithFields(
			logger.String("url", resp.URL),
			logger.Int("cookies", len(setCookies)),
		).Debug("Stored cookies")
	}

	return result, nil
}

// SetLogger sets the logger for the middleware.
func (m *CookieMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}
