package basicauth

import (
	"context"
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
)

// BasicAuthMiddleware sets the Authorization header from the basicAuth option or URL credentials.
type BasicAuthMiddleware struct {
	logger logger.Logger
}

// New creates a new BasicAuthMiddleware instance.
func New() *BasicAuthMiddleware {
	return &BasicAuthMiddleware{
		logger: &logger.NoOpLogger{},
	}
}

// Process applies the authorization header before passing the request to the next middleware.
func (m *BasicAuthMiddleware) Process(ctx context.Context, req *message.Request, next middleware.NextFunc, _ middleware.Sender) (middleware.Result, error) {
	if header, source := Header(req); header != "" {
		req.Header.Set("Authorization", header)
		m.logger.WithFields(logger.String("source", source)).Debug("Applied basic authorization")
	}
	return next(ctx)
}

// SetLogger sets the logger for the middleware.
func (m *BasicAuthMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}

// Header returns the Basic authorization header for req and where its credentials came from,
// or empty strings when neither the options nor the URL carry credentials.
func Header(req *message.Request) (header, source string) {
	if auth := req.Options.BasicAuth; auth != nil {
		return Encode(strings.ReplaceAll(auth.Username, ":", "") + ":" + auth.Password), "options"
	}

	u, err := url.Parse(req.URL)
	if err != nil || u.User == nil {
		return "", ""
	}

	credentials := u.User.Username()
	if password, ok := u.User.Password(); ok {
		credentials += ":" + password
	}
	return Encode(credentials), "url"
}

// Encode formats credentials as a Basic authorization header value.
func Encode(credentials string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
}
