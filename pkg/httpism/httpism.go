// Package httpism builds clients pre-wired with the standard middleware stack.
package httpism

import (
	"github.com/jaxron/httpism/middleware/basicauth"
	"github.com/jaxron/httpism/middleware/cookie"
	"github.com/jaxron/httpism/middleware/form"
	"github.com/jaxron/httpism/middleware/json"
	"github.com/jaxron/httpism/middleware/querystring"
	"github.com/jaxron/httpism/middleware/redirect"
	"github.com/jaxron/httpism/middleware/text"
	"github.com/jaxron/httpism/pkg/client"
	"github.com/jaxron/httpism/pkg/client/middleware"
	"github.com/jaxron/httpism/pkg/client/options"
)

// StandardMiddleware returns fresh instances of the standard stack, outermost first.
// Redirect sits outside cookie so every hop's Set-Cookie is stored; form sits outside
// json so the form option claims structured bodies first.
func StandardMiddleware() []middleware.Middleware {
	return []middleware.Middleware{
		redirect.New(),
		cookie.New(),
		form.New(),
		json.New(),
		text.New(),
		querystring.New(),
		basicauth.New(),
	}
}

// New creates a root client for url with the standard stack. Middleware passed through
// client.WithMiddleware in settings run before the standard stack; those passed through
// client.WithTransportMiddleware run after it, on undecoded responses.
func New(url string, opts *options.Options, settings ...client.Option) *client.Client {
	base := []client.Option{
		client.WithURL(url),
		client.WithOptions(opts),
	}

	return client.NewClient(append(append(base, settings...), client.WithMiddleware(StandardMiddleware()...))...)
}
