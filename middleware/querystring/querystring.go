package querystring

import (
	"context"
	"net/url"
	"strings"

	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
	"github.com/jaxron/httpism/pkg/client/query"
)

// QuerystringMiddleware merges the querystring option into the request URL.
type QuerystringMiddleware struct {
	logger logger.Logger
}

// New creates a new QuerystringMiddleware instance.
func New() *QuerystringMiddleware {
	return &QuerystringMiddleware{
		logger: &logger.NoOpLogger{},
	}
}

// Process rewrites the request URL before passing the request to the next middleware.
func (m *QuerystringMiddleware) Process(ctx context.Context, req *message.Request, next middleware.NextFunc, _ middleware.Sender) (middleware.Result, error) {
	if len(req.Options.Querystring) > 0 {
		merged := MergeURL(req.URL, req.Options.Querystring)

		m.logger.WithFields(
			logger.String("from", req.URL),
			logger.String("to", merged),
		).Debug("Merged querystring")
		req.URL = merged
	}

	return next(ctx)
}

// SetLogger sets the logger for the middleware.
func (m *QuerystringMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}

// MergeURL splits rawURL at its first '?' and merges q into the existing query, q winning
// on conflicting keys. Existing pairs keep their order and raw encoding; pairs whose key q
// overrides are dropped and q's pairs are appended in key order. Malformed escapes in the
// existing query are kept as they are.
func MergeURL(rawURL string, q query.Query) string {
	path, rawQuery, _ := strings.Cut(rawURL, "?")

	kept := make([]string, 0, strings.Count(rawQuery, "&")+1)
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}

		rawKey, _, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			key = rawKey
		}
		if _, overridden := q[key]; overridden {
			continue
		}
		kept = append(kept, pair)
	}

	if added := q.Encode(); added != "" {
		kept = append(kept, added)
	}
	return path + "?" + strings.Join(kept, "&")
}
