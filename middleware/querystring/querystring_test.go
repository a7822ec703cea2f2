package querystring_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jaxron/httpism/middleware/querystring"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
	"github.com/jaxron/httpism/pkg/client/options"
	"github.com/jaxron/httpism/pkg/client/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuerystringMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("Merges option into existing query", func(t *testing.T) {
		t.Parallel()

		req := message.NewRequest(http.MethodGet, "/x?a=1", message.NoBody(),
			&options.Options{Querystring: query.Query{"b": {"2"}}})

		var seen string
		_, err := querystring.New().Process(context.Background(), req, func(context.Context) (middleware.Result, error) {
			seen = req.URL
			return middleware.Ok(&message.Response{}), nil
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "/x?a=1&b=2", seen)
	})

	t.Run("No option leaves URL alone", func(t *testing.T) {
		t.Parallel()

		req := message.NewRequest(http.MethodGet, "/x?z=1&a=2", message.NoBody(), nil)
		_, err := querystring.New().Process(context.Background(), req, func(context.Context) (middleware.Result, error) {
			return middleware.Ok(&message.Response{}), nil
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "/x?z=1&a=2", req.URL)
	})
}

func TestMergeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		q    query.Query
		want string
	}{
		{name: "no existing query", url: "http://h/p", q: query.Query{"a": {"1"}}, want: "http://h/p?a=1"},
		{name: "option wins", url: "http://h/p?a=1&c=3", q: query.Query{"a": {"9"}}, want: "http://h/p?c=3&a=9"},
		{name: "existing order kept", url: "/x?z=1&a=2", q: query.Query{"b": {"3"}}, want: "/x?z=1&a=2&b=3"},
		{name: "existing encoding kept", url: "/x?q=a%20b&k=%7E", q: query.Query{"n": {"1"}}, want: "/x?q=a%20b&k=%7E&n=1"},
		{name: "malformed escape kept", url: "/x?bad=%zz", q: query.Query{"b": {"1"}}, want: "/x?bad=%zz&b=1"},
		{name: "escaped key overridden", url: "/x?a%20b=1&c=2", q: query.Query{"a b": {"9"}}, want: "/x?c=2&a+b=9"},
		{name: "repeated keys dropped together", url: "/x?a=1&a=2&c=3", q: query.Query{"a": {"9"}}, want: "/x?c=3&a=9"},
		{name: "escapes values", url: "/p", q: query.Query{"q": {"a b&c"}}, want: "/p?q=a+b%26c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, querystring.MergeURL(tt.url, tt.q))
		})
	}
}
