// Package query implements the query string multimap used for querystring options and form bodies.
package query

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
)

// Query maps a string key to a list of values.
// It is typically used for query parameters and form values.
// Unlike in the http.Header map, the keys in a Query map
// are case-sensitive.
type Query map[string][]string

// Get retrieves the first value associated with the given key.
// If there are no values associated with the key, Get returns
// the empty string. To access multiple values, use the map
// directly.
func (v Query) Get(key string) string {
	vs := v[key]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// Set assigns the key to a single value. It replaces any existing
// values associated with the key.
func (v Query) Set(key, value string) {
	v[key] = []string{value}
}

// Add appends a value to the list of values associated with the key.
func (v Query) Add(key, value string) {
	v[key] = append(v[key], value)
}

// Clone returns a deep copy of the query.
func (v Query) Clone() Query {
	if v == nil {
		return nil
	}
	out := make(Query, len(v))
	for k, vs := range v {
		out[k] = slices.Clone(vs)
	}
	return out
}

// Encode converts the Query into a URL-encoded string.
// The resulting string is in "URL encoded" form
// ("bar=baz&foo=quux") with keys sorted alphabetically.
func (v Query) Encode() string {
	if len(v) == 0 {
		return ""
	}

	var buf strings.Builder

	for _, k := range slices.Sorted(maps.Keys(v)) {
		keyEscaped := url.QueryEscape(k)

		for _, value := range v[k] {
			if buf.Len() > 0 {
				buf.WriteByte('&')
			}
			buf.WriteString(keyEscaped)
			buf.WriteByte('=')
			buf.WriteString(url.QueryEscape(value))
		}
	}
	return buf.String()
}

// Parse decodes a URL-encoded query string. A leading '?' is ignored.
func Parse(s string) (Query, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(s, "?"))
	if err != nil {
		return nil, fmt.Errorf("parse query %q: %w", s, err)
	}
	return Query(values), nil
}

// Merge returns a new Query holding every key of secondary, with keys present in
// primary replacing the secondary values entirely.
func Merge(primary, secondary Query) Query {
	if primary == nil && secondary == nil {
		return nil
	}

	out := secondary.Clone()
	if out == nil {
		out = make(Query, len(primary))
	}
	for k, vs := range primary {
		out[k] = slices.Clone(vs)
	}
	return out
}
