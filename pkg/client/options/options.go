// Package options holds the per-client and per-call request configuration and its merge rules.
package options

import (
	"net/http"
	"time"

	"github.com/jaxron/httpism/pkg/client/query"
)

// Response body parse overrides accepted by Options.ResponseBody.
const (
	ParseJSON   = "json"
	ParseText   = "text"
	ParseForm   = "form"
	ParseStream = "stream"
)

// CookieJar is the capability the cookie middleware loads from and stores into.
// Implementations shared between concurrent requests must be safe for concurrent use.
type CookieJar interface {
	// LoadForURL returns the value of the Cookie header to send to url.
	LoadForURL(url string) (string, error)
	// StoreForURL records a single raw Set-Cookie header value received from url.
	StoreForURL(url, setCookie string) error
}

// BasicAuth holds explicit basic authentication credentials.
type BasicAuth struct {
	Username string
	Password string
}

// TransportOptions are low-level settings handed to the transport for one protocol.
// Zero values mean "not set".
type TransportOptions struct {
	ResponseHeaderTimeout time.Duration
	IdleConnTimeout       time.Duration
	MaxResponseHeaderSize int64
	DisableCompression    bool
}

// Options configures a client or a single call. Nil and zero fields are treated as absent.
type Options struct {
	Headers      http.Header
	Redirect     *bool
	Cookies      CookieJar
	BasicAuth    *BasicAuth
	Form         *bool
	Querystring  query.Query
	Proxy        string
	ResponseBody string

	HTTP  *TransportOptions
	HTTPS *TransportOptions
}

// Bool returns a pointer to b, for the tri-state option fields.
func Bool(b bool) *bool {
	return &b
}

// RedirectEnabled reports whether redirects should be followed. Defaults to true.
func (o *Options) RedirectEnabled() bool {
	return o == nil || o.Redirect == nil || *o.Redirect
}

// FormEnabled reports whether structured bodies should be sent form-encoded.
func (o *Options) FormEnabled() bool {
	return o != nil && o.Form != nil && *o.Form
}

// Merge produces a new Options holding every field of secondary overridden by the
// fields set in primary. Headers and Querystring merge key by key, transport
// sub-options merge field by field. Neither input is modified.
func Merge(primary, secondary *Options) *Options {
	if primary == nil {
		primary = &Options{}
	}
	if secondary == nil {
		secondary = &Options{}
	}

	merged := *secondary
	merged.Headers = mergeHeaders(primary.Headers, secondary.Headers)
	merged.Querystring = query.Merge(primary.Querystring, secondary.Querystring)
	merged.HTTP = MergeTransport(primary.HTTP, secondary.HTTP)
	merged.HTTPS = MergeTransport(primary.HTTPS, secondary.HTTPS)

	if primary.Redirect != nil {
		merged.Redirect = Bool(*primary.Redirect)
	}
	if primary.Cookies != nil {
		merged.Cookies = primary.Cookies
	}
	if primary.BasicAuth != nil {
		auth := *primary.BasicAuth
		merged.BasicAuth = &auth
	} else if secondary.BasicAuth != nil {
		auth := *secondary.BasicAuth
		merged.BasicAuth = &auth
	}
	if primary.Form != nil {
		merged.Form = Bool(*primary.Form)
	}
	if primary.Proxy != "" {
		merged.Proxy = primary.Proxy
	}
	if primary.ResponseBody != "" {
		merged.ResponseBody = primary.ResponseBody
	}

	return &merged
}

// MergeTransport merges transport sub-options; fields set in primary win.
func MergeTransport(primary, secondary *TransportOptions) *TransportOptions {
	switch {
	case primary == nil && secondary == nil:
		return nil
	case primary == nil:
		out := *secondary
		return &out
	case secondary == nil:
		out := *primary
		return &out
	}

	out := *secondary
	if primary.ResponseHeaderTimeout != 0 {
		out.ResponseHeaderTimeout = primary.ResponseHeaderTimeout
	}
	if primary.IdleConnTimeout != 0 {
		out.IdleConnTimeout = primary.IdleConnTimeout
	}
	if primary.MaxResponseHeaderSize != 0 {
		out.MaxResponseHeaderSize = primary.MaxResponseHeaderSize
	}
	if primary.DisableCompression {
		out.DisableCompression = true
	}
	return &out
}

func mergeHeaders(primary, secondary http.Header) http.Header {
	if primary == nil && secondary == nil {
		return nil
	}

	out := secondary.Clone()
	if out == nil {
		out = make(http.Header, len(primary))
	}
	for key, values := range primary {
		out[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}
	return out
}
