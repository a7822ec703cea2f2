package message

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/jaxron/httpism/pkg/client/options"
)

// Request is allocated once per call and owned by that call's pipeline.
type Request struct {
	Method  string
	URL     string
	Header  http.Header
	Body    Body
	Options *options.Options
}

// NewRequest creates a request whose headers start as a copy of the option headers.
func NewRequest(method, url string, body Body, opts *options.Options) *Request {
	header := make(http.Header)
	if opts != nil && opts.Headers != nil {
		header = opts.Headers.Clone()
	}
	if opts == nil {
		opts = &options.Options{}
	}

	return &Request{
		Method:  method,
		URL:     url,
		Header:  header,
		Body:    body,
		Options: opts,
	}
}

// SetEncodedBody replaces the body with a stream over encoded and sets Content-Length to its
// byte length. Content-Type is only set when the request does not declare one.
func (r *Request) SetEncodedBody(encoded, contentType string) {
	r.Body = NewStringStream(encoded)
	r.Header.Set("Content-Length", strconv.Itoa(len(encoded)))
	SetHeaderDefault(r.Header, "Content-Type", contentType)
}

// Response is the raw result of an exchange. Body starts as a stream and middleware may
// replace it with a materialized representation.
type Response struct {
	StatusCode int
	URL        string
	Header     http.Header
	Body       Body
}

// SetHeaderDefault sets key to value unless the header already carries it.
func SetHeaderDefault(h http.Header, key, value string) {
	if h.Get(key) == "" {
		h.Set(key, value)
	}
}

// ShouldParseAs reports whether resp should be decoded as kind ("json", "text" or "form").
// An explicit ResponseBody option on the request decides on its own; otherwise the response
// content type is matched.
func ShouldParseAs(resp *Response, kind string, req *Request) bool {
	if req != nil && req.Options != nil && req.Options.ResponseBody != "" {
		return req.Options.ResponseBody == kind
	}
	if resp == nil {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return false
	}

	switch kind {
	case options.ParseJSON:
		return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
	case options.ParseText:
		return strings.HasPrefix(mediaType, "text/")
	case options.ParseForm:
		return mediaType == "application/x-www-form-urlencoded"
	default:
		return false
	}
}
