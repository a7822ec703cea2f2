// Package message defines the request and response values that flow through the middleware pipeline.
package message

import (
	"fmt"
	"io"
	"strings"

	"github.com/jaxron/httpism/pkg/client/errors"
)

// BodyKind tags the active representation of a Body.
type BodyKind int

const (
	BodyEmpty BodyKind = iota
	BodyString
	BodyValue
	BodyStream
)

func (k BodyKind) String() string {
	switch k {
	case BodyEmpty:
		return "empty"
	case BodyString:
		return "string"
	case BodyValue:
		return "value"
	case BodyStream:
		return "stream"
	default:
		return fmt.Sprintf("BodyKind(%d)", int(k))
	}
}

// Body is a request or response payload with exactly one active representation.
type Body struct {
	kind   BodyKind
	text   string
	value  any
	stream io.Reader
}

// NoBody is the empty body.
func NoBody() Body {
	return Body{kind: BodyEmpty}
}

// StringBody holds raw text.
func StringBody(s string) Body {
	return Body{kind: BodyString, text: s}
}

// ValueBody holds a structured value that content middleware may encode or that was decoded from a response.
func ValueBody(v any) Body {
	return Body{kind: BodyValue, value: v}
}

// StreamBody holds a lazy byte stream. A nil reader yields the empty body.
func StreamBody(r io.Reader) Body {
	if r == nil {
		return NoBody()
	}
	return Body{kind: BodyStream, stream: r}
}

// Kind returns the active representation.
func (b Body) Kind() BodyKind {
	return b.kind
}

// IsStream reports whether the body is a lazy stream.
func (b Body) IsStream() bool {
	return b.kind == BodyStream
}

// Text returns the string payload; empty unless Kind is BodyString.
func (b Body) Text() string {
	return b.text
}

// Value returns the structured payload; nil unless Kind is BodyValue.
func (b Body) Value() any {
	return b.value
}

// Stream returns the reader; nil unless Kind is BodyStream.
func (b Body) Stream() io.Reader {
	return b.stream
}

// ReadAll drains a stream body and closes it if it is an io.Closer. String bodies are
// returned as bytes and the empty body yields nil. Value bodies cannot be read.
func ReadAll(b Body) ([]byte, error) {
	switch b.kind {
	case BodyEmpty:
		return nil, nil
	case BodyString:
		return []byte(b.text), nil
	case BodyStream:
		data, err := io.ReadAll(b.stream)
		closeErr := closeStream(b.stream)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrStream, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrStream, closeErr)
		}
		return data, nil
	case BodyValue:
		return nil, fmt.Errorf("%w: cannot read a %s body", errors.ErrStream, b.kind)
	default:
		return nil, errors.ErrUnreachable
	}
}

// ReadString drains a body to a string. An empty stream yields the empty string.
func ReadString(b Body) (string, error) {
	data, err := ReadAll(b)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Discard fully consumes and closes a stream body so the underlying connection is released.
// Other kinds are a no-op.
func Discard(b Body) error {
	if b.kind != BodyStream {
		return nil
	}

	_, err := io.Copy(io.Discard, b.stream)
	closeErr := closeStream(b.stream)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrStream, err)
	}
	if closeErr != nil {
		return fmt.Errorf("%w: %w", errors.ErrStream, closeErr)
	}
	return nil
}

// NewStringStream wraps s in a single-use stream body.
func NewStringStream(s string) Body {
	return StreamBody(strings.NewReader(s))
}

func closeStream(r io.Reader) error {
	if c, ok := r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
