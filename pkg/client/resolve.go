package client

import (
	"fmt"
	"net/url"

	"github.com/jaxron/httpism/pkg/client/errors"
)

// ResolveURL resolves ref against base using RFC 3986 reference resolution.
// When base is empty, ref is returned unchanged.
func ResolveURL(base, ref string) (string, error) {
	if base == "" {
		return ref, nil
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: base %q: %w", errors.ErrInvalidURL, base, err)
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", errors.ErrInvalidURL, ref, err)
	}

	return baseURL.ResolveReference(refURL).String(), nil
}
