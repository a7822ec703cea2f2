package cookie

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Jar adapts an http.CookieJar to the options.CookieJar capability.
type Jar struct {
	jar http.CookieJar
}

// NewJar creates an in-memory, public-suffix aware jar.
func NewJar() (*Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &Jar{jar: jar}, nil
}

// WrapJar adapts an existing http.CookieJar.
func WrapJar(jar http.CookieJar) *Jar {
	return &Jar{jar: jar}
}

// LoadForURL returns the Cookie header value for rawURL.
func (j *Jar) LoadForURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	cookies := j.jar.Cookies(u)
	pairs := make([]string, len(cookies))
	for i, c := range cookies {
		pairs[i] = c.Name + "=" + c.Value
	}
	return strings.Join(pairs, "; "), nil
}

// StoreForURL parses a single Set-Cookie header value and records it for rawURL.
func (j *Jar) StoreForURL(rawURL, setCookie string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}

	c, err := http.ParseSetCookie(setCookie)
	if err != nil {
		return fmt.Errorf("parse set-cookie %q: %w", setCookie, err)
	}
	j.jar.SetCookies(u, []*http.Cookie{c})
	return nil
}
