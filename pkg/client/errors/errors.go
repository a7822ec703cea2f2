package errors

import (
	"errors"
)

var (
	ErrUnreachable = errors.New("unreachable code")

	ErrRequestCreation = errors.New("request creation error")
	ErrInvalidURL      = errors.New("invalid url")

	ErrNetwork = errors.New("network error")
	ErrTimeout = errors.New("timeout error")
	ErrStream  = errors.New("stream error")

	ErrEncode = errors.New("body encode error")
	ErrDecode = errors.New("body decode error")

	ErrCookieJar = errors.New("cookie jar error")

	ErrSingleFlight      = errors.New("single flight error")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrCircuitOpen       = errors.New("circuit breaker is open")
	ErrCircuitExhausted  = errors.New("circuit breaker is exhausted")
)

// Is reports whether any error in err's chain is an instance of target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
