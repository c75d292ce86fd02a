package tmap

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies failures reported by the TMAP API.
type ErrorKind int

const (
	// KindClient is any non-2xx response without a more specific kind.
	KindClient ErrorKind = iota
	// KindBadRequest is an HTTP 400 response.
	KindBadRequest
	// KindAuth is an HTTP 401 response or a client built without an app key.
	KindAuth
	// KindRateLimit is an HTTP 420 response.
	KindRateLimit
)

// StatusRateLimited is the status TMAP uses when the app key's quota is exhausted.
const StatusRateLimited = 420

// String returns the name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	default:
		return "client"
	}
}

// Error is a TMAP client failure. StatusCode is zero when the error did not
// come from an HTTP response.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

// Sentinels for errors.Is. Matching compares kinds only.
var (
	ErrClient     = &Error{Kind: KindClient}
	ErrBadRequest = &Error{Kind: KindBadRequest}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrRateLimit  = &Error{Kind: KindRateLimit}
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindBadRequest:
		return "Bad request: " + e.Message
	case KindAuth:
		return "Auth error: " + e.Message
	case KindRateLimit:
		return "Rate limited: " + e.Message
	default:
		if e.StatusCode != 0 {
			return fmt.Sprintf("Unexpected error [status_code=%d, error=%s]", e.StatusCode, e.Message)
		}
		return e.Message
	}
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// errorFromStatus maps a non-2xx status to a typed error.
func errorFromStatus(statusCode int, message string) *Error {
	var kind ErrorKind
	switch statusCode {
	case http.StatusBadRequest:
		kind = KindBadRequest
	case http.StatusUnauthorized:
		kind = KindAuth
	case StatusRateLimited:
		kind = KindRateLimit
	default:
		kind = KindClient
	}
	return &Error{Kind: kind, StatusCode: statusCode, Message: message}
}
