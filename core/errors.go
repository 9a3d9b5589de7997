package core

import (
	"errors"
	"net/http"
	"time"
)

var (
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenMalformed   = errors.New("token is malformed")
	ErrTokenRevoked     = errors.New("token has been revoked")
	ErrSignatureInvalid = errors.New("invalid signature")
	ErrInvalidClaims    = errors.New("invalid claims")
	ErrInvalidChallenge = errors.New("invalid challenge")
	ErrInvalidAddress   = errors.New("invalid wallet address")
	ErrUserNotFound     = errors.New("user not found")
	ErrNotFound         = errors.New("key not found")
	ErrStoreUnavailable = errors.New("store operation failed")
	ErrRateLimited      = errors.New("rate limit exceeded")
)

// Kind classifies an AuthError for the transport boundary
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindBadRequest
	KindNotFound
)

// Code returns the stable error code for the kind
func (k Kind) Code() string {
	switch k {
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindBadRequest:
		return "BAD_REQUEST"
	case KindNotFound:
		return "NOT_FOUND"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// HTTPStatus returns the HTTP status code for the kind
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// AuthError is an expected, classified failure of the auth core
type AuthError struct {
	Kind    Kind
	Message string
	Err     error

	// ResetAt is set on rate limit failures
	ResetAt time.Time
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Unauthorized builds a KindUnauthorized error
func Unauthorized(msg string, err error) *AuthError {
	return &AuthError{Kind: KindUnauthorized, Message: msg, Err: err}
}

// Forbidden builds a KindForbidden error
func Forbidden(msg string, err error) *AuthError {
	return &AuthError{Kind: KindForbidden, Message: msg, Err: err}
}

// BadRequest builds a KindBadRequest error for rejected client input
func BadRequest(msg string, err error) *AuthError {
	return &AuthError{Kind: KindBadRequest, Message: msg, Err: err}
}

// NotFound builds a KindNotFound error
func NotFound(msg string, err error) *AuthError {
	return &AuthError{Kind: KindNotFound, Message: msg, Err: err}
}

// Internal builds a KindInternal error
func Internal(msg string, err error) *AuthError {
	return &AuthError{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the kind of err, KindInternal for unclassified errors
func KindOf(err error) Kind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}
