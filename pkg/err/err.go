package errprocess

import (
	"errors"
	"fmt"
	"net/http"

	"course_chat_service/pkg/logger"
)

// Kind classify an error for callers and transport
type Kind int

const (
	// KindInternal unexpected failure
	KindInternal Kind = iota
	// KindValidation malformed input (400)
	KindValidation
	// KindNotFound addressed record absent (404)
	KindNotFound
	// KindForbidden caller is not the owner (403)
	KindForbidden
	// KindUnauthorized no valid session (401)
	KindUnauthorized
	// KindStoreUnavailable document store unreachable, replaced by a fallback before reaching callers
	KindStoreUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindStoreUnavailable:
		return "store_unavailable"
	default:
		return "internal"
	}
}

// Error typed error carrying a Kind
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// sentinels for errors.Is
var (
	ErrValidation       = &Error{Kind: KindValidation}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrForbidden        = &Error{Kind: KindForbidden}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized}
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable}
)

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Validation new validation error
func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }

// NotFound new not found error
func NotFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

// Forbidden new forbidden error
func Forbidden(msg string) error { return &Error{Kind: KindForbidden, Msg: msg} }

// Unauthorized new unauthorized error
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Msg: msg} }

// StoreUnavailable wrap a driver error of operation op
func StoreUnavailable(op string, err error) error {
	return &Error{Kind: KindStoreUnavailable, Msg: op, Err: err}
}

// KindOf return the kind of err, KindInternal for foreign errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message return the user facing message of err
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" && e.Kind != KindStoreUnavailable && e.Kind != KindInternal {
		return e.Msg
	}
	return "Internal server error"
}

// HTTPStatus map err to a status code
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// FromHTTPStatus rebuild a typed error from a response status and body message
func FromHTTPStatus(status int, msg string) error {
	switch status {
	case http.StatusBadRequest:
		return Validation(msg)
	case http.StatusNotFound:
		return NotFound(msg)
	case http.StatusForbidden:
		return Forbidden(msg)
	case http.StatusUnauthorized:
		return Unauthorized(msg)
	default:
		return &Error{Kind: KindInternal, Msg: fmt.Sprintf("status %d: %s", status, msg)}
	}
}

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return &Error{Kind: KindInternal, Msg: errMsg}
}
