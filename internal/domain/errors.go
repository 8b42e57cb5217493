package domain

import "errors"

// Kind classifies a service-layer failure. Every error surfaced by the
// service layer carries exactly one kind; the HTTP boundary maps kinds to
// status codes in one place.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized" // no or invalid identity
	KindForbidden    Kind = "forbidden"    // authenticated but policy denies
	KindNotFound     Kind = "not_found"    // referenced resource absent
	KindBadRequest   Kind = "bad_request"  // invalid business operation
	KindInternal     Kind = "internal"     // unexpected storage or other failure
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unauthorized builds an unauthorized error.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// Forbidden builds a forbidden error.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NotFound builds a not-found error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// BadRequest builds a bad-request error.
func BadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf extracts the kind of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
