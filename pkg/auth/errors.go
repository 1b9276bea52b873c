package auth

import "errors"

// ErrorKind classifies verification failures
type ErrorKind int

const (
	// ErrMissing means no token was presented
	ErrMissing ErrorKind = iota + 1
	// ErrInvalid covers malformed, expired and badly signed tokens
	ErrInvalid
	// ErrRoleMismatch means a valid token of the wrong kind
	ErrRoleMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMissing:
		return "missing"
	case ErrInvalid:
		return "invalid"
	case ErrRoleMismatch:
		return "role_mismatch"
	}
	return "unknown"
}

// Error is returned by Manager.Verify. Err holds the underlying cause and is
// for logs only.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "auth: token " + e.Kind.String() + ": " + e.Err.Error()
	}
	return "auth: token " + e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the ErrorKind from err, or 0 when err is not an *Error
func KindOf(err error) ErrorKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}
