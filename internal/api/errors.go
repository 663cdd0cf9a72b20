package api

import "errors"

// Kind classifies a client error.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation means the call was rejected locally; no request was sent.
	KindValidation
	// KindRequestFailed covers transport failures and non-2xx responses.
	KindRequestFailed
	// KindSessionExpired is a 401 on an authenticated call. The credential
	// store has already been cleared.
	KindSessionExpired
	// KindNoCredential means no credential was stored; no request was sent.
	KindNoCredential
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRequestFailed:
		return "request_failed"
	case KindSessionExpired:
		return "session_expired"
	case KindNoCredential:
		return "no_credential"
	default:
		return "unknown"
	}
}

const (
	SessionExpiredMessage = "Session expired. Please login again."
	NoCredentialMessage   = "No authentication token found"
)

// Error is returned by every client method.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Op      string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return e.Op + ": " + e.Message
}

// Is matches the package sentinels by kind. Session expiry and a missing
// credential also match ErrRequestFailed.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" || t.Op != "" {
		return false
	}
	if t.Kind == e.Kind {
		return true
	}
	return t.Kind == KindRequestFailed && (e.Kind == KindSessionExpired || e.Kind == KindNoCredential)
}

var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrRequestFailed  = &Error{Kind: KindRequestFailed}
	ErrSessionExpired = &Error{Kind: KindSessionExpired}
	ErrNoCredential   = &Error{Kind: KindNoCredential}
)

// KindOf reports the kind of err, KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf returns the user-facing message carried by err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Validation builds a KindValidation error.
func Validation(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}
