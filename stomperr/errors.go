// Package stomperr provides the domain error type used throughout the
// connection core, modeled on the teacher repo's domainerrors builder
// pattern (New/WithType/WithDetail/Wrap) but trimmed to what a protocol
// core needs: no HTTP status mapping, no stack capture.
package stomperr

import "fmt"

// Type classifies an Error for callers that branch on error kind
// (die vs async_die vs plain protocol rejection).
type Type string

const (
	TypeProtocol       Type = "protocol"
	TypeValidation     Type = "validation"
	TypeAuthentication Type = "authentication"
	TypeInternal       Type = "internal"
	TypeTimeout        Type = "timeout"
	TypeUnsupported    Type = "unsupported"
	TypeConflict       Type = "conflict"
)

// Error is the domain error this module's ack, transaction and version
// negotiation failures carry. Collaborator interfaces, heart-beat
// header parsing and selector compilation return plain errors.
type Error struct {
	Code    string
	Message string
	Type    Type
	Details map[string]any
	cause   error
}

// New creates an Error with a code and message. Type defaults to
// TypeInternal until WithType is called.
func New(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Type:    TypeInternal,
		Details: make(map[string]any),
	}
}

// WithType sets the error classification and returns the same Error for
// chaining.
func (e *Error) WithType(t Type) *Error {
	e.Type = t
	return e
}

// WithDetail attaches a diagnostic key/value pair.
func (e *Error) WithDetail(key string, value any) *Error {
	e.Details[key] = value
	return e
}

// Wrap records an underlying cause alongside a contextual message.
func (e *Error) Wrap(message string, err error) *Error {
	if err == nil {
		return e
	}
	e.cause = err
	if message != "" {
		e.Details["wrap_context"] = message
	}
	return e
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is allows errors.Is(err, stomperr.New(code, "")) to match on Code alone,
// which is convenient in tests that only care which error fired.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}
