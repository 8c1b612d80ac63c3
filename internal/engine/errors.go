package engine

import "fmt"

// ErrorKind classifies a request-level failure.
type ErrorKind string

const (
	MalformedInput     ErrorKind = "malformed_input"
	MissingCommand     ErrorKind = "missing_command"
	UnsupportedCommand ErrorKind = "unsupported_command"
	MissingArgument    ErrorKind = "missing_argument"
	InvalidFormat      ErrorKind = "invalid_format"
	UnknownTimeZone    ErrorKind = "unknown_timezone"
	HandlerFault       ErrorKind = "handler_fault"
)

// Messages written back to clients for the fixed failure cases.
const (
	MessageInvalidJSON    = "Invalid JSON input"
	MessageMissingCommand = "Missing command field"
)

// Error is a request-level failure whose Message is shown to the client as is.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches the underlying cause to a request-level failure.
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// handlerFault converts an arbitrary handler error into the catch-all failure.
func handlerFault(err error) *Error {
	return WrapError(HandlerFault, "Error processing command: "+err.Error(), err)
}
