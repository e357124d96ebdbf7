package keyspace

import (
	"errors"
	"fmt"
)

// ErrorType classifies client failures. Domain types surface errors the
// server encoded in a response body; transport and malformed-response types
// are fatal and indicate no interpretable body was available.
type ErrorType string

const (
	// ErrorTypeKeyNotFound is returned by read-style operations (Get,
	// GetNode, Update, ListDir) when the body carries an error code.
	ErrorTypeKeyNotFound ErrorType = "key_not_found"

	// ErrorTypeKeyExists is returned by creation operations guarded with
	// prevExist=false (Create, CreateDir) when the key is already present.
	ErrorTypeKeyExists ErrorType = "key_exists"

	// ErrorTypeDomain covers error bodies on the remaining write and delete
	// operations, and locally detected precondition violations.
	ErrorTypeDomain ErrorType = "domain"

	// ErrorTypeMalformedResponse means the response body was not valid JSON.
	ErrorTypeMalformedResponse ErrorType = "malformed_response"

	// ErrorTypeTransport means the HTTP call failed without carrying any
	// response body to interpret.
	ErrorTypeTransport ErrorType = "transport"
)

// Error is the error type returned by every Client operation. Code and
// Message carry the server's errorCode and message verbatim when the failure
// was decoded from a response body.
type Error struct {
	Type    ErrorType
	Code    int
	Key     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("keyspace: %s", e.Type)
	if e.Key != "" {
		msg = fmt.Sprintf("%s key=%s", msg, e.Key)
	}
	if e.Code != 0 {
		msg = fmt.Sprintf("%s code=%d", msg, e.Code)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches errors by type, so errors.Is(err, &Error{Type: ...}) works.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*Error); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// IsKeyNotFound reports whether err represents a missing key.
func IsKeyNotFound(err error) bool {
	return hasType(err, ErrorTypeKeyNotFound)
}

// IsKeyExists reports whether err represents a failed prevExist=false create.
func IsKeyExists(err error) bool {
	return hasType(err, ErrorTypeKeyExists)
}

// IsTransport reports whether err is a fatal transport failure, i.e. whether
// retrying the call might succeed where re-interpreting it cannot.
func IsTransport(err error) bool {
	return hasType(err, ErrorTypeTransport)
}

// IsMalformedResponse reports whether err was caused by an undecodable body.
func IsMalformedResponse(err error) bool {
	return hasType(err, ErrorTypeMalformedResponse)
}

func hasType(err error, t ErrorType) bool {
	var keysErr *Error
	if errors.As(err, &keysErr) {
		return keysErr.Type == t
	}
	return false
}
