// Package domainerrors provides coded errors that cross layer boundaries.
//
// Every failure the protocol can raise carries a Code (the taxonomy bucket a
// caller branches on) and, for protocol failures, a Reason: the stable
// machine-checkable identifier such as "CallerNotHolder". Reasons are declared
// once as package-level values and compared with errors.Is.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies an error for callers and transports.
type Code string

const (
	// Authorization: caller lacks a role or relationship.
	CodeUnauthorized Code = "unauthorized"
	// State: operation invalid for the current lifecycle state.
	CodeInvalidState Code = "invalid_state"
	// Validation: malformed or mismatched input.
	CodeValidation Code = "validation"
	// CrossChain: untrusted sender or unusable bridge configuration.
	CodeCrossChain Code = "cross_chain"
	// Paused: the registry is paused.
	CodePaused Code = "paused"

	CodeBadRequest         Code = "bad_request"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal"
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is a coded error with an optional protocol reason and cause.
type Error struct {
	Code    Code
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Reason
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same code and reason. Errors without a
// reason only match themselves.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Reason == "" {
		return false
	}
	return e.Code == t.Code && e.Reason == t.Reason
}

// New returns an error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Reason declares a protocol failure identifier. The returned value is meant
// to be stored in a package-level var and returned as is.
func Reason(code Code, reason string) *Error {
	return &Error{Code: code, Reason: reason}
}

// Because returns a copy of a reason error carrying cause. The copy still
// matches the reason with errors.Is.
func (e *Error) Because(cause error) error {
	c := *e
	c.Err = cause
	return &c
}

// Wrap annotates err with a code and message. A nil err stays nil.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in the chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// ReasonOf returns the first protocol reason found in the chain.
func ReasonOf(err error) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return ""
		}
		if e.Reason != "" {
			return e.Reason
		}
		err = e.Err
	}
	return ""
}

// ToHTTPStatus maps a code to the status a transport should answer with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeInvalidState, CodeConflict:
		return http.StatusConflict
	case CodeValidation, CodeBadRequest, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodePaused:
		return http.StatusLocked
	case CodeCrossChain:
		return http.StatusBadGateway
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
