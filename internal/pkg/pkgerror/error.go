package pkgerror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned by stores when a lookup misses.
var ErrNotFound = errors.New("resource not found")

// Type decides how much of an Error the caller gets to see.
type Type int

const (
	TypeServer     Type = iota // cause stays in the logs
	TypeBusiness               // message only
	TypeValidation             // message plus cause
)

func (t Type) String() string {
	switch t {
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code identifies a failure class and its HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooLarge
	CodeRateLimited
)

type codeInfo struct {
	name   string
	status int
}

//nolint:gochecknoglobals // lookup table
var codes = map[Code]codeInfo{
	CodeInternal:      {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat: {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:  {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:      {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:      {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeTooLarge:      {"ERROR_CODE_TOO_LARGE", http.StatusRequestEntityTooLarge},
	CodeRateLimited:   {"ERROR_CODE_RATE_LIMITED", http.StatusTooManyRequests},
}

func (c Code) info() codeInfo {
	if ci, ok := codes[c]; ok {
		return ci
	}
	return codes[CodeInternal]
}

func (c Code) String() string { return c.info().name }

// Status returns the HTTP status for c. Unknown codes map to 500.
func (c Code) Status() int { return c.info().status }

// Error pairs a caller-facing message with an optional cause.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
}

// Error returns the cause when present so logs keep the detail; callers
// display Msg instead.
func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	}

	switch e.errType {
	case TypeValidation:
		return "validation failed"
	case TypeBusiness:
		return "request rejected"
	default:
		return "internal error"
	}
}

func (e *Error) String() string {
	return fmt.Sprintf("type=%s code=%s msg=%q cause=%v", e.errType, e.code, e.msg, e.err)
}

func (e *Error) Msg() string { return e.msg }
func (e *Error) Type() Type { return e.errType }
func (e *Error) Code() Code { return e.code }
func (e *Error) Unwrap() error { return e.err }
func (e *Error) StatusCode() int { return e.code.Status() }

func new(err error, msg string, et Type, code Code) error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer hides err behind a generic message.
func NewServer(err error) error {
	return new(err, "Internal server error", TypeServer, CodeInternal)
}

// NewBusiness rejects a well-formed request, e.g. a lookup miss or a state conflict.
func NewBusiness(msg string, code Code) error {
	return new(nil, msg, TypeBusiness, code)
}

// NewInvalidInput wraps a field-level failure under a generic message.
func NewInvalidInput(err error) error {
	return new(err, "validation error", TypeValidation, CodeInvalidInput)
}

// NewValidation shows msg as-is and exposes err as the reason.
func NewValidation(msg string, code Code, err error) error {
	return new(err, msg, TypeValidation, code)
}

func NewRateLimited() error {
	return new(nil, "too many requests, slow down", TypeBusiness, CodeRateLimited)
}

// NewInvalidFormat reports a body that could not be decoded at all.
func NewInvalidFormat() error {
	return new(nil, "invalid request body", TypeValidation, CodeInvalidFormat)
}
