package envelope

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ENC_ERR_PAYLOAD_TOO_LARGE       ErrorCode = "ENC_ERR_PAYLOAD_TOO_LARGE"
	ENC_ERR_UNSUPPORTED_PUSH_OPCODE ErrorCode = "ENC_ERR_UNSUPPORTED_PUSH_OPCODE"
	ENC_ERR_TRUNCATED_INPUT         ErrorCode = "ENC_ERR_TRUNCATED_INPUT"

	BUILD_ERR_INVALID_FIELD_LENGTH ErrorCode = "BUILD_ERR_INVALID_FIELD_LENGTH"
	BUILD_ERR_ENVELOPE_TOO_LARGE   ErrorCode = "BUILD_ERR_ENVELOPE_TOO_LARGE"
	BUILD_ERR_REDEEM_TOO_LARGE     ErrorCode = "BUILD_ERR_REDEEM_TOO_LARGE"
	BUILD_ERR_MISSING_PARAMETER    ErrorCode = "BUILD_ERR_MISSING_PARAMETER"
	BUILD_ERR_INVALID_PARAMETER    ErrorCode = "BUILD_ERR_INVALID_PARAMETER"

	PARSE_ERR_MARKER_NOT_FOUND        ErrorCode = "PARSE_ERR_MARKER_NOT_FOUND"
	PARSE_ERR_EXTRA_MARKER_NOT_FOUND  ErrorCode = "PARSE_ERR_EXTRA_MARKER_NOT_FOUND"
	PARSE_ERR_EXTRA_OUT_OF_BOUNDS     ErrorCode = "PARSE_ERR_EXTRA_OUT_OF_BOUNDS"
	PARSE_ERR_CONTENT_OUT_OF_BOUNDS   ErrorCode = "PARSE_ERR_CONTENT_OUT_OF_BOUNDS"
	PARSE_ERR_UNSUPPORTED_PUSH_OPCODE ErrorCode = "PARSE_ERR_UNSUPPORTED_PUSH_OPCODE"
	PARSE_ERR_TRUNCATED_INPUT         ErrorCode = "PARSE_ERR_TRUNCATED_INPUT"
)

// Parse stages reported alongside parser errors.
const (
	StageMarker  = "marker"
	StageExtra   = "extra-lane"
	StageContent = "content-lane"
)

// Error is the single error type returned by this package. Offset is the
// byte position in the input at which the failure was detected, or -1 when
// the failure is not tied to an input position (most build errors).
type Error struct {
	Code   ErrorCode
	Stage  string
	Offset int
	Msg    string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	s := string(e.Code)
	if e.Stage != "" {
		s += " [" + e.Stage
		if e.Offset >= 0 {
			s += fmt.Sprintf(" @%d", e.Offset)
		}
		s += "]"
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

func encerr(code ErrorCode, off int, msg string) error {
	return &Error{Code: code, Offset: off, Msg: msg}
}

func builderr(code ErrorCode, msg string) error {
	return &Error{Code: code, Offset: -1, Msg: msg}
}

func parseerr(code ErrorCode, stage string, off int, msg string) error {
	return &Error{Code: code, Stage: stage, Offset: off, Msg: msg}
}

// framingParseErr lifts a push-length codec error into the parser taxonomy,
// keeping the offset and the opcode detail.
func framingParseErr(err error, stage string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	code := PARSE_ERR_TRUNCATED_INPUT
	if e.Code == ENC_ERR_UNSUPPORTED_PUSH_OPCODE {
		code = PARSE_ERR_UNSUPPORTED_PUSH_OPCODE
	}
	return parseerr(code, stage, e.Offset, e.Msg)
}

// IsErrorCode reports whether err is an *Error carrying code.
func IsErrorCode(err error, code ErrorCode) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// CodeOf returns the code of err, or "" when err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Code
}
