package bridge

import (
	"context"
	"errors"
	"net"
	"syscall"
)

var (
	// Connection errors

	ErrConnectionRefused = errors.New("connection refused")
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrNotConnected      = errors.New("bridge is not connected")

	// Transfer errors

	ErrWriteFailed = errors.New("write failed")
	ErrReadFailed  = errors.New("read failed")

	// Lifecycle errors

	ErrBridgeClosed  = errors.New("bridge is closed")
	ErrInvalidConfig = errors.New("invalid bridge configuration")
)

// ErrorCode classifies a bridge failure.
type ErrorCode int

const (
	ErrorCodeUnknown ErrorCode = 0

	// Connection error codes (1000-1999)

	ErrorCodeConnectFailed     ErrorCode = 1001
	ErrorCodeConnectionRefused ErrorCode = 1002
	ErrorCodeConnectionTimeout ErrorCode = 1003
	ErrorCodeNotConnected      ErrorCode = 1004

	// Transfer error codes (2000-2999)

	ErrorCodeWriteFailed ErrorCode = 2001
	ErrorCodeReadFailed  ErrorCode = 2002

	// Lifecycle error codes (3000-3999)

	ErrorCodeBridgeClosed ErrorCode = 3001
)

// Error is a bridge failure carrying the operation and peer address.
type Error struct {
	Code  ErrorCode
	Op    string
	Addr  string
	Cause error
}

func newError(code ErrorCode, op, addr string, cause error) *Error {
	return &Error{Code: code, Op: op, Addr: addr, Cause: cause}
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := "bridge: " + e.Op
	if e.Addr != "" {
		msg += " " + e.Addr
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel that corresponds to the error code.
func (e *Error) Is(target error) bool {
	switch e.Code {
	case ErrorCodeConnectionRefused:
		return target == ErrConnectionRefused
	case ErrorCodeConnectionTimeout:
		return target == ErrConnectionTimeout
	case ErrorCodeNotConnected:
		return target == ErrNotConnected
	case ErrorCodeWriteFailed:
		return target == ErrWriteFailed
	case ErrorCodeReadFailed:
		return target == ErrReadFailed
	case ErrorCodeBridgeClosed:
		return target == ErrBridgeClosed
	default:
		return false
	}
}

// IsTemporary reports whether retrying the operation later may succeed.
func (e *Error) IsTemporary() bool {
	switch e.Code {
	case ErrorCodeBridgeClosed, ErrorCodeUnknown:
		return false
	default:
		return true
	}
}

// GetErrorCode returns the code of err, or ErrorCodeUnknown.
func GetErrorCode(err error) ErrorCode {
	var bridgeErr *Error
	if errors.As(err, &bridgeErr) {
		return bridgeErr.Code
	}
	switch {
	case errors.Is(err, ErrBridgeClosed):
		return ErrorCodeBridgeClosed
	case errors.Is(err, ErrNotConnected):
		return ErrorCodeNotConnected
	}
	return ErrorCodeUnknown
}

func classifyDialError(err error) ErrorCode {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return ErrorCodeConnectionRefused
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeConnectionTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorCodeConnectionTimeout
	}
	return ErrorCodeConnectFailed
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
