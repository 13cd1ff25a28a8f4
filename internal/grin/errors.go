package grin

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrorCode is the complete error taxonomy of the contract.
type ErrorCode int32

const (
	NoError ErrorCode = iota
	UnknownError
	InvalidValue
	UnknownDatatype
)

func (c ErrorCode) String() string {
	switch c {
	case NoError:
		return "no_error"
	case UnknownError:
		return "unknown_error"
	case InvalidValue:
		return "invalid_value"
	case UnknownDatatype:
		return "unknown_datatype"
	default:
		return fmt.Sprintf("error_code(%d)", int32(c))
	}
}

// Error is returned by every fallible operation of an engine.
type Error struct {
	Code ErrorCode
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same code and no Op, so the package
// sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Op == "" && t.Err == nil
}

var (
	ErrInvalidValue    = &Error{Code: InvalidValue}
	ErrUnknownDatatype = &Error{Code: UnknownDatatype}
	ErrUnknown         = &Error{Code: UnknownError}

	// ErrUnsupported is returned by helpers when the engine lacks the
	// capability for the requested operation.
	ErrUnsupported = &Error{Code: InvalidValue, Op: "capability", Err: errors.New("operation not supported by backend")}
)

// InvalidValuef builds an InvalidValue error for op.
func InvalidValuef(op, format string, args ...any) error {
	return &Error{Code: InvalidValue, Op: op, Err: fmt.Errorf(format, args...)}
}

// UnknownDatatypef builds an UnknownDatatype error for op.
func UnknownDatatypef(op, format string, args ...any) error {
	return &Error{Code: UnknownDatatype, Op: op, Err: fmt.Errorf(format, args...)}
}

// Internal wraps a backend failure as UnknownError. A nil err stays nil and
// an err that already carries a code is returned unchanged.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return err
	}
	return &Error{Code: UnknownError, Op: op, Err: err}
}

// CodeOf maps any error onto the taxonomy.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return NoError
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return UnknownError
}

// ErrorSlot keeps the code of the last recorded call. Each goroutine that
// wants last-error semantics owns its own slot.
type ErrorSlot struct {
	last atomic.Int32
}

// Record stores the code of err (NoError for nil) and returns err.
func (s *ErrorSlot) Record(err error) error {
	s.last.Store(int32(CodeOf(err)))
	return err
}

// LastError returns the code stored by the most recent Record.
func (s *ErrorSlot) LastError() ErrorCode {
	return ErrorCode(s.last.Load())
}
