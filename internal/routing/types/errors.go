package types

import (
	"errors"
	"fmt"
)

// RouteOperationError represents an error that occurred during route operations
type RouteOperationError struct {
	ErrorType   RouteErrorType
	Op          string // add, delete, list, notify, poll
	Destination string // The route that caused the error, empty for table-wide operations
	Code        uint32 // Win32 error code, zero when the error did not come from the OS
	Cause       error  // Underlying error
}

// RouteErrorType represents the category of routing operation error
type RouteErrorType int

// Route error type constants
const (
	// RouteErrInvalidParameter indicates a malformed route, family mismatch or unknown interface
	RouteErrInvalidParameter RouteErrorType = iota
	// RouteErrAlreadyExists indicates an identical entry is already in the table
	RouteErrAlreadyExists
	// RouteErrNotFound indicates no matching entry exists in the table
	RouteErrNotFound
	// RouteErrPermission indicates insufficient privileges for route operations
	RouteErrPermission
	// RouteErrOS indicates any other native failure
	RouteErrOS
	// RouteErrHandleClosed indicates the operation was attempted after teardown
	RouteErrHandleClosed
	// RouteErrUnsupported indicates the platform has no native routing backend
	RouteErrUnsupported
)

// Sentinels for errors.Is. A *RouteOperationError matches the sentinel of its type.
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrAlreadyExists    = errors.New("route already exists")
	ErrNotFound         = errors.New("route not found")
	ErrPermission       = errors.New("permission denied")
	ErrOS               = errors.New("os error")
	ErrHandleClosed     = errors.New("route manager closed")
	ErrUnsupported      = errors.New("platform not supported")
)

// String returns a string representation of the route error type
func (e RouteErrorType) String() string {
	switch e {
	case RouteErrInvalidParameter:
		return "InvalidParameter"
	case RouteErrAlreadyExists:
		return "AlreadyExists"
	case RouteErrNotFound:
		return "NotFound"
	case RouteErrPermission:
		return "PermissionDenied"
	case RouteErrOS:
		return "OsError"
	case RouteErrHandleClosed:
		return "HandleClosed"
	case RouteErrUnsupported:
		return "Unsupported"
	default:
		return "UnknownError"
	}
}

func (e RouteErrorType) sentinel() error {
	switch e {
	case RouteErrInvalidParameter:
		return ErrInvalidParameter
	case RouteErrAlreadyExists:
		return ErrAlreadyExists
	case RouteErrNotFound:
		return ErrNotFound
	case RouteErrPermission:
		return ErrPermission
	case RouteErrOS:
		return ErrOS
	case RouteErrHandleClosed:
		return ErrHandleClosed
	case RouteErrUnsupported:
		return ErrUnsupported
	default:
		return nil
	}
}

// Error implements the error interface for RouteOperationError
func (roe *RouteOperationError) Error() string {
	msg := fmt.Sprintf("route %s failed [%s]", roe.Op, roe.ErrorType.String())
	if roe.Destination != "" {
		msg += " for " + roe.Destination
	}
	if roe.ErrorType == RouteErrOS && roe.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", roe.Code)
	}
	if roe.Cause != nil {
		msg += ": " + roe.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (roe *RouteOperationError) Unwrap() error {
	return roe.Cause
}

// Is reports whether target is the sentinel for this error's type
func (roe *RouteOperationError) Is(target error) bool {
	s := roe.ErrorType.sentinel()
	return s != nil && s == target
}

// IsPermissionError returns true if the error is due to insufficient privileges
func (roe *RouteOperationError) IsPermissionError() bool {
	return roe.ErrorType == RouteErrPermission
}

// NewError builds a RouteOperationError that did not originate from a Win32 call.
func NewError(errType RouteErrorType, op, destination string, cause error) *RouteOperationError {
	return &RouteOperationError{
		ErrorType:   errType,
		Op:          op,
		Destination: destination,
		Cause:       cause,
	}
}

// Invalid is shorthand for an InvalidParameter error with a formatted reason.
func Invalid(op, destination, format string, args ...any) *RouteOperationError {
	return NewError(RouteErrInvalidParameter, op, destination, fmt.Errorf(format, args...))
}

// Closed returns the error reported by every operation after teardown.
func Closed(op string) *RouteOperationError {
	return NewError(RouteErrHandleClosed, op, "", nil)
}

// TypeOf returns the RouteErrorType carried by err, and false when err is not
// (and does not wrap) a RouteOperationError.
func TypeOf(err error) (RouteErrorType, bool) {
	var roe *RouteOperationError
	if errors.As(err, &roe) {
		return roe.ErrorType, true
	}
	return 0, false
}
