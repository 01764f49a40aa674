package types

// Win32 error codes returned by the IP Helper routing functions.
const (
	Win32FileNotFound        uint32 = 2
	Win32AccessDenied        uint32 = 5
	Win32InvalidHandle       uint32 = 6
	Win32NotSupported        uint32 = 50
	Win32InvalidParameter    uint32 = 87
	Win32NotFound            uint32 = 1168
	Win32ObjectAlreadyExists uint32 = 5010
)

// ClassifyWin32 maps a Win32 error code onto the route error taxonomy.
func ClassifyWin32(code uint32) RouteErrorType {
	switch code {
	case Win32ObjectAlreadyExists:
		return RouteErrAlreadyExists
	case Win32NotFound, Win32FileNotFound:
		return RouteErrNotFound
	case Win32AccessDenied:
		return RouteErrPermission
	case Win32InvalidParameter:
		return RouteErrInvalidParameter
	case Win32InvalidHandle:
		return RouteErrHandleClosed
	case Win32NotSupported:
		return RouteErrUnsupported
	default:
		return RouteErrOS
	}
}

// FromWin32 wraps a failed native call. A zero code yields nil.
func FromWin32(op, destination string, code uint32, cause error) error {
	if code == 0 {
		return nil
	}
	return &RouteOperationError{
		ErrorType:   ClassifyWin32(code),
		Op:          op,
		Destination: destination,
		Code:        code,
		Cause:       cause,
	}
}
