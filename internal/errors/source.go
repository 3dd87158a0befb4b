package errors

import "fmt"

// BaseError is a common structure for all custom errors
type BaseError struct {
	ErrType string
	Err     error
}

func (e *BaseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.ErrType, e.Err)
}

func (e *BaseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Custom error types
type (
	// SnapshotError is returned when a snapshot file exists but cannot be
	// decoded.
	SnapshotError struct {
		BaseError
		File string
	}

	// PlatformError is returned by the platform client. Status is the HTTP
	// status code, 0 when the request never got a response.
	PlatformError struct {
		BaseError
		Entity string
		Status int
	}
)

// Constructor functions
func NewSnapshotError(file string, err error) *SnapshotError {
	return &SnapshotError{BaseError: BaseError{ErrType: "SnapshotError", Err: err}, File: file}
}

func NewPlatformError(entity string, status int, err error) *PlatformError {
	return &PlatformError{BaseError: BaseError{ErrType: "PlatformError", Err: err}, Entity: entity, Status: status}
}
