package errors

import "errors"

var (
	// ErrSnapshotNotFound is returned when a school snapshot directory does not exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrUnknownFormat is returned when a report format is not supported.
	ErrUnknownFormat = errors.New("unknown report format")
	// ErrInvalidEntityType is returned when an entity type is empty.
	ErrInvalidEntityType = errors.New("invalid entity type")
	// ErrAPIUnavailable is returned when the platform API cannot be reached or
	// answers with a non success status.
	ErrAPIUnavailable = errors.New("platform api unavailable")
	// ErrUnauthorized is returned when the platform API rejects the token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidConfig is returned when the configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)
