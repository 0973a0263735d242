// Package matcherrors provides sentinel and custom error types for the application.
package matcherrors

// ErrNotFound represents a "not found" error.
// Use when a requested resource doesn't exist.
var ErrNotFound = &NotFoundError{}

// NotFoundError is a sentinel error for resources that are not found.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new NotFoundError with a custom message.
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Resource != "" {
		return e.Resource + " not found"
	}

	return "resource not found"
}

// Is implements the error interface for error comparison.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}

// ErrValidation represents a validation error.
// Use when a loaded record fails validation and must be skipped.
var ErrValidation = &ValidationError{}

// ValidationError is a sentinel error for validation failures.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new ValidationError with a custom message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Field != "" {
		return "validation failed for field: " + e.Field
	}

	return "validation error"
}

// Is implements the error interface for error comparison.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}

// ErrStorage is the sentinel for transient storage errors.
// Use when a database operation failed in a way that is safe to retry.
var ErrStorage = &StorageError{}

// StorageError is a sentinel error for transient storage failures.
type StorageError struct {
	Op      string
	Message string
}

// NewStorageError creates a StorageError for the given operation.
func NewStorageError(op, message string) *StorageError {
	return &StorageError{
		Op:      op,
		Message: message,
	}
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Op != "" {
		return "storage error during " + e.Op
	}

	return "storage error"
}

// Is implements the error interface for error comparison.
func (e *StorageError) Is(target error) bool {
	_, ok := target.(*StorageError)

	return ok
}

// ErrConfig is the sentinel for configuration errors.
var ErrConfig = &ConfigError{}

// ConfigError is a sentinel error for invalid or missing configuration.
type ConfigError struct {
	Key     string
	Message string
}

// NewConfigError creates a ConfigError for the given configuration key.
func NewConfigError(key, message string) *ConfigError {
	return &ConfigError{
		Key:     key,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Key != "" {
		return "invalid configuration: " + e.Key
	}

	return "configuration error"
}

// Is implements the error interface for error comparison.
func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)

	return ok
}

// ErrConflict is the sentinel for conflict errors (e.g. a calibration that was already applied).
var ErrConflict = &ConflictError{}

// ConflictError is a sentinel error for resource conflicts.
type ConflictError struct {
	Message string
}

// NewConflictError creates a ConflictError with a custom message.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "conflict"
}

// Is implements the error interface for error comparison.
func (e *ConflictError) Is(target error) bool {
	_, ok := target.(*ConflictError)

	return ok
}
