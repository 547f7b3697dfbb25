package errors

import "errors"

// Sentinel errors for the failure classes the pipeline distinguishes.
var (
	// ErrSchemaViolation indicates that a structured model output failed to
	// parse or validate against its expected shape.
	ErrSchemaViolation = errors.New("structured output schema violation")

	// ErrBackendUnavailable indicates that the generation or search backend
	// was unreachable or timed out.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrUnsupportedInput indicates input rejected at a boundary, such as an
	// unrecognized file type.
	ErrUnsupportedInput = errors.New("unsupported input")

	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("resource not found")
)
