package domain

import "errors"

// Error kinds shared across the service. Callers wrap these with
// fmt.Errorf("%w: ...") and the HTTP layer translates them to status codes.
var (
	// ErrValidation marks bad or missing caller input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an absent entity or external record.
	ErrNotFound = errors.New("not found")
	// ErrUpstream marks an unreachable or erroring external provider.
	ErrUpstream = errors.New("upstream provider error")
)
