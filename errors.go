package view

import "errors"

// Common errors
var (
	ErrDuplicateOption    = errors.New("option kind supplied more than once")
	ErrUnknownKind        = errors.New("unknown option kind")
	ErrUndeclaredKind     = errors.New("option kind not declared by property bag")
	ErrNoDefault          = errors.New("option kind has no default value")
	ErrIncompatibleOption = errors.New("option not allowed here")
	ErrAllocation         = errors.New("allocation could not be satisfied")
	ErrRankMismatch       = errors.New("index count does not match view rank")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrInvalidShape       = errors.New("invalid shape")
	ErrExtentMismatch     = errors.New("extents do not match")
)
