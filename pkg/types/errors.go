package types

import "errors"

// Domain errors for type validation
var (
	// Scored chunk errors
	ErrInvalidChunkID = errors.New("invalid chunk ID")
	ErrMissingRef     = errors.New("display ref is required")
	ErrInvalidScore   = errors.New("score must be a finite number")
	ErrEmptyContent   = errors.New("content cannot be empty")
)
