package level

import "errors"

var (
	// ErrEmpty indicates a blank level string.
	ErrEmpty = errors.New("empty level")

	// ErrMalformed indicates a level segment that is not a non-negative integer.
	ErrMalformed = errors.New("malformed level")
)
