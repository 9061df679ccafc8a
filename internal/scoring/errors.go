package scoring

import "errors"

var (
	// ErrInvalidParameter is returned when a configuration value is outside its valid domain.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInsufficientData is returned when a required input collection is empty.
	ErrInsufficientData = errors.New("insufficient data")
)
