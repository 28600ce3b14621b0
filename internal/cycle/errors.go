package cycle

import "errors"

// Sentinel errors for the cycle package.
// The engine never returns them; they back the validation helpers used
// at input boundaries. Use errors.Is to check.
var (
	ErrInvalidDate     = errors.New("cycle: invalid date")
	ErrInvalidPriors   = errors.New("cycle: priors out of range")
	ErrInvalidInterval = errors.New("cycle: invalid interval")
)
