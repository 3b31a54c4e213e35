package bump

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidBumpMagnitude is returned when a relative bump of a negative
	// quote has a magnitude of 1 or more.
	ErrInvalidBumpMagnitude = errors.New("invalid bump magnitude")
	// ErrUnknownConvention is returned by Registry.Resolve for unregistered conventions.
	ErrUnknownConvention = errors.New("unknown quote convention")
)

// Apply returns the bumped level of quote q.
//
// A negative size flips the direction requested by flags; |size| is the
// magnitude. Absolute bumps move q by |size|*unit. Relative bumps move the
// signed value algebraically so that an up bump followed by a down bump of the
// same size restores q exactly:
//
//	increase: q >= 0: q*(1+m)   q < 0: q*(1-m)
//	decrease: q >= 0: q/(1+m)   q < 0: q/(1-m)
//
// A negative quote only admits m < 1 in either direction: larger factors
// would cross zero or divide by a non-positive number.
func Apply(q, size, unit float64, flags Flags) (float64, error) {
	if size == 0 {
		return q, nil
	}
	if math.IsNaN(size) || math.IsInf(size, 0) {
		return q, fmt.Errorf("%w: %v", ErrInvalidBumpMagnitude, size)
	}

	up := !flags.IsDown()
	if size < 0 {
		up = !up
	}
	m := math.Abs(size)

	if !flags.IsRelative() {
		if up {
			return q + m*unit, nil
		}
		return q - m*unit, nil
	}

	if q < 0 && m >= 1 {
		return q, fmt.Errorf("%w: relative bump of negative quote %v by %v", ErrInvalidBumpMagnitude, q, m)
	}
	switch {
	case up && q >= 0:
		return q * (1 + m), nil
	case up:
		return q * (1 - m), nil
	case q >= 0:
		return q / (1 + m), nil
	default:
		return q / (1 - m), nil
	}
}
