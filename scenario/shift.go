package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/meenmo/morisk/bump"
)

// ErrInvalidScenario is returned for malformed scenario definitions.
var ErrInvalidScenario = errors.New("invalid scenario")

// ShiftType selects how a ValueShift's magnitude is applied.
type ShiftType int

const (
	None ShiftType = iota
	Absolute
	Relative
	// Specified replaces the value with the magnitude.
	Specified
)

var shiftTypeNames = [...]string{"None", "Absolute", "Relative", "Specified"}

func (t ShiftType) String() string {
	if t < 0 || int(t) >= len(shiftTypeNames) {
		return fmt.Sprintf("ShiftType(%d)", int(t))
	}
	return shiftTypeNames[t]
}

// ParseShiftType reads a shift type name case-insensitively.
func ParseShiftType(s string) (ShiftType, error) {
	for i, n := range shiftTypeNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return ShiftType(i), nil
		}
	}
	return None, fmt.Errorf("%w: unknown shift type %q", ErrInvalidScenario, s)
}

func (t ShiftType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *ShiftType) UnmarshalText(b []byte) error {
	v, err := ParseShiftType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ValueShift is one shift: a type and a magnitude.
type ValueShift struct {
	Type      ShiftType `yaml:"type" json:"type"`
	Magnitude float64   `yaml:"magnitude" json:"magnitude"`
}

// Apply returns the shifted value of current.
func (s ValueShift) Apply(current float64) (float64, error) {
	return Bump(current, s.Type, s.Magnitude)
}

// Bump shifts current by magnitude according to t.
//
// Relative shifts use the same algebraic rule as quote bumps: a positive
// magnitude increases the signed value (current*(1+m) when current >= 0) and a
// negative one decreases it, so opposite shifts of equal size cancel exactly.
func Bump(current float64, t ShiftType, magnitude float64) (float64, error) {
	switch t {
	case None:
		return current, nil
	case Absolute:
		return current + magnitude, nil
	case Relative:
		return bump.Apply(current, magnitude, 1, bump.Relative)
	case Specified:
		return magnitude, nil
	default:
		return current, fmt.Errorf("%w: %v", ErrInvalidScenario, t)
	}
}

// ShiftPricerTerms is one scenario: shifts applied together to named terms,
// in declared order.
type ShiftPricerTerms struct {
	Name   string
	Terms  []string
	Shifts []ValueShift
}

// NewShiftPricerTerms builds and validates a scenario.
func NewShiftPricerTerms(name string, terms []string, shifts []ValueShift) (ShiftPricerTerms, error) {
	s := ShiftPricerTerms{Name: name, Terms: terms, Shifts: shifts}
	return s, s.Validate()
}

// Single is a one-term scenario.
func Single(term string, t ShiftType, magnitude float64) ShiftPricerTerms {
	return ShiftPricerTerms{
		Name:   fmt.Sprintf("%s %s %g", term, t, magnitude),
		Terms:  []string{term},
		Shifts: []ValueShift{{Type: t, Magnitude: magnitude}},
	}
}

// Validate checks that terms and shifts line up and terms are unique.
func (s ShiftPricerTerms) Validate() error {
	if len(s.Terms) != len(s.Shifts) {
		return fmt.Errorf("%w: %q has %d terms and %d shifts", ErrInvalidScenario, s.Name, len(s.Terms), len(s.Shifts))
	}
	seen := make(map[string]struct{}, len(s.Terms))
	for _, t := range s.Terms {
		if _, dup := seen[t]; dup {
			return fmt.Errorf("%w: %q repeats term %s", ErrInvalidScenario, s.Name, t)
		}
		seen[t] = struct{}{}
	}
	return nil
}
