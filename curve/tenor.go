package curve

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/meenmo/morisk/bump"
)

var (
	// ErrInvalidTenor is returned when a tenor label cannot be parsed.
	ErrInvalidTenor = errors.New("invalid tenor")
	// ErrUnknownTenor is returned when a named tenor is not on the curve.
	ErrUnknownTenor = errors.New("unknown tenor")
)

// Tenor is one quoted point of a term structure. The quote is the only
// mutable field; every bump goes through the attached handler.
type Tenor struct {
	Name    string
	Product string

	years   float64
	quote   float64
	handler bump.Handler
}

// NewTenor builds a tenor from a label such as "1W", "3M" or "10Y".
func NewTenor(name, product string, quote float64, h bump.Handler) (*Tenor, error) {
	if h == nil {
		return nil, fmt.Errorf("NewTenor %s: handler is required", name)
	}
	years, err := ParseTenor(name)
	if err != nil {
		return nil, err
	}
	return &Tenor{Name: name, Product: product, years: years, quote: quote, handler: h}, nil
}

func (t *Tenor) Quote() float64              { return t.quote }
func (t *Tenor) SetQuote(q float64)          { t.quote = q }
func (t *Tenor) Handler() bump.Handler       { return t.handler }
func (t *Tenor) Years() float64              { return t.years }
func (t *Tenor) Convention() bump.Convention { return t.handler.Convention() }

// Bump applies the handler's arithmetic to the quote and returns the applied amount.
func (t *Tenor) Bump(size float64, flags bump.Flags) (float64, error) {
	applied, err := t.handler.BumpQuote(t, size, flags)
	if err != nil {
		return 0, fmt.Errorf("tenor %s: %w", t.Name, err)
	}
	return applied, nil
}

// TenorState is a saved quote that can be written back exactly.
type TenorState struct {
	tenor *Tenor
	quote float64
}

// Snapshot captures the current quote.
func (t *Tenor) Snapshot() TenorState {
	return TenorState{tenor: t, quote: t.quote}
}

func (s TenorState) Tenor() *Tenor  { return s.tenor }
func (s TenorState) Quote() float64 { return s.quote }

// Restore writes the saved quote back.
func (s TenorState) Restore() {
	s.tenor.quote = s.quote
}

// ParseTenor converts tenor labels like "1W", "3M", "10Y" to year fractions.
// Bare numbers are read as years.
func ParseTenor(label string) (float64, error) {
	s := strings.TrimSpace(strings.ToUpper(label))
	if s == "" {
		return 0, fmt.Errorf("%w: empty label", ErrInvalidTenor)
	}
	unit := s[len(s)-1]
	var div float64
	switch unit {
	case 'D':
		div = 365
	case 'W':
		div = 365.0 / 7.0
	case 'M':
		div = 12
	case 'Y':
		div = 1
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTenor, label)
		}
		return v, nil
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTenor, label)
	}
	return float64(n) / div, nil
}
