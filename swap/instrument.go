package swap

import (
	"fmt"
	"strings"

	"github.com/meenmo/morisk/curve"
)

// Position describes whether the swap receives or pays the fixed leg.
type Position string

const (
	PositionReceive Position = "REC"
	PositionPay     Position = "PAY"
)

// ParsePosition accepts REC/PAY case-insensitively.
func ParsePosition(s string) (Position, error) {
	switch p := Position(strings.ToUpper(strings.TrimSpace(s))); p {
	case PositionReceive, PositionPay:
		return p, nil
	default:
		return "", fmt.Errorf("invalid position %q: want REC or PAY", s)
	}
}

// Params captures the economic terms of a single-curve fixed-vs-float swap.
//
// Times are year fractions from the curve's spot date.
type Params struct {
	Name string
	// StartYears is the forward start (0 for spot-starting swaps).
	StartYears float64
	// TenorYears is the swap length after StartYears.
	TenorYears float64
	// FixedFrequency is fixed payments per year (4 = quarterly, KRX style).
	FixedFrequency int
	Direction      Position
	// FixedRate is a decimal (0.0324 == 3.24%).
	FixedRate float64
	Notional  float64
	// FloatSpreadBP is added to the floating leg, in basis points.
	FloatSpreadBP float64

	// Curve holds par swap rates (decimal) on yield-handled tenors; it is both
	// the discount and projection curve.
	Curve       *curve.Curve
	CurveConfig curve.Config
}
