package bond

import (
	"fmt"
	"math"
	"time"
)

// ---------------------------------------------------------------------------
// Newton-Raphson solver (unexported)
// ---------------------------------------------------------------------------

const (
	yieldTolerance = 1e-12
	yieldMaxIter   = 100
	yieldFloor     = -0.05
	yieldCeiling   = 0.50
)

// solveYield finds y such that dirtyPrice(y) == target via Newton-Raphson.
func solveYield(target float64, s schedule) (float64, int, error) {
	// Initial guess: mid-range (2.5 %).
	y := 0.025

	for iter := 0; iter < yieldMaxIter; iter++ {
		price, dPdy := s.dirtyPriceAndDeriv(y)
		f := price - target

		if math.Abs(f) < yieldTolerance {
			return y, iter + 1, nil
		}
		if math.Abs(dPdy) < 1e-15 {
			return y, iter + 1, fmt.Errorf("SolveYield: derivative too small at iter %d", iter)
		}

		y = clamp(y-f/dPdy, yieldFloor, yieldCeiling)
	}

	return y, yieldMaxIter, fmt.Errorf("SolveYield: did not converge after %d iterations", yieldMaxIter)
}

// schedule is the discounting view of a bond's remaining cashflows.
type schedule struct {
	settlement time.Time
	prevCoupon time.Time
	frequency  int
	cashflows  []Cashflow
}

// dirtyPriceAndDeriv returns (price, dPrice/dy) per 100 using ACT/ACT ICMA.
//
//	t_1  = days(settlement, cf[0]) / days(prevCoupon, cf[0])   (fractional first period)
//	t_k  = t_1 + (k − 1)                                       (coupon period steps)
//	price = Σ CF_k / (1+y/f)^t_k
//	dP/dy = Σ −(t_k/f) · CF_k / (1+y/f)^(t_k+1)
func (s schedule) dirtyPriceAndDeriv(y float64) (float64, float64) {
	if len(s.cashflows) == 0 {
		return 0, 0
	}

	f := float64(s.frequency)
	t1 := float64(daysBetween(s.settlement, s.cashflows[0].Date)) / float64(daysBetween(s.prevCoupon, s.cashflows[0].Date))

	var price, deriv float64
	for i, cf := range s.cashflows {
		t := t1 + float64(i)
		amt := cf.Amount()
		price += amt / math.Pow(1.0+y/f, t)
		deriv += -(t / f) * amt / math.Pow(1.0+y/f, t+1)
	}

	return price, deriv
}

// accrued returns the accrued coupon per 100 at settlement.
func (s schedule) accrued() float64 {
	if len(s.cashflows) == 0 {
		return 0
	}
	daysAccrued := daysBetween(s.prevCoupon, s.settlement)
	daysPeriod := daysBetween(s.prevCoupon, s.cashflows[0].Date)
	if daysPeriod <= 0 {
		return 0
	}
	return s.cashflows[0].Coupon * float64(daysAccrued) / float64(daysPeriod)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// daysBetween returns the number of calendar days from start to end (ACT).
func daysBetween(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Hours() / 24))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
