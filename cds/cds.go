// Package cds prices single-name credit default swaps off a credit spread
// curve using the credit triangle for hazard rates and a flat discount rate.
package cds

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/meenmo/morisk/bump"
	"github.com/meenmo/morisk/curve"
	"github.com/meenmo/morisk/pricer"
	"github.com/meenmo/morisk/utils"
)

// Options are evaluation settings. They are passed explicitly; there is no
// package-level switch.
type Options struct {
	// IncludeAccruedOnDefault pays the premium accrued since the last coupon
	// when default happens mid-period (half a period on average).
	IncludeAccruedOnDefault bool
}

// Params defines a protection-buyer CDS position.
type Params struct {
	Name      string
	TradeDate time.Time
	Maturity  time.Time
	// Frequency is premium payments per year (4 for standard contracts).
	Frequency int
	// Coupon is the running premium as a decimal (0.01 == 100bp).
	Coupon   float64
	Notional float64
	// DiscountRate is a flat continuously compounded rate.
	DiscountRate float64
	// Recovery overrides the recovery carried by the curve handlers when > 0.
	Recovery float64
	// Curve holds conventional spreads on credit-spread tenors.
	Curve   *curve.Curve
	Options Options
}

type period struct {
	start, end float64 // ACT/365F years from trade date
	accrual    float64 // premium day count
}

// CDS prices a protection-buyer position.
//
// Terms: Coupon, Notional, DiscountRate, Recovery and one term per spread
// tenor. Measures: Pv, ProductPv (protection leg), FeePv, Rpv01, ParSpread.
type CDS struct {
	pricer.Base

	coupon, notional, rate, recovery float64
	periods                          []period
	curve                            *curve.Curve
	opts                             Options
}

// New builds a CDS pricer.
func New(p Params) (*CDS, error) {
	if p.Curve == nil {
		return nil, fmt.Errorf("cds %s: Curve is required", p.Name)
	}
	if p.Frequency <= 0 || 12%p.Frequency != 0 {
		return nil, fmt.Errorf("cds %s: unsupported frequency %d", p.Name, p.Frequency)
	}
	if !p.Maturity.After(p.TradeDate) {
		return nil, fmt.Errorf("cds %s: maturity must be after trade date", p.Name)
	}
	ref := refData(p.Curve)
	recovery := ref.Recovery
	if p.Recovery > 0 {
		recovery = p.Recovery
	}

	c := &CDS{
		Base:     pricer.NewBase(p.Name),
		coupon:   p.Coupon,
		notional: p.Notional,
		rate:     p.DiscountRate,
		recovery: recovery,
		curve:    p.Curve,
		opts:     p.Options,
	}
	c.periods = buildPeriods(p.TradeDate, p.Maturity, p.Frequency, ref.DayCount)

	c.RegisterFloat("Coupon", &c.coupon)
	c.RegisterFloat("Notional", &c.notional)
	c.RegisterFloat("DiscountRate", &c.rate)
	c.RegisterTerm("Recovery", func() float64 { return c.recovery }, func(v float64) error {
		if v < 0 || v >= 1 {
			return fmt.Errorf("recovery %v outside [0, 1)", v)
		}
		c.recovery = v
		return nil
	})
	for _, t := range c.curve.Tenors() {
		t := t
		c.RegisterTerm(t.Name, t.Quote, func(v float64) error {
			t.SetQuote(v)
			return nil
		})
	}

	c.RegisterMeasure("ProductPv", func() (float64, error) { return c.notional * c.protectionLeg(), nil })
	c.RegisterMeasure("FeePv", func() (float64, error) { return c.notional * c.coupon * c.rpv01(c.opts), nil })
	c.RegisterMeasure("Rpv01", func() (float64, error) { return c.rpv01(c.opts), nil })
	c.RegisterMeasure("Pv", func() (float64, error) { return c.PvWith(c.opts), nil })
	c.RegisterMeasure("ParSpread", c.ParSpread)
	return c, nil
}

func refData(c *curve.Curve) bump.RefData {
	for _, t := range c.Tenors() {
		if t.Convention() == bump.CreditSpread {
			return t.Handler().RefData()
		}
	}
	return bump.RefData{Recovery: 0.4, DayCount: "ACT/360"}
}

func buildPeriods(trade, maturity time.Time, freq int, dayCount string) []period {
	months := 12 / freq
	var dates []time.Time
	for d := maturity; d.After(trade); d = utils.AddMonth(maturity, -months*(len(dates))) {
		dates = append(dates, d)
	}
	out := make([]period, 0, len(dates))
	prev := trade
	for i := len(dates) - 1; i >= 0; i-- {
		end := dates[i]
		out = append(out, period{
			start:   utils.YearFraction(trade, prev, "ACT/365F"),
			end:     utils.YearFraction(trade, end, "ACT/365F"),
			accrual: utils.YearFraction(prev, end, dayCount),
		})
		prev = end
	}
	return out
}

// Tenors exposes the spread curve tenors.
func (c *CDS) Tenors() []*curve.Tenor { return c.curve.Tenors() }

// WithOptions swaps the evaluation options and returns a func restoring the
// previous ones.
func (c *CDS) WithOptions(o Options) (restore func()) {
	prev := c.opts
	c.opts = o
	return func() { c.opts = prev }
}

func (c *CDS) df(t float64) float64 { return math.Exp(-c.rate * t) }

// survival returns Q(t) at every period end. Hazard on each period is the
// spread at the period midpoint over (1 - R).
func (c *CDS) survival() []float64 {
	q := make([]float64, len(c.periods))
	cum := 0.0
	lgd := 1 - c.recovery
	for i, p := range c.periods {
		hazard := c.curve.QuoteAt(0.5*(p.start+p.end)) / lgd
		cum += hazard * (p.end - p.start)
		q[i] = math.Exp(-cum)
	}
	return q
}

func (c *CDS) protectionLeg() float64 {
	q := c.survival()
	legs := make([]float64, len(c.periods))
	prevQ := 1.0
	for i, p := range c.periods {
		legs[i] = (1 - c.recovery) * c.df(0.5*(p.start+p.end)) * (prevQ - q[i])
		prevQ = q[i]
	}
	return floats.Sum(legs)
}

func (c *CDS) rpv01(o Options) float64 {
	q := c.survival()
	legs := make([]float64, len(c.periods))
	prevQ := 1.0
	for i, p := range c.periods {
		legs[i] = p.accrual * c.df(p.end) * q[i]
		if o.IncludeAccruedOnDefault {
			legs[i] += 0.5 * p.accrual * c.df(0.5*(p.start+p.end)) * (prevQ - q[i])
		}
		prevQ = q[i]
	}
	return floats.Sum(legs)
}

// PvWith values the protection-buyer position under explicit options.
func (c *CDS) PvWith(o Options) float64 {
	return c.notional * (c.protectionLeg() - c.coupon*c.rpv01(o))
}

// ParSpread is the running coupon that sets Pv to zero under the current options.
func (c *CDS) ParSpread() (float64, error) {
	r := c.rpv01(c.opts)
	if r == 0 {
		return 0, errors.New("zero risky annuity")
	}
	return c.protectionLeg() / r, nil
}
