package bond

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/morisk/calendar"
	"github.com/meenmo/morisk/curve"
	"github.com/meenmo/morisk/pricer"
	"github.com/meenmo/morisk/utils"
)

// Params defines a fixed-rate bullet bond position.
type Params struct {
	Name       string
	Settlement time.Time
	Maturity   time.Time
	// CouponRate is a decimal (0.025 == 2.5%).
	CouponRate float64
	// Frequency is coupons per year (1 = annual, 2 = semi-annual).
	Frequency int
	Calendar  calendar.CalendarID
	// Notional is the face amount held, in currency units.
	Notional float64
	// Yield is the quoted yield to maturity as a decimal.
	Yield float64

	// Cashflows, when set, replace the generated schedule. They must be the
	// flows after settlement, per 100 face, with PrevCoupon the accrual start.
	Cashflows  []Cashflow
	PrevCoupon time.Time

	// Curve, when set, enables the AswSpread measure. Its tenors hold par swap
	// rates and are exposed as terms.
	Curve       *curve.Curve
	CurveConfig curve.Config
}

// FixedRateBond prices a bullet bond off its yield.
//
// Terms: BondYield, Notional, and one term per swap curve tenor when a curve is
// attached. Measures: Pv (dirty value), ProductPv (clean value), DirtyPrice,
// CleanPrice, Accrued, ModifiedDuration and, with a curve, AswSpread (bp).
type FixedRateBond struct {
	pricer.Base

	sched    schedule
	notional float64
	yield    float64

	curve    *curve.Curve
	curveCfg curve.Config
	disc     *curve.Discount
}

// New builds a bond pricer.
func New(p Params) (*FixedRateBond, error) {
	if p.Settlement.IsZero() {
		return nil, fmt.Errorf("bond %s: Settlement is required", p.Name)
	}
	if p.Frequency <= 0 {
		return nil, fmt.Errorf("bond %s: Frequency must be positive", p.Name)
	}

	cfs, prev := p.Cashflows, p.PrevCoupon
	if len(cfs) == 0 {
		var err error
		cfs, prev, err = GenerateCashflows(p.Settlement, p.Maturity, p.CouponRate, p.Frequency, p.Calendar)
		if err != nil {
			return nil, fmt.Errorf("bond %s: %w", p.Name, err)
		}
	} else if prev.IsZero() {
		prev = utils.AddMonth(cfs[0].Date, -12/p.Frequency)
	}

	b := &FixedRateBond{
		Base:     pricer.NewBase(p.Name),
		sched:    schedule{settlement: p.Settlement, prevCoupon: prev, frequency: p.Frequency, cashflows: cfs},
		notional: p.Notional,
		yield:    p.Yield,
		curve:    p.Curve,
		curveCfg: p.CurveConfig,
	}

	b.RegisterTerm("BondYield", func() float64 { return b.yield }, func(v float64) error {
		if v <= -float64(p.Frequency) {
			return fmt.Errorf("yield %v below -frequency", v)
		}
		b.yield = v
		return nil
	})
	b.RegisterFloat("Notional", &b.notional)

	b.RegisterMeasure("DirtyPrice", func() (float64, error) { return b.DirtyPrice(), nil })
	b.RegisterMeasure("CleanPrice", func() (float64, error) { return b.CleanPrice(), nil })
	b.RegisterMeasure("Accrued", func() (float64, error) { return b.sched.accrued(), nil })
	b.RegisterMeasure("Pv", func() (float64, error) { return b.notional * b.DirtyPrice() / 100, nil })
	b.RegisterMeasure("ProductPv", func() (float64, error) { return b.notional * b.CleanPrice() / 100, nil })
	b.RegisterMeasure("ModifiedDuration", b.ModifiedDuration)

	if b.curve != nil {
		if b.curveCfg.GridStepMonths == 0 {
			b.curveCfg = curve.DefaultConfig()
		}
		for _, t := range b.curve.Tenors() {
			t := t
			b.RegisterTerm(t.Name, t.Quote, func(v float64) error {
				t.SetQuote(v)
				return nil
			})
		}
		b.RegisterMeasure("AswSpread", b.AswSpread)
		b.OnReset(b.rebuild)
		if err := b.rebuild(); err != nil {
			return nil, fmt.Errorf("bond %s: %w", p.Name, err)
		}
	}
	return b, nil
}

func (b *FixedRateBond) rebuild() error {
	d, err := curve.Bootstrap(b.curve, b.curveCfg)
	if err != nil {
		return err
	}
	b.disc = d
	return nil
}

// Tenors exposes the swap curve tenors, if any.
func (b *FixedRateBond) Tenors() []*curve.Tenor {
	if b.curve == nil {
		return nil
	}
	return b.curve.Tenors()
}

// DirtyPrice is the price per 100 at the current yield.
func (b *FixedRateBond) DirtyPrice() float64 {
	p, _ := b.sched.dirtyPriceAndDeriv(b.yield)
	return p
}

// CleanPrice is the dirty price less accrued.
func (b *FixedRateBond) CleanPrice() float64 {
	return b.DirtyPrice() - b.sched.accrued()
}

// ModifiedDuration is -dP/dy / P.
func (b *FixedRateBond) ModifiedDuration() (float64, error) {
	p, d := b.sched.dirtyPriceAndDeriv(b.yield)
	if p == 0 {
		return 0, errors.New("zero price")
	}
	return -d / p, nil
}

// SolveYield returns the yield reproducing a clean price per 100. The bond's
// own yield is left unchanged.
func (b *FixedRateBond) SolveYield(cleanPrice float64) (float64, error) {
	y, _, err := solveYield(cleanPrice+b.sched.accrued(), b.sched)
	return y, err
}

// AswSpread computes the par asset swap spread (in bp) using the approximation:
//
//	ASW ≈ (PV_bond^{rf} - P_dirty) / PV01
//
// where PV01 is the value of 1bp paid on the coupon schedule, discounted on the
// swap curve with ACT/365F times from settlement.
func (b *FixedRateBond) AswSpread() (float64, error) {
	if b.disc == nil {
		return 0, errors.New("no swap curve")
	}
	s := b.sched
	yearsTo := func(t time.Time) float64 { return utils.YearFraction(s.settlement, t, "ACT/365F") }

	pvRF := 0.0
	pv01 := 0.0
	start := s.settlement
	for _, cf := range s.cashflows {
		df := b.disc.DF(yearsTo(cf.Date))
		pvRF += cf.Amount() * df
		pv01 += 100 * 1e-4 * utils.YearFraction(start, cf.Date, "ACT/365F") * df
		start = cf.Date
	}
	if pv01 == 0 {
		return 0, errors.New("PV01 is zero")
	}
	return (pvRF - b.DirtyPrice()) / pv01, nil
}
