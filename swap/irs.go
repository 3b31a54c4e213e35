package swap

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/meenmo/morisk/curve"
	"github.com/meenmo/morisk/pricer"
)

// Swap prices a fixed-vs-float interest rate swap on one bootstrapped curve.
//
// Terms: FixedRate, Notional, FloatSpreadBP and one term per curve tenor (the
// tenor name, e.g. "5Y"). Reset rebootstraps the curve from the tenor quotes.
// Measures: Pv, FixedLegPv, FloatLegPv, ParRate, Annuity.
type Swap struct {
	pricer.Base

	direction Position
	fixedRate float64
	notional  float64
	spreadBP  float64

	// accrual periods of the fixed leg
	starts []float64
	ends   []float64
	taus   []float64

	curve *curve.Curve
	cfg   curve.Config
	disc  *curve.Discount
}

// New builds a swap pricer and bootstraps its curve.
func New(p Params) (*Swap, error) {
	if p.Curve == nil {
		return nil, fmt.Errorf("swap %s: Curve is required", p.Name)
	}
	if p.TenorYears <= 0 {
		return nil, fmt.Errorf("swap %s: TenorYears must be positive", p.Name)
	}
	if p.FixedFrequency <= 0 {
		return nil, fmt.Errorf("swap %s: FixedFrequency must be positive", p.Name)
	}
	if p.Direction == "" {
		p.Direction = PositionReceive
	}
	cfg := p.CurveConfig
	if cfg.GridStepMonths == 0 {
		cfg = curve.DefaultConfig()
	}

	s := &Swap{
		Base:      pricer.NewBase(p.Name),
		direction: p.Direction,
		fixedRate: p.FixedRate,
		notional:  p.Notional,
		spreadBP:  p.FloatSpreadBP,
		curve:     p.Curve,
		cfg:       cfg,
	}
	s.buildPeriods(p.StartYears, p.TenorYears, p.FixedFrequency)

	s.RegisterFloat("FixedRate", &s.fixedRate)
	s.RegisterFloat("Notional", &s.notional)
	s.RegisterFloat("FloatSpreadBP", &s.spreadBP)
	for _, t := range s.curve.Tenors() {
		t := t
		s.RegisterTerm(t.Name, t.Quote, func(v float64) error {
			t.SetQuote(v)
			return nil
		})
	}

	s.RegisterMeasure("Pv", s.NPV)
	s.RegisterMeasure("FixedLegPv", func() (float64, error) { return s.fixedLegPV(), nil })
	s.RegisterMeasure("FloatLegPv", func() (float64, error) { return s.floatLegPV(), nil })
	s.RegisterMeasure("ParRate", s.ParRate)
	s.RegisterMeasure("Annuity", func() (float64, error) { return s.annuity(), nil })
	s.OnReset(s.rebuild)

	if err := s.rebuild(); err != nil {
		return nil, fmt.Errorf("swap %s: %w", p.Name, err)
	}
	return s, nil
}

func (s *Swap) buildPeriods(start, tenor float64, freq int) {
	n := int(math.Round(tenor * float64(freq)))
	if n < 1 {
		n = 1
	}
	tau := tenor / float64(n)
	for i := 0; i < n; i++ {
		a := start + float64(i)*tau
		s.starts = append(s.starts, a)
		s.ends = append(s.ends, a+tau)
		s.taus = append(s.taus, tau)
	}
}

func (s *Swap) rebuild() error {
	d, err := curve.Bootstrap(s.curve, s.cfg)
	if err != nil {
		return err
	}
	s.disc = d
	return nil
}

// Tenors exposes the curve tenors for key-rate sensitivities.
func (s *Swap) Tenors() []*curve.Tenor { return s.curve.Tenors() }

// Tenor looks up one curve tenor by label.
func (s *Swap) Tenor(name string) (*curve.Tenor, error) { return s.curve.Tenor(name) }

func (s *Swap) dfs(times []float64) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = s.disc.DF(t)
	}
	return out
}

// annuity is the value of 1 unit of fixed rate per unit notional.
func (s *Swap) annuity() float64 {
	return floats.Dot(s.taus, s.dfs(s.ends))
}

func (s *Swap) fixedLegPV() float64 {
	return s.notional * s.fixedRate * s.annuity()
}

// floatLegPV uses single-curve telescoping: sum of forward accruals equals
// DF(start) - DF(end), plus the spread annuity.
func (s *Swap) floatLegPV() float64 {
	first := s.disc.DF(s.starts[0])
	last := s.disc.DF(s.ends[len(s.ends)-1])
	return s.notional * (first - last + s.spreadBP*1e-4*s.annuity())
}

// NPV is from the position's perspective.
func (s *Swap) NPV() (float64, error) {
	if s.disc == nil {
		return 0, errors.New("curve not built")
	}
	fixed, floating := s.fixedLegPV(), s.floatLegPV()
	if s.direction == PositionReceive {
		return fixed - floating, nil
	}
	return floating - fixed, nil
}

// ParRate is the fixed rate that sets NPV to zero.
func (s *Swap) ParRate() (float64, error) {
	a := s.annuity()
	if a == 0 {
		return 0, errors.New("zero annuity")
	}
	first := s.disc.DF(s.starts[0])
	last := s.disc.DF(s.ends[len(s.ends)-1])
	return (first-last)/a + s.spreadBP*1e-4, nil
}
