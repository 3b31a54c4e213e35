// Package option prices European options on forwards (futures options,
// swaptions on a forward swap rate) with the Black-76 model.
package option

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/meenmo/morisk/pricer"
)

// Kind is call or put.
type Kind string

const (
	Call Kind = "CALL"
	Put  Kind = "PUT"
)

// ParseKind accepts call/put (also payer/receiver for swaptions).
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CALL", "PAYER":
		return Call, nil
	case "PUT", "RECEIVER":
		return Put, nil
	default:
		return "", fmt.Errorf("invalid option kind %q", s)
	}
}

// Params defines a Black-76 position.
type Params struct {
	Name       string
	Kind       Kind
	Forward    float64
	Strike     float64
	Volatility float64 // lognormal, annualized decimal
	Rate       float64 // continuously compounded discount rate
	Expiry     float64 // years
	// Notional multiplies the unit price (annuity x notional for swaptions).
	Notional float64
}

// Black prices a European option on a forward.
//
// Terms: Forward, Strike, Volatility, Rate, Expiry, Notional.
// Measures: Pv, AnalyticDelta, AnalyticGamma, AnalyticVega.
type Black struct {
	pricer.Base

	kind                   Kind
	fwd, strike, vol, rate float64
	expiry, notional       float64
}

var errNonPositive = errors.New("must be positive")

// New builds a Black-76 pricer.
func New(p Params) (*Black, error) {
	if p.Kind != Call && p.Kind != Put {
		return nil, fmt.Errorf("option %s: invalid kind %q", p.Name, p.Kind)
	}
	if p.Notional == 0 {
		p.Notional = 1
	}
	b := &Black{
		Base:     pricer.NewBase(p.Name),
		kind:     p.Kind,
		fwd:      p.Forward,
		strike:   p.Strike,
		vol:      p.Volatility,
		rate:     p.Rate,
		expiry:   p.Expiry,
		notional: p.Notional,
	}
	b.RegisterTerm("Forward", func() float64 { return b.fwd }, positive(&b.fwd))
	b.RegisterTerm("Strike", func() float64 { return b.strike }, positive(&b.strike))
	b.RegisterTerm("Volatility", func() float64 { return b.vol }, nonNegative(&b.vol))
	b.RegisterTerm("Expiry", func() float64 { return b.expiry }, nonNegative(&b.expiry))
	b.RegisterFloat("Rate", &b.rate)
	b.RegisterFloat("Notional", &b.notional)

	b.RegisterMeasure("Pv", b.PV)
	b.RegisterMeasure("AnalyticDelta", func() (float64, error) { return b.greeks().delta, nil })
	b.RegisterMeasure("AnalyticGamma", func() (float64, error) { return b.greeks().gamma, nil })
	b.RegisterMeasure("AnalyticVega", func() (float64, error) { return b.greeks().vega, nil })
	return b, nil
}

func positive(field *float64) pricer.Setter {
	return func(v float64) error {
		if v <= 0 {
			return fmt.Errorf("%v %w", v, errNonPositive)
		}
		*field = v
		return nil
	}
}

func nonNegative(field *float64) pricer.Setter {
	return func(v float64) error {
		if v < 0 {
			return fmt.Errorf("%v must be non-negative", v)
		}
		*field = v
		return nil
	}
}

type greeks struct {
	price, delta, gamma, vega float64
}

// greeks evaluates the Black-76 price and analytic sensitivities:
//
//	d1 = (ln(F/K) + σ²T/2) / (σ√T),  d2 = d1 − σ√T
//	call = e^{−rT} (F N(d1) − K N(d2)),  put = e^{−rT} (K N(−d2) − F N(−d1))
func (b *Black) greeks() greeks {
	df := math.Exp(-b.rate * b.expiry)
	sdev := b.vol * math.Sqrt(b.expiry)
	if sdev == 0 {
		intrinsic := b.fwd - b.strike
		if b.kind == Put {
			intrinsic = -intrinsic
		}
		g := greeks{price: b.notional * df * math.Max(intrinsic, 0)}
		if intrinsic > 0 {
			g.delta = b.notional * df
			if b.kind == Put {
				g.delta = -g.delta
			}
		}
		return g
	}

	n := distuv.UnitNormal
	d1 := (math.Log(b.fwd/b.strike) + 0.5*sdev*sdev) / sdev
	d2 := d1 - sdev

	g := greeks{
		gamma: b.notional * df * n.Prob(d1) / (b.fwd * sdev),
		vega:  b.notional * df * b.fwd * n.Prob(d1) * math.Sqrt(b.expiry),
	}
	if b.kind == Call {
		g.price = b.notional * df * (b.fwd*n.CDF(d1) - b.strike*n.CDF(d2))
		g.delta = b.notional * df * n.CDF(d1)
	} else {
		g.price = b.notional * df * (b.strike*n.CDF(-d2) - b.fwd*n.CDF(-d1))
		g.delta = -b.notional * df * n.CDF(-d1)
	}
	return g
}

// PV is the option premium.
func (b *Black) PV() (float64, error) {
	if b.fwd <= 0 || b.strike <= 0 {
		return 0, fmt.Errorf("forward and strike %w", errNonPositive)
	}
	return b.greeks().price, nil
}
