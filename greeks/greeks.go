// Package greeks computes finite-difference sensitivities by bumping tenor
// quotes or pricer terms, repricing, and restoring the original state.
package greeks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/meenmo/morisk/bump"
	"github.com/meenmo/morisk/curve"
	"github.com/meenmo/morisk/pricer"
)

// ErrZeroBump is returned when a bump moved nothing, so no difference quotient exists.
var ErrZeroBump = errors.New("bump applied zero change")

// Mode selects the difference scheme.
type Mode int

const (
	Central Mode = iota
	OneSided
)

func (m Mode) String() string {
	if m == OneSided {
		return "one-sided"
	}
	return "central"
}

// ParseMode accepts "central" and "one-sided" (also "onesided", "forward").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "central":
		return Central, nil
	case "one-sided", "onesided", "forward":
		return OneSided, nil
	default:
		return Central, fmt.Errorf("invalid delta mode %q", s)
	}
}

// BumpQuote bumps a tenor with its own handler and returns the applied amount.
// The quote stays bumped; callers own restoration.
func BumpQuote(t *curve.Tenor, size float64, flags bump.Flags) (float64, error) {
	return t.Bump(size, flags)
}

// Target is what a sensitivity bumps.
type Target struct {
	name  string
	apply func(s *pricer.Scope, p pricer.Pricer, size float64, flags bump.Flags) (float64, error)
}

func (t Target) String() string { return t.name }

// Tenors bumps every listed tenor with its own handler. The applied amount is
// the mean of the per-tenor amounts.
func Tenors(ts ...*curve.Tenor) Target {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name
	}
	return Target{
		name: strings.Join(names, "+"),
		apply: func(s *pricer.Scope, _ pricer.Pricer, size float64, flags bump.Flags) (float64, error) {
			if len(ts) == 0 {
				return 0, errors.New("no tenors to bump")
			}
			total := 0.0
			for _, t := range ts {
				a, err := s.BumpTenor(t, size, flags)
				if err != nil {
					return 0, err
				}
				total += a
			}
			return total / float64(len(ts)), nil
		},
	}
}

// Parallel bumps every tenor of a curve pricer.
func Parallel(p pricer.CurvePricer) Target {
	t := Tenors(p.Tenors()...)
	t.name = "parallel"
	return t
}

// Term bumps a pricer term with h's arithmetic. A nil handler bumps in raw
// units (unit 1).
func Term(name string, h bump.Handler) Target {
	unit := 1.0
	if h != nil {
		unit = h.Unit()
	}
	return Target{
		name: name,
		apply: func(s *pricer.Scope, p pricer.Pricer, size float64, flags bump.Flags) (float64, error) {
			old, err := p.Term(name)
			if err != nil {
				return 0, err
			}
			v, err := bump.Apply(old, size, unit, flags)
			if err != nil {
				return 0, fmt.Errorf("term %s: %w", name, err)
			}
			if err := s.SetTerm(p, name, v); err != nil {
				return 0, err
			}
			return v - old, nil
		},
	}
}

// Result holds the evaluations behind one sensitivity.
type Result struct {
	Measure     string
	Base        float64
	Up          float64
	Down        float64
	AppliedUp   float64
	AppliedDown float64
	// Value is the difference quotient per unit of quote change.
	Value float64
}

// Option configures a calculation.
type Option func(*settings)

type settings struct {
	log zerolog.Logger
}

// WithLogger logs each bumped evaluation at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.log = l }
}

func newSettings(opts []Option) settings {
	s := settings{log: zerolog.Nop()}
	for _, o := range opts {
		o(&s)
	}
	return s
}

// Delta is the first derivative of measure with respect to target.
//
//	Central:  (PV(up) - PV(down)) / (aUp - aDown)
//	OneSided: (PV(up) - PV(base)) / aUp
func Delta(p pricer.Pricer, target Target, measure string, size float64, flags bump.Flags, mode Mode, opts ...Option) (Result, error) {
	cfg := newSettings(opts)
	r := Result{Measure: measure}

	base, err := p.Measure(measure)
	if err != nil {
		return r, err
	}
	r.Base = base

	r.Up, r.AppliedUp, err = evaluate(p, target, measure, size, flags, cfg)
	if err != nil {
		return r, err
	}

	if mode == OneSided {
		if r.AppliedUp == 0 {
			return r, fmt.Errorf("delta %s on %s: %w", measure, target, ErrZeroBump)
		}
		r.Down = base
		r.Value = (r.Up - base) / r.AppliedUp
		return r, nil
	}

	r.Down, r.AppliedDown, err = evaluate(p, target, measure, size, flags.Flip(), cfg)
	if err != nil {
		return r, err
	}
	if r.AppliedUp == r.AppliedDown {
		return r, fmt.Errorf("delta %s on %s: %w", measure, target, ErrZeroBump)
	}
	r.Value = (r.Up - r.Down) / (r.AppliedUp - r.AppliedDown)
	return r, nil
}

// Gamma is the second derivative from a down/base/up triple. Steps may be
// uneven (relative bumps); with hu == hd == h it is (up - 2 base + down) / h².
func Gamma(p pricer.Pricer, target Target, measure string, size float64, flags bump.Flags, opts ...Option) (Result, error) {
	r, err := Delta(p, target, measure, size, flags, Central, opts...)
	if err != nil {
		return r, err
	}
	hu, hd := r.AppliedUp, -r.AppliedDown
	if hu == 0 || hd == 0 {
		return r, fmt.Errorf("gamma %s on %s: %w", measure, target, ErrZeroBump)
	}
	r.Value = 2 * (r.Up*hd + r.Down*hu - r.Base*(hu+hd)) / (hu * hd * (hu + hd))
	return r, nil
}

// Vega is the central delta to a volatility term, bumped absolutely in the
// term's own units.
func Vega(p pricer.Pricer, volTerm, measure string, size float64, opts ...Option) (Result, error) {
	return Delta(p, Term(volTerm, nil), measure, size, bump.Absolute, Central, opts...)
}

// evaluate bumps target, resets p, reads measure, then restores and resets
// again. Restoration runs on every path.
func evaluate(p pricer.Pricer, target Target, measure string, size float64, flags bump.Flags, cfg settings) (value, applied float64, err error) {
	scope := pricer.NewScope()
	defer func() {
		if scope.Len() == 0 {
			return
		}
		if rerr := scope.Release(); rerr != nil {
			err = rerr
			return
		}
		if rerr := p.Reset(); rerr != nil {
			err = fmt.Errorf("%w: reset after restore: %w", pricer.ErrRestorationFailure, rerr)
		}
	}()

	applied, err = target.apply(scope, p, size, flags)
	if err != nil {
		return 0, 0, err
	}
	if err = p.Reset(); err != nil {
		return 0, applied, fmt.Errorf("reset %s: %w", p.Name(), err)
	}
	value, err = p.Measure(measure)
	if err != nil {
		return 0, applied, err
	}

	cfg.log.Debug().
		Str("pricer", p.Name()).
		Str("target", target.String()).
		Str("measure", measure).
		Stringer("flags", flags).
		Float64("applied", applied).
		Float64("value", value).
		Msg("bumped evaluation")
	return value, applied, nil
}
