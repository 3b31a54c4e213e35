// Package pricer defines the capability set the bump and scenario engine
// consumes from instrument pricers, plus an embeddable implementation backed
// by explicit term and measure registries.
package pricer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/meenmo/morisk/curve"
)

var (
	// ErrUnknownTerm is returned when a term name is not registered on a pricer.
	ErrUnknownTerm = errors.New("unknown term")
	// ErrUnknownMeasure is returned when a measure name is not registered on a pricer.
	ErrUnknownMeasure = errors.New("unknown measure")
	// ErrMeasureEvaluation wraps failures raised by a measure accessor.
	ErrMeasureEvaluation = errors.New("measure evaluation failed")
	// ErrRestorationFailure means bumped state could not be rolled back.
	ErrRestorationFailure = errors.New("restoration failed")
)

// Pricer exposes named numeric terms and named measures.
type Pricer interface {
	Name() string
	Term(name string) (float64, error)
	SetTerm(name string, v float64) error
	// Reset refreshes cached state (curves, schedules) derived from terms.
	Reset() error
	Measure(name string) (float64, error)
	TermNames() []string
	MeasureNames() []string
}

// CurvePricer is a pricer whose market data lives on curve tenors.
type CurvePricer interface {
	Pricer
	Tenors() []*curve.Tenor
}

// Getter reads a term.
type Getter func() float64

// Setter writes a term; it may reject values outside the term's domain.
type Setter func(float64) error

type term struct {
	get Getter
	set Setter
}

// Base implements Pricer over registries filled at construction. Instrument
// types embed it and register their accessors in their constructor.
type Base struct {
	name     string
	terms    map[string]term
	measures map[string]func() (float64, error)
	reset    func() error
}

// NewBase returns an empty registry set for the named pricer.
func NewBase(name string) Base {
	return Base{
		name:     name,
		terms:    make(map[string]term),
		measures: make(map[string]func() (float64, error)),
	}
}

func (b *Base) Name() string { return b.name }

// RegisterTerm binds a term name to a typed accessor pair.
func (b *Base) RegisterTerm(name string, get Getter, set Setter) {
	b.terms[name] = term{get: get, set: set}
}

// RegisterFloat binds a term to a float field with no validation.
func (b *Base) RegisterFloat(name string, field *float64) {
	b.RegisterTerm(name, func() float64 { return *field }, func(v float64) error {
		*field = v
		return nil
	})
}

// RegisterMeasure binds a measure name to its accessor.
func (b *Base) RegisterMeasure(name string, f func() (float64, error)) {
	b.measures[name] = f
}

// OnReset sets the hook run by Reset.
func (b *Base) OnReset(f func() error) { b.reset = f }

func (b *Base) Term(name string) (float64, error) {
	t, ok := b.terms[name]
	if !ok {
		return 0, fmt.Errorf("%s: %w: %s", b.name, ErrUnknownTerm, name)
	}
	return t.get(), nil
}

func (b *Base) SetTerm(name string, v float64) error {
	t, ok := b.terms[name]
	if !ok {
		return fmt.Errorf("%s: %w: %s", b.name, ErrUnknownTerm, name)
	}
	if err := t.set(v); err != nil {
		return fmt.Errorf("%s: set %s: %w", b.name, name, err)
	}
	return nil
}

func (b *Base) Reset() error {
	if b.reset == nil {
		return nil
	}
	if err := b.reset(); err != nil {
		return fmt.Errorf("%s: reset: %w", b.name, err)
	}
	return nil
}

func (b *Base) Measure(name string) (float64, error) {
	f, ok := b.measures[name]
	if !ok {
		return 0, fmt.Errorf("%s: %w: %s", b.name, ErrUnknownMeasure, name)
	}
	v, err := f()
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w: %w", b.name, name, ErrMeasureEvaluation, err)
	}
	return v, nil
}

func (b *Base) TermNames() []string    { return sortedKeys(b.terms) }
func (b *Base) MeasureNames() []string { return sortedKeys(b.measures) }

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
