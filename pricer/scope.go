package pricer

import (
	"errors"
	"fmt"
	"math"

	"github.com/meenmo/morisk/bump"
	"github.com/meenmo/morisk/curve"
)

// Scope records every mutation made through it so that Release can undo them
// in reverse order. Callers defer Release right after creating the scope so
// state is restored on every exit path.
type Scope struct {
	undo []restorer
}

type restorer struct {
	what string
	fn   func() error
}

func NewScope() *Scope { return &Scope{} }

// Len reports the number of pending restorations.
func (s *Scope) Len() int { return len(s.undo) }

// Defer registers an arbitrary restoration step.
func (s *Scope) Defer(what string, fn func() error) {
	s.undo = append(s.undo, restorer{what: what, fn: fn})
}

// SetTerm writes v to the named term after recording its current value.
func (s *Scope) SetTerm(p Pricer, name string, v float64) error {
	old, err := p.Term(name)
	if err != nil {
		return err
	}
	s.Defer(p.Name()+"."+name, func() error {
		if err := p.SetTerm(name, old); err != nil {
			return err
		}
		got, err := p.Term(name)
		if err != nil {
			return err
		}
		if !sameFloat(got, old) {
			return fmt.Errorf("%s.%s reads %v after restore, want %v", p.Name(), name, got, old)
		}
		return nil
	})
	return p.SetTerm(name, v)
}

// BumpTenor bumps a tenor quote with its handler after snapshotting it.
func (s *Scope) BumpTenor(t *curve.Tenor, size float64, flags bump.Flags) (float64, error) {
	state := t.Snapshot()
	s.Defer("tenor "+t.Name, func() error {
		state.Restore()
		if !sameFloat(t.Quote(), state.Quote()) {
			return fmt.Errorf("tenor %s reads %v after restore, want %v", t.Name, t.Quote(), state.Quote())
		}
		return nil
	})
	return t.Bump(size, flags)
}

// Release runs every restoration step, last first. All steps run even if one
// fails; any failure is reported as ErrRestorationFailure.
func (s *Scope) Release() error {
	var errs []error
	for i := len(s.undo) - 1; i >= 0; i-- {
		r := s.undo[i]
		if err := r.fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.what, err))
		}
	}
	s.undo = s.undo[:0]
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrRestorationFailure, errors.Join(errs...))
	}
	return nil
}

func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}
