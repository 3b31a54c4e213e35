package curve

import (
	"errors"
	"fmt"
	"sort"
)

// ErrEmptyCurve is returned when a curve is built without tenors.
var ErrEmptyCurve = errors.New("empty curve")

// Curve is an ordered set of tenors of a single product, sorted by maturity.
type Curve struct {
	Name   string
	tenors []*Tenor
	index  map[string]*Tenor
}

// New builds a curve. Tenor names must be unique.
func New(name string, tenors []*Tenor) (*Curve, error) {
	if len(tenors) == 0 {
		return nil, fmt.Errorf("curve %s: %w", name, ErrEmptyCurve)
	}
	c := &Curve{
		Name:   name,
		tenors: append([]*Tenor(nil), tenors...),
		index:  make(map[string]*Tenor, len(tenors)),
	}
	for _, t := range c.tenors {
		if _, dup := c.index[t.Name]; dup {
			return nil, fmt.Errorf("curve %s: duplicate tenor %s", name, t.Name)
		}
		c.index[t.Name] = t
	}
	sort.SliceStable(c.tenors, func(i, j int) bool {
		return c.tenors[i].years < c.tenors[j].years
	})
	return c, nil
}

// Tenors returns the tenors in maturity order. The slice is shared; the
// tenors are the live quote holders.
func (c *Curve) Tenors() []*Tenor { return c.tenors }

// Tenor looks up a tenor by name.
func (c *Curve) Tenor(name string) (*Tenor, error) {
	t, ok := c.index[name]
	if !ok {
		return nil, fmt.Errorf("curve %s: %w: %s", c.Name, ErrUnknownTenor, name)
	}
	return t, nil
}

// QuoteAt linearly interpolates the tenor quotes at t years, flat outside the
// quoted range.
func (c *Curve) QuoteAt(t float64) float64 {
	ts := c.tenors
	if t <= ts[0].years {
		return ts[0].quote
	}
	last := ts[len(ts)-1]
	if t >= last.years {
		return last.quote
	}
	i := sort.Search(len(ts), func(i int) bool { return ts[i].years >= t })
	lo, hi := ts[i-1], ts[i]
	if hi.years == lo.years {
		return hi.quote
	}
	return lo.quote + (hi.quote-lo.quote)*(t-lo.years)/(hi.years-lo.years)
}

// State is a saved copy of every quote on a curve.
type State []TenorState

// Snapshot captures every tenor quote.
func (c *Curve) Snapshot() State {
	s := make(State, len(c.tenors))
	for i, t := range c.tenors {
		s[i] = t.Snapshot()
	}
	return s
}

// Restore writes every saved quote back, last tenor first.
func (s State) Restore() {
	for i := len(s) - 1; i >= 0; i-- {
		s[i].Restore()
	}
}
