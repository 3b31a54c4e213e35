package bump

import (
	"fmt"
	"sort"
)

// Factory builds a handler for one tenor from its reference data.
type Factory func(RefData) Handler

// Registry maps quoting conventions to handler factories. New conventions can
// be registered without touching the scenario driver or the Greeks code.
type Registry struct {
	factories map[Convention]Factory
}

// NewRegistry returns a registry with the built-in conventions registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[Convention]Factory, 4)}
	r.Register(CreditSpread, NewCreditSpreadHandler)
	r.Register(Yield, NewYieldHandler)
	r.Register(Price, NewPriceHandler)
	r.Register(Upfront, NewUpfrontHandler)
	return r
}

// Register adds or replaces the factory for conv.
func (r *Registry) Register(conv Convention, f Factory) {
	if r.factories == nil {
		r.factories = make(map[Convention]Factory)
	}
	r.factories[conv] = f
}

// Resolve builds the handler registered for conv.
func (r *Registry) Resolve(conv Convention, ref RefData) (Handler, error) {
	f, ok := r.factories[conv]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConvention, conv)
	}
	return f(ref), nil
}

// Conventions lists the registered conventions in sorted order.
func (r *Registry) Conventions() []Convention {
	out := make([]Convention, 0, len(r.factories))
	for c := range r.factories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
