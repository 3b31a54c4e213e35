package scenario

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/meenmo/morisk/pricer"
)

// Options controls a CalcScenario run.
type Options struct {
	// ReevaluateCurves calls Reset on the pricer after shifting and again
	// after restoring, so derived curves follow the terms.
	ReevaluateCurves bool
	// IncludeDelta adds a bumped-minus-base column per measure.
	IncludeDelta bool
	// Cache, when set, supplies and stores base measure values.
	Cache *BaseCache
	// Logger receives run progress; the zero value discards.
	Logger zerolog.Logger
}

type cacheKey struct {
	pricer  string
	measure string
}

// BaseCache keeps unshifted measure values across runs, keyed by pricer name.
// Invalidate a pricer after changing it outside the engine.
type BaseCache struct {
	values map[cacheKey]float64
}

func NewBaseCache() *BaseCache {
	return &BaseCache{values: make(map[cacheKey]float64)}
}

func (c *BaseCache) Get(pricerName, measure string) (float64, bool) {
	v, ok := c.values[cacheKey{pricerName, measure}]
	return v, ok
}

func (c *BaseCache) Put(pricerName, measure string, v float64) {
	c.values[cacheKey{pricerName, measure}] = v
}

// Invalidate drops every cached value of a pricer.
func (c *BaseCache) Invalidate(pricerName string) {
	for k := range c.values {
		if k.pricer == pricerName {
			delete(c.values, k)
		}
	}
}

// CalcScenario applies every scenario to every pricer and tabulates the
// requested measures.
//
// Scenarios run one after another on the shared pricer state. Each scenario's
// term mutations are rolled back before the next one starts, whether or not
// the scenario succeeded. Scenario-level failures (unknown terms, invalid
// magnitudes, reset errors) mark the row and the batch continues; measure
// failures leave NaN cells. A failed rollback aborts the batch with
// pricer.ErrRestorationFailure and returns the rows computed so far.
// Cancelling ctx stops the batch between scenarios.
func CalcScenario(ctx context.Context, pricers []pricer.Pricer, measures []string, scenarios []ShiftPricerTerms, opts Options) (*Table, error) {
	if len(measures) == 0 {
		return nil, fmt.Errorf("CalcScenario: %w: no measures requested", ErrInvalidScenario)
	}
	for _, sc := range scenarios {
		if err := sc.Validate(); err != nil {
			return nil, fmt.Errorf("CalcScenario: %w", err)
		}
	}
	names := make(map[string]struct{}, len(pricers))
	for _, p := range pricers {
		if _, dup := names[p.Name()]; dup {
			return nil, fmt.Errorf("CalcScenario: %w: duplicate pricer name %q", ErrInvalidScenario, p.Name())
		}
		names[p.Name()] = struct{}{}
	}

	table := &Table{
		RunID:        uuid.New(),
		Measures:     append([]string(nil), measures...),
		IncludeDelta: opts.IncludeDelta,
		Rows:         make([]Row, 0, len(pricers)*len(scenarios)),
	}
	log := opts.Logger.With().Str("run", table.RunID.String()).Logger()
	log.Info().
		Int("pricers", len(pricers)).
		Int("scenarios", len(scenarios)).
		Strs("measures", measures).
		Msg("scenario run started")

	for _, p := range pricers {
		base := baseValues(p, measures, opts.Cache)
		for i, sc := range scenarios {
			if err := ctx.Err(); err != nil {
				log.Warn().Err(err).Int("completed", len(table.Rows)).Msg("scenario run cancelled")
				return table, err
			}

			row, err := runScenario(p, i, sc, measures, base, opts)
			table.Rows = append(table.Rows, row)
			if err != nil {
				log.Error().Err(err).Str("pricer", p.Name()).Str("scenario", sc.Name).Msg("restoration failed, aborting run")
				return table, err
			}
			if row.Err != nil {
				log.Warn().Err(row.Err).Str("pricer", p.Name()).Str("scenario", sc.Name).Msg("scenario skipped")
			}
		}
	}

	log.Info().Int("rows", len(table.Rows)).Int("failed", len(table.Failures())).Msg("scenario run finished")
	return table, nil
}

func baseValues(p pricer.Pricer, measures []string, cache *BaseCache) []baseValue {
	out := make([]baseValue, len(measures))
	for i, m := range measures {
		if cache != nil {
			if v, ok := cache.Get(p.Name(), m); ok {
				out[i] = baseValue{v: v}
				continue
			}
		}
		v, err := p.Measure(m)
		if err != nil {
			out[i] = baseValue{v: math.NaN(), err: err}
			continue
		}
		out[i] = baseValue{v: v}
		if cache != nil {
			cache.Put(p.Name(), m, v)
		}
	}
	return out
}

type baseValue struct {
	v   float64
	err error
}

// runScenario applies one scenario to one pricer. The returned error is only
// set when restoration failed; scenario failures are reported on the row.
func runScenario(p pricer.Pricer, idx int, sc ShiftPricerTerms, measures []string, base []baseValue, opts Options) (row Row, fatal error) {
	row = Row{
		Pricer:       p.Name(),
		Scenario:     idx,
		ScenarioName: sc.Name,
		Cells:        make([]Cell, len(measures)),
	}
	if row.ScenarioName == "" {
		row.ScenarioName = fmt.Sprintf("#%d", idx)
	}
	for i := range row.Cells {
		row.Cells[i] = Cell{Base: base[i].v, Value: math.NaN(), Delta: math.NaN(), Err: base[i].err}
	}

	scope := pricer.NewScope()
	defer func() {
		mutated := scope.Len() > 0
		if err := scope.Release(); err != nil {
			fatal = fmt.Errorf("%s scenario %q: %w", p.Name(), row.ScenarioName, err)
			return
		}
		if opts.ReevaluateCurves && mutated {
			if err := p.Reset(); err != nil {
				fatal = fmt.Errorf("%s scenario %q: %w: reset after restore: %w", p.Name(), row.ScenarioName, pricer.ErrRestorationFailure, err)
			}
		}
	}()

	for j, name := range sc.Terms {
		cur, err := p.Term(name)
		if err != nil {
			row.Err = err
			return row, nil
		}
		next, err := sc.Shifts[j].Apply(cur)
		if err != nil {
			row.Err = fmt.Errorf("%s: term %s: %w", p.Name(), name, err)
			return row, nil
		}
		if err := scope.SetTerm(p, name, next); err != nil {
			row.Err = err
			return row, nil
		}
	}

	if opts.ReevaluateCurves {
		if err := p.Reset(); err != nil {
			row.Err = err
			return row, nil
		}
	}

	for i, m := range measures {
		v, err := p.Measure(m)
		if err != nil {
			row.Cells[i].Err = err
			continue
		}
		row.Cells[i].Value = v
		if opts.IncludeDelta {
			row.Cells[i].Delta = v - base[i].v
		}
	}
	return row, nil
}
