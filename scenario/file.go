package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Set is a parsed scenario file: what to measure, how, and the scenarios.
// A nil flag means the file does not set it.
type Set struct {
	Measures         []string
	ReevaluateCurves *bool
	IncludeDelta     *bool
	Scenarios        []ShiftPricerTerms
}

// Options returns driver options carrying the file's flags. Flags the file
// leaves out are off.
func (s *Set) Options() Options {
	return s.OptionsOver(Options{})
}

// OptionsOver returns defaults with every flag the file sets written over it.
func (s *Set) OptionsOver(defaults Options) Options {
	out := defaults
	if s.ReevaluateCurves != nil {
		out.ReevaluateCurves = *s.ReevaluateCurves
	}
	if s.IncludeDelta != nil {
		out.IncludeDelta = *s.IncludeDelta
	}
	return out
}

type fileShift struct {
	Term       string    `yaml:"term"`
	Type       ShiftType `yaml:"type"`
	Magnitude  float64   `yaml:"magnitude"`
	Magnitudes []float64 `yaml:"magnitudes"`
}

type fileScenario struct {
	Name   string      `yaml:"name"`
	Shifts []fileShift `yaml:"shifts"`
}

type file struct {
	Measures         []string       `yaml:"measures"`
	ReevaluateCurves *bool          `yaml:"reevaluate_curves"`
	IncludeDelta     *bool          `yaml:"include_delta"`
	Scenarios        []fileScenario `yaml:"scenarios"`
	// Sweeps expand one term over several magnitudes, one scenario each.
	Sweeps []fileShift `yaml:"sweeps"`
}

// LoadFile reads a YAML scenario file.
func LoadFile(path string) (*Set, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML scenario document:
//
//	measures: [Pv, ProductPv]
//	reevaluate_curves: true
//	include_delta: true
//	scenarios:
//	  - name: yield up 1%
//	    shifts:
//	      - {term: BondYield, type: relative, magnitude: 0.01}
//	sweeps:
//	  - {term: Volatility, type: absolute, magnitudes: [-0.01, 0.01]}
func Parse(raw []byte) (*Set, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse scenario file: %w", err)
	}
	if len(f.Measures) == 0 {
		return nil, fmt.Errorf("%w: no measures", ErrInvalidScenario)
	}

	set := &Set{
		Measures:         f.Measures,
		ReevaluateCurves: f.ReevaluateCurves,
		IncludeDelta:     f.IncludeDelta,
	}
	for i, fs := range f.Scenarios {
		sc := ShiftPricerTerms{Name: fs.Name}
		if sc.Name == "" {
			sc.Name = fmt.Sprintf("scenario %d", i+1)
		}
		for _, sh := range fs.Shifts {
			if sh.Term == "" {
				return nil, fmt.Errorf("%w: %q has a shift without a term", ErrInvalidScenario, sc.Name)
			}
			sc.Terms = append(sc.Terms, sh.Term)
			sc.Shifts = append(sc.Shifts, ValueShift{Type: sh.Type, Magnitude: sh.Magnitude})
		}
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		set.Scenarios = append(set.Scenarios, sc)
	}
	for _, sw := range f.Sweeps {
		if sw.Term == "" || len(sw.Magnitudes) == 0 {
			return nil, fmt.Errorf("%w: sweep needs a term and magnitudes", ErrInvalidScenario)
		}
		for _, m := range sw.Magnitudes {
			set.Scenarios = append(set.Scenarios, Single(sw.Term, sw.Type, m))
		}
	}
	if len(set.Scenarios) == 0 {
		return nil, fmt.Errorf("%w: no scenarios", ErrInvalidScenario)
	}
	return set, nil
}
