package curve

import (
	"fmt"
	"math"
	"sort"
)

// Config holds curve construction parameters.
type Config struct {
	// GridStepMonths is the spacing of the bootstrap grid (3 = quarterly fixed leg).
	GridStepMonths int

	// MinDiscountFactor is the floor for discount factors to prevent
	// numerical instability (division by near-zero).
	MinDiscountFactor float64
}

// DefaultConfig returns the KRX-like quarterly bootstrap settings.
func DefaultConfig() Config {
	return Config{
		GridStepMonths:    3,
		MinDiscountFactor: 1e-9,
	}
}

// Discount is a discount curve bootstrapped from par swap rates on a curve's
// tenors. It is a value computed from the quotes at build time; rebuild it
// after bumping.
type Discount struct {
	times []float64 // year fractions, times[0] == 0
	dfs   []float64
}

// Bootstrap builds discount factors from par rates quoted as decimals.
//
// Par rates are interpolated linearly onto a regular grid and stripped with
//
//	DF_i = (1 - r_i * sum_{j<i} tau_j DF_j) / (1 + r_i * tau_i)
func Bootstrap(c *Curve, cfg Config) (*Discount, error) {
	if c == nil || len(c.tenors) == 0 {
		return nil, ErrEmptyCurve
	}
	if cfg.GridStepMonths <= 0 {
		return nil, fmt.Errorf("Bootstrap: GridStepMonths must be positive")
	}

	step := float64(cfg.GridStepMonths) / 12.0
	maxYears := c.tenors[len(c.tenors)-1].years
	n := int(math.Ceil(maxYears/step - 1e-9))
	if n < 1 {
		n = 1
	}

	d := &Discount{
		times: make([]float64, 0, n+1),
		dfs:   make([]float64, 0, n+1),
	}
	d.times = append(d.times, 0)
	d.dfs = append(d.dfs, 1)

	annuity := 0.0
	for i := 1; i <= n; i++ {
		t := float64(i) * step
		r := c.QuoteAt(t)
		df := (1 - r*annuity) / (1 + r*step)
		if df < cfg.MinDiscountFactor {
			df = cfg.MinDiscountFactor
		}
		d.times = append(d.times, t)
		d.dfs = append(d.dfs, df)
		annuity += step * df
	}
	return d, nil
}

// DF returns the discount factor at t years using log-linear interpolation,
// extrapolating the last forward rate beyond the grid.
func (d *Discount) DF(t float64) float64 {
	if t <= 0 {
		return 1
	}
	i := sort.SearchFloat64s(d.times, t)
	if i < len(d.times) && d.times[i] == t {
		return d.dfs[i]
	}
	if i >= len(d.times) {
		i = len(d.times) - 1
	}
	t1, t2 := d.times[i-1], d.times[i]
	df1, df2 := d.dfs[i-1], d.dfs[i]
	fwd := math.Log(df1/df2) / (t2 - t1)
	return df1 * math.Exp(-fwd*(t-t1))
}

// ZeroRate returns the continuously compounded zero rate at t years.
func (d *Discount) ZeroRate(t float64) float64 {
	if t <= 0 {
		return 0
	}
	return -math.Log(d.DF(t)) / t
}

// Times returns the grid node times.
func (d *Discount) Times() []float64 { return d.times }
