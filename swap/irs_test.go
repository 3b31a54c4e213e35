package swap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/morisk/bump"
	"github.com/meenmo/morisk/curve"
	"github.com/meenmo/morisk/pricer"
	"github.com/meenmo/morisk/swap"
)

func flatCurve(t *testing.T, rate float64) *curve.Curve {
	t.Helper()
	h := bump.NewYieldHandler(bump.RefData{DayCount: "ACT/365F"})
	var tenors []*curve.Tenor
	for _, l := range []string{"3M", "1Y", "2Y", "3Y", "5Y", "10Y"} {
		tn, err := curve.NewTenor(l, "IRS", rate, h)
		require.NoError(t, err)
		tenors = append(tenors, tn)
	}
	c, err := curve.New("KRW-IRS", tenors)
	require.NoError(t, err)
	return c
}

func newSwap(t *testing.T, fixed float64, dir swap.Position) *swap.Swap {
	t.Helper()
	s, err := swap.New(swap.Params{
		Name:           "IRS5Y",
		TenorYears:     5,
		FixedFrequency: 4,
		Direction:      dir,
		FixedRate:      fixed,
		Notional:       10_000_000_000,
		Curve:          flatCurve(t, 0.0325),
	})
	require.NoError(t, err)
	return s
}

func measure(t *testing.T, p pricer.Pricer, name string) float64 {
	t.Helper()
	v, err := p.Measure(name)
	require.NoError(t, err)
	return v
}

func TestSwap_AtParIsWorthNothing(t *testing.T) {
	t.Parallel()

	s := newSwap(t, 0.0325, swap.PositionReceive)
	var _ pricer.CurvePricer = s

	assert.InDelta(t, 0.0325, measure(t, s, "ParRate"), 1e-12)
	assert.InDelta(t, 0, measure(t, s, "Pv"), 1e-2)
	assert.InDelta(t, measure(t, s, "FixedLegPv"), measure(t, s, "FloatLegPv"), 1e-2)
}

func TestSwap_DirectionSign(t *testing.T) {
	t.Parallel()

	rec := newSwap(t, 0.035, swap.PositionReceive)
	pay := newSwap(t, 0.035, swap.PositionPay)

	pv := measure(t, rec, "Pv")
	assert.Greater(t, pv, 0.0)
	assert.InDelta(t, -pv, measure(t, pay, "Pv"), 1e-6)

	// Off-market value is notional * (fixed - par) * annuity.
	want := 10_000_000_000 * (0.035 - 0.0325) * measure(t, rec, "Annuity")
	assert.InDelta(t, want, pv, 1e-2)
}

func TestSwap_KeyRateBumpNeedsReset(t *testing.T) {
	t.Parallel()

	s := newSwap(t, 0.0325, swap.PositionPay)
	base := measure(t, s, "Pv")

	tn, err := s.Tenor("5Y")
	require.NoError(t, err)
	_, err = tn.Bump(1, bump.Up)
	require.NoError(t, err)

	// Quotes moved but the discount curve is stale until Reset.
	assert.Equal(t, base, measure(t, s, "Pv"))
	require.NoError(t, s.Reset())
	assert.Greater(t, measure(t, s, "Pv"), base)

	// A tenor beyond maturity does not move a 5Y swap.
	far, err := s.Tenor("10Y")
	require.NoError(t, err)
	before := measure(t, s, "Pv")
	_, err = far.Bump(1, bump.Up)
	require.NoError(t, err)
	require.NoError(t, s.Reset())
	assert.InDelta(t, before, measure(t, s, "Pv"), 1e-6)
}

func TestSwap_TermsIncludeTenors(t *testing.T) {
	t.Parallel()

	s := newSwap(t, 0.03, swap.PositionReceive)
	assert.ElementsMatch(t,
		[]string{"FixedRate", "Notional", "FloatSpreadBP", "3M", "1Y", "2Y", "3Y", "5Y", "10Y"},
		s.TermNames())

	require.NoError(t, s.SetTerm("5Y", 0.04))
	tn, err := s.Tenor("5Y")
	require.NoError(t, err)
	assert.Equal(t, 0.04, tn.Quote())

	// A float spread paid on the floating leg raises the par rate one for one.
	require.NoError(t, s.SetTerm("5Y", 0.0325))
	require.NoError(t, s.Reset())
	par := measure(t, s, "ParRate")
	require.NoError(t, s.SetTerm("FloatSpreadBP", 10))
	assert.InDelta(t, par+0.001, measure(t, s, "ParRate"), 1e-12)
}

func TestSwap_InvalidParams(t *testing.T) {
	t.Parallel()

	_, err := swap.New(swap.Params{Name: "x", TenorYears: 5, FixedFrequency: 4})
	assert.Error(t, err)
	_, err = swap.New(swap.Params{Name: "x", FixedFrequency: 4, Curve: flatCurve(t, 0.03)})
	assert.Error(t, err)

	p, err := swap.ParsePosition(" pay ")
	require.NoError(t, err)
	assert.Equal(t, swap.PositionPay, p)
	_, err = swap.ParsePosition("BOTH")
	assert.Error(t, err)
}
