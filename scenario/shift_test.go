package scenario_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/morisk/bump"
	"github.com/meenmo/morisk/scenario"
)

func TestBump(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		current   float64
		typ       scenario.ShiftType
		magnitude float64
		want      float64
	}{
		{"none", 0.03, scenario.None, 5, 0.03},
		{"absolute", 0.03, scenario.Absolute, -0.005, 0.025},
		{"specified", 0.03, scenario.Specified, 0.07, 0.07},
		{"relative up positive", 0.2, scenario.Relative, 0.1, 0.2 * 1.1},
		{"relative up negative", -0.2, scenario.Relative, 0.1, -0.2 * 0.9},
		{"relative down positive", 0.2, scenario.Relative, -0.1, 0.2 / 1.1},
		{"relative down negative", -0.2, scenario.Relative, -0.1, -0.2 / 0.9},
		{"relative zero", 0, scenario.Relative, 0.5, 0},
	}
	for _, tc := range cases {
		got, err := scenario.Bump(tc.current, tc.typ, tc.magnitude)
		require.NoError(t, err, tc.name)
		assert.InDelta(t, tc.want, got, 1e-15, tc.name)
	}
}

func TestBump_RelativeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, x := range []float64{0.0117, -0.0042, 101.25, -3} {
		for _, m := range []float64{0.01, 0.25, 0.9} {
			up, err := scenario.Bump(x, scenario.Relative, m)
			require.NoError(t, err)
			back, err := scenario.Bump(up, scenario.Relative, -m)
			require.NoError(t, err)
			assert.InDelta(t, x, back, 1e-14, "x=%v m=%v", x, m)
		}
	}
}

func TestBump_InvalidMagnitude(t *testing.T) {
	t.Parallel()

	_, err := scenario.Bump(-0.2, scenario.Relative, -1)
	assert.ErrorIs(t, err, bump.ErrInvalidBumpMagnitude)

	_, err = scenario.Bump(-0.2, scenario.Relative, 1.5)
	assert.ErrorIs(t, err, bump.ErrInvalidBumpMagnitude)

	_, err = scenario.Bump(1, scenario.ShiftType(9), 1)
	assert.ErrorIs(t, err, scenario.ErrInvalidScenario)
}

func TestParseShiftType(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]scenario.ShiftType{
		"none": scenario.None, "Absolute": scenario.Absolute, " RELATIVE ": scenario.Relative, "specified": scenario.Specified,
	} {
		got, err := scenario.ParseShiftType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := scenario.ParseShiftType("percent")
	assert.ErrorIs(t, err, scenario.ErrInvalidScenario)
	assert.Equal(t, "ShiftType(7)", scenario.ShiftType(7).String())
}

func TestShiftPricerTerms_Validate(t *testing.T) {
	t.Parallel()

	_, err := scenario.NewShiftPricerTerms("ok",
		[]string{"BondYield", "Notional"},
		[]scenario.ValueShift{{Type: scenario.Relative, Magnitude: 0.01}, {Type: scenario.None}})
	assert.NoError(t, err)

	_, err = scenario.NewShiftPricerTerms("short", []string{"BondYield", "Notional"}, []scenario.ValueShift{{}})
	assert.ErrorIs(t, err, scenario.ErrInvalidScenario)

	_, err = scenario.NewShiftPricerTerms("dup",
		[]string{"5Y", "5Y"},
		[]scenario.ValueShift{{Type: scenario.Absolute, Magnitude: 1e-4}, {Type: scenario.Absolute, Magnitude: 1e-4}})
	assert.ErrorIs(t, err, scenario.ErrInvalidScenario)

	sc := scenario.Single("Volatility", scenario.Absolute, 0.01)
	assert.Equal(t, "Volatility Absolute 0.01", sc.Name)
	assert.NoError(t, sc.Validate())
}
