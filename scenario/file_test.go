package scenario_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/morisk/pricer"
	"github.com/meenmo/morisk/scenario"
)

const scenarioYAML = `
measures: [Pv, Fragile]
reevaluate_curves: true
include_delta: true
scenarios:
  - name: steepener
    shifts:
      - {term: A, type: absolute, magnitude: 0.5}
      - {term: B, type: relative, magnitude: -0.1}
  - shifts:
      - {term: A, type: specified, magnitude: 3}
sweeps:
  - {term: B, type: absolute, magnitudes: [-1, 1]}
`

func TestParse(t *testing.T) {
	t.Parallel()

	set, err := scenario.Parse([]byte(scenarioYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"Pv", "Fragile"}, set.Measures)
	assert.True(t, set.Options().ReevaluateCurves)
	assert.True(t, set.Options().IncludeDelta)
	require.Len(t, set.Scenarios, 4)

	first := set.Scenarios[0]
	assert.Equal(t, "steepener", first.Name)
	assert.Equal(t, []string{"A", "B"}, first.Terms)
	assert.Equal(t, scenario.ValueShift{Type: scenario.Relative, Magnitude: -0.1}, first.Shifts[1])

	assert.Equal(t, "scenario 2", set.Scenarios[1].Name)
	assert.Equal(t, scenario.Specified, set.Scenarios[1].Shifts[0].Type)
	assert.Equal(t, "B Absolute -1", set.Scenarios[2].Name)
	assert.Equal(t, 1.0, set.Scenarios[3].Shifts[0].Magnitude)
}

func TestSet_OptionsOver(t *testing.T) {
	t.Parallel()

	defaults := scenario.Options{ReevaluateCurves: true, IncludeDelta: true}

	off, err := scenario.Parse([]byte("measures: [Pv]\nreevaluate_curves: false\ninclude_delta: false\nsweeps: [{term: A, type: absolute, magnitudes: [1]}]"))
	require.NoError(t, err)
	got := off.OptionsOver(defaults)
	assert.False(t, got.ReevaluateCurves)
	assert.False(t, got.IncludeDelta)

	unset, err := scenario.Parse([]byte("measures: [Pv]\nsweeps: [{term: A, type: absolute, magnitudes: [1]}]"))
	require.NoError(t, err)
	assert.Nil(t, unset.IncludeDelta)
	assert.Equal(t, defaults, unset.OptionsOver(defaults))
	assert.Equal(t, scenario.Options{}, unset.Options())
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"no measures":  "scenarios: [{shifts: [{term: A, type: none}]}]",
		"no scenarios": "measures: [Pv]",
		"bad type":     "measures: [Pv]\nscenarios: [{shifts: [{term: A, type: percent}]}]",
		"no term":      "measures: [Pv]\nscenarios: [{shifts: [{type: absolute, magnitude: 1}]}]",
		"dup term":     "measures: [Pv]\nscenarios: [{shifts: [{term: A, type: none}, {term: A, type: none}]}]",
		"empty sweep":  "measures: [Pv]\nsweeps: [{term: A, type: absolute}]",
	}
	for name, doc := range cases {
		_, err := scenario.Parse([]byte(doc))
		assert.Error(t, err, name)
	}
	_, err := scenario.Parse([]byte("measures: [Pv]"))
	assert.ErrorIs(t, err, scenario.ErrInvalidScenario)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0o600))
	set, err := scenario.LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, set.Scenarios, 4)

	_, err = scenario.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func runStubTable(t *testing.T) *scenario.Table {
	t.Helper()
	set, err := scenario.Parse([]byte(scenarioYAML))
	require.NoError(t, err)
	// A above 5 breaks Fragile; add a failing scenario as well.
	scs := append(set.Scenarios, scenario.Single("A", scenario.Specified, 6), scenario.Single("Z", scenario.None, 0))
	table, err := scenario.CalcScenario(context.Background(), []pricer.Pricer{newStub("stub")}, set.Measures, scs, set.Options())
	require.NoError(t, err)
	return table
}

func TestTable_MarshalJSON_WithoutDelta(t *testing.T) {
	t.Parallel()

	table, err := scenario.CalcScenario(context.Background(), []pricer.Pricer{newStub("stub")}, []string{"Pv"},
		[]scenario.ShiftPricerTerms{scenario.Single("A", scenario.Absolute, 1)}, scenario.Options{})
	require.NoError(t, err)
	raw, err := json.Marshal(table)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"delta"`)
	assert.Contains(t, string(raw), `"value":0`)
}

func TestTable_WriteText(t *testing.T) {
	t.Parallel()

	table := runStubTable(t)
	var buf bytes.Buffer
	require.NoError(t, table.WriteText(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[0], "Pv Delta")
	assert.Contains(t, lines[0], "Fragile Delta")
	assert.Contains(t, lines[1], "steepener")
	assert.Contains(t, lines[1], "-0.722222") // 1.5 + (-2/0.9)
	assert.Contains(t, lines[5], "-")
	assert.Contains(t, lines[6], "unknown term")
}

func TestTable_MarshalJSON(t *testing.T) {
	t.Parallel()

	table := runStubTable(t)
	raw, err := json.Marshal(table)
	require.NoError(t, err)

	var decoded struct {
		RunID string `json:"run_id"`
		Rows  []struct {
			Name  string `json:"name"`
			Error string `json:"error"`
			Cells []struct {
				Measure string   `json:"measure"`
				Value   *float64 `json:"value"`
				Delta   *float64 `json:"delta"`
				Error   string   `json:"error"`
			} `json:"cells"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, table.RunID.String(), decoded.RunID)
	require.Len(t, decoded.Rows, 6)

	broken := decoded.Rows[4].Cells[1]
	assert.Equal(t, "Fragile", broken.Measure)
	assert.Nil(t, broken.Value)
	assert.NotEmpty(t, broken.Error)

	ok := decoded.Rows[1].Cells[0]
	require.NotNil(t, ok.Value)
	assert.Equal(t, 1.0, *ok.Value)
	require.NotNil(t, ok.Delta)
	assert.Equal(t, 2.0, *ok.Delta)

	assert.Contains(t, string(raw), `"measure":"Fragile","base":2,"value":null,"delta":null`)

	assert.NotEmpty(t, decoded.Rows[5].Error)
	v, _ := table.Value("stub", 5, "Pv")
	assert.True(t, math.IsNaN(v))
}
