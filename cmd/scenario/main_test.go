package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_TextTable(t *testing.T) {
	t.Setenv("MORISK_LOG_LEVEL", "warn")

	code, out, errOut := runCLI(t, "run", "-p", "testdata/portfolio.yaml", "-s", "testdata/scenarios.yaml")
	require.Equal(t, 0, code, errOut)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// header + 4 instruments x 5 scenarios
	require.Len(t, lines, 21)
	assert.Contains(t, lines[0], "ProductPv Delta")
	assert.Contains(t, out, "yield +1% relative")
	assert.Contains(t, out, "Notional Relative 0.5")
	// Options have no BondYield term; the row is reported, the run continues.
	assert.Contains(t, out, "unknown term")
	assert.Contains(t, errOut, "scenario skipped")
}

func TestRun_JSON(t *testing.T) {
	t.Setenv("MORISK_LOG_LEVEL", "error")

	code, out, errOut := runCLI(t, "run", "-p", "testdata/portfolio.yaml", "-s", "testdata/scenarios.yaml", "--json")
	require.Equal(t, 0, code, errOut)

	var decoded struct {
		RunID string `json:"run_id"`
		Rows  []struct {
			Pricer string `json:"pricer"`
			Name   string `json:"name"`
			Cells  []struct {
				Measure string   `json:"measure"`
				Base    *float64 `json:"base"`
				Value   *float64 `json:"value"`
				Delta   *float64 `json:"delta"`
			} `json:"cells"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.NotEmpty(t, decoded.RunID)
	require.Len(t, decoded.Rows, 20)

	first := decoded.Rows[0]
	assert.Equal(t, "KTB03125-2906", first.Pricer)
	require.NotNil(t, first.Cells[1].Delta)
	assert.Less(t, *first.Cells[1].Delta, 0.0)
}

func TestRun_ScenarioFileFlagsWin(t *testing.T) {
	t.Setenv("MORISK_LOG_LEVEL", "error")

	path := filepath.Join(t.TempDir(), "flat.yaml")
	doc := "measures: [Pv]\nreevaluate_curves: false\ninclude_delta: false\n" +
		"sweeps:\n  - {term: Notional, type: relative, magnitudes: [0.5]}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	code, out, errOut := runCLI(t, "run", "-p", "testdata/portfolio.yaml", "-s", path)
	require.Equal(t, 0, code, errOut)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "Pv")
	assert.NotContains(t, lines[0], "Delta")
}

func TestGreeks_KeyRates(t *testing.T) {
	t.Setenv("MORISK_LOG_LEVEL", "error")

	code, out, errOut := runCLI(t, "greeks", "-p", "testdata/portfolio.yaml", "--pricer", "IRS5Y",
		"--target", "3Y", "--target", "5Y", "--parallel")
	require.Equal(t, 0, code, errOut)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Delta")
	assert.Contains(t, lines[1], "3Y")
	assert.Contains(t, lines[3], "parallel")
}

func TestGreeks_TermTarget(t *testing.T) {
	t.Setenv("MORISK_LOG_LEVEL", "error")

	code, out, errOut := runCLI(t, "greeks", "-p", "testdata/portfolio.yaml", "--pricer", "SWPN1Y5Y",
		"--target", "Volatility", "--mode", "one-sided")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Volatility")
}

func TestCLI_Errors(t *testing.T) {
	t.Setenv("MORISK_LOG_LEVEL", "error")

	cases := [][]string{
		{"run", "-s", "testdata/scenarios.yaml"},
		{"run", "-p", "testdata/portfolio.yaml"},
		{"greeks", "-p", "testdata/portfolio.yaml", "--pricer", "NOPE", "--target", "5Y"},
		{"greeks", "-p", "testdata/portfolio.yaml", "--pricer", "IRS5Y"},
		{"greeks", "-p", "testdata/portfolio.yaml", "--pricer", "SWPN1Y5Y", "--parallel"},
		{"greeks", "-p", "testdata/portfolio.yaml", "--pricer", "IRS5Y", "--target", "Sigma"},
		{"bogus"},
		{"--env", "testdata/missing.env", "run", "-p", "testdata/portfolio.yaml", "-s", "testdata/scenarios.yaml"},
	}
	for _, args := range cases {
		code, _, errOut := runCLI(t, args...)
		assert.Equal(t, 1, code, strings.Join(args, " "))
		assert.Contains(t, errOut, "error:", strings.Join(args, " "))
	}

	t.Setenv("MORISK_DELTA_MODE", "sideways")
	code, _, _ := runCLI(t, "greeks", "-p", "testdata/portfolio.yaml", "--pricer", "IRS5Y", "--target", "5Y")
	assert.Equal(t, 1, code)
}
