package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
)

// Cell is one (row, measure) result. Missing values are NaN and carry the
// error that caused them.
type Cell struct {
	Base  float64
	Value float64
	Delta float64
	Err   error
}

// Row holds the bumped measures of one pricer under one scenario. A row whose
// scenario could not be applied has Err set and NaN cells.
type Row struct {
	Pricer       string
	Scenario     int
	ScenarioName string
	Cells        []Cell
	Err          error
}

func (r Row) Failed() bool { return r.Err != nil }

// Table is the result of CalcScenario.
type Table struct {
	RunID        uuid.UUID
	Measures     []string
	IncludeDelta bool
	Rows         []Row
}

// Columns lists the value columns in output order.
func (t *Table) Columns() []string {
	cols := make([]string, 0, 2*len(t.Measures))
	for _, m := range t.Measures {
		cols = append(cols, m)
		if t.IncludeDelta {
			cols = append(cols, m+" Delta")
		}
	}
	return cols
}

// Row finds the row for a pricer and scenario index.
func (t *Table) Row(pricerName string, scenario int) (Row, bool) {
	for _, r := range t.Rows {
		if r.Pricer == pricerName && r.Scenario == scenario {
			return r, true
		}
	}
	return Row{}, false
}

func (t *Table) cell(pricerName string, scenario int, measure string) (Cell, bool) {
	r, ok := t.Row(pricerName, scenario)
	if !ok {
		return Cell{}, false
	}
	for i, m := range t.Measures {
		if m == measure {
			return r.Cells[i], true
		}
	}
	return Cell{}, false
}

// Value returns the bumped measure; ok is false when the cell is absent or NaN.
func (t *Table) Value(pricerName string, scenario int, measure string) (float64, bool) {
	c, ok := t.cell(pricerName, scenario, measure)
	return c.Value, ok && !math.IsNaN(c.Value)
}

// Delta returns bumped minus base; ok is false when the cell is absent or NaN.
func (t *Table) Delta(pricerName string, scenario int, measure string) (float64, bool) {
	c, ok := t.cell(pricerName, scenario, measure)
	return c.Delta, ok && !math.IsNaN(c.Delta)
}

// Failures returns the rows whose scenario could not be applied.
func (t *Table) Failures() []Row {
	var out []Row
	for _, r := range t.Rows {
		if r.Failed() {
			out = append(out, r)
		}
	}
	return out
}

// WriteText prints the table with aligned columns.
func (t *Table) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := append([]string{"Pricer", "Scenario"}, t.Columns()...)
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
	for _, r := range t.Rows {
		fields := []string{r.Pricer, r.ScenarioName}
		for _, c := range r.Cells {
			fields = append(fields, formatFloat(c.Value))
			if t.IncludeDelta {
				fields = append(fields, formatFloat(c.Delta))
			}
		}
		line := strings.Join(fields, "\t") + "\t"
		if r.Err != nil {
			line += " " + r.Err.Error()
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.6f", v)
}

type jsonCell struct {
	Measure string   `json:"measure"`
	Base    *float64 `json:"base"`
	Value   *float64 `json:"value"`
	Delta   *nullable `json:"delta,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type jsonRow struct {
	Pricer   string     `json:"pricer"`
	Scenario int        `json:"scenario"`
	Name     string     `json:"name"`
	Cells    []jsonCell `json:"cells"`
	Error    string     `json:"error,omitempty"`
}

type jsonTable struct {
	RunID string    `json:"run_id"`
	Rows  []jsonRow `json:"rows"`
}

// nullable is a delta column entry: present whenever deltas are requested,
// null when the delta is missing.
type nullable struct{ v *float64 }

func (n nullable) MarshalJSON() ([]byte, error) { return json.Marshal(n.v) }

// MarshalJSON encodes NaN cells as null. The delta key appears only when the
// table includes deltas.
func (t *Table) MarshalJSON() ([]byte, error) {
	out := jsonTable{RunID: t.RunID.String(), Rows: make([]jsonRow, 0, len(t.Rows))}
	for _, r := range t.Rows {
		jr := jsonRow{Pricer: r.Pricer, Scenario: r.Scenario, Name: r.ScenarioName}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		for i, c := range r.Cells {
			jc := jsonCell{Measure: t.Measures[i], Base: finite(c.Base), Value: finite(c.Value)}
			if t.IncludeDelta {
				jc.Delta = &nullable{finite(c.Delta)}
			}
			if c.Err != nil {
				jc.Error = c.Err.Error()
			}
			jr.Cells = append(jr.Cells, jc)
		}
		out.Rows = append(out.Rows, jr)
	}
	return json.Marshal(out)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
