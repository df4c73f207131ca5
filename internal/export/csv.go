package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/petrode/internal/dynamo"
	"github.com/san-kum/petrode/internal/engine"
	"github.com/san-kum/petrode/internal/petri"
)

var ErrMalformed = errors.New("export: malformed input")

// WriteCSV writes one row per sample: the time followed by every place level
// in net order, under a header of "time" and the place ids. Values keep full
// precision so that ReadCSV reproduces them exactly.
func WriteCSV(w io.Writer, sol *engine.Solution) error {
	cw := csv.NewWriter(w)

	header := append([]string{"time"}, sol.Net().PlaceIDs()...)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i, x := range sol.States {
		row[0] = strconv.FormatFloat(sol.Times[i], 'g', -1, 64)
		for j, v := range x {
			row[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Table is a solution read back from CSV, not yet tied to a net.
type Table struct {
	Places []string
	Times  []float64
	States []dynamo.State
}

func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(records) == 0 || len(records[0]) < 1 || records[0][0] != "time" {
		return nil, fmt.Errorf("%w: missing time header", ErrMalformed)
	}

	t := &Table{Places: append([]string(nil), records[0][1:]...)}
	for n, rec := range records[1:] {
		vals := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %d: %v", ErrMalformed, n+1, j, err)
			}
			vals[j] = v
		}
		t.Times = append(t.Times, vals[0])
		t.States = append(t.States, dynamo.State(vals[1:]))
	}
	return t, nil
}

// Solution binds the table to net, reordering columns to the net's place
// order. Every place must have a column.
func (t *Table) Solution(net *petri.Net) (*engine.Solution, error) {
	col := make([]int, net.NumPlaces())
	seen := make(map[string]int, len(t.Places))
	for j, id := range t.Places {
		seen[id] = j
	}
	for i, id := range net.PlaceIDs() {
		j, ok := seen[id]
		if !ok {
			return nil, fmt.Errorf("%w: no column for place %q", ErrMalformed, id)
		}
		col[i] = j
	}

	states := make([]dynamo.State, len(t.States))
	for k, row := range t.States {
		x := make(dynamo.State, len(col))
		for i, j := range col {
			x[i] = row[j]
		}
		states[k] = x
	}
	return engine.NewSolution(net, append([]float64(nil), t.Times...), states), nil
}
