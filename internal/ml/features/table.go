package features

import (
	"fmt"
	"time"

	"credtech/internal/domain"
)

// Table is a chronologically ordered per-day feature table. Rows and Dates
// are parallel; Closes keeps the close price per row for label construction.
type Table struct {
	Dates     []time.Time
	Columns   []string
	Rows      [][]float64
	Closes    []float64
	Sentiment float64
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) Empty() bool { return t.Len() == 0 }

// Column returns a copy of the named column.
func (t *Table) Column(name string) ([]float64, bool) {
	idx := indexOf(t.Columns, name)
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Rows[i][idx]
	}
	return out, true
}

// Latest returns the most recent row.
func (t *Table) Latest() (Row, bool) {
	if t.Empty() {
		return Row{}, false
	}
	last := t.Rows[len(t.Rows)-1]
	return Row{
		Names:  append([]string(nil), t.Columns...),
		Values: append([]float64(nil), last...),
	}, true
}

// Row is a single named feature vector.
type Row struct {
	Names  []string
	Values []float64
}

// Select reorders the row to the given ordered column list. Every requested
// name must be present.
func (r Row) Select(names []string) ([]float64, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: empty feature list", domain.ErrFeatureMismatch)
	}
	out := make([]float64, len(names))
	for i, name := range names {
		idx := indexOf(r.Names, name)
		if idx < 0 {
			return nil, fmt.Errorf("%w: column %q not in feature row", domain.ErrFeatureMismatch, name)
		}
		out[i] = r.Values[idx]
	}
	return out, nil
}

func (r Row) Map() map[string]float64 {
	out := make(map[string]float64, len(r.Names))
	for i, name := range r.Names {
		out[name] = r.Values[i]
	}
	return out
}

func indexOf(names []string, name string) int {
	for i := range names {
		if names[i] == name {
			return i
		}
	}
	return -1
}
