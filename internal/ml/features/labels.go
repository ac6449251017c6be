package features

import (
	"math"
	"time"

	"credtech/internal/ta"
)

const (
	LabelHorizon         = 30
	LabelReturnThreshold = -0.05
)

// Dataset is a labeled training matrix derived from a feature table.
type Dataset struct {
	Names []string
	X     [][]float64
	Y     []float64
	Dates []time.Time
}

func (d Dataset) Len() int { return len(d.Y) }

// ClassCounts returns the number of negative and positive rows.
func (d Dataset) ClassCounts() (neg, pos int) {
	for _, y := range d.Y {
		if y >= 0.5 {
			pos++
		} else {
			neg++
		}
	}
	return neg, pos
}

// BuildLabels marks a row as elevated risk (1) when the forward 30-row return
// is at most -5% and the forward 30-row volatility exceeds the series'
// average trailing 30-row volatility. Rows without a full trailing window or
// a full forward window are dropped.
func BuildLabels(t *Table) Dataset {
	ds := Dataset{Names: append([]string(nil), t.Columns...)}
	if t.Empty() || len(t.Closes) != t.Len() {
		return ds
	}
	closes := t.Closes
	n := len(closes)
	vol := ta.RollingStdSeries(closes, LabelHorizon)
	avgVol := meanDefined(vol)

	for i := LabelHorizon; i+LabelHorizon < n; i++ {
		fwdReturn := closes[i+LabelHorizon]/closes[i] - 1
		fwdVol := vol[i+LabelHorizon]
		if math.IsNaN(fwdReturn) || math.IsNaN(fwdVol) {
			continue
		}
		label := 0.0
		if fwdReturn <= LabelReturnThreshold && fwdVol > avgVol {
			label = 1
		}
		ds.X = append(ds.X, append([]float64(nil), t.Rows[i]...))
		ds.Y = append(ds.Y, label)
		ds.Dates = append(ds.Dates, t.Dates[i])
	}
	return ds
}

func meanDefined(values []float64) float64 {
	var sum float64
	var count int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}
