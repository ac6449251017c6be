package ta

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// NeutralRSI is reported when a window has no losses.
const NeutralRSI = 50.0

func MeanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	if len(values) == 1 {
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// PctChangeSeries returns (v[i]/v[i-lag] - 1) * 100, NaN where undefined.
func PctChangeSeries(values []float64, lag int) []float64 {
	out := nanSeries(len(values))
	if lag <= 0 {
		return out
	}
	for i := lag; i < len(values); i++ {
		base := values[i-lag]
		if base == 0 {
			continue
		}
		out[i] = (values[i]/base - 1) * 100
	}
	return out
}

// RollingStdSeries returns the sample standard deviation of the trailing
// window ending at each index, NaN until the window is full.
func RollingStdSeries(values []float64, window int) []float64 {
	out := nanSeries(len(values))
	if window <= 1 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		out[i] = stat.StdDev(values[i-window+1:i+1], nil)
	}
	return out
}

// SMASeries returns the trailing simple moving average, NaN until the window is full.
func SMASeries(values []float64, window int) []float64 {
	out := nanSeries(len(values))
	if window <= 0 {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// DiffSeries returns v[i] - v[i-lag], NaN where either side is NaN or out of range.
func DiffSeries(values []float64, lag int) []float64 {
	out := nanSeries(len(values))
	if lag <= 0 {
		return out
	}
	for i := lag; i < len(values); i++ {
		out[i] = values[i] - values[i-lag]
	}
	return out
}

// RSISeries computes RSI from average gains and losses over a rolling window
// of `period` price deltas. A window without losses yields NeutralRSI.
func RSISeries(closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gains[i] = math.Max(delta, 0)
		losses[i] = math.Max(-delta, 0)
	}

	var gainSum, lossSum float64
	for i := 1; i < len(closes); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i >= period {
			out[i] = rsiFromAvg(gainSum/float64(period), lossSum/float64(period))
		}
	}
	return out
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss <= 1e-12 {
		return NeutralRSI
	}
	rs := avgGain / avgLoss
	v := 100 - (100 / (1 + rs))
	return math.Min(100, math.Max(0, v))
}
