package ta

import (
	"math"
	"testing"
)

func TestRSISeriesBounds(t *testing.T) {
	closes := make([]float64, 120)
	price := 50.0
	for i := range closes {
		price += math.Sin(float64(i)/3) * 2
		closes[i] = price
	}
	rsi := RSISeries(closes, 14)
	for i, v := range rsi {
		if i < 14 {
			if !math.IsNaN(v) {
				t.Fatalf("expected NaN before first full window at %d, got %.4f", i, v)
			}
			continue
		}
		if v < 0 || v > 100 {
			t.Fatalf("rsi out of range at %d: %.4f", i, v)
		}
	}
}

func TestRSISeriesNoLossesIsNeutral(t *testing.T) {
	rising := make([]float64, 30)
	flat := make([]float64, 30)
	for i := range rising {
		rising[i] = 10 + float64(i)
		flat[i] = 10
	}
	for _, series := range [][]float64{rising, flat} {
		rsi := RSISeries(series, 14)
		for i := 14; i < len(rsi); i++ {
			if rsi[i] != NeutralRSI {
				t.Fatalf("expected neutral rsi at %d, got %.4f", i, rsi[i])
			}
		}
	}
}

func TestRSISeriesAllLossesIsZero(t *testing.T) {
	falling := make([]float64, 20)
	for i := range falling {
		falling[i] = 100 - float64(i)
	}
	rsi := RSISeries(falling, 14)
	if rsi[19] != 0 {
		t.Fatalf("expected rsi 0 for only losses, got %.4f", rsi[19])
	}
}

func TestRollingStdSeriesUsesSampleStd(t *testing.T) {
	std := RollingStdSeries([]float64{1, 2, 3, 4}, 2)
	if !math.IsNaN(std[0]) {
		t.Fatalf("expected NaN head, got %.4f", std[0])
	}
	want := math.Sqrt(0.5)
	if math.Abs(std[3]-want) > 1e-12 {
		t.Fatalf("expected %.6f, got %.6f", want, std[3])
	}
}

func TestPctChangeAndSMA(t *testing.T) {
	values := []float64{100, 110, 121}
	pct := PctChangeSeries(values, 1)
	if math.Abs(pct[1]-10) > 1e-9 || math.Abs(pct[2]-10) > 1e-9 {
		t.Fatalf("unexpected pct change: %v", pct)
	}
	sma := SMASeries(values, 2)
	if !math.IsNaN(sma[0]) || sma[1] != 105 || sma[2] != 115.5 {
		t.Fatalf("unexpected sma: %v", sma)
	}
}
