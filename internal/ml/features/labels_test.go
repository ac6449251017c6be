package features

import (
	"context"
	"math"
	"testing"
)

func TestBuildLabelsWaveProducesBothClasses(t *testing.T) {
	table := NewEngine(&stubAnalyzer{}, Config{}).BuildTable(context.Background(), Inputs{Bars: makeBars(300, wavePrice)})
	ds := BuildLabels(table)

	if ds.Len() != 240 {
		t.Fatalf("expected 240 labeled rows, got %d", ds.Len())
	}
	neg, pos := ds.ClassCounts()
	if pos == 0 || neg == 0 {
		t.Fatalf("expected both classes, got neg=%d pos=%d", neg, pos)
	}
	if !ds.Dates[0].Equal(table.Dates[LabelHorizon]) {
		t.Fatalf("expected first labeled row at index %d", LabelHorizon)
	}
	if len(ds.X[0]) != len(ds.Names) {
		t.Fatalf("expected row width %d, got %d", len(ds.Names), len(ds.X[0]))
	}
}

func TestBuildLabelsMonotonicRiseIsAllZero(t *testing.T) {
	rising := func(i int) float64 { return 50 + float64(i) }
	table := NewEngine(&stubAnalyzer{}, Config{}).BuildTable(context.Background(), Inputs{Bars: makeBars(150, rising)})
	ds := BuildLabels(table)
	if _, pos := ds.ClassCounts(); pos != 0 {
		t.Fatalf("expected no positives for rising series, got %d", pos)
	}
	if ds.Len() != 150-2*LabelHorizon {
		t.Fatalf("expected %d rows, got %d", 150-2*LabelHorizon, ds.Len())
	}
}

func TestBuildLabelsShortHistory(t *testing.T) {
	table := NewEngine(&stubAnalyzer{}, Config{}).BuildTable(context.Background(), Inputs{Bars: makeBars(50, wavePrice)})
	if ds := BuildLabels(table); ds.Len() != 0 {
		t.Fatalf("expected no labeled rows for 50 bars, got %d", ds.Len())
	}
}

func TestBuildLabelsDrawdownWithVolatilitySpike(t *testing.T) {
	price := func(i int) float64 {
		switch {
		case i < 100:
			return 100 + 0.5*math.Sin(float64(i))
		case i <= 130:
			return 100 - 0.5*float64(i-100)
		default:
			return 85 + 0.5*math.Sin(float64(i))
		}
	}
	table := NewEngine(&stubAnalyzer{}, Config{}).BuildTable(context.Background(), Inputs{Bars: makeBars(200, price)})
	ds := BuildLabels(table)

	target := table.Dates[100]
	for i, d := range ds.Dates {
		if d.Equal(target) {
			if ds.Y[i] != 1 {
				t.Fatalf("expected row before the drawdown to be labeled 1")
			}
			return
		}
	}
	t.Fatal("row 100 missing from labeled dataset")
}

func TestBuildLabelsFlatSeriesIsAllZero(t *testing.T) {
	flat := func(int) float64 { return 42 }
	table := NewEngine(&stubAnalyzer{}, Config{}).BuildTable(context.Background(), Inputs{Bars: makeBars(120, flat)})
	ds := BuildLabels(table)
	if ds.Len() == 0 {
		t.Fatal("expected labeled rows")
	}
	if _, pos := ds.ClassCounts(); pos != 0 {
		t.Fatalf("expected all-zero labels for flat series, got %d positives", pos)
	}
}
