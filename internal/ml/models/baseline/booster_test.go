package baseline

import "testing"

func TestFitRanksSeparatedSamples(t *testing.T) {
	x, y := clusters()
	b, err := Fit(x, y, []string{"x1", "x2"}, DefaultOptions())
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	low := b.PredictProba([]float64{-1.8, -1.3})
	high := b.PredictProba([]float64{1.8, 1.3})
	if low < 0 || low > 1 || high < 0 || high > 1 {
		t.Fatalf("expected probabilities in [0,1], got low=%.4f high=%.4f", low, high)
	}
	if high <= low {
		t.Fatalf("expected high cluster to score above low cluster, got %.4f <= %.4f", high, low)
	}
	if got := len(b.PredictBatch(x)); got != len(x) {
		t.Fatalf("expected %d predictions, got %d", len(x), got)
	}
}

func TestFitRequiresTwoClasses(t *testing.T) {
	x, _ := clusters()
	y := make([]float64, len(x))
	if _, err := Fit(x, y, []string{"x1", "x2"}, Options{}); err == nil {
		t.Fatal("expected error for single-class labels")
	}
}

func clusters() ([][]float64, []float64) {
	x := make([][]float64, 0, 120)
	y := make([]float64, 0, 120)
	for i := 0; i < 60; i++ {
		x = append(x, []float64{-2.0 + float64(i)/90.0, -1.5 + float64(i)/120.0})
		y = append(y, 0)
	}
	for i := 0; i < 60; i++ {
		x = append(x, []float64{1.0 + float64(i)/90.0, 1.1 + float64(i)/110.0})
		y = append(y, 1)
	}
	return x, y
}
