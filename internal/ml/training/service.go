package training

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"time"

	"credtech/internal/domain"
	"credtech/internal/metrics"
	"credtech/internal/ml/features"
	"credtech/internal/ml/models/baseline"
	"credtech/internal/ml/models/gbt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

type Config struct {
	Trials       int
	Seed         int64
	MinRows      int
	TestFraction float64
	ValFraction  float64
}

type Service struct {
	tracer trace.Tracer
	cfg    Config
	now    func() time.Time
}

// Result is the outcome of one training run. Model is fitted on every
// labeled row; the metrics come from the held-out test partition.
type Result struct {
	Ticker        string
	Model         *gbt.Model
	Params        gbt.Params
	ValidationAUC float64
	TestMetrics   map[string]float64
	BaselineAUC   *float64
	Rows          int
	Positives     int
	TrainedAt     time.Time
}

func NewService(tracer trace.Tracer, cfg Config) *Service {
	if cfg.Trials <= 0 {
		cfg.Trials = 25
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.MinRows <= 0 {
		cfg.MinRows = 100
	}
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = 0.2
	}
	if cfg.ValFraction <= 0 || cfg.ValFraction >= 1 {
		cfg.ValFraction = 0.25
	}
	return &Service{tracer: tracer, cfg: cfg, now: time.Now}
}

// Train tunes and fits a classifier for one ticker's labeled dataset.
func (s *Service) Train(ctx context.Context, ticker string, ds features.Dataset) (*Result, error) {
	_, span := s.tracer.Start(ctx, "ml-training.train")
	defer span.End()
	span.SetAttributes(attribute.String("ticker", ticker), attribute.Int("rows", ds.Len()))

	started := time.Now()
	res, err := s.train(ticker, ds)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
	}
	metrics.TrainingDuration.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
	return res, err
}

func (s *Service) train(ticker string, ds features.Dataset) (*Result, error) {
	if ds.Len() < s.cfg.MinRows {
		return nil, fmt.Errorf("%w: got %d labeled rows need >= %d", domain.ErrInsufficientData, ds.Len(), s.cfg.MinRows)
	}
	neg, pos := ds.ClassCounts()
	if neg == 0 || pos == 0 {
		return nil, fmt.Errorf("%w: %d negative, %d positive rows", domain.ErrDegenerateLabels, neg, pos)
	}

	rng := rand.New(rand.NewSource(s.cfg.Seed))
	trainIdx, testIdx := stratifiedSplit(ds.Y, s.cfg.TestFraction, rng)
	trainX, trainY := subset(ds.X, ds.Y, trainIdx)
	testX, testY := subset(ds.X, ds.Y, testIdx)
	weight := scalePosWeight(trainY)

	best, bestAUC, err := s.search(trainX, trainY, ds.Names, weight, rng)
	if err != nil {
		return nil, err
	}

	holdout, err := gbt.Train(trainX, trainY, ds.Names, best)
	if err != nil {
		return nil, fmt.Errorf("refit on training partition: %w", err)
	}
	testMetrics := computeMetrics(testY, holdout.PredictBatch(testX))
	baselineAUC := benchmark(trainX, trainY, testX, testY, ds.Names)

	final, err := gbt.Train(ds.X, ds.Y, ds.Names, best)
	if err != nil {
		return nil, fmt.Errorf("refit on all rows: %w", err)
	}

	if baselineAUC != nil {
		log.Printf("ml training %s: rows=%d positives=%d val_auc=%.4f test_auc=%.4f baseline_auc=%.4f f1=%.4f brier=%.4f params=%+v",
			ticker, ds.Len(), pos, bestAUC, testMetrics["auc"], *baselineAUC, testMetrics["f1"], testMetrics["brier"], best)
	} else {
		log.Printf("ml training %s: rows=%d positives=%d val_auc=%.4f test_auc=%.4f f1=%.4f brier=%.4f params=%+v",
			ticker, ds.Len(), pos, bestAUC, testMetrics["auc"], testMetrics["f1"], testMetrics["brier"], best)
	}

	return &Result{
		Ticker:        ticker,
		Model:         final,
		Params:        best,
		ValidationAUC: bestAUC,
		TestMetrics:   testMetrics,
		BaselineAUC:   baselineAUC,
		Rows:          ds.Len(),
		Positives:     pos,
		TrainedAt:     s.now().UTC(),
	}, nil
}

var (
	gridTrees     = []int{50, 100, 150, 200, 300}
	gridDepth     = []int{3, 4, 5, 6}
	gridRate      = []float64{0.01, 0.05, 0.1, 0.2}
	gridSubsample = []float64{0.7, 0.8, 0.9, 1.0}
	gridColSample = []float64{0.7, 0.8, 0.9, 1.0}
)

// search runs a random hyperparameter search scored by validation AUC on a
// stratified split of the training partition. The first best trial wins ties.
func (s *Service) search(x [][]float64, y []float64, names []string, weight float64, rng *rand.Rand) (gbt.Params, float64, error) {
	fitIdx, valIdx := stratifiedSplit(y, s.cfg.ValFraction, rng)
	fitX, fitY := subset(x, y, fitIdx)
	valX, valY := subset(x, y, valIdx)

	var best gbt.Params
	bestAUC := math.Inf(-1)
	for trial := 0; trial < s.cfg.Trials; trial++ {
		p := sampleParams(rng, weight, s.cfg.Seed)
		model, err := gbt.Train(fitX, fitY, names, p)
		if err != nil {
			log.Printf("ml training trial %d failed: %v", trial, err)
			continue
		}
		auc := computeAUC(valY, model.PredictBatch(valX))
		if auc > bestAUC {
			best, bestAUC = p, auc
		}
	}
	if math.IsInf(bestAUC, -1) {
		return gbt.Params{}, 0, fmt.Errorf("hyperparameter search: all %d trials failed", s.cfg.Trials)
	}
	return best, bestAUC, nil
}

func sampleParams(rng *rand.Rand, weight float64, seed int64) gbt.Params {
	p := gbt.DefaultParams()
	p.NumTrees = gridTrees[rng.Intn(len(gridTrees))]
	p.MaxDepth = gridDepth[rng.Intn(len(gridDepth))]
	p.LearningRate = gridRate[rng.Intn(len(gridRate))]
	p.Subsample = gridSubsample[rng.Intn(len(gridSubsample))]
	p.ColSample = gridColSample[rng.Intn(len(gridColSample))]
	p.ScalePosWeight = weight
	p.Seed = seed
	return p
}

func benchmark(trainX [][]float64, trainY []float64, testX [][]float64, testY []float64, names []string) *float64 {
	b, err := baseline.Fit(trainX, trainY, names, baseline.DefaultOptions())
	if err != nil {
		log.Printf("ml training baseline skipped: %v", err)
		return nil
	}
	auc := computeAUC(testY, b.PredictBatch(testX))
	return &auc
}

func scalePosWeight(y []float64) float64 {
	var pos, neg float64
	for _, v := range y {
		if v >= 0.5 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 {
		return 1
	}
	return neg / pos
}

// stratifiedSplit shuffles each class separately and holds out the given
// fraction of it. A class with at least two rows keeps one row on each side.
func stratifiedSplit(y []float64, holdout float64, rng *rand.Rand) (keep, held []int) {
	var classes [2][]int
	for i, v := range y {
		c := 0
		if v >= 0.5 {
			c = 1
		}
		classes[c] = append(classes[c], i)
	}
	for _, idx := range classes {
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		n := int(math.Round(holdout * float64(len(idx))))
		if len(idx) >= 2 {
			n = max(1, min(n, len(idx)-1))
		} else {
			n = 0
		}
		held = append(held, idx[:n]...)
		keep = append(keep, idx[n:]...)
	}
	sort.Ints(keep)
	sort.Ints(held)
	return keep, held
}

func subset(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	outX := make([][]float64, len(idx))
	outY := make([]float64, len(idx))
	for i, j := range idx {
		outX[i] = x[j]
		outY[i] = y[j]
	}
	return outX, outY
}

func computeMetrics(labels []float64, probs []float64) map[string]float64 {
	n := len(labels)
	if n == 0 || len(probs) != n {
		return map[string]float64{"auc": 0.5, "accuracy": 0, "precision": 0, "recall": 0, "f1": 0, "brier": 0, "n_test": 0}
	}
	var tp, fp, tn, fn, brier float64
	for i := 0; i < n; i++ {
		y := labels[i]
		p := clamp01(probs[i])
		predicted := p >= 0.5
		actual := y >= 0.5
		switch {
		case predicted && actual:
			tp++
		case predicted && !actual:
			fp++
		case !predicted && !actual:
			tn++
		default:
			fn++
		}
		d := p - y
		brier += d * d
	}

	precision := 0.0
	if tp+fp > 0 {
		precision = tp / (tp + fp)
	}
	recall := 0.0
	if tp+fn > 0 {
		recall = tp / (tp + fn)
	}
	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return map[string]float64{
		"auc":       computeAUC(labels, probs),
		"accuracy":  (tp + tn) / float64(n),
		"precision": precision,
		"recall":    recall,
		"f1":        f1,
		"brier":     brier / float64(n),
		"n_test":    float64(n),
	}
}

// computeAUC integrates the ROC curve. A single-class sample scores 0.5.
func computeAUC(labels []float64, probs []float64) float64 {
	if len(labels) == 0 || len(labels) != len(probs) {
		return 0.5
	}
	scores := make([]float64, len(probs))
	classes := make([]bool, len(labels))
	var pos int
	for i := range labels {
		scores[i] = clamp01(probs[i])
		classes[i] = labels[i] >= 0.5
		if classes[i] {
			pos++
		}
	}
	if pos == 0 || pos == len(labels) {
		return 0.5
	}
	stat.SortWeightedLabeled(scores, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)
	auc := integrate.Trapezoidal(fpr, tpr)
	if math.IsNaN(auc) || math.IsInf(auc, 0) {
		return 0.5
	}
	return auc
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	return math.Max(0, math.Min(1, v))
}
