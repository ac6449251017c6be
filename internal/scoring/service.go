package scoring

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"credtech/internal/domain"
	"credtech/internal/metrics"
	"credtech/internal/ml/explain"
	"credtech/internal/ml/features"
	"credtech/internal/ml/models/gbt"
	"credtech/internal/ml/registry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// State is a step of a scoring request.
type State string

const (
	StateFeaturesMissing  State = "FEATURES_MISSING"
	StateModelUnavailable State = "MODEL_UNAVAILABLE"
	StateModelTrained     State = "MODEL_TRAINED"
	StateHeuristic        State = "HEURISTIC"
	StateScored           State = "SCORED"
)

const (
	FeatureSetFull   = "full"
	FeatureSetLegacy = "legacy"

	maxTechnicalPenalty = 50
)

type TableBuilder interface {
	BuildTable(ctx context.Context, in features.Inputs) *features.Table
	BuildLegacyTable(ctx context.Context, in features.Inputs) *features.Table
}

type ModelCache interface {
	LoadOrTrain(ctx context.Context, ticker string, table *features.Table) (*registry.Artifact, bool, error)
	Retrain(ctx context.Context, ticker string, table *features.Table) (*registry.Artifact, error)
}

type Explainer interface {
	Explain(ctx context.Context, model *gbt.Model, row features.Row) ([]domain.ExplanationEntry, error)
}

type Config struct {
	FeatureSet string
}

type Service struct {
	tracer    trace.Tracer
	tables    TableBuilder
	cache     ModelCache
	explainer Explainer
	cfg       Config
}

func NewService(tracer trace.Tracer, tables TableBuilder, cache ModelCache, explainer Explainer, cfg Config) *Service {
	if cfg.FeatureSet != FeatureSetLegacy {
		cfg.FeatureSet = FeatureSetFull
	}
	return &Service{tracer: tracer, tables: tables, cache: cache, explainer: explainer, cfg: cfg}
}

// Score produces a stability score and explanation for one ticker. Training
// failures degrade to a heuristic payload; explanation failures are returned.
func (s *Service) Score(ctx context.Context, ticker string, in features.Inputs) (*domain.ScorePayload, error) {
	ctx, span := s.tracer.Start(ctx, "scoring.score")
	defer span.End()
	span.SetAttributes(attribute.String("ticker", ticker))

	table := s.buildTable(ctx, in)
	latest, ok := table.Latest()
	if !ok {
		span.SetAttributes(attribute.String("state", string(StateFeaturesMissing)))
		return nil, fmt.Errorf("%s: %w", ticker, domain.ErrFeaturesMissing)
	}

	fundamental, fundamentalEntries := ScoreFundamentals(in.Fundamentals)

	artifact, fromCache, err := s.cache.LoadOrTrain(ctx, ticker, table)
	if err != nil {
		log.Printf("scoring %s: model unavailable, using heuristic: %v", ticker, err)
		span.SetAttributes(attribute.String("state", string(StateHeuristic)))
		metrics.ScoresTotal.WithLabelValues(string(domain.AssessmentHeuristic)).Inc()
		return heuristicPayload(ticker, fundamental, fundamentalEntries, table.Sentiment, latest), nil
	}

	values, err := latest.Select(artifact.Model.FeatureNames)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", ticker, domain.ErrExplanation, err)
	}
	prob, err := artifact.Model.PredictProba(values)
	if err != nil {
		return nil, fmt.Errorf("%s: predict: %w", ticker, err)
	}
	attributions, err := s.explainer.Explain(ctx, artifact.Model, latest)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}

	penalty := int(math.Floor(prob * maxTechnicalPenalty))
	stability := max(0, fundamental-penalty)
	technical := int(math.Round((1 - prob) * 100))

	explanation := make([]domain.ExplanationEntry, 0, len(attributions)+len(fundamentalEntries))
	explanation = append(explanation, attributions...)
	explanation = append(explanation, fundamentalEntries...)
	explain.SortByImpact(explanation)

	trainedAt := artifact.TrainedAt
	span.SetAttributes(attribute.String("state", string(StateScored)), attribute.Float64("risk_probability", prob))
	metrics.ScoresTotal.WithLabelValues(string(domain.AssessmentML)).Inc()

	return &domain.ScorePayload{
		Ticker:           ticker,
		StabilityScore:   &stability,
		TechnicalScore:   &technical,
		FundamentalScore: fundamental,
		RiskProbability:  domain.Float(math.Round(prob*1e4) / 1e4),
		Explanation:      explanation,
		AssessmentType:   domain.AssessmentML,
		LatestSentiment:  round2(table.Sentiment),
		AllFeatures:      roundedMap(latest),
		ModelTrainedAt:   &trainedAt,
		ModelFromCache:   fromCache,
	}, nil
}

// Retrain rebuilds the feature table and replaces the ticker's model.
func (s *Service) Retrain(ctx context.Context, ticker string, in features.Inputs) error {
	ctx, span := s.tracer.Start(ctx, "scoring.retrain")
	defer span.End()
	span.SetAttributes(attribute.String("ticker", ticker))

	table := s.buildTable(ctx, in)
	if table.Empty() {
		return fmt.Errorf("%s: %w", ticker, domain.ErrFeaturesMissing)
	}
	if _, err := s.cache.Retrain(ctx, ticker, table); err != nil {
		if errors.Is(err, domain.ErrInsufficientData) || errors.Is(err, domain.ErrDegenerateLabels) {
			span.SetAttributes(attribute.String("state", string(StateModelUnavailable)))
		}
		return fmt.Errorf("retrain %s: %w", ticker, err)
	}
	span.SetAttributes(attribute.String("state", string(StateModelTrained)))
	return nil
}

func (s *Service) buildTable(ctx context.Context, in features.Inputs) *features.Table {
	if s.cfg.FeatureSet == FeatureSetLegacy {
		return s.tables.BuildLegacyTable(ctx, in)
	}
	return s.tables.BuildTable(ctx, in)
}

func heuristicPayload(ticker string, fundamental int, entries []domain.ExplanationEntry, sentiment float64, latest features.Row) *domain.ScorePayload {
	explanation := append([]domain.ExplanationEntry{}, entries...)
	explain.SortByImpact(explanation)
	return &domain.ScorePayload{
		Ticker:           ticker,
		FundamentalScore: fundamental,
		Explanation:      explanation,
		AssessmentType:   domain.AssessmentHeuristic,
		LatestSentiment:  round2(sentiment),
		AllFeatures:      roundedMap(latest),
	}
}

func roundedMap(row features.Row) map[string]float64 {
	out := row.Map()
	for k, v := range out {
		out[k] = round2(v)
	}
	return out
}

func round2(v float64) float64 { return explain.Round2(v) }
