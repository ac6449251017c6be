// Package explain attributes a model's risk prediction to its input features.
package explain

import (
	"context"
	"fmt"
	"math"
	"sort"

	"credtech/internal/domain"
	"credtech/internal/ml/features"
	"credtech/internal/ml/models/gbt"

	"go.opentelemetry.io/otel/trace"
)

type Explainer struct {
	tracer trace.Tracer
}

func NewExplainer(tracer trace.Tracer) *Explainer {
	return &Explainer{tracer: tracer}
}

// Explain returns one entry per model feature with the feature's value and
// its TreeSHAP contribution to the elevated-risk log-odds, both rounded to
// two decimals, in the model's feature order.
func (e *Explainer) Explain(ctx context.Context, model *gbt.Model, row features.Row) ([]domain.ExplanationEntry, error) {
	_, span := e.tracer.Start(ctx, "explainer.explain")
	defer span.End()

	if model == nil {
		return nil, fmt.Errorf("%w: no model", domain.ErrExplanation)
	}
	values, err := row.Select(model.FeatureNames)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExplanation, err)
	}
	phi, err := model.SHAP(values)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExplanation, err)
	}

	out := make([]domain.ExplanationEntry, len(values))
	for i, name := range model.FeatureNames {
		out[i] = domain.ExplanationEntry{
			Feature: name,
			Value:   domain.Float(Round2(values[i])),
			Impact:  Round2(phi[i]),
		}
	}
	return out, nil
}

// SortByImpact orders entries by descending absolute impact. Equal
// magnitudes keep their input order.
func SortByImpact(entries []domain.ExplanationEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return math.Abs(entries[i].Impact) > math.Abs(entries[j].Impact)
	})
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
