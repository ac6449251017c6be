package explain

import (
	"context"
	"errors"
	"testing"

	"credtech/internal/domain"
	"credtech/internal/ml/features"
	"credtech/internal/ml/models/gbt"

	"go.opentelemetry.io/otel/trace"
)

func TestSortByImpact(t *testing.T) {
	entries := []domain.ExplanationEntry{
		{Feature: "a", Impact: 0.1},
		{Feature: "b", Impact: -0.9},
		{Feature: "c", Impact: 0.3},
		{Feature: "d", Impact: -0.3},
	}
	SortByImpact(entries)
	want := []string{"b", "c", "d", "a"}
	for i, name := range want {
		if entries[i].Feature != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, entries[i].Feature)
		}
	}
}

func TestExplainAttributesSplitFeature(t *testing.T) {
	model := &gbt.Model{
		FeatureNames: []string{"volatility_30d", "rsi_14"},
		Trees: []gbt.Tree{{Nodes: []gbt.Node{
			{Feature: 0, Threshold: 5, Left: 1, Right: 2, Cover: 4},
			{Feature: -1, Value: -1, Cover: 3},
			{Feature: -1, Value: 2, Cover: 1},
		}}},
	}
	row := features.Row{Names: []string{"rsi_14", "extra", "volatility_30d"}, Values: []float64{55.556, 1, 7.126}}

	entries, err := NewExplainer(trace.NewNoopTracerProvider().Tracer("test")).Explain(context.Background(), model, row)
	if err != nil {
		t.Fatalf("Explain returned error: %v", err)
	}
	if len(entries) != 2 || entries[0].Feature != "volatility_30d" || entries[1].Feature != "rsi_14" {
		t.Fatalf("expected entries in model feature order, got %+v", entries)
	}
	if *entries[0].Value != 7.13 || *entries[1].Value != 55.56 {
		t.Fatalf("expected rounded values, got %v and %v", *entries[0].Value, *entries[1].Value)
	}
	// expected value -0.25, margin 2
	if entries[0].Impact != 2.25 || entries[1].Impact != 0 {
		t.Fatalf("unexpected impacts: %+v", entries)
	}
}

func TestExplainFeatureMismatch(t *testing.T) {
	model := &gbt.Model{
		FeatureNames: []string{"a", "b"},
		Trees:        []gbt.Tree{{Nodes: []gbt.Node{{Feature: -1, Value: 0.1, Cover: 1}}}},
	}
	row := features.Row{Names: []string{"a"}, Values: []float64{1}}
	_, err := NewExplainer(trace.NewNoopTracerProvider().Tracer("test")).Explain(context.Background(), model, row)
	if !errors.Is(err, domain.ErrExplanation) || !errors.Is(err, domain.ErrFeatureMismatch) {
		t.Fatalf("expected explanation + feature mismatch error, got %v", err)
	}
}

func TestRound2(t *testing.T) {
	if Round2(-0.126) != -0.13 || Round2(1.004) != 1 {
		t.Fatalf("unexpected rounding: %v %v", Round2(-0.126), Round2(1.004))
	}
}
