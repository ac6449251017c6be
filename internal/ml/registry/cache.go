package registry

import (
	"context"
	"errors"
	"fmt"
	"log"

	"credtech/internal/domain"
	"credtech/internal/ml/features"
	"credtech/internal/ml/training"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Trainer interface {
	Train(ctx context.Context, ticker string, ds features.Dataset) (*training.Result, error)
}

// Cache resolves a ticker's model from the store, training one on a miss.
// Artifacts never expire; Retrain is the only way to replace one.
type Cache struct {
	tracer     trace.Tracer
	store      ArtifactStore
	trainer    Trainer
	featureSet string
}

func NewCache(tracer trace.Tracer, store ArtifactStore, trainer Trainer, featureSet string) *Cache {
	if featureSet == "" {
		featureSet = "full"
	}
	return &Cache{tracer: tracer, store: store, trainer: trainer, featureSet: featureSet}
}

// LoadOrTrain returns the stored artifact for ticker, or trains and stores a
// new one. The bool reports whether the artifact came from the store.
func (c *Cache) LoadOrTrain(ctx context.Context, ticker string, table *features.Table) (*Artifact, bool, error) {
	ctx, span := c.tracer.Start(ctx, "model-cache.load-or-train")
	defer span.End()
	span.SetAttributes(attribute.String("ticker", ticker))

	blob, err := c.store.Get(ctx, ticker)
	switch {
	case err == nil:
		artifact, decodeErr := Decode(blob)
		if decodeErr == nil && artifact.FeatureSet == c.featureSet {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return artifact, true, nil
		}
		if decodeErr != nil {
			log.Printf("model cache: discarding unreadable artifact for %s: %v", ticker, decodeErr)
		} else {
			log.Printf("model cache: artifact for %s uses feature set %q, retraining for %q", ticker, artifact.FeatureSet, c.featureSet)
		}
	case errors.Is(err, domain.ErrArtifactNotFound):
	default:
		return nil, false, fmt.Errorf("read artifact for %s: %w", ticker, err)
	}

	span.SetAttributes(attribute.Bool("cache_hit", false))
	artifact, err := c.Retrain(ctx, ticker, table)
	return artifact, false, err
}

// Retrain fits a new model from the table and overwrites the stored artifact.
func (c *Cache) Retrain(ctx context.Context, ticker string, table *features.Table) (*Artifact, error) {
	ctx, span := c.tracer.Start(ctx, "model-cache.retrain")
	defer span.End()

	res, err := c.trainer.Train(ctx, ticker, features.BuildLabels(table))
	if err != nil {
		return nil, err
	}
	artifact := &Artifact{
		Ticker:     ticker,
		FeatureSet: c.featureSet,
		TrainedAt:  res.TrainedAt,
		Metrics:    artifactMetrics(res),
		Model:      res.Model,
	}
	blob, err := Encode(artifact)
	if err != nil {
		return nil, fmt.Errorf("encode artifact for %s: %w", ticker, err)
	}
	if err := c.store.Put(ctx, ticker, blob); err != nil {
		return nil, fmt.Errorf("store artifact for %s: %w", ticker, err)
	}
	return artifact, nil
}

// artifactMetrics copies the test metrics and adds the untuned baseline's
// AUC when the benchmark ran.
func artifactMetrics(res *training.Result) map[string]float64 {
	out := make(map[string]float64, len(res.TestMetrics)+1)
	for k, v := range res.TestMetrics {
		out[k] = v
	}
	if res.BaselineAUC != nil {
		out["baseline_auc"] = *res.BaselineAUC
	}
	return out
}
