package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"credtech/internal/ml/models/gbt"
)

// Artifact is the persisted form of a ticker's trained model.
type Artifact struct {
	Ticker     string             `json:"ticker"`
	FeatureSet string             `json:"feature_set"`
	TrainedAt  time.Time          `json:"trained_at"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	Model      *gbt.Model         `json:"-"`
}

type envelope struct {
	Ticker     string             `json:"ticker"`
	FeatureSet string             `json:"feature_set"`
	TrainedAt  time.Time          `json:"trained_at"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	Model      json.RawMessage    `json:"model"`
}

func Encode(a *Artifact) ([]byte, error) {
	if a == nil || a.Model == nil {
		return nil, errors.New("artifact has no model")
	}
	model, err := a.Model.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{
		Ticker:     a.Ticker,
		FeatureSet: a.FeatureSet,
		TrainedAt:  a.TrainedAt.UTC(),
		Metrics:    a.Metrics,
		Model:      model,
	})
}

func Decode(blob []byte) (*Artifact, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	model, err := gbt.UnmarshalBinary(env.Model)
	if err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &Artifact{
		Ticker:     env.Ticker,
		FeatureSet: env.FeatureSet,
		TrainedAt:  env.TrainedAt.UTC(),
		Metrics:    env.Metrics,
		Model:      model,
	}, nil
}
