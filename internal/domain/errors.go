package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrDegenerateLabels = errors.New("only one label class present")
	ErrFeaturesMissing  = errors.New("could not engineer features: source data missing")
	ErrUpstreamFetch    = errors.New("upstream fetch failed")
	ErrExplanation      = errors.New("explanation failed")
	ErrFeatureMismatch  = errors.New("feature set mismatch")
	ErrArtifactNotFound = errors.New("model artifact not found")
	ErrTickerNotFound   = errors.New("ticker not found")
)

// UpstreamError reports a failed call to an external data provider.
type UpstreamError struct {
	Source string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstreamFetch }
