package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"credtech/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const fredBaseURL = "https://api.stlouisfed.org/fred"

var ErrMissingFREDKey = errors.New("FRED_API_KEY is required")

// FREDProvider fetches one interest-rate series from FRED.
type FREDProvider struct {
	client   *client
	baseURL  string
	apiKey   string
	seriesID string
	tracer   trace.Tracer
	now      func() time.Time
}

func NewFREDProvider(tracer trace.Tracer, apiKey, seriesID string, rps float64) (*FREDProvider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingFREDKey
	}
	if seriesID == "" {
		seriesID = "DGS10"
	}
	return &FREDProvider{
		client:   newClient(20*time.Second, rps),
		baseURL:  fredBaseURL,
		apiKey:   apiKey,
		seriesID: seriesID,
		tracer:   tracer,
		now:      time.Now,
	}, nil
}

// FetchRates returns the last year of observations. Missing values (".")
// are skipped.
func (p *FREDProvider) FetchRates(ctx context.Context) ([]domain.RatePoint, error) {
	ctx, span := p.tracer.Start(ctx, "fred.fetch-rates")
	defer span.End()

	q := url.Values{}
	q.Set("series_id", p.seriesID)
	q.Set("api_key", p.apiKey)
	q.Set("file_type", "json")
	q.Set("observation_start", p.now().UTC().AddDate(-1, 0, -7).Format("2006-01-02"))

	body, err := p.client.get(ctx, p.baseURL+"/series/observations?"+q.Encode(), "application/json")
	if err != nil {
		return nil, &domain.UpstreamError{Source: "fred", Err: err}
	}

	var raw struct {
		Observations []struct {
			Date  string `json:"date"`
			Value string `json:"value"`
		} `json:"observations"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &domain.UpstreamError{Source: "fred", Err: fmt.Errorf("parse observations: %w", err)}
	}

	out := make([]domain.RatePoint, 0, len(raw.Observations))
	for _, o := range raw.Observations {
		v, err := strconv.ParseFloat(strings.TrimSpace(o.Value), 64)
		if err != nil {
			continue
		}
		d, err := time.Parse("2006-01-02", o.Date)
		if err != nil {
			continue
		}
		out = append(out, domain.RatePoint{Date: d.UTC(), Value: v})
	}
	return out, nil
}
