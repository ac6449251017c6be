package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"credtech/internal/domain"
	"credtech/internal/metrics"
	"credtech/internal/ml/features"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const recentNewsInReport = 5

type MarketDataProvider interface {
	FetchMarketData(ctx context.Context, ticker string) (*domain.MarketData, error)
	FetchMarketMove(ctx context.Context) (float64, error)
}

type RateProvider interface {
	FetchRates(ctx context.Context) ([]domain.RatePoint, error)
}

type NewsProvider interface {
	FetchNews(ctx context.Context, query string, maxItems int) (domain.NewsBatch, error)
}

type Scorer interface {
	Score(ctx context.Context, ticker string, in features.Inputs) (*domain.ScorePayload, error)
	Retrain(ctx context.Context, ticker string, in features.Inputs) error
}

type RetrainQueue interface {
	Enqueue(ticker string) bool
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

type ScoreServiceConfig struct {
	NewsMaxItems   int
	InputCacheTTL  time.Duration
	RetrainOnScore bool
}

// ScoreService gathers raw inputs from the providers and hands them to the
// scoring core. Fetched inputs are cached in Redis for InputCacheTTL.
type ScoreService struct {
	tracer trace.Tracer
	market MarketDataProvider
	rates  RateProvider
	news   NewsProvider
	scorer Scorer
	queue  RetrainQueue
	redis  RedisClient
	cfg    ScoreServiceConfig
}

// NewScoreService wires the service. rates, news, queue and redisClient may
// be nil: a missing rate provider means no rate series, a missing news
// provider means no news.
func NewScoreService(
	tracer trace.Tracer,
	market MarketDataProvider,
	rates RateProvider,
	news NewsProvider,
	scorer Scorer,
	queue RetrainQueue,
	redisClient RedisClient,
	cfg ScoreServiceConfig,
) *ScoreService {
	if cfg.NewsMaxItems <= 0 {
		cfg.NewsMaxItems = 20
	}
	return &ScoreService{
		tracer: tracer,
		market: market,
		rates:  rates,
		news:   news,
		scorer: scorer,
		queue:  queue,
		redis:  redisClient,
		cfg:    cfg,
	}
}

// Report scores a ticker and bundles the result with company context.
func (s *ScoreService) Report(ctx context.Context, ticker string) (*domain.ScoreReport, error) {
	ctx, span := s.tracer.Start(ctx, "score-service.report")
	defer span.End()

	ticker = normalizeTicker(ticker)
	span.SetAttributes(attribute.String("ticker", ticker))

	raw, err := s.FetchAll(ctx, ticker)
	if err != nil {
		return nil, err
	}
	payload, err := s.scorer.Score(ctx, ticker, toInputs(raw))
	if err != nil {
		return nil, err
	}

	if payload.AssessmentType == domain.AssessmentML && payload.ModelFromCache && s.cfg.RetrainOnScore && s.queue != nil {
		s.queue.Enqueue(ticker)
	}

	return &domain.ScoreReport{
		Ticker:       ticker,
		CompanyName:  raw.Market.Fundamentals.LongName,
		CompanyInfo:  raw.Market.Fundamentals,
		Score:        payload,
		StockHistory: raw.Market.Bars,
		RecentNews:   mostRecent(raw.News, recentNewsInReport),
	}, nil
}

// RequestRetrain queues a background retrain and reports whether it was accepted.
func (s *ScoreService) RequestRetrain(ticker string) bool {
	if s.queue == nil {
		return false
	}
	return s.queue.Enqueue(normalizeTicker(ticker))
}

// RetrainTicker fetches inputs and replaces the ticker's model. It is the
// handler the background retrain worker runs.
func (s *ScoreService) RetrainTicker(ctx context.Context, ticker string) error {
	ctx, span := s.tracer.Start(ctx, "score-service.retrain")
	defer span.End()

	ticker = normalizeTicker(ticker)
	raw, err := s.FetchAll(ctx, ticker)
	if err != nil {
		return err
	}
	return s.scorer.Retrain(ctx, ticker, toInputs(raw))
}

// FetchAll returns the raw inputs for a ticker. Only a market-data failure
// is an error; macro and news failures degrade to empty values.
func (s *ScoreService) FetchAll(ctx context.Context, ticker string) (*domain.RawInputs, error) {
	ctx, span := s.tracer.Start(ctx, "score-service.fetch-all")
	defer span.End()

	ticker = normalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("empty ticker: %w", domain.ErrTickerNotFound)
	}

	if cached, err := s.getInputsCache(ctx, ticker); err != nil {
		log.Printf("redis input cache read error for %s: %v", ticker, err)
	} else if cached != nil {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}

	market, err := s.market.FetchMarketData(ctx, ticker)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("market").Inc()
		if errors.Is(err, domain.ErrUpstreamFetch) || errors.Is(err, domain.ErrTickerNotFound) {
			return nil, err
		}
		return nil, &domain.UpstreamError{Source: "market", Err: err}
	}

	raw := &domain.RawInputs{Market: *market}

	move, err := s.market.FetchMarketMove(ctx)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("market_index").Inc()
		log.Printf("market move unavailable, using 0: %v", err)
	}
	raw.Macro.MarketMovePct = move

	if s.rates != nil {
		rates, err := s.rates.FetchRates(ctx)
		if err != nil {
			metrics.UpstreamErrors.WithLabelValues("rates").Inc()
			log.Printf("rate series unavailable: %v", err)
		}
		raw.Macro.Rates = rates
	}

	if s.news != nil {
		query := market.Fundamentals.LongName
		if query == "" {
			query = ticker
		}
		news, err := s.news.FetchNews(ctx, query, s.cfg.NewsMaxItems)
		if err != nil {
			metrics.UpstreamErrors.WithLabelValues("news").Inc()
			log.Printf("news unavailable for %s: %v", ticker, err)
		}
		raw.News = news
	}

	if s.redis != nil && s.cfg.InputCacheTTL > 0 {
		if err := s.setInputsCache(ctx, ticker, raw); err != nil {
			log.Printf("redis input cache write error for %s: %v", ticker, err)
		}
	}
	return raw, nil
}

func (s *ScoreService) setInputsCache(ctx context.Context, ticker string, raw *domain.RawInputs) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, "inputs:"+ticker, data, s.cfg.InputCacheTTL).Err()
}

func (s *ScoreService) getInputsCache(ctx context.Context, ticker string) (*domain.RawInputs, error) {
	if s.redis == nil || s.cfg.InputCacheTTL <= 0 {
		return nil, nil
	}
	data, err := s.redis.Get(ctx, "inputs:"+ticker).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var raw domain.RawInputs
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

func toInputs(raw *domain.RawInputs) features.Inputs {
	return features.Inputs{
		Bars:         raw.Market.Bars,
		Fundamentals: raw.Market.Fundamentals,
		Macro:        raw.Macro,
		News:         raw.News,
	}
}

func mostRecent(news domain.NewsBatch, n int) domain.NewsBatch {
	out := append(domain.NewsBatch{}, news...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
