package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"credtech/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	yahooBaseURL     = "https://query1.finance.yahoo.com"
	marketIndex      = "^GSPC"
	marketMoveWindow = "4mo"
)

// YahooProvider fetches daily bars and fundamentals from Yahoo Finance.
type YahooProvider struct {
	client  *client
	baseURL string
	tracer  trace.Tracer
}

func NewYahooProvider(tracer trace.Tracer, rps float64) *YahooProvider {
	return &YahooProvider{
		client:  newClient(20*time.Second, rps),
		baseURL: yahooBaseURL,
		tracer:  tracer,
	}
}

// FetchMarketData returns one year of daily bars plus a fundamentals
// snapshot. A fundamentals failure leaves the fields unknown.
func (p *YahooProvider) FetchMarketData(ctx context.Context, ticker string) (*domain.MarketData, error) {
	ctx, span := p.tracer.Start(ctx, "yahoo.fetch-market-data")
	defer span.End()

	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	chart, err := p.fetchChart(ctx, ticker, "1y")
	if err != nil {
		return nil, err
	}

	fundamentals, err := p.fetchFundamentals(ctx, ticker)
	if err != nil {
		span.RecordError(err)
		fundamentals = domain.Fundamentals{}
	}
	if fundamentals.LongName == "" {
		fundamentals.LongName = chart.longName
	}
	if fundamentals.LongName == "" {
		fundamentals.LongName = ticker
	}

	return &domain.MarketData{Ticker: ticker, Bars: chart.bars, Fundamentals: fundamentals}, nil
}

// FetchMarketMove returns the S&P 500 percentage move over the trailing four months.
func (p *YahooProvider) FetchMarketMove(ctx context.Context) (float64, error) {
	ctx, span := p.tracer.Start(ctx, "yahoo.fetch-market-move")
	defer span.End()

	chart, err := p.fetchChart(ctx, marketIndex, marketMoveWindow)
	if err != nil {
		return 0, err
	}
	if len(chart.bars) < 2 {
		return 0, &domain.UpstreamError{Source: "yahoo", Err: errors.New("market index history too short")}
	}
	first, last := chart.bars[0].Close, chart.bars[len(chart.bars)-1].Close
	if first == 0 {
		return 0, nil
	}
	return (last/first - 1) * 100, nil
}

type chartResult struct {
	longName string
	bars     domain.MarketSeries
}

func (p *YahooProvider) fetchChart(ctx context.Context, symbol, window string) (*chartResult, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d", p.baseURL, url.PathEscape(symbol), window)
	body, err := p.client.get(ctx, endpoint, "application/json")
	if err != nil {
		var status *StatusError
		if errors.As(err, &status) && status.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", symbol, domain.ErrTickerNotFound)
		}
		return nil, &domain.UpstreamError{Source: "yahoo", Err: fmt.Errorf("chart %s: %w", symbol, err)}
	}

	var raw struct {
		Chart struct {
			Result []struct {
				Meta struct {
					LongName  string `json:"longName"`
					ShortName string `json:"shortName"`
				} `json:"meta"`
				Timestamp  []int64 `json:"timestamp"`
				Indicators struct {
					Quote []struct {
						Open   []*float64 `json:"open"`
						High   []*float64 `json:"high"`
						Low    []*float64 `json:"low"`
						Close  []*float64 `json:"close"`
						Volume []*float64 `json:"volume"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
			Error *struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		} `json:"chart"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &domain.UpstreamError{Source: "yahoo", Err: fmt.Errorf("parse chart %s: %w", symbol, err)}
	}
	if raw.Chart.Error != nil {
		return nil, fmt.Errorf("%s: %s: %w", symbol, raw.Chart.Error.Description, domain.ErrTickerNotFound)
	}
	if len(raw.Chart.Result) == 0 || len(raw.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, domain.ErrTickerNotFound)
	}

	res := raw.Chart.Result[0]
	q := res.Indicators.Quote[0]
	bars := make(domain.MarketSeries, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		closeV := at(q.Close, i)
		if math.IsNaN(closeV) {
			continue
		}
		bars = append(bars, domain.Bar{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   orDefault(at(q.Open, i), closeV),
			High:   orDefault(at(q.High, i), closeV),
			Low:    orDefault(at(q.Low, i), closeV),
			Close:  closeV,
			Volume: orDefault(at(q.Volume, i), 0),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: no price history: %w", symbol, domain.ErrTickerNotFound)
	}

	name := res.Meta.LongName
	if name == "" {
		name = res.Meta.ShortName
	}
	return &chartResult{longName: name, bars: bars}, nil
}

func (p *YahooProvider) fetchFundamentals(ctx context.Context, ticker string) (domain.Fundamentals, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=summaryDetail,financialData,price,assetProfile",
		p.baseURL, url.PathEscape(ticker))
	body, err := p.client.get(ctx, endpoint, "application/json")
	if err != nil {
		return domain.Fundamentals{}, err
	}

	type rawValue struct {
		Raw *float64 `json:"raw"`
	}
	var raw struct {
		QuoteSummary struct {
			Result []struct {
				SummaryDetail struct {
					TrailingPE    rawValue `json:"trailingPE"`
					DividendYield rawValue `json:"dividendYield"`
					MarketCap     rawValue `json:"marketCap"`
				} `json:"summaryDetail"`
				FinancialData struct {
					DebtToEquity      rawValue `json:"debtToEquity"`
					TotalCashPerShare rawValue `json:"totalCashPerShare"`
				} `json:"financialData"`
				Price struct {
					LongName string `json:"longName"`
				} `json:"price"`
				AssetProfile struct {
					Sector string `json:"sector"`
				} `json:"assetProfile"`
			} `json:"result"`
		} `json:"quoteSummary"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.Fundamentals{}, fmt.Errorf("parse quote summary: %w", err)
	}
	if len(raw.QuoteSummary.Result) == 0 {
		return domain.Fundamentals{}, errors.New("quote summary has no result")
	}
	r := raw.QuoteSummary.Result[0]
	return domain.Fundamentals{
		LongName:      r.Price.LongName,
		Sector:        r.AssetProfile.Sector,
		MarketCap:     r.SummaryDetail.MarketCap.Raw,
		TrailingPE:    r.SummaryDetail.TrailingPE.Raw,
		DividendYield: r.SummaryDetail.DividendYield.Raw,
		DebtToEquity:  r.FinancialData.DebtToEquity.Raw,
		CashPerShare:  r.FinancialData.TotalCashPerShare.Raw,
	}, nil
}

func at(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return math.NaN()
	}
	return *values[i]
}

func orDefault(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
