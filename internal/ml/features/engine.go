package features

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"credtech/internal/domain"
	"credtech/internal/sentiment"
	"credtech/internal/ta"
)

const (
	rsiPeriod      = 14
	shortWindow    = 7
	mediumWindow   = 30
	longWindow     = 90
	rateDiffWindow = 30

	legacyDefaultPE = 25.0
)

const (
	ColPriceChange7d     = "price_change_pct_7d"
	ColPriceChange30d    = "price_change_pct_30d"
	ColPriceChange90d    = "price_change_pct_90d"
	ColVolatility30d     = "volatility_30d"
	ColVolatility90d     = "volatility_90d"
	ColRSI14             = "rsi_14"
	ColPriceToMA90       = "price_to_ma_90"
	ColMarketMove        = "market_move_pct"
	ColRateChange30d     = "rate_change_30d"
	ColNewsSentiment     = "avg_news_sentiment"
	ColNewsVolume        = "news_volume"
	ColNegativeNewsCount = "negative_news_count"
	ColTrailingPE        = "trailing_pe"
	ColDividendYield     = "dividend_yield"
	ColDebtToEquity      = "debt_to_equity"
	ColCashPerShare      = "cash_per_share"

	LegacyColNewsSentiment = "avg_news_sentiment_30d"
	LegacyColNewsVolume    = "news_volume_30d"
	LegacyColTrailingPE    = "trailingPE"
	LegacyColDividendYield = "dividendYield"
)

var fullColumns = []string{
	ColPriceChange7d, ColPriceChange30d, ColPriceChange90d,
	ColVolatility30d, ColVolatility90d, ColRSI14, ColPriceToMA90,
	ColMarketMove, ColRateChange30d,
	ColNewsSentiment, ColNewsVolume, ColNegativeNewsCount,
	ColTrailingPE, ColDividendYield, ColDebtToEquity, ColCashPerShare,
}

var legacyColumns = []string{
	ColPriceChange30d, ColVolatility30d, ColMarketMove,
	LegacyColNewsSentiment, LegacyColNewsVolume,
	LegacyColTrailingPE, LegacyColDividendYield,
}

// Ratio-type columns impute to 1.0; every other column imputes to 0.0.
var ratioDefaults = map[string]float64{
	ColPriceToMA90: 1.0,
}

// AdverseKeywords flag negative-event headlines (case-insensitive substring).
var AdverseKeywords = []string{
	"downgrade", "lawsuit", "fraud", "restructuring", "crisis",
	"investigation", "scandal", "debt", "default", "bankruptcy", "insolvency",
}

// Inputs bundles the raw signals for one ticker.
type Inputs struct {
	Bars         domain.MarketSeries
	Fundamentals domain.Fundamentals
	Macro        domain.MacroContext
	News         domain.NewsBatch
}

type Config struct {
	// NewsWindowDays restricts news to items published within this many days
	// of the latest bar. Zero uses the whole batch.
	NewsWindowDays int
}

type Engine struct {
	analyzer sentiment.Analyzer
	cfg      Config
}

func NewEngine(analyzer sentiment.Analyzer, cfg Config) *Engine {
	if analyzer == nil {
		analyzer = sentiment.NewLexiconAnalyzer()
	}
	if cfg.NewsWindowDays < 0 {
		cfg.NewsWindowDays = 0
	}
	return &Engine{analyzer: analyzer, cfg: cfg}
}

func FullColumns() []string { return append([]string(nil), fullColumns...) }

func LegacyColumns() []string { return append([]string(nil), legacyColumns...) }

// BuildTable constructs the full per-day feature table. An empty or unusable
// price history yields an empty table.
func (e *Engine) BuildTable(ctx context.Context, in Inputs) *Table {
	bars := normalizeBars(in.Bars)
	if len(bars) == 0 {
		return &Table{Columns: FullColumns()}
	}
	closes, dates := closesAndDates(bars)
	n := len(closes)

	news := e.summarizeNews(ctx, in.News, dates[n-1])
	rates := ta.DiffSeries(alignRates(in.Macro.Rates, dates), rateDiffWindow)
	ma90 := ta.SMASeries(closes, longWindow)
	priceToMA := make([]float64, n)
	for i := range closes {
		priceToMA[i] = closes[i] / ma90[i]
	}

	cols := map[string][]float64{
		ColPriceChange7d:     ta.PctChangeSeries(closes, shortWindow),
		ColPriceChange30d:    ta.PctChangeSeries(closes, mediumWindow),
		ColPriceChange90d:    ta.PctChangeSeries(closes, longWindow),
		ColVolatility30d:     ta.RollingStdSeries(closes, mediumWindow),
		ColVolatility90d:     ta.RollingStdSeries(closes, longWindow),
		ColRSI14:             ta.RSISeries(closes, rsiPeriod),
		ColPriceToMA90:       priceToMA,
		ColMarketMove:        constant(n, in.Macro.MarketMovePct),
		ColRateChange30d:     rates,
		ColNewsSentiment:     constant(n, news.sentiment),
		ColNewsVolume:        constant(n, float64(news.volume)),
		ColNegativeNewsCount: constant(n, float64(news.negative)),
		ColTrailingPE:        constant(n, valueOrNaN(in.Fundamentals.TrailingPE)),
		ColDividendYield:     constant(n, percentOrNaN(in.Fundamentals.DividendYield)),
		ColDebtToEquity:      constant(n, valueOrNaN(in.Fundamentals.DebtToEquity)),
		ColCashPerShare:      constant(n, valueOrNaN(in.Fundamentals.CashPerShare)),
	}
	if len(in.Macro.Rates) == 0 {
		cols[ColRateChange30d] = constant(n, 0)
	}

	t := assemble(fullColumns, cols, dates, closes)
	t.Sentiment = news.sentiment
	return t
}

// BuildLegacyTable constructs the simplified seven-column feature set, in
// which P/E and dividend yield get fixed defaults up front.
func (e *Engine) BuildLegacyTable(ctx context.Context, in Inputs) *Table {
	bars := normalizeBars(in.Bars)
	if len(bars) == 0 {
		return &Table{Columns: LegacyColumns()}
	}
	closes, dates := closesAndDates(bars)
	n := len(closes)
	news := e.summarizeNews(ctx, in.News, dates[n-1])

	pe := legacyDefaultPE
	if v := in.Fundamentals.TrailingPE; v != nil && *v != 0 && !math.IsNaN(*v) {
		pe = *v
	}
	dividend := 0.0
	if v := in.Fundamentals.DividendYield; v != nil {
		dividend = *v * 100
	}

	cols := map[string][]float64{
		ColPriceChange30d:      ta.PctChangeSeries(closes, mediumWindow),
		ColVolatility30d:       ta.RollingStdSeries(closes, mediumWindow),
		ColMarketMove:          constant(n, in.Macro.MarketMovePct),
		LegacyColNewsSentiment: constant(n, news.sentiment),
		LegacyColNewsVolume:    constant(n, float64(news.volume)),
		LegacyColTrailingPE:    constant(n, pe),
		LegacyColDividendYield: constant(n, dividend),
	}
	t := assemble(legacyColumns, cols, dates, closes)
	t.Sentiment = news.sentiment
	return t
}

type newsSummary struct {
	sentiment float64
	volume    int
	negative  int
}

func (e *Engine) summarizeNews(ctx context.Context, batch domain.NewsBatch, anchor time.Time) newsSummary {
	var out newsSummary
	var cutoff time.Time
	if e.cfg.NewsWindowDays > 0 {
		cutoff = anchor.AddDate(0, 0, -e.cfg.NewsWindowDays)
	}
	titles := make([]string, 0, len(batch))
	for _, item := range batch {
		if !cutoff.IsZero() && !item.PublishedAt.IsZero() && item.PublishedAt.Before(cutoff) {
			continue
		}
		out.volume++
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		titles = append(titles, title)
		if hasAdverseKeyword(title) {
			out.negative++
		}
	}
	if len(titles) == 0 {
		return out
	}
	scores, err := e.analyzer.Polarity(ctx, titles)
	if err != nil || len(scores) == 0 {
		log.Printf("news sentiment unavailable, using neutral: %v", err)
		return out
	}
	mean, _ := ta.MeanStd(scores)
	out.sentiment = math.Max(-1, math.Min(1, mean))
	return out
}

func hasAdverseKeyword(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range AdverseKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// normalizeBars sorts by date, keeps the last bar per calendar day and drops
// bars without a usable close.
func normalizeBars(in domain.MarketSeries) []domain.Bar {
	out := make([]domain.Bar, 0, len(in))
	for _, b := range in {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) || b.Close <= 0 {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	deduped := out[:0]
	for _, b := range out {
		if len(deduped) > 0 && sameDay(deduped[len(deduped)-1].Date, b.Date) {
			deduped[len(deduped)-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	return deduped
}

func sameDay(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func closesAndDates(bars []domain.Bar) ([]float64, []time.Time) {
	closes := make([]float64, len(bars))
	dates := make([]time.Time, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		dates[i] = b.Date.UTC()
	}
	return closes, dates
}

// alignRates forward-fills the rate series onto bar dates. Dates before the
// first observation are NaN.
func alignRates(points []domain.RatePoint, dates []time.Time) []float64 {
	out := make([]float64, len(dates))
	clean := make([]domain.RatePoint, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		clean = append(clean, p)
	}
	sort.SliceStable(clean, func(i, j int) bool { return clean[i].Date.Before(clean[j].Date) })

	j := 0
	last := math.NaN()
	for i, d := range dates {
		for j < len(clean) && !clean[j].Date.After(d) {
			last = clean[j].Value
			j++
		}
		out[i] = last
	}
	return out
}

func assemble(columns []string, cols map[string][]float64, dates []time.Time, closes []float64) *Table {
	n := len(dates)
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(columns))
		for j, name := range columns {
			row[j] = cols[name][i]
		}
		rows[i] = row
	}
	impute(columns, rows)
	return &Table{
		Dates:   dates,
		Columns: append([]string(nil), columns...),
		Rows:    rows,
		Closes:  closes,
	}
}

// impute replaces infinities with zero, then NaNs with the column default,
// then anything left with zero.
func impute(columns []string, rows [][]float64) {
	for _, row := range rows {
		for j, name := range columns {
			v := row[j]
			if math.IsInf(v, 0) {
				row[j] = 0
				continue
			}
			if math.IsNaN(v) {
				if d, ok := ratioDefaults[name]; ok {
					row[j] = d
				} else {
					row[j] = 0
				}
			}
			if math.IsNaN(row[j]) || math.IsInf(row[j], 0) {
				row[j] = 0
			}
		}
	}
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func percentOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v * 100
}
