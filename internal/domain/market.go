package domain

import "time"

// Bar is a single daily OHLCV bar.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// MarketSeries is a chronologically ascending sequence of daily bars.
type MarketSeries []Bar

// Fundamentals is a static snapshot of company ratios. Nil means unknown.
type Fundamentals struct {
	LongName      string   `json:"long_name,omitempty"`
	Sector        string   `json:"sector,omitempty"`
	MarketCap     *float64 `json:"market_cap"`
	TrailingPE    *float64 `json:"trailing_pe"`
	DividendYield *float64 `json:"dividend_yield"`
	DebtToEquity  *float64 `json:"debt_to_equity"`
	CashPerShare  *float64 `json:"cash_per_share"`
}

// MarketData is what the market-data provider returns for one ticker.
type MarketData struct {
	Ticker       string       `json:"ticker"`
	Bars         MarketSeries `json:"bars"`
	Fundamentals Fundamentals `json:"fundamentals"`
}

// RatePoint is one observation of a macro interest-rate series.
type RatePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// MacroContext carries the broad-market move and an optional rate series.
type MacroContext struct {
	MarketMovePct float64     `json:"market_move_pct"`
	Rates         []RatePoint `json:"rates,omitempty"`
}

type NewsItem struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Body        string    `json:"body,omitempty"`
}

// NewsBatch is unordered and may be empty.
type NewsBatch []NewsItem

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
