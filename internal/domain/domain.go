package domain

import "time"

type AssessmentType string

const (
	AssessmentML        AssessmentType = "ML_Model"
	AssessmentHeuristic AssessmentType = "Heuristic"
)

// ExplanationEntry is one signed contribution to a score. Value is nil when
// the underlying input was unknown.
type ExplanationEntry struct {
	Feature string   `json:"feature"`
	Value   *float64 `json:"value"`
	Impact  float64  `json:"impact"`
}

// ScorePayload is the result of scoring one ticker. StabilityScore and
// TechnicalScore are null for heuristic assessments.
type ScorePayload struct {
	Ticker           string             `json:"ticker"`
	StabilityScore   *int               `json:"stability_score"`
	TechnicalScore   *int               `json:"technical_score"`
	FundamentalScore int                `json:"fundamental_score"`
	RiskProbability  *float64           `json:"risk_probability,omitempty"`
	Explanation      []ExplanationEntry `json:"explanation"`
	AssessmentType   AssessmentType     `json:"assessment_type"`
	LatestSentiment  float64            `json:"latest_sentiment"`
	AllFeatures      map[string]float64 `json:"all_features,omitempty"`
	ModelTrainedAt   *time.Time         `json:"model_trained_at,omitempty"`
	ModelFromCache   bool               `json:"-"`
}

// ScoreReport is the full response served to API clients.
type ScoreReport struct {
	Ticker       string        `json:"ticker"`
	CompanyName  string        `json:"company_name"`
	CompanyInfo  Fundamentals  `json:"company_info"`
	Score        *ScorePayload `json:"score_result"`
	StockHistory MarketSeries  `json:"stock_history"`
	RecentNews   NewsBatch     `json:"recent_news_for_context"`
}

// RawInputs is the raw collaborator output for one ticker.
type RawInputs struct {
	Market MarketData   `json:"market"`
	Macro  MacroContext `json:"macro"`
	News   NewsBatch    `json:"news"`
}
