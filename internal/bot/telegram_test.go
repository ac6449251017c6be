package bot

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"credtech/internal/domain"
)

func TestStartTelegramBotSkipsWithoutToken(t *testing.T) {
	StartTelegramBot("", nil)
	StartTelegramBot("   ", nil)
}

func TestFormatReportML(t *testing.T) {
	stability, technical := 64, 58
	risk := 0.36
	r := &domain.ScoreReport{
		Ticker:      "AAPL",
		CompanyName: "Apple Inc.",
		Score: &domain.ScorePayload{
			StabilityScore:   &stability,
			TechnicalScore:   &technical,
			FundamentalScore: 85,
			RiskProbability:  &risk,
			AssessmentType:   domain.AssessmentML,
			LatestSentiment:  0.12,
			Explanation: []domain.ExplanationEntry{
				{Feature: "volatility_30d", Impact: 0.42},
				{Feature: "rate_change_30d", Impact: -0.2},
				{Feature: "news_sentiment", Impact: 0.1},
				{Feature: "volume_change_30d", Impact: 0.01},
			},
		},
	}
	msg := formatReport(r)
	for _, want := range []string{"Apple Inc. (AAPL)", "Stability: 64/100", "Technical: 58/100", "Fundamental: 85/100", "Drawdown risk: 36.0%", "volatility_30d +0.42", "rate_change_30d -0.20"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "volume_change_30d") {
		t.Fatalf("expected only top 3 drivers:\n%s", msg)
	}
}

func TestFormatReportHeuristic(t *testing.T) {
	r := &domain.ScoreReport{
		Ticker: "NEWCO",
		Score:  &domain.ScorePayload{FundamentalScore: 60, AssessmentType: domain.AssessmentHeuristic},
	}
	msg := formatReport(r)
	if strings.Contains(msg, "Stability") || !strings.Contains(msg, "NEWCO (NEWCO)") || !strings.Contains(msg, "Assessment: Heuristic") {
		t.Fatalf("unexpected message:\n%s", msg)
	}
}

func TestFormatError(t *testing.T) {
	if got := formatError("ZZZZ", fmt.Errorf("lookup: %w", domain.ErrTickerNotFound)); got != "Unknown ticker: ZZZZ" {
		t.Fatalf("got %q", got)
	}
	if got := formatError("AAPL", errors.New("boom")); !strings.Contains(got, "boom") {
		t.Fatalf("got %q", got)
	}
}
