package scoring

import "credtech/internal/domain"

const (
	penaltyDebtUnknown  = 25
	penaltyDebtHigh     = 50
	penaltyDebtElevated = 25
	penaltyPE           = 30
	penaltyCashUnknown  = 15
	penaltyCashLow      = 10

	debtHighThreshold     = 150.0
	debtElevatedThreshold = 80.0
	cashLowThreshold      = 1.0
)

// ScoreFundamentals scores a fundamentals snapshot on [0,100], starting at
// 100 and subtracting fixed penalties. Each penalty that fires yields one
// explanation entry whose impact is the penalty; Value is nil when the
// input was unknown.
func ScoreFundamentals(f domain.Fundamentals) (int, []domain.ExplanationEntry) {
	score := 100
	var entries []domain.ExplanationEntry
	penalize := func(feature string, value *float64, penalty int) {
		score -= penalty
		entries = append(entries, domain.ExplanationEntry{
			Feature: feature,
			Value:   roundedCopy(value),
			Impact:  float64(penalty),
		})
	}

	switch de := f.DebtToEquity; {
	case de == nil:
		penalize("debt_to_equity", nil, penaltyDebtUnknown)
	case *de > debtHighThreshold:
		penalize("debt_to_equity", de, penaltyDebtHigh)
	case *de > debtElevatedThreshold:
		penalize("debt_to_equity", de, penaltyDebtElevated)
	}

	if pe := f.TrailingPE; pe == nil || *pe < 0 {
		penalize("trailing_pe", pe, penaltyPE)
	}

	switch cash := f.CashPerShare; {
	case cash == nil:
		penalize("cash_per_share", nil, penaltyCashUnknown)
	case *cash < cashLowThreshold:
		penalize("cash_per_share", cash, penaltyCashLow)
	}

	if score < 0 {
		score = 0
	}
	return score, entries
}

func roundedCopy(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return domain.Float(round2(*v))
}
