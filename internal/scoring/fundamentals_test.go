package scoring

import (
	"testing"

	"credtech/internal/domain"
)

func TestScoreFundamentals(t *testing.T) {
	tests := []struct {
		name      string
		in        domain.Fundamentals
		want      int
		wantNames []string
	}{
		{
			name: "healthy",
			in:   domain.Fundamentals{DebtToEquity: domain.Float(50), TrailingPE: domain.Float(20), CashPerShare: domain.Float(5)},
			want: 100,
		},
		{
			name:      "all unknown",
			in:        domain.Fundamentals{},
			want:      30,
			wantNames: []string{"debt_to_equity", "trailing_pe", "cash_per_share"},
		},
		{
			name:      "high leverage negative earnings low cash",
			in:        domain.Fundamentals{DebtToEquity: domain.Float(200), TrailingPE: domain.Float(-3), CashPerShare: domain.Float(0.5)},
			want:      10,
			wantNames: []string{"debt_to_equity", "trailing_pe", "cash_per_share"},
		},
		{
			name:      "elevated leverage",
			in:        domain.Fundamentals{DebtToEquity: domain.Float(100), TrailingPE: domain.Float(15), CashPerShare: domain.Float(2)},
			want:      75,
			wantNames: []string{"debt_to_equity"},
		},
		{
			name: "boundaries do not fire",
			in:   domain.Fundamentals{DebtToEquity: domain.Float(80), TrailingPE: domain.Float(0), CashPerShare: domain.Float(1)},
			want: 100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, entries := ScoreFundamentals(tt.in)
			if got != tt.want {
				t.Fatalf("expected score %d, got %d", tt.want, got)
			}
			if len(entries) != len(tt.wantNames) {
				t.Fatalf("expected %d entries, got %+v", len(tt.wantNames), entries)
			}
			for i, name := range tt.wantNames {
				if entries[i].Feature != name {
					t.Fatalf("entry %d: expected %s, got %s", i, name, entries[i].Feature)
				}
			}
		})
	}
}

func TestScoreFundamentalsEntries(t *testing.T) {
	_, entries := ScoreFundamentals(domain.Fundamentals{DebtToEquity: domain.Float(151.234), TrailingPE: domain.Float(10)})
	if entries[0].Impact != 50 || entries[0].Value == nil || *entries[0].Value != 151.23 {
		t.Fatalf("unexpected debt entry: %+v", entries[0])
	}
	if entries[1].Feature != "cash_per_share" || entries[1].Value != nil || entries[1].Impact != 15 {
		t.Fatalf("unexpected cash entry: %+v", entries[1])
	}
}

func TestScoreFundamentalsIsPure(t *testing.T) {
	in := domain.Fundamentals{DebtToEquity: domain.Float(90)}
	a, _ := ScoreFundamentals(in)
	b, _ := ScoreFundamentals(in)
	if a != b || *in.DebtToEquity != 90 {
		t.Fatalf("expected identical scores and untouched input, got %d vs %d", a, b)
	}
}
