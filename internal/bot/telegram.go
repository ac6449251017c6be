package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"credtech/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type ScoreReporter interface {
	Report(ctx context.Context, ticker string) (*domain.ScoreReport, error)
}

const topDrivers = 3

func StartTelegramBot(token string, scores ScoreReporter) {
	if strings.TrimSpace(token) == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/score", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /score AAPL")
		}
		ticker := strings.ToUpper(args[0])
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		report, err := scores.Report(ctx, ticker)
		if err != nil {
			return c.Send(formatError(ticker, err))
		}
		return c.Send(formatReport(report))
	})

	log.Println("Telegram bot started")
	go b.Start()
}

func formatError(ticker string, err error) string {
	if errors.Is(err, domain.ErrTickerNotFound) {
		return fmt.Sprintf("Unknown ticker: %s", ticker)
	}
	return fmt.Sprintf("Error scoring %s: %v", ticker, err)
}

func formatReport(r *domain.ScoreReport) string {
	var sb strings.Builder
	name := r.CompanyName
	if name == "" {
		name = r.Ticker
	}
	fmt.Fprintf(&sb, "%s (%s)\n", name, r.Ticker)

	s := r.Score
	if s == nil {
		sb.WriteString("No score available")
		return sb.String()
	}
	if s.StabilityScore != nil {
		fmt.Fprintf(&sb, "Stability: %d/100\n", *s.StabilityScore)
	}
	if s.TechnicalScore != nil {
		fmt.Fprintf(&sb, "Technical: %d/100\n", *s.TechnicalScore)
	}
	fmt.Fprintf(&sb, "Fundamental: %d/100\n", s.FundamentalScore)
	if s.RiskProbability != nil {
		fmt.Fprintf(&sb, "Drawdown risk: %.1f%%\n", *s.RiskProbability*100)
	}
	fmt.Fprintf(&sb, "Assessment: %s\n", s.AssessmentType)
	fmt.Fprintf(&sb, "News sentiment: %.2f", s.LatestSentiment)

	n := len(s.Explanation)
	if n > topDrivers {
		n = topDrivers
	}
	if n > 0 {
		sb.WriteString("\nTop drivers:")
		for _, e := range s.Explanation[:n] {
			fmt.Fprintf(&sb, "\n  %s %+.2f", e.Feature, e.Impact)
		}
	}
	return sb.String()
}
