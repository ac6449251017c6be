package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"credtech/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed/rss"
	"go.opentelemetry.io/otel/trace"
)

const googleNewsURL = "https://news.google.com/rss/search"

// RSSNewsProvider searches Google News RSS for recent articles.
type RSSNewsProvider struct {
	client  *client
	baseURL string
	tracer  trace.Tracer
}

func NewRSSNewsProvider(tracer trace.Tracer, rps float64) *RSSNewsProvider {
	return &RSSNewsProvider{
		client:  newClient(20*time.Second, rps),
		baseURL: googleNewsURL,
		tracer:  tracer,
	}
}

func (p *RSSNewsProvider) FetchNews(ctx context.Context, query string, maxItems int) (domain.NewsBatch, error) {
	ctx, span := p.tracer.Start(ctx, "rss.fetch-news")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("news query is required")
	}
	if maxItems <= 0 {
		maxItems = 20
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("hl", "en-US")
	q.Set("gl", "US")
	q.Set("ceid", "US:en")
	body, err := p.client.get(ctx, p.baseURL+"?"+q.Encode(), "application/rss+xml, application/xml, text/xml")
	if err != nil {
		return nil, &domain.UpstreamError{Source: "news", Err: err}
	}

	parser := rss.Parser{}
	feed, err := parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.UpstreamError{Source: "news", Err: fmt.Errorf("decode rss payload: %w", err)}
	}

	items := make(domain.NewsBatch, 0, min(maxItems, len(feed.Items)))
	for _, row := range feed.Items {
		if len(items) >= maxItems {
			break
		}
		title := sanitizeText(row.Title, 300)
		if title == "" {
			continue
		}
		item := domain.NewsItem{
			Title: title,
			URL:   sanitizeText(row.Link, 500),
			Body:  sanitizeText(plainText(row.Description), 420),
		}
		if row.Source != nil {
			item.Source = sanitizeText(row.Source.Title, 120)
		}
		if row.PubDateParsed != nil {
			item.PublishedAt = row.PubDateParsed.UTC()
		}
		items = append(items, item)
	}
	return items, nil
}

// plainText drops markup from an HTML fragment.
func plainText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return doc.Text()
}
