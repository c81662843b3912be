package news

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"MarketWhisperer/internal/domain/models"
	"MarketWhisperer/internal/services/analytics"
	"MarketWhisperer/pkg/logger"
	"MarketWhisperer/pkg/util"

	"github.com/mmcdole/gofeed/rss"
)

const (
	maxHeadlines  = 10
	unknownSource = "Unknown"
)

// Options holds Google News locale parameters.
type Options struct {
	BaseURL  string
	Language string // hl
	Country  string // gl
	Edition  string // ceid
	Timeout  time.Duration
	Attempts int
}

// GoogleNews fetches headlines from the Google News RSS search endpoint.
type GoogleNews struct {
	http *analytics.HTTPServiceBase
	opts Options
	log  *logger.Logger
}

func NewGoogleNews(opts Options, log *logger.Logger) *GoogleNews {
	return &GoogleNews{
		http: analytics.NewHTTPServiceBase("google_news", opts.BaseURL, opts.Timeout, opts.Attempts),
		opts: opts,
		log:  log,
	}
}

// FetchHeadlines returns at most ten headlines for "{symbol} stock".
func (g *GoogleNews) FetchHeadlines(ctx context.Context, symbol string) ([]models.Headline, error) {
	query := map[string][]string{
		"q":    {symbol + " stock"},
		"hl":   {g.opts.Language},
		"gl":   {g.opts.Country},
		"ceid": {g.opts.Edition},
	}

	body, err := g.http.GetBytesWithRetry(ctx, "", query)
	if err != nil {
		g.log.Warn("news fetch failed", logger.String("symbol", symbol), logger.Error(err))
		return nil, fmt.Errorf("%w: news for %s: %v", models.ErrSourceUnavailable, symbol, err)
	}

	headlines, err := ParseFeed(body)
	if err != nil {
		g.log.Warn("news feed malformed", logger.String("symbol", symbol), logger.Error(err))
		return nil, fmt.Errorf("%w: news for %s: %v", models.ErrMalformedResponse, symbol, err)
	}

	g.log.Debug("headlines fetched", logger.String("symbol", symbol), logger.Int("count", len(headlines)))
	return headlines, nil
}

// ParseFeed maps the first ten RSS items to headlines.
func ParseFeed(body []byte) ([]models.Headline, error) {
	p := &rss.Parser{}
	feed, err := p.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	items := feed.Items
	if len(items) > maxHeadlines {
		items = items[:maxHeadlines]
	}

	out := make([]models.Headline, 0, len(items))
	for _, item := range items {
		h := models.Headline{
			Title:     strings.TrimSpace(item.Title),
			Link:      strings.TrimSpace(item.Link),
			Source:    unknownSource,
			Published: strings.TrimSpace(item.PubDate),
		}
		if item.Source != nil && strings.TrimSpace(item.Source.Title) != "" {
			h.Source = strings.TrimSpace(item.Source.Title)
		}
		if item.PubDateParsed != nil {
			h.PublishedAt = item.PubDateParsed.UTC()
		} else if t, ok := util.ParseTime(h.Published); ok {
			h.PublishedAt = t.UTC()
		}
		out = append(out, h)
	}
	return out, nil
}
