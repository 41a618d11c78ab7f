package datasource

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/stockrec/internal/sentiment"
	"github.com/seenimoa/stockrec/pkg/models"
	"github.com/seenimoa/stockrec/pkg/utils"
)

const sourceHeadlines = "headlines"

// maxConcurrentFeeds bounds the HeadlinesFor fan-out.
const maxConcurrentFeeds = 4

// Headlines returns up to limit recent headlines for symbol, newest first.
// limit <= 0 returns the whole feed.
func (c *Client) Headlines(ctx context.Context, symbol string, limit int) ([]models.Headline, error) {
	symbol = utils.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}

	items, ok := c.headlines.Get(symbol)
	if !ok {
		url := fmt.Sprintf(c.cfg.NewsFeedURL, utils.ToYahooSymbol(symbol))
		body, err := c.Get(ctx, sourceHeadlines, url, "application/rss+xml, application/xml, text/xml")
		if err != nil {
			return nil, err
		}
		items, err = parseHeadlines(body, symbol)
		if err != nil {
			return nil, err
		}
		c.headlines.Set(symbol, items)
	}

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return append([]models.Headline(nil), items...), nil
}

// HeadlinesFor fetches headlines for several symbols concurrently. Symbols
// whose feed fails are logged and left out of the result; only context
// cancellation is returned as an error.
func (c *Client) HeadlinesFor(ctx context.Context, symbols []string, limit int) (map[string][]models.Headline, error) {
	var (
		mu  sync.Mutex
		out = make(map[string][]models.Headline, len(symbols))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFeeds)

	for _, sym := range symbols {
		g.Go(func() error {
			items, err := c.Headlines(gctx, sym, limit)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Warn().Err(err).Str("symbol", sym).Msg("headlines unavailable")
				return nil // non-fatal
			}
			mu.Lock()
			out[utils.NormalizeSymbol(sym)] = items
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseHeadlines(body []byte, symbol string) ([]models.Headline, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed for %s: %w", symbol, err)
	}

	source := feed.Title
	out := make([]models.Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		h := models.Headline{
			Symbol: symbol,
			Title:  cleanHTML(item.Title),
			Link:   item.Link,
			Source: source,
		}
		if item.PublishedParsed != nil {
			h.PublishedAt = item.PublishedParsed.UTC()
		}
		if h.Title == "" {
			continue
		}
		out = append(out, h)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	sentiment.Tag(out)
	return out, nil
}

// cleanHTML strips markup from feed text.
func cleanHTML(s string) string {
	if s == "" || !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
