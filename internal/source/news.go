package source

import (
	"context"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/ecotrade/pricefeed/internal/infra"
)

// Headline is one metals-market news item.
type Headline struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Source    string    `json:"source"`
	Published time.Time `json:"published"`
}

// News aggregates metals-market headlines from RSS feeds. Results are
// cached; individual feed failures are logged and skipped.
type News struct {
	feeds   []string
	cache   *infra.Cache
	limiter *infra.RateLimiter
	parser  *gofeed.Parser
	log     *zap.Logger
}

// NewNews creates the news aggregator for the configured feed URLs.
func NewNews(feeds []string, cacheTTL time.Duration, log *zap.Logger) *News {
	return &News{
		feeds:   feeds,
		cache:   infra.NewCache(cacheTTL),
		limiter: infra.NewRateLimiter(2, time.Second),
		parser:  gofeed.NewParser(),
		log:     log,
	}
}

// Headlines returns up to limit headlines, newest first.
func (n *News) Headlines(ctx context.Context, limit int) []Headline {
	if cached, ok := n.cache.Get("headlines"); ok {
		return clip(cached.([]Headline), limit)
	}

	var all []Headline
	for _, feedURL := range n.feeds {
		if err := n.limiter.Wait(ctx); err != nil {
			break
		}
		feed, err := n.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			n.log.Warn("news feed fetch failed", zap.String("feed", feedURL), zap.Error(err))
			continue
		}
		for _, item := range feed.Items {
			h := Headline{Title: item.Title, Link: item.Link, Source: feed.Title}
			if item.PublishedParsed != nil {
				h.Published = *item.PublishedParsed
			}
			all = append(all, h)
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Published.After(all[j].Published) })
	if len(all) > 0 {
		// An all-feeds-down result is not cached, so headlines come
		// back as soon as an upstream recovers.
		n.cache.Set("headlines", all)
	}
	return clip(all, limit)
}

func clip(hs []Headline, limit int) []Headline {
	if limit > 0 && len(hs) > limit {
		return hs[:limit]
	}
	return hs
}
