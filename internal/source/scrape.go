package source

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ecotrade/pricefeed/internal/config"
	"github.com/ecotrade/pricefeed/internal/infra"
	"github.com/ecotrade/pricefeed/pkg/models"
)

// Scraper extracts spot prices from third-party HTML pages. The exact
// markup is an external contract that changes without notice, so every
// parse path tolerates absence: the only hard invariant is that Price
// never fails loudly.
type Scraper struct {
	targets    map[models.Metal]config.ScrapeTarget
	userAgents []string
	timeout    time.Duration
	limiter    *infra.RateLimiter
	log        *zap.Logger
}

// NewScraper builds a scraper for the configured spot-price pages.
func NewScraper(cfg config.MarketConfig, log *zap.Logger) *Scraper {
	return &Scraper{
		targets: map[models.Metal]config.ScrapeTarget{
			models.MetalRhodium:   cfg.Rhodium,
			models.MetalPalladium: cfg.Palladium,
			models.MetalPlatinum:  cfg.Platinum,
		},
		userAgents: cfg.UserAgents,
		timeout:    time.Duration(cfg.ScrapeTimeout) * time.Second,
		limiter:    infra.NewRateLimiter(1, time.Second),
		log:        log,
	}
}

// Price fetches the spot price for one metal, trying the primary page
// first and the backup on any failure. Returns (0, false) when neither
// page yields a parseable price.
func (s *Scraper) Price(ctx context.Context, metal models.Metal) (float64, bool) {
	target, ok := s.targets[metal]
	if !ok {
		return 0, false
	}

	if price, ok := s.fetch(ctx, target.Primary); ok {
		return price, true
	}
	s.log.Debug("primary scrape failed, trying backup",
		zap.String("metal", string(metal)), zap.String("url", target.Backup))
	if price, ok := s.fetch(ctx, target.Backup); ok {
		return price, true
	}
	return 0, false
}

func (s *Scraper) fetch(ctx context.Context, url string) (float64, bool) {
	if url == "" {
		return 0, false
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, false
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, _, err := infra.DoGet(ctx, url, map[string]string{
		"User-Agent":    s.userAgent(),
		"Cache-Control": "max-age=0",
		"Accept":        "text/html",
	})
	if err != nil {
		s.log.Debug("scrape fetch failed", zap.String("url", url), zap.Error(err))
		return 0, false
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		s.log.Debug("scrape parse failed", zap.String("url", url), zap.Error(err))
		return 0, false
	}

	return extractPrice(doc)
}

func (s *Scraper) userAgent() string {
	if len(s.userAgents) == 0 {
		return "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
	}
	return s.userAgents[rand.Intn(len(s.userAgents))]
}

// extractPrice pulls a price-like token out of a spot-price page. It
// tries the known headline selectors first, then falls back to the first
// short dollar-prefixed span.
func extractPrice(doc *goquery.Document) (float64, bool) {
	selectors := []string{
		`h3[class*="font-mulish"][class*="text-4xl"]`,
		`td#spot-price`,
		`span.price-now`,
	}
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			if price, ok := parsePriceToken(text); ok {
				return price, true
			}
		}
	}

	var price float64
	found := false
	doc.Find("span").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if !strings.Contains(text, "$") || len(text) >= 15 {
			return true
		}
		if p, ok := parsePriceToken(text); ok {
			price, found = p, true
			return false
		}
		return true
	})
	return price, found
}

// parsePriceToken cleans a scraped token ("$1,234.56 ") into a float.
func parsePriceToken(text string) (float64, bool) {
	clean := strings.NewReplacer("$", "", ",", "", " ", " ").Replace(text)
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(clean, 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}
