package market

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ecotrade/pricefeed/internal/config"
	"github.com/ecotrade/pricefeed/internal/source"
	"github.com/ecotrade/pricefeed/pkg/models"
)

// PGMScraper fetches one metal's spot price from its HTML pages.
type PGMScraper interface {
	Price(ctx context.Context, metal models.Metal) (float64, bool)
}

// BatchSource fetches many symbols in one best-effort batch call.
type BatchSource interface {
	Tickers(ctx context.Context, symbols []string) map[string]models.TickerData
}

// EngineConfig wires the refresh engine's collaborators.
type EngineConfig struct {
	Store    *Store
	Scraper  PGMScraper
	Exchange BatchSource
	Quotes   BatchSource
	Universe []models.Instrument
	Market   config.MarketConfig
	Logger   *zap.Logger

	// OnPublish, when set, is called with every published snapshot
	// (used to stream snapshots to websocket clients).
	OnPublish func(*models.Snapshot)

	// Rand overrides the noise source; tests pass a seeded one.
	Rand *rand.Rand
}

// Engine is the perpetual market refresh loop. Once started it never
// returns until its context is cancelled, and no fault inside a tick can
// terminate it: a failed fetch leaves stale state in place, an
// unexpected panic skips the tick.
type Engine struct {
	store    *Store
	scraper  PGMScraper
	exchange BatchSource
	quotes   BatchSource
	universe []models.Instrument
	cfg      config.MarketConfig
	log      *zap.Logger
	rng      *rand.Rand
	publish  func(*models.Snapshot)

	// side buffer of last-known batch results, keyed by instrument name.
	// Owned by the engine goroutine; instruments absent from a batch
	// response keep their previous value.
	side map[string]models.TickerData

	// next scrape deadline per metal plus the next batch deadline.
	next      map[models.Metal]time.Time
	nextBatch time.Time
}

// NewEngine validates the wiring and builds the engine. An empty
// instrument universe is a startup misconfiguration and therefore fatal.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Store == nil || cfg.Scraper == nil || cfg.Exchange == nil || cfg.Quotes == nil {
		return nil, errors.New("market: engine requires store, scraper and both batch sources")
	}
	if len(cfg.Universe) == 0 {
		return nil, errors.New("market: no instruments defined")
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		store:    cfg.Store,
		scraper:  cfg.Scraper,
		exchange: cfg.Exchange,
		quotes:   cfg.Quotes,
		universe: cfg.Universe,
		cfg:      cfg.Market,
		log:      log,
		rng:      rng,
		publish:  cfg.OnPublish,
		side:     make(map[string]models.TickerData),
		next:     make(map[models.Metal]time.Time),
	}, nil
}

// Run executes the refresh loop until ctx is cancelled. It bootstraps
// the opening reference prices once, then ticks forever.
func (e *Engine) Run(ctx context.Context) {
	e.log.Info("market engine started",
		zap.Int("instruments", len(e.universe)),
		zap.Int("tick_interval_sec", e.cfg.TickInterval))

	e.bootstrap(ctx)

	now := time.Now()
	// Offsets keep the three scrape cadences from ever colliding on the
	// same tick.
	e.next[models.MetalRhodium] = now.Add(e.seconds(e.cfg.RhodiumInterval))
	e.next[models.MetalPalladium] = now.Add(e.seconds(e.cfg.PalladiumOffset))
	e.next[models.MetalPlatinum] = now.Add(e.seconds(e.cfg.PlatinumOffset))
	e.nextBatch = now

	ticker := time.NewTicker(e.seconds(e.cfg.TickInterval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("market engine stopped")
			return
		case tickTime := <-ticker.C:
			e.safeTick(ctx, tickTime)
		}
	}
}

// safeTick runs one tick, converting any panic into a skipped tick.
func (e *Engine) safeTick(ctx context.Context, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("tick panicked, skipping", zap.Any("panic", r))
		}
	}()
	e.tick(ctx, now)
}

// tick is one loop iteration: due scrapes, due batch fetch, snapshot.
// The batch fetch must complete before the snapshot build so its results
// feed the same tick's output.
func (e *Engine) tick(ctx context.Context, now time.Time) {
	for _, metal := range models.PGMs {
		if now.Before(e.next[metal]) {
			continue
		}
		e.next[metal] = now.Add(e.scrapeInterval(metal))
		e.refreshSpot(ctx, metal)
	}

	if !now.Before(e.nextBatch) {
		e.nextBatch = now.Add(e.seconds(e.cfg.BatchInterval))
		e.refreshBatch(ctx)
	}

	snap := e.buildSnapshot(now)
	e.store.Publish(snap)
	if e.publish != nil {
		e.publish(snap)
	}
}

// bootstrap fetches each PGM once, sequentially with a small delay
// between fetches to reduce anti-scraping risk, seeding both the spot
// cache and the session opening prices. Failures leave the configured
// fallback prices in place.
func (e *Engine) bootstrap(ctx context.Context) {
	for _, metal := range models.PGMs {
		e.refreshSpot(ctx, metal)
		select {
		case <-ctx.Done():
			return
		case <-time.After(e.seconds(e.cfg.BootstrapDelay)):
		}
	}
}

// refreshSpot scrapes one metal. On success the spot cache is
// overwritten and the opening price recorded if this is the first
// successful observation; on failure the previous value stays.
func (e *Engine) refreshSpot(ctx context.Context, metal models.Metal) {
	price, ok := e.scraper.Price(ctx, metal)
	if !ok {
		e.log.Warn("spot scrape failed, keeping stale price",
			zap.String("metal", string(metal)),
			zap.Float64("stale", e.store.Spot(metal)))
		return
	}
	e.store.SetSpot(metal, price)
	if e.store.SetOpening(metal, price) {
		e.log.Info("session opening price set",
			zap.String("metal", string(metal)), zap.Float64("price", price))
	}
}

// refreshBatch fans out to both batch sources concurrently and merges
// the results into the side buffer. A source that fails contributes
// nothing; its instruments keep their last-known values.
func (e *Engine) refreshBatch(ctx context.Context) {
	var exchange, quotes map[string]models.TickerData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		exchange = e.exchange.Tickers(gctx, e.symbols(models.SourceExchange))
		return nil
	})
	g.Go(func() error {
		quotes = e.quotes.Tickers(gctx, e.symbols(models.SourceQuoteProvider))
		return nil
	})
	_ = g.Wait() // sources never return errors, only empty maps

	for _, ins := range e.universe {
		var d models.TickerData
		var ok bool
		switch ins.Source {
		case models.SourceExchange:
			d, ok = exchange[ins.Symbol]
		case models.SourceQuoteProvider:
			d, ok = quotes[ins.Symbol]
		}
		if ok {
			e.side[ins.Name] = d
		}
	}
}

// buildSnapshot assembles a fresh consolidated snapshot from the side
// buffer and the PGM spot cache.
func (e *Engine) buildSnapshot(now time.Time) *models.Snapshot {
	snap := &models.Snapshot{UpdatedAt: now}
	raw := models.RawRates{USDRate: e.cfg.FallbackUSDRate}

	var insight *models.Insight
	maxPriority := 0

	for _, ins := range e.universe {
		if ins.Source == models.SourceScrape {
			continue
		}
		base, ok := e.side[ins.Name]
		if !ok || base.Price == 0 {
			continue
		}

		price := base.Price
		if ins.Multiplier != 0 {
			price *= ins.Multiplier
		}
		if ins.Name == source.USDINRName {
			raw.USDRate = price
		}
		if source.FlagshipInstruments[ins.Name] {
			adv := adviceFor(ins.Name, base.Percent)
			if adv.Priority > maxPriority {
				maxPriority = adv.Priority
				insight = &adv
			}
		}

		q := models.Quote{
			Name:    ins.Name,
			Price:   price,
			Change:  base.Change,
			Percent: base.Percent,
			Type:    ins.Category,
		}
		switch ins.Category {
		case models.CategoryMetals:
			snap.Metals = append(snap.Metals, q)
		case models.CategoryEnergy:
			snap.Energy = append(snap.Energy, q)
		case models.CategoryForex:
			snap.Forex = append(snap.Forex, q)
		}
	}

	// PGMs: bounded noise on the cached spot price manufactures
	// intra-interval movement between real scrapes; change is measured
	// against the fixed session opening, not the previous tick, so
	// sparse scrapes don't flatline the percent column.
	pgms := make([]models.Quote, 0, len(models.PGMs))
	for _, metal := range []models.Metal{models.MetalPlatinum, models.MetalPalladium, models.MetalRhodium} {
		price := e.addNoise(e.store.Spot(metal))

		perGram := price / models.GramsPerTroyOunce
		switch metal {
		case models.MetalPlatinum:
			raw.Pt = perGram
		case models.MetalPalladium:
			raw.Pd = perGram
		case models.MetalRhodium:
			raw.Rh = perGram
		}

		var change, percent float64
		if open, ok := e.store.Opening(metal); ok && open > 0 {
			change = price - open
			percent = change / open * 100
		}
		pgms = append(pgms, models.Quote{
			Name:    metal.DisplayName(),
			Price:   price,
			Change:  change,
			Percent: percent,
			Type:    models.CategoryMetals,
		})
	}
	snap.Metals = append(pgms, snap.Metals...)

	snap.Raw = raw
	snap.Insight = insight
	return snap
}

// addNoise applies bounded, mean-neutral multiplicative noise.
func (e *Engine) addNoise(price float64) float64 {
	if price == 0 {
		return 0
	}
	return price * (1 + (e.rng.Float64()*2-1)*e.cfg.NoisePct/100)
}

func (e *Engine) symbols(kind models.SourceKind) []string {
	var out []string
	for _, ins := range e.universe {
		if ins.Source == kind {
			out = append(out, ins.Symbol)
		}
	}
	return out
}

func (e *Engine) scrapeInterval(metal models.Metal) time.Duration {
	switch metal {
	case models.MetalRhodium:
		return e.seconds(e.cfg.RhodiumInterval)
	case models.MetalPalladium:
		return e.seconds(e.cfg.PalladiumInterval)
	default:
		return e.seconds(e.cfg.PlatinumInterval)
	}
}

func (e *Engine) seconds(n int) time.Duration {
	if n <= 0 {
		n = 1
	}
	return time.Duration(n) * time.Second
}
