// Package market implements the quote store and the perpetual refresh
// engine that feeds it from the source adapters.
package market

import (
	"sync"

	"github.com/ecotrade/pricefeed/pkg/models"
)

// Store holds the process-wide market state: the last published
// snapshot, the raw PGM spot cache, and the session opening prices.
// The refresh engine is the only writer; the payout calculator, the
// alert evaluator, and the API read concurrently. Snapshots are swapped
// wholesale, so a reader never observes a partially built one.
type Store struct {
	mu          sync.RWMutex
	snapshot    *models.Snapshot
	spot        map[models.Metal]float64
	opening     map[models.Metal]float64
	fallbackUSD float64
}

// NewStore creates a store seeded with the configured fallback spot
// prices, used until the first successful scrape.
func NewStore(fallbackSpot map[models.Metal]float64, fallbackUSDRate float64) *Store {
	spot := make(map[models.Metal]float64, len(fallbackSpot))
	for m, p := range fallbackSpot {
		spot[m] = p
	}
	return &Store{
		snapshot:    &models.Snapshot{Raw: models.RawRates{USDRate: fallbackUSDRate}},
		spot:        spot,
		opening:     make(map[models.Metal]float64),
		fallbackUSD: fallbackUSDRate,
	}
}

// Snapshot returns the latest published snapshot. The returned value is
// shared and must be treated as immutable.
func (s *Store) Snapshot() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Publish atomically replaces the current snapshot.
func (s *Store) Publish(snap *models.Snapshot) {
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
}

// Spot returns the cached raw spot price for a metal.
func (s *Store) Spot(metal models.Metal) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spot[metal]
}

// SetSpot overwrites the cached spot price for a metal.
func (s *Store) SetSpot(metal models.Metal, price float64) {
	s.mu.Lock()
	s.spot[metal] = price
	s.mu.Unlock()
}

// Opening returns the session opening price for a metal, if one has
// been recorded.
func (s *Store) Opening(metal models.Metal) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.opening[metal]
	return price, ok
}

// SetOpening records the opening price for a metal if none is set yet.
// It reports whether this call recorded it. Opening prices are fixed
// for the remainder of the process lifetime.
func (s *Store) SetOpening(metal models.Metal, price float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.opening[metal]; ok {
		return false
	}
	s.opening[metal] = price
	return true
}

// USDRate returns the working USD conversion rate from the latest
// snapshot, or the configured fallback if none has been observed.
func (s *Store) USDRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot != nil && s.snapshot.Raw.USDRate > 0 {
		return s.snapshot.Raw.USDRate
	}
	return s.fallbackUSD
}
