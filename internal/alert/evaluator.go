// Package alert watches the PGM spot cache and pushes a broadcast
// notification when a metal drifts past the alert threshold.
package alert

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ecotrade/pricefeed/pkg/models"
)

// SpotReader is the slice of the quote store the evaluator needs.
type SpotReader interface {
	Spot(metal models.Metal) float64
}

// Evaluator compares current PGM prices against the last price that
// fired an alert. The last-known price deliberately updates only when
// an alert fires: small moves accumulate toward the threshold across
// cycles instead of resetting every check.
type Evaluator struct {
	store        SpotReader
	notifier     Notifier
	log          *zap.Logger
	thresholdPct float64
	cooldown     time.Duration
	now          func() time.Time

	lastPrice map[models.Metal]float64
	lastAlert map[models.Metal]time.Time
}

// NewEvaluator builds the evaluator. thresholdPct is the absolute
// percent move that triggers an alert; cooldown is the minimum gap
// between alerts for the same metal.
func NewEvaluator(store SpotReader, notifier Notifier, thresholdPct float64, cooldown time.Duration, log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{
		store:        store,
		notifier:     notifier,
		log:          log,
		thresholdPct: thresholdPct,
		cooldown:     cooldown,
		now:          time.Now,
		lastPrice:    make(map[models.Metal]float64),
		lastAlert:    make(map[models.Metal]time.Time),
	}
}

// Run checks prices on a fixed interval until ctx is cancelled.
func (e *Evaluator) Run(ctx context.Context, interval time.Duration) {
	e.log.Info("alert evaluator started", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("alert evaluator stopped")
			return
		case <-ticker.C:
			e.Check(ctx)
		}
	}
}

// Check runs one evaluation pass over all PGMs.
func (e *Evaluator) Check(ctx context.Context) {
	for _, metal := range models.PGMs {
		price := e.store.Spot(metal)
		if price <= 0 {
			continue
		}

		last := e.lastPrice[metal]
		if last == 0 {
			// Cold start: record, never alert on the first reading.
			e.lastPrice[metal] = price
			continue
		}

		changePct := (price - last) / last * 100
		if math.Abs(changePct) < e.thresholdPct {
			continue
		}
		if e.now().Sub(e.lastAlert[metal]) <= e.cooldown {
			continue
		}

		direction := "up"
		if changePct < 0 {
			direction = "down"
		}
		title := fmt.Sprintf("PGM Alert: %s %s", strings.ToUpper(string(metal)), direction)
		body := fmt.Sprintf("%s is %s by %.1f%%! Current: $%.2f",
			metal.DisplayName(), direction, math.Abs(changePct), price)

		if err := e.notifier.Send(ctx, title, body); err != nil {
			e.log.Warn("alert dispatch failed", zap.String("metal", string(metal)), zap.Error(err))
		} else {
			e.log.Info("alert sent", zap.String("title", title), zap.Float64("change_pct", changePct))
		}

		e.lastAlert[metal] = e.now()
		e.lastPrice[metal] = price
	}
}
