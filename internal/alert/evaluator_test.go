package alert

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ecotrade/pricefeed/pkg/models"
)

// fakeSpots serves spot prices from a plain map.
type fakeSpots map[models.Metal]float64

func (f fakeSpots) Spot(metal models.Metal) float64 { return f[metal] }

// fakeNotifier records every dispatched alert.
type fakeNotifier struct {
	titles []string
	bodies []string
	err    error
}

func (f *fakeNotifier) Send(ctx context.Context, title, body string) error {
	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, body)
	return f.err
}

func testEvaluator(spots fakeSpots, notifier *fakeNotifier) (*Evaluator, *time.Time) {
	e := NewEvaluator(spots, notifier, 2.0, 4*time.Hour, nil)
	clock := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return clock }
	return e, &clock
}

func TestCheckColdStartNeverAlerts(t *testing.T) {
	notifier := &fakeNotifier{}
	e, _ := testEvaluator(fakeSpots{models.MetalPlatinum: 1000}, notifier)

	e.Check(context.Background())
	if len(notifier.titles) != 0 {
		t.Fatalf("alerted on cold start: %v", notifier.titles)
	}
	if e.lastPrice[models.MetalPlatinum] != 1000 {
		t.Error("cold start did not record the baseline price")
	}
}

func TestCheckBelowThresholdStaysQuiet(t *testing.T) {
	spots := fakeSpots{models.MetalPlatinum: 1000}
	notifier := &fakeNotifier{}
	e, _ := testEvaluator(spots, notifier)

	e.Check(context.Background())
	spots[models.MetalPlatinum] = 1019 // +1.9%, under the 2% threshold
	e.Check(context.Background())

	if len(notifier.titles) != 0 {
		t.Fatalf("alerted below threshold: %v", notifier.titles)
	}
}

func TestCheckFiresOnThresholdMove(t *testing.T) {
	spots := fakeSpots{models.MetalRhodium: 5000}
	notifier := &fakeNotifier{}
	e, _ := testEvaluator(spots, notifier)

	e.Check(context.Background())
	spots[models.MetalRhodium] = 4890 // -2.2%
	e.Check(context.Background())

	if len(notifier.titles) != 1 {
		t.Fatalf("got %d alerts, want 1", len(notifier.titles))
	}
	if notifier.titles[0] != "PGM Alert: RH down" {
		t.Errorf("title = %q", notifier.titles[0])
	}
	if !strings.Contains(notifier.bodies[0], "Rhodium is down") {
		t.Errorf("body = %q", notifier.bodies[0])
	}
}

func TestCheckCooldownSuppressesRepeats(t *testing.T) {
	spots := fakeSpots{models.MetalPalladium: 1000}
	notifier := &fakeNotifier{}
	e, clock := testEvaluator(spots, notifier)

	e.Check(context.Background())
	spots[models.MetalPalladium] = 1030
	e.Check(context.Background()) // fires

	spots[models.MetalPalladium] = 1070
	*clock = clock.Add(time.Hour)
	e.Check(context.Background()) // inside cooldown, suppressed

	if len(notifier.titles) != 1 {
		t.Fatalf("got %d alerts inside cooldown, want 1", len(notifier.titles))
	}

	*clock = clock.Add(4 * time.Hour)
	e.Check(context.Background()) // cooldown elapsed

	if len(notifier.titles) != 2 {
		t.Fatalf("got %d alerts after cooldown, want 2", len(notifier.titles))
	}
}

func TestCheckDriftAccumulates(t *testing.T) {
	// The baseline only moves when an alert fires, so repeated small
	// moves in one direction eventually cross the threshold.
	spots := fakeSpots{models.MetalPlatinum: 1000}
	notifier := &fakeNotifier{}
	e, _ := testEvaluator(spots, notifier)

	e.Check(context.Background())
	for _, price := range []float64{1008, 1015, 1021} {
		spots[models.MetalPlatinum] = price
		e.Check(context.Background())
	}

	if len(notifier.titles) != 1 {
		t.Fatalf("got %d alerts, want 1 from accumulated drift", len(notifier.titles))
	}
	if e.lastPrice[models.MetalPlatinum] != 1021 {
		t.Errorf("baseline = %v, want reset to 1021 on fire", e.lastPrice[models.MetalPlatinum])
	}
}

func TestCheckSkipsUnpricedMetals(t *testing.T) {
	notifier := &fakeNotifier{}
	e, _ := testEvaluator(fakeSpots{}, notifier)

	e.Check(context.Background())
	if len(notifier.titles) != 0 || len(e.lastPrice) != 0 {
		t.Error("zero-priced metals should be ignored entirely")
	}
}

func TestCheckSendFailureStillAdvancesBaseline(t *testing.T) {
	spots := fakeSpots{models.MetalPlatinum: 1000}
	notifier := &fakeNotifier{err: errors.New("push service down")}
	e, _ := testEvaluator(spots, notifier)

	e.Check(context.Background())
	spots[models.MetalPlatinum] = 1030
	e.Check(context.Background())

	if e.lastPrice[models.MetalPlatinum] != 1030 {
		t.Error("baseline not advanced after a failed send")
	}
	if _, ok := e.lastAlert[models.MetalPlatinum]; !ok {
		t.Error("cooldown clock not started after a failed send")
	}
}
