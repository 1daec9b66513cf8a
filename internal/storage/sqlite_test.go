package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ecotrade/pricefeed/pkg/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "pricefeed.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenSeedsDefaults(t *testing.T) {
	s := testStore(t)

	conf, err := s.PricingConfig(context.Background())
	if err != nil {
		t.Fatalf("PricingConfig: %v", err)
	}
	if conf != models.DefaultPricingConfig() {
		t.Errorf("seeded config = %+v, want defaults", conf)
	}
}

func TestUpdatePricingConfigRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	want := models.PricingConfig{
		DefaultMargin:    75.5,
		DefaultDaysOut:   90,
		InterestPt:       12.0,
		InterestPd:       8.0,
		InterestRh:       8.5,
		FactorCalculator: 0.95,
		FactorConverter:  0.9,
		FactorMarket:     1.05,
	}
	if err := s.UpdatePricingConfig(ctx, want); err != nil {
		t.Fatalf("UpdatePricingConfig: %v", err)
	}
	got, err := s.PricingConfig(ctx)
	if err != nil {
		t.Fatalf("PricingConfig: %v", err)
	}
	if got != want {
		t.Errorf("config = %+v, want %+v", got, want)
	}
}

func TestReopenKeepsUpdatedConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricefeed.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	conf := models.DefaultPricingConfig()
	conf.DefaultMargin = 70
	if err := s.UpdatePricingConfig(ctx, conf); err != nil {
		t.Fatalf("UpdatePricingConfig: %v", err)
	}
	s.Close()

	// The seed insert must not clobber the stored row.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	got, err := s2.PricingConfig(ctx)
	if err != nil {
		t.Fatalf("PricingConfig: %v", err)
	}
	if got.DefaultMargin != 70 {
		t.Errorf("DefaultMargin = %v after reopen, want 70", got.DefaultMargin)
	}
}

func TestConverterCRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	c := models.Converter{
		Serial:   "GM-123",
		Brand:    "General Motors",
		WeightKg: 1.4,
		PtPPM:    1200,
		PdPPM:    800,
		RhPPM:    150,
	}
	if err := s.AddConverter(ctx, c); err != nil {
		t.Fatalf("AddConverter: %v", err)
	}
	if err := s.AddConverter(ctx, c); err == nil {
		t.Error("duplicate serial accepted")
	}

	got, err := s.SearchConverters(ctx, "gm-1")
	if err != nil {
		t.Fatalf("SearchConverters: %v", err)
	}
	if len(got) != 1 || got[0].Serial != "GM-123" {
		t.Fatalf("search = %+v, want the GM-123 item", got)
	}
	if got[0].PtPPM != 1200 || got[0].WeightKg != 1.4 {
		t.Errorf("stored item = %+v", got[0])
	}

	if err := s.DeleteConverter(ctx, "GM-123"); err != nil {
		t.Fatalf("DeleteConverter: %v", err)
	}
	got, err = s.SearchConverters(ctx, "")
	if err != nil {
		t.Fatalf("SearchConverters: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("catalog has %d items after delete, want 0", len(got))
	}
}

func TestSearchConvertersMatchesBrand(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, c := range []models.Converter{
		{Serial: "A-1", Brand: "Toyota", WeightKg: 1, PtPPM: 1, PdPPM: 1, RhPPM: 1},
		{Serial: "B-2", Brand: "Honda", WeightKg: 1, PtPPM: 1, PdPPM: 1, RhPPM: 1},
		{Serial: "C-3", Brand: "Toyota", WeightKg: 1, PtPPM: 1, PdPPM: 1, RhPPM: 1},
	} {
		if err := s.AddConverter(ctx, c); err != nil {
			t.Fatalf("AddConverter(%s): %v", c.Serial, err)
		}
	}

	got, err := s.SearchConverters(ctx, "toyota")
	if err != nil {
		t.Fatalf("SearchConverters: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d Toyota items, want 2", len(got))
	}
	// Ordered by serial.
	if got[0].Serial != "A-1" || got[1].Serial != "C-3" {
		t.Errorf("order = %s, %s", got[0].Serial, got[1].Serial)
	}
}
