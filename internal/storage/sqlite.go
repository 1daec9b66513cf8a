// Package storage persists the pricing configuration singleton and the
// converter catalog in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ecotrade/pricefeed/pkg/models"
)

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path, applies the
// schema and seeds the pricing configuration singleton.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS pricing_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			default_margin REAL NOT NULL,
			default_days_out INTEGER NOT NULL,
			interest_pt REAL NOT NULL,
			interest_pd REAL NOT NULL,
			interest_rh REAL NOT NULL,
			factor_calculator REAL NOT NULL,
			factor_converter REAL NOT NULL,
			factor_market REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS converters (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			serial TEXT NOT NULL UNIQUE,
			brand TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			weight_kg REAL NOT NULL,
			pt_ppm REAL NOT NULL,
			pd_ppm REAL NOT NULL,
			rh_ppm REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_converters_brand ON converters(brand);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	// Lazily create the configuration singleton. The CHECK constraint
	// keeps it a single row forever.
	def := models.DefaultPricingConfig()
	_, err := s.db.Exec(`INSERT OR IGNORE INTO pricing_config
		(id, default_margin, default_days_out, interest_pt, interest_pd, interest_rh,
		 factor_calculator, factor_converter, factor_market)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)`,
		def.DefaultMargin, def.DefaultDaysOut, def.InterestPt, def.InterestPd, def.InterestRh,
		def.FactorCalculator, def.FactorConverter, def.FactorMarket)
	if err != nil {
		return fmt.Errorf("seed pricing config: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PricingConfig returns the configuration singleton.
func (s *Store) PricingConfig(ctx context.Context) (models.PricingConfig, error) {
	var c models.PricingConfig
	err := s.db.QueryRowContext(ctx, `SELECT default_margin, default_days_out,
		interest_pt, interest_pd, interest_rh,
		factor_calculator, factor_converter, factor_market
		FROM pricing_config WHERE id = 1`).Scan(
		&c.DefaultMargin, &c.DefaultDaysOut,
		&c.InterestPt, &c.InterestPd, &c.InterestRh,
		&c.FactorCalculator, &c.FactorConverter, &c.FactorMarket)
	if err != nil {
		return c, fmt.Errorf("load pricing config: %w", err)
	}
	return c, nil
}

// UpdatePricingConfig replaces the configuration singleton.
func (s *Store) UpdatePricingConfig(ctx context.Context, c models.PricingConfig) error {
	_, err := s.db.ExecContext(ctx, `UPDATE pricing_config SET
		default_margin = ?, default_days_out = ?,
		interest_pt = ?, interest_pd = ?, interest_rh = ?,
		factor_calculator = ?, factor_converter = ?, factor_market = ?
		WHERE id = 1`,
		c.DefaultMargin, c.DefaultDaysOut,
		c.InterestPt, c.InterestPd, c.InterestRh,
		c.FactorCalculator, c.FactorConverter, c.FactorMarket)
	if err != nil {
		return fmt.Errorf("update pricing config: %w", err)
	}
	return nil
}

// SearchConverters returns catalog items whose serial or brand contains
// q, case-insensitively. An empty query returns the whole catalog.
func (s *Store) SearchConverters(ctx context.Context, q string) ([]models.Converter, error) {
	query := `SELECT serial, brand, description, image, weight_kg, pt_ppm, pd_ppm, rh_ppm
		FROM converters`
	var args []any
	if q != "" {
		query += ` WHERE serial LIKE ? COLLATE NOCASE OR brand LIKE ? COLLATE NOCASE`
		pattern := "%" + q + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY serial`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search converters: %w", err)
	}
	defer rows.Close()

	var out []models.Converter
	for rows.Next() {
		var c models.Converter
		if err := rows.Scan(&c.Serial, &c.Brand, &c.Description, &c.Image,
			&c.WeightKg, &c.PtPPM, &c.PdPPM, &c.RhPPM); err != nil {
			return nil, fmt.Errorf("scan converter: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddConverter inserts a catalog item. Serial numbers are unique.
func (s *Store) AddConverter(ctx context.Context, c models.Converter) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO converters
		(serial, brand, description, image, weight_kg, pt_ppm, pd_ppm, rh_ppm)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Serial, c.Brand, c.Description, c.Image, c.WeightKg, c.PtPPM, c.PdPPM, c.RhPPM)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("converter %s already exists", c.Serial)
		}
		return fmt.Errorf("add converter: %w", err)
	}
	return nil
}

// DeleteConverter removes a catalog item by serial.
func (s *Store) DeleteConverter(ctx context.Context, serial string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM converters WHERE serial = ?`, serial)
	if err != nil {
		return fmt.Errorf("delete converter: %w", err)
	}
	return nil
}
