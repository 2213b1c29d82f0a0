package pricing

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/bfindeiss/handwerker-app/pkg/database"
)

// PriceRegistry is the material price memory. Lookups are case-insensitive;
// user-supplied prices are recorded back so later sessions can price the same
// material without asking again.
type PriceRegistry interface {
	// Lookup returns the stored unit price for a material description.
	Lookup(description string) (float64, bool, error)

	// Register stores a unit price for a material description.
	Register(description string, unitPrice float64) error
}

// SQLiteRegistry persists material prices across sessions.
type SQLiteRegistry struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSQLiteRegistry creates the registry table if needed.
func NewSQLiteRegistry(db *database.DB, logger *zap.Logger) (*SQLiteRegistry, error) {
	const schema = `
		CREATE TABLE IF NOT EXISTS material_prices (
			description TEXT PRIMARY KEY,
			unit_price  REAL NOT NULL,
			updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create material_prices table: %w", err)
	}
	return &SQLiteRegistry{db: db, logger: logger}, nil
}

// Lookup returns the stored price for a material description.
func (r *SQLiteRegistry) Lookup(description string) (float64, bool, error) {
	var price float64
	err := r.db.QueryRow(
		"SELECT unit_price FROM material_prices WHERE description = ?",
		normalizeDescription(description),
	).Scan(&price)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup material price: %w", err)
	}
	return price, true, nil
}

// Register stores or updates a material price.
func (r *SQLiteRegistry) Register(description string, unitPrice float64) error {
	_, err := r.db.Exec(
		`INSERT INTO material_prices (description, unit_price) VALUES (?, ?)
		 ON CONFLICT(description) DO UPDATE SET unit_price = excluded.unit_price, updated_at = CURRENT_TIMESTAMP`,
		normalizeDescription(description), unitPrice,
	)
	if err != nil {
		return fmt.Errorf("register material price: %w", err)
	}
	r.logger.Debug("Material price registered",
		zap.String("description", description),
		zap.Float64("unit_price", unitPrice))
	return nil
}

// MemoryRegistry is an in-memory registry for tests and single-run setups.
type MemoryRegistry struct {
	mu     sync.RWMutex
	prices map[string]float64
}

// NewMemoryRegistry seeds an in-memory registry.
func NewMemoryRegistry(seed map[string]float64) *MemoryRegistry {
	prices := make(map[string]float64, len(seed))
	for description, price := range seed {
		prices[normalizeDescription(description)] = price
	}
	return &MemoryRegistry{prices: prices}
}

// Lookup returns the stored price for a material description.
func (r *MemoryRegistry) Lookup(description string) (float64, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	price, ok := r.prices[normalizeDescription(description)]
	return price, ok, nil
}

// Register stores a material price.
func (r *MemoryRegistry) Register(description string, unitPrice float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prices[normalizeDescription(description)] = unitPrice
	return nil
}

func normalizeDescription(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}
