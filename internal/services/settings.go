package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/courtside/pos-go-app/internal/db"
	"github.com/courtside/pos-go-app/internal/metrics"
	"github.com/courtside/pos-go-app/internal/models"
)

// SettingsService serves register-wide configuration. The tax rate and the
// low-stock threshold are read on every checkout and every catalog lookup,
// so the current row is cached in memory and refreshed on update.
type SettingsService struct {
	db      *db.DB
	metrics *metrics.AppMetrics

	mu       sync.RWMutex
	current  models.Settings
	defaults models.Settings
}

// NewSettingsService creates a settings service with fallback defaults used
// until Load succeeds
func NewSettingsService(db *db.DB, metrics *metrics.AppMetrics, taxRate float64, lowStockThreshold int) *SettingsService {
	defaults := models.Settings{TaxRate: taxRate, LowStockThreshold: lowStockThreshold}
	return &SettingsService{
		db:       db,
		metrics:  metrics,
		current:  defaults,
		defaults: defaults,
	}
}

// Load reads the settings row, seeding it from the defaults if missing
func (s *SettingsService) Load(ctx context.Context) error {
	start := time.Now()
	query := `SELECT tax_rate, low_stock_threshold, updated_at FROM settings WHERE id = 1`
	var loaded models.Settings
	err := s.db.QueryRowContext(ctx, query).Scan(&loaded.TaxRate, &loaded.LowStockThreshold, &loaded.UpdatedAt)
	s.metrics.RecordDBQuery(ctx, "SELECT", "settings", query, start, err == nil || err == sql.ErrNoRows)

	if err == sql.ErrNoRows {
		return s.Update(ctx, s.defaults)
	}
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()
	log.Printf("[SETTINGS] Loaded: tax_rate=%.4f low_stock_threshold=%d", loaded.TaxRate, loaded.LowStockThreshold)
	return nil
}

// Get returns the cached settings
func (s *SettingsService) Get(ctx context.Context) models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update persists new settings and refreshes the cache
func (s *SettingsService) Update(ctx context.Context, settings models.Settings) error {
	if settings.TaxRate < 0 || settings.TaxRate >= 1 {
		return fmt.Errorf("tax rate must be in [0, 1)")
	}
	if settings.LowStockThreshold < 0 {
		return fmt.Errorf("low stock threshold must not be negative")
	}

	settings.UpdatedAt = time.Now().UTC()
	start := time.Now()
	query := `INSERT INTO settings (id, tax_rate, low_stock_threshold, updated_at)
		VALUES (1, ?, ?, ?)
		ON DUPLICATE KEY UPDATE tax_rate = VALUES(tax_rate),
		low_stock_threshold = VALUES(low_stock_threshold), updated_at = VALUES(updated_at)`
	_, err := s.db.ExecContext(ctx, query, settings.TaxRate, settings.LowStockThreshold, settings.UpdatedAt)
	s.metrics.RecordDBQuery(ctx, "UPDATE", "settings", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()
	log.Printf("[SETTINGS] Updated: tax_rate=%.4f low_stock_threshold=%d", settings.TaxRate, settings.LowStockThreshold)
	return nil
}

// TaxRate returns the current tax rate applied at checkout
func (s *SettingsService) TaxRate(ctx context.Context) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.TaxRate
}

// LowStockThreshold returns the stock level at or below which a product is
// flagged as low stock
func (s *SettingsService) LowStockThreshold(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.LowStockThreshold
}
