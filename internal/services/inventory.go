package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/courtside/pos-go-app/internal/db"
	"github.com/courtside/pos-go-app/internal/metrics"
	"github.com/courtside/pos-go-app/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Invalidator drops a product from a read cache after a stock mutation
type Invalidator interface {
	Invalidate(id int64)
}

// MySQL evaluates SET assignments left to right, so by the time the CASE
// runs the stock column already holds the post-update value. The CASE must
// read the bare column; re-applying the quantity would derive the state
// from a doubly adjusted number.
const (
	decrementVariantStockQuery = `UPDATE product_variants
		SET stock = stock - ?,
		    stock_state = CASE WHEN stock <= 0 THEN 'out_of_stock'
		                       WHEN stock <= ? THEN 'low_stock'
		                       ELSE 'in_stock' END
		WHERE id = ? AND product_id = ? AND stock >= ?`

	decrementProductStockQuery = `UPDATE products
		SET stock = stock - ?,
		    stock_state = CASE WHEN stock <= 0 THEN 'out_of_stock'
		                       WHEN stock <= ? THEN 'low_stock'
		                       ELSE 'in_stock' END,
		    updated_at = NOW()
		WHERE id = ? AND stock >= ?`

	restockVariantStockQuery = `UPDATE product_variants
		SET stock = stock + ?,
		    stock_state = CASE WHEN stock <= 0 THEN 'out_of_stock'
		                       WHEN stock <= ? THEN 'low_stock'
		                       ELSE 'in_stock' END
		WHERE id = ? AND product_id = ?`

	restockProductStockQuery = `UPDATE products
		SET stock = stock + ?,
		    stock_state = CASE WHEN stock <= 0 THEN 'out_of_stock'
		                       WHEN stock <= ? THEN 'low_stock'
		                       ELSE 'in_stock' END,
		    updated_at = NOW()
		WHERE id = ?`
)

// InventoryService applies the stock decrements a committed sale describes
// and handles restocks. Decrements run inside the caller's SQL transaction
// so the ledger insert and the stock movements commit or roll back as one
// unit.
type InventoryService struct {
	db          *db.DB
	metrics     *metrics.AppMetrics
	threshold   ThresholdProvider
	invalidator Invalidator
}

// NewInventoryService creates a new inventory service
func NewInventoryService(db *db.DB, metrics *metrics.AppMetrics, threshold ThresholdProvider, invalidator Invalidator) *InventoryService {
	return &InventoryService{
		db:          db,
		metrics:     metrics,
		threshold:   threshold,
		invalidator: invalidator,
	}
}

// ApplyTx applies sale decrements inside tx. Each update is guarded so stock
// can never go negative: a guard miss means the snapshot the checkout
// validated against was depleted concurrently, and the whole transaction
// rolls back.
func (s *InventoryService) ApplyTx(ctx context.Context, tx *sql.Tx, transactionID string, updates []models.InventoryUpdate) error {
	threshold := s.threshold.LowStockThreshold(ctx)

	for _, u := range updates {
		var (
			result sql.Result
			err    error
			query  string
			table  string
		)

		start := time.Now()
		if u.VariantID != nil {
			table = "product_variants"
			query = decrementVariantStockQuery
			result, err = tx.ExecContext(ctx, query,
				u.Quantity, threshold, *u.VariantID, u.ProductID, u.Quantity)
		} else {
			table = "products"
			query = decrementProductStockQuery
			result, err = tx.ExecContext(ctx, query,
				u.Quantity, threshold, u.ProductID, u.Quantity)
		}
		s.metrics.RecordDBQuery(ctx, "UPDATE", table, query, start, err == nil)
		if err != nil {
			return fmt.Errorf("failed to decrement stock for product %d: %w", u.ProductID, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("stock for product %d depleted concurrently", u.ProductID)
		}

		start = time.Now()
		movementQuery := `INSERT INTO inventory_movements (product_id, variant_id, delta, reason, transaction_id) VALUES (?, ?, ?, 'sale', ?)`
		_, err = tx.ExecContext(ctx, movementQuery, u.ProductID, u.VariantID, -u.Quantity, transactionID)
		s.metrics.RecordDBQuery(ctx, "INSERT", "inventory_movements", movementQuery, start, err == nil)
		if err != nil {
			return fmt.Errorf("failed to record inventory movement: %w", err)
		}
	}

	return nil
}

// InvalidateAll drops the affected products from the read cache. Called
// after the transaction commits, never inside it.
func (s *InventoryService) InvalidateAll(updates []models.InventoryUpdate) {
	for _, u := range updates {
		s.invalidator.Invalidate(u.ProductID)
	}
}

// Restock adds stock to a product or variant and records the movement
func (s *InventoryService) Restock(ctx context.Context, productID int64, variantID *int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("restock quantity must be positive")
	}

	threshold := s.threshold.LowStockThreshold(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		result sql.Result
		query  string
		table  string
	)

	start := time.Now()
	if variantID != nil {
		table = "product_variants"
		query = restockVariantStockQuery
		result, err = tx.ExecContext(ctx, query, quantity, threshold, *variantID, productID)
	} else {
		table = "products"
		query = restockProductStockQuery
		result, err = tx.ExecContext(ctx, query, quantity, threshold, productID)
	}
	s.metrics.RecordDBQuery(ctx, "UPDATE", table, query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to restock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("product not found")
	}

	start = time.Now()
	movementQuery := `INSERT INTO inventory_movements (product_id, variant_id, delta, reason, transaction_id) VALUES (?, ?, ?, 'restock', NULL)`
	_, err = tx.ExecContext(ctx, movementQuery, productID, variantID, quantity)
	s.metrics.RecordDBQuery(ctx, "INSERT", "inventory_movements", movementQuery, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to record inventory movement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.invalidator.Invalidate(productID)
	s.recordLevel(ctx, productID, variantID)

	log.Printf("[INVENTORY] Restocked: product_id=%d variant_id=%v quantity=%d", productID, variantID, quantity)
	return nil
}

// recordLevel refreshes the inventory level gauge after a mutation
func (s *InventoryService) recordLevel(ctx context.Context, productID int64, variantID *int64) {
	var stock int
	var err error

	start := time.Now()
	if variantID != nil {
		query := "SELECT stock FROM product_variants WHERE id = ?"
		err = s.db.QueryRowContext(ctx, query, *variantID).Scan(&stock)
		s.metrics.RecordDBQuery(ctx, "SELECT", "product_variants", query, start, err == nil)
	} else {
		query := "SELECT stock FROM products WHERE id = ?"
		err = s.db.QueryRowContext(ctx, query, productID).Scan(&stock)
		s.metrics.RecordDBQuery(ctx, "SELECT", "products", query, start, err == nil)
	}
	if err != nil {
		return
	}

	attrs := []attribute.KeyValue{attribute.Int64("product_id", productID)}
	if variantID != nil {
		attrs = append(attrs, attribute.Int64("variant_id", *variantID))
	}
	s.metrics.InventoryLevel.Record(ctx, int64(stock),
		metric.WithAttributes(s.metrics.WithServiceName(attrs)...))
}
