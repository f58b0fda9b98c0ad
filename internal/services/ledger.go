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
)

// LedgerService owns the append-only sales ledger. Commit persists the
// transaction record and applies its inventory decrements in one database
// transaction, which makes it the TransactionSink the checkout orchestrator
// depends on. Ledger rows are never updated or deleted.
type LedgerService struct {
	db        *db.DB
	metrics   *metrics.AppMetrics
	inventory *InventoryService
}

// NewLedgerService creates a new ledger service
func NewLedgerService(db *db.DB, metrics *metrics.AppMetrics, inventory *InventoryService) *LedgerService {
	return &LedgerService{
		db:        db,
		metrics:   metrics,
		inventory: inventory,
	}
}

// Commit persists a committed sale and its stock decrements atomically
func (s *LedgerService) Commit(ctx context.Context, txn models.Transaction, updates []models.InventoryUpdate) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	start := time.Now()
	txnQuery := `INSERT INTO transactions
		(id, timestamp, customer_id, payment_method, amount_tendered, subtotal, discount, tax, total, change_due)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = dbTx.ExecContext(ctx, txnQuery,
		txn.ID, txn.Timestamp, txn.CustomerID, txn.PaymentMethod, txn.AmountTendered,
		txn.Subtotal, txn.Discount, txn.Tax, txn.Total, txn.Change)
	s.metrics.RecordDBQuery(ctx, "INSERT", "transactions", txnQuery, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	itemQuery := `INSERT INTO transaction_items
		(transaction_id, product_id, variant_id, product_name, variant_name, unit_price, quantity)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, item := range txn.Items {
		start = time.Now()
		_, err = dbTx.ExecContext(ctx, itemQuery,
			txn.ID, item.ProductID, item.VariantID, item.ProductName, item.VariantName, item.UnitPrice, item.Quantity)
		s.metrics.RecordDBQuery(ctx, "INSERT", "transaction_items", itemQuery, start, err == nil)
		if err != nil {
			return fmt.Errorf("failed to insert transaction item: %w", err)
		}
	}

	if err := s.inventory.ApplyTx(ctx, dbTx, txn.ID, updates); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.inventory.InvalidateAll(updates)

	log.Printf("[LEDGER] Sale recorded: id=%s total=%.2f items=%d", txn.ID, txn.Total, len(txn.Items))
	return nil
}

// GetTransaction returns one ledger entry with its items and customer
func (s *LedgerService) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	start := time.Now()
	query := `SELECT t.id, t.timestamp, t.customer_id, t.payment_method, t.amount_tendered,
		t.subtotal, t.discount, t.tax, t.total, t.change_due,
		c.id, c.name, c.email, c.phone, c.is_member, c.member_discount, c.created_at
		FROM transactions t
		LEFT JOIN customers c ON t.customer_id = c.id
		WHERE t.id = ?`

	var txn models.Transaction
	var cID sql.NullInt64
	var cName, cEmail, cPhone sql.NullString
	var cMember sql.NullBool
	var cDiscount sql.NullFloat64
	var cCreated sql.NullTime

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&txn.ID, &txn.Timestamp, &txn.CustomerID, &txn.PaymentMethod, &txn.AmountTendered,
		&txn.Subtotal, &txn.Discount, &txn.Tax, &txn.Total, &txn.Change,
		&cID, &cName, &cEmail, &cPhone, &cMember, &cDiscount, &cCreated,
	)
	s.metrics.RecordDBQuery(ctx, "SELECT", "transactions", query, start, err == nil)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	if cID.Valid {
		txn.Customer = &models.Customer{
			ID:             cID.Int64,
			Name:           cName.String,
			Email:          cEmail.String,
			Phone:          cPhone.String,
			IsMember:       cMember.Bool,
			MemberDiscount: cDiscount.Float64,
			CreatedAt:      cCreated.Time,
		}
	}

	start = time.Now()
	itemQuery := `SELECT product_id, variant_id, product_name, variant_name, unit_price, quantity
		FROM transaction_items WHERE transaction_id = ? ORDER BY id`
	rows, err := s.db.QueryContext(ctx, itemQuery, id)
	s.metrics.RecordDBQuery(ctx, "SELECT", "transaction_items", itemQuery, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.TransactionItem
		if err := rows.Scan(&item.ProductID, &item.VariantID, &item.ProductName, &item.VariantName, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan transaction item: %w", err)
		}
		txn.Items = append(txn.Items, item)
	}
	return &txn, rows.Err()
}

// ListTransactions returns ledger headers, newest first, optionally
// restricted to one day (YYYY-MM-DD)
func (s *LedgerService) ListTransactions(ctx context.Context, day string, limit, offset int) ([]models.Transaction, error) {
	query := `SELECT id, timestamp, customer_id, payment_method, amount_tendered,
		subtotal, discount, tax, total, change_due FROM transactions`
	var args []interface{}
	if day != "" {
		query += " WHERE DATE(timestamp) = ?"
		args = append(args, day)
	}
	query += " ORDER BY timestamp DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	s.metrics.RecordDBQuery(ctx, "SELECT", "transactions", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var txn models.Transaction
		if err := rows.Scan(&txn.ID, &txn.Timestamp, &txn.CustomerID, &txn.PaymentMethod, &txn.AmountTendered,
			&txn.Subtotal, &txn.Discount, &txn.Tax, &txn.Total, &txn.Change); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

// DailySummary aggregates one day of sales per category for the dashboard
func (s *LedgerService) DailySummary(ctx context.Context, day string) (*models.DailySummary, error) {
	summary := &models.DailySummary{Date: day}

	start := time.Now()
	headQuery := `SELECT COUNT(*), COALESCE(SUM(total), 0) FROM transactions WHERE DATE(timestamp) = ?`
	err := s.db.QueryRowContext(ctx, headQuery, day).Scan(&summary.Sales, &summary.Revenue)
	s.metrics.RecordDBQuery(ctx, "SELECT", "transactions", headQuery, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate transactions: %w", err)
	}

	// Category comes from the live catalog; items of deleted products fall
	// into "unknown", mirroring how they were sold.
	start = time.Now()
	catQuery := `SELECT COALESCE(p.category, 'unknown'),
		COUNT(DISTINCT ti.transaction_id), COALESCE(SUM(ti.quantity), 0),
		COALESCE(SUM(ti.unit_price * ti.quantity), 0)
		FROM transaction_items ti
		JOIN transactions t ON ti.transaction_id = t.id
		LEFT JOIN products p ON ti.product_id = p.id
		WHERE DATE(t.timestamp) = ?
		GROUP BY COALESCE(p.category, 'unknown')
		ORDER BY 4 DESC`
	rows, err := s.db.QueryContext(ctx, catQuery, day)
	s.metrics.RecordDBQuery(ctx, "SELECT", "transaction_items", catQuery, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cs models.CategorySummary
		if err := rows.Scan(&cs.Category, &cs.Sales, &cs.Units, &cs.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan category summary: %w", err)
		}
		summary.Categories = append(summary.Categories, cs)
	}
	return summary, rows.Err()
}
