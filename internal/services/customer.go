package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/courtside/pos-go-app/internal/db"
	"github.com/courtside/pos-go-app/internal/metrics"
	"github.com/courtside/pos-go-app/internal/models"
)

// CustomerService handles customer-related operations. Checkout never
// mutates a customer; the selected customer is a pure input to discount
// computation.
type CustomerService struct {
	db      *db.DB
	metrics *metrics.AppMetrics
}

// NewCustomerService creates a new customer service
func NewCustomerService(db *db.DB, metrics *metrics.AppMetrics) *CustomerService {
	return &CustomerService{
		db:      db,
		metrics: metrics,
	}
}

// CreateCustomer inserts a customer record
func (s *CustomerService) CreateCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error) {
	if c.MemberDiscount < 0 || c.MemberDiscount >= 1 {
		return nil, fmt.Errorf("member discount must be in [0, 1)")
	}

	start := time.Now()
	query := "INSERT INTO customers (name, email, phone, is_member, member_discount) VALUES (?, ?, ?, ?, ?)"
	result, err := s.db.ExecContext(ctx, query, c.Name, c.Email, c.Phone, c.IsMember, c.MemberDiscount)
	s.metrics.RecordDBQuery(ctx, "INSERT", "customers", query, start, err == nil)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return nil, fmt.Errorf("customer already exists")
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get customer ID: %w", err)
	}
	c.ID = id
	c.CreatedAt = time.Now()
	return c, nil
}

// GetCustomer returns a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	start := time.Now()
	query := "SELECT id, name, email, phone, is_member, member_discount, created_at FROM customers WHERE id = ?"
	var c models.Customer
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.IsMember, &c.MemberDiscount, &c.CreatedAt,
	)
	s.metrics.RecordDBQuery(ctx, "SELECT", "customers", query, start, err == nil)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("customer not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &c, nil
}

// ListCustomers returns customers, optionally filtered by a name/email search
func (s *CustomerService) ListCustomers(ctx context.Context, search string, limit, offset int) ([]models.Customer, error) {
	query := "SELECT id, name, email, phone, is_member, member_discount, created_at FROM customers"
	var args []interface{}
	if search != "" {
		query += " WHERE name LIKE ? OR email LIKE ?"
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	query += " ORDER BY name LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	s.metrics.RecordDBQuery(ctx, "SELECT", "customers", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.IsMember, &c.MemberDiscount, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// UpdateCustomer updates a customer record
func (s *CustomerService) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	if c.MemberDiscount < 0 || c.MemberDiscount >= 1 {
		return fmt.Errorf("member discount must be in [0, 1)")
	}

	start := time.Now()
	query := "UPDATE customers SET name = ?, email = ?, phone = ?, is_member = ?, member_discount = ? WHERE id = ?"
	result, err := s.db.ExecContext(ctx, query, c.Name, c.Email, c.Phone, c.IsMember, c.MemberDiscount, c.ID)
	s.metrics.RecordDBQuery(ctx, "UPDATE", "customers", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("customer not found")
	}
	return nil
}
