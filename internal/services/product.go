package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/courtside/pos-go-app/internal/db"
	"github.com/courtside/pos-go-app/internal/metrics"
	"github.com/courtside/pos-go-app/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ThresholdProvider supplies the low-stock threshold used to derive stock
// states on catalog writes
type ThresholdProvider interface {
	LowStockThreshold(ctx context.Context) int
}

// ProductCache holds cached products for browsing endpoints. Checkout reads
// bypass it: stock figures at request-build time must be read-committed,
// not stale.
type ProductCache struct {
	mu    sync.RWMutex
	items map[int64]cachedProduct
}

type cachedProduct struct {
	product models.Product
	expires time.Time
}

// ProductService handles catalog operations
type ProductService struct {
	db        *db.DB
	metrics   *metrics.AppMetrics
	threshold ThresholdProvider
	cache     ProductCache
}

// NewProductService creates a new catalog service
func NewProductService(db *db.DB, metrics *metrics.AppMetrics, threshold ThresholdProvider) *ProductService {
	return &ProductService{
		db:        db,
		metrics:   metrics,
		threshold: threshold,
		cache:     ProductCache{items: make(map[int64]cachedProduct)},
	}
}

// ListProducts returns the catalog, optionally filtered by category and a
// name search, with variants attached
func (s *ProductService) ListProducts(ctx context.Context, category, search string, limit, offset int) ([]models.Product, error) {
	query := `SELECT id, name, description, category, sku, base_price, stock, stock_state, has_variants, created_at, updated_at FROM products`
	var conds []string
	var args []interface{}
	if category != "" {
		conds = append(conds, "category = ?")
		args = append(args, category)
	}
	if search != "" {
		conds = append(conds, "name LIKE ?")
		args = append(args, "%"+search+"%")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	s.metrics.RecordDBQuery(ctx, "SELECT", "products", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	var ids []interface{}
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachVariants(ctx, products, ids); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns a product with variants, served from a short-lived
// cache for browsing traffic
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	s.cache.mu.RLock()
	if cached, exists := s.cache.items[id]; exists && time.Now().Before(cached.expires) {
		s.cache.mu.RUnlock()
		s.metrics.CacheHits.Add(ctx, 1, metric.WithAttributes(s.metrics.WithServiceName(nil)...))
		s.recordView(ctx, &cached.product)
		p := cached.product
		return &p, nil
	}
	s.cache.mu.RUnlock()

	s.metrics.CacheMisses.Add(ctx, 1, metric.WithAttributes(s.metrics.WithServiceName(nil)...))

	p, err := s.ProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.mu.Lock()
	s.cache.items[id] = cachedProduct{product: *p, expires: time.Now().Add(5 * time.Minute)}
	s.cache.mu.Unlock()

	s.recordView(ctx, p)
	return p, nil
}

// ProductByID reads a product and its variants straight from the database.
// This is the catalog read the checkout orchestrator uses when building a
// transaction request.
func (s *ProductService) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	start := time.Now()
	query := `SELECT id, name, description, category, sku, base_price, stock, stock_state, has_variants, created_at, updated_at FROM products WHERE id = ?`
	var p models.Product
	err := scanProduct(s.db.QueryRowContext(ctx, query, id), &p)
	s.metrics.RecordDBQuery(ctx, "SELECT", "products", query, start, err == nil)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	products := []models.Product{p}
	if err := s.attachVariants(ctx, products, []interface{}{p.ID}); err != nil {
		return nil, err
	}
	return &products[0], nil
}

// CreateProduct inserts a product and its variants, deriving stock states
// from the configured low-stock threshold
func (s *ProductService) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	threshold := s.threshold.LowStockThreshold(ctx)
	p.HasVariants = len(p.Variants) > 0
	p.StockState = models.DeriveStockState(p.Stock, threshold)

	start := time.Now()
	query := `INSERT INTO products (name, description, category, sku, base_price, stock, stock_state, has_variants) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := s.db.ExecContext(ctx, query,
		p.Name, p.Description, p.Category, p.SKU, p.BasePrice, p.Stock, p.StockState, p.HasVariants)
	s.metrics.RecordDBQuery(ctx, "INSERT", "products", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get product ID: %w", err)
	}
	p.ID = id

	for i := range p.Variants {
		v := &p.Variants[i]
		v.ProductID = id
		v.StockState = models.DeriveStockState(v.Stock, threshold)

		start = time.Now()
		vq := `INSERT INTO product_variants (product_id, name, price, stock, stock_state) VALUES (?, ?, ?, ?, ?)`
		vres, err := s.db.ExecContext(ctx, vq, id, v.Name, v.Price, v.Stock, v.StockState)
		s.metrics.RecordDBQuery(ctx, "INSERT", "product_variants", vq, start, err == nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create variant: %w", err)
		}
		if v.ID, err = vres.LastInsertId(); err != nil {
			return nil, fmt.Errorf("failed to get variant ID: %w", err)
		}
	}

	log.Printf("[CATALOG] Product created: id=%d name=%q variants=%d", id, p.Name, len(p.Variants))
	return p, nil
}

// UpdateProduct updates the product row and invalidates the cache
func (s *ProductService) UpdateProduct(ctx context.Context, p *models.Product) error {
	threshold := s.threshold.LowStockThreshold(ctx)
	p.StockState = models.DeriveStockState(p.Stock, threshold)

	start := time.Now()
	query := `UPDATE products SET name = ?, description = ?, category = ?, sku = ?, base_price = ?, stock = ?, stock_state = ?, updated_at = NOW() WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query,
		p.Name, p.Description, p.Category, p.SKU, p.BasePrice, p.Stock, p.StockState, p.ID)
	s.metrics.RecordDBQuery(ctx, "UPDATE", "products", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("product not found")
	}

	s.Invalidate(p.ID)
	return nil
}

// DeleteProduct removes a product and its variants
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	start := time.Now()
	query := `DELETE FROM products WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, id)
	s.metrics.RecordDBQuery(ctx, "DELETE", "products", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("product not found")
	}

	s.Invalidate(id)
	return nil
}

// Invalidate drops a product from the browsing cache
func (s *ProductService) Invalidate(id int64) {
	s.cache.mu.Lock()
	delete(s.cache.items, id)
	s.cache.mu.Unlock()
}

// attachVariants loads variants for the given product IDs and distributes
// them onto the products slice
func (s *ProductService) attachVariants(ctx context.Context, products []models.Product, ids []interface{}) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	for i := range ids {
		placeholders[i] = "?"
	}

	start := time.Now()
	query := fmt.Sprintf(
		`SELECT id, product_id, name, price, stock, stock_state FROM product_variants WHERE product_id IN (%s) ORDER BY id`,
		strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, ids...)
	s.metrics.RecordDBQuery(ctx, "SELECT", "product_variants", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	byProduct := make(map[int64][]models.Variant)
	for rows.Next() {
		var v models.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Price, &v.Stock, &v.StockState); err != nil {
			return fmt.Errorf("failed to scan variant: %w", err)
		}
		byProduct[v.ProductID] = append(byProduct[v.ProductID], v)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range products {
		products[i].Variants = byProduct[products[i].ID]
	}
	return nil
}

func (s *ProductService) recordView(ctx context.Context, p *models.Product) {
	viewAttrs := s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.Int64("product_id", p.ID),
		attribute.String("product_category", p.Category),
	})
	s.metrics.ProductsViewed.Add(ctx, 1, metric.WithAttributes(viewAttrs...))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner, p *models.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.SKU,
		&p.BasePrice, &p.Stock, &p.StockState, &p.HasVariants, &p.CreatedAt, &p.UpdatedAt)
}
