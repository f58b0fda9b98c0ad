package models

import (
	"fmt"
	"time"
)

// StockState summarizes a stock count against the low-stock threshold
type StockState string

const (
	StockStateInStock    StockState = "in_stock"
	StockStateLowStock   StockState = "low_stock"
	StockStateOutOfStock StockState = "out_of_stock"
)

// DeriveStockState computes the tri-state for a stock count.
// stock == 0 => out_of_stock; 0 < stock <= threshold => low_stock; else in_stock.
func DeriveStockState(stock, lowStockThreshold int) StockState {
	switch {
	case stock <= 0:
		return StockStateOutOfStock
	case stock <= lowStockThreshold:
		return StockStateLowStock
	default:
		return StockStateInStock
	}
}

// PaymentMethod is how a sale is paid
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

// Valid reports whether the method is one the register accepts
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard
}

// Variant is a priced, stocked sub-item of a product (court tier, size, ...)
type Variant struct {
	ID         int64      `json:"id" db:"id"`
	ProductID  int64      `json:"product_id" db:"product_id"`
	Name       string     `json:"name" db:"name"`
	Price      float64    `json:"price" db:"price"`
	Stock      int        `json:"stock" db:"stock"`
	StockState StockState `json:"stock_state" db:"stock_state"`
}

// Product represents a sellable item in the catalog.
// If HasVariants is true, the product's own price/stock are ignored for
// transacting purposes; only variant-level price/stock apply.
type Product struct {
	ID          int64      `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Category    string     `json:"category" db:"category"`
	SKU         string     `json:"sku" db:"sku"`
	BasePrice   float64    `json:"base_price" db:"base_price"`
	Stock       int        `json:"stock" db:"stock"`
	StockState  StockState `json:"stock_state" db:"stock_state"`
	HasVariants bool       `json:"has_variants" db:"has_variants"`
	Variants    []Variant  `json:"variants,omitempty"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// VariantByID locates a variant on the product, nil if not present
func (p *Product) VariantByID(id int64) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// Customer represents a POS customer. A sale does not require one (guest
// checkout); a selected customer is a pure input to discount computation.
type Customer struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	Phone          string    `json:"phone" db:"phone"`
	IsMember       bool      `json:"is_member" db:"is_member"`
	MemberDiscount float64   `json:"member_discount" db:"member_discount"` // fraction, 0 <= d < 1
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// LineKey builds the composite cart-line key for a product plus optional variant
func LineKey(productID int64, variantID *int64) string {
	if variantID == nil {
		return fmt.Sprintf("%d", productID)
	}
	return fmt.Sprintf("%d:%d", productID, *variantID)
}

// CartLine is one entry in an in-progress sale. The key is unique within a
// cart; adding the same product+variant again increments Quantity instead of
// duplicating the line. Name and unit price are captured at add time.
type CartLine struct {
	Key         string  `json:"key"`
	ProductID   int64   `json:"product_id"`
	VariantID   *int64  `json:"variant_id,omitempty"`
	ProductName string  `json:"product_name"`
	VariantName string  `json:"variant_name,omitempty"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
}

// CartTotals is derived from the cart lines and selected customer; it is
// recomputed on every change and never stored independently of its inputs.
type CartTotals struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// RequestLine pairs a cart line with a fresh catalog snapshot of its product,
// read at the moment the TransactionRequest is built. The snapshot carries the
// stock figures the availability check runs against.
type RequestLine struct {
	Line    CartLine `json:"line"`
	Product Product  `json:"product"`
}

// TransactionRequest is the frozen per-attempt snapshot handed to the
// transaction service. Immutable once constructed; never partially applied.
type TransactionRequest struct {
	Customer       *Customer     `json:"customer"`
	Lines          []RequestLine `json:"lines"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	AmountTendered float64       `json:"amount_tendered"`
	Totals         CartTotals    `json:"totals"`
}

// TransactionItem is a denormalized line item on a committed sale
type TransactionItem struct {
	ProductID   int64   `json:"product_id" db:"product_id"`
	VariantID   *int64  `json:"variant_id,omitempty" db:"variant_id"`
	ProductName string  `json:"product_name" db:"product_name"`
	VariantName string  `json:"variant_name,omitempty" db:"variant_name"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`
	Quantity    int     `json:"quantity" db:"quantity"`
}

// Transaction is the durable record of a committed sale. Append-only once
// created; never mutated or deleted.
type Transaction struct {
	ID             string            `json:"id" db:"id"`
	Timestamp      time.Time         `json:"timestamp" db:"timestamp"`
	Customer       *Customer         `json:"customer"`
	CustomerID     *int64            `json:"-" db:"customer_id"`
	Items          []TransactionItem `json:"items"`
	PaymentMethod  PaymentMethod     `json:"payment_method" db:"payment_method"`
	AmountTendered float64           `json:"amount_tendered" db:"amount_tendered"`
	Subtotal       float64           `json:"subtotal" db:"subtotal"`
	Discount       float64           `json:"discount" db:"discount"`
	Tax            float64           `json:"tax" db:"tax"`
	Total          float64           `json:"total" db:"total"`
	Change         float64           `json:"change" db:"change_due"` // cash only; 0 for card
}

// InventoryUpdate describes one decrement the inventory subsystem must apply.
// The checkout core computes these; it never applies them itself.
type InventoryUpdate struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// Banner is a back-office promotional banner shown by the storefront
type Banner struct {
	ID              int64     `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	ImageURL        string    `json:"image_url" db:"image_url"`
	TargetURL       string    `json:"target_url" db:"target_url"`
	Active          bool      `json:"active" db:"active"`
	DisplayPriority int       `json:"display_priority" db:"display_priority"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Settings holds register-wide configuration persisted in the settings table
type Settings struct {
	TaxRate           float64   `json:"tax_rate" db:"tax_rate"`
	LowStockThreshold int       `json:"low_stock_threshold" db:"low_stock_threshold"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// CategorySummary is one row of the daily sales report
type CategorySummary struct {
	Category string  `json:"category"`
	Sales    int     `json:"sales"`
	Units    int     `json:"units"`
	Revenue  float64 `json:"revenue"`
}

// DailySummary aggregates the ledger for one day, for the dashboard
type DailySummary struct {
	Date       string            `json:"date"`
	Sales      int               `json:"sales"`
	Revenue    float64           `json:"revenue"`
	Categories []CategorySummary `json:"categories"`
}
