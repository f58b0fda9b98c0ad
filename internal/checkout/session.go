package checkout

import (
	"sync"
	"time"

	"github.com/courtside/pos-go-app/internal/models"
)

// Status is the explicit checkout session state. Representing the machine as
// a tagged status (instead of a pile of booleans) keeps invalid combinations
// like "error and transaction both present" unrepresentable: the succeeded
// and failed payloads are owned by their status and cleared on every
// transition away from it.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// Session owns the mutable state of one register's in-progress sale. All
// methods serialize on the session mutex, the Go stand-in for the UI event
// loop: one operation completes before the next runs. While a payment attempt
// is in flight the status gates re-entrant submission and cart mutation.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu              sync.Mutex
	status          Status
	lines           []models.CartLine
	customer        *models.Customer
	paymentMethod   models.PaymentMethod
	amountTendered  float64
	lastTransaction *models.Transaction
	lastError       *models.TransactionError
}

// NewSession creates an idle session with an empty cart
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		status:    StatusIdle,
	}
}

// SessionView is an immutable snapshot of session state for the API layer
type SessionView struct {
	ID              string                   `json:"id"`
	Status          Status                   `json:"status"`
	Lines           []models.CartLine        `json:"lines"`
	Customer        *models.Customer         `json:"customer"`
	PaymentMethod   models.PaymentMethod     `json:"payment_method,omitempty"`
	AmountTendered  float64                  `json:"amount_tendered"`
	Totals          models.CartTotals        `json:"totals"`
	CanPay          bool                     `json:"can_process_payment"`
	LastTransaction *models.Transaction      `json:"last_transaction,omitempty"`
	LastError       *models.TransactionError `json:"last_error,omitempty"`
}

// AddToCart validates availability and upserts a cart line by its composite
// product+variant key. It never silently adds an unavailable item: a product
// with variants requires a valid variant, and the effective stock entity must
// have stock on hand.
func (s *Session) AddToCart(product *models.Product, variantID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusProcessing {
		return ErrProcessing
	}

	var (
		name        = product.Name
		variantName string
		unitPrice   = product.BasePrice
		stock       = product.Stock
		state       = product.StockState
	)

	if product.HasVariants {
		if variantID == nil {
			return ErrVariantRequired
		}
		variant := product.VariantByID(*variantID)
		if variant == nil {
			return ErrVariantInvalid
		}
		variantName = variant.Name
		unitPrice = variant.Price
		stock = variant.Stock
		state = variant.StockState
	} else if variantID != nil {
		return ErrVariantInvalid
	}

	if stock <= 0 || state == models.StockStateOutOfStock {
		return ErrOutOfStock
	}

	key := models.LineKey(product.ID, variantID)
	for i := range s.lines {
		if s.lines[i].Key == key {
			s.lines[i].Quantity++
			return nil
		}
	}

	s.lines = append(s.lines, models.CartLine{
		Key:         key,
		ProductID:   product.ID,
		VariantID:   variantID,
		ProductName: name,
		VariantName: variantName,
		UnitPrice:   unitPrice,
		Quantity:    1,
	})
	return nil
}

// ChangeQuantity adjusts a line's quantity by delta. Decrementing to zero or
// below removes the line rather than leaving a zero quantity.
func (s *Session) ChangeQuantity(key string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusProcessing {
		return ErrProcessing
	}

	for i := range s.lines {
		if s.lines[i].Key != key {
			continue
		}
		if s.lines[i].Quantity+delta <= 0 {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return nil
		}
		s.lines[i].Quantity += delta
		return nil
	}
	return ErrLineNotFound
}

// RemoveLine deletes the line unconditionally
func (s *Session) RemoveLine(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusProcessing {
		return ErrProcessing
	}

	for i := range s.lines {
		if s.lines[i].Key == key {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

// ClearCart empties all lines
func (s *Session) ClearCart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusProcessing {
		return ErrProcessing
	}
	s.lines = nil
	return nil
}

// SelectCustomer attaches a customer; totals are derived so no recomputation
// bookkeeping is needed here
func (s *Session) SelectCustomer(c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusProcessing {
		return ErrProcessing
	}
	s.customer = c
	return nil
}

// ClearCustomer detaches the customer
func (s *Session) ClearCustomer() error {
	return s.SelectCustomer(nil)
}

// SetPaymentMethod selects cash or card
func (s *Session) SetPaymentMethod(m models.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusProcessing {
		return ErrProcessing
	}
	s.paymentMethod = m
	return nil
}

// SetAmountTendered records the cash handed over
func (s *Session) SetAmountTendered(amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusProcessing {
		return ErrProcessing
	}
	s.amountTendered = amount
	return nil
}

// DismissError acknowledges a failed attempt and returns to idle. Pure UI
// acknowledgment; the cart is untouched.
func (s *Session) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusFailed {
		s.status = StatusIdle
		s.lastError = nil
	}
}

// AcknowledgeTransaction clears the confirmation surface after a sale
func (s *Session) AcknowledgeTransaction() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusSucceeded {
		s.status = StatusIdle
		s.lastTransaction = nil
	}
}

// Totals recomputes the derived totals for the current cart and customer
func (s *Session) Totals(taxRate float64) models.CartTotals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeTotals(s.lines, s.customer, taxRate)
}

// CanProcessPayment is the single gate before a payment attempt: non-empty
// cart, a selected method, and for cash a tendered amount covering the total.
func (s *Session) CanProcessPayment(taxRate float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canProcessLocked(taxRate) == nil
}

func (s *Session) canProcessLocked(taxRate float64) error {
	if len(s.lines) == 0 {
		return ErrCartEmpty
	}
	if !s.paymentMethod.Valid() {
		return ErrNoPaymentMethod
	}
	if s.paymentMethod == models.PaymentCash {
		totals := ComputeTotals(s.lines, s.customer, taxRate)
		if s.amountTendered < totals.Total {
			return ErrInsufficientTendered
		}
	}
	return nil
}

// View snapshots the session for callers outside the package
func (s *Session) View(taxRate float64) SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]models.CartLine, len(s.lines))
	copy(lines, s.lines)

	return SessionView{
		ID:              s.ID,
		Status:          s.status,
		Lines:           lines,
		Customer:        s.customer,
		PaymentMethod:   s.paymentMethod,
		AmountTendered:  s.amountTendered,
		Totals:          ComputeTotals(s.lines, s.customer, taxRate),
		CanPay:          s.canProcessLocked(taxRate) == nil,
		LastTransaction: s.lastTransaction,
		LastError:       s.lastError,
	}
}

// beginAttempt validates the gate, flips the session to processing and
// returns the frozen inputs for the attempt. The caller must finish with
// either succeed or fail so the processing state is always released.
func (s *Session) beginAttempt(taxRate float64) (attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusProcessing {
		return attempt{}, ErrProcessing
	}
	if err := s.canProcessLocked(taxRate); err != nil {
		return attempt{}, err
	}

	lines := make([]models.CartLine, len(s.lines))
	copy(lines, s.lines)

	s.status = StatusProcessing
	s.lastError = nil
	s.lastTransaction = nil

	return attempt{
		lines:          lines,
		customer:       s.customer,
		paymentMethod:  s.paymentMethod,
		amountTendered: s.amountTendered,
		totals:         ComputeTotals(lines, s.customer, taxRate),
	}, nil
}

type attempt struct {
	lines          []models.CartLine
	customer       *models.Customer
	paymentMethod  models.PaymentMethod
	amountTendered float64
	totals         models.CartTotals
}

// succeed applies the success branch atomically: reset the cart, customer and
// payment fields, and store the confirmation.
func (s *Session) succeed(txn *models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	s.customer = nil
	s.paymentMethod = ""
	s.amountTendered = 0
	s.lastTransaction = txn
	s.lastError = nil
	s.status = StatusSucceeded
}

// fail applies the failure branch atomically: cart, customer and payment
// selection stay exactly as entered so the user never rebuilds a cart.
func (s *Session) fail(txErr *models.TransactionError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = txErr
	s.lastTransaction = nil
	s.status = StatusFailed
}
