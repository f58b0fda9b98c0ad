package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/courtside/pos-go-app/internal/models"
	"github.com/courtside/pos-go-app/internal/payment"
)

// CommitResult is the full success payload of a checkout attempt: the durable
// sale record plus the inventory decrements the inventory subsystem must
// apply. The service only describes the updates; applying them is left to the
// sink so commit stays atomic there.
type CommitResult struct {
	Transaction      models.Transaction       `json:"transaction"`
	InventoryUpdates []models.InventoryUpdate `json:"inventory_updates"`
}

// Service decides whether a sale succeeds. It is stateless: everything it
// reads, including the stock figures, arrives by value inside the request.
// The result is exactly one of a full CommitResult or a full
// TransactionError, never a mix.
type Service struct {
	gateway        payment.Gateway
	gatewayTimeout time.Duration
	now            func() time.Time
}

// NewService creates a transaction service charging cards through gw.
// A gatewayTimeout of zero disables the deadline on the charge call.
func NewService(gw payment.Gateway, gatewayTimeout time.Duration) *Service {
	return &Service{
		gateway:        gw,
		gatewayTimeout: gatewayTimeout,
		now:            time.Now,
	}
}

// WithClock overrides the clock, for tests
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ProcessTransaction runs the strict three-step pipeline: inventory
// availability check, then payment attempt, then commit. A later step never
// executes if an earlier one fails, and the request is never mutated.
func (s *Service) ProcessTransaction(ctx context.Context, req models.TransactionRequest) (*CommitResult, *models.TransactionError) {
	if txErr := s.checkInventory(req.Lines); txErr != nil {
		return nil, txErr
	}

	if txErr := s.attemptPayment(ctx, req); txErr != nil {
		return nil, txErr
	}

	return s.commit(req), nil
}

// checkInventory validates every cart line against the catalog snapshot in
// the request. All issues are collected into the error detail, but the
// message is derived from the first issue in cart order so error reporting
// stays deterministic.
func (s *Service) checkInventory(lines []models.RequestLine) *models.TransactionError {
	var issues []models.Issue

	for _, rl := range lines {
		line := rl.Line
		product := rl.Product

		if product.HasVariants {
			var variant *models.Variant
			if line.VariantID != nil {
				variant = product.VariantByID(*line.VariantID)
			}
			if variant == nil {
				issues = append(issues, models.Issue{
					Type:      models.IssueVariantNotFound,
					ProductID: product.ID,
					VariantID: line.VariantID,
					Name:      lineDisplayName(line),
				})
				continue
			}
			issues = append(issues, stockIssues(line, variant.Stock, variant.StockState)...)
			continue
		}

		issues = append(issues, stockIssues(line, product.Stock, product.StockState)...)
	}

	if len(issues) == 0 {
		return nil
	}

	return &models.TransactionError{
		Kind:    models.ErrorKindInventoryMismatch,
		Message: inventoryMessage(issues[0]),
		Issues:  issues,
	}
}

func stockIssues(line models.CartLine, stock int, state models.StockState) []models.Issue {
	switch {
	case state == models.StockStateOutOfStock || stock <= 0:
		return []models.Issue{{
			Type:      models.IssueOutOfStock,
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Name:      lineDisplayName(line),
			Requested: line.Quantity,
			Available: stock,
		}}
	case stock < line.Quantity:
		return []models.Issue{{
			Type:      models.IssueInsufficientStock,
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Name:      lineDisplayName(line),
			Requested: line.Quantity,
			Available: stock,
		}}
	}
	return nil
}

func inventoryMessage(issue models.Issue) string {
	switch issue.Type {
	case models.IssueVariantNotFound:
		return fmt.Sprintf("selected option for %q is no longer available", issue.Name)
	case models.IssueOutOfStock:
		return fmt.Sprintf("%q is out of stock", issue.Name)
	default:
		return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
			issue.Name, issue.Requested, issue.Available)
	}
}

// attemptPayment runs the method-specific check. The card path and the cash
// path are mutually exclusive; only one applies per attempt, and the gateway
// is called at most once.
func (s *Service) attemptPayment(ctx context.Context, req models.TransactionRequest) *models.TransactionError {
	switch req.PaymentMethod {
	case models.PaymentCard:
		chargeCtx := ctx
		if s.gatewayTimeout > 0 {
			var cancel context.CancelFunc
			chargeCtx, cancel = context.WithTimeout(ctx, s.gatewayTimeout)
			defer cancel()
		}

		res, err := s.gateway.Charge(chargeCtx, payment.ChargeRequest{
			Method: req.PaymentMethod,
			Amount: req.Totals.Total,
			Total:  req.Totals.Total,
		})
		if errors.Is(err, context.DeadlineExceeded) {
			return &models.TransactionError{
				Kind:    models.ErrorKindPaymentFailure,
				Message: "payment gateway timed out before responding; no charge was made",
				Issues:  []models.Issue{{Type: models.IssueTimeout}},
			}
		}
		if err != nil {
			return models.NewUnexpectedError(fmt.Errorf("payment gateway: %w", err))
		}
		if !res.Approved {
			return &models.TransactionError{
				Kind:    models.ErrorKindPaymentFailure,
				Message: "card was declined; please try a different payment method",
				Issues:  []models.Issue{{Type: models.IssueCardDeclined}},
			}
		}
		return nil

	case models.PaymentCash:
		if req.AmountTendered < req.Totals.Total {
			shortfall := req.Totals.Total - req.AmountTendered
			return &models.TransactionError{
				Kind:    models.ErrorKindPaymentFailure,
				Message: fmt.Sprintf("insufficient amount tendered: short by %.2f", shortfall),
				Issues:  []models.Issue{{Type: models.IssueInsufficientAmount}},
			}
		}
		return nil

	default:
		return models.NewUnexpectedError(fmt.Errorf("unknown payment method %q", req.PaymentMethod))
	}
}

// commit is only reached when both checks pass. It copies the payment fields
// and the four totals verbatim from the request.
func (s *Service) commit(req models.TransactionRequest) *CommitResult {
	now := s.now().UTC()

	items := make([]models.TransactionItem, 0, len(req.Lines))
	updates := make([]models.InventoryUpdate, 0, len(req.Lines))
	for _, rl := range req.Lines {
		line := rl.Line
		items = append(items, models.TransactionItem{
			ProductID:   line.ProductID,
			VariantID:   line.VariantID,
			ProductName: line.ProductName,
			VariantName: line.VariantName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
		})
		updates = append(updates, models.InventoryUpdate{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
		})
	}

	var change float64
	if req.PaymentMethod == models.PaymentCash {
		change = req.AmountTendered - req.Totals.Total
	}

	txn := models.Transaction{
		ID:             fmt.Sprintf("TXN-%d", now.UnixMilli()),
		Timestamp:      now,
		Customer:       req.Customer,
		Items:          items,
		PaymentMethod:  req.PaymentMethod,
		AmountTendered: req.AmountTendered,
		Subtotal:       req.Totals.Subtotal,
		Discount:       req.Totals.Discount,
		Tax:            req.Totals.Tax,
		Total:          req.Totals.Total,
		Change:         change,
	}
	if req.Customer != nil {
		id := req.Customer.ID
		txn.CustomerID = &id
	}

	return &CommitResult{Transaction: txn, InventoryUpdates: updates}
}

func lineDisplayName(line models.CartLine) string {
	if line.VariantName != "" {
		return line.ProductName + " (" + line.VariantName + ")"
	}
	return line.ProductName
}
