package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courtside/pos-go-app/internal/models"
	"github.com/courtside/pos-go-app/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGateway scripts the gateway outcome per test
type stubGateway struct {
	result payment.ChargeResult
	err    error
	calls  int
}

func (g *stubGateway) Charge(ctx context.Context, req payment.ChargeRequest) (payment.ChargeResult, error) {
	g.calls++
	if g.err != nil {
		return payment.ChargeResult{}, g.err
	}
	return g.result, nil
}

// slowGateway blocks until the context expires
type slowGateway struct{}

func (slowGateway) Charge(ctx context.Context, req payment.ChargeRequest) (payment.ChargeResult, error) {
	<-ctx.Done()
	return payment.ChargeResult{}, ctx.Err()
}

func approvingService() (*Service, *stubGateway) {
	gw := &stubGateway{result: payment.ChargeResult{Approved: true, Reference: "ref-1"}}
	svc := NewService(gw, 0).WithClock(func() time.Time {
		return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	})
	return svc, gw
}

func ptr(v int64) *int64 { return &v }

func cashRequest(lines []models.RequestLine, tendered float64, totals models.CartTotals) models.TransactionRequest {
	return models.TransactionRequest{
		Lines:          lines,
		PaymentMethod:  models.PaymentCash,
		AmountTendered: tendered,
		Totals:         totals,
	}
}

func simpleLine(qty, stock int) models.RequestLine {
	return models.RequestLine{
		Line: models.CartLine{
			Key: "2", ProductID: 2, ProductName: "Racket Rental", UnitPrice: 8.00, Quantity: qty,
		},
		Product: models.Product{
			ID: 2, Name: "Racket Rental", Stock: stock,
			StockState: models.DeriveStockState(stock, 5),
		},
	}
}

func TestProcessTransactionCashSuccess(t *testing.T) {
	svc, _ := approvingService()
	totals := models.CartTotals{Subtotal: 16.00, Tax: 1.60, Total: 17.60}
	req := cashRequest([]models.RequestLine{simpleLine(2, 10)}, 20.00, totals)

	result, txErr := svc.ProcessTransaction(context.Background(), req)

	require.Nil(t, txErr)
	require.NotNil(t, result)

	txn := result.Transaction
	assert.Equal(t, "TXN-1773500966000", txn.ID)
	assert.Equal(t, models.PaymentCash, txn.PaymentMethod)
	// Totals are carried verbatim from the request, never recomputed
	assert.Equal(t, totals.Subtotal, txn.Subtotal)
	assert.Equal(t, totals.Discount, txn.Discount)
	assert.Equal(t, totals.Tax, txn.Tax)
	assert.Equal(t, totals.Total, txn.Total)
	assert.InDelta(t, 2.40, txn.Change, 1e-9)

	require.Len(t, result.InventoryUpdates, 1)
	assert.Equal(t, models.InventoryUpdate{ProductID: 2, Quantity: 2}, result.InventoryUpdates[0])
}

func TestProcessTransactionExactCashTender(t *testing.T) {
	svc, _ := approvingService()
	totals := models.CartTotals{Subtotal: 60.00, Tax: 6.00, Total: 66.00}
	req := cashRequest([]models.RequestLine{simpleLine(1, 10)}, 66.00, totals)

	result, txErr := svc.ProcessTransaction(context.Background(), req)

	require.Nil(t, txErr)
	assert.Zero(t, result.Transaction.Change)
}

func TestProcessTransactionCashShortfall(t *testing.T) {
	svc, gw := approvingService()
	totals := models.CartTotals{Subtotal: 60.00, Tax: 6.00, Total: 66.00}
	req := cashRequest([]models.RequestLine{simpleLine(1, 10)}, 60.00, totals)

	result, txErr := svc.ProcessTransaction(context.Background(), req)

	require.Nil(t, result)
	require.NotNil(t, txErr)
	assert.Equal(t, models.ErrorKindPaymentFailure, txErr.Kind)
	assert.Equal(t, "insufficient amount tendered: short by 6.00", txErr.Message)
	require.Len(t, txErr.Issues, 1)
	assert.Equal(t, models.IssueInsufficientAmount, txErr.Issues[0].Type)
	assert.Zero(t, gw.calls)
}

func TestProcessTransactionCardDeclined(t *testing.T) {
	gw := &stubGateway{result: payment.ChargeResult{Approved: false, Reason: "card declined by issuer"}}
	svc := NewService(gw, 0)

	req := models.TransactionRequest{
		Lines:         []models.RequestLine{simpleLine(1, 10)},
		PaymentMethod: models.PaymentCard,
		Totals:        models.CartTotals{Subtotal: 8.00, Tax: 0.80, Total: 8.80},
	}
	result, txErr := svc.ProcessTransaction(context.Background(), req)

	require.Nil(t, result)
	require.NotNil(t, txErr)
	assert.Equal(t, models.ErrorKindPaymentFailure, txErr.Kind)
	assert.Equal(t, "card was declined; please try a different payment method", txErr.Message)
	require.Len(t, txErr.Issues, 1)
	assert.Equal(t, models.IssueCardDeclined, txErr.Issues[0].Type)
	assert.Equal(t, 1, gw.calls)
}

func TestProcessTransactionCardChangeIsZero(t *testing.T) {
	svc, _ := approvingService()
	req := models.TransactionRequest{
		Lines:          []models.RequestLine{simpleLine(1, 10)},
		PaymentMethod:  models.PaymentCard,
		AmountTendered: 50.00,
		Totals:         models.CartTotals{Subtotal: 8.00, Tax: 0.80, Total: 8.80},
	}

	result, txErr := svc.ProcessTransaction(context.Background(), req)

	require.Nil(t, txErr)
	assert.Zero(t, result.Transaction.Change)
}

func TestProcessTransactionGatewayTimeout(t *testing.T) {
	svc := NewService(slowGateway{}, 10*time.Millisecond)
	req := models.TransactionRequest{
		Lines:         []models.RequestLine{simpleLine(1, 10)},
		PaymentMethod: models.PaymentCard,
		Totals:        models.CartTotals{Total: 8.80},
	}

	result, txErr := svc.ProcessTransaction(context.Background(), req)

	require.Nil(t, result)
	require.NotNil(t, txErr)
	assert.Equal(t, models.ErrorKindPaymentFailure, txErr.Kind)
	require.Len(t, txErr.Issues, 1)
	assert.Equal(t, models.IssueTimeout, txErr.Issues[0].Type)
	assert.Contains(t, txErr.Message, "no charge was made")
}

func TestProcessTransactionGatewayTransportError(t *testing.T) {
	gw := &stubGateway{err: errors.New("connection reset")}
	svc := NewService(gw, 0)
	req := models.TransactionRequest{
		Lines:         []models.RequestLine{simpleLine(1, 10)},
		PaymentMethod: models.PaymentCard,
		Totals:        models.CartTotals{Total: 8.80},
	}

	result, txErr := svc.ProcessTransaction(context.Background(), req)

	require.Nil(t, result)
	require.NotNil(t, txErr)
	assert.Equal(t, models.ErrorKindUnexpected, txErr.Kind)
}

func TestProcessTransactionInsufficientStock(t *testing.T) {
	svc, gw := approvingService()
	req := cashRequest([]models.RequestLine{simpleLine(5, 3)}, 100.00,
		models.CartTotals{Subtotal: 40.00, Tax: 4.00, Total: 44.00})

	result, txErr := svc.ProcessTransaction(context.Background(), req)

	require.Nil(t, result)
	require.NotNil(t, txErr)
	assert.Equal(t, models.ErrorKindInventoryMismatch, txErr.Kind)
	assert.Equal(t, `insufficient stock for "Racket Rental": requested 5, available 3`, txErr.Message)
	require.Len(t, txErr.Issues, 1)
	issue := txErr.Issues[0]
	assert.Equal(t, models.IssueInsufficientStock, issue.Type)
	assert.Equal(t, 5, issue.Requested)
	assert.Equal(t, 3, issue.Available)
	// Payment never runs once inventory fails
	assert.Zero(t, gw.calls)
}

func TestProcessTransactionOutOfStock(t *testing.T) {
	svc, _ := approvingService()
	req := cashRequest([]models.RequestLine{simpleLine(1, 0)}, 100.00, models.CartTotals{Total: 8.80})

	result, txErr := svc.ProcessTransaction(context.Background(), req)

	require.Nil(t, result)
	require.NotNil(t, txErr)
	assert.Equal(t, models.ErrorKindInventoryMismatch, txErr.Kind)
	assert.Equal(t, `"Racket Rental" is out of stock`, txErr.Message)
	assert.Equal(t, models.IssueOutOfStock, txErr.Issues[0].Type)
}

func TestProcessTransactionVariantNotFound(t *testing.T) {
	svc, _ := approvingService()
	line := models.RequestLine{
		Line: models.CartLine{
			Key: "1:9", ProductID: 1, VariantID: ptr(9),
			ProductName: "Court Rental - 2 Hours", VariantName: "Premium Court",
			UnitPrice: 60.00, Quantity: 1,
		},
		Product: models.Product{
			ID: 1, Name: "Court Rental - 2 Hours", HasVariants: true,
			Variants: []models.Variant{
				{ID: 1, ProductID: 1, Name: "Standard Court", Price: 40.00, Stock: 6, StockState: models.StockStateInStock},
			},
		},
	}
	req := cashRequest([]models.RequestLine{line}, 100.00, models.CartTotals{Total: 66.00})

	result, txErr := svc.ProcessTransaction(context.Background(), req)

	require.Nil(t, result)
	require.NotNil(t, txErr)
	assert.Equal(t, models.ErrorKindInventoryMismatch, txErr.Kind)
	assert.Equal(t, `selected option for "Court Rental - 2 Hours (Premium Court)" is no longer available`, txErr.Message)
	assert.Equal(t, models.IssueVariantNotFound, txErr.Issues[0].Type)
}

func TestProcessTransactionCollectsAllIssuesFirstMessageWins(t *testing.T) {
	svc, _ := approvingService()
	outOfStock := models.RequestLine{
		Line:    models.CartLine{Key: "3", ProductID: 3, ProductName: "Tennis Balls", UnitPrice: 6.50, Quantity: 1},
		Product: models.Product{ID: 3, Name: "Tennis Balls", Stock: 0, StockState: models.StockStateOutOfStock},
	}
	short := simpleLine(5, 3)
	req := cashRequest([]models.RequestLine{outOfStock, short}, 100.00, models.CartTotals{Total: 50.00})

	result, txErr := svc.ProcessTransaction(context.Background(), req)

	require.Nil(t, result)
	require.NotNil(t, txErr)
	require.Len(t, txErr.Issues, 2)
	// Message reflects the first failing line in cart order
	assert.Equal(t, `"Tennis Balls" is out of stock`, txErr.Message)
	assert.Equal(t, models.IssueOutOfStock, txErr.Issues[0].Type)
	assert.Equal(t, models.IssueInsufficientStock, txErr.Issues[1].Type)
}

func TestProcessTransactionVariantStockChecked(t *testing.T) {
	svc, _ := approvingService()
	line := models.RequestLine{
		Line: models.CartLine{
			Key: "1:2", ProductID: 1, VariantID: ptr(2),
			ProductName: "Court Rental - 2 Hours", VariantName: "Premium Court",
			UnitPrice: 60.00, Quantity: 3,
		},
		Product: models.Product{
			ID: 1, Name: "Court Rental - 2 Hours", HasVariants: true,
			// Base stock is plentiful but irrelevant for variant products
			Stock: 100,
			Variants: []models.Variant{
				{ID: 2, ProductID: 1, Name: "Premium Court", Price: 60.00, Stock: 2, StockState: models.StockStateLowStock},
			},
		},
	}
	req := cashRequest([]models.RequestLine{line}, 300.00, models.CartTotals{Total: 198.00})

	result, txErr := svc.ProcessTransaction(context.Background(), req)

	require.Nil(t, result)
	require.NotNil(t, txErr)
	assert.Equal(t, models.IssueInsufficientStock, txErr.Issues[0].Type)
	assert.Equal(t, 2, txErr.Issues[0].Available)
}

func TestProcessTransactionVariantUpdateCarriesVariantID(t *testing.T) {
	svc, _ := approvingService()
	line := models.RequestLine{
		Line: models.CartLine{
			Key: "1:1", ProductID: 1, VariantID: ptr(1),
			ProductName: "Court Rental - 2 Hours", VariantName: "Standard Court",
			UnitPrice: 40.00, Quantity: 1,
		},
		Product: models.Product{
			ID: 1, Name: "Court Rental - 2 Hours", HasVariants: true,
			Variants: []models.Variant{
				{ID: 1, ProductID: 1, Name: "Standard Court", Price: 40.00, Stock: 6, StockState: models.StockStateInStock},
			},
		},
	}
	req := cashRequest([]models.RequestLine{line}, 44.00, models.CartTotals{Subtotal: 40.00, Tax: 4.00, Total: 44.00})

	result, txErr := svc.ProcessTransaction(context.Background(), req)

	require.Nil(t, txErr)
	require.Len(t, result.InventoryUpdates, 1)
	update := result.InventoryUpdates[0]
	assert.Equal(t, int64(1), update.ProductID)
	require.NotNil(t, update.VariantID)
	assert.Equal(t, int64(1), *update.VariantID)
	assert.Equal(t, 1, update.Quantity)
}

func TestProcessTransactionUnknownMethod(t *testing.T) {
	svc, _ := approvingService()
	req := models.TransactionRequest{
		Lines:         []models.RequestLine{simpleLine(1, 10)},
		PaymentMethod: "crypto",
		Totals:        models.CartTotals{Total: 8.80},
	}

	result, txErr := svc.ProcessTransaction(context.Background(), req)

	require.Nil(t, result)
	require.NotNil(t, txErr)
	assert.Equal(t, models.ErrorKindUnexpected, txErr.Kind)
}

func TestProcessTransactionDoesNotMutateRequest(t *testing.T) {
	svc, _ := approvingService()
	lines := []models.RequestLine{simpleLine(2, 10)}
	totals := models.CartTotals{Subtotal: 16.00, Tax: 1.60, Total: 17.60}
	req := cashRequest(lines, 20.00, totals)

	_, txErr := svc.ProcessTransaction(context.Background(), req)
	require.Nil(t, txErr)

	assert.Equal(t, 2, lines[0].Line.Quantity)
	assert.Equal(t, 10, lines[0].Product.Stock)
	assert.Equal(t, totals, req.Totals)
}

func TestProcessTransactionCustomerCarriedOntoRecord(t *testing.T) {
	svc, _ := approvingService()
	member := &models.Customer{ID: 7, Name: "Jordan Blake", IsMember: true, MemberDiscount: 0.10}
	req := models.TransactionRequest{
		Customer:       member,
		Lines:          []models.RequestLine{simpleLine(1, 10)},
		PaymentMethod:  models.PaymentCash,
		AmountTendered: 10.00,
		Totals:         models.CartTotals{Subtotal: 8.00, Discount: 0.80, Tax: 0.72, Total: 7.92},
	}

	result, txErr := svc.ProcessTransaction(context.Background(), req)

	require.Nil(t, txErr)
	require.NotNil(t, result.Transaction.Customer)
	assert.Equal(t, int64(7), result.Transaction.Customer.ID)
	require.NotNil(t, result.Transaction.CustomerID)
	assert.Equal(t, int64(7), *result.Transaction.CustomerID)
}
