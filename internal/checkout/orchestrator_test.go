package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/courtside/pos-go-app/internal/models"
	"github.com/courtside/pos-go-app/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	products map[int64]*models.Product
	reads    int
}

func (c *fakeCatalog) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	c.reads++
	p, ok := c.products[id]
	if !ok {
		return nil, fmt.Errorf("product not found")
	}
	cp := *p
	return &cp, nil
}

type fakeSink struct {
	err       error
	committed []models.Transaction
	updates   [][]models.InventoryUpdate
}

func (s *fakeSink) Commit(ctx context.Context, txn models.Transaction, updates []models.InventoryUpdate) error {
	if s.err != nil {
		return s.err
	}
	s.committed = append(s.committed, txn)
	s.updates = append(s.updates, updates)
	return nil
}

type fixedRates struct{ rate float64 }

func (r fixedRates) TaxRate(ctx context.Context) float64 { return r.rate }

// panicGateway trips the orchestrator's recover path
type panicGateway struct{}

func (panicGateway) Charge(ctx context.Context, req payment.ChargeRequest) (payment.ChargeResult, error) {
	panic("gateway exploded")
}

func testOrchestrator(t *testing.T, gw payment.Gateway, sink *fakeSink) (*Orchestrator, *fakeCatalog) {
	t.Helper()
	catalog := &fakeCatalog{products: map[int64]*models.Product{
		1: courtRental(),
		2: racket(),
	}}
	svc := NewService(gw, 0)
	return NewOrchestrator(catalog, sink, svc, fixedRates{0.10}, nil, nil), catalog
}

func TestOrchestratorSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	orch, _ := testOrchestrator(t, &stubGateway{result: payment.ChargeResult{Approved: true}}, &fakeSink{})

	view := orch.CreateSession(ctx)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, StatusIdle, view.Status)

	got, err := orch.View(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.ID, got.ID)

	require.NoError(t, orch.CloseSession(view.ID))
	_, err = orch.View(ctx, view.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, orch.CloseSession(view.ID), ErrSessionNotFound)
}

func TestOrchestratorAddToCartReadsCatalogFresh(t *testing.T) {
	ctx := context.Background()
	orch, catalog := testOrchestrator(t, &stubGateway{result: payment.ChargeResult{Approved: true}}, &fakeSink{})
	sess := orch.CreateSession(ctx)

	view, err := orch.AddToCart(ctx, sess.ID, 2, nil)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 1, catalog.reads)

	// Catalog price changes do not retroactively alter captured lines
	catalog.products[2].BasePrice = 99.00
	view, err = orch.AddToCart(ctx, sess.ID, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.Equal(t, 8.00, view.Lines[0].UnitPrice)
}

func TestOrchestratorProcessPaymentSuccess(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	orch, _ := testOrchestrator(t, &stubGateway{result: payment.ChargeResult{Approved: true}}, sink)
	sess := orch.CreateSession(ctx)

	_, err := orch.AddToCart(ctx, sess.ID, 1, ptr(1)) // Standard Court, 40.00
	require.NoError(t, err)
	_, err = orch.SetPayment(ctx, sess.ID, models.PaymentCash, 50.00)
	require.NoError(t, err)

	view, err := orch.ProcessPayment(ctx, sess.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusSucceeded, view.Status)
	require.NotNil(t, view.LastTransaction)
	assert.InDelta(t, 44.00, view.LastTransaction.Total, 1e-9)
	assert.InDelta(t, 6.00, view.LastTransaction.Change, 1e-9)
	assert.Empty(t, view.Lines)
	assert.Nil(t, view.LastError)

	require.Len(t, sink.committed, 1)
	require.Len(t, sink.updates[0], 1)
	assert.Equal(t, int64(1), sink.updates[0][0].ProductID)
	require.NotNil(t, sink.updates[0][0].VariantID)
	assert.Equal(t, int64(1), *sink.updates[0][0].VariantID)

	// Acknowledge returns the register to idle
	view, err = orch.AcknowledgeTransaction(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, view.Status)
	assert.Nil(t, view.LastTransaction)
}

func TestOrchestratorProcessPaymentFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	orch, _ := testOrchestrator(t, &stubGateway{result: payment.ChargeResult{Approved: false}}, sink)
	sess := orch.CreateSession(ctx)

	_, err := orch.AddToCart(ctx, sess.ID, 2, nil)
	require.NoError(t, err)
	before, err := orch.SetPayment(ctx, sess.ID, models.PaymentCard, 0)
	require.NoError(t, err)

	view, err := orch.ProcessPayment(ctx, sess.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, view.Status)
	require.NotNil(t, view.LastError)
	assert.Equal(t, models.ErrorKindPaymentFailure, view.LastError.Kind)
	assert.Nil(t, view.LastTransaction)
	// Cart, customer and payment selection survive the failure untouched
	assert.Equal(t, before.Lines, view.Lines)
	assert.Equal(t, before.PaymentMethod, view.PaymentMethod)
	assert.Equal(t, before.Totals, view.Totals)
	// Nothing was committed
	assert.Empty(t, sink.committed)

	view, err = orch.DismissError(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, view.Status)
	assert.Nil(t, view.LastError)
	assert.Equal(t, before.Lines, view.Lines)
}

func TestOrchestratorStaleStockCaughtAtPayment(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	orch, catalog := testOrchestrator(t, &stubGateway{result: payment.ChargeResult{Approved: true}}, sink)
	sess := orch.CreateSession(ctx)

	_, err := orch.AddToCart(ctx, sess.ID, 2, nil)
	require.NoError(t, err)
	_, err = orch.SetPayment(ctx, sess.ID, models.PaymentCash, 20.00)
	require.NoError(t, err)

	// Stock depletes between add and pay
	catalog.products[2].Stock = 0
	catalog.products[2].StockState = models.StockStateOutOfStock

	view, err := orch.ProcessPayment(ctx, sess.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, view.Status)
	require.NotNil(t, view.LastError)
	assert.Equal(t, models.ErrorKindInventoryMismatch, view.LastError.Kind)
	assert.Empty(t, sink.committed)
}

func TestOrchestratorSinkFailureIsUnexpected(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{err: errors.New("db gone")}
	orch, _ := testOrchestrator(t, &stubGateway{result: payment.ChargeResult{Approved: true}}, sink)
	sess := orch.CreateSession(ctx)

	_, err := orch.AddToCart(ctx, sess.ID, 2, nil)
	require.NoError(t, err)
	_, err = orch.SetPayment(ctx, sess.ID, models.PaymentCash, 20.00)
	require.NoError(t, err)

	view, err := orch.ProcessPayment(ctx, sess.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, view.Status)
	require.NotNil(t, view.LastError)
	assert.Equal(t, models.ErrorKindUnexpected, view.LastError.Kind)
	// Cart intact after the unexpected failure
	require.Len(t, view.Lines, 1)
}

func TestOrchestratorPanicBecomesUnexpectedError(t *testing.T) {
	ctx := context.Background()
	orch, _ := testOrchestrator(t, panicGateway{}, &fakeSink{})
	sess := orch.CreateSession(ctx)

	_, err := orch.AddToCart(ctx, sess.ID, 2, nil)
	require.NoError(t, err)
	_, err = orch.SetPayment(ctx, sess.ID, models.PaymentCard, 0)
	require.NoError(t, err)

	view, err := orch.ProcessPayment(ctx, sess.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, view.Status)
	require.NotNil(t, view.LastError)
	assert.Equal(t, models.ErrorKindUnexpected, view.LastError.Kind)

	// The processing state was released; the register keeps working
	_, err = orch.AddToCart(ctx, sess.ID, 2, nil)
	assert.NoError(t, err)
}

func TestOrchestratorProcessPaymentGate(t *testing.T) {
	ctx := context.Background()
	orch, _ := testOrchestrator(t, &stubGateway{result: payment.ChargeResult{Approved: true}}, &fakeSink{})
	sess := orch.CreateSession(ctx)

	_, err := orch.ProcessPayment(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrCartEmpty)

	_, err = orch.AddToCart(ctx, sess.ID, 1, ptr(2)) // Premium Court, 60.00
	require.NoError(t, err)
	_, err = orch.SetPayment(ctx, sess.ID, models.PaymentCash, 60.00)
	require.NoError(t, err)

	// 66.00 total; 60.00 tendered fails the gate before any pipeline work
	_, err = orch.ProcessPayment(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrInsufficientTendered)

	view, err := orch.SetPayment(ctx, sess.ID, models.PaymentCash, 66.00)
	require.NoError(t, err)
	assert.True(t, view.CanPay)
}

func TestOrchestratorMemberDiscountAppliedEndToEnd(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	orch, catalog := testOrchestrator(t, &stubGateway{result: payment.ChargeResult{Approved: true}}, sink)
	catalog.products[4] = &models.Product{
		ID: 4, Name: "Lesson Pack", BasePrice: 50.00, Stock: 10,
		StockState: models.StockStateInStock,
	}
	sess := orch.CreateSession(ctx)

	_, err := orch.AddToCart(ctx, sess.ID, 4, nil)
	require.NoError(t, err)
	_, err = orch.ChangeQuantity(ctx, sess.ID, "4", 1) // 2 x 50.00
	require.NoError(t, err)
	_, err = orch.SelectCustomer(ctx, sess.ID, &models.Customer{ID: 1, IsMember: true, MemberDiscount: 0.10})
	require.NoError(t, err)
	_, err = orch.SetPayment(ctx, sess.ID, models.PaymentCash, 99.00)
	require.NoError(t, err)

	view, err := orch.ProcessPayment(ctx, sess.ID)
	require.NoError(t, err)

	require.NotNil(t, view.LastTransaction)
	txn := view.LastTransaction
	assert.InDelta(t, 100.00, txn.Subtotal, 1e-9)
	assert.InDelta(t, 10.00, txn.Discount, 1e-9)
	assert.InDelta(t, 9.00, txn.Tax, 1e-9)
	assert.InDelta(t, 99.00, txn.Total, 1e-9)
	assert.Zero(t, txn.Change)
	require.NotNil(t, txn.CustomerID)
	assert.Equal(t, int64(1), *txn.CustomerID)
}
