package checkout

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/courtside/pos-go-app/internal/events"
	"github.com/courtside/pos-go-app/internal/metrics"
	"github.com/courtside/pos-go-app/internal/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Catalog supplies fresh product reads. The orchestrator reads it at the
// moment a TransactionRequest is built so stock figures are current at call
// time, never cached from when the line was added.
type Catalog interface {
	ProductByID(ctx context.Context, id int64) (*models.Product, error)
}

// TransactionSink persists a committed sale and applies its inventory
// decrements atomically as one unit. The checkout core never decrements
// stock itself.
type TransactionSink interface {
	Commit(ctx context.Context, txn models.Transaction, updates []models.InventoryUpdate) error
}

// RateProvider supplies the configured tax rate
type RateProvider interface {
	TaxRate(ctx context.Context) float64
}

// Orchestrator mediates between register actions and the transaction
// service. It owns the open checkout sessions and, per session, runs the
// idle -> processing -> succeeded/failed -> idle cycle once per attempt.
type Orchestrator struct {
	catalog   Catalog
	sink      TransactionSink
	service   *Service
	rates     RateProvider
	publisher events.Publisher
	metrics   *metrics.AppMetrics

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewOrchestrator wires the checkout core to its collaborators. publisher
// and m may be nil; both are optional.
func NewOrchestrator(catalog Catalog, sink TransactionSink, service *Service, rates RateProvider, publisher events.Publisher, m *metrics.AppMetrics) *Orchestrator {
	return &Orchestrator{
		catalog:   catalog,
		sink:      sink,
		service:   service,
		rates:     rates,
		publisher: publisher,
		metrics:   m,
		sessions:  make(map[string]*Session),
	}
}

// CreateSession opens a new register session with an empty idle cart
func (o *Orchestrator) CreateSession(ctx context.Context) SessionView {
	sess := NewSession(uuid.NewString())

	o.mu.Lock()
	o.sessions[sess.ID] = sess
	count := len(o.sessions)
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.ActiveSessionsCount.Record(ctx, int64(count),
			metric.WithAttributes(o.metrics.WithServiceName(nil)...))
	}

	return sess.View(o.rates.TaxRate(ctx))
}

// Session looks up an open session by ID
func (o *Orchestrator) Session(id string) (*Session, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	sess, ok := o.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// CloseSession drops a session from the register
func (o *Orchestrator) CloseSession(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(o.sessions, id)
	return nil
}

// View snapshots a session with current totals
func (o *Orchestrator) View(ctx context.Context, sessionID string) (SessionView, error) {
	sess, err := o.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return sess.View(o.rates.TaxRate(ctx)), nil
}

// AddToCart reads the product fresh from the catalog and upserts a line
func (o *Orchestrator) AddToCart(ctx context.Context, sessionID string, productID int64, variantID *int64) (SessionView, error) {
	sess, err := o.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}

	product, err := o.catalog.ProductByID(ctx, productID)
	if err != nil {
		return SessionView{}, fmt.Errorf("failed to load product %d: %w", productID, err)
	}

	if err := sess.AddToCart(product, variantID); err != nil {
		return SessionView{}, err
	}

	view := sess.View(o.rates.TaxRate(ctx))
	o.recordCartSize(ctx, view)
	return view, nil
}

// ChangeQuantity adjusts a line quantity; decrementing to zero removes it
func (o *Orchestrator) ChangeQuantity(ctx context.Context, sessionID, lineKey string, delta int) (SessionView, error) {
	sess, err := o.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if err := sess.ChangeQuantity(lineKey, delta); err != nil {
		return SessionView{}, err
	}
	view := sess.View(o.rates.TaxRate(ctx))
	o.recordCartSize(ctx, view)
	return view, nil
}

// RemoveLine deletes a line unconditionally
func (o *Orchestrator) RemoveLine(ctx context.Context, sessionID, lineKey string) (SessionView, error) {
	sess, err := o.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if err := sess.RemoveLine(lineKey); err != nil {
		return SessionView{}, err
	}
	return sess.View(o.rates.TaxRate(ctx)), nil
}

// ClearCart empties the session cart
func (o *Orchestrator) ClearCart(ctx context.Context, sessionID string) (SessionView, error) {
	sess, err := o.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if err := sess.ClearCart(); err != nil {
		return SessionView{}, err
	}
	return sess.View(o.rates.TaxRate(ctx)), nil
}

// SelectCustomer attaches a customer to the session; nil detaches
func (o *Orchestrator) SelectCustomer(ctx context.Context, sessionID string, customer *models.Customer) (SessionView, error) {
	sess, err := o.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if err := sess.SelectCustomer(customer); err != nil {
		return SessionView{}, err
	}
	return sess.View(o.rates.TaxRate(ctx)), nil
}

// SetPayment selects the payment method and, for cash, the tendered amount
func (o *Orchestrator) SetPayment(ctx context.Context, sessionID string, method models.PaymentMethod, tendered float64) (SessionView, error) {
	sess, err := o.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if err := sess.SetPaymentMethod(method); err != nil {
		return SessionView{}, err
	}
	if err := sess.SetAmountTendered(tendered); err != nil {
		return SessionView{}, err
	}
	return sess.View(o.rates.TaxRate(ctx)), nil
}

// DismissError acknowledges a failed attempt
func (o *Orchestrator) DismissError(ctx context.Context, sessionID string) (SessionView, error) {
	sess, err := o.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	sess.DismissError()
	return sess.View(o.rates.TaxRate(ctx)), nil
}

// AcknowledgeTransaction clears the confirmation surface
func (o *Orchestrator) AcknowledgeTransaction(ctx context.Context, sessionID string) (SessionView, error) {
	sess, err := o.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	sess.AcknowledgeTransaction()
	return sess.View(o.rates.TaxRate(ctx)), nil
}

// ProcessPayment runs one checkout attempt end to end. A second call while
// an attempt is in flight is rejected with ErrProcessing. On success the
// session resets fully and atomically; on any failure the cart, customer and
// payment selection stay exactly as entered. The processing state is always
// released, whatever the outcome.
func (o *Orchestrator) ProcessPayment(ctx context.Context, sessionID string) (SessionView, error) {
	sess, err := o.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}

	taxRate := o.rates.TaxRate(ctx)
	att, err := sess.beginAttempt(taxRate)
	if err != nil {
		return SessionView{}, err
	}

	start := time.Now()
	result, txErr := o.runAttempt(ctx, att)

	if txErr != nil {
		sess.fail(txErr)
		o.recordFailure(ctx, txErr, start)
		log.Printf("[CHECKOUT] Attempt failed: session=%s kind=%s msg=%q", sessionID, txErr.Kind, txErr.Message)
		return sess.View(taxRate), nil
	}

	sess.succeed(&result.Transaction)
	o.recordSuccess(ctx, att, result, start)
	o.publish(ctx, result.Transaction)
	log.Printf("[CHECKOUT] Sale committed: session=%s transaction=%s total=%.2f method=%s",
		sessionID, result.Transaction.ID, result.Transaction.Total, result.Transaction.PaymentMethod)

	return sess.View(taxRate), nil
}

// runAttempt builds the request snapshot, invokes the transaction service
// and commits through the sink. Panics and collaborator errors surface as
// unexpected_error failures so the caller's branch logic stays total.
func (o *Orchestrator) runAttempt(ctx context.Context, att attempt) (result *CommitResult, txErr *models.TransactionError) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[CHECKOUT] Recovered panic during attempt: %v", r)
			result = nil
			txErr = models.NewUnexpectedError(fmt.Errorf("panic: %v", r))
		}
	}()

	lines := make([]models.RequestLine, 0, len(att.lines))
	for _, line := range att.lines {
		product, err := o.catalog.ProductByID(ctx, line.ProductID)
		if err != nil {
			return nil, models.NewUnexpectedError(fmt.Errorf("catalog read for product %d: %w", line.ProductID, err))
		}
		lines = append(lines, models.RequestLine{Line: line, Product: *product})
	}

	req := models.TransactionRequest{
		Customer:       att.customer,
		Lines:          lines,
		PaymentMethod:  att.paymentMethod,
		AmountTendered: att.amountTendered,
		Totals:         att.totals,
	}

	result, txErr = o.service.ProcessTransaction(ctx, req)
	if txErr != nil {
		return nil, txErr
	}

	if err := o.sink.Commit(ctx, result.Transaction, result.InventoryUpdates); err != nil {
		return nil, models.NewUnexpectedError(fmt.Errorf("transaction sink: %w", err))
	}

	return result, nil
}

func (o *Orchestrator) publish(ctx context.Context, txn models.Transaction) {
	if o.publisher == nil {
		return
	}
	ev := events.SaleCompleted{
		TransactionID: txn.ID,
		Timestamp:     txn.Timestamp,
		CustomerID:    txn.CustomerID,
		PaymentMethod: string(txn.PaymentMethod),
		ItemCount:     len(txn.Items),
		Total:         txn.Total,
	}
	if err := o.publisher.PublishSaleCompleted(ctx, ev); err != nil {
		// Best effort: the sale is already durable in the ledger
		log.Printf("[CHECKOUT] Failed to publish sale event for %s: %v", txn.ID, err)
	}
}

func (o *Orchestrator) recordSuccess(ctx context.Context, att attempt, result *CommitResult, start time.Time) {
	if o.metrics == nil {
		return
	}

	attrs := o.metrics.WithServiceName([]attribute.KeyValue{
		attribute.String("payment_method", string(result.Transaction.PaymentMethod)),
		attribute.String("outcome", "success"),
	})
	o.metrics.SalesCompleted.Add(ctx, 1, metric.WithAttributes(attrs...))
	o.metrics.CheckoutDuration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))
	o.metrics.RevenueTotal.Add(ctx, result.Transaction.Total, metric.WithAttributes(attrs...))
}

func (o *Orchestrator) recordFailure(ctx context.Context, txErr *models.TransactionError, start time.Time) {
	if o.metrics == nil {
		return
	}

	attrs := o.metrics.WithServiceName([]attribute.KeyValue{
		attribute.String("outcome", "failure"),
		attribute.String("error_kind", string(txErr.Kind)),
	})
	o.metrics.CheckoutDuration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))

	switch txErr.Kind {
	case models.ErrorKindPaymentFailure:
		o.metrics.PaymentDeclines.Add(ctx, 1, metric.WithAttributes(attrs...))
	case models.ErrorKindInventoryMismatch:
		o.metrics.InventoryRejections.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func (o *Orchestrator) recordCartSize(ctx context.Context, view SessionView) {
	if o.metrics == nil {
		return
	}
	o.metrics.CartLinesCount.Record(ctx, int64(len(view.Lines)),
		metric.WithAttributes(o.metrics.WithServiceName([]attribute.KeyValue{
			attribute.String("session_id", view.ID),
		})...))
}
