package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/courtside/pos-go-app/internal/checkout"
	"github.com/courtside/pos-go-app/internal/db"
	"github.com/courtside/pos-go-app/internal/idempotency"
	"github.com/courtside/pos-go-app/internal/metrics"
	"github.com/courtside/pos-go-app/internal/middleware"
	"github.com/courtside/pos-go-app/internal/models"
	"github.com/courtside/pos-go-app/internal/services"
	"github.com/courtside/pos-go-app/pkg/config"
	"github.com/gorilla/mux"
)

// App holds application dependencies
type App struct {
	config          *config.Config
	db              *db.DB
	metrics         *metrics.AppMetrics
	orchestrator    *checkout.Orchestrator
	productService  *services.ProductService
	customerService *services.CustomerService
	inventory       *services.InventoryService
	ledger          *services.LedgerService
	banners         *services.BannerService
	settings        *services.SettingsService
	idempotency     idempotency.Store
	rateLimiter     *middleware.RateLimiter
}

// NewApp creates a new application instance
func NewApp(
	cfg *config.Config,
	database *db.DB,
	m *metrics.AppMetrics,
	orch *checkout.Orchestrator,
	ps *services.ProductService,
	cs *services.CustomerService,
	inv *services.InventoryService,
	ledger *services.LedgerService,
	banners *services.BannerService,
	settings *services.SettingsService,
	idem idempotency.Store,
	limiter *middleware.RateLimiter,
) *App {
	return &App{
		config:          cfg,
		db:              database,
		metrics:         m,
		orchestrator:    orch,
		productService:  ps,
		customerService: cs,
		inventory:       inv,
		ledger:          ledger,
		banners:         banners,
		settings:        settings,
		idempotency:     idem,
		rateLimiter:     limiter,
	}
}

// SetupRoutes configures the HTTP routes
func (a *App) SetupRoutes(r *mux.Router) {
	// Middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RecoverMiddleware)
	r.Use(middleware.MetricsMiddleware(a.metrics))
	if a.rateLimiter != nil {
		r.Use(a.rateLimiter.Limit)
	}

	// API Routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// Catalog
	api.HandleFunc("/products", a.ListProductsHandler).Methods("GET")
	api.HandleFunc("/products", a.CreateProductHandler).Methods("POST")
	api.HandleFunc("/products/{id}", a.GetProductHandler).Methods("GET")
	api.HandleFunc("/products/{id}", a.UpdateProductHandler).Methods("PUT")
	api.HandleFunc("/products/{id}", a.DeleteProductHandler).Methods("DELETE")
	api.HandleFunc("/products/{id}/restock", a.RestockHandler).Methods("POST")

	// Customers
	api.HandleFunc("/customers", a.ListCustomersHandler).Methods("GET")
	api.HandleFunc("/customers", a.CreateCustomerHandler).Methods("POST")
	api.HandleFunc("/customers/{id}", a.GetCustomerHandler).Methods("GET")
	api.HandleFunc("/customers/{id}", a.UpdateCustomerHandler).Methods("PUT")

	// Checkout sessions
	api.HandleFunc("/sessions", a.CreateSessionHandler).Methods("POST")
	api.HandleFunc("/sessions/{id}", a.GetSessionHandler).Methods("GET")
	api.HandleFunc("/sessions/{id}", a.CloseSessionHandler).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/cart", a.AddToCartHandler).Methods("POST")
	api.HandleFunc("/sessions/{id}/cart", a.ClearCartHandler).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/cart/{lineKey}", a.ChangeQuantityHandler).Methods("PATCH")
	api.HandleFunc("/sessions/{id}/cart/{lineKey}", a.RemoveLineHandler).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/customer", a.SelectCustomerHandler).Methods("PUT")
	api.HandleFunc("/sessions/{id}/customer", a.ClearSessionCustomerHandler).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/payment", a.SetPaymentHandler).Methods("PUT")
	api.HandleFunc("/sessions/{id}/pay", a.ProcessPaymentHandler).Methods("POST")
	api.HandleFunc("/sessions/{id}/error", a.DismissErrorHandler).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/transaction", a.AcknowledgeHandler).Methods("DELETE")

	// Ledger
	api.HandleFunc("/transactions", a.ListTransactionsHandler).Methods("GET")
	api.HandleFunc("/transactions/summary", a.DailySummaryHandler).Methods("GET")
	api.HandleFunc("/transactions/{id}", a.GetTransactionHandler).Methods("GET")

	// Banners
	api.HandleFunc("/banners", a.ListBannersHandler).Methods("GET")
	api.HandleFunc("/banners", a.CreateBannerHandler).Methods("POST")
	api.HandleFunc("/banners/reorder", a.ReorderBannersHandler).Methods("PUT")
	api.HandleFunc("/banners/{id}", a.UpdateBannerHandler).Methods("PUT")
	api.HandleFunc("/banners/{id}", a.DeleteBannerHandler).Methods("DELETE")

	// Settings
	api.HandleFunc("/settings", a.GetSettingsHandler).Methods("GET")
	api.HandleFunc("/settings", a.UpdateSettingsHandler).Methods("PUT")

	// Health
	r.HandleFunc("/health", a.HealthHandler).Methods("GET")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// sessionStatus maps session operation errors to HTTP status codes
func sessionStatus(err error) int {
	switch {
	case errors.Is(err, checkout.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, checkout.ErrLineNotFound):
		return http.StatusNotFound
	case errors.Is(err, checkout.ErrProcessing):
		return http.StatusConflict
	case errors.Is(err, checkout.ErrVariantRequired),
		errors.Is(err, checkout.ErrVariantInvalid),
		errors.Is(err, checkout.ErrOutOfStock),
		errors.Is(err, checkout.ErrCartEmpty),
		errors.Is(err, checkout.ErrNoPaymentMethod),
		errors.Is(err, checkout.ErrInsufficientTendered):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// HealthHandler handles health check requests
func (a *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ListProductsHandler handles GET /api/v1/products
func (a *App) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil {
			offset = parsed
		}
	}

	products, err := a.productService.ListProducts(r.Context(),
		r.URL.Query().Get("category"), r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProductHandler handles GET /api/v1/products/{id}
func (a *App) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := a.productService.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// CreateProductHandler handles POST /api/v1/products
func (a *App) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := a.productService.CreateProduct(r.Context(), &p)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateProductHandler handles PUT /api/v1/products/{id}
func (a *App) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var p models.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.ID = id

	if err := a.productService.UpdateProduct(r.Context(), &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := a.productService.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteProductHandler handles DELETE /api/v1/products/{id}
func (a *App) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := a.productService.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// RestockHandler handles POST /api/v1/products/{id}/restock
func (a *App) RestockHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req struct {
		VariantID *int64 `json:"variant_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := a.inventory.Restock(r.Context(), id, req.VariantID, req.Quantity); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := a.productService.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// ListCustomersHandler handles GET /api/v1/customers
func (a *App) ListCustomersHandler(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil {
			offset = parsed
		}
	}

	customers, err := a.customerService.ListCustomers(r.Context(), r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

// CreateCustomerHandler handles POST /api/v1/customers
func (a *App) CreateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var c models.Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := a.customerService.CreateCustomer(r.Context(), &c)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetCustomerHandler handles GET /api/v1/customers/{id}
func (a *App) GetCustomerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer ID")
		return
	}

	customer, err := a.customerService.GetCustomer(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// UpdateCustomerHandler handles PUT /api/v1/customers/{id}
func (a *App) UpdateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer ID")
		return
	}

	var c models.Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.ID = id

	if err := a.customerService.UpdateCustomer(r.Context(), &c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateSessionHandler handles POST /api/v1/sessions
func (a *App) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	view := a.orchestrator.CreateSession(r.Context())
	writeJSON(w, http.StatusCreated, view)
}

// GetSessionHandler handles GET /api/v1/sessions/{id}
func (a *App) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	view, err := a.orchestrator.View(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, sessionStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// CloseSessionHandler handles DELETE /api/v1/sessions/{id}
func (a *App) CloseSessionHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.orchestrator.CloseSession(mux.Vars(r)["id"]); err != nil {
		writeError(w, sessionStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// AddToCartHandler handles POST /api/v1/sessions/{id}/cart
func (a *App) AddToCartHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int64  `json:"product_id"`
		VariantID *int64 `json:"variant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := a.orchestrator.AddToCart(r.Context(), mux.Vars(r)["id"], req.ProductID, req.VariantID)
	if err != nil {
		writeError(w, sessionStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ChangeQuantityHandler handles PATCH /api/v1/sessions/{id}/cart/{lineKey}
func (a *App) ChangeQuantityHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vars := mux.Vars(r)
	view, err := a.orchestrator.ChangeQuantity(r.Context(), vars["id"], vars["lineKey"], req.Delta)
	if err != nil {
		writeError(w, sessionStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// RemoveLineHandler handles DELETE /api/v1/sessions/{id}/cart/{lineKey}
func (a *App) RemoveLineHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	view, err := a.orchestrator.RemoveLine(r.Context(), vars["id"], vars["lineKey"])
	if err != nil {
		writeError(w, sessionStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ClearCartHandler handles DELETE /api/v1/sessions/{id}/cart
func (a *App) ClearCartHandler(w http.ResponseWriter, r *http.Request) {
	view, err := a.orchestrator.ClearCart(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, sessionStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SelectCustomerHandler handles PUT /api/v1/sessions/{id}/customer
func (a *App) SelectCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID int64 `json:"customer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	customer, err := a.customerService.GetCustomer(r.Context(), req.CustomerID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	view, err := a.orchestrator.SelectCustomer(r.Context(), mux.Vars(r)["id"], customer)
	if err != nil {
		writeError(w, sessionStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ClearSessionCustomerHandler handles DELETE /api/v1/sessions/{id}/customer
func (a *App) ClearSessionCustomerHandler(w http.ResponseWriter, r *http.Request) {
	view, err := a.orchestrator.SelectCustomer(r.Context(), mux.Vars(r)["id"], nil)
	if err != nil {
		writeError(w, sessionStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SetPaymentHandler handles PUT /api/v1/sessions/{id}/payment
func (a *App) SetPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method         models.PaymentMethod `json:"method"`
		AmountTendered float64              `json:"amount_tendered"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Method != "" && !req.Method.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown payment method %q", req.Method))
		return
	}

	view, err := a.orchestrator.SetPayment(r.Context(), mux.Vars(r)["id"], req.Method, req.AmountTendered)
	if err != nil {
		writeError(w, sessionStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ProcessPaymentHandler handles POST /api/v1/sessions/{id}/pay. Requests
// carrying an Idempotency-Key replay the stored response instead of running
// a second attempt.
func (a *App) ProcessPaymentHandler(w http.ResponseWriter, r *http.Request) {
	key := idempotency.Key(r)
	if key != "" {
		if payload, ok, err := a.idempotency.Get(r.Context(), key); err == nil && ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotency-Replay", "true")
			w.WriteHeader(http.StatusOK)
			w.Write(payload)
			return
		}
	}

	view, err := a.orchestrator.ProcessPayment(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, sessionStatus(err), err.Error())
		return
	}

	if key != "" {
		if payload, err := json.Marshal(view); err == nil {
			// Replay protection is best effort; the attempt itself has
			// already settled one way or the other.
			if err := a.idempotency.Set(r.Context(), key, payload, 24*time.Hour); err != nil {
				log.Printf("[API] Failed to store idempotency record: key=%s err=%v", key, err)
			}
		}
	}
	writeJSON(w, http.StatusOK, view)
}

// DismissErrorHandler handles DELETE /api/v1/sessions/{id}/error
func (a *App) DismissErrorHandler(w http.ResponseWriter, r *http.Request) {
	view, err := a.orchestrator.DismissError(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, sessionStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// AcknowledgeHandler handles DELETE /api/v1/sessions/{id}/transaction
func (a *App) AcknowledgeHandler(w http.ResponseWriter, r *http.Request) {
	view, err := a.orchestrator.AcknowledgeTransaction(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, sessionStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ListTransactionsHandler handles GET /api/v1/transactions
func (a *App) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil {
			offset = parsed
		}
	}

	txns, err := a.ledger.ListTransactions(r.Context(), r.URL.Query().Get("date"), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

// GetTransactionHandler handles GET /api/v1/transactions/{id}
func (a *App) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	txn, err := a.ledger.GetTransaction(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

// DailySummaryHandler handles GET /api/v1/transactions/summary
func (a *App) DailySummaryHandler(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("date")
	if day == "" {
		day = time.Now().UTC().Format("2006-01-02")
	}

	summary, err := a.ledger.DailySummary(r.Context(), day)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ListBannersHandler handles GET /api/v1/banners
func (a *App) ListBannersHandler(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	banners, err := a.banners.ListBanners(r.Context(), activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, banners)
}

// CreateBannerHandler handles POST /api/v1/banners
func (a *App) CreateBannerHandler(w http.ResponseWriter, r *http.Request) {
	var b models.Banner
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := a.banners.CreateBanner(r.Context(), &b); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// UpdateBannerHandler handles PUT /api/v1/banners/{id}
func (a *App) UpdateBannerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid banner ID")
		return
	}

	var b models.Banner
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b.ID = id

	if err := a.banners.UpdateBanner(r.Context(), &b); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// DeleteBannerHandler handles DELETE /api/v1/banners/{id}
func (a *App) DeleteBannerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid banner ID")
		return
	}

	if err := a.banners.DeleteBanner(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ReorderBannersHandler handles PUT /api/v1/banners/reorder
func (a *App) ReorderBannersHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Order []int64 `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := a.banners.Reorder(r.Context(), req.Order); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	banners, err := a.banners.ListBanners(r.Context(), false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, banners)
}

// GetSettingsHandler handles GET /api/v1/settings
func (a *App) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.settings.Get(r.Context()))
}

// UpdateSettingsHandler handles PUT /api/v1/settings
func (a *App) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var s models.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := a.settings.Update(r.Context(), s); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a.settings.Get(r.Context()))
}
