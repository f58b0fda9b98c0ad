package checkout

import "errors"

// Cart-level operation errors. These gate UI actions before the transaction
// service ever runs; they are not TransactionErrors.
var (
	ErrSessionNotFound      = errors.New("checkout session not found")
	ErrVariantRequired      = errors.New("product has variants: a variant must be selected")
	ErrVariantInvalid       = errors.New("variant does not belong to product")
	ErrOutOfStock           = errors.New("item is out of stock")
	ErrLineNotFound         = errors.New("cart line not found")
	ErrProcessing           = errors.New("a payment attempt is already in progress")
	ErrCartEmpty            = errors.New("cart is empty")
	ErrNoPaymentMethod      = errors.New("no payment method selected")
	ErrInsufficientTendered = errors.New("amount tendered is less than the total")
)
