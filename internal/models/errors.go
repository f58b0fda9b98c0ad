package models

import "fmt"

// ErrorKind classifies a failed checkout attempt
type ErrorKind string

const (
	ErrorKindInventoryMismatch ErrorKind = "inventory_mismatch"
	ErrorKindPaymentFailure    ErrorKind = "payment_failure"
	ErrorKindUnexpected        ErrorKind = "unexpected_error"
)

// IssueType narrows an error kind to a specific condition
type IssueType string

const (
	IssueVariantNotFound    IssueType = "variant_not_found"
	IssueInsufficientStock  IssueType = "insufficient_stock"
	IssueOutOfStock         IssueType = "out_of_stock"
	IssueInsufficientAmount IssueType = "insufficient_amount"
	IssueCardDeclined       IssueType = "card_declined"
	IssueTimeout            IssueType = "timeout"
)

// Issue is one structured problem found during a checkout attempt
type Issue struct {
	Type      IssueType `json:"type"`
	ProductID int64     `json:"product_id,omitempty"`
	VariantID *int64    `json:"variant_id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Requested int       `json:"requested,omitempty"`
	Available int       `json:"available,omitempty"`
}

// TransactionError is the typed failure outcome of a checkout attempt.
// It is never returned alongside a Transaction; the two outcomes are
// mutually exclusive. Expected failures are returned as values, not thrown.
type TransactionError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Issues  []Issue   `json:"issues,omitempty"`
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewUnexpectedError normalizes an arbitrary error into the taxonomy
func NewUnexpectedError(err error) *TransactionError {
	msg := "an unexpected error occurred while processing the transaction"
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &TransactionError{Kind: ErrorKindUnexpected, Message: msg}
}
