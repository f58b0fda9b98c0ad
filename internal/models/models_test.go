package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStockState(t *testing.T) {
	cases := []struct {
		name      string
		stock     int
		threshold int
		want      StockState
	}{
		{"zero", 0, 5, StockStateOutOfStock},
		{"negative", -1, 5, StockStateOutOfStock},
		{"at threshold", 5, 5, StockStateLowStock},
		{"below threshold", 1, 5, StockStateLowStock},
		{"above threshold", 6, 5, StockStateInStock},
		{"zero threshold", 3, 0, StockStateInStock},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStockState(tc.stock, tc.threshold))
		})
	}
}

func TestLineKey(t *testing.T) {
	assert.Equal(t, "7", LineKey(7, nil))

	vid := int64(3)
	assert.Equal(t, "7:3", LineKey(7, &vid))
}

func TestPaymentMethodValid(t *testing.T) {
	assert.True(t, PaymentCash.Valid())
	assert.True(t, PaymentCard.Valid())
	assert.False(t, PaymentMethod("").Valid())
	assert.False(t, PaymentMethod("crypto").Valid())
}

func TestVariantByID(t *testing.T) {
	p := Product{
		ID: 1, HasVariants: true,
		Variants: []Variant{
			{ID: 1, Name: "Standard Court"},
			{ID: 2, Name: "Premium Court"},
		},
	}

	v := p.VariantByID(2)
	assert.NotNil(t, v)
	assert.Equal(t, "Premium Court", v.Name)
	assert.Nil(t, p.VariantByID(99))
}

func TestTransactionErrorMessage(t *testing.T) {
	err := &TransactionError{Kind: ErrorKindPaymentFailure, Message: "card was declined"}
	assert.Equal(t, "payment_failure: card was declined", err.Error())
}

func TestNewUnexpectedError(t *testing.T) {
	err := NewUnexpectedError(nil)
	assert.Equal(t, ErrorKindUnexpected, err.Kind)
	assert.Equal(t, "an unexpected error occurred while processing the transaction", err.Message)

	wrapped := NewUnexpectedError(assert.AnError)
	assert.Contains(t, wrapped.Message, assert.AnError.Error())
}
