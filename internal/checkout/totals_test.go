package checkout

import (
	"testing"

	"github.com/courtside/pos-go-app/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestComputeTotalsEmptyCart(t *testing.T) {
	totals := ComputeTotals(nil, nil, 0.10)
	assert.Equal(t, models.CartTotals{}, totals)
}

func TestComputeTotalsNoCustomer(t *testing.T) {
	lines := []models.CartLine{
		{Key: "1", ProductID: 1, ProductName: "Racket Rental", UnitPrice: 8.00, Quantity: 2},
		{Key: "3", ProductID: 3, ProductName: "Tennis Balls", UnitPrice: 6.50, Quantity: 1},
	}

	totals := ComputeTotals(lines, nil, 0.10)

	assert.InDelta(t, 22.50, totals.Subtotal, 1e-9)
	assert.Zero(t, totals.Discount)
	assert.InDelta(t, 2.25, totals.Tax, 1e-9)
	assert.InDelta(t, 24.75, totals.Total, 1e-9)
}

func TestComputeTotalsMemberDiscount(t *testing.T) {
	// 100 subtotal, 10% member discount, 10% tax on the discounted amount
	lines := []models.CartLine{
		{Key: "1:2", ProductID: 1, UnitPrice: 50.00, Quantity: 2},
	}
	member := &models.Customer{ID: 1, IsMember: true, MemberDiscount: 0.10}

	totals := ComputeTotals(lines, member, 0.10)

	assert.InDelta(t, 100.00, totals.Subtotal, 1e-9)
	assert.InDelta(t, 10.00, totals.Discount, 1e-9)
	assert.InDelta(t, 9.00, totals.Tax, 1e-9)
	assert.InDelta(t, 99.00, totals.Total, 1e-9)
}

func TestComputeTotalsNonMemberGetsNoDiscount(t *testing.T) {
	lines := []models.CartLine{{Key: "1", UnitPrice: 100.00, Quantity: 1}}

	// A discount rate on a non-member account must not apply
	nonMember := &models.Customer{ID: 2, IsMember: false, MemberDiscount: 0.15}
	totals := ComputeTotals(lines, nonMember, 0.10)

	assert.Zero(t, totals.Discount)
	assert.InDelta(t, 110.00, totals.Total, 1e-9)
}

func TestComputeTotalsZeroTaxRate(t *testing.T) {
	lines := []models.CartLine{{Key: "1", UnitPrice: 40.00, Quantity: 1}}
	totals := ComputeTotals(lines, nil, 0)

	assert.Zero(t, totals.Tax)
	assert.InDelta(t, 40.00, totals.Total, 1e-9)
}
