package checkout

import "github.com/courtside/pos-go-app/internal/models"

// ComputeTotals derives cart totals from the lines, the selected customer and
// the tax rate. Pure; callers recompute on every change and never cache the
// result across cart or customer mutations.
//
//	subtotal = sum(line price * quantity)
//	discount = subtotal * memberDiscount (0 without a member)
//	tax      = (subtotal - discount) * taxRate
//	total    = subtotal - discount + tax
func ComputeTotals(lines []models.CartLine, customer *models.Customer, taxRate float64) models.CartTotals {
	var subtotal float64
	for _, line := range lines {
		subtotal += line.UnitPrice * float64(line.Quantity)
	}

	var discount float64
	if customer != nil && customer.IsMember && customer.MemberDiscount > 0 {
		discount = subtotal * customer.MemberDiscount
	}

	tax := (subtotal - discount) * taxRate

	return models.CartTotals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Total:    subtotal - discount + tax,
	}
}
