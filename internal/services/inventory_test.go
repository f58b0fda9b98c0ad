package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// caseExpr pulls the stock_state CASE expression out of an UPDATE statement.
func caseExpr(t *testing.T, stmt string) string {
	t.Helper()
	start := strings.Index(stmt, "CASE")
	require.GreaterOrEqual(t, start, 0, "statement has no CASE expression")
	end := strings.Index(stmt[start:], "END")
	require.GreaterOrEqual(t, end, 0, "CASE expression has no END")
	return stmt[start : start+end]
}

// The SET clause has already adjusted stock when the CASE runs, so the
// state must be derived from the bare column. A CASE that re-applies the
// quantity classifies against a doubly adjusted value: with threshold 5,
// decrementing stock 6 by 3 would land on in-stock rows marked
// out_of_stock.
func TestStockStateDerivedFromUpdatedColumn(t *testing.T) {
	stmts := map[string]string{
		"decrement variant": decrementVariantStockQuery,
		"decrement product": decrementProductStockQuery,
		"restock variant":   restockVariantStockQuery,
		"restock product":   restockProductStockQuery,
	}

	for name, stmt := range stmts {
		t.Run(name, func(t *testing.T) {
			expr := caseExpr(t, stmt)
			assert.NotContains(t, expr, "stock -")
			assert.NotContains(t, expr, "stock +")
			assert.Contains(t, expr, "WHEN stock <= 0 THEN 'out_of_stock'")
			assert.Contains(t, expr, "WHEN stock <= ? THEN 'low_stock'")
			assert.Contains(t, expr, "ELSE 'in_stock'")
		})
	}
}

// Placeholder counts must line up with the args handed to ExecContext:
// quantity, threshold, then the WHERE identifiers (and the stock guard on
// decrements).
func TestStockStatementPlaceholderCounts(t *testing.T) {
	assert.Equal(t, 5, strings.Count(decrementVariantStockQuery, "?"))
	assert.Equal(t, 4, strings.Count(decrementProductStockQuery, "?"))
	assert.Equal(t, 4, strings.Count(restockVariantStockQuery, "?"))
	assert.Equal(t, 3, strings.Count(restockProductStockQuery, "?"))
}
