package persistence

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortSpec lists the columns a list endpoint may order by, plus the
// ordering used when the caller asks for anything else.
type sortSpec struct {
	columns  []string
	fallback clause.OrderByColumn
}

func newSortSpec(fallback string, desc bool, columns ...string) sortSpec {
	return sortSpec{
		columns:  append([]string{"id", "created_at"}, columns...),
		fallback: clause.OrderByColumn{Column: clause.Column{Name: fallback}, Desc: desc},
	}
}

func (s sortSpec) allows(column string) bool {
	for _, c := range s.columns {
		if c == column {
			return true
		}
	}
	return false
}

// orderBy resolves a requested column and direction. Unknown columns fall
// back to the table default; the direction is descending unless "asc".
func (s sortSpec) orderBy(column, direction string) clause.OrderByColumn {
	column = strings.ToLower(strings.TrimSpace(column))
	if !s.allows(column) {
		return s.fallback
	}
	return clause.OrderByColumn{
		Column: clause.Column{Name: column},
		Desc:   !strings.EqualFold(strings.TrimSpace(direction), "asc"),
	}
}

func (s sortSpec) apply(query *gorm.DB, column, direction string) *gorm.DB {
	return query.Order(s.orderBy(column, direction))
}

var (
	invoiceSort = newSortSpec("created_at", true,
		"updated_at", "invoice_number", "status", "total", "due_date", "paid_at")
	expenseSort = newSortSpec("incurred_at", true,
		"category", "amount", "incurred_at")
	stockItemSort = newSortSpec("sku", false,
		"updated_at", "sku", "name", "current_stock", "min_stock_level", "unit_cost")
	purchaseOrderSort = newSortSpec("created_at", true,
		"updated_at", "order_number", "supplier_id", "status", "total_amount", "ordered_at", "received_at")
	salesOrderSort = newSortSpec("created_at", true,
		"updated_at", "order_number", "customer_id", "status", "total_amount", "confirmed_at", "shipped_at", "delivered_at")
)
