package persistence

import (
	"testing"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestSortSpec_OrderBy(t *testing.T) {
	tests := []struct {
		name      string
		spec      sortSpec
		column    string
		direction string
		want      string
		wantDesc  bool
	}{
		{"allowed column ascending", invoiceSort, "due_date", "asc", "due_date", false},
		{"direction is case insensitive", invoiceSort, "total", " ASC ", "total", false},
		{"unknown direction means descending", invoiceSort, "total", "sideways", "total", true},
		{"column is normalised", salesOrderSort, "  Confirmed_At ", "asc", "confirmed_at", false},
		{"shared columns allowed everywhere", expenseSort, "created_at", "asc", "created_at", false},
		{"empty column uses fallback", stockItemSort, "", "desc", "sku", false},
		{"foreign column uses fallback", expenseSort, "invoice_number", "asc", "incurred_at", true},
		{"injection uses fallback", purchaseOrderSort, "status; DROP TABLE invoices; --", "asc", "created_at", true},
		{"quoted identifier uses fallback", salesOrderSort, `"status"`, "asc", "created_at", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.spec.orderBy(tt.column, tt.direction)
			assert.Equal(t, tt.want, got.Column.Name)
			assert.Equal(t, tt.wantDesc, got.Desc)
		})
	}
}

func TestPaginate_RendersWhitelistedOrder(t *testing.T) {
	db := newSQLiteDatabase(t)

	render := func(filter shared.Filter) string {
		return db.DB.ToSQL(func(tx *gorm.DB) *gorm.DB {
			var rows []models.StockItemModel
			return paginate(tx.Model(&models.StockItemModel{}), filter, stockItemSort).Find(&rows)
		})
	}

	t.Run("requested column and page", func(t *testing.T) {
		sql := render(shared.Filter{Page: 2, PageSize: 10, OrderBy: "current_stock", OrderDir: "desc"})
		assert.Contains(t, sql, "ORDER BY `current_stock` DESC")
		assert.Contains(t, sql, "LIMIT 10 OFFSET 10")
	})

	t.Run("rejected column keeps the table default", func(t *testing.T) {
		sql := render(shared.Filter{OrderBy: "1; DELETE FROM stock_items"})
		assert.Contains(t, sql, "ORDER BY `sku`")
		assert.NotContains(t, sql, "DELETE")
		assert.NotContains(t, sql, "LIMIT")
	})
}
