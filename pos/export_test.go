package pos_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillworks/pos-engine/pos"
)

func seedExportData(t *testing.T, store pos.Store) {
	t.Helper()
	ctx := context.Background()

	orderID := int64(42)
	require.NoError(t, store.InsertSale(ctx, &pos.Sale{
		Code:          "SAL-00001",
		OrderID:       &orderID,
		CustomerName:  "Smith, John", // embedded delimiter forces quoting
		PaymentMethod: "cash",
		Items:         []pos.LineItem{latte(2)},
		ItemsCount:    2,
		TotalAmount:   dec("7.00"),
		TaxAmount:     dec("0.56"),
		GrandTotal:    dec("7.56"),
		SaleDate:      "2025-03-10",
		SaleTime:      "09:15:00",
	}))
	require.NoError(t, store.InsertSale(ctx, &pos.Sale{
		Code:          "SAL-00002",
		CustomerName:  "Eve",
		PaymentMethod: "card",
		Items:         []pos.LineItem{muffin(1)},
		ItemsCount:    1,
		TotalAmount:   dec("2.00"),
		GrandTotal:    dec("2.00"),
		SaleDate:      "2025-03-11",
		SaleTime:      "10:00:00",
	}))
}

func TestExportCSV_HeaderRowsAndQuoting(t *testing.T) {
	store := newTestStore(t)
	seedExportData(t, store)
	ledger := pos.NewSaleLedger(store)

	out, err := ledger.ExportCSV(context.Background(), pos.SaleFilter{})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus one row per sale")

	assert.Equal(t, []string{
		"sale_code", "order_id", "customer_name", "payment_method",
		"items_count", "total_amount", "tax_amount", "grand_total",
		"sale_date", "sale_time",
	}, records[0])

	// Most recent first, same as listing
	assert.Equal(t, "SAL-00002", records[1][0])
	assert.Equal(t, "", records[1][1], "walk-up sale exports an empty order reference")

	row := records[2]
	assert.Equal(t, "SAL-00001", row[0])
	assert.Equal(t, "42", row[1])
	assert.Equal(t, "Smith, John", row[2], "comma survives the round trip")
	assert.Equal(t, "2", row[4])
	assert.Equal(t, "7.00", row[5])
	assert.Equal(t, "0.56", row[6])
	assert.Equal(t, "7.56", row[7])
	assert.Equal(t, "2025-03-10", row[8])
	assert.Equal(t, "09:15:00", row[9])

	// Raw text check: the delimiter-bearing field is quoted
	assert.Contains(t, string(out), `"Smith, John"`)
}

func TestExportJSON_SameRecordsAsCSV(t *testing.T) {
	// Both formats serialize the same filtered sale set with the same
	// deterministic field rendering.

	store := newTestStore(t)
	seedExportData(t, store)
	ledger := pos.NewSaleLedger(store)
	ctx := context.Background()

	out, err := ledger.ExportJSON(ctx, pos.SaleFilter{})
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(out, &rows))
	require.Len(t, rows, 2)

	assert.Equal(t, "SAL-00002", rows[0]["sale_code"])
	assert.Equal(t, "", rows[0]["order_id"])
	assert.Equal(t, "SAL-00001", rows[1]["sale_code"])
	assert.Equal(t, "42", rows[1]["order_id"])
	assert.Equal(t, "Smith, John", rows[1]["customer_name"])
	assert.Equal(t, "7.00", rows[1]["total_amount"])
	assert.Equal(t, "2025-03-10", rows[1]["sale_date"])
}

func TestExport_RespectsFilter(t *testing.T) {
	store := newTestStore(t)
	seedExportData(t, store)
	ledger := pos.NewSaleLedger(store)
	ctx := context.Background()

	out, err := ledger.ExportCSV(ctx, pos.SaleFilter{StartDate: "2025-03-11"})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "SAL-00002", records[1][0])
}
