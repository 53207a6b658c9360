package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillworks/pos-engine/api"
	"github.com/tillworks/pos-engine/pos"
	"github.com/tillworks/pos-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestRouter(t *testing.T) http.Handler {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return api.NewRouter(api.NewHandler(store))
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func do(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func decode(t *testing.T, raw json.RawMessage, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, into))
}

func orderBody(customer string) map[string]any {
	return map[string]any{
		"customer_name":  customer,
		"payment_method": "cash",
		"items": []map[string]any{
			{"product_id": 1, "name": "Latte", "quantity": 2, "price": "3.50", "subtotal": "7.00"},
		},
		"total_amount":  "7.00",
		"tax_amount":    "0.56",
		"grand_total":   "7.56",
		"cash_received": "10.00",
		"change_amount": "2.44",
	}
}

// =============================================================================
// ORDER LIFECYCLE
// =============================================================================

func TestAPI_OrderLifecycle(t *testing.T) {
	router := newTestRouter(t)

	// Create
	rec, env := do(t, router, http.MethodPost, "/api/orders/create", orderBody("Alice"))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)

	var created struct {
		ID        int64  `json:"id"`
		OrderCode string `json:"order_code"`
		Status    string `json:"status"`
		Total     string `json:"total_amount"`
	}
	decode(t, env.Data, &created)
	assert.Equal(t, "ORD-001", created.OrderCode)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "7.00", created.Total)

	// Invalid status is rejected without mutation
	rec, env = do(t, router, http.MethodPut, "/api/orders/update-status/1",
		map[string]string{"status": "served"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)

	// Walk the state machine
	rec, _ = do(t, router, http.MethodPut, "/api/orders/update-status/1",
		map[string]string{"status": "in-progress"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, router, http.MethodPut, "/api/orders/update-status/1",
		map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)

	var change struct {
		OldStatus string `json:"old_status"`
		NewStatus string `json:"new_status"`
	}
	decode(t, env.Data, &change)
	assert.Equal(t, "in-progress", change.OldStatus)
	assert.Equal(t, "completed", change.NewStatus)

	// Completion derived exactly one sale referencing the order
	rec, env = do(t, router, http.MethodGet, "/api/orders/1/sales", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var withSales struct {
		Order struct {
			Status string `json:"status"`
		} `json:"order"`
		Sales []struct {
			SaleCode string `json:"sale_code"`
			OrderID  *int64 `json:"order_id"`
			Total    string `json:"total_amount"`
		} `json:"sales"`
	}
	decode(t, env.Data, &withSales)
	assert.Equal(t, "completed", withSales.Order.Status)
	require.Len(t, withSales.Sales, 1)
	assert.Equal(t, "SAL-00001", withSales.Sales[0].SaleCode)
	require.NotNil(t, withSales.Sales[0].OrderID)
	assert.Equal(t, int64(1), *withSales.Sales[0].OrderID)
	assert.Equal(t, "7.00", withSales.Sales[0].Total)

	// Repeating completion stays a no-op
	rec, _ = do(t, router, http.MethodPut, "/api/orders/update-status/1",
		map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)

	_, env = do(t, router, http.MethodGet, "/api/orders/1/sales", nil)
	decode(t, env.Data, &withSales)
	assert.Len(t, withSales.Sales, 1)

	// Stats reflect the completion
	rec, env = do(t, router, http.MethodGet, "/api/orders/stats/today", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		TotalOrders      int    `json:"total_orders"`
		Completed        int    `json:"completed"`
		CompletedRevenue string `json:"completed_revenue"`
	}
	decode(t, env.Data, &stats)
	assert.Equal(t, 1, stats.TotalOrders)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, "7.00", stats.CompletedRevenue)
}

func TestAPI_CreateOrder_Validation(t *testing.T) {
	router := newTestRouter(t)

	body := orderBody("")
	rec, env := do(t, router, http.MethodPost, "/api/orders/create", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "customer")
}

func TestAPI_UpdateStatus_Errors(t *testing.T) {
	router := newTestRouter(t)

	// Unknown order
	rec, env := do(t, router, http.MethodPut, "/api/orders/update-status/999",
		map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)

	// Malformed id
	rec, _ = do(t, router, http.MethodPut, "/api/orders/update-status/abc",
		map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_ListOrders_FiltersAndOrdering(t *testing.T) {
	router := newTestRouter(t)

	for _, name := range []string{"Alice", "Bob"} {
		rec, _ := do(t, router, http.MethodPost, "/api/orders/create", orderBody(name))
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec, _ := do(t, router, http.MethodPut, "/api/orders/update-status/1",
		map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)

	// Pending sorts before completed
	_, env := do(t, router, http.MethodGet, "/api/orders/list", nil)
	var orders []struct {
		OrderCode string `json:"order_code"`
		Status    string `json:"status"`
	}
	decode(t, env.Data, &orders)
	require.Len(t, orders, 2)
	assert.Equal(t, "ORD-002", orders[0].OrderCode)
	assert.Equal(t, "ORD-001", orders[1].OrderCode)

	// Status filter
	_, env = do(t, router, http.MethodGet, "/api/orders/list?status=completed", nil)
	decode(t, env.Data, &orders)
	require.Len(t, orders, 1)
	assert.Equal(t, "ORD-001", orders[0].OrderCode)

	// Bad status filter
	rec, _ = do(t, router, http.MethodGet, "/api/orders/list?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SALES
// =============================================================================

func TestAPI_RecordAndListSales(t *testing.T) {
	router := newTestRouter(t)

	rec, env := do(t, router, http.MethodPost, "/api/sales", map[string]any{
		"customer_name": "Eve",
		"items": []map[string]any{
			{"product_id": 3, "name": "Espresso", "quantity": 1, "price": "2.75", "subtotal": "2.75"},
		},
		"total_amount":   "2.75",
		"payment_method": "card",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)

	var sale struct {
		SaleCode string `json:"sale_code"`
		OrderID  *int64 `json:"order_id"`
	}
	decode(t, env.Data, &sale)
	assert.Equal(t, "SAL-00001", sale.SaleCode)
	assert.Nil(t, sale.OrderID, "walk-up sale serializes a null order reference")

	rec, env = do(t, router, http.MethodGet, "/api/sales?range=today", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sales []json.RawMessage
	decode(t, env.Data, &sales)
	assert.Len(t, sales, 1)

	// Sales stats
	_, env = do(t, router, http.MethodGet, "/api/sales/stats?period=today", nil)
	var stats struct {
		TotalSales   int    `json:"total_sales"`
		TotalRevenue string `json:"total_revenue"`
		AverageSale  string `json:"average_sale"`
	}
	decode(t, env.Data, &stats)
	assert.Equal(t, 1, stats.TotalSales)
	assert.Equal(t, "2.75", stats.TotalRevenue)
	assert.Equal(t, "2.75", stats.AverageSale)

	// Invalid range
	rec, _ = do(t, router, http.MethodGet, "/api/sales?range=fortnight", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_ExportSales(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := do(t, router, http.MethodPost, "/api/sales", map[string]any{
		"customer_name": "Eve",
		"items": []map[string]any{
			{"product_id": 3, "name": "Espresso", "quantity": 1, "price": "2.75", "subtotal": "2.75"},
		},
		"total_amount": "2.75",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// CSV is the default format
	req := httptest.NewRequest(http.MethodGet, "/api/sales/export", nil)
	csvRec := httptest.NewRecorder()
	router.ServeHTTP(csvRec, req)
	require.Equal(t, http.StatusOK, csvRec.Code)
	assert.Equal(t, "text/csv", csvRec.Header().Get("Content-Type"))
	assert.Contains(t, csvRec.Header().Get("Content-Disposition"), "attachment")
	lines := strings.Split(strings.TrimSpace(csvRec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "sale_code,"))
	assert.Contains(t, lines[1], "SAL-00001")

	// JSON export is raw, not enveloped
	req = httptest.NewRequest(http.MethodGet, "/api/sales/export?format=json", nil)
	jsonRec := httptest.NewRecorder()
	router.ServeHTTP(jsonRec, req)
	require.Equal(t, http.StatusOK, jsonRec.Code)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(jsonRec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "SAL-00001", rows[0]["sale_code"])

	// Unsupported format
	rec, env := do(t, router, http.MethodGet, "/api/sales/export?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

// =============================================================================
// REPORTS
// =============================================================================

func TestAPI_SalesReport_GenerateAndSave(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := do(t, router, http.MethodPost, "/api/sales", map[string]any{
		"customer_name": "Eve",
		"items": []map[string]any{
			{"product_id": 3, "name": "Espresso", "quantity": 2, "price": "2.75", "subtotal": "5.50"},
		},
		"total_amount": "5.50",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := do(t, router, http.MethodGet, "/api/reports/sales?period=daily&save=true&name=EOD", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var data struct {
		Report struct {
			Type    string `json:"report_type"`
			Period  string `json:"period"`
			Summary struct {
				TransactionCount int    `json:"transaction_count"`
				TotalSales       string `json:"total_sales"`
			} `json:"summary"`
			Hourly []json.RawMessage `json:"hourlyBreakdown"`
		} `json:"report"`
		SavedReport *struct {
			ReportName  string `json:"report_name"`
			GeneratedBy string `json:"generated_by"`
		} `json:"saved_report"`
	}
	decode(t, env.Data, &data)
	assert.Equal(t, "sales", data.Report.Type)
	assert.Equal(t, "Today", data.Report.Period)
	assert.Equal(t, 1, data.Report.Summary.TransactionCount)
	assert.Equal(t, "5.50", data.Report.Summary.TotalSales)
	assert.NotEmpty(t, data.Report.Hourly, "daily reports include the hourly breakdown")
	require.NotNil(t, data.SavedReport)
	assert.Equal(t, "EOD", data.SavedReport.ReportName)
	assert.Equal(t, "system", data.SavedReport.GeneratedBy)

	// The snapshot is listed
	_, env = do(t, router, http.MethodGet, "/api/reports/saved", nil)
	var saved []struct {
		ReportName string `json:"report_name"`
	}
	decode(t, env.Data, &saved)
	require.Len(t, saved, 1)
	assert.Equal(t, "EOD", saved[0].ReportName)

	// Invalid period
	rec, _ = do(t, router, http.MethodGet, "/api/reports/sales?period=hourly", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_CustomReport(t *testing.T) {
	router := newTestRouter(t)

	rec, env := do(t, router, http.MethodPost, "/api/reports/custom", map[string]any{
		"start_date":        "2025-03-01",
		"end_date":          "2025-03-31",
		"include_summary":   true,
		"include_breakdown": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Report struct {
			Type      string            `json:"report_type"`
			Period    string            `json:"period"`
			Summary   *json.RawMessage  `json:"summary"`
			Breakdown []json.RawMessage `json:"dailyBreakdown"`
		} `json:"report"`
	}
	decode(t, env.Data, &data)
	assert.Equal(t, "custom", data.Report.Type)
	assert.Equal(t, "2025-03-01 to 2025-03-31", data.Report.Period)
	assert.NotNil(t, data.Report.Summary)
	assert.Empty(t, data.Report.Breakdown)
}

// failingReportStore rejects snapshot writes while keeping reads working.
type failingReportStore struct {
	pos.Store
}

func (failingReportStore) SaveReport(context.Context, *pos.SavedReport) error {
	return errors.New("reports table unavailable")
}

func TestAPI_ReportSaveFailureDegradesToNull(t *testing.T) {
	// GIVEN: A store whose snapshot writes fail
	// WHEN: Requesting a report with save=true
	// THEN: The generated report still comes back; saved_report is null

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	router := api.NewRouter(api.NewHandler(failingReportStore{Store: store}))

	rec, env := do(t, router, http.MethodGet, "/api/reports/sales?period=daily&save=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var data map[string]json.RawMessage
	decode(t, env.Data, &data)
	require.Contains(t, data, "report")
	require.Contains(t, data, "saved_report")
	assert.Equal(t, "null", string(data["saved_report"]))
}
