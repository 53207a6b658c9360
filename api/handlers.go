/*
handlers.go - HTTP API handlers for the POS backend

PURPOSE:
  Exposes the order ledger, sale ledger and report engine via REST.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Orders:
    POST   /api/orders/create              Create order
    GET    /api/orders/list                List orders (filterable)
    PUT    /api/orders/update-status/{id}  Status transition
    GET    /api/orders/stats               Order stats for a period
    GET    /api/orders/stats/today         Today's order stats
    GET    /api/orders/{id}/sales          Order with its derived sales

  Sales:
    GET    /api/sales                      List sales (filterable)
    POST   /api/sales                      Record walk-up sale
    GET    /api/sales/export               Export sales (csv|json)
    GET    /api/sales/stats                Sales stats for a period

  Reports:
    GET    /api/reports/sales              Generate period report
    POST   /api/reports/custom             Generate custom-range report
    GET    /api/reports/saved              List saved report snapshots

ERROR HANDLING:
  Errors are returned as {success:false, message} with:
  - 400: Validation errors, invalid status, malformed body or id
  - 404: Order not found
  - 500: Store failures

  Report generation is the exception: it degrades to a well-formed empty
  report rather than erroring, and a snapshot persistence failure is
  reported as saved_report:null alongside the generated report.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tillworks/pos-engine/pos"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Orders  *pos.OrderLedger
	Sales   *pos.SaleLedger
	Reports *pos.ReportEngine
}

// NewHandler wires the domain components onto the given store.
func NewHandler(store pos.Store) *Handler {
	return &Handler{
		Orders:  pos.NewOrderLedger(store),
		Sales:   pos.NewSaleLedger(store),
		Reports: pos.NewReportEngine(store),
	}
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

// CreateOrder creates a new order in pending state.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.Orders.Create(r.Context(), pos.CreateOrderInput{
		CustomerName:  req.CustomerName,
		StaffName:     req.StaffName,
		PaymentMethod: req.PaymentMethod,
		Items:         req.Items,
		TotalAmount:   req.TotalAmount,
		TaxAmount:     req.TaxAmount,
		GrandTotal:    req.GrandTotal,
		CashReceived:  req.CashReceived,
		ChangeAmount:  req.ChangeAmount,
		Notes:         req.Notes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusCreated, toOrderDTO(order), "Order created successfully")
}

// ListOrders returns orders matching the query filters, ordered by status
// priority then recency.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := pos.OrderFilter{
		Status:    pos.OrderStatus(q.Get("status")),
		Search:    q.Get("search"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Limit:     intParam(q.Get("limit")),
	}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid status filter %q", f.Status))
		return
	}

	orders, err := h.Orders.List(r.Context(), f)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, toOrderDTOs(orders), "")
}

// UpdateOrderStatus transitions an order. The first transition into
// completed atomically derives a sale.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	change, err := h.Orders.SetStatus(r.Context(), id, pos.OrderStatus(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, change,
		fmt.Sprintf("Order %s updated to %s", change.OrderCode, change.NewStatus))
}

// OrderStats returns order counts and completed revenue for a period
// (today|week|month|all, default today).
func (h *Handler) OrderStats(w http.ResponseWriter, r *http.Request) {
	period, ok := statsPeriod(w, r)
	if !ok {
		return
	}

	stats, err := h.Orders.Stats(r.Context(), period)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, toOrderStatsDTO(stats), "")
}

// TodayOrderStats is OrderStats pinned to today.
func (h *Handler) TodayOrderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Orders.TodayStats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, toOrderStatsDTO(stats), "")
}

// OrderSales returns an order together with the sales derived from it.
func (h *Handler) OrderSales(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	order, sales, err := h.Orders.Sales(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"order": toOrderDTO(order),
		"sales": toSaleDTOs(sales),
	}, "")
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// ListSales returns sales matching the query filters, most recent first.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	f, ok := saleFilter(w, r)
	if !ok {
		return
	}

	sales, err := h.Sales.List(r.Context(), f)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, toSaleDTOs(sales), "")
}

// RecordSale records a walk-up sale with no originating order.
func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var req RecordSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sale, err := h.Sales.Record(r.Context(), pos.RecordSaleInput{
		CustomerName:  req.CustomerName,
		Items:         req.Items,
		TotalAmount:   req.TotalAmount,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusCreated, toSaleDTO(sale), "Sale recorded successfully")
}

// ExportSales streams the filtered sale set as csv (default) or json.
// Export bodies are raw, not enveloped.
func (h *Handler) ExportSales(w http.ResponseWriter, r *http.Request) {
	f, ok := saleFilter(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	var (
		body        []byte
		contentType string
		err         error
	)
	switch format {
	case "csv":
		body, err = h.Sales.ExportCSV(r.Context(), f)
		contentType = "text/csv"
	case "json":
		body, err = h.Sales.ExportJSON(r.Context(), f)
		contentType = "application/json"
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported export format %q", format))
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=sales_export.%s", format))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// SalesStats returns sales aggregates for a period.
func (h *Handler) SalesStats(w http.ResponseWriter, r *http.Request) {
	period, ok := statsPeriod(w, r)
	if !ok {
		return
	}

	stats, err := h.Sales.Stats(r.Context(), period)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, toSalesStatsDTO(stats), "")
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// SalesReport generates a report for ?period=daily|weekly|monthly|all
// (default daily). ?date=YYYY-MM-DD pins a daily report to that date.
// ?save=true persists a snapshot; a persistence failure degrades to
// saved_report:null without affecting the generated report.
func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period := pos.Period(q.Get("period"))
	if period == "" {
		period = pos.PeriodDaily
	}
	switch period {
	case pos.PeriodDaily, pos.PeriodWeekly, pos.PeriodMonthly, pos.PeriodAll:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid report period %q", period))
		return
	}

	report := h.Reports.GenerateSalesReport(r.Context(), period, q.Get("date"))

	data := map[string]any{"report": toReportDTO(report)}
	if q.Get("save") == "true" {
		data["saved_report"] = h.saveSnapshot(r, report, q.Get("name"))
	}
	writeData(w, http.StatusOK, data, "")
}

// CustomReport generates a report over an explicit date range with
// optional summary/breakdown sections.
func (h *Handler) CustomReport(w http.ResponseWriter, r *http.Request) {
	var req CustomReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	includeSummary := req.IncludeSummary == nil || *req.IncludeSummary
	includeBreakdown := req.IncludeBreakdown == nil || *req.IncludeBreakdown

	report := h.Reports.GenerateCustomReport(r.Context(),
		pos.DateRange{Start: req.StartDate, End: req.EndDate},
		includeSummary, includeBreakdown)

	data := map[string]any{"report": toReportDTO(report)}
	if req.Save {
		data["saved_report"] = h.saveSnapshot(r, report, req.ReportName)
	}
	writeData(w, http.StatusOK, data, "")
}

// saveSnapshot persists the report and returns its DTO, or nil when the
// snapshot could not be stored.
func (h *Handler) saveSnapshot(r *http.Request, report *pos.Report, name string) any {
	saved, err := h.Reports.Save(r.Context(), report, name)
	if err != nil {
		return nil
	}
	dto := toSavedReportDTO(saved)
	return &dto
}

// SavedReports lists persisted report snapshots, most recent first.
func (h *Handler) SavedReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reports, err := h.Reports.ListSaved(r.Context(), pos.ReportFilter{
		Type:      q.Get("type"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Limit:     intParam(q.Get("limit")),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]SavedReportDTO, len(reports))
	for i := range reports {
		dtos[i] = toSavedReportDTO(&reports[i])
	}
	writeData(w, http.StatusOK, dtos, "")
}

// =============================================================================
// HELPERS
// =============================================================================

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid order id")
		return 0, false
	}
	return id, true
}

// statsPeriod parses ?period= for the stats endpoints (default today).
func statsPeriod(w http.ResponseWriter, r *http.Request) (pos.Period, bool) {
	period := pos.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = pos.PeriodToday
	}
	switch period {
	case pos.PeriodToday, pos.PeriodWeek, pos.PeriodMonth, pos.PeriodAll:
		return period, true
	}
	writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid period %q", period))
	return "", false
}

// saleFilter parses the shared sale listing/export query parameters.
func saleFilter(w http.ResponseWriter, r *http.Request) (pos.SaleFilter, bool) {
	q := r.URL.Query()
	f := pos.SaleFilter{
		Range:     pos.Period(q.Get("range")),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Limit:     intParam(q.Get("limit")),
	}
	switch f.Range {
	case "", pos.PeriodToday, pos.PeriodWeek, pos.PeriodMonth, pos.PeriodAll:
		return f, true
	}
	writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid range %q", f.Range))
	return pos.SaleFilter{}, false
}

func intParam(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, Envelope{Success: true, Data: data, Message: message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: false, Message: message})
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case pos.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case pos.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
