/*
dto.go - Request/response data structures for the POS API

PURPOSE:
  Defines the JSON shapes exchanged with clients, separate from domain
  types. Monetary fields render as fixed two-decimal strings so clients
  never see float artifacts; request bodies decode straight into
  decimal.Decimal (accepts JSON numbers and strings).

ENVELOPE:
  Every JSON response is wrapped as {success, data, message}. Errors carry
  success=false and a message; data is omitted.

SEE ALSO:
  - handlers.go: Handler implementations using these DTOs
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tillworks/pos-engine/pos"
)

// =============================================================================
// ENVELOPE
// =============================================================================

// Envelope is the uniform response wrapper.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// =============================================================================
// REQUESTS
// =============================================================================

// CreateOrderRequest is the body of POST /api/orders/create.
type CreateOrderRequest struct {
	CustomerName  string          `json:"customer_name"`
	StaffName     string          `json:"staff_name"`
	PaymentMethod string          `json:"payment_method"`
	Items         []pos.LineItem  `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	CashReceived  decimal.Decimal `json:"cash_received"`
	ChangeAmount  decimal.Decimal `json:"change_amount"`
	Notes         string          `json:"notes"`
}

// UpdateStatusRequest is the body of PUT /api/orders/update-status/{id}.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// RecordSaleRequest is the body of POST /api/sales.
type RecordSaleRequest struct {
	CustomerName  string          `json:"customer_name"`
	Items         []pos.LineItem  `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
}

// CustomReportRequest is the body of POST /api/reports/custom. The include
// flags default to true when omitted.
type CustomReportRequest struct {
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	IncludeSummary   *bool  `json:"include_summary"`
	IncludeBreakdown *bool  `json:"include_breakdown"`
	Save             bool   `json:"save"`
	ReportName       string `json:"report_name"`
}

// =============================================================================
// RESPONSES
// =============================================================================

// OrderDTO is the client-facing order shape.
type OrderDTO struct {
	ID            int64          `json:"id"`
	OrderCode     string         `json:"order_code"`
	CustomerName  string         `json:"customer_name"`
	StaffName     string         `json:"staff_name,omitempty"`
	PaymentMethod string         `json:"payment_method"`
	Items         []pos.LineItem `json:"items"`
	ItemsCount    int            `json:"items_count"`
	TotalAmount   string         `json:"total_amount"`
	TaxAmount     string         `json:"tax_amount"`
	GrandTotal    string         `json:"grand_total"`
	CashReceived  string         `json:"cash_received"`
	ChangeAmount  string         `json:"change_amount"`
	Notes         string         `json:"notes,omitempty"`
	Status        string         `json:"status"`
	CreatedAt     string         `json:"created_at"`
}

func toOrderDTO(o *pos.Order) OrderDTO {
	return OrderDTO{
		ID:            o.ID,
		OrderCode:     o.Code,
		CustomerName:  o.CustomerName,
		StaffName:     o.StaffName,
		PaymentMethod: o.PaymentMethod,
		Items:         o.Items,
		ItemsCount:    o.ItemsCount,
		TotalAmount:   o.TotalAmount.StringFixed(2),
		TaxAmount:     o.TaxAmount.StringFixed(2),
		GrandTotal:    o.GrandTotal.StringFixed(2),
		CashReceived:  o.CashReceived.StringFixed(2),
		ChangeAmount:  o.ChangeAmount.StringFixed(2),
		Notes:         o.Notes,
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt.Format(time.RFC3339),
	}
}

func toOrderDTOs(orders []pos.Order) []OrderDTO {
	dtos := make([]OrderDTO, len(orders))
	for i := range orders {
		dtos[i] = toOrderDTO(&orders[i])
	}
	return dtos
}

// SaleDTO is the client-facing sale shape. OrderID is null for walk-up
// sales recorded without an originating order.
type SaleDTO struct {
	ID            int64          `json:"id"`
	SaleCode      string         `json:"sale_code"`
	OrderID       *int64         `json:"order_id"`
	CustomerName  string         `json:"customer_name"`
	StaffName     string         `json:"staff_name,omitempty"`
	PaymentMethod string         `json:"payment_method"`
	Items         []pos.LineItem `json:"items"`
	ItemsCount    int            `json:"items_count"`
	TotalAmount   string         `json:"total_amount"`
	TaxAmount     string         `json:"tax_amount"`
	GrandTotal    string         `json:"grand_total"`
	CashReceived  string         `json:"cash_received"`
	ChangeAmount  string         `json:"change_amount"`
	SaleDate      string         `json:"sale_date"`
	SaleTime      string         `json:"sale_time"`
}

func toSaleDTO(s *pos.Sale) SaleDTO {
	return SaleDTO{
		ID:            s.ID,
		SaleCode:      s.Code,
		OrderID:       s.OrderID,
		CustomerName:  s.CustomerName,
		StaffName:     s.StaffName,
		PaymentMethod: s.PaymentMethod,
		Items:         s.Items,
		ItemsCount:    s.ItemsCount,
		TotalAmount:   s.TotalAmount.StringFixed(2),
		TaxAmount:     s.TaxAmount.StringFixed(2),
		GrandTotal:    s.GrandTotal.StringFixed(2),
		CashReceived:  s.CashReceived.StringFixed(2),
		ChangeAmount:  s.ChangeAmount.StringFixed(2),
		SaleDate:      s.SaleDate,
		SaleTime:      s.SaleTime,
	}
}

func toSaleDTOs(sales []pos.Sale) []SaleDTO {
	dtos := make([]SaleDTO, len(sales))
	for i := range sales {
		dtos[i] = toSaleDTO(&sales[i])
	}
	return dtos
}

// OrderStatsDTO aggregates order counts for a period.
type OrderStatsDTO struct {
	Period           string `json:"period"`
	TotalOrders      int    `json:"total_orders"`
	Pending          int    `json:"pending"`
	InProgress       int    `json:"in_progress"`
	Completed        int    `json:"completed"`
	Cancelled        int    `json:"cancelled"`
	CompletedRevenue string `json:"completed_revenue"`
}

func toOrderStatsDTO(s *pos.OrderStats) OrderStatsDTO {
	return OrderStatsDTO{
		Period:           string(s.Period),
		TotalOrders:      s.TotalOrders,
		Pending:          s.Pending,
		InProgress:       s.InProgress,
		Completed:        s.Completed,
		Cancelled:        s.Cancelled,
		CompletedRevenue: s.CompletedRevenue.StringFixed(2),
	}
}

// SalesStatsDTO aggregates the sales ledger for a period.
type SalesStatsDTO struct {
	Period       string `json:"period"`
	TotalSales   int    `json:"total_sales"`
	TotalRevenue string `json:"total_revenue"`
	AverageSale  string `json:"average_sale"`
	TotalItems   int    `json:"total_items_sold"`
	PeriodStart  string `json:"period_start,omitempty"`
	PeriodEnd    string `json:"period_end,omitempty"`
}

func toSalesStatsDTO(s *pos.SalesStats) SalesStatsDTO {
	return SalesStatsDTO{
		Period:       string(s.Period),
		TotalSales:   s.TotalSales,
		TotalRevenue: s.TotalRevenue.StringFixed(2),
		AverageSale:  s.AverageSale.StringFixed(2),
		TotalItems:   s.TotalItems,
		PeriodStart:  s.PeriodStart,
		PeriodEnd:    s.PeriodEnd,
	}
}

// =============================================================================
// REPORT RESPONSES
// =============================================================================

// ReportSummaryDTO is the headline aggregation block of a report.
type ReportSummaryDTO struct {
	TransactionCount   int    `json:"transaction_count"`
	TotalSales         string `json:"total_sales"`
	AverageTransaction string `json:"average_transaction"`
	TotalItems         int    `json:"total_items"`
}

// DailyBucketDTO is one per-date breakdown row.
type DailyBucketDTO struct {
	Date         string `json:"date"`
	Transactions int    `json:"transactions"`
	ItemsSold    int    `json:"items_sold"`
	TotalSales   string `json:"total_sales"`
}

// HourlyBucketDTO is one per-hour breakdown row (daily reports only).
type HourlyBucketDTO struct {
	Hour         int    `json:"hour"`
	Transactions int    `json:"transactions"`
	Revenue      string `json:"revenue"`
}

// ProductRankDTO is one top-products row.
type ProductRankDTO struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"product_name,omitempty"`
	Quantity  int    `json:"total_quantity"`
	Revenue   string `json:"total_revenue"`
}

// ReportDTO is the client-facing report shape.
type ReportDTO struct {
	Type            string            `json:"report_type"`
	Period          string            `json:"period"`
	Summary         *ReportSummaryDTO `json:"summary,omitempty"`
	DailyBreakdown  []DailyBucketDTO  `json:"dailyBreakdown"`
	HourlyBreakdown []HourlyBucketDTO `json:"hourlyBreakdown,omitempty"`
	TopProducts     []ProductRankDTO  `json:"topProducts"`
	RawData         []SaleDTO         `json:"rawData"`
	GeneratedAt     string            `json:"generatedAt"`
}

func toReportDTO(r *pos.Report) ReportDTO {
	dto := ReportDTO{
		Type:           r.Type,
		Period:         r.Period,
		DailyBreakdown: make([]DailyBucketDTO, len(r.DailyBreakdown)),
		TopProducts:    make([]ProductRankDTO, len(r.TopProducts)),
		RawData:        toSaleDTOs(r.RawData),
		GeneratedAt:    r.GeneratedAt.Format(time.RFC3339),
	}
	if r.Summary != nil {
		dto.Summary = &ReportSummaryDTO{
			TransactionCount:   r.Summary.TransactionCount,
			TotalSales:         r.Summary.TotalSales.StringFixed(2),
			AverageTransaction: r.Summary.AverageTransaction.StringFixed(2),
			TotalItems:         r.Summary.TotalItems,
		}
	}
	for i, b := range r.DailyBreakdown {
		dto.DailyBreakdown[i] = DailyBucketDTO{
			Date:         b.Date,
			Transactions: b.Transactions,
			ItemsSold:    b.ItemsSold,
			TotalSales:   b.TotalSales.StringFixed(2),
		}
	}
	if r.HourlyBreakdown != nil {
		dto.HourlyBreakdown = make([]HourlyBucketDTO, len(r.HourlyBreakdown))
		for i, b := range r.HourlyBreakdown {
			dto.HourlyBreakdown[i] = HourlyBucketDTO{
				Hour:         b.Hour,
				Transactions: b.Transactions,
				Revenue:      b.Revenue.StringFixed(2),
			}
		}
	}
	for i, p := range r.TopProducts {
		dto.TopProducts[i] = ProductRankDTO{
			ProductID: p.ProductID,
			Name:      p.Name,
			Quantity:  p.Quantity,
			Revenue:   p.Revenue.StringFixed(2),
		}
	}
	return dto
}

// SavedReportDTO is a persisted report snapshot row, without the serialized
// dataset payload.
type SavedReportDTO struct {
	ID          int64  `json:"id"`
	ReportCode  string `json:"report_code"`
	ReportType  string `json:"report_type"`
	ReportName  string `json:"report_name"`
	TotalSales  string `json:"total_sales"`
	TotalItems  int    `json:"total_items"`
	GeneratedBy string `json:"generated_by"`
	GeneratedAt string `json:"generated_at"`
}

func toSavedReportDTO(r *pos.SavedReport) SavedReportDTO {
	return SavedReportDTO{
		ID:          r.ID,
		ReportCode:  r.Code,
		ReportType:  r.Type,
		ReportName:  r.Name,
		TotalSales:  r.TotalSales.StringFixed(2),
		TotalItems:  r.TotalItems,
		GeneratedBy: r.GeneratedBy,
		GeneratedAt: r.GeneratedAt.Format(time.RFC3339),
	}
}
