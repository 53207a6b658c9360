/*
Package pos provides the order-fulfillment and sales-reporting core of the
point-of-sale backend.

KEY CONCEPTS IN THIS FILE (types.go):
  - Order: a customer request tracked through a fulfillment lifecycle
  - Sale: an immutable, permanent record of a completed transaction
  - LineItem: a structured ordered line with product, quantity and price
  - OrderStatus: the closed lifecycle enumeration

DESIGN PRINCIPLES:
  1. Immutability: sales and saved reports are append-only, never updated
  2. Precision: decimal.Decimal for all monetary fields, no floats
  3. Explicit storage: components receive an injected Store, no globals

SEE ALSO:
  - orders.go: OrderLedger and the completion transaction
  - sales.go: SaleLedger
  - report.go: ReportEngine and saved report snapshots
*/
package pos

import (
	"time"

	"github.com/shopspring/decimal"
)

// Canonical layouts for persisted dates and times.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// =============================================================================
// ORDER STATUS - Closed lifecycle enumeration
// =============================================================================

// OrderStatus is the order lifecycle state. The set is closed: any other
// value is rejected before a transition mutates anything.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusInProgress OrderStatus = "in-progress"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s belongs to the closed status set.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Priority is the fixed sort rank used when listing orders:
// pending < in-progress < completed < cancelled.
func (s OrderStatus) Priority() int {
	switch s {
	case StatusPending:
		return 1
	case StatusInProgress:
		return 2
	case StatusCompleted:
		return 3
	case StatusCancelled:
		return 4
	}
	return 5
}

// =============================================================================
// LINE ITEMS
// =============================================================================

// LineItem is one ordered line of an order or sale. Items are stored as a
// first-class ordered sequence; JSON encoding happens only at the storage
// boundary.
type LineItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// ItemsCount sums line quantities. A missing or invalid quantity counts as 1.
func ItemsCount(items []LineItem) int {
	count := 0
	for _, it := range items {
		if it.Quantity > 0 {
			count += it.Quantity
		} else {
			count++
		}
	}
	return count
}

// itemRevenue is the revenue attributed to a line: its subtotal when present,
// otherwise price * quantity.
func itemRevenue(it LineItem) decimal.Decimal {
	if !it.Subtotal.IsZero() {
		return it.Subtotal
	}
	qty := it.Quantity
	if qty <= 0 {
		qty = 1
	}
	return it.Price.Mul(decimal.NewFromInt(int64(qty)))
}

// =============================================================================
// ORDERS
// =============================================================================

// Order is a customer order. Created in StatusPending, mutated only through
// OrderLedger.SetStatus, never physically deleted.
type Order struct {
	ID            int64           `json:"id"`
	Code          string          `json:"order_code"`
	CustomerName  string          `json:"customer_name"`
	StaffName     string          `json:"staff_name"`
	PaymentMethod string          `json:"payment_method"`
	Items         []LineItem      `json:"items"`
	ItemsCount    int             `json:"items_count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	CashReceived  decimal.Decimal `json:"cash_received"`
	ChangeAmount  decimal.Decimal `json:"change_amount"`
	Notes         string          `json:"notes"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// StatusChange is the result of a status transition.
type StatusChange struct {
	OrderCode string      `json:"order_code"`
	OldStatus OrderStatus `json:"old_status"`
	NewStatus OrderStatus `json:"new_status"`
	Affected  int64       `json:"affected_rows"`
}

// OrderFilter selects orders for listing. All supplied conditions combine
// with AND. Date bounds are inclusive and apply to the creation date.
type OrderFilter struct {
	Status    OrderStatus // exact match, "" = any
	Search    string      // case-insensitive substring over code and customer
	StartDate string      // YYYY-MM-DD
	EndDate   string      // YYYY-MM-DD
	Limit     int         // 0 = no limit
}

// OrderStats aggregates order counts and completed revenue for a period.
type OrderStats struct {
	Period           Period          `json:"period"`
	TotalOrders      int             `json:"total_orders"`
	Pending          int             `json:"pending"`
	InProgress       int             `json:"in_progress"`
	Completed        int             `json:"completed"`
	Cancelled        int             `json:"cancelled"`
	CompletedRevenue decimal.Decimal `json:"completed_revenue"`
}

// =============================================================================
// SALES
// =============================================================================

// Sale is a permanent sales record: either a walk-up sale (OrderID nil) or
// the snapshot derived from an order at the moment it first completed.
// Append-only: never updated or deleted.
type Sale struct {
	ID            int64           `json:"id"`
	Code          string          `json:"sale_code"`
	OrderID       *int64          `json:"order_id"`
	CustomerName  string          `json:"customer_name"`
	StaffName     string          `json:"staff_name"`
	PaymentMethod string          `json:"payment_method"`
	Items         []LineItem      `json:"items"`
	ItemsCount    int             `json:"items_count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	CashReceived  decimal.Decimal `json:"cash_received"`
	ChangeAmount  decimal.Decimal `json:"change_amount"`
	SaleDate      string          `json:"sale_date"` // YYYY-MM-DD
	SaleTime      string          `json:"sale_time"` // HH:MM:SS
}

// SaleFilter selects sales for listing and export. Range shorthand and
// explicit date bounds layer together (intersection).
type SaleFilter struct {
	Range     Period // PeriodToday/PeriodWeek/PeriodMonth, "" = none
	StartDate string // YYYY-MM-DD inclusive
	EndDate   string // YYYY-MM-DD inclusive
	Limit     int    // 0 = no limit
}

// SalesStats aggregates the sales ledger over a period.
type SalesStats struct {
	Period       Period          `json:"period"`
	TotalSales   int             `json:"total_sales"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	AverageSale  decimal.Decimal `json:"average_sale"`
	TotalItems   int             `json:"total_items_sold"`
	PeriodStart  string          `json:"period_start"` // earliest sale date, "" if none
	PeriodEnd    string          `json:"period_end"`   // latest sale date, "" if none
}

// =============================================================================
// REPORTS
// =============================================================================

// Report types as persisted in the report store.
const (
	ReportTypeSales  = "sales"
	ReportTypeCustom = "custom"
)

// ReportSummary is the headline aggregation of a report.
type ReportSummary struct {
	TransactionCount   int             `json:"transaction_count"`
	TotalSales         decimal.Decimal `json:"total_sales"`
	AverageTransaction decimal.Decimal `json:"average_transaction"`
	TotalItems         int             `json:"total_items"`
}

// DailyBucket is one row of a per-date breakdown.
type DailyBucket struct {
	Date         string          `json:"date"`
	Transactions int             `json:"transactions"`
	ItemsSold    int             `json:"items_sold"`
	TotalSales   decimal.Decimal `json:"total_sales"`
}

// HourlyBucket is one row of the per-hour breakdown (daily reports only).
type HourlyBucket struct {
	Hour         int             `json:"hour"`
	Transactions int             `json:"transactions"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// ProductRank is one row of the top-products ranking, ordered by quantity
// sold with revenue as the tie-breaker.
type ProductRank struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"product_name,omitempty"`
	Quantity  int             `json:"total_quantity"`
	Revenue   decimal.Decimal `json:"total_revenue"`
}

// Report is a generated, in-memory aggregation snapshot. Persisting it is
// optional and decoupled from generation.
type Report struct {
	Type            string         `json:"report_type"`
	Period          string         `json:"period"` // display label
	Summary         *ReportSummary `json:"summary,omitempty"`
	DailyBreakdown  []DailyBucket  `json:"dailyBreakdown"`
	HourlyBreakdown []HourlyBucket `json:"hourlyBreakdown,omitempty"`
	TopProducts     []ProductRank  `json:"topProducts"`
	RawData         []Sale         `json:"rawData"`
	GeneratedAt     time.Time      `json:"generatedAt"`
}

// SavedReport is a persisted report snapshot row. Append-only audit trail.
type SavedReport struct {
	ID          int64           `json:"id"`
	Code        string          `json:"report_code"`
	Type        string          `json:"report_type"`
	Name        string          `json:"report_name"`
	Data        []byte          `json:"-"` // serialized raw dataset
	Summary     []byte          `json:"-"` // serialized summary
	TotalSales  decimal.Decimal `json:"total_sales"`
	TotalItems  int             `json:"total_items"`
	GeneratedBy string          `json:"generated_by"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// ReportFilter selects saved reports. Date bounds apply to generation date.
type ReportFilter struct {
	Type      string
	StartDate string
	EndDate   string
	Limit     int
}
