/*
sales.go - Sale ledger

PURPOSE:
  Owns the sales ledger. Sales arrive two ways: recorded directly as
  walk-up sales (no order reference), or derived by the order completion
  transaction (see orders.go). Either way the row is append-only and never
  touched again.
*/
package pos

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SaleLedger owns sale records.
type SaleLedger struct {
	store Store
	now   func() time.Time
}

// NewSaleLedger creates a sale ledger backed by store.
func NewSaleLedger(store Store) *SaleLedger {
	return &SaleLedger{store: store, now: time.Now}
}

// RecordSaleInput carries the fields of an independent walk-up sale.
type RecordSaleInput struct {
	CustomerName  string
	Items         []LineItem
	TotalAmount   decimal.Decimal
	PaymentMethod string
}

// Record persists a walk-up sale with the current date and time. Same
// validation as order creation; atomic single-row insert.
func (l *SaleLedger) Record(ctx context.Context, in RecordSaleInput) (*Sale, error) {
	if strings.TrimSpace(in.CustomerName) == "" {
		return nil, &ValidationError{Field: "customer_name", Message: "customer name is required"}
	}
	if len(in.Items) == 0 {
		return nil, &ValidationError{Field: "items", Message: "sale must contain at least one item"}
	}

	code, err := NextSaleCode(ctx, l.store)
	if err != nil {
		return nil, err
	}

	payment := in.PaymentMethod
	if payment == "" {
		payment = "cash"
	}

	now := l.now()
	sale := &Sale{
		Code:          code,
		CustomerName:  in.CustomerName,
		PaymentMethod: payment,
		Items:         in.Items,
		ItemsCount:    ItemsCount(in.Items),
		TotalAmount:   in.TotalAmount,
		TaxAmount:     decimal.Zero,
		GrandTotal:    in.TotalAmount,
		CashReceived:  decimal.Zero,
		ChangeAmount:  decimal.Zero,
		SaleDate:      now.Format(DateLayout),
		SaleTime:      now.Format(TimeLayout),
	}

	if err := l.store.InsertSale(ctx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// List returns sales matching the filter, most recent first. The range
// shorthand resolves against the current date and intersects with any
// explicit bounds before the store sees the filter.
func (l *SaleLedger) List(ctx context.Context, f SaleFilter) ([]Sale, error) {
	return l.store.ListSales(ctx, l.resolve(f))
}

func (l *SaleLedger) resolve(f SaleFilter) SaleFilter {
	if f.Range == "" || f.Range == PeriodAll {
		f.Range = ""
		return f
	}
	r := DateRange{Start: f.StartDate, End: f.EndDate}.Intersect(f.Range.Range(l.now()))
	f.Range = ""
	f.StartDate = r.Start
	f.EndDate = r.End
	return f
}

// Stats aggregates the ledger over the period: count, revenue, average
// sale, items sold and the covered date span. Pure read.
func (l *SaleLedger) Stats(ctx context.Context, period Period) (*SalesStats, error) {
	r := period.Range(l.now())
	sales, err := l.store.ListSales(ctx, SaleFilter{StartDate: r.Start, EndDate: r.End})
	if err != nil {
		return nil, err
	}

	stats := &SalesStats{
		Period:       period,
		TotalRevenue: decimal.Zero,
		AverageSale:  decimal.Zero,
	}
	for _, s := range sales {
		stats.TotalSales++
		stats.TotalItems += s.ItemsCount
		stats.TotalRevenue = stats.TotalRevenue.Add(s.TotalAmount)
		if stats.PeriodStart == "" || s.SaleDate < stats.PeriodStart {
			stats.PeriodStart = s.SaleDate
		}
		if s.SaleDate > stats.PeriodEnd {
			stats.PeriodEnd = s.SaleDate
		}
	}
	if stats.TotalSales > 0 {
		stats.AverageSale = stats.TotalRevenue.Div(decimal.NewFromInt(int64(stats.TotalSales))).Round(2)
	}
	return stats, nil
}
