/*
orders.go - Order ledger and the completion transaction

PURPOSE:
  Owns the order lifecycle: creation, listing, stats, and the status
  transition state machine. The transition into "completed" is the critical
  coupling of the system: atomically with the status update, exactly one
  Sale row is derived from the order's fields.

INVARIANT:
  An order is never in "completed" state without exactly one derived sale,
  and no sale claims derivation from a non-completed order. The derived
  write happens inside the same store transaction as the status read and
  update, so the store's isolation serializes concurrent transitions on the
  same order.

STATE MACHINE:
  pending -> in-progress -> completed
  any non-terminal state  -> cancelled
  Repeating "completed" is a no-op with respect to sale derivation.
*/
package pos

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderLedger owns order records. Construct with NewOrderLedger; the store
// handle is injected, never ambient.
type OrderLedger struct {
	store Store
	now   func() time.Time
}

// NewOrderLedger creates an order ledger backed by store.
func NewOrderLedger(store Store) *OrderLedger {
	return &OrderLedger{store: store, now: time.Now}
}

// CreateOrderInput carries the fields of a new order. Monetary fields are
// taken as-is; the ledger does not recompute totals.
type CreateOrderInput struct {
	CustomerName  string
	StaffName     string
	PaymentMethod string
	Items         []LineItem
	TotalAmount   decimal.Decimal
	TaxAmount     decimal.Decimal
	GrandTotal    decimal.Decimal
	CashReceived  decimal.Decimal
	ChangeAmount  decimal.Decimal
	Notes         string
}

// Create validates the input, generates an order code and persists the
// order in pending state with the server's current timestamp. Single atomic
// write; returns the full order including its assigned id and code.
func (l *OrderLedger) Create(ctx context.Context, in CreateOrderInput) (*Order, error) {
	if strings.TrimSpace(in.CustomerName) == "" {
		return nil, &ValidationError{Field: "customer_name", Message: "customer name is required"}
	}
	if len(in.Items) == 0 {
		return nil, &ValidationError{Field: "items", Message: "order must contain at least one item"}
	}

	code, err := NextOrderCode(ctx, l.store)
	if err != nil {
		return nil, err
	}

	payment := in.PaymentMethod
	if payment == "" {
		payment = "cash"
	}

	order := &Order{
		Code:          code,
		CustomerName:  in.CustomerName,
		StaffName:     in.StaffName,
		PaymentMethod: payment,
		Items:         in.Items,
		ItemsCount:    ItemsCount(in.Items),
		TotalAmount:   in.TotalAmount,
		TaxAmount:     in.TaxAmount,
		GrandTotal:    in.GrandTotal,
		CashReceived:  in.CashReceived,
		ChangeAmount:  in.ChangeAmount,
		Notes:         in.Notes,
		Status:        StatusPending,
		CreatedAt:     l.now(),
	}

	if err := l.store.InsertOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// List returns orders matching the filter, ordered by status priority then
// creation time descending. No filter returns all orders in that ordering.
func (l *OrderLedger) List(ctx context.Context, f OrderFilter) ([]Order, error) {
	return l.store.ListOrders(ctx, f)
}

// Get returns the order or ErrOrderNotFound.
func (l *OrderLedger) Get(ctx context.Context, id int64) (*Order, error) {
	order, err := l.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// SetStatus transitions the order to status. The whole operation is one
// atomic transaction: read current row, update status, and - on the first
// transition into completed - insert exactly one derived sale carrying the
// order's financial snapshot and the order's own creation date/time. Any
// failure rolls the transaction back and propagates unchanged.
func (l *OrderLedger) SetStatus(ctx context.Context, id int64, status OrderStatus) (*StatusChange, error) {
	if !status.Valid() {
		return nil, &InvalidStatusError{Status: string(status)}
	}

	var change StatusChange
	err := l.store.WithTx(ctx, func(tx Tx) error {
		order, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}

		affected, err := tx.UpdateOrderStatus(ctx, id, status)
		if err != nil {
			return err
		}

		if status == StatusCompleted && order.Status != StatusCompleted {
			sale, err := deriveSale(ctx, tx, order)
			if err != nil {
				return err
			}
			if err := tx.InsertSale(ctx, sale); err != nil {
				return err
			}
		}

		change = StatusChange{
			OrderCode: order.Code,
			OldStatus: order.Status,
			NewStatus: status,
			Affected:  affected,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &change, nil
}

// deriveSale builds the immutable sale snapshot for a completing order. The
// sale carries the order's creation date/time, not the transition time.
func deriveSale(ctx context.Context, tx Tx, order *Order) (*Sale, error) {
	code, err := NextSaleCode(ctx, tx)
	if err != nil {
		return nil, err
	}
	orderID := order.ID
	return &Sale{
		Code:          code,
		OrderID:       &orderID,
		CustomerName:  order.CustomerName,
		StaffName:     order.StaffName,
		PaymentMethod: order.PaymentMethod,
		Items:         order.Items,
		ItemsCount:    order.ItemsCount,
		TotalAmount:   order.TotalAmount,
		TaxAmount:     order.TaxAmount,
		GrandTotal:    order.GrandTotal,
		CashReceived:  order.CashReceived,
		ChangeAmount:  order.ChangeAmount,
		SaleDate:      order.CreatedAt.Format(DateLayout),
		SaleTime:      order.CreatedAt.Format(TimeLayout),
	}, nil
}

// Sales returns the order together with the sales derived from it.
func (l *OrderLedger) Sales(ctx context.Context, id int64) (*Order, []Sale, error) {
	order, err := l.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	sales, err := l.store.SalesByOrder(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return order, sales, nil
}

// Stats aggregates order counts and completed-order revenue for the period.
// Pure read, no side effects.
func (l *OrderLedger) Stats(ctx context.Context, period Period) (*OrderStats, error) {
	r := period.Range(l.now())
	orders, err := l.store.ListOrders(ctx, OrderFilter{StartDate: r.Start, EndDate: r.End})
	if err != nil {
		return nil, err
	}

	stats := &OrderStats{Period: period, CompletedRevenue: decimal.Zero}
	for _, o := range orders {
		stats.TotalOrders++
		switch o.Status {
		case StatusPending:
			stats.Pending++
		case StatusInProgress:
			stats.InProgress++
		case StatusCompleted:
			stats.Completed++
			stats.CompletedRevenue = stats.CompletedRevenue.Add(o.TotalAmount)
		case StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

// TodayStats is Stats for today.
func (l *OrderLedger) TodayStats(ctx context.Context) (*OrderStats, error) {
	return l.Stats(ctx, PeriodToday)
}
