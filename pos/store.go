/*
store.go - Storage interfaces for the POS core

PURPOSE:
  Defines the persistence contracts the ledgers and report engine depend on.
  Implementations: store/sqlite (production) and pos/store (in-memory, for
  tests and demos). The store handle is injected at construction; nothing in
  this package reaches for ambient database state.

TRANSACTIONS:
  WithTx is the single unit-of-work primitive. The function receives a Tx
  bound to one database transaction; returning an error rolls everything
  back. The completion transition relies on the store serializing the
  read-then-write on the order row against concurrent transitions.
*/
package pos

import "context"

// OrderStore persists orders.
type OrderStore interface {
	// InsertOrder persists o and assigns its surrogate ID.
	InsertOrder(ctx context.Context, o *Order) error

	// GetOrder returns the order or (nil, nil) when absent.
	GetOrder(ctx context.Context, id int64) (*Order, error)

	// ListOrders returns orders matching the filter, ordered by status
	// priority then creation time descending.
	ListOrders(ctx context.Context, f OrderFilter) ([]Order, error)

	// MaxOrderID returns the current maximum order id, 0 when empty.
	MaxOrderID(ctx context.Context) (int64, error)

	// CountOrders returns the total number of order rows.
	CountOrders(ctx context.Context) (int64, error)
}

// SaleStore persists sales. Sales are append-only.
type SaleStore interface {
	// InsertSale persists s and assigns its surrogate ID. It fails with
	// ErrSaleNotRecorded when the insert affects zero rows.
	InsertSale(ctx context.Context, s *Sale) error

	// ListSales returns sales matching the filter, ordered by sale date
	// then sale time, both descending.
	ListSales(ctx context.Context, f SaleFilter) ([]Sale, error)

	// SalesByOrder returns the sales derived from the given order.
	SalesByOrder(ctx context.Context, orderID int64) ([]Sale, error)

	SaleCounter
}

// SaleCounter exposes the lookups the sale code generator needs. Both the
// plain store and a Tx satisfy it, so codes can be generated inside the
// completion transaction.
type SaleCounter interface {
	// MaxSaleNumber returns the maximum numeric suffix already used in sale
	// codes, 0 when empty.
	MaxSaleNumber(ctx context.Context) (int64, error)

	// CountSales returns the total number of sale rows.
	CountSales(ctx context.Context) (int64, error)
}

// ReportStore persists generated report snapshots. The backing table is
// created lazily on first use.
type ReportStore interface {
	// SaveReport persists r as an immutable row and assigns its ID.
	SaveReport(ctx context.Context, r *SavedReport) error

	// ListReports returns saved reports matching the filter, most recent
	// first.
	ListReports(ctx context.Context, f ReportFilter) ([]SavedReport, error)
}

// Tx is the handle passed to a WithTx unit of work. Every call operates
// inside the same database transaction.
type Tx interface {
	GetOrder(ctx context.Context, id int64) (*Order, error)

	// UpdateOrderStatus sets the order's status and returns the number of
	// affected rows.
	UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) (int64, error)

	InsertSale(ctx context.Context, s *Sale) error

	SaleCounter
}

// Store is the full storage contract injected into the ledgers and the
// report engine.
type Store interface {
	OrderStore
	SaleStore
	ReportStore

	// WithTx runs fn inside a single atomic transaction. If fn returns an
	// error the transaction rolls back and the error propagates unchanged.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}
