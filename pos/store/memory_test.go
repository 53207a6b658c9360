package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillworks/pos-engine/pos"
	"github.com/tillworks/pos-engine/pos/store"
	"github.com/tillworks/pos-engine/store/sqlite"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func order(code, customer string, status pos.OrderStatus, createdAt string) *pos.Order {
	ts, _ := time.ParseInLocation(pos.DateTimeLayout, createdAt, time.Local)
	return &pos.Order{
		Code:          code,
		CustomerName:  customer,
		PaymentMethod: "cash",
		Items: []pos.LineItem{
			{ProductID: 1, Name: "Latte", Quantity: 1, Price: dec("3.50"), Subtotal: dec("3.50")},
		},
		ItemsCount:  1,
		TotalAmount: dec("3.50"),
		GrandTotal:  dec("3.50"),
		Status:      status,
		CreatedAt:   ts,
	}
}

// Both Store implementations must agree on filter and ordering semantics,
// so the same scenario runs against each.
func eachStore(t *testing.T, run func(t *testing.T, s pos.Store)) {
	t.Run("memory", func(t *testing.T) {
		run(t, store.NewMemory())
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := sqlite.New(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		run(t, s)
	})
}

func TestStores_AgreeOnOrderListing(t *testing.T) {
	eachStore(t, func(t *testing.T, s pos.Store) {
		ctx := context.Background()

		require.NoError(t, s.InsertOrder(ctx, order("ORD-001", "Alice", pos.StatusCompleted, "2025-03-10 09:00:00")))
		require.NoError(t, s.InsertOrder(ctx, order("ORD-002", "Bob", pos.StatusPending, "2025-03-09 09:00:00")))
		require.NoError(t, s.InsertOrder(ctx, order("ORD-003", "Carol", pos.StatusPending, "2025-03-11 09:00:00")))

		orders, err := s.ListOrders(ctx, pos.OrderFilter{})
		require.NoError(t, err)
		require.Len(t, orders, 3)

		// Pending before completed; within pending, most recent first
		assert.Equal(t, "ORD-003", orders[0].Code)
		assert.Equal(t, "ORD-002", orders[1].Code)
		assert.Equal(t, "ORD-001", orders[2].Code)

		// Search over customer, case-insensitive
		orders, err = s.ListOrders(ctx, pos.OrderFilter{Search: "bOb"})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "ORD-002", orders[0].Code)

		// Date window
		orders, err = s.ListOrders(ctx, pos.OrderFilter{StartDate: "2025-03-10"})
		require.NoError(t, err)
		assert.Len(t, orders, 2)

		// Limit applies after ordering
		orders, err = s.ListOrders(ctx, pos.OrderFilter{Limit: 1})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "ORD-003", orders[0].Code)
	})
}

func TestStores_AgreeOnSaleFilters(t *testing.T) {
	eachStore(t, func(t *testing.T, s pos.Store) {
		ctx := context.Background()

		for i, date := range []string{"2025-03-10", "2025-03-11", "2025-03-12"} {
			require.NoError(t, s.InsertSale(ctx, &pos.Sale{
				Code:          pos.FormatSaleCode(int64(i + 1)),
				CustomerName:  "Eve",
				PaymentMethod: "cash",
				TotalAmount:   dec("2.75"),
				GrandTotal:    dec("2.75"),
				SaleDate:      date,
				SaleTime:      "09:00:00",
			}))
		}

		sales, err := s.ListSales(ctx, pos.SaleFilter{StartDate: "2025-03-11", EndDate: "2025-03-11"})
		require.NoError(t, err)
		require.Len(t, sales, 1)
		assert.Equal(t, "2025-03-11", sales[0].SaleDate)

		// Most recent first
		sales, err = s.ListSales(ctx, pos.SaleFilter{})
		require.NoError(t, err)
		require.Len(t, sales, 3)
		assert.Equal(t, "2025-03-12", sales[0].SaleDate)

		max, err := s.MaxSaleNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), max)
	})
}

func TestStores_AgreeOnTxRollback(t *testing.T) {
	eachStore(t, func(t *testing.T, s pos.Store) {
		ctx := context.Background()

		o := order("ORD-001", "Alice", pos.StatusPending, "2025-03-10 09:00:00")
		require.NoError(t, s.InsertOrder(ctx, o))

		boom := errors.New("boom")
		err := s.WithTx(ctx, func(tx pos.Tx) error {
			if _, err := tx.UpdateOrderStatus(ctx, o.ID, pos.StatusCompleted); err != nil {
				return err
			}
			if err := tx.InsertSale(ctx, &pos.Sale{
				Code: "SAL-00001", CustomerName: "Alice", PaymentMethod: "cash",
				TotalAmount: dec("3.50"), GrandTotal: dec("3.50"),
				SaleDate: "2025-03-10", SaleTime: "09:00:00",
			}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := s.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, pos.StatusPending, got.Status)

		sales, err := s.ListSales(ctx, pos.SaleFilter{})
		require.NoError(t, err)
		assert.Empty(t, sales)
	})
}

func TestMemory_CompletionFlowWorksEndToEnd(t *testing.T) {
	// The memory store backs the ledgers in demos: the full completion
	// transaction must behave like the sqlite one.

	mem := store.NewMemory()
	ledger := pos.NewOrderLedger(mem)
	ctx := context.Background()

	created, err := ledger.Create(ctx, pos.CreateOrderInput{
		CustomerName: "Alice",
		Items: []pos.LineItem{
			{ProductID: 1, Name: "Latte", Quantity: 2, Price: dec("3.50"), Subtotal: dec("7.00")},
		},
		TotalAmount: dec("7.00"),
		GrandTotal:  dec("7.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-001", created.Code)

	_, err = ledger.SetStatus(ctx, created.ID, pos.StatusCompleted)
	require.NoError(t, err)

	sales, err := mem.SalesByOrder(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "SAL-00001", sales[0].Code)
}
