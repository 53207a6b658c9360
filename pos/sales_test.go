package pos_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillworks/pos-engine/pos"
)

func walkUpSale(customer string) pos.RecordSaleInput {
	return pos.RecordSaleInput{
		CustomerName: customer,
		Items: []pos.LineItem{
			{ProductID: 3, Name: "Espresso", Quantity: 1, Price: dec("2.75"), Subtotal: dec("2.75")},
		},
		TotalAmount:   dec("2.75"),
		PaymentMethod: "card",
	}
}

// =============================================================================
// RECORDING
// =============================================================================

func TestSaleLedger_Record_WalkUpSale(t *testing.T) {
	// GIVEN: An empty ledger
	// WHEN: Recording a walk-up sale
	// THEN: The sale is timestamped now, has no order reference, and its
	//       grand total mirrors the total with zero tax and change

	store := newTestStore(t)
	ledger := pos.NewSaleLedger(store)

	sale, err := ledger.Record(context.Background(), walkUpSale("Eve"))
	require.NoError(t, err)

	assert.Equal(t, "SAL-00001", sale.Code)
	assert.Nil(t, sale.OrderID, "walk-up sale has no originating order")
	assert.Equal(t, time.Now().Format(pos.DateLayout), sale.SaleDate)
	assert.True(t, sale.GrandTotal.Equal(sale.TotalAmount))
	assert.True(t, sale.TaxAmount.IsZero())
	assert.True(t, sale.ChangeAmount.IsZero())
	assert.Equal(t, "card", sale.PaymentMethod)
}

func TestSaleLedger_Record_Validation(t *testing.T) {
	store := newTestStore(t)
	ledger := pos.NewSaleLedger(store)
	ctx := context.Background()

	in := walkUpSale("")
	_, err := ledger.Record(ctx, in)
	var ve *pos.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "customer_name", ve.Field)

	in = walkUpSale("Eve")
	in.Items = nil
	_, err = ledger.Record(ctx, in)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "items", ve.Field)
}

func TestSaleLedger_SharedSequenceWithDerivedSales(t *testing.T) {
	// Walk-up and order-derived sales draw codes from one sequence.

	store := newTestStore(t)
	sales := pos.NewSaleLedger(store)
	orders := pos.NewOrderLedger(store)
	ctx := context.Background()

	first, err := sales.Record(ctx, walkUpSale("Eve"))
	require.NoError(t, err)
	assert.Equal(t, "SAL-00001", first.Code)

	order, err := orders.Create(ctx, coffeeOrder("Alice"))
	require.NoError(t, err)
	_, err = orders.SetStatus(ctx, order.ID, pos.StatusCompleted)
	require.NoError(t, err)

	_, derived, err := orders.Sales(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, derived, 1)
	assert.Equal(t, "SAL-00002", derived[0].Code)
}

// =============================================================================
// LISTING
// =============================================================================

func TestSaleLedger_List_RangeShorthand(t *testing.T) {
	store := newTestStore(t)
	ledger := pos.NewSaleLedger(store)
	ctx := context.Background()

	_, err := ledger.Record(ctx, walkUpSale("Eve"))
	require.NoError(t, err)

	// Today's range includes a sale recorded just now
	sales, err := ledger.List(ctx, pos.SaleFilter{Range: pos.PeriodToday})
	require.NoError(t, err)
	assert.Len(t, sales, 1)

	// Explicit bounds intersect with the shorthand: an end date before
	// today empties the window
	sales, err = ledger.List(ctx, pos.SaleFilter{Range: pos.PeriodToday, EndDate: "2000-01-01"})
	require.NoError(t, err)
	assert.Empty(t, sales)

	// A start date in the future excludes it too
	sales, err = ledger.List(ctx, pos.SaleFilter{StartDate: "2999-01-01"})
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestSaleLedger_List_MostRecentFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Seed directly so the dates are deterministic
	older := &pos.Sale{Code: "SAL-00001", CustomerName: "A", PaymentMethod: "cash",
		SaleDate: "2025-03-10", SaleTime: "09:00:00",
		TotalAmount: dec("5"), GrandTotal: dec("5")}
	newer := &pos.Sale{Code: "SAL-00002", CustomerName: "B", PaymentMethod: "cash",
		SaleDate: "2025-03-11", SaleTime: "08:00:00",
		TotalAmount: dec("6"), GrandTotal: dec("6")}
	require.NoError(t, store.InsertSale(ctx, older))
	require.NoError(t, store.InsertSale(ctx, newer))

	ledger := pos.NewSaleLedger(store)
	sales, err := ledger.List(ctx, pos.SaleFilter{})
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "SAL-00002", sales[0].Code)
	assert.Equal(t, "SAL-00001", sales[1].Code)
}

// =============================================================================
// STATS
// =============================================================================

func TestSaleLedger_Stats(t *testing.T) {
	store := newTestStore(t)
	ledger := pos.NewSaleLedger(store)
	ctx := context.Background()

	in := walkUpSale("Eve")
	_, err := ledger.Record(ctx, in)
	require.NoError(t, err)

	in = walkUpSale("Frank")
	in.Items = []pos.LineItem{
		{ProductID: 4, Name: "Mocha", Quantity: 3, Price: dec("4.25"), Subtotal: dec("12.75")},
	}
	in.TotalAmount = dec("12.75")
	_, err = ledger.Record(ctx, in)
	require.NoError(t, err)

	stats, err := ledger.Stats(ctx, pos.PeriodToday)
	require.NoError(t, err)

	today := time.Now().Format(pos.DateLayout)
	assert.Equal(t, 2, stats.TotalSales)
	assert.Equal(t, 4, stats.TotalItems)
	assert.True(t, stats.TotalRevenue.Equal(dec("15.50")), "got %s", stats.TotalRevenue)
	assert.True(t, stats.AverageSale.Equal(dec("7.75")), "got %s", stats.AverageSale)
	assert.Equal(t, today, stats.PeriodStart)
	assert.Equal(t, today, stats.PeriodEnd)
}

func TestSaleLedger_Stats_EmptyLedger(t *testing.T) {
	store := newTestStore(t)
	ledger := pos.NewSaleLedger(store)

	stats, err := ledger.Stats(context.Background(), pos.PeriodAll)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalSales)
	assert.True(t, stats.AverageSale.IsZero())
	assert.Empty(t, stats.PeriodStart)
	assert.Empty(t, stats.PeriodEnd)
}
