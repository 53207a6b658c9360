// Package store provides an in-memory pos.Store implementation for tests
// and demos. It mirrors the filter and ordering semantics of the SQLite
// store, including transactional rollback via state snapshots.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tillworks/pos-engine/pos"
)

// Memory is an in-memory pos.Store.
type Memory struct {
	mu      sync.RWMutex
	orders  []pos.Order
	sales   []pos.Sale
	reports []pos.SavedReport

	nextOrderID  int64
	nextSaleID   int64
	nextReportID int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{nextOrderID: 1, nextSaleID: 1, nextReportID: 1}
}

// =============================================================================
// ORDER STORE
// =============================================================================

func (m *Memory) InsertOrder(_ context.Context, o *pos.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertOrderLocked(o)
}

func (m *Memory) insertOrderLocked(o *pos.Order) error {
	for _, existing := range m.orders {
		if existing.Code == o.Code {
			return fmt.Errorf("duplicate order code %s", o.Code)
		}
	}
	o.ID = m.nextOrderID
	m.nextOrderID++
	m.orders = append(m.orders, *o)
	return nil
}

func (m *Memory) GetOrder(_ context.Context, id int64) (*pos.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getOrderLocked(id), nil
}

func (m *Memory) getOrderLocked(id int64) *pos.Order {
	for i := range m.orders {
		if m.orders[i].ID == id {
			o := m.orders[i]
			return &o
		}
	}
	return nil
}

func (m *Memory) ListOrders(_ context.Context, f pos.OrderFilter) ([]pos.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []pos.Order
	for _, o := range m.orders {
		if matchOrder(o, f) {
			result = append(result, o)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		pi, pj := result[i].Status.Priority(), result[j].Status.Priority()
		if pi != pj {
			return pi < pj
		}
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	if f.Limit > 0 && len(result) > f.Limit {
		result = result[:f.Limit]
	}
	return result, nil
}

func matchOrder(o pos.Order, f pos.OrderFilter) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(o.Code), needle) &&
			!strings.Contains(strings.ToLower(o.CustomerName), needle) {
			return false
		}
	}
	date := o.CreatedAt.Format(pos.DateLayout)
	if f.StartDate != "" && date < f.StartDate {
		return false
	}
	if f.EndDate != "" && date > f.EndDate {
		return false
	}
	return true
}

func (m *Memory) MaxOrderID(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var max int64
	for _, o := range m.orders {
		if o.ID > max {
			max = o.ID
		}
	}
	return max, nil
}

func (m *Memory) CountOrders(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.orders)), nil
}

// =============================================================================
// SALE STORE
// =============================================================================

func (m *Memory) InsertSale(_ context.Context, s *pos.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertSaleLocked(s)
}

func (m *Memory) insertSaleLocked(s *pos.Sale) error {
	for _, existing := range m.sales {
		if existing.Code == s.Code {
			return fmt.Errorf("duplicate sale code %s", s.Code)
		}
	}
	s.ID = m.nextSaleID
	m.nextSaleID++
	m.sales = append(m.sales, *s)
	return nil
}

func (m *Memory) ListSales(_ context.Context, f pos.SaleFilter) ([]pos.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []pos.Sale
	for _, s := range m.sales {
		if f.StartDate != "" && s.SaleDate < f.StartDate {
			continue
		}
		if f.EndDate != "" && s.SaleDate > f.EndDate {
			continue
		}
		result = append(result, s)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].SaleDate != result[j].SaleDate {
			return result[i].SaleDate > result[j].SaleDate
		}
		if result[i].SaleTime != result[j].SaleTime {
			return result[i].SaleTime > result[j].SaleTime
		}
		return result[i].ID > result[j].ID
	})
	if f.Limit > 0 && len(result) > f.Limit {
		result = result[:f.Limit]
	}
	return result, nil
}

func (m *Memory) SalesByOrder(_ context.Context, orderID int64) ([]pos.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []pos.Sale
	for _, s := range m.sales {
		if s.OrderID != nil && *s.OrderID == orderID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *Memory) MaxSaleNumber(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxSaleNumberLocked(), nil
}

func (m *Memory) maxSaleNumberLocked() int64 {
	var max int64
	for _, s := range m.sales {
		if n := pos.SaleCodeNumber(s.Code); n > max {
			max = n
		}
	}
	return max
}

func (m *Memory) CountSales(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.sales)), nil
}

// =============================================================================
// REPORT STORE
// =============================================================================

func (m *Memory) SaveReport(_ context.Context, r *pos.SavedReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.ID = m.nextReportID
	m.nextReportID++
	m.reports = append(m.reports, *r)
	return nil
}

func (m *Memory) ListReports(_ context.Context, f pos.ReportFilter) ([]pos.SavedReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []pos.SavedReport
	for _, r := range m.reports {
		if f.Type != "" && r.Type != f.Type {
			continue
		}
		date := r.GeneratedAt.Format(pos.DateLayout)
		if f.StartDate != "" && date < f.StartDate {
			continue
		}
		if f.EndDate != "" && date > f.EndDate {
			continue
		}
		result = append(result, r)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].GeneratedAt.Equal(result[j].GeneratedAt) {
			return result[i].GeneratedAt.After(result[j].GeneratedAt)
		}
		return result[i].ID > result[j].ID
	})
	if f.Limit > 0 && len(result) > f.Limit {
		result = result[:f.Limit]
	}
	return result, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx runs fn against a snapshot-backed transaction: on error the
// order/sale state is restored, mirroring a database rollback.
func (m *Memory) WithTx(ctx context.Context, fn func(tx pos.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordersSnap := append([]pos.Order(nil), m.orders...)
	salesSnap := append([]pos.Sale(nil), m.sales...)
	nextSaleSnap := m.nextSaleID

	if err := fn(&memTx{m: m}); err != nil {
		m.orders = ordersSnap
		m.sales = salesSnap
		m.nextSaleID = nextSaleSnap
		return err
	}
	return nil
}

type memTx struct {
	m *Memory
}

func (t *memTx) GetOrder(_ context.Context, id int64) (*pos.Order, error) {
	return t.m.getOrderLocked(id), nil
}

func (t *memTx) UpdateOrderStatus(_ context.Context, id int64, status pos.OrderStatus) (int64, error) {
	for i := range t.m.orders {
		if t.m.orders[i].ID == id {
			t.m.orders[i].Status = status
			return 1, nil
		}
	}
	return 0, nil
}

func (t *memTx) InsertSale(_ context.Context, s *pos.Sale) error {
	return t.m.insertSaleLocked(s)
}

func (t *memTx) MaxSaleNumber(_ context.Context) (int64, error) {
	return t.m.maxSaleNumberLocked(), nil
}

func (t *memTx) CountSales(_ context.Context) (int64, error) {
	return int64(len(t.m.sales)), nil
}
