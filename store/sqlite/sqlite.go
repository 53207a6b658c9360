/*
Package sqlite provides the SQLite-backed implementation of pos.Store.

PURPOSE:
  Implements order, sale and report persistence over database/sql with the
  mattn/go-sqlite3 driver. In production the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  orders:   order rows with lifecycle status; never deleted
  sales:    append-only sales ledger; order_id is a nullable reference to
            orders(id), sale_code carries a UNIQUE constraint
  reports:  append-only report snapshots; created lazily on first use

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statements touch the sales and reports tables. The
  only UPDATE in this package is the order status transition.

TRANSACTIONS:
  WithTx exposes the unit-of-work used by the order completion transition.
  The enclosed read-then-write on the order row is serialized by SQLite's
  single-writer model; with WAL mode readers never block the writer.

TIME HANDLING:
  Dates and times are stored as plain text columns (YYYY-MM-DD, HH:MM:SS,
  and "YYYY-MM-DD HH:MM:SS" for created_at/generated_at) so date filters
  are lexicographic substring comparisons with no timezone conversion.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of the single connection,
  matching SQLite's single-writer constraint.
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/tillworks/pos-engine/pos"
)

// Store implements pos.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_code TEXT UNIQUE NOT NULL,
		customer_name TEXT NOT NULL,
		staff_name TEXT NOT NULL DEFAULT '',
		payment_method TEXT NOT NULL DEFAULT 'cash',
		items_json TEXT NOT NULL,
		items_count INTEGER NOT NULL,
		total_amount TEXT NOT NULL,
		tax_amount TEXT NOT NULL DEFAULT '0',
		grand_total TEXT NOT NULL,
		cash_received TEXT NOT NULL DEFAULT '0',
		change_amount TEXT NOT NULL DEFAULT '0',
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

	CREATE TABLE IF NOT EXISTS sales (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sale_code TEXT UNIQUE NOT NULL,
		order_id INTEGER REFERENCES orders(id),
		customer_name TEXT NOT NULL,
		staff_name TEXT NOT NULL DEFAULT '',
		payment_method TEXT NOT NULL DEFAULT 'cash',
		items_json TEXT NOT NULL,
		items_count INTEGER NOT NULL,
		total_amount TEXT NOT NULL,
		tax_amount TEXT NOT NULL DEFAULT '0',
		grand_total TEXT NOT NULL,
		cash_received TEXT NOT NULL DEFAULT '0',
		change_amount TEXT NOT NULL DEFAULT '0',
		sale_date TEXT NOT NULL,
		sale_time TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(sale_date, sale_time);
	CREATE INDEX IF NOT EXISTS idx_sales_order
		ON sales(order_id) WHERE order_id IS NOT NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so the row-level helpers
// can run standalone or inside a unit of work.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// ORDER STORE (pos.OrderStore interface)
// =============================================================================

const orderColumns = `id, order_code, customer_name, staff_name, payment_method,
	items_json, items_count, total_amount, tax_amount, grand_total,
	cash_received, change_amount, notes, status, created_at`

// InsertOrder persists an order and assigns its id.
func (s *Store) InsertOrder(ctx context.Context, o *pos.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO orders
		(order_code, customer_name, staff_name, payment_method, items_json,
		 items_count, total_amount, tax_amount, grand_total, cash_received,
		 change_amount, notes, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.Code, o.CustomerName, o.StaffName, o.PaymentMethod, string(itemsJSON),
		o.ItemsCount, o.TotalAmount.String(), o.TaxAmount.String(),
		o.GrandTotal.String(), o.CashReceived.String(), o.ChangeAmount.String(),
		o.Notes, string(o.Status), o.CreatedAt.Format(pos.DateTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	o.ID, err = res.LastInsertId()
	return err
}

// GetOrder returns the order or (nil, nil) when absent.
func (s *Store) GetOrder(ctx context.Context, id int64) (*pos.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getOrder(ctx, s.db, id)
}

func (s *Store) getOrder(ctx context.Context, db dbtx, id int64) (*pos.Order, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns orders matching the filter, ordered by the fixed
// status priority and then by creation time descending.
func (s *Store) ListOrders(ctx context.Context, f pos.OrderFilter) ([]pos.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := newQuery(`SELECT ` + orderColumns + ` FROM orders`)
	if f.Status != "" {
		q.Where("status = ?", string(f.Status))
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q.Where("(order_code LIKE ? OR customer_name LIKE ?)", pattern, pattern)
	}
	if f.StartDate != "" {
		q.Where("substr(created_at, 1, 10) >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		q.Where("substr(created_at, 1, 10) <= ?", f.EndDate)
	}
	q.OrderBy(`CASE status
			WHEN 'pending' THEN 1
			WHEN 'in-progress' THEN 2
			WHEN 'completed' THEN 3
			WHEN 'cancelled' THEN 4
		END, created_at DESC, id DESC`)
	if f.Limit > 0 {
		q.Limit(f.Limit)
	}

	stmt, args := q.SQL()
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []pos.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// MaxOrderID returns the maximum order id, 0 when the table is empty.
func (s *Store) MaxOrderID(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(id), 0) FROM orders").Scan(&max)
	return max, err
}

// CountOrders returns the total number of order rows.
func (s *Store) CountOrders(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM orders").Scan(&count)
	return count, err
}

func (s *Store) updateOrderStatus(ctx context.Context, db dbtx, id int64, status pos.OrderStatus) (int64, error) {
	res, err := db.ExecContext(ctx,
		"UPDATE orders SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return 0, fmt.Errorf("failed to update order status: %w", err)
	}
	return res.RowsAffected()
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(sc scanner) (*pos.Order, error) {
	var (
		o         pos.Order
		itemsJSON string
		total     string
		tax       string
		grand     string
		cash      string
		change    string
		status    string
		createdAt string
	)
	err := sc.Scan(
		&o.ID, &o.Code, &o.CustomerName, &o.StaffName, &o.PaymentMethod,
		&itemsJSON, &o.ItemsCount, &total, &tax, &grand, &cash, &change,
		&o.Notes, &status, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}
	o.TotalAmount = parseDecimal(total)
	o.TaxAmount = parseDecimal(tax)
	o.GrandTotal = parseDecimal(grand)
	o.CashReceived = parseDecimal(cash)
	o.ChangeAmount = parseDecimal(change)
	o.Status = pos.OrderStatus(status)
	o.CreatedAt, _ = time.ParseInLocation(pos.DateTimeLayout, createdAt, time.Local)
	return &o, nil
}

// =============================================================================
// SALE STORE (pos.SaleStore interface)
// =============================================================================

const saleColumns = `id, sale_code, order_id, customer_name, staff_name,
	payment_method, items_json, items_count, total_amount, tax_amount,
	grand_total, cash_received, change_amount, sale_date, sale_time`

// InsertSale appends a sale row and assigns its id. Fails with
// pos.ErrSaleNotRecorded when the insert affects zero rows.
func (s *Store) InsertSale(ctx context.Context, sale *pos.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertSale(ctx, s.db, sale)
}

func (s *Store) insertSale(ctx context.Context, db dbtx, sale *pos.Sale) error {
	itemsJSON, err := json.Marshal(sale.Items)
	if err != nil {
		return fmt.Errorf("failed to encode sale items: %w", err)
	}

	var orderID sql.NullInt64
	if sale.OrderID != nil {
		orderID = sql.NullInt64{Int64: *sale.OrderID, Valid: true}
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO sales
		(sale_code, order_id, customer_name, staff_name, payment_method,
		 items_json, items_count, total_amount, tax_amount, grand_total,
		 cash_received, change_amount, sale_date, sale_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.Code, orderID, sale.CustomerName, sale.StaffName,
		sale.PaymentMethod, string(itemsJSON), sale.ItemsCount,
		sale.TotalAmount.String(), sale.TaxAmount.String(),
		sale.GrandTotal.String(), sale.CashReceived.String(),
		sale.ChangeAmount.String(), sale.SaleDate, sale.SaleTime,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return pos.ErrSaleNotRecorded
	}

	sale.ID, err = res.LastInsertId()
	return err
}

// ListSales returns sales matching the filter, ordered by sale date then
// sale time, both descending.
func (s *Store) ListSales(ctx context.Context, f pos.SaleFilter) ([]pos.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := newQuery(`SELECT ` + saleColumns + ` FROM sales`)
	if f.StartDate != "" {
		q.Where("sale_date >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		q.Where("sale_date <= ?", f.EndDate)
	}
	q.OrderBy("sale_date DESC, sale_time DESC, id DESC")
	if f.Limit > 0 {
		q.Limit(f.Limit)
	}

	stmt, args := q.SQL()
	return s.querySales(ctx, stmt, args...)
}

// SalesByOrder returns the sales derived from an order, oldest first.
func (s *Store) SalesByOrder(ctx context.Context, orderID int64) ([]pos.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySales(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE order_id = ? ORDER BY id ASC`,
		orderID)
}

// MaxSaleNumber returns the maximum numeric suffix used in sale codes.
func (s *Store) MaxSaleNumber(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxSaleNumber(ctx, s.db)
}

func (s *Store) maxSaleNumber(ctx context.Context, db dbtx) (int64, error) {
	var max int64
	err := db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(sale_code, 5) AS INTEGER)), 0) FROM sales",
	).Scan(&max)
	return max, err
}

// CountSales returns the total number of sale rows.
func (s *Store) CountSales(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countSales(ctx, s.db)
}

func (s *Store) countSales(ctx context.Context, db dbtx) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sales").Scan(&count)
	return count, err
}

func (s *Store) querySales(ctx context.Context, stmt string, args ...any) ([]pos.Sale, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []pos.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *sale)
	}
	return sales, rows.Err()
}

func scanSale(sc scanner) (*pos.Sale, error) {
	var (
		sale      pos.Sale
		orderID   sql.NullInt64
		itemsJSON string
		total     string
		tax       string
		grand     string
		cash      string
		change    string
	)
	err := sc.Scan(
		&sale.ID, &sale.Code, &orderID, &sale.CustomerName, &sale.StaffName,
		&sale.PaymentMethod, &itemsJSON, &sale.ItemsCount, &total, &tax,
		&grand, &cash, &change, &sale.SaleDate, &sale.SaleTime,
	)
	if err != nil {
		return nil, err
	}

	if orderID.Valid {
		id := orderID.Int64
		sale.OrderID = &id
	}
	if err := json.Unmarshal([]byte(itemsJSON), &sale.Items); err != nil {
		return nil, fmt.Errorf("failed to decode sale items: %w", err)
	}
	sale.TotalAmount = parseDecimal(total)
	sale.TaxAmount = parseDecimal(tax)
	sale.GrandTotal = parseDecimal(grand)
	sale.CashReceived = parseDecimal(cash)
	sale.ChangeAmount = parseDecimal(change)
	return &sale, nil
}

// =============================================================================
// TRANSACTIONAL STORE (pos.Store WithTx)
// =============================================================================

// WithTx executes fn within a single database transaction. Any error rolls
// the transaction back and propagates unchanged to the caller.
func (s *Store) WithTx(ctx context.Context, fn func(tx pos.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, parent: s}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (ts *txStore) GetOrder(ctx context.Context, id int64) (*pos.Order, error) {
	return ts.parent.getOrder(ctx, ts.tx, id)
}

func (ts *txStore) UpdateOrderStatus(ctx context.Context, id int64, status pos.OrderStatus) (int64, error) {
	return ts.parent.updateOrderStatus(ctx, ts.tx, id, status)
}

func (ts *txStore) InsertSale(ctx context.Context, sale *pos.Sale) error {
	return ts.parent.insertSale(ctx, ts.tx, sale)
}

func (ts *txStore) MaxSaleNumber(ctx context.Context) (int64, error) {
	return ts.parent.maxSaleNumber(ctx, ts.tx)
}

func (ts *txStore) CountSales(ctx context.Context) (int64, error) {
	return ts.parent.countSales(ctx, ts.tx)
}

// =============================================================================
// REPORT STORE (pos.ReportStore interface)
// =============================================================================

// ensureReports creates the reports table lazily on first use.
func (s *Store) ensureReports(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_code TEXT UNIQUE NOT NULL,
		report_type TEXT NOT NULL,
		report_name TEXT NOT NULL,
		report_data TEXT,
		summary_data TEXT,
		total_sales TEXT NOT NULL DEFAULT '0',
		total_items INTEGER NOT NULL DEFAULT 0,
		generated_by TEXT NOT NULL DEFAULT 'system',
		generated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_type ON reports(report_type);
	CREATE INDEX IF NOT EXISTS idx_reports_generated_at ON reports(generated_at);
	`)
	return err
}

// SaveReport appends a report snapshot row and assigns its id.
func (s *Store) SaveReport(ctx context.Context, r *pos.SavedReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureReports(ctx); err != nil {
		return fmt.Errorf("failed to ensure reports table: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reports
		(report_code, report_type, report_name, report_data, summary_data,
		 total_sales, total_items, generated_by, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Code, r.Type, r.Name, string(r.Data), string(r.Summary),
		r.TotalSales.String(), r.TotalItems, r.GeneratedBy,
		r.GeneratedAt.Format(pos.DateTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	r.ID, err = res.LastInsertId()
	return err
}

// ListReports returns saved reports matching the filter, most recent first.
func (s *Store) ListReports(ctx context.Context, f pos.ReportFilter) ([]pos.SavedReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ensureReports(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure reports table: %w", err)
	}

	q := newQuery(`SELECT id, report_code, report_type, report_name,
		report_data, summary_data, total_sales, total_items, generated_by,
		generated_at FROM reports`)
	if f.Type != "" {
		q.Where("report_type = ?", f.Type)
	}
	if f.StartDate != "" {
		q.Where("substr(generated_at, 1, 10) >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		q.Where("substr(generated_at, 1, 10) <= ?", f.EndDate)
	}
	q.OrderBy("generated_at DESC, id DESC")
	if f.Limit > 0 {
		q.Limit(f.Limit)
	}

	stmt, args := q.SQL()
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []pos.SavedReport
	for rows.Next() {
		var (
			r           pos.SavedReport
			data        sql.NullString
			summary     sql.NullString
			total       string
			generatedAt string
		)
		if err := rows.Scan(&r.ID, &r.Code, &r.Type, &r.Name, &data,
			&summary, &total, &r.TotalItems, &r.GeneratedBy, &generatedAt); err != nil {
			return nil, err
		}
		r.Data = []byte(data.String)
		r.Summary = []byte(summary.String)
		r.TotalSales = parseDecimal(total)
		r.GeneratedAt, _ = time.ParseInLocation(pos.DateTimeLayout, generatedAt, time.Local)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
