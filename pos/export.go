package pos

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strconv"
)

// csvHeader is the column order of CSV exports. JSON exports carry the same
// records so both formats serialize the same filtered sale set.
var csvHeader = []string{
	"sale_code", "order_id", "customer_name", "payment_method",
	"items_count", "total_amount", "tax_amount", "grand_total",
	"sale_date", "sale_time",
}

// exportRecord is the deterministic serialization of one sale: money as
// fixed two-decimal strings, ISO dates, HH:MM:SS times.
type exportRecord struct {
	SaleCode      string `json:"sale_code"`
	OrderID       string `json:"order_id"`
	CustomerName  string `json:"customer_name"`
	PaymentMethod string `json:"payment_method"`
	ItemsCount    int    `json:"items_count"`
	TotalAmount   string `json:"total_amount"`
	TaxAmount     string `json:"tax_amount"`
	GrandTotal    string `json:"grand_total"`
	SaleDate      string `json:"sale_date"`
	SaleTime      string `json:"sale_time"`
}

func toExportRecord(s Sale) exportRecord {
	rec := exportRecord{
		SaleCode:      s.Code,
		CustomerName:  s.CustomerName,
		PaymentMethod: s.PaymentMethod,
		ItemsCount:    s.ItemsCount,
		TotalAmount:   s.TotalAmount.StringFixed(2),
		TaxAmount:     s.TaxAmount.StringFixed(2),
		GrandTotal:    s.GrandTotal.StringFixed(2),
		SaleDate:      s.SaleDate,
		SaleTime:      s.SaleTime,
	}
	if s.OrderID != nil {
		rec.OrderID = strconv.FormatInt(*s.OrderID, 10)
	}
	return rec
}

// ExportCSV serializes the filtered sale set as CSV: a header row, one row
// per sale, text fields quoted only when they embed the delimiter.
func (l *SaleLedger) ExportCSV(ctx context.Context, f SaleFilter) ([]byte, error) {
	sales, err := l.List(ctx, f)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, s := range sales {
		rec := toExportRecord(s)
		row := []string{
			rec.SaleCode, rec.OrderID, rec.CustomerName, rec.PaymentMethod,
			strconv.Itoa(rec.ItemsCount), rec.TotalAmount, rec.TaxAmount,
			rec.GrandTotal, rec.SaleDate, rec.SaleTime,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportJSON serializes the same filtered sale set as indented JSON.
func (l *SaleLedger) ExportJSON(ctx context.Context, f SaleFilter) ([]byte, error) {
	sales, err := l.List(ctx, f)
	if err != nil {
		return nil, err
	}
	records := make([]exportRecord, len(sales))
	for i, s := range sales {
		records[i] = toExportRecord(s)
	}
	return json.MarshalIndent(records, "", "  ")
}
