/*
report.go - Report engine and saved report snapshots

PURPOSE:
  Stateless query/aggregation layer over the sales ledger. Produces a
  summary, per-date and per-hour breakdowns and a top-product ranking for a
  named period or an explicit date range, and optionally persists the
  result as an immutable snapshot.

GRACEFUL DEGRADATION:
  Report generation never propagates a hard failure. If the sales dataset
  is unavailable or a query fails, the engine returns a well-formed empty
  report carrying the requested period label. Persistence failures degrade
  to "generated but not saved"; the generation result is unaffected.
*/
package pos

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Defaults for the report engine.
const (
	DefaultTopProducts = 10
	DefaultRawDataCap  = 1000
)

// ReportEngine aggregates the sales ledger into reports.
type ReportEngine struct {
	store Store
	topN  int
	cap   int // max raw rows attached to a report
	now   func() time.Time
}

// NewReportEngine creates a report engine backed by store with default
// top-product and raw-data limits.
func NewReportEngine(store Store) *ReportEngine {
	return &ReportEngine{
		store: store,
		topN:  DefaultTopProducts,
		cap:   DefaultRawDataCap,
		now:   time.Now,
	}
}

// TopN overrides the number of ranked products (default 10).
func (e *ReportEngine) TopN(n int) *ReportEngine {
	if n > 0 {
		e.topN = n
	}
	return e
}

// GenerateSalesReport builds a sales report for daily|weekly|monthly|all.
// A specificDate (YYYY-MM-DD) pins a daily report to that exact date. The
// hourly breakdown is included for daily reports only. Never returns an
// error: any aggregation failure yields an empty report with the requested
// period label.
func (e *ReportEngine) GenerateSalesReport(ctx context.Context, period Period, specificDate string) *Report {
	var (
		r     DateRange
		label string
	)
	if period == PeriodDaily && specificDate != "" {
		r = DateRange{Start: specificDate, End: specificDate}
		label = "Date: " + specificDate
	} else {
		r = period.Range(e.now())
		label = period.Label()
	}

	sales, err := e.store.ListSales(ctx, SaleFilter{StartDate: r.Start, EndDate: r.End})
	if err != nil {
		return EmptyReport(label, e.now())
	}

	report := e.build(ReportTypeSales, label, sales, true, true)
	if period == PeriodDaily {
		report.HourlyBreakdown = hourlyBreakdown(sales)
	}
	return report
}

// GenerateCustomReport is the same engine parameterized by an explicit date
// range, with the includes toggling the optional sections.
func (e *ReportEngine) GenerateCustomReport(ctx context.Context, r DateRange, includeSummary, includeBreakdown bool) *Report {
	label := customLabel(r)
	sales, err := e.store.ListSales(ctx, SaleFilter{StartDate: r.Start, EndDate: r.End})
	if err != nil {
		rep := EmptyReport(label, e.now())
		rep.Type = ReportTypeCustom
		return rep
	}
	return e.build(ReportTypeCustom, label, sales, includeSummary, includeBreakdown)
}

func customLabel(r DateRange) string {
	switch {
	case r.Start != "" && r.End != "":
		if r.Start == r.End {
			return "Date: " + r.Start
		}
		return r.Start + " to " + r.End
	case r.Start != "":
		return "From " + r.Start
	case r.End != "":
		return "Until " + r.End
	}
	return "All Time"
}

func (e *ReportEngine) build(reportType, label string, sales []Sale, includeSummary, includeBreakdown bool) *Report {
	report := &Report{
		Type:        reportType,
		Period:      label,
		TopProducts: topProducts(sales, e.topN),
		RawData:     sales,
		GeneratedAt: e.now(),
	}
	if len(sales) > e.cap {
		report.RawData = sales[:e.cap]
	}
	if includeSummary {
		report.Summary = summarize(sales)
	}
	if includeBreakdown {
		report.DailyBreakdown = dailyBreakdown(sales)
	} else {
		report.DailyBreakdown = []DailyBucket{}
	}
	return report
}

// EmptyReport is the well-formed zero-value report: all-zero summary, empty
// breakdowns, the requested period label.
func EmptyReport(label string, at time.Time) *Report {
	return &Report{
		Type:   ReportTypeSales,
		Period: label,
		Summary: &ReportSummary{
			TotalSales:         decimal.Zero,
			AverageTransaction: decimal.Zero,
		},
		DailyBreakdown: []DailyBucket{},
		TopProducts:    []ProductRank{},
		RawData:        []Sale{},
		GeneratedAt:    at,
	}
}

// =============================================================================
// AGGREGATION
// =============================================================================

func summarize(sales []Sale) *ReportSummary {
	s := &ReportSummary{
		TotalSales:         decimal.Zero,
		AverageTransaction: decimal.Zero,
	}
	for _, sale := range sales {
		s.TransactionCount++
		s.TotalItems += sale.ItemsCount
		s.TotalSales = s.TotalSales.Add(sale.TotalAmount)
	}
	if s.TransactionCount > 0 {
		s.AverageTransaction = s.TotalSales.Div(decimal.NewFromInt(int64(s.TransactionCount))).Round(2)
	}
	return s
}

func dailyBreakdown(sales []Sale) []DailyBucket {
	byDate := make(map[string]*DailyBucket)
	for _, sale := range sales {
		b, ok := byDate[sale.SaleDate]
		if !ok {
			b = &DailyBucket{Date: sale.SaleDate, TotalSales: decimal.Zero}
			byDate[sale.SaleDate] = b
		}
		b.Transactions++
		b.ItemsSold += sale.ItemsCount
		b.TotalSales = b.TotalSales.Add(sale.TotalAmount)
	}

	buckets := make([]DailyBucket, 0, len(byDate))
	for _, b := range byDate {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Date > buckets[j].Date })
	return buckets
}

func hourlyBreakdown(sales []Sale) []HourlyBucket {
	byHour := make(map[int]*HourlyBucket)
	for _, sale := range sales {
		hour, ok := saleHour(sale.SaleTime)
		if !ok {
			continue
		}
		b, exists := byHour[hour]
		if !exists {
			b = &HourlyBucket{Hour: hour, Revenue: decimal.Zero}
			byHour[hour] = b
		}
		b.Transactions++
		b.Revenue = b.Revenue.Add(sale.TotalAmount)
	}

	buckets := make([]HourlyBucket, 0, len(byHour))
	for _, b := range byHour {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Hour < buckets[j].Hour })
	return buckets
}

func saleHour(t string) (int, bool) {
	if len(t) < 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(t[:2])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}

func topProducts(sales []Sale, limit int) []ProductRank {
	byProduct := make(map[int64]*ProductRank)
	for _, sale := range sales {
		for _, it := range sale.Items {
			r, ok := byProduct[it.ProductID]
			if !ok {
				r = &ProductRank{ProductID: it.ProductID, Name: it.Name, Revenue: decimal.Zero}
				byProduct[it.ProductID] = r
			}
			qty := it.Quantity
			if qty <= 0 {
				qty = 1
			}
			r.Quantity += qty
			r.Revenue = r.Revenue.Add(itemRevenue(it))
			if r.Name == "" {
				r.Name = it.Name
			}
		}
	}

	ranks := make([]ProductRank, 0, len(byProduct))
	for _, r := range byProduct {
		ranks = append(ranks, *r)
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Quantity != ranks[j].Quantity {
			return ranks[i].Quantity > ranks[j].Quantity
		}
		if !ranks[i].Revenue.Equal(ranks[j].Revenue) {
			return ranks[i].Revenue.GreaterThan(ranks[j].Revenue)
		}
		return ranks[i].ProductID < ranks[j].ProductID
	})
	if len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// Save persists the generated report as an immutable snapshot and returns
// the stored row. Callers treat a failure here as "generated but not
// saved", never as a failed generation.
func (e *ReportEngine) Save(ctx context.Context, report *Report, name string) (*SavedReport, error) {
	data, err := json.Marshal(report.RawData)
	if err != nil {
		return nil, err
	}
	summary := report.Summary
	if summary == nil {
		summary = summarize(report.RawData)
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}

	now := e.now()
	saved := &SavedReport{
		Code:        reportCode(report, now),
		Type:        report.Type,
		Name:        name,
		Data:        data,
		Summary:     summaryJSON,
		TotalSales:  summary.TotalSales,
		TotalItems:  summary.TotalItems,
		GeneratedBy: "system",
		GeneratedAt: now,
	}
	if err := e.store.SaveReport(ctx, saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// reportCode derives the snapshot code from period and generation time,
// e.g. "sales_2025-03-10_1741600000000".
func reportCode(report *Report, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d", report.Type, at.Format(DateLayout), at.UnixMilli())
}

// ListSaved returns persisted report snapshots, most recent first.
func (e *ReportEngine) ListSaved(ctx context.Context, f ReportFilter) ([]SavedReport, error) {
	return e.store.ListReports(ctx, f)
}
