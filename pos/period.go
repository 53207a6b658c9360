package pos

import "time"

// Period is a named date-range shorthand used to bound aggregation queries.
// Ledger stats use today/week/month/all; the report engine uses
// daily/weekly/monthly/all. Both families resolve to the same ranges.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"

	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// DateRange bounds a query by sale/creation date, inclusive on both ends.
// An empty field means unbounded on that side.
type DateRange struct {
	Start string // YYYY-MM-DD
	End   string // YYYY-MM-DD
}

// IsZero reports whether the range is fully unbounded.
func (r DateRange) IsZero() bool {
	return r.Start == "" && r.End == ""
}

// Intersect narrows r by another range. ISO dates compare lexicographically.
func (r DateRange) Intersect(other DateRange) DateRange {
	out := r
	if other.Start != "" && (out.Start == "" || other.Start > out.Start) {
		out.Start = other.Start
	}
	if other.End != "" && (out.End == "" || other.End < out.End) {
		out.End = other.End
	}
	return out
}

// Range resolves the period relative to now. Weeks are ISO weeks
// (Monday through Sunday).
func (p Period) Range(now time.Time) DateRange {
	switch p {
	case PeriodToday, PeriodDaily:
		d := now.Format(DateLayout)
		return DateRange{Start: d, End: d}
	case PeriodWeek, PeriodWeekly:
		monday := startOfISOWeek(now)
		return DateRange{
			Start: monday.Format(DateLayout),
			End:   monday.AddDate(0, 0, 6).Format(DateLayout),
		}
	case PeriodMonth, PeriodMonthly:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return DateRange{
			Start: first.Format(DateLayout),
			End:   first.AddDate(0, 1, -1).Format(DateLayout),
		}
	}
	return DateRange{}
}

// Label is the human display label carried by generated reports.
func (p Period) Label() string {
	switch p {
	case PeriodToday, PeriodDaily:
		return "Today"
	case PeriodWeek, PeriodWeekly:
		return "This Week"
	case PeriodMonth, PeriodMonthly:
		return "This Month"
	}
	return "All Time"
}

func startOfISOWeek(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	wd := int(day.Weekday())
	if wd == 0 {
		wd = 7 // Sunday belongs to the week that started the previous Monday
	}
	return day.AddDate(0, 0, 1-wd)
}
