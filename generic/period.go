package generic

import "time"

// =============================================================================
// PERIOD - Calendar window used for quota aggregation
// =============================================================================

// Period is an inclusive date range [Start, End].
//
// Monthly quotas are computed over calendar months, never over a rolling
// 30-day window:
//   - 2024-03-31 and 2024-04-01 fall into different periods
//   - 2024-02-01 .. 2024-02-29 is one period (leap year)
type Period struct {
	Start TimePoint
	End   TimePoint
}

// MonthPeriod returns the calendar month [1st, last day].
func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// MonthOf returns the calendar month containing t.
func MonthOf(t TimePoint) Period {
	return MonthPeriod(t.Year(), t.Month())
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// PreviousPeriod returns the calendar month before this one.
func (p Period) PreviousPeriod() Period {
	return MonthOf(p.Start.AddMonths(-1))
}
