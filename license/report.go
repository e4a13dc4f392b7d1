package license

import (
	"slices"
	"strings"
	"time"

	"github.com/warp/license-registry/generic"
)

// =============================================================================
// REPORTING HOUR WEIGHTS
// =============================================================================

// HourWeights are reporting-only estimates of how long each leave type
// lasts, independent of the recorded Hours field. Printed reports show a
// full day as 8h and a partial day as 4h.
type HourWeights struct {
	FullDay    generic.Amount
	PartialDay generic.Amount
}

var ReportingHourWeights = HourWeights{
	FullDay:    generic.NewAmountFromInt(8, generic.UnitHours),
	PartialDay: generic.NewAmountFromInt(4, generic.UnitHours),
}

// =============================================================================
// GROUPING
// =============================================================================

// GroupedRow is one employee's line in a report.
type GroupedRow struct {
	Employee   Employee
	FullDays   int
	HalfDays   int
	TotalHours generic.Amount
}

// GroupByEmployee sums records per employee using ReportingHourWeights.
// Records without a joined Employee are dropped. Rows come out in
// SortEmployees order.
func GroupByEmployee(records []LeaveRecord) []GroupedRow {
	return ReportingHourWeights.GroupByEmployee(records)
}

func (w HourWeights) GroupByEmployee(records []LeaveRecord) []GroupedRow {
	index := make(map[EmployeeID]int)
	var rows []GroupedRow

	for _, r := range records {
		if r.Employee == nil {
			continue
		}
		i, ok := index[r.EmployeeID]
		if !ok {
			i = len(rows)
			index[r.EmployeeID] = i
			rows = append(rows, GroupedRow{
				Employee:   *r.Employee,
				TotalHours: generic.NewAmountFromInt(0, generic.UnitHours),
			})
		}
		row := &rows[i]
		if r.IsPartial() {
			row.HalfDays++
			row.TotalHours = row.TotalHours.Add(w.PartialDay)
		} else {
			row.FullDays++
			row.TotalHours = row.TotalHours.Add(w.FullDay)
		}
	}

	sorter := NewSorter(NameLocale)
	slices.SortStableFunc(rows, func(a, b GroupedRow) int {
		return sorter.CompareEmployees(a.Employee, b.Employee)
	})
	return rows
}

// =============================================================================
// FILTERING
// =============================================================================

// Filter selects records for list and report views. Zero fields match all.
type Filter struct {
	EmployeeID EmployeeID
	Year       int
	Month      int
	Category   Category
	Search     string // substring of full name or file number
}

// Apply keeps matching records. Category and Search need joined employees;
// records without one never match those criteria.
func (f Filter) Apply(records []LeaveRecord) []LeaveRecord {
	search := strings.TrimSpace(f.Search)
	out := make([]LeaveRecord, 0, len(records))
	for _, r := range records {
		if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Year != 0 && r.LicenseDate.Year() != f.Year {
			continue
		}
		if f.Month != 0 && int(r.LicenseDate.Month()) != f.Month {
			continue
		}
		if f.Category != "" && (r.Employee == nil || r.Employee.Category != f.Category) {
			continue
		}
		if search != "" && (r.Employee == nil || !MatchesSearch(*r.Employee, search)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// MatchesSearch is a case-insensitive substring match on name or file number.
func MatchesSearch(e Employee, q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	return strings.Contains(strings.ToLower(e.FullName), q) ||
		strings.Contains(strings.ToLower(e.FileNumber), q)
}

// RecentlyAdded returns up to n records ordered by CreatedAt, newest first.
func RecentlyAdded(records []LeaveRecord, n int) []LeaveRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b LeaveRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// =============================================================================
// DASHBOARD
// =============================================================================

type Dashboard struct {
	Year  int
	Month time.Month

	Employees       int
	LicensesInMonth int
	FullDaysInMonth int
	PartialInMonth  int
	HoursInMonth    generic.Amount
	AtQuota         []MonthlyStats // employees with an exhausted axis, SortEmployees order
	RecentlyAdded   []LeaveRecord
}

// BuildDashboard summarises the month containing asOf.
func (l Limits) BuildDashboard(employees []Employee, records []LeaveRecord, asOf generic.TimePoint, recent int) Dashboard {
	d := Dashboard{
		Year:         asOf.Year(),
		Month:        asOf.Month(),
		Employees:    len(employees),
		HoursInMonth: generic.NewAmountFromInt(0, generic.UnitHours),
	}

	period := generic.MonthOf(asOf)
	for _, r := range records {
		if !period.Contains(r.LicenseDate) {
			continue
		}
		d.LicensesInMonth++
		if r.IsPartial() {
			d.PartialInMonth++
			d.HoursInMonth = d.HoursInMonth.Add(*r.Hours)
		} else {
			d.FullDaysInMonth++
		}
	}

	for _, e := range SortEmployees(employees) {
		stats := l.MonthlyStats(e.ID, d.Year, d.Month, records)
		if stats.AtOrOverQuota() {
			d.AtQuota = append(d.AtQuota, stats)
		}
	}

	d.RecentlyAdded = RecentlyAdded(NewRoster(employees).Attach(records), recent)
	return d
}
