package license

import (
	"time"

	"github.com/warp/license-registry/generic"
)

// =============================================================================
// MONTHLY LIMITS
// =============================================================================

// Limits are the per-employee, per-calendar-month quotas.
type Limits struct {
	FullDayLicenses  int            // max full-day records
	ShortLicenses    int            // max partial-day records
	MaxHoursPerMonth generic.Amount // max summed hours across partial-day records
}

// DefaultLimits are the department's standing quotas.
var DefaultLimits = Limits{
	FullDayLicenses:  3,
	ShortLicenses:    4,
	MaxHoursPerMonth: generic.NewAmountFromInt(12, generic.UnitHours),
}

// =============================================================================
// MONTHLY STATS
// =============================================================================

type MonthlyStats struct {
	EmployeeID EmployeeID
	Year       int
	Month      time.Month

	FullDayCount      int
	PartialDayCount   int
	TotalPartialHours generic.Amount

	RemainingFullDays      int
	RemainingShortLicenses int
	RemainingHours         generic.Amount
}

// AtOrOverQuota reports whether any axis has no remaining capacity.
func (s MonthlyStats) AtOrOverQuota() bool {
	return s.RemainingFullDays == 0 || s.RemainingShortLicenses == 0 || s.RemainingHours.IsZero()
}

// MonthlyStats counts the employee's records dated inside the calendar
// month. A record counts as partial when it carries positive hours,
// otherwise as full. Pure function of its inputs; never cached.
func (l Limits) MonthlyStats(employeeID EmployeeID, year int, month time.Month, records []LeaveRecord) MonthlyStats {
	period := generic.MonthPeriod(year, month)
	stats := MonthlyStats{
		EmployeeID:        employeeID,
		Year:              year,
		Month:             month,
		TotalPartialHours: generic.NewAmountFromInt(0, generic.UnitHours),
	}

	for _, r := range records {
		if r.EmployeeID != employeeID || !period.Contains(r.LicenseDate) {
			continue
		}
		if r.IsPartial() {
			stats.PartialDayCount++
			stats.TotalPartialHours = stats.TotalPartialHours.Add(*r.Hours)
		} else {
			stats.FullDayCount++
		}
	}

	stats.RemainingFullDays = max(0, l.FullDayLicenses-stats.FullDayCount)
	stats.RemainingShortLicenses = max(0, l.ShortLicenses-stats.PartialDayCount)
	stats.RemainingHours = l.MaxHoursPerMonth.Sub(stats.TotalPartialHours).ClampZero()
	return stats
}

// ComputeMonthlyStats uses DefaultLimits.
func ComputeMonthlyStats(employeeID EmployeeID, year int, month time.Month, records []LeaveRecord) MonthlyStats {
	return DefaultLimits.MonthlyStats(employeeID, year, month, records)
}
