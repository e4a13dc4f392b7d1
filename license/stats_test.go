package license_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/license-registry/generic"
	"github.com/warp/license-registry/license"
)

func hours(n float64) *generic.Amount {
	h := generic.Hours(n)
	return &h
}

func full(id string, employee license.EmployeeID, y int, m time.Month, d int) license.LeaveRecord {
	return license.LeaveRecord{
		ID:          license.LicenseID(id),
		EmployeeID:  employee,
		Type:        license.FullDay,
		LicenseDate: generic.NewTimePoint(y, m, d),
	}
}

func partial(id string, employee license.EmployeeID, y int, m time.Month, d int, h float64) license.LeaveRecord {
	return license.LeaveRecord{
		ID:          license.LicenseID(id),
		EmployeeID:  employee,
		Type:        license.PartialDay,
		LicenseDate: generic.NewTimePoint(y, m, d),
		Hours:       hours(h),
	}
}

func assertHours(t *testing.T, want float64, got generic.Amount) {
	t.Helper()
	assert.True(t, generic.Hours(want).Equal(got), "want %v hours, got %s", want, got)
}

func TestMonthlyStats_Empty(t *testing.T) {
	s := license.ComputeMonthlyStats("emp-1", 2024, time.March, nil)

	assert.Zero(t, s.FullDayCount)
	assert.Zero(t, s.PartialDayCount)
	assertHours(t, 0, s.TotalPartialHours)
	assert.Equal(t, 3, s.RemainingFullDays)
	assert.Equal(t, 4, s.RemainingShortLicenses)
	assertHours(t, 12, s.RemainingHours)
	assert.False(t, s.AtOrOverQuota())
}

func TestMonthlyStats_CountsOnlyEmployeeAndCalendarMonth(t *testing.T) {
	// GIVEN: Records on both sides of the March boundary and for another employee
	// WHEN: Computing March 2024
	// THEN: Only emp-1's March records count

	records := []license.LeaveRecord{
		full("feb-29", "emp-1", 2024, time.February, 29),
		full("mar-1", "emp-1", 2024, time.March, 1),
		partial("mar-15", "emp-1", 2024, time.March, 15, 2.5),
		full("mar-31", "emp-1", 2024, time.March, 31),
		full("apr-1", "emp-1", 2024, time.April, 1),
		full("other", "emp-2", 2024, time.March, 10),
		full("last-year", "emp-1", 2023, time.March, 10),
	}

	s := license.ComputeMonthlyStats("emp-1", 2024, time.March, records)

	assert.Equal(t, 2, s.FullDayCount)
	assert.Equal(t, 1, s.PartialDayCount)
	assertHours(t, 2.5, s.TotalPartialHours)
	assert.Equal(t, 1, s.RemainingFullDays)
	assert.Equal(t, 3, s.RemainingShortLicenses)
	assertHours(t, 9.5, s.RemainingHours)
}

func TestMonthlyStats_ClassifiesByHoursNotType(t *testing.T) {
	// A partial-typed record without hours counts as full; a full-typed
	// record carrying hours counts as partial.
	untyped := partial("p0", "emp-1", 2024, time.May, 2, 0)
	untyped.Hours = nil
	mistyped := full("f-with-hours", "emp-1", 2024, time.May, 3)
	mistyped.Hours = hours(3)
	zero := partial("p-zero", "emp-1", 2024, time.May, 4, 0)

	s := license.ComputeMonthlyStats("emp-1", 2024, time.May, []license.LeaveRecord{untyped, mistyped, zero})

	assert.Equal(t, 2, s.FullDayCount)
	assert.Equal(t, 1, s.PartialDayCount)
	assertHours(t, 3, s.TotalPartialHours)
}

func TestMonthlyStats_RemainingClampsAtZero(t *testing.T) {
	records := []license.LeaveRecord{
		full("f1", "emp-1", 2024, time.June, 1),
		full("f2", "emp-1", 2024, time.June, 2),
		full("f3", "emp-1", 2024, time.June, 3),
		full("f4", "emp-1", 2024, time.June, 4),
		partial("p1", "emp-1", 2024, time.June, 5, 8),
		partial("p2", "emp-1", 2024, time.June, 6, 7),
	}

	s := license.ComputeMonthlyStats("emp-1", 2024, time.June, records)

	assert.Equal(t, 4, s.FullDayCount)
	assert.Equal(t, 0, s.RemainingFullDays)
	assertHours(t, 15, s.TotalPartialHours)
	assertHours(t, 0, s.RemainingHours)
	assert.True(t, s.AtOrOverQuota())
}

func TestMonthlyStats_CustomLimits(t *testing.T) {
	limits := license.Limits{
		FullDayLicenses:  1,
		ShortLicenses:    2,
		MaxHoursPerMonth: generic.Hours(6),
	}

	s := limits.MonthlyStats("emp-1", 2024, time.July, []license.LeaveRecord{
		full("f1", "emp-1", 2024, time.July, 1),
		partial("p1", "emp-1", 2024, time.July, 2, 1.5),
	})

	assert.Equal(t, 0, s.RemainingFullDays)
	assert.Equal(t, 1, s.RemainingShortLicenses)
	assertHours(t, 4.5, s.RemainingHours)
}
