package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/license-registry/generic"
)

func TestMonthPeriod_CalendarBoundaries(t *testing.T) {
	// GIVEN: March 2024
	// WHEN: Checking dates at and around the edges
	// THEN: Only dates inside the calendar month are contained

	march := generic.MonthPeriod(2024, time.March)

	assert.Equal(t, "[2024-03-01, 2024-03-31]", march.String())
	assert.True(t, march.Contains(generic.NewTimePoint(2024, 3, 1)))
	assert.True(t, march.Contains(generic.NewTimePoint(2024, 3, 31)))
	assert.False(t, march.Contains(generic.NewTimePoint(2024, 2, 29)))
	assert.False(t, march.Contains(generic.NewTimePoint(2024, 4, 1)))
	assert.False(t, march.Contains(generic.NewTimePoint(2023, 3, 15)))
}

func TestMonthOf(t *testing.T) {
	p := generic.MonthOf(generic.NewTimePoint(2024, 2, 14))

	assert.Equal(t, "2024-02-01", p.Start.String())
	assert.Equal(t, "2024-02-29", p.End.String())
}

func TestPreviousPeriod(t *testing.T) {
	jan := generic.MonthPeriod(2024, time.January)

	assert.Equal(t, "[2023-12-01, 2023-12-31]", jan.PreviousPeriod().String())
	assert.Equal(t, "[2024-02-01, 2024-02-29]", generic.MonthPeriod(2024, time.March).PreviousPeriod().String())
}
