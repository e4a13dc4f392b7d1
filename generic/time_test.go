package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/license-registry/generic"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024-03-10", "2024-03-10", false},
		{" 2024-03-10 ", "2024-03-10", false},
		{"2024-03-10T23:30:00+03:00", "2024-03-10", false},
		{"2024-03-10T00:30:00-05:00", "2024-03-10", false},
		{"2024-02-29", "2024-02-29", false},
		{"2023-02-29", "", true},
		{"10/03/2024", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := generic.ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestTimePoint_DayGranularity(t *testing.T) {
	morning := generic.FromTime(time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC))
	evening := generic.TimePoint{Time: time.Date(2024, 3, 10, 22, 15, 0, 0, time.UTC)}
	next := generic.NewTimePoint(2024, 3, 11)

	assert.True(t, morning.Equal(evening))
	assert.Equal(t, 0, morning.Compare(evening))
	assert.True(t, evening.Before(next))
	assert.Equal(t, 1, next.Compare(evening))
	assert.True(t, next.AfterOrEqual(morning))
	assert.True(t, morning.BeforeOrEqual(evening))
}

func TestTimePoint_Arithmetic(t *testing.T) {
	d := generic.NewTimePoint(2024, 1, 31)

	assert.Equal(t, "2024-02-01", d.AddDays(1).String())
	assert.Equal(t, "2024-03-02", d.AddMonths(1).String())
	assert.Equal(t, "2023-12-31", generic.NewTimePoint(2024, 1, 1).AddDays(-1).String())
}

func TestEndOfMonth(t *testing.T) {
	assert.Equal(t, "2024-02-29", generic.EndOfMonth(2024, time.February).String())
	assert.Equal(t, "2023-02-28", generic.EndOfMonth(2023, time.February).String())
	assert.Equal(t, "2024-12-31", generic.EndOfMonth(2024, time.December).String())
	assert.Equal(t, "2024-04-30", generic.EndOfMonth(2024, time.April).String())
}

func TestValidMonth(t *testing.T) {
	assert.True(t, generic.ValidMonth(2024, 1))
	assert.True(t, generic.ValidMonth(2024, 12))
	assert.False(t, generic.ValidMonth(2024, 0))
	assert.False(t, generic.ValidMonth(2024, 13))
	assert.False(t, generic.ValidMonth(0, 5))
}

func TestAmount(t *testing.T) {
	a, err := generic.ParseAmount("2.5", generic.UnitHours)
	require.NoError(t, err)

	sum := a.Add(generic.Hours(0.5))
	assert.True(t, sum.Equal(generic.NewAmountFromInt(3, generic.UnitHours)))
	assert.Equal(t, "3", sum.String())
	assert.True(t, generic.Hours(1).Sub(generic.Hours(4)).ClampZero().IsZero())
	assert.True(t, generic.Hours(12).GreaterThanOrEqual(generic.Hours(12)))
	assert.InDelta(t, 2.5, a.Float64(), 1e-9)

	_, err = generic.ParseAmount("abc", generic.UnitHours)
	assert.Error(t, err)
}
