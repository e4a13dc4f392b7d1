package license_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/license-registry/generic"
	"github.com/warp/license-registry/license"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var testRoster = license.NewRoster([]license.Employee{
	emp("emp-1", "أحمد", "نقيب", license.CategoryOfficer),
	emp("emp-2", "سالم", "", license.CategoryCivilian),
})

func validate(t *testing.T, c license.Candidate, existing []license.LeaveRecord) license.Decision {
	t.Helper()
	d, err := license.NewValidator(license.DefaultLimits).Validate(c, testRoster, existing)
	require.NoError(t, err)
	return d
}

func fullCandidate(date string) license.Candidate {
	return license.Candidate{EmployeeID: "emp-1", Type: license.FullDay, LicenseDate: date}
}

func partialCandidate(date string, h float64) license.Candidate {
	return license.Candidate{EmployeeID: "emp-1", Type: license.PartialDay, LicenseDate: date, Hours: hours(h)}
}

func fullDays(n int, y int, m time.Month) []license.LeaveRecord {
	var out []license.LeaveRecord
	for i := 0; i < n; i++ {
		out = append(out, full(fmt.Sprintf("f-%d", i), "emp-1", y, m, 1+i))
	}
	return out
}

func codes(findings []license.Finding) []string {
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = f.Code
	}
	return out
}

// =============================================================================
// DUPLICATE DATE
// =============================================================================

func TestValidate_DuplicateDateAlwaysBlocks(t *testing.T) {
	// GIVEN: emp-1 has a record on 2024-03-10 and no other usage
	// WHEN: Submitting any candidate for the same date
	// THEN: Blocked(duplicate_date), with the existing record attached

	existing := []license.LeaveRecord{full("existing", "emp-1", 2024, time.March, 10)}

	candidates := map[string]license.Candidate{
		"full day":            fullCandidate("2024-03-10"),
		"partial 1h":          partialCandidate("2024-03-10", 1),
		"partial 11h":         partialCandidate("2024-03-10", 11),
		"rfc3339 same day":    fullCandidate("2024-03-10T09:30:00+03:00"),
		"partial past limits": partialCandidate("2024-03-10", 20),
	}

	for name, c := range candidates {
		t.Run(name, func(t *testing.T) {
			d := validate(t, c, existing)

			assert.Equal(t, license.OutcomeBlocked, d.Outcome)
			assert.Equal(t, license.ReasonDuplicateDate, d.Reason)
			require.Len(t, d.Conflicts, 1)
			assert.Equal(t, license.LicenseID("existing"), d.Conflicts[0].ID)
			assert.False(t, d.Allowed())
		})
	}
}

func TestValidate_DuplicateBeatsLimitBlock(t *testing.T) {
	// Quota findings are still reported next to the duplicate block.
	existing := fullDays(3, 2024, time.March)

	d := validate(t, fullCandidate("2024-03-02"), existing)

	assert.Equal(t, license.ReasonDuplicateDate, d.Reason)
	assert.Equal(t, []string{"full_day_limit_reached"}, codes(d.Violations))
}

func TestValidate_SameDateOtherEmployeeIsFine(t *testing.T) {
	existing := []license.LeaveRecord{full("x", "emp-2", 2024, time.March, 10)}

	d := validate(t, fullCandidate("2024-03-10"), existing)

	assert.Equal(t, license.OutcomeAccepted, d.Outcome)
	assert.Empty(t, d.Conflicts)
}

// =============================================================================
// FULL-DAY AXIS
// =============================================================================

func TestValidate_FullDayBoundary(t *testing.T) {
	tests := []struct {
		existing int
		outcome  license.Outcome
		codes    []string
	}{
		{0, license.OutcomeAccepted, nil},
		{1, license.OutcomeAccepted, nil},
		{2, license.OutcomeWarned, []string{"last_full_day"}},
		{3, license.OutcomeBlocked, []string{"full_day_limit_reached"}},
		{5, license.OutcomeBlocked, []string{"full_day_limit_reached"}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d existing", tt.existing), func(t *testing.T) {
			d := validate(t, fullCandidate("2024-03-20"), fullDays(tt.existing, 2024, time.March))

			assert.Equal(t, tt.outcome, d.Outcome)
			findings := append(append([]license.Finding{}, d.Violations...), d.Warnings...)
			if tt.codes == nil {
				assert.Empty(t, findings)
			} else {
				assert.Equal(t, tt.codes, codes(findings))
			}
			if tt.outcome == license.OutcomeBlocked {
				assert.Equal(t, license.ReasonMonthlyLimitExceeded, d.Reason)
			}
		})
	}
}

func TestValidate_FullDayIgnoresOtherMonthsAndPartials(t *testing.T) {
	existing := append(fullDays(3, 2024, time.February),
		partial("p1", "emp-1", 2024, time.March, 1, 2),
		partial("p2", "emp-1", 2024, time.March, 2, 2),
		partial("p3", "emp-1", 2024, time.March, 3, 2),
		partial("p4", "emp-1", 2024, time.March, 4, 2),
	)

	d := validate(t, fullCandidate("2024-03-20"), existing)

	assert.Equal(t, license.OutcomeAccepted, d.Outcome)
}

// =============================================================================
// PARTIAL-DAY AXES
// =============================================================================

func TestValidate_HoursBoundary(t *testing.T) {
	// GIVEN: 10 partial hours recorded in April 2024 over 2 records
	existing := []license.LeaveRecord{
		partial("p1", "emp-1", 2024, time.April, 1, 6),
		partial("p2", "emp-1", 2024, time.April, 2, 4),
	}

	tests := []struct {
		name    string
		hours   float64
		outcome license.Outcome
		code    string
		excess  float64
	}{
		{"reaching the cap blocks", 2, license.OutcomeBlocked, "hours_limit_reached", 0},
		{"exceeding the cap blocks", 3, license.OutcomeBlocked, "hours_limit_exceeded", 1},
		{"within remaining is accepted", 1, license.OutcomeAccepted, "", 0},
		{"fractional within remaining", 1.5, license.OutcomeAccepted, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validate(t, partialCandidate("2024-04-20", tt.hours), existing)

			assert.Equal(t, tt.outcome, d.Outcome)
			if tt.code == "" {
				assert.Empty(t, d.Violations)
				assert.Empty(t, d.Warnings)
				return
			}
			require.Len(t, d.Violations, 1)
			assert.Equal(t, license.AxisHours, d.Violations[0].Axis)
			assert.Equal(t, tt.code, d.Violations[0].Code)
			assertHours(t, tt.excess, d.Violations[0].Excess)
			assert.Equal(t, license.ReasonMonthlyLimitExceeded, d.Reason)
		})
	}
}

func TestValidate_ShortCountBoundary(t *testing.T) {
	// GIVEN: 4 partial records of 1 hour each in May 2024
	var existing []license.LeaveRecord
	for i := 1; i <= 4; i++ {
		existing = append(existing, partial(fmt.Sprintf("p%d", i), "emp-1", 2024, time.May, i, 1))
	}

	d := validate(t, partialCandidate("2024-05-20", 1), existing)

	assert.Equal(t, license.OutcomeBlocked, d.Outcome)
	assert.Equal(t, license.ReasonMonthlyLimitExceeded, d.Reason)
	assert.Equal(t, []string{"short_limit_reached"}, codes(d.Violations))
}

func TestValidate_LastShortLicenseWarns(t *testing.T) {
	existing := []license.LeaveRecord{
		partial("p1", "emp-1", 2024, time.May, 1, 1),
		partial("p2", "emp-1", 2024, time.May, 2, 1),
		partial("p3", "emp-1", 2024, time.May, 3, 1),
	}

	d := validate(t, partialCandidate("2024-05-20", 1), existing)

	assert.Equal(t, license.OutcomeWarned, d.Outcome)
	assert.True(t, d.NeedsConfirmation())
	assert.True(t, d.Allowed())
	assert.Equal(t, []string{"last_short_license"}, codes(d.Warnings))
	assert.Len(t, d.Messages(), 1)
}

func TestValidate_BothPartialAxesReported(t *testing.T) {
	// GIVEN: 4 partial records totalling 11 hours
	// WHEN: A 2-hour partial candidate
	// THEN: Count block and hours block are both reported

	existing := []license.LeaveRecord{
		partial("p1", "emp-1", 2024, time.May, 1, 3),
		partial("p2", "emp-1", 2024, time.May, 2, 3),
		partial("p3", "emp-1", 2024, time.May, 3, 3),
		partial("p4", "emp-1", 2024, time.May, 4, 2),
	}

	d := validate(t, partialCandidate("2024-05-20", 2), existing)

	assert.Equal(t, license.OutcomeBlocked, d.Outcome)
	assert.Equal(t, []string{"short_limit_reached", "hours_limit_exceeded"}, codes(d.Violations))
	assert.Len(t, d.Messages(), 2)
}

func TestValidate_WarningAccompaniesBlock(t *testing.T) {
	// Count axis warns (one left) while the hours axis blocks.
	existing := []license.LeaveRecord{
		partial("p1", "emp-1", 2024, time.May, 1, 4),
		partial("p2", "emp-1", 2024, time.May, 2, 4),
		partial("p3", "emp-1", 2024, time.May, 3, 2),
	}

	d := validate(t, partialCandidate("2024-05-20", 2), existing)

	assert.Equal(t, license.OutcomeBlocked, d.Outcome)
	assert.Equal(t, []string{"hours_limit_reached"}, codes(d.Violations))
	assert.Equal(t, []string{"last_short_license"}, codes(d.Warnings))
}

func TestValidate_FractionalHoursBelowCap(t *testing.T) {
	d := validate(t, partialCandidate("2024-05-20", 1), []license.LeaveRecord{
		partial("p1", "emp-1", 2024, time.May, 1, 10.5),
	})

	assert.Equal(t, license.OutcomeAccepted, d.Outcome)
	assertHours(t, 1.5, d.Stats.RemainingHours)
	assertHours(t, 10.5, d.Stats.TotalPartialHours)
}

// =============================================================================
// EMPTY INPUT AND EDITS
// =============================================================================

func TestValidate_EmptyExistingAccepts(t *testing.T) {
	for _, c := range []license.Candidate{
		fullCandidate("2024-01-01"),
		partialCandidate("2024-01-01", 0.5),
		partialCandidate("2024-12-31", 11.5),
	} {
		d := validate(t, c, nil)

		assert.Equal(t, license.OutcomeAccepted, d.Outcome, c.LicenseDate)
		assert.Empty(t, d.Messages())
		assert.Equal(t, 3, d.Stats.RemainingFullDays)
	}
}

func TestValidate_ReplacesIDIgnoresEditedRecord(t *testing.T) {
	// GIVEN: 3 full days in March, one of which is being edited
	// WHEN: Moving the edited record to another March date
	// THEN: Neither the duplicate check nor the quota sees the old record

	existing := fullDays(3, 2024, time.March)
	c := fullCandidate("2024-03-01")
	c.ReplacesID = existing[0].ID

	d := validate(t, c, existing)

	assert.Equal(t, license.OutcomeWarned, d.Outcome)
	assert.Empty(t, d.Conflicts)
	assert.Equal(t, 2, d.Stats.FullDayCount)
}

func TestValidate_DoesNotModifyExisting(t *testing.T) {
	existing := fullDays(2, 2024, time.March)
	snapshot := append([]license.LeaveRecord(nil), existing...)
	c := fullCandidate("2024-03-01")
	c.ReplacesID = "f-1"

	_ = validate(t, c, existing)

	assert.Equal(t, snapshot, existing)
}

// =============================================================================
// INVALID INPUT
// =============================================================================

func TestValidate_InvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		candidate license.Candidate
		field     string
		notFound  bool
	}{
		{"missing employee", license.Candidate{Type: license.FullDay, LicenseDate: "2024-03-01"}, "employee_id", false},
		{"unknown employee", license.Candidate{EmployeeID: "ghost", Type: license.FullDay, LicenseDate: "2024-03-01"}, "employee_id", true},
		{"bad date", fullCandidate("2024-02-30"), "license_date", false},
		{"empty date", fullCandidate(""), "license_date", false},
		{"unknown type", license.Candidate{EmployeeID: "emp-1", Type: "sick", LicenseDate: "2024-03-01"}, "license_type", false},
		{"partial without hours", license.Candidate{EmployeeID: "emp-1", Type: license.PartialDay, LicenseDate: "2024-03-01"}, "hours", false},
		{"partial with zero hours", partialCandidate("2024-03-01", 0), "hours", false},
		{"partial with negative hours", partialCandidate("2024-03-01", -2), "hours", false},
		{"full day with hours", license.Candidate{EmployeeID: "emp-1", Type: license.FullDay, LicenseDate: "2024-03-01", Hours: hours(3)}, "hours", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := license.NewValidator(license.DefaultLimits).Validate(tt.candidate, testRoster, nil)

			require.Error(t, err)
			var inv *license.InvalidInputError
			require.True(t, errors.As(err, &inv))
			assert.Equal(t, tt.field, inv.Field)
			assert.True(t, generic.IsClientError(err))
			assert.Equal(t, tt.notFound, errors.Is(err, generic.ErrEmployeeNotFound))
			_, ok := license.DecisionFromError(err)
			assert.False(t, ok)
		})
	}
}

func TestDecisionFromError(t *testing.T) {
	d := validate(t, fullCandidate("2024-03-20"), fullDays(3, 2024, time.March))

	blocked := fmt.Errorf("submit: %w", &license.BlockedError{Decision: d})
	got, ok := license.DecisionFromError(blocked)
	require.True(t, ok)
	assert.Equal(t, license.OutcomeBlocked, got.Outcome)
	assert.ErrorIs(t, blocked, generic.ErrLimitExceeded)
	assert.True(t, generic.IsConflict(blocked))

	warned := validate(t, fullCandidate("2024-03-20"), fullDays(2, 2024, time.March))
	confirm := &license.ConfirmationRequiredError{Decision: warned}
	got, ok = license.DecisionFromError(confirm)
	require.True(t, ok)
	assert.Equal(t, license.OutcomeWarned, got.Outcome)
	assert.ErrorIs(t, confirm, generic.ErrConfirmationRequired)
}
