package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/license-registry/generic"
	"github.com/warp/license-registry/license"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	m := New()
	h := generic.Hours(2)
	err := m.Seed(context.Background(),
		[]license.Employee{
			{ID: "emp-1", FullName: "أحمد", FileNumber: "F-1", Category: license.CategoryOfficer},
			{ID: "emp-2", FullName: "سالم", FileNumber: "F-2", Category: license.CategoryCivilian},
		},
		[]license.LeaveRecord{
			{ID: "lic-1", EmployeeID: "emp-1", Type: license.FullDay, LicenseDate: generic.NewTimePoint(2024, 3, 4)},
			{ID: "lic-2", EmployeeID: "emp-1", Type: license.PartialDay, LicenseDate: generic.NewTimePoint(2024, 3, 11), Hours: &h},
			{ID: "lic-3", EmployeeID: "emp-2", Type: license.FullDay, LicenseDate: generic.NewTimePoint(2024, 4, 2)},
		},
	)
	require.NoError(t, err)
	return m
}

func TestSeed_DerivesMonthYear(t *testing.T) {
	m := seeded(t)

	r, err := m.GetLicense(context.Background(), "lic-2")
	require.NoError(t, err)
	assert.Equal(t, 3, r.Month)
	assert.Equal(t, 2024, r.Year)
}

func TestSeed_RejectsWholeFixtureOnViolation(t *testing.T) {
	// GIVEN: A fixture whose second record duplicates the first one's date
	// WHEN: Seeding
	// THEN: Nothing from the fixture is kept

	m := New()
	date := generic.NewTimePoint(2024, 3, 4)
	err := m.Seed(context.Background(),
		[]license.Employee{{ID: "emp-1", FullName: "أحمد", FileNumber: "F-1", Category: license.CategoryOfficer}},
		[]license.LeaveRecord{
			{ID: "a", EmployeeID: "emp-1", Type: license.FullDay, LicenseDate: date},
			{ID: "b", EmployeeID: "emp-1", Type: license.FullDay, LicenseDate: date},
		},
	)
	assert.ErrorIs(t, err, generic.ErrDuplicateDate)

	employees, err := m.ListEmployees(context.Background())
	require.NoError(t, err)
	assert.Empty(t, employees)
}

func TestListLicenses_Filters(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	all, err := m.ListLicenses(ctx, license.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, license.LicenseID("lic-3"), all[0].ID, "newest date first")

	march, err := m.ListLicenses(ctx, license.ListFilter{Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.Len(t, march, 2)

	emp2, err := m.ListLicenses(ctx, license.ListFilter{EmployeeID: "emp-2"})
	require.NoError(t, err)
	require.Len(t, emp2, 1)
	assert.Equal(t, license.LicenseID("lic-3"), emp2[0].ID)
}

func TestSaveLicense_DuplicateDate(t *testing.T) {
	m := seeded(t)

	err := m.SaveLicense(context.Background(), license.LeaveRecord{
		ID: "lic-9", EmployeeID: "emp-1", Type: license.FullDay, LicenseDate: generic.NewTimePoint(2024, 3, 4),
	})
	var dup *license.DuplicateDateError
	assert.ErrorAs(t, err, &dup)
}

func TestSaveLicense_MoveDateFreesOldDay(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	require.NoError(t, m.SaveLicense(ctx, license.LeaveRecord{
		ID: "lic-1", EmployeeID: "emp-1", Type: license.FullDay, LicenseDate: generic.NewTimePoint(2024, 3, 5),
	}))
	// 2024-03-04 is free again
	assert.NoError(t, m.SaveLicense(ctx, license.LeaveRecord{
		ID: "lic-9", EmployeeID: "emp-1", Type: license.FullDay, LicenseDate: generic.NewTimePoint(2024, 3, 4),
	}))
}

func TestSaveEmployee_DuplicateFileNumber(t *testing.T) {
	m := seeded(t)

	err := m.SaveEmployee(context.Background(), license.Employee{ID: "emp-3", FullName: "x", FileNumber: "F-1"})
	assert.ErrorIs(t, err, generic.ErrDuplicateFileNumber)

	// renumbering an employee releases the old number
	require.NoError(t, m.SaveEmployee(context.Background(), license.Employee{ID: "emp-1", FullName: "أحمد", FileNumber: "F-10"}))
	assert.NoError(t, m.SaveEmployee(context.Background(), license.Employee{ID: "emp-3", FullName: "x", FileNumber: "F-1"}))
}

func TestDeleteEmployee_Cascades(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	require.NoError(t, m.DeleteEmployee(ctx, "emp-1"))

	all, err := m.ListLicenses(ctx, license.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, license.EmployeeID("emp-2"), all[0].EmployeeID)

	assert.ErrorIs(t, m.DeleteEmployee(ctx, "emp-1"), generic.ErrEmployeeNotFound)
}

func TestWithTx_Rollback(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := m.WithTx(ctx, func(tx license.Store) error {
		require.NoError(t, tx.DeleteLicense(ctx, "lic-1"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = m.GetLicense(ctx, "lic-1")
	assert.NoError(t, err)
}

func TestStoredRecordsAreCopies(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	r, err := m.GetLicense(ctx, "lic-2")
	require.NoError(t, err)
	*r.Hours = generic.Hours(9)

	again, err := m.GetLicense(ctx, "lic-2")
	require.NoError(t, err)
	assert.True(t, again.Hours.Equal(generic.Hours(2)))
}
