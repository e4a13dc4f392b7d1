// Package license implements the leave-record ("license") core: ordering of
// employees and records, monthly quota aggregation, the limit and duplicate
// validator, and report grouping.
package license

import (
	"strings"
	"time"

	"github.com/warp/license-registry/generic"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// EmployeeID is opaque: some backends use integers, others UUID strings.
type EmployeeID string

type LicenseID string

// =============================================================================
// CATEGORY - Closed set of employee classifications
// =============================================================================

// Category is stored as its Arabic label, which is what existing databases
// and printed reports carry.
type Category string

const (
	CategoryOfficer      Category = "ضابط"
	CategoryNCO          Category = "ضابط صف"
	CategoryProfessional Category = "مهني"
	CategoryCivilian     Category = "مدني"
)

// Categories lists the known categories in report order.
var Categories = []Category{CategoryOfficer, CategoryNCO, CategoryProfessional, CategoryCivilian}

var categoryAliases = map[string]Category{
	"ضابط":                     CategoryOfficer,
	"officer":                  CategoryOfficer,
	"ضابط صف":                  CategoryNCO,
	"nco":                      CategoryNCO,
	"non-commissioned officer": CategoryNCO,
	"non commissioned officer": CategoryNCO,
	"مهني":                     CategoryProfessional,
	"professional":             CategoryProfessional,
	"مدني":                     CategoryCivilian,
	"civilian":                 CategoryCivilian,
}

// ParseCategory maps an Arabic or English label onto the closed set.
func ParseCategory(s string) (Category, bool) {
	c, ok := categoryAliases[strings.ToLower(strings.Join(strings.Fields(s), " "))]
	return c, ok
}

// LegacyCategory wraps a value read from persistence that is not in the
// closed set. It is kept verbatim and sorts after every known category.
// Only stores should call this; user input goes through ParseCategory.
func LegacyCategory(raw string) Category {
	if c, ok := ParseCategory(raw); ok {
		return c
	}
	return Category(raw)
}

// Known reports whether c is one of the four defined categories.
func (c Category) Known() bool {
	switch c {
	case CategoryOfficer, CategoryNCO, CategoryProfessional, CategoryCivilian:
		return true
	}
	return false
}

// =============================================================================
// LICENSE TYPE
// =============================================================================

type LicenseType string

const (
	FullDay    LicenseType = "يوم كامل"
	PartialDay LicenseType = "نصف يوم"
)

var licenseTypeAliases = map[string]LicenseType{
	"يوم كامل":    FullDay,
	"full day":    FullDay,
	"full_day":    FullDay,
	"full":        FullDay,
	"نصف يوم":     PartialDay,
	"partial day": PartialDay,
	"partial_day": PartialDay,
	"partial":     PartialDay,
	"half day":    PartialDay,
}

// ParseLicenseType maps an Arabic or English label onto the two types.
func ParseLicenseType(s string) (LicenseType, bool) {
	t, ok := licenseTypeAliases[strings.ToLower(strings.Join(strings.Fields(s), " "))]
	return t, ok
}

// =============================================================================
// ENTITIES
// =============================================================================

type Employee struct {
	ID         EmployeeID
	FullName   string
	Rank       string
	FileNumber string
	Category   Category
	CreatedAt  time.Time
}

// LeaveRecord is a single dated leave event for one employee.
type LeaveRecord struct {
	ID          LicenseID
	EmployeeID  EmployeeID
	Type        LicenseType
	LicenseDate generic.TimePoint

	// Hours is set (positive) only for partial-day records.
	Hours *generic.Amount

	// Month and Year are derived from LicenseDate on every write.
	Month int
	Year  int

	CreatedAt time.Time

	// Employee is populated when records are joined with the roster
	// (list, dashboard and report paths). Nil otherwise.
	Employee *Employee
}

// IsPartial classifies a record the way the monthly counters always have:
// by the presence of a positive hour count, not by Type.
func (r LeaveRecord) IsPartial() bool {
	return r.Hours != nil && r.Hours.IsPositive()
}

// Derive recomputes Month and Year from LicenseDate.
func (r *LeaveRecord) Derive() {
	r.Month = int(r.LicenseDate.Month())
	r.Year = r.LicenseDate.Year()
}

// =============================================================================
// ROSTER - Employee lookup used by validation and joins
// =============================================================================

// Roster resolves employee references.
type Roster map[EmployeeID]Employee

func NewRoster(employees []Employee) Roster {
	r := make(Roster, len(employees))
	for _, e := range employees {
		r[e.ID] = e
	}
	return r
}

func (r Roster) Lookup(id EmployeeID) (Employee, bool) {
	e, ok := r[id]
	return e, ok
}

// Attach returns a copy of records with Employee populated from the roster.
// Records whose employee does not resolve keep a nil Employee.
func (r Roster) Attach(records []LeaveRecord) []LeaveRecord {
	out := make([]LeaveRecord, len(records))
	for i, rec := range records {
		if e, ok := r[rec.EmployeeID]; ok {
			emp := e
			rec.Employee = &emp
		}
		out[i] = rec
	}
	return out
}
