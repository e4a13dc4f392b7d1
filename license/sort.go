/*
sort.go - Deterministic ordering of employees and leave records

PURPOSE:
  One comparator, used by every listing, dashboard table and export, so
  the same employee appears in the same place everywhere.

COMPARATOR (first non-zero wins):
  1. Category order (unknown last)
  2. Rank order, for officers and NCOs only
  3. Tie-break:
     employees: full name ascending, locale-aware (Arabic collation)
     records:   license date descending (most recent first)

STABILITY:
  Sorting is stable. Entries equal under the comparator keep input order,
  which makes re-sorting a sorted slice a no-op.

SEE ALSO:
  - ordering.go: The static tables
  - report.go: Grouped rows reuse CompareEmployees
*/
package license

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// NameLocale drives the alphabetic tie-break on full names.
var NameLocale = language.Arabic

// Sorter holds a collator. A Sorter is not safe for concurrent use; the
// package-level helpers create one per call.
type Sorter struct {
	collator *collate.Collator
}

func NewSorter(tag language.Tag) *Sorter {
	return &Sorter{collator: collate.New(tag)}
}

// CompareEmployees orders by category, then rank, then name.
func (s *Sorter) CompareEmployees(a, b Employee) int {
	if c := compareStanding(a, b); c != 0 {
		return c
	}
	return s.collator.CompareString(a.FullName, b.FullName)
}

// CompareLicenses orders by the owning employee's category and rank, then
// by license date, newest first. Records without a joined employee are
// treated as an unknown category.
func (s *Sorter) CompareLicenses(a, b LeaveRecord) int {
	if c := compareStanding(employeeOf(a), employeeOf(b)); c != 0 {
		return c
	}
	return b.LicenseDate.Compare(a.LicenseDate)
}

func (s *Sorter) SortEmployees(employees []Employee) []Employee {
	out := slices.Clone(employees)
	slices.SortStableFunc(out, s.CompareEmployees)
	return out
}

func (s *Sorter) SortLicenses(records []LeaveRecord) []LeaveRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, s.CompareLicenses)
	return out
}

// SortEmployees returns a sorted copy; the input is not modified.
func SortEmployees(employees []Employee) []Employee {
	return NewSorter(NameLocale).SortEmployees(employees)
}

// SortLicenses returns a sorted copy; the input is not modified.
func SortLicenses(records []LeaveRecord) []LeaveRecord {
	return NewSorter(NameLocale).SortLicenses(records)
}

func compareStanding(a, b Employee) int {
	if c := CategoryOrder(a.Category) - CategoryOrder(b.Category); c != 0 {
		return sign(c)
	}
	// Same category from here on, so one rank table applies to both.
	return sign(RankOrder(a.Category, a.Rank) - RankOrder(b.Category, b.Rank))
}

func employeeOf(r LeaveRecord) Employee {
	if r.Employee == nil {
		return Employee{}
	}
	return *r.Employee
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
