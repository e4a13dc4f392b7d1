/*
Package factory converts JSON fixtures to registry entities.

PURPOSE:
  The fixture data source (store/memory) is seeded from a JSON file so
  the registry can run without a database. The same format is produced
  by ToJSON, so a live database can be dumped into a fixture.

JSON SCHEMA:
  {
    "employees": [
      {
        "id": "emp-1",
        "full_name": "أحمد علي",
        "rank": "رائد",
        "file_number": "F-100",
        "category": "ضابط",
        "created_at": "2024-01-01T09:00:00Z"
      }
    ],
    "licenses": [
      {"id": "lic-1", "employee_id": "emp-1", "license_type": "يوم كامل", "license_date": "2024-03-04"},
      {"id": "lic-2", "employee_id": "emp-1", "license_type": "نصف يوم", "license_date": "2024-03-11", "hours": 2.5}
    ]
  }

LENIENCY:
  Fixtures are persisted data, not user input:
  - Unknown category labels are kept as legacy categories
  - Missing ids are generated
  - A partial-day record without hours is kept; it counts as a full day
    in the monthly counters, exactly as it would coming from a database
  Unparseable dates, unknown license types and non-positive hours are
  still errors.

SEE ALSO:
  - store/memory: Seed
  - license/types.go: Entities
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/warp/license-registry/generic"
	"github.com/warp/license-registry/license"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

type FixtureJSON struct {
	Employees []EmployeeJSON `json:"employees"`
	Licenses  []LicenseJSON  `json:"licenses"`
}

type EmployeeJSON struct {
	ID         string `json:"id,omitempty"`
	FullName   string `json:"full_name"`
	Rank       string `json:"rank,omitempty"`
	FileNumber string `json:"file_number"`
	Category   string `json:"category"`
	CreatedAt  string `json:"created_at,omitempty"`
}

type LicenseJSON struct {
	ID          string   `json:"id,omitempty"`
	EmployeeID  string   `json:"employee_id"`
	LicenseType string   `json:"license_type"`
	LicenseDate string   `json:"license_date"`
	Hours       *float64 `json:"hours,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
}

// Fixture is a parsed fixture ready for store/memory.Seed.
type Fixture struct {
	Employees []license.Employee
	Licenses  []license.LeaveRecord
}

// =============================================================================
// FIXTURE FACTORY
// =============================================================================

type FixtureFactory struct {
	newID func() string
	now   func() time.Time
}

func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{newID: uuid.NewString, now: time.Now}
}

// LoadFile reads and parses a fixture file.
func (f *FixtureFactory) LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return f.Parse(data)
}

func (f *FixtureFactory) Parse(data []byte) (*Fixture, error) {
	var fj FixtureJSON
	if err := json.Unmarshal(data, &fj); err != nil {
		return nil, fmt.Errorf("failed to parse fixture JSON: %w", err)
	}
	return f.FromJSON(fj)
}

func (f *FixtureFactory) FromJSON(fj FixtureJSON) (*Fixture, error) {
	out := &Fixture{
		Employees: make([]license.Employee, 0, len(fj.Employees)),
		Licenses:  make([]license.LeaveRecord, 0, len(fj.Licenses)),
	}

	for i, ej := range fj.Employees {
		e, err := f.employee(ej)
		if err != nil {
			return nil, fmt.Errorf("employees[%d]: %w", i, err)
		}
		out.Employees = append(out.Employees, e)
	}
	for i, lj := range fj.Licenses {
		r, err := f.license(lj)
		if err != nil {
			return nil, fmt.Errorf("licenses[%d]: %w", i, err)
		}
		out.Licenses = append(out.Licenses, r)
	}
	return out, nil
}

func (f *FixtureFactory) employee(ej EmployeeJSON) (license.Employee, error) {
	if ej.FullName == "" || ej.FileNumber == "" {
		return license.Employee{}, fmt.Errorf("full_name and file_number are required: %w", generic.ErrInvalidInput)
	}
	e := license.Employee{
		ID:         license.EmployeeID(ej.ID),
		FullName:   ej.FullName,
		Rank:       ej.Rank,
		FileNumber: ej.FileNumber,
		Category:   license.LegacyCategory(ej.Category),
	}
	if e.ID == "" {
		e.ID = license.EmployeeID(f.newID())
	}
	created, err := f.timestamp(ej.CreatedAt)
	if err != nil {
		return license.Employee{}, err
	}
	e.CreatedAt = created
	return e, nil
}

func (f *FixtureFactory) license(lj LicenseJSON) (license.LeaveRecord, error) {
	t, ok := license.ParseLicenseType(lj.LicenseType)
	if !ok {
		return license.LeaveRecord{}, fmt.Errorf("unknown license_type %q: %w", lj.LicenseType, generic.ErrInvalidInput)
	}
	date, err := generic.ParseDate(lj.LicenseDate)
	if err != nil {
		return license.LeaveRecord{}, fmt.Errorf("license_date: %v: %w", err, generic.ErrInvalidInput)
	}

	r := license.LeaveRecord{
		ID:          license.LicenseID(lj.ID),
		EmployeeID:  license.EmployeeID(lj.EmployeeID),
		Type:        t,
		LicenseDate: date,
	}
	if r.ID == "" {
		r.ID = license.LicenseID(f.newID())
	}
	if lj.Hours != nil {
		if *lj.Hours <= 0 {
			return license.LeaveRecord{}, fmt.Errorf("hours must be positive: %w", generic.ErrInvalidInput)
		}
		h := generic.Hours(*lj.Hours)
		r.Hours = &h
	}
	if r.CreatedAt, err = f.timestamp(lj.CreatedAt); err != nil {
		return license.LeaveRecord{}, err
	}
	r.Derive()
	return r, nil
}

func (f *FixtureFactory) timestamp(s string) (time.Time, error) {
	if s == "" {
		return f.now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("created_at: %v: %w", err, generic.ErrInvalidInput)
	}
	return t.UTC(), nil
}

// ToJSON converts entities back to the fixture format.
func (f *FixtureFactory) ToJSON(employees []license.Employee, records []license.LeaveRecord) FixtureJSON {
	fj := FixtureJSON{
		Employees: make([]EmployeeJSON, 0, len(employees)),
		Licenses:  make([]LicenseJSON, 0, len(records)),
	}
	for _, e := range employees {
		fj.Employees = append(fj.Employees, EmployeeJSON{
			ID:         string(e.ID),
			FullName:   e.FullName,
			Rank:       e.Rank,
			FileNumber: e.FileNumber,
			Category:   string(e.Category),
			CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	for _, r := range records {
		lj := LicenseJSON{
			ID:          string(r.ID),
			EmployeeID:  string(r.EmployeeID),
			LicenseType: string(r.Type),
			LicenseDate: r.LicenseDate.String(),
			CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if r.Hours != nil {
			v := r.Hours.Float64()
			lj.Hours = &v
		}
		fj.Licenses = append(fj.Licenses, lj)
	}
	return fj
}
