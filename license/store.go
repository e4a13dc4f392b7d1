/*
store.go - Persistence contract consumed by the registry

PURPOSE:
  The core treats persistence as a black box returning in-memory
  collections. Two implementations exist, chosen once at startup:

    store/sqlite   relational store (the "remote" data source)
    store/memory   fixture-backed store for offline and dev use

  Nothing switches between them at runtime. A failing store surfaces its
  error to the caller; it is never replaced by fixture data.

UNIQUENESS:
  Stores must reject a second record for the same (employee, date) with
  an error satisfying errors.Is(err, generic.ErrDuplicateDate), and a
  second employee with the same file number with generic.ErrDuplicateFileNumber.

CASCADE:
  DeleteEmployee removes the employee's leave records with it.

SEE ALSO:
  - registry.go: Uses TxStore.WithTx for re-validation before commit
*/
package license

import "context"

// ListFilter narrows ListLicenses at the store. Zero fields match all.
type ListFilter struct {
	EmployeeID EmployeeID
	Year       int
	Month      int
}

type Store interface {
	ListEmployees(ctx context.Context) ([]Employee, error)
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)
	SaveEmployee(ctx context.Context, e Employee) error
	DeleteEmployee(ctx context.Context, id EmployeeID) error

	ListLicenses(ctx context.Context, filter ListFilter) ([]LeaveRecord, error)
	GetLicense(ctx context.Context, id LicenseID) (*LeaveRecord, error)
	SaveLicense(ctx context.Context, r LeaveRecord) error
	DeleteLicense(ctx context.Context, id LicenseID) error
}

// TxStore wraps Store with transaction support.
// If fn returns an error nothing it wrote is kept.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}
