/*
registry.go - Validated writes over a TxStore

PURPOSE:
  Orchestrates the validator and the store. Reads are joined with the
  roster and ordered by the sort functions; writes are validated against
  a fresh snapshot taken inside the same store transaction that persists
  them, so two racing submissions cannot both pass the quota checks.

SUBMIT FLOW:
  1. Begin store transaction
  2. Read roster and the employee's records
  3. Validate (candidate excluded from the snapshot)
  4. Blocked            -> *BlockedError, nothing written
     Warned, !confirm   -> *ConfirmationRequiredError, nothing written
     otherwise          -> derive month/year, save, commit
  5. A store uniqueness violation on (employee, date) is reported as a
     DuplicateDate block even when step 3 missed it.

SEE ALSO:
  - validator.go: The decision procedure
  - store.go: Store contract
*/
package license

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/warp/license-registry/generic"
)

type Registry struct {
	store     TxStore
	validator Validator
	log       logrus.FieldLogger

	now   func() time.Time
	newID func() string
}

func NewRegistry(store TxStore, limits Limits, log logrus.FieldLogger) *Registry {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Registry{
		store:     store,
		validator: NewValidator(limits),
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (r *Registry) Limits() Limits { return r.validator.Limits }

// =============================================================================
// SNAPSHOTS
// =============================================================================

// snapshot reads employees and the matching records concurrently.
// Only used outside transactions: a database/sql Tx is one connection.
func (r *Registry) snapshot(ctx context.Context, filter ListFilter) ([]Employee, []LeaveRecord, error) {
	var (
		employees []Employee
		records   []LeaveRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		employees, err = r.store.ListEmployees(gctx)
		if err != nil {
			return fmt.Errorf("failed to list employees: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = r.store.ListLicenses(gctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list licenses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return employees, records, nil
}

func txSnapshot(ctx context.Context, s Store, filter ListFilter) ([]Employee, []LeaveRecord, error) {
	employees, err := s.ListEmployees(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list employees: %w", err)
	}
	records, err := s.ListLicenses(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list licenses: %w", err)
	}
	return employees, records, nil
}

// =============================================================================
// LEAVE RECORDS
// =============================================================================

// Evaluate is a dry run of Submit: it returns the decision without writing.
func (r *Registry) Evaluate(ctx context.Context, c Candidate) (Decision, error) {
	employees, records, err := r.snapshot(ctx, ListFilter{EmployeeID: c.EmployeeID})
	if err != nil {
		return Decision{}, err
	}
	return r.validator.Validate(c, NewRoster(employees), records)
}

// Submit validates and creates a leave record. A Warned decision is only
// persisted when confirmed is true. The returned decision is the one the
// write was made under.
func (r *Registry) Submit(ctx context.Context, c Candidate, confirmed bool) (LeaveRecord, Decision, error) {
	c.ReplacesID = ""
	return r.write(ctx, c, confirmed, nil)
}

// Update re-validates an edited record against every other record and
// replaces it. The record keeps its ID and CreatedAt.
func (r *Registry) Update(ctx context.Context, id LicenseID, c Candidate, confirmed bool) (LeaveRecord, Decision, error) {
	c.ReplacesID = id
	return r.write(ctx, c, confirmed, func(s Store) (*LeaveRecord, error) {
		return s.GetLicense(ctx, id)
	})
}

func (r *Registry) write(
	ctx context.Context,
	c Candidate,
	confirmed bool,
	previous func(Store) (*LeaveRecord, error),
) (LeaveRecord, Decision, error) {
	var (
		saved    LeaveRecord
		decision Decision
	)

	err := r.store.WithTx(ctx, func(tx Store) error {
		var prev *LeaveRecord
		if previous != nil {
			var err error
			if prev, err = previous(tx); err != nil {
				return err
			}
		}

		employees, records, err := txSnapshot(ctx, tx, ListFilter{EmployeeID: c.EmployeeID})
		if err != nil {
			return err
		}
		roster := NewRoster(employees)

		decision, err = r.validator.Validate(c, roster, records)
		if err != nil {
			return err
		}
		switch {
		case !decision.Allowed():
			return &BlockedError{Decision: decision}
		case decision.NeedsConfirmation() && !confirmed:
			return &ConfirmationRequiredError{Decision: decision}
		}

		rec := LeaveRecord{
			ID:          LicenseID(r.newID()),
			EmployeeID:  c.EmployeeID,
			Type:        c.Type,
			LicenseDate: decision.Date,
			CreatedAt:   r.now().UTC(),
		}
		if prev != nil {
			rec.ID, rec.CreatedAt = prev.ID, prev.CreatedAt
		}
		if c.Type == PartialDay {
			h := *c.Hours
			rec.Hours = &h
		}
		rec.Derive()

		if err := tx.SaveLicense(ctx, rec); err != nil {
			if errors.Is(err, generic.ErrDuplicateDate) {
				decision.Outcome, decision.Reason = OutcomeBlocked, ReasonDuplicateDate
				return &BlockedError{Decision: decision}
			}
			return fmt.Errorf("failed to save license: %w", err)
		}

		e, _ := roster.Lookup(rec.EmployeeID)
		rec.Employee = &e
		saved = rec
		return nil
	})

	entry := r.log.WithFields(logrus.Fields{
		"employee_id":  c.EmployeeID,
		"license_date": c.LicenseDate,
		"outcome":      decision.Outcome,
	})
	if c.ReplacesID != "" {
		entry = entry.WithField("license_id", c.ReplacesID)
	}
	switch {
	case err == nil:
		entry.Info("license saved")
	case generic.IsConflict(err) || errors.Is(err, generic.ErrConfirmationRequired):
		entry.WithField("reason", decision.Reason).Info("license not saved")
	case generic.IsClientError(err) || generic.IsNotFound(err):
		entry.WithError(err).Debug("license rejected")
	default:
		entry.WithError(err).Error("license write failed")
	}

	if err != nil {
		return LeaveRecord{}, decision, err
	}
	return saved, decision, nil
}

// GetLicense returns a record joined with its employee.
func (r *Registry) GetLicense(ctx context.Context, id LicenseID) (LeaveRecord, error) {
	rec, err := r.store.GetLicense(ctx, id)
	if err != nil {
		return LeaveRecord{}, err
	}
	e, err := r.store.GetEmployee(ctx, rec.EmployeeID)
	if err != nil && !generic.IsNotFound(err) {
		return LeaveRecord{}, err
	}
	out := *rec
	out.Employee = e
	return out, nil
}

func (r *Registry) DeleteLicense(ctx context.Context, id LicenseID) error {
	if err := r.store.DeleteLicense(ctx, id); err != nil {
		return err
	}
	r.log.WithField("license_id", id).Info("license deleted")
	return nil
}

// ListLicenses returns joined records matching f in SortLicenses order.
func (r *Registry) ListLicenses(ctx context.Context, f Filter) ([]LeaveRecord, error) {
	employees, records, err := r.snapshot(ctx, ListFilter{EmployeeID: f.EmployeeID, Year: f.Year, Month: f.Month})
	if err != nil {
		return nil, err
	}
	joined := NewRoster(employees).Attach(records)
	return SortLicenses(f.Apply(joined)), nil
}

// =============================================================================
// AGGREGATES
// =============================================================================

func (r *Registry) MonthlyStats(ctx context.Context, id EmployeeID, year int, month time.Month) (MonthlyStats, error) {
	if !generic.ValidMonth(year, int(month)) {
		return MonthlyStats{}, invalid("month", "%d-%02d is not a calendar month", year, int(month))
	}
	if _, err := r.store.GetEmployee(ctx, id); err != nil {
		return MonthlyStats{}, err
	}
	records, err := r.store.ListLicenses(ctx, ListFilter{EmployeeID: id, Year: year, Month: int(month)})
	if err != nil {
		return MonthlyStats{}, fmt.Errorf("failed to list licenses: %w", err)
	}
	return r.validator.Limits.MonthlyStats(id, year, month, records), nil
}

func (r *Registry) Dashboard(ctx context.Context, asOf generic.TimePoint, recent int) (Dashboard, error) {
	employees, records, err := r.snapshot(ctx, ListFilter{})
	if err != nil {
		return Dashboard{}, err
	}
	return r.validator.Limits.BuildDashboard(employees, records, asOf, recent), nil
}

// Report groups the filtered records per employee.
func (r *Registry) Report(ctx context.Context, f Filter) ([]GroupedRow, error) {
	records, err := r.ListLicenses(ctx, f)
	if err != nil {
		return nil, err
	}
	return GroupByEmployee(records), nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeInput is an employee as entered by the user. Category accepts
// Arabic or English labels.
type EmployeeInput struct {
	FullName   string
	Rank       string
	FileNumber string
	Category   string
}

func (in EmployeeInput) normalize() (Employee, error) {
	e := Employee{
		FullName:   strings.Join(strings.Fields(in.FullName), " "),
		Rank:       strings.TrimSpace(in.Rank),
		FileNumber: strings.TrimSpace(in.FileNumber),
	}
	if e.FullName == "" {
		return Employee{}, invalid("full_name", "required")
	}
	if e.FileNumber == "" {
		return Employee{}, invalid("file_number", "required")
	}
	c, ok := ParseCategory(in.Category)
	if !ok {
		return Employee{}, invalid("category", "unknown category %q", in.Category)
	}
	e.Category = c
	return e, nil
}

// ListEmployees returns employees in SortEmployees order, optionally
// narrowed by category and a name/file-number search.
func (r *Registry) ListEmployees(ctx context.Context, category Category, search string) ([]Employee, error) {
	employees, err := r.store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	out := employees[:0:0]
	for _, e := range employees {
		if category != "" && e.Category != category {
			continue
		}
		if strings.TrimSpace(search) != "" && !MatchesSearch(e, search) {
			continue
		}
		out = append(out, e)
	}
	return SortEmployees(out), nil
}

func (r *Registry) GetEmployee(ctx context.Context, id EmployeeID) (Employee, error) {
	e, err := r.store.GetEmployee(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	return *e, nil
}

func (r *Registry) CreateEmployee(ctx context.Context, in EmployeeInput) (Employee, error) {
	e, err := in.normalize()
	if err != nil {
		return Employee{}, err
	}
	e.ID = EmployeeID(r.newID())
	e.CreatedAt = r.now().UTC()
	if err := r.store.SaveEmployee(ctx, e); err != nil {
		return Employee{}, err
	}
	r.log.WithFields(logrus.Fields{"employee_id": e.ID, "file_number": e.FileNumber}).Info("employee created")
	return e, nil
}

func (r *Registry) UpdateEmployee(ctx context.Context, id EmployeeID, in EmployeeInput) (Employee, error) {
	e, err := in.normalize()
	if err != nil {
		return Employee{}, err
	}
	err = r.store.WithTx(ctx, func(tx Store) error {
		prev, err := tx.GetEmployee(ctx, id)
		if err != nil {
			return err
		}
		e.ID, e.CreatedAt = prev.ID, prev.CreatedAt
		return tx.SaveEmployee(ctx, e)
	})
	if err != nil {
		return Employee{}, err
	}
	r.log.WithField("employee_id", id).Info("employee updated")
	return e, nil
}

// DeleteEmployee removes the employee and, through the store, every
// leave record that references it.
func (r *Registry) DeleteEmployee(ctx context.Context, id EmployeeID) error {
	if err := r.store.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	r.log.WithField("employee_id", id).Info("employee deleted")
	return nil
}

// ImportRowError reports why one import row was skipped.
type ImportRowError struct {
	Row int // zero-based index into the input
	Err error
}

type ImportResult struct {
	Created []Employee
	Skipped []ImportRowError
}

// ImportEmployees creates each row independently. Rows that fail input
// validation or reuse an existing file number are skipped and reported;
// any other store failure aborts the import.
func (r *Registry) ImportEmployees(ctx context.Context, rows []EmployeeInput) (ImportResult, error) {
	var result ImportResult
	for i, in := range rows {
		e, err := r.CreateEmployee(ctx, in)
		switch {
		case err == nil:
			result.Created = append(result.Created, e)
		case generic.IsClientError(err) || errors.Is(err, generic.ErrDuplicateFileNumber):
			result.Skipped = append(result.Skipped, ImportRowError{Row: i, Err: err})
		default:
			return result, fmt.Errorf("import row %d: %w", i, err)
		}
	}
	r.log.WithFields(logrus.Fields{
		"created": len(result.Created),
		"skipped": len(result.Skipped),
	}).Info("employee import finished")
	return result, nil
}
