// Package memory provides the fixture-backed data source: an in-memory
// license.TxStore with the same uniqueness and cascade rules as the
// SQLite store. Used for offline runs, demos and tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/warp/license-registry/generic"
	"github.com/warp/license-registry/license"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu   sync.RWMutex
	data state
}

var _ license.TxStore = (*Store)(nil)

type dayKey struct {
	EmployeeID license.EmployeeID
	Date       string
}

type state struct {
	employees map[license.EmployeeID]license.Employee
	licenses  map[license.LicenseID]license.LeaveRecord
	days      map[dayKey]license.LicenseID
	files     map[string]license.EmployeeID
	order     []license.LicenseID // insertion order, for stable listing
}

func newState() state {
	return state{
		employees: make(map[license.EmployeeID]license.Employee),
		licenses:  make(map[license.LicenseID]license.LeaveRecord),
		days:      make(map[dayKey]license.LicenseID),
		files:     make(map[string]license.EmployeeID),
	}
}

func (s state) clone() state {
	return state{
		employees: maps.Clone(s.employees),
		licenses:  maps.Clone(s.licenses),
		days:      maps.Clone(s.days),
		files:     maps.Clone(s.files),
		order:     slices.Clone(s.order),
	}
}

func New() *Store {
	return &Store{data: newState()}
}

// Seed loads fixture data in one transaction. Any violation rejects the
// whole fixture.
func (m *Store) Seed(ctx context.Context, employees []license.Employee, records []license.LeaveRecord) error {
	return m.WithTx(ctx, func(tx license.Store) error {
		for _, e := range employees {
			if err := tx.SaveEmployee(ctx, e); err != nil {
				return fmt.Errorf("fixture employee %s: %w", e.ID, err)
			}
		}
		for _, r := range records {
			if err := tx.SaveLicense(ctx, r); err != nil {
				return fmt.Errorf("fixture license %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

// =============================================================================
// LOCKED OPERATIONS - Callers hold m.mu
// =============================================================================

func (s *state) listEmployees() []license.Employee {
	out := slices.Collect(maps.Values(s.employees))
	slices.SortFunc(out, func(a, b license.Employee) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareStrings(string(a.ID), string(b.ID))
	})
	return out
}

func (s *state) getEmployee(id license.EmployeeID) (*license.Employee, error) {
	e, ok := s.employees[id]
	if !ok {
		return nil, fmt.Errorf("employee %s: %w", id, generic.ErrEmployeeNotFound)
	}
	return &e, nil
}

func (s *state) saveEmployee(e license.Employee) error {
	if owner, ok := s.files[e.FileNumber]; ok && owner != e.ID {
		return fmt.Errorf("file number %q: %w", e.FileNumber, generic.ErrDuplicateFileNumber)
	}
	if prev, ok := s.employees[e.ID]; ok {
		delete(s.files, prev.FileNumber)
		e.CreatedAt = prev.CreatedAt
	}
	s.employees[e.ID] = e
	s.files[e.FileNumber] = e.ID
	return nil
}

func (s *state) deleteEmployee(id license.EmployeeID) error {
	e, ok := s.employees[id]
	if !ok {
		return fmt.Errorf("employee %s: %w", id, generic.ErrEmployeeNotFound)
	}
	for lid, r := range s.licenses {
		if r.EmployeeID == id {
			s.removeLicense(lid)
		}
	}
	delete(s.files, e.FileNumber)
	delete(s.employees, id)
	return nil
}

func (s *state) listLicenses(f license.ListFilter) []license.LeaveRecord {
	var out []license.LeaveRecord
	for _, id := range s.order {
		r := s.licenses[id]
		if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Year != 0 && r.Year != f.Year {
			continue
		}
		if f.Month != 0 && r.Month != f.Month {
			continue
		}
		out = append(out, detach(r))
	}
	slices.SortStableFunc(out, func(a, b license.LeaveRecord) int {
		return b.LicenseDate.Compare(a.LicenseDate)
	})
	return out
}

func (s *state) getLicense(id license.LicenseID) (*license.LeaveRecord, error) {
	r, ok := s.licenses[id]
	if !ok {
		return nil, fmt.Errorf("license %s: %w", id, generic.ErrLicenseNotFound)
	}
	r = detach(r)
	return &r, nil
}

func (s *state) saveLicense(r license.LeaveRecord) error {
	if _, ok := s.employees[r.EmployeeID]; !ok {
		return fmt.Errorf("employee %s: %w", r.EmployeeID, generic.ErrEmployeeNotFound)
	}
	k := dayKey{EmployeeID: r.EmployeeID, Date: r.LicenseDate.String()}
	if owner, ok := s.days[k]; ok && owner != r.ID {
		return &license.DuplicateDateError{EmployeeID: r.EmployeeID, Date: r.LicenseDate}
	}

	r = detach(r)
	r.Derive()
	r.Employee = nil
	if prev, ok := s.licenses[r.ID]; ok {
		delete(s.days, dayKey{EmployeeID: prev.EmployeeID, Date: prev.LicenseDate.String()})
		r.CreatedAt = prev.CreatedAt
	} else {
		s.order = append(s.order, r.ID)
	}
	s.licenses[r.ID] = r
	s.days[k] = r.ID
	return nil
}

func (s *state) deleteLicense(id license.LicenseID) error {
	if _, ok := s.licenses[id]; !ok {
		return fmt.Errorf("license %s: %w", id, generic.ErrLicenseNotFound)
	}
	s.removeLicense(id)
	return nil
}

func (s *state) removeLicense(id license.LicenseID) {
	r := s.licenses[id]
	delete(s.days, dayKey{EmployeeID: r.EmployeeID, Date: r.LicenseDate.String()})
	delete(s.licenses, id)
	s.order = slices.DeleteFunc(s.order, func(x license.LicenseID) bool { return x == id })
}

// detach copies the Hours pointer so callers never alias stored state.
func detach(r license.LeaveRecord) license.LeaveRecord {
	if r.Hours != nil {
		h := *r.Hours
		r.Hours = &h
	}
	return r
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// =============================================================================
// STORE (license.Store interface)
// =============================================================================

func (m *Store) ListEmployees(_ context.Context) ([]license.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.listEmployees(), nil
}

func (m *Store) GetEmployee(_ context.Context, id license.EmployeeID) (*license.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.getEmployee(id)
}

func (m *Store) SaveEmployee(_ context.Context, e license.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.saveEmployee(e)
}

func (m *Store) DeleteEmployee(_ context.Context, id license.EmployeeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.deleteEmployee(id)
}

func (m *Store) ListLicenses(_ context.Context, f license.ListFilter) ([]license.LeaveRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.listLicenses(f), nil
}

func (m *Store) GetLicense(_ context.Context, id license.LicenseID) (*license.LeaveRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.getLicense(id)
}

func (m *Store) SaveLicense(_ context.Context, r license.LeaveRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.saveLicense(r)
}

func (m *Store) DeleteLicense(_ context.Context, id license.LicenseID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.deleteLicense(id)
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// WithTx runs fn against a snapshot copy and swaps it in only when fn
// succeeds.
func (m *Store) WithTx(ctx context.Context, fn func(license.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := &txView{data: m.data.clone()}
	if err := fn(view); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.data = view.data
	return nil
}

type txView struct {
	data state
}

func (tv *txView) ListEmployees(_ context.Context) ([]license.Employee, error) {
	return tv.data.listEmployees(), nil
}

func (tv *txView) GetEmployee(_ context.Context, id license.EmployeeID) (*license.Employee, error) {
	return tv.data.getEmployee(id)
}

func (tv *txView) SaveEmployee(_ context.Context, e license.Employee) error {
	return tv.data.saveEmployee(e)
}

func (tv *txView) DeleteEmployee(_ context.Context, id license.EmployeeID) error {
	return tv.data.deleteEmployee(id)
}

func (tv *txView) ListLicenses(_ context.Context, f license.ListFilter) ([]license.LeaveRecord, error) {
	return tv.data.listLicenses(f), nil
}

func (tv *txView) GetLicense(_ context.Context, id license.LicenseID) (*license.LeaveRecord, error) {
	return tv.data.getLicense(id)
}

func (tv *txView) SaveLicense(_ context.Context, r license.LeaveRecord) error {
	return tv.data.saveLicense(r)
}

func (tv *txView) DeleteLicense(_ context.Context, id license.LicenseID) error {
	return tv.data.deleteLicense(id)
}
