/*
Package sqlite provides the relational data source for the registry.

PURPOSE:
  Implements license.TxStore on SQLite. This is the "remote" data source
  selected at startup; the fixture-backed store/memory is the other.

KEY TABLES:
  employees:  Roster, file_number unique
  licenses:   Leave records, one per (employee_id, license_date)

CONSTRAINTS:
  - idx_licenses_employee_date (UNIQUE) is the authoritative duplicate
    check. A violation surfaces as *license.DuplicateDateError.
  - employees.file_number UNIQUE surfaces as generic.ErrDuplicateFileNumber.
  - licenses.employee_id REFERENCES employees ON DELETE CASCADE. Foreign
    keys are enabled per connection through the DSN.

STORED FORMATS:
  license_date   TEXT YYYY-MM-DD
  hours          TEXT decimal, NULL for full-day records
  month, year    INTEGER, derived from license_date on every write
  created_at     TEXT RFC3339Nano UTC

LEGACY DATA:
  Category values outside the four known labels are kept as read and sort
  after every known category.

CONCURRENCY:
  One open connection. SQLite serializes writers anyway, and ":memory:"
  databases are per connection. The RWMutex keeps WithTx exclusive.

USAGE:
  store, err := sqlite.New("./data/licenses.db")
  if err != nil {
      return err
  }
  defer store.Close()

  registry := license.NewRegistry(store, license.DefaultLimits, log)

SEE ALSO:
  - license/store.go: Interface definitions
  - store/memory: Fixture-backed implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/warp/license-registry/generic"
	"github.com/warp/license-registry/license"
)

// Store implements license.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ license.TxStore = (*Store)(nil)

// New opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		rank TEXT NOT NULL DEFAULT '',
		file_number TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS licenses (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		license_type TEXT NOT NULL,
		license_date TEXT NOT NULL,
		hours TEXT,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	-- One leave record per employee per calendar day
	CREATE UNIQUE INDEX IF NOT EXISTS idx_licenses_employee_date
		ON licenses(employee_id, license_date);

	-- Monthly aggregation and list filters (hot path)
	CREATE INDEX IF NOT EXISTS idx_licenses_employee_period
		ON licenses(employee_id, year, month);
	CREATE INDEX IF NOT EXISTS idx_licenses_period
		ON licenses(year, month);
	CREATE INDEX IF NOT EXISTS idx_licenses_created_at
		ON licenses(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Reset clears all data. Used by tests and the demo seed.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM licenses; DELETE FROM employees;`)
	return err
}

// =============================================================================
// QUERIER - Shared by Store (pool) and txStore (sql.Tx)
// =============================================================================

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = `id, full_name, rank, file_number, category, created_at`

func listEmployees(ctx context.Context, q querier) ([]license.Employee, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []license.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func getEmployee(ctx context.Context, q querier, id license.EmployeeID) (*license.Employee, error) {
	row := q.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("employee %s: %w", id, generic.ErrEmployeeNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func saveEmployee(ctx context.Context, q querier, e license.Employee) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO employees (id, full_name, rank, file_number, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name,
			rank = excluded.rank,
			file_number = excluded.file_number,
			category = excluded.category
	`,
		e.ID, e.FullName, e.Rank, e.FileNumber, string(e.Category),
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("file number %q: %w", e.FileNumber, generic.ErrDuplicateFileNumber)
	}
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func deleteEmployee(ctx context.Context, q querier, id license.EmployeeID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("employee %s: %w", id, generic.ErrEmployeeNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (license.Employee, error) {
	var (
		e                   license.Employee
		category, createdAt string
	)
	if err := row.Scan(&e.ID, &e.FullName, &e.Rank, &e.FileNumber, &category, &createdAt); err != nil {
		return license.Employee{}, err
	}
	e.Category = license.LegacyCategory(category)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return e, nil
}

// =============================================================================
// LICENSES
// =============================================================================

const licenseColumns = `id, employee_id, license_type, license_date, hours, month, year, created_at`

func listLicenses(ctx context.Context, q querier, f license.ListFilter) ([]license.LeaveRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.Year != 0 {
		where = append(where, "year = ?")
		args = append(args, f.Year)
	}
	if f.Month != 0 {
		where = append(where, "month = ?")
		args = append(args, f.Month)
	}

	query := `SELECT ` + licenseColumns + ` FROM licenses`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY license_date DESC, created_at DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query licenses: %w", err)
	}
	defer rows.Close()

	var records []license.LeaveRecord
	for rows.Next() {
		r, err := scanLicense(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func getLicense(ctx context.Context, q querier, id license.LicenseID) (*license.LeaveRecord, error) {
	row := q.QueryRowContext(ctx, `SELECT `+licenseColumns+` FROM licenses WHERE id = ?`, id)
	r, err := scanLicense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("license %s: %w", id, generic.ErrLicenseNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func saveLicense(ctx context.Context, q querier, r license.LeaveRecord) error {
	r.Derive()
	var hours sql.NullString
	if r.Hours != nil {
		hours = sql.NullString{String: r.Hours.String(), Valid: true}
	}
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO licenses (`+licenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			license_type = excluded.license_type,
			license_date = excluded.license_date,
			hours = excluded.hours,
			month = excluded.month,
			year = excluded.year
	`,
		r.ID, r.EmployeeID, string(r.Type), r.LicenseDate.String(), hours,
		r.Month, r.Year, createdAt.UTC().Format(time.RFC3339Nano),
	)
	switch {
	case err == nil:
		return nil
	case isUniqueConstraintError(err):
		return &license.DuplicateDateError{EmployeeID: r.EmployeeID, Date: r.LicenseDate}
	case isForeignKeyError(err):
		return fmt.Errorf("employee %s: %w", r.EmployeeID, generic.ErrEmployeeNotFound)
	}
	return fmt.Errorf("failed to save license: %w", err)
}

func deleteLicense(ctx context.Context, q querier, id license.LicenseID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM licenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete license: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("license %s: %w", id, generic.ErrLicenseNotFound)
	}
	return nil
}

func scanLicense(row scanner) (license.LeaveRecord, error) {
	var (
		r                            license.LeaveRecord
		licenseType, date, createdAt string
		hours                        sql.NullString
	)
	if err := row.Scan(&r.ID, &r.EmployeeID, &licenseType, &date, &hours, &r.Month, &r.Year, &createdAt); err != nil {
		return license.LeaveRecord{}, err
	}

	r.Type = license.LicenseType(licenseType)
	if t, ok := license.ParseLicenseType(licenseType); ok {
		r.Type = t
	}
	tp, err := generic.ParseDate(date)
	if err != nil {
		return license.LeaveRecord{}, fmt.Errorf("license %s: bad license_date %q: %w", r.ID, date, err)
	}
	r.LicenseDate = tp
	if hours.Valid && hours.String != "" {
		h, err := generic.ParseAmount(hours.String, generic.UnitHours)
		if err != nil {
			return license.LeaveRecord{}, fmt.Errorf("license %s: bad hours %q: %w", r.ID, hours.String, err)
		}
		r.Hours = &h
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return r, nil
}

// =============================================================================
// STORE (license.Store interface)
// =============================================================================

func (s *Store) ListEmployees(ctx context.Context) ([]license.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEmployees(ctx, s.db)
}

func (s *Store) GetEmployee(ctx context.Context, id license.EmployeeID) (*license.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEmployee(ctx, s.db, id)
}

func (s *Store) SaveEmployee(ctx context.Context, e license.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveEmployee(ctx, s.db, e)
}

func (s *Store) DeleteEmployee(ctx context.Context, id license.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteEmployee(ctx, s.db, id)
}

func (s *Store) ListLicenses(ctx context.Context, f license.ListFilter) ([]license.LeaveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listLicenses(ctx, s.db, f)
}

func (s *Store) GetLicense(ctx context.Context, id license.LicenseID) (*license.LeaveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getLicense(ctx, s.db, id)
}

func (s *Store) SaveLicense(ctx context.Context, r license.LeaveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveLicense(ctx, s.db, r)
}

func (s *Store) DeleteLicense(ctx context.Context, id license.LicenseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteLicense(ctx, s.db, id)
}

// =============================================================================
// TRANSACTIONAL STORE (license.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store license.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) ListEmployees(ctx context.Context) ([]license.Employee, error) {
	return listEmployees(ctx, ts.tx)
}

func (ts *txStore) GetEmployee(ctx context.Context, id license.EmployeeID) (*license.Employee, error) {
	return getEmployee(ctx, ts.tx, id)
}

func (ts *txStore) SaveEmployee(ctx context.Context, e license.Employee) error {
	return saveEmployee(ctx, ts.tx, e)
}

func (ts *txStore) DeleteEmployee(ctx context.Context, id license.EmployeeID) error {
	return deleteEmployee(ctx, ts.tx, id)
}

func (ts *txStore) ListLicenses(ctx context.Context, f license.ListFilter) ([]license.LeaveRecord, error) {
	return listLicenses(ctx, ts.tx, f)
}

func (ts *txStore) GetLicense(ctx context.Context, id license.LicenseID) (*license.LeaveRecord, error) {
	return getLicense(ctx, ts.tx, id)
}

func (ts *txStore) SaveLicense(ctx context.Context, r license.LeaveRecord) error {
	return saveLicense(ctx, ts.tx, r)
}

func (ts *txStore) DeleteLicense(ctx context.Context, id license.LicenseID) error {
	return deleteLicense(ctx, ts.tx, id)
}

// =============================================================================
// HELPERS
// =============================================================================

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
