/*
handlers.go - HTTP API handlers for the leave registry

PURPOSE:
  Exposes the license core via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to license.Registry.

ENDPOINTS:
  Employees:
    GET    /api/employees                 List (category, search), ordered
    POST   /api/employees                 Create employee
    POST   /api/employees/import          Bulk create, per-row report
    GET    /api/employees/{id}            Get employee
    PUT    /api/employees/{id}            Replace employee
    DELETE /api/employees/{id}            Delete employee and its records
    GET    /api/employees/{id}/stats      Monthly stats (year, month)

  Licenses:
    GET    /api/licenses                  List (employee_id, year, month, category, search)
    POST   /api/licenses                  Validated submit
    POST   /api/licenses/validate         Dry run, returns the decision
    GET    /api/licenses/{id}             Get record
    PUT    /api/licenses/{id}             Validated edit
    DELETE /api/licenses/{id}             Delete record
    GET    /api/licenses.csv              CSV export of the filtered list

  Reporting:
    GET    /api/dashboard                 Month summary (as_of)
    GET    /api/reports/employees         Grouped per-employee totals
    GET    /api/reports/employees.csv     Same, as CSV
    GET    /api/export/fixture            Current data in fixture format
    GET    /api/meta                      Categories, types and limits

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, invalid input
  - 404: Employee or record not found
  - 409: Duplicate date, monthly limit exceeded, duplicate file number
  - 428: Warnings present and "confirm" not set
  - 500: Internal errors
  409 and 428 carry the full decision so the client can show every message.

SEE ALSO:
  - dto.go: Request/response data structures
  - export.go: CSV rendering
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/warp/license-registry/factory"
	"github.com/warp/license-registry/generic"
	"github.com/warp/license-registry/license"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Registry *license.Registry
	Fixtures *factory.FixtureFactory
	Log      logrus.FieldLogger

	// Locale selects CSV header language ("ar" or "en"); ?lang= overrides.
	Locale      string
	RecentLimit int
	Health      Pinger

	validate *validator.Validate
	now      func() time.Time
}

func NewHandler(registry *license.Registry, log logrus.FieldLogger) *Handler {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Handler{
		Registry:    registry,
		Fixtures:    factory.NewFixtureFactory(),
		Log:         log,
		Locale:      "ar",
		RecentLimit: 10,
		validate:    validator.New(),
		now:         time.Now,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	category, err := categoryParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	employees, err := h.Registry.ListEmployees(r.Context(), category, r.URL.Query().Get("search"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTOs(employees))
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.Registry.GetEmployee(r.Context(), license.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(e))
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	e, err := h.Registry.CreateEmployee(r.Context(), req.input())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(e))
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	e, err := h.Registry.UpdateEmployee(r.Context(), license.EmployeeID(chi.URLParam(r, "id")), req.input())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(e))
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Registry.DeleteEmployee(r.Context(), license.EmployeeID(chi.URLParam(r, "id"))); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportEmployees takes a JSON array of employees. Rows failing shape
// validation are reported alongside rows the registry skipped.
func (h *Handler) ImportEmployees(w http.ResponseWriter, r *http.Request) {
	var rows []EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp := ImportResponse{Created: []EmployeeDTO{}, Skipped: []ImportSkipDTO{}}
	var (
		inputs []license.EmployeeInput
		index  []int
	)
	for i, row := range rows {
		if err := h.validate.Struct(row); err != nil {
			resp.Skipped = append(resp.Skipped, ImportSkipDTO{Row: i, Error: err.Error()})
			continue
		}
		inputs = append(inputs, row.input())
		index = append(index, i)
	}

	result, err := h.Registry.ImportEmployees(r.Context(), inputs)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	resp.Created = append(resp.Created, toEmployeeDTOs(result.Created)...)
	for _, s := range result.Skipped {
		resp.Skipped = append(resp.Skipped, ImportSkipDTO{Row: index[s.Row], Error: s.Err.Error()})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetEmployeeStats(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	year, month := now.Year(), int(now.Month())
	var err error
	if year, err = intParam(r, "year", year); err != nil {
		h.respondError(w, r, err)
		return
	}
	if month, err = intParam(r, "month", month); err != nil {
		h.respondError(w, r, err)
		return
	}

	stats, err := h.Registry.MonthlyStats(r.Context(), license.EmployeeID(chi.URLParam(r, "id")), year, time.Month(month))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsDTO(stats))
}

// =============================================================================
// LICENSE HANDLERS
// =============================================================================

func (h *Handler) ListLicenses(w http.ResponseWriter, r *http.Request) {
	records, ok := h.filteredLicenses(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toLicenseDTOs(records))
}

func (h *Handler) GetLicense(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Registry.GetLicense(r.Context(), license.LicenseID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLicenseDTO(rec))
}

// SubmitLicense creates a record. Warnings need "confirm": true.
func (h *Handler) SubmitLicense(w http.ResponseWriter, r *http.Request) {
	var req LicenseRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := req.candidate()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	rec, d, err := h.Registry.Submit(r.Context(), c, req.Confirm)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SubmitResponse{License: toLicenseDTO(rec), Decision: toDecisionDTO(d)})
}

// ValidateLicense returns the decision a submit would get. Blocked and
// warned outcomes are still 200: nothing was attempted.
func (h *Handler) ValidateLicense(w http.ResponseWriter, r *http.Request) {
	var req LicenseRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := req.candidate()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if id := r.URL.Query().Get("replaces"); id != "" {
		c.ReplacesID = license.LicenseID(id)
	}
	d, err := h.Registry.Evaluate(r.Context(), c)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDecisionDTO(d))
}

func (h *Handler) UpdateLicense(w http.ResponseWriter, r *http.Request) {
	var req LicenseRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := req.candidate()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	rec, d, err := h.Registry.Update(r.Context(), license.LicenseID(chi.URLParam(r, "id")), c, req.Confirm)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SubmitResponse{License: toLicenseDTO(rec), Decision: toDecisionDTO(d)})
}

func (h *Handler) DeleteLicense(w http.ResponseWriter, r *http.Request) {
	if err := h.Registry.DeleteLicense(r.Context(), license.LicenseID(chi.URLParam(r, "id"))); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (req LicenseRequest) candidate() (license.Candidate, error) {
	t, ok := license.ParseLicenseType(req.LicenseType)
	if !ok {
		return license.Candidate{}, &license.InvalidInputError{
			Field:  "license_type",
			Reason: fmt.Sprintf("unknown type %q", req.LicenseType),
		}
	}
	c := license.Candidate{
		EmployeeID:  license.EmployeeID(strings.TrimSpace(req.EmployeeID)),
		Type:        t,
		LicenseDate: req.LicenseDate,
	}
	if req.Hours != nil {
		hours := generic.Hours(*req.Hours)
		c.Hours = &hours
	}
	return c, nil
}

// =============================================================================
// REPORTING HANDLERS
// =============================================================================

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	asOf := generic.FromTime(h.now())
	if s := r.URL.Query().Get("as_of"); s != "" {
		tp, err := generic.ParseDate(s)
		if err != nil {
			h.respondError(w, r, &license.InvalidInputError{Field: "as_of", Reason: err.Error()})
			return
		}
		asOf = tp
	}

	d, err := h.Registry.Dashboard(r.Context(), asOf, h.RecentLimit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	dto := DashboardDTO{
		Year:            d.Year,
		Month:           int(d.Month),
		Employees:       d.Employees,
		LicensesInMonth: d.LicensesInMonth,
		FullDaysInMonth: d.FullDaysInMonth,
		PartialInMonth:  d.PartialInMonth,
		HoursInMonth:    d.HoursInMonth.Float64(),
		AtQuota:         make([]MonthlyStatsDTO, 0, len(d.AtQuota)),
		RecentlyAdded:   make([]RecentDTO, 0, len(d.RecentlyAdded)),
	}
	for _, s := range d.AtQuota {
		dto.AtQuota = append(dto.AtQuota, toStatsDTO(s))
	}
	now := h.now()
	for _, rec := range d.RecentlyAdded {
		dto.RecentlyAdded = append(dto.RecentlyAdded, RecentDTO{
			LicenseDTO: toLicenseDTO(rec),
			AddedAgo:   since(rec.CreatedAt, now),
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) EmployeeReport(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.groupedReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toGroupedRowDTOs(rows))
}

func (h *Handler) EmployeeReportCSV(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.groupedReport(w, r)
	if !ok {
		return
	}
	writeCSVHeaders(w, "employee-report.csv")
	if err := WriteGroupedCSV(w, rows, h.locale(r)); err != nil {
		h.Log.WithError(err).Error("failed to write report csv")
	}
}

func (h *Handler) LicensesCSV(w http.ResponseWriter, r *http.Request) {
	records, ok := h.filteredLicenses(w, r)
	if !ok {
		return
	}
	writeCSVHeaders(w, "licenses.csv")
	if err := WriteLicensesCSV(w, records, h.locale(r)); err != nil {
		h.Log.WithError(err).Error("failed to write licenses csv")
	}
}

// ExportFixture dumps the current data in the fixture format so it can
// be loaded by the fixture data source.
func (h *Handler) ExportFixture(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Registry.ListEmployees(r.Context(), "", "")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	records, err := h.Registry.ListLicenses(r.Context(), license.Filter{})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Fixtures.ToJSON(employees, records))
}

func (h *Handler) Meta(w http.ResponseWriter, r *http.Request) {
	var dto MetaDTO
	for _, c := range license.Categories {
		dto.Categories = append(dto.Categories, string(c))
	}
	dto.LicenseTypes = []string{string(license.FullDay), string(license.PartialDay)}
	limits := h.Registry.Limits()
	dto.Limits.FullDayLicenses = limits.FullDayLicenses
	dto.Limits.ShortLicenses = limits.ShortLicenses
	dto.Limits.MaxHoursPerMonth = limits.MaxHoursPerMonth.Float64()
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Data source unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// QUERY HELPERS
// =============================================================================

func (h *Handler) listFilter(r *http.Request) (license.Filter, error) {
	q := r.URL.Query()
	f := license.Filter{
		EmployeeID: license.EmployeeID(q.Get("employee_id")),
		Search:     q.Get("search"),
	}
	var err error
	if f.Year, err = intParam(r, "year", 0); err != nil {
		return f, err
	}
	if f.Month, err = intParam(r, "month", 0); err != nil {
		return f, err
	}
	if f.Month != 0 && (f.Month < 1 || f.Month > 12) {
		return f, &license.InvalidInputError{Field: "month", Reason: "must be 1-12"}
	}
	if f.Category, err = categoryParam(r); err != nil {
		return f, err
	}
	return f, nil
}

func (h *Handler) filteredLicenses(w http.ResponseWriter, r *http.Request) ([]license.LeaveRecord, bool) {
	f, err := h.listFilter(r)
	if err != nil {
		h.respondError(w, r, err)
		return nil, false
	}
	records, err := h.Registry.ListLicenses(r.Context(), f)
	if err != nil {
		h.respondError(w, r, err)
		return nil, false
	}
	return records, true
}

func (h *Handler) groupedReport(w http.ResponseWriter, r *http.Request) ([]license.GroupedRow, bool) {
	f, err := h.listFilter(r)
	if err != nil {
		h.respondError(w, r, err)
		return nil, false
	}
	rows, err := h.Registry.Report(r.Context(), f)
	if err != nil {
		h.respondError(w, r, err)
		return nil, false
	}
	return rows, true
}

func (h *Handler) locale(r *http.Request) string {
	if l := r.URL.Query().Get("lang"); l == "ar" || l == "en" {
		return l
	}
	return h.Locale
}

func intParam(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, &license.InvalidInputError{Field: name, Reason: "must be an integer"}
	}
	return v, nil
}

func categoryParam(r *http.Request) (license.Category, error) {
	s := r.URL.Query().Get("category")
	if s == "" {
		return "", nil
	}
	c, ok := license.ParseCategory(s)
	if !ok {
		return "", &license.InvalidInputError{Field: "category", Reason: fmt.Sprintf("unknown category %q", s)}
	}
	return c, nil
}

// since renders a coarse "time since" label for dashboard lists.
func since(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads and shape-validates a JSON body. It writes the 400 itself.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		resp := ErrorResponse{Error: "Validation failed", Details: err.Error()}
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				resp.Fields = append(resp.Fields, fe.Field())
			}
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return false
	}
	return true
}

// respondError maps registry errors onto HTTP statuses.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		blocked *license.BlockedError
		confirm *license.ConfirmationRequiredError
		input   *license.InvalidInputError
	)
	switch {
	case errors.As(err, &confirm):
		d := toDecisionDTO(confirm.Decision)
		writeJSON(w, http.StatusPreconditionRequired, ErrorResponse{
			Error:    "Confirmation required",
			Details:  err.Error(),
			Decision: &d,
		})
	case errors.As(err, &blocked):
		d := toDecisionDTO(blocked.Decision)
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:    "Submission blocked",
			Details:  err.Error(),
			Decision: &d,
		})
	case errors.As(err, &input):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid input",
			Details: err.Error(),
			Fields:  []string{input.Field},
		})
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case generic.IsConflict(err):
		writeError(w, http.StatusConflict, "Conflict", err)
	default:
		h.Log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
