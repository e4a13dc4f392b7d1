/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the license core from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Employee:   EmployeeDTO, EmployeeRequest, ImportResponse
  License:    LicenseDTO, LicenseRequest, SubmitResponse
  Decision:   DecisionDTO, FindingDTO, MonthlyStatsDTO
  Reporting:  DashboardDTO, GroupedRowDTO

VALIDATION:
  Request types carry go-playground/validator tags for shape checks
  (required, lengths, positive hours). Domain rules such as category
  labels, the hours/type pairing and quotas stay in the license package.

SEE ALSO:
  - handlers.go: Uses these types
  - license/validator.go: Decision semantics
*/
package api

import (
	"time"

	"github.com/warp/license-registry/license"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// EmployeeRequest creates or replaces an employee. Category accepts Arabic
// or English labels.
type EmployeeRequest struct {
	FullName   string `json:"full_name" validate:"required,max=200"`
	Rank       string `json:"rank" validate:"max=100"`
	FileNumber string `json:"file_number" validate:"required,max=50"`
	Category   string `json:"category" validate:"required"`
}

func (r EmployeeRequest) input() license.EmployeeInput {
	return license.EmployeeInput{
		FullName:   r.FullName,
		Rank:       r.Rank,
		FileNumber: r.FileNumber,
		Category:   r.Category,
	}
}

// LicenseRequest submits, validates or edits a leave record.
type LicenseRequest struct {
	EmployeeID  string   `json:"employee_id" validate:"required"`
	LicenseType string   `json:"license_type" validate:"required"`
	LicenseDate string   `json:"license_date" validate:"required"`
	Hours       *float64 `json:"hours,omitempty" validate:"omitempty,gt=0,lte=24"`

	// Confirm acknowledges warnings returned by a previous attempt.
	Confirm bool `json:"confirm"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type EmployeeDTO struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	Rank       string `json:"rank"`
	FileNumber string `json:"file_number"`
	Category   string `json:"category"`
	Legacy     bool   `json:"legacy_category,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type ImportSkipDTO struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type ImportResponse struct {
	Created []EmployeeDTO   `json:"created"`
	Skipped []ImportSkipDTO `json:"skipped"`
}

type LicenseDTO struct {
	ID          string       `json:"id"`
	EmployeeID  string       `json:"employee_id"`
	Employee    *EmployeeDTO `json:"employee,omitempty"`
	LicenseType string       `json:"license_type"`
	LicenseDate string       `json:"license_date"`
	Hours       *float64     `json:"hours"`
	Month       int          `json:"month"`
	Year        int          `json:"year"`
	CreatedAt   string       `json:"created_at"`
}

type FindingDTO struct {
	Axis     string  `json:"axis"`
	Code     string  `json:"code"`
	Critical bool    `json:"critical"`
	Message  string  `json:"message"`
	Excess   float64 `json:"excess,omitempty"`
}

type MonthlyStatsDTO struct {
	EmployeeID             string  `json:"employee_id"`
	Year                   int     `json:"year"`
	Month                  int     `json:"month"`
	FullDayCount           int     `json:"full_day_count"`
	PartialDayCount        int     `json:"partial_day_count"`
	TotalPartialHours      float64 `json:"total_partial_hours"`
	RemainingFullDays      int     `json:"remaining_full_days"`
	RemainingShortLicenses int     `json:"remaining_short_licenses"`
	RemainingHours         float64 `json:"remaining_hours"`
}

type DecisionDTO struct {
	Outcome    string          `json:"outcome"`
	Reason     string          `json:"reason,omitempty"`
	Date       string          `json:"license_date,omitempty"`
	Messages   []string        `json:"messages"`
	Conflicts  []LicenseDTO    `json:"conflicts,omitempty"`
	Violations []FindingDTO    `json:"violations,omitempty"`
	Warnings   []FindingDTO    `json:"warnings,omitempty"`
	Stats      MonthlyStatsDTO `json:"stats"`
}

type SubmitResponse struct {
	License  LicenseDTO  `json:"license"`
	Decision DecisionDTO `json:"decision"`
}

type GroupedRowDTO struct {
	Employee   EmployeeDTO `json:"employee"`
	FullDays   int         `json:"full_days"`
	HalfDays   int         `json:"half_days"`
	TotalHours float64     `json:"total_hours"`
}

type DashboardDTO struct {
	Year            int               `json:"year"`
	Month           int               `json:"month"`
	Employees       int               `json:"employees"`
	LicensesInMonth int               `json:"licenses_in_month"`
	FullDaysInMonth int               `json:"full_days_in_month"`
	PartialInMonth  int               `json:"partial_in_month"`
	HoursInMonth    float64           `json:"hours_in_month"`
	AtQuota         []MonthlyStatsDTO `json:"at_quota"`
	RecentlyAdded   []RecentDTO       `json:"recently_added"`
}

// RecentDTO is a recently added record with its age.
type RecentDTO struct {
	LicenseDTO
	AddedAgo string `json:"added_ago"`
}

type MetaDTO struct {
	Categories   []string `json:"categories"`
	LicenseTypes []string `json:"license_types"`
	Limits       struct {
		FullDayLicenses  int     `json:"full_day_licenses"`
		ShortLicenses    int     `json:"short_licenses"`
		MaxHoursPerMonth float64 `json:"max_hours_per_month"`
	} `json:"limits"`
}

// ErrorResponse is the body of every non-2xx JSON response. Decision is
// set for blocked submissions and unconfirmed warnings.
type ErrorResponse struct {
	Error    string       `json:"error"`
	Details  string       `json:"details,omitempty"`
	Fields   []string     `json:"fields,omitempty"`
	Decision *DecisionDTO `json:"decision,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEmployeeDTO(e license.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:         string(e.ID),
		FullName:   e.FullName,
		Rank:       e.Rank,
		FileNumber: e.FileNumber,
		Category:   string(e.Category),
		Legacy:     !e.Category.Known(),
		CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toEmployeeDTOs(employees []license.Employee) []EmployeeDTO {
	out := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		out[i] = toEmployeeDTO(e)
	}
	return out
}

func toLicenseDTO(r license.LeaveRecord) LicenseDTO {
	dto := LicenseDTO{
		ID:          string(r.ID),
		EmployeeID:  string(r.EmployeeID),
		LicenseType: string(r.Type),
		LicenseDate: r.LicenseDate.String(),
		Month:       r.Month,
		Year:        r.Year,
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.Hours != nil {
		v := r.Hours.Float64()
		dto.Hours = &v
	}
	if r.Employee != nil {
		e := toEmployeeDTO(*r.Employee)
		dto.Employee = &e
	}
	return dto
}

func toLicenseDTOs(records []license.LeaveRecord) []LicenseDTO {
	out := make([]LicenseDTO, len(records))
	for i, r := range records {
		out[i] = toLicenseDTO(r)
	}
	return out
}

func toStatsDTO(s license.MonthlyStats) MonthlyStatsDTO {
	return MonthlyStatsDTO{
		EmployeeID:             string(s.EmployeeID),
		Year:                   s.Year,
		Month:                  int(s.Month),
		FullDayCount:           s.FullDayCount,
		PartialDayCount:        s.PartialDayCount,
		TotalPartialHours:      s.TotalPartialHours.Float64(),
		RemainingFullDays:      s.RemainingFullDays,
		RemainingShortLicenses: s.RemainingShortLicenses,
		RemainingHours:         s.RemainingHours.Float64(),
	}
}

func toFindingDTOs(fs []license.Finding) []FindingDTO {
	if len(fs) == 0 {
		return nil
	}
	out := make([]FindingDTO, len(fs))
	for i, f := range fs {
		out[i] = FindingDTO{
			Axis:     string(f.Axis),
			Code:     f.Code,
			Critical: f.Critical,
			Message:  f.Message,
			Excess:   f.Excess.Float64(),
		}
	}
	return out
}

func toDecisionDTO(d license.Decision) DecisionDTO {
	dto := DecisionDTO{
		Outcome:    string(d.Outcome),
		Reason:     string(d.Reason),
		Messages:   d.Messages(),
		Violations: toFindingDTOs(d.Violations),
		Warnings:   toFindingDTOs(d.Warnings),
		Stats:      toStatsDTO(d.Stats),
	}
	if !d.Date.IsZero() {
		dto.Date = d.Date.String()
	}
	if dto.Messages == nil {
		dto.Messages = []string{}
	}
	if len(d.Conflicts) > 0 {
		dto.Conflicts = toLicenseDTOs(d.Conflicts)
	}
	return dto
}

func toGroupedRowDTOs(rows []license.GroupedRow) []GroupedRowDTO {
	out := make([]GroupedRowDTO, len(rows))
	for i, r := range rows {
		out[i] = GroupedRowDTO{
			Employee:   toEmployeeDTO(r.Employee),
			FullDays:   r.FullDays,
			HalfDays:   r.HalfDays,
			TotalHours: r.TotalHours.Float64(),
		}
	}
	return out
}
