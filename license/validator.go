/*
validator.go - Limit and duplicate validation for new leave records

PURPOSE:
  Decides whether a candidate leave record may be created. Pure function
  over the candidate, the roster and the existing records; the caller
  persists only after Accepted, or Warned plus explicit confirmation.

DECISIONS:
  Blocked(duplicate_date)          same employee already has a record that day
  Blocked(monthly_limit_exceeded)  a critical quota threshold would be crossed
  Warned(messages)                 non-critical thresholds, caller must confirm
  Accepted                         nothing to report

PROCEDURE (warnings accumulate; first applicable block wins):
  1. Duplicate check on exact calendar date
  2. MonthlyStats for the candidate's month, candidate not included
  3. Full day:    remaining <= 0 block, remaining == 1 warn
  4. Partial day: count axis  remaining <= 0 block, remaining == 1 warn
                  hours axis  used+hours >= max block (reaching blocks),
                              remaining < hours warn
     Both partial axes are always evaluated and all findings reported.

ASYMMETRY:
  The count axes block only once the cap is already used up. The hours axis
  blocks as soon as the candidate would reach the cap exactly.

INVALID INPUT:
  Unparseable date, unknown type, missing/extra hours, or an employee that
  does not resolve returns *InvalidInputError and no decision.

SEE ALSO:
  - stats.go: MonthlyStats
  - registry.go: Re-validation immediately before commit
*/
package license

import (
	"fmt"
	"strings"

	"github.com/warp/license-registry/generic"
)

// =============================================================================
// CANDIDATE
// =============================================================================

// Candidate is a proposed leave record as entered by the user.
type Candidate struct {
	EmployeeID  EmployeeID
	Type        LicenseType
	LicenseDate string // YYYY-MM-DD or RFC3339
	Hours       *generic.Amount

	// ReplacesID is set when editing: the record being replaced is ignored
	// by the duplicate check and the monthly counters.
	ReplacesID LicenseID
}

// =============================================================================
// DECISION
// =============================================================================

type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeWarned   Outcome = "warned"
	OutcomeBlocked  Outcome = "blocked"
)

type BlockReason string

const (
	ReasonDuplicateDate        BlockReason = "duplicate_date"
	ReasonMonthlyLimitExceeded BlockReason = "monthly_limit_exceeded"
)

// Axis names the quota a finding is about.
type Axis string

const (
	AxisFullDays      Axis = "full_days"
	AxisShortLicenses Axis = "short_licenses"
	AxisHours         Axis = "hours"
)

// Finding is one quota observation. Critical findings block.
type Finding struct {
	Axis     Axis
	Code     string
	Critical bool
	Message  string
	// Excess is how far past the hours cap the candidate would go, zero otherwise.
	Excess generic.Amount
}

type Decision struct {
	Outcome Outcome
	Reason  BlockReason // set only when Outcome is Blocked

	Date       generic.TimePoint
	Conflicts  []LeaveRecord // existing records on the same date
	Violations []Finding     // critical
	Warnings   []Finding     // non-critical
	Stats      MonthlyStats  // before the candidate
}

// Allowed reports whether the caller may persist (Warned still needs confirmation).
func (d Decision) Allowed() bool { return d.Outcome != OutcomeBlocked }

// NeedsConfirmation reports whether warnings must be acknowledged first.
func (d Decision) NeedsConfirmation() bool { return d.Outcome == OutcomeWarned }

// Messages lists every user-facing message, blocks first.
func (d Decision) Messages() []string {
	var msgs []string
	if len(d.Conflicts) > 0 {
		msgs = append(msgs, fmt.Sprintf("a leave record already exists on %s", d.Date))
	}
	for _, f := range d.Violations {
		msgs = append(msgs, f.Message)
	}
	for _, f := range d.Warnings {
		msgs = append(msgs, f.Message)
	}
	return msgs
}

// =============================================================================
// VALIDATOR
// =============================================================================

type Validator struct {
	Limits Limits
}

func NewValidator(limits Limits) Validator {
	return Validator{Limits: limits}
}

// Validate runs the decision procedure. existing must be a consistent
// snapshot of the store; it is never modified.
func (v Validator) Validate(c Candidate, roster Roster, existing []LeaveRecord) (Decision, error) {
	date, err := v.checkInput(c, roster)
	if err != nil {
		return Decision{}, err
	}

	others := existing
	if c.ReplacesID != "" {
		others = make([]LeaveRecord, 0, len(existing))
		for _, r := range existing {
			if r.ID != c.ReplacesID {
				others = append(others, r)
			}
		}
	}

	d := Decision{Date: date}

	// 1. Duplicate check
	for _, r := range others {
		if r.EmployeeID == c.EmployeeID && r.LicenseDate.Equal(date) {
			d.Conflicts = append(d.Conflicts, r)
		}
	}

	// 2. Monthly aggregation
	d.Stats = v.Limits.MonthlyStats(c.EmployeeID, date.Year(), date.Month(), others)

	// 3-4. Quota axes
	var findings []Finding
	switch c.Type {
	case FullDay:
		findings = v.fullDayFindings(d.Stats)
	case PartialDay:
		findings = append(v.shortCountFindings(d.Stats), v.hoursFindings(d.Stats, *c.Hours)...)
	}
	for _, f := range findings {
		if f.Critical {
			d.Violations = append(d.Violations, f)
		} else {
			d.Warnings = append(d.Warnings, f)
		}
	}

	// 5-6. Outcome
	switch {
	case len(d.Conflicts) > 0:
		d.Outcome, d.Reason = OutcomeBlocked, ReasonDuplicateDate
	case len(d.Violations) > 0:
		d.Outcome, d.Reason = OutcomeBlocked, ReasonMonthlyLimitExceeded
	case len(d.Warnings) > 0:
		d.Outcome = OutcomeWarned
	default:
		d.Outcome = OutcomeAccepted
	}
	return d, nil
}

func (v Validator) checkInput(c Candidate, roster Roster) (generic.TimePoint, error) {
	if strings.TrimSpace(string(c.EmployeeID)) == "" {
		return generic.TimePoint{}, invalid("employee_id", "required")
	}
	if _, ok := roster.Lookup(c.EmployeeID); !ok {
		return generic.TimePoint{}, &InvalidInputError{
			Field:  "employee_id",
			Reason: fmt.Sprintf("employee %s does not exist", c.EmployeeID),
			Err:    generic.ErrEmployeeNotFound,
		}
	}
	date, err := generic.ParseDate(c.LicenseDate)
	if err != nil {
		return generic.TimePoint{}, invalid("license_date", "%v", err)
	}
	switch c.Type {
	case FullDay:
		if c.Hours != nil && !c.Hours.IsZero() {
			return generic.TimePoint{}, invalid("hours", "must be empty for a full-day leave")
		}
	case PartialDay:
		if c.Hours == nil || !c.Hours.IsPositive() {
			return generic.TimePoint{}, invalid("hours", "must be positive for a partial-day leave")
		}
	default:
		return generic.TimePoint{}, invalid("license_type", "unknown type %q", c.Type)
	}
	return date, nil
}

func (v Validator) fullDayFindings(s MonthlyStats) []Finding {
	switch {
	case s.RemainingFullDays <= 0:
		return []Finding{{
			Axis:     AxisFullDays,
			Code:     "full_day_limit_reached",
			Critical: true,
			Message: fmt.Sprintf("monthly full-day limit of %d already used (%d recorded)",
				v.Limits.FullDayLicenses, s.FullDayCount),
		}}
	case s.RemainingFullDays == 1:
		return []Finding{{
			Axis:    AxisFullDays,
			Code:    "last_full_day",
			Message: "only one full-day leave remaining this month",
		}}
	}
	return nil
}

func (v Validator) shortCountFindings(s MonthlyStats) []Finding {
	switch {
	case s.RemainingShortLicenses <= 0:
		return []Finding{{
			Axis:     AxisShortLicenses,
			Code:     "short_limit_reached",
			Critical: true,
			Message: fmt.Sprintf("monthly partial-day limit of %d already used (%d recorded)",
				v.Limits.ShortLicenses, s.PartialDayCount),
		}}
	case s.RemainingShortLicenses == 1:
		return []Finding{{
			Axis:    AxisShortLicenses,
			Code:    "last_short_license",
			Message: "only one partial-day leave remaining this month",
		}}
	}
	return nil
}

func (v Validator) hoursFindings(s MonthlyStats, hours generic.Amount) []Finding {
	limit := v.Limits.MaxHoursPerMonth
	newTotal := s.TotalPartialHours.Add(hours)
	excess := newTotal.Sub(limit).ClampZero()

	switch {
	case newTotal.GreaterThan(limit):
		return []Finding{{
			Axis:     AxisHours,
			Code:     "hours_limit_exceeded",
			Critical: true,
			Excess:   excess,
			Message: fmt.Sprintf("monthly hour limit of %s would be exceeded by %s hours (%s used)",
				limit, excess, s.TotalPartialHours),
		}}
	case newTotal.Equal(limit):
		return []Finding{{
			Axis:     AxisHours,
			Code:     "hours_limit_reached",
			Critical: true,
			Excess:   excess,
			Message: fmt.Sprintf("monthly hour limit of %s would be reached (%s used)",
				limit, s.TotalPartialHours),
		}}
	case s.RemainingHours.LessThan(hours):
		return []Finding{{
			Axis:    AxisHours,
			Code:    "hours_near_limit",
			Excess:  excess,
			Message: fmt.Sprintf("only %s hours remaining this month", s.RemainingHours),
		}}
	}
	return nil
}
