/*
Package generic provides the domain-agnostic building blocks of the registry.

PURPOSE:
  Calendar dates, monthly periods, decimal quantities and the error
  vocabulary shared by the license core, the stores and the HTTP layer.
  Nothing in this package knows what a leave record or an employee is.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 4 hours, 1 day)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so 0.5h partial leaves sum exactly
  2. Day granularity: TimePoint never carries a clock component into comparisons

USAGE:
  used := generic.NewAmountFromInt(10, generic.UnitHours)
  next := used.Add(generic.NewAmount(2, generic.UnitHours))
  next.GreaterThanOrEqual(limit) // reaching the cap

SEE ALSO:
  - time.go: TimePoint and date parsing
  - period.go: Calendar month windows
  - errors.go: Sentinel and structured errors
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitDays  Unit = "days"
	UnitHours Unit = "hours"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

func Hours(value float64) Amount { return NewAmount(value, UnitHours) }

// ParseAmount parses a decimal string such as "2.5".
func ParseAmount(s string, unit Unit) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Value: d, Unit: unit}, nil
}

func (a Amount) Zero() Amount                     { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount              { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount              { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) IsNegative() bool                 { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                     { return a.Value.IsZero() }
func (a Amount) IsPositive() bool                 { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool        { return a.Value.GreaterThan(b.Value) }
func (a Amount) GreaterThanOrEqual(b Amount) bool { return a.Value.GreaterThanOrEqual(b.Value) }
func (a Amount) LessThan(b Amount) bool           { return a.Value.LessThan(b.Value) }
func (a Amount) Equal(b Amount) bool              { return a.Value.Equal(b.Value) }
func (a Amount) String() string                   { return a.Value.String() }
func (a Amount) Float64() float64                 { return a.Value.InexactFloat64() }

// ClampZero returns a, or zero when a is negative.
func (a Amount) ClampZero() Amount {
	if a.IsNegative() {
		return a.Zero()
	}
	return a
}
