// Package core holds the budgetboard domain model, validation rules and the
// pure aggregation functions used by the reports.
//
// This file contains money parsing and formatting. Amounts are kept as integer
// cents; decimal arithmetic is only used at the edges (parsing, percentages).
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

// maxAmount caps accepted input well below the int64 cents range.
var maxAmount = decimal.New(1, 13)

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. The result
// is always positive; signs, zero and malformed input return ErrInvalidAmount.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,345") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return 0, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0).IntPart()
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseMoney is ParseDecimalToCents wrapped into a Money.
func ParseMoney(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) Decimal() decimal.Decimal { return decimal.New(m.Cents, -2) }

// Float returns the amount as a float64 for charts and spreadsheets.
// Use cents for calculations.
func (m Money) Float() float64 { return m.Decimal().InexactFloat64() }

// String renders the amount with two fraction digits and no grouping, e.g. "-1234.50".
func (m Money) String() string { return m.Decimal().StringFixed(2) }

// Format renders the amount for display: "$1,234.50", "-$12.00".
func (m Money) Format() string {
	s := m.String()
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + "." + frac
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or string. Zero and negative values are
// left for Validate to reject so the caller gets a single error path.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*m = Money{}
		return nil
	}
	s = strings.ReplaceAll(strings.Trim(s, `"`), ",", ".")
	if s == "" {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.Abs().GreaterThanOrEqual(maxAmount) {
		return ErrInvalidAmount
	}
	*m = Money{Cents: d.Shift(2).Round(0).IntPart()}
	return nil
}

// Percent returns part/whole*100 rounded half-up to one decimal, 0 when whole is not positive.
func Percent(part, whole Money) float64 {
	if whole.Cents <= 0 {
		return 0
	}
	p := decimal.NewFromInt(part.Cents).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(whole.Cents), 4).
		Round(1)
	return p.InexactFloat64()
}
