// Package core provides money parsing and handling utilities.
//
// Money is a fixed-point amount with exactly two fractional digits. Every
// constructor and arithmetic result is rounded half-up (away from zero) to
// the cent, so equality is defined on the rounded value.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const moneyScale = 2

// Money is an immutable currency value. The zero value is 0.00.
type Money struct {
	amount decimal.Decimal
}

// NewMoney rounds d to two decimals.
func NewMoney(d decimal.Decimal) Money {
	return Money{amount: d.Round(moneyScale)}
}

// MoneyFromFloat builds Money from a float64 using its shortest decimal
// representation, so 50.005 becomes 50.01 and not 50.00.
func MoneyFromFloat(f float64) Money {
	return NewMoney(decimal.NewFromFloat(f))
}

// MoneyFromCents builds Money from an integer number of cents.
func MoneyFromCents(cents int64) Money {
	return Money{amount: decimal.New(cents, -moneyScale)}
}

// ParseMoney converts a decimal string to Money with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
//
// Examples:
//
//	ParseMoney("12.34")  -> 12.34
//	ParseMoney("12,34")  -> 12.34
//	ParseMoney("12.345") -> 12.35
//	ParseMoney("12.344") -> 12.34
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return NewMoney(d), nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return NewMoney(m.amount.Add(other.amount))
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return NewMoney(m.amount.Sub(other.amount))
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg()}
}

// Cmp compares two amounts: -1 if m < other, 0 if equal, +1 if m > other.
func (m Money) Cmp(other Money) int {
	return m.amount.Cmp(other.amount)
}

// Equal reports value equality on the rounded representation.
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Cents returns the amount as an integer number of cents.
func (m Money) Cents() int64 {
	return m.amount.Shift(moneyScale).IntPart()
}

// Decimal exposes the underlying value.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// Float64 returns the value as a float64 for statistics and display.
// Use Money for calculations to avoid floating-point drift.
func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

// String renders the plain decimal form, always with two fractional digits.
func (m Money) String() string {
	return m.amount.StringFixed(moneyScale)
}
