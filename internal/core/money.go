// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts typed by users
// and converting between cents and reais.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// Both "12.34" and the Brazilian "12,34" are accepted. When both separators
// appear, the last one is the decimal separator and the other groups
// thousands ("1.234,56"). A lone separator repeated more than once is a
// thousands separator ("1.234.567"). Zero, negative and malformed values are
// rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseDecimalToCents("12.34")    -> 1234, nil
//	ParseDecimalToCents("1.234,56") -> 123456, nil
//	ParseDecimalToCents("12.345")   -> 1235, nil (half-up on the third digit)
//	ParseDecimalToCents("R$ 10")    -> 1000, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}

	intPart, fracPart, err := splitDecimal(s)
	if err != nil {
		return 0, err
	}
	if intPart == "" {
		intPart = "0"
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return 0, ErrInvalidAmount
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}

	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
		}
		if len(fracPart) > 2 && fracPart[2] >= '5' {
			fracCents++
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

func splitDecimal(s string) (string, string, error) {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	var decSep, groupSep string
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			decSep, groupSep = ",", "."
		} else {
			decSep, groupSep = ".", ","
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			groupSep = ","
		} else {
			decSep = ","
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			groupSep = "."
		} else {
			decSep = "."
		}
	}

	intPart, fracPart := s, ""
	if decSep != "" {
		i := strings.LastIndex(s, decSep)
		intPart, fracPart = s[:i], s[i+1:]
		if strings.Contains(fracPart, groupSep) && groupSep != "" {
			return "", "", ErrInvalidAmount
		}
	}
	if groupSep != "" && strings.Contains(intPart, groupSep) {
		groups := strings.Split(intPart, groupSep)
		if groups[0] == "" || len(groups[0]) > 3 {
			return "", "", ErrInvalidAmount
		}
		for _, g := range groups[1:] {
			if len(g) != 3 {
				return "", "", ErrInvalidAmount
			}
		}
		intPart = strings.Join(groups, "")
	}
	return intPart, fracPart, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// FromReais converts a float amount to Money, rounding half away from zero.
func FromReais(v float64) Money {
	if v < 0 {
		return Money{Cents: int64(v*100 - 0.5)}
	}
	return Money{Cents: int64(v*100 + 0.5)}
}

// Reais returns the value as a float64 for display and percentages.
// Use cents for sums to avoid floating-point drift.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }

// PercentOf returns m as a percentage of total, or 0 when total is not positive.
func (m Money) PercentOf(total Money) float64 {
	if total.Cents <= 0 {
		return 0
	}
	return float64(m.Cents) / float64(total.Cents) * 100
}
