package core

import (
	"fmt"
	"iter"
	"time"
)

// Month is a calendar month. Arithmetic is done on a month index so there is
// no dependency on day overflow or time zones.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth normalizes month overflow, so NewMonth(2024, 13) is January 2025.
func NewMonth(year int, month time.Month) Month {
	return monthFromIndex(year*12 + int(month) - 1)
}

// MonthOf returns the month t falls in, using t's own location.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func monthFromIndex(idx int) Month {
	y := idx / 12
	m := idx % 12
	if m < 0 {
		m += 12
		y--
	}
	return Month{Year: y, Month: time.Month(m + 1)}
}

func (m Month) index() int {
	return m.Year*12 + int(m.Month) - 1
}

// Valid reports whether Month is within January..December.
func (m Month) Valid() bool {
	return m.Month >= time.January && m.Month <= time.December
}

// AddMonths moves n months forward (or backward when n is negative).
func (m Month) AddMonths(n int) Month {
	return monthFromIndex(m.index() + n)
}

func (m Month) Next() Month { return m.AddMonths(1) }
func (m Month) Prev() Month { return m.AddMonths(-1) }

// Compare returns -1, 0 or +1.
func (m Month) Compare(o Month) int {
	switch a, b := m.index(), o.index(); {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (m Month) Before(o Month) bool { return m.Compare(o) < 0 }
func (m Month) After(o Month) bool  { return m.Compare(o) > 0 }

// Sub returns the number of months from o to m.
func (m Month) Sub(o Month) int {
	return m.index() - o.index()
}

// FirstDay is the first calendar day of the month.
func (m Month) FirstDay() Date {
	return NewDate(m.Year, m.Month, 1)
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Day returns the given day in this month, clamped to the last day.
func (m Month) Day(day int) Date {
	if day < 1 {
		day = 1
	}
	if last := m.Days(); day > last {
		day = last
	}
	return NewDate(m.Year, m.Month, day)
}

// Contains reports whether d falls in this month.
func (m Month) Contains(d Date) bool {
	return d.Month() == m
}

// Through yields every month from m up to and including end. Nothing is
// yielded when end is before m.
func (m Month) Through(end Month) iter.Seq[Month] {
	return func(yield func(Month) bool) {
		for cur := m; !cur.After(end); cur = cur.Next() {
			if !yield(cur) {
				return
			}
		}
	}
}

// String formats the month as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}
