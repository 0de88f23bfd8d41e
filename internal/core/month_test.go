package core

import (
	"slices"
	"testing"
	"time"
)

func TestMonthAddMonths(t *testing.T) {
	tests := []struct {
		name string
		from Month
		n    int
		want Month
	}{
		{"same year", Month{2024, time.March}, 2, Month{2024, time.May}},
		{"year rollover", Month{2024, time.December}, 1, Month{2025, time.January}},
		{"backward rollover", Month{2024, time.January}, -1, Month{2023, time.December}},
		{"many years back", Month{2024, time.March}, -27, Month{2021, time.December}},
		{"zero", Month{2024, time.June}, 0, Month{2024, time.June}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.AddMonths(tt.n); got != tt.want {
				t.Errorf("AddMonths(%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestNewMonthNormalizes(t *testing.T) {
	if got := NewMonth(2024, 13); got != (Month{2025, time.January}) {
		t.Errorf("NewMonth(2024, 13) = %v", got)
	}
	if got := NewMonth(2024, 0); got != (Month{2023, time.December}) {
		t.Errorf("NewMonth(2024, 0) = %v", got)
	}
}

func TestMonthCompare(t *testing.T) {
	a := Month{2023, time.December}
	b := Month{2024, time.January}
	if !a.Before(b) || b.Before(a) || !b.After(a) {
		t.Fatalf("ordering broken for %v and %v", a, b)
	}
	if a.Compare(a) != 0 {
		t.Fatalf("Compare(self) != 0")
	}
	if got := b.Sub(a); got != 1 {
		t.Errorf("Sub() = %d, want 1", got)
	}
}

func TestMonthDayClamps(t *testing.T) {
	tests := []struct {
		m    Month
		day  int
		want string
	}{
		{Month{2024, time.February}, 31, "2024-02-29"},
		{Month{2023, time.February}, 30, "2023-02-28"},
		{Month{2024, time.April}, 31, "2024-04-30"},
		{Month{2024, time.January}, 31, "2024-01-31"},
		{Month{2024, time.January}, 5, "2024-01-05"},
	}
	for _, tt := range tests {
		if got := tt.m.Day(tt.day).String(); got != tt.want {
			t.Errorf("%v.Day(%d) = %s, want %s", tt.m, tt.day, got, tt.want)
		}
	}
}

func TestMonthThrough(t *testing.T) {
	got := slices.Collect(Month{2023, time.November}.Through(Month{2024, time.February}))
	want := []Month{{2023, time.November}, {2023, time.December}, {2024, time.January}, {2024, time.February}}
	if !slices.Equal(got, want) {
		t.Fatalf("Through() = %v, want %v", got, want)
	}
	if got := slices.Collect(Month{2024, time.March}.Through(Month{2024, time.February})); len(got) != 0 {
		t.Fatalf("Through() on reversed range = %v, want empty", got)
	}
}

func TestMonthContains(t *testing.T) {
	m := Month{2024, time.March}
	if !m.Contains(NewDate(2024, time.March, 31)) {
		t.Error("Contains(2024-03-31) = false")
	}
	if m.Contains(NewDate(2024, time.April, 1)) || m.Contains(NewDate(2023, time.March, 1)) {
		t.Error("Contains matched a date outside the month")
	}
	if m.String() != "2024-03" {
		t.Errorf("String() = %s", m.String())
	}
}
