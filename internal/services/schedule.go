// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurrence schedules. Each
// frequency has a strategy deciding which months produce an instance and on
// which day the instance is dated.

package services

import (
	"fmt"
	"iter"

	"saldo/internal/core"
)

// Schedule is the strategy interface for materializing a recurring template.
type Schedule interface {
	// Occurrences yields the months between from and to, both inclusive,
	// in which the template produces an instance.
	Occurrences(from, to core.Month) iter.Seq[core.Month]
	// Date returns the day an instance in month m is dated on.
	Date(m core.Month, dayOfMonth int) core.Date
}

// MonthlySchedule produces one instance per calendar month.
type MonthlySchedule struct{}

func (MonthlySchedule) Occurrences(from, to core.Month) iter.Seq[core.Month] {
	return from.Through(to)
}

// Date clamps days past the end of the month to its last day, so an
// instance for day 31 lands on Feb 28/29 instead of spilling into March.
func (MonthlySchedule) Date(m core.Month, dayOfMonth int) core.Date {
	return m.Day(dayOfMonth)
}

// schedules maps frequencies to their strategy. Templates stored before the
// frequency field existed carry an empty frequency and are monthly.
var schedules = map[core.Frequency]Schedule{
	core.Monthly: MonthlySchedule{},
	"":           MonthlySchedule{},
}

// GetSchedule returns the schedule for a frequency.
func GetSchedule(frequency core.Frequency) (Schedule, error) {
	s, ok := schedules[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %q", frequency)
	}
	return s, nil
}
