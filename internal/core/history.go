package core

import (
	"slices"
)

// AmountEntry sets the amount of a recurring template from EffectiveDate on.
type AmountEntry struct {
	Amount        Money
	EffectiveDate Date
}

// AmountHistory is the amount schedule of a recurring template. Entries may
// be stored in any order.
type AmountHistory []AmountEntry

// Sorted returns a copy ordered by EffectiveDate. The sort is stable: entries
// sharing an EffectiveDate keep their insertion order, so the one added last
// wins during resolution.
func (h AmountHistory) Sorted() AmountHistory {
	out := slices.Clone(h)
	slices.SortStableFunc(out, func(a, b AmountEntry) int {
		return a.EffectiveDate.Compare(b.EffectiveDate.Time)
	})
	return out
}

// Resolve returns the amount in effect on the first day of m. A zero Money
// means the schedule is not yet effective for that month.
func (h AmountHistory) Resolve(m Month) Money {
	target := m.FirstDay()
	var amount Money
	for _, e := range h.Sorted() {
		if e.EffectiveDate.After(target.Time) {
			break
		}
		amount = e.Amount
	}
	return amount
}

// Latest returns the entry with the greatest EffectiveDate.
func (h AmountHistory) Latest() (AmountEntry, bool) {
	if len(h) == 0 {
		return AmountEntry{}, false
	}
	sorted := h.Sorted()
	return sorted[len(sorted)-1], true
}

// With returns a new history with e appended.
func (h AmountHistory) With(e AmountEntry) AmountHistory {
	out := make(AmountHistory, 0, len(h)+1)
	out = append(out, h...)
	return append(out, e)
}

// ResolveAmount returns the amount a template contributes in month m.
func ResolveAmount(h AmountHistory, m Month) Money {
	return h.Resolve(m)
}
