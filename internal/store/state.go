// Package store holds the in-memory application state and the commands that
// transition it. State values are never mutated in place: every command
// returns a new State that shares no slices with the old one.
package store

import (
	"slices"

	"saldo/internal/core"
)

// Uncategorized is returned for missing or dangling category ids.
var Uncategorized = core.Category{Name: "Sem Categoria", Color: "#888"}

// DefaultCategories seeds a store that has no categories yet.
func DefaultCategories() []core.Category {
	return []core.Category{
		{ID: "1", Name: "Moradia", Color: "#3B82F6", Type: core.Essential},
		{ID: "2", Name: "Alimentação", Color: "#10B981", Type: core.Essential},
		{ID: "3", Name: "Transporte", Color: "#F59E0B", Type: core.Essential},
		{ID: "4", Name: "Saúde", Color: "#EF4444", Type: core.Essential},
		{ID: "5", Name: "Educação", Color: "#8B5CF6", Type: core.Essential},
		{ID: "6", Name: "Lazer", Color: "#EC4899", Type: core.Wants},
		{ID: "7", Name: "Outros", Color: "#6B7280", Type: core.Wants},
	}
}

type State struct {
	Transactions       []core.Transaction
	RecurringTemplates []core.RecurringTemplate
	Categories         []core.Category
	Filter             core.DateFilter
	Onboarded          bool
}

// New returns an empty state viewing the given month.
func New(filter core.DateFilter) State {
	return State{Filter: filter}
}

// FromSnapshot builds a state from persisted data.
func FromSnapshot(snap core.Snapshot, filter core.DateFilter) State {
	s := State{
		Transactions:       slices.Clone(snap.Transactions),
		RecurringTemplates: cloneTemplates(snap.RecurringTemplates),
		Categories:         slices.Clone(snap.Categories),
		Filter:             filter,
	}
	return s
}

// Snapshot returns the persisted part of the state.
func (s State) Snapshot() core.Snapshot {
	return core.Snapshot{
		Transactions:       slices.Clone(s.Transactions),
		RecurringTemplates: cloneTemplates(s.RecurringTemplates),
		Categories:         slices.Clone(s.Categories),
	}
}

// FilteredByMonth returns the transactions dated inside m, in stored order.
func (s State) FilteredByMonth(m core.Month) []core.Transaction {
	var out []core.Transaction
	for _, t := range s.Transactions {
		if m.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// Filtered returns the transactions of the DateFilter month.
func (s State) Filtered() []core.Transaction {
	return s.FilteredByMonth(s.Filter)
}

// PastMonths returns the transactions of the n months ending at the
// DateFilter month, inclusive. Every month in the window has an entry, even
// when it holds no transactions.
func (s State) PastMonths(n int) map[core.Month][]core.Transaction {
	out := make(map[core.Month][]core.Transaction, n)
	if n <= 0 {
		return out
	}
	oldest := s.Filter.AddMonths(-(n - 1))
	for m := range oldest.Through(s.Filter) {
		out[m] = []core.Transaction{}
	}
	for _, t := range s.Transactions {
		m := t.Date.Month()
		if bucket, ok := out[m]; ok {
			out[m] = append(bucket, t)
		}
	}
	return out
}

// LookupCategory returns the category with id, if any.
func (s State) LookupCategory(id string) (core.Category, bool) {
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}

// CategoryByID never fails: unknown ids resolve to Uncategorized.
func (s State) CategoryByID(id string) core.Category {
	if c, ok := s.LookupCategory(id); ok {
		return c
	}
	placeholder := Uncategorized
	placeholder.ID = id
	return placeholder
}

// Template returns the recurring template with id, if any.
func (s State) Template(id string) (core.RecurringTemplate, bool) {
	for _, rt := range s.RecurringTemplates {
		if rt.ID == id {
			return rt.Clone(), true
		}
	}
	return core.RecurringTemplate{}, false
}

// Transaction returns the transaction with id, if any.
func (s State) Transaction(id string) (core.Transaction, bool) {
	for _, t := range s.Transactions {
		if t.ID == id {
			return t, true
		}
	}
	return core.Transaction{}, false
}

func cloneTemplates(in []core.RecurringTemplate) []core.RecurringTemplate {
	if in == nil {
		return nil
	}
	out := make([]core.RecurringTemplate, len(in))
	for i, rt := range in {
		out[i] = rt.Clone()
	}
	return out
}
