package store

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"saldo/internal/core"
)

// ErrNotFound is returned by commands that address an unknown id.
var ErrNotFound = errors.New("not found")

// Command is a state transition. Commands are applied through a Reducer.
type Command interface {
	// Name identifies the command in logs.
	Name() string
	apply(r *Reducer, s State) (State, error)
}

// Reducer applies commands. It owns the only impure inputs a transition
// needs: the clock and the id generator.
type Reducer struct {
	now   func() time.Time
	newID func() string
}

// NewReducer creates a reducer; nil arguments fall back to time.Now and
// random UUIDs.
func NewReducer(now func() time.Time, newID func() string) *Reducer {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Reducer{now: now, newID: newID}
}

// Apply returns the state after cmd. On error the returned state is s.
func (r *Reducer) Apply(s State, cmd Command) (State, error) {
	next, err := cmd.apply(r, s)
	if err != nil {
		return s, fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	return next, nil
}

// Apply uses a reducer with the wall clock and random ids.
func Apply(s State, cmd Command) (State, error) {
	return NewReducer(nil, nil).Apply(s, cmd)
}

// Persistent reports whether cmd changes data that must be saved.
func Persistent(cmd Command) bool {
	switch cmd.(type) {
	case SetDateFilter, SetOnboarded:
		return false
	}
	return true
}

var (
	_ Command = AddTransaction{}
	_ Command = UpdateTransaction{}
	_ Command = RemoveTransaction{}
	_ Command = AddRecurringTemplate{}
	_ Command = UpdateRecurringTemplate{}
	_ Command = RemoveRecurringTemplate{}
	_ Command = AddCategory{}
	_ Command = UpdateCategory{}
	_ Command = RemoveCategory{}
	_ Command = SetDateFilter{}
	_ Command = SetOnboarded{}
	_ Command = ClearAll{}
)

type (
	// AddTransaction records a one-shot transaction. A zero Date dates it on
	// today's day inside the DateFilter month.
	AddTransaction struct {
		Transaction core.Transaction
	}

	// UpdateTransaction changes the amount and/or description.
	UpdateTransaction struct {
		ID          string
		Amount      *core.Money
		Description *string
	}

	RemoveTransaction struct {
		ID string
	}

	// AddRecurringTemplate creates a template effective from the DateFilter
	// month and records its first instance in that month.
	AddRecurringTemplate struct {
		Template core.RecurringTemplate
		Amount   core.Money
	}

	// UpdateRecurringTemplate schedules a new amount from EffectiveFrom on.
	// Past instances keep their amounts.
	UpdateRecurringTemplate struct {
		ID            string
		Amount        core.Money
		EffectiveFrom core.Month
	}

	// RemoveRecurringTemplate stops future materialization. Instances already
	// generated stay.
	RemoveRecurringTemplate struct {
		ID string
	}

	AddCategory struct {
		Category core.Category
	}

	// UpdateCategory changes the fields that are set.
	UpdateCategory struct {
		ID      string
		NewName *string
		Color   *string
		Type    *core.CategoryType
	}

	// RemoveCategory deletes the category together with every transaction
	// and recurring template referencing it.
	RemoveCategory struct {
		ID string
	}

	SetDateFilter struct {
		Filter core.DateFilter
	}

	SetOnboarded struct{}

	// ClearAll drops every transaction, template and category and resets the
	// filter to the current month.
	ClearAll struct{}
)

func (AddTransaction) Name() string          { return "add_transaction" }
func (UpdateTransaction) Name() string       { return "update_transaction" }
func (RemoveTransaction) Name() string       { return "remove_transaction" }
func (AddRecurringTemplate) Name() string    { return "add_recurring_template" }
func (UpdateRecurringTemplate) Name() string { return "update_recurring_template" }
func (RemoveRecurringTemplate) Name() string { return "remove_recurring_template" }
func (AddCategory) Name() string             { return "add_category" }
func (UpdateCategory) Name() string          { return "update_category" }
func (RemoveCategory) Name() string          { return "remove_category" }
func (SetDateFilter) Name() string           { return "set_date_filter" }
func (SetOnboarded) Name() string            { return "set_onboarded" }
func (ClearAll) Name() string                { return "clear_all" }

func (c AddTransaction) apply(r *Reducer, s State) (State, error) {
	t := c.Transaction
	if t.Date.IsZero() {
		t.Date = s.Filter.Day(r.now().Day())
	}
	if t.ID == "" {
		t.ID = r.newID()
	}
	if err := t.Validate(); err != nil {
		return s, err
	}
	if _, exists := s.Transaction(t.ID); exists {
		return s, fmt.Errorf("transaction %s already exists", t.ID)
	}
	s.Transactions = append(slices.Clone(s.Transactions), t)
	return s, nil
}

func (c UpdateTransaction) apply(_ *Reducer, s State) (State, error) {
	i := slices.IndexFunc(s.Transactions, func(t core.Transaction) bool { return t.ID == c.ID })
	if i < 0 {
		return s, fmt.Errorf("transaction %s: %w", c.ID, ErrNotFound)
	}
	t := s.Transactions[i]
	if c.Amount != nil {
		t.Amount = *c.Amount
	}
	if c.Description != nil {
		t.Description = *c.Description
	}
	if err := t.Validate(); err != nil {
		return s, err
	}
	s.Transactions = slices.Clone(s.Transactions)
	s.Transactions[i] = t
	return s, nil
}

func (c RemoveTransaction) apply(_ *Reducer, s State) (State, error) {
	if _, ok := s.Transaction(c.ID); !ok {
		return s, fmt.Errorf("transaction %s: %w", c.ID, ErrNotFound)
	}
	s.Transactions = slices.DeleteFunc(slices.Clone(s.Transactions), func(t core.Transaction) bool {
		return t.ID == c.ID
	})
	return s, nil
}

func (c AddRecurringTemplate) apply(r *Reducer, s State) (State, error) {
	if err := c.Amount.Validate(); err != nil {
		return s, &core.ValidationError{Field: "amount", Err: err}
	}
	rt := c.Template.Clone()
	if rt.ID == "" {
		rt.ID = r.newID()
	}
	if rt.Frequency == "" {
		rt.Frequency = core.Monthly
	}
	rt.AmountHistory = core.AmountHistory{{Amount: c.Amount, EffectiveDate: s.Filter.FirstDay()}}
	rt.LastInstance = nil
	if err := rt.Validate(); err != nil {
		return s, err
	}
	if _, exists := s.Template(rt.ID); exists {
		return s, fmt.Errorf("recurring template %s already exists", rt.ID)
	}

	first := core.Transaction{
		ID:                  r.newID(),
		Type:                rt.Type,
		Amount:              c.Amount,
		Description:         rt.Description,
		CategoryID:          rt.CategoryID,
		Date:                s.Filter.Day(rt.DayOfMonth),
		IsRecurringInstance: true,
		RecurringID:         rt.ID,
	}
	s.RecurringTemplates = append(cloneTemplates(s.RecurringTemplates), rt)
	s.Transactions = append(slices.Clone(s.Transactions), first)
	return s, nil
}

func (c UpdateRecurringTemplate) apply(_ *Reducer, s State) (State, error) {
	if err := c.Amount.Validate(); err != nil {
		return s, &core.ValidationError{Field: "amount", Err: err}
	}
	if !c.EffectiveFrom.Valid() {
		return s, &core.ValidationError{Field: "effective_from", Err: core.ErrInvalidMonth}
	}
	i := slices.IndexFunc(s.RecurringTemplates, func(rt core.RecurringTemplate) bool { return rt.ID == c.ID })
	if i < 0 {
		return s, fmt.Errorf("recurring template %s: %w", c.ID, ErrNotFound)
	}
	templates := cloneTemplates(s.RecurringTemplates)
	templates[i].AmountHistory = templates[i].AmountHistory.With(core.AmountEntry{
		Amount:        c.Amount,
		EffectiveDate: c.EffectiveFrom.FirstDay(),
	})
	s.RecurringTemplates = templates
	return s, nil
}

func (c RemoveRecurringTemplate) apply(_ *Reducer, s State) (State, error) {
	if _, ok := s.Template(c.ID); !ok {
		return s, fmt.Errorf("recurring template %s: %w", c.ID, ErrNotFound)
	}
	s.RecurringTemplates = slices.DeleteFunc(cloneTemplates(s.RecurringTemplates), func(rt core.RecurringTemplate) bool {
		return rt.ID == c.ID
	})
	return s, nil
}

func (c AddCategory) apply(r *Reducer, s State) (State, error) {
	cat := c.Category
	cat.Name = strings.TrimSpace(cat.Name)
	if cat.ID == "" {
		cat.ID = r.newID()
	}
	if err := cat.Validate(); err != nil {
		return s, err
	}
	if _, exists := s.LookupCategory(cat.ID); exists {
		return s, fmt.Errorf("category %s already exists", cat.ID)
	}
	s.Categories = append(slices.Clone(s.Categories), cat)
	return s, nil
}

func (c UpdateCategory) apply(_ *Reducer, s State) (State, error) {
	i := slices.IndexFunc(s.Categories, func(cat core.Category) bool { return cat.ID == c.ID })
	if i < 0 {
		return s, fmt.Errorf("category %s: %w", c.ID, ErrNotFound)
	}
	cat := s.Categories[i]
	if c.NewName != nil {
		cat.Name = strings.TrimSpace(*c.NewName)
	}
	if c.Color != nil {
		cat.Color = *c.Color
	}
	if c.Type != nil {
		cat.Type = *c.Type
	}
	if err := cat.Validate(); err != nil {
		return s, err
	}
	s.Categories = slices.Clone(s.Categories)
	s.Categories[i] = cat
	return s, nil
}

func (c RemoveCategory) apply(_ *Reducer, s State) (State, error) {
	if _, ok := s.LookupCategory(c.ID); !ok {
		return s, fmt.Errorf("category %s: %w", c.ID, ErrNotFound)
	}
	s.Categories = slices.DeleteFunc(slices.Clone(s.Categories), func(cat core.Category) bool {
		return cat.ID == c.ID
	})
	s.Transactions = slices.DeleteFunc(slices.Clone(s.Transactions), func(t core.Transaction) bool {
		return t.CategoryID == c.ID
	})
	s.RecurringTemplates = slices.DeleteFunc(cloneTemplates(s.RecurringTemplates), func(rt core.RecurringTemplate) bool {
		return rt.CategoryID == c.ID
	})
	return s, nil
}

func (c SetDateFilter) apply(_ *Reducer, s State) (State, error) {
	if !c.Filter.Valid() {
		return s, &core.ValidationError{Field: "month", Err: core.ErrInvalidMonth}
	}
	s.Filter = c.Filter
	return s, nil
}

func (SetOnboarded) apply(_ *Reducer, s State) (State, error) {
	s.Onboarded = true
	return s, nil
}

func (ClearAll) apply(r *Reducer, s State) (State, error) {
	cleared := New(core.MonthOf(r.now()))
	cleared.Onboarded = s.Onboarded
	return cleared, nil
}
