package core

import (
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Essential      CategoryType = "essential"
	Wants          CategoryType = "wants"
	IncomeCategory CategoryType = "income"
)

const Monthly Frequency = "monthly"

const maxDescriptionLen = 200

type (
	TransactionType string
	CategoryType    string
	Frequency       string

	// Date is a calendar day stored as UTC midnight so that month
	// membership never depends on the host time zone.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Category struct {
		ID    string
		Name  string
		Color string
		Type  CategoryType
	}

	Transaction struct {
		ID                  string
		Type                TransactionType
		Amount              Money
		Description         string
		CategoryID          string // empty for income
		Date                Date
		IsRecurringInstance bool
		RecurringID         string // template that generated it, if any
	}

	// RecurringTemplate describes a transaction that repeats every month on
	// DayOfMonth with an amount that may change over time.
	RecurringTemplate struct {
		ID            string
		Type          TransactionType
		Description   string
		CategoryID    string
		DayOfMonth    int
		Frequency     Frequency
		AmountHistory AmountHistory
		// LastInstance is the materialization watermark; nil until the
		// first instance has been generated by the materializer.
		LastInstance *Month
	}

	// DateFilter selects the month every derived view is computed for.
	DateFilter = Month

	// Snapshot is the persisted part of the application state.
	Snapshot struct {
		Transactions       []Transaction
		RecurringTemplates []RecurringTemplate
		Categories         []Category
	}
)

// NewDate creates a new Date from year, month, day. Out of range days
// normalize the same way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Month returns the calendar month the date falls in.
func (d Date) Month() Month {
	return Month{Year: d.Time.Year(), Month: d.Time.Month()}
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (c CategoryType) Valid() bool {
	switch c {
	case Essential, Wants, IncomeCategory:
		return true
	}
	return false
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return &ValidationError{Field: "type", Err: ErrInvalidType}
	}
	if err := t.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if t.Type == Expense && strings.TrimSpace(t.CategoryID) == "" {
		return &ValidationError{Field: "category_id", Err: ErrMissingCategory}
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if !c.Type.Valid() {
		return &ValidationError{Field: "type", Err: ErrInvalidCategoryType}
	}
	return nil
}

// Validate checks a template coming from user input. Templates loaded from
// storage go through Check instead, which only reports what would make
// materialization impossible.
func (rt RecurringTemplate) Validate() error {
	if !rt.Type.Valid() {
		return &ValidationError{Field: "type", Err: ErrInvalidType}
	}
	if err := validateDescription(rt.Description); err != nil {
		return err
	}
	if rt.Type == Expense && strings.TrimSpace(rt.CategoryID) == "" {
		return &ValidationError{Field: "category_id", Err: ErrMissingCategory}
	}
	if rt.Frequency != "" && rt.Frequency != Monthly {
		return &ValidationError{Field: "frequency", Err: ErrInvalidFrequency}
	}
	if err := ValidateDayOfMonth(rt.DayOfMonth); err != nil {
		return err
	}
	for _, e := range rt.AmountHistory {
		if err := e.Amount.Validate(); err != nil {
			return &ValidationError{Field: "amount", Err: err}
		}
	}
	return nil
}

// Check reports integrity problems that prevent materializing the template.
func (rt RecurringTemplate) Check() error {
	if len(rt.AmountHistory) == 0 {
		return &IntegrityWarning{Entity: "template", ID: rt.ID, Err: ErrMissingAmountHistory}
	}
	if rt.DayOfMonth < 1 || rt.DayOfMonth > 31 {
		return &IntegrityWarning{Entity: "template", ID: rt.ID, Err: ErrInvalidDayOfMonth}
	}
	return nil
}

// ValidateDayOfMonth accepts 1..31; shorter months clamp at materialization.
func ValidateDayOfMonth(day int) error {
	if day < 1 || day > 31 {
		return &ValidationError{Field: "day_of_month", Err: ErrInvalidDayOfMonth}
	}
	return nil
}

func validateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) == 0 {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if len(desc) > maxDescriptionLen {
		return &ValidationError{Field: "description", Err: ErrDescriptionTooLong}
	}
	return nil
}

// Clone returns a deep copy so callers can mutate it freely.
func (rt RecurringTemplate) Clone() RecurringTemplate {
	out := rt
	out.AmountHistory = append(AmountHistory(nil), rt.AmountHistory...)
	if rt.LastInstance != nil {
		li := *rt.LastInstance
		out.LastInstance = &li
	}
	return out
}
