package core

import (
	"errors"
	"testing"
	"time"
)

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Type:        Expense,
		Amount:      Money{Cents: 100},
		Description: "ok",
		CategoryID:  "1",
		Date:        NewDate(2025, time.January, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	income := Transaction{Type: Income, Amount: Money{Cents: 100}, Description: "Salário"}
	if err := income.Validate(); err != nil {
		t.Fatalf("income without category should be valid, got %v", err)
	}

	bads := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{Type: "transfer", Amount: Money{Cents: 1}, Description: "a"}, ErrInvalidType},
		{Transaction{Type: Expense, Amount: Money{Cents: 0}, Description: "a", CategoryID: "1"}, ErrInvalidAmount},
		{Transaction{Type: Expense, Amount: Money{Cents: -5}, Description: "a", CategoryID: "1"}, ErrInvalidAmount},
		{Transaction{Type: Expense, Amount: Money{Cents: 1}, Description: " ", CategoryID: "1"}, ErrEmptyDescription},
		{Transaction{Type: Expense, Amount: Money{Cents: 1}, Description: "a"}, ErrMissingCategory},
	}
	for i, tc := range bads {
		err := tc.tx.Validate()
		if !errors.Is(err, tc.want) {
			t.Fatalf("case %d: Validate() = %v, want %v", i, err, tc.want)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("case %d: expected *ValidationError, got %T", i, err)
		}
	}
}

func TestRecurringTemplateCheck(t *testing.T) {
	ok := RecurringTemplate{
		ID:            "r1",
		DayOfMonth:    5,
		AmountHistory: AmountHistory{{Amount: Money{Cents: 100}, EffectiveDate: NewDate(2024, time.January, 1)}},
	}
	if err := ok.Check(); err != nil {
		t.Fatalf("Check() = %v, want nil", err)
	}

	noHistory := ok
	noHistory.AmountHistory = nil
	err := noHistory.Check()
	if !errors.Is(err, ErrMissingAmountHistory) {
		t.Fatalf("Check() = %v, want ErrMissingAmountHistory", err)
	}
	var w *IntegrityWarning
	if !errors.As(err, &w) || w.ID != "r1" {
		t.Fatalf("expected IntegrityWarning for r1, got %v", err)
	}

	for _, day := range []int{0, 32, -1} {
		bad := ok
		bad.DayOfMonth = day
		if err := bad.Check(); !errors.Is(err, ErrInvalidDayOfMonth) {
			t.Errorf("day %d: Check() = %v, want ErrInvalidDayOfMonth", day, err)
		}
	}
}

func TestRecurringTemplateValidate(t *testing.T) {
	rt := RecurringTemplate{
		Type:        Expense,
		Description: "Aluguel",
		CategoryID:  "1",
		DayOfMonth:  31,
		Frequency:   Monthly,
	}
	if err := rt.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	rt.Frequency = "weekly"
	if err := rt.Validate(); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("Validate() = %v, want ErrInvalidFrequency", err)
	}
}

func TestRecurringTemplateClone(t *testing.T) {
	li := Month{Year: 2024, Month: time.March}
	rt := RecurringTemplate{
		AmountHistory: AmountHistory{{Amount: Money{Cents: 1}}},
		LastInstance:  &li,
	}
	c := rt.Clone()
	c.AmountHistory[0].Amount = Money{Cents: 99}
	c.LastInstance.Month = time.April
	if rt.AmountHistory[0].Amount.Cents != 1 || rt.LastInstance.Month != time.March {
		t.Fatalf("Clone shares memory with original: %+v", rt)
	}
}

func TestDateMonth(t *testing.T) {
	d := NewDate(2024, time.February, 29)
	if got := d.Month(); got != (Month{Year: 2024, Month: time.February}) {
		t.Errorf("Month() = %v, want 2024-02", got)
	}
	loc := time.FixedZone("BRT", -3*3600)
	late := time.Date(2024, time.March, 31, 23, 30, 0, 0, loc)
	if got := DateOf(late); got.String() != "2024-03-31" {
		t.Errorf("DateOf() = %s, want 2024-03-31", got)
	}
}
