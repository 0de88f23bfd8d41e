package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"saldo/internal/core"
	"saldo/internal/store"
)

// legacyEffectiveDate is assigned to flat template amounts that predate
// amount histories.
var legacyEffectiveDate = core.NewDate(2020, time.January, 1)

// legacySalaryCategory is the only untyped category migrated to income.
const legacySalaryCategory = "Salário"

type (
	document struct {
		Transactions          []transactionRecord `json:"transactions"`
		RecurringTransactions []templateRecord    `json:"recurringTransactions"`
		Categories            []categoryRecord    `json:"categories"`

		// Pre-transactions layouts kept expenses and incomes apart.
		Expenses []transactionRecord `json:"expenses,omitempty"`
		Incomes  []transactionRecord `json:"incomes,omitempty"`
	}

	transactionRecord struct {
		ID                  flexID  `json:"id"`
		Type                string  `json:"type"`
		Amount              float64 `json:"amount"`
		Description         string  `json:"description"`
		CategoryID          flexID  `json:"categoryId,omitempty"`
		Date                string  `json:"date"`
		IsRecurringInstance bool    `json:"isRecurringInstance,omitempty"`
		RecurringID         flexID  `json:"recurringId,omitempty"`
	}

	templateRecord struct {
		ID            flexID         `json:"id"`
		Type          string         `json:"type"`
		Description   string         `json:"description"`
		CategoryID    flexID         `json:"categoryId,omitempty"`
		DayOfMonth    int            `json:"dayOfMonth"`
		Frequency     string         `json:"frequency,omitempty"`
		AmountHistory []amountRecord `json:"amountHistory,omitempty"`
		Amount        *float64       `json:"amount,omitempty"`
		LastInstance  *monthRecord   `json:"lastInstance,omitempty"`
	}

	amountRecord struct {
		Amount        float64 `json:"amount"`
		EffectiveDate string  `json:"effectiveDate"`
	}

	// monthRecord uses a zero-based month.
	monthRecord struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	}

	categoryRecord struct {
		ID    flexID `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Type  string `json:"type,omitempty"`
	}
)

// flexID accepts both string and numeric ids. Older blobs used numbers.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("id %s: %w", b, err)
	}
	*id = flexID(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// Decoded is the result of reading a blob. Warnings lists records that could
// only be read in part. Such records stay in the snapshot so saving it back
// does not erase them.
type Decoded struct {
	Snapshot core.Snapshot
	Warnings []error
	// Seeded is set when default categories were added.
	Seeded bool
}

// Decode parses a state blob and migrates legacy shapes into the current
// model. An empty blob decodes to an empty snapshot with default categories.
func Decode(data []byte) (Decoded, error) {
	var doc document
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return Decoded{}, fmt.Errorf("decode state: %w", err)
		}
	}

	var out Decoded
	for _, legacy := range []struct {
		records []transactionRecord
		typ     core.TransactionType
	}{{doc.Expenses, core.Expense}, {doc.Incomes, core.Income}} {
		for _, r := range legacy.records {
			if r.Type == "" {
				r.Type = string(legacy.typ)
			}
			doc.Transactions = append(doc.Transactions, r)
		}
	}

	for _, r := range doc.Transactions {
		tx, err := r.transaction()
		if err != nil {
			out.Warnings = append(out.Warnings, &core.IntegrityWarning{Entity: "transaction", ID: tx.ID, Err: err})
		}
		out.Snapshot.Transactions = append(out.Snapshot.Transactions, tx)
	}
	for _, r := range doc.RecurringTransactions {
		rt, err := r.template()
		if err != nil {
			out.Warnings = append(out.Warnings, &core.IntegrityWarning{Entity: "template", ID: rt.ID, Err: err})
		}
		out.Snapshot.RecurringTemplates = append(out.Snapshot.RecurringTemplates, rt)
	}
	for _, r := range doc.Categories {
		out.Snapshot.Categories = append(out.Snapshot.Categories, r.category())
	}
	if len(out.Snapshot.Categories) == 0 {
		out.Snapshot.Categories = store.DefaultCategories()
		out.Seeded = true
	}
	return out, nil
}

// Encode serializes a snapshot in the current layout.
func Encode(snap core.Snapshot) ([]byte, error) {
	doc := document{
		Transactions:          make([]transactionRecord, 0, len(snap.Transactions)),
		RecurringTransactions: make([]templateRecord, 0, len(snap.RecurringTemplates)),
		Categories:            make([]categoryRecord, 0, len(snap.Categories)),
	}
	for _, t := range snap.Transactions {
		doc.Transactions = append(doc.Transactions, transactionRecord{
			ID:                  flexID(t.ID),
			Type:                string(t.Type),
			Amount:              t.Amount.Reais(),
			Description:         t.Description,
			CategoryID:          flexID(t.CategoryID),
			Date:                encodeDate(t.Date),
			IsRecurringInstance: t.IsRecurringInstance,
			RecurringID:         flexID(t.RecurringID),
		})
	}
	for _, rt := range snap.RecurringTemplates {
		rec := templateRecord{
			ID:          flexID(rt.ID),
			Type:        string(rt.Type),
			Description: rt.Description,
			CategoryID:  flexID(rt.CategoryID),
			DayOfMonth:  rt.DayOfMonth,
			Frequency:   string(rt.Frequency),
		}
		for _, e := range rt.AmountHistory {
			rec.AmountHistory = append(rec.AmountHistory, amountRecord{Amount: e.Amount.Reais(), EffectiveDate: e.EffectiveDate.String()})
		}
		if rt.LastInstance != nil {
			rec.LastInstance = &monthRecord{Year: rt.LastInstance.Year, Month: int(rt.LastInstance.Month) - 1}
		}
		doc.RecurringTransactions = append(doc.RecurringTransactions, rec)
	}
	for _, c := range snap.Categories {
		doc.Categories = append(doc.Categories, categoryRecord{ID: flexID(c.ID), Name: c.Name, Color: c.Color, Type: string(c.Type)})
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return b, nil
}

// transaction converts the record. An unreadable date is returned as an error
// next to a transaction with a zero Date, which no month view selects.
func (r transactionRecord) transaction() (core.Transaction, error) {
	date, err := parseDate(r.Date)
	id := string(r.ID)
	if id == "" {
		id = uuid.NewString()
	}
	return core.Transaction{
		ID:                  id,
		Type:                core.TransactionType(r.Type),
		Amount:              core.FromReais(r.Amount),
		Description:         r.Description,
		CategoryID:          string(r.CategoryID),
		Date:                date,
		IsRecurringInstance: r.IsRecurringInstance,
		RecurringID:         string(r.RecurringID),
	}, err
}

// template converts the record. Amount entries with an unreadable date are
// left out and reported; a template left without entries fails Check and is
// not materialized.
func (r templateRecord) template() (core.RecurringTemplate, error) {
	rt := core.RecurringTemplate{
		ID:          string(r.ID),
		Type:        core.TransactionType(r.Type),
		Description: r.Description,
		CategoryID:  string(r.CategoryID),
		DayOfMonth:  r.DayOfMonth,
		Frequency:   core.Frequency(r.Frequency),
	}
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	if rt.Frequency == "" {
		rt.Frequency = core.Monthly
	}
	var errs []error
	for _, e := range r.AmountHistory {
		d, err := parseDate(e.EffectiveDate)
		if err != nil {
			errs = append(errs, fmt.Errorf("amount history: %w", err))
			continue
		}
		rt.AmountHistory = append(rt.AmountHistory, core.AmountEntry{Amount: core.FromReais(e.Amount), EffectiveDate: d})
	}
	if len(rt.AmountHistory) == 0 && r.Amount != nil {
		rt.AmountHistory = core.AmountHistory{{Amount: core.FromReais(*r.Amount), EffectiveDate: legacyEffectiveDate}}
	}
	if r.LastInstance != nil {
		m := core.NewMonth(r.LastInstance.Year, time.Month(r.LastInstance.Month+1))
		rt.LastInstance = &m
	}
	return rt, errors.Join(errs...)
}

func (r categoryRecord) category() core.Category {
	c := core.Category{ID: string(r.ID), Name: r.Name, Color: r.Color, Type: core.CategoryType(r.Type)}
	if c.Type == "" {
		if c.Name == legacySalaryCategory {
			c.Type = core.IncomeCategory
		} else {
			c.Type = core.Essential
		}
	}
	return c
}

// encodeDate writes a zero Date as an empty string so the record is reported
// again on the next load.
func encodeDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

// parseDate accepts plain dates and RFC 3339 timestamps. Timestamps are
// reduced to their UTC calendar day.
func parseDate(s string) (core.Date, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return core.DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("date %q: %w", s, err)
	}
	return core.DateOf(t.UTC()), nil
}
