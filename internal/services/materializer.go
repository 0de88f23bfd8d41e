package services

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"saldo/internal/core"
)

// IDFunc generates identifiers for new transactions.
type IDFunc func() string

// NewID is the default IDFunc.
func NewID() string { return uuid.NewString() }

// MaterializeResult holds the outcome of one materialization pass.
type MaterializeResult struct {
	// Created lists the transactions generated in this pass.
	Created []core.Transaction
	// Templates has one entry per input template, in input order, with the
	// watermark advanced for every template that generated something.
	Templates []core.RecurringTemplate
}

// Materialize generates the concrete transactions owed by each recurring
// template up to and including the month of asOf.
//
// The walk for a template starts right after its LastInstance. Templates
// without a watermark start one month before asOf, so old templates never
// backfill their whole history. A month is skipped when an instance of the
// template already exists in it, or when the amount history is not yet
// effective; only generated months advance the watermark.
//
// Malformed templates are left unchanged and reported through the returned
// error, which joins one *core.IntegrityWarning per template. The result is
// valid even when the error is not nil.
func Materialize(templates []core.RecurringTemplate, existing []core.Transaction, asOf time.Time, newID IDFunc) (MaterializeResult, error) {
	if newID == nil {
		newID = NewID
	}
	end := core.MonthOf(asOf)
	instances := indexInstances(existing)

	result := MaterializeResult{Templates: make([]core.RecurringTemplate, 0, len(templates))}
	var errs []error

	for _, tpl := range templates {
		tpl = tpl.Clone()
		if err := tpl.Check(); err != nil {
			errs = append(errs, err)
			result.Templates = append(result.Templates, tpl)
			continue
		}
		schedule, err := GetSchedule(tpl.Frequency)
		if err != nil {
			errs = append(errs, &core.IntegrityWarning{Entity: "template", ID: tpl.ID, Err: err})
			result.Templates = append(result.Templates, tpl)
			continue
		}

		start := end.Prev()
		if tpl.LastInstance != nil {
			start = tpl.LastInstance.Next()
		}

		for m := range schedule.Occurrences(start, end) {
			if instances.has(tpl, m) {
				continue
			}
			amount := tpl.AmountHistory.Resolve(m)
			if amount.Cents <= 0 {
				continue
			}
			tx := core.Transaction{
				ID:                  newID(),
				Type:                tpl.Type,
				Amount:              amount,
				Description:         tpl.Description,
				CategoryID:          tpl.CategoryID,
				Date:                schedule.Date(m, tpl.DayOfMonth),
				IsRecurringInstance: true,
				RecurringID:         tpl.ID,
			}
			result.Created = append(result.Created, tx)
			instances.add(tx)
			watermark := m
			tpl.LastInstance = &watermark
		}
		result.Templates = append(result.Templates, tpl)
	}

	return result, errors.Join(errs...)
}

// instanceIndex groups recurring instances by month for the duplicate guard.
type instanceIndex map[core.Month][]core.Transaction

func indexInstances(txs []core.Transaction) instanceIndex {
	idx := make(instanceIndex)
	for _, t := range txs {
		idx.add(t)
	}
	return idx
}

func (idx instanceIndex) add(t core.Transaction) {
	if !t.IsRecurringInstance {
		return
	}
	m := t.Date.Month()
	idx[m] = append(idx[m], t)
}

// has matches by back-reference; instances saved without one fall back to
// the description.
func (idx instanceIndex) has(tpl core.RecurringTemplate, m core.Month) bool {
	for _, t := range idx[m] {
		if tpl.ID != "" && t.RecurringID == tpl.ID {
			return true
		}
		if t.RecurringID == "" && t.Description == tpl.Description {
			return true
		}
	}
	return false
}

// IsMaterialized reports whether txs already hold an instance of tpl in m.
func IsMaterialized(tpl core.RecurringTemplate, txs []core.Transaction, m core.Month) bool {
	return indexInstances(txs).has(tpl, m)
}
