// Package analysis derives the monthly figures shown on the dashboard:
// totals, category distribution, 50/30/20 rule compliance, upcoming bills,
// forecast, month-over-month comparison and the trailing bar series.
//
// Everything here is a pure reduction over already filtered data and is
// recomputed on every call.
package analysis

import (
	"maps"
	"slices"
	"time"

	"saldo/internal/core"
	"saldo/internal/services"
	"saldo/internal/store"
)

// DefaultTrailingMonths is the bar-series window.
const DefaultTrailingMonths = 4

// defaultAxisMax keeps charts from collapsing when every bar is zero.
var defaultAxisMax = core.Money{Cents: 10000}

type ComparisonStatus string

const (
	Higher ComparisonStatus = "higher"
	Lower  ComparisonStatus = "lower"
	Equal  ComparisonStatus = "equal"
)

type (
	// Input is everything an analysis depends on. Now decides which month is
	// current for upcoming bills.
	Input struct {
		Filtered   []core.Transaction
		Categories []core.Category
		Templates  []core.RecurringTemplate
		Filter     core.DateFilter
		PastMonths map[core.Month][]core.Transaction
		Now        time.Time
	}

	Totals struct {
		Income            core.Money
		Expenses          core.Money
		Remaining         core.Money
		SavingsPercentage float64
	}

	CategoryShare struct {
		Category   core.Category
		Amount     core.Money
		Percentage float64
	}

	// PieSlice is a chart entry; only categories with spend get one.
	PieSlice struct {
		Value core.Money
		Color string
		Label string
	}

	RuleBucket struct {
		Recommended float64
		Spent       core.Money
		Percentage  float64
	}

	// RuleAnalysis is the 50/30/20 split of the month's income. Goals is the
	// income left after necessities and wants, not a sum of categories.
	RuleAnalysis struct {
		TotalIncome core.Money
		Necessities RuleBucket
		Wants       RuleBucket
		Goals       RuleBucket
	}

	UpcomingBill struct {
		Template core.RecurringTemplate
		Amount   core.Money
	}

	Comparison struct {
		Percentage float64
		Status     ComparisonStatus
	}

	MonthBar struct {
		Month   core.Month
		Label   string
		Income  core.Money
		Expense core.Money
	}

	BarSeries struct {
		Months   []MonthBar
		MaxValue core.Money
	}

	Result struct {
		Totals
		Categories        []CategoryShare
		Pie               []PieSlice
		Rules             *RuleAnalysis
		UpcomingBills     []UpcomingBill
		ForecastedBalance core.Money
		Comparison        Comparison
		Bars              BarSeries
	}
)

// Analyze computes every figure for the filter month.
func Analyze(in Input) Result {
	totals := ComputeTotals(in.Filtered)
	shares := CategoryBreakdown(in.Filtered, in.Categories, totals.Expenses)
	bills := UpcomingBills(in.Templates, in.Filtered, in.Filter, in.Now)

	forecast := totals.Remaining
	for _, b := range bills {
		forecast = forecast.Sub(b.Amount)
	}

	prevExpenses := ComputeTotals(in.PastMonths[in.Filter.Prev()]).Expenses

	return Result{
		Totals:            totals,
		Categories:        shares,
		Pie:               PieSeries(shares),
		Rules:             Rules(in.Filtered, in.Categories),
		UpcomingBills:     bills,
		ForecastedBalance: forecast,
		Comparison:        Compare(totals.Expenses, prevExpenses),
		Bars:              Bars(in.PastMonths),
	}
}

// ForState analyzes the state's filter month with a window of months.
func ForState(s store.State, now time.Time, months int) Result {
	if months <= 0 {
		months = DefaultTrailingMonths
	}
	return Analyze(Input{
		Filtered:   s.Filtered(),
		Categories: s.Categories,
		Templates:  s.RecurringTemplates,
		Filter:     s.Filter,
		PastMonths: s.PastMonths(months),
		Now:        now,
	})
}

// ComputeTotals sums amounts by type.
func ComputeTotals(txs []core.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			t.Income = t.Income.Add(tx.Amount)
		case core.Expense:
			t.Expenses = t.Expenses.Add(tx.Amount)
		}
	}
	t.Remaining = t.Income.Sub(t.Expenses)
	t.SavingsPercentage = t.Remaining.PercentOf(t.Income)
	return t
}

// CategoryBreakdown returns every non-income category with the expense total
// it received, in category order. Categories without spend are included.
func CategoryBreakdown(txs []core.Transaction, categories []core.Category, totalExpenses core.Money) []CategoryShare {
	spent := expensesByCategory(txs)
	out := make([]CategoryShare, 0, len(categories))
	for _, c := range categories {
		if c.Type == core.IncomeCategory {
			continue
		}
		amount := spent[c.ID]
		out = append(out, CategoryShare{
			Category:   c,
			Amount:     amount,
			Percentage: amount.PercentOf(totalExpenses),
		})
	}
	return out
}

// PieSeries drops categories with no spend and labels each slice with its
// rounded percentage.
func PieSeries(shares []CategoryShare) []PieSlice {
	var out []PieSlice
	for _, s := range shares {
		if s.Amount.Cents <= 0 {
			continue
		}
		out = append(out, PieSlice{
			Value: s.Amount,
			Color: s.Category.Color,
			Label: percentLabel(s.Percentage),
		})
	}
	return out
}

// Rules classifies expenses by category type. It returns nil when the month
// has no income.
func Rules(txs []core.Transaction, categories []core.Category) *RuleAnalysis {
	totals := ComputeTotals(txs)
	if totals.Income.Cents <= 0 {
		return nil
	}
	types := make(map[string]core.CategoryType, len(categories))
	for _, c := range categories {
		types[c.ID] = c.Type
	}

	ra := &RuleAnalysis{
		TotalIncome: totals.Income,
		Necessities: RuleBucket{Recommended: 50},
		Wants:       RuleBucket{Recommended: 30},
		Goals:       RuleBucket{Recommended: 20},
	}
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		switch types[tx.CategoryID] {
		case core.Essential:
			ra.Necessities.Spent = ra.Necessities.Spent.Add(tx.Amount)
		case core.Wants:
			ra.Wants.Spent = ra.Wants.Spent.Add(tx.Amount)
		}
	}
	ra.Goals.Spent = totals.Income.Sub(ra.Necessities.Spent).Sub(ra.Wants.Spent)

	for _, b := range []*RuleBucket{&ra.Necessities, &ra.Wants, &ra.Goals} {
		b.Percentage = float64(b.Spent.Cents) / float64(totals.Income.Cents) * 100
	}
	return ra
}

// UpcomingBills lists expense templates without an instance in the filter
// month, by day of month. Past months never have upcoming bills.
func UpcomingBills(templates []core.RecurringTemplate, filtered []core.Transaction, filter core.DateFilter, now time.Time) []UpcomingBill {
	if filter.Before(core.MonthOf(now)) {
		return nil
	}
	var out []UpcomingBill
	for _, rt := range templates {
		if rt.Type != core.Expense {
			continue
		}
		if services.IsMaterialized(rt, filtered, filter) {
			continue
		}
		latest, _ := rt.AmountHistory.Latest()
		out = append(out, UpcomingBill{Template: rt.Clone(), Amount: latest.Amount})
	}
	slices.SortStableFunc(out, func(a, b UpcomingBill) int {
		return a.Template.DayOfMonth - b.Template.DayOfMonth
	})
	return out
}

// Compare reports the change of current against previous. Without a basis on
// either side the months are reported as equal.
func Compare(current, previous core.Money) Comparison {
	if current.Cents <= 0 || previous.Cents <= 0 {
		return Comparison{Status: Equal}
	}
	diff := float64(current.Cents-previous.Cents) / float64(previous.Cents) * 100
	switch {
	case diff > 0:
		return Comparison{Percentage: diff, Status: Higher}
	case diff < 0:
		return Comparison{Percentage: -diff, Status: Lower}
	}
	return Comparison{Status: Equal}
}

// Bars builds the income/expense pairs for each month, oldest first.
func Bars(past map[core.Month][]core.Transaction) BarSeries {
	months := slices.SortedFunc(maps.Keys(past), func(a, b core.Month) int { return a.Compare(b) })

	var series BarSeries
	for _, m := range months {
		t := ComputeTotals(past[m])
		series.Months = append(series.Months, MonthBar{
			Month:   m,
			Label:   MonthLabel(m),
			Income:  t.Income,
			Expense: t.Expenses,
		})
		series.MaxValue = maxMoney(series.MaxValue, t.Income, t.Expenses)
	}
	if series.MaxValue.Cents == 0 {
		series.MaxValue = defaultAxisMax
	}
	return series
}

func expensesByCategory(txs []core.Transaction) map[string]core.Money {
	out := make(map[string]core.Money)
	for _, tx := range txs {
		if tx.Type == core.Expense {
			out[tx.CategoryID] = out[tx.CategoryID].Add(tx.Amount)
		}
	}
	return out
}

func maxMoney(vals ...core.Money) core.Money {
	var m core.Money
	for _, v := range vals {
		if v.Cents > m.Cents {
			m = v
		}
	}
	return m
}
