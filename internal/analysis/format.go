package analysis

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"saldo/internal/core"
)

var (
	printer = message.NewPrinter(language.BrazilianPortuguese)

	monthLabels = [12]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}
)

// FormatBRL formats m as Brazilian reais, e.g. "R$ 1.234,56".
func FormatBRL(m core.Money) string {
	sign := ""
	cents := m.Cents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + "R$ " + printer.Sprintf("%.2f", float64(cents)/100)
}

// FormatBRLCompact abbreviates thousands for chart axes, e.g. "R$1,2k".
func FormatBRLCompact(m core.Money) string {
	if m.Cents < 100000 {
		return FormatBRL(m)
	}
	return "R$" + printer.Sprintf("%.1f", m.Reais()/1000) + "k"
}

// MonthLabel returns the short Portuguese month name.
func MonthLabel(m core.Month) string {
	if !m.Valid() {
		return ""
	}
	return monthLabels[m.Month-1]
}

func percentLabel(p float64) string {
	return fmt.Sprintf("%.0f%%", math.Round(p))
}
