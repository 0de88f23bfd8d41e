package analysis

import "fmt"

type SuggestionKind string

const (
	SuggestionDefault    SuggestionKind = "default"
	SuggestionWarning    SuggestionKind = "warning"
	SuggestionAlert      SuggestionKind = "alert"
	SuggestionInvestment SuggestionKind = "investment"
	SuggestionSuccess    SuggestionKind = "success"
)

// minSavingsPercentage is the savings rate below which a warning is shown.
const minSavingsPercentage = 20

type Suggestion struct {
	Kind    SuggestionKind
	Title   string
	Message string
	Icon    string
}

// Suggestions turns the month totals into advice for the user.
func Suggestions(t Totals) []Suggestion {
	if t.Income.Cents <= 0 {
		return []Suggestion{{
			Kind:    SuggestionDefault,
			Title:   "Comece Adicionando Receitas",
			Message: "Vá ao Dashboard ou à tela de Gastos e adicione suas receitas para o mês atual.",
			Icon:    "information-circle",
		}}
	}

	var out []Suggestion
	if t.SavingsPercentage < minSavingsPercentage {
		out = append(out, Suggestion{
			Kind:    SuggestionWarning,
			Title:   "Aumente sua reserva",
			Message: fmt.Sprintf("Você está economizando apenas %.1f%% da sua renda neste mês. O ideal é economizar pelo menos 20%%.", t.SavingsPercentage),
			Icon:    "warning",
		})
	}
	if t.Remaining.Cents < 0 {
		overrun := t.Remaining
		overrun.Cents = -overrun.Cents
		out = append(out, Suggestion{
			Kind:    SuggestionAlert,
			Title:   "Cuidado! Contas no vermelho!",
			Message: fmt.Sprintf("Neste mês, seus gastos ultrapassaram sua renda em %s. Revise suas despesas.", FormatBRL(overrun)),
			Icon:    "alert-circle",
		})
	}
	if t.Remaining.Cents > 0 {
		out = append(out, Suggestion{
			Kind:    SuggestionInvestment,
			Title:   "Oportunidade de Investimento",
			Message: fmt.Sprintf("Você tem %s disponível neste mês. Considere investir para seus objetivos.", FormatBRL(t.Remaining)),
			Icon:    "trending-up",
		})
	}
	if len(out) == 0 {
		out = append(out, Suggestion{
			Kind:    SuggestionSuccess,
			Title:   "Parabéns!",
			Message: "Suas finanças neste mês estão equilibradas! Continue mantendo esse controle.",
			Icon:    "checkmark-circle",
		})
	}
	return out
}
