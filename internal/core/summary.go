package core

// Summary is the aggregated dashboard view of one owner's records over an
// optional month window. Monetary fields are serialized as decimal numbers;
// accumulation happens in cents so sums stay exact.
type Summary struct {
	TotalIncome           float64            `json:"totalIncome"`
	TotalExpenses         float64            `json:"totalExpenses"`
	TotalRemaining        float64            `json:"totalRemaining"`
	ExpensesByCategory    map[string]float64 `json:"expensesByCategory"`
	ExpensesBySubcategory map[string]float64 `json:"expensesBySubcategory"`
	Month                 *int               `json:"month,omitempty"`
	Year                  *int               `json:"year,omitempty"`
}

// ComputeSummary aggregates the given records. Category and subcategory
// keys are the stored strings verbatim, no trimming or case folding, and
// a key appears only when at least one expense matched it.
func ComputeSummary(expenses []Expense, incomes []Income) Summary {
	var incomeCents, expenseCents int64
	byCategory := make(map[string]int64)
	bySubcategory := make(map[string]int64)

	for _, e := range expenses {
		expenseCents += e.Amount.Cents
		byCategory[e.Category] += e.Amount.Cents
		bySubcategory[e.Subcategory] += e.Amount.Cents
	}
	for _, i := range incomes {
		incomeCents += i.Amount.Cents
	}

	s := Summary{
		TotalIncome:           Money{Cents: incomeCents}.Float(),
		TotalExpenses:         Money{Cents: expenseCents}.Float(),
		TotalRemaining:        Money{Cents: incomeCents - expenseCents}.Float(),
		ExpensesByCategory:    make(map[string]float64, len(byCategory)),
		ExpensesBySubcategory: make(map[string]float64, len(bySubcategory)),
	}
	for k, v := range byCategory {
		s.ExpensesByCategory[k] = Money{Cents: v}.Float()
	}
	for k, v := range bySubcategory {
		s.ExpensesBySubcategory[k] = Money{Cents: v}.Float()
	}
	return s
}
