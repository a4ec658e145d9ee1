package core

import (
	"math"
	"testing"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestComputeSummary(t *testing.T) {
	expenses := []Expense{
		{Owner: "u1", Category: "Food", Subcategory: "Groceries", Amount: Money{Cents: 5025}, Date: NewDate(2024, 1, 5)},
		{Owner: "u1", Category: "Food", Subcategory: "Restaurants", Amount: Money{Cents: 2000}, Date: NewDate(2024, 1, 12)},
		{Owner: "u1", Category: "Transport", Subcategory: "Fuel", Amount: Money{Cents: 6050}, Date: NewDate(2024, 1, 20)},
	}
	incomes := []Income{
		{Owner: "u1", Source: "Job", Amount: Money{Cents: 250000}, Date: NewDate(2024, 1, 1)},
		{Owner: "u1", Source: "Freelance", Amount: Money{Cents: 40000}, Date: NewDate(2024, 1, 15)},
	}

	s := ComputeSummary(expenses, incomes)

	if !approxEqual(s.TotalIncome, 2900.00) {
		t.Fatalf("total income: %v", s.TotalIncome)
	}
	if !approxEqual(s.TotalExpenses, 130.75) {
		t.Fatalf("total expenses: %v", s.TotalExpenses)
	}
	if !approxEqual(s.TotalRemaining, 2769.25) {
		t.Fatalf("total remaining: %v", s.TotalRemaining)
	}
	if !approxEqual(s.ExpensesByCategory["Food"], 70.25) {
		t.Fatalf("Food category: %v", s.ExpensesByCategory["Food"])
	}
	if !approxEqual(s.ExpensesByCategory["Transport"], 60.50) {
		t.Fatalf("Transport category: %v", s.ExpensesByCategory["Transport"])
	}
	if !approxEqual(s.ExpensesBySubcategory["Groceries"], 50.25) {
		t.Fatalf("Groceries: %v", s.ExpensesBySubcategory["Groceries"])
	}
	if _, ok := s.ExpensesByCategory["Utilities"]; ok {
		t.Fatal("category with no expenses must be absent")
	}
}

func TestComputeSummaryEmpty(t *testing.T) {
	s := ComputeSummary(nil, nil)
	if s.TotalIncome != 0 || s.TotalExpenses != 0 || s.TotalRemaining != 0 {
		t.Fatalf("expected zero totals, got %+v", s)
	}
	if len(s.ExpensesByCategory) != 0 || len(s.ExpensesBySubcategory) != 0 {
		t.Fatalf("expected empty maps, got %+v", s)
	}
}

func TestComputeSummaryLiteralKeys(t *testing.T) {
	expenses := []Expense{
		{Category: "food", Subcategory: "groceries", Amount: Money{Cents: 100}},
		{Category: "Food", Subcategory: "Groceries", Amount: Money{Cents: 200}},
	}
	s := ComputeSummary(expenses, nil)
	if len(s.ExpensesByCategory) != 2 {
		t.Fatalf("keys must not be normalized: %+v", s.ExpensesByCategory)
	}
}

func TestExpenseValidate(t *testing.T) {
	valid := Expense{
		Owner:       "user_1",
		Category:    "Food",
		Subcategory: "Groceries",
		Amount:      Money{Cents: 100},
		Date:        NewDate(2024, 1, 1),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Expense)
		want   error
	}{
		{"empty owner", func(e *Expense) { e.Owner = " " }, ErrEmptyOwner},
		{"empty category", func(e *Expense) { e.Category = "" }, ErrEmptyCategory},
		{"empty subcategory", func(e *Expense) { e.Subcategory = "" }, ErrEmptySubcategory},
		{"zero amount", func(e *Expense) { e.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(e *Expense) { e.Amount = Money{Cents: -5} }, ErrInvalidAmount},
		{"zero date", func(e *Expense) { e.Date = Date{} }, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := valid
			tc.mutate(&e)
			if err := e.Validate(); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestIncomeValidate(t *testing.T) {
	valid := Income{
		Owner:  "user_1",
		Source: "Job",
		Amount: Money{Cents: 100},
		Date:   NewDate(2024, 1, 1),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid income rejected: %v", err)
	}
	if err := (Income{Owner: "u", Amount: Money{Cents: 1}, Date: NewDate(2024, 1, 1)}).Validate(); err != ErrEmptySource {
		t.Fatalf("expected ErrEmptySource, got %v", err)
	}
}
