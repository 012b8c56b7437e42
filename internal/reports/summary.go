package reports

import (
	"bizbook/internal/core"
)

// ComputeSummary totals the ledger: revenue from income entries,
// expenses from expense entries, net profit and the margin with a
// zero-revenue guard.
func ComputeSummary(transactions []core.Transaction) core.FinancialSummary {
	var revenue, expenses int64
	for _, t := range transactions {
		switch t.Type {
		case core.Income:
			revenue += t.Amount.Cents
		case core.Expense:
			expenses += t.Amount.Cents
		}
	}
	net := revenue - expenses
	return core.FinancialSummary{
		TotalRevenue:  core.Money{Cents: revenue},
		TotalExpenses: core.Money{Cents: expenses},
		NetProfit:     core.Money{Cents: net},
		ProfitMargin:  core.Margin(core.Money{Cents: net}, core.Money{Cents: revenue}),
	}
}
