// Package reports aggregates transactions and invoices into the
// multi-dimensional report views: expense breakdown by category,
// per-invoice and per-item profit tables and the profit trend series.
// Everything is a pure function of the filtered collections; calling
// twice on the same input yields identical output.
package reports

import (
	"sort"

	"bizbook/internal/core"
	"bizbook/internal/ledger"
)

type (
	// CategoryTotal is one slice of the expense breakdown.
	CategoryTotal struct {
		Category string     `json:"category"`
		Amount   core.Money `json:"amount"`
	}

	// InvoiceProfitRow is the profit line for a single invoice.
	InvoiceProfitRow struct {
		InvoiceID     string     `json:"invoiceId"`
		InvoiceNumber string     `json:"invoiceNumber"`
		ClientName    string     `json:"clientName"`
		Date          core.Date  `json:"date"`
		Revenue       core.Money `json:"revenue"`
		Cost          core.Money `json:"cost"`
		Profit        core.Money `json:"profit"`
		Margin        float64    `json:"margin"`
	}

	// ItemProfitRow aggregates one item description across all
	// filtered invoices.
	ItemProfitRow struct {
		Description string     `json:"description"`
		Quantity    int64      `json:"quantity"`
		Revenue     core.Money `json:"revenue"`
		Profit      core.Money `json:"profit"`
		Margin      float64    `json:"margin"`
	}

	// Report bundles every view for one date range.
	Report struct {
		StartDate     core.Date           `json:"startDate"`
		EndDate       core.Date           `json:"endDate"`
		ByCategory    []CategoryTotal     `json:"expenseByCategory"`
		InvoiceProfit []InvoiceProfitRow  `json:"invoiceProfit"`
		ItemProfit    []ItemProfitRow     `json:"itemProfit"`
		ProfitTrend   []ledger.TrendPoint `json:"profitTrend"`
	}
)

// FilterTransactions keeps transactions dated within [start, end],
// inclusive on both ends, preserving collection order.
func FilterTransactions(transactions []core.Transaction, start, end core.Date) []core.Transaction {
	out := make([]core.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if t.Date.InRange(start, end) {
			out = append(out, t)
		}
	}
	return out
}

// FilterInvoices keeps invoices dated within [start, end], inclusive.
func FilterInvoices(invoices []core.Invoice, start, end core.Date) []core.Invoice {
	out := make([]core.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.Date.InRange(start, end) {
			out = append(out, inv)
		}
	}
	return out
}

// ExpenseByCategory groups EXPENSE transactions by category and sums
// amounts per group. Groups are sorted descending by total; equal
// totals keep first-encountered order.
func ExpenseByCategory(transactions []core.Transaction) []CategoryTotal {
	sums := make(map[string]int64)
	var order []string
	for _, t := range transactions {
		if t.Type != core.Expense {
			continue
		}
		if _, seen := sums[t.Category]; !seen {
			order = append(order, t.Category)
		}
		sums[t.Category] += t.Amount.Cents
	}

	out := make([]CategoryTotal, 0, len(order))
	for _, cat := range order {
		out = append(out, CategoryTotal{Category: cat, Amount: core.Money{Cents: sums[cat]}})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	return out
}

// InvoiceProfit computes the per-invoice profit table, sorted
// descending by profit. Zero-revenue invoices get margin 0.
func InvoiceProfit(invoices []core.Invoice) []InvoiceProfitRow {
	out := make([]InvoiceProfitRow, 0, len(invoices))
	for _, inv := range invoices {
		revenue := inv.Revenue()
		cost := inv.Cost()
		profit := inv.Profit()
		out = append(out, InvoiceProfitRow{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			ClientName:    inv.ClientName,
			Date:          inv.Date,
			Revenue:       revenue,
			Cost:          cost,
			Profit:        profit,
			Margin:        core.Margin(profit, revenue),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Profit.Cents > out[j].Profit.Cents
	})
	return out
}

// ItemProfit flattens items across invoices and groups them by exact
// description, accumulating quantity, revenue and profit. Margin is
// computed after aggregation. Sorted descending by profit; equal
// profits keep first-encountered order.
func ItemProfit(invoices []core.Invoice) []ItemProfitRow {
	type acc struct {
		qty     int64
		revenue int64
		profit  int64
	}
	sums := make(map[string]*acc)
	var order []string
	for _, inv := range invoices {
		for _, it := range inv.Items {
			a, seen := sums[it.Description]
			if !seen {
				a = &acc{}
				sums[it.Description] = a
				order = append(order, it.Description)
			}
			a.qty += it.Quantity
			a.revenue += it.Revenue().Cents
			a.profit += it.Profit().Cents
		}
	}

	out := make([]ItemProfitRow, 0, len(order))
	for _, desc := range order {
		a := sums[desc]
		out = append(out, ItemProfitRow{
			Description: desc,
			Quantity:    a.qty,
			Revenue:     core.Money{Cents: a.revenue},
			Profit:      core.Money{Cents: a.profit},
			Margin:      core.Margin(core.Money{Cents: a.profit}, core.Money{Cents: a.revenue}),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Profit.Cents > out[j].Profit.Cents
	})
	return out
}

// ProfitTrend buckets the filtered transactions by date with no
// windowing, sorted ascending by date. Same bucketing rule as the
// dashboard trend.
func ProfitTrend(transactions []core.Transaction) []ledger.TrendPoint {
	return ledger.BucketByDate(transactions)
}

// Build assembles the full report for an inclusive date range.
func Build(transactions []core.Transaction, invoices []core.Invoice, start, end core.Date) Report {
	ftx := FilterTransactions(transactions, start, end)
	finv := FilterInvoices(invoices, start, end)
	return Report{
		StartDate:     start,
		EndDate:       end,
		ByCategory:    ExpenseByCategory(ftx),
		InvoiceProfit: InvoiceProfit(finv),
		ItemProfit:    ItemProfit(finv),
		ProfitTrend:   ProfitTrend(ftx),
	}
}
