// Package export renders a report as an XLSX workbook, one sheet per
// report view.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"bizbook/internal/core"
	"bizbook/internal/reports"
)

const (
	sheetSummary     = "Summary"
	sheetCategories  = "Expense by Category"
	sheetInvoices    = "Invoice Profit"
	sheetItems       = "Item Profit"
	sheetProfitTrend = "Profit Trend"
)

// WriteReport streams the workbook to w.
func WriteReport(w io.Writer, rep reports.Report, summary core.FinancialSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, rep, summary); err != nil {
		return err
	}
	if err := writeCategorySheet(f, rep.ByCategory); err != nil {
		return err
	}
	if err := writeInvoiceSheet(f, rep.InvoiceProfit); err != nil {
		return err
	}
	if err := writeItemSheet(f, rep.ItemProfit); err != nil {
		return err
	}
	if err := writeTrendSheet(f, rep); err != nil {
		return err
	}

	// The default sheet is replaced by Summary.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func newSheet(f *excelize.File, name string, headers []string) error {
	index, err := f.NewSheet(name)
	if err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	f.SetActiveSheet(index)
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, h); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, rep reports.Report, summary core.FinancialSummary) error {
	if err := newSheet(f, sheetSummary, []string{"Metric", "Value"}); err != nil {
		return err
	}
	rows := [][]any{
		{"Period Start", rep.StartDate.String()},
		{"Period End", rep.EndDate.String()},
		{"Total Revenue", summary.TotalRevenue.Units()},
		{"Total Expenses", summary.TotalExpenses.Units()},
		{"Net Profit", summary.NetProfit.Units()},
		{"Profit Margin %", summary.ProfitMargin},
	}
	for i, r := range rows {
		if err := setRow(f, sheetSummary, i+2, r); err != nil {
			return err
		}
	}
	return nil
}

func writeCategorySheet(f *excelize.File, totals []reports.CategoryTotal) error {
	if err := newSheet(f, sheetCategories, []string{"Category", "Amount"}); err != nil {
		return err
	}
	for i, ct := range totals {
		if err := setRow(f, sheetCategories, i+2, []any{ct.Category, ct.Amount.Units()}); err != nil {
			return err
		}
	}
	return nil
}

func writeInvoiceSheet(f *excelize.File, rows []reports.InvoiceProfitRow) error {
	headers := []string{"Invoice #", "Client", "Date", "Revenue", "Cost", "Profit", "Margin %"}
	if err := newSheet(f, sheetInvoices, headers); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{
			r.InvoiceNumber, r.ClientName, r.Date.String(),
			r.Revenue.Units(), r.Cost.Units(), r.Profit.Units(), r.Margin,
		}
		if err := setRow(f, sheetInvoices, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeItemSheet(f *excelize.File, rows []reports.ItemProfitRow) error {
	headers := []string{"Item", "Quantity", "Revenue", "Profit", "Margin %"}
	if err := newSheet(f, sheetItems, headers); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{r.Description, r.Quantity, r.Revenue.Units(), r.Profit.Units(), r.Margin}
		if err := setRow(f, sheetItems, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeTrendSheet(f *excelize.File, rep reports.Report) error {
	if err := newSheet(f, sheetProfitTrend, []string{"Date", "Net"}); err != nil {
		return err
	}
	for i, p := range rep.ProfitTrend {
		if err := setRow(f, sheetProfitTrend, i+2, []any{p.Date.String(), p.Net.Units()}); err != nil {
			return err
		}
	}
	return nil
}
