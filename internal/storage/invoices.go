package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"bizbook/internal/core"
)

// ListInvoices returns all invoices with their items, in collection
// order; items keep their recorded order within each invoice.
func (r *Repository) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, invoice_number, client_name, date, status, cashier_name
		 FROM invoices ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []core.Invoice
	index := make(map[string]int)
	for rows.Next() {
		var (
			inv     core.Invoice
			date    string
			cashier sql.NullString
		)
		if err := rows.Scan(&inv.ID, &inv.InvoiceNumber, &inv.ClientName, &date, &inv.Status, &cashier); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		parsed, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("decode invoice %s date %q: %w", inv.ID, date, err)
		}
		inv.Date = parsed
		inv.CashierName = cashier.String
		index[inv.ID] = len(out)
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}

	itemRows, err := r.db.QueryContext(ctx,
		`SELECT invoice_id, id, description, quantity, unit_price_cents, unit_cost_cents
		 FROM invoice_items ORDER BY invoice_id, position`)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			invoiceID string
			it        core.InvoiceItem
		)
		if err := itemRows.Scan(&invoiceID, &it.ID, &it.Description, &it.Quantity,
			&it.UnitPrice.Cents, &it.UnitCost.Cents); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		if i, ok := index[invoiceID]; ok {
			out[i].Items = append(out[i].Items, it)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	return out, nil
}

func insertInvoiceItemsTx(ctx context.Context, tx *sql.Tx, inv core.Invoice) error {
	for pos, it := range inv.Items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO invoice_items (id, invoice_id, position, description, quantity, unit_price_cents, unit_cost_cents)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			it.ID, inv.ID, pos, it.Description, it.Quantity, it.UnitPrice.Cents, it.UnitCost.Cents)
		if err != nil {
			return fmt.Errorf("insert invoice item %s: %w", it.ID, err)
		}
	}
	return nil
}

// SaveInvoice appends the invoice and, when the reconciler produced
// one, its derived transaction, atomically.
func (r *Repository) SaveInvoice(ctx context.Context, inv core.Invoice, derived *core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO invoices (id, invoice_number, client_name, date, status, cashier_name, position)
		 VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM invoices))`,
		inv.ID, inv.InvoiceNumber, inv.ClientName, inv.Date.String(), inv.Status, nullable(inv.CashierName))
	if err != nil {
		return fmt.Errorf("insert invoice %s: %w", inv.ID, err)
	}
	if err := insertInvoiceItemsTx(ctx, tx, inv); err != nil {
		return err
	}
	if derived != nil {
		if err := insertTransactionTx(ctx, tx, *derived); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit invoice %s: %w", inv.ID, err)
	}

	slog.InfoContext(ctx, "Invoice saved",
		"id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"status", inv.Status,
		"derived_transaction", derived != nil)
	return nil
}

// UpdateInvoice replaces the invoice and its item list in full and
// applies the reconciler's transaction delta in the same database
// transaction: derived is upserted when set, removedAutoID deleted
// when set.
func (r *Repository) UpdateInvoice(ctx context.Context, inv core.Invoice, derived *core.Transaction, removedAutoID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE invoices SET invoice_number = ?, client_name = ?, date = ?, status = ?, cashier_name = ?
		 WHERE id = ?`,
		inv.InvoiceNumber, inv.ClientName, inv.Date.String(), inv.Status, nullable(inv.CashierName), inv.ID)
	if err != nil {
		return fmt.Errorf("update invoice %s: %w", inv.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update invoice %s: %w", inv.ID, err)
	} else if n == 0 {
		return fmt.Errorf("update invoice %s: %w", inv.ID, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = ?`, inv.ID); err != nil {
		return fmt.Errorf("clear invoice %s items: %w", inv.ID, err)
	}
	if err := insertInvoiceItemsTx(ctx, tx, inv); err != nil {
		return err
	}

	if derived != nil {
		// The derived row may or may not exist depending on policy and
		// prior status, so upsert by reserved id.
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, date, description, category, amount_cents, type, payment_mode, bank_id, cashier_name, source, invoice_id, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM transactions))
			 ON CONFLICT(id) DO UPDATE SET
			     date = excluded.date, description = excluded.description,
			     amount_cents = excluded.amount_cents, cashier_name = excluded.cashier_name`,
			derived.ID, derived.Date.String(), derived.Description, derived.Category, derived.Amount.Cents,
			derived.Type, derived.PaymentMode, nullable(derived.BankID), nullable(derived.CashierName),
			derived.Source, nullable(derived.InvoiceID))
		if err != nil {
			return fmt.Errorf("upsert derived transaction %s: %w", derived.ID, err)
		}
	}
	if removedAutoID != "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, removedAutoID); err != nil {
			return fmt.Errorf("delete derived transaction %s: %w", removedAutoID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit invoice %s: %w", inv.ID, err)
	}

	slog.InfoContext(ctx, "Invoice updated",
		"id", inv.ID,
		"status", inv.Status,
		"derived_transaction", derived != nil,
		"retracted", removedAutoID != "")
	return nil
}

// DeleteInvoice removes the invoice, its items and its derived
// transaction in one database transaction. Idempotent: a missing
// invoice is a no-op.
func (r *Repository) DeleteInvoice(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = ?`, id); err != nil {
		return fmt.Errorf("delete invoice %s items: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete invoice %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, core.AutoTransactionID(id)); err != nil {
		return fmt.Errorf("delete derived transaction for invoice %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete invoice %s: %w", id, err)
	}
	return nil
}
