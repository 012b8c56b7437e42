package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"bizbook/internal/core"
)

const transactionColumns = `id, date, description, category, amount_cents, type, payment_mode, bank_id, cashier_name, source, invoice_id`

// ListTransactions returns the full ledger in collection order.
func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var (
		t                          core.Transaction
		date                       string
		bankID, cashier, invoiceID sql.NullString
	)
	if err := rows.Scan(&t.ID, &date, &t.Description, &t.Category, &t.Amount.Cents,
		&t.Type, &t.PaymentMode, &bankID, &cashier, &t.Source, &invoiceID); err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	parsed, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("decode transaction %s date %q: %w", t.ID, date, err)
	}
	t.Date = parsed
	t.BankID = bankID.String
	t.CashierName = cashier.String
	t.InvoiceID = invoiceID.String
	return t, nil
}

func insertTransactionTx(ctx context.Context, tx *sql.Tx, t core.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		         (SELECT COALESCE(MAX(position), 0) + 1 FROM transactions))`,
		t.ID, t.Date.String(), t.Description, t.Category, t.Amount.Cents,
		t.Type, t.PaymentMode, nullable(t.BankID), nullable(t.CashierName),
		t.Source, nullable(t.InvoiceID))
	if err != nil {
		return fmt.Errorf("insert transaction %s: %w", t.ID, err)
	}
	return nil
}

// SaveTransaction appends one transaction to the ledger.
func (r *Repository) SaveTransaction(ctx context.Context, t core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertTransactionTx(ctx, tx, t); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction %s: %w", t.ID, err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"amount_cents", t.Amount.Cents,
		"type", t.Type,
		"payment_mode", t.PaymentMode)
	return nil
}

// ReplaceTransaction overwrites every field of an existing transaction.
// The row keeps its position in the collection.
func (r *Repository) ReplaceTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET date = ?, description = ?, category = ?, amount_cents = ?, type = ?,
		     payment_mode = ?, bank_id = ?, cashier_name = ?, source = ?, invoice_id = ?
		 WHERE id = ?`,
		t.Date.String(), t.Description, t.Category, t.Amount.Cents, t.Type,
		t.PaymentMode, nullable(t.BankID), nullable(t.CashierName), t.Source,
		nullable(t.InvoiceID), t.ID)
	if err != nil {
		return fmt.Errorf("replace transaction %s: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace transaction %s: %w", t.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("replace transaction %s: %w", t.ID, ErrNotFound)
	}
	return nil
}

// DeleteTransaction removes a transaction. Deleting an id that is not
// present is a no-op, not an error.
func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}
