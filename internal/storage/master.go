package storage

import (
	"context"
	"fmt"

	"bizbook/internal/core"
)

// Master data: banks, staff and inventory reference collections.

func (r *Repository) ListBanks(ctx context.Context) ([]core.Bank, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, bank_name, account_number, branch, balance_cents FROM banks ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	defer rows.Close()

	var out []core.Bank
	for rows.Next() {
		var b core.Bank
		if err := rows.Scan(&b.ID, &b.BankName, &b.AccountNumber, &b.Branch, &b.Balance.Cents); err != nil {
			return nil, fmt.Errorf("scan bank: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	return out, nil
}

func (r *Repository) SaveBank(ctx context.Context, b core.Bank) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO banks (id, bank_name, account_number, branch, balance_cents) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.BankName, b.AccountNumber, b.Branch, b.Balance.Cents)
	if err != nil {
		return fmt.Errorf("insert bank %s: %w", b.ID, err)
	}
	return nil
}

// DeleteBank removes a bank. Transactions referencing it are left
// alone; aggregation degrades their display to a placeholder label.
func (r *Repository) DeleteBank(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM banks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete bank %s: %w", id, err)
	}
	return nil
}

func (r *Repository) ListStaff(ctx context.Context) ([]core.Staff, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, role, phone, salary_cents FROM staff ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var out []core.Staff
	for rows.Next() {
		var s core.Staff
		if err := rows.Scan(&s.ID, &s.Name, &s.Role, &s.Phone, &s.Salary.Cents); err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return out, nil
}

func (r *Repository) SaveStaff(ctx context.Context, s core.Staff) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO staff (id, name, role, phone, salary_cents) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Role, s.Phone, s.Salary.Cents)
	if err != nil {
		return fmt.Errorf("insert staff %s: %w", s.ID, err)
	}
	return nil
}

func (r *Repository) DeleteStaff(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM staff WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete staff %s: %w", id, err)
	}
	return nil
}

func (r *Repository) ListInventory(ctx context.Context) ([]core.InventoryItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, unit, purchase_price_cents, selling_price_cents, stock FROM inventory ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	var out []core.InventoryItem
	for rows.Next() {
		var it core.InventoryItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Unit, &it.PurchasePrice.Cents, &it.SellingPrice.Cents, &it.Stock); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return out, nil
}

func (r *Repository) SaveInventory(ctx context.Context, it core.InventoryItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO inventory (id, name, unit, purchase_price_cents, selling_price_cents, stock) VALUES (?, ?, ?, ?, ?, ?)`,
		it.ID, it.Name, it.Unit, it.PurchasePrice.Cents, it.SellingPrice.Cents, it.Stock)
	if err != nil {
		return fmt.Errorf("insert inventory item %s: %w", it.ID, err)
	}
	return nil
}

func (r *Repository) DeleteInventory(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM inventory WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete inventory item %s: %w", id, err)
	}
	return nil
}
