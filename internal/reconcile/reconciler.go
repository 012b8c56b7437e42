// Package reconcile keeps invoices and the transaction ledger mutually
// consistent: every paid invoice owns exactly one derived income
// transaction, created and removed only here.
//
// All operations take collection snapshots and return new slices plus
// the transaction delta; callers persist the result. The package never
// touches storage.
package reconcile

import (
	"bizbook/internal/core"
)

// Policy controls the two historically lenient behaviors around paid
// invoices. Both default to off, which matches the observed behavior
// the reports were built against.
type Policy struct {
	// RefreshAmountOnUpdate re-synthesizes the derived transaction
	// when a paid invoice's item totals change. Off means the original
	// creation-time amount sticks even if items are edited later.
	RefreshAmountOnUpdate bool

	// RetractOnUnpaid removes the derived transaction when an invoice
	// reverts from PAID to PENDING or OVERDUE. Off means the entry
	// stays in the ledger.
	RetractOnUnpaid bool
}

// Reconciler applies invoice mutations to the shared collections.
type Reconciler struct {
	policy Policy
}

func New(policy Policy) *Reconciler {
	return &Reconciler{policy: policy}
}

// Result is the outcome of one reconciliation step: the replacement
// collection snapshots and the derived-transaction delta.
type Result struct {
	Invoices     []core.Invoice
	Transactions []core.Transaction

	// Created is the synthesized transaction, if this step produced one.
	Created *core.Transaction
	// RemovedID is the id of the derived transaction this step removed,
	// if any.
	RemovedID string
}

// Synthesize builds the derived income transaction for a paid invoice.
// The amount is the invoice's revenue at this moment; payment mode is
// fixed to CASH since the derived entry is never attributed to a bank.
// An empty item list yields amount zero, not an error.
func Synthesize(inv core.Invoice) core.Transaction {
	return core.Transaction{
		ID:          core.AutoTransactionID(inv.ID),
		Date:        inv.Date,
		Description: "Invoice " + inv.InvoiceNumber + " - " + inv.ClientName,
		Category:    "Sales",
		Amount:      inv.Revenue(),
		Type:        core.Income,
		PaymentMode: core.PayCash,
		CashierName: inv.CashierName,
		Source:      core.SourceInvoice,
		InvoiceID:   inv.ID,
	}
}

// InvoiceCreated appends the invoice and, when it arrives already PAID,
// synthesizes its derived transaction.
func (r *Reconciler) InvoiceCreated(invoices []core.Invoice, transactions []core.Transaction, inv core.Invoice) Result {
	res := Result{
		Invoices:     append(copyInvoices(invoices), inv),
		Transactions: copyTransactions(transactions),
	}
	if inv.Status == core.StatusPaid {
		auto := Synthesize(inv)
		res.Transactions = append(res.Transactions, auto)
		res.Created = &auto
	}
	return res
}

// InvoiceUpdated replaces the stored invoice by full replacement. A
// newly paid invoice gets its derived transaction if none exists yet;
// an existing derived transaction is left untouched unless
// RefreshAmountOnUpdate is set. Reverting from PAID leaves the derived
// transaction in place unless RetractOnUnpaid is set.
func (r *Reconciler) InvoiceUpdated(invoices []core.Invoice, transactions []core.Transaction, updated core.Invoice) Result {
	res := Result{
		Invoices:     copyInvoices(invoices),
		Transactions: copyTransactions(transactions),
	}
	for i := range res.Invoices {
		if res.Invoices[i].ID == updated.ID {
			res.Invoices[i] = updated
		}
	}

	autoID := core.AutoTransactionID(updated.ID)
	existing := indexOfTransaction(res.Transactions, autoID)

	if updated.Status == core.StatusPaid {
		switch {
		case existing < 0:
			auto := Synthesize(updated)
			res.Transactions = append(res.Transactions, auto)
			res.Created = &auto
		case r.policy.RefreshAmountOnUpdate:
			auto := Synthesize(updated)
			res.Transactions[existing] = auto
			res.Created = &auto
		}
		return res
	}

	if existing >= 0 && r.policy.RetractOnUnpaid {
		res.Transactions = append(res.Transactions[:existing], res.Transactions[existing+1:]...)
		res.RemovedID = autoID
	}
	return res
}

// InvoiceDeleted removes the invoice and cascades to its derived
// transaction. Both removals are idempotent: absence is not an error,
// so calling this twice yields the same collections as calling it once.
func (r *Reconciler) InvoiceDeleted(invoices []core.Invoice, transactions []core.Transaction, id string) Result {
	res := Result{
		Invoices:     make([]core.Invoice, 0, len(invoices)),
		Transactions: copyTransactions(transactions),
	}
	for _, inv := range invoices {
		if inv.ID != id {
			res.Invoices = append(res.Invoices, inv)
		}
	}

	autoID := core.AutoTransactionID(id)
	if i := indexOfTransaction(res.Transactions, autoID); i >= 0 {
		res.Transactions = append(res.Transactions[:i], res.Transactions[i+1:]...)
		res.RemovedID = autoID
	}
	return res
}

func indexOfTransaction(transactions []core.Transaction, id string) int {
	for i, t := range transactions {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func copyInvoices(src []core.Invoice) []core.Invoice {
	dst := make([]core.Invoice, len(src))
	copy(dst, src)
	return dst
}

func copyTransactions(src []core.Transaction) []core.Transaction {
	dst := make([]core.Transaction, len(src))
	copy(dst, src)
	return dst
}
