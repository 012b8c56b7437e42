package services

import (
	"context"
	"errors"
	"testing"

	"bizbook/internal/core"
	"bizbook/internal/reconcile"
	"bizbook/internal/storage"
)

type fakeStore struct {
	transactions []core.Transaction
	invoices     []core.Invoice
	banks        []core.Bank
	staff        []core.Staff
	inventory    []core.InventoryItem
	insight      *storage.Insight
}

func (f *fakeStore) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return append([]core.Transaction(nil), f.transactions...), nil
}

func (f *fakeStore) SaveTransaction(ctx context.Context, t core.Transaction) error {
	f.transactions = append(f.transactions, t)
	return nil
}

func (f *fakeStore) ReplaceTransaction(ctx context.Context, t core.Transaction) error {
	for i := range f.transactions {
		if f.transactions[i].ID == t.ID {
			f.transactions[i] = t
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeStore) DeleteTransaction(ctx context.Context, id string) error {
	for i := range f.transactions {
		if f.transactions[i].ID == id {
			f.transactions = append(f.transactions[:i], f.transactions[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeStore) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	return append([]core.Invoice(nil), f.invoices...), nil
}

func (f *fakeStore) SaveInvoice(ctx context.Context, inv core.Invoice, derived *core.Transaction) error {
	f.invoices = append(f.invoices, inv)
	if derived != nil {
		f.transactions = append(f.transactions, *derived)
	}
	return nil
}

func (f *fakeStore) UpdateInvoice(ctx context.Context, inv core.Invoice, derived *core.Transaction, removedAutoID string) error {
	found := false
	for i := range f.invoices {
		if f.invoices[i].ID == inv.ID {
			f.invoices[i] = inv
			found = true
		}
	}
	if !found {
		return storage.ErrNotFound
	}
	if derived != nil {
		replaced := false
		for i := range f.transactions {
			if f.transactions[i].ID == derived.ID {
				f.transactions[i] = *derived
				replaced = true
			}
		}
		if !replaced {
			f.transactions = append(f.transactions, *derived)
		}
	}
	if removedAutoID != "" {
		_ = f.DeleteTransaction(ctx, removedAutoID)
	}
	return nil
}

func (f *fakeStore) DeleteInvoice(ctx context.Context, id string) error {
	for i := range f.invoices {
		if f.invoices[i].ID == id {
			f.invoices = append(f.invoices[:i], f.invoices[i+1:]...)
			break
		}
	}
	return f.DeleteTransaction(ctx, core.AutoTransactionID(id))
}

func (f *fakeStore) ListBanks(ctx context.Context) ([]core.Bank, error) {
	return append([]core.Bank(nil), f.banks...), nil
}

func (f *fakeStore) SaveBank(ctx context.Context, b core.Bank) error {
	f.banks = append(f.banks, b)
	return nil
}

func (f *fakeStore) DeleteBank(ctx context.Context, id string) error {
	for i := range f.banks {
		if f.banks[i].ID == id {
			f.banks = append(f.banks[:i], f.banks[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeStore) ListStaff(ctx context.Context) ([]core.Staff, error) {
	return append([]core.Staff(nil), f.staff...), nil
}

func (f *fakeStore) SaveStaff(ctx context.Context, s core.Staff) error {
	f.staff = append(f.staff, s)
	return nil
}

func (f *fakeStore) DeleteStaff(ctx context.Context, id string) error {
	for i := range f.staff {
		if f.staff[i].ID == id {
			f.staff = append(f.staff[:i], f.staff[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeStore) ListInventory(ctx context.Context) ([]core.InventoryItem, error) {
	return append([]core.InventoryItem(nil), f.inventory...), nil
}

func (f *fakeStore) SaveInventory(ctx context.Context, it core.InventoryItem) error {
	f.inventory = append(f.inventory, it)
	return nil
}

func (f *fakeStore) DeleteInventory(ctx context.Context, id string) error {
	for i := range f.inventory {
		if f.inventory[i].ID == id {
			f.inventory = append(f.inventory[:i], f.inventory[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeStore) LatestInsight(ctx context.Context) (storage.Insight, error) {
	if f.insight == nil {
		return storage.Insight{}, storage.ErrNotFound
	}
	return *f.insight, nil
}

type recordedEvent struct {
	entity, entityID, action string
}

type fakePublisher struct {
	events []recordedEvent
}

func (f *fakePublisher) PublishLedgerEvent(ctx context.Context, entity, entityID, action string) error {
	f.events = append(f.events, recordedEvent{entity, entityID, action})
	return nil
}

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func newService(store *fakeStore, pub *fakePublisher) *BookService {
	// A nil *fakePublisher must become a nil EventPublisher interface,
	// not a typed-nil wrapped in the interface.
	var events EventPublisher
	if pub != nil {
		events = pub
	}
	return NewBookService(store, events, reconcile.Policy{})
}

func TestCreateTransactionAssignsIDAndSource(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := newService(store, pub)

	created, err := svc.CreateTransaction(context.Background(), core.Transaction{
		Date:        mustDate(t, "2023-10-01"),
		Description: "Stationery",
		Category:    "Office",
		Amount:      core.Money{Cents: 2500},
		Type:        core.Expense,
		PaymentMode: core.PayCash,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if created.ID == "" {
		t.Error("expected generated id")
	}
	if created.Source != core.SourceManual {
		t.Errorf("source = %q, want %q", created.Source, core.SourceManual)
	}
	if len(store.transactions) != 1 {
		t.Fatalf("stored %d transactions, want 1", len(store.transactions))
	}
	if len(pub.events) != 1 || pub.events[0].action != "created" {
		t.Errorf("events = %v, want one created event", pub.events)
	}
}

func TestCreateTransactionRejectsReservedID(t *testing.T) {
	svc := newService(&fakeStore{}, nil)

	_, err := svc.CreateTransaction(context.Background(), core.Transaction{
		ID:          "auto-inv1",
		Date:        mustDate(t, "2023-10-01"),
		Description: "Sneaky",
		Category:    "Sales",
		Amount:      core.Money{Cents: 100},
		Type:        core.Income,
		PaymentMode: core.PayCash,
	})
	if !errors.Is(err, core.ErrReservedID) {
		t.Errorf("err = %v, want ErrReservedID", err)
	}
}

func TestUpdateTransactionRejectsDerivedEntries(t *testing.T) {
	svc := newService(&fakeStore{}, nil)

	err := svc.UpdateTransaction(context.Background(), core.Transaction{
		ID:          "auto-inv1",
		Date:        mustDate(t, "2023-10-01"),
		Description: "Edited derived entry",
		Category:    "Sales",
		Amount:      core.Money{Cents: 100},
		Type:        core.Income,
		PaymentMode: core.PayCash,
	})
	if !errors.Is(err, core.ErrReservedID) {
		t.Errorf("err = %v, want ErrReservedID", err)
	}
}

func TestCreatePaidInvoicePersistsDerivedTransaction(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := newService(store, pub)

	inv, err := svc.CreateInvoice(context.Background(), core.Invoice{
		ClientName: "Acme Corp",
		Date:       mustDate(t, "2023-10-10"),
		Status:     core.StatusPaid,
		Items: []core.InvoiceItem{
			{Description: "Widget", Quantity: 4, UnitPrice: core.Money{Cents: 5000}, UnitCost: core.Money{Cents: 3000}},
		},
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if inv.ID == "" || inv.InvoiceNumber == "" {
		t.Errorf("missing generated identifiers: id=%q number=%q", inv.ID, inv.InvoiceNumber)
	}
	if inv.Items[0].ID == "" {
		t.Error("expected generated item id")
	}

	if len(store.transactions) != 1 {
		t.Fatalf("stored %d transactions, want 1", len(store.transactions))
	}
	derived := store.transactions[0]
	if derived.ID != core.AutoTransactionID(inv.ID) {
		t.Errorf("derived id = %q, want %q", derived.ID, core.AutoTransactionID(inv.ID))
	}
	if derived.Amount.Cents != 20000 {
		t.Errorf("derived amount = %d, want 20000", derived.Amount.Cents)
	}
	if derived.Source != core.SourceInvoice {
		t.Errorf("derived source = %q", derived.Source)
	}

	if len(pub.events) != 2 {
		t.Fatalf("published %d events, want 2: %v", len(pub.events), pub.events)
	}
	if pub.events[0].entity != "invoice" || pub.events[1].entity != "transaction" {
		t.Errorf("event entities = %v", pub.events)
	}
}

func TestCreatePendingInvoiceLeavesLedgerAlone(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store, nil)

	_, err := svc.CreateInvoice(context.Background(), core.Invoice{
		ClientName: "Acme Corp",
		Date:       mustDate(t, "2023-10-10"),
		Status:     core.StatusPending,
		Items: []core.InvoiceItem{
			{Description: "Widget", Quantity: 1, UnitPrice: core.Money{Cents: 5000}, UnitCost: core.Money{Cents: 3000}},
		},
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if len(store.transactions) != 0 {
		t.Errorf("stored %d transactions, want 0", len(store.transactions))
	}
}

func TestUpdateInvoiceBecomesPaid(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := newService(store, pub)

	inv, err := svc.CreateInvoice(context.Background(), core.Invoice{
		ClientName: "Acme Corp",
		Date:       mustDate(t, "2023-10-10"),
		Status:     core.StatusPending,
		Items: []core.InvoiceItem{
			{Description: "Widget", Quantity: 2, UnitPrice: core.Money{Cents: 5000}, UnitCost: core.Money{Cents: 3000}},
		},
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	inv.Status = core.StatusPaid
	if err := svc.UpdateInvoice(context.Background(), inv); err != nil {
		t.Fatalf("UpdateInvoice: %v", err)
	}

	if len(store.transactions) != 1 {
		t.Fatalf("stored %d transactions, want 1", len(store.transactions))
	}
	if store.transactions[0].Amount.Cents != 10000 {
		t.Errorf("derived amount = %d, want 10000", store.transactions[0].Amount.Cents)
	}
}

func TestDeleteInvoiceCascades(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := newService(store, pub)

	inv, err := svc.CreateInvoice(context.Background(), core.Invoice{
		ClientName: "Acme Corp",
		Date:       mustDate(t, "2023-10-10"),
		Status:     core.StatusPaid,
		Items: []core.InvoiceItem{
			{Description: "Widget", Quantity: 1, UnitPrice: core.Money{Cents: 5000}, UnitCost: core.Money{Cents: 3000}},
		},
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	if err := svc.DeleteInvoice(context.Background(), inv.ID); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}
	if len(store.invoices) != 0 || len(store.transactions) != 0 {
		t.Errorf("cascade left invoices=%d transactions=%d", len(store.invoices), len(store.transactions))
	}

	// Deleting again is a no-op.
	if err := svc.DeleteInvoice(context.Background(), inv.ID); err != nil {
		t.Errorf("second DeleteInvoice: %v", err)
	}
}

func TestBalancesAndSummaryDelegate(t *testing.T) {
	store := &fakeStore{
		transactions: []core.Transaction{
			{ID: "1", Date: mustDate(t, "2023-10-01"), Description: "Sale", Category: "Sales",
				Amount: core.Money{Cents: 50000}, Type: core.Income, PaymentMode: core.PayCash, Source: core.SourceManual},
			{ID: "2", Date: mustDate(t, "2023-10-02"), Description: "Rent", Category: "Rent",
				Amount: core.Money{Cents: 20000}, Type: core.Expense, PaymentMode: core.PayCash, Source: core.SourceManual},
		},
		banks: []core.Bank{
			{ID: "b1", BankName: "Main", AccountNumber: "1", Balance: core.Money{Cents: 100000}},
		},
	}
	svc := newService(store, nil)

	balances, err := svc.Balances(context.Background())
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	if balances.Cash.Cents != 30000 {
		t.Errorf("cash = %d, want 30000", balances.Cash.Cents)
	}
	if balances.BankTotal.Cents != 100000 {
		t.Errorf("bankTotal = %d, want 100000", balances.BankTotal.Cents)
	}

	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.NetProfit.Cents != 30000 {
		t.Errorf("netProfit = %d, want 30000", summary.NetProfit.Cents)
	}
	if summary.ProfitMargin != 60 {
		t.Errorf("margin = %v, want 60", summary.ProfitMargin)
	}
}

func TestCreateBankValidates(t *testing.T) {
	svc := newService(&fakeStore{}, nil)

	if _, err := svc.CreateBank(context.Background(), core.Bank{BankName: " ", AccountNumber: "1"}); err == nil {
		t.Error("expected validation error for blank bank name")
	}

	b, err := svc.CreateBank(context.Background(), core.Bank{BankName: "Main", AccountNumber: "42"})
	if err != nil {
		t.Fatalf("CreateBank: %v", err)
	}
	if b.ID == "" {
		t.Error("expected generated id")
	}
}
