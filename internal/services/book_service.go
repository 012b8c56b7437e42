// Package services wires the pure engines to the entity store and the
// event bus. BookService is the single logical writer: every mutation
// takes the write lock, loads the current snapshots, runs the engine,
// persists the result atomically and then announces the change.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bizbook/internal/amqp"
	"bizbook/internal/core"
	"bizbook/internal/ledger"
	applog "bizbook/internal/log"
	"bizbook/internal/reconcile"
	"bizbook/internal/reports"
	"bizbook/internal/storage"
)

// Store is the persistence port the service needs. The SQLite
// repository implements it.
type Store interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	SaveTransaction(ctx context.Context, t core.Transaction) error
	ReplaceTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	ListInvoices(ctx context.Context) ([]core.Invoice, error)
	SaveInvoice(ctx context.Context, inv core.Invoice, derived *core.Transaction) error
	UpdateInvoice(ctx context.Context, inv core.Invoice, derived *core.Transaction, removedAutoID string) error
	DeleteInvoice(ctx context.Context, id string) error

	ListBanks(ctx context.Context) ([]core.Bank, error)
	SaveBank(ctx context.Context, b core.Bank) error
	DeleteBank(ctx context.Context, id string) error

	ListStaff(ctx context.Context) ([]core.Staff, error)
	SaveStaff(ctx context.Context, s core.Staff) error
	DeleteStaff(ctx context.Context, id string) error

	ListInventory(ctx context.Context) ([]core.InventoryItem, error)
	SaveInventory(ctx context.Context, it core.InventoryItem) error
	DeleteInventory(ctx context.Context, id string) error

	LatestInsight(ctx context.Context) (storage.Insight, error)
}

// EventPublisher announces collection changes. May be nil when no
// broker is configured.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, entity, entityID, action string) error
}

type BookService struct {
	store      Store
	events     EventPublisher
	reconciler *reconcile.Reconciler

	// mu serializes mutations: the engines assume exclusive access to
	// the collections for the duration of one operation.
	mu sync.Mutex
}

func NewBookService(store Store, events EventPublisher, policy reconcile.Policy) *BookService {
	return &BookService{
		store:      store,
		events:     events,
		reconciler: reconcile.New(policy),
	}
}

func (s *BookService) publish(ctx context.Context, entity, entityID, action string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, entity, entityID, action); err != nil {
		// The mutation is already persisted; a lost event only delays
		// the insight pipeline.
		fields := applog.NewFields().WithEntity(entity, entityID).WithOperation(action).WithError(err)
		slog.ErrorContext(ctx, "Failed to publish ledger event", fields.ToSlice()...)
	}
}

// CreateTransaction validates and appends a manual ledger entry. A
// missing id gets a fresh UUID; the reserved auto prefix is rejected
// by validation.
func (s *BookService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Source == "" {
		t.Source = core.SourceManual
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	if err := s.store.SaveTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, amqp.EntityTransaction, t.ID, amqp.ActionCreated)
	return t, nil
}

// UpdateTransaction replaces a manual entry in full. Derived entries
// belong to the reconciler and cannot be edited here.
func (s *BookService) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if core.IsAutoTransactionID(t.ID) {
		return fmt.Errorf("update transaction %s: %w", t.ID, core.ErrReservedID)
	}
	if t.Source == "" {
		t.Source = core.SourceManual
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}

	if err := s.store.ReplaceTransaction(ctx, t); err != nil {
		return err
	}
	s.publish(ctx, amqp.EntityTransaction, t.ID, amqp.ActionUpdated)
	return nil
}

// DeleteTransaction removes an entry; absence is a no-op.
func (s *BookService) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.EntityTransaction, id, amqp.ActionDeleted)
	return nil
}

func (s *BookService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

// CreateInvoice appends an invoice, generating id and invoice number
// when absent, and runs the reconciler so a PAID invoice lands with
// its derived ledger entry in the same store write.
func (s *BookService) CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.InvoiceNumber == "" {
		inv.InvoiceNumber = core.NewInvoiceNumber(time.Now())
	}
	for i := range inv.Items {
		if inv.Items[i].ID == "" {
			inv.Items[i].ID = uuid.NewString()
		}
	}
	if err := inv.Validate(); err != nil {
		return core.Invoice{}, fmt.Errorf("validate invoice: %w", err)
	}

	res := s.reconciler.InvoiceCreated(nil, nil, inv)
	if err := s.store.SaveInvoice(ctx, inv, res.Created); err != nil {
		return core.Invoice{}, err
	}

	s.publish(ctx, amqp.EntityInvoice, inv.ID, amqp.ActionCreated)
	if res.Created != nil {
		s.publish(ctx, amqp.EntityTransaction, res.Created.ID, amqp.ActionCreated)
	}
	return inv, nil
}

// UpdateInvoice replaces an invoice in full and applies the
// reconciler's transaction delta atomically.
func (s *BookService) UpdateInvoice(ctx context.Context, inv core.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range inv.Items {
		if inv.Items[i].ID == "" {
			inv.Items[i].ID = uuid.NewString()
		}
	}
	if err := inv.Validate(); err != nil {
		return fmt.Errorf("validate invoice: %w", err)
	}

	transactions, err := s.store.ListTransactions(ctx)
	if err != nil {
		return err
	}
	invoices, err := s.store.ListInvoices(ctx)
	if err != nil {
		return err
	}

	res := s.reconciler.InvoiceUpdated(invoices, transactions, inv)
	if err := s.store.UpdateInvoice(ctx, inv, res.Created, res.RemovedID); err != nil {
		return err
	}

	s.publish(ctx, amqp.EntityInvoice, inv.ID, amqp.ActionUpdated)
	if res.Created != nil {
		s.publish(ctx, amqp.EntityTransaction, res.Created.ID, amqp.ActionCreated)
	}
	if res.RemovedID != "" {
		s.publish(ctx, amqp.EntityTransaction, res.RemovedID, amqp.ActionDeleted)
	}
	return nil
}

// DeleteInvoice removes an invoice and cascades to its derived
// transaction. Idempotent.
func (s *BookService) DeleteInvoice(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteInvoice(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.EntityInvoice, id, amqp.ActionDeleted)
	s.publish(ctx, amqp.EntityTransaction, core.AutoTransactionID(id), amqp.ActionDeleted)
	return nil
}

func (s *BookService) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	return s.store.ListInvoices(ctx)
}

// Balances recomputes channel balances from the live collections.
func (s *BookService) Balances(ctx context.Context) (core.ChannelBalances, error) {
	transactions, err := s.store.ListTransactions(ctx)
	if err != nil {
		return core.ChannelBalances{}, err
	}
	banks, err := s.store.ListBanks(ctx)
	if err != nil {
		return core.ChannelBalances{}, err
	}
	return ledger.ComputeChannelBalances(transactions, banks), nil
}

// Trend buckets the most recent window of the ledger by date.
func (s *BookService) Trend(ctx context.Context, window int) ([]ledger.TrendPoint, error) {
	transactions, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.ComputeTrend(transactions, window), nil
}

// Summary totals the full ledger.
func (s *BookService) Summary(ctx context.Context) (core.FinancialSummary, error) {
	transactions, err := s.store.ListTransactions(ctx)
	if err != nil {
		return core.FinancialSummary{}, err
	}
	return reports.ComputeSummary(transactions), nil
}

// RangeSummary totals only the transactions dated within [start, end].
func (s *BookService) RangeSummary(ctx context.Context, start, end core.Date) (core.FinancialSummary, error) {
	transactions, err := s.store.ListTransactions(ctx)
	if err != nil {
		return core.FinancialSummary{}, err
	}
	return reports.ComputeSummary(reports.FilterTransactions(transactions, start, end)), nil
}

// Report assembles every report view for an inclusive date range.
func (s *BookService) Report(ctx context.Context, start, end core.Date) (reports.Report, error) {
	transactions, err := s.store.ListTransactions(ctx)
	if err != nil {
		return reports.Report{}, err
	}
	invoices, err := s.store.ListInvoices(ctx)
	if err != nil {
		return reports.Report{}, err
	}
	return reports.Build(transactions, invoices, start, end), nil
}

func (s *BookService) ListBanks(ctx context.Context) ([]core.Bank, error) {
	return s.store.ListBanks(ctx)
}

func (s *BookService) CreateBank(ctx context.Context, b core.Bank) (core.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if err := b.Validate(); err != nil {
		return core.Bank{}, fmt.Errorf("validate bank: %w", err)
	}
	if err := s.store.SaveBank(ctx, b); err != nil {
		return core.Bank{}, err
	}
	return b, nil
}

// DeleteBank removes a bank. Transactions referencing it keep their
// stale bank id; display degrades to a placeholder and the bank's
// opening balance stops contributing to the bank channel.
func (s *BookService) DeleteBank(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.DeleteBank(ctx, id)
}

func (s *BookService) ListStaff(ctx context.Context) ([]core.Staff, error) {
	return s.store.ListStaff(ctx)
}

func (s *BookService) CreateStaff(ctx context.Context, st core.Staff) (core.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if strings.TrimSpace(st.Name) == "" {
		return core.Staff{}, errors.New("validate staff: empty name")
	}
	if err := s.store.SaveStaff(ctx, st); err != nil {
		return core.Staff{}, err
	}
	return st, nil
}

func (s *BookService) DeleteStaff(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.DeleteStaff(ctx, id)
}

func (s *BookService) ListInventory(ctx context.Context) ([]core.InventoryItem, error) {
	return s.store.ListInventory(ctx)
}

func (s *BookService) CreateInventory(ctx context.Context, it core.InventoryItem) (core.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if strings.TrimSpace(it.Name) == "" {
		return core.InventoryItem{}, errors.New("validate inventory item: empty name")
	}
	if err := s.store.SaveInventory(ctx, it); err != nil {
		return core.InventoryItem{}, err
	}
	return it, nil
}

func (s *BookService) DeleteInventory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.DeleteInventory(ctx, id)
}

// LatestInsight returns the most recent generated narrative.
func (s *BookService) LatestInsight(ctx context.Context) (storage.Insight, error) {
	return s.store.LatestInsight(ctx)
}
