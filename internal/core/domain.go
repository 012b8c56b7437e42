package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"

	PayCash PaymentMode = "CASH"
	PayBank PaymentMode = "BANK"

	StatusPending InvoiceStatus = "PENDING"
	StatusPaid    InvoiceStatus = "PAID"
	StatusOverdue InvoiceStatus = "OVERDUE"

	SourceManual  TransactionSource = "manual"
	SourceInvoice TransactionSource = "invoice"
)

// AutoIDPrefix marks transactions the reconciler derives from paid invoices.
// Manual entries must never carry it.
const AutoIDPrefix = "auto-"

type (
	TransactionType   string
	PaymentMode       string
	InvoiceStatus     string
	TransactionSource string

	Transaction struct {
		ID          string            `json:"id"`
		Date        Date              `json:"date"`
		Description string            `json:"description"`
		Category    string            `json:"category"`
		Amount      Money             `json:"amount"`
		Type        TransactionType   `json:"type"`
		PaymentMode PaymentMode       `json:"paymentMode"`
		BankID      string            `json:"bankId,omitempty"`
		CashierName string            `json:"cashierName,omitempty"`
		Source      TransactionSource `json:"source"`
		InvoiceID   string            `json:"invoiceId,omitempty"`
	}

	InvoiceItem struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		Quantity    int64  `json:"quantity"`
		UnitPrice   Money  `json:"unitPrice"`
		UnitCost    Money  `json:"unitCost"`
	}

	Invoice struct {
		ID            string        `json:"id"`
		InvoiceNumber string        `json:"invoiceNumber"`
		ClientName    string        `json:"clientName"`
		Date          Date          `json:"date"`
		Items         []InvoiceItem `json:"items"`
		Status        InvoiceStatus `json:"status"`
		CashierName   string        `json:"cashierName,omitempty"`
	}

	Bank struct {
		ID            string `json:"id"`
		BankName      string `json:"bankName"`
		AccountNumber string `json:"accountNumber"`
		Branch        string `json:"branch"`
		Balance       Money  `json:"balance"`
	}

	Staff struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Role   string `json:"role"`
		Phone  string `json:"phone"`
		Salary Money  `json:"salary"`
	}

	InventoryItem struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Unit          string `json:"unit"`
		PurchasePrice Money  `json:"purchasePrice"`
		SellingPrice  Money  `json:"sellingPrice"`
		Stock         int64  `json:"stock"`
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidMode      = errors.New("invalid payment mode")
	ErrInvalidStatus    = errors.New("invalid invoice status")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyClient      = errors.New("empty client name")
	ErrBankRequired     = errors.New("bank id required for bank payments")
	ErrReservedID       = errors.New("transaction id uses reserved auto prefix")
)

// AutoTransactionID returns the reserved id of the transaction derived
// from the given invoice.
func AutoTransactionID(invoiceID string) string {
	return AutoIDPrefix + invoiceID
}

// IsAutoTransactionID reports whether id follows the reserved pattern.
func IsAutoTransactionID(id string) bool {
	return strings.HasPrefix(id, AutoIDPrefix)
}

// NewInvoiceNumber derives an invoice number from a timestamp, keeping
// the last six digits of the millisecond clock so numbers stay distinct
// within a session.
func NewInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%06d", now.UnixMilli()%1_000_000)
}

// Signed returns the transaction amount with its ledger sign: positive
// for income, negative for expense.
func (t Transaction) Signed() Money {
	if t.Type == Income {
		return t.Amount
	}
	return Money{Cents: -t.Amount.Cents}
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	switch t.Type {
	case Income, Expense:
	default:
		return ErrInvalidType
	}
	switch t.PaymentMode {
	case PayCash:
	case PayBank:
		if strings.TrimSpace(t.BankID) == "" {
			return ErrBankRequired
		}
	default:
		return ErrInvalidMode
	}
	if t.Source != SourceInvoice && IsAutoTransactionID(t.ID) {
		return ErrReservedID
	}
	return nil
}

// Revenue is the item's contribution to invoice revenue.
func (it InvoiceItem) Revenue() Money {
	return Money{Cents: it.Quantity * it.UnitPrice.Cents}
}

// Cost is the item's contribution to invoice cost.
func (it InvoiceItem) Cost() Money {
	return Money{Cents: it.Quantity * it.UnitCost.Cents}
}

// Profit is revenue minus cost.
func (it InvoiceItem) Profit() Money {
	return Money{Cents: it.Revenue().Cents - it.Cost().Cents}
}

func (it InvoiceItem) Validate() error {
	if len(strings.TrimSpace(it.Description)) == 0 {
		return ErrEmptyDescription
	}
	if it.Quantity < 0 {
		return ErrInvalidQuantity
	}
	if it.UnitPrice.Cents < 0 || it.UnitCost.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Revenue sums quantity times unit price over all items. An empty item
// list yields zero, never an error.
func (inv Invoice) Revenue() Money {
	var total int64
	for _, it := range inv.Items {
		total += it.Revenue().Cents
	}
	return Money{Cents: total}
}

// Cost sums quantity times unit cost over all items.
func (inv Invoice) Cost() Money {
	var total int64
	for _, it := range inv.Items {
		total += it.Cost().Cents
	}
	return Money{Cents: total}
}

// Profit is invoice revenue minus invoice cost.
func (inv Invoice) Profit() Money {
	return Money{Cents: inv.Revenue().Cents - inv.Cost().Cents}
}

func (inv Invoice) Validate() error {
	if err := inv.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(inv.ClientName) == "" {
		return ErrEmptyClient
	}
	switch inv.Status {
	case StatusPending, StatusPaid, StatusOverdue:
	default:
		return ErrInvalidStatus
	}
	for i, it := range inv.Items {
		if err := it.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func (b Bank) Validate() error {
	if strings.TrimSpace(b.BankName) == "" {
		return errors.New("empty bank name")
	}
	if strings.TrimSpace(b.AccountNumber) == "" {
		return errors.New("empty account number")
	}
	return nil
}
