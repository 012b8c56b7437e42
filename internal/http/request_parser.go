package http

import (
	"bizbook/internal/core"
)

// Request payloads mirror the domain types minus the server-owned
// fields: ids come from the path, source and invoice linkage from the
// reconciler.

type transactionRequest struct {
	Date        core.Date             `json:"date"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Amount      core.Money            `json:"amount"`
	Type        core.TransactionType  `json:"type"`
	PaymentMode core.PaymentMode      `json:"paymentMode"`
	BankID      string                `json:"bankId,omitempty"`
	CashierName string                `json:"cashierName,omitempty"`
}

func (t transactionRequest) toDomain() core.Transaction {
	return core.Transaction{
		Date:        t.Date,
		Description: sanitizeInput(t.Description),
		Category:    sanitizeInput(t.Category),
		Amount:      t.Amount,
		Type:        t.Type,
		PaymentMode: t.PaymentMode,
		BankID:      sanitizeInput(t.BankID),
		CashierName: sanitizeInput(t.CashierName),
		Source:      core.SourceManual,
	}
}

type invoiceItemRequest struct {
	ID          string     `json:"id,omitempty"`
	Description string     `json:"description"`
	Quantity    int64      `json:"quantity"`
	UnitPrice   core.Money `json:"unitPrice"`
	UnitCost    core.Money `json:"unitCost"`
}

type invoiceRequest struct {
	InvoiceNumber string               `json:"invoiceNumber,omitempty"`
	ClientName    string               `json:"clientName"`
	Date          core.Date            `json:"date"`
	Items         []invoiceItemRequest `json:"items"`
	Status        core.InvoiceStatus   `json:"status"`
	CashierName   string               `json:"cashierName,omitempty"`
}

func (i invoiceRequest) toDomain() core.Invoice {
	items := make([]core.InvoiceItem, len(i.Items))
	for idx, it := range i.Items {
		items[idx] = core.InvoiceItem{
			ID:          sanitizeInput(it.ID),
			Description: sanitizeInput(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			UnitCost:    it.UnitCost,
		}
	}
	return core.Invoice{
		InvoiceNumber: sanitizeInput(i.InvoiceNumber),
		ClientName:    sanitizeInput(i.ClientName),
		Date:          i.Date,
		Items:         items,
		Status:        i.Status,
		CashierName:   sanitizeInput(i.CashierName),
	}
}

type bankRequest struct {
	BankName      string     `json:"bankName"`
	AccountNumber string     `json:"accountNumber"`
	Branch        string     `json:"branch,omitempty"`
	Balance       core.Money `json:"balance"`
}

func (b bankRequest) toDomain() core.Bank {
	return core.Bank{
		BankName:      sanitizeInput(b.BankName),
		AccountNumber: sanitizeInput(b.AccountNumber),
		Branch:        sanitizeInput(b.Branch),
		Balance:       b.Balance,
	}
}

type staffRequest struct {
	Name   string     `json:"name"`
	Role   string     `json:"role,omitempty"`
	Phone  string     `json:"phone,omitempty"`
	Salary core.Money `json:"salary"`
}

func (s staffRequest) toDomain() core.Staff {
	return core.Staff{
		Name:   sanitizeInput(s.Name),
		Role:   sanitizeInput(s.Role),
		Phone:  sanitizeInput(s.Phone),
		Salary: s.Salary,
	}
}

type inventoryRequest struct {
	Name          string     `json:"name"`
	Unit          string     `json:"unit,omitempty"`
	PurchasePrice core.Money `json:"purchasePrice"`
	SellingPrice  core.Money `json:"sellingPrice"`
	Stock         int64      `json:"stock"`
}

func (i inventoryRequest) toDomain() core.InventoryItem {
	return core.InventoryItem{
		Name:          sanitizeInput(i.Name),
		Unit:          sanitizeInput(i.Unit),
		PurchasePrice: i.PurchasePrice,
		SellingPrice:  i.SellingPrice,
		Stock:         i.Stock,
	}
}
