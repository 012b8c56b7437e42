package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bizbook/internal/core"
	"bizbook/internal/ledger"
	"bizbook/internal/reports"
	"bizbook/internal/storage"
)

// stubBooks is an in-memory Bookkeeper for handler tests.
type stubBooks struct {
	transactions []core.Transaction
	invoices     []core.Invoice
	banks        []core.Bank
	staff        []core.Staff
	inventory    []core.InventoryItem
	insight      *storage.Insight

	lastCreated core.Transaction
	updateErr   error
}

func (s *stubBooks) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.transactions, nil
}

func (s *stubBooks) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = "tx-1"
	s.lastCreated = t
	s.transactions = append(s.transactions, t)
	return t, nil
}

func (s *stubBooks) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	return s.updateErr
}

func (s *stubBooks) DeleteTransaction(ctx context.Context, id string) error { return nil }

func (s *stubBooks) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	return s.invoices, nil
}

func (s *stubBooks) CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	inv.ID = "inv-1"
	inv.InvoiceNumber = "INV-000001"
	s.invoices = append(s.invoices, inv)
	return inv, nil
}

func (s *stubBooks) UpdateInvoice(ctx context.Context, inv core.Invoice) error { return s.updateErr }

func (s *stubBooks) DeleteInvoice(ctx context.Context, id string) error { return nil }

func (s *stubBooks) Balances(ctx context.Context) (core.ChannelBalances, error) {
	return core.ChannelBalances{Cash: core.Money{Cents: 1000}}, nil
}

func (s *stubBooks) Summary(ctx context.Context) (core.FinancialSummary, error) {
	return core.FinancialSummary{TotalRevenue: core.Money{Cents: 5000}, ProfitMargin: 100}, nil
}

func (s *stubBooks) RangeSummary(ctx context.Context, start, end core.Date) (core.FinancialSummary, error) {
	return core.FinancialSummary{}, nil
}

func (s *stubBooks) Trend(ctx context.Context, window int) ([]ledger.TrendPoint, error) {
	return nil, nil
}

func (s *stubBooks) Report(ctx context.Context, start, end core.Date) (reports.Report, error) {
	return reports.Report{StartDate: start, EndDate: end}, nil
}

func (s *stubBooks) ListBanks(ctx context.Context) ([]core.Bank, error) { return s.banks, nil }

func (s *stubBooks) CreateBank(ctx context.Context, b core.Bank) (core.Bank, error) {
	b.ID = "b-1"
	return b, nil
}

func (s *stubBooks) DeleteBank(ctx context.Context, id string) error { return nil }

func (s *stubBooks) ListStaff(ctx context.Context) ([]core.Staff, error) { return s.staff, nil }

func (s *stubBooks) CreateStaff(ctx context.Context, st core.Staff) (core.Staff, error) {
	st.ID = "s-1"
	return st, nil
}

func (s *stubBooks) DeleteStaff(ctx context.Context, id string) error { return nil }

func (s *stubBooks) ListInventory(ctx context.Context) ([]core.InventoryItem, error) {
	return s.inventory, nil
}

func (s *stubBooks) CreateInventory(ctx context.Context, it core.InventoryItem) (core.InventoryItem, error) {
	it.ID = "i-1"
	return it, nil
}

func (s *stubBooks) DeleteInventory(ctx context.Context, id string) error { return nil }

func (s *stubBooks) LatestInsight(ctx context.Context) (storage.Insight, error) {
	if s.insight == nil {
		return storage.Insight{}, storage.ErrNotFound
	}
	return *s.insight, nil
}

func newTestServer(books Bookkeeper) *Server {
	return NewServer(":0", books, 15)
}

func do(t *testing.T, srv *Server, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(&stubBooks{})
	defer srv.Shutdown(context.Background())

	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(t, srv, http.MethodGet, path, "", nil); rr.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rr.Code)
		}
	}
}

func TestCreateTransaction(t *testing.T) {
	books := &stubBooks{}
	srv := newTestServer(books)
	defer srv.Shutdown(context.Background())

	body := `{"date":"2023-10-01","description":"Stationery","category":"Office","amount":25.50,"type":"EXPENSE","paymentMode":"CASH"}`
	rr := do(t, srv, http.MethodPost, "/api/transactions", body, map[string]string{CashierHeader: "Priya"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if books.lastCreated.CashierName != "Priya" {
		t.Errorf("cashier = %q, want Priya", books.lastCreated.CashierName)
	}
	if books.lastCreated.Amount.Cents != 2550 {
		t.Errorf("amount = %d, want 2550", books.lastCreated.Amount.Cents)
	}
	if books.lastCreated.Source != core.SourceManual {
		t.Errorf("source = %q", books.lastCreated.Source)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(&stubBooks{})
	defer srv.Shutdown(context.Background())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{`, http.StatusBadRequest},
		{"unknown field", `{"source":"INVOICE","date":"2023-10-01","description":"x","category":"c","amount":1,"type":"EXPENSE","paymentMode":"CASH"}`, http.StatusBadRequest},
		{"empty description", `{"date":"2023-10-01","description":" ","category":"c","amount":1,"type":"EXPENSE","paymentMode":"CASH"}`, http.StatusUnprocessableEntity},
		{"bank without bankId", `{"date":"2023-10-01","description":"x","category":"c","amount":1,"type":"EXPENSE","paymentMode":"BANK"}`, http.StatusUnprocessableEntity},
		{"zero amount", `{"date":"2023-10-01","description":"x","category":"c","amount":0,"type":"EXPENSE","paymentMode":"CASH"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := do(t, srv, http.MethodPost, "/api/transactions", tt.body, nil); rr.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestUpdateTransactionNotFound(t *testing.T) {
	srv := newTestServer(&stubBooks{updateErr: storage.ErrNotFound})
	defer srv.Shutdown(context.Background())

	body := `{"date":"2023-10-01","description":"x","category":"c","amount":1,"type":"EXPENSE","paymentMode":"CASH"}`
	rr := do(t, srv, http.MethodPut, "/api/transactions/nope", body, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestCreateInvoice(t *testing.T) {
	books := &stubBooks{}
	srv := newTestServer(books)
	defer srv.Shutdown(context.Background())

	body := `{"clientName":"Acme Corp","date":"2023-10-10","status":"PAID","items":[{"description":"Widget","quantity":4,"unitPrice":50,"unitCost":30}]}`
	rr := do(t, srv, http.MethodPost, "/api/invoices", body, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "INV-000001") {
		t.Errorf("body missing invoice number: %s", rr.Body.String())
	}
}

func TestCreateInvoiceValidation(t *testing.T) {
	srv := newTestServer(&stubBooks{})
	defer srv.Shutdown(context.Background())

	body := `{"clientName":" ","date":"2023-10-10","status":"PAID","items":[]}`
	if rr := do(t, srv, http.MethodPost, "/api/invoices", body, nil); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rr.Code)
	}

	body = `{"clientName":"Acme","date":"2023-10-10","status":"SETTLED","items":[]}`
	if rr := do(t, srv, http.MethodPost, "/api/invoices", body, nil); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rr.Code)
	}
}

func TestReportRequiresDateRange(t *testing.T) {
	srv := newTestServer(&stubBooks{})
	defer srv.Shutdown(context.Background())

	if rr := do(t, srv, http.MethodGet, "/api/reports", "", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("missing range: status = %d, want 400", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/reports?start=2023-10-01&end=oops", "", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("bad end: status = %d, want 400", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/reports?start=2023-10-01&end=2023-10-31", "", nil); rr.Code != http.StatusOK {
		t.Errorf("valid range: status = %d, want 200", rr.Code)
	}
}

func TestExportReportContentType(t *testing.T) {
	srv := newTestServer(&stubBooks{})
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodGet, "/api/reports/export?start=2023-10-01&end=2023-10-31", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	got := rr.Header().Get("Content-Type")
	if got != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("content type = %q", got)
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "attachment") {
		t.Errorf("disposition = %q", rr.Header().Get("Content-Disposition"))
	}
}

func TestLatestInsight(t *testing.T) {
	srv := newTestServer(&stubBooks{})
	defer srv.Shutdown(context.Background())

	if rr := do(t, srv, http.MethodGet, "/api/insights/latest", "", nil); rr.Code != http.StatusNotFound {
		t.Errorf("empty store: status = %d, want 404", rr.Code)
	}

	srv2 := newTestServer(&stubBooks{insight: &storage.Insight{ID: 1, Body: "Looking healthy."}})
	defer srv2.Shutdown(context.Background())
	rr := do(t, srv2, http.MethodGet, "/api/insights/latest", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Looking healthy.") {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestMasterDataEndpoints(t *testing.T) {
	srv := newTestServer(&stubBooks{})
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodPost, "/api/banks", `{"bankName":"Main","accountNumber":"42","balance":1000}`, nil)
	if rr.Code != http.StatusCreated {
		t.Errorf("create bank: status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodPost, "/api/banks", `{"bankName":" ","accountNumber":"42","balance":1000}`, nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("blank bank name: status = %d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/staff", `{"name":"Ravi","role":"Cashier","salary":30000}`, nil)
	if rr.Code != http.StatusCreated {
		t.Errorf("create staff: status = %d", rr.Code)
	}

	rr = do(t, srv, http.MethodDelete, "/api/inventory/i-1", "", nil)
	if rr.Code != http.StatusNoContent {
		t.Errorf("delete inventory: status = %d", rr.Code)
	}
}
