package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"bizbook/internal/core"
	"bizbook/internal/ledger"
	"bizbook/internal/reports"
	"bizbook/internal/storage"
)

// Bookkeeper is the service port the handlers talk to.
type Bookkeeper interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	ListInvoices(ctx context.Context) ([]core.Invoice, error)
	CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error)
	UpdateInvoice(ctx context.Context, inv core.Invoice) error
	DeleteInvoice(ctx context.Context, id string) error

	Balances(ctx context.Context) (core.ChannelBalances, error)
	Summary(ctx context.Context) (core.FinancialSummary, error)
	RangeSummary(ctx context.Context, start, end core.Date) (core.FinancialSummary, error)
	Trend(ctx context.Context, window int) ([]ledger.TrendPoint, error)
	Report(ctx context.Context, start, end core.Date) (reports.Report, error)

	ListBanks(ctx context.Context) ([]core.Bank, error)
	CreateBank(ctx context.Context, b core.Bank) (core.Bank, error)
	DeleteBank(ctx context.Context, id string) error

	ListStaff(ctx context.Context) ([]core.Staff, error)
	CreateStaff(ctx context.Context, st core.Staff) (core.Staff, error)
	DeleteStaff(ctx context.Context, id string) error

	ListInventory(ctx context.Context) ([]core.InventoryItem, error)
	CreateInventory(ctx context.Context, it core.InventoryItem) (core.InventoryItem, error)
	DeleteInventory(ctx context.Context, id string) error

	LatestInsight(ctx context.Context) (storage.Insight, error)
}

// CashierHeader carries the acting user's name on mutating requests.
const CashierHeader = "X-Cashier"

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeServiceError maps service failures onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrReservedID):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed", "method", r.Method, "url", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// parseDateRange reads the required start and end query parameters.
func parseDateRange(w http.ResponseWriter, r *http.Request) (start, end core.Date, ok bool) {
	q := r.URL.Query()
	var err error
	if start, err = core.ParseDate(strings.TrimSpace(q.Get("start"))); err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date, want YYYY-MM-DD")
		return start, end, false
	}
	if end, err = core.ParseDate(strings.TrimSpace(q.Get("end"))); err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date, want YYYY-MM-DD")
		return start, end, false
	}
	return start, end, true
}

// parseWindow reads the optional window query parameter.
func parseWindow(r *http.Request, fallback int) int {
	v := strings.TrimSpace(r.URL.Query().Get("window"))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
