package http

import (
	"net/http"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.books.ListTransactions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var t transactionRequest
	if !decodeBody(w, r, &t) {
		return
	}

	txn := t.toDomain()
	if txn.CashierName == "" {
		txn.CashierName = sanitizeInput(r.Header.Get(CashierHeader))
	}
	if err := txn.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.books.CreateTransaction(r.Context(), txn)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var t transactionRequest
	if !decodeBody(w, r, &t) {
		return
	}

	txn := t.toDomain()
	txn.ID = r.PathValue("id")
	if txn.CashierName == "" {
		txn.CashierName = sanitizeInput(r.Header.Get(CashierHeader))
	}
	if err := txn.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.books.UpdateTransaction(r.Context(), txn); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.books.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
