package http

import (
	"net/http"
)

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.books.ListInvoices(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	inv := req.toDomain()
	if inv.CashierName == "" {
		inv.CashierName = sanitizeInput(r.Header.Get(CashierHeader))
	}
	if err := inv.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.books.CreateInvoice(r.Context(), inv)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	inv := req.toDomain()
	inv.ID = r.PathValue("id")
	if inv.CashierName == "" {
		inv.CashierName = sanitizeInput(r.Header.Get(CashierHeader))
	}
	if err := inv.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.books.UpdateInvoice(r.Context(), inv); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := s.books.DeleteInvoice(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
