package http

import (
	"net/http"
	"strings"
)

func (s *Server) handleListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := s.books.ListBanks(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, banks)
}

func (s *Server) handleCreateBank(w http.ResponseWriter, r *http.Request) {
	var req bankRequest
	if !decodeBody(w, r, &req) {
		return
	}
	b := req.toDomain()
	if err := b.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	created, err := s.books.CreateBank(r.Context(), b)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteBank(w http.ResponseWriter, r *http.Request) {
	if err := s.books.DeleteBank(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := s.books.ListStaff(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, staff)
}

func (s *Server) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	var req staffRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st := req.toDomain()
	if strings.TrimSpace(st.Name) == "" {
		writeError(w, http.StatusUnprocessableEntity, "empty name")
		return
	}
	created, err := s.books.CreateStaff(r.Context(), st)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteStaff(w http.ResponseWriter, r *http.Request) {
	if err := s.books.DeleteStaff(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := s.books.ListInventory(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateInventory(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	it := req.toDomain()
	if strings.TrimSpace(it.Name) == "" {
		writeError(w, http.StatusUnprocessableEntity, "empty name")
		return
	}
	created, err := s.books.CreateInventory(r.Context(), it)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteInventory(w http.ResponseWriter, r *http.Request) {
	if err := s.books.DeleteInventory(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
