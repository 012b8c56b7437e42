package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"bizbook/internal/export"
	"bizbook/internal/storage"

	"log/slog"
)

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.books.Balances(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.books.Summary(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	window := parseWindow(r, s.trendWindow)
	points, err := s.books.Trend(r.Context(), window)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseDateRange(w, r)
	if !ok {
		return
	}
	rep, err := s.books.Report(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleExportReport streams the report workbook as an attachment.
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseDateRange(w, r)
	if !ok {
		return
	}
	rep, err := s.books.Report(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	summary, err := s.books.RangeSummary(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"report_%s.xlsx\"",
		time.Now().Format("20060102")))
	if err := export.WriteReport(w, rep, summary); err != nil {
		// Headers are already out; log and drop the connection.
		slog.ErrorContext(r.Context(), "Report export failed", "error", err)
	}
}

func (s *Server) handleLatestInsight(w http.ResponseWriter, r *http.Request) {
	insight, err := s.books.LatestInsight(r.Context())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no insight generated yet")
			return
		}
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insight)
}
