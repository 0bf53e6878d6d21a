package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"pixelwallet/internal/core"
	applog "pixelwallet/internal/log"
)

type addTransactionRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	CategoryID  int64   `json:"category_id"`
	Date        string  `json:"date"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		s.writeError(w, r, core.ErrUnauthorized)
		return
	}

	records, err := s.ledger.ListTransactions(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []core.TransactionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		s.writeError(w, r, core.ErrUnauthorized)
		return
	}

	var req addTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: malformed request body", core.ErrInvalidInput))
		return
	}

	id, err := s.ledger.AddTransaction(r.Context(), claims.UserID, core.Transaction{
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	fields := applog.NewFields().
		WithUser(claims.UserID, claims.Username).
		WithTransaction(id, req.CategoryID, req.Amount, req.Date)
	s.logger.InfoContext(r.Context(), "Transaction added", fields.ToSlice()...)
	writeMessage(w, http.StatusCreated, "Transaction added successfully")
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		s.writeError(w, r, core.ErrUnauthorized)
		return
	}

	// A non-numeric id can never match a row, so it reads as not found.
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("delete transaction: %w", core.ErrNotFound))
		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), claims.UserID, id); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Transaction deleted",
		applog.FieldUserID, claims.UserID,
		applog.FieldTransactionID, id)
	writeMessage(w, http.StatusOK, "Transaction deleted")
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.ledger.Categories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		s.writeError(w, r, core.ErrUnauthorized)
		return
	}

	summary, err := s.ledger.Summary(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		s.writeError(w, r, core.ErrUnauthorized)
		return
	}

	analytics, err := s.ledger.Analytics(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if analytics.ByCategory == nil {
		analytics.ByCategory = []core.CategoryTotal{}
	}
	if analytics.ByMonth == nil {
		analytics.ByMonth = []core.MonthTotals{}
	}
	writeJSON(w, http.StatusOK, analytics)
}
