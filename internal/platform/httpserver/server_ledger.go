package httpserver

import (
	"errors"
	"net/http"

	ledgerdomainerrors "testquest/contexts/finance-core/reward-ledger/domain/errors"
	ledgerhttp "testquest/contexts/finance-core/reward-ledger/transport/http"
)

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	resp, err := s.ledger.Handler.GetAccountHandler(r.Context(), userID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListUserTransactions(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	limit, offset, ok := parsePagination(r)
	if !ok {
		writeLedgerError(w, http.StatusBadRequest, "invalid_pagination", "limit and offset must be integers")
		return
	}

	resp, err := s.ledger.Handler.ListUserTransactionsHandler(r.Context(), userID, limit, offset)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProjectTransactions(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project_id")
	limit, offset, ok := parsePagination(r)
	if !ok {
		writeLedgerError(w, http.StatusBadRequest, "invalid_pagination", "limit and offset must be integers")
		return
	}

	resp, err := s.ledger.Handler.ListProjectTransactionsHandler(r.Context(), projectID, limit, offset)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgerdomainerrors.ErrInvalidEntry):
		writeLedgerError(w, http.StatusUnprocessableEntity, "invalid_entry", err.Error())
	case errors.Is(err, ledgerdomainerrors.ErrAccountNotFound):
		writeLedgerError(w, http.StatusNotFound, "account_not_found", err.Error())
	case errors.Is(err, ledgerdomainerrors.ErrInsufficientBalance):
		writeLedgerError(w, http.StatusConflict, "insufficient_balance", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
