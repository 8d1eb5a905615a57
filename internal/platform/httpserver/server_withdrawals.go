package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	withdrawaldomainerrors "testquest/contexts/finance-core/withdrawal-service/domain/errors"
	withdrawalhttp "testquest/contexts/finance-core/withdrawal-service/transport/http"
)

func (s *Server) handleRequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	userID := resolveActorID(r)
	if userID == "" {
		writeWithdrawalError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req withdrawalhttp.RequestWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeWithdrawalError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.withdrawals.Handler.RequestHandler(r.Context(), userID, req)
	if err != nil {
		writeWithdrawalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListWithdrawals(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = resolveActorID(r)
	}
	if userID == "" {
		writeWithdrawalError(w, http.StatusBadRequest, "missing_user_id", "user_id query parameter is required")
		return
	}

	limit, offset, ok := parsePagination(r)
	if !ok {
		writeWithdrawalError(w, http.StatusBadRequest, "invalid_pagination", "limit and offset must be integers")
		return
	}

	resp, err := s.withdrawals.Handler.ListUserWithdrawalsHandler(r.Context(), userID, limit, offset)
	if err != nil {
		writeWithdrawalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetWithdrawal(w http.ResponseWriter, r *http.Request) {
	withdrawalID := r.PathValue("withdrawal_id")
	resp, err := s.withdrawals.Handler.GetWithdrawalHandler(r.Context(), withdrawalID)
	if err != nil {
		writeWithdrawalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWithdrawalAction(w http.ResponseWriter, r *http.Request) {
	withdrawalID := r.PathValue("withdrawal_id")
	actorID := resolveActorID(r)
	if actorID == "" {
		writeWithdrawalError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req withdrawalhttp.WithdrawalActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeWithdrawalError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.withdrawals.Handler.ActionHandler(r.Context(), withdrawalID, actorID, req)
	if err != nil {
		writeWithdrawalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeWithdrawalDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, withdrawaldomainerrors.ErrInvalidWithdrawal),
		errors.Is(err, withdrawaldomainerrors.ErrInvalidAmount):
		writeWithdrawalError(w, http.StatusUnprocessableEntity, "invalid_withdrawal", err.Error())
	case errors.Is(err, withdrawaldomainerrors.ErrInvalidAction):
		writeWithdrawalError(w, http.StatusBadRequest, "invalid_action", err.Error())
	case errors.Is(err, withdrawaldomainerrors.ErrMissingNotes):
		writeWithdrawalError(w, http.StatusBadRequest, "missing_notes", err.Error())
	case errors.Is(err, withdrawaldomainerrors.ErrWithdrawalNotFound):
		writeWithdrawalError(w, http.StatusNotFound, "withdrawal_not_found", err.Error())
	case errors.Is(err, withdrawaldomainerrors.ErrWithdrawalNotPending),
		errors.Is(err, withdrawaldomainerrors.ErrWithdrawalNotProcessing):
		writeWithdrawalError(w, http.StatusConflict, "invalid_state_transition", err.Error())
	case errors.Is(err, withdrawaldomainerrors.ErrInsufficientBalance):
		writeWithdrawalError(w, http.StatusConflict, "insufficient_balance", err.Error())
	case errors.Is(err, withdrawaldomainerrors.ErrPayoutFailed):
		writeWithdrawalError(w, http.StatusBadGateway, "payout_failed", err.Error())
	default:
		writeWithdrawalError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeWithdrawalError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, withdrawalhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
