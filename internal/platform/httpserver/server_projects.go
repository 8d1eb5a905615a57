package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	pooldomainerrors "testquest/contexts/finance-core/bounty-pool/domain/errors"
	poolhttp "testquest/contexts/finance-core/bounty-pool/transport/http"
)

func (s *Server) handleFundProject(w http.ResponseWriter, r *http.Request) {
	ownerID := resolveActorID(r)
	if ownerID == "" {
		writePoolError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req poolhttp.FundProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePoolError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.pool.Handler.FundProjectHandler(r.Context(), ownerID, req)
	if err != nil {
		writePoolDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := parsePagination(r)
	if !ok {
		writePoolError(w, http.StatusBadRequest, "invalid_pagination", "limit and offset must be integers")
		return
	}

	resp, err := s.pool.Handler.ListProjectsHandler(r.Context(), limit, offset)
	if err != nil {
		writePoolDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project_id")
	resp, err := s.pool.Handler.GetProjectHandler(r.Context(), projectID)
	if err != nil {
		writePoolDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writePoolDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pooldomainerrors.ErrInvalidFunding):
		writePoolError(w, http.StatusUnprocessableEntity, "invalid_funding", err.Error())
	case errors.Is(err, pooldomainerrors.ErrInvalidAmount):
		writePoolError(w, http.StatusUnprocessableEntity, "invalid_amount", err.Error())
	case errors.Is(err, pooldomainerrors.ErrProjectNotFound):
		writePoolError(w, http.StatusNotFound, "project_not_found", err.Error())
	case errors.Is(err, pooldomainerrors.ErrInsufficientBounty):
		writePoolError(w, http.StatusConflict, "insufficient_bounty", err.Error())
	case errors.Is(err, pooldomainerrors.ErrConcurrencyConflict):
		writePoolError(w, http.StatusConflict, "update_conflict", err.Error())
	default:
		writePoolError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePoolError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, poolhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
