package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	reportdomainerrors "testquest/contexts/triage-review/bug-report-service/domain/errors"
	reporthttp "testquest/contexts/triage-review/bug-report-service/transport/http"
)

func (s *Server) handleSubmitBugReport(w http.ResponseWriter, r *http.Request) {
	submitterID := resolveActorID(r)
	if submitterID == "" {
		writeReportError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req reporthttp.SubmitBugReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReportError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.reports.Handler.SubmitHandler(r.Context(), submitterID, req)
	if err != nil {
		writeReportDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListBugReports(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		writeReportError(w, http.StatusBadRequest, "missing_project_id", "project_id query parameter is required")
		return
	}

	resp, err := s.reports.Handler.ListProjectReportsHandler(r.Context(), projectID)
	if err != nil {
		writeReportDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBugReport(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("report_id")
	resp, err := s.reports.Handler.GetReportHandler(r.Context(), reportID)
	if err != nil {
		writeReportDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBugReportAction(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("report_id")
	actorID := resolveActorID(r)
	if actorID == "" {
		writeReportError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req reporthttp.BugReportActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReportError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.reports.Handler.ActionHandler(r.Context(), reportID, actorID, req)
	if err != nil {
		writeReportDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteBugReport(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("report_id")

	var req reporthttp.DeleteBugReportRequest
	if r.Body != nil {
		// Reason may also arrive as a query parameter on bodyless deletes.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Reason == "" {
		req.Reason = r.URL.Query().Get("reason")
	}

	if err := s.reports.Handler.DeleteHandler(r.Context(), reportID, req.Reason); err != nil {
		writeReportDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeReportDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reportdomainerrors.ErrInvalidReport),
		errors.Is(err, reportdomainerrors.ErrInvalidSeverity),
		errors.Is(err, reportdomainerrors.ErrInvalidAmount),
		errors.Is(err, reportdomainerrors.ErrInvalidRating):
		writeReportError(w, http.StatusUnprocessableEntity, "invalid_report", err.Error())
	case errors.Is(err, reportdomainerrors.ErrInvalidAction):
		writeReportError(w, http.StatusBadRequest, "invalid_action", err.Error())
	case errors.Is(err, reportdomainerrors.ErrMissingReason):
		writeReportError(w, http.StatusBadRequest, "missing_reason", err.Error())
	case errors.Is(err, reportdomainerrors.ErrReportNotFound):
		writeReportError(w, http.StatusNotFound, "report_not_found", err.Error())
	case errors.Is(err, reportdomainerrors.ErrProjectNotFound):
		writeReportError(w, http.StatusNotFound, "project_not_found", err.Error())
	case errors.Is(err, reportdomainerrors.ErrProjectNotOpen):
		writeReportError(w, http.StatusConflict, "project_not_open", err.Error())
	case errors.Is(err, reportdomainerrors.ErrReportNotPending),
		errors.Is(err, reportdomainerrors.ErrReportNotApproved),
		errors.Is(err, reportdomainerrors.ErrReportNotResolved),
		errors.Is(err, reportdomainerrors.ErrRewardNotAdjustable):
		writeReportError(w, http.StatusConflict, "invalid_state_transition", err.Error())
	case errors.Is(err, reportdomainerrors.ErrInsufficientBounty):
		writeReportError(w, http.StatusConflict, "insufficient_bounty", err.Error())
	case errors.Is(err, reportdomainerrors.ErrInsufficientBalance):
		writeReportError(w, http.StatusConflict, "insufficient_balance", err.Error())
	default:
		writeReportError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeReportError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, reporthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
