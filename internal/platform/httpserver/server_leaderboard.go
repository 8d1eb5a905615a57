package httpserver

import (
	"errors"
	"net/http"

	leaderboarddomainerrors "testquest/contexts/community-experience/leaderboard-service/domain/errors"
	leaderboardhttp "testquest/contexts/community-experience/leaderboard-service/transport/http"
)

func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	resp, err := s.leaderboard.Handler.GetLeaderboardHandler(r.Context())
	if err != nil {
		writeLeaderboardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	resp, err := s.leaderboard.Handler.GetProfileHandler(r.Context(), userID)
	if err != nil {
		writeLeaderboardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeLeaderboardDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, leaderboarddomainerrors.ErrProfileNotFound):
		writeLeaderboardError(w, http.StatusNotFound, "profile_not_found", err.Error())
	case errors.Is(err, leaderboarddomainerrors.ErrInvalidRating):
		writeLeaderboardError(w, http.StatusUnprocessableEntity, "invalid_rating", err.Error())
	default:
		writeLeaderboardError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLeaderboardError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, leaderboardhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
