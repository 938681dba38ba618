package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"wingit/score/internal/metrics"
	"wingit/score/internal/repositories"
	"wingit/score/internal/submission"
	"wingit/score/internal/utils"
)

// RunHandler exposes the token-issue and run-submit endpoints.
type RunHandler struct {
	Coordinator *submission.Coordinator
	JWTSecret   string
}

type submitRequest struct {
	RunToken   string `json:"runToken"`
	Score      *int   `json:"score"`
	DurationMs *int64 `json:"durationMs"`
}

// IssueTokenHandler grants a single-use run token to the caller.
func (h *RunHandler) IssueTokenHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	issued, err := h.Coordinator.IssueToken(r.Context(), userID)
	if err != nil {
		if errors.Is(err, submission.ErrRateLimited) {
			utils.JSONError(w, http.StatusTooManyRequests, "rate_limited")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, "server_error")
		return
	}
	utils.JSON(w, http.StatusOK, issued)
}

// SubmitHandler runs a claimed score through the submission pipeline
// and maps the pipeline's error taxonomy onto HTTP statuses.
func (h *RunHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.RunToken == "" || req.Score == nil || req.DurationMs == nil {
		utils.JSONError(w, http.StatusBadRequest, "runToken, score and durationMs are required")
		return
	}

	result, err := h.Coordinator.Submit(r.Context(), userID, r.RemoteAddr, req.RunToken, *req.Score, *req.DurationMs)
	if err != nil {
		status, msg := submitErrorStatus(err)
		metrics.CountSubmission(msg)
		utils.JSONError(w, status, msg)
		return
	}
	metrics.CountSubmission("accepted")
	utils.JSON(w, http.StatusOK, result)
}

// submitErrorStatus keeps "re-issue a token and retry" distinguishable
// from "this run is rejected for good" on the client side.
func submitErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, submission.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, submission.ErrInvalidToken):
		return http.StatusNotFound, "invalid_token"
	case errors.Is(err, submission.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, repositories.ErrTokenUsed):
		return http.StatusConflict, "token_used"
	case errors.Is(err, submission.ErrTokenExpired):
		return http.StatusGone, "token_expired"
	case errors.Is(err, submission.ErrInvalidRun):
		return http.StatusUnprocessableEntity, "invalid_run"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

func (h *RunHandler) authenticate(w http.ResponseWriter, r *http.Request) (uint, bool) {
	claims, err := utils.VerifyToken(r, h.JWTSecret)
	if err != nil {
		utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	userID, err := utils.GetUserIDFromClaims(claims)
	if err != nil {
		utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	return userID, true
}
