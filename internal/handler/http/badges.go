package http

import (
	"BioLink-Backend/internal/auth"
	"BioLink-Backend/internal/badge"
	"BioLink-Backend/internal/domain"
	"BioLink-Backend/internal/repository"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// BadgesHandler serves the badge endpoints.
type BadgesHandler struct {
	engine *badge.Engine
	log    *zap.Logger
}

// NewBadgesHandler creates the badges handler.
func NewBadgesHandler(engine *badge.Engine, log *zap.Logger) *BadgesHandler {
	return &BadgesHandler{engine: engine, log: log}
}

// CheckBadgesRequest asks for a badge evaluation. ActivityData describes
// what triggered the check and is only logged.
type CheckBadgesRequest struct {
	UserID       string         `json:"userId,omitempty"`
	ActivityData map[string]any `json:"activityData,omitempty"`
}

// CheckBadgesResponse lists newly earned badges and the progress written.
type CheckBadgesResponse struct {
	Success         bool                   `json:"success"`
	NewBadges       []domain.Badge         `json:"newBadges"`
	UpdatedProgress []domain.BadgeProgress `json:"updatedProgress"`
	TotalBadges     int                    `json:"totalBadges"`
}

// ListBadgesResponse is the catalog with the caller's progress.
type ListBadgesResponse struct {
	Success bool                   `json:"success"`
	Badges  []domain.BadgeProgress `json:"badges"`
}

// Check evaluates the caller's badges.
//
//	@Summary		Check badges
//	@Description	Evaluates every automatic badge for the caller and awards those whose threshold is met
//	@Tags			Badges
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CheckBadgesRequest	false	"Activity that triggered the check"
//	@Success		200		{object}	CheckBadgesResponse
//	@Failure		401		{object}	ErrorResponse	"Authentication required"
//	@Failure		403		{object}	ErrorResponse	"userId does not match the caller"
//	@Failure		404		{object}	ErrorResponse	"Profile not found"
//	@Router			/api/badges/check [post]
func (h *BadgesHandler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.log, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.log, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req CheckBadgesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, h.log, "Invalid request format", http.StatusBadRequest)
		return
	}
	if req.UserID != "" && req.UserID != userID {
		writeError(w, h.log, "Cannot check badges of another user", http.StatusForbidden)
		return
	}

	h.log.Debug("badge check requested", zap.String("user_id", userID), zap.Any("activity", req.ActivityData))

	result, err := h.engine.Check(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			writeError(w, h.log, "Profile not found", http.StatusNotFound)
			return
		}
		h.log.Error("badge check failed", zap.String("user_id", userID), zap.Error(err))
		writeError(w, h.log, "Failed to check badges", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.log, CheckBadgesResponse{
		Success:         true,
		NewBadges:       result.NewlyAwarded,
		UpdatedProgress: result.Progress,
		TotalBadges:     result.TotalCompleted,
	}, http.StatusOK)
}

// List returns the badge catalog with the caller's progress.
//
//	@Summary		List badges
//	@Tags			Badges
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	ListBadgesResponse
//	@Failure		401	{object}	ErrorResponse	"Authentication required"
//	@Router			/api/badges [get]
func (h *BadgesHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.log, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.log, "Authentication required", http.StatusUnauthorized)
		return
	}

	progress, err := h.engine.Progress(r.Context(), userID)
	if err != nil {
		h.log.Error("failed to list badges", zap.String("user_id", userID), zap.Error(err))
		writeError(w, h.log, "Failed to list badges", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.log, ListBadgesResponse{Success: true, Badges: progress}, http.StatusOK)
}
