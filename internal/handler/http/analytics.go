package http

import (
	"BioLink-Backend/internal/analytics"
	"BioLink-Backend/internal/auth"
	"BioLink-Backend/internal/domain"
	"BioLink-Backend/internal/repository"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// AnalyticsHandler serves event tracking and the analytics reports.
type AnalyticsHandler struct {
	gateway      *analytics.Gateway
	aggregator   *analytics.Aggregator
	profiles     repository.ProfileStore
	validate     *validator.Validate
	maxBatchSize int
	defaultRange string
	log          *zap.Logger
}

// NewAnalyticsHandler creates the analytics handler.
func NewAnalyticsHandler(
	gateway *analytics.Gateway,
	aggregator *analytics.Aggregator,
	profiles repository.ProfileStore,
	validate *validator.Validate,
	maxBatchSize int,
	defaultRange string,
	log *zap.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		gateway:      gateway,
		aggregator:   aggregator,
		profiles:     profiles,
		validate:     validate,
		maxBatchSize: maxBatchSize,
		defaultRange: defaultRange,
		log:          log,
	}
}

// TrackEvent is one event in a tracking request.
type TrackEvent struct {
	EventType string `json:"eventType" validate:"max=20"`
	ProfileID string `json:"profileId" validate:"max=64"`
	LinkID    string `json:"linkId,omitempty" validate:"max=64"`
	SessionID string `json:"sessionId,omitempty" validate:"max=100"`
	Country   string `json:"country,omitempty" validate:"max=64"`
	City      string `json:"city,omitempty" validate:"max=100"`
	Region    string `json:"region,omitempty" validate:"max=100"`
	Timezone  string `json:"timezone,omitempty" validate:"max=64"`
}

// TrackRequest tracks one event, or every entry of BatchEvents when present.
type TrackRequest struct {
	EventType   string       `json:"eventType" validate:"max=20"`
	ProfileID   string       `json:"profileId" validate:"required_without=BatchEvents,max=64"`
	LinkID      string       `json:"linkId,omitempty" validate:"max=64"`
	SessionID   string       `json:"sessionId,omitempty" validate:"max=100"`
	Country     string       `json:"country,omitempty" validate:"max=64"`
	City        string       `json:"city,omitempty" validate:"max=100"`
	Region      string       `json:"region,omitempty" validate:"max=100"`
	Timezone    string       `json:"timezone,omitempty" validate:"max=64"`
	BatchEvents []TrackEvent `json:"batchEvents,omitempty" validate:"omitempty,dive"`
}

func (req TrackRequest) event() TrackEvent {
	return TrackEvent{
		EventType: req.EventType,
		ProfileID: req.ProfileID,
		LinkID:    req.LinkID,
		SessionID: req.SessionID,
		Country:   req.Country,
		City:      req.City,
		Region:    req.Region,
		Timezone:  req.Timezone,
	}
}

// TrackResponse is the result of a tracking request.
type TrackResponse struct {
	Success       bool                        `json:"success"`
	EventsTracked int                         `json:"eventsTracked"`
	Skipped       int                         `json:"skipped"`
	Failed        int                         `json:"failed"`
	Analytics     []domain.Event              `json:"analytics"`
	BadgeUpdates  domain.BadgeUpdates         `json:"badgeUpdates"`
	Items         []analytics.BatchItemResult `json:"items,omitempty"`
	Warnings      []string                    `json:"warnings,omitempty"`
}

// Track records a single event or a batch.
//
//	@Summary		Track analytics events
//	@Description	Records a view, click or share. Repeated views from one IP on the same UTC day are skipped.
//	@Tags			Analytics
//	@Accept			json
//	@Produce		json
//	@Param			request	body		TrackRequest	true	"Event or batch"
//	@Success		200		{object}	TrackResponse
//	@Failure		400		{object}	ErrorResponse	"Invalid request"
//	@Failure		404		{object}	ErrorResponse	"Profile not found"
//	@Failure		500		{object}	ErrorResponse	"Storage failure"
//	@Router			/api/analytics/track [post]
func (h *AnalyticsHandler) Track(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.log, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid track request", zap.Error(err))
		writeError(w, h.log, "Invalid request format", http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.log.Debug("track request failed validation", zap.Error(err))
		writeError(w, h.log, validationMessage(err), http.StatusBadRequest)
		return
	}

	if len(req.BatchEvents) > 0 {
		h.trackBatch(w, r, req.BatchEvents)
		return
	}

	res, err := h.gateway.Ingest(r.Context(), h.rawEvent(r, req.event()))
	if err != nil {
		switch {
		case errors.Is(err, analytics.ErrMissingProfileID):
			writeError(w, h.log, "profileId is required", http.StatusBadRequest)
		case errors.Is(err, repository.ErrProfileNotFound):
			writeError(w, h.log, "Profile not found", http.StatusNotFound)
		default:
			h.log.Error("failed to track event", zap.String("profile_id", req.ProfileID), zap.Error(err))
			writeError(w, h.log, "Failed to track event", http.StatusInternalServerError)
		}
		return
	}

	resp := TrackResponse{
		Success:      true,
		Analytics:    []domain.Event{},
		BadgeUpdates: res.BadgeUpdates,
		Warnings:     res.Warnings,
	}
	if res.Status == domain.IngestInserted {
		resp.EventsTracked = 1
		resp.Analytics = append(resp.Analytics, *res.Event)
	} else {
		resp.Skipped = 1
	}
	if resp.BadgeUpdates.NewBadges == nil {
		resp.BadgeUpdates.NewBadges = []domain.Badge{}
	}

	writeJSON(w, h.log, resp, http.StatusOK)
}

func (h *AnalyticsHandler) trackBatch(w http.ResponseWriter, r *http.Request, events []TrackEvent) {
	if h.maxBatchSize > 0 && len(events) > h.maxBatchSize {
		writeError(w, h.log, fmt.Sprintf("batch exceeds %d events", h.maxBatchSize), http.StatusBadRequest)
		return
	}

	raws := make([]analytics.RawEvent, len(events))
	for i, e := range events {
		raws[i] = h.rawEvent(r, e)
	}

	res := h.gateway.IngestBatch(r.Context(), raws)
	resp := TrackResponse{
		Success:       res.Failed < len(events),
		EventsTracked: res.Tracked,
		Skipped:       res.Skipped,
		Failed:        res.Failed,
		Analytics:     res.Events,
		BadgeUpdates:  res.BadgeUpdates,
		Items:         res.Items,
	}
	if resp.BadgeUpdates.NewBadges == nil {
		resp.BadgeUpdates.NewBadges = []domain.Badge{}
	}

	writeJSON(w, h.log, resp, http.StatusOK)
}

func (h *AnalyticsHandler) rawEvent(r *http.Request, e TrackEvent) analytics.RawEvent {
	country, city := e.Country, e.City
	if country == "" || city == "" {
		cdnCountry, cdnCity := cdnLocation(r)
		if country == "" {
			country = cdnCountry
		}
		if city == "" {
			city = cdnCity
		}
	}

	return analytics.RawEvent{
		EventType: e.EventType,
		ProfileID: e.ProfileID,
		LinkID:    e.LinkID,
		SessionID: e.SessionID,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
		Country:   country,
		City:      city,
		Region:    e.Region,
		Timezone:  e.Timezone,
	}
}

// Overview returns the dashboard report for the caller's profile.
//
//	@Summary		Analytics overview
//	@Description	Windowed view, click and share statistics for the caller's profile
//	@Tags			Analytics
//	@Produce		json
//	@Security		BearerAuth
//	@Param			timeRange	query		string	false	"24h, 7d, 30d or 90d"	default(7d)
//	@Success		200			{object}	domain.OverviewStats
//	@Failure		401			{object}	ErrorResponse	"Authentication required"
//	@Failure		404			{object}	ErrorResponse	"Profile not found"
//	@Router			/api/analytics/overview [get]
func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.callerProfile(w, r)
	if !ok {
		return
	}

	timeRange := r.URL.Query().Get("timeRange")
	if timeRange == "" {
		timeRange = h.defaultRange
	}

	writeJSON(w, h.log, h.aggregator.Overview(r.Context(), profileID, timeRange), http.StatusOK)
}

// Realtime returns activity from the last few minutes.
//
//	@Summary		Realtime activity
//	@Tags			Analytics
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	domain.RealtimeStats
//	@Failure		401	{object}	ErrorResponse	"Authentication required"
//	@Failure		404	{object}	ErrorResponse	"Profile not found"
//	@Router			/api/analytics/realtime [get]
func (h *AnalyticsHandler) Realtime(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.callerProfile(w, r)
	if !ok {
		return
	}

	writeJSON(w, h.log, h.aggregator.Realtime(r.Context(), profileID), http.StatusOK)
}

// callerProfile resolves the authenticated user's profile and writes the
// error response when it cannot.
func (h *AnalyticsHandler) callerProfile(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodGet {
		writeError(w, h.log, "Method not allowed", http.StatusMethodNotAllowed)
		return "", false
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.log, "Authentication required", http.StatusUnauthorized)
		return "", false
	}

	profileID, err := h.profiles.ResolveProfileID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			writeError(w, h.log, "Profile not found", http.StatusNotFound)
			return "", false
		}
		h.log.Error("failed to resolve profile", zap.String("user_id", userID), zap.Error(err))
		writeError(w, h.log, "Internal server error", http.StatusInternalServerError)
		return "", false
	}
	return profileID, true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
