package analytics

import (
	"BioLink-Backend/internal/domain"
	"BioLink-Backend/internal/repository"
	"BioLink-Backend/pkg/useragent"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ErrMissingProfileID is returned when an event names no profile.
var ErrMissingProfileID = errors.New("profile id is required")

// RawEvent is one tracking request before normalization.
type RawEvent struct {
	EventType string
	ProfileID string
	LinkID    string
	SessionID string

	IPAddress string
	UserAgent string
	Referrer  string

	Country  string
	City     string
	Region   string
	Timezone string
}

// IngestResult is the outcome of ingesting one event.
type IngestResult struct {
	Status       domain.IngestStatus
	Event        *domain.Event
	Warnings     []string
	BadgeUpdates domain.BadgeUpdates
}

// BatchItemResult reports one item of a batch.
type BatchItemResult struct {
	Index  int                 `json:"index"`
	Status domain.IngestStatus `json:"status,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// BatchResult aggregates a batch. Tracked counts inserted events only.
type BatchResult struct {
	Tracked      int
	Skipped      int
	Failed       int
	Items        []BatchItemResult
	Events       []domain.Event
	BadgeUpdates domain.BadgeUpdates
}

// BadgeEvaluator runs the badge rules for a user after new activity.
type BadgeEvaluator interface {
	Evaluate(ctx context.Context, userID, profileID string) (*domain.EvaluationResult, error)
}

// RetryQueue accepts badge evaluations to run again later.
type RetryQueue interface {
	Submit(job BadgeJob) error
}

// Gateway validates, deduplicates, normalizes and persists events.
type Gateway struct {
	events   repository.EventStore
	profiles repository.ProfileStore
	badges   BadgeEvaluator
	retry    RetryQueue
	parser   *useragent.Parser
	log      *zap.Logger
	now      func() time.Time
}

// NewGateway creates an ingestion gateway. badges and parser may be nil.
func NewGateway(events repository.EventStore, profiles repository.ProfileStore, badges BadgeEvaluator, parser *useragent.Parser, log *zap.Logger) *Gateway {
	return &Gateway{
		events:   events,
		profiles: profiles,
		badges:   badges,
		parser:   parser,
		log:      log.With(zap.String("component", "ingestion_gateway")),
		now:      time.Now,
	}
}

// WithRetry hands failed badge evaluations to q.
func (g *Gateway) WithRetry(q RetryQueue) *Gateway {
	g.retry = q
	return g
}

// WithClock replaces the time source. Used by tests.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// Ingest persists one event and, when a new row was written, runs badge
// evaluation for the profile owner. Badge failures never fail ingestion.
func (g *Gateway) Ingest(ctx context.Context, raw RawEvent) (*IngestResult, error) {
	res, profile, err := g.ingest(ctx, raw)
	if err != nil {
		return nil, err
	}
	if res.Status == domain.IngestInserted {
		res.BadgeUpdates = g.evaluateBadges(ctx, profile)
	}
	return res, nil
}

// IngestBatch processes events strictly in order so that deduplication sees
// earlier items of the same batch. A failing item does not stop the batch.
// Badge evaluation runs once per affected profile after the last item.
func (g *Gateway) IngestBatch(ctx context.Context, raws []RawEvent) *BatchResult {
	out := &BatchResult{
		Items:  make([]BatchItemResult, 0, len(raws)),
		Events: make([]domain.Event, 0, len(raws)),
	}

	var touched []*domain.Profile
	seen := make(map[string]bool)

	for i, raw := range raws {
		res, profile, err := g.ingest(ctx, raw)
		if err != nil {
			out.Failed++
			out.Items = append(out.Items, BatchItemResult{Index: i, Error: err.Error()})
			g.log.Warn("batch item failed",
				zap.Int("index", i),
				zap.String("profile_id", raw.ProfileID),
				zap.Error(err))
			continue
		}

		out.Items = append(out.Items, BatchItemResult{Index: i, Status: res.Status})
		if res.Status == domain.IngestSkipped {
			out.Skipped++
			continue
		}

		out.Tracked++
		out.Events = append(out.Events, *res.Event)
		if !seen[profile.ID] {
			seen[profile.ID] = true
			touched = append(touched, profile)
		}
	}

	for _, profile := range touched {
		upd := g.evaluateBadges(ctx, profile)
		out.BadgeUpdates.NewBadges = append(out.BadgeUpdates.NewBadges, upd.NewBadges...)
		out.BadgeUpdates.TotalBadges = max(out.BadgeUpdates.TotalBadges, upd.TotalBadges)
	}

	g.log.Info("batch ingested",
		zap.Int("items", len(raws)),
		zap.Int("tracked", out.Tracked),
		zap.Int("skipped", out.Skipped),
		zap.Int("failed", out.Failed))

	return out
}

func (g *Gateway) ingest(ctx context.Context, raw RawEvent) (*IngestResult, *domain.Profile, error) {
	profileID := strings.TrimSpace(raw.ProfileID)
	if profileID == "" {
		return nil, nil, ErrMissingProfileID
	}

	profile, err := g.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load profile %s: %w", profileID, err)
	}

	res := &IngestResult{}

	eventType, ok := NormalizeEventType(raw.EventType)
	if !ok {
		warning := fmt.Sprintf("unrecognized event type %q recorded as %q", raw.EventType, eventType)
		res.Warnings = append(res.Warnings, warning)
		g.log.Warn("coerced unrecognized event type",
			zap.String("event_type", raw.EventType),
			zap.String("profile_id", profileID))
	}

	event := g.buildEvent(raw, profileID, eventType)

	inserted, err := g.events.CreateEventIfAbsent(ctx, event)
	if err != nil {
		g.log.Error("failed to persist event",
			zap.String("profile_id", profileID),
			zap.String("event_type", string(eventType)),
			zap.Error(err))
		return nil, nil, fmt.Errorf("failed to persist event: %w", err)
	}

	if !inserted {
		g.log.Debug("duplicate view skipped",
			zap.String("profile_id", profileID),
			zap.String("ip", event.IPAddress))
		res.Status = domain.IngestSkipped
		return res, profile, nil
	}

	res.Status = domain.IngestInserted
	res.Event = event
	return res, profile, nil
}

func (g *Gateway) buildEvent(raw RawEvent, profileID string, eventType domain.EventType) *domain.Event {
	now := g.now().UTC()
	device := g.parser.ParseUserAgent(raw.UserAgent)
	ip := strings.TrimSpace(raw.IPAddress)
	if len(ip) > domain.MaxIPAddressLen {
		ip = ""
	}

	event := &domain.Event{
		ID:           uuid.NewString(),
		ProfileID:    profileID,
		LinkID:       optionalString(strings.TrimSpace(raw.LinkID)),
		EventType:    eventType,
		IPAddress:    ip,
		Referrer:     raw.Referrer,
		UserAgent:    raw.UserAgent,
		Country:      optionalString(clip(strings.TrimSpace(raw.Country), domain.MaxCountryLen)),
		City:         optionalString(clip(strings.TrimSpace(raw.City), domain.MaxCityLen)),
		DeviceType:   device.DeviceType,
		SessionID:    clip(strings.TrimSpace(raw.SessionID), domain.MaxSessionIDLen),
		CreatedAt:    now,
		DeviceInfo:   device,
		LocationInfo: buildLocation(raw),
		ReferrerInfo: ParseReferrer(raw.Referrer),
	}

	if eventType == domain.EventTypeView && ip != "" {
		start, _ := DedupWindow(now)
		day := datatypes.Date(start)
		event.DedupDay = &day
	}

	return event
}

// clip shortens s to at most n characters.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// evaluateBadges is best effort: errors are logged and yield empty updates.
func (g *Gateway) evaluateBadges(ctx context.Context, profile *domain.Profile) domain.BadgeUpdates {
	empty := domain.BadgeUpdates{NewBadges: []domain.Badge{}}
	if g.badges == nil || profile == nil {
		return empty
	}

	result, err := g.badges.Evaluate(ctx, profile.UserID, profile.ID)
	if err != nil {
		g.log.Error("badge evaluation failed",
			zap.String("user_id", profile.UserID),
			zap.String("profile_id", profile.ID),
			zap.Error(err))
		if g.retry != nil {
			if err := g.retry.Submit(BadgeJob{UserID: profile.UserID, ProfileID: profile.ID}); err != nil {
				g.log.Warn("badge evaluation not queued for retry", zap.String("user_id", profile.UserID), zap.Error(err))
			}
		}
		return empty
	}

	upd := domain.BadgeUpdates{NewBadges: result.NewlyAwarded, TotalBadges: result.TotalCompleted}
	if upd.NewBadges == nil {
		upd.NewBadges = []domain.Badge{}
	}
	return upd
}

// DedupWindow returns the UTC calendar day [start, start+24h) containing t.
func DedupWindow(t time.Time) (time.Time, time.Time) {
	start := StartOfDay(t)
	return start, start.Add(24 * time.Hour)
}

// StartOfDay truncates t to UTC midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
