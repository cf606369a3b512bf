package repository

import (
	"BioLink-Backend/internal/domain"
	"context"
	"errors"
	"time"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrBadgeNotFound   = errors.New("badge not found")
)

// EventFilter selects events of one profile. Zero From/To leave that bound
// open; an empty Types matches every event type. From is inclusive, To exclusive.
type EventFilter struct {
	ProfileID string
	From      time.Time
	To        time.Time
	Types     []domain.EventType
}

// EventStore persists canonical Event rows.
type EventStore interface {
	// CreateEventIfAbsent inserts the event unless it carries a DedupDay and
	// a row with the same (profile, ip, dedup day) already exists. The check
	// and insert are one atomic operation. It reports whether a row was written.
	CreateEventIfAbsent(ctx context.Context, event *domain.Event) (bool, error)
	// ListEvents returns matching events ordered by created_at ascending.
	ListEvents(ctx context.Context, filter EventFilter) ([]domain.Event, error)
	CountEvents(ctx context.Context, filter EventFilter) (int64, error)
}

// BadgeStore reads the badge catalog and writes UserBadge progress.
type BadgeStore interface {
	ListActiveBadges(ctx context.Context) ([]domain.Badge, error)
	GetBadge(ctx context.Context, badgeID string) (*domain.Badge, error)
	ListUserBadges(ctx context.Context, userID string) ([]domain.UserBadge, error)

	// AwardBadge marks (user, badge) completed with the given progress in a
	// single conditional write. It returns false when the row was already
	// completed, in which case nothing changes.
	AwardBadge(ctx context.Context, userID, badgeID string, progress int64, earnedAt time.Time) (bool, error)

	// UpdateBadgeProgress records progress for an incomplete badge. Completed
	// rows are left untouched and stored progress never decreases.
	UpdateBadgeProgress(ctx context.Context, userID, badgeID string, progress int64) error
}

// ProfileStore is the collaborator that owns profiles and links.
type ProfileStore interface {
	ResolveProfileID(ctx context.Context, userID string) (string, error)
	GetProfile(ctx context.Context, profileID string) (*domain.Profile, error)
	CountLinks(ctx context.Context, userID string) (int64, error)
}

// Storage is the full backing store used by the service.
type Storage interface {
	EventStore
	BadgeStore
	ProfileStore
	Ping(ctx context.Context) error
}
