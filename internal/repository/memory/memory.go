package memory

import (
	"BioLink-Backend/internal/domain"
	"BioLink-Backend/internal/repository"
	"context"
	"slices"
	"sort"
	"sync"
	"time"
)

type userBadgeKey struct {
	userID  string
	badgeID string
}

// MemStorage is an in-process Storage used by tests and the "memory" driver.
type MemStorage struct {
	mu         sync.RWMutex
	events     []domain.Event
	badges     map[string]domain.Badge
	userBadges map[userBadgeKey]domain.UserBadge
	profiles   map[string]domain.Profile
	links      []domain.Link
}

func New() *MemStorage {
	return &MemStorage{
		badges:     make(map[string]domain.Badge),
		userBadges: make(map[userBadgeKey]domain.UserBadge),
		profiles:   make(map[string]domain.Profile),
	}
}

// --- Seeding ---

func (s *MemStorage) SaveProfile(profile domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = profile
}

func (s *MemStorage) SaveLink(link domain.Link) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links = append(s.links, link)
}

func (s *MemStorage) SaveBadges(badges ...domain.Badge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range badges {
		s.badges[b.ID] = b
	}
}

func (s *MemStorage) Ping(_ context.Context) error {
	return nil
}

// --- Event Methods ---

func (s *MemStorage) CreateEventIfAbsent(_ context.Context, event *domain.Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.DedupDay != nil {
		day := time.Time(*event.DedupDay)
		for _, e := range s.events {
			if e.DedupDay == nil || e.ProfileID != event.ProfileID || e.IPAddress != event.IPAddress {
				continue
			}
			if time.Time(*e.DedupDay).Equal(day) {
				return false, nil
			}
		}
	}

	s.events = append(s.events, *event)
	return true, nil
}

func (s *MemStorage) ListEvents(_ context.Context, filter repository.EventFilter) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Event
	for _, e := range s.events {
		if matches(e, filter) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemStorage) CountEvents(_ context.Context, filter repository.EventFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, e := range s.events {
		if matches(e, filter) {
			n++
		}
	}
	return n, nil
}

func matches(e domain.Event, f repository.EventFilter) bool {
	if f.ProfileID != "" && e.ProfileID != f.ProfileID {
		return false
	}
	if !f.From.IsZero() && e.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.CreatedAt.Before(f.To) {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, e.EventType) {
		return false
	}
	return true
}

// --- Badge Methods ---

func (s *MemStorage) ListActiveBadges(_ context.Context) ([]domain.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Badge
	for _, b := range s.badges {
		if b.IsActive {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		if out[i].TargetValue != out[j].TargetValue {
			return out[i].TargetValue < out[j].TargetValue
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStorage) GetBadge(_ context.Context, badgeID string) (*domain.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.badges[badgeID]
	if !ok {
		return nil, repository.ErrBadgeNotFound
	}
	return &b, nil
}

func (s *MemStorage) ListUserBadges(_ context.Context, userID string) ([]domain.UserBadge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.UserBadge
	for k, ub := range s.userBadges {
		if k.userID != userID {
			continue
		}
		if b, ok := s.badges[k.badgeID]; ok {
			badge := b
			ub.Badge = &badge
		}
		out = append(out, ub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BadgeID < out[j].BadgeID })
	return out, nil
}

func (s *MemStorage) AwardBadge(_ context.Context, userID, badgeID string, progress int64, earnedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userBadgeKey{userID, badgeID}
	ub, exists := s.userBadges[key]
	if exists && ub.IsCompleted {
		return false, nil
	}

	at := earnedAt
	ub.UserID = userID
	ub.BadgeID = badgeID
	ub.Progress = max(ub.Progress, progress)
	ub.IsCompleted = true
	ub.EarnedAt = &at
	ub.UpdatedAt = earnedAt
	s.userBadges[key] = ub
	return true, nil
}

func (s *MemStorage) UpdateBadgeProgress(_ context.Context, userID, badgeID string, progress int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userBadgeKey{userID, badgeID}
	ub, exists := s.userBadges[key]
	if exists && ub.IsCompleted {
		return nil
	}

	ub.UserID = userID
	ub.BadgeID = badgeID
	ub.Progress = max(ub.Progress, progress)
	ub.UpdatedAt = time.Now()
	s.userBadges[key] = ub
	return nil
}

// --- Profile Methods ---

func (s *MemStorage) ResolveProfileID(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if p.UserID == userID {
			return p.ID, nil
		}
	}
	return "", repository.ErrProfileNotFound
}

func (s *MemStorage) GetProfile(_ context.Context, profileID string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[profileID]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	return &p, nil
}

func (s *MemStorage) CountLinks(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, l := range s.links {
		if l.UserID == userID && l.IsActive {
			n++
		}
	}
	return n, nil
}
