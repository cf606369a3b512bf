// Package badge evaluates achievement rules against a user's statistics and
// records progress and awards.
package badge

import (
	"BioLink-Backend/internal/domain"
	"BioLink-Backend/internal/repository"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Engine is the badge rule engine.
type Engine struct {
	badges   repository.BadgeStore
	profiles repository.ProfileStore
	stats    StatsSource
	log      *zap.Logger
	now      func() time.Time
}

// NewEngine creates a rule engine. stats is usually the analytics aggregator.
func NewEngine(badges repository.BadgeStore, profiles repository.ProfileStore, stats StatsSource, log *zap.Logger) *Engine {
	return &Engine{
		badges:   badges,
		profiles: profiles,
		stats:    stats,
		log:      log.With(zap.String("component", "badge_engine")),
		now:      time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Snapshot computes the requested criteria for one user. A failing source is
// logged and its criteria left out.
func (e *Engine) Snapshot(ctx context.Context, userID, profileID string, criteria []domain.CriteriaType) Snapshot {
	in := &snapshotInput{userID: userID, profileID: profileID, stats: e.stats, links: e.profiles}
	snap := make(Snapshot, len(criteria))
	for _, ct := range criteria {
		if _, done := snap[ct]; done {
			continue
		}
		extract, ok := extractors[ct]
		if !ok {
			continue
		}
		v, err := extract(ctx, in)
		if err != nil {
			e.log.Warn("criteria source failed",
				zap.String("user_id", userID),
				zap.String("criteria", string(ct)),
				zap.Error(err))
			continue
		}
		snap[ct] = v
	}
	return snap
}

type candidate struct {
	badge    domain.Badge
	criteria domain.CriteriaType
}

// Evaluate checks every active automatic badge the user has not completed.
// Badges whose threshold is met are awarded at most once, even under
// concurrent evaluation; the rest get their progress recorded.
// TotalCompleted counts completed badges of the active catalog only.
func (e *Engine) Evaluate(ctx context.Context, userID, profileID string) (*domain.EvaluationResult, error) {
	catalog, err := e.badges.ListActiveBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load badge catalog: %w", err)
	}
	owned, err := e.badges.ListUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user badges: %w", err)
	}

	completed := make(map[string]bool, len(owned))
	for _, ub := range owned {
		if ub.IsCompleted {
			completed[ub.BadgeID] = true
		}
	}

	var candidates []candidate
	var needed []domain.CriteriaType
	for _, b := range catalog {
		if completed[b.ID] {
			continue
		}
		ct, ok := resolveCriteria(b)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{badge: b, criteria: ct})
		needed = append(needed, ct)
	}

	result := &domain.EvaluationResult{
		NewlyAwarded: []domain.Badge{},
		Progress:     []domain.BadgeProgress{},
	}
	if len(candidates) == 0 {
		result.TotalCompleted = countActive(catalog, completed)
		return result, nil
	}

	snap := e.Snapshot(ctx, userID, profileID, needed)
	now := e.now().UTC()

	for _, c := range candidates {
		value, ok := snap[c.criteria]
		if !ok {
			continue
		}

		progress := domain.BadgeProgress{
			BadgeID:  c.badge.ID,
			Name:     c.badge.Name,
			Category: string(c.badge.Category),
			Progress: value,
			Target:   c.badge.TargetValue,
			Percent:  domain.ProgressPercent(value, c.badge.TargetValue),
		}

		if value >= c.badge.TargetValue {
			awarded, err := e.badges.AwardBadge(ctx, userID, c.badge.ID, value, now)
			if err != nil {
				e.log.Error("failed to award badge",
					zap.String("user_id", userID),
					zap.String("badge_id", c.badge.ID),
					zap.Error(err))
				continue
			}
			progress.IsCompleted = true
			if awarded {
				earned := now
				progress.EarnedAt = &earned
				result.NewlyAwarded = append(result.NewlyAwarded, c.badge)
				e.log.Info("badge awarded",
					zap.String("user_id", userID),
					zap.String("badge_id", c.badge.ID),
					zap.String("badge", c.badge.Name))
			}
			completed[c.badge.ID] = true
			result.Progress = append(result.Progress, progress)
			continue
		}

		if value <= 0 {
			continue
		}
		if err := e.badges.UpdateBadgeProgress(ctx, userID, c.badge.ID, value); err != nil {
			e.log.Error("failed to update badge progress",
				zap.String("user_id", userID),
				zap.String("badge_id", c.badge.ID),
				zap.Error(err))
			continue
		}
		result.Progress = append(result.Progress, progress)
	}

	result.TotalCompleted = countActive(catalog, completed)
	return result, nil
}

// countActive counts the completed badges that are still in the catalog.
func countActive(catalog []domain.Badge, completed map[string]bool) int {
	n := 0
	for _, b := range catalog {
		if completed[b.ID] {
			n++
		}
	}
	return n
}

// Check resolves the user's profile and evaluates their badges.
func (e *Engine) Check(ctx context.Context, userID string) (*domain.EvaluationResult, error) {
	profileID, err := e.profiles.ResolveProfileID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve profile for user %s: %w", userID, err)
	}
	return e.Evaluate(ctx, userID, profileID)
}

// Progress lists every active badge with the user's stored progress.
func (e *Engine) Progress(ctx context.Context, userID string) ([]domain.BadgeProgress, error) {
	catalog, err := e.badges.ListActiveBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load badge catalog: %w", err)
	}
	owned, err := e.badges.ListUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user badges: %w", err)
	}

	byBadge := make(map[string]domain.UserBadge, len(owned))
	for _, ub := range owned {
		byBadge[ub.BadgeID] = ub
	}

	out := make([]domain.BadgeProgress, 0, len(catalog))
	for _, b := range catalog {
		p := domain.BadgeProgress{
			BadgeID:  b.ID,
			Name:     b.Name,
			Category: string(b.Category),
			Target:   b.TargetValue,
		}
		if ub, ok := byBadge[b.ID]; ok {
			p.Progress = ub.Progress
			p.IsCompleted = ub.IsCompleted
			p.EarnedAt = ub.EarnedAt
			p.Percent = domain.ProgressPercent(ub.Progress, b.TargetValue)
			if ub.IsCompleted {
				p.Percent = 100
			}
		}
		out = append(out, p)
	}
	return out, nil
}
