package badge

import (
	"BioLink-Backend/internal/domain"
	"context"
	"strings"
	"sync"
)

// categoryRule describes how badges of one category are evaluated.
// Manual categories are awarded by administrators only.
type categoryRule struct {
	canonical       domain.BadgeCategory
	defaultCriteria domain.CriteriaType
	manual          bool
}

var (
	viewsRule        = categoryRule{canonical: domain.CategoryViews, defaultCriteria: domain.CriteriaProfileViews}
	clicksRule       = categoryRule{canonical: domain.CategoryClicks, defaultCriteria: domain.CriteriaLinkClicks}
	achievementsRule = categoryRule{canonical: domain.CategoryAchievements}
	specialRule      = categoryRule{canonical: domain.CategorySpecial, manual: true}
)

// categoryAliases maps current and legacy category labels to their rule.
var categoryAliases = map[string]categoryRule{
	"views":        viewsRule,
	"luot-xem":     viewsRule,
	"clicks":       clicksRule,
	"luot-click":   clicksRule,
	"achievements": achievementsRule,
	"thanh-tuu":    achievementsRule,
	"special":      specialRule,
	"dac-biet":     specialRule,
}

// criteriaAliases maps legacy criteria keys to canonical ones.
var criteriaAliases = map[string]domain.CriteriaType{
	"views":     domain.CriteriaProfileViews,
	"clicks":    domain.CriteriaLinkClicks,
	"shares":    domain.CriteriaProfileShares,
	"links":     domain.CriteriaLinksCreated,
	"visitors":  domain.CriteriaUniqueVisitors,
	"sessions":  domain.CriteriaUniqueSessions,
	"countries": domain.CriteriaUniqueCountries,
}

// resolveCriteria returns the criteria a badge is automatically evaluated
// against, or false when the badge is manual or has no usable criteria.
func resolveCriteria(b domain.Badge) (domain.CriteriaType, bool) {
	rule, known := categoryAliases[strings.ToLower(strings.TrimSpace(string(b.Category)))]
	if known && rule.manual {
		return "", false
	}

	ct := domain.CriteriaType(strings.ToLower(strings.TrimSpace(string(b.CriteriaType))))
	if canonical, ok := criteriaAliases[string(ct)]; ok {
		ct = canonical
	}
	if ct == "" && known {
		ct = rule.defaultCriteria
	}
	if ct == "" {
		return "", false
	}
	if _, ok := extractors[ct]; !ok {
		return "", false
	}
	return ct, true
}

// StatsSource provides event statistics for a profile.
type StatsSource interface {
	CountByType(ctx context.Context, profileID string, types ...domain.EventType) (int64, error)
	Recent(ctx context.Context, profileID string) (domain.RecentStats, error)
}

// LinkCounter counts a user's links.
type LinkCounter interface {
	CountLinks(ctx context.Context, userID string) (int64, error)
}

// snapshotInput carries the subject of a snapshot and memoizes the recent
// stats so several criteria share one read.
type snapshotInput struct {
	userID    string
	profileID string
	stats     StatsSource
	links     LinkCounter

	recentOnce sync.Once
	recent     domain.RecentStats
	recentErr  error
}

func (in *snapshotInput) recentStats(ctx context.Context) (domain.RecentStats, error) {
	in.recentOnce.Do(func() {
		in.recent, in.recentErr = in.stats.Recent(ctx, in.profileID)
	})
	return in.recent, in.recentErr
}

// extractor computes the current value of one criteria type.
type extractor func(ctx context.Context, in *snapshotInput) (int64, error)

func eventCount(types ...domain.EventType) extractor {
	return func(ctx context.Context, in *snapshotInput) (int64, error) {
		return in.stats.CountByType(ctx, in.profileID, types...)
	}
}

func recentValue(pick func(domain.RecentStats) int) extractor {
	return func(ctx context.Context, in *snapshotInput) (int64, error) {
		r, err := in.recentStats(ctx)
		if err != nil {
			return 0, err
		}
		return int64(pick(r)), nil
	}
}

func linksCreated(ctx context.Context, in *snapshotInput) (int64, error) {
	return in.links.CountLinks(ctx, in.userID)
}

// extractors is the criteria lookup table. Adding a criteria type means
// adding an entry here.
var extractors = map[domain.CriteriaType]extractor{
	domain.CriteriaProfileViews:    eventCount(domain.EventTypeView),
	domain.CriteriaLinkClicks:      eventCount(domain.EventTypeClick),
	domain.CriteriaProfileShares:   eventCount(domain.EventTypeShare),
	domain.CriteriaTotalEvents:     eventCount(),
	domain.CriteriaLinksCreated:    linksCreated,
	domain.CriteriaUniqueVisitors:  recentValue(func(r domain.RecentStats) int { return r.UniqueVisitors }),
	domain.CriteriaUniqueSessions:  recentValue(func(r domain.RecentStats) int { return r.UniqueSessions }),
	domain.CriteriaUniqueCountries: recentValue(func(r domain.RecentStats) int { return r.UniqueCountries }),
}

// Snapshot maps criteria types to their current values. Criteria whose
// source failed are absent.
type Snapshot map[domain.CriteriaType]int64
