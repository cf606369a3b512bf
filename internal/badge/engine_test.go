package badge

import (
	"BioLink-Backend/internal/analytics"
	"BioLink-Backend/internal/domain"
	"BioLink-Backend/internal/repository"
	"BioLink-Backend/internal/repository/memory"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	userID    = "user-1"
	profileID = "profile-1"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// MockStatsSource is a mock implementation of StatsSource
type MockStatsSource struct {
	mock.Mock
}

func (m *MockStatsSource) CountByType(ctx context.Context, profileID string, types ...domain.EventType) (int64, error) {
	args := m.Called(ctx, profileID, types)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatsSource) Recent(ctx context.Context, profileID string) (domain.RecentStats, error) {
	args := m.Called(ctx, profileID)
	return args.Get(0).(domain.RecentStats), args.Error(1)
}

func newStore(badges ...domain.Badge) *memory.MemStorage {
	store := memory.New()
	store.SaveProfile(domain.Profile{ID: profileID, UserID: userID, Username: "alice"})
	store.SaveBadges(badges...)
	return store
}

func newEngine(store *memory.MemStorage) *Engine {
	agg := analytics.NewAggregator(store, nil, analytics.DefaultAggregatorConfig(), zap.NewNop()).
		WithClock(func() time.Time { return now })
	return NewEngine(store, store, agg, zap.NewNop()).WithClock(func() time.Time { return now })
}

func seedViews(t *testing.T, store *memory.MemStorage, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := store.CreateEventIfAbsent(context.Background(), &domain.Event{
			ID:         fmt.Sprintf("view-%d-%d", now.UnixNano(), i),
			ProfileID:  profileID,
			EventType:  domain.EventTypeView,
			IPAddress:  fmt.Sprintf("10.0.%d.%d", i/250, i%250),
			DeviceType: domain.DeviceUnknown,
			CreatedAt:  now.Add(-time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
}

func viewsBadge(id string, target int64) domain.Badge {
	return domain.Badge{
		ID:           id,
		Name:         id,
		Category:     domain.CategoryViews,
		CriteriaType: domain.CriteriaProfileViews,
		TargetValue:  target,
		IsActive:     true,
	}
}

func completedIDs(t *testing.T, store repository.BadgeStore) []string {
	t.Helper()
	owned, err := store.ListUserBadges(context.Background(), userID)
	require.NoError(t, err)
	var ids []string
	for _, ub := range owned {
		if ub.IsCompleted {
			ids = append(ids, ub.BadgeID)
		}
	}
	return ids
}

func TestEngine_Evaluate_AwardsOnce(t *testing.T) {
	ctx := context.Background()
	store := newStore(viewsBadge("views_10", 10), viewsBadge("views_100", 100))
	seedViews(t, store, 12)
	engine := newEngine(store)

	first, err := engine.Evaluate(ctx, userID, profileID)
	require.NoError(t, err)
	require.Len(t, first.NewlyAwarded, 1)
	assert.Equal(t, "views_10", first.NewlyAwarded[0].ID)
	assert.Equal(t, 1, first.TotalCompleted)

	second, err := engine.Evaluate(ctx, userID, profileID)
	require.NoError(t, err)
	assert.Empty(t, second.NewlyAwarded)
	assert.Equal(t, 1, second.TotalCompleted)

	assert.Equal(t, []string{"views_10"}, completedIDs(t, store))
}

func TestEngine_Evaluate_TotalIgnoresRetiredBadges(t *testing.T) {
	ctx := context.Background()
	retired := viewsBadge("retired", 1)
	retired.IsActive = false
	store := newStore(viewsBadge("views_10", 10), retired)
	_, err := store.AwardBadge(ctx, userID, "retired", 1, now.Add(-time.Hour))
	require.NoError(t, err)
	seedViews(t, store, 12)
	engine := newEngine(store)

	first, err := engine.Evaluate(ctx, userID, profileID)
	require.NoError(t, err)
	require.Len(t, first.NewlyAwarded, 1)
	assert.Equal(t, 1, first.TotalCompleted)

	second, err := engine.Evaluate(ctx, userID, profileID)
	require.NoError(t, err)
	assert.Empty(t, second.NewlyAwarded)
	assert.Equal(t, 1, second.TotalCompleted)

	assert.ElementsMatch(t, []string{"retired", "views_10"}, completedIDs(t, store))
}

func TestEngine_Evaluate_RecordsProgressBelowTarget(t *testing.T) {
	ctx := context.Background()
	store := newStore(viewsBadge("views_100", 100))
	seedViews(t, store, 37)

	result, err := newEngine(store).Evaluate(ctx, userID, profileID)
	require.NoError(t, err)
	assert.Empty(t, result.NewlyAwarded)
	require.Len(t, result.Progress, 1)
	assert.Equal(t, int64(37), result.Progress[0].Progress)
	assert.Equal(t, 37, result.Progress[0].Percent)
	assert.False(t, result.Progress[0].IsCompleted)

	owned, err := store.ListUserBadges(ctx, userID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, int64(37), owned[0].Progress)
	assert.False(t, owned[0].IsCompleted)
	assert.Nil(t, owned[0].EarnedAt)
}

func TestEngine_Evaluate_ZeroValueWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := newStore(viewsBadge("views_10", 10))

	result, err := newEngine(store).Evaluate(ctx, userID, profileID)
	require.NoError(t, err)
	assert.Empty(t, result.Progress)

	owned, err := store.ListUserBadges(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func TestEngine_Evaluate_PercentIsClamped(t *testing.T) {
	store := newStore(viewsBadge("views_1000", 1000))
	stats := &MockStatsSource{}
	stats.On("CountByType", mock.Anything, profileID, []domain.EventType{domain.EventTypeView}).Return(int64(1500), nil)
	engine := NewEngine(store, store, stats, zap.NewNop()).WithClock(func() time.Time { return now })

	result, err := engine.Evaluate(context.Background(), userID, profileID)
	require.NoError(t, err)
	require.Len(t, result.NewlyAwarded, 1)
	require.Len(t, result.Progress, 1)
	assert.Equal(t, 100, result.Progress[0].Percent)
	assert.Equal(t, int64(1500), result.Progress[0].Progress)
	require.NotNil(t, result.Progress[0].EarnedAt)
	assert.Equal(t, now, *result.Progress[0].EarnedAt)
}

func TestEngine_Evaluate_SkipsManualAndUnknownCriteria(t *testing.T) {
	store := newStore(
		domain.Badge{ID: "early", Category: domain.CategorySpecial, CriteriaType: domain.CriteriaProfileViews, TargetValue: 1, IsActive: true},
		domain.Badge{ID: "legacy-special", Category: "dac-biet", TargetValue: 1, IsActive: true},
		domain.Badge{ID: "mystery", Category: domain.CategoryAchievements, CriteriaType: "followers", TargetValue: 1, IsActive: true},
		domain.Badge{ID: "no-criteria", Category: domain.CategoryAchievements, TargetValue: 1, IsActive: true},
		domain.Badge{ID: "inactive", Category: domain.CategoryViews, CriteriaType: domain.CriteriaProfileViews, TargetValue: 1, IsActive: false},
	)
	seedViews(t, store, 5)

	result, err := newEngine(store).Evaluate(context.Background(), userID, profileID)
	require.NoError(t, err)
	assert.Empty(t, result.NewlyAwarded)
	assert.Empty(t, result.Progress)
	assert.Empty(t, completedIDs(t, store))
}

func TestEngine_Evaluate_LegacyAliases(t *testing.T) {
	store := newStore(
		domain.Badge{ID: "legacy-views", Category: "luot-xem", TargetValue: 3, IsActive: true},
		domain.Badge{ID: "legacy-clicks", Category: "Luot-Click", TargetValue: 1, IsActive: true},
		domain.Badge{ID: "legacy-criteria", Category: "thanh-tuu", CriteriaType: "views", TargetValue: 2, IsActive: true},
	)
	seedViews(t, store, 4)

	result, err := newEngine(store).Evaluate(context.Background(), userID, profileID)
	require.NoError(t, err)

	var awarded []string
	for _, b := range result.NewlyAwarded {
		awarded = append(awarded, b.ID)
	}
	assert.ElementsMatch(t, []string{"legacy-views", "legacy-criteria"}, awarded)
	for _, p := range result.Progress {
		assert.NotEqual(t, "legacy-clicks", p.BadgeID, "no clicks means no progress row")
	}
}

func TestEngine_Evaluate_FailedSourceIsOmitted(t *testing.T) {
	store := newStore(
		viewsBadge("views_10", 10),
		domain.Badge{ID: "visitors_50", Category: domain.CategoryAchievements, CriteriaType: domain.CriteriaUniqueVisitors, TargetValue: 50, IsActive: true},
		domain.Badge{ID: "countries_5", Category: domain.CategoryAchievements, CriteriaType: domain.CriteriaUniqueCountries, TargetValue: 5, IsActive: true},
	)
	stats := &MockStatsSource{}
	stats.On("CountByType", mock.Anything, profileID, []domain.EventType{domain.EventTypeView}).Return(int64(10), nil)
	stats.On("Recent", mock.Anything, profileID).Return(domain.RecentStats{}, errors.New("replica lag")).Once()

	engine := NewEngine(store, store, stats, zap.NewNop())
	result, err := engine.Evaluate(context.Background(), userID, profileID)
	require.NoError(t, err)

	require.Len(t, result.NewlyAwarded, 1)
	assert.Equal(t, "views_10", result.NewlyAwarded[0].ID)
	require.Len(t, result.Progress, 1)
	stats.AssertExpectations(t)
}

func TestEngine_Evaluate_LinksAndRecentCriteria(t *testing.T) {
	store := newStore(
		domain.Badge{ID: "links_1", Category: domain.CategoryAchievements, CriteriaType: domain.CriteriaLinksCreated, TargetValue: 1, IsActive: true},
		domain.Badge{ID: "links_5", Category: domain.CategoryAchievements, CriteriaType: domain.CriteriaLinksCreated, TargetValue: 5, IsActive: true},
		domain.Badge{ID: "sessions_2", Category: domain.CategoryAchievements, CriteriaType: domain.CriteriaUniqueSessions, TargetValue: 2, IsActive: true},
	)
	store.SaveLink(domain.Link{ID: "l1", ProfileID: profileID, UserID: userID, URL: "https://a.example", IsActive: true})
	store.SaveLink(domain.Link{ID: "l2", ProfileID: profileID, UserID: userID, URL: "https://b.example", IsActive: true})
	store.SaveLink(domain.Link{ID: "l3", ProfileID: profileID, UserID: userID, URL: "https://c.example", IsActive: false})

	stats := &MockStatsSource{}
	stats.On("Recent", mock.Anything, profileID).Return(domain.RecentStats{UniqueSessions: 3}, nil).Once()

	result, err := NewEngine(store, store, stats, zap.NewNop()).Evaluate(context.Background(), userID, profileID)
	require.NoError(t, err)

	var awarded []string
	for _, b := range result.NewlyAwarded {
		awarded = append(awarded, b.ID)
	}
	assert.ElementsMatch(t, []string{"links_1", "sessions_2"}, awarded)

	for _, p := range result.Progress {
		if p.BadgeID == "links_5" {
			assert.Equal(t, int64(2), p.Progress)
			assert.Equal(t, 40, p.Percent)
		}
	}
	stats.AssertExpectations(t)
}

func TestEngine_Evaluate_ConcurrentRunsAwardOnce(t *testing.T) {
	store := newStore(viewsBadge("views_10", 10))
	seedViews(t, store, 15)
	engine := newEngine(store)

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		awarded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := engine.Evaluate(context.Background(), userID, profileID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			awarded += len(result.NewlyAwarded)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, awarded)
	assert.Equal(t, []string{"views_10"}, completedIDs(t, store))
}

func TestEngine_Check(t *testing.T) {
	store := newStore(viewsBadge("views_10", 10))
	seedViews(t, store, 10)
	engine := newEngine(store)

	result, err := engine.Check(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, result.NewlyAwarded, 1)

	_, err = engine.Check(context.Background(), "nobody")
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)
}

func TestEngine_Progress(t *testing.T) {
	ctx := context.Background()
	store := newStore(viewsBadge("views_10", 10), viewsBadge("views_100", 100))
	seedViews(t, store, 25)
	engine := newEngine(store)

	_, err := engine.Evaluate(ctx, userID, profileID)
	require.NoError(t, err)

	list, err := engine.Progress(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byID := map[string]domain.BadgeProgress{}
	for _, p := range list {
		byID[p.BadgeID] = p
	}
	assert.True(t, byID["views_10"].IsCompleted)
	assert.Equal(t, 100, byID["views_10"].Percent)
	assert.NotNil(t, byID["views_10"].EarnedAt)
	assert.False(t, byID["views_100"].IsCompleted)
	assert.Equal(t, int64(25), byID["views_100"].Progress)
	assert.Equal(t, 25, byID["views_100"].Percent)
}

func TestResolveCriteria(t *testing.T) {
	tests := []struct {
		name  string
		badge domain.Badge
		want  domain.CriteriaType
		ok    bool
	}{
		{"explicit", domain.Badge{Category: domain.CategoryAchievements, CriteriaType: domain.CriteriaTotalEvents}, domain.CriteriaTotalEvents, true},
		{"views default", domain.Badge{Category: domain.CategoryViews}, domain.CriteriaProfileViews, true},
		{"clicks default", domain.Badge{Category: domain.CategoryClicks}, domain.CriteriaLinkClicks, true},
		{"legacy views", domain.Badge{Category: "luot-xem"}, domain.CriteriaProfileViews, true},
		{"legacy clicks", domain.Badge{Category: "luot-click"}, domain.CriteriaLinkClicks, true},
		{"legacy criteria key", domain.Badge{Category: domain.CategoryAchievements, CriteriaType: "countries"}, domain.CriteriaUniqueCountries, true},
		{"achievements need criteria", domain.Badge{Category: "thanh-tuu"}, "", false},
		{"special is manual", domain.Badge{Category: domain.CategorySpecial, CriteriaType: domain.CriteriaProfileViews}, "", false},
		{"legacy special is manual", domain.Badge{Category: "dac-biet"}, "", false},
		{"unknown criteria", domain.Badge{Category: domain.CategoryAchievements, CriteriaType: "followers"}, "", false},
		{"unknown category with criteria", domain.Badge{Category: "seasonal", CriteriaType: domain.CriteriaProfileShares}, domain.CriteriaProfileShares, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := resolveCriteria(tt.badge)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	require.NotEmpty(t, catalog)

	seen := make(map[string]bool)
	for _, b := range catalog {
		assert.False(t, seen[b.ID], "duplicate id %s", b.ID)
		seen[b.ID] = true
		assert.True(t, b.IsActive)
		assert.Positive(t, b.TargetValue)

		_, auto := resolveCriteria(b)
		assert.Equal(t, b.Category != domain.CategorySpecial, auto, b.Name)
	}

	assert.Equal(t, CatalogID("views_10"), DefaultCatalog()[0].ID)
}
