package analytics

import (
	"BioLink-Backend/internal/domain"
	"BioLink-Backend/internal/repository"
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

const (
	topListSize     = 5
	dailySeriesDays = 7
	week            = 7 * 24 * time.Hour
	dateLayout      = "2006-01-02"
)

// DefaultTimeRange is used for unknown or empty labels.
const DefaultTimeRange = "7d"

var timeRanges = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

// ParseTimeRange resolves a window label. Unknown labels fall back to 7d.
func ParseTimeRange(label string) (string, time.Duration) {
	if d, ok := timeRanges[label]; ok {
		return label, d
	}
	return DefaultTimeRange, timeRanges[DefaultTimeRange]
}

// ReportCache caches computed reports. Implementations must be safe for
// concurrent use.
type ReportCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
}

// AggregatorConfig tunes the fixed windows.
type AggregatorConfig struct {
	RealtimeWindow time.Duration
	RecentWindow   time.Duration
}

// DefaultAggregatorConfig returns a 5 minute realtime window and a 30 day
// recent window.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		RealtimeWindow: 5 * time.Minute,
		RecentWindow:   30 * 24 * time.Hour,
	}
}

// Aggregator computes windowed statistics from stored events.
type Aggregator struct {
	store  repository.EventStore
	cache  ReportCache
	config AggregatorConfig
	log    *zap.Logger
	now    func() time.Time
}

// NewAggregator creates an aggregation engine. cache may be nil.
func NewAggregator(store repository.EventStore, cache ReportCache, cfg AggregatorConfig, log *zap.Logger) *Aggregator {
	return &Aggregator{
		store:  store,
		cache:  cache,
		config: cfg,
		log:    log.With(zap.String("component", "aggregator")),
		now:    time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// partition splits events by type.
type partition struct {
	views  []domain.Event
	clicks []domain.Event
	shares []domain.Event
}

func split(events []domain.Event) partition {
	var p partition
	for _, e := range events {
		switch e.EventType {
		case domain.EventTypeView:
			p.views = append(p.views, e)
		case domain.EventTypeClick:
			p.clicks = append(p.clicks, e)
		case domain.EventTypeShare:
			p.shares = append(p.shares, e)
		}
	}
	return p
}

// Overview builds the dashboard report for a profile. The store is read
// once for the widest bound needed; a failed read degrades to an empty
// report instead of an error.
func (a *Aggregator) Overview(ctx context.Context, profileID, timeRange string) *domain.OverviewStats {
	label, window := ParseTimeRange(timeRange)
	cacheKey := fmt.Sprintf("overview:%s:%s", profileID, label)

	if a.cache != nil {
		var cached domain.OverviewStats
		if err := a.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached
		}
	}

	now := a.now().UTC()
	windowStart := now.Add(-window)
	weekStart := now.Add(-week)
	todayStart := StartOfDay(now)
	seriesStart := todayStart.AddDate(0, 0, -(dailySeriesDays - 1))

	lower := windowStart
	for _, t := range []time.Time{weekStart, seriesStart} {
		if t.Before(lower) {
			lower = t
		}
	}

	events, err := a.store.ListEvents(ctx, repository.EventFilter{ProfileID: profileID, From: lower})
	degraded := err != nil
	if degraded {
		a.log.Error("overview read failed, returning empty report",
			zap.String("profile_id", profileID),
			zap.String("time_range", label),
			zap.Error(err))
		events = nil
	}

	all := split(notAfter(events, now))
	inWindow := split(since(notAfter(events, now), windowStart))

	stats := &domain.OverviewStats{
		TimeRange: label,
		ProfileViews: domain.ViewStats{
			Total:                  len(inWindow.views),
			ThisWeek:               len(since(all.views, weekStart)),
			Today:                  len(since(all.views, todayStart)),
			UniqueVisitors:         UniqueVisitors(inWindow.views),
			UniqueVisitorsThisWeek: UniqueVisitors(since(all.views, weekStart)),
		},
		LinkClicks: domain.ClickStats{
			Total:    len(inWindow.clicks),
			ThisWeek: len(since(all.clicks, weekStart)),
			Today:    len(since(all.clicks, todayStart)),
		},
		Shares:         domain.ShareStats{Total: len(inWindow.shares)},
		ConversionRate: ConversionRate(len(inWindow.clicks), len(inWindow.views)),
		TopCountries:   TopCountries(inWindow.views),
		Referrers:      TopReferrers(inWindow.views),
		Devices:        Devices(inWindow.views),
		DailyStats:     DailySeries(all.views, all.clicks, todayStart),
	}

	if a.cache != nil && !degraded {
		if err := a.cache.Set(ctx, cacheKey, stats); err != nil {
			a.log.Warn("failed to cache overview", zap.String("profile_id", profileID), zap.Error(err))
		}
	}

	return stats
}

// Realtime reports activity in the trailing realtime window.
func (a *Aggregator) Realtime(ctx context.Context, profileID string) *domain.RealtimeStats {
	now := a.now().UTC()
	stats := &domain.RealtimeStats{LastUpdated: now}

	events, err := a.store.ListEvents(ctx, repository.EventFilter{
		ProfileID: profileID,
		From:      now.Add(-a.config.RealtimeWindow),
	})
	if err != nil {
		a.log.Error("realtime read failed, returning empty stats",
			zap.String("profile_id", profileID), zap.Error(err))
		return stats
	}

	events = notAfter(events, now)
	p := split(events)
	stats.ActiveUsers = len(events)
	stats.RecentViews = len(p.views)
	stats.RecentClicks = len(p.clicks)
	return stats
}

// Recent returns distinct visitor, session and country counts over the
// recent window.
func (a *Aggregator) Recent(ctx context.Context, profileID string) (domain.RecentStats, error) {
	now := a.now().UTC()
	events, err := a.store.ListEvents(ctx, repository.EventFilter{
		ProfileID: profileID,
		From:      now.Add(-a.config.RecentWindow),
	})
	if err != nil {
		return domain.RecentStats{}, fmt.Errorf("failed to read recent events: %w", err)
	}

	events = notAfter(events, now)
	sessions := make(map[string]struct{})
	countries := make(map[string]struct{})
	for _, e := range events {
		if e.SessionID != "" {
			sessions[e.SessionID] = struct{}{}
		}
		if e.Country != nil && *e.Country != "" {
			countries[*e.Country] = struct{}{}
		}
	}

	return domain.RecentStats{
		UniqueVisitors:  UniqueVisitors(split(events).views),
		UniqueSessions:  len(sessions),
		UniqueCountries: len(countries),
	}, nil
}

// CountByType counts all stored events of the given types for a profile.
func (a *Aggregator) CountByType(ctx context.Context, profileID string, types ...domain.EventType) (int64, error) {
	return a.store.CountEvents(ctx, repository.EventFilter{ProfileID: profileID, Types: types})
}

// --- pure aggregation helpers ---

// UniqueVisitors counts distinct non-empty IP addresses.
func UniqueVisitors(views []domain.Event) int {
	ips := make(map[string]struct{}, len(views))
	for _, v := range views {
		if v.IPAddress != "" {
			ips[v.IPAddress] = struct{}{}
		}
	}
	return len(ips)
}

// ConversionRate formats clicks/views as a percentage with one decimal,
// rounding halves up. It is "0" when there are no views.
func ConversionRate(clicks, views int) string {
	if views <= 0 {
		return "0"
	}
	// tenths of a percent: clicks*1000/views, rounded half up in integers
	tenths := (int64(clicks)*2000 + int64(views)) / (2 * int64(views))
	return fmt.Sprintf("%d.%d", tenths/10, tenths%10)
}

// TopCountries returns at most five countries by view count. Ties keep
// first-seen order.
func TopCountries(views []domain.Event) []domain.CountryCount {
	keys, counts := countOrdered(views, func(e domain.Event) string {
		if e.Country == nil {
			return ""
		}
		return *e.Country
	})

	out := make([]domain.CountryCount, len(keys))
	for i, k := range keys {
		out[i] = domain.CountryCount{Country: k, Count: counts[k]}
	}
	return out
}

// TopReferrers returns at most five referrer sources by view count.
func TopReferrers(views []domain.Event) []domain.ReferrerCount {
	keys, counts := countOrdered(views, func(e domain.Event) string {
		if e.ReferrerInfo == nil {
			return SourceDirect
		}
		return e.ReferrerInfo.Source
	})

	out := make([]domain.ReferrerCount, len(keys))
	for i, k := range keys {
		out[i] = domain.ReferrerCount{Source: k, Count: counts[k]}
	}
	return out
}

// countOrdered groups events by key (empty keys dropped), stable-sorts the
// keys by descending count and keeps the top five.
func countOrdered(events []domain.Event, key func(domain.Event) string) ([]string, map[string]int) {
	counts := make(map[string]int)
	var order []string
	for _, e := range events {
		k := key(e)
		if k == "" {
			continue
		}
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topListSize {
		order = order[:topListSize]
	}
	return order, counts
}

// Devices buckets views into mobile, desktop and tablet. Other device types
// are not counted.
func Devices(views []domain.Event) domain.DeviceBreakdown {
	var d domain.DeviceBreakdown
	for _, v := range views {
		switch v.DeviceType {
		case domain.DeviceMobile:
			d.Mobile++
		case domain.DeviceDesktop:
			d.Desktop++
		case domain.DeviceTablet:
			d.Tablet++
		}
	}
	return d
}

// DailySeries returns seven zero-filled days ending with today, oldest first.
func DailySeries(views, clicks []domain.Event, today time.Time) []domain.DailyStat {
	series := make([]domain.DailyStat, dailySeriesDays)
	index := make(map[string]int, dailySeriesDays)
	for i := 0; i < dailySeriesDays; i++ {
		label := today.AddDate(0, 0, i-(dailySeriesDays-1)).Format(dateLayout)
		series[i] = domain.DailyStat{Date: label}
		index[label] = i
	}

	for _, v := range views {
		if i, ok := index[v.CreatedAt.UTC().Format(dateLayout)]; ok {
			series[i].Views++
		}
	}
	for _, c := range clicks {
		if i, ok := index[c.CreatedAt.UTC().Format(dateLayout)]; ok {
			series[i].Clicks++
		}
	}
	return series
}

func since(events []domain.Event, from time.Time) []domain.Event {
	var out []domain.Event
	for _, e := range events {
		if !e.CreatedAt.Before(from) {
			out = append(out, e)
		}
	}
	return out
}

func notAfter(events []domain.Event, now time.Time) []domain.Event {
	out := events[:0:0]
	for _, e := range events {
		if !e.CreatedAt.After(now) {
			out = append(out, e)
		}
	}
	return out
}
