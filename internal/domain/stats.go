package domain

import "time"

// OverviewStats is the dashboard report for one profile and time range.
type OverviewStats struct {
	TimeRange      string          `json:"timeRange"`
	ProfileViews   ViewStats       `json:"profileViews"`
	LinkClicks     ClickStats      `json:"linkClicks"`
	Shares         ShareStats      `json:"shares"`
	ConversionRate string          `json:"conversionRate"`
	TopCountries   []CountryCount  `json:"topCountries"`
	Referrers      []ReferrerCount `json:"referrers"`
	Devices        DeviceBreakdown `json:"devices"`
	DailyStats     []DailyStat     `json:"dailyStats"`
}

// ViewStats counts views for the overview.
type ViewStats struct {
	Total                  int `json:"total"`
	ThisWeek               int `json:"thisWeek"`
	Today                  int `json:"today"`
	UniqueVisitors         int `json:"uniqueVisitors"`
	UniqueVisitorsThisWeek int `json:"uniqueVisitorsThisWeek"`
}

// ClickStats counts link clicks for the overview.
type ClickStats struct {
	Total    int `json:"total"`
	ThisWeek int `json:"thisWeek"`
	Today    int `json:"today"`
}

// ShareStats counts shares for the overview.
type ShareStats struct {
	Total int `json:"total"`
}

// CountryCount is one row of the top countries list.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// ReferrerCount is one row of the top referrer sources list.
type ReferrerCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// DeviceBreakdown is the fixed three bucket device histogram of views.
type DeviceBreakdown struct {
	Mobile  int `json:"mobile"`
	Desktop int `json:"desktop"`
	Tablet  int `json:"tablet"`
}

// DailyStat holds one calendar day of the trailing week.
type DailyStat struct {
	Date   string `json:"date"`
	Views  int    `json:"views"`
	Clicks int    `json:"clicks"`
}

// RealtimeStats covers the trailing realtime window.
type RealtimeStats struct {
	ActiveUsers  int       `json:"activeUsers"`
	RecentViews  int       `json:"recentViews"`
	RecentClicks int       `json:"recentClicks"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// RecentStats are distinct counts over the recent window, used as badge criteria.
type RecentStats struct {
	UniqueVisitors  int
	UniqueSessions  int
	UniqueCountries int
}
