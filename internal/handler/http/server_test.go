package http

import (
	"BioLink-Backend/internal/analytics"
	"BioLink-Backend/internal/auth"
	"BioLink-Backend/internal/badge"
	"BioLink-Backend/internal/domain"
	"BioLink-Backend/internal/repository"
	"BioLink-Backend/internal/repository/memory"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testUserID    = "user-1"
	testProfileID = "profile-1"
	maxBatch      = 3
)

type testEnv struct {
	handler http.Handler
	store   *memory.MemStorage
	jwt     *auth.JWTService
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()

	store := memory.New()
	store.SaveProfile(domain.Profile{ID: testProfileID, UserID: testUserID, Username: "alice"})
	store.SaveProfile(domain.Profile{ID: "profile-2", UserID: "user-2", Username: "bob"})
	store.SaveBadges(domain.Badge{
		ID:           "views_1",
		Name:         "Hello World",
		Category:     domain.CategoryViews,
		CriteriaType: domain.CriteriaProfileViews,
		TargetValue:  1,
		IsActive:     true,
	}, domain.Badge{
		ID:           "views_10",
		Name:         "First Fans",
		Category:     domain.CategoryViews,
		CriteriaType: domain.CriteriaProfileViews,
		TargetValue:  10,
		IsActive:     true,
	})

	aggregator := analytics.NewAggregator(store, nil, analytics.DefaultAggregatorConfig(), log)
	engine := badge.NewEngine(store, store, aggregator, log)
	gateway := analytics.NewGateway(store, store, engine, nil, log)

	jwtService := auth.NewJWTService(&auth.JWTConfig{
		SecretKey:           []byte("test-secret"),
		AccessTokenDuration: time.Hour,
		Issuer:              "test",
	})

	server := NewServer(
		NewAnalyticsHandler(gateway, aggregator, store, validator.New(), maxBatch, "7d", log),
		NewBadgesHandler(engine, log),
		NewHealthHandler(store, "test", log),
		auth.NewMiddleware(jwtService, []string{"*"}, log),
		log,
	)

	return &testEnv{handler: server.SetupRoutes(), store: store, jwt: jwtService}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) bearer(t *testing.T, userID string) map[string]string {
	t.Helper()
	token, err := e.jwt.GenerateAccessToken(userID)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestTrack_SingleViewIsDeduplicated(t *testing.T) {
	env := setupTestServer(t)
	headers := map[string]string{
		"X-Forwarded-For": "203.0.113.7, 10.0.0.1",
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0",
		"Referer":         "https://t.co/abc",
		"CF-IPCountry":    "VN",
	}
	body := map[string]string{"eventType": "view", "profileId": testProfileID, "sessionId": "s1"}

	rec := env.do(t, http.MethodPost, "/api/analytics/track", body, headers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[TrackResponse](t, rec)
	assert.True(t, first.Success)
	assert.Equal(t, 1, first.EventsTracked)
	require.Len(t, first.Analytics, 1)
	e := first.Analytics[0]
	assert.Equal(t, "203.0.113.7", e.IPAddress)
	assert.Equal(t, domain.DeviceDesktop, e.DeviceType)
	require.NotNil(t, e.Country)
	assert.Equal(t, "VN", *e.Country)
	require.NotNil(t, e.ReferrerInfo)
	assert.Equal(t, "twitter", e.ReferrerInfo.Source)
	require.Len(t, first.BadgeUpdates.NewBadges, 1)
	assert.Equal(t, "views_1", first.BadgeUpdates.NewBadges[0].ID)
	assert.Equal(t, 1, first.BadgeUpdates.TotalBadges)

	for i := 0; i < 2; i++ {
		rec = env.do(t, http.MethodPost, "/api/analytics/track", body, headers)
		require.Equal(t, http.StatusOK, rec.Code)
		again := decode[TrackResponse](t, rec)
		assert.True(t, again.Success)
		assert.Equal(t, 0, again.EventsTracked)
		assert.Equal(t, 1, again.Skipped)
		assert.Empty(t, again.Analytics)
		assert.Empty(t, again.BadgeUpdates.NewBadges)
	}
}

func TestTrack_CoercedTypeReturnsWarning(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/analytics/track",
		map[string]string{"eventType": "purchase", "profileId": testProfileID}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[TrackResponse](t, rec)
	require.Len(t, resp.Analytics, 1)
	assert.Equal(t, domain.EventTypeView, resp.Analytics[0].EventType)
	assert.NotEmpty(t, resp.Warnings)
}

func TestTrack_LongReferrerIsAccepted(t *testing.T) {
	env := setupTestServer(t)
	referrer := "https://www.google.com/url?q=" + strings.Repeat("q", 700)

	rec := env.do(t, http.MethodPost, "/api/analytics/track",
		map[string]string{"eventType": "click", "profileId": testProfileID},
		map[string]string{"Referer": referrer, "X-Forwarded-For": strings.Repeat("9", 64)})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[TrackResponse](t, rec)
	require.Len(t, resp.Analytics, 1)
	assert.Equal(t, referrer, resp.Analytics[0].Referrer)
	assert.Equal(t, "google", resp.Analytics[0].ReferrerInfo.Source)
	assert.Equal(t, "192.0.2.1", resp.Analytics[0].IPAddress)
}

func TestTrack_Errors(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		name   string
		method string
		body   any
		status int
	}{
		{"malformed json", http.MethodPost, "{not json", http.StatusBadRequest},
		{"missing profile id", http.MethodPost, map[string]string{"eventType": "view"}, http.StatusBadRequest},
		{"blank profile id", http.MethodPost, map[string]string{"eventType": "view", "profileId": "   "}, http.StatusBadRequest},
		{"unknown profile", http.MethodPost, map[string]string{"eventType": "view", "profileId": "ghost"}, http.StatusNotFound},
		{"too long", http.MethodPost, map[string]string{"profileId": strings.Repeat("x", 65)}, http.StatusBadRequest},
		{"country too long", http.MethodPost, map[string]string{"profileId": testProfileID, "country": strings.Repeat("x", 65)}, http.StatusBadRequest},
		{"session too long", http.MethodPost, map[string]string{"profileId": testProfileID, "sessionId": strings.Repeat("x", 101)}, http.StatusBadRequest},
		{"wrong method", http.MethodGet, nil, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, "/api/analytics/track", tt.body, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[ErrorResponse](t, rec)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestTrack_Batch(t *testing.T) {
	env := setupTestServer(t)
	headers := map[string]string{"X-Real-IP": "198.51.100.1"}

	rec := env.do(t, http.MethodPost, "/api/analytics/track", map[string]any{
		"batchEvents": []map[string]string{
			{"eventType": "view", "profileId": testProfileID},
			{"eventType": "view", "profileId": testProfileID},
			{"eventType": "click", "profileId": "ghost"},
		},
	}, headers)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[TrackResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.EventsTracked)
	assert.Equal(t, 1, resp.Skipped)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Items, 3)
	assert.NotEmpty(t, resp.Items[2].Error)
	require.Len(t, resp.BadgeUpdates.NewBadges, 1)
}

func TestTrack_BatchTooLarge(t *testing.T) {
	env := setupTestServer(t)
	events := make([]map[string]string, maxBatch+1)
	for i := range events {
		events[i] = map[string]string{"eventType": "click", "profileId": testProfileID}
	}

	rec := env.do(t, http.MethodPost, "/api/analytics/track", map[string]any{"batchEvents": events}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	count, err := env.store.CountEvents(context.Background(), repository.EventFilter{ProfileID: testProfileID})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOverview(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/analytics/overview", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	env.do(t, http.MethodPost, "/api/analytics/track",
		map[string]string{"eventType": "view", "profileId": testProfileID}, map[string]string{"X-Client-IP": "192.0.2.1"})
	env.do(t, http.MethodPost, "/api/analytics/track",
		map[string]string{"eventType": "click", "profileId": testProfileID, "linkId": "l1"}, map[string]string{"X-Client-IP": "192.0.2.1"})

	rec = env.do(t, http.MethodGet, "/api/analytics/overview?timeRange=30d", nil, env.bearer(t, testUserID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stats := decode[domain.OverviewStats](t, rec)
	assert.Equal(t, "30d", stats.TimeRange)
	assert.Equal(t, 1, stats.ProfileViews.Total)
	assert.Equal(t, 1, stats.LinkClicks.Total)
	assert.Equal(t, "100.0", stats.ConversionRate)
	assert.Len(t, stats.DailyStats, 7)

	rec = env.do(t, http.MethodGet, "/api/analytics/overview", nil, env.bearer(t, "user-2"))
	require.Equal(t, http.StatusOK, rec.Code)
	other := decode[domain.OverviewStats](t, rec)
	assert.Equal(t, "7d", other.TimeRange)
	assert.Zero(t, other.ProfileViews.Total)

	rec = env.do(t, http.MethodGet, "/api/analytics/overview", nil, env.bearer(t, "no-profile"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRealtime(t *testing.T) {
	env := setupTestServer(t)
	env.do(t, http.MethodPost, "/api/analytics/track",
		map[string]string{"eventType": "click", "profileId": testProfileID}, nil)

	rec := env.do(t, http.MethodGet, "/api/analytics/realtime", nil, env.bearer(t, testUserID))
	require.Equal(t, http.StatusOK, rec.Code)
	rt := decode[domain.RealtimeStats](t, rec)
	assert.Equal(t, 1, rt.ActiveUsers)
	assert.Equal(t, 1, rt.RecentClicks)
}

func TestBadges_CheckAndList(t *testing.T) {
	env := setupTestServer(t)
	_, err := env.store.CreateEventIfAbsent(context.Background(), &domain.Event{
		ID: "seed", ProfileID: testProfileID, EventType: domain.EventTypeView, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/badges/check", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/badges/check",
		map[string]any{"userId": "user-2", "activityData": map[string]string{"action": "link_created"}}, env.bearer(t, testUserID))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/badges/check",
		map[string]any{"userId": testUserID, "activityData": map[string]string{"action": "link_created"}}, env.bearer(t, testUserID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	check := decode[CheckBadgesResponse](t, rec)
	require.Len(t, check.NewBadges, 1)
	assert.Equal(t, "views_1", check.NewBadges[0].ID)
	assert.Len(t, check.UpdatedProgress, 2)

	rec = env.do(t, http.MethodPost, "/api/badges/check", nil, env.bearer(t, testUserID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[CheckBadgesResponse](t, rec).NewBadges)

	rec = env.do(t, http.MethodPost, "/api/badges/check", nil, env.bearer(t, "no-profile"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/badges", nil, env.bearer(t, testUserID))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ListBadgesResponse](t, rec)
	require.Len(t, list.Badges, 2)
	for _, b := range list.Badges {
		switch b.BadgeID {
		case "views_1":
			assert.True(t, b.IsCompleted)
			assert.Equal(t, 100, b.Percent)
		case "views_10":
			assert.False(t, b.IsCompleted)
			assert.Equal(t, 10, b.Percent)
		}
	}
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[HealthResponse](t, rec).Status)

	rec = env.do(t, http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	h := NewHealthHandler(downStore{}, "test", zap.NewNop())
	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", decode[HealthResponse](t, rec).DatabaseStatus)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2", "X-Real-IP": "3.3.3.3"}, "4.4.4.4:80", "1.1.1.1"},
		{"real ip", map[string]string{"X-Real-IP": "3.3.3.3", "X-Client-IP": "5.5.5.5"}, "4.4.4.4:80", "3.3.3.3"},
		{"client ip", map[string]string{"X-Client-IP": "5.5.5.5"}, "4.4.4.4:80", "5.5.5.5"},
		{"remote addr", nil, "4.4.4.4:80", "4.4.4.4"},
		{"remote addr without port", nil, "4.4.4.4", "4.4.4.4"},
		{"ipv6 forwarded", map[string]string{"X-Forwarded-For": " 2001:db8::1 , 1.1.1.1"}, "4.4.4.4:80", "2001:db8::1"},
		{"garbage forwarded falls through", map[string]string{"X-Forwarded-For": strings.Repeat("z", 80), "X-Real-IP": "3.3.3.3"}, "4.4.4.4:80", "3.3.3.3"},
		{"garbage everywhere", map[string]string{"X-Client-IP": "not-an-ip"}, "pipe", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}

func TestCDNLocation(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Vercel-IP-Country", "DE")
	req.Header.Set("X-Vercel-IP-City", "M%C3%BCnchen")
	country, city := cdnLocation(req)
	assert.Equal(t, "DE", country)
	assert.Equal(t, "München", city)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-IPCountry", "XX")
	country, _ = cdnLocation(req)
	assert.Empty(t, country)
}
