package http

import (
	"BioLink-Backend/internal/auth"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Server wires the handlers to routes.
type Server struct {
	analyticsHandler *AnalyticsHandler
	badgesHandler    *BadgesHandler
	healthHandler    *HealthHandler
	authMiddleware   *auth.Middleware
	log              *zap.Logger
}

// NewServer creates the HTTP server.
func NewServer(
	analyticsHandler *AnalyticsHandler,
	badgesHandler *BadgesHandler,
	healthHandler *HealthHandler,
	authMiddleware *auth.Middleware,
	log *zap.Logger,
) *Server {
	return &Server{
		analyticsHandler: analyticsHandler,
		badgesHandler:    badgesHandler,
		healthHandler:    healthHandler,
		authMiddleware:   authMiddleware,
		log:              log,
	}
}

// SetupRoutes registers every route.
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthHandler.Health)
	mux.HandleFunc("/ready", s.healthHandler.Ready)

	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Tracking is public; an authenticated caller is attached when present.
	mux.HandleFunc("/api/analytics/track", s.withCORS(s.authMiddleware.OptionalAuth(s.analyticsHandler.Track)))

	mux.HandleFunc("/api/analytics/overview", s.withCORS(s.authMiddleware.RequireAuth(s.analyticsHandler.Overview)))
	mux.HandleFunc("/api/analytics/realtime", s.withCORS(s.authMiddleware.RequireAuth(s.analyticsHandler.Realtime)))

	mux.HandleFunc("/api/badges", s.withCORS(s.authMiddleware.RequireAuth(s.badgesHandler.List)))
	mux.HandleFunc("/api/badges/check", s.withCORS(s.authMiddleware.RequireAuth(s.badgesHandler.Check)))

	return mux
}

func (s *Server) withCORS(handler http.HandlerFunc) http.HandlerFunc {
	return s.authMiddleware.CORS(handler)
}
