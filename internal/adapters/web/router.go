package web

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/threatwatch-io/threatwatch/internal/adapters/web/middleware"
	"github.com/threatwatch-io/threatwatch/internal/core/domain"
)

func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()

	// Rate limiters
	loginLimiter := middleware.NewRateLimiter(5, 1*time.Minute)      // 5 login attempts per minute
	recomputeLimiter := middleware.NewRateLimiter(10, 1*time.Minute) // 10 full recomputes per minute

	// Public API (with rate limiting)
	r.Handle("/api/login", middleware.RateLimitMiddleware(loginLimiter)(http.HandlerFunc(s.AuthHandler.HandleLogin)))
	r.HandleFunc("/api/logout", s.AuthHandler.HandleLogout)

	// Protected API
	auth := middleware.AuthMiddleware(s.AuthService)
	protect := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}

	// RBAC Middleware Helper (Analyst Level)
	requireAnalyst := middleware.RoleMiddleware(domain.RoleAnalyst)
	protectAnalyst := func(h http.HandlerFunc) http.Handler {
		return auth(requireAnalyst(h))
	}

	// WebSocket endpoint (protected)
	r.Handle("/ws", protect(s.Hub.HandleWebSocket))

	r.Handle("/api/me", protect(s.AuthHandler.HandleMe))

	// Threat intelligence
	r.Handle("/api/threats", protect(s.ThreatHandler.HandleList)).Methods(http.MethodGet)
	r.Handle("/api/threats/{id}", protect(s.ThreatHandler.HandleGet)).Methods(http.MethodGet)
	r.Handle("/api/threats/{id}/associations", protect(s.AssessmentHandler.HandleAssociations)).Methods(http.MethodGet)
	r.Handle("/api/threats/{id}/assessments", protect(s.AssessmentHandler.HandleAssessments)).Methods(http.MethodGet)

	// Analysis (restricted to Analyst/Admin)
	r.Handle("/api/threats/{id}/analyze", protectAnalyst(s.ThreatHandler.HandleAnalyze)).Methods(http.MethodPost)
	r.Handle("/api/recompute", middleware.RateLimitMiddleware(recomputeLimiter)(protectAnalyst(s.ThreatHandler.HandleRecompute))).Methods(http.MethodPost)

	// Asset inventory
	r.Handle("/api/assets", protect(s.AssetHandler.HandleList)).Methods(http.MethodGet)
	r.Handle("/api/assets", protectAnalyst(s.AssetHandler.HandleSave)).Methods(http.MethodPost, http.MethodPut)
	r.Handle("/api/assets/{id}", protect(s.AssetHandler.HandleGet)).Methods(http.MethodGet)

	// Priority Intelligence Requirements
	r.Handle("/api/pirs", protect(s.PIRHandler.HandleList)).Methods(http.MethodGet)
	r.Handle("/api/pirs", protectAnalyst(s.PIRHandler.HandleSave)).Methods(http.MethodPost, http.MethodPut)

	// Metrics endpoint (protected - requires authentication)
	r.Handle("/metrics", protect(func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	}))

	return r
}
