package api

import (
	"city-chase/internal/pursuit"
	"city-chase/internal/sim"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface defines the simulation core methods used by the API.
// This interface enables mocking for tests without spinning up the full
// step loop. Keep this minimal - only include methods the API layer calls.
type EngineInterface interface {
	// GetStats returns the point-in-time simulation summary
	GetStats() sim.Stats
	// Players returns the render-facing player views
	Players() []sim.PlayerView
	// Agents returns the render-facing agent views
	Agents() []sim.AgentView
	// Roster returns the per-personality agent counts
	Roster() pursuit.Roster
	// Budget returns the current smell budget
	Budget() pursuit.Budget
	// Journal exposes journal counters for the stats endpoint
	Journal() *sim.Journal
	// Reset restarts the match
	Reset()
}

// MinimapRenderer renders the match as a PNG frame.
type MinimapRenderer interface {
	RenderPNG(stats sim.Stats, players []sim.PlayerView, agents []sim.AgentView) ([]byte, error)
}

// RouterConfig contains all dependencies needed to construct the HTTP
// router. This struct is designed for dependency injection and testability.
type RouterConfig struct {
	// Engine is the simulation core (required)
	Engine EngineInterface

	// Minimap renders the diagnostic frame. If nil, /api/minimap.png
	// returns 404.
	Minimap MinimapRenderer

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses
	// DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, only local origins are allowed.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for
	// benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler dependencies for the router.
type routerHandlers struct {
	engine  EngineInterface
	minimap MinimapRenderer
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects:
//   - No goroutines are started
//   - No network listeners are opened
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting before CORS to reject early and save CPU
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{
		engine:  cfg.Engine,
		minimap: cfg.Minimap,
	}

	r.Route("/api", func(r chi.Router) {
		// Match state
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/roster", h.handleGetRoster)
		r.Get("/phase", h.handleGetPhase)
		r.Get("/tiers", h.handleGetTiers)

		// Diagnostics
		r.Get("/minimap.png", h.handleMinimap)

		// Admin
		r.Post("/reset", h.handleReset)
	})

	return r
}
