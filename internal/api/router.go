package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/iammorganparry/transmem/internal/memory"
	"github.com/iammorganparry/transmem/internal/metrics"
	"github.com/iammorganparry/transmem/internal/provider"
	"github.com/iammorganparry/transmem/internal/store"
	"github.com/iammorganparry/transmem/internal/translate"
	"github.com/iammorganparry/transmem/internal/worksync"
)

// RouterConfig carries the gateway settings that are not services.
type RouterConfig struct {
	APIKey      string
	CORSOrigins []string
	RateLimiter *RateLimiter // nil disables rate limiting
}

// NewRouter creates the Chi router with all routes and middleware.
// db, health, translator, workSync and m may be nil.
func NewRouter(
	db *store.DB,
	svc *memory.Service,
	health provider.HealthChecker,
	translator *translate.Service,
	workSync *worksync.SyncService,
	m *metrics.Metrics,
	cfg RouterConfig,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on ALL routes including /health)
	r.Use(CORS(cfg.CORSOrigins))
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))
	r.Use(SecurityHeaders)
	if m != nil {
		r.Use(Instrument(m))
	}

	// Handlers
	healthH := NewHealthHandler(db, health, svc)
	entryH := NewEntryHandler(svc)
	workH := NewWorkHandler(svc, workSync)
	translateH := NewTranslateHandler(translator)

	// Unauthenticated routes
	r.Get("/health", healthH.Health)
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	// Authenticated, rate limited routes
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(cfg.APIKey))
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware)
		}

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", entryH.List)
			r.Post("/", entryH.Commit)
			r.Post("/bulk", entryH.BulkCommit)
			r.Post("/search", entryH.Search)
			r.Patch("/index/{index}/context", entryH.UpdateContextAt)
			r.Get("/{id}", entryH.Get)
			r.Patch("/{id}/context", entryH.UpdateContext)
		})

		r.Post("/compact", entryH.Compact)
		r.Get("/stats", entryH.Stats)

		r.Route("/works", func(r chi.Router) {
			r.Get("/", workH.List)
			r.Post("/sync", workH.Sync)
			r.Get("/{title}", workH.Get)
			r.Put("/{title}", workH.Put)
			r.Get("/{title}/characters", workH.Characters)
		})

		r.Post("/translate", translateH.Translate)
	})

	return r
}
