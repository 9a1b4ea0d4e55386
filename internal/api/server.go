// Package api exposes the atelier over HTTP.
//
// Endpoints:
//
//	GET    /api/health                               health check
//	POST   /api/quality                              photo quality check
//	POST   /api/sessions                             analyze a portrait, open a session
//	GET    /api/sessions/{id}                        current session state
//	DELETE /api/sessions/{id}                        discard a session
//	POST   /api/sessions/{id}/looks                  render every pending look
//	POST   /api/sessions/{id}/looks/{index}          render one look, optionally refined
//	PUT    /api/sessions/{id}/looks/{index}/favorite toggle favorite
//	PUT    /api/sessions/{id}/looks/{index}/note     set the free-text note
//	PUT    /api/sessions/{id}/skin-tone              manual undertone override
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"

	"github.com/fpang/vizu-atelier/internal/session"
	"github.com/fpang/vizu-atelier/internal/stylist"
)

// DefaultMaxBodyBytes fits a base64 portrait of a few megabytes.
const DefaultMaxBodyBytes int64 = 15 << 20

// Config tunes the HTTP surface.
type Config struct {
	// ServiceName and Version are reported by the health check.
	ServiceName string
	Version     string

	// MaxBodyBytes caps request bodies. Zero uses DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// RateLimitPerMinute is the per-IP request budget. Zero disables limiting.
	RateLimitPerMinute int

	// OriginSecret, when set, must match the x-origin-verify header that the
	// CDN injects. The health check is exempt.
	OriginSecret string

	// DisableBatch answers POST /api/sessions/{id}/looks with 501 so clients
	// render looks one request at a time. Set behind gateways whose request
	// timeout is shorter than a full batch.
	DisableBatch bool
}

// Server holds the handler dependencies.
type Server struct {
	svc   *stylist.Service
	store *session.Store
	cfg   Config
}

// NewServer creates a Server.
func NewServer(svc *stylist.Service, store *session.Store, cfg Config) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "vizu-atelier"
	}
	return &Server{svc: svc, store: store, cfg: cfg}
}

// Router builds the chi router with the full middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		withAccessLog,
		withMetrics,
	)
	if s.cfg.RateLimitPerMinute > 0 {
		r.Use(newIPLimiter(s.cfg.RateLimitPerMinute).middleware)
	}
	r.Use(withBodyLimit(s.cfg.MaxBodyBytes))

	r.Get("/api/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(withOriginVerify(s.cfg.OriginSecret))
		r.Post("/api/quality", s.handleQuality)

		r.Route("/api/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Put("/skin-tone", s.handleSkinTone)
				if s.cfg.DisableBatch {
					r.Post("/looks", handleBatchDisabled)
				} else {
					r.Post("/looks", s.handleGenerateAll)
				}
				r.Route("/looks/{index}", func(r chi.Router) {
					r.Post("/", s.handleRenderLook)
					r.Put("/favorite", s.handleFavorite)
					r.Put("/note", s.handleNote)
				})
			})
		})
	})

	return gzhttp.GzipHandler(r)
}
