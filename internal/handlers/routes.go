package handlers

import (
	"net/http"
	"strings"

	"villamedia/internal/middleware"
)

// Routes registers every endpoint and wraps the mux in the rate limit,
// CORS and access log middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	// Media API
	mux.HandleFunc("POST /api/media", h.RequireSecret(h.UploadHandler))
	mux.HandleFunc("GET /api/media", h.ListMedia)
	mux.HandleFunc("GET /api/media/{id}", h.GetMedia)
	mux.HandleFunc("DELETE /api/media/{id}", h.RequireSecret(h.DeleteMedia))
	mux.HandleFunc("POST /api/media/{id}/regenerate", h.RequireSecret(h.RegenerateMedia))

	// Stored files
	prefix := strings.TrimRight(h.cfg.Media.URLPrefix, "/")
	mux.HandleFunc("GET "+prefix+"/{filename}", h.ServeFile)

	// Contact and appointment forms
	mux.Handle("POST /api/send-email", h.emailLimiter.Middleware(http.HandlerFunc(h.SendEmail)))

	// Crawlers
	mux.HandleFunc("GET /sitemap.xml", h.Sitemap)
	mux.HandleFunc("GET /robots.txt", h.Robots)

	// Published content feeding the sitemap
	mux.HandleFunc("PUT /api/content", h.RequireSecret(h.PutContent))
	mux.HandleFunc("DELETE /api/content/{collection}/{slug}", h.RequireSecret(h.DeleteContent))

	// Admin
	mux.HandleFunc("GET /api/admin/stats", h.RequireSecret(h.GetStats))
	mux.HandleFunc("GET /api/admin/backup", h.RequireSecret(h.BackupHandler))

	mux.HandleFunc("GET /healthz", h.Healthz)

	return middleware.Chain(mux,
		h.limiter.Middleware,
		middleware.Cors(h.cfg.Security.CorsOrigins),
		middleware.Logger,
	)
}
